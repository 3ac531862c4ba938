package offer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromise_TrySucceedIsOnceOnly(t *testing.T) {
	p := NewPromise()
	p.TrySucceed(&MatchedInstanceOps{OfferID: "first"})
	p.TrySucceed(&MatchedInstanceOps{OfferID: "second"})

	result, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", result.OfferID)
}

func TestPromise_WaitRespectsContextCancellation(t *testing.T) {
	p := NewPromise()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPromise_ConcurrentTrySucceedRacesHarmlessly(t *testing.T) {
	p := NewPromise()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		i := i
		go func() {
			p.TrySucceed(&MatchedInstanceOps{OfferID: "racer"})
			if i == 0 {
				close(done)
			}
		}()
	}
	<-done

	result, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "racer", result.OfferID)
}
