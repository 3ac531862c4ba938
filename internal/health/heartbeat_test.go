package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uber-go/tally"
)

func TestInitHeartbeat_OnlyInitsOnce(t *testing.T) {
	scope := tally.NoopScope
	cfg := Config{HeartbeatInterval: time.Millisecond}

	InitHeartbeat(scope, cfg, func() bool { return true })
	first := hb

	InitHeartbeat(scope, cfg, func() bool { return false })
	assert.Same(t, first, hb, "a second InitHeartbeat call must be a no-op")

	hb.Stop()
}
