package offer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_AddIsIdempotent(t *testing.T) {
	r := NewRegistry()
	m := newFakeMatcher("m")

	assert.True(t, r.Add(m))
	assert.False(t, r.Add(m))
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_RemoveUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	m := newFakeMatcher("m")

	assert.False(t, r.Remove(m))
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_SnapshotIsDefensiveCopy(t *testing.T) {
	r := NewRegistry()
	m1, m2 := newFakeMatcher("m1"), newFakeMatcher("m2")
	r.Add(m1)
	r.Add(m2)

	snap := r.Snapshot()
	require := assert.New(t)
	require.Len(snap, 2)

	snap[0] = nil
	assert.NotNil(t, r.Snapshot()[0])
}

func TestRegistry_RemovePreservesOrderOfSurvivors(t *testing.T) {
	r := NewRegistry()
	m1, m2, m3 := newFakeMatcher("m1"), newFakeMatcher("m2"), newFakeMatcher("m3")
	r.Add(m1)
	r.Add(m2)
	r.Add(m3)

	r.Remove(m2)
	assert.Equal(t, []Matcher{m1, m3}, r.Snapshot())
}
