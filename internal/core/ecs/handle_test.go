package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityPoolReusesSlotsWithNewGeneration(t *testing.T) {
	p := NewEntityPool()
	a := &Entity{}
	id := p.Create(a)
	require.False(t, id.IsZero())
	assert.Equal(t, uint32(1), id.Index())
	assert.Equal(t, 1, p.Len())

	got, ok := p.Get(id)
	require.True(t, ok)
	assert.Same(t, a, got)

	p.Destroy(id)
	assert.False(t, p.Alive(id))
	_, ok = p.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 0, p.Len())

	b := &Entity{}
	id2 := p.Create(b)
	assert.Equal(t, id.Index(), id2.Index())
	assert.Equal(t, id.Generation()+1, id2.Generation())
	assert.False(t, p.Alive(id), "stale handle must not resolve to the new occupant")

	p.Destroy(id)
	assert.True(t, p.Alive(id2), "destroying a stale handle is ignored")
}

func TestEntityPoolZeroHandle(t *testing.T) {
	p := NewEntityPool()
	_, ok := p.Get(0)
	assert.False(t, ok)
	_, ok = p.Get(NewEntityID(42, 0))
	assert.False(t, ok)
}
