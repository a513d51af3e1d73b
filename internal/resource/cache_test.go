package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheDedupesByDescriptor(t *testing.T) {
	c := NewCache("assets", nil)

	a := c.Texture("ui/button.png", false)
	b := c.Texture("ui/./button.png", false)
	assert.Same(t, a, b)
	assert.NotSame(t, a, c.Texture("ui/button.png", true), "flip is part of the descriptor")
	assert.Equal(t, "assets/ui/button.png", a.FullPath())

	s1 := c.Shader(`shaders\basic.vert`, "shaders/basic.frag")
	s2 := c.Shader("shaders/basic.vert", "shaders/basic.frag")
	assert.Same(t, s1, s2)
	assert.Equal(t, "shaders/basic.vert", s1.VertexPath())

	m := c.Mesh("crate.obj")
	assert.Equal(t, "assets/_imported/crate.obj.vertex_data", m.VertexDataPath())
	assert.Equal(t, "assets/_imported/crate.obj.index_data", m.IndexDataPath())

	f := c.Font("fonts/mono.ttf", "")
	assert.Equal(t, SourceGame, f.Source())
	assert.Same(t, f, c.Font("fonts/mono.ttf", SourceGame))

	hits, misses := c.Stats()
	assert.Equal(t, 3, hits)
	assert.Equal(t, 5, misses)
	assert.Equal(t, 5, c.Len())
}

func TestCacheNormalizesUnicodePaths(t *testing.T) {
	c := NewCache("", nil)
	composed := c.Texture("caf\u00e9.png", false)
	decomposed := c.Texture("cafe\u0301.png", false)
	assert.Same(t, composed, decomposed)
	assert.Equal(t, "caf\u00e9.png", decomposed.Path())
}

func TestDescriptorOrderIndependent(t *testing.T) {
	d1 := descriptor("Shader", map[string]any{"vertex_path": "a", "fragment_path": "b"})
	d2 := descriptor("Shader", map[string]any{"fragment_path": "b", "vertex_path": "a"})
	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, descriptor("Texture", map[string]any{"vertex_path": "a", "fragment_path": "b"}))
}

func TestCacheSurvivesHashCollision(t *testing.T) {
	c := NewCache("", nil)
	c.sum = func(string) uint64 { return 42 }

	a := c.Texture("a.png", false)
	b := c.Texture("b.png", false)
	m := c.Mesh("a.png")
	assert.NotSame(t, a, b)
	assert.Equal(t, "b.png", b.Path())
	assert.Equal(t, "a.png", m.File())
	assert.Equal(t, 3, c.Len())

	assert.Same(t, a, c.Texture("a.png", false))
	assert.Same(t, b, c.Texture("b.png", false))
	hits, misses := c.Stats()
	assert.Equal(t, 2, hits)
	assert.Equal(t, 3, misses)
}
