package ecs

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func assertVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], eps, "component %d of %v", i, got)
	}
}

func TestChildFollowsParentMove(t *testing.T) {
	w := NewWorld(nil)
	a := mustSpawn(w, EntitySpec{Name: "A"})
	b := mustSpawn(w, EntitySpec{Name: "B", Pos: mgl64.Vec3{1, 0, 0}, Parent: a})

	assertVec(t, mgl64.Vec3{1, 0, 0}, b.WorldPosition())
	local, world := b.LocalVersion(), b.WorldVersion()

	a.SetPos(mgl64.Vec3{5, 0, 0})

	assertVec(t, mgl64.Vec3{6, 0, 0}, b.WorldPosition())
	assert.Equal(t, local, b.LocalVersion())
	assert.Greater(t, b.WorldVersion(), world)
}

func TestDefaults(t *testing.T) {
	w := NewWorld(nil)
	e := mustSpawn(w, EntitySpec{})
	assert.Equal(t, "Game Object", e.Name())
	assert.Equal(t, mgl64.QuatIdent(), e.Rotation())
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, e.Scale())
	assert.Nil(t, e.Parent())
	assert.NotEmpty(t, e.UUID())
	assert.False(t, e.CreatedAt().IsZero())
}

func TestWorldMatrixComposesScaleRotationTranslation(t *testing.T) {
	w := NewWorld(nil)
	two := mgl64.Vec3{2, 2, 2}
	parent := mustSpawn(w, EntitySpec{Pos: mgl64.Vec3{0, 0, 10}, Euler: mgl64.Vec3{0, 90, 0}, Scale: &two})
	child := mustSpawn(w, EntitySpec{Pos: mgl64.Vec3{1, 0, 0}, Parent: parent})

	// Rotating +X by 90 degrees about Y gives -Z; scale doubles it.
	assertVec(t, mgl64.Vec3{0, 0, 8}, child.WorldPosition())
	assertVec(t, mgl64.Vec3{1, 0, 0}, parent.Forward())
	assertVec(t, mgl64.Vec3{0, 0, -1}, parent.Right())
	assertVec(t, mgl64.Vec3{0, 1, 0}, parent.Up())
	assert.InDelta(t, 1.0, child.Forward().Len(), eps)

	m := child.WorldMatrix()
	assertVec(t, child.WorldPosition(), m.Col(3).Vec3())
	assertVec(t, mgl64.Vec3{1, 0, 0}, child.WorldToLocal(child.WorldPosition().Add(mgl64.Vec3{0, 0, -2})))
	assertVec(t, child.WorldPosition(), child.LocalToWorld(mgl64.Vec3{}))
	assertVec(t, mgl64.Vec3{0, 0, -2}, child.LocalToWorldDirection(mgl64.Vec3{1, 0, 0}))
}

func TestWorldMatrixIsCachedByVersion(t *testing.T) {
	w := NewWorld(nil)
	a := mustSpawn(w, EntitySpec{Name: "A"})
	b := mustSpawn(w, EntitySpec{Name: "B", Parent: a})
	sibling := mustSpawn(w, EntitySpec{Name: "C", Parent: a})

	b.WorldMatrix()
	b.WorldPosition()
	b.Right()
	b.Up()
	b.Forward()
	require.Equal(t, 1, b.recomputes)

	sibling.SetPos(mgl64.Vec3{3, 3, 3})
	b.WorldMatrix()
	assert.Equal(t, 1, b.recomputes, "sibling mutation must not invalidate")

	a.SetScale(mgl64.Vec3{2, 2, 2})
	b.Forward()
	assert.Equal(t, 2, b.recomputes)
	b.WorldMatrix()
	assert.Equal(t, 2, b.recomputes)

	b.SetEuler(mgl64.Vec3{0, 0, 45})
	b.WorldPosition()
	assert.Equal(t, 3, b.recomputes)
}

func TestWorldVersionIncreasesOnEveryMutation(t *testing.T) {
	w := NewWorld(nil)
	root := mustSpawn(w, EntitySpec{})
	mid := mustSpawn(w, EntitySpec{Parent: root})
	leaf := mustSpawn(w, EntitySpec{Parent: mid})
	other := mustSpawn(w, EntitySpec{})

	steps := []struct {
		name string
		fn   func()
	}{
		{"own pos", func() { leaf.SetPos(mgl64.Vec3{1, 2, 3}) }},
		{"own rotation", func() { leaf.SetRotation(mgl64.QuatRotate(1, mgl64.Vec3{0, 1, 0})) }},
		{"own scale", func() { leaf.SetScale(mgl64.Vec3{3, 3, 3}) }},
		{"parent pos", func() { mid.SetX(4) }},
		{"grandparent rotation", func() { root.RotateAround(mgl64.Vec3{1, 0, 0}, 30) }},
		{"reparent", func() { require.NoError(t, leaf.SetParent(root)) }},
		{"unparent", func() { require.NoError(t, leaf.SetParent(nil)) }},
	}
	for _, s := range steps {
		before := leaf.WorldVersion()
		s.fn()
		assert.Greater(t, leaf.WorldVersion(), before, s.name)
	}

	before := leaf.WorldVersion()
	other.SetPos(mgl64.Vec3{9, 9, 9})
	mid.SetPos(mgl64.Vec3{7, 7, 7})
	assert.Equal(t, before, leaf.WorldVersion(), "unrelated entities")
}

func TestReparentUnderYoungerParentStillIncreases(t *testing.T) {
	w := NewWorld(nil)
	busy := mustSpawn(w, EntitySpec{})
	for i := 0; i < 10; i++ {
		busy.SetY(float64(i))
	}
	fresh := mustSpawn(w, EntitySpec{})
	child := mustSpawn(w, EntitySpec{Parent: busy})

	before := child.WorldVersion()
	require.NoError(t, child.SetParent(fresh))
	assert.Greater(t, child.WorldVersion(), before)
	assert.Empty(t, busy.Children())
	assert.Equal(t, []*Entity{child}, fresh.Children())
	assert.Same(t, fresh, child.Parent())
}

func TestSetParentRejectsCycles(t *testing.T) {
	w := NewWorld(nil)
	a := mustSpawn(w, EntitySpec{})
	b := mustSpawn(w, EntitySpec{Parent: a})
	c := mustSpawn(w, EntitySpec{Parent: b})

	assert.ErrorIs(t, a.SetParent(c), ErrHierarchyCycle)
	assert.ErrorIs(t, a.SetParent(a), ErrHierarchyCycle)
	assert.Nil(t, a.Parent())

	other := NewWorld(nil)
	x := mustSpawn(other, EntitySpec{})
	assert.ErrorIs(t, x.SetParent(a), ErrForeignWorld)
}

func TestRotationIsCanonical(t *testing.T) {
	w := NewWorld(nil)
	e := mustSpawn(w, EntitySpec{Rotation: mgl64.Quat{W: -2, V: mgl64.Vec3{0, 0, 0}}})
	assert.InDelta(t, 1.0, e.Rotation().W, eps)

	e.SetRotation(mgl64.Quat{})
	assert.Equal(t, mgl64.QuatIdent(), e.Rotation())

	q := EulerToQuat(mgl64.Vec3{0, 180, 0})
	assert.GreaterOrEqual(t, q.W, 0.0)
	assert.InDelta(t, 1.0, q.Len(), eps)
}
