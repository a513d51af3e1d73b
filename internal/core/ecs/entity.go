package ecs

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vectorforge/scenert/internal/core/serial"
)

const defaultEntityName = "Game Object"

// Entity is a node of the scene hierarchy. Parent and child links are
// handles into the world's pool; behaviors are owned.
//
// Every exported method panics with a *DestroyedError once the entity has
// been swept. Destroy itself only queues the entity.
type Entity struct {
	serial.Base

	world     *World
	id        EntityID
	name      string
	tr        Transform
	createdAt time.Time

	parent   EntityID
	children []EntityID

	behaviors   []Behavior
	renderers   []Behavior
	uiRenderers []Behavior

	destroyed bool
	erased    bool

	// World transform cache, valid while cacheVersion == WorldVersion().
	cacheValid   bool
	cacheVersion uint64
	worldMatrix  mgl64.Mat4
	worldPos     mgl64.Vec3
	right        mgl64.Vec3
	up           mgl64.Vec3
	forward      mgl64.Vec3
	recomputes   int

	// staged holds decoded links until the graph activates the entity.
	staged *entityStage
	// pendingStart marks an activated entity whose behaviors have not
	// been started yet.
	pendingStart bool
}

type entityStage struct {
	parent    *Entity
	children  []*Entity
	behaviors []Behavior
}

func (e *Entity) alive(method string) {
	if e.erased {
		panic(&DestroyedError{Kind: "entity", Name: e.name, Method: method})
	}
}

func (e *Entity) String() string { return e.name }

func (e *Entity) ID() EntityID {
	e.alive("ID")
	return e.id
}

func (e *Entity) World() *World {
	e.alive("World")
	return e.world
}

func (e *Entity) Name() string {
	e.alive("Name")
	return e.name
}

func (e *Entity) SetName(name string) {
	e.alive("SetName")
	e.name = name
}

func (e *Entity) CreatedAt() time.Time {
	e.alive("CreatedAt")
	return e.createdAt
}

// Destroyed reports whether Destroy was called. It stays callable after
// the sweep.
func (e *Entity) Destroyed() bool { return e.destroyed }

// ── Local transform ──────────────────────────────────────────────

func (e *Entity) Pos() mgl64.Vec3 {
	e.alive("Pos")
	return e.tr.pos
}

func (e *Entity) SetPos(p mgl64.Vec3) {
	e.alive("SetPos")
	e.tr.pos = p
	e.tr.localVersion++
}

func (e *Entity) SetX(x float64) { e.SetPos(mgl64.Vec3{x, e.tr.pos[1], e.tr.pos[2]}) }
func (e *Entity) SetY(y float64) { e.SetPos(mgl64.Vec3{e.tr.pos[0], y, e.tr.pos[2]}) }
func (e *Entity) SetZ(z float64) { e.SetPos(mgl64.Vec3{e.tr.pos[0], e.tr.pos[1], z}) }

func (e *Entity) Translate(d mgl64.Vec3) {
	e.SetPos(e.tr.pos.Add(d))
}

func (e *Entity) Rotation() mgl64.Quat {
	e.alive("Rotation")
	return e.tr.rot
}

func (e *Entity) SetRotation(q mgl64.Quat) {
	e.alive("SetRotation")
	e.tr.rot = CanonicalQuat(q)
	e.tr.localVersion++
}

// SetEuler sets the rotation from XYZ Euler angles in degrees.
func (e *Entity) SetEuler(deg mgl64.Vec3) {
	e.SetRotation(EulerToQuat(deg))
}

// RotateAround applies a rotation of deg degrees about axis on top of the
// current rotation.
func (e *Entity) RotateAround(axis mgl64.Vec3, deg float64) {
	e.alive("RotateAround")
	if axis.Len() == 0 {
		return
	}
	q := mgl64.QuatRotate(mgl64.DegToRad(deg), axis.Normalize())
	e.SetRotation(q.Mul(e.tr.rot))
}

func (e *Entity) Scale() mgl64.Vec3 {
	e.alive("Scale")
	return e.tr.scale
}

func (e *Entity) SetScale(s mgl64.Vec3) {
	e.alive("SetScale")
	e.tr.scale = s
	e.tr.localVersion++
}

func (e *Entity) LocalVersion() uint64 {
	e.alive("LocalVersion")
	return e.tr.localVersion
}

// WorldVersion is the local version plus the parent's world version, so
// a mutation anywhere up the chain changes it.
func (e *Entity) WorldVersion() uint64 {
	e.alive("WorldVersion")
	return e.worldVersion()
}

func (e *Entity) worldVersion() uint64 {
	v := e.tr.localVersion
	if p := e.parentEntity(); p != nil {
		v += p.worldVersion()
	}
	return v
}

// ── Hierarchy ────────────────────────────────────────────────────

func (e *Entity) parentEntity() *Entity {
	if e.parent.IsZero() || e.world == nil {
		return nil
	}
	p, ok := e.world.pool.Get(e.parent)
	if !ok {
		return nil
	}
	return p
}

func (e *Entity) Parent() *Entity {
	e.alive("Parent")
	return e.parentEntity()
}

// Children returns the live child entities in insertion order.
func (e *Entity) Children() []*Entity {
	e.alive("Children")
	out := make([]*Entity, 0, len(e.children))
	for _, id := range e.children {
		if c, ok := e.world.pool.Get(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// SetParent moves e under p, or to the top level when p is nil.
func (e *Entity) SetParent(p *Entity) error {
	e.alive("SetParent")
	if p != nil {
		p.alive("SetParent")
		if p.world != e.world {
			return ErrForeignWorld
		}
		for a := p; a != nil; a = a.parentEntity() {
			if a == e {
				return fmt.Errorf("%w: %s under %s", ErrHierarchyCycle, e.name, p.name)
			}
		}
	}
	e.setParent(p)
	return nil
}

// setParent relinks without checks. The local version is advanced by at
// least one and by however much the parent's world version drops, so the
// world version is strictly greater than before.
func (e *Entity) setParent(p *Entity) {
	var before uint64
	if old := e.parentEntity(); old != nil {
		before = old.worldVersion()
		old.removeChild(e.id)
	}
	var after uint64
	e.parent = 0
	if p != nil {
		e.parent = p.id
		p.addChild(e.id)
		after = p.worldVersion()
	}
	e.tr.localVersion++
	if before > after {
		e.tr.localVersion += before - after
	}
}

func (e *Entity) addChild(id EntityID) {
	for _, c := range e.children {
		if c == id {
			return
		}
	}
	e.children = append(e.children, id)
}

func (e *Entity) removeChild(id EntityID) {
	for i, c := range e.children {
		if c == id {
			e.children = append(e.children[:i], e.children[i+1:]...)
			return
		}
	}
}

// ── World transform ──────────────────────────────────────────────

func (e *Entity) refresh() {
	v := e.worldVersion()
	if e.cacheValid && e.cacheVersion == v {
		return
	}
	m := e.tr.localMatrix()
	if p := e.parentEntity(); p != nil {
		p.refresh()
		m = p.worldMatrix.Mul4(m)
	}
	e.worldMatrix = m
	e.worldPos = m.Col(3).Vec3()
	e.right = unitDirection(m, axisRight, e.worldPos)
	e.up = unitDirection(m, axisUp, e.worldPos)
	e.forward = unitDirection(m, axisForward, e.worldPos)
	e.cacheVersion = v
	e.cacheValid = true
	e.recomputes++
}

// WorldMatrix returns the local-to-world matrix, recomputing it only when
// the world version moved since the last call.
func (e *Entity) WorldMatrix() mgl64.Mat4 {
	e.alive("WorldMatrix")
	e.refresh()
	return e.worldMatrix
}

func (e *Entity) WorldPosition() mgl64.Vec3 {
	e.alive("WorldPosition")
	e.refresh()
	return e.worldPos
}

func (e *Entity) Right() mgl64.Vec3 {
	e.alive("Right")
	e.refresh()
	return e.right
}

func (e *Entity) Up() mgl64.Vec3 {
	e.alive("Up")
	e.refresh()
	return e.up
}

func (e *Entity) Forward() mgl64.Vec3 {
	e.alive("Forward")
	e.refresh()
	return e.forward
}

func (e *Entity) LocalToWorld(p mgl64.Vec3) mgl64.Vec3 {
	e.alive("LocalToWorld")
	e.refresh()
	return transformPoint(e.worldMatrix, p)
}

func (e *Entity) WorldToLocal(p mgl64.Vec3) mgl64.Vec3 {
	e.alive("WorldToLocal")
	e.refresh()
	return transformPoint(e.worldMatrix.Inv(), p)
}

// LocalToWorldDirection transforms a direction; the result is not
// normalized.
func (e *Entity) LocalToWorldDirection(d mgl64.Vec3) mgl64.Vec3 {
	e.alive("LocalToWorldDirection")
	e.refresh()
	return transformPoint(e.worldMatrix, d).Sub(e.worldPos)
}

// ── Behaviors ────────────────────────────────────────────────────

// Behaviors returns the plain (non-rendering) behaviors.
func (e *Entity) Behaviors() []Behavior {
	e.alive("Behaviors")
	return e.behaviors
}

func (e *Entity) Renderers() []Behavior {
	e.alive("Renderers")
	return e.renderers
}

func (e *Entity) UIRenderers() []Behavior {
	e.alive("UIRenderers")
	return e.uiRenderers
}

// AllBehaviors returns plain behaviors, then renderers, then UI renderers.
func (e *Entity) AllBehaviors() []Behavior {
	e.alive("AllBehaviors")
	return e.allBehaviors()
}

func (e *Entity) allBehaviors() []Behavior {
	out := make([]Behavior, 0, len(e.behaviors)+len(e.renderers)+len(e.uiRenderers))
	out = append(out, e.behaviors...)
	out = append(out, e.renderers...)
	return append(out, e.uiRenderers...)
}

// AddBehavior binds b to e and starts it immediately.
func (e *Entity) AddBehavior(b Behavior) error {
	e.alive("AddBehavior")
	if err := e.attach(b); err != nil {
		return err
	}
	return e.world.start(b)
}

func (e *Entity) attach(b Behavior) error {
	base := b.behavior()
	if base.world != nil {
		return fmt.Errorf("%w: %s %s", ErrAlreadyAttached, b.TypeName(), b.UUID())
	}
	base.self = b
	base.world = e.world
	base.owner = e.id
	switch {
	case b.Renderer():
		e.renderers = append(e.renderers, b)
	case b.UIRenderer():
		e.uiRenderers = append(e.uiRenderers, b)
	default:
		e.behaviors = append(e.behaviors, b)
	}
	return nil
}

func (e *Entity) detach(b Behavior) {
	e.behaviors = removeBehavior(e.behaviors, b)
	e.renderers = removeBehavior(e.renderers, b)
	e.uiRenderers = removeBehavior(e.uiRenderers, b)
}

func removeBehavior(list []Behavior, b Behavior) []Behavior {
	for i, x := range list {
		if x == b {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// ── Destruction ──────────────────────────────────────────────────

// Destroy destroys the children, then the behaviors, then queues e for
// the next sweep. Render list queries skip e from now on. A second call
// before the sweep does nothing.
func (e *Entity) Destroy() {
	e.alive("Destroy")
	if e.destroyed {
		return
	}
	e.destroyed = true
	for _, c := range e.Children() {
		c.Destroy()
	}
	for _, b := range e.allBehaviors() {
		b.behavior().Destroy()
	}
	e.world.destroyQueue = append(e.world.destroyQueue, e)
}
