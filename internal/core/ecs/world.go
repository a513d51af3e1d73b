package ecs

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vectorforge/scenert/internal/core/serial"
	"go.uber.org/zap"
)

// Hooks are notified as entities and behaviors enter and leave the world.
// Erased hooks receive identifiers only since the object is already
// poisoned when they run.
type Hooks struct {
	Spawned        func(e *Entity)
	Erased         func(uuid, name string)
	BehaviorErased func(uuid, typeName string)
}

// World is the top-level scene container. It owns the entity pool, the
// live set, side tables, and the two deferred destruction queues flushed
// by Sweep at the end of each tick.
type World struct {
	log      *zap.Logger
	pool     *EntityPool
	registry *Registry
	tags     *Store[[]string]
	hooks    Hooks

	live          []*Entity
	destroyQueue  []*Entity
	behaviorQueue []Behavior

	entityType *serial.TypeInfo
	now        func() time.Time
}

func NewWorld(log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	w := &World{
		log:           log,
		pool:          NewEntityPool(),
		registry:      NewRegistry(),
		tags:          NewStore[[]string](),
		live:          make([]*Entity, 0, 256),
		destroyQueue:  make([]*Entity, 0, 64),
		behaviorQueue: make([]Behavior, 0, 64),
		now:           time.Now,
	}
	w.registry.Register(w.tags)
	return w
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

// SetHooks replaces the lifecycle hooks.
func (w *World) SetHooks(h Hooks) { w.hooks = h }

// EntitySpec carries the factory attributes for Spawn. Zero values get the
// defaults: name "Game Object", identity rotation, unit scale. Euler (in
// degrees) is used when Rotation is the zero quaternion.
type EntitySpec struct {
	Name      string
	Pos       mgl64.Vec3
	Rotation  mgl64.Quat
	Euler     mgl64.Vec3
	Scale     *mgl64.Vec3
	Parent    *Entity
	Behaviors []Behavior
}

func (w *World) newEntity() *Entity {
	return &Entity{
		Base:      serial.NewBase(),
		world:     w,
		name:      defaultEntityName,
		tr:        newTransform(mgl64.Vec3{}, mgl64.QuatIdent(), unitScale),
		createdAt: w.now(),
	}
}

// Spawn creates an entity, registers it in the live set, binds every
// behavior in spec and then starts them in order. When a Start fails the
// half-spawned entity is destroyed and the error returned.
func (w *World) Spawn(spec EntitySpec) (*Entity, error) {
	if spec.Parent != nil {
		spec.Parent.alive("Spawn")
		if spec.Parent.world != w {
			return nil, ErrForeignWorld
		}
	}
	e := w.newEntity()
	if spec.Name != "" {
		e.name = spec.Name
	}
	e.tr.pos = spec.Pos
	switch {
	case !isZeroQuat(spec.Rotation):
		e.tr.rot = CanonicalQuat(spec.Rotation)
	case spec.Euler != (mgl64.Vec3{}):
		e.tr.rot = EulerToQuat(spec.Euler)
	}
	if spec.Scale != nil {
		e.tr.scale = *spec.Scale
	}

	w.register(e)
	if spec.Parent != nil {
		e.setParent(spec.Parent)
	}
	for _, b := range spec.Behaviors {
		if err := e.attach(b); err != nil {
			e.Destroy()
			return nil, err
		}
	}
	w.spawned(e)
	if err := w.startAll(e); err != nil {
		return nil, err
	}
	return e, nil
}

func (w *World) register(e *Entity) {
	e.id = w.pool.Create(e)
	w.live = append(w.live, e)
}

func (w *World) spawned(e *Entity) {
	w.log.Debug("entity spawned",
		zap.String("entity", e.name),
		zap.String("uuid", e.UUID()),
		zap.Int("behaviors", len(e.behaviors)+len(e.renderers)+len(e.uiRenderers)),
	)
	if w.hooks.Spawned != nil {
		w.hooks.Spawned(e)
	}
}

func (w *World) startAll(e *Entity) error {
	for _, b := range e.allBehaviors() {
		if err := w.start(b); err != nil {
			w.log.Warn("behavior start failed",
				zap.String("entity", e.name),
				zap.String("behavior", b.TypeName()),
				zap.Error(err),
			)
			e.Destroy()
			return fmt.Errorf("start %s on %q: %w", b.TypeName(), e.name, err)
		}
	}
	return nil
}

func (w *World) start(b Behavior) error {
	base := b.behavior()
	if base.started || base.destroyed {
		return nil
	}
	base.started = true
	return b.Start()
}

// UpdateAll runs Update on every started, enabled plain behavior of every
// live entity. Entities and behaviors destroyed earlier in the same pass
// are skipped; the collections are snapshotted so destruction during the
// pass is safe.
func (w *World) UpdateAll(dt time.Duration) {
	live := append([]*Entity(nil), w.live...)
	for _, e := range live {
		if e.destroyed || e.erased {
			continue
		}
		list := append([]Behavior(nil), e.behaviors...)
		for _, b := range list {
			base := b.behavior()
			if base.destroyed || base.Disabled || !base.started {
				continue
			}
			b.Update(dt)
		}
	}
}

// Sweep erases everything destroyed since the last sweep: behaviors
// first, then entities. Erased objects are poisoned.
func (w *World) Sweep() {
	for len(w.behaviorQueue) > 0 {
		q := w.behaviorQueue
		w.behaviorQueue = make([]Behavior, 0, cap(q))
		for _, b := range q {
			w.eraseBehavior(b)
		}
	}
	erased := 0
	for len(w.destroyQueue) > 0 {
		q := w.destroyQueue
		w.destroyQueue = make([]*Entity, 0, cap(q))
		for _, e := range q {
			if w.eraseEntity(e) {
				erased++
			}
		}
	}
	if erased == 0 {
		return
	}
	n := 0
	for _, e := range w.live {
		if !e.erased {
			w.live[n] = e
			n++
		}
	}
	clear(w.live[n:])
	w.live = w.live[:n]
	w.log.Debug("sweep", zap.Int("erased", erased), zap.Int("live", n))
}

func (w *World) eraseBehavior(b Behavior) {
	base := b.behavior()
	if base.erased {
		return
	}
	if e, ok := w.pool.Get(base.owner); ok {
		e.detach(b)
	}
	base.erased = true
	if w.hooks.BehaviorErased != nil {
		w.hooks.BehaviorErased(b.UUID(), b.TypeName())
	}
}

func (w *World) eraseEntity(e *Entity) bool {
	if e.erased {
		return false
	}
	if p := e.parentEntity(); p != nil {
		p.removeChild(e.id)
	}
	// Children attached after Destroy survive as top-level entities.
	for _, id := range e.children {
		if c, ok := w.pool.Get(id); ok {
			c.setParent(nil)
		}
	}
	for _, b := range e.allBehaviors() {
		if base := b.behavior(); !base.destroyed {
			base.destroyed = true
			b.OnDestroy()
		}
		w.eraseBehavior(b)
	}
	w.registry.RemoveAll(e.id)
	w.pool.Destroy(e.id)
	e.children = nil
	e.erased = true
	if w.hooks.Erased != nil {
		w.hooks.Erased(e.UUID(), e.name)
	}
	return true
}

// DestroyAll destroys every live entity and sweeps, leaving the world
// empty.
func (w *World) DestroyAll() {
	for _, e := range append([]*Entity(nil), w.live...) {
		if !e.erased && !e.destroyed {
			e.Destroy()
		}
	}
	w.Sweep()
}

// Pending returns the number of entities and behaviors waiting for the
// next sweep.
func (w *World) Pending() (entities, behaviors int) {
	return len(w.destroyQueue), len(w.behaviorQueue)
}

// Entities returns the live set, including entities destroyed but not yet
// swept.
func (w *World) Entities() []*Entity {
	return append([]*Entity(nil), w.live...)
}

func (w *World) Count() int {
	return len(w.live)
}

// Roots returns live, non-destroyed entities without a parent.
func (w *World) Roots() []*Entity {
	var out []*Entity
	for _, e := range w.live {
		if !e.destroyed && e.parentEntity() == nil {
			out = append(out, e)
		}
	}
	return out
}

// Lookup resolves a handle.
func (w *World) Lookup(id EntityID) (*Entity, bool) {
	return w.pool.Get(id)
}

// Renderers returns the renderer behaviors of every entity not destroyed.
func (w *World) Renderers() []Behavior {
	var out []Behavior
	for _, e := range w.live {
		if e.destroyed {
			continue
		}
		for _, b := range e.renderers {
			if !b.behavior().destroyed {
				out = append(out, b)
			}
		}
	}
	return out
}

// UIRenderers returns the UI renderer behaviors of every entity not
// destroyed.
func (w *World) UIRenderers() []Behavior {
	var out []Behavior
	for _, e := range w.live {
		if e.destroyed {
			continue
		}
		for _, b := range e.uiRenderers {
			if !b.behavior().destroyed {
				out = append(out, b)
			}
		}
	}
	return out
}

// FindByName returns the first live entity with the given name.
func (w *World) FindByName(name string) (*Entity, bool) {
	for _, e := range w.live {
		if !e.destroyed && e.name == name {
			return e, true
		}
	}
	return nil, false
}

func (w *World) FindByUUID(uuid string) (*Entity, bool) {
	for _, e := range w.live {
		if !e.destroyed && e.UUID() == uuid {
			return e, true
		}
	}
	return nil, false
}

// Tag adds tags to e. Tags are not serialized and are dropped on erase.
func (w *World) Tag(e *Entity, tags ...string) {
	e.alive("Tag")
	cur, _ := w.tags.Get(e.id)
	for _, t := range tags {
		if !containsString(cur, t) {
			cur = append(cur, t)
		}
	}
	w.tags.Set(e.id, cur)
}

func (w *World) Untag(e *Entity, tag string) {
	e.alive("Untag")
	cur, ok := w.tags.Get(e.id)
	if !ok {
		return
	}
	out := cur[:0]
	for _, t := range cur {
		if t != tag {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		w.tags.Remove(e.id)
		return
	}
	w.tags.Set(e.id, out)
}

func (w *World) Tags(e *Entity) []string {
	e.alive("Tags")
	cur, _ := w.tags.Get(e.id)
	out := append([]string(nil), cur...)
	sort.Strings(out)
	return out
}

// FindByTag returns live entities carrying tag, in live-set order.
func (w *World) FindByTag(tag string) []*Entity {
	var out []*Entity
	for _, e := range w.live {
		if e.destroyed {
			continue
		}
		if cur, ok := w.tags.Get(e.id); ok && containsString(cur, tag) {
			out = append(out, e)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
