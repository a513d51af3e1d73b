package ecs

import (
	"errors"
	"fmt"
	"time"

	"github.com/vectorforge/scenert/internal/core/serial"
)

// ErrAlreadyAttached is returned when a behavior is bound to a second entity.
var ErrAlreadyAttached = errors.New("behavior already attached")

// Behavior is a unit of per-frame logic attached to exactly one entity.
// Implementations embed BaseBehavior, which supplies no-op hooks and the
// lifecycle bookkeeping.
//
// Capabilities are predicates instead of type checks so renderer lists can
// be built without knowing concrete types. They must not change after the
// behavior is attached.
type Behavior interface {
	serial.Object

	Renderer() bool
	UIRenderer() bool

	// Start runs once after every behavior passed to the factory is bound.
	Start() error
	Update(dt time.Duration)
	// OnDestroy runs once, synchronously, when Destroy is first called.
	OnDestroy()

	behavior() *BaseBehavior
}

// BehaviorType is the abstract base of every behavior type.
var BehaviorType = &serial.TypeInfo{
	Name:  "Behavior",
	Attrs: []string{"enabled"},
}

type BaseBehavior struct {
	serial.Base
	Disabled bool

	self      Behavior
	world     *World
	owner     EntityID
	started   bool
	destroyed bool
	erased    bool
}

// NewBaseBehavior returns an enabled base with a fresh UUID.
func NewBaseBehavior() BaseBehavior {
	return BaseBehavior{Base: serial.NewBase()}
}

func (b *BaseBehavior) behavior() *BaseBehavior { return b }

func (b *BaseBehavior) Renderer() bool   { return false }
func (b *BaseBehavior) UIRenderer() bool { return false }
func (b *BaseBehavior) OnDestroy()       {}

func (b *BaseBehavior) Start() error {
	b.MustBeAlive("Start")
	return nil
}

func (b *BaseBehavior) Update(dt time.Duration) {
	b.MustBeAlive("Update")
}

func (b *BaseBehavior) Attr(name string) (serial.Value, bool) {
	b.MustBeAlive("Attr")
	if name == "enabled" {
		return serial.Bool(!b.Disabled), true
	}
	return serial.Value{}, false
}

func (b *BaseBehavior) SetAttr(name string, v serial.Value) error {
	b.MustBeAlive("SetAttr")
	if name != "enabled" {
		return serial.UnknownAttr("Behavior", name)
	}
	if v.IsNil() {
		b.Disabled = false
		return nil
	}
	on, err := v.Bool()
	if err != nil {
		return err
	}
	b.Disabled = !on
	return nil
}

// MustBeAlive panics with a *DestroyedError once the behavior has been
// swept. Behaviors call it at the top of their exported methods.
func (b *BaseBehavior) MustBeAlive(method string) {
	if b.erased {
		panic(&DestroyedError{Kind: b.kindName(), Name: b.UUID(), Method: method})
	}
}

func (b *BaseBehavior) kindName() string {
	if b.self != nil {
		return b.self.TypeName()
	}
	return "behavior"
}

// GameObject returns the owning entity. It panics when either the behavior
// or the entity has been swept.
func (b *BaseBehavior) GameObject() *Entity {
	b.MustBeAlive("GameObject")
	if b.world == nil {
		return nil
	}
	e, ok := b.world.pool.Get(b.owner)
	if !ok {
		panic(&DestroyedError{Kind: "entity", Name: fmt.Sprintf("#%d", b.owner.Index()), Method: "GameObject"})
	}
	return e
}

func (b *BaseBehavior) Enabled() bool {
	b.MustBeAlive("Enabled")
	return !b.Disabled
}

func (b *BaseBehavior) SetEnabled(on bool) {
	b.MustBeAlive("SetEnabled")
	b.Disabled = !on
}

func (b *BaseBehavior) Started() bool { return b.started }

// Destroyed reports whether Destroy was called. It stays callable after
// the sweep.
func (b *BaseBehavior) Destroyed() bool { return b.destroyed }

// Destroy runs OnDestroy and queues the behavior for the next sweep.
// Calling it again before the sweep does nothing.
func (b *BaseBehavior) Destroy() {
	b.MustBeAlive("Destroy")
	if b.destroyed {
		return
	}
	b.destroyed = true
	if b.self != nil {
		b.self.OnDestroy()
	}
	if b.world != nil {
		b.world.behaviorQueue = append(b.world.behaviorQueue, b.self)
	}
}
