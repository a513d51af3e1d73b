package ecs

import (
	"errors"
	"fmt"
	"time"

	"github.com/vectorforge/scenert/internal/core/serial"
)

const EntityTypeName = "Entity"

// ErrEntityActive is returned when decoded links are assigned to an entity
// that already joined the world.
var ErrEntityActive = errors.New("entity already active")

var entityAttrs = []string{"name", "pos", "rotation", "scale", "created_at", "children", "behaviors"}

// EntityType returns the serial type of this world's entities. Decoded
// entities are staged: they join the world in Activate, after every object
// in the graph has been resolved and awoken.
func (w *World) EntityType() *serial.TypeInfo {
	if w.entityType == nil {
		w.entityType = &serial.TypeInfo{
			Name:  EntityTypeName,
			Attrs: entityAttrs,
			New: func() serial.Object {
				e := w.newEntity()
				e.staged = &entityStage{}
				return e
			},
		}
	}
	return w.entityType
}

// RegisterTypes adds the entity type of w and the abstract behavior base
// to reg.
func RegisterTypes(reg *serial.Registry, w *World) error {
	if err := reg.Register(BehaviorType); err != nil {
		return err
	}
	return reg.Register(w.EntityType())
}

func (e *Entity) TypeName() string { return EntityTypeName }

// Staged reports whether e was decoded and has not been activated yet.
func (e *Entity) Staged() bool { return e.staged != nil }

func (e *Entity) Attr(name string) (serial.Value, bool) {
	e.alive("Attr")
	switch name {
	case "name":
		return serial.String(e.name), true
	case "pos":
		return serial.Vector(e.tr.pos), true
	case "rotation":
		return serial.Quaternion(e.tr.rot), true
	case "scale":
		return serial.Vector(e.tr.scale), true
	case "created_at":
		return serial.String(e.createdAt.UTC().Format(time.RFC3339Nano)), true
	case "children":
		var out []serial.Value
		if e.staged != nil {
			for _, c := range e.staged.children {
				out = append(out, serial.Obj(c))
			}
		} else {
			for _, c := range e.Children() {
				if !c.destroyed {
					out = append(out, serial.Obj(c))
				}
			}
		}
		return serial.List(out...), true
	case "behaviors":
		list := e.allBehaviors()
		if e.staged != nil {
			list = e.staged.behaviors
		}
		var out []serial.Value
		for _, b := range list {
			if !b.behavior().destroyed {
				out = append(out, serial.Obj(b))
			}
		}
		return serial.List(out...), true
	}
	return serial.Value{}, false
}

func (e *Entity) SetAttr(name string, v serial.Value) error {
	e.alive("SetAttr")
	switch name {
	case "name":
		if v.IsNil() {
			e.name = defaultEntityName
			return nil
		}
		s, err := v.Str()
		if err != nil {
			return err
		}
		e.name = s
	case "pos":
		p, err := v.Vec3()
		if err != nil {
			return err
		}
		e.SetPos(p)
	case "rotation":
		q, err := v.Quat()
		if err != nil {
			return err
		}
		e.SetRotation(q)
	case "scale":
		s, err := v.Vec3()
		if err != nil {
			return err
		}
		e.SetScale(s)
	case "created_at":
		if v.IsNil() {
			return nil
		}
		s, err := v.Str()
		if err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("created_at: %w", err)
		}
		e.createdAt = t
	case "children":
		return e.setStagedChildren(v)
	case "behaviors":
		return e.setStagedBehaviors(v)
	default:
		return serial.UnknownAttr(EntityTypeName, name)
	}
	return nil
}

func (e *Entity) setStagedChildren(v serial.Value) error {
	if e.staged == nil {
		return fmt.Errorf("%w: %s children", ErrEntityActive, e.name)
	}
	items, err := v.List()
	if err != nil {
		return err
	}
	children := make([]*Entity, 0, len(items))
	for _, it := range items {
		c, err := serial.As[*Entity](it)
		if err != nil {
			return fmt.Errorf("children: %w", err)
		}
		if c == nil {
			continue
		}
		if c.staged == nil || c.world != e.world {
			return fmt.Errorf("%w: child %s", ErrForeignWorld, c.UUID())
		}
		if c.staged.parent != nil && c.staged.parent != e {
			return fmt.Errorf("child %s listed under %s and %s", c.UUID(), c.staged.parent.UUID(), e.UUID())
		}
		for a := e; a != nil; a = a.staged.parent {
			if a == c {
				return fmt.Errorf("%w: %s", ErrHierarchyCycle, c.UUID())
			}
			if a.staged == nil {
				break
			}
		}
		c.staged.parent = e
		children = append(children, c)
	}
	e.staged.children = children
	return nil
}

func (e *Entity) setStagedBehaviors(v serial.Value) error {
	if e.staged == nil {
		return fmt.Errorf("%w: %s behaviors", ErrEntityActive, e.name)
	}
	items, err := v.List()
	if err != nil {
		return err
	}
	list := make([]Behavior, 0, len(items))
	for _, it := range items {
		b, err := serial.As[Behavior](it)
		if err != nil {
			return fmt.Errorf("behaviors: %w", err)
		}
		if b != nil {
			list = append(list, b)
		}
	}
	e.staged.behaviors = list
	return nil
}

// Activate moves a decoded entity and its staged subtree into the world:
// every entity is registered and linked and every behavior bound. Nothing
// is started until Start. Activating a staged child activates from its
// topmost staged ancestor; activating an entity already in the world is a
// no-op.
func (e *Entity) Activate() error {
	e.alive("Activate")
	if e.staged == nil {
		return nil
	}
	root := e
	for root.staged.parent != nil && root.staged.parent.staged != nil {
		root = root.staged.parent
	}
	return e.world.link(root)
}

// Start starts the behaviors of every entity activated together with e
// that is still waiting, parents before children.
func (e *Entity) Start() error {
	e.alive("Start")
	if !e.pendingStart {
		return nil
	}
	root := e
	for p := root.parentEntity(); p != nil && p.pendingStart; p = p.parentEntity() {
		root = p
	}
	return e.world.startSubtree(root)
}

// Rollback destroys an activated entity after a failed load. Entities
// still staged were never registered and are left to the collector.
func (e *Entity) Rollback() {
	if e.erased || e.staged != nil {
		return
	}
	e.pendingStart = false
	e.Destroy()
}

func (w *World) link(root *Entity) error {
	var order []*Entity
	var walk func(e *Entity)
	walk = func(e *Entity) {
		order = append(order, e)
		for _, c := range e.staged.children {
			walk(c)
		}
	}
	walk(root)

	stages := make([]*entityStage, len(order))
	for i, e := range order {
		w.register(e)
		stages[i] = e.staged
	}
	for i, e := range order {
		e.staged = nil
		e.pendingStart = true
		for _, c := range stages[i].children {
			c.parent = e.id
			e.children = append(e.children, c.id)
		}
	}
	for i, e := range order {
		for _, b := range stages[i].behaviors {
			if err := e.attach(b); err != nil {
				return err
			}
		}
	}
	for _, e := range order {
		w.spawned(e)
	}
	return nil
}

func (w *World) startSubtree(root *Entity) error {
	var order []*Entity
	var walk func(e *Entity)
	walk = func(e *Entity) {
		if !e.pendingStart {
			return
		}
		e.pendingStart = false
		order = append(order, e)
		for _, c := range e.Children() {
			walk(c)
		}
	}
	walk(root)

	for _, e := range order {
		if e.destroyed {
			continue
		}
		if err := w.startAll(e); err != nil {
			return err
		}
	}
	return nil
}
