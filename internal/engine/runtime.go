package engine

import (
	"fmt"

	"github.com/vectorforge/scenert/internal/component"
	"github.com/vectorforge/scenert/internal/core/ecs"
	"github.com/vectorforge/scenert/internal/core/event"
	"github.com/vectorforge/scenert/internal/core/serial"
	coresys "github.com/vectorforge/scenert/internal/core/system"
	"github.com/vectorforge/scenert/internal/persist"
	"github.com/vectorforge/scenert/internal/resource"
	"github.com/vectorforge/scenert/internal/scripting"
	"github.com/vectorforge/scenert/internal/system"
	"go.uber.org/zap"
)

// Options configures a Runtime. Every field is optional.
type Options struct {
	Log          *zap.Logger
	ResourceRoot string
	Scripts      *scripting.Engine
	Viewport     func() component.Rect
	Pointer      func() (component.Pointer, bool)
}

// Runtime wires one world to its type registry, codecs, resource cache
// and event bus. Each Runtime is independent; tests create their own.
type Runtime struct {
	World     *ecs.World
	Types     *serial.Registry
	Graph     *serial.GraphCodec
	Resources *resource.Cache
	Env       *component.Env
	Bus       *event.Bus

	log *zap.Logger
}

func New(opts Options) (*Runtime, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	w := ecs.NewWorld(log.Named("world"))
	reg := serial.NewRegistry()
	cache := resource.NewCache(opts.ResourceRoot, log.Named("resource"))
	env := &component.Env{
		Scripts:  opts.Scripts,
		Viewport: opts.Viewport,
		Pointer:  opts.Pointer,
		Log:      log.Named("behavior"),
	}

	if err := ecs.RegisterTypes(reg, w); err != nil {
		return nil, fmt.Errorf("register core types: %w", err)
	}
	if err := resource.RegisterTypes(reg, cache); err != nil {
		return nil, fmt.Errorf("register resource types: %w", err)
	}
	if err := component.RegisterTypes(reg, env); err != nil {
		return nil, fmt.Errorf("register behavior types: %w", err)
	}

	bus := event.NewBus()
	w.SetHooks(ecs.Hooks{
		Spawned: func(e *ecs.Entity) {
			event.Emit(bus, event.EntitySpawned{ID: e.ID(), UUID: e.UUID(), Name: e.Name()})
		},
		Erased: func(uuid, name string) {
			event.Emit(bus, event.EntityErased{UUID: uuid, Name: name})
		},
		BehaviorErased: func(uuid, typeName string) {
			event.Emit(bus, event.BehaviorErased{UUID: uuid, Type: typeName})
		},
	})

	return &Runtime{
		World:     w,
		Types:     reg,
		Graph:     serial.NewGraphCodec(reg, log.Named("graph")),
		Resources: cache,
		Env:       env,
		Bus:       bus,
		log:       log,
	}, nil
}

// Runner returns a runner with the frame systems registered: event
// dispatch, behavior update, autosave when given, and the sweep.
func (r *Runtime) Runner(autosave *system.AutosaveSystem) *coresys.Runner {
	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(r.Bus))
	runner.Register(system.NewBehaviorUpdateSystem(r.World))
	if autosave != nil {
		runner.Register(autosave)
	}
	runner.Register(system.NewCleanupSystem(r.World))
	return runner
}

// LoadManifest preloads the resources listed in a manifest file.
func (r *Runtime) LoadManifest(path string) (int, error) {
	m, err := resource.LoadManifest(path)
	if err != nil {
		return 0, err
	}
	return m.Preload(r.Resources), nil
}

// LoadScene decodes the given graph files into the world and returns the
// top-level entities they contain.
func (r *Runtime) LoadScene(paths ...string) ([]*ecs.Entity, error) {
	objs, err := persist.LoadFiles(r.Graph, paths...)
	if err != nil {
		return nil, err
	}
	return r.roots(objs), nil
}

// Restore reconstructs decoded records into the world.
func (r *Runtime) Restore(records []serial.Record) ([]*ecs.Entity, error) {
	objs, err := r.Graph.Deserialize(records)
	if err != nil {
		return nil, err
	}
	return r.roots(objs), nil
}

func (r *Runtime) roots(objs []serial.Object) []*ecs.Entity {
	var out []*ecs.Entity
	for _, o := range objs {
		e, ok := o.(*ecs.Entity)
		if !ok || e.Destroyed() || e.Parent() != nil {
			continue
		}
		out = append(out, e)
	}
	r.log.Info("scene loaded", zap.Int("objects", len(objs)), zap.Int("roots", len(out)))
	return out
}

// SaveScene writes the graph reachable from root to path.
func (r *Runtime) SaveScene(root serial.Object, path string) (int, error) {
	return persist.SaveFile(r.Graph, root, path)
}

// Root returns the first live entity named name, or nil.
func (r *Runtime) Root(name string) serial.Object {
	if e, ok := r.World.FindByName(name); ok {
		return e
	}
	return nil
}

// Close destroys every entity and sweeps.
func (r *Runtime) Close() {
	r.World.DestroyAll()
}
