package event

import "github.com/vectorforge/scenert/internal/core/ecs"

type EntitySpawned struct {
	ID   ecs.EntityID
	UUID string
	Name string
}

// EntityErased is emitted after the sweep; the entity can no longer be
// used, so only identifiers are carried.
type EntityErased struct {
	UUID string
	Name string
}

type BehaviorErased struct {
	UUID string
	Type string
}

type SceneSaved struct {
	Target  string // file path or "db"
	Records int
}
