package system

import (
	"time"

	"github.com/vectorforge/scenert/internal/core/ecs"
	coresys "github.com/vectorforge/scenert/internal/core/system"
)

// CleanupSystem sweeps destroyed behaviors and entities at tick end.
// Phase 5 (Cleanup).
type CleanupSystem struct {
	world *ecs.World
}

func NewCleanupSystem(world *ecs.World) *CleanupSystem {
	return &CleanupSystem{world: world}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.Sweep()
}
