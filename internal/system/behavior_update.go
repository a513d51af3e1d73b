package system

import (
	"time"

	"github.com/vectorforge/scenert/internal/core/ecs"
	coresys "github.com/vectorforge/scenert/internal/core/system"
)

// BehaviorUpdateSystem runs every behavior's Update. Phase 2 (Update).
type BehaviorUpdateSystem struct {
	world *ecs.World
}

func NewBehaviorUpdateSystem(world *ecs.World) *BehaviorUpdateSystem {
	return &BehaviorUpdateSystem{world: world}
}

func (s *BehaviorUpdateSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *BehaviorUpdateSystem) Update(dt time.Duration) {
	s.world.UpdateAll(dt)
}
