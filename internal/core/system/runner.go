package system

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Runner executes systems in phase order each tick. Systems of the same
// phase keep their registration order.
type Runner struct {
	systems []System
	sorted  bool
	ticks   uint64

	now    func() time.Time
	log    *zap.Logger
	budget time.Duration
	last   time.Duration
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
		now:     time.Now,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// WarnSlow logs a warning for every full tick that takes longer than
// budget. A zero budget turns the check off.
func (r *Runner) WarnSlow(log *zap.Logger, budget time.Duration) {
	r.log = log
	r.budget = budget
}

// Tick runs every system once, in phase order.
func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	start := r.now()
	var slowest System
	var slowestTook time.Duration
	for _, s := range r.systems {
		t0 := r.now()
		s.Update(dt)
		if took := r.now().Sub(t0); slowest == nil || took > slowestTook {
			slowest, slowestTook = s, took
		}
	}
	r.last = r.now().Sub(start)
	r.ticks++

	if r.log == nil || r.budget <= 0 || r.last <= r.budget {
		return
	}
	fields := []zap.Field{
		zap.Uint64("tick", r.ticks),
		zap.Duration("took", r.last),
		zap.Duration("budget", r.budget),
	}
	if slowest != nil {
		fields = append(fields,
			zap.String("slowest", fmt.Sprintf("%T", slowest)),
			zap.Stringer("phase", slowest.Phase()),
			zap.Duration("slowest_took", slowestTook),
		)
	}
	r.log.Warn("slow tick", fields...)
}

// TickPhase runs only the systems of one phase. Used to pump input
// between full ticks.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

// Ticks returns the number of completed full ticks.
func (r *Runner) Ticks() uint64 { return r.ticks }

// LastTick returns the wall time the previous full tick took.
func (r *Runner) LastTick() time.Duration { return r.last }

func (r *Runner) ensureSorted() {
	if r.sorted {
		return
	}
	sort.SliceStable(r.systems, func(i, j int) bool {
		return r.systems[i].Phase() < r.systems[j].Phase()
	})
	r.sorted = true
}
