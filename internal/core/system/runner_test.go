package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r *recorder) Phase() Phase            { return r.phase }
func (r *recorder) Update(dt time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recorder{"sweep", PhaseCleanup, &log})
	r.Register(&recorder{"update-1", PhaseUpdate, &log})
	r.Register(&recorder{"events", PhasePreUpdate, &log})
	r.Register(&recorder{"update-2", PhaseUpdate, &log})

	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"events", "update-1", "update-2", "sweep"}, log)
	assert.Equal(t, uint64(1), r.Ticks())

	log = nil
	r.TickPhase(PhaseUpdate, time.Millisecond)
	assert.Equal(t, []string{"update-1", "update-2"}, log)
	assert.Equal(t, uint64(1), r.Ticks(), "partial ticks are not counted")
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "persist", PhasePersist.String())
	assert.Equal(t, "unknown", Phase(42).String())
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

type sleeper struct {
	clock *fakeClock
	cost  time.Duration
}

func (s *sleeper) Phase() Phase            { return PhaseUpdate }
func (s *sleeper) Update(dt time.Duration) { s.clock.t = s.clock.t.Add(s.cost) }

func TestRunnerWarnsOnSlowTick(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	core, logs := observer.New(zapcore.WarnLevel)

	r := NewRunner()
	r.now = clock.now
	r.WarnSlow(zap.New(core), 10*time.Millisecond)
	fast := &sleeper{clock: clock, cost: 2 * time.Millisecond}
	r.Register(fast)

	r.Tick(time.Millisecond)
	assert.Equal(t, 2*time.Millisecond, r.LastTick())
	assert.Zero(t, logs.Len())

	r.Register(&sleeper{clock: clock, cost: 15 * time.Millisecond})
	r.Tick(time.Millisecond)
	assert.Equal(t, 17*time.Millisecond, r.LastTick())

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "slow tick", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, uint64(2), ctx["tick"])
	assert.Equal(t, "*system.sleeper", ctx["slowest"])
	assert.Equal(t, "update", ctx["phase"])
	assert.Equal(t, 15*time.Millisecond, ctx["slowest_took"])
}
