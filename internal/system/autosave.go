package system

import (
	"context"
	"errors"
	"time"

	"github.com/vectorforge/scenert/internal/core/event"
	"github.com/vectorforge/scenert/internal/core/serial"
	coresys "github.com/vectorforge/scenert/internal/core/system"
	"github.com/vectorforge/scenert/internal/persist"
	"go.uber.org/zap"
)

// SnapshotStore is the database side of autosave.
type SnapshotStore interface {
	SaveGraph(ctx context.Context, g *serial.GraphCodec, scene string, root serial.Object, keep int) (int64, int, error)
}

// AutosaveConfig selects where autosave writes. An empty Path skips the
// file; a nil Store skips the database.
type AutosaveConfig struct {
	Scene         string
	Path          string
	Store         SnapshotStore
	Keep          int
	IntervalTicks int // 0 disables periodic saves
}

// AutosaveSystem periodically saves the scene graph reachable from a root
// object. Phase 4 (Persist).
type AutosaveSystem struct {
	graph     *serial.GraphCodec
	root      func() serial.Object
	cfg       AutosaveConfig
	bus       *event.Bus
	log       *zap.Logger
	tickCount int
}

// NewAutosaveSystem saves whatever root returns at save time; a nil root
// skips the save.
func NewAutosaveSystem(graph *serial.GraphCodec, root func() serial.Object, cfg AutosaveConfig, bus *event.Bus, log *zap.Logger) *AutosaveSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &AutosaveSystem{
		graph: graph,
		root:  root,
		cfg:   cfg,
		bus:   bus,
		log:   log,
	}
}

func (s *AutosaveSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *AutosaveSystem) Update(_ time.Duration) {
	if s.cfg.IntervalTicks <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.cfg.IntervalTicks {
		return
	}
	s.tickCount = 0
	if err := s.SaveNow(); err != nil {
		s.log.Error("autosave failed", zap.String("scene", s.cfg.Scene), zap.Error(err))
	}
}

// SaveNow saves immediately. Called for graceful shutdown. Both targets
// are attempted; their errors are joined.
func (s *AutosaveSystem) SaveNow() error {
	root := s.root()
	if root == nil {
		s.log.Debug("autosave skipped: no root", zap.String("scene", s.cfg.Scene))
		return nil
	}
	var errs []error
	if s.cfg.Path != "" {
		n, err := persist.SaveFile(s.graph, root, s.cfg.Path)
		if err != nil {
			errs = append(errs, err)
		} else {
			s.saved(s.cfg.Path, n)
		}
	}
	if s.cfg.Store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, n, err := s.cfg.Store.SaveGraph(ctx, s.graph, s.cfg.Scene, root, s.cfg.Keep)
		if err != nil {
			errs = append(errs, err)
		} else {
			s.saved("db", n)
		}
	}
	return errors.Join(errs...)
}

func (s *AutosaveSystem) saved(target string, records int) {
	s.log.Info("scene saved",
		zap.String("scene", s.cfg.Scene),
		zap.String("target", target),
		zap.Int("records", records),
	)
	if s.bus != nil {
		event.Emit(s.bus, event.SceneSaved{Target: target, Records: records})
	}
}
