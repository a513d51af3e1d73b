package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"github.com/vectorforge/scenert/internal/component"
	"github.com/vectorforge/scenert/internal/config"
	"github.com/vectorforge/scenert/internal/core/ecs"
	"github.com/vectorforge/scenert/internal/core/event"
	"github.com/vectorforge/scenert/internal/core/serial"
	"github.com/vectorforge/scenert/internal/engine"
	"github.com/vectorforge/scenert/internal/persist"
	"github.com/vectorforge/scenert/internal/scripting"
	"github.com/vectorforge/scenert/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgFlag := flag.String("config", "config/scenert.toml", "config file")
	prof := flag.String("profile", "", "write a cpu or mem profile to the working directory")
	flag.Parse()

	switch *prof {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q", *prof)
	}

	// 1. Config and logger
	cfg, err := config.Load(config.Path(*cfgFlag))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 2. Scripts and runtime
	scripts, err := scripting.NewEngine(cfg.Scripting.Dirs, log.Named("lua"))
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer scripts.Close()

	rt, err := engine.New(engine.Options{
		Log:          log,
		ResourceRoot: cfg.Scene.Resources,
		Scripts:      scripts,
		Viewport:     func() component.Rect { return component.Rect{Left: -1, Right: 1, Bottom: -1, Top: 1} },
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	event.Subscribe(rt.Bus, func(e event.EntityErased) {
		log.Debug("entity erased", zap.String("uuid", e.UUID), zap.String("name", e.Name))
	})

	// 3. Resources and scene
	if cfg.Scene.Manifest != "" {
		n, err := rt.LoadManifest(cfg.Scene.Manifest)
		if err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
		log.Info("resources preloaded", zap.Int("count", n))
	}

	var repo *persist.SnapshotRepo
	if cfg.Persist.UseDatabase {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Database, log.Named("db"))
		cancel()
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		repo = persist.NewSnapshotRepo(db, log.Named("snapshot"))
	}

	if err := loadScene(rt, cfg, repo, log); err != nil {
		return err
	}

	// 4. Systems
	autosaveCfg := system.AutosaveConfig{
		Scene:         cfg.Runtime.Name,
		Path:          cfg.Persist.SavePath,
		Keep:          cfg.Persist.KeepSnapshots,
		IntervalTicks: cfg.Persist.AutosaveTicks,
	}
	if repo != nil {
		autosaveCfg.Store = repo
	}
	autosave := system.NewAutosaveSystem(rt.Graph, func() serial.Object { return rt.Root(cfg.Scene.Root) }, autosaveCfg, rt.Bus, log.Named("autosave"))
	runner := rt.Runner(autosave)
	runner.WarnSlow(log.Named("runner"), cfg.Runtime.TickRate)

	// 5. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Runtime.TickRate)
	defer ticker.Stop()

	log.Info("runtime started",
		zap.String("name", cfg.Runtime.Name),
		zap.Duration("tick", cfg.Runtime.TickRate),
		zap.Int("entities", rt.World.Count()),
		zap.Int("types", rt.Types.Count()),
	)

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Runtime.TickRate)
			if cfg.Runtime.MaxTicks > 0 && runner.Ticks() >= cfg.Runtime.MaxTicks {
				log.Info("tick limit reached", zap.Uint64("ticks", runner.Ticks()))
				return shutdown(autosave, log)
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			return shutdown(autosave, log)
		}
	}
}

// loadScene loads the configured scene files, or the newest database
// snapshot when no files are configured.
func loadScene(rt *engine.Runtime, cfg *config.Config, repo *persist.SnapshotRepo, log *zap.Logger) error {
	var (
		roots []*ecs.Entity
		err   error
	)
	switch {
	case len(cfg.Scene.Files) > 0:
		roots, err = rt.LoadScene(cfg.Scene.Files...)
	case repo != nil:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		snap, lerr := repo.Latest(ctx, cfg.Runtime.Name)
		if errors.Is(lerr, persist.ErrSnapshotNotFound) {
			log.Info("no snapshot to restore", zap.String("scene", cfg.Runtime.Name))
			return nil
		}
		if lerr != nil {
			return fmt.Errorf("latest snapshot: %w", lerr)
		}
		roots, err = rt.Restore(snap.Records)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	for _, e := range roots {
		log.Debug("root entity", zap.String("name", e.Name()), zap.String("uuid", e.UUID()))
	}
	return nil
}

func shutdown(autosave *system.AutosaveSystem, log *zap.Logger) error {
	if err := autosave.SaveNow(); err != nil {
		log.Error("final save failed", zap.Error(err))
		return err
	}
	log.Info("runtime stopped")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
