package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"duskfall/server/bestiary"
	"duskfall/server/internal/guardian"
	netapi "duskfall/server/internal/net"
	"duskfall/server/internal/net/ws"
	"duskfall/server/internal/persist"
	"duskfall/server/internal/registry"
	"duskfall/server/internal/sim"
	"duskfall/server/internal/state"
	"duskfall/server/internal/world"
	"duskfall/server/logging"
	"duskfall/server/logging/sinks"
)

// App owns the wired server: lifecycle registry, maintenance scheduler,
// observer stream, and the HTTP surface.
type App struct {
	cfg      Config
	logger   *log.Logger
	router   *logging.Router
	registry *registry.Registry
	guardian *guardian.Guardian
	arena    *world.Arena
	hub      *ws.Hub
	recorder persist.Recorder
	sched    *sim.Scheduler
	server   *http.Server
}

func New(cfg Config) (*App, error) {
	cfg = cfg.normalized()
	logger := log.New(os.Stdout, "[duskfall] ", log.LstdFlags)

	catalog := bestiary.Default()
	if cfg.BestiaryPath != "" {
		loaded, err := bestiary.Load(cfg.BestiaryPath)
		if err != nil {
			return nil, fmt.Errorf("load bestiary: %w", err)
		}
		catalog = loaded
	}

	hub := ws.NewHub(logger)

	logCfg := cfg.loggingConfig()
	var named []logging.NamedSink
	if logCfg.HasSink("console") {
		named = append(named, logging.NamedSink{Name: "console", Sink: sinks.NewConsole(os.Stdout)})
	}
	if logCfg.HasSink("jsonl") {
		named = append(named, logging.NamedSink{Name: "jsonl", Sink: sinks.NewJSONL(logCfg.JSONL)})
	}
	if logCfg.HasSink("stream") {
		named = append(named, logging.NamedSink{Name: "stream", Sink: ws.NewSink(hub)})
	}
	if logCfg.HasSink("memory") {
		named = append(named, logging.NamedSink{Name: "memory", Sink: sinks.NewMemory()})
	}
	router, err := logging.NewRouter(logging.SystemClock{}, logCfg, named)
	if err != nil {
		return nil, fmt.Errorf("logging router: %w", err)
	}

	arena := world.NewArena()
	for _, region := range cfg.Regions {
		arena.AddRegion(region.Name, world.Rect{
			MinX: region.MinX, MinY: region.MinY,
			MaxX: region.MaxX, MaxY: region.MaxY,
		})
	}

	recorder := persist.Recorder(persist.Nop{})
	if cfg.KillDBPath != "" {
		db, err := persist.OpenSQLite(cfg.KillDBPath, logger)
		if err != nil {
			router.Close(context.Background())
			return nil, fmt.Errorf("open kill db: %w", err)
		}
		recorder = db
	}

	svcs := registry.Services{Kills: recorder}
	reg := registry.New(cfg.registryConfig(), catalog, arena, svcs, logging.SystemClock{}, router)

	guard := guardian.New(cfg.guardianConfig(reg.LeashRadiusFor), arena,
		world.NewDeterministicRNG(cfg.Seed, "guardian"), router)

	a := &App{
		cfg:      cfg,
		logger:   logger,
		router:   router,
		registry: reg,
		guardian: guard,
		arena:    arena,
		hub:      hub,
		recorder: recorder,
	}

	a.sched = sim.NewScheduler(logger,
		sim.Job{Name: "combat", Period: cfg.Ticks.Combat.Std(), Run: func(now time.Time) error {
			reg.CombatTick(now)
			return nil
		}},
		sim.Job{Name: "visibility", Period: cfg.Ticks.Visibility.Std(), Run: func(now time.Time) error {
			reg.VisibilityTick(now)
			return nil
		}},
		sim.Job{Name: "guardian", Period: cfg.Ticks.Guardian.Std(), Run: func(now time.Time) error {
			guard.Sweep(reg.ManagedActors(), reg.Tick(), now)
			return nil
		}},
		sim.Job{Name: "ledger-sweep", Period: cfg.Ticks.LedgerSweep.Std(), Run: func(now time.Time) error {
			reg.LedgerSweep(now)
			return nil
		}},
	)
	if err := a.sched.Validate(); err != nil {
		router.Close(context.Background())
		recorder.Close()
		return nil, err
	}

	a.server = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           netapi.NewHandler(reg, hub, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return a, nil
}

// Registry exposes the lifecycle registry for embedding callers.
func (a *App) Registry() *registry.Registry { return a.registry }

// Arena exposes the in-memory host for embedding callers.
func (a *App) Arena() *world.Arena { return a.arena }

// seedPopulation places the configured initial spawns. A blocked or failed
// spawn is logged and skipped; boot continues.
func (a *App) seedPopulation() {
	for _, spec := range a.cfg.Spawns {
		count := spec.Count
		if count <= 0 {
			count = 1
		}
		anchor := state.Anchor{Region: spec.Region, Pos: state.Vec2{X: spec.X, Y: spec.Y}}
		for i := 0; i < count; i++ {
			_, err := a.registry.Spawn(registry.SpawnRequest{
				Anchor:  anchor,
				Species: state.Species(spec.Species),
				Tier:    spec.Tier,
				Elite:   spec.Elite,
			})
			if err != nil {
				a.logger.Printf("seed spawn %s at %s: %v", spec.Species, spec.Region, err)
				break
			}
		}
	}
}

// Run starts the scheduler and HTTP server and blocks until the context is
// cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	a.seedPopulation()
	a.logger.Printf("listening on %s, population %d", a.cfg.ListenAddr, a.registry.Population())

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.sched.Run(ctx)
	})

	group.Go(func() error {
		err := a.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	err := group.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if closeErr := a.router.Close(closeCtx); closeErr != nil && err == nil {
		err = closeErr
	}
	if closeErr := a.recorder.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
