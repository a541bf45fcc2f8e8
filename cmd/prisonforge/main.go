package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/prisonforge/server/internal/ability"
	"github.com/prisonforge/server/internal/config"
	"github.com/prisonforge/server/internal/core/ecs"
	"github.com/prisonforge/server/internal/core/event"
	"github.com/prisonforge/server/internal/core/sched"
	coresys "github.com/prisonforge/server/internal/core/system"
	"github.com/prisonforge/server/internal/data"
	"github.com/prisonforge/server/internal/economy"
	"github.com/prisonforge/server/internal/handler"
	"github.com/prisonforge/server/internal/metrics"
	gonet "github.com/prisonforge/server/internal/net"
	"github.com/prisonforge/server/internal/net/packet"
	"github.com/prisonforge/server/internal/persist"
	"github.com/prisonforge/server/internal/presentation"
	"github.com/prisonforge/server/internal/region"
	"github.com/prisonforge/server/internal/scripting"
	"github.com/prisonforge/server/internal/system"
	"github.com/prisonforge/server/internal/world"
)

func main() {
	demo := flag.Bool("demo", false, "seed a stone mine and a demo player, then trigger every enabled ability")
	flag.Parse()

	if err := run(*demo); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           PrisonForge  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        area ability engine · Go           \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run(demo bool) error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("PRISONFORGE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Optional PostgreSQL ledger
	printSection("database")

	var ledger *persist.Ledger
	var bankLedger economy.Ledger
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store, err := persist.Open(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer store.Close()
		printOK("PostgreSQL connected")

		version, err := store.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("ledger schema at version %d", version))

		ledger = store.Ledger()
		bankLedger = ledger
	} else {
		printOK("disabled, profile deltas are not persisted")
	}
	fmt.Println()

	// 4. Static data
	printSection("data")

	materials, err := data.LoadMaterialTable(cfg.Data.MaterialFile)
	if err != nil {
		return fmt.Errorf("load material table: %w", err)
	}
	printStat("materials", materials.Count())

	regions, err := region.Load(cfg.Data.RegionFile)
	if err != nil {
		return fmt.Errorf("load regions: %w", err)
	}
	printStat("regions", regions.Count())

	luaEngine, err := scripting.NewEngine(cfg.Data.ScriptDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua scripts loaded")

	settings := ability.SettingsFromConfig(cfg)
	printStat("ability kinds", len(settings))
	fmt.Println()

	// 5. World, scheduler, event bus
	scheduler := sched.New()
	ecsWorld := ecs.NewWorld()
	bus := event.NewBus()
	worldState := world.NewState(world.NewBlockStore(cfg.Engine.WorldMinY, cfg.Engine.WorldMaxY))

	// 6. Presentation, economy, metrics
	sessions := gonet.NewSessionStore()
	hub := presentation.NewHub(sessions, worldState, cfg.Network.ViewDistance, log)
	worldSync := presentation.NewWorldSync(worldState.Blocks, worldState.Ground, sessions)
	bank := economy.NewBank(worldState, materials, bankLedger, log)
	boosters := economy.NewBoosters(scheduler)

	var ready atomic.Bool
	var metricsServer *metrics.Server
	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.BindAddress, ready.Load, log)
		recorder = metricsServer.Recorder()
	} else {
		recorder = metrics.NewRecorder(prometheus.NewRegistry())
	}

	// 7. Ability engine
	engine := ability.NewEngine(ability.Deps{
		Players:          worldState,
		Blocks:           worldSync,
		Materials:        materials,
		Regions:          regions,
		Economy:          bank,
		Inventory:        worldState,
		Ground:           worldSync,
		Ledger:           bank,
		Presenter:        hub,
		Timers:           scheduler,
		Multipliers:      []ability.MultiplierSource{boosters, scripting.NewMultiplier(luaEngine, worldState)},
		Entities:         ecsWorld,
		Recorder:         recorder,
		Log:              log,
		RewardFlushTicks: uint64(cfg.Engine.RewardFlushTicks),
		OnBreak: func(actor world.ActorID, c world.Coord, was world.Material) {
			event.Emit(bus, event.BlockBroken{Actor: actor, At: c, Was: was})
		},
	}, settings)

	// Subscription order is dispatch order within a tick.
	event.Subscribe(bus, func(e event.PlayerJoined) {
		log.Info("player joined",
			zap.Uint64("actor", uint64(e.Actor)),
			zap.String("name", e.Name),
			zap.String("world", e.World),
		)
	})
	event.Subscribe(bus, func(e event.PlayerDisconnected) {
		n := engine.OnQuit(e.Actor)
		boosters.Revoke(e.Actor)
		log.Info("player left", zap.Uint64("actor", uint64(e.Actor)), zap.Int("aborted", n))
	})
	event.Subscribe(bus, func(e event.BlockBroken) {
		engine.OnBlockBroken(e.Actor, e.At)
	})
	event.Subscribe(bus, func(e event.AbilityRequested) {
		engine.Trigger(e.Actor, ability.Kind(e.Kind))
	})
	event.Subscribe(bus, func(event.PluginDisabled) {
		engine.Shutdown()
	})

	// 8. Host bridge
	printSection("ready")

	roster := handler.NewRoster()
	var netServer *gonet.Server
	var pktReg *packet.Registry
	if cfg.Network.Enabled {
		pktReg = packet.NewRegistry(log)
		handler.RegisterAll(pktReg, &handler.Deps{
			Config:   cfg,
			Log:      log,
			World:    worldState,
			Bus:      bus,
			Roster:   roster,
			Boosters: boosters,
		})
		netServer, err = gonet.NewServer(cfg.Network, handler.InitFrame(cfg), log)
		if err != nil {
			return fmt.Errorf("net server: %w", err)
		}
		go netServer.AcceptLoop()
		printReady(fmt.Sprintf("host bridge on %s", netServer.Addr().String()))
	}

	if metricsServer != nil {
		errCh, err := metricsServer.Start()
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		go func() {
			for err := range errCh {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
		printReady(fmt.Sprintf("metrics on %s", metricsServer.Addr()))
	}

	// 9. Systems, registered per phase in run order
	runner := coresys.NewRunner()
	if netServer != nil {
		runner.Register(system.NewInputSystem(netServer, pktReg, sessions, roster, worldState, bus, cfg.Network.MaxFramesPerTick, log))
	}
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(scheduler)
	runner.Register(system.NewAbilitySystem(engine, scheduler))
	runner.Register(system.NewBoosterSystem(boosters, hub, log))
	runner.Register(system.NewGroundItemSystem(worldSync))
	runner.Register(system.NewOutputSystem(sessions, recorder))
	var persistSys *system.PersistenceSystem
	if ledger != nil {
		persistSys = system.NewPersistenceSystem(ledger, recorder, log, cfg.Engine.SaveIntervalTicks)
		runner.Register(persistSys)
	}
	runner.Register(system.NewCleanupSystem(ecsWorld))

	if demo {
		n := seedDemo(cfg, worldState, bus)
		printStat("demo blocks", n)
	}

	// 10. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	reloadCh := make(chan os.Signal, 1)
	signal.Notify(reloadCh, syscall.SIGHUP)

	ticker := time.NewTicker(cfg.Server.TickRate)
	defer ticker.Stop()

	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Server.TickRate))
	fmt.Println()
	ready.Store(true)

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			runner.Tick(cfg.Server.TickRate)
			recorder.ObserveTick(time.Since(start))

		case <-reloadCh:
			next, err := config.Load(cfgPath)
			if err != nil {
				log.Error("config reload failed, keeping current settings", zap.Error(err))
				continue
			}
			engine.Reload(ability.SettingsFromConfig(next))

		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			ready.Store(false)
			engine.Shutdown()
			// One last tick delivers the shutdown frames to hosts.
			runner.TickPhase(coresys.PhaseOutput, cfg.Server.TickRate)
			if persistSys != nil {
				if err := persistSys.FlushNow(); err != nil {
					log.Error("final ledger flush failed", zap.Error(err))
				}
			}
			if netServer != nil {
				netServer.Shutdown()
				if cut := sessions.DrainAll(drainTimeout(cfg.Network)); cut > 0 {
					log.Warn("hosts cut off before their final frames were sent", zap.Int("hosts", cut))
				}
			}
			if metricsServer != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := metricsServer.Stop(ctx); err != nil {
					log.Warn("metrics server stop", zap.Error(err))
				}
				cancel()
			}
			log.Info("server stopped")
			return nil
		}
	}
}

// drainTimeout bounds how long shutdown waits for each host's writer.
func drainTimeout(cfg config.NetworkConfig) time.Duration {
	if cfg.WriteTimeout > 0 {
		return cfg.WriteTimeout
	}
	return 5 * time.Second
}

// seedDemo builds a solid stone mine at the world origin, puts a demo player
// on top of it and queues one request for every enabled ability.
func seedDemo(cfg *config.Config, ws *world.State, bus *event.Bus) int {
	const mine = "mine"
	n := ws.Blocks.Fill(
		world.Coord{World: mine, X: -24, Y: 40, Z: -24},
		world.Coord{World: mine, X: 24, Y: 64, Z: 24},
		"STONE",
	)
	ws.AddPlayer(&world.PlayerInfo{
		ID:     1,
		Name:   "demo",
		World:  mine,
		Pos:    world.Vec3{X: 0.5, Y: 65, Z: 0.5},
		Facing: world.Vec3{Z: 1},
		Perms: map[string]bool{
			"prisonforge.ability.*": true,
			ability.PermAutoSell:    true,
		},
		Balances: map[string]float64{ability.TokenKind: 1000},
	})
	for _, kind := range cfg.AbilityKinds() {
		if cfg.Abilities[kind].Enabled {
			event.Emit(bus, event.AbilityRequested{Actor: 1, Kind: kind})
		}
	}
	return n
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
