package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pointofvision/server/internal/config"
	"github.com/pointofvision/server/internal/core/event"
	coresys "github.com/pointofvision/server/internal/core/system"
	"github.com/pointofvision/server/internal/data"
	"github.com/pointofvision/server/internal/geom"
	"github.com/pointofvision/server/internal/i18n"
	"github.com/pointofvision/server/internal/persist"
	"github.com/pointofvision/server/internal/scene"
	"github.com/pointofvision/server/internal/settings"
	"github.com/pointofvision/server/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(sceneName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m          Point of Vision  v0.1.0          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        多點視野 · Go 可見性伺服器         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m場景:\033[0m %s\n\n", sceneName)
}

// displayWidth counts CJK runes as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := 46 - displayWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - displayWidth(label) - len(numStr)
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

func run() error {
	// 1. Load config
	cfgPath := "config/povd.toml"
	if p := os.Getenv("POVD_CONFIG"); p != "" {
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

	// 3. Load scene fixture
	fixture, err := data.LoadSceneFixture(cfg.Scene.Fixture)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	printBanner(fixture.Info.Name)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 4. Storage: PostgreSQL when configured, memory otherwise
	printSection("資料庫")
	var (
		flagStore settings.FlagStore = settings.NewMemoryFlagStore()
		worldRepo settings.WorldRepo
		visWriter system.VisibilityWriter
	)
	if cfg.Database.DSN != "" {
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL 連線成功")

		version, err := persist.RunMigrations(ctx, db.Pool)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("資料庫遷移完成 (版本 %d)", version))

		flagStore = persist.NewFlagRepo(db)
		worldRepo = persist.NewWorldRepo(db)
		visWriter = persist.NewVisibilityLogRepo(db)
	} else {
		printOK("未設定 DSN，旗標保存在記憶體")
	}
	fmt.Println()

	// 5. Settings, scene, flags
	bus := event.NewBus()
	store := settings.NewStore(cfg.VisionSettings(), worldRepo, bus, log)
	if err := store.Restore(ctx); err != nil {
		return fmt.Errorf("restore settings: %w", err)
	}
	snap := store.Snapshot()
	if snap.CorrectBottomRight {
		log.Warn("右下角取樣點已修正為 (+w/2, +h/2)，與舊版行為不同")
	}

	sc := scene.New(fixture.Options(),
		scene.RadialSights{RadialBuilder: geom.RadialBuilder{Width: fixture.Info.Width, Height: fixture.Info.Height}},
		store, bus, log)
	if err := fixture.Populate(sc); err != nil {
		return fmt.Errorf("populate scene: %w", err)
	}
	tokenFlags := settings.NewTokenFlags(flagStore, sc, log)
	restored, err := tokenFlags.Restore(ctx, sc.TokenIDs())
	if err != nil {
		return fmt.Errorf("restore token flags: %w", err)
	}

	labels := i18n.NewPrinter(cfg.Scene.Language)
	printSection("場景載入")
	printStat("使用者", len(sc.Users()))
	printStat("Token", fixture.Count())
	printStat("光源", len(sc.Lights()))
	printStat("視點旗標", restored)
	printOK(fmt.Sprintf("%s: %s", labels.Text(i18n.KeyWorldDefault), labels.ModeLabel(snap.DefaultMode)))
	printOK(fmt.Sprintf("%s: %t", labels.Text(i18n.KeyExpandVisibility), snap.ExpandVisibility))
	fmt.Println()

	// 6. Create systems and register with runner
	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewSourceSystem(sc, bus, log))
	visSys := system.NewVisibilitySystem(sc, bus, log)
	runner.Register(visSys)
	var persistSys *system.PersistenceSystem
	if visWriter != nil {
		const flushInterval = 50 // 50 ticks × 100ms = 5 seconds
		persistSys = system.NewPersistenceSystem(visWriter, bus, log, flushInterval)
		runner.Register(persistSys)
	}
	event.Subscribe(bus, func(e event.VisibilityChanged) {
		log.Info("視野變化",
			zap.String("user", e.UserID),
			zap.String("token", tokenName(sc, e.TokenID)),
			zap.Bool("visible", e.Visible),
		)
	})

	// First tick builds every source and the initial visible sets.
	runner.Tick(cfg.Vision.TickRate)
	printReport(sc, visSys)

	// 7. Start loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Vision.TickRate)
	defer ticker.Stop()

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("可見性迴圈啟動 (tick: %s)", cfg.Vision.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Vision.TickRate)
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			// Deliver what the last tick emitted before flushing.
			runner.Tick(cfg.Vision.TickRate)
			if persistSys != nil {
				persistSys.Flush()
			}
			printReport(sc, visSys)
			log.Info("伺服器已停止")
			return nil
		}
	}
}

// printReport lists what each user currently sees.
func printReport(sc *scene.Scene, vis *system.VisibilitySystem) {
	printSection("可見性報告")
	for _, u := range sc.Users() {
		label := u.ID
		if u.GM {
			label += " (GM)"
		}
		known := vis.Known(u.ID)
		printStat(label, len(known))
		names := make([]string, len(known))
		for i, id := range known {
			names[i] = tokenName(sc, id)
		}
		if len(names) > 0 {
			fmt.Printf("    \033[90m%s\033[0m\n", strings.Join(names, ", "))
		}
	}
	fmt.Println()
}

func tokenName(sc *scene.Scene, id string) string {
	if t, ok := sc.Token(id); ok && t.Name != "" {
		return t.Name
	}
	return id
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
