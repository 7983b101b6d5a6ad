package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"

	"github.com/promptlock/gauntlet/pkg/analytics"
	"github.com/promptlock/gauntlet/pkg/config"
	"github.com/promptlock/gauntlet/pkg/game"
	"github.com/promptlock/gauntlet/pkg/levels"
	"github.com/promptlock/gauntlet/pkg/patterns"
	"github.com/promptlock/gauntlet/pkg/session"
	"github.com/promptlock/gauntlet/pkg/store"
)

const Version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		port := ""
		if len(os.Args) > 2 {
			port = os.Args[2]
		}
		runServer(port)
	case "classify":
		if len(os.Args) < 3 {
			fmt.Println("Usage: gauntlet classify <text>")
			os.Exit(1)
		}
		runClassify(strings.Join(os.Args[2:], " "))
	case "levels":
		listLevels()
	case "version":
		fmt.Printf("Gauntlet v%s\n", Version)
		fmt.Println("Prompt Injection Challenge Engine")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Gauntlet v%s - Prompt Injection Challenge Engine\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  gauntlet serve [port]      Start the webhook server (default: 8080)")
	fmt.Println("  gauntlet classify <text>   Show which attack signatures a message matches")
	fmt.Println("  gauntlet levels            List the level catalog")
	fmt.Println("  gauntlet version           Show version")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  GAUNTLET_REDIS_ADDR     Redis address for user records (default: localhost:6379)")
	fmt.Println("  GAUNTLET_POSTGRES_DSN   Postgres DSN for winner records (optional)")
	fmt.Println("  GAUNTLET_LEVELS_PATH    YAML file overriding the built-in level catalog")
	fmt.Println("  GAUNTLET_WARN_AFTER     Idle time before a session warning (default: 2m)")
	fmt.Println("  GAUNTLET_EXPIRE_AFTER   Idle time before session expiry (default: 3m)")
}

// loadCatalog returns the configured level catalog, or the built-in one.
func loadCatalog(cfg *config.Config) *levels.Catalog {
	if cfg.LevelsPath == "" {
		return levels.Default()
	}
	catalog, err := levels.LoadFile(cfg.LevelsPath)
	if err != nil {
		log.Fatalf("[STARTUP] FATAL: %v", err)
	}
	log.Printf("[STARTUP] Loaded %d levels from %s", catalog.MaxLevel(), cfg.LevelsPath)
	return catalog
}

// ============================================================================
// Server Mode
// ============================================================================

type webhookRequest struct {
	From     string `json:"from"`
	Text     string `json:"text"`
	ButtonID string `json:"button_id,omitempty"`
}

func runServer(portOverride string) {
	cfg := config.NewDefaultConfig()
	if portOverride != "" {
		cfg.HTTPPort = portOverride
	}
	cfg.MustValidate()

	catalog := loadCatalog(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer client.Close()
	userStore := store.NewRedisStore(client, cfg.RecordTTL, cfg.StoreTimeout)

	var winners store.WinnerStore = store.NewMemoryWinnerStore()
	if cfg.PostgresDSN != "" {
		pg, err := store.NewPostgresWinnerStore(ctx, cfg.PostgresDSN, cfg.StoreTimeout)
		if err != nil {
			log.Fatalf("[STARTUP] FATAL: %v", err)
		}
		defer pg.Close()
		winners = pg
		log.Println("[STARTUP] Winner records in Postgres")
	} else {
		log.Println("[STARTUP] No Postgres DSN, winner records in memory only")
	}

	tracker := analytics.NewAsyncTracker(analytics.LogTracker{}, 64)

	engine, err := game.NewEngine(game.EngineConfig{
		Catalog:      catalog,
		Store:        userStore,
		Winners:      winners,
		Ranks:        store.NewRedisRankCounter(client, cfg.StoreTimeout),
		Tracker:      tracker,
		HistoryLimit: cfg.HistoryLimit,
	})
	if err != nil {
		log.Fatalf("[STARTUP] FATAL: %v", err)
	}

	monitor, err := session.NewMonitor(session.MonitorConfig{
		Store:           userStore,
		Locks:           engine.Locks(),
		WarnThreshold:   cfg.WarnThreshold,
		ExpiryThreshold: cfg.ExpiryThreshold,
		Parallelism:     cfg.SweepParallelism,
		Tracker:         tracker,
	})
	if err != nil {
		log.Fatalf("[STARTUP] FATAL: %v", err)
	}

	// Delivery of warning/expiry notices belongs to the messaging
	// transport; here they only reach the log.
	notify := func(_ context.Context, transitions []session.Transition) {
		for _, tr := range transitions {
			log.Printf("[SWEEP] %s -> %s (level %d)", analytics.MaskHandle(tr.Handle), tr.Kind, tr.Level)
		}
	}
	runner := session.NewRunner(monitor, cfg.SweepInterval, notify)
	go runner.Run(ctx)

	app := newApp(cfg, catalog, engine, monitor, userStore)

	go func() {
		log.Printf("[STARTUP] Gauntlet v%s listening on :%s", Version, cfg.HTTPPort)
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Fatalf("[STARTUP] FATAL: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[SHUTDOWN] Signal received, draining")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("[SHUTDOWN] HTTP shutdown: %v", err)
	}
}

func newApp(cfg *config.Config, catalog *levels.Catalog, engine *game.Engine, monitor *session.Monitor, userStore *store.RedisStore) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Gauntlet",
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version, "levels": catalog.MaxLevel()})
	})

	// Webhook verification: echo the challenge when the token matches.
	app.Get("/webhook", func(c fiber.Ctx) error {
		if c.Query("hub.mode") == "subscribe" && c.Query("hub.verify_token") == cfg.VerifyToken {
			return c.SendString(c.Query("hub.challenge"))
		}
		return c.SendStatus(fiber.StatusForbidden)
	})

	app.Post("/webhook", func(c fiber.Ctx) error {
		var req webhookRequest
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		if req.ButtonID != "" {
			return handleButton(c, catalog, engine, userStore, req)
		}

		out, err := engine.ProcessMessage(c.Context(), req.From, req.Text)
		if err != nil {
			return webhookError(c, err)
		}
		return c.JSON(fiber.Map{
			"to":       out.Handle,
			"response": out.Response,
			"buttons":  out.Buttons,
			"level":    out.Level,
			"won_game": out.WonGame,
			"step":     out.Step,
		})
	})

	app.Get("/stats", func(c fiber.Ctx) error {
		stats, err := engine.Stats(c.Context())
		if err != nil {
			return webhookError(c, err)
		}
		return c.JSON(stats)
	})

	app.Get("/leaderboard", func(c fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "10"))
		board, err := engine.Leaderboard(c.Context(), limit)
		if err != nil {
			return webhookError(c, err)
		}
		return c.JSON(fiber.Map{"winners": board})
	})

	// Manual sweep trigger, useful for operations and smoke tests. The
	// periodic runner covers normal operation.
	app.Post("/sweep", func(c fiber.Ctx) error {
		transitions, err := monitor.Sweep(c.Context(), time.Now())
		if err != nil {
			return webhookError(c, err)
		}
		return c.JSON(fiber.Map{"transitions": transitions})
	})

	return app
}

// handleButton serves the fixed reply buttons (continue / how_to_play /
// my_progress) without running a game turn.
func handleButton(c fiber.Ctx, catalog *levels.Catalog, engine *game.Engine, userStore *store.RedisStore, req webhookRequest) error {
	var response string
	switch req.ButtonID {
	case "how_to_play":
		response = catalog.HowToPlayMessage()
	case "my_progress":
		var err error
		response, err = engine.Progress(c.Context(), req.From)
		if err != nil {
			return webhookError(c, err)
		}
	case "continue":
		level := 1
		if rec, err := userStore.Get(c.Context(), req.From); err == nil {
			level = rec.Level
		}
		response = catalog.LevelMessage(level)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown button"})
	}
	return c.JSON(fiber.Map{"to": req.From, "response": response})
}

func webhookError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, game.ErrInvalidHandle):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, store.ErrUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "storage unavailable, try again"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// ============================================================================
// CLI Mode
// ============================================================================

func runClassify(text string) {
	registry := patterns.Get()
	matched := registry.Classify(text)

	result := struct {
		Text    string   `json:"text"`
		Matched []string `json:"matched"`
		Total   int      `json:"signatures_evaluated"`
		Verdict string   `json:"verdict"`
	}{
		Text:    text,
		Matched: matched,
		Total:   registry.TotalSignatures(),
		Verdict: "clean",
	}
	if len(matched) > 0 {
		result.Verdict = "attack"
	}

	output, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(output))
}

func listLevels() {
	catalog := levels.Default()
	fmt.Printf("Level catalog (%d levels):\n\n", catalog.MaxLevel())
	for i := 1; i <= catalog.MaxLevel(); i++ {
		def, _ := catalog.DefinitionFor(i)
		fmt.Printf("  %d. %s (%s)\n", def.Ordinal, def.BotName, def.DefenseStrength)
		fmt.Printf("     detects: %s\n", strings.Join(def.Detects, ", "))
		fmt.Printf("     bypass probability: %.2f\n\n", def.BypassProbability)
	}
}
