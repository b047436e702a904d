package main

import (
	"bufio"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/joho/godotenv"

	"teachings-archive/internal/broadcaster"
	"teachings-archive/internal/config"
	"teachings-archive/internal/db"
	"teachings-archive/internal/handlers/admin"
	"teachings-archive/internal/handlers/auth"
	"teachings-archive/internal/handlers/events"
	"teachings-archive/internal/handlers/health"
	versionhandler "teachings-archive/internal/handlers/version"
	"teachings-archive/internal/ingest"
	"teachings-archive/internal/ingestcache"
	"teachings-archive/internal/logging"
	"teachings-archive/internal/middleware"
	"teachings-archive/internal/storage"
)

func main() {
	// Load .env file if it exists (for binary users)
	_ = godotenv.Load()

	cfg := config.Load()

	logging.SetDefault(logging.NewLogger(&logging.Config{
		Level:  logging.LevelInfo,
		Format: env("LOG_FORMAT", "text"),
		Output: os.Stdout,
	}))

	sqlDB, err := db.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.EnsureBaseSchema(sqlDB); err != nil {
		log.Fatal(err)
	}
	if err := db.RunMigrationsWithLogging(sqlDB, log.Default()); err != nil {
		log.Fatal(err)
	}

	storageClient, err := storage.New(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
		Region:    cfg.S3Region,
	})
	if err != nil {
		log.Fatal(err)
	}

	hub := broadcaster.New()
	cache := ingestcache.New(30 * time.Second)
	ingestDeps := ingest.Deps{
		DB:      sqlDB,
		Storage: storageClient,
		Hub:     hub,
		Cache:   cache,
	}

	app := fiber.New()

	app.Use(logging.FiberMiddleware(logging.Default()))
	app.Use("/", static.New(cfg.WebPath))
	app.Use("/", middleware.AttachUser(sqlDB, cfg))

	// Health
	app.Get("/health", health.Health(sqlDB))
	app.Get("/version", versionhandler.Get())

	// Auth
	app.Post("/auth/login", auth.LoginHandler(sqlDB, cfg))
	app.Post("/auth/logout", auth.LogoutHandler(sqlDB, cfg))
	app.Post("/auth/register", auth.RegisterHandler(sqlDB, cfg))
	app.Get("/auth/me", auth.MeHandler(sqlDB, cfg))
	app.Get("/auth/config", auth.ConfigHandler(sqlDB, cfg))

	// Event browsing (admin UI), plus admin-token-gated event creation
	app.Get("/events", events.ListEvents(sqlDB))
	app.Post("/events", middleware.AdminAuth(cfg.AdminToken), events.CreateEvent(sqlDB))
	app.Get("/events/:id", events.GetEvent(sqlDB))

	// Admin: ingest pipeline, reparse jobs, audit trail, storage webhook.
	adminHandlers := admin.New(sqlDB, ingestDeps, hub, cache)
	adminGroup := app.Group("/admin", middleware.AdminAuth(cfg.AdminToken))
	adminGroup.Post("/events/:id/ingest", adminHandlers.TriggerIngest())
	adminGroup.Post("/tracks/:id/reparse", adminHandlers.ReparseTrack())
	adminGroup.Post("/events/:id/reparse", adminHandlers.ReparseEvent())
	adminGroup.Get("/events/:id/sessions", adminHandlers.ListSessions())
	adminGroup.Get("/ingest/jobs", adminHandlers.ListJobs())
	adminGroup.Get("/ingest/jobs/:id", adminHandlers.JobDetails())
	adminGroup.Get("/events/:id/ingest/ws", adminHandlers.IngestWS())
	adminGroup.Get("/users", auth.ListAppUsers(sqlDB))
	adminGroup.Post("/users", auth.CreateAppUser(sqlDB))
	adminGroup.Patch("/users/:id", auth.UpdateAppUser(sqlDB))
	adminGroup.Delete("/users/:id", auth.DeleteAppUser(sqlDB))

	// Storage-pushed "new object" webhook, HMAC-verified independently of
	// the bearer-token admin group.
	app.Post("/webhook/storage", middleware.WebhookAuth(cfg.WebhookSecret), adminHandlers.StorageWebhook())

	// SSE keepalive: sends a hello event, then a keepalive event every 15
	// seconds. It carries no ingest status; live status is only published on
	// the WebSocket channel.
	app.Get("/now/stream", func(c fiber.Ctx) error {
		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		return c.SendStreamWriter(func(w *bufio.Writer) {
			w.WriteString("event: hello\ndata: {}\n\n")
			_ = w.Flush()
			t := time.NewTicker(15 * time.Second)
			defer t.Stop()
			for range t.C {
				w.WriteString("event: keepalive\ndata: {}\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("[INFO] Starting server on :%s", port)
	log.Fatal(app.Listen(":" + port))
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
