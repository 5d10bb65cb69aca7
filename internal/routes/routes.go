package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/blaze-wallet/blaze_wallet/internal/config"
	"github.com/blaze-wallet/blaze_wallet/internal/faceid"
	"github.com/blaze-wallet/blaze_wallet/internal/identstore"
	"github.com/blaze-wallet/blaze_wallet/internal/journal"
	"github.com/blaze-wallet/blaze_wallet/internal/liveness"
	"github.com/blaze-wallet/blaze_wallet/internal/middleware"
	"github.com/blaze-wallet/blaze_wallet/internal/notification"
	"github.com/blaze-wallet/blaze_wallet/internal/passphrase"
	"github.com/blaze-wallet/blaze_wallet/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes. Store is built
// by main so its lifecycle (collection creation, shutdown) stays in one place.
type Deps struct {
	Cfg    config.Config
	Store  identstore.Store
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Store == nil {
		return fmt.Errorf("identity store is required")
	}
	if !d.Cfg.IsDev() && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	gate := liveness.NewGate(liveness.NewHTTPClassifier(d.Cfg.LivenessURL, d.Cfg.ModelTimeout))
	extractor := faceid.NewExtractor(faceid.NewHTTPDetector(d.Cfg.FaceEmbedURL, d.Cfg.ModelTimeout))
	allocator := passphrase.NewAllocator(d.Store)

	var transferJournal journal.Journal
	if d.DB != nil {
		transferJournal = journal.NewPostgresJournal(d.DB)
	} else {
		transferJournal = journal.NewMemory()
	}

	svc := wallet.NewService(wallet.ServiceConfig{
		Store:         d.Store,
		Gate:          gate,
		Extractor:     extractor,
		Passphrases:   allocator,
		Journal:       transferJournal,
		Notifier:      notification.NewLoggerNotifier(d.Logger),
		Logger:        d.Logger,
		MinSimilarity: d.Cfg.MinSimilarity,
	})
	handler := wallet.NewHandler(svc, d.Logger)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	api.Post("/register", handler.Register)
	api.Post("/login", middleware.AuthRateLimit(d.Cache, 5), handler.Login)
	api.Get("/dashboard", handler.Dashboard)
	api.Get("/receive", handler.Receive)
	api.Get("/history", handler.History)

	if d.Cache != nil {
		api.Post("/send", middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger), handler.Send)
	} else {
		api.Post("/send", handler.Send)
	}

	return nil
}
