// Package app assembles the HTTP application: repositories, services,
// handlers and the middleware stack.
package app

import (
	"io"
	"time"

	"insightpro/internal/auth"
	"insightpro/internal/config"
	"insightpro/internal/handlers"
	"insightpro/internal/logging"
	"insightpro/internal/metrics"
	"insightpro/internal/middleware"
	"insightpro/internal/repositories"
	"insightpro/internal/services"

	"github.com/go-kit/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Options carries the dependencies of the HTTP application.
type Options struct {
	Config *config.Config
	// DB backs the repositories. When nil, in-memory repositories are used.
	DB *gorm.DB
	// Events receives product lifecycle events. Optional.
	Events services.EventPublisher
	Logger log.Logger
	// Registry collects the application metrics and is served on /metrics.
	// A fresh registry is created when nil.
	Registry *prometheus.Registry
	// AccessLog receives one line per request. No access log when nil.
	AccessLog io.Writer
}

// New builds the fiber application with every route registered.
func New(opts Options) *fiber.App {
	cfg := opts.Config
	logger := logging.OrNop(opts.Logger)

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)

	// --- Initialize Repositories ---
	var (
		accountRepo repositories.AccountRepository
		productRepo repositories.ProductRepository
	)
	if opts.DB != nil {
		accountRepo = repositories.NewGORMAccountRepository(opts.DB)
		productRepo = repositories.NewGORMProductRepository(opts.DB)
	} else {
		accountRepo = repositories.NewMemoryAccountRepository()
		productRepo = repositories.NewMemoryProductRepository()
	}

	// --- Initialize Services ---
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	accountService := services.NewAccountService(accountRepo, tokens, cfg.Auth.BcryptCost, log.With(logger, "component", "accounts"), m)
	productService := services.NewProductService(productRepo, opts.Events, log.With(logger, "component", "products"), m)

	// --- Initialize Handlers ---
	accountHandler := handlers.NewAccountHandler(accountService, logger)
	productHandler := handlers.NewProductHandler(productService, logger)

	app := fiber.New(fiber.Config{
		AppName:               "InsightPro",
		ErrorHandler:          handlers.ErrorHandler(logger),
		DisableStartupMessage: true,
	})

	// --- Middleware ---
	app.Use(recover.New())
	if opts.AccessLog != nil {
		app.Use(fiberlogger.New(fiberlogger.Config{Output: opts.AccessLog}))
	}
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORS.AllowOrigins}))

	// --- API Routes ---
	accountHandler.RegisterRoutes(app)
	productHandler.RegisterRoutes(app, middleware.AuthRequired(tokens, log.With(logger, "component", "auth"), m))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return app
}
