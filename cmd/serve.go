package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insightpro/internal/app"
	"insightpro/internal/config"
	"insightpro/internal/database"
	"insightpro/internal/logging"
	"insightpro/internal/services"
	"insightpro/pkg/rabbitmq"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return serve(cmd, cfg)
		},
	}
}

func serve(cmd *cobra.Command, cfg *config.Config) error {
	logger := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)

	// --- Database ---
	var db *gorm.DB
	if cfg.Database.Driver != config.DriverMemory {
		var err error
		db, err = database.Open(cfg.Database, log.With(logger, "component", "database"))
		if err != nil {
			return err
		}
		defer func() {
			if err := database.Close(db); err != nil {
				level.Error(logger).Log("msg", "failed to close database", "err", err)
			}
		}()
		if err := database.Migrate(db); err != nil {
			return err
		}
	} else {
		level.Warn(logger).Log("msg", "using in-memory store, data is lost on exit")
	}

	// --- Product events ---
	var events services.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		mqLogger := log.With(logger, "component", "rabbitmq")
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL}, mqLogger)
		if err != nil {
			level.Error(logger).Log("msg", "product events disabled", "err", err)
		} else {
			defer mqClient.Close()
			events = mqClient
			if cfg.RabbitMQ.AuditConsumer {
				if err := mqClient.ConsumeProductEvents(rabbitmq.AuditHandler(mqLogger)); err != nil {
					level.Error(logger).Log("msg", "failed to start product events consumer", "err", err)
				}
			}
		}
	}

	application := app.New(app.Options{
		Config:    cfg,
		DB:        db,
		Events:    events,
		Logger:    logger,
		AccessLog: cmd.OutOrStdout(),
	})

	// --- Start HTTP Server ---
	level.Info(logger).Log("msg", "starting server", "addr", cfg.AppPort, "driver", cfg.Database.Driver)
	errc := make(chan error, 1)
	go func() {
		errc <- application.Listen(cfg.AppPort)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errc:
		return err
	case sig := <-quit:
		level.Info(logger).Log("msg", "shutting down server", "signal", sig.String())
	case <-cmd.Context().Done():
		level.Info(logger).Log("msg", "shutting down server", "err", cmd.Context().Err())
	}

	if err := application.ShutdownWithTimeout(shutdownTimeout); err != nil {
		level.Error(logger).Log("msg", "error during shutdown", "err", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, os.ErrClosed) {
		level.Warn(logger).Log("msg", "listener stopped", "err", err)
	}
	level.Info(logger).Log("msg", "server gracefully stopped")
	return nil
}
