package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"account-service/internal/config"
	"account-service/internal/db"
	"account-service/internal/logging"
	"account-service/internal/rabbitmq"
	"account-service/internal/softdelete"
	"account-service/internal/telemetry"
	"account-service/internal/ws"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	SkipMigrate bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipMigrate, "skip-migrate", false, "do not create tables on startup")

	return cmd
}

func runServer(ctx context.Context, opts *ServeOptions) error {
	cfg, err := config.Load(opts.envFiles()...)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.WithError(err).Warn("tracer shutdown failed")
		}
	}()

	database, err := db.Connect(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	defer database.Close()

	if !opts.SkipMigrate {
		if err := db.Migrate(ctx, database); err != nil {
			return err
		}
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	defer publisher.Close()
	log.WithField("mode", rabbitmq.PublisherMode(publisher)).Info("event publisher ready")

	hub := ws.NewHub(log)
	emitter := telemetry.NewEventEmitter(publisher, hub, cfg.ServiceName, cfg.Environment, log)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: NewRouter(RouterDeps{
			DB:             database,
			Queries:        softdelete.New(database),
			Events:         emitter,
			Hub:            hub,
			Log:            log,
			ServiceName:    cfg.ServiceName,
			AllowedOrigins: cfg.Origins(),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port":   cfg.Port,
			"driver": cfg.DBDriver,
		}).Info("account service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
