package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/take-home-pay/internal/calculator"
	"github.com/iwvelando/take-home-pay/internal/events"
	"github.com/iwvelando/take-home-pay/internal/metrics"
	"github.com/iwvelando/take-home-pay/internal/record"
	"github.com/iwvelando/take-home-pay/internal/server"
	"github.com/iwvelando/take-home-pay/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	var (
		serverConfigPath string
		address          string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculation API, including the tax authority endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srvConf, err := server.LoadConfig(serverConfigPath)
			if err != nil {
				return err
			}
			if address != "" {
				srvConf.Address = address
			}

			// Server logging settings replace the ones from the main config
			if srvConf.Logging.Level != "" || srvConf.Logging.Format != "" || srvConf.Logging.OutputFile != "" {
				logger, err := initializeLogger(srvConf.Logging, c.logLevel)
				if err != nil {
					return fmt.Errorf("failed to initialize server logger: %w", err)
				}
				_ = c.logger.Sync()
				c.logger = logger
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return c.serve(ctx, srvConf)
		},
	}

	cmd.Flags().StringVar(&serverConfigPath, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().StringVar(&address, "address", "", "listen address override (e.g. :8080)")
	return cmd
}

// serve wires the record store, event publisher, metrics and calculator into
// the HTTP handler and runs it until ctx is cancelled.
func (c *cli) serve(ctx context.Context, srvConf *server.Config) error {
	m := metrics.New()

	mode, err := calculator.ParseMode(c.conf.Calculation.Mode)
	if err != nil {
		return err
	}

	calc, cleanup := c.newCalculator(ctx, calculator.WithMetrics(m))
	defer cleanup()

	store, closeStore, err := c.newRecordStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher := c.newPublisher()
	defer func() {
		if err := publisher.Close(); err != nil {
			c.logger.Warn("failed to close event publisher", zap.String("op", "main.serve"), zap.Error(err))
		}
	}()

	svc := calculator.NewService(c.logger, calc, store, publisher, mode)
	handler := server.NewHandler(c.logger, svc, server.Options{
		MaxBodySize:       srvConf.BodySizeBytes(),
		Version:           version,
		Metrics:           m,
		RequestsPerSecond: srvConf.RequestsPerSecond,
		Burst:             srvConf.Burst,
	})

	httpServer := &http.Server{
		Addr:              srvConf.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("server listening",
			zap.String("op", "main.serve"),
			zap.String("address", srvConf.Address),
			zap.String("mode", string(mode)),
			zap.Bool("delegation", calc.CanDelegate()),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	c.logger.Info("shutting down server", zap.String("op", "main.serve"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// newRecordStore opens PostgreSQL when a DSN is configured and keeps records
// in memory otherwise.
func (c *cli) newRecordStore(ctx context.Context) (record.Store, func(), error) {
	if c.conf.Database.DSN == "" {
		c.logger.Info("no database configured, keeping records in memory", zap.String("op", "main.newRecordStore"))
		return record.NewMemoryStore(), func() {}, nil
	}

	store, err := record.OpenPostgres(ctx, c.logger, c.conf.Database.DSN, c.conf.Database.MaxOpenConns)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open record database: %w", err)
	}
	return store, func() {
		if err := store.Close(); err != nil {
			c.logger.Warn("failed to close record database", zap.String("op", "main.newRecordStore"), zap.Error(err))
		}
	}, nil
}

// newPublisher publishes to Kafka when brokers are configured.
func (c *cli) newPublisher() events.Publisher {
	if len(c.conf.Kafka.Brokers) == 0 {
		return events.NopPublisher{}
	}
	return events.NewKafkaPublisher(c.logger, c.conf.Kafka.Brokers, c.conf.Kafka.Topic)
}
