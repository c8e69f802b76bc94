package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/api"
	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/cache"
	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/db"
	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/trading"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := db.Migrate(ctx, conn, logger); err != nil {
		return err
	}

	factory := cache.NewFactory(&cfg.Cache, &cfg.Redis, logger, nil)
	store, err := factory.CreateStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close cache store")
		}
	}()

	ttl, err := factory.CreateTTLCalculator()
	if err != nil {
		return err
	}
	writer := factory.CreateWriter()
	defer func() {
		// Queued writes get the shutdown budget to finish
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg.HTTP.ShutdownTimeout))
		defer cancel()
		if err := writer.Close(closeCtx); err != nil {
			logger.Warn().Err(err).Interface("stats", writer.Stats()).Msg("cache writer did not drain")
		}
	}()

	loc, _ := cfg.Cache.Location()
	logger.Info().
		Str("cutoff", ttl.Cutoff().String()).
		Str("timezone", loc.String()).
		Str("backend", cfg.Cache.Backend).
		Bool("enabled", cfg.Cache.Enabled).
		Msg("response cache configured")

	metrics := api.NewMetrics("spimex", writer)
	rt := cache.NewReadThrough(store, ttl, writer, metrics, logger)
	svc := trading.NewService(trading.NewRepository(conn), loc, nil)
	server := api.NewServer(cfg.HTTP, api.NewHandlers(svc, rt, logger), metrics, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg.HTTP.ShutdownTimeout))
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func shutdownTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 15 * time.Second
	}
	return d
}
