package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/fulfillment-engine/api"
	"github.com/warp/fulfillment-engine/calendar"
	"github.com/warp/fulfillment-engine/config"
	"github.com/warp/fulfillment-engine/logging"
	"github.com/warp/fulfillment-engine/metrics"
	"github.com/warp/fulfillment-engine/store/memory"
	"github.com/warp/fulfillment-engine/store/mongo"
	"github.com/warp/fulfillment-engine/store/sqlite"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := applyServeFlags(cmd, cfg); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	cmd.Flags().String("store", "", "Store backend: sqlite, memory or mongo (overrides STORE)")
	cmd.Flags().String("db", "", "SQLite database path, \":memory:\" for in-memory (overrides SQLITE_PATH)")
	return cmd
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.HTTPAddr = v
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Store = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.SQLitePath = v
	}
	return cfg.Validate()
}

// openStore connects the configured backend. The returned func closes it.
func openStore(ctx context.Context, cfg *config.Config) (api.Store, func() error, error) {
	switch cfg.Store {
	case config.StoreMemory:
		s := memory.New()
		return s, s.Close, nil
	case config.StoreMongo:
		s, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return s.Close(context.Background()) }, nil
	default:
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return s, s.Close, nil
	}
}

// seedHolidays saves every holiday of the configured seed file.
func seedHolidays(ctx context.Context, store api.Store, path string, log *zap.Logger) error {
	holidays, err := config.LoadHolidays(path)
	if err != nil {
		return err
	}
	for _, h := range holidays {
		if _, err := store.CreateHoliday(ctx, h); err != nil {
			return fmt.Errorf("save holiday %s %q: %w", h.Date, h.Name, err)
		}
	}
	log.Info("holidays seeded", zap.String("file", path), zap.Int("count", len(holidays)))
	return nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("failed to close store", zap.Error(err))
		}
	}()

	if cfg.HolidayFile != "" {
		if err := seedHolidays(ctx, store, cfg.HolidayFile, log); err != nil {
			return err
		}
	}

	handler := api.NewHandler(store, log, metrics.New(nil))
	router := api.NewRouter(handler, api.RouterOptions{AllowedOrigins: cfg.CORSOrigins})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // bulk commits write one task at a time
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.Store),
			zap.String("today", calendar.Today().String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
