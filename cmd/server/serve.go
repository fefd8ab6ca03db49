package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"housing-dashboard/internal/api"
	"housing-dashboard/internal/logging"
	"housing-dashboard/internal/render"
	"housing-dashboard/internal/state"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Services
	cache, source, assets, err := newDatasetCache(cfg, logger)
	if err != nil {
		return err
	}
	if closer, ok := source.(io.Closer); ok {
		defer closer.Close()
	}

	// A dataset that cannot be loaded at startup is fatal
	if _, err := cache.Get(ctx); err != nil {
		return errors.Wrap(err, "initial dataset load")
	}

	renderer, err := render.New(assets, cfg.Display.Title, cfg.Display.TableColumns)
	if err != nil {
		return err
	}

	sessions := state.NewStore(cfg.SessionTTLDuration())
	go sessions.RunJanitor(ctx, time.Minute, logger)

	// Initialize Handler
	handler := api.NewHandler(cache, sessions, renderer, assets, logger)

	// Router Setup
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Register all Routes
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting dashboard",
		zap.String("addr", cfg.Server.Addr),
		zap.String("dataset", cache.Current().Source),
		zap.Int("records", len(cache.Current().Records)),
		zap.String("assets", assets.Dir),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server failed")
	}
	logger.Info("server stopped")
	return nil
}
