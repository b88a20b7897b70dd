package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grindhouse/scoreboard/internal/api"
	"grindhouse/scoreboard/internal/config"
	"grindhouse/scoreboard/internal/logging"
	"grindhouse/scoreboard/internal/routes"
	"grindhouse/scoreboard/internal/workers"

	"golang.org/x/sync/errgroup"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := run(); err != nil {
		log.Fatalf("Scoreboard exited: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize structured logging
	if err := logging.Init(cfg.AppEnv); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logging.Close()

	logging.Info("Scoreboard starting up",
		"environment", cfg.AppEnv,
		"db_driver", cfg.DBDriver,
		"cache_backend", cfg.CacheBackend,
	)

	deps, err := api.InitDependencies(cfg)
	if err != nil {
		logging.Error("Failed to initialize dependencies", "error", err.Error())
		return err
	}
	defer deps.Close()

	upSince := time.Now()
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           routes.RegisterRoutes(deps, upSince),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bg := workers.InitWorkers(deps.Services.Rounds, cfg.RoundSweepInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info("Server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return bg.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		// Hijacked websocket connections are not tracked by the server.
		deps.Services.Hub.Shutdown()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logging.Error("Server exited with error", "error", err.Error())
		return err
	}
	logging.Info("Server stopped")
	return nil
}
