// Package main runs the point-of-sale bill generator daemon.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/skarthikeyan/gopos/internal/app"
	"github.com/skarthikeyan/gopos/internal/config"
	"github.com/skarthikeyan/gopos/pkg/bootstrap"
	"github.com/skarthikeyan/gopos/pkg/config/configloader"
)

const appName = "pos"

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run initializes the ledger and bill session and serves the till API until
// the process is signalled. The ledger is saved one last time on the way
// out, so an unfinalized session never loses its stock decrements.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](appName, defaults())
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	deps, err := app.SetupDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Ledger.Save(); err != nil {
			logger.Error("Failed to save stock ledger on exit", "error", err)
		} else {
			logger.Info("Stock ledger saved on exit")
		}
	}()

	httpServer := app.SetupHttpServer(deps, cfg)

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// defaults holds the configuration the till runs with when no config file or
// environment overrides exist.
func defaults() map[string]any {
	return map[string]any{
		"server.port":               8080,
		"server.maxHeaderBytes":     1 << 20,
		"server.timeout.read":       "15s",
		"server.timeout.write":      "15s",
		"server.timeout.idle":       "60s",
		"server.timeout.readHeader": "5s",
		"log.level":                 "info",
		"ledger.file":               "stock.json",
		"receipt.storeName":         "VAZHGA VALAMUDAN STORES",
		"receipt.dir":               "receipts",
		"receipt.preset":            "classic",
		"receipt.surchargeBp":       0,
		"shutdown.timeout":          "10s",
	}
}
