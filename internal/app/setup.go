// Package app contains the dependency wiring for the posd process.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skarthikeyan/gopos/internal/bill"
	"github.com/skarthikeyan/gopos/internal/config"
	"github.com/skarthikeyan/gopos/internal/ledger"
	"github.com/skarthikeyan/gopos/internal/receipt"
	"github.com/skarthikeyan/gopos/internal/transport/rest"
	"github.com/skarthikeyan/gopos/pkg/server"
)

type Dependencies struct {
	Ledger  *ledger.Ledger
	Session *bill.Session
	Logger  *slog.Logger
}

// SetupDependencies loads the stock ledger and opens an empty bill session
// over it.
func SetupDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	stockLedger := ledger.New(cfg.Ledger.File, logger)
	stockLedger.Load()

	renderer, err := receipt.New(cfg.Receipt.Preset, receipt.Options{
		StoreName: cfg.Receipt.StoreName,
		OutDir:    cfg.Receipt.Dir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create receipt renderer: %w", err)
	}

	return &Dependencies{
		Ledger:  stockLedger,
		Session: bill.NewSession(stockLedger, renderer, cfg.Receipt.SurchargeBp),
		Logger:  logger,
	}, nil
}

// SetupHttpHandler initializes the router and routes for the till.
// Used by tests to exercise the HTTP surface without a listening socket.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the till.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	billHandler := rest.NewHandler(deps.Session, deps.Ledger, deps.Logger)
	billHandler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures the HTTP server for the till.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
