// Package api serves the kernel's HTTP endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	apidispatch "github.com/openagv/fleetkernel/api/dispatch"
	"github.com/openagv/fleetkernel/api/vehicles"
	"github.com/openagv/fleetkernel/core/dispatch"
	"github.com/openagv/fleetkernel/core/dispatch/logging"
	"github.com/openagv/fleetkernel/infra/logger"
)

// NewMux assembles the API routes.
func NewMux(reg dispatch.Registry, store logging.LogStore, token string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/dispatch/logs", apidispatch.NewLogHandler(store, token))
	mux.Handle("/api/vehicles", vehicles.NewStatusHandler(reg))
	mux.Handle("/api/vehicles/", vehicles.NewDetailHandler(reg))
	return mux
}

// Serve runs the API server on the given address until the context is
// canceled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	log := logger.New("api_server")
	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("api server shutdown: %v", err)
		}
		cancel()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
