package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the health-check plus metrics HTTP server. A nil *Server is not
// meaningful; callers that don't want one simply skip constructing it.
type Server struct {
	logger *slog.Logger
	http   *http.Server
}

// Start builds and launches a Server listening on port, serving /health and
// /metrics (the latter gathering from gatherer). It returns immediately; the
// server runs in a background goroutine until Close is called.
func Start(logger *slog.Logger, port int, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", port)
	s := &Server{logger: logger, http: &http.Server{Addr: addr, Handler: mux}}

	go func() {
		logger.Info("health/metrics server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health/metrics server failed", "error", err)
		}
	}()
	return s
}

// Close shuts the server down gracefully.
func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}
