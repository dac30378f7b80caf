// Package api serves topology documents, rendered diagrams and FortiOS
// configurations over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/config"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/render"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/store"
)

// maxUploadBytes bounds uploaded documents.
const maxUploadBytes = 32 << 20

// Server is the netgraph HTTP API.
type Server struct {
	cfg    *config.Config
	store  *store.Store
	html   *render.HTMLRenderer
	svg    *render.SVGRenderer
	logger *slog.Logger

	httpServer *http.Server
}

// NewServer creates a server over st. A nil logger uses slog.Default.
func NewServer(cfg *config.Config, st *store.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	html, err := render.NewHTMLRenderer()
	if err != nil {
		return nil, err
	}
	svg, err := render.NewSVGRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, store: st, html: html, svg: svg, logger: logger}
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s, nil
}

// Handler returns the routed handler chain: recovery, then logging and
// metrics, then the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/networks", s.handleListNetworks)
	mux.HandleFunc("POST /api/v1/networks/{filename}", s.handleUploadNetwork)
	mux.HandleFunc("GET /api/v1/networks/{filename}", s.handleGetNetwork)
	mux.HandleFunc("GET /api/v1/networks/{filename}/node_link", s.handleGetNodeLink)
	mux.HandleFunc("GET /api/v1/networks/{filename}/by_addr/{ip}", s.handleFindByAddr)
	mux.HandleFunc("GET /api/v1/networks/{filename}/by_path/{src}/{dst}", s.handleFindByPath)
	mux.HandleFunc("GET /networks/{filename}", s.handleDiagramPage)
	mux.HandleFunc("GET /networks/{filename}/snapshot.svg", s.handleSnapshot)

	mux.HandleFunc("GET /api/v1/fortios", s.handleListFortiOS)
	mux.HandleFunc("POST /api/v1/fortios/{filename}", s.handleUploadFortiOS)
	mux.HandleFunc("GET /api/v1/fortios/{group}/{filename}", s.handleGroupConfig)
	mux.HandleFunc("GET /api/v1/fortios/firewall/{filename}/policies", s.handlePolicies)

	var handler http.Handler = mux
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	return handler
}

// Run serves until ctx is done, then shuts down gracefully within the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server startup failed: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return s.Shutdown(s.cfg.Server.ShutdownTimeout.Duration)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("Initiating graceful shutdown", "timeout", timeout)
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	s.logger.Info("Server shutdown complete")
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
