// Package server exposes formset row replication, widget binding and the
// autocomplete endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formset/internal/logging"
	"github.com/goliatone/go-formset/pkg/dom"
	"github.com/goliatone/go-formset/pkg/navigator"
	"github.com/goliatone/go-formset/pkg/render"
	"github.com/goliatone/go-formset/pkg/widgets"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	opts    Options
	logger  logrus.FieldLogger
	router  *mux.Router
	metrics *metrics
	handler http.Handler
}

// New builds the router. It fails when the autocomplete routes cannot be
// mounted or the default template engine cannot be created.
func New(fns ...OptionFn) (*Server, error) {
	opts := NewOptions(fns...)
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Engine == nil {
		engine, err := render.New()
		if err != nil {
			return nil, fmt.Errorf("server: template engine: %w", err)
		}
		opts.Engine = engine
	}
	if opts.Replicator == nil {
		opts.Replicator = dom.New(dom.WithLogger(opts.Logger))
	}
	if opts.Widgets == nil {
		opts.Widgets = widgets.NewRegistry()
	}
	if opts.Navigator == nil {
		opts.Navigator = navigator.New(navigator.WithLogger(opts.Logger))
	}

	s := &Server{
		opts:    opts,
		logger:  logging.OrDiscard(opts.Logger),
		router:  mux.NewRouter().StrictSlash(true),
		metrics: newMetrics(opts.Registry),
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	s.handler = withLogger(s.logger, s.router)
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Options() Options {
	return s.opts
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) routes() error {
	s.router.Use(s.metrics.middleware)
	s.router.Handle(s.opts.MetricsPath, promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := s.router
	if base := strings.TrimRight(strings.TrimSpace(s.opts.BasePath), "/"); base != "" {
		if !strings.HasPrefix(base, "/") {
			base = "/" + base
		}
		api = s.router.PathPrefix(base).Subrouter()
	}
	api.HandleFunc("/formsets/add-row", s.handleAddRowHTML).Methods(http.MethodPost)
	api.HandleFunc("/formsets/{prefix}/rows", s.handleAddRow).Methods(http.MethodPost)
	api.HandleFunc("/formsets/{prefix}/render", s.handleRenderSection).Methods(http.MethodPost)
	api.HandleFunc("/widgets/bind", s.handleBindWidgets).Methods(http.MethodPost)
	api.HandleFunc("/links/rewrite", s.handleRewriteLinks).Methods(http.MethodPost)

	if s.opts.Autocomplete != nil {
		patterns, err := s.opts.Autocomplete.RegisterRoutes(routeMux{router: api}, "/")
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		s.logger.WithField("routes", patterns).Debug("autocomplete routes mounted")
	}
	return nil
}

// routeMux adapts a gorilla router to autocomplete.Mux. Autocomplete
// endpoints are read-only.
type routeMux struct {
	router *mux.Router
}

func (m routeMux) Handle(pattern string, handler http.Handler) {
	m.router.Handle(pattern, handler).Methods(http.MethodGet, http.MethodHead)
}
