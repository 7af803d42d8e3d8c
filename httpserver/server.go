package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ruteri/tee-integrity-proofs/common"
	"github.com/ruteri/tee-integrity-proofs/metrics"
	"go.uber.org/atomic"
)

type HTTPServerConfig struct {
	ListenAddr  string
	MetricsAddr string
	EnablePprof bool
	Log         *slog.Logger

	DrainDuration            time.Duration
	GracefulShutdownDuration time.Duration
	ReadTimeout              time.Duration

	// WriteTimeout bounds a whole response, including event streams. Leave
	// it zero when executions may outlast it.
	WriteTimeout time.Duration
}

// RouteRegistrar is implemented by API handlers mounted on the server.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// listener is an *http.Server or the metrics server.
type listener interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type namedListener struct {
	name string
	addr string
	listener
}

type Server struct {
	cfg     *HTTPServerConfig
	isReady atomic.Bool
	log     *slog.Logger

	mux        *chi.Mux
	metricsSrv *metrics.MetricsServer
	listeners  []namedListener
}

func New(cfg *HTTPServerConfig) (*Server, error) {
	metricsSrv, err := metrics.New(common.PackageName, cfg.MetricsAddr)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:        cfg,
		log:        cfg.Log,
		metricsSrv: metricsSrv,
	}
	srv.isReady.Store(true)
	srv.mux = srv.getRouter()

	srv.listeners = append(srv.listeners, namedListener{
		name:     "HTTP",
		addr:     cfg.ListenAddr,
		listener: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      srv.mux,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	})
	if cfg.MetricsAddr != "" {
		srv.listeners = append(srv.listeners, namedListener{name: "metrics", addr: cfg.MetricsAddr, listener: metricsSrv})
	}

	return srv, nil
}

// MetricsRegistry is where mounted handlers register their metrics.
func (srv *Server) MetricsRegistry() prometheus.Registerer {
	return srv.metricsSrv.Registry()
}

// Mount adds the routes of h behind the access log middleware. It must be
// called before RunInBackground.
func (srv *Server) Mount(h RouteRegistrar) {
	srv.mux.Group(func(r chi.Router) {
		r.Use(srv.httpLogger)
		h.RegisterRoutes(r)
	})
}

// Handler returns the API router.
func (srv *Server) Handler() http.Handler {
	return srv.mux
}

func (srv *Server) getRouter() *chi.Mux {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(srv.httpLogger)
		r.Get("/livez", srv.handleLivenessCheck)
		r.Get("/readyz", srv.handleReadinessCheck)
		r.Get("/drain", srv.readinessSwitch(false, "draining", "already draining"))
		r.Get("/undrain", srv.readinessSwitch(true, "ready", "already ready"))
	})

	if srv.cfg.EnablePprof {
		srv.log.Info("pprof API enabled")
		mux.Mount("/debug", middleware.Profiler())
	}
	return mux
}

func (srv *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(srv.log, next)
}

type statusResponse struct {
	Status string `json:"status"`
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(statusResponse{Status: status})
}

func (srv *Server) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "alive")
}

func (srv *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if !srv.isReady.Load() {
		writeStatus(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeStatus(w, http.StatusOK, "ready")
}

// readinessSwitch sets readiness to ready. Draining keeps serving open
// execute streams; load balancers stop sending new ones once readyz fails.
func (srv *Server) readinessSwitch(ready bool, changed, unchanged string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if srv.isReady.Swap(ready) == ready {
			writeStatus(w, http.StatusOK, unchanged)
			return
		}

		if ready {
			srv.log.Info("Server marked as ready")
		} else {
			srv.log.Info("Server marked as not ready", "drainDuration", srv.cfg.DrainDuration)
			time.AfterFunc(srv.cfg.DrainDuration, func() {
				srv.log.Info("Drain period completed")
			})
		}
		writeStatus(w, http.StatusOK, changed)
	}
}

func (srv *Server) RunInBackground() {
	for _, l := range srv.listeners {
		go func() {
			srv.log.Info("Starting "+l.name+" server", "listenAddress", l.addr)
			if err := l.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				srv.log.Error(l.name+" server failed", "err", err)
			}
		}()
	}
}

// Shutdown stops every listener, giving each GracefulShutdownDuration to
// finish in-flight requests.
func (srv *Server) Shutdown() error {
	var errs []error
	for _, l := range srv.listeners {
		ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
		err := l.Shutdown(ctx)
		cancel()

		if err != nil {
			srv.log.Error("Graceful "+l.name+" server shutdown failed", "err", err)
			errs = append(errs, err)
			continue
		}
		srv.log.Info(l.name + " server gracefully stopped")
	}
	return errors.Join(errs...)
}
