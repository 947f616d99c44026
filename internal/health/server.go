// Package health serves the probes of the watch command: liveness, readiness and metrics.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/metrics"
)

const (
	statusOK       = "ok"
	statusNotReady = "not_ready"
	checkTimeout   = 3 * time.Second
)

// Pinger is a dependency probed by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the configuration for the health server.
type Config struct {
	ServiceName string
	Version     string
	Port        string
	// MetricsPath serves the Prometheus registry. Empty disables it.
	MetricsPath string
	Logger      *logrus.Logger
	// Checks are pinged by /ready, keyed by the name reported.
	Checks map[string]Pinger
	// NextRun reports the next scheduled prediction, zero when none.
	NextRun func() time.Time
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version,omitempty"`
	NextRun   string `json:"next_run,omitempty"`
}

// ReadyResponse is the body of /ready.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks"`
	Duration string            `json:"duration"`
}

// Server answers liveness and readiness probes.
type Server struct {
	cfg   Config
	names []string
	log   *logrus.Entry
	ready atomic.Bool
	srv   *http.Server
}

// NewServer creates a server. It is not ready until SetReady(true).
func NewServer(cfg Config) *Server {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	base := cfg.Logger
	if base == nil {
		base = logger.Discard()
	}

	names := make([]string, 0, len(cfg.Checks))
	for name := range cfg.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Server{
		cfg:   cfg,
		names: names,
		log:   base.WithFields(logrus.Fields{"component": "health", "port": cfg.Port}),
	}
}

// SetReady marks whether the service accepts traffic.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady returns whether the service was marked ready.
func (s *Server) IsReady() bool {
	return s.ready.Load()
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	if s.cfg.MetricsPath != "" {
		mux.Handle(s.cfg.MetricsPath, metrics.Handler())
	}
	return mux
}

// Start listens in the background until ctx is done or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		s.log.Info("Health server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Health server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		_ = s.Shutdown()
	}()
	return nil
}

// Shutdown stops accepting connections and waits up to five seconds for open ones.
func (s *Server) Shutdown() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:    statusOK,
		Service:   s.cfg.ServiceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.cfg.Version,
	}
	if s.cfg.NextRun != nil {
		if next := s.cfg.NextRun(); !next.IsZero() {
			resp.NextRun = next.UTC().Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleReady pings every check, even after one fails, so the body lists them all.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp := ReadyResponse{
		Status:  statusOK,
		Service: s.cfg.ServiceName,
		Checks:  map[string]string{"service": statusOK},
	}
	if !s.IsReady() {
		resp.Status = statusNotReady
		resp.Checks["service"] = statusNotReady
	}

	for _, name := range s.names {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := s.cfg.Checks[name].Ping(ctx)
		cancel()

		resp.Checks[name] = statusOK
		if err != nil {
			resp.Status = statusNotReady
			resp.Checks[name] = "error: " + err.Error()
		}
	}
	resp.Duration = time.Since(start).String()

	code := http.StatusOK
	if resp.Status != statusOK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
