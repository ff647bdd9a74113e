package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kingrea/cyan-fleet-control/internal/fleetsync/scheduler"
	"github.com/kingrea/cyan-fleet-control/internal/logbook"
	"github.com/kingrea/cyan-fleet-control/internal/state"
)

// ServerStatus reports runtime lifecycle states for the HTTP server.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

// ErrDisabled is returned by Start when the settings disable the server.
var ErrDisabled = errors.New("statusapi: server disabled")

// SnapshotSource provides the store contents served on /snapshot.
// *state.Store satisfies it.
type SnapshotSource interface {
	Snapshot() state.Snapshot
}

// QueueSource exposes the refresh rotation. *scheduler.Queue satisfies it.
type QueueSource interface {
	Order() []scheduler.Kind
}

// JournalSource returns the most recent journal entries and the journal
// size. *logbook.Logbook satisfies it.
type JournalSource interface {
	Tail(limit int) ([]logbook.Entry, int)
}

const (
	defaultJournalLimit = 100
	maxJournalLimit     = 1000
)

// Server serves read-only status endpoints next to the TUI.
type Server struct {
	settings Settings
	source   SnapshotSource
	queue    QueueSource
	journal  JournalSource
	metrics  http.Handler
	logger   *zap.Logger
	clock    func() time.Time

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    ServerStatus
	startTime time.Time
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger overrides the default no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithQueue reports the refresh rotation on /health.
func WithQueue(q QueueSource) Option {
	return func(s *Server) {
		s.queue = q
	}
}

// WithJournal serves the persisted activity journal on /journal.
func WithJournal(j JournalSource) Option {
	return func(s *Server) {
		s.journal = j
	}
}

// NewServer prepares a status server reading from source.
func NewServer(settings Settings, source SnapshotSource, opts ...Option) *Server {
	s := &Server{
		settings: settings,
		source:   source,
		logger:   zap.NewNop(),
		clock:    func() time.Time { return time.Now().UTC() },
		status:   StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler builds the router. It is exposed for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Head("/health", s.handleHealth)
	r.Get("/snapshot", s.handleSnapshot)
	if s.journal != nil {
		r.Get("/journal", s.handleJournal)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("statusapi: server is nil")
	}
	if !s.settings.Enabled {
		return ErrDisabled
	}
	if s.source == nil {
		return fmt.Errorf("statusapi: snapshot source is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("statusapi: server already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("statusapi: listen %s: %w", addr, err)
	}
	s.listener = listener
	s.startTime = s.clock()
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	s.status = StatusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server stopped", zap.Error(err))
		}
	}()
	s.logger.Info("status server listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	s.status = StatusDraining
	deadline := ctx
	if deadline == nil {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(deadline); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL (scheme + host:port) for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr
}

// Status reports the server's lifecycle state.
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(s.clock().Sub(s.startTime).Seconds())
}

type healthResponse struct {
	Status        string   `json:"status"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	StoreVersion  uint64   `json:"store_version"`
	Ships         int      `json:"ships"`
	Waypoints     int      `json:"waypoints"`
	Contracts     int      `json:"contracts"`
	Shipyards     int      `json:"shipyard_listings"`
	Queue         []string `json:"queue,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.source.Snapshot()
	resp := healthResponse{
		Status:        string(s.Status()),
		UptimeSeconds: s.uptimeSeconds(),
		StoreVersion:  snap.Version,
		Ships:         len(snap.Ships),
		Waypoints:     len(snap.Waypoints),
		Contracts:     len(snap.Contracts),
		Shipyards:     len(snap.Shipyards),
	}
	if s.queue != nil {
		for _, kind := range s.queue.Order() {
			resp.Queue = append(resp.Queue, kind.String())
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.source.Snapshot())
}

type journalResponse struct {
	Total   int             `json:"total"`
	Entries []logbook.Entry `json:"entries"`
}

// handleJournal serves the tail of the journal. ?limit=N picks how many
// entries, capped at maxJournalLimit.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxJournalLimit)
	}
	entries, total := s.journal.Tail(limit)
	if entries == nil {
		entries = []logbook.Entry{}
	}
	writeJSON(w, http.StatusOK, journalResponse{Total: total, Entries: entries})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
