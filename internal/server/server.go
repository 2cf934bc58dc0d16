package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/go-phonemizer/internal/backend"
	"github.com/example/go-phonemizer/internal/config"
	"github.com/example/go-phonemizer/internal/phonemize"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Phonemizer turns lines of text into lines of phonemes.
type Phonemizer interface {
	Phonemize(ctx context.Context, lines []string) ([]string, error)
}

// Overrides captures the per-request deviations from the configured
// defaults. Zero-valued fields mean "keep the default".
type Overrides struct {
	Backend             string
	Language            string
	Strip               *bool
	PreservePunctuation *bool
}

func (o Overrides) empty() bool {
	return o.Backend == "" && o.Language == "" && o.Strip == nil && o.PreservePunctuation == nil
}

// ServiceFactory builds a Phonemizer honouring per-request overrides.
type ServiceFactory func(o Overrides) (Phonemizer, error)

// BackendProber reports the engines available on this host.
type BackendProber func(ctx context.Context) []backend.Info

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	requestTimeout time.Duration
	logger         *slog.Logger
	factory        ServiceFactory
	probe          BackendProber
}

func defaultOptions() options {
	return options{
		maxTextBytes:   1 << 20,
		workers:        4,
		requestTimeout: 60 * time.Second,
		logger:         slog.Default(),
		probe:          backend.ProbeAll,
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes for POST /phonemize.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of concurrent phonemize calls.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request phonemization deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithServiceFactory enables per-request backend and language overrides.
func WithServiceFactory(f ServiceFactory) Option {
	return func(o *options) { o.factory = f }
}

// WithBackendProber overrides how /backends inspects the host.
func WithBackendProber(p BackendProber) Option {
	return func(o *options) { o.probe = p }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	svc  Phonemizer
	opts options
	sem  chan struct{} // semaphore for worker pool
	log  *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, /backends, and
// POST /phonemize.
func NewHandler(svc Phonemizer, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		svc:  svc,
		opts: opts,
		log:  opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/backends", h.handleBackends)
	mux.HandleFunc("/phonemize", h.handlePhonemize)
	return requestID(mux, opts.logger)
}

// requestID tags each request with a unique id, exposed in the response
// headers and the request log line.
func requestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r)

		log.Info("request handled",
			slog.String("request_id", id),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

func (h *handler) handleBackends(w http.ResponseWriter, r *http.Request) {
	infos := h.opts.probe(r.Context())
	if infos == nil {
		infos = []backend.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}

type phonemizeRequest struct {
	Text                string `json:"text"`
	Language            string `json:"language,omitempty"`
	Backend             string `json:"backend,omitempty"`
	Strip               *bool  `json:"strip,omitempty"`
	PreservePunctuation *bool  `json:"preserve_punctuation,omitempty"`
}

type phonemizeResponse struct {
	Phonemized []string `json:"phonemized"`
}

func (h *handler) handlePhonemize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return
	}

	var req phonemizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text field is required")
		return
	}

	if len(req.Text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return
	}

	svc, err := h.resolveService(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Acquire a worker slot, honouring cancellation while waiting.
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
			// slot acquired
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
			return
		}
		defer func() { <-h.sem }()
	}

	// Apply per-request timeout.
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	lines := strings.Split(strings.TrimRight(req.Text, "\n"), "\n")

	start := time.Now()
	phonemized, err := svc.Phonemize(ctx, lines)
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			h.log.WarnContext(r.Context(), "phonemization timed out",
				slog.Int("lines", len(lines)),
				slog.Int64("duration_ms", durationMS),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusGatewayTimeout, "phonemization timed out")
			return
		}
		h.log.ErrorContext(r.Context(), "phonemization failed",
			slog.Int("lines", len(lines)),
			slog.Int64("duration_ms", durationMS),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.InfoContext(r.Context(), "phonemization complete",
		slog.Int("lines", len(lines)),
		slog.Int("out_lines", len(phonemized)),
		slog.Int64("duration_ms", durationMS),
	)

	if phonemized == nil {
		phonemized = []string{}
	}
	writeJSON(w, http.StatusOK, phonemizeResponse{Phonemized: phonemized})
}

// resolveService returns the default service unless the request overrides
// part of the configuration.
func (h *handler) resolveService(req phonemizeRequest) (Phonemizer, error) {
	o := Overrides{
		Backend:             req.Backend,
		Language:            req.Language,
		Strip:               req.Strip,
		PreservePunctuation: req.PreservePunctuation,
	}
	if o.empty() {
		return h.svc, nil
	}
	if h.opts.factory == nil {
		return nil, fmt.Errorf("per-request overrides are not enabled")
	}
	return h.opts.factory(o)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	svc             *phonemize.Service
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

func New(cfg config.Config, svc *phonemize.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Server{
		cfg:             cfg,
		svc:             svc,
		logger:          logger,
		shutdownTimeout: timeout,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

func (s *Server) Start(ctx context.Context) error {
	svc := s.svc
	if svc == nil {
		var err error
		svc, err = phonemize.FromConfig(s.cfg, s.logger)
		if err != nil {
			return fmt.Errorf("initialize phonemize service: %w", err)
		}
	}

	h := NewHandler(svc,
		WithWorkers(s.cfg.Server.Workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithLogger(s.logger),
		WithServiceFactory(s.overrideFactory()),
	)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

// overrideFactory rebuilds a service from the configured defaults with the
// requested overrides swapped in.
func (s *Server) overrideFactory() ServiceFactory {
	return func(o Overrides) (Phonemizer, error) {
		next := s.cfg
		if o.Backend != "" {
			next.Phonemize.Backend = o.Backend
		}
		if o.Language != "" {
			next.Phonemize.Language = o.Language
		}
		if o.Strip != nil {
			next.Phonemize.Strip = *o.Strip
		}
		if o.PreservePunctuation != nil {
			next.Phonemize.PreservePunctuation = *o.PreservePunctuation
		}
		return phonemize.FromConfig(next, s.logger)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
