package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/technova/supportbot/internal/log"
)

// Server timeout configuration.
const (
	// ReadHeaderTimeout limits header reads to prevent Slowloris-style
	// connection exhaustion.
	ReadHeaderTimeout = 10 * time.Second
	ReadTimeout       = 30 * time.Second

	// DefaultWriteTimeout applies when no LLM timeout is configured. The
	// answer path waits on two sequential completions (gate, then
	// synthesis), so the effective timeout is derived from the configured
	// LLM timeout; see writeTimeoutFor.
	DefaultWriteTimeout = 3 * time.Minute

	// writeTimeoutHeadroom covers the embed call, the vector search, and
	// response serialization on top of the two completions.
	writeTimeoutHeadroom = 30 * time.Second

	IdleTimeout     = 2 * time.Minute
	ShutdownTimeout = 30 * time.Second
)

// DefaultRateBurst is the per-IP token bucket size when none is configured.
const DefaultRateBurst = 60

// ServerConfig configures the API server.
type ServerConfig struct {
	Logger      log.Logger
	Asker       Asker         // Required
	Pool        *pgxpool.Pool // Optional: nil makes /ready report not ready
	CORSOrigins []string      // Allowed origins for CORS
	TrustProxy  bool          // Trust X-Real-IP/X-Forwarded-For headers
	RateBurst   int           // Rate limiter burst size per IP (0 = DefaultRateBurst)
	LLMTimeout  time.Duration // Per-call LLM timeout (0 = DefaultWriteTimeout for writes)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux          *http.ServeMux
	writeTimeout time.Duration
}

// writeTimeoutFor sizes the HTTP write timeout so a request that makes
// two back-to-back LLM calls can finish before the connection is cut.
func writeTimeoutFor(llmTimeout time.Duration) time.Duration {
	if llmTimeout <= 0 {
		return DefaultWriteTimeout
	}
	return 2*llmTimeout + writeTimeoutHeadroom
}

// NewServer creates an API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Asker == nil {
		return nil, errors.New("asker is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ah := &askHandler{asker: cfg.Asker, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", ah.handleAsk)

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = DefaultRateBurst
	}
	rl := newRateLimiter(1.0, burst)

	// Middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID runs before Logging so request_id is available in log
	// attributes. CORS runs before RateLimit so preflight OPTIONS gets
	// proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes live outside the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(logger))
	topMux.Handle("GET /ready", readiness(cfg.Pool, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux, writeTimeout: writeTimeoutFor(cfg.LLMTimeout)}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run starts the HTTP server on addr and blocks until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, logger log.Logger) error {
	if logger == nil {
		logger = log.NewNop()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server ready", "addr", addr, "endpoints", "/ask, /health, /ready")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
