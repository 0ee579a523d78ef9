package transport

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/HendryAvila/scout/internal/config"
	"github.com/HendryAvila/scout/internal/server"
)

// HTTPBinding serves the HTTP-exposed surface:
//
//	GET  /health            liveness probe, never authenticated
//	POST /mcp               one stateless protocol exchange per request
//	GET  /sse               opens a streaming session
//	POST /messages?sessionId=  routes to the matching open session
//
// Each /mcp request gets a fresh protocol-server instance from the
// factory and tears it down with the connection; the only state that
// crosses requests is the process-wide result cache inside the
// factory's dependencies.
type HTTPBinding struct {
	factory  server.Factory
	registry *SessionRegistry
	apiKey   string
	mode     config.Mode
	port     int
	logger   *slog.Logger
}

// NewHTTPBinding creates the binding. An empty API key in cfg disables
// authentication entirely (explicit development-mode bypass).
func NewHTTPBinding(cfg config.Settings, factory server.Factory, logger *slog.Logger) *HTTPBinding {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPBinding{
		factory:  factory,
		registry: NewSessionRegistry(),
		apiKey:   cfg.APIKey,
		mode:     cfg.Mode,
		port:     cfg.Port,
		logger:   logger,
	}
}

// Registry exposes the session registry (used by tests and metrics).
func (b *HTTPBinding) Registry() *SessionRegistry { return b.registry }

// Handler builds the HTTP mux.
func (b *HTTPBinding) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", b.handleHealth)
	mux.HandleFunc("/mcp", b.requireAuth(b.handleMCP))
	mux.HandleFunc("/sse", b.requireAuth(b.handleSSE))
	mux.HandleFunc("/messages", b.requireAuth(b.handleMessages))
	return mux
}

// Serve listens until ctx is canceled, then shuts down gracefully.
// A failure to bind the port is the one startup error allowed to
// terminate the process; the caller decides.
func (b *HTTPBinding) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", b.port),
		Handler:           b.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		b.logger.Info("http transport listening", "addr", srv.Addr, "auth", b.apiKey != "")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// requireAuth gates a handler behind the configured API key. The key is
// accepted as "Authorization: Bearer <key>" or "X-API-Key: <key>" and
// compared in constant time. No configured key means every request is
// accepted.
func (b *HTTPBinding) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if b.apiKey == "" {
			next(w, r)
			return
		}

		presented := r.Header.Get("X-API-Key")
		if auth := r.Header.Get("Authorization"); auth != "" {
			if bearer, ok := strings.CutPrefix(auth, "Bearer "); ok {
				presented = bearer
			}
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(b.apiKey)) != 1 {
			b.logger.Warn("unauthorized request", "path", r.URL.Path, "remote", r.RemoteAddr)
			writeRPCError(w, http.StatusUnauthorized, codeUnauthorized, "Unauthorized: invalid or missing API key")
			return
		}
		next(w, r)
	}
}

// handleHealth reports liveness. Deliberately unauthenticated so
// monitoring can probe without credentials.
func (b *HTTPBinding) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"mode":    string(b.mode),
		"version": server.Version,
	})
}

// handleMCP performs exactly one stateless request/response exchange on
// a fresh protocol-server instance. The instance is garbage once the
// response is written; no session state crosses requests.
func (b *HTTPBinding) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeRPCError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "Method not allowed: use POST")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeRPCError(w, http.StatusBadRequest, codeParseError, "failed to read request body")
		return
	}

	srv := b.factory()
	response := srv.HandleMessage(r.Context(), body)
	if response == nil {
		// Notification: nothing to send back.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		b.logger.Error("writing /mcp response failed", "error", err)
	}
}
