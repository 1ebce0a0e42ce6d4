// Package server exposes the response policy to the UI layer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/querybot-ai/querybot/pkg/auth"
	"github.com/querybot-ai/querybot/pkg/budget"
	"github.com/querybot-ai/querybot/pkg/config"
	"github.com/querybot-ai/querybot/pkg/llm"
	"github.com/querybot-ai/querybot/pkg/policy"
)

// Server is the querybot HTTP front door.
type Server struct {
	cfg    *config.Config
	policy *policy.Policy
	auth   auth.Authenticator
	mux    *http.ServeMux
}

// New creates a Server wired with all dependencies.
func New(cfg *config.Config, p *policy.Policy, a auth.Authenticator) *Server {
	s := &Server{
		cfg:    cfg,
		policy: p,
		auth:   a,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/v1/ask", s.withUser(s.handleAsk))
	s.mux.HandleFunc("/v1/history", s.withUser(s.handleHistory))
	s.mux.HandleFunc("/v1/clear", s.withUser(s.handleClear))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("querybot listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

// withUser authenticates the request and passes the verified username down.
// The username is the per-request user identity; no session state is kept.
func (s *Server) withUser(next func(w http.ResponseWriter, r *http.Request, user string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || !s.auth.Verify(username, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="querybot"`)
			writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		next(w, r, username)
	}
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request, user string) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.policy.Ask(r.Context(), user, req.Question)
	if err != nil {
		s.writePolicyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, user string) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records, err := s.policy.History(r.Context(), user)
	if err != nil {
		s.writePolicyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request, user string) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := s.policy.ClearUser(r.Context(), user); err != nil {
		s.writePolicyError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writePolicyError maps the failure taxonomy onto status codes. Nothing is
// ever degraded to an empty answer.
func (s *Server) writePolicyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, policy.ErrEmptyQuestion):
		writeJSONError(w, http.StatusBadRequest, "question is empty")
	case errors.Is(err, budget.ErrBudgetExceeded):
		writeJSONError(w, http.StatusTooManyRequests, "daily token budget exceeded")
	case errors.Is(err, llm.ErrUpstream):
		writeJSONError(w, http.StatusBadGateway, "upstream model error")
	default:
		log.Printf("backend error: %v", err)
		writeJSONError(w, http.StatusServiceUnavailable, "backend unavailable")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"code":%d}}`, message, code)
}
