package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/querybot-ai/querybot/pkg/auth"
	"github.com/querybot-ai/querybot/pkg/cache"
	"github.com/querybot-ai/querybot/pkg/config"
	"github.com/querybot-ai/querybot/pkg/history"
	"github.com/querybot-ai/querybot/pkg/kv/memory"
	"github.com/querybot-ai/querybot/pkg/llm"
	"github.com/querybot-ai/querybot/pkg/models"
	"github.com/querybot-ai/querybot/pkg/policy"
)

type fakeClient struct {
	calls int
	fail  bool
}

func (f *fakeClient) Provider() string { return "fake" }

func (f *fakeClient) Generate(ctx context.Context, prompt string) (*models.Completion, error) {
	f.calls++
	if f.fail {
		return nil, fmt.Errorf("fake: %w: boom", llm.ErrUpstream)
	}
	text := "full answer"
	if strings.HasPrefix(prompt, "Condense") {
		text = "short summary"
	}
	return &models.Completion{Text: text, Model: "fake-model"}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeClient) {
	t.Helper()
	cfg := config.Default()
	cfg.Users = []config.UserConfig{{Name: "alice", Password: "wonderland"}}

	store := memory.New()
	c := cache.New(store, cfg.Namespace, cache.KindSummary, cfg.Cache.AnswerTTL, cfg.Cache.SeenTTL)
	h := history.New(store, cfg.History.TTL, cfg.History.Limit)
	client := &fakeClient{}
	p := policy.New(cfg.Mode, c, h, client, nil, nil)

	return New(cfg, p, auth.NewStatic(cfg.Users)), client
}

func doRequest(t *testing.T, s *Server, method, path, body string, withAuth bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if withAuth {
		req.SetBasicAuth("alice", "wonderland")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestAskRequiresAuth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/v1/ask", `{"question":"hi"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate header")
	}
}

func TestAskMissThenHit(t *testing.T) {
	s, client := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/v1/ask", `{"question":"What is 2+2?"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var reply policy.Reply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatal(err)
	}
	if reply.Mode != policy.ModeMiss || reply.Text != "full answer" {
		t.Errorf("first ask = %+v", reply)
	}

	rec = doRequest(t, s, http.MethodPost, "/v1/ask", `{"question":"what is 2+2?  "}`, true)
	_ = json.Unmarshal(rec.Body.Bytes(), &reply)
	if reply.Mode != policy.ModeHit || reply.Text != "short summary" {
		t.Errorf("second ask = %+v", reply)
	}
	if client.calls != 2 {
		t.Errorf("model calls = %d, want 2", client.calls)
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/v1/ask", `{"question":"   "}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAskUpstreamFailure(t *testing.T) {
	s, client := newTestServer(t)
	client.fail = true

	rec := doRequest(t, s, http.MethodPost, "/v1/ask", `{"question":"What is 2+2?"}`, true)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/v1/ask", `{"question":"What is 2+2?"}`, true)

	rec := doRequest(t, s, http.MethodGet, "/v1/history", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Records []models.HistoryRecord `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Records) != 1 || resp.Records[0].Question != "What is 2+2?" {
		t.Errorf("unexpected history: %+v", resp.Records)
	}
}

func TestClearEndpoint(t *testing.T) {
	s, client := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/v1/ask", `{"question":"What is 2+2?"}`, true)

	rec := doRequest(t, s, http.MethodPost, "/v1/clear", "", true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/v1/history", "", true)
	var resp struct {
		Records []models.HistoryRecord `json:"records"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Records) != 0 {
		t.Errorf("history not empty after clear: %+v", resp.Records)
	}

	// Next identical ask is a fresh miss.
	doRequest(t, s, http.MethodPost, "/v1/ask", `{"question":"What is 2+2?"}`, true)
	if client.calls != 4 {
		t.Errorf("model calls = %d, want 4", client.calls)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/v1/ask", "", true)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /v1/ask status = %d, want 405", rec.Code)
	}
	rec = doRequest(t, s, http.MethodPost, "/v1/history", "", true)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /v1/history status = %d, want 405", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestGracefulShutdown(t *testing.T) {
	s, _ := newTestServer(t)
	s.cfg.Listen = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("shutdown returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
