package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/go-phonemizer/internal/backend"
	"github.com/example/go-phonemizer/internal/server"
)

// stubPhonemizer implements server.Phonemizer for tests. It uppercases each
// line, or fails with err when set.
type stubPhonemizer struct {
	err error
}

func (s *stubPhonemizer) Phonemize(_ context.Context, lines []string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.ToUpper(line)
	}
	return out, nil
}

func newTestHandler(svc server.Phonemizer, opts ...server.Option) http.Handler {
	return server.NewHandler(svc, opts...)
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	return rec
}

// ---------------------------------------------------------------------------
// GET /health
// ---------------------------------------------------------------------------

func TestHealth_Returns200WithStatusOK(t *testing.T) {
	h := newTestHandler(&stubPhonemizer{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var body map[string]string
	err := json.NewDecoder(rec.Body).Decode(&body)
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("want status=ok, got %q", body["status"])
	}

	if _, ok := body["version"]; !ok {
		t.Error("want version field in response")
	}
}

func TestHealth_SetsRequestID(t *testing.T) {
	h := newTestHandler(&stubPhonemizer{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("want X-Request-ID header on every response")
	}
}

// ---------------------------------------------------------------------------
// GET /backends
// ---------------------------------------------------------------------------

func TestBackends_ReturnsJSONArray(t *testing.T) {
	infos := []backend.Info{
		{Name: "espeak", Available: true, Version: "1.51"},
		{Name: "segments", Available: true, Version: "1.0"},
	}
	h := newTestHandler(&stubPhonemizer{},
		server.WithBackendProber(func(_ context.Context) []backend.Info { return infos }),
	)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/backends", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var got []backend.Info
	err := json.NewDecoder(rec.Body).Decode(&got)
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("want 2 backends, got %d", len(got))
	}

	if got[0].Name != "espeak" || got[1].Name != "segments" {
		t.Errorf("unexpected backend names: %v", got)
	}
}

func TestBackends_ReturnsEmptyArrayWhenNoneProbed(t *testing.T) {
	h := newTestHandler(&stubPhonemizer{},
		server.WithBackendProber(func(_ context.Context) []backend.Info { return nil }),
	)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/backends", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("want empty array, got %q", body)
	}
}

// ---------------------------------------------------------------------------
// POST /phonemize
// ---------------------------------------------------------------------------

func TestPhonemize_ReturnsMissingBodyAs400(t *testing.T) {
	h := newTestHandler(&stubPhonemizer{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/phonemize", nil)
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}

	var body map[string]string
	err := json.NewDecoder(rec.Body).Decode(&body)
	if err != nil {
		t.Fatalf("decode error body: %v", err)
	}

	if body["error"] == "" {
		t.Error("want non-empty error field")
	}
}

func TestPhonemize_ReturnsEmptyTextAs400(t *testing.T) {
	h := newTestHandler(&stubPhonemizer{})

	rec := postJSON(h, "/phonemize", `{"text":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

func TestPhonemize_GetMethodNotAllowed(t *testing.T) {
	h := newTestHandler(&stubPhonemizer{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/phonemize", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("want 405, got %d", rec.Code)
	}
}

func TestPhonemize_ReturnsLinesOnSuccess(t *testing.T) {
	h := newTestHandler(&stubPhonemizer{})

	rec := postJSON(h, "/phonemize", `{"text":"hello world\nbye"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("want Content-Type application/json, got %q", ct)
	}

	var body struct {
		Phonemized []string `json:"phonemized"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	want := []string{"HELLO WORLD", "BYE"}
	if len(body.Phonemized) != 2 || body.Phonemized[0] != want[0] || body.Phonemized[1] != want[1] {
		t.Errorf("phonemized = %q; want %q", body.Phonemized, want)
	}
}

func TestPhonemize_TrailingNewlineDoesNotAddALine(t *testing.T) {
	h := newTestHandler(&stubPhonemizer{})

	rec := postJSON(h, "/phonemize", `{"text":"hello\n"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var body struct {
		Phonemized []string `json:"phonemized"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if len(body.Phonemized) != 1 {
		t.Errorf("phonemized = %q; want one line", body.Phonemized)
	}
}

func TestPhonemize_ServiceErrorReturns500(t *testing.T) {
	h := newTestHandler(&stubPhonemizer{err: errPhonemizeFailed})

	rec := postJSON(h, "/phonemize", `{"text":"hello"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}

	var errBody map[string]string
	err := json.NewDecoder(rec.Body).Decode(&errBody)
	if err != nil {
		t.Fatalf("decode error body: %v", err)
	}

	if errBody["error"] == "" {
		t.Error("want non-empty error field")
	}
}

// ---------------------------------------------------------------------------
// per-request overrides
// ---------------------------------------------------------------------------

func TestPhonemize_OverridesRejectedWithoutFactory(t *testing.T) {
	h := newTestHandler(&stubPhonemizer{})

	rec := postJSON(h, "/phonemize", `{"text":"hello","backend":"segments"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

func TestPhonemize_OverridesRoutedThroughFactory(t *testing.T) {
	var got server.Overrides
	factory := func(o server.Overrides) (server.Phonemizer, error) {
		got = o
		return &stubPhonemizer{}, nil
	}

	h := newTestHandler(&stubPhonemizer{err: errPhonemizeFailed},
		server.WithServiceFactory(factory),
	)

	rec := postJSON(h, "/phonemize", `{"text":"hello","backend":"segments","language":"toy","strip":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	if got.Backend != "segments" || got.Language != "toy" {
		t.Errorf("overrides = %+v", got)
	}

	if got.Strip == nil || !*got.Strip {
		t.Error("strip override not forwarded")
	}

	if got.PreservePunctuation != nil {
		t.Error("absent preserve_punctuation should stay nil")
	}
}

func TestPhonemize_FactoryErrorReturns400(t *testing.T) {
	factory := func(_ server.Overrides) (server.Phonemizer, error) {
		return nil, errPhonemizeFailed
	}

	h := newTestHandler(&stubPhonemizer{}, server.WithServiceFactory(factory))

	rec := postJSON(h, "/phonemize", `{"text":"hello","backend":"flite"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

var errPhonemizeFailed = &phonemizeError{"phonemization failed"}

type phonemizeError struct{ msg string }

func (e *phonemizeError) Error() string { return e.msg }
