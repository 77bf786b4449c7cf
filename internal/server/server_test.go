package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gemini-relay/internal/gemini"
	"gemini-relay/internal/relay"
	"gemini-relay/internal/shared"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// fakeVendor stands in for the generation API. Status and body are chosen
// per model; every hit is recorded.
type fakeVendor struct {
	mu      sync.Mutex
	replies map[string]struct {
		status int
		body   string
	}
	hits []string
}

func (f *fakeVendor) reply(model string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replies == nil {
		f.replies = map[string]struct {
			status int
			body   string
		}{}
	}
	f.replies[model] = struct {
		status int
		body   string
	}{status, body}
}

func (f *fakeVendor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	model := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/models/"), ":generateContent")
	f.mu.Lock()
	f.hits = append(f.hits, model)
	rep, ok := f.replies[model]
	f.mu.Unlock()
	if !ok {
		rep.status, rep.body = http.StatusNotFound, fmt.Sprintf(`{"error":"%s not found"}`, model)
	}
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

func (f *fakeVendor) hitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.hits)
}

func newTestApp(t *testing.T, key string) (*echo.Echo, *fakeVendor) {
	t.Helper()
	vendor := &fakeVendor{}
	srv := httptest.NewServer(vendor)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.GeminiBaseURL = srv.URL
	cfg.UpstreamTimeout = 2 * time.Second
	cfg.MetricsAPIKey = "metrics-secret"

	log := zap.NewNop().Sugar()
	client := gemini.NewClient(gemini.Config{
		BaseURL:         cfg.GeminiBaseURL,
		Timeout:         cfg.UpstreamTimeout,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}, log)
	e := NewWithUpstream(cfg, client, relay.StaticKey{KeyName: shared.DefaultCredentialName, Value: key}, log)
	return e, vendor
}

type panicGenerator struct{}

func (panicGenerator) GenerateContent(context.Context, gemini.Request) (*gemini.Result, error) {
	panic("decoder exploded")
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body shared.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not an error body: %q", rec.Body.String())
	}
	return body.Error
}

func TestAskOptionsPreflight(t *testing.T) {
	e, vendor := newTestApp(t, "k")
	for _, withOrigin := range []bool{false, true} {
		req := httptest.NewRequest(http.MethodOptions, "/api/ask", nil)
		if withOrigin {
			req.Header.Set(echo.HeaderOrigin, "https://example.com")
			req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("origin=%v status = %d", withOrigin, rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Fatalf("origin=%v expected empty body, got %q", withOrigin, rec.Body.String())
		}
	}
	if vendor.hitCount() != 0 {
		t.Fatal("preflight must not reach upstream")
	}
}

func TestAskMethodNotAllowed(t *testing.T) {
	e, vendor := newTestApp(t, "k")
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		rec := do(e, method, "/api/ask", "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s status = %d", method, rec.Code)
		}
		if msg := decodeError(t, rec); msg != "Method Not Allowed" {
			t.Fatalf("%s message = %q", method, msg)
		}
	}
	if vendor.hitCount() != 0 {
		t.Fatal("rejected methods must not reach upstream")
	}
}

func TestAskInvalidPayload(t *testing.T) {
	e, _ := newTestApp(t, "k")
	for _, body := range []string{"", "garbage", `{"parts":[]}`, `{"parts":"x"}`, `{"model":"m"}`} {
		rec := do(e, http.MethodPost, "/api/ask", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q status = %d", body, rec.Code)
		}
		if decodeError(t, rec) == "" {
			t.Fatalf("body %q missing error", body)
		}
	}
}

func TestAskMissingCredential(t *testing.T) {
	e, vendor := newTestApp(t, "")
	rec := do(e, http.MethodPost, "/api/ask", `{"parts":[{"text":"hi"}]}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "Server missing GEMINI_API_KEY" {
		t.Fatalf("message = %q", msg)
	}
	if vendor.hitCount() != 0 {
		t.Fatalf("expected no upstream calls, got %d", vendor.hitCount())
	}
}

func TestAskFallbackEndToEnd(t *testing.T) {
	e, vendor := newTestApp(t, "k")
	vendor.reply(shared.DefaultModel, http.StatusNotFound, `{"error":"gone"}`)
	vendor.reply(shared.FallbackModel, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"a"},{"text":"b"}]}}]}`)

	rec := do(e, http.MethodPost, "/v1/ask", `{"parts":[{"text":"hi"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var got shared.AskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if got.Text != "a\nb" || got.ModelUsed != shared.FallbackModel {
		t.Fatalf("unexpected response %+v", got)
	}
	if vendor.hitCount() != 2 || vendor.hits[0] != shared.DefaultModel || vendor.hits[1] != shared.FallbackModel {
		t.Fatalf("unexpected upstream calls %v", vendor.hits)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatal("missing request id header")
	}
}

func TestAskHardFailurePassthrough(t *testing.T) {
	e, vendor := newTestApp(t, "k")
	vendor.reply(shared.DefaultModel, http.StatusServiceUnavailable, "try later")

	rec := do(e, http.MethodPost, "/api/ask", `{"parts":[{"text":"hi"}]}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "Upstream 503: try later" {
		t.Fatalf("message = %q", msg)
	}
	if vendor.hitCount() != 1 {
		t.Fatalf("expected a single upstream call, got %d", vendor.hitCount())
	}
}

func TestAskExhausted(t *testing.T) {
	e, vendor := newTestApp(t, "k")
	vendor.reply("mine", http.StatusBadRequest, "bad 1")
	vendor.reply(shared.DefaultModel, http.StatusBadRequest, "bad 2")
	vendor.reply(shared.FallbackModel, http.StatusBadRequest, "bad 3")

	rec := do(e, http.MethodPost, "/api/ask", `{"model":"mine","parts":[{"text":"hi"}]}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "bad 3" {
		t.Fatalf("message = %q", msg)
	}
}

func TestAskIdempotent(t *testing.T) {
	e, vendor := newTestApp(t, "k")
	vendor.reply("m", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"same"}]}}]}`)

	body := `{"model":"m","parts":[{"text":"hi"}]}`
	first := do(e, http.MethodPost, "/api/ask", body)
	second := do(e, http.MethodPost, "/api/ask", body)
	if first.Code != second.Code || first.Body.String() != second.Body.String() {
		t.Fatalf("responses differ: %d %q vs %d %q", first.Code, first.Body.String(), second.Code, second.Body.String())
	}
	if first.Body.String() != `{"text":"same","modelUsed":"m"}`+"\n" {
		t.Fatalf("unexpected body %q", first.Body.String())
	}
}

func TestPing(t *testing.T) {
	e, _ := newTestApp(t, "k")
	rec := do(e, http.MethodGet, "/ping", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMetricsRequiresKey(t *testing.T) {
	e, _ := newTestApp(t, "k")
	do(e, http.MethodPost, "/api/ask", `{}`)
	if rec := do(e, http.MethodGet, "/metrics", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without key = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer metrics-secret")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status with key = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "gemini_relay_") {
		t.Fatal("expected relay metrics in output")
	}
}

func TestUnknownRouteIsJSON(t *testing.T) {
	e, _ := newTestApp(t, "k")
	rec := do(e, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if decodeError(t, rec) == "" {
		t.Fatal("expected an error message")
	}
}

func TestAskPanicRecovered(t *testing.T) {
	log := zap.NewNop().Sugar()
	e := NewWithUpstream(DefaultConfig(), panicGenerator{}, relay.StaticKey{KeyName: "K", Value: "v"}, log)

	rec := do(e, http.MethodPost, "/api/ask", `{"parts":[{"text":"hi"}]}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := decodeError(t, rec); !strings.Contains(msg, "decoder exploded") {
		t.Fatalf("message = %q", msg)
	}
}
