package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tlc-community/cu1-survey/internal/middleware"
	"github.com/tlc-community/cu1-survey/internal/services"
)

// memStore backs all three store interfaces for handler tests.
type memStore struct {
	counters  map[string][]byte
	responses []*services.Response
}

func newMemStore() *memStore { return &memStore{counters: map[string][]byte{}} }

func (m *memStore) GetCounter(_ context.Context, key string) ([]byte, error) {
	return m.counters[key], nil
}

func (m *memStore) PutCounter(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.counters[key] = value
	return nil
}

func (m *memStore) AddResponse(_ context.Context, r *services.Response) error {
	m.responses = append(m.responses, r)
	return nil
}

func (m *memStore) ListResponses(context.Context) ([]*services.Response, error) {
	return m.responses, nil
}

func newTestHandler(t *testing.T, submitLimit int) (http.Handler, *memStore) {
	t.Helper()
	store := newMemStore()
	filter := services.NewContentFilter()
	limiter := services.NewRateLimiter(store, submitLimit, time.Hour, true)
	pipeline := services.NewIngestionPipeline(limiter, services.NewValidator(), services.NewSanitizer(filter), store)
	stats := services.NewAggregationService(store)
	reports := services.NewReportService(store)
	exports := services.NewExportService(store)

	signer := middleware.NewSigner("router-test-secret")
	auth := services.NewAuthService("", signer.Sign, filter)

	mux := http.NewServeMux()
	NewRouter(pipeline, stats, reports, exports, auth, false, 64*1024).Register(mux, nil)
	return signer.WithAuth(mux), store
}

func TestHandleSubmitAccepted(t *testing.T) {
	handler, store := newTestHandler(t, 10)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/submit", strings.NewReader(`{"age": 30, "cpu": "Ryzen"}`))
	req.RemoteAddr = "1.2.3.4:5678"
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var body struct {
		OK bool   `json:"ok"`
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.OK || body.ID == "" {
		t.Fatalf("body = %+v", body)
	}
	if len(store.responses) != 1 {
		t.Fatalf("stored %d rows", len(store.responses))
	}
}

func TestHandleSubmitMalformedBody(t *testing.T) {
	handler, store := newTestHandler(t, 10)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/submit", strings.NewReader(`{not json`))
	req.RemoteAddr = "1.2.3.4:5678"
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(store.responses) != 0 {
		t.Fatalf("malformed body stored a row")
	}
}

func TestHandleSubmitValidationFailure(t *testing.T) {
	handler, _ := newTestHandler(t, 10)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/submit", strings.NewReader(`{"age": 200}`))
	req.RemoteAddr = "1.2.3.4:5678"
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Details []string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Details) == 0 {
		t.Fatalf("no validation details in body %s", rec.Body)
	}
}

func TestHandleSubmitRateLimited(t *testing.T) {
	handler, store := newTestHandler(t, 1)

	submit := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submit", strings.NewReader(`{}`))
		req.RemoteAddr = "1.2.3.4:5678"
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := submit(); rec.Code != http.StatusCreated {
		t.Fatalf("first submit status = %d", rec.Code)
	}
	rec := submit()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second submit status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("429 without Retry-After header")
	}
	var body struct {
		ResetAt int64 `json:"resetAt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ResetAt == 0 {
		t.Fatalf("429 body missing resetAt: %s", rec.Body)
	}
	if len(store.responses) != 1 {
		t.Fatalf("limited submission stored")
	}
}

func TestHandleReportFields(t *testing.T) {
	handler, _ := newTestHandler(t, 10)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/reports/fields", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var fields map[string][]services.FieldOption
	if err := json.Unmarshal(rec.Body.Bytes(), &fields); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fields["hardware"]) == 0 {
		t.Fatalf("fields = %v", fields)
	}
}

func TestHandleGenerateReportRequiresAdmin(t *testing.T) {
	handler, _ := newTestHandler(t, 10)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/reports/generate?field1=cpu&field2=gpu", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandleGenerateReportUnknownField(t *testing.T) {
	handler, _ := newTestHandler(t, 10)
	signer := middleware.NewSigner("router-test-secret")
	tok, err := signer.Sign("admin", true, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/reports/generate?field1=cpu&field2=bogus", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleUserDashboardNameRequired(t *testing.T) {
	handler, _ := newTestHandler(t, 10)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/dashboard/user", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleOverallStatsEmpty(t *testing.T) {
	handler, _ := newTestHandler(t, 10)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/dashboard/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats services.AggregateStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalResponses != 0 || stats.AvgFpsPre != nil {
		t.Fatalf("stats = %+v", stats)
	}
}
