// Package api exposes the HTTP surface: the public submission endpoint, the
// identity and admin token endpoints, the dashboard, and the report builder.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tlc-community/cu1-survey/internal/metrics"
	"github.com/tlc-community/cu1-survey/internal/middleware"
	"github.com/tlc-community/cu1-survey/internal/services"
)

// Router holds the wired services and registers all HTTP handlers.
type Router struct {
	pipeline *services.IngestionPipeline
	stats    *services.AggregationService
	reports  *services.ReportService
	exports  *services.ExportService
	auth     *services.AuthService

	trustProxy bool
	maxBody    int64
}

func NewRouter(pipeline *services.IngestionPipeline, stats *services.AggregationService, reports *services.ReportService, exports *services.ExportService, auth *services.AuthService, trustProxy bool, maxBody int64) *Router {
	return &Router{
		pipeline:   pipeline,
		stats:      stats,
		reports:    reports,
		exports:    exports,
		auth:       auth,
		trustProxy: trustProxy,
		maxBody:    maxBody,
	}
}

// Register mounts every route on the mux. submitGuard, when non-nil, wraps
// only the submission endpoint; it is the slot for the per-IP request
// throttle so read-only routes stay unthrottled. The report generator and
// CSV export are admin-gated; everything else is public or degrades
// gracefully without a token.
func (rt *Router) Register(mux *http.ServeMux, submitGuard func(http.Handler) http.Handler) {
	var submit http.Handler = http.HandlerFunc(rt.handleSubmit)
	if submitGuard != nil {
		submit = submitGuard(submit)
	}
	mux.Handle("POST /submit", submit)
	mux.HandleFunc("POST /api/auth/claim", rt.handleClaim)
	mux.HandleFunc("POST /api/auth/admin", rt.handleAdminLogin)
	mux.HandleFunc("GET /api/dashboard/stats", rt.handleOverallStats)
	mux.HandleFunc("GET /api/dashboard/user", rt.handleUserDashboard)
	mux.HandleFunc("GET /api/reports/fields", rt.handleReportFields)
	mux.Handle("GET /api/reports/generate", middleware.RequireAdmin(http.HandlerFunc(rt.handleGenerateReport)))
	mux.Handle("GET /api/export.csv", middleware.RequireAdmin(http.HandlerFunc(rt.handleExportCSV)))
}

func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxBody)

	var sub services.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		metrics.SubmissionsRejected.WithLabelValues("malformed").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	clientID := middleware.GetRealIP(r, rt.trustProxy)
	result, err := rt.pipeline.Ingest(r.Context(), &sub, clientID)
	if err != nil {
		log.Error().Err(err).Msg("submit: persistence failed")
		metrics.StorageErrors.Inc()
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to store response"})
		return
	}

	switch {
	case result.Accepted:
		metrics.SubmissionsAccepted.Inc()
		metrics.SanitizationIssues.Add(float64(len(result.SanitizationIssues)))
		writeJSON(w, http.StatusCreated, map[string]any{
			"ok":     true,
			"id":     result.Record.ID,
			"issues": result.SanitizationIssues,
		})
	case result.RejectReason == services.RejectRateLimited:
		metrics.SubmissionsRejected.WithLabelValues("rate_limited").Inc()
		retryAfter := int(time.Until(result.ResetAt).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":   "rate limit exceeded",
			"resetAt": result.ResetAt.UnixMilli(),
		})
	default:
		metrics.SubmissionsRejected.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "validation failed",
			"details": result.ValidationErrors,
		})
	}
}

func (rt *Router) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	token, err := rt.auth.ClaimIdentity(req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}

func (rt *Router) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	token, err := rt.auth.AdminLogin(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}

func (rt *Router) handleOverallStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.stats.Overall(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleUserDashboard resolves the respondent from the query parameter or,
// absent that, the bearer token. Either way the name is self-asserted.
func (rt *Router) handleUserDashboard(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name, _ = middleware.NameFromContext(r.Context())
	}
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "name required"})
		return
	}
	dash, err := rt.stats.ForUser(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (rt *Router) handleReportFields(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, services.ReportableFields())
}

func (rt *Router) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	field1, field2 := q.Get("field1"), q.Get("field2")
	if field1 == "" || field2 == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "field1 and field2 are required"})
		return
	}
	report, err := rt.reports.Generate(r.Context(), field1, field2)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.ReportsGenerated.Inc()
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := rt.exports.ResponsesCSV(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="survey_responses.csv"`)
	_, _ = w.Write(data)
}
