// Package analyze serves the CSV-to-forecast endpoint and the health check.
package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"scenario_forecast/pkg/core/ingest"
	"scenario_forecast/pkg/core/narrative"
	"scenario_forecast/pkg/core/projection"
	"scenario_forecast/pkg/core/scenario"

	"github.com/google/uuid"
)

const (
	maxUploadBytes     = 32 << 20
	defaultScenarioRaw = `{"months_ahead":12}`
	narrativeTimeout   = 3 * time.Minute
)

// Narrator is the part of narrative.Service the handler needs.
type Narrator interface {
	Narrate(ctx context.Context, req narrative.Request) (*narrative.Narrative, error)
}

// StatusReporter reports which providers are configured.
type StatusReporter interface {
	Status() map[string]bool
}

// Response is the body of a successful (or invalid-scenario) analysis.
type Response struct {
	RequestID   string                       `json:"request_id,omitempty"`
	Forecast    []projection.ProjectedRecord `json:"forecast"`
	Summary     string                       `json:"summary"`
	SummaryHTML string                       `json:"summary_html,omitempty"`
	KeyMetrics  interface{}                  `json:"key_metrics"`
}

// ErrorResponse is the body of a 4xx/5xx reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse reports liveness and provider configuration.
type HealthResponse struct {
	OK        bool            `json:"ok"`
	Providers map[string]bool `json:"providers"`
}

// Handler holds dependencies for the analyze endpoints
type Handler struct {
	Narrator Narrator
	Status   StatusReporter
}

// NewHandler creates a new analyze handler
func NewHandler(narrator Narrator, status StatusReporter) *Handler {
	return &Handler{Narrator: narrator, Status: status}
}

func setCORS(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "*")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		fmt.Printf("[ANALYZE] failed to encode response: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// HandleHealth reports which narrative providers have credentials.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "GET, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	providers := map[string]bool{}
	if h.Status != nil {
		providers = h.Status.Status()
	}
	writeJSON(w, http.StatusOK, HealthResponse{OK: true, Providers: providers})
}

// HandleAnalyze accepts a multipart upload (file, scenario_json, provider,
// model, max_gen_tokens), projects the actuals forward and narrates the result.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "POST, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	requestID := uuid.New().String()
	w.Header().Set("X-Request-ID", requestID)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid form: %v", err))
		return
	}

	scenarioRaw := r.FormValue("scenario_json")
	if _, present := r.MultipartForm.Value["scenario_json"]; !present {
		scenarioRaw = defaultScenarioRaw
	}
	sc, err := scenario.Parse(scenarioRaw)
	if err != nil {
		fmt.Printf("[ANALYZE] %s invalid scenario: %v\n", requestID, err)
		writeJSON(w, http.StatusOK, Response{
			RequestID:  requestID,
			Forecast:   []projection.ProjectedRecord{},
			Summary:    fmt.Sprintf("Invalid scenario: %v", err),
			KeyMetrics: map[string]float64{},
		})
		return
	}

	maxTokens := narrative.DefaultMaxTokens
	if raw := r.FormValue("max_gen_tokens"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid max_gen_tokens: %q", raw))
			return
		}
		maxTokens = n
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Could not read CSV: %v", err))
		return
	}
	defer file.Close()

	history, err := ingest.ParseCSV(file)
	if err != nil {
		var mce *ingest.MissingColumnsError
		if errors.As(err, &mce) {
			writeError(w, http.StatusBadRequest, mce.Error())
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Could not read CSV: %v", err))
		return
	}

	sorted := projection.SortHistory(history)
	forecast, err := projection.Project(sorted, sc.MonthsAhead, sc.Assumptions)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, row := range forecast {
		if !row.Finite() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Could not project: month %s has non-numeric values; check the latest CSV row", row.Month))
			return
		}
	}
	metrics := projection.Summarize(forecast)

	provider := r.FormValue("provider")
	fmt.Printf("[ANALYZE] %s rows=%d months=%d provider=%q\n", requestID, len(sorted), sc.MonthsAhead, provider)

	ctx, cancel := context.WithTimeout(r.Context(), narrativeTimeout)
	defer cancel()

	n, err := h.Narrator.Narrate(ctx, narrative.Request{
		History:    sorted,
		Projection: forecast,
		Scenario:   sc,
		Provider:   provider,
		Model:      r.FormValue("model"),
		MaxTokens:  maxTokens,
	})
	if err != nil {
		fmt.Printf("[ANALYZE] %s narrative failed: %v\n", requestID, err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("LLM error: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, Response{
		RequestID:   requestID,
		Forecast:    forecast,
		Summary:     n.Markdown,
		SummaryHTML: n.HTML,
		KeyMetrics:  metrics,
	})
}
