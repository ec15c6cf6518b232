package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/porticoestate/location-hierarchy/internal/hierarchy"
)

// Store is what the analysis endpoints need from the database
type Store interface {
	hierarchy.Source
	hierarchy.TxRunner
}

// AnalysisHandler serves analysis and execution of corrective scripts
type AnalysisHandler struct {
	Store   Store
	Options hierarchy.Options
}

// ExecuteRequest selects what to analyze and which batches to run
type ExecuteRequest struct {
	Loc1    string   `json:"loc1"`
	Each    bool     `json:"each"`
	Batches []string `json:"batches"`
}

// ExecuteResponse reports the statements run and the verification re-run
type ExecuteResponse struct {
	RunTag       string               `json:"run_tag,omitempty"`
	Executed     map[string]int       `json:"executed"`
	Clean        bool                 `json:"clean"`
	Verification hierarchy.Statistics `json:"verification"`
	Remaining    []hierarchy.Issue    `json:"remaining_issues"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Category  string `json:"category,omitempty"`
	Index     *int   `json:"index,omitempty"`
	Statement string `json:"statement,omitempty"`
}

// ListLoc1 returns every property code
func (h *AnalysisHandler) ListLoc1(w http.ResponseWriter, r *http.Request) {
	loc1s, err := h.Store.ListLoc1(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if loc1s == nil {
		loc1s = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"loc1": loc1s})
}

// ListTables returns the tables carrying location columns
func (h *AnalysisHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.Store.ListTablesWithLocationColumns(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

// Analyze returns the corrective script without running it
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var each bool
	if raw := query.Get("each"); raw != "" {
		var err error
		if each, err = strconv.ParseBool(raw); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid each parameter %q", raw)})
			return
		}
	}

	result, err := h.analyze(r, strings.TrimSpace(query.Get("loc1")), each)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Execute analyzes, runs the chosen batches in one transaction and re-runs
// the analysis to confirm the result
func (h *AnalysisHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	batches := hierarchy.ParseBatchNames(strings.Join(req.Batches, ","))
	if len(batches) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "no batches selected"})
		return
	}

	result, err := h.analyze(r, req.Loc1, req.Each)
	if err != nil {
		writeError(w, err)
		return
	}

	counts, err := hierarchy.NewExecutor(h.Store, h.Options.Debug).Execute(r.Context(), result.SQL, batches)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("Executed %v for %s (run %s)", counts, scope(req.Loc1), result.RunTag)

	verify, err := h.analyze(r, req.Loc1, req.Each)
	if err != nil {
		writeError(w, err)
		return
	}
	remaining := verify.Issues
	if remaining == nil {
		remaining = []hierarchy.Issue{}
	}

	writeJSON(w, http.StatusOK, ExecuteResponse{
		RunTag:       result.RunTag,
		Executed:     counts,
		Clean:        verify.Clean(),
		Verification: verify.Statistics,
		Remaining:    remaining,
	})
}

func (h *AnalysisHandler) analyze(r *http.Request, loc1 string, each bool) (*hierarchy.Result, error) {
	analyzer := hierarchy.NewAnalyzer(h.Store, h.Options)
	if each && loc1 == "" {
		return analyzer.AnalyzeEach(r.Context())
	}
	return analyzer.Analyze(r.Context(), loc1)
}

func scope(loc1 string) string {
	if loc1 == "" {
		return "all properties"
	}
	return "loc1 " + loc1
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeError maps analyzer errors to status codes
func writeError(w http.ResponseWriter, err error) {
	var stmtErr *hierarchy.StatementExecutionError
	switch {
	case errors.Is(err, hierarchy.ErrUnknownBatch):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, hierarchy.ErrCodeSpaceExhausted):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.As(err, &stmtErr):
		index := stmtErr.Index
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:     err.Error(),
			Category:  stmtErr.Category,
			Index:     &index,
			Statement: stmtErr.Statement,
		})
	default:
		log.Printf("Request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
