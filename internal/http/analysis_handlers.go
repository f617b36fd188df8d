package httpapi

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/nikas17mc/digital-technician-dashboard/internal/imei"
	"github.com/nikas17mc/digital-technician-dashboard/internal/reporting"
)

// Technicians returns the per-technician overview for ?days= (default 7,
// "all" for everything).
func (h *Handlers) Technicians(w http.ResponseWriter, r *http.Request) {
	overview, err := h.engine.TechnicianOverview(r.URL.Query().Get("days"))
	if err != nil {
		h.writeError(w, "Technicians", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(overview))
}

// IdentifierDetails classifies the identifiers of one technician and status.
func (h *Handlers) IdentifierDetails(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.engine.IdentifierDetails(pathParam(r, "technician"), pathParam(r, "status"))))
}

type classifyResponse struct {
	Items      []imei.ClassifiedItem `json:"items"`
	Statistics imei.Stats            `json:"statistics"`
}

// Classify analyzes a batch of identifiers sent as a JSON array or as
// {"imeis": [...]}. Items may be strings or objects with an "imei" key.
func (h *Handlers) Classify(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to read body"))
		return
	}

	var items []any
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = decodeJSON(trimmed, &items)
	} else {
		var wrapped struct {
			IMEIs []any `json:"imeis"`
		}
		err = decodeJSON(trimmed, &wrapped)
		items = wrapped.IMEIs
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("body must be a JSON array of identifiers"))
		return
	}

	classified := imei.ClassifyMany(items)
	writeJSON(w, http.StatusOK, Ok(classifyResponse{
		Items:      classified,
		Statistics: imei.Summarize(imei.Classifications(classified)),
	}))
}

// rangeParam returns ?range=, falling back to the configured default range.
func (h *Handlers) rangeParam(r *http.Request) string {
	if v := strings.TrimSpace(r.URL.Query().Get("range")); v != "" {
		return v
	}
	if v := h.settings.Get().Analysis.DefaultDateRange; v != "" {
		return v
	}
	return reporting.DefaultOverviewDays
}

// AnalysisData returns the dashboard analysis for ?range=.
func (h *Handlers) AnalysisData(w http.ResponseWriter, r *http.Request) {
	a, err := h.engine.BuildAnalysis(r.Context(), h.rangeParam(r))
	if err != nil {
		h.writeError(w, "AnalysisData", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

// AnalysisReport downloads the report workbook for ?range=.
func (h *Handlers) AnalysisReport(w http.ResponseWriter, r *http.Request) {
	sheets, _, err := h.engine.BuildReportSheets(r.Context(), h.rangeParam(r))
	if err != nil {
		h.writeError(w, "AnalysisReport", err)
		return
	}
	h.sendWorkbook(w, "technician_report", sheets)
}

// ExportIdentifiers downloads the classified identifiers matching the
// optional ?technician= and ?status= filters.
func (h *Handlers) ExportIdentifiers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.sendWorkbook(w, "imei_analysis", h.engine.BuildIdentifierExport(q.Get("technician"), q.Get("status")))
}

// Mismatch reconciles ledger identifiers against the external system.
func (h *Handlers) Mismatch(w http.ResponseWriter, r *http.Request) {
	if !h.settings.Get().Analysis.EnableMismatchAnalysis {
		writeJSON(w, http.StatusServiceUnavailable, Fail("mismatch analysis is disabled"))
		return
	}
	report, err := h.engine.Mismatch(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, "Mismatch", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(report))
}

// ClearCache invalidates every cached analysis.
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ClearCache(r.Context()); err != nil {
		h.writeError(w, "ClearCache", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"cleared": true}))
}
