package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
	"github.com/nikas17mc/digital-technician-dashboard/internal/export"
	"github.com/nikas17mc/digital-technician-dashboard/internal/ledger"
	"github.com/nikas17mc/digital-technician-dashboard/internal/reporting"
)

// filterLimit caps the events returned by the filter endpoint.
const filterLimit = 50

// AddRequest is the body of POST /data/add. count may be a number or a
// numeric string; imei may be an array or newline separated text.
type AddRequest struct {
	Technician string          `json:"technician"`
	Date       string          `json:"date"`
	Status     string          `json:"status"`
	Count      json.RawMessage `json:"count"`
	IMEI       json.RawMessage `json:"imei"`
}

func (a AddRequest) count() int {
	raw := bytes.TrimSpace(a.Count)
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := strconv.Atoi(n.String()); err == nil {
			return i
		}
		return 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i
		}
	}
	return 0
}

// identifiers accepts an array of strings and numbers, newline separated
// text, or a single number. Any other shape is a validation error on imei.
func (a AddRequest) identifiers() ([]string, error) {
	raw := bytes.TrimSpace(a.IMEI)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var v any
	if err := decodeJSON(raw, &v); err != nil {
		return nil, identifierError("imei must be an array or newline separated text")
	}

	switch v := v.(type) {
	case string:
		return ledger.ParseIdentifierText(v), nil
	case json.Number:
		return []string{v.String()}, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			switch item := item.(type) {
			case nil:
			case string:
				if id := strings.TrimSpace(item); id != "" {
					out = append(out, id)
				}
			case json.Number:
				out = append(out, item.String())
			default:
				return nil, identifierError(fmt.Sprintf("imei[%d] must be a string or number", i))
			}
		}
		return out, nil
	default:
		return nil, identifierError("imei must be an array or newline separated text")
	}
}

func identifierError(message string) error {
	return &ledger.ValidationError{Errors: []ledger.FieldError{{Field: "imei", Message: message}}}
}

type addResponse struct {
	Entry *domain.RepairEvent `json:"entry"`
}

// AddEntry records one repair event.
func (h *Handlers) AddEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AddRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	ids, err := req.identifiers()
	if err != nil {
		h.writeError(w, "AddEntry", err)
		return
	}

	entry, err := h.ledger.Append(ctx, ledger.AppendRequest{
		Technician:  req.Technician,
		Date:        req.Date,
		EventType:   req.Status,
		DeviceCount: req.count(),
		Identifiers: ids,
	})
	if entry != nil {
		h.invalidate(ctx)
	}
	if err != nil {
		if errors.Is(err, ledger.ErrPersist) && entry != nil {
			writeJSON(w, http.StatusOK, Warn("entry recorded but not saved", addResponse{Entry: entry}))
			return
		}
		h.writeError(w, "AddEntry", err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(addResponse{Entry: entry}))
}

// ClearData drops every event.
func (h *Handlers) ClearData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.ledger.Clear(ctx)
	h.invalidate(ctx)
	if err != nil {
		h.writeError(w, "ClearData", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"cleared": true}))
}

type filterStatistics struct {
	ledger.Statistics
	FilteredEntries     int `json:"filteredEntries"`
	FilteredDevices     int `json:"filteredDevices"`
	FilteredIdentifiers int `json:"filteredIdentifiers"`
}

type filterResponse struct {
	Data       []domain.RepairEvent `json:"data"`
	Summary    ledger.Summary       `json:"summary"`
	Statistics filterStatistics     `json:"statistics"`
}

// FilterData returns the latest events of an optional date window together
// with its summary and ledger statistics.
func (h *Handlers) FilterData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := reporting.ParseDateWindow(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		h.writeError(w, "FilterData", err)
		return
	}

	events := h.ledger.Filter(from, to)
	st := filterStatistics{
		Statistics:      h.ledger.Statistics(),
		FilteredEntries: len(events),
	}
	for _, e := range events {
		st.FilteredDevices += e.DeviceCount
		st.FilteredIdentifiers += e.RecordedCount()
	}

	writeJSON(w, http.StatusOK, Ok(filterResponse{
		Data:       ledger.Tail(events, filterLimit),
		Summary:    ledger.Summarize(events, h.ledger.Known()),
		Statistics: st,
	}))
}

// Summary returns the technician x status totals of an optional date window.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := reporting.ParseDateWindow(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		h.writeError(w, "Summary", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.ledger.Summarize(from, to)))
}

// Statistics returns ledger-wide totals.
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.ledger.Statistics()))
}

// ImportData replaces the ledger with a JSON array, sent either as the body
// or as the multipart file field "jsonFile".
func (h *Handlers) ImportData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := h.importPayload(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}

	var records []ledger.ImportRecord
	if err := json.Unmarshal(body, &records); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("import file must be a JSON array of entries"))
		return
	}

	res, err := h.ledger.Import(ctx, records)
	h.invalidate(ctx)
	if err != nil {
		if errors.Is(err, ledger.ErrPersist) {
			writeJSON(w, http.StatusOK, Warn("data imported but not saved", res))
			return
		}
		h.writeError(w, "ImportData", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *Handlers) importPayload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		body, err := readBody(r)
		if err != nil {
			return nil, errors.New("failed to read body")
		}
		return body, nil
	}

	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		return nil, errors.New("invalid multipart form")
	}
	f, _, err := r.FormFile("jsonFile")
	if err != nil {
		return nil, errors.New("no file uploaded")
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return nil, errors.New("failed to read uploaded file")
	}
	return buf.Bytes(), nil
}

// ExportData downloads the raw data workbook of an optional date window.
func (h *Handlers) ExportData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := reporting.ParseDateWindow(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		h.writeError(w, "ExportData", err)
		return
	}
	h.sendWorkbook(w, "workshop_data", h.engine.BuildDataExportSheets(from, to))
}

// BackupData writes a ledger snapshot into the configured backup directory.
func (h *Handlers) BackupData(w http.ResponseWriter, r *http.Request) {
	path, err := h.ledger.Backup(r.Context(), h.settings.Get().Paths.BackupPath)
	if err != nil {
		h.writeError(w, "BackupData", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"path": path}))
}

// sendWorkbook encodes sheets and streams them as an attachment. Every
// export carries an X-Export-ID for correlating downloads with logs.
func (h *Handlers) sendWorkbook(w http.ResponseWriter, prefix string, sheets []export.Sheet) {
	exportID := uuid.NewString()
	b, err := export.Encode(sheets)
	if err != nil {
		h.logger.Error("Workbook encoding failed", zap.String("export_id", exportID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate export"))
		return
	}

	filename := export.Filename(prefix, h.engine.Now())
	h.logger.Info("Workbook exported",
		zap.String("export_id", exportID),
		zap.String("filename", filename),
		zap.Int("bytes", len(b)),
	)
	w.Header().Set("X-Export-ID", exportID)
	writeXLSX(w, filename, b)
}
