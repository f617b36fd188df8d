package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
)

// ImportRecord is one event of an imported JSON array. It accepts both the
// persisted field names and the newer aliases.
type ImportRecord struct {
	RecordedAt  string
	Technician  string
	EventType   string
	DeviceCount int
	Identifiers []string
}

type importRecordJSON struct {
	DateTime   string          `json:"date_time"`
	Technic    string          `json:"technic"`
	Technician string          `json:"technician"`
	Event      string          `json:"event"`
	Status     string          `json:"status"`
	TotalCount json.Number     `json:"total_count"`
	Count      json.Number     `json:"count"`
	IMEI       json.RawMessage `json:"imei"`
}

func (r *ImportRecord) UnmarshalJSON(b []byte) error {
	var raw importRecordJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.RecordedAt = raw.DateTime
	r.Technician = firstNonEmpty(raw.Technic, raw.Technician)
	r.EventType = firstNonEmpty(raw.Event, raw.Status)
	r.DeviceCount = firstPositive(raw.TotalCount, raw.Count)
	r.Identifiers = parseIdentifierField(raw.IMEI)
	return nil
}

// ImportResult reports how many records were taken over.
type ImportResult struct {
	Imported int `json:"count"`
	Skipped  int `json:"skipped"`
}

// Import replaces the whole ledger with records. Ids are reassigned by
// position; records without a positive device count are skipped. A persist
// failure keeps the imported events and returns an error wrapping ErrPersist.
func (l *Ledger) Import(ctx context.Context, records []ImportRecord) (ImportResult, error) {
	var res ImportResult

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	events := make([]domain.RepairEvent, 0, len(records))
	for _, rec := range records {
		if rec.DeviceCount <= 0 {
			res.Skipped++
			continue
		}
		recordedAt := strings.TrimSpace(rec.RecordedAt)
		if recordedAt == "" {
			recordedAt = domain.FormatRecordedAt(now)
		}
		ids := make([]string, 0, len(rec.Identifiers))
		for _, id := range rec.Identifiers {
			ids = append(ids, strings.TrimSpace(id))
		}
		events = append(events, domain.RepairEvent{
			ID:          len(events) + 1,
			RecordedAt:  recordedAt,
			Technician:  strings.TrimSpace(rec.Technician),
			EventType:   strings.TrimSpace(rec.EventType),
			DeviceCount: rec.DeviceCount,
			Identifiers: domain.NormalizeIdentifiers(ids, rec.DeviceCount),
			DisplayDate: domain.DisplayDateFromRecorded(recordedAt, now),
		})
	}
	res.Imported = len(events)

	l.events = events
	l.nextID = len(events) + 1

	l.logger.Info("Ledger imported",
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
	)
	return res, l.persist(ctx, "import")
}

// ParseIdentifierText splits newline- or comma-separated identifier input,
// dropping blank entries.
func ParseIdentifierText(s string) []string {
	sep := "\n"
	if !strings.Contains(s, "\n") && strings.Contains(s, ",") {
		sep = ","
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIdentifierField(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var list []any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&list); err == nil {
		out := make([]string, 0, len(list))
		for _, v := range list {
			switch x := v.(type) {
			case string:
				out = append(out, x)
			case json.Number:
				out = append(out, x.String())
			default:
				out = append(out, "")
			}
		}
		return out
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return ParseIdentifierText(text)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstPositive(vals ...json.Number) int {
	for _, v := range vals {
		if v == "" {
			continue
		}
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				continue
			}
			n = int64(f)
		}
		if n > 0 {
			return int(n)
		}
	}
	return 0
}
