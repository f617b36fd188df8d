package domain

import (
	"strings"
	"time"
)

// Boundary date formats.
const (
	// RecordedAtLayout is DD-MM-YYYY_HHmmss, the persisted creation timestamp.
	RecordedAtLayout = "02-01-2006_150405"
	// DisplayDateLayout is DD.MM.YYYY, used for event dates and filters.
	DisplayDateLayout = "02.01.2006"
)

// RepairEvent is one logged unit of work.
type RepairEvent struct {
	ID          int      `json:"id"`
	RecordedAt  string   `json:"recordedAt"`
	Technician  string   `json:"technician"`
	EventType   string   `json:"eventType"`
	DeviceCount int      `json:"deviceCount"`
	Identifiers []string `json:"identifiers"`

	// DisplayDate is derived, never persisted.
	DisplayDate string `json:"displayDate"`
}

// RecordedIdentifiers returns the non-empty identifier slots in order.
func (e *RepairEvent) RecordedIdentifiers() []string {
	out := make([]string, 0, len(e.Identifiers))
	for _, id := range e.Identifiers {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// RecordedCount counts non-empty identifier slots.
func (e *RepairEvent) RecordedCount() int {
	n := 0
	for _, id := range e.Identifiers {
		if id != "" {
			n++
		}
	}
	return n
}

// Day parses DisplayDate. ok is false when the date is malformed.
func (e *RepairEvent) Day() (time.Time, bool) {
	return ParseDisplayDate(e.DisplayDate)
}

// Clone returns a deep copy.
func (e RepairEvent) Clone() RepairEvent {
	ids := make([]string, len(e.Identifiers))
	copy(ids, e.Identifiers)
	e.Identifiers = ids
	return e
}

// NormalizeIdentifiers returns a slice of exactly count entries: ids is
// truncated when longer and right-padded with "" when shorter.
func NormalizeIdentifiers(ids []string, count int) []string {
	if count < 0 {
		count = 0
	}
	out := make([]string, count)
	copy(out, ids)
	return out
}

// ParseDisplayDate parses a DD.MM.YYYY string in local time.
func ParseDisplayDate(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(DisplayDateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDisplayDate formats t as DD.MM.YYYY.
func FormatDisplayDate(t time.Time) string {
	return t.Format(DisplayDateLayout)
}

// FormatRecordedAt formats t as DD-MM-YYYY_HHmmss.
func FormatRecordedAt(t time.Time) string {
	return t.Format(RecordedAtLayout)
}

// DisplayDateFromRecorded extracts the calendar date from a RecordedAt
// timestamp, falling back to the date of now when it cannot be parsed.
func DisplayDateFromRecorded(recordedAt string, now time.Time) string {
	t, err := time.ParseInLocation(RecordedAtLayout, strings.TrimSpace(recordedAt), time.Local)
	if err != nil {
		return FormatDisplayDate(now)
	}
	return FormatDisplayDate(t)
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DateKey maps t to YYYYMMDD so calendar dates compare as integers
// regardless of location.
func DateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
