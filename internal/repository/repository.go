package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
)

// ErrNotFound is returned by Load when nothing has been persisted yet.
var ErrNotFound = errors.New("ledger snapshot not found")

// LedgerRepository persists the whole ledger as a single snapshot.
// Implementations replace the snapshot on every Save.
type LedgerRepository interface {
	Load(ctx context.Context) ([]domain.RepairEvent, error)
	Save(ctx context.Context, events []domain.RepairEvent) error
	Remove(ctx context.Context) error
}

// Record is the on-disk shape of one event. Field names match the files
// written by earlier dashboard versions.
type Record struct {
	ID         int      `json:"id"`
	DateTime   string   `json:"date_time"`
	Technic    string   `json:"technic"`
	Event      string   `json:"event"`
	TotalCount Count    `json:"total_count"`
	IMEI       []string `json:"imei"`
}

// Count is a device count that also decodes from a quoted number, as older
// imports stored it verbatim. Unparseable values decode as 0 instead of
// failing the whole snapshot.
type Count int

func (c *Count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	if len(b) == 0 || string(b) == "null" {
		*c = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		*c = 0
		return nil
	}
	*c = Count(f)
	return nil
}

// ToRecords drops derived fields.
func ToRecords(events []domain.RepairEvent) []Record {
	out := make([]Record, 0, len(events))
	for _, e := range events {
		ids := e.Identifiers
		if ids == nil {
			ids = []string{}
		}
		out = append(out, Record{
			ID:         e.ID,
			DateTime:   e.RecordedAt,
			Technic:    e.Technician,
			Event:      e.EventType,
			TotalCount: Count(e.DeviceCount),
			IMEI:       ids,
		})
	}
	return out
}

// FromRecords converts persisted records back to events. DisplayDate is left
// empty; the ledger derives it on load.
func FromRecords(records []Record) []domain.RepairEvent {
	out := make([]domain.RepairEvent, 0, len(records))
	for _, r := range records {
		out = append(out, domain.RepairEvent{
			ID:          r.ID,
			RecordedAt:  r.DateTime,
			Technician:  r.Technic,
			EventType:   r.Event,
			DeviceCount: int(r.TotalCount),
			Identifiers: r.IMEI,
		})
	}
	return out
}

// EncodeSnapshot renders events as a pretty-printed JSON array of records.
func EncodeSnapshot(events []domain.RepairEvent) ([]byte, error) {
	b, err := json.MarshalIndent(ToRecords(events), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// DecodeSnapshot parses a JSON array of records.
func DecodeSnapshot(b []byte) ([]domain.RepairEvent, error) {
	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return FromRecords(records), nil
}
