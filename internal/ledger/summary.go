package ledger

import (
	"time"

	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
)

// Summary maps technician -> status -> device count.
type Summary map[string]map[string]int

// Summarize totals device counts per known technician and status, optionally
// restricted to an inclusive date window.
func (l *Ledger) Summarize(from, to *time.Time) Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Summarize(FilterEvents(l.events, from, to), l.known)
}

// Summarize buckets events over the known sets. Every known technician and
// status is present, zero-filled. Events outside the known sets are skipped.
func Summarize(events []domain.RepairEvent, known domain.KnownSets) Summary {
	s := make(Summary, len(known.Technicians))
	for _, tech := range known.Technicians {
		row := make(map[string]int, len(known.StatusTypes))
		for _, status := range known.StatusTypes {
			row[status] = 0
		}
		s[tech] = row
	}
	for _, e := range events {
		row, ok := s[e.Technician]
		if !ok {
			continue
		}
		if _, ok := row[e.EventType]; ok {
			row[e.EventType] += e.DeviceCount
		}
	}
	return s
}

// Total returns the device count of one technician over all statuses.
func (s Summary) Total(technician string) int {
	n := 0
	for _, v := range s[technician] {
		n += v
	}
	return n
}

// Statistics are ledger-wide totals.
type Statistics struct {
	TotalEntries     int            `json:"totalEntries"`
	TotalDevices     int            `json:"totalDevices"`
	TotalIdentifiers int            `json:"totalIdentifiers"`
	TodaySummary     map[string]int `json:"todaySummary"`
	TechnicianCount  int            `json:"technicianCount"`
}

// Statistics computes totals over every event. TodaySummary counts devices of
// today's events per known status.
func (l *Ledger) Statistics() Statistics {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return ComputeStatistics(l.events, l.known, l.now())
}

func ComputeStatistics(events []domain.RepairEvent, known domain.KnownSets, now time.Time) Statistics {
	st := Statistics{
		TotalEntries:    len(events),
		TodaySummary:    make(map[string]int, len(known.StatusTypes)),
		TechnicianCount: len(known.Technicians),
	}
	for _, status := range known.StatusTypes {
		st.TodaySummary[status] = 0
	}

	today := domain.FormatDisplayDate(now)
	for _, e := range events {
		st.TotalDevices += e.DeviceCount
		st.TotalIdentifiers += e.RecordedCount()
		if e.DisplayDate != today {
			continue
		}
		if _, ok := st.TodaySummary[e.EventType]; ok {
			st.TodaySummary[e.EventType] += e.DeviceCount
		}
	}
	return st
}
