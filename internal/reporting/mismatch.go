package reporting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
	"github.com/nikas17mc/digital-technician-dashboard/internal/imei"
)

var ErrReconcilerUnavailable = errors.New("reconciliation system not configured")

// Mismatch types and issues.
const (
	MismatchMissing = "missing_in_external"
	MismatchPartial = "partial_mismatch"

	IssueNotFound   = "not_found"
	IssueStatus     = "status"
	IssueTechnician = "technician"
)

type LedgerSide struct {
	Technician string `json:"technic"`
	Status     string `json:"event"`
	Date       string `json:"date"`
}

type MismatchEntry struct {
	Identifier string                 `json:"imei"`
	Type       string                 `json:"type"`
	Issues     []string               `json:"issues"`
	Ledger     LedgerSide             `json:"jsonData"`
	External   *domain.ExternalRecord `json:"externalData,omitempty"`
}

type MismatchStatistics struct {
	Entries         int     `json:"jsonEntries"`
	Identifiers     int     `json:"totalIMEIs"`
	PerfectMatches  int     `json:"perfectMatches"`
	Mismatches      int     `json:"mismatches"`
	MatchPercentage float64 `json:"matchPercentage"`
}

type MismatchSummary struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type MismatchReport struct {
	TargetDate string             `json:"targetDate"`
	Summary    MismatchSummary    `json:"summary"`
	Statistics MismatchStatistics `json:"statistics"`
	Mismatches []MismatchEntry    `json:"mismatches"`
}

// Mismatch cross-references recorded identifiers, optionally only those of
// one display date, against the external reconciliation system.
func (e *Engine) Mismatch(ctx context.Context, date string) (*MismatchReport, error) {
	if e.reconciler == nil {
		return nil, ErrReconcilerUnavailable
	}

	date = strings.TrimSpace(date)
	if date != "" {
		d, ok := domain.ParseDisplayDate(date)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
		date = domain.FormatDisplayDate(d)
	}

	var items []imei.Item
	entries := 0
	for _, ev := range e.source.Events() {
		if date != "" && ev.DisplayDate != date {
			continue
		}
		entries++
		items = append(items, identifierItems([]domain.RepairEvent{ev}, "", "")...)
	}

	seen := map[string]struct{}{}
	lookup := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.Identifier]; ok {
			continue
		}
		seen[it.Identifier] = struct{}{}
		lookup = append(lookup, it.Identifier)
	}

	external := map[string]domain.ExternalRecord{}
	if len(lookup) > 0 {
		var err error
		external, err = e.reconciler.Lookup(ctx, lookup)
		if err != nil {
			e.logger.Error("Reconciliation lookup failed", zap.Int("identifiers", len(lookup)), zap.Error(err))
			return nil, fmt.Errorf("reconciliation lookup: %w", err)
		}
	}

	report := &MismatchReport{
		TargetDate: date,
		Mismatches: []MismatchEntry{},
	}
	if report.TargetDate == "" {
		report.TargetDate = "all"
	}
	for _, it := range items {
		side := LedgerSide{Technician: it.Technician, Status: it.Status, Date: it.Date}
		ext, ok := external[it.Identifier]
		if !ok {
			report.Mismatches = append(report.Mismatches, MismatchEntry{
				Identifier: it.Identifier,
				Type:       MismatchMissing,
				Issues:     []string{IssueNotFound},
				Ledger:     side,
			})
			continue
		}
		var issues []string
		if ext.Status != it.Status {
			issues = append(issues, IssueStatus)
		}
		if ext.Technician != it.Technician {
			issues = append(issues, IssueTechnician)
		}
		if len(issues) == 0 {
			report.Statistics.PerfectMatches++
			continue
		}
		extCopy := ext
		report.Mismatches = append(report.Mismatches, MismatchEntry{
			Identifier: it.Identifier,
			Type:       MismatchPartial,
			Issues:     issues,
			Ledger:     side,
			External:   &extCopy,
		})
	}

	st := &report.Statistics
	st.Entries = entries
	st.Identifiers = len(items)
	st.Mismatches = len(report.Mismatches)
	if st.Identifiers > 0 {
		st.MatchPercentage = math.Round(float64(st.PerfectMatches)/float64(st.Identifiers)*1000) / 10
	}

	report.Summary = MismatchSummary{
		Status:  "ok",
		Message: fmt.Sprintf("%d of %d identifiers matched (%.1f%%)", st.PerfectMatches, st.Identifiers, st.MatchPercentage),
	}
	if st.Mismatches > 0 {
		report.Summary.Status = "mismatches_found"
	}
	return report, nil
}
