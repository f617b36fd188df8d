// Package reporting turns ledger snapshots into dashboards, comparison
// tables, spreadsheets and reconciliation reports.
package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
	"github.com/nikas17mc/digital-technician-dashboard/internal/imei"
	"github.com/nikas17mc/digital-technician-dashboard/internal/ledger"
)

// EventSource is the read side of the ledger.
type EventSource interface {
	Events() []domain.RepairEvent
	Known() domain.KnownSets
	Statistics() ledger.Statistics
}

// Reconciler looks identifiers up in the external system. Identifiers the
// system does not know are absent from the result.
type Reconciler interface {
	Lookup(ctx context.Context, identifiers []string) (map[string]domain.ExternalRecord, error)
}

type Engine struct {
	source     EventSource
	cache      *AnalysisCache
	reconciler Reconciler
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithReconciler enables the mismatch report.
func WithReconciler(r Reconciler) Option {
	return func(e *Engine) { e.reconciler = r }
}

// New creates an engine. cache may be nil to disable caching.
func New(source EventSource, cache *AnalysisCache, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock.
func (e *Engine) Now() time.Time { return e.now() }

// ClearCache invalidates every cached analysis.
func (e *Engine) ClearCache(ctx context.Context) error {
	if e.cache == nil {
		return nil
	}
	return e.cache.Clear(ctx)
}

// guard runs one view computation. A panic degrades the view to fallback
// instead of failing the whole response.
func guard[T any](e *Engine, view string, fallback T, fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Report view failed",
				zap.String("view", view),
				zap.String("panic", fmt.Sprint(r)),
			)
			out = fallback
		}
	}()
	return fn()
}

// identifierItems flattens the recorded identifiers of events that match
// technician and status. Empty filters match everything.
func identifierItems(events []domain.RepairEvent, technician, status string) []imei.Item {
	var items []imei.Item
	for _, ev := range events {
		if technician != "" && ev.Technician != technician {
			continue
		}
		if status != "" && ev.EventType != status {
			continue
		}
		for _, id := range ev.RecordedIdentifiers() {
			items = append(items, imei.Item{
				Identifier: id,
				Technician: ev.Technician,
				Status:     ev.EventType,
				Date:       ev.DisplayDate,
			})
		}
	}
	return items
}

func percentLabel(part, total int) string {
	return fmt.Sprintf("%d%%", imei.Percent(part, total))
}
