// Package ledger is the in-memory, snapshot-persisted log of repair events.
//
// A Ledger is constructed once per process and injected wherever events are
// read or written. Every mutation holds the write lock until the snapshot has
// been handed to the repository, so concurrent writers never interleave.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
	"github.com/nikas17mc/digital-technician-dashboard/internal/metrics"
	"github.com/nikas17mc/digital-technician-dashboard/internal/repository"
)

// EventPublisher is notified after every successful append.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event domain.RepairEvent) error
}

type Ledger struct {
	mu     sync.RWMutex
	events []domain.RepairEvent
	nextID int
	known  domain.KnownSets

	repo      repository.LedgerRepository
	logger    *zap.Logger
	now       func() time.Time
	publisher EventPublisher
}

type Option func(*Ledger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithPublisher attaches a notifier for appended events.
func WithPublisher(p EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// New creates a ledger and loads the persisted snapshot.
func New(ctx context.Context, repo repository.LedgerRepository, known domain.KnownSets, logger *zap.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		repo:   repo,
		known:  known,
		logger: logger,
		now:    time.Now,
		nextID: 1,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.Load(ctx)
	return l
}

// Load replaces the in-memory events with the persisted snapshot. A missing
// or unreadable snapshot leaves the ledger empty.
func (l *Ledger) Load(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		l.logger.Info("No persisted ledger, starting empty")
		events = nil
	case err != nil:
		l.logger.Warn("Failed to load ledger, starting empty", zap.Error(err))
		events = nil
	}

	now := l.now()
	l.nextID = 1
	for i := range events {
		e := &events[i]
		e.DisplayDate = domain.DisplayDateFromRecorded(e.RecordedAt, now)
		if e.DeviceCount > 0 {
			e.Identifiers = domain.NormalizeIdentifiers(e.Identifiers, e.DeviceCount)
		}
		if e.ID >= l.nextID {
			l.nextID = e.ID + 1
		}
	}
	l.events = events
	metrics.LedgerEntries.Set(float64(len(l.events)))

	l.logger.Info("Ledger loaded", zap.Int("entries", len(l.events)))
}

// AppendRequest is the caller input for one repair event.
type AppendRequest struct {
	Technician  string
	Date        string // DD.MM.YYYY
	EventType   string
	DeviceCount int
	Identifiers []string
}

func (r AppendRequest) validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(r.Technician) == "" {
		verr.add("technician", "technician is required")
	}
	if strings.TrimSpace(r.Date) == "" {
		verr.add("date", "date is required")
	} else if _, ok := domain.ParseDisplayDate(r.Date); !ok {
		verr.add("date", "date must be DD.MM.YYYY")
	}
	if strings.TrimSpace(r.EventType) == "" {
		verr.add("status", "status is required")
	}
	if r.DeviceCount <= 0 {
		verr.add("count", "count must be a positive integer")
	}
	return verr.orNil()
}

// Append validates and records one event, then persists the whole ledger.
// On a persist failure the event stays recorded and is returned together
// with an error wrapping ErrPersist.
func (l *Ledger) Append(ctx context.Context, req AppendRequest) (*domain.RepairEvent, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(req.Identifiers))
	for _, id := range req.Identifiers {
		ids = append(ids, strings.TrimSpace(id))
	}

	l.mu.Lock()
	now := l.now()
	event := domain.RepairEvent{
		ID:          l.nextID,
		RecordedAt:  domain.FormatRecordedAt(now),
		Technician:  strings.TrimSpace(req.Technician),
		EventType:   strings.TrimSpace(req.EventType),
		DeviceCount: req.DeviceCount,
		Identifiers: domain.NormalizeIdentifiers(ids, req.DeviceCount),
		DisplayDate: strings.TrimSpace(req.Date),
	}
	l.nextID++
	l.events = append(l.events, event)
	persistErr := l.persist(ctx, "append")
	known := l.known
	l.mu.Unlock()

	statusLabel := event.EventType
	if !known.HasStatus(statusLabel) {
		statusLabel = "other"
	}
	metrics.EventsAppended.WithLabelValues(statusLabel).Inc()
	metrics.DevicesRecorded.Add(float64(event.DeviceCount))

	l.logger.Info("Event appended",
		zap.Int("id", event.ID),
		zap.String("technician", event.Technician),
		zap.String("status", event.EventType),
		zap.Int("count", event.DeviceCount),
	)

	if l.publisher != nil {
		if err := l.publisher.PublishEvent(ctx, event.Clone()); err != nil {
			l.logger.Warn("Failed to publish event", zap.Int("id", event.ID), zap.Error(err))
		}
	}

	out := event.Clone()
	if persistErr != nil {
		return &out, persistErr
	}
	return &out, nil
}

// persist writes the snapshot. The caller holds the write lock.
func (l *Ledger) persist(ctx context.Context, operation string) error {
	start := time.Now()
	err := l.repo.Save(ctx, l.events)
	metrics.ObservePersist(operation, start, err)
	metrics.LedgerEntries.Set(float64(len(l.events)))
	if err != nil {
		l.logger.Error("Failed to persist ledger",
			zap.String("operation", operation),
			zap.Int("entries", len(l.events)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Clear drops every event and removes the persisted snapshot. Clearing an
// empty ledger is a no-op.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = nil
	l.nextID = 1
	metrics.LedgerEntries.Set(0)

	start := time.Now()
	err := l.repo.Remove(ctx)
	metrics.ObservePersist("clear", start, err)
	if err != nil {
		l.logger.Error("Failed to remove persisted ledger", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	l.logger.Info("Ledger cleared")
	return nil
}

// Events returns a copy of every event in insertion order.
func (l *Ledger) Events() []domain.RepairEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneAll(l.events)
}

// Filter returns copies of the events within [from, to] by calendar date.
// Without both bounds every event is returned.
func (l *Ledger) Filter(from, to *time.Time) []domain.RepairEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneAll(FilterEvents(l.events, from, to))
}

// Recent returns the last n events.
func (l *Ledger) Recent(n int) []domain.RepairEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneAll(Tail(l.events, n))
}

// Len returns the number of events.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Known returns the configured technician and status sets.
func (l *Ledger) Known() domain.KnownSets {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.known
}

// SetKnown replaces the configured sets, e.g. after a settings import.
func (l *Ledger) SetKnown(k domain.KnownSets) {
	l.mu.Lock()
	l.known = k
	l.mu.Unlock()
}

// Now returns the ledger clock.
func (l *Ledger) Now() time.Time {
	return l.now()
}

// Backup writes the current snapshot to dir as
// ledger_backup_<YYYYMMDD_HHmmss>.json and returns its path.
func (l *Ledger) Backup(ctx context.Context, dir string) (string, error) {
	l.mu.RLock()
	b, err := repository.EncodeSnapshot(l.events)
	l.mu.RUnlock()
	if err != nil {
		metrics.RecordBackup("ledger", err)
		return "", err
	}

	path := filepath.Join(dir, "ledger_backup_"+l.now().Format("20060102_150405")+".json")
	err = repository.WriteFileAtomic(path, b)
	metrics.RecordBackup("ledger", err)
	if err != nil {
		l.logger.Error("Ledger backup failed", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("write backup: %w", err)
	}
	l.logger.Info("Ledger backup written", zap.String("path", path))
	return path, nil
}

// FilterEvents applies the inclusive calendar-date window to events. Events
// with an unparseable display date are dropped when a window is given.
func FilterEvents(events []domain.RepairEvent, from, to *time.Time) []domain.RepairEvent {
	if from == nil || to == nil {
		return events
	}
	lo, hi := domain.DateKey(*from), domain.DateKey(*to)
	out := make([]domain.RepairEvent, 0, len(events))
	for _, e := range events {
		d, ok := e.Day()
		if !ok {
			continue
		}
		if k := domain.DateKey(d); k >= lo && k <= hi {
			out = append(out, e)
		}
	}
	return out
}

// Tail returns the last n events, or all of them when there are fewer.
func Tail(events []domain.RepairEvent, n int) []domain.RepairEvent {
	if n < 0 || len(events) <= n {
		return events
	}
	return events[len(events)-n:]
}

func cloneAll(events []domain.RepairEvent) []domain.RepairEvent {
	out := make([]domain.RepairEvent, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}
	return out
}
