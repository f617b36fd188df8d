package reporting

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
)

var (
	ErrInvalidRange = errors.New("invalid range")
	ErrInvalidDate  = errors.New("invalid date")
)

// RangeAll disables date filtering.
const RangeAll = "all"

// Range is a reporting window. The zero value covers every event.
type Range struct {
	Days int
	From time.Time
	To   time.Time
}

// ParseRange accepts "all" or a positive number of days N, meaning the
// window [today-N, today].
func ParseRange(s string, now time.Time) (Range, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, RangeAll) || strings.EqualFold(s, "alle") {
		return Range{}, nil
	}
	days, err := strconv.Atoi(s)
	if err != nil || days <= 0 {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	today := domain.StartOfDay(now)
	return Range{
		Days: days,
		From: today.AddDate(0, 0, -days),
		To:   today,
	}, nil
}

// All reports whether the range is unbounded.
func (r Range) All() bool { return r.Days == 0 }

// Bounds returns the window for ledger filtering; nil bounds when unbounded.
func (r Range) Bounds() (*time.Time, *time.Time) {
	if r.All() {
		return nil, nil
	}
	from, to := r.From, r.To
	return &from, &to
}

// Key identifies the range in cache keys.
func (r Range) Key() string {
	if r.All() {
		return RangeAll
	}
	return strconv.Itoa(r.Days)
}

// Labels returns the display bounds, "start"/"end" when unbounded.
func (r Range) Labels() (string, string) {
	if r.All() {
		return "start", "end"
	}
	return domain.FormatDisplayDate(r.From), domain.FormatDisplayDate(r.To)
}

// ParseDateWindow parses optional DD.MM.YYYY bounds. Filtering applies only
// when both are given.
func ParseDateWindow(start, end string) (*time.Time, *time.Time, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return nil, nil, nil
	}
	from, ok := domain.ParseDisplayDate(start)
	if !ok {
		return nil, nil, fmt.Errorf("%w: startDate %q", ErrInvalidDate, start)
	}
	to, ok := domain.ParseDisplayDate(end)
	if !ok {
		return nil, nil, fmt.Errorf("%w: endDate %q", ErrInvalidDate, end)
	}
	return &from, &to, nil
}
