package reporting

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
	"github.com/nikas17mc/digital-technician-dashboard/internal/imei"
	"github.com/nikas17mc/digital-technician-dashboard/internal/ledger"
)

// Analysis is the dashboard payload for one range.
type Analysis struct {
	Stats      OverviewStats          `json:"stats"`
	Charts     Charts                 `json:"charts"`
	Comparison []TechnicianComparison `json:"comparison"`
	Details    Details                `json:"details"`
}

type OverviewStats struct {
	TotalEntries       int    `json:"totalEntries"`
	TotalDevices       int    `json:"totalDevices"`
	TotalIdentifiers   int    `json:"totalIMEIs"`
	IdentifierCoverage string `json:"imeiCoverage"`
}

// Series is one chart dataset.
type Series struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

type Charts struct {
	TechPerformance    Series `json:"techPerformance"`
	StatusDistribution Series `json:"statusDistribution"`
}

type TechnicianComparison struct {
	Name           string  `json:"name"`
	Total          int     `json:"total"`
	Repaired       int     `json:"repaired"`
	InProgress     int     `json:"inProgress"`
	QualityControl int     `json:"qualityControl"`
	Coverage       int     `json:"coverage"`
	Efficiency     float64 `json:"efficiency"`
}

type Trends struct {
	HighestDay     string   `json:"highestDay"`
	AverageDaily   int      `json:"averageDaily"`
	TrendDirection string   `json:"trendDirection"`
	DailyLabels    []string `json:"dailyLabels"`
	DailyData      []int    `json:"dailyData"`
}

type IdentifierSummary struct {
	ValidCount       int      `json:"validCount"`
	InvalidCount     int      `json:"invalidCount"`
	AverageScore     int      `json:"averageScore"`
	BestQualityScore int      `json:"bestQualityScore"`
	CommonPatterns   []string `json:"commonPatterns"`
}

type Details struct {
	Trends      Trends            `json:"trends"`
	Identifiers IdentifierSummary `json:"imei"`
}

// Trend directions.
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendNone = "-"
)

const (
	dailyWindow     = 7
	commonPatternsN = 5
)

// BuildAnalysis computes, or returns the cached, dashboard analysis for a
// range expression ("all" or a number of days).
func (e *Engine) BuildAnalysis(ctx context.Context, rangeExpr string) (*Analysis, error) {
	r, err := ParseRange(rangeExpr, e.now())
	if err != nil {
		return nil, err
	}

	// The key is pinned before computing so a Clear racing the computation
	// is not undone by storing a stale result under the new generation.
	var key string
	if e.cache != nil {
		k, a, ok := e.cache.Lookup(ctx, r.Key())
		if ok {
			return a, nil
		}
		key = k
	}

	a := e.computeAnalysis(r)
	if e.cache != nil {
		e.cache.Store(ctx, key, a)
	}
	e.logger.Debug("Analysis computed", zap.String("range", r.Key()))
	return a, nil
}

func (e *Engine) computeAnalysis(r Range) *Analysis {
	known := e.source.Known()
	all := e.source.Events()
	from, to := r.Bounds()
	events := ledger.FilterEvents(all, from, to)
	summary := ledger.Summarize(events, known)

	stats := e.source.Statistics()
	return &Analysis{
		Stats: guard(e, "stats", OverviewStats{IdentifierCoverage: "0%"}, func() OverviewStats {
			return OverviewStats{
				TotalEntries:       stats.TotalEntries,
				TotalDevices:       stats.TotalDevices,
				TotalIdentifiers:   stats.TotalIdentifiers,
				IdentifierCoverage: percentLabel(stats.TotalIdentifiers, stats.TotalDevices),
			}
		}),
		Charts: guard(e, "charts", Charts{}, func() Charts {
			return buildCharts(summary, known)
		}),
		Comparison: guard(e, "comparison", []TechnicianComparison{}, func() []TechnicianComparison {
			return buildComparison(events, summary, known)
		}),
		Details: Details{
			Trends: guard(e, "trends", Trends{HighestDay: TrendNone, TrendDirection: TrendNone}, func() Trends {
				return buildTrends(events)
			}),
			Identifiers: guard(e, "identifiers", IdentifierSummary{CommonPatterns: []string{}}, func() IdentifierSummary {
				return buildIdentifierSummary(events)
			}),
		},
	}
}

func buildCharts(summary ledger.Summary, known domain.KnownSets) Charts {
	c := Charts{
		TechPerformance: Series{
			Labels: append([]string{}, known.Technicians...),
			Data:   make([]int, 0, len(known.Technicians)),
		},
		StatusDistribution: Series{
			Labels: append([]string{}, known.StatusTypes...),
			Data:   make([]int, 0, len(known.StatusTypes)),
		},
	}
	for _, tech := range known.Technicians {
		c.TechPerformance.Data = append(c.TechPerformance.Data, summary.Total(tech))
	}
	for _, status := range known.StatusTypes {
		n := 0
		for _, tech := range known.Technicians {
			n += summary[tech][status]
		}
		c.StatusDistribution.Data = append(c.StatusDistribution.Data, n)
	}
	return c
}

func buildComparison(events []domain.RepairEvent, summary ledger.Summary, known domain.KnownSets) []TechnicianComparison {
	out := make([]TechnicianComparison, 0, len(known.Technicians))
	for _, tech := range known.Technicians {
		row := summary[tech]
		devices, recorded := 0, 0
		days := map[string]struct{}{}
		for _, ev := range events {
			if ev.Technician != tech {
				continue
			}
			devices += ev.DeviceCount
			recorded += ev.RecordedCount()
			days[ev.DisplayDate] = struct{}{}
		}

		efficiency := 0.0
		if len(days) > 0 {
			efficiency = math.Round(float64(devices)/float64(len(days))*10) / 10
		}

		out = append(out, TechnicianComparison{
			Name:           tech,
			Total:          summary.Total(tech),
			Repaired:       row[known.CompletedStatus],
			InProgress:     row[known.InProgressStatus],
			QualityControl: row[known.QualityControlStatus],
			Coverage:       imei.Percent(recorded, devices),
			Efficiency:     efficiency,
		})
	}
	return out
}

type dailyTotal struct {
	label string
	key   int
	total int
}

// dailyTotals sums device counts per display date in ascending date order.
// Events with an unparseable date are ignored.
func dailyTotals(events []domain.RepairEvent) []dailyTotal {
	index := map[int]int{}
	var days []dailyTotal
	for _, ev := range events {
		d, ok := ev.Day()
		if !ok {
			continue
		}
		k := domain.DateKey(d)
		i, seen := index[k]
		if !seen {
			i = len(days)
			index[k] = i
			days = append(days, dailyTotal{label: domain.FormatDisplayDate(d), key: k})
		}
		days[i].total += ev.DeviceCount
	}
	sort.Slice(days, func(i, j int) bool { return days[i].key < days[j].key })
	return days
}

func buildTrends(events []domain.RepairEvent) Trends {
	days := dailyTotals(events)
	t := Trends{
		HighestDay:     TrendNone,
		TrendDirection: TrendNone,
		DailyLabels:    []string{},
		DailyData:      []int{},
	}
	if len(days) == 0 {
		return t
	}

	best, sum := days[0], 0
	for _, d := range days {
		if d.total > best.total {
			best = d
		}
		sum += d.total
	}
	t.HighestDay = best.label
	t.AverageDaily = int(math.Round(float64(sum) / float64(len(days))))

	if len(days) > 1 {
		if days[len(days)-1].total > days[0].total {
			t.TrendDirection = TrendUp
		} else {
			t.TrendDirection = TrendDown
		}
	}

	recent := days
	if len(recent) > dailyWindow {
		recent = recent[len(recent)-dailyWindow:]
	}
	for _, d := range recent {
		t.DailyLabels = append(t.DailyLabels, d.label)
		t.DailyData = append(t.DailyData, d.total)
	}
	return t
}

func buildIdentifierSummary(events []domain.RepairEvent) IdentifierSummary {
	cs := imei.Classifications(imei.ClassifyItems(identifierItems(events, "", "")))
	st := imei.Summarize(cs)
	patterns := imei.TopPatterns(cs, commonPatternsN)
	if patterns == nil {
		patterns = []string{}
	}
	return IdentifierSummary{
		ValidCount:       st.ValidCount,
		InvalidCount:     st.InvalidCount,
		AverageScore:     st.AverageScore,
		BestQualityScore: st.BestQualityScore,
		CommonPatterns:   patterns,
	}
}
