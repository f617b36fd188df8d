package reporting

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
	"github.com/nikas17mc/digital-technician-dashboard/internal/export"
	"github.com/nikas17mc/digital-technician-dashboard/internal/imei"
	"github.com/nikas17mc/digital-technician-dashboard/internal/ledger"
)

// Sheet names.
const (
	SheetOverview              = "Overview"
	SheetTechnicianPerformance = "Technician Performance"
	SheetDetailedAnalysis      = "Detailed Analysis"
	SheetIdentifierAnalysis    = "Identifier Analysis"
	SheetDetails               = "Details"
	SheetIdentifierList        = "Identifier List"
	SheetStatistics            = "Statistics"
)

const generatedAtLayout = "02.01.2006 15:04"

// BuildReportSheets builds the full report workbook for a range expression.
func (e *Engine) BuildReportSheets(ctx context.Context, rangeExpr string) ([]export.Sheet, Range, error) {
	now := e.now()
	r, err := ParseRange(rangeExpr, now)
	if err != nil {
		return nil, Range{}, err
	}

	known := e.source.Known()
	from, to := r.Bounds()
	events := ledger.FilterEvents(e.source.Events(), from, to)
	summary := ledger.Summarize(events, known)
	stats := e.source.Statistics()

	sheets := []export.Sheet{
		guard(e, "report.overview", emptySheet(SheetOverview), func() export.Sheet {
			return overviewSheet(r, stats, known, now)
		}),
		guard(e, "report.performance", emptySheet(SheetTechnicianPerformance), func() export.Sheet {
			return performanceSheet(summary, known)
		}),
		guard(e, "report.detailed", emptySheet(SheetDetailedAnalysis), func() export.Sheet {
			return detailedAnalysisSheet(events)
		}),
		guard(e, "report.identifiers", emptySheet(SheetIdentifierAnalysis), func() export.Sheet {
			return identifierAnalysisSheet(events)
		}),
	}
	return sheets, r, nil
}

func emptySheet(name string) export.Sheet {
	return export.Sheet{Name: name, Rows: [][]any{}}
}

func overviewSheet(r Range, stats ledger.Statistics, known domain.KnownSets, now time.Time) export.Sheet {
	start, end := r.Labels()
	return export.Sheet{
		Name: SheetOverview,
		Rows: [][]any{
			{"TECHNICIAN PERFORMANCE REPORT"},
			{"Report period: " + start + " to " + end},
			{"Generated: " + now.Format(generatedAtLayout)},
			{},
			{"SUMMARY"},
			{"Metric", "Value"},
			{"Total entries", stats.TotalEntries},
			{"Devices processed", stats.TotalDevices},
			{"Identifiers", stats.TotalIdentifiers},
			{"Identifier coverage", percentLabel(stats.TotalIdentifiers, stats.TotalDevices)},
			{"Active technicians", len(known.Technicians)},
		},
		HeaderRows: []int{6},
	}
}

func performanceSheet(summary ledger.Summary, known domain.KnownSets) export.Sheet {
	header := []any{"Technician"}
	for _, status := range known.StatusTypes {
		header = append(header, status)
	}
	header = append(header, "Total", "Percent")

	grand := 0
	for _, tech := range known.Technicians {
		grand += summary.Total(tech)
	}

	rows := [][]any{{"TECHNICIAN PERFORMANCE"}, {}, header}
	for _, tech := range known.Technicians {
		row := []any{tech}
		for _, status := range known.StatusTypes {
			row = append(row, summary[tech][status])
		}
		total := summary.Total(tech)
		row = append(row, total, percentLabel(total, grand))
		rows = append(rows, row)
	}

	totalRow := []any{"TOTAL"}
	for _, status := range known.StatusTypes {
		n := 0
		for _, tech := range known.Technicians {
			n += summary[tech][status]
		}
		totalRow = append(totalRow, n)
	}
	totalRow = append(totalRow, grand, percentLabel(grand, grand))
	rows = append(rows, totalRow)

	return export.Sheet{
		Name:       SheetTechnicianPerformance,
		Rows:       rows,
		HeaderRows: []int{3, len(rows)},
		FreezeRows: 3,
	}
}

type monthTotal struct {
	label       string
	key         int
	entries     int
	devices     int
	identifiers int
}

func detailedAnalysisSheet(events []domain.RepairEvent) export.Sheet {
	rows := [][]any{
		{"DETAILED ANALYSIS"},
		{},
		{"MONTHLY ANALYSIS"},
		{"Month", "Entries", "Devices", "Identifiers", "Coverage"},
	}
	headers := []int{4}

	index := map[int]int{}
	var months []monthTotal
	for _, ev := range events {
		d, ok := ev.Day()
		if !ok {
			continue
		}
		k := d.Year()*100 + int(d.Month())
		i, seen := index[k]
		if !seen {
			i = len(months)
			index[k] = i
			months = append(months, monthTotal{label: d.Format("01/2006"), key: k})
		}
		months[i].entries++
		months[i].devices += ev.DeviceCount
		months[i].identifiers += ev.RecordedCount()
	}
	sort.Slice(months, func(i, j int) bool { return months[i].key < months[j].key })
	for _, m := range months {
		rows = append(rows, []any{m.label, m.entries, m.devices, m.identifiers, percentLabel(m.identifiers, m.devices)})
	}

	rows = append(rows, []any{}, []any{"STATUS DISTRIBUTION"}, []any{"Status", "Count", "Percent"})
	headers = append(headers, len(rows))

	totalDevices := 0
	var statuses []imei.Count
	statusIndex := map[string]int{}
	for _, ev := range events {
		totalDevices += ev.DeviceCount
		i, seen := statusIndex[ev.EventType]
		if !seen {
			i = len(statuses)
			statusIndex[ev.EventType] = i
			statuses = append(statuses, imei.Count{Label: ev.EventType})
		}
		statuses[i].Count += ev.DeviceCount
	}
	for _, s := range statuses {
		rows = append(rows, []any{s.Label, s.Count, percentLabel(s.Count, totalDevices)})
	}

	return export.Sheet{Name: SheetDetailedAnalysis, Rows: rows, HeaderRows: headers}
}

func identifierAnalysisSheet(events []domain.RepairEvent) export.Sheet {
	cs := imei.Classifications(imei.ClassifyItems(identifierItems(events, "", "")))
	st := imei.Summarize(cs)

	rows := [][]any{
		{"IDENTIFIER ANALYSIS"},
		{},
		{"BASE STATISTICS"},
		{"Metric", "Value"},
		{"Total identifiers", st.Total},
		{"Valid identifiers", st.ValidCount},
		{"Invalid identifiers", st.InvalidCount},
		{"Validation rate", percentLabel(st.ValidCount, st.Total)},
		{"Average quality score", st.AverageScore},
		{},
		{"MANUFACTURER DISTRIBUTION"},
		{"Manufacturer", "Count", "Percent"},
	}
	headers := []int{4, len(rows)}

	for _, c := range imei.ManufacturerDistribution(cs) {
		rows = append(rows, []any{c.Label, c.Count, percentLabel(c.Count, st.Total)})
	}

	rows = append(rows, []any{}, []any{"QUALITY DISTRIBUTION"}, []any{"Range", "Count", "Percent"})
	headers = append(headers, len(rows))
	for _, c := range imei.QualityBuckets(cs) {
		rows = append(rows, []any{c.Label, c.Count, percentLabel(c.Count, st.Total)})
	}

	return export.Sheet{Name: SheetIdentifierAnalysis, Rows: rows, HeaderRows: headers}
}

// BuildDataExportSheets builds the raw data workbook for an optional date
// window: per technician overview, one row per event, one row per identifier.
func (e *Engine) BuildDataExportSheets(from, to *time.Time) []export.Sheet {
	known := e.source.Known()
	events := ledger.FilterEvents(e.source.Events(), from, to)
	summary := ledger.Summarize(events, known)

	header := []any{"Technician"}
	for _, status := range known.StatusTypes {
		header = append(header, status)
	}
	header = append(header, "Total", "Identifier Total")
	overview := [][]any{header}
	for _, tech := range known.Technicians {
		row := []any{tech}
		for _, status := range known.StatusTypes {
			row = append(row, summary[tech][status])
		}
		recorded := 0
		for _, ev := range events {
			if ev.Technician == tech {
				recorded += ev.RecordedCount()
			}
		}
		row = append(row, summary.Total(tech), recorded)
		overview = append(overview, row)
	}

	details := [][]any{{"ID", "Technician", "Date", "Event", "Count", "Identifier Count", "Recorded At"}}
	list := [][]any{{"ID", "Technician", "Date", "Event", "Identifier"}}
	for _, ev := range events {
		details = append(details, []any{ev.ID, ev.Technician, ev.DisplayDate, ev.EventType, ev.DeviceCount, ev.RecordedCount(), recordedAtLabel(ev.RecordedAt)})
		for _, id := range ev.RecordedIdentifiers() {
			list = append(list, []any{ev.ID, ev.Technician, ev.DisplayDate, ev.EventType, id})
		}
	}

	return []export.Sheet{
		{Name: SheetOverview, Rows: overview, HeaderRows: []int{1}, FreezeRows: 1},
		{Name: SheetDetails, Rows: details, HeaderRows: []int{1}, FreezeRows: 1},
		{Name: SheetIdentifierList, Rows: list, HeaderRows: []int{1}, FreezeRows: 1},
	}
}

// recordedAtLabel renders DD-MM-YYYY_HHmmss as DD.MM.YYYY HH:mm:ss.
func recordedAtLabel(recordedAt string) string {
	t, err := time.ParseInLocation(domain.RecordedAtLayout, strings.TrimSpace(recordedAt), time.Local)
	if err != nil {
		return recordedAt
	}
	return t.Format("02.01.2006 15:04:05")
}

// BuildIdentifierExport classifies every recorded identifier matching the
// optional technician and status filters.
func (e *Engine) BuildIdentifierExport(technician, status string) []export.Sheet {
	items := imei.ClassifyItems(identifierItems(e.source.Events(), technician, status))

	list := [][]any{{"Identifier", "Valid", "Quality Score", "Validation Score", "Manufacturer",
		"Device Type", "TAC", "Length", "Patterns", "Technician", "Status", "Date"}}
	for _, it := range items {
		orig, _ := it.Original.(imei.Item)
		list = append(list, []any{
			it.Raw,
			yesNo(it.IsStructurallyValid),
			it.QualityScore,
			it.ValidationConfidence,
			it.Manufacturer,
			it.DeviceType,
			it.TypeAllocationPrefix,
			it.Length,
			strings.Join(it.Patterns, ", "),
			orig.Technician,
			orig.Status,
			orig.Date,
		})
	}

	st := imei.Summarize(imei.Classifications(items))
	stats := [][]any{
		{"Metric", "Value"},
		{"Total identifiers", st.Total},
		{"Valid identifiers", st.ValidCount},
		{"Invalid identifiers", st.InvalidCount},
		{"Validation rate", percentLabel(st.ValidCount, st.Total)},
		{"Average quality score", st.AverageScore},
		{"Best quality score", st.BestQualityScore},
	}

	return []export.Sheet{
		{Name: SheetIdentifierList, Rows: list, HeaderRows: []int{1}, FreezeRows: 1},
		{Name: SheetStatistics, Rows: stats, HeaderRows: []int{1}},
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
