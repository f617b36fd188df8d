package reporting

import (
	"strings"

	"github.com/nikas17mc/digital-technician-dashboard/internal/imei"
	"github.com/nikas17mc/digital-technician-dashboard/internal/ledger"
)

// DefaultOverviewDays is the technician overview window when none is given.
const DefaultOverviewDays = "7"

type TechnicianStats struct {
	Name                string              `json:"name"`
	TotalDevices        int                 `json:"totalDevices"`
	ByStatus            map[string]int      `json:"byStatus"`
	IdentifiersByStatus map[string][]string `json:"imeiByStatus"`
}

type TechnicianOverview struct {
	Days        string            `json:"days"`
	Technicians []string          `json:"technicians"`
	StatusTypes []string          `json:"statusTypes"`
	Summary     ledger.Summary    `json:"summary"`
	Stats       []TechnicianStats `json:"techStats"`
}

// TechnicianOverview summarizes every known technician over the last days
// ("all" for no window).
func (e *Engine) TechnicianOverview(days string) (*TechnicianOverview, error) {
	if strings.TrimSpace(days) == "" {
		days = DefaultOverviewDays
	}
	r, err := ParseRange(days, e.now())
	if err != nil {
		return nil, err
	}

	known := e.source.Known()
	from, to := r.Bounds()
	events := ledger.FilterEvents(e.source.Events(), from, to)

	out := &TechnicianOverview{
		Days:        r.Key(),
		Technicians: known.Technicians,
		StatusTypes: known.StatusTypes,
		Summary:     ledger.Summarize(events, known),
		Stats:       make([]TechnicianStats, 0, len(known.Technicians)),
	}
	for _, tech := range known.Technicians {
		ts := TechnicianStats{
			Name:                tech,
			ByStatus:            make(map[string]int, len(known.StatusTypes)),
			IdentifiersByStatus: make(map[string][]string, len(known.StatusTypes)),
		}
		for _, status := range known.StatusTypes {
			ts.ByStatus[status] = 0
			ts.IdentifiersByStatus[status] = []string{}
		}
		for _, ev := range events {
			if ev.Technician != tech {
				continue
			}
			ts.TotalDevices += ev.DeviceCount
			if _, ok := ts.ByStatus[ev.EventType]; !ok {
				continue
			}
			ts.ByStatus[ev.EventType] += ev.DeviceCount
			ts.IdentifiersByStatus[ev.EventType] = append(ts.IdentifiersByStatus[ev.EventType], ev.RecordedIdentifiers()...)
		}
		out.Stats = append(out.Stats, ts)
	}
	return out, nil
}

type IdentifierDetails struct {
	Technician string                `json:"technician"`
	Status     string                `json:"status"`
	Items      []imei.ClassifiedItem `json:"imeiList"`
	Total      int                   `json:"totalIMEIs"`
	Valid      int                   `json:"validIMEIs"`
}

// IdentifierDetails classifies the identifiers recorded by technician under
// status.
func (e *Engine) IdentifierDetails(technician, status string) *IdentifierDetails {
	items := imei.ClassifyItems(identifierItems(e.source.Events(), technician, status))
	st := imei.Summarize(imei.Classifications(items))
	return &IdentifierDetails{
		Technician: technician,
		Status:     status,
		Items:      items,
		Total:      st.Total,
		Valid:      st.ValidCount,
	}
}
