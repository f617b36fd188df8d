package domain

// KnownSets is the configured vocabulary that drives bucketed aggregation.
type KnownSets struct {
	Technicians []string `json:"technicians"`
	StatusTypes []string `json:"statusTypes"`

	// Headline statuses shown as dedicated columns in the comparison table.
	CompletedStatus      string `json:"completedStatus"`
	InProgressStatus     string `json:"inProgressStatus"`
	QualityControlStatus string `json:"qualityControlStatus"`
}

func (k KnownSets) HasTechnician(name string) bool {
	return contains(k.Technicians, name)
}

func (k KnownSets) HasStatus(status string) bool {
	return contains(k.StatusTypes, status)
}

// DefaultKnownSets is the workshop vocabulary used when the settings file
// does not override it.
func DefaultKnownSets() KnownSets {
	return KnownSets{
		Technicians: []string{"Shady", "Luciano", "Osman", "Nikolai"},
		StatusTypes: []string{
			"Repariert fertig",
			"WPR (Wirtschaftsprüfung)",
			"Ersatzteile benötigt",
			"In Arbeit",
			"Qualitätskontrolle (777777)",
			"Test nicht bestanden (444444)",
			"Polieren (888888)",
		},
		CompletedStatus:      "Repariert fertig",
		InProgressStatus:     "In Arbeit",
		QualityControlStatus: "Qualitätskontrolle (777777)",
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
