// Package settings manages the workshop settings file: UI preferences, paths,
// export options and the technician/status vocabulary.
package settings

import (
	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
)

// Version is written into settings exports.
const Version = "1.0.0"

type Settings struct {
	General   General   `json:"general" yaml:"general"`
	Paths     Paths     `json:"paths" yaml:"paths"`
	Analysis  Analysis  `json:"analysis" yaml:"analysis"`
	Export    Export    `json:"export" yaml:"export"`
	Dashboard Dashboard `json:"dashboard" yaml:"dashboard"`
	Workshop  Workshop  `json:"workshop" yaml:"workshop"`
}

type General struct {
	AutoSave            bool   `json:"autoSave" yaml:"autoSave"`
	Theme               string `json:"theme" yaml:"theme"`
	Language            string `json:"language" yaml:"language"`
	NotificationEnabled bool   `json:"notificationEnabled" yaml:"notificationEnabled"`
	AutoRefresh         bool   `json:"autoRefresh" yaml:"autoRefresh"`
	RefreshInterval     int    `json:"refreshInterval" yaml:"refreshInterval"` // seconds
}

type Paths struct {
	LastJSONPath      string `json:"lastJsonPath" yaml:"lastJsonPath"`
	LastExportPath    string `json:"lastExportPath" yaml:"lastExportPath"`
	DefaultImportPath string `json:"defaultImportPath" yaml:"defaultImportPath"`
	BackupPath        string `json:"backupPath" yaml:"backupPath"`
}

type Analysis struct {
	DefaultDateRange       string `json:"defaultDateRange" yaml:"defaultDateRange"`
	EnableMismatchAnalysis bool   `json:"enableMismatchAnalysis" yaml:"enableMismatchAnalysis"`
	EnableIMEIAnalysis     bool   `json:"enableIMEIAnalysis" yaml:"enableIMEIAnalysis"`
	CacheResults           bool   `json:"cacheResults" yaml:"cacheResults"`
	CacheDuration          int    `json:"cacheDuration" yaml:"cacheDuration"` // seconds
}

type Export struct {
	DefaultFormat     string `json:"defaultFormat" yaml:"defaultFormat"`
	IncludeIMEI       bool   `json:"includeIMEI" yaml:"includeIMEI"`
	IncludeStatistics bool   `json:"includeStatistics" yaml:"includeStatistics"`
	AutoOpenExport    bool   `json:"autoOpenExport" yaml:"autoOpenExport"`
	CompressExports   bool   `json:"compressExports" yaml:"compressExports"`
}

type Dashboard struct {
	ShowTechnicianCards bool   `json:"showTechnicianCards" yaml:"showTechnicianCards"`
	CardsPerRow         int    `json:"cardsPerRow" yaml:"cardsPerRow"`
	DefaultView         string `json:"defaultView" yaml:"defaultView"`
	RefreshOnStart      bool   `json:"refreshOnStart" yaml:"refreshOnStart"`
	ShowNotifications   bool   `json:"showNotifications" yaml:"showNotifications"`
}

// Workshop is the vocabulary that drives aggregation.
type Workshop struct {
	Technicians          []string `json:"technicians" yaml:"technicians"`
	StatusTypes          []string `json:"statusTypes" yaml:"statusTypes"`
	CompletedStatus      string   `json:"completedStatus" yaml:"completedStatus"`
	InProgressStatus     string   `json:"inProgressStatus" yaml:"inProgressStatus"`
	QualityControlStatus string   `json:"qualityControlStatus" yaml:"qualityControlStatus"`
}

// Defaults returns a fresh copy of the built-in settings.
func Defaults() Settings {
	known := domain.DefaultKnownSets()
	return Settings{
		General: General{
			AutoSave:            true,
			Theme:               "dark",
			Language:            "de",
			NotificationEnabled: true,
			AutoRefresh:         true,
			RefreshInterval:     30,
		},
		Paths: Paths{
			BackupPath: "./backups",
		},
		Analysis: Analysis{
			DefaultDateRange:       "7",
			EnableMismatchAnalysis: true,
			EnableIMEIAnalysis:     true,
			CacheResults:           true,
			CacheDuration:          300,
		},
		Export: Export{
			DefaultFormat:     "excel",
			IncludeIMEI:       true,
			IncludeStatistics: true,
			AutoOpenExport:    true,
		},
		Dashboard: Dashboard{
			ShowTechnicianCards: true,
			CardsPerRow:         2,
			DefaultView:         "data",
			RefreshOnStart:      true,
			ShowNotifications:   true,
		},
		Workshop: Workshop{
			Technicians:          known.Technicians,
			StatusTypes:          known.StatusTypes,
			CompletedStatus:      known.CompletedStatus,
			InProgressStatus:     known.InProgressStatus,
			QualityControlStatus: known.QualityControlStatus,
		},
	}
}

// KnownSets converts the workshop section for the ledger.
func (s Settings) KnownSets() domain.KnownSets {
	return domain.KnownSets{
		Technicians:          append([]string(nil), s.Workshop.Technicians...),
		StatusTypes:          append([]string(nil), s.Workshop.StatusTypes...),
		CompletedStatus:      s.Workshop.CompletedStatus,
		InProgressStatus:     s.Workshop.InProgressStatus,
		QualityControlStatus: s.Workshop.QualityControlStatus,
	}
}

func (s Settings) clone() Settings {
	s.Workshop.Technicians = append([]string(nil), s.Workshop.Technicians...)
	s.Workshop.StatusTypes = append([]string(nil), s.Workshop.StatusTypes...)
	return s
}
