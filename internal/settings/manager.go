package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
	"github.com/nikas17mc/digital-technician-dashboard/internal/metrics"
	"github.com/nikas17mc/digital-technician-dashboard/internal/repository"
)

// Manager owns the settings file. Reads return copies; every successful
// change is written back to disk and announced to subscribers.
type Manager struct {
	mu       sync.RWMutex
	path     string
	current  Settings
	logger   *zap.Logger
	now      func() time.Time
	watchers []func(Settings)
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager loads the settings file at path. Files ending in .yaml or .yml
// are YAML, everything else is JSON.
func NewManager(path string, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		path:    path,
		current: Defaults(),
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.Load()
	return m
}

// Load re-reads the settings file. A missing file is created with the
// defaults; an unreadable or invalid one is ignored in favor of the defaults.
func (m *Manager) Load() {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		m.current = Defaults()
		if err := m.save(m.current); err != nil {
			m.logger.Error("Failed to write default settings", zap.String("path", m.path), zap.Error(err))
		} else {
			m.logger.Info("Default settings written", zap.String("path", m.path))
		}
		return
	}
	if err != nil {
		m.logger.Warn("Failed to read settings, using defaults", zap.String("path", m.path), zap.Error(err))
		m.current = Defaults()
		return
	}

	s, err := merge(Defaults(), b, isYAML(m.path))
	if err != nil {
		m.logger.Warn("Malformed settings file, using defaults", zap.String("path", m.path), zap.Error(err))
		m.current = Defaults()
		return
	}
	if err := Validate(s); err != nil {
		m.logger.Warn("Invalid settings file, using defaults", zap.String("path", m.path), zap.Error(err))
		m.current = Defaults()
		return
	}
	m.current = s
	m.logger.Info("Settings loaded", zap.String("path", m.path))
}

// Subscribe registers fn to run after every successful change.
func (m *Manager) Subscribe(fn func(Settings)) {
	m.mu.Lock()
	m.watchers = append(m.watchers, fn)
	m.mu.Unlock()
}

// Get returns a copy of the current settings.
func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.clone()
}

// KnownSets returns the configured technician and status vocabulary.
func (m *Manager) KnownSets() domain.KnownSets {
	return m.Get().KnownSets()
}

// Import merges a JSON document over the defaults, validates the result and
// saves it. Sections and keys absent from raw keep their default values.
func (m *Manager) Import(raw []byte) (Settings, error) {
	s, err := merge(Defaults(), raw, false)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := Validate(s); err != nil {
		return Settings{}, err
	}
	if err := m.replace(s, "import"); err != nil {
		return Settings{}, err
	}
	return s.clone(), nil
}

// ExportDocument is the portable settings export.
type ExportDocument struct {
	Config     Settings `json:"config"`
	Version    string   `json:"version"`
	ExportDate string   `json:"exportDate"`
}

func (m *Manager) Export() ExportDocument {
	return ExportDocument{
		Config:     m.Get(),
		Version:    Version,
		ExportDate: m.now().UTC().Format(time.RFC3339),
	}
}

// Reset restores and saves the defaults.
func (m *Manager) Reset() error {
	return m.replace(Defaults(), "reset")
}

// Backup writes the current settings to paths.backupPath as
// config_backup_<YYYYMMDD_HHmmss> with the settings file extension.
func (m *Manager) Backup() (string, error) {
	m.mu.RLock()
	s := m.current.clone()
	m.mu.RUnlock()

	ext := filepath.Ext(m.path)
	if ext == "" {
		ext = ".json"
	}
	dir := s.Paths.BackupPath
	if strings.TrimSpace(dir) == "" {
		dir = Defaults().Paths.BackupPath
	}
	path := filepath.Join(dir, "config_backup_"+m.now().Format("20060102_150405")+ext)

	b, err := encode(s, isYAML(path))
	if err == nil {
		err = repository.WriteFileAtomic(path, b)
	}
	metrics.RecordBackup("settings", err)
	if err != nil {
		m.logger.Error("Settings backup failed", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("write settings backup: %w", err)
	}
	m.logger.Info("Settings backup written", zap.String("path", path))
	return path, nil
}

// Restore loads a backup written by Backup, merges it over the defaults and
// makes it current.
func (m *Manager) Restore(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read settings backup: %w", err)
	}
	s, err := merge(Defaults(), b, isYAML(path))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := Validate(s); err != nil {
		return err
	}
	return m.replace(s, "restore")
}

func (m *Manager) replace(s Settings, operation string) error {
	m.mu.Lock()
	if err := m.save(s); err != nil {
		m.mu.Unlock()
		m.logger.Error("Failed to save settings", zap.String("operation", operation), zap.Error(err))
		return fmt.Errorf("save settings: %w", err)
	}
	m.current = s
	watchers := append([]func(Settings){}, m.watchers...)
	m.mu.Unlock()

	m.logger.Info("Settings updated", zap.String("operation", operation))
	for _, fn := range watchers {
		fn(s.clone())
	}
	return nil
}

// save writes s to the settings file. The caller holds the lock.
func (m *Manager) save(s Settings) error {
	b, err := encode(s, isYAML(m.path))
	if err != nil {
		return err
	}
	return repository.WriteFileAtomic(m.path, b)
}

// merge decodes raw over base. Decoding into a populated struct overrides
// only the keys present in raw, one level deep per section.
func merge(base Settings, raw []byte, asYAML bool) (Settings, error) {
	out := base.clone()
	if asYAML {
		if err := yaml.Unmarshal(raw, &out); err != nil {
			return Settings{}, err
		}
		return out, nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Settings{}, errors.New("empty settings document")
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Settings{}, err
	}
	return out, nil
}

func encode(s Settings, asYAML bool) ([]byte, error) {
	if asYAML {
		return yaml.Marshal(s)
	}
	return json.MarshalIndent(s, "", "  ")
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
