// Package backup writes periodic copies of the ledger snapshot and the
// settings file.
package backup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nikas17mc/digital-technician-dashboard/internal/settings"
)

// LedgerBackup writes a ledger snapshot into dir.
type LedgerBackup interface {
	Backup(ctx context.Context, dir string) (string, error)
}

// SettingsBackup writes a settings copy into the configured backup path.
type SettingsBackup interface {
	Get() settings.Settings
	Backup() (string, error)
}

// Result lists the files written by one run.
type Result struct {
	LedgerPath   string `json:"ledgerPath,omitempty"`
	SettingsPath string `json:"settingsPath,omitempty"`
}

// Job backs up both targets into settings.paths.backupPath.
type Job struct {
	ledger   LedgerBackup
	settings SettingsBackup
	logger   *zap.Logger
}

func NewJob(ledger LedgerBackup, settings SettingsBackup, logger *zap.Logger) *Job {
	return &Job{ledger: ledger, settings: settings, logger: logger}
}

// Run backs up each target. A failing target does not stop the other one;
// the returned error joins every failure.
func (j *Job) Run(ctx context.Context) (Result, error) {
	var (
		res  Result
		errs []error
	)

	dir := j.settings.Get().Paths.BackupPath
	if strings.TrimSpace(dir) == "" {
		dir = settings.Defaults().Paths.BackupPath
	}

	path, err := j.ledger.Backup(ctx, dir)
	if err != nil {
		errs = append(errs, fmt.Errorf("ledger backup: %w", err))
	} else {
		res.LedgerPath = path
	}

	path, err = j.settings.Backup()
	if err != nil {
		errs = append(errs, fmt.Errorf("settings backup: %w", err))
	} else {
		res.SettingsPath = path
	}

	return res, errors.Join(errs...)
}

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	job      *Job
	logger   *zap.Logger
}

// parser accepts standard 5-field expressions and descriptors like @daily.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewScheduler validates schedule and registers job. An empty schedule is
// an error; callers skip scheduling instead.
func NewScheduler(schedule string, job *Job, logger *zap.Logger) (*Scheduler, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, errors.New("empty backup schedule")
	}
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithParser(parser)),
		schedule: schedule,
		job:      job,
		logger:   logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("register backup job: %w", err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := s.job.Run(ctx)
	if err != nil {
		s.logger.Error("Scheduled backup failed", zap.Error(err))
	}
	s.logger.Info("Scheduled backup complete",
		zap.String("ledger", res.LedgerPath),
		zap.String("settings", res.SettingsPath),
	)
}

// Start begins scheduling in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Backup scheduler started", zap.String("schedule", s.schedule))
}

// Stop stops scheduling and waits for a running job, up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Backup scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
