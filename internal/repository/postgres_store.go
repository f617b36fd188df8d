package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/nikas17mc/digital-technician-dashboard/internal/config"
	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
)

// NewPostgresDB opens and pings a PostgreSQL connection pool.
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// PostgresStore keeps the ledger snapshot in the repair_events table. Every
// Save replaces the table contents inside one transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const createRepairEventsTable = `
	CREATE TABLE IF NOT EXISTS repair_events (
		id          INTEGER PRIMARY KEY,
		date_time   TEXT    NOT NULL,
		technic     TEXT    NOT NULL,
		event       TEXT    NOT NULL,
		total_count INTEGER NOT NULL,
		imei        TEXT[]  NOT NULL DEFAULT '{}'
	)`

// EnsureSchema creates the repair_events table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createRepairEventsTable); err != nil {
		return fmt.Errorf("create repair_events: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]domain.RepairEvent, error) {
	query := `
		SELECT id, date_time, technic, event, total_count, imei
		FROM repair_events
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query repair_events: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			r     Record
			count int
		)
		if err := rows.Scan(&r.ID, &r.DateTime, &r.Technic, &r.Event, &count, pq.Array(&r.IMEI)); err != nil {
			return nil, fmt.Errorf("scan repair_events: %w", err)
		}
		r.TotalCount = Count(count)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repair_events: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return FromRecords(records), nil
}

func (s *PostgresStore) Save(ctx context.Context, events []domain.RepairEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM repair_events`); err != nil {
		return fmt.Errorf("clear repair_events: %w", err)
	}

	insert := `
		INSERT INTO repair_events (id, date_time, technic, event, total_count, imei)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, r := range ToRecords(events) {
		if _, err := tx.ExecContext(ctx, insert, r.ID, r.DateTime, r.Technic, r.Event, int(r.TotalCount), pq.Array(r.IMEI)); err != nil {
			return fmt.Errorf("insert event %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM repair_events`); err != nil {
		return fmt.Errorf("clear repair_events: %w", err)
	}
	return nil
}
