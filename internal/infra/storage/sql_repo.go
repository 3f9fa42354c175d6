package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLRepository implements Repository on any sqlx database. Queries are
// written with '?' placeholders and rebound for the driver in use.
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository wraps an open database created by InitSQLite or InitPostgres.
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) AppendEvents(ctx context.Context, events []StoredEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin event batch: %w", err)
	}
	defer tx.Rollback()

	query := r.db.Rebind(`
		INSERT INTO events (id, run_id, seq, timestamp_ns, event_type, actor_id, target_id, payload, day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.ExecContext(ctx,
			e.ID, e.RunID, e.Seq, e.TimestampNS, e.EventType,
			e.ActorID, e.TargetID, e.Payload, e.Day,
		)
		if err != nil {
			return fmt.Errorf("failed to append event %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event batch: %w", err)
	}
	return nil
}

func (r *SQLRepository) SaveDayReport(ctx context.Context, report StoredDayReport) error {
	query := r.db.Rebind(`
		INSERT INTO day_reports (run_id, day, occupancy, queue_length, report)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (run_id, day) DO UPDATE SET
			occupancy = excluded.occupancy,
			queue_length = excluded.queue_length,
			report = excluded.report
	`)
	_, err := r.db.ExecContext(ctx, query,
		report.RunID, report.Day, report.Occupancy, report.QueueLength, report.Report,
	)
	if err != nil {
		return fmt.Errorf("failed to save day report: %w", err)
	}
	return nil
}

func (r *SQLRepository) SaveRun(ctx context.Context, run StoredRun) error {
	query := r.db.Rebind(`
		INSERT INTO runs (run_id, outcome, days, summary, updated_ns)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (run_id) DO UPDATE SET
			outcome = excluded.outcome,
			days = excluded.days,
			summary = excluded.summary,
			updated_ns = excluded.updated_ns
	`)
	_, err := r.db.ExecContext(ctx, query, run.RunID, run.Outcome, run.Days, run.Summary, run.UpdatedNS)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

const eventColumns = `id, run_id, seq, timestamp_ns, event_type, actor_id, target_id, payload, day`

func (r *SQLRepository) EventsByRun(ctx context.Context, runID string) ([]StoredEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE run_id = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, runID)
}

func (r *SQLRepository) EventsInvolving(ctx context.Context, runID, id string) ([]StoredEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE run_id = ? AND (actor_id = ? OR target_id = ?)
		ORDER BY seq ASC`
	return r.getMany(ctx, query, runID, id, id)
}

func (r *SQLRepository) getMany(ctx context.Context, query string, args ...any) ([]StoredEvent, error) {
	var events []StoredEvent
	if err := r.db.SelectContext(ctx, &events, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return events, nil
}

func (r *SQLRepository) DayReports(ctx context.Context, runID string) ([]StoredDayReport, error) {
	var reports []StoredDayReport
	query := r.db.Rebind(`SELECT run_id, day, occupancy, queue_length, report FROM day_reports WHERE run_id = ? ORDER BY day ASC`)
	if err := r.db.SelectContext(ctx, &reports, query, runID); err != nil {
		return nil, fmt.Errorf("failed to query day reports: %w", err)
	}
	return reports, nil
}

func (r *SQLRepository) Run(ctx context.Context, runID string) (StoredRun, error) {
	var run StoredRun
	query := r.db.Rebind(`SELECT run_id, outcome, days, summary, updated_ns FROM runs WHERE run_id = ?`)
	err := r.db.GetContext(ctx, &run, query, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredRun{}, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return StoredRun{}, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

func (r *SQLRepository) Runs(ctx context.Context) ([]StoredRun, error) {
	var runs []StoredRun
	query := `SELECT run_id, outcome, days, summary, updated_ns FROM runs ORDER BY updated_ns DESC`
	if err := r.db.SelectContext(ctx, &runs, query); err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return runs, nil
}

// Ensure SQLRepository implements Repository
var _ Repository = (*SQLRepository)(nil)
