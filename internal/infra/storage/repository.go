// Package storage provides the persistence layer for the hospital journal.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"errors"
)

// ErrRunNotFound is returned when a run has no stored record.
var ErrRunNotFound = errors.New("run not found")

// StoredEvent mirrors events.Event for persistence. Payload is kept as the
// raw JSON document so rows can be read without knowing every payload type.
type StoredEvent struct {
	ID          string `json:"id" db:"id"`
	RunID       string `json:"run_id" db:"run_id"`
	Seq         int64  `json:"seq" db:"seq"`
	TimestampNS int64  `json:"timestamp_ns" db:"timestamp_ns"`
	EventType   string `json:"event_type" db:"event_type"`
	ActorID     string `json:"actor_id" db:"actor_id"`
	TargetID    string `json:"target_id" db:"target_id"`
	Payload     string `json:"payload" db:"payload"`
	Day         int    `json:"day" db:"day"`
}

// StoredDayReport is one engine.DayReport serialized as JSON.
type StoredDayReport struct {
	RunID       string `db:"run_id"`
	Day         int    `db:"day"`
	Occupancy   int    `db:"occupancy"`
	QueueLength int    `db:"queue_length"`
	Report      string `db:"report"`
}

// StoredRun is the latest engine.RunSummary of a run.
type StoredRun struct {
	RunID     string `db:"run_id"`
	Outcome   string `db:"outcome"`
	Days      int    `db:"days"`
	Summary   string `db:"summary"`
	UpdatedNS int64  `db:"updated_ns"`
}

// Repository stores and reads back journal rows.
type Repository interface {
	// AppendEvents inserts a batch of events in one transaction.
	AppendEvents(ctx context.Context, events []StoredEvent) error

	// SaveDayReport stores or replaces the report of one day.
	SaveDayReport(ctx context.Context, report StoredDayReport) error

	// SaveRun stores or replaces a run record.
	SaveRun(ctx context.Context, run StoredRun) error

	// EventsByRun returns a run's events in append order.
	EventsByRun(ctx context.Context, runID string) ([]StoredEvent, error)

	// EventsInvolving returns events where id is the actor or the target.
	EventsInvolving(ctx context.Context, runID, id string) ([]StoredEvent, error)

	// DayReports returns a run's reports ordered by day.
	DayReports(ctx context.Context, runID string) ([]StoredDayReport, error)

	// Run returns one run record or ErrRunNotFound.
	Run(ctx context.Context, runID string) (StoredRun, error)

	// Runs lists every run, most recently updated first.
	Runs(ctx context.Context) ([]StoredRun, error)
}
