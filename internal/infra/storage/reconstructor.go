package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MRamiBalles/ecshospital/internal/engine"
	"github.com/MRamiBalles/ecshospital/internal/events"
)

// Reconstructor rebuilds patient histories and run summaries from the
// journal. State = f(events): nothing here reads the live engine.
type Reconstructor struct {
	repo Repository
}

// NewReconstructor creates a new state reconstructor.
func NewReconstructor(repo Repository) *Reconstructor {
	return &Reconstructor{repo: repo}
}

// TimelineEntry is one line of a patient's history.
type TimelineEntry struct {
	Day       int       `json:"day"`
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	Summary   string    `json:"summary"`
}

// PatientTimeline is a patient's stay as recorded in the journal.
type PatientTimeline struct {
	RunID         string          `json:"run_id"`
	PatientID     string          `json:"patient_id"`
	Illness       int             `json:"illness"`
	Bed           int             `json:"bed"`
	AdmittedDay   int             `json:"admitted_day"` // 0 if still queued
	TreatedDay    int             `json:"treated_day"`
	Operated      bool            `json:"operated"`
	RecoveryDays  int             `json:"recovery_days"`
	DischargedDay int             `json:"discharged_day"`
	State         string          `json:"state"`
	Entries       []TimelineEntry `json:"entries"`
}

// PatientTimeline replays every event involving patientID.
func (r *Reconstructor) PatientTimeline(ctx context.Context, runID, patientID string) (*PatientTimeline, error) {
	rows, err := r.repo.EventsInvolving(ctx, runID, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for patient: %w", err)
	}

	tl := &PatientTimeline{RunID: runID, PatientID: patientID, Bed: -1, State: "QUEUED"}
	for _, e := range rows {
		summary, err := r.apply(tl, e)
		if err != nil {
			return nil, err
		}
		tl.Entries = append(tl.Entries, TimelineEntry{
			Day:       e.Day,
			Timestamp: time.Unix(0, e.TimestampNS),
			EventType: e.EventType,
			Summary:   summary,
		})
	}
	return tl, nil
}

func decode[T any](e StoredEvent) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(e.Payload), &v); err != nil {
		return v, fmt.Errorf("event %s (%s): failed to unmarshal payload: %w", e.ID, e.EventType, err)
	}
	return v, nil
}

// apply folds one event into the timeline and describes it.
func (r *Reconstructor) apply(tl *PatientTimeline, e StoredEvent) (string, error) {
	switch events.EventType(e.EventType) {
	case events.EventTypePatientQueued:
		return "arrived at the admission desk", nil

	case events.EventTypePatientAdmitted:
		p, err := decode[events.AdmissionPayload](e)
		if err != nil {
			return "", err
		}
		tl.AdmittedDay, tl.Bed, tl.Illness, tl.State = e.Day, p.Bed, p.Illness, p.State
		return fmt.Sprintf("admitted to bed %d with illness %d", p.Bed, p.Illness), nil

	case events.EventTypeAdmissionDeferred:
		return "no free bed, waiting", nil

	case events.EventTypePatientAssigned:
		p, err := decode[events.AssignmentPayload](e)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("assigned to %s %d", p.Specialism, p.ProviderID), nil

	case events.EventTypePatientTreated, events.EventTypePatientOperated:
		p, err := decode[events.TreatmentPayload](e)
		if err != nil {
			return "", err
		}
		tl.TreatedDay, tl.RecoveryDays, tl.State = e.Day, p.RecoveryDays, "RECOVERING"
		if e.EventType == string(events.EventTypePatientOperated) {
			tl.Operated = true
			return fmt.Sprintf("operated in theatre %d, %d days to recover", p.Theatre, p.RecoveryDays), nil
		}
		return fmt.Sprintf("treated, %d days to recover", p.RecoveryDays), nil

	case events.EventTypeTheatreUnavailable, events.EventTypeTreatmentFailed:
		p, err := decode[events.TreatmentPayload](e)
		if err != nil {
			return "", err
		}
		return "treatment postponed: " + p.Error, nil

	case events.EventTypeRecoveryTick:
		p, err := decode[events.RecoveryPayload](e)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d days of recovery left", p.Remaining), nil

	case events.EventTypePatientHealed:
		tl.State = "HEALTHY"
		return "healthy", nil

	case events.EventTypePatientDischarged:
		tl.DischargedDay, tl.State = e.Day, "DISCHARGED"
		return "discharged", nil

	default:
		return e.EventType, nil
	}
}

// RebuildSummary recomputes a run's totals from its events. Outcome stays
// RUNNING until a RUN_FINISHED event has been journaled.
func (r *Reconstructor) RebuildSummary(ctx context.Context, runID string) (engine.RunSummary, error) {
	rows, err := r.repo.EventsByRun(ctx, runID)
	if err != nil {
		return engine.RunSummary{}, err
	}
	if len(rows) == 0 {
		return engine.RunSummary{}, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}

	s := engine.RunSummary{RunID: runID, Outcome: engine.OutcomeRunning}
	s.StartedAt = time.Unix(0, rows[0].TimestampNS)

	for _, e := range rows {
		switch events.EventType(e.EventType) {
		case events.EventTypePatientAdmitted:
			s.Admitted++
		case events.EventTypePatientTreated:
			s.Treated++
		case events.EventTypePatientOperated:
			s.Treated++
			s.Operated++
		case events.EventTypePatientDischarged:
			s.Discharged++
		case events.EventTypeDayEnded:
			p, err := decode[events.DayPayload](e)
			if err != nil {
				return s, err
			}
			s.Days, s.Occupancy, s.Waiting = e.Day, p.Occupancy, p.Queue
		case events.EventTypeRunFinished:
			p, err := decode[events.RunPayload](e)
			if err != nil {
				return s, err
			}
			s.Outcome = engine.Outcome(p.Outcome)
			s.FinishedAt = time.Unix(0, e.TimestampNS)
		}
	}
	return s, nil
}

// DayReports decodes the stored reports of a run.
func (r *Reconstructor) DayReports(ctx context.Context, runID string) ([]engine.DayReport, error) {
	rows, err := r.repo.DayReports(ctx, runID)
	if err != nil {
		return nil, err
	}
	out := make([]engine.DayReport, 0, len(rows))
	for _, row := range rows {
		var rep engine.DayReport
		if err := json.Unmarshal([]byte(row.Report), &rep); err != nil {
			return nil, fmt.Errorf("day %d: failed to unmarshal report: %w", row.Day, err)
		}
		out = append(out, rep)
	}
	return out, nil
}
