package engine

import (
	"errors"
	"fmt"

	"github.com/MRamiBalles/ecshospital/internal/domain/staff"
	"github.com/MRamiBalles/ecshospital/internal/events"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
)

// TreatmentSystem lets every assigned provider treat or operate on its patient.
type TreatmentSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewTreatmentSystem creates the treatment step.
func NewTreatmentSystem(eventLog *events.EventLog, log *logger.Logger) *TreatmentSystem {
	return &TreatmentSystem{
		eventLog: eventLog,
		logger:   log.With("system", "treatment"),
	}
}

// TreatmentResult is what one treatment round did.
type TreatmentResult struct {
	Treatments []TreatmentRecord
	Failures   []FailureRecord
}

// Treat runs each assigned provider once. Failures are soft: they are
// recorded and the patient waits for another day.
func (ts *TreatmentSystem) Treat(day int, w *Ward) TreatmentResult {
	var res TreatmentResult
	booker := theatreBooker{theatres: w.Theatres}

	for _, prov := range w.Providers {
		a, ok := prov.Assigned()
		if !ok {
			continue
		}
		p, ok := w.PatientAt(a)
		if !ok {
			ts.logger.Warn(fmt.Sprintf("Provider %d holds a stale handle to %s in bed %d", prov.ID, a.PatientID, a.Bed))
			continue
		}

		tr, err := prov.Treat(p, w.Policy, booker)
		if err != nil {
			fail := FailureRecord{
				ProviderID: prov.ID,
				PatientID:  p.ID,
				Reason:     err.Error(),
				NoTheatre:  errors.Is(err, staff.ErrNoTheatreAvailable),
			}
			res.Failures = append(res.Failures, fail)
			ts.recordFailure(day, prov, p.ID, p.Illness, err)
			continue
		}

		res.Treatments = append(res.Treatments, TreatmentRecord{
			ProviderID:   prov.ID,
			PatientID:    p.ID,
			Mode:         string(tr.Mode),
			Theatre:      tr.Theatre,
			RecoveryDays: tr.RecoveryDays,
		})

		eventType := events.EventTypePatientTreated
		if tr.Mode == staff.ModeOperation {
			eventType = events.EventTypePatientOperated
		}
		ts.eventLog.Append(events.Event{
			Type:     eventType,
			ActorID:  providerActor(prov),
			TargetID: p.ID,
			Day:      day,
			Payload: events.TreatmentPayload{
				ProviderID:   prov.ID,
				PatientID:    p.ID,
				Illness:      p.Illness,
				Theatre:      tr.Theatre,
				RecoveryDays: tr.RecoveryDays,
			},
		})
		ts.logger.Event(string(eventType), providerActor(prov),
			fmt.Sprintf("Patient %s requires %d days to recover", p.ID, tr.RecoveryDays))
	}
	return res
}

func (ts *TreatmentSystem) recordFailure(day int, prov *staff.Provider, patientID string, illness int, err error) {
	eventType := events.EventTypeTreatmentFailed
	switch {
	case errors.Is(err, staff.ErrNoTheatreAvailable):
		eventType = events.EventTypeTheatreUnavailable
		ts.logger.Warn(fmt.Sprintf("No theatre for patient %s, retry tomorrow", patientID))
	case errors.Is(err, staff.ErrIncapableProvider):
		// matching should never pair these
		ts.logger.Err(err, "consistency failure: provider assigned outside its capability")
	default:
		ts.logger.Err(err, "treatment failed")
	}

	ts.eventLog.Append(events.Event{
		Type:     eventType,
		ActorID:  providerActor(prov),
		TargetID: patientID,
		Day:      day,
		Payload: events.TreatmentPayload{
			ProviderID: prov.ID,
			PatientID:  patientID,
			Illness:    illness,
			Theatre:    -1,
			Error:      err.Error(),
		},
	})
}
