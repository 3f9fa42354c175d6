package engine

import (
	"fmt"

	"github.com/MRamiBalles/ecshospital/internal/events"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
)

// RecoverySystem advances recovery countdowns and discharges healthy patients.
type RecoverySystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewRecoverySystem creates the end-of-day ward round.
func NewRecoverySystem(eventLog *events.EventLog, log *logger.Logger) *RecoverySystem {
	return &RecoverySystem{
		eventLog: eventLog,
		logger:   log.With("system", "recovery"),
	}
}

// RecoveryResult is what one ward round did.
type RecoveryResult struct {
	Recoveries []RecoveryRecord
	Discharged []DischargeRecord
}

// EndOfDay walks the beds in index order.
func (rs *RecoverySystem) EndOfDay(day int, w *Ward) RecoveryResult {
	var res RecoveryResult

	for bed, p := range w.Beds.Occupied() {
		tick := p.EndOfDay()
		if tick.Ticked || tick.Healed {
			res.Recoveries = append(res.Recoveries, RecoveryRecord{
				PatientID: p.ID,
				Bed:       bed,
				Remaining: tick.Remaining,
				Healed:    tick.Healed,
			})
		}
		if tick.Ticked {
			rs.eventLog.Append(events.Event{
				Type:    events.EventTypeRecoveryTick,
				ActorID: p.ID,
				Day:     day,
				Payload: events.RecoveryPayload{PatientID: p.ID, Bed: bed, Remaining: tick.Remaining},
			})
			rs.logger.Debug(fmt.Sprintf("Patient %s recovery time remaining: %d days", p.ID, tick.Remaining))
		}
		if tick.Healed {
			rs.eventLog.Append(events.Event{
				Type:    events.EventTypePatientHealed,
				ActorID: p.ID,
				Day:     day,
				Payload: events.RecoveryPayload{PatientID: p.ID, Bed: bed},
			})
		}

		if !p.IsHealthy() {
			continue
		}
		w.Beds.Release(bed)
		res.Discharged = append(res.Discharged, DischargeRecord{PatientID: p.ID, Bed: bed})
		rs.eventLog.Append(events.Event{
			Type:     events.EventTypePatientDischarged,
			ActorID:  events.ActorSystem,
			TargetID: p.ID,
			Day:      day,
			Payload:  events.RecoveryPayload{PatientID: p.ID, Bed: bed},
		})
		rs.logger.Event(string(events.EventTypePatientDischarged), p.ID, fmt.Sprintf("Patient discharged from bed %d", bed))
	}
	return res
}
