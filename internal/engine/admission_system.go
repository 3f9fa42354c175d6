package engine

import (
	"errors"
	"fmt"

	"github.com/MRamiBalles/ecshospital/internal/domain/pool"
	"github.com/MRamiBalles/ecshospital/internal/events"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
)

// AdmissionSystem moves queued patients into free beds.
type AdmissionSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewAdmissionSystem creates the admission desk.
func NewAdmissionSystem(eventLog *events.EventLog, log *logger.Logger) *AdmissionSystem {
	return &AdmissionSystem{
		eventLog: eventLog,
		logger:   log.With("system", "admission"),
	}
}

// AdmissionResult is what one admission round did.
type AdmissionResult struct {
	Admitted      []AdmissionRecord
	Deferred      int
	UnderPressure bool
}

// Admit drains the queue in arrival order until the bed pool is exhausted.
// Patients that do not fit stay queued, in order, for a later day.
func (as *AdmissionSystem) Admit(day int, w *Ward) AdmissionResult {
	var res AdmissionResult

	admitted := 0
	for _, p := range w.Queue {
		bed, err := w.Beds.TryAcquire(p)
		if err != nil {
			if !errors.Is(err, pool.ErrResourceExhausted) {
				as.logger.Err(err, "unexpected admission failure")
			}
			res.UnderPressure = true
			break
		}
		admitted++

		rec := AdmissionRecord{
			PatientID: p.ID,
			Bed:       bed,
			Gender:    string(p.Gender),
			Age:       p.Age,
			State:     p.State().String(),
		}
		res.Admitted = append(res.Admitted, rec)

		as.eventLog.Append(events.Event{
			Type:     events.EventTypePatientAdmitted,
			ActorID:  events.ActorSystem,
			TargetID: p.ID,
			Day:      day,
			Payload: events.AdmissionPayload{
				PatientID: p.ID,
				Bed:       bed,
				Gender:    string(p.Gender),
				Age:       p.Age,
				Illness:   p.Illness,
				State:     p.State().String(),
			},
		})
		as.logger.Event(string(events.EventTypePatientAdmitted), p.ID,
			fmt.Sprintf("Patient admitted: aged %d, %s, bed %d", p.Age, p.Gender, bed))
	}

	waiting := w.Queue[admitted:]
	w.Queue = append(w.Queue[:0:0], waiting...)
	res.Deferred = len(waiting)

	if !res.UnderPressure {
		return res
	}

	for _, p := range waiting {
		as.eventLog.Append(events.Event{
			Type:     events.EventTypeAdmissionDeferred,
			ActorID:  events.ActorSystem,
			TargetID: p.ID,
			Day:      day,
			Payload: events.AdmissionPayload{
				PatientID: p.ID,
				Bed:       -1,
				Gender:    string(p.Gender),
				Age:       p.Age,
				Illness:   p.Illness,
				State:     p.State().String(),
			},
		})
	}
	as.eventLog.Append(events.Event{
		Type:    events.EventTypeUnderPressure,
		ActorID: events.ActorSystem,
		Day:     day,
		Payload: events.PressurePayload{Waiting: len(waiting), Capacity: w.Beds.Capacity()},
	})
	as.logger.Warn(fmt.Sprintf("Hospital is under pressure: no free beds, %d patients waiting", len(waiting)))
	return res
}
