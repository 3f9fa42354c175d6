package engine

import (
	"fmt"

	"github.com/MRamiBalles/ecshospital/internal/domain/patient"
	"github.com/MRamiBalles/ecshospital/internal/domain/staff"
	"github.com/MRamiBalles/ecshospital/internal/events"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
)

// MatchingSystem runs the once-per-day greedy pairing of free providers with
// untreated patients. Providers go in registration order, patients in bed
// order; the first acceptable pair wins. It is not a maximum matching.
type MatchingSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewMatchingSystem creates the matching pass.
func NewMatchingSystem(eventLog *events.EventLog, log *logger.Logger) *MatchingSystem {
	return &MatchingSystem{
		eventLog: eventLog,
		logger:   log.With("system", "matching"),
	}
}

func eligible(p *patient.Patient) bool {
	return !p.TakenCareOf() && p.State() == patient.Ill
}

// Match assigns at most one patient to every provider that is free at the
// start of the pass.
func (ms *MatchingSystem) Match(day int, w *Ward) []AssignmentRecord {
	free := make([]*staff.Provider, 0, len(w.Providers))
	for _, prov := range w.Providers {
		if prov.IsFree() {
			free = append(free, prov)
		}
	}

	var out []AssignmentRecord
	for _, prov := range free {
		for bed, p := range w.Beds.Occupied() {
			if !eligible(p) {
				continue
			}
			payload := events.AssignmentPayload{
				ProviderID: prov.ID,
				Specialism: string(prov.Specialism),
				PatientID:  p.ID,
				Bed:        bed,
				Illness:    p.Illness,
			}
			if !prov.TryAssign(bed, p) {
				ms.eventLog.Append(events.Event{
					Type:     events.EventTypeAssignmentRefused,
					ActorID:  providerActor(prov),
					TargetID: p.ID,
					Day:      day,
					Payload:  payload,
				})
				ms.logger.Debug(fmt.Sprintf("Provider %d cannot take patient %s (illness %d)", prov.ID, p.ID, p.Illness))
				continue
			}

			out = append(out, AssignmentRecord{
				ProviderID: prov.ID,
				Specialism: string(prov.Specialism),
				PatientID:  p.ID,
				Bed:        bed,
			})
			ms.eventLog.Append(events.Event{
				Type:     events.EventTypePatientAssigned,
				ActorID:  providerActor(prov),
				TargetID: p.ID,
				Day:      day,
				Payload:  payload,
			})
			ms.logger.Event(string(events.EventTypePatientAssigned), providerActor(prov),
				fmt.Sprintf("%s assigned to patient %s in bed %d", prov.Specialism, p.ID, bed))
			break
		}
	}
	return out
}

// Release clears every provider's assignment at the end of the day. A patient
// left Ill loses its claim so tomorrow's pass sees it again.
func (ms *MatchingSystem) Release(w *Ward) {
	for _, prov := range w.Providers {
		a, ok := prov.EndOfDay()
		if !ok {
			continue
		}
		if p, ok := w.PatientAt(a); ok {
			p.ReleaseCare()
		}
	}
}

func providerActor(p *staff.Provider) string {
	return fmt.Sprintf("DR-%d", p.ID)
}
