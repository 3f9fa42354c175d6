// Package events provides the append-only journal of everything the hospital does.
// Engine systems write here; the ward server, reporters and storage read from it.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a hospital event.
type EventType string

const (
	EventTypeDayStarted         EventType = "DAY_STARTED"
	EventTypeDayEnded           EventType = "DAY_ENDED"
	EventTypePatientAdmitted    EventType = "PATIENT_ADMITTED"
	EventTypeAdmissionDeferred  EventType = "ADMISSION_DEFERRED"
	EventTypeUnderPressure      EventType = "HOSPITAL_UNDER_PRESSURE"
	EventTypePatientAssigned    EventType = "PATIENT_ASSIGNED"
	EventTypeAssignmentRefused  EventType = "ASSIGNMENT_REFUSED"
	EventTypePatientTreated     EventType = "PATIENT_TREATED"
	EventTypePatientOperated    EventType = "PATIENT_OPERATED"
	EventTypeTheatreUnavailable EventType = "THEATRE_UNAVAILABLE"
	EventTypeTreatmentFailed    EventType = "TREATMENT_FAILED"
	EventTypeRecoveryTick       EventType = "RECOVERY_TICK"
	EventTypePatientHealed      EventType = "PATIENT_HEALED"
	EventTypePatientDischarged  EventType = "PATIENT_DISCHARGED"
	EventTypeTheatreCleared     EventType = "THEATRE_CLEARED"
	EventTypeRunFinished        EventType = "RUN_FINISHED"
	EventTypeIntakeRejected     EventType = "INTAKE_REJECTED"
	EventTypePatientQueued      EventType = "PATIENT_QUEUED"
)

// ActorSystem marks events raised by the simulation clock itself.
const ActorSystem = "SYSTEM_CLOCK"

// Event represents an immutable record of something that happened on the ward.
type Event struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	ActorID   string    `json:"actor_id"`  // provider, patient or system
	TargetID  string    `json:"target_id"` // optional
	Payload   any       `json:"payload"`
	Day       int       `json:"day"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event Event) error
}

// EventLog is the in-memory append-only log of one run's events.
type EventLog struct {
	mu        sync.RWMutex
	runID     string
	events    []Event
	persister EventPersister
	failed    int
}

// NewEventLog creates an event log with an optional persister.
func NewEventLog(runID string, persister EventPersister) *EventLog {
	return &EventLog{
		runID:     runID,
		events:    make([]Event, 0, 256),
		persister: persister,
	}
}

// RunID returns the run this log belongs to.
func (el *EventLog) RunID() string {
	return el.runID
}

// Append stamps and records an event. Missing IDs and timestamps are filled in.
func (el *EventLog) Append(event Event) Event {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.RunID = el.runID

	el.mu.Lock()
	defer el.mu.Unlock()
	el.events = append(el.events, event)

	// Persisters are expected to buffer; ordering follows Append order.
	if el.persister != nil {
		if err := el.persister.Append(event); err != nil {
			el.failed++
		}
	}
	return event
}

// PersistFailures counts events the persister refused.
func (el *EventLog) PersistFailures() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.failed
}

// Len returns the number of recorded events.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// GetByActor returns all events performed by a specific actor.
func (el *EventLog) GetByActor(actorID string) []Event {
	return el.filter(func(e Event) bool { return e.ActorID == actorID })
}

// GetByDay returns all events of a simulation day.
func (el *EventLog) GetByDay(day int) []Event {
	return el.filter(func(e Event) bool { return e.Day == day })
}

// GetByType returns all events of one type.
func (el *EventLog) GetByType(t EventType) []Event {
	return el.filter(func(e Event) bool { return e.Type == t })
}

// Involving returns events where id is the actor or the target.
func (el *EventLog) Involving(id string) []Event {
	return el.filter(func(e Event) bool { return e.ActorID == id || e.TargetID == id })
}

// Since returns a copy of the events from offset onwards.
func (el *EventLog) Since(offset int) []Event {
	el.mu.RLock()
	defer el.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(el.events) {
		return nil
	}
	out := make([]Event, len(el.events)-offset)
	copy(out, el.events[offset:])
	return out
}

// Replay returns a copy of the full history.
func (el *EventLog) Replay() []Event {
	return el.Since(0)
}

func (el *EventLog) filter(keep func(Event) bool) []Event {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []Event
	for _, e := range el.events {
		if keep(e) {
			result = append(result, e)
		}
	}
	return result
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
