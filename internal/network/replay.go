// Package network exposes a running hospital over HTTP and websockets:
// the ward API, the event replay and the live event stream.
package network

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/MRamiBalles/ecshospital/internal/events"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
)

// ReplayHandler serves the event history of the running hospital.
type ReplayHandler struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(el *events.EventLog, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		eventLog: el,
		logger:   log,
	}
}

// ReplayEvent is an event prepared for display.
type ReplayEvent struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Day       int    `json:"day"`
	Type      string `json:"type"`
	Actor     string `json:"actor"`
	Target    string `json:"target,omitempty"`
	Summary   string `json:"summary"`
	Payload   any    `json:"payload,omitempty"`
}

// ReplayResponse is the API response for a replay.
type ReplayResponse struct {
	RunID       string        `json:"run_id"`
	TotalEvents int           `json:"total_events"`
	FilteredBy  string        `json:"filtered_by,omitempty"`
	GeneratedAt string        `json:"generated_at"`
	Events      []ReplayEvent `json:"events"`
}

// HandleReplay returns the event history.
// GET /api/replay?day=N&type=PATIENT_ADMITTED&id=P001
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dayStr := q.Get("day")
	eventType := q.Get("type")
	id := q.Get("id")

	day := 0
	if dayStr != "" {
		d, err := strconv.Atoi(dayStr)
		if err != nil || d < 0 {
			jsonError(w, "Invalid day", http.StatusBadRequest)
			return
		}
		day = d
	}

	var source []events.Event
	switch {
	case id != "":
		source = rh.eventLog.Involving(id)
	case dayStr != "":
		source = rh.eventLog.GetByDay(day)
	default:
		source = rh.eventLog.Replay()
	}

	replay := make([]ReplayEvent, 0, len(source))
	for _, e := range source {
		if dayStr != "" && e.Day != day {
			continue
		}
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		replay = append(replay, toReplayEvent(e))
	}

	response := ReplayResponse{
		RunID:       rh.eventLog.RunID(),
		TotalEvents: len(replay),
		FilteredBy:  describeFilter(dayStr, eventType, id),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      replay,
	}

	rh.logger.Debug("Replay served: " + strconv.Itoa(len(replay)) + " events")
	writeJSON(w, http.StatusOK, response)
}

// HandleStats counts events per type.
// GET /api/replay/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	all := rh.eventLog.Replay()
	stats := map[string]int{"total_events": len(all)}
	for _, e := range all {
		stats[string(e.Type)]++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":       rh.eventLog.RunID(),
		"generated_at": time.Now().Format(time.RFC3339),
		"stats":        stats,
	})
}

// HandleEvent returns a single event.
// GET /api/replay/events/{id}
func (rh *ReplayHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	for _, e := range rh.eventLog.Replay() {
		if e.ID == id {
			writeJSON(w, http.StatusOK, toReplayEvent(e))
			return
		}
	}
	jsonError(w, "Event not found", http.StatusNotFound)
}

func describeFilter(day, eventType, id string) string {
	desc := ""
	if day != "" {
		desc += "day " + day + " "
	}
	if eventType != "" {
		desc += "type " + eventType + " "
	}
	if id != "" {
		desc += "id " + id
	}
	return desc
}

func toReplayEvent(e events.Event) ReplayEvent {
	return ReplayEvent{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format("15:04:05.000"),
		Day:       e.Day,
		Type:      string(e.Type),
		Actor:     e.ActorID,
		Target:    e.TargetID,
		Summary:   summarize(e),
		Payload:   e.Payload,
	}
}

// summarize creates a human-readable line for an event.
func summarize(e events.Event) string {
	switch p := e.Payload.(type) {
	case events.AdmissionPayload:
		if p.Bed < 0 {
			return fmt.Sprintf("%s waits for a bed", p.PatientID)
		}
		return fmt.Sprintf("%s admitted to bed %d", p.PatientID, p.Bed)
	case events.PressurePayload:
		return fmt.Sprintf("Hospital under pressure: %d waiting for %d beds", p.Waiting, p.Capacity)
	case events.AssignmentPayload:
		if e.Type == events.EventTypeAssignmentRefused {
			return fmt.Sprintf("%s %d cannot take %s", p.Specialism, p.ProviderID, p.PatientID)
		}
		return fmt.Sprintf("%s %d assigned to %s in bed %d", p.Specialism, p.ProviderID, p.PatientID, p.Bed)
	case events.TreatmentPayload:
		if p.Error != "" {
			return fmt.Sprintf("Treatment of %s postponed: %s", p.PatientID, p.Error)
		}
		return fmt.Sprintf("%s needs %d days to recover", p.PatientID, p.RecoveryDays)
	case events.RecoveryPayload:
		switch e.Type {
		case events.EventTypePatientDischarged:
			return fmt.Sprintf("%s discharged from bed %d", p.PatientID, p.Bed)
		case events.EventTypePatientHealed:
			return p.PatientID + " is healthy"
		}
		return fmt.Sprintf("%s: %d days left", p.PatientID, p.Remaining)
	case events.TheatrePayload:
		return fmt.Sprintf("%d theatres cleared", p.Freed)
	case events.DayPayload:
		return fmt.Sprintf("Day %d: %d beds occupied, %d queued", e.Day, p.Occupancy, p.Queue)
	case events.RunPayload:
		return fmt.Sprintf("Run %s after %d days", p.Outcome, p.Days)
	case events.IntakePayload:
		if p.Error != "" {
			return fmt.Sprintf("%s %q rejected", p.Kind, p.Record)
		}
		return fmt.Sprintf("%s %q queued", p.Kind, p.Record)
	default:
		return string(e.Type)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// jsonError sends an error response.
func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
