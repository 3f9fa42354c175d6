package engine

import (
	"fmt"

	"github.com/MRamiBalles/ecshospital/internal/events"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
)

// TheatreSystem empties the operating theatres once a day. Operations that
// started today are complete by then, independent of the patient's bed.
type TheatreSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewTheatreSystem creates the theatre cleaner.
func NewTheatreSystem(eventLog *events.EventLog, log *logger.Logger) *TheatreSystem {
	return &TheatreSystem{
		eventLog: eventLog,
		logger:   log.With("system", "theatre"),
	}
}

// Clear frees every occupied theatre and returns how many were in use.
func (ts *TheatreSystem) Clear(day int, w *Ward) int {
	freed := w.Theatres.ReleaseAll()
	if freed == 0 {
		return 0
	}

	ts.eventLog.Append(events.Event{
		Type:    events.EventTypeTheatreCleared,
		ActorID: events.ActorSystem,
		Day:     day,
		Payload: events.TheatrePayload{Freed: freed},
	})
	ts.logger.Debug(fmt.Sprintf("%d theatres cleared", freed))
	return freed
}
