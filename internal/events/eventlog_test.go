package events

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPersister struct {
	mu   sync.Mutex
	seen []Event
	err  error
}

func (p *recordingPersister) Append(e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, e)
	return p.err
}

func TestAppendStampsEvents(t *testing.T) {
	el := NewEventLog("RUN-1", nil)

	e := el.Append(Event{Type: EventTypeDayStarted, ActorID: ActorSystem, Day: 1})

	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, "RUN-1", e.RunID)
	assert.Equal(t, 1, el.Len())
}

func TestQueriesFilterHistory(t *testing.T) {
	el := NewEventLog("RUN-1", nil)
	el.Append(Event{Type: EventTypePatientAdmitted, ActorID: ActorSystem, TargetID: "P001", Day: 1})
	el.Append(Event{Type: EventTypePatientAssigned, ActorID: "DR-1", TargetID: "P001", Day: 1})
	el.Append(Event{Type: EventTypeRecoveryTick, ActorID: "P001", Day: 2})

	assert.Len(t, el.GetByDay(1), 2)
	assert.Len(t, el.GetByActor("DR-1"), 1)
	assert.Len(t, el.GetByType(EventTypeRecoveryTick), 1)
	assert.Len(t, el.Involving("P001"), 3)
	assert.Empty(t, el.GetByDay(5))
}

func TestSinceReturnsCopy(t *testing.T) {
	el := NewEventLog("RUN-1", nil)
	for day := 1; day <= 3; day++ {
		el.Append(Event{Type: EventTypeDayStarted, Day: day})
	}

	tail := el.Since(1)
	require.Len(t, tail, 2)
	assert.Equal(t, 2, tail[0].Day)

	tail[0].Day = 99
	assert.Equal(t, 2, el.Replay()[1].Day)
	assert.Nil(t, el.Since(3))
	assert.Len(t, el.Since(-4), 3)
}

func TestPersisterSeesEventsInOrder(t *testing.T) {
	p := &recordingPersister{}
	el := NewEventLog("RUN-1", p)
	for day := 1; day <= 5; day++ {
		el.Append(Event{Type: EventTypeDayEnded, Day: day})
	}

	require.Len(t, p.seen, 5)
	for i, e := range p.seen {
		assert.Equal(t, i+1, e.Day)
	}
	assert.Zero(t, el.PersistFailures())
}

func TestPersisterFailuresAreCounted(t *testing.T) {
	el := NewEventLog("RUN-1", &recordingPersister{err: errors.New("disk full")})
	el.Append(Event{Type: EventTypeDayEnded})
	el.Append(Event{Type: EventTypeDayEnded})

	assert.Equal(t, 2, el.Len(), "in-memory history is kept even when persistence fails")
	assert.Equal(t, 2, el.PersistFailures())
}
