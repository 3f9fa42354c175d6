package network

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ecshospital/internal/domain/patient"
	"github.com/MRamiBalles/ecshospital/internal/engine"
	"github.com/MRamiBalles/ecshospital/internal/events"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
)

func newTestWard(t *testing.T) (*engine.Engine, *events.EventLog) {
	t.Helper()
	log := events.NewEventLog("net-run", nil)
	e, rejected := engine.NewEngine(log, logger.Nop(), engine.Setup{
		Capacities: engine.Capacities{Beds: 2, Theatres: 1},
		Patients: []engine.PatientRecord{
			{Gender: "M", Age: 30, Illness: 2, Recovery: patient.NeedsTreatment},
		},
		Providers: []engine.ProviderRecord{{Gender: "F", Age: 50, Specialism: "doctor"}},
	}, engine.Options{Seed: 1, MaxDays: 30})
	require.Empty(t, rejected)
	return e, log
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestReportIsMissingUntilFirstDay(t *testing.T) {
	ward, log := newTestWard(t)
	router := NewRouter(ward, log, nil, logger.Nop())

	rec := serve(t, router, http.MethodGet, "/api/report", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err := ward.Step(context.Background())
	require.NoError(t, err)

	rec = serve(t, router, http.MethodGet, "/api/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report engine.DayReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Day)
	assert.Len(t, report.Admitted, 1)

	rec = serve(t, router, http.MethodGet, "/api/beds", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "net-run", status.RunID)
	require.Len(t, status.Board, 1)
	assert.Equal(t, "P001", status.Board[0].PatientID)
}

func TestAdmitOverHTTP(t *testing.T) {
	ward, log := newTestWard(t)
	router := NewRouter(ward, log, nil, logger.Nop())

	rec := serve(t, router, http.MethodPost, "/api/patients", `{"gender":"F","age":61,"illness":5,"recovery":-1}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"patient_id":"P002"`)
	assert.Equal(t, 2, ward.QueueLength(), "setup queue plus the new arrival")

	rec = serve(t, router, http.MethodPost, "/api/patients", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, router, http.MethodPost, "/api/patients", `{"gender":"F","age":61,"illness":42,"recovery":-1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(t, router, http.MethodGet, "/api/patients", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReplayFilters(t *testing.T) {
	ward, log := newTestWard(t)
	router := NewRouter(ward, log, nil, logger.Nop())
	_, err := ward.Step(context.Background())
	require.NoError(t, err)

	rec := serve(t, router, http.MethodGet, "/api/replay?day=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, router, http.MethodGet, "/api/replay?day=1&type=PATIENT_ADMITTED", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ReplayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.TotalEvents)
	assert.Equal(t, "P001 admitted to bed 0", resp.Events[0].Summary)

	rec = serve(t, router, http.MethodGet, "/api/replay/events/"+resp.Events[0].ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(t, router, http.MethodGet, "/api/replay/events/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, router, http.MethodGet, "/api/replay/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"DAY_STARTED":1`)
}

func TestProvidersListCapabilities(t *testing.T) {
	ward, log := newTestWard(t)
	router := NewRouter(ward, log, nil, logger.Nop())

	rec := serve(t, router, http.MethodGet, "/api/providers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var providers []engine.ProviderStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &providers))
	require.Len(t, providers, 1)
	assert.Equal(t, 1, providers[0].ID)
	assert.Equal(t, []int{1, 2, 3}, providers[0].Matchable)
}

func dialWard(t *testing.T, opts HubOptions) (*websocket.Conn, *Hub, *engine.Engine) {
	t.Helper()
	ward, log := newTestWard(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(ward, opts, logger.Nop())
	go hub.Run(ctx)

	srv := httptest.NewServer(NewRouter(ward, log, hub, logger.Nop()))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	return conn, hub, ward
}

func roundTrip(t *testing.T, conn *websocket.Conn, cmd Command) Envelope {
	t.Helper()
	require.NoError(t, conn.WriteJSON(cmd))
	return readEnvelope(t, conn)
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestWebSocketCommands(t *testing.T) {
	opts := DefaultHubOptions()
	opts.MaxMessagesPerSecond = 0
	conn, _, ward := dialWard(t, opts)

	env := roundTrip(t, conn, Command{Type: "STATUS"})
	require.Equal(t, "STATUS", env.Type)
	require.NotNil(t, env.Status)
	assert.Equal(t, "net-run", env.Status.RunID)
	assert.Zero(t, env.Status.Day)

	env = roundTrip(t, conn, Command{Type: "ADMIT", Patient: &engine.PatientRecord{
		Gender: "F", Age: 70, Illness: 1, Recovery: patient.NeedsTreatment,
	}})
	assert.Equal(t, "ADMITTED", env.Type)
	assert.Equal(t, "P002", env.PatientID)
	assert.Equal(t, 2, ward.QueueLength(), "setup queue plus the new arrival")

	env = roundTrip(t, conn, Command{Type: "ADMIT"})
	assert.Equal(t, "ERROR", env.Type)

	env = roundTrip(t, conn, Command{Type: "DANCE"})
	assert.Equal(t, "ERROR", env.Type)
	assert.Contains(t, env.Error, "DANCE")
}

func TestWebSocketRateLimit(t *testing.T) {
	opts := DefaultHubOptions()
	opts.MaxMessagesPerSecond = 1
	conn, _, _ := dialWard(t, opts)

	require.NoError(t, conn.WriteJSON(Command{Type: "STATUS"}))
	require.NoError(t, conn.WriteJSON(Command{Type: "STATUS"}))

	assert.Equal(t, "STATUS", readEnvelope(t, conn).Type)
	limited := readEnvelope(t, conn)
	assert.Equal(t, "ERROR", limited.Type)
	assert.Equal(t, "rate limited", limited.Error)
}

func TestEventsAreBroadcast(t *testing.T) {
	conn, hub, ward := dialWard(t, DefaultHubOptions())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.StartEventPoller(ctx, ward.GetEventLog())

	_, err := ward.Step(ctx)
	require.NoError(t, err)

	env := readEnvelope(t, conn)
	require.Equal(t, "EVENT", env.Type)
	require.NotNil(t, env.Event)
	assert.Equal(t, events.EventTypeDayStarted, env.Event.Type)
}

func TestSummaries(t *testing.T) {
	cases := []struct {
		event events.Event
		want  string
	}{
		{events.Event{Payload: events.AdmissionPayload{PatientID: "P004", Bed: -1}}, "P004 waits for a bed"},
		{events.Event{Payload: events.PressurePayload{Waiting: 3, Capacity: 2}}, "Hospital under pressure: 3 waiting for 2 beds"},
		{events.Event{Type: events.EventTypeAssignmentRefused, Payload: events.AssignmentPayload{ProviderID: 2, Specialism: "doctor", PatientID: "P001"}}, "doctor 2 cannot take P001"},
		{events.Event{Type: events.EventTypePatientDischarged, Payload: events.RecoveryPayload{PatientID: "P001", Bed: 4}}, "P001 discharged from bed 4"},
		{events.Event{Type: events.EventTypeTheatreCleared, Payload: events.TheatrePayload{Freed: 2}}, "2 theatres cleared"},
		{events.Event{Type: events.EventTypeDayStarted}, "DAY_STARTED"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, summarize(tc.event))
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonError(rec, "nope", http.StatusTeapot)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"nope"}`, string(bytes.TrimSpace(rec.Body.Bytes())))
}
