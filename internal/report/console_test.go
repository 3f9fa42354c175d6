package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ecshospital/internal/engine"
)

func TestConsolePrintsDay(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, false)

	err := c.Report(context.Background(), engine.DayReport{
		Day:           2,
		BedCapacity:   2,
		Occupancy:     2,
		QueueLength:   1,
		Deferred:      1,
		UnderPressure: true,
		Admitted:      []engine.AdmissionRecord{{PatientID: "P002", Bed: 1, Gender: "F", Age: 70, State: "ILL"}},
		Treatments:    []engine.TreatmentRecord{{ProviderID: 1, PatientID: "P001", Theatre: 0, RecoveryDays: 3}},
		Board: []engine.BedStatus{
			{Bed: 0, PatientID: "P001", Gender: "M", Age: 40, Illness: 4, State: "RECOVERING", RecoveryDays: 3},
			{Bed: 1, PatientID: "P002", Gender: "F", Age: 70, Illness: 1, State: "ILL", RecoveryDays: -1},
		},
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "=== 2nd day: 2/2 beds occupied, 1 patient waiting ===")
	assert.Contains(t, text, "HOSPITAL UNDER PRESSURE: 1 patient could not be admitted")
	assert.Contains(t, text, "P002 (F, 70) admitted to bed 1 as ILL")
	assert.Contains(t, text, "P001 treated in theatre 0 by provider 1, 3 days to recover")
	assert.Contains(t, text, "RECOVERING")
}

func TestConsoleEmptyBoard(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewConsole(&out, true).Report(context.Background(), engine.DayReport{Day: 4, BedCapacity: 5}))
	assert.Contains(t, out.String(), "4th day")
	assert.Contains(t, out.String(), "(all beds free)")
}

func TestConsoleSummaryOnlyWhenFinished(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, false)
	ctx := context.Background()

	require.NoError(t, c.RecordRun(ctx, engine.RunSummary{RunID: "r1", Outcome: engine.OutcomeRunning}))
	assert.Empty(t, out.String())

	require.NoError(t, c.RecordRun(ctx, engine.RunSummary{
		RunID: "r1", Outcome: engine.OutcomeCompleted, Days: 4, Admitted: 1200, Treated: 1, Discharged: 1,
	}))
	assert.Contains(t, out.String(), "Run r1 COMPLETED after 4 days")
	assert.Contains(t, out.String(), "1,200")
}
