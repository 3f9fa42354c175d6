package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ecshospital/internal/engine"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
)

func TestStandardScenarios(t *testing.T) {
	results, err := RunAll(context.Background(), Standard(), logger.Nop())
	require.NoError(t, err)
	require.Len(t, results, len(Standard()))

	for _, r := range results {
		assert.True(t, r.Passed, "%s: %s", r.Name, r.Reason)
	}
	assert.Equal(t, engine.OutcomeStalled, results[1].Outcome)
}

func TestFailedCheckIsReported(t *testing.T) {
	sc := Standard()[0]
	sc.Options.MaxDays = 2

	results, err := RunAll(context.Background(), []Scenario{sc}, logger.Nop())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
	assert.Equal(t, engine.OutcomeDayLimit, results[0].Outcome)
	assert.Contains(t, results[0].Reason, "DAY_LIMIT")
}

func TestCancelledSuite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunAll(ctx, Standard(), logger.Nop())
	assert.ErrorIs(t, err, context.Canceled)
}
