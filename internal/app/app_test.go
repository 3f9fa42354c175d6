package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ecshospital/internal/domain/patient"
	"github.com/MRamiBalles/ecshospital/internal/engine"
	"github.com/MRamiBalles/ecshospital/internal/platform/config"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
)

func TestOpenInMemory(t *testing.T) {
	infra, err := Open(context.Background(), config.Default(), logger.Nop())
	require.NoError(t, err)
	defer infra.Close(context.Background())

	assert.NotEmpty(t, infra.RunID)
	assert.Equal(t, infra.RunID, infra.EventLog.RunID())
	assert.Nil(t, infra.Journal)
	assert.Empty(t, infra.Reporters())
}

func TestOpenSQLiteJournalsRun(t *testing.T) {
	cfg := config.Default()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "ward.db")
	ctx := context.Background()

	infra, err := Open(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	require.NotNil(t, infra.Journal)
	require.Len(t, infra.Reporters(), 1)

	e, rejected := engine.NewEngine(infra.EventLog, logger.Nop(), engine.Setup{
		Capacities: engine.Capacities{Beds: 1},
		Patients:   []engine.PatientRecord{{Gender: "M", Age: 20, Illness: 1, Recovery: patient.NeedsTreatment}},
		Providers:  []engine.ProviderRecord{{Gender: "F", Age: 40, Specialism: "doctor"}},
	}, engine.Options{Seed: 3, MaxDays: 20, Reporters: infra.Reporters()})
	require.Empty(t, rejected)

	summary, err := e.Run(ctx)
	require.NoError(t, err)
	require.NoError(t, infra.Close(ctx))

	// Reopen the file and read the run back.
	again, err := Open(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	defer again.Close(ctx)

	run, err := again.Repo.Run(ctx, infra.RunID)
	require.NoError(t, err)
	assert.Equal(t, string(summary.Outcome), run.Outcome)
	assert.Equal(t, summary.Days, run.Days)
}
