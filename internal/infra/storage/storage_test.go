package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ecshospital/internal/engine"
	"github.com/MRamiBalles/ecshospital/internal/events"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
)

func openRepo(t *testing.T) *SQLRepository {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "data", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLRepository(db)
}

func runJournaled(t *testing.T, repo Repository, runID string, setup engine.Setup) (*events.EventLog, engine.RunSummary) {
	t.Helper()
	journal := NewJournal(repo, 256, logger.Nop())
	log := events.NewEventLog(runID, journal)

	e, rejected := engine.NewEngine(log, logger.Nop(), setup, engine.Options{
		MaxDays:   30,
		Reporters: []engine.Reporter{journal},
	})
	require.Empty(t, rejected)

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, journal.Close(ctx))
	require.Zero(t, log.PersistFailures())
	return log, summary
}

func singleDoctorSetup() engine.Setup {
	return engine.Setup{
		Capacities: engine.Capacities{Beds: 1, Theatres: 0},
		Patients:   []engine.PatientRecord{{Gender: "M", Age: 30, Illness: 2, Recovery: -1}},
		Providers:  []engine.ProviderRecord{{Gender: "F", Age: 50, Specialism: "doctor"}},
	}
}

func TestJournalPersistsRun(t *testing.T) {
	repo := openRepo(t)
	log, summary := runJournaled(t, repo, "run-a", singleDoctorSetup())
	ctx := context.Background()

	stored, err := repo.EventsByRun(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, stored, log.Len())
	for i, ev := range log.Replay() {
		assert.Equal(t, ev.ID, stored[i].ID)
		assert.Equal(t, string(ev.Type), stored[i].EventType)
	}

	run, err := repo.Run(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, string(engine.OutcomeCompleted), run.Outcome)
	assert.Equal(t, summary.Days, run.Days)

	reports, err := NewReconstructor(repo).DayReports(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, reports, 4)
	assert.Equal(t, 1, reports[0].Day)
	require.Len(t, reports[3].Discharged, 1)
	assert.Equal(t, "P001", reports[3].Discharged[0].PatientID)
}

func TestReconstructPatientTimeline(t *testing.T) {
	repo := openRepo(t)
	runJournaled(t, repo, "run-tl", singleDoctorSetup())

	tl, err := NewReconstructor(repo).PatientTimeline(context.Background(), "run-tl", "P001")
	require.NoError(t, err)

	assert.Equal(t, 1, tl.AdmittedDay)
	assert.Equal(t, 0, tl.Bed)
	assert.Equal(t, 2, tl.Illness)
	assert.Equal(t, 1, tl.TreatedDay)
	assert.False(t, tl.Operated)
	assert.Equal(t, 3, tl.RecoveryDays)
	assert.Equal(t, 4, tl.DischargedDay)
	assert.Equal(t, "DISCHARGED", tl.State)

	var types []string
	for _, e := range tl.Entries {
		types = append(types, e.EventType)
	}
	assert.Equal(t, []string{
		"PATIENT_ADMITTED", "PATIENT_ASSIGNED", "PATIENT_TREATED",
		"RECOVERY_TICK", "RECOVERY_TICK", "RECOVERY_TICK",
		"PATIENT_HEALED", "PATIENT_DISCHARGED",
	}, types)
}

func TestRebuildSummary(t *testing.T) {
	repo := openRepo(t)
	_, live := runJournaled(t, repo, "run-sum", engine.Setup{
		Capacities: engine.Capacities{Beds: 2, Theatres: 1},
		Patients: []engine.PatientRecord{
			{Gender: "F", Age: 60, Illness: 4, Recovery: -1},
			{Gender: "M", Age: 20, Illness: 3, Recovery: -1},
		},
		Providers: []engine.ProviderRecord{{Gender: "F", Age: 50, Specialism: "surgeon"}},
	})

	rebuilt, err := NewReconstructor(repo).RebuildSummary(context.Background(), "run-sum")
	require.NoError(t, err)

	assert.Equal(t, live.Outcome, rebuilt.Outcome)
	assert.Equal(t, live.Days, rebuilt.Days)
	assert.Equal(t, live.Admitted, rebuilt.Admitted)
	assert.Equal(t, live.Treated, rebuilt.Treated)
	assert.Equal(t, live.Operated, rebuilt.Operated)
	assert.Equal(t, live.Discharged, rebuilt.Discharged)
	assert.Zero(t, rebuilt.Occupancy)

	_, err = NewReconstructor(repo).RebuildSummary(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunsAreListedAndUpserted(t *testing.T) {
	repo := openRepo(t)
	runJournaled(t, repo, "first", singleDoctorSetup())
	runJournaled(t, repo, "second", singleDoctorSetup())

	runs, err := repo.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "second", runs[0].RunID)

	_, err = repo.Run(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

// gatedRepo blocks the first AppendEvents call until released.
type gatedRepo struct {
	Repository
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedRepo) AppendEvents(ctx context.Context, ev []StoredEvent) error {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return nil
}

func TestJournalBackpressureAndClose(t *testing.T) {
	repo := &gatedRepo{entered: make(chan struct{}), release: make(chan struct{})}
	j := NewJournal(repo, 1, logger.Nop())

	require.NoError(t, j.Append(events.Event{ID: "1", Timestamp: time.Now()}))
	<-repo.entered

	require.NoError(t, j.Append(events.Event{ID: "2", Timestamp: time.Now()}))
	assert.ErrorIs(t, j.Append(events.Event{ID: "3", Timestamp: time.Now()}), ErrJournalFull)

	close(repo.release)
	require.NoError(t, j.Close(context.Background()))
	require.NoError(t, j.Close(context.Background()))

	assert.ErrorIs(t, j.Append(events.Event{ID: "4"}), ErrJournalClosed)
	assert.ErrorIs(t, j.Report(context.Background(), engine.DayReport{}), ErrJournalClosed)
}
