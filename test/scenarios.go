// Package test holds end-to-end ward scenarios that exercise the whole
// engine: admission, matching, treatment, recovery and theatre turnover.
// They run from go test and from cmd/scenario-runner.
package test

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/ecshospital/internal/domain/patient"
	"github.com/MRamiBalles/ecshospital/internal/engine"
	"github.com/MRamiBalles/ecshospital/internal/events"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
)

// Scenario is one configured hospital and the conditions its run must meet.
type Scenario struct {
	Name    string
	Setup   engine.Setup
	Options engine.Options
	Check   func(run *Run) error
}

// Run is what a finished scenario produced.
type Run struct {
	Summary  engine.RunSummary
	Reports  []engine.DayReport
	EventLog *events.EventLog
}

// Result captures the outcome of each scenario.
type Result struct {
	Name    string
	Outcome engine.Outcome
	Days    int
	Passed  bool
	Reason  string
}

type collector struct {
	mu      sync.Mutex
	reports []engine.DayReport
}

func (c *collector) Report(_ context.Context, r engine.DayReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, r)
	return nil
}

func ill(illness int) engine.PatientRecord {
	return engine.PatientRecord{Gender: "M", Age: 40, Illness: illness, Recovery: patient.NeedsTreatment}
}

func recovering(illness, days int) engine.PatientRecord {
	return engine.PatientRecord{Gender: "F", Age: 65, Illness: illness, Recovery: days}
}

func providers(specialisms ...string) []engine.ProviderRecord {
	out := make([]engine.ProviderRecord, 0, len(specialisms))
	for _, s := range specialisms {
		out = append(out, engine.ProviderRecord{Gender: "F", Age: 45, Specialism: s})
	}
	return out
}

// Standard returns the reference scenarios.
func Standard() []Scenario {
	return []Scenario{
		{
			Name: "direct treatment",
			Setup: engine.Setup{
				Capacities: engine.Capacities{Beds: 1, Theatres: 0},
				Patients:   []engine.PatientRecord{ill(2)},
				Providers:  providers("doctor"),
			},
			Options: engine.Options{Seed: 7, MaxDays: 30},
			Check: func(run *Run) error {
				if run.Summary.Outcome != engine.OutcomeCompleted {
					return fmt.Errorf("outcome %s, want COMPLETED", run.Summary.Outcome)
				}
				if run.Summary.Days != 4 {
					return fmt.Errorf("discharged after %d days, want 4", run.Summary.Days)
				}
				return nil
			},
		},
		{
			Name: "unmatchable roster",
			Setup: engine.Setup{
				Capacities: engine.Capacities{Beds: 1, Theatres: 0},
				Patients:   []engine.PatientRecord{ill(4)},
				Providers:  providers("doctor"),
			},
			Options: engine.Options{Seed: 7, MaxDays: 30, StallDays: 3},
			Check: func(run *Run) error {
				if run.Summary.Outcome != engine.OutcomeStalled {
					return fmt.Errorf("outcome %s, want STALLED", run.Summary.Outcome)
				}
				if run.Summary.Occupancy != 1 || run.Summary.Discharged != 0 {
					return fmt.Errorf("patient should stay ILL in bed, got occupancy %d discharged %d",
						run.Summary.Occupancy, run.Summary.Discharged)
				}
				for _, r := range run.Reports {
					if len(r.Treatments) > 0 {
						return fmt.Errorf("day %d treated a patient nobody can match", r.Day)
					}
				}
				return nil
			},
		},
		{
			Name: "operation",
			Setup: engine.Setup{
				Capacities: engine.Capacities{Beds: 1, Theatres: 1},
				Patients:   []engine.PatientRecord{ill(4)},
				Providers:  providers("surgeon"),
			},
			Options: engine.Options{Seed: 42, MaxDays: 30},
			Check: func(run *Run) error {
				if len(run.Reports) == 0 || len(run.Reports[0].Treatments) != 1 {
					return fmt.Errorf("no operation on day 1")
				}
				day1 := run.Reports[0]
				op := day1.Treatments[0]
				if op.Theatre != 0 {
					return fmt.Errorf("operated in theatre %d, want 0", op.Theatre)
				}
				if day1.TheatresCleared != 1 {
					return fmt.Errorf("%d theatres cleared on day 1, want 1", day1.TheatresCleared)
				}
				if want := 1 + op.RecoveryDays; run.Summary.Days != want {
					return fmt.Errorf("discharged after %d days, want %d", run.Summary.Days, want)
				}
				return nil
			},
		},
		{
			Name: "admission pressure",
			Setup: engine.Setup{
				Capacities: engine.Capacities{Beds: 2, Theatres: 0},
				Patients:   []engine.PatientRecord{recovering(3, 1), recovering(3, 1), recovering(3, 1)},
			},
			Options: engine.Options{Seed: 1, MaxDays: 30},
			Check: func(run *Run) error {
				if len(run.Reports) < 2 {
					return fmt.Errorf("run ended after %d days", len(run.Reports))
				}
				if !run.Reports[0].UnderPressure || run.Reports[0].Deferred != 1 {
					return fmt.Errorf("day 1 should defer one patient under pressure")
				}
				if n := len(run.EventLog.GetByType(events.EventTypeUnderPressure)); n != 1 {
					return fmt.Errorf("%d pressure events, want 1", n)
				}
				if run.Summary.Outcome != engine.OutcomeCompleted || run.Summary.Discharged != 3 {
					return fmt.Errorf("outcome %s with %d discharged, want COMPLETED with 3",
						run.Summary.Outcome, run.Summary.Discharged)
				}
				return nil
			},
		},
	}
}

// RunOne simulates a single scenario.
func RunOne(ctx context.Context, sc Scenario, log *logger.Logger) (*Run, error) {
	col := &collector{}
	opts := sc.Options
	opts.Reporters = append(append([]engine.Reporter(nil), opts.Reporters...), col)

	eventLog := events.NewEventLog("scenario-"+sc.Name, nil)
	e, _ := engine.NewEngine(eventLog, log, sc.Setup, opts)
	summary, err := e.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &Run{Summary: summary, Reports: col.reports, EventLog: eventLog}, nil
}

// RunAll simulates every scenario in parallel. Results keep the input order.
func RunAll(ctx context.Context, scenarios []Scenario, log *logger.Logger) ([]Result, error) {
	results := make([]Result, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	for i, sc := range scenarios {
		g.Go(func() error {
			run, err := RunOne(gctx, sc, log.With("scenario", sc.Name))
			if err != nil {
				return fmt.Errorf("scenario %q: %w", sc.Name, err)
			}
			res := Result{Name: sc.Name, Outcome: run.Summary.Outcome, Days: run.Summary.Days, Passed: true}
			if sc.Check != nil {
				if err := sc.Check(run); err != nil {
					res.Passed = false
					res.Reason = err.Error()
				}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
