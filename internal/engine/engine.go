package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MRamiBalles/ecshospital/internal/domain/patient"
	"github.com/MRamiBalles/ecshospital/internal/domain/rules"
	"github.com/MRamiBalles/ecshospital/internal/events"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
	"github.com/MRamiBalles/ecshospital/internal/platform/metrics"
)

// Options tunes a single hospital run.
type Options struct {
	Seed        uint64
	MaxDays     int                 // 0 means no limit
	StallDays   int                 // consecutive idle days before a run is declared stalled; 0 disables
	Ranges      map[int]rules.Range // nil means rules.DefaultRanges()
	DayInterval time.Duration       // real time per day when driven by Start
	Reporters   []Reporter
}

// Engine is one hospital: it owns the ward and runs the six steps of a day
// in order, each completing before the next begins.
type Engine struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
	ticker   *Ticker

	// Sub-systems
	admissionSystem *AdmissionSystem
	matchingSystem  *MatchingSystem
	treatmentSystem *TreatmentSystem
	recoverySystem  *RecoverySystem
	theatreSystem   *TheatreSystem

	opts       Options
	capacities Capacities
	reporters  []Reporter

	// State, guarded by mu
	mu         sync.RWMutex
	ward       *Ward
	day        int
	idleDays   int
	lastReport *DayReport
	totals     RunSummary

	// Runtime intake, guarded by inboxMu
	inboxMu     sync.Mutex
	inbox       []*patient.Patient
	nextPatient int
}

// NewEngine opens a hospital from setup. Records that fail validation are
// skipped, logged, journaled and returned; they never prevent the run.
func NewEngine(eventLog *events.EventLog, log *logger.Logger, setup Setup, opts Options) (*Engine, []error) {
	ranges := opts.Ranges
	if ranges == nil {
		ranges = rules.DefaultRanges()
	}
	policy := rules.NewRecoveryPolicy(ranges, opts.Seed)

	log = log.With("run_id", eventLog.RunID())
	e := &Engine{
		eventLog: eventLog,
		logger:   log,
		metrics:  metrics.Get(),

		admissionSystem: NewAdmissionSystem(eventLog, log),
		matchingSystem:  NewMatchingSystem(eventLog, log),
		treatmentSystem: NewTreatmentSystem(eventLog, log),
		recoverySystem:  NewRecoverySystem(eventLog, log),
		theatreSystem:   NewTheatreSystem(eventLog, log),

		opts:       opts,
		capacities: setup.Capacities,
		reporters:  opts.Reporters,
		ward:       NewWard(setup.Capacities, policy),
	}
	e.ticker = NewTicker(e, opts.DayInterval, log)
	e.totals = RunSummary{
		RunID:      eventLog.RunID(),
		Outcome:    OutcomeRunning,
		Capacities: setup.Capacities,
		Seed:       opts.Seed,
	}

	var rejected []error
	reject := func(kind, record string, err error) {
		rerr := &RecordError{Kind: kind, Record: record, Err: err}
		rejected = append(rejected, rerr)
		e.metrics.RecordIntakeRejection()
		e.logger.Warn(rerr.Error())
		e.eventLog.Append(events.Event{
			Type:    events.EventTypeIntakeRejected,
			ActorID: events.ActorSystem,
			Payload: events.IntakePayload{Kind: kind, Record: record, Error: err.Error()},
		})
	}

	for _, rec := range setup.Illnesses {
		if err := policy.Override(rec.Illness, rec.Min, rec.Max); err != nil {
			reject("illness", rec.String(), err)
		}
	}

	for _, rec := range setup.Providers {
		prov, err := buildProvider(len(e.ward.Providers)+1, rec)
		if err != nil {
			reject("provider", rec.String(), err)
			continue
		}
		e.ward.Providers = append(e.ward.Providers, prov)
	}

	for _, rec := range setup.Patients {
		p, err := buildPatient(e.peekPatientID(), rec, policy)
		if err != nil {
			reject("patient", rec.String(), err)
			continue
		}
		e.nextPatient++
		e.ward.Queue = append(e.ward.Queue, p)
	}

	e.logger.Info(fmt.Sprintf("Hospital with %d beds and %d theatres opened: %d providers, %d patients queued",
		setup.Capacities.Beds, setup.Capacities.Theatres, len(e.ward.Providers), len(e.ward.Queue)))
	return e, rejected
}

func (e *Engine) peekPatientID() string {
	return fmt.Sprintf("P%03d", e.nextPatient+1)
}

// Enqueue validates a patient arriving while the hospital is running. It is
// admitted at the start of the next simulated day. Safe for concurrent use.
func (e *Engine) Enqueue(rec PatientRecord) (string, error) {
	e.inboxMu.Lock()
	defer e.inboxMu.Unlock()

	p, err := buildPatient(e.peekPatientID(), rec, e.ward.Policy)
	if err != nil {
		e.metrics.RecordIntakeRejection()
		e.eventLog.Append(events.Event{
			Type:    events.EventTypeIntakeRejected,
			ActorID: events.ActorSystem,
			Payload: events.IntakePayload{Kind: "patient", Record: rec.String(), Error: err.Error()},
		})
		return "", &RecordError{Kind: "patient", Record: rec.String(), Err: err}
	}
	e.nextPatient++
	e.inbox = append(e.inbox, p)

	e.eventLog.Append(events.Event{
		Type:     events.EventTypePatientQueued,
		ActorID:  events.ActorSystem,
		TargetID: p.ID,
		Payload:  events.IntakePayload{Kind: "patient", Record: rec.String()},
	})
	return p.ID, nil
}

func (e *Engine) drainInbox() {
	e.inboxMu.Lock()
	defer e.inboxMu.Unlock()
	e.ward.Queue = append(e.ward.Queue, e.inbox...)
	e.inbox = nil
}

// Start drives the hospital in real time, one day per DayInterval.
func (e *Engine) Start(ctx context.Context) {
	e.logger.Info("Starting hospital clock...")
	go e.ticker.Start(ctx)
}

// Stop halts a clock started with Start.
func (e *Engine) Stop() {
	e.ticker.Stop()
}

// Step simulates exactly one day and notifies every reporter.
func (e *Engine) Step(ctx context.Context) (DayReport, error) {
	if err := ctx.Err(); err != nil {
		return DayReport{}, err
	}
	started := time.Now()

	e.mu.Lock()
	report := e.simulateDay()
	e.mu.Unlock()

	e.metrics.RecordDay(time.Since(started))
	e.metrics.RecordFlow(metrics.DayFlow{
		Admitted:          len(report.Admitted),
		Deferred:          report.Deferred,
		UnderPressure:     report.UnderPressure,
		Treated:           len(report.Treatments) - report.Operations(),
		Operated:          report.Operations(),
		TheatreFailures:   report.TheatreFailures(),
		TreatmentFailures: len(report.Failures) - report.TheatreFailures(),
		Discharged:        len(report.Discharged),
		Occupancy:         report.Occupancy,
		Queue:             report.QueueLength,
	})

	for _, r := range e.reporters {
		if err := r.Report(ctx, report); err != nil {
			e.logger.Err(err, fmt.Sprintf("reporter failed for day %d", report.Day))
		}
	}
	return report, nil
}

// simulateDay runs the six steps of one day. Callers hold mu.
func (e *Engine) simulateDay() DayReport {
	e.day++
	day := e.day
	w := e.ward

	e.drainInbox()
	e.eventLog.Append(events.Event{
		Type:    events.EventTypeDayStarted,
		ActorID: events.ActorSystem,
		Day:     day,
		Payload: events.DayPayload{Occupancy: w.Beds.OccupiedCount(), Queue: len(w.Queue)},
	})

	admission := e.admissionSystem.Admit(day, w)
	assignments := e.matchingSystem.Match(day, w)
	treatment := e.treatmentSystem.Treat(day, w)
	e.matchingSystem.Release(w)
	recovery := e.recoverySystem.EndOfDay(day, w)
	cleared := e.theatreSystem.Clear(day, w)

	report := DayReport{
		RunID:           e.eventLog.RunID(),
		Day:             day,
		BedCapacity:     w.Beds.Capacity(),
		TheatreCapacity: w.Theatres.Capacity(),
		Admitted:        admission.Admitted,
		Deferred:        admission.Deferred,
		UnderPressure:   admission.UnderPressure,
		Assignments:     assignments,
		Treatments:      treatment.Treatments,
		Failures:        treatment.Failures,
		Recoveries:      recovery.Recoveries,
		Discharged:      recovery.Discharged,
		TheatresCleared: cleared,
		Board:           e.board(),
		Occupancy:       w.Beds.OccupiedCount(),
		QueueLength:     len(w.Queue),
	}
	report.Progress = len(report.Admitted) > 0 || len(report.Treatments) > 0 ||
		len(report.Recoveries) > 0 || len(report.Discharged) > 0

	if report.Progress {
		e.idleDays = 0
	} else {
		e.idleDays++
	}

	e.totals.Days = day
	e.totals.Admitted += len(report.Admitted)
	e.totals.Treated += len(report.Treatments)
	e.totals.Operated += report.Operations()
	e.totals.Discharged += len(report.Discharged)
	e.totals.Waiting = report.QueueLength
	e.totals.Occupancy = report.Occupancy
	e.lastReport = &report

	e.eventLog.Append(events.Event{
		Type:    events.EventTypeDayEnded,
		ActorID: events.ActorSystem,
		Day:     day,
		Payload: events.DayPayload{Occupancy: report.Occupancy, Queue: report.QueueLength, Progress: report.Progress},
	})
	return report
}

// board lists occupied beds in index order. Callers hold mu.
func (e *Engine) board() []BedStatus {
	var out []BedStatus
	for bed, p := range e.ward.Beds.Occupied() {
		days, ok := p.RecoveryDays()
		if !ok {
			days = -1
		}
		out = append(out, BedStatus{
			Bed:          bed,
			PatientID:    p.ID,
			Gender:       string(p.Gender),
			Age:          p.Age,
			Illness:      p.Illness,
			State:        p.State().String(),
			RecoveryDays: days,
			TakenCareOf:  p.TakenCareOf(),
		})
	}
	return out
}

// outcome decides whether the run is over after a completed day. Callers hold mu.
func (e *Engine) outcome() Outcome {
	e.inboxMu.Lock()
	pending := len(e.inbox)
	e.inboxMu.Unlock()

	switch {
	case e.ward.Beds.OccupiedCount() == 0 && len(e.ward.Queue) == 0 && pending == 0:
		return OutcomeCompleted
	case e.opts.StallDays > 0 && e.idleDays >= e.opts.StallDays:
		return OutcomeStalled
	case e.opts.MaxDays > 0 && e.day >= e.opts.MaxDays:
		return OutcomeDayLimit
	default:
		return OutcomeRunning
	}
}

// Run simulates days until the ward is empty, the run stalls, the day limit
// is hit or ctx is cancelled. Cancellation is only observed between days.
func (e *Engine) Run(ctx context.Context) (RunSummary, error) {
	e.mu.Lock()
	e.totals.StartedAt = time.Now()
	start := e.totals
	e.mu.Unlock()
	e.recordRun(ctx, start)

	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			e.mu.Lock()
			e.totals.Outcome = OutcomeCancelled
			e.mu.Unlock()
			runErr = err
			break
		}
		if _, err := e.Step(ctx); err != nil {
			runErr = err
			continue
		}

		e.mu.Lock()
		outcome := e.outcome()
		e.totals.Outcome = outcome
		e.mu.Unlock()
		if outcome != OutcomeRunning {
			break
		}
	}

	e.mu.Lock()
	e.totals.FinishedAt = time.Now()
	summary := e.totals
	e.mu.Unlock()

	e.eventLog.Append(events.Event{
		Type:    events.EventTypeRunFinished,
		ActorID: events.ActorSystem,
		Day:     summary.Days,
		Payload: events.RunPayload{
			Outcome:    string(summary.Outcome),
			Days:       summary.Days,
			Discharged: summary.Discharged,
			Waiting:    summary.Waiting,
			Occupancy:  summary.Occupancy,
		},
	})
	e.logger.Info(fmt.Sprintf("Run finished after %d days: %s", summary.Days, summary.Outcome))
	e.recordRun(context.WithoutCancel(ctx), summary)
	return summary, runErr
}

func (e *Engine) recordRun(ctx context.Context, summary RunSummary) {
	for _, r := range e.reporters {
		rec, ok := r.(RunRecorder)
		if !ok {
			continue
		}
		if err := rec.RecordRun(ctx, summary); err != nil {
			e.logger.Err(err, "failed to record run")
		}
	}
}

// RunID returns the identifier shared by the event log and all reports.
func (e *Engine) RunID() string {
	return e.eventLog.RunID()
}

// GetEventLog exposes the event log for the ward server.
func (e *Engine) GetEventLog() *events.EventLog {
	return e.eventLog
}

// Day returns the number of completed days.
func (e *Engine) Day() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.day
}

// Board returns the current bed board.
func (e *Engine) Board() []BedStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.board()
}

// LastReport returns the most recent DayReport.
func (e *Engine) LastReport() (DayReport, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastReport == nil {
		return DayReport{}, false
	}
	return *e.lastReport, true
}

// Summary returns the running totals.
func (e *Engine) Summary() RunSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.totals
}

// ProviderStatus is a roster entry as shown by the ward server.
type ProviderStatus struct {
	ID         int    `json:"id"`
	Gender     string `json:"gender"`
	Age        int    `json:"age"`
	Specialism string `json:"specialism"`
	Matchable  []int  `json:"matchable"`
}

// Providers returns the roster in registration order.
func (e *Engine) Providers() []ProviderStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]ProviderStatus, 0, len(e.ward.Providers))
	for _, p := range e.ward.Providers {
		var matchable []int
		for _, code := range e.ward.Policy.Illnesses() {
			if p.CanMatch(code) {
				matchable = append(matchable, code)
			}
		}
		out = append(out, ProviderStatus{
			ID:         p.ID,
			Gender:     string(p.Gender),
			Age:        p.Age,
			Specialism: string(p.Specialism),
			Matchable:  matchable,
		})
	}
	return out
}

// QueueLength returns patients waiting for a bed, including runtime arrivals
// not yet drained.
func (e *Engine) QueueLength() int {
	e.mu.RLock()
	queued := len(e.ward.Queue)
	e.mu.RUnlock()

	e.inboxMu.Lock()
	defer e.inboxMu.Unlock()
	return queued + len(e.inbox)
}
