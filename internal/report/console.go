// Package report renders day reports and run summaries for people.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/MRamiBalles/ecshospital/internal/engine"
)

// Console writes a plain-text bed board for every simulated day.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// NewConsole creates a console reporter. Verbose adds assignments,
// recoveries and failures to each day.
func NewConsole(out io.Writer, verbose bool) *Console {
	return &Console{out: out, verbose: verbose}
}

// Report prints one day.
func (c *Console) Report(_ context.Context, r engine.DayReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "=== %s day: %d/%d beds occupied, %s waiting ===\n",
		humanize.Ordinal(r.Day), r.Occupancy, r.BedCapacity, english.Plural(r.QueueLength, "patient", ""))

	if r.UnderPressure {
		fmt.Fprintf(&b, "!!! HOSPITAL UNDER PRESSURE: %s could not be admitted\n",
			english.Plural(r.Deferred, "patient", ""))
	}
	for _, a := range r.Admitted {
		fmt.Fprintf(&b, "  + %s (%s, %d) admitted to bed %d as %s\n", a.PatientID, a.Gender, a.Age, a.Bed, a.State)
	}
	if c.verbose {
		for _, a := range r.Assignments {
			fmt.Fprintf(&b, "  ~ %s %d takes %s in bed %d\n", a.Specialism, a.ProviderID, a.PatientID, a.Bed)
		}
	}
	for _, t := range r.Treatments {
		where := "on the ward"
		if t.Theatre >= 0 {
			where = fmt.Sprintf("in theatre %d", t.Theatre)
		}
		fmt.Fprintf(&b, "  * %s treated %s by provider %d, %s to recover\n",
			t.PatientID, where, t.ProviderID, english.Plural(t.RecoveryDays, "day", ""))
	}
	for _, f := range r.Failures {
		if f.NoTheatre || c.verbose {
			fmt.Fprintf(&b, "  x %s not treated: %s\n", f.PatientID, f.Reason)
		}
	}
	if c.verbose {
		for _, rec := range r.Recoveries {
			fmt.Fprintf(&b, "  . %s has %s left\n", rec.PatientID, english.Plural(rec.Remaining, "day", ""))
		}
	}
	for _, d := range r.Discharged {
		fmt.Fprintf(&b, "  - %s discharged from bed %d\n", d.PatientID, d.Bed)
	}

	writeBoard(&b, r.Board)

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, b.String())
	return err
}

func writeBoard(b *strings.Builder, board []engine.BedStatus) {
	if len(board) == 0 {
		b.WriteString("  (all beds free)\n")
		return
	}
	fmt.Fprintf(b, "  %-4s %-6s %-3s %-4s %-8s %-11s %s\n", "BED", "ID", "SEX", "AGE", "ILLNESS", "STATE", "DAYS")
	for _, s := range board {
		days := "-"
		if s.RecoveryDays >= 0 {
			days = fmt.Sprint(s.RecoveryDays)
		}
		fmt.Fprintf(b, "  %-4d %-6s %-3s %-4d %-8d %-11s %s\n", s.Bed, s.PatientID, s.Gender, s.Age, s.Illness, s.State, days)
	}
}

// RecordRun prints the final summary once the run has an outcome.
func (c *Console) RecordRun(_ context.Context, s engine.RunSummary) error {
	if s.Outcome == engine.OutcomeRunning {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Run %s %s after %s ===\n", s.RunID, s.Outcome, english.Plural(s.Days, "day", ""))
	fmt.Fprintf(&b, "  admitted:   %s\n", humanize.Comma(int64(s.Admitted)))
	fmt.Fprintf(&b, "  treated:    %s (%s in theatre)\n", humanize.Comma(int64(s.Treated)), humanize.Comma(int64(s.Operated)))
	fmt.Fprintf(&b, "  discharged: %s\n", humanize.Comma(int64(s.Discharged)))
	fmt.Fprintf(&b, "  in beds:    %s\n", humanize.Comma(int64(s.Occupancy)))
	fmt.Fprintf(&b, "  waiting:    %s\n", humanize.Comma(int64(s.Waiting)))
	if !s.StartedAt.IsZero() && !s.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "  wall time:  %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, b.String())
	return err
}

var (
	_ engine.Reporter    = (*Console)(nil)
	_ engine.RunRecorder = (*Console)(nil)
)
