package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MRamiBalles/ecshospital/internal/engine"
	"github.com/MRamiBalles/ecshospital/internal/events"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
	"github.com/MRamiBalles/ecshospital/internal/platform/metrics"
)

var (
	// ErrJournalFull is returned by Append when the write buffer is saturated.
	ErrJournalFull = errors.New("journal buffer full")
	// ErrJournalClosed is returned after Close.
	ErrJournalClosed = errors.New("journal closed")
)

const defaultBatchSize = 128

type journalItem struct {
	event  *StoredEvent
	report *StoredDayReport
	run    *StoredRun
}

// Journal writes events, day reports and run records to a Repository from a
// single background goroutine, preserving submission order. It satisfies
// events.EventPersister, engine.Reporter and engine.RunRecorder.
type Journal struct {
	repo      Repository
	logger    *logger.Logger
	metrics   *metrics.Collector
	batchSize int

	mu     sync.RWMutex // guards queue against send-after-close
	closed bool
	queue  chan journalItem
	done   chan struct{}
	seq    atomic.Int64
}

// NewJournal starts a journal with the given write buffer size.
func NewJournal(repo Repository, buffer int, log *logger.Logger) *Journal {
	if buffer <= 0 {
		buffer = 1024
	}
	j := &Journal{
		repo:      repo,
		logger:    log.With("component", "journal"),
		metrics:   metrics.Get(),
		batchSize: defaultBatchSize,
		queue:     make(chan journalItem, buffer),
		done:      make(chan struct{}),
	}
	go j.loop()
	return j
}

// Append queues an event without blocking. It is called under the event
// log's lock, so sequence numbers follow the log's order.
func (j *Journal) Append(event events.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return ErrJournalClosed
	}

	row := &StoredEvent{
		ID:          event.ID,
		RunID:       event.RunID,
		Seq:         j.seq.Add(1),
		TimestampNS: event.Timestamp.UnixNano(),
		EventType:   string(event.Type),
		ActorID:     event.ActorID,
		TargetID:    event.TargetID,
		Payload:     string(payload),
		Day:         event.Day,
	}

	select {
	case j.queue <- journalItem{event: row}:
		return nil
	default:
		j.metrics.RecordEventWrite(0, ErrJournalFull)
		return ErrJournalFull
	}
}

// Report queues a day report.
func (j *Journal) Report(ctx context.Context, report engine.DayReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal day report: %w", err)
	}
	return j.enqueue(ctx, journalItem{report: &StoredDayReport{
		RunID:       report.RunID,
		Day:         report.Day,
		Occupancy:   report.Occupancy,
		QueueLength: report.QueueLength,
		Report:      string(data),
	}})
}

// RecordRun queues a run record.
func (j *Journal) RecordRun(ctx context.Context, summary engine.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}
	return j.enqueue(ctx, journalItem{run: &StoredRun{
		RunID:     summary.RunID,
		Outcome:   string(summary.Outcome),
		Days:      summary.Days,
		Summary:   string(data),
		UpdatedNS: time.Now().UnixNano(),
	}})
}

func (j *Journal) enqueue(ctx context.Context, item journalItem) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return ErrJournalClosed
	}
	select {
	case j.queue <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting writes and waits for the buffer to drain.
func (j *Journal) Close(ctx context.Context) error {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.queue)
	}
	j.mu.Unlock()

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("journal drain: %w", ctx.Err())
	}
}

func (j *Journal) loop() {
	defer close(j.done)

	// Writes outlive the request that produced them.
	ctx := context.Background()
	batch := make([]StoredEvent, 0, j.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		err := j.repo.AppendEvents(ctx, batch)
		per := time.Since(start) / time.Duration(len(batch))
		for range batch {
			j.metrics.RecordEventWrite(per, err)
		}
		if err != nil {
			j.logger.Err(err, fmt.Sprintf("dropped %d events", len(batch)))
		}
		batch = batch[:0]
	}

	for item := range j.queue {
		switch {
		case item.event != nil:
			batch = append(batch, *item.event)
			if len(batch) >= j.batchSize {
				flush()
			}
		case item.report != nil:
			flush()
			if err := j.repo.SaveDayReport(ctx, *item.report); err != nil {
				j.logger.Err(err, fmt.Sprintf("failed to store report for day %d", item.report.Day))
			}
		case item.run != nil:
			flush()
			if err := j.repo.SaveRun(ctx, *item.run); err != nil {
				j.logger.Err(err, "failed to store run record")
			}
		}
		if len(j.queue) == 0 {
			flush()
		}
	}
	flush()
}

var (
	_ events.EventPersister = (*Journal)(nil)
	_ engine.Reporter       = (*Journal)(nil)
	_ engine.RunRecorder    = (*Journal)(nil)
)
