package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
)

// DefaultDayInterval is how long a simulated day lasts in real time when the
// hospital runs as a server.
const DefaultDayInterval = 5 * time.Second

// Ticker drives Engine.Step on a wall-clock interval.
// It does NOT know about patients or providers - only time progression.
type Ticker struct {
	engine   *Engine
	logger   *logger.Logger
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTicker creates a day ticker. A non-positive interval uses DefaultDayInterval.
func NewTicker(e *Engine, interval time.Duration, log *logger.Logger) *Ticker {
	if interval <= 0 {
		interval = DefaultDayInterval
	}
	return &Ticker{
		engine:   e,
		logger:   log.With("component", "ticker"),
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the day loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info(fmt.Sprintf("Hospital clock started, one day every %s", t.interval))

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Hospital clock stopped by context.")
			return
		case <-t.stopChan:
			t.logger.Info("Hospital clock stopped manually.")
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

// Stop gracefully stops the ticker. Safe to call more than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}

func (t *Ticker) tick(ctx context.Context) {
	report, err := t.engine.Step(ctx)
	if err != nil {
		return
	}
	if !report.Progress && report.Occupancy == 0 && report.QueueLength == 0 {
		t.logger.Debug(fmt.Sprintf("Day %d: ward empty, waiting for arrivals", report.Day))
	}
}
