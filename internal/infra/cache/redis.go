// Package cache provides Redis-based caching for quick ward reads.
// The journal stays the source of truth; the cache only holds the latest day.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MRamiBalles/ecshospital/internal/engine"
)

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// RedisClient is an interface for Redis operations.
// This allows for easy mocking in tests.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, values ...interface{}) error
}

// ReportCache keeps the latest DayReport and bed board of each run.
type ReportCache struct {
	client     RedisClient
	expiration time.Duration
}

// NewReportCache creates a new report cache instance.
func NewReportCache(client RedisClient, expiration time.Duration) *ReportCache {
	if expiration <= 0 {
		expiration = 15 * time.Minute
	}
	return &ReportCache{
		client:     client,
		expiration: expiration,
	}
}

// Report caches the day's report and replaces the bed board. It implements
// engine.Reporter.
func (c *ReportCache) Report(ctx context.Context, report engine.DayReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal day report: %w", err)
	}
	if err := c.client.Set(ctx, c.reportKey(report.RunID), data, c.expiration); err != nil {
		return fmt.Errorf("failed to cache day report: %w", err)
	}

	boardKey := c.boardKey(report.RunID)
	if err := c.client.Del(ctx, boardKey); err != nil {
		return fmt.Errorf("failed to reset bed board: %w", err)
	}
	if len(report.Board) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(report.Board)*2)
	for _, bed := range report.Board {
		data, err := json.Marshal(bed)
		if err != nil {
			return fmt.Errorf("failed to marshal bed %d: %w", bed.Bed, err)
		}
		values = append(values, strconv.Itoa(bed.Bed), string(data))
	}
	return c.client.HSet(ctx, boardKey, values...)
}

// LatestReport returns the most recently cached report of a run.
func (c *ReportCache) LatestReport(ctx context.Context, runID string) (*engine.DayReport, error) {
	data, err := c.client.Get(ctx, c.reportKey(runID))
	if err != nil {
		return nil, err
	}

	var report engine.DayReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal day report: %w", err)
	}
	return &report, nil
}

// Board returns the cached bed board keyed by bed index.
func (c *ReportCache) Board(ctx context.Context, runID string) (map[int]engine.BedStatus, error) {
	data, err := c.client.HGetAll(ctx, c.boardKey(runID))
	if err != nil {
		return nil, err
	}

	board := make(map[int]engine.BedStatus, len(data))
	for field, jsonStr := range data {
		bed, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("bad bed field %q: %w", field, err)
		}
		var status engine.BedStatus
		if err := json.Unmarshal([]byte(jsonStr), &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bed %d: %w", bed, err)
		}
		board[bed] = status
	}
	return board, nil
}

// Invalidate removes all cached state for a run.
func (c *ReportCache) Invalidate(ctx context.Context, runID string) error {
	return c.client.Del(ctx, c.reportKey(runID), c.boardKey(runID))
}

func (c *ReportCache) reportKey(runID string) string {
	return fmt.Sprintf("hospital:%s:report", runID)
}

func (c *ReportCache) boardKey(runID string) string {
	return fmt.Sprintf("hospital:%s:beds", runID)
}

var _ engine.Reporter = (*ReportCache)(nil)
