package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ecshospital/internal/engine"
)

type fakeRedis struct {
	mu     sync.Mutex
	kv     map[string]string
	hashes map[string]map[string]string
	ttl    map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		kv:     map[string]string{},
		hashes: map[string]map[string]string{},
		ttl:    map[string]time.Duration{},
	}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.kv[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, exp time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.kv[key] = string(v)
	default:
		f.kv[key] = fmt.Sprint(v)
	}
	f.ttl[key] = exp
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.kv, k)
		delete(f.hashes, k)
	}
	return nil
}

func (f *fakeRedis) HGetAll(_ context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeRedis) HSet(_ context.Context, key string, values ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hashes[key]
	if !ok {
		h = map[string]string{}
		f.hashes[key] = h
	}
	for i := 0; i+1 < len(values); i += 2 {
		h[fmt.Sprint(values[i])] = fmt.Sprint(values[i+1])
	}
	return nil
}

func report(day int, beds ...engine.BedStatus) engine.DayReport {
	return engine.DayReport{RunID: "run-1", Day: day, Board: beds, Occupancy: len(beds)}
}

func TestReportCacheStoresLatestDay(t *testing.T) {
	fake := newFakeRedis()
	c := NewReportCache(fake, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Report(ctx, report(1,
		engine.BedStatus{Bed: 0, PatientID: "P001", State: "ILL", RecoveryDays: -1},
		engine.BedStatus{Bed: 3, PatientID: "P002", State: "RECOVERING", RecoveryDays: 2},
	)))
	require.NoError(t, c.Report(ctx, report(2,
		engine.BedStatus{Bed: 3, PatientID: "P002", State: "RECOVERING", RecoveryDays: 1},
	)))

	latest, err := c.LatestReport(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Day)
	assert.Equal(t, time.Minute, fake.ttl["hospital:run-1:report"])

	board, err := c.Board(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, board, 1, "discharged beds must not linger on the board")
	assert.Equal(t, "P002", board[3].PatientID)
	assert.Equal(t, 1, board[3].RecoveryDays)
}

func TestReportCacheMissAndInvalidate(t *testing.T) {
	c := NewReportCache(newFakeRedis(), 0)
	ctx := context.Background()

	_, err := c.LatestReport(ctx, "unknown")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Report(ctx, report(1, engine.BedStatus{Bed: 0, PatientID: "P001"})))
	require.NoError(t, c.Invalidate(ctx, "run-1"))

	_, err = c.LatestReport(ctx, "run-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	board, err := c.Board(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, board)
}
