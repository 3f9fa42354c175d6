package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireTakesLowestFreeSlot(t *testing.T) {
	beds := New[string]("beds", 3)

	for want, id := range []string{"P001", "P002", "P003"} {
		idx, err := beds.TryAcquire(id)
		require.NoError(t, err)
		assert.Equal(t, want, idx)
	}

	beds.Release(1)
	idx, err := beds.TryAcquire("P004")
	require.NoError(t, err)
	assert.Equal(t, 1, idx, "freed middle slot should be reused first")
}

func TestReleaseThenAcquireReturnsSameSlot(t *testing.T) {
	beds := New[string]("beds", 5)
	for _, id := range []string{"A", "B", "C"} {
		_, err := beds.TryAcquire(id)
		require.NoError(t, err)
	}

	item, ok := beds.Release(2)
	require.True(t, ok)
	assert.Equal(t, "C", item)

	idx, err := beds.TryAcquire("D")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestFullPoolSignalsExhaustion(t *testing.T) {
	theatres := New[string]("theatres", 1)
	_, err := theatres.TryAcquire("P001")
	require.NoError(t, err)

	idx, err := theatres.TryAcquire("P002")
	assert.ErrorIs(t, err, ErrResourceExhausted)
	assert.Equal(t, -1, idx)
	assert.Equal(t, 1, theatres.OccupiedCount())
	assert.LessOrEqual(t, theatres.OccupiedCount(), theatres.Capacity())
}

func TestZeroCapacityIsAlwaysExhausted(t *testing.T) {
	theatres := New[string]("theatres", 0)
	_, ok := theatres.FindFirstFree()
	assert.False(t, ok)

	_, err := theatres.TryAcquire("P001")
	assert.ErrorIs(t, err, ErrResourceExhausted)
}

func TestReleaseIsIdempotent(t *testing.T) {
	beds := New[string]("beds", 2)
	_, err := beds.TryAcquire("P001")
	require.NoError(t, err)

	_, ok := beds.Release(1)
	assert.False(t, ok)
	_, ok = beds.Release(1)
	assert.False(t, ok)
	_, ok = beds.Release(99)
	assert.False(t, ok)
	assert.Equal(t, 1, beds.OccupiedCount())

	beds.Release(0)
	beds.Release(0)
	assert.Equal(t, 0, beds.OccupiedCount())
	assert.True(t, beds.IsFree(0))
}

func TestOccupiedIteratesInIndexOrder(t *testing.T) {
	beds := New[string]("beds", 6)
	for _, id := range []string{"A", "B", "C", "D", "E", "F"} {
		_, err := beds.TryAcquire(id)
		require.NoError(t, err)
	}
	beds.Release(0)
	beds.Release(3)

	var seen []int
	for idx, item := range beds.Occupied() {
		seen = append(seen, idx)
		got, ok := beds.Get(idx)
		require.True(t, ok)
		assert.Equal(t, item, got)
	}
	assert.Equal(t, []int{1, 2, 4, 5}, seen)
}

func TestReleaseAllFreesEverything(t *testing.T) {
	theatres := New[string]("theatres", 4)
	theatres.TryAcquire("A")
	theatres.TryAcquire("B")

	assert.Equal(t, 2, theatres.ReleaseAll())
	assert.Zero(t, theatres.OccupiedCount())
	assert.Zero(t, theatres.ReleaseAll())
}
