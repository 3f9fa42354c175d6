package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoveryDaysStayInRangeAndCoverIt(t *testing.T) {
	policy := NewRecoveryPolicy(DefaultRanges(), 42)

	for _, illness := range policy.Illnesses() {
		r, ok := policy.Range(illness)
		require.True(t, ok)

		seen := make(map[int]bool)
		for i := 0; i < 2000; i++ {
			d, err := policy.RecoveryDays(illness)
			require.NoError(t, err)
			require.GreaterOrEqual(t, d, r.Min, "illness %d", illness)
			require.LessOrEqual(t, d, r.Max, "illness %d", illness)
			seen[d] = true
		}
		for d := r.Min; d <= r.Max; d++ {
			assert.True(t, seen[d], "illness %d never drew %d", illness, d)
		}
	}
}

func TestWideRangeBeyondDrawBound(t *testing.T) {
	policy := NewRecoveryPolicy(map[int]Range{1: {120, 125}}, 7)

	seen := make(map[int]bool)
	for i := 0; i < 3000; i++ {
		d, err := policy.RecoveryDays(1)
		require.NoError(t, err)
		require.True(t, d >= 120 && d <= 125)
		seen[d] = true
	}
	assert.Len(t, seen, 6)
}

func TestSameSeedSameDraws(t *testing.T) {
	a := NewRecoveryPolicy(DefaultRanges(), 99)
	b := NewRecoveryPolicy(DefaultRanges(), 99)
	for i := 0; i < 50; i++ {
		da, _ := a.RecoveryDays(5)
		db, _ := b.RecoveryDays(5)
		require.Equal(t, da, db)
	}
}

func TestUnknownIllnessIsHardError(t *testing.T) {
	policy := NewRecoveryPolicy(DefaultRanges(), 1)
	_, err := policy.RecoveryDays(9)
	assert.ErrorIs(t, err, ErrUnknownIllness)
	assert.False(t, policy.Knows(9))
}

func TestOverride(t *testing.T) {
	policy := NewRecoveryPolicy(DefaultRanges(), 1)

	require.NoError(t, policy.Override(4, 7, 7))
	d, err := policy.RecoveryDays(4)
	require.NoError(t, err)
	assert.Equal(t, 7, d)

	assert.ErrorIs(t, policy.Override(9, 1, 2), ErrUnknownIllness)
	assert.ErrorIs(t, policy.Override(4, 3, 2), ErrInvalidRange)
	assert.ErrorIs(t, policy.Override(4, 0, 2), ErrInvalidRange)
	assert.ErrorIs(t, policy.Override(0, 1, 2), ErrInvalidRange)
}

func TestPolicyDoesNotAliasInputTable(t *testing.T) {
	table := DefaultRanges()
	policy := NewRecoveryPolicy(table, 1)
	require.NoError(t, policy.Override(1, 2, 2))
	assert.Equal(t, Range{5, 5}, table[1])
}
