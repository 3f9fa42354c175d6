package staff

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ecshospital/internal/domain/patient"
	"github.com/MRamiBalles/ecshospital/internal/domain/pool"
)

type fixedDrawer struct {
	days int
	err  error
}

func (d fixedDrawer) RecoveryDays(int) (int, error) { return d.days, d.err }

type poolBooker struct {
	theatres *pool.Pool[string]
}

func (b poolBooker) Book(id string) (int, error) { return b.theatres.TryAcquire(id) }
func (b poolBooker) Release(i int)               { b.theatres.Release(i) }

func newPatient(t *testing.T, id string, illness int) *patient.Patient {
	t.Helper()
	p, err := patient.New(id, patient.Female, 30, illness)
	require.NoError(t, err)
	return p
}

func newProvider(t *testing.T, s Specialism) *Provider {
	t.Helper()
	p, err := NewProvider(1, patient.Male, 45, s)
	require.NoError(t, err)
	return p
}

func TestCapabilityTable(t *testing.T) {
	cases := []struct {
		specialism Specialism
		matchable  []int
		operable   []int
	}{
		{Doctor, []int{1, 2, 3}, nil},
		{Surgeon, []int{1, 2, 3, 4}, []int{4}},
		{LimbSurgeon, []int{1, 2, 3, 4, 7, 8}, []int{4, 7, 8}},
		{OrganSurgeon, []int{1, 2, 3, 4, 5, 6}, []int{4, 5, 6}},
	}

	for _, tc := range cases {
		t.Run(string(tc.specialism), func(t *testing.T) {
			c, ok := GetCapability(tc.specialism)
			require.True(t, ok)
			assert.Equal(t, tc.matchable, c.Matchable.Codes())

			var operable []int
			for code := 1; code <= 8; code++ {
				if c.Operable(code) {
					operable = append(operable, code)
				}
				if c.Direct.Has(code) {
					assert.True(t, c.Matchable.Has(code), "direct must be matchable")
				}
			}
			assert.Equal(t, tc.operable, operable)
		})
	}
}

func TestParseSpecialism(t *testing.T) {
	s, err := ParseSpecialism("limbSurgeon")
	require.NoError(t, err)
	assert.Equal(t, LimbSurgeon, s)

	_, err = ParseSpecialism("nurse")
	assert.ErrorIs(t, err, ErrUnknownSpecialism)

	_, err = NewProvider(1, patient.Male, 40, "dentist")
	assert.ErrorIs(t, err, ErrUnknownSpecialism)

	_, err = NewProvider(1, "Q", 40, Doctor)
	assert.ErrorIs(t, err, patient.ErrInvalidPersonAttributes)
}

func TestTryAssignHoldsOnePatient(t *testing.T) {
	doc := newProvider(t, Doctor)
	first := newPatient(t, "P001", 2)
	second := newPatient(t, "P002", 1)

	require.True(t, doc.TryAssign(0, first))
	assert.True(t, first.TakenCareOf())
	assert.False(t, doc.TryAssign(1, second), "an assigned provider refuses more patients")
	assert.False(t, second.TakenCareOf())

	a, ok := doc.Assigned()
	require.True(t, ok)
	assert.Equal(t, Assignment{Bed: 0, PatientID: "P001"}, a)

	held, ok := doc.EndOfDay()
	assert.True(t, ok)
	assert.Equal(t, a, held)
	assert.True(t, doc.IsFree())
	assert.True(t, doc.TryAssign(1, second))
}

func TestTryAssignRejectsUnmatchableIllness(t *testing.T) {
	doc := newProvider(t, Doctor)
	p := newPatient(t, "P001", 4)

	assert.False(t, doc.TryAssign(0, p))
	assert.False(t, p.TakenCareOf())
	assert.True(t, doc.IsFree())
}

func TestTreatDirect(t *testing.T) {
	doc := newProvider(t, Doctor)
	p := newPatient(t, "P001", 2)
	theatres := poolBooker{pool.New[string]("theatres", 0)}

	tr, err := doc.Treat(p, fixedDrawer{days: 3}, theatres)
	require.NoError(t, err)
	assert.Equal(t, ModeDirect, tr.Mode)
	assert.Equal(t, -1, tr.Theatre)
	assert.Equal(t, patient.Recovering, p.State())
}

func TestTreatOperationBooksTheatre(t *testing.T) {
	surgeon := newProvider(t, Surgeon)
	p := newPatient(t, "P001", 4)
	theatres := poolBooker{pool.New[string]("theatres", 2)}

	tr, err := surgeon.Treat(p, fixedDrawer{days: 2}, theatres)
	require.NoError(t, err)
	assert.Equal(t, ModeOperation, tr.Mode)
	assert.Equal(t, 0, tr.Theatre)
	assert.Equal(t, 1, theatres.theatres.OccupiedCount())
	days, ok := p.RecoveryDays()
	require.True(t, ok)
	assert.Equal(t, 2, days)
}

func TestTreatWithoutTheatreLeavesPatientIll(t *testing.T) {
	surgeon := newProvider(t, OrganSurgeon)
	p := newPatient(t, "P001", 5)
	theatres := poolBooker{pool.New[string]("theatres", 0)}

	_, err := surgeon.Treat(p, fixedDrawer{days: 6}, theatres)
	assert.ErrorIs(t, err, ErrNoTheatreAvailable)
	assert.ErrorIs(t, err, pool.ErrResourceExhausted)
	assert.Equal(t, patient.Ill, p.State())
}

func TestTreatReleasesTheatreWhenDrawFails(t *testing.T) {
	surgeon := newProvider(t, LimbSurgeon)
	p := newPatient(t, "P001", 7)
	theatres := poolBooker{pool.New[string]("theatres", 1)}
	boom := errors.New("no range")

	_, err := surgeon.Treat(p, fixedDrawer{err: boom}, theatres)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, theatres.theatres.OccupiedCount())
	assert.Equal(t, patient.Ill, p.State())
}

func TestTreatOutsideCapabilityIsIncapable(t *testing.T) {
	doc := newProvider(t, Doctor)
	p := newPatient(t, "P001", 6)

	_, err := doc.Treat(p, fixedDrawer{days: 1}, poolBooker{pool.New[string]("theatres", 1)})
	assert.ErrorIs(t, err, ErrIncapableProvider)
}
