package engine

import (
	"github.com/MRamiBalles/ecshospital/internal/domain/patient"
	"github.com/MRamiBalles/ecshospital/internal/domain/pool"
	"github.com/MRamiBalles/ecshospital/internal/domain/rules"
	"github.com/MRamiBalles/ecshospital/internal/domain/staff"
)

// Ward is the mutable state of one hospital: its two pools, the roster,
// the recovery policy and the admission queue. It is only touched by the
// engine while it holds its lock.
type Ward struct {
	Beds      *pool.Pool[*patient.Patient]
	Theatres  *pool.Pool[string]
	Providers []*staff.Provider
	Policy    *rules.RecoveryPolicy
	Queue     []*patient.Patient
}

// NewWard creates an empty ward.
func NewWard(c Capacities, policy *rules.RecoveryPolicy) *Ward {
	return &Ward{
		Beds:     pool.New[*patient.Patient]("beds", c.Beds),
		Theatres: pool.New[string]("theatres", c.Theatres),
		Policy:   policy,
	}
}

// PatientAt resolves a provider handle, rejecting stale ones.
func (w *Ward) PatientAt(a staff.Assignment) (*patient.Patient, bool) {
	p, ok := w.Beds.Get(a.Bed)
	if !ok || p.ID != a.PatientID {
		return nil, false
	}
	return p, true
}

// theatreBooker lets providers book theatres without seeing the pool type.
type theatreBooker struct {
	theatres *pool.Pool[string]
}

func (b theatreBooker) Book(patientID string) (int, error) {
	return b.theatres.TryAcquire(patientID)
}

func (b theatreBooker) Release(theatre int) {
	b.theatres.Release(theatre)
}
