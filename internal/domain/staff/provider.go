package staff

import (
	"errors"
	"fmt"

	"github.com/MRamiBalles/ecshospital/internal/domain/patient"
)

var (
	// ErrIncapableProvider means a provider was asked to treat an illness it
	// cannot match. It indicates a matching bug, not a normal failure.
	ErrIncapableProvider = errors.New("incapable provider")
	// ErrNoTheatreAvailable means an operation could not book a theatre.
	ErrNoTheatreAvailable = errors.New("no theatre available")
)

// RecoveryDrawer yields a recovery duration for an illness.
type RecoveryDrawer interface {
	RecoveryDays(illness int) (int, error)
}

// TheatreBooker hands out operating theatres for the current day.
type TheatreBooker interface {
	Book(patientID string) (int, error)
	Release(theatre int)
}

// Assignment is a provider's non-owning handle to a patient: the bed the
// patient occupied when matched plus its id, so a stale handle can be detected.
type Assignment struct {
	Bed       int    `json:"bed"`
	PatientID string `json:"patient_id"`
}

// Provider is a doctor or surgeon working in the hospital.
type Provider struct {
	ID         int                `json:"id"`
	Gender     patient.Gender     `json:"gender"`
	Age        int                `json:"age"`
	Specialism Specialism         `json:"specialism"`
	capability Capability
	assigned   *Assignment
}

// NewProvider validates the person attributes and the specialism.
func NewProvider(id int, gender patient.Gender, age int, specialism Specialism) (*Provider, error) {
	if err := patient.ValidatePerson(gender, age); err != nil {
		return nil, err
	}
	capability, ok := GetCapability(specialism)
	if !ok {
		return nil, fmt.Errorf("%q: %w", specialism, ErrUnknownSpecialism)
	}
	return &Provider{
		ID:         id,
		Gender:     gender,
		Age:        age,
		Specialism: specialism,
		capability: capability,
	}, nil
}

// CanMatch reports whether illness is in the provider's matchable set.
func (p *Provider) CanMatch(illness int) bool {
	return p.capability.Matchable.Has(illness)
}

// NeedsTheatre reports whether treating illness requires an operation.
func (p *Provider) NeedsTheatre(illness int) bool {
	return p.capability.Operable(illness)
}

// Assigned returns the current handle, if any.
func (p *Provider) Assigned() (Assignment, bool) {
	if p.assigned == nil {
		return Assignment{}, false
	}
	return *p.assigned, true
}

// IsFree reports whether the provider can accept a patient.
func (p *Provider) IsFree() bool {
	return p.assigned == nil
}

// TryAssign binds the patient in bed to this provider. It fails when the
// provider already holds a patient or cannot match the illness.
func (p *Provider) TryAssign(bed int, pt *patient.Patient) bool {
	if p.assigned != nil || !p.CanMatch(pt.Illness) {
		return false
	}
	p.assigned = &Assignment{Bed: bed, PatientID: pt.ID}
	pt.MarkTakenCareOf()
	return true
}

// TreatmentMode tells how a treatment was carried out.
type TreatmentMode string

const (
	ModeDirect    TreatmentMode = "DIRECT"
	ModeOperation TreatmentMode = "OPERATION"
)

// Treatment is the outcome of a successful Treat call.
type Treatment struct {
	Mode         TreatmentMode `json:"mode"`
	Theatre      int           `json:"theatre"` // -1 unless operated
	RecoveryDays int           `json:"recovery_days"`
}

// Treat resolves the assigned patient's illness, either directly or through
// an operation in a booked theatre. On failure the patient stays Ill.
func (p *Provider) Treat(pt *patient.Patient, drawer RecoveryDrawer, theatres TheatreBooker) (Treatment, error) {
	if !p.CanMatch(pt.Illness) {
		return Treatment{}, fmt.Errorf("provider %d (%s) illness %d: %w", p.ID, p.Specialism, pt.Illness, ErrIncapableProvider)
	}

	if !p.NeedsTheatre(pt.Illness) {
		days, err := drawer.RecoveryDays(pt.Illness)
		if err != nil {
			return Treatment{}, err
		}
		if err := pt.StartRecovery(days); err != nil {
			return Treatment{}, err
		}
		return Treatment{Mode: ModeDirect, Theatre: -1, RecoveryDays: days}, nil
	}

	theatre, err := theatres.Book(pt.ID)
	if err != nil {
		return Treatment{}, fmt.Errorf("provider %d patient %s: %w: %w", p.ID, pt.ID, ErrNoTheatreAvailable, err)
	}
	days, err := drawer.RecoveryDays(pt.Illness)
	if err == nil {
		err = pt.StartRecovery(days)
	}
	if err != nil {
		theatres.Release(theatre)
		return Treatment{}, err
	}
	return Treatment{Mode: ModeOperation, Theatre: theatre, RecoveryDays: days}, nil
}

// EndOfDay drops the assignment regardless of how treatment went and returns
// the handle that was held.
func (p *Provider) EndOfDay() (Assignment, bool) {
	a, ok := p.Assigned()
	p.assigned = nil
	return a, ok
}
