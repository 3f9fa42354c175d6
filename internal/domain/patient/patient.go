// Package patient defines the per-patient health state machine.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package patient

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPersonAttributes rejects an illegal gender or age.
	ErrInvalidPersonAttributes = errors.New("invalid person attributes")
	// ErrInvalidRecovery rejects a recovery time below the -1 sentinel.
	ErrInvalidRecovery = errors.New("invalid recovery time")
	// ErrIllegalTransition is returned when a treatment targets a patient that is not Ill.
	ErrIllegalTransition = errors.New("illegal health transition")
)

// NeedsTreatment is the intake sentinel for "no fixed recovery time yet".
const NeedsTreatment = -1

// Gender is a single-letter person gender.
type Gender string

const (
	Male   Gender = "M"
	Female Gender = "F"
)

// HealthState mirrors the numeric codes used in hospital configuration files.
type HealthState int

const (
	Healthy    HealthState = 0
	Ill        HealthState = 1
	Recovering HealthState = 2
)

func (h HealthState) String() string {
	switch h {
	case Healthy:
		return "HEALTHY"
	case Ill:
		return "ILL"
	case Recovering:
		return "RECOVERING"
	default:
		return fmt.Sprintf("HealthState(%d)", int(h))
	}
}

// ValidatePerson checks attributes shared by patients and providers.
func ValidatePerson(gender Gender, age int) error {
	if gender != Male && gender != Female {
		return fmt.Errorf("gender %q: %w", gender, ErrInvalidPersonAttributes)
	}
	if age < 0 {
		return fmt.Errorf("age %d: %w", age, ErrInvalidPersonAttributes)
	}
	return nil
}

// Patient is a hospital patient and its health state machine.
//
// Ill -> Recovering (treatment) -> Healthy (countdown reaches zero) -> discharged.
type Patient struct {
	ID      string `json:"id"`
	Gender  Gender `json:"gender"`
	Age     int    `json:"age"`
	Illness int    `json:"illness"`

	state        HealthState
	recoveryDays int
	takenCareOf  bool
	// treated today; the countdown starts on the following day
	fresh bool
}

// New creates an Ill patient waiting for a provider.
func New(id string, gender Gender, age, illness int) (*Patient, error) {
	if err := ValidatePerson(gender, age); err != nil {
		return nil, err
	}
	return &Patient{
		ID:      id,
		Gender:  gender,
		Age:     age,
		Illness: illness,
		state:   Ill,
	}, nil
}

// NewRecovering creates a patient that already has a fixed recovery time
// and bypasses matching entirely.
func NewRecovering(id string, gender Gender, age, illness, days int) (*Patient, error) {
	if days < 0 {
		return nil, fmt.Errorf("recovering patient with %d days: %w", days, ErrInvalidRecovery)
	}
	p, err := New(id, gender, age, illness)
	if err != nil {
		return nil, err
	}
	p.state = Recovering
	p.recoveryDays = days
	return p, nil
}

// FromIntake builds a patient from a configuration tuple where recovery is
// either NeedsTreatment or a non-negative number of days.
func FromIntake(id string, gender Gender, age, illness, recovery int) (*Patient, error) {
	switch {
	case recovery == NeedsTreatment:
		return New(id, gender, age, illness)
	case recovery >= 0:
		return NewRecovering(id, gender, age, illness, recovery)
	default:
		return nil, fmt.Errorf("recovery %d: %w", recovery, ErrInvalidRecovery)
	}
}

// State returns the current health state.
func (p *Patient) State() HealthState {
	return p.state
}

// RecoveryDays returns the remaining countdown; ok is false unless Recovering.
func (p *Patient) RecoveryDays() (days int, ok bool) {
	if p.state != Recovering {
		return 0, false
	}
	return p.recoveryDays, true
}

// TakenCareOf reports whether a provider claimed this patient today.
func (p *Patient) TakenCareOf() bool {
	return p.takenCareOf
}

// MarkTakenCareOf is called by a provider on successful assignment.
func (p *Patient) MarkTakenCareOf() {
	p.takenCareOf = true
}

// ReleaseCare clears the claim so the patient is eligible for matching again.
// It has no effect once the patient has left the Ill state.
func (p *Patient) ReleaseCare() {
	if p.state == Ill {
		p.takenCareOf = false
	}
}

// StartRecovery moves an Ill patient to Recovering with the given countdown.
func (p *Patient) StartRecovery(days int) error {
	if p.state != Ill {
		return fmt.Errorf("patient %s is %s: %w", p.ID, p.state, ErrIllegalTransition)
	}
	if days < 0 {
		return fmt.Errorf("patient %s recovery %d: %w", p.ID, days, ErrInvalidRecovery)
	}
	p.state = Recovering
	p.recoveryDays = days
	p.fresh = true
	return nil
}

// DayResult describes what EndOfDay did to a patient.
type DayResult struct {
	Ticked    bool // countdown decremented
	Remaining int
	Healed    bool // transitioned to Healthy during this call
}

// EndOfDay advances the recovery countdown by one day.
// Only Recovering patients are touched. A patient whose countdown is at or
// below zero becomes Healthy in the same call.
func (p *Patient) EndOfDay() DayResult {
	if p.state != Recovering {
		return DayResult{}
	}

	var res DayResult
	switch {
	case p.fresh:
		p.fresh = false
	case p.recoveryDays > 0:
		p.recoveryDays--
		res.Ticked = true
	}
	res.Remaining = p.recoveryDays

	if p.recoveryDays <= 0 {
		p.state = Healthy
		p.recoveryDays = 0
		res.Healed = true
	}
	return res
}

// IsHealthy reports whether the patient can be discharged.
func (p *Patient) IsHealthy() bool {
	return p.state == Healthy
}
