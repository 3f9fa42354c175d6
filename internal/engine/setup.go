package engine

import (
	"fmt"

	"github.com/MRamiBalles/ecshospital/internal/domain/patient"
	"github.com/MRamiBalles/ecshospital/internal/domain/rules"
	"github.com/MRamiBalles/ecshospital/internal/domain/staff"
)

// Capacities is the size of the two resource pools.
type Capacities struct {
	Beds     int `json:"beds"`
	Theatres int `json:"theatres"`
}

// DefaultCapacities is used when a configuration does not size the hospital.
func DefaultCapacities() Capacities {
	return Capacities{Beds: 50, Theatres: 4}
}

// PatientRecord is an incoming patient as handed over by a loader.
// Recovery is patient.NeedsTreatment (-1) or a fixed number of days.
type PatientRecord struct {
	Gender   string `json:"gender"`
	Age      int    `json:"age"`
	Illness  int    `json:"illness"`
	Recovery int    `json:"recovery"`
}

func (r PatientRecord) String() string {
	return fmt.Sprintf("%s,%d,%d,%d", r.Gender, r.Age, r.Illness, r.Recovery)
}

// ProviderRecord is a doctor or surgeon as handed over by a loader.
type ProviderRecord struct {
	Gender     string `json:"gender"`
	Age        int    `json:"age"`
	Specialism string `json:"specialism"`
}

func (r ProviderRecord) String() string {
	return fmt.Sprintf("%s:%s,%d", r.Specialism, r.Gender, r.Age)
}

// IllnessRecord overrides the recovery range of an existing illness.
type IllnessRecord struct {
	Illness int `json:"illness"`
	Min     int `json:"min"`
	Max     int `json:"max"`
}

func (r IllnessRecord) String() string {
	return fmt.Sprintf("%d,%d,%d", r.Illness, r.Min, r.Max)
}

// Setup is everything needed to open a hospital.
type Setup struct {
	Capacities Capacities       `json:"capacities"`
	Patients   []PatientRecord  `json:"patients"`
	Providers  []ProviderRecord `json:"providers"`
	Illnesses  []IllnessRecord  `json:"illnesses"`
}

// RecordError describes one rejected setup or runtime record.
type RecordError struct {
	Kind   string // patient, provider, illness
	Record string
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s %q rejected: %v", e.Kind, e.Record, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// buildPatient validates an intake record against the ward's policy.
func buildPatient(id string, rec PatientRecord, policy *rules.RecoveryPolicy) (*patient.Patient, error) {
	if rec.Illness <= 0 || !policy.Knows(rec.Illness) {
		return nil, fmt.Errorf("illness %d: %w", rec.Illness, rules.ErrUnknownIllness)
	}
	return patient.FromIntake(id, patient.Gender(rec.Gender), rec.Age, rec.Illness, rec.Recovery)
}

func buildProvider(id int, rec ProviderRecord) (*staff.Provider, error) {
	specialism, err := staff.ParseSpecialism(rec.Specialism)
	if err != nil {
		return nil, err
	}
	return staff.NewProvider(id, patient.Gender(rec.Gender), rec.Age, specialism)
}
