package engine

import (
	"context"
	"time"
)

// BedStatus is one occupied bed on the ward board.
type BedStatus struct {
	Bed          int    `json:"bed"`
	PatientID    string `json:"patient_id"`
	Gender       string `json:"gender"`
	Age          int    `json:"age"`
	Illness      int    `json:"illness"`
	State        string `json:"state"`
	RecoveryDays int    `json:"recovery_days"` // -1 unless RECOVERING
	TakenCareOf  bool   `json:"taken_care_of"`
}

// AdmissionRecord is a patient that got a bed.
type AdmissionRecord struct {
	PatientID string `json:"patient_id"`
	Bed       int    `json:"bed"`
	Gender    string `json:"gender"`
	Age       int    `json:"age"`
	State     string `json:"state"`
}

// AssignmentRecord pairs a provider with a patient for the day.
type AssignmentRecord struct {
	ProviderID int    `json:"provider_id"`
	Specialism string `json:"specialism"`
	PatientID  string `json:"patient_id"`
	Bed        int    `json:"bed"`
}

// TreatmentRecord is a successful treatment or operation.
type TreatmentRecord struct {
	ProviderID   int    `json:"provider_id"`
	PatientID    string `json:"patient_id"`
	Mode         string `json:"mode"`
	Theatre      int    `json:"theatre"`
	RecoveryDays int    `json:"recovery_days"`
}

// FailureRecord is a treatment that did not happen.
type FailureRecord struct {
	ProviderID int    `json:"provider_id"`
	PatientID  string `json:"patient_id"`
	Reason     string `json:"reason"`
	NoTheatre  bool   `json:"no_theatre"`
}

// RecoveryRecord is one countdown step.
type RecoveryRecord struct {
	PatientID string `json:"patient_id"`
	Bed       int    `json:"bed"`
	Remaining int    `json:"remaining"`
	Healed    bool   `json:"healed"`
}

// DischargeRecord is a healthy patient leaving its bed.
type DischargeRecord struct {
	PatientID string `json:"patient_id"`
	Bed       int    `json:"bed"`
}

// DayReport is the snapshot handed to reporters after every simulated day.
type DayReport struct {
	RunID           string             `json:"run_id"`
	Day             int                `json:"day"`
	BedCapacity     int                `json:"bed_capacity"`
	TheatreCapacity int                `json:"theatre_capacity"`
	Admitted        []AdmissionRecord  `json:"admitted"`
	Deferred        int                `json:"deferred"`
	UnderPressure   bool               `json:"under_pressure"`
	Assignments     []AssignmentRecord `json:"assignments"`
	Treatments      []TreatmentRecord  `json:"treatments"`
	Failures        []FailureRecord    `json:"failures"`
	Recoveries      []RecoveryRecord   `json:"recoveries"`
	Discharged      []DischargeRecord  `json:"discharged"`
	TheatresCleared int                `json:"theatres_cleared"`
	Board           []BedStatus        `json:"board"` // after discharges
	Occupancy       int                `json:"occupancy"`
	QueueLength     int                `json:"queue_length"`
	Progress        bool               `json:"progress"`
}

// Operations counts treatments that used a theatre.
func (r DayReport) Operations() int {
	n := 0
	for _, t := range r.Treatments {
		if t.Theatre >= 0 {
			n++
		}
	}
	return n
}

// TheatreFailures counts failures caused by a full theatre pool.
func (r DayReport) TheatreFailures() int {
	n := 0
	for _, f := range r.Failures {
		if f.NoTheatre {
			n++
		}
	}
	return n
}

// Reporter receives one DayReport per simulated day.
type Reporter interface {
	Report(ctx context.Context, report DayReport) error
}

// Outcome is how a run ended.
type Outcome string

const (
	OutcomeRunning   Outcome = "RUNNING"
	OutcomeCompleted Outcome = "COMPLETED"
	OutcomeStalled   Outcome = "STALLED"
	OutcomeDayLimit  Outcome = "DAY_LIMIT"
	OutcomeCancelled Outcome = "CANCELLED"
)

// RunSummary describes a whole run.
type RunSummary struct {
	RunID      string     `json:"run_id"`
	Outcome    Outcome    `json:"outcome"`
	Days       int        `json:"days"`
	Capacities Capacities `json:"capacities"`
	Seed       uint64     `json:"seed"`
	Admitted   int        `json:"admitted"`
	Treated    int        `json:"treated"`
	Operated   int        `json:"operated"`
	Discharged int        `json:"discharged"`
	Waiting    int        `json:"waiting"`
	Occupancy  int        `json:"occupancy"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at,omitempty"`
}

// RunRecorder is implemented by reporters that also track whole runs.
// RecordRun is called when a run starts and again when it finishes.
type RunRecorder interface {
	RecordRun(ctx context.Context, summary RunSummary) error
}
