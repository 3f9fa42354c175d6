package events

// AdmissionPayload is attached to PATIENT_ADMITTED and ADMISSION_DEFERRED.
type AdmissionPayload struct {
	PatientID string `json:"patient_id"`
	Bed       int    `json:"bed"` // -1 when deferred
	Gender    string `json:"gender"`
	Age       int    `json:"age"`
	Illness   int    `json:"illness"`
	State     string `json:"state"`
}

// PressurePayload is attached to HOSPITAL_UNDER_PRESSURE.
type PressurePayload struct {
	Waiting  int `json:"waiting"`
	Capacity int `json:"capacity"`
}

// AssignmentPayload is attached to PATIENT_ASSIGNED and ASSIGNMENT_REFUSED.
type AssignmentPayload struct {
	ProviderID int    `json:"provider_id"`
	Specialism string `json:"specialism"`
	PatientID  string `json:"patient_id"`
	Bed        int    `json:"bed"`
	Illness    int    `json:"illness"`
}

// TreatmentPayload is attached to PATIENT_TREATED, PATIENT_OPERATED,
// THEATRE_UNAVAILABLE and TREATMENT_FAILED.
type TreatmentPayload struct {
	ProviderID   int    `json:"provider_id"`
	PatientID    string `json:"patient_id"`
	Illness      int    `json:"illness"`
	Theatre      int    `json:"theatre"`
	RecoveryDays int    `json:"recovery_days"`
	Error        string `json:"error,omitempty"`
}

// RecoveryPayload is attached to RECOVERY_TICK, PATIENT_HEALED and PATIENT_DISCHARGED.
type RecoveryPayload struct {
	PatientID string `json:"patient_id"`
	Bed       int    `json:"bed"`
	Remaining int    `json:"remaining"`
}

// TheatrePayload is attached to THEATRE_CLEARED.
type TheatrePayload struct {
	Freed int `json:"freed"`
}

// DayPayload is attached to DAY_STARTED and DAY_ENDED.
type DayPayload struct {
	Occupancy int  `json:"occupancy"`
	Queue     int  `json:"queue"`
	Progress  bool `json:"progress"`
}

// RunPayload is attached to RUN_FINISHED.
type RunPayload struct {
	Outcome    string `json:"outcome"`
	Days       int    `json:"days"`
	Discharged int    `json:"discharged"`
	Waiting    int    `json:"waiting"`
	Occupancy  int    `json:"occupancy"`
}

// IntakePayload is attached to INTAKE_REJECTED and PATIENT_QUEUED.
type IntakePayload struct {
	Kind   string `json:"kind"` // patient, provider, illness
	Record string `json:"record"`
	Error  string `json:"error,omitempty"`
}
