package network

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MRamiBalles/ecshospital/internal/engine"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
)

// WardAPI serves the bed board, the latest day report and patient intake.
type WardAPI struct {
	ward   Ward
	logger *logger.Logger
}

// NewWardAPI creates a new ward handler.
func NewWardAPI(ward Ward, log *logger.Logger) *WardAPI {
	return &WardAPI{
		ward:   ward,
		logger: log.With("component", "ward_api"),
	}
}

// HandleBeds returns the occupied beds in bed order.
// GET /api/beds
func (wa *WardAPI) HandleBeds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Status{
		RunID:       wa.ward.RunID(),
		Day:         wa.ward.Day(),
		QueueLength: wa.ward.QueueLength(),
		Board:       wa.ward.Board(),
	})
}

// HandleReport returns the report of the last simulated day.
// GET /api/report
func (wa *WardAPI) HandleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := wa.ward.LastReport()
	if !ok {
		jsonError(w, "No day simulated yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleProviders lists the registered providers and the illnesses each can take.
// GET /api/providers
func (wa *WardAPI) HandleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, wa.ward.Providers())
}

// HandleAdmit queues a patient for the next admission round.
// POST /api/patients
func (wa *WardAPI) HandleAdmit(w http.ResponseWriter, r *http.Request) {
	var rec engine.PatientRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := wa.ward.Enqueue(rec)
	if err != nil {
		var recErr *engine.RecordError
		if errors.As(err, &recErr) {
			jsonError(w, recErr.Error(), http.StatusUnprocessableEntity)
			return
		}
		wa.logger.Err(err, "Failed to queue patient")
		jsonError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	wa.logger.Event("PATIENT_QUEUED", id, "Patient queued over HTTP")
	writeJSON(w, http.StatusAccepted, map[string]string{
		"patient_id": id,
		"status":     "QUEUED",
	})
}
