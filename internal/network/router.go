package network

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MRamiBalles/ecshospital/internal/events"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
	"github.com/MRamiBalles/ecshospital/internal/platform/metrics"
)

// NewRouter wires every HTTP route of the ward server.
func NewRouter(ward Ward, eventLog *events.EventLog, hub *Hub, log *logger.Logger) *mux.Router {
	api := NewWardAPI(ward, log)
	replay := NewReplayHandler(eventLog, log)

	r := mux.NewRouter()
	r.HandleFunc("/api/beds", api.HandleBeds).Methods(http.MethodGet)
	r.HandleFunc("/api/report", api.HandleReport).Methods(http.MethodGet)
	r.HandleFunc("/api/providers", api.HandleProviders).Methods(http.MethodGet)
	r.HandleFunc("/api/patients", api.HandleAdmit).Methods(http.MethodPost)

	r.HandleFunc("/api/replay", replay.HandleReplay).Methods(http.MethodGet)
	r.HandleFunc("/api/replay/stats", replay.HandleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/replay/events/{id}", replay.HandleEvent).Methods(http.MethodGet)

	r.HandleFunc("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler()).Methods(http.MethodGet)

	if hub != nil {
		r.HandleFunc("/ws", hub.ServeWS)
	}
	return r
}
