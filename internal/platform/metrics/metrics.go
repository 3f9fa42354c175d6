// Package metrics provides observability for the hospital simulator.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers simulation and transport metrics.
type Collector struct {
	// Day metrics
	DaysSimulated int64
	DayLatencySum int64 // nanoseconds
	DayLatencyMax int64
	LastDayTime   time.Time

	// Ward flow
	Admissions        int64
	Deferrals         int64
	PressureDays      int64
	Treatments        int64
	Operations        int64
	TheatreFailures   int64
	TreatmentFailures int64
	Discharges        int64
	IntakeRejections  int64

	// Gauges
	Occupancy  int64
	QueueDepth int64

	// Journal metrics
	EventsWritten    int64
	EventWriteLatSum int64
	EventWriteLatMax int64
	EventWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

func storeMax(addr *int64, v int64) {
	for {
		cur := atomic.LoadInt64(addr)
		if v <= cur || atomic.CompareAndSwapInt64(addr, cur, v) {
			return
		}
	}
}

// RecordDay records one completed simulation day.
func (c *Collector) RecordDay(latency time.Duration) {
	atomic.AddInt64(&c.DaysSimulated, 1)
	atomic.AddInt64(&c.DayLatencySum, int64(latency))
	storeMax(&c.DayLatencyMax, int64(latency))

	c.mu.Lock()
	c.LastDayTime = time.Now()
	c.mu.Unlock()
}

// DayFlow is the per-day delta the engine reports.
type DayFlow struct {
	Admitted          int
	Deferred          int
	UnderPressure     bool
	Treated           int
	Operated          int
	TheatreFailures   int
	TreatmentFailures int
	Discharged        int
	Occupancy         int
	Queue             int
}

// RecordFlow adds a day's ward flow and updates the gauges.
func (c *Collector) RecordFlow(f DayFlow) {
	atomic.AddInt64(&c.Admissions, int64(f.Admitted))
	atomic.AddInt64(&c.Deferrals, int64(f.Deferred))
	if f.UnderPressure {
		atomic.AddInt64(&c.PressureDays, 1)
	}
	atomic.AddInt64(&c.Treatments, int64(f.Treated))
	atomic.AddInt64(&c.Operations, int64(f.Operated))
	atomic.AddInt64(&c.TheatreFailures, int64(f.TheatreFailures))
	atomic.AddInt64(&c.TreatmentFailures, int64(f.TreatmentFailures))
	atomic.AddInt64(&c.Discharges, int64(f.Discharged))
	atomic.StoreInt64(&c.Occupancy, int64(f.Occupancy))
	atomic.StoreInt64(&c.QueueDepth, int64(f.Queue))
}

// RecordIntakeRejection counts a configuration or runtime record that was refused.
func (c *Collector) RecordIntakeRejection() {
	atomic.AddInt64(&c.IntakeRejections, 1)
}

// RecordEventWrite records a journal write.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))
	storeMax(&c.EventWriteLatMax, int64(latency))

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	days := atomic.LoadInt64(&c.DaysSimulated)
	eventsWritten := atomic.LoadInt64(&c.EventsWritten)

	var dayAvg, eventAvg float64
	if days > 0 {
		dayAvg = float64(atomic.LoadInt64(&c.DayLatencySum)) / float64(days) / 1e6 // ms
	}
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6
	}

	lastDay := ""
	if !c.LastDayTime.IsZero() {
		lastDay = c.LastDayTime.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"days": map[string]interface{}{
			"count":          days,
			"avg_latency_ms": dayAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.DayLatencyMax)) / 1e6,
			"last_day":       lastDay,
		},

		"ward": map[string]interface{}{
			"admissions":         atomic.LoadInt64(&c.Admissions),
			"deferrals":          atomic.LoadInt64(&c.Deferrals),
			"pressure_days":      atomic.LoadInt64(&c.PressureDays),
			"treatments":         atomic.LoadInt64(&c.Treatments),
			"operations":         atomic.LoadInt64(&c.Operations),
			"theatre_failures":   atomic.LoadInt64(&c.TheatreFailures),
			"treatment_failures": atomic.LoadInt64(&c.TreatmentFailures),
			"discharges":         atomic.LoadInt64(&c.Discharges),
			"intake_rejections":  atomic.LoadInt64(&c.IntakeRejections),
			"occupancy":          atomic.LoadInt64(&c.Occupancy),
			"queue_depth":        atomic.LoadInt64(&c.QueueDepth),
		},

		"journal": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

type promMetric struct {
	name, help, kind string
	value            *int64
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector
		for _, m := range []promMetric{
			{"hospital_days_simulated", "Total simulated days", "counter", &c.DaysSimulated},
			{"hospital_admissions", "Patients admitted to a bed", "counter", &c.Admissions},
			{"hospital_deferrals", "Admissions deferred for lack of beds", "counter", &c.Deferrals},
			{"hospital_pressure_days", "Days on which admission hit a full ward", "counter", &c.PressureDays},
			{"hospital_treatments", "Direct treatments", "counter", &c.Treatments},
			{"hospital_operations", "Operations performed in a theatre", "counter", &c.Operations},
			{"hospital_theatre_failures", "Operations refused for lack of a theatre", "counter", &c.TheatreFailures},
			{"hospital_treatment_failures", "Treatments that failed for other reasons", "counter", &c.TreatmentFailures},
			{"hospital_discharges", "Patients discharged healthy", "counter", &c.Discharges},
			{"hospital_intake_rejections", "Rejected intake records", "counter", &c.IntakeRejections},
			{"hospital_bed_occupancy", "Occupied beds at end of day", "gauge", &c.Occupancy},
			{"hospital_queue_depth", "Patients waiting for a bed", "gauge", &c.QueueDepth},
			{"hospital_events_written", "Journal writes", "counter", &c.EventsWritten},
			{"hospital_event_write_errors", "Journal write errors", "counter", &c.EventWriteErrors},
			{"hospital_ws_connections", "Active WebSocket connections", "gauge", &c.WSConnectionsActive},
		} {
			fmt.Fprintf(w, "# HELP %s %s\n", m.name, m.help)
			fmt.Fprintf(w, "# TYPE %s %s\n", m.name, m.kind)
			fmt.Fprintf(w, "%s %d\n\n", m.name, atomic.LoadInt64(m.value))
		}

		fmt.Fprintf(w, "# HELP hospital_day_latency_max_ms Maximum day latency\n")
		fmt.Fprintf(w, "# TYPE hospital_day_latency_max_ms gauge\n")
		fmt.Fprintf(w, "hospital_day_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.DayLatencyMax))/1e6)

		fmt.Fprintf(w, "# HELP hospital_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE hospital_ws_messages_total counter\n")
		fmt.Fprintf(w, "hospital_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "hospital_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
