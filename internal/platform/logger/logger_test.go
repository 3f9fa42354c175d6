package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "info", Format: "json", Out: &buf}).With("run_id", "R1")

	log.Event("PATIENT_ADMITTED", "P001", "bed 0")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "PATIENT_ADMITTED", line["event"])
	assert.Equal(t, "P001", line["actor"])
	assert.Equal(t, "R1", line["run_id"])
	assert.Equal(t, "bed 0", line["message"])
	assert.Contains(t, line, "caller")
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Format: "json", Out: &buf})

	log.Debug("hidden")
	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Err(errors.New("boom"), "visible")
	assert.Contains(t, buf.String(), `"error":"boom"`)
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "loud", Format: "json", Out: &buf})

	log.Debug("hidden")
	assert.Zero(t, buf.Len())
	log.Info("shown")
	assert.NotZero(t, buf.Len())
}
