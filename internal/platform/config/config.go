// Package config assembles runtime settings for the hospital binaries: a
// tuning profile for buffers, pools and rate limits, overlaid by HOSPITAL_*
// environment variables (optionally from a .env file).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Tuning holds buffer, pool and rate settings for one load profile.
type Tuning struct {
	// Channel buffer sizes
	JournalBuffer    int
	BroadcastBuffer  int
	ClientSendBuffer int

	// Connection pools
	DBMaxOpenConns int
	DBMaxIdleConns int
	RedisPoolSize  int

	// Rate limiting
	MaxMessagesPerSecond int
}

// DefaultTuning returns sensible defaults for a single ward server.
func DefaultTuning() Tuning {
	numCPU := runtime.NumCPU()

	return Tuning{
		JournalBuffer:    1024, // a busy day emits a few hundred events
		BroadcastBuffer:  256,
		ClientSendBuffer: 64,

		DBMaxOpenConns: numCPU * 4,
		DBMaxIdleConns: numCPU * 2,
		RedisPoolSize:  numCPU * 2,

		MaxMessagesPerSecond: 10,
	}
}

// StressTuning returns aggressive settings for admission storms.
func StressTuning() Tuning {
	numCPU := runtime.NumCPU()

	return Tuning{
		JournalBuffer:    4096,
		BroadcastBuffer:  512,
		ClientSendBuffer: 128,

		DBMaxOpenConns: numCPU * 8,
		DBMaxIdleConns: numCPU * 4,
		RedisPoolSize:  numCPU * 4,

		MaxMessagesPerSecond: 100,
	}
}

// LowResourceTuning returns minimal settings for development.
func LowResourceTuning() Tuning {
	return Tuning{
		JournalBuffer:    64,
		BroadcastBuffer:  16,
		ClientSendBuffer: 8,

		DBMaxOpenConns: 5,
		DBMaxIdleConns: 2,
		RedisPoolSize:  5,

		MaxMessagesPerSecond: 5,
	}
}

// ErrUnknownProfile is returned for a HOSPITAL_PROFILE outside default, stress and low.
var ErrUnknownProfile = errors.New("unknown profile")

// TuningFor returns the tuning of a named profile.
func TuningFor(profile string) (Tuning, error) {
	switch strings.ToLower(profile) {
	case "", "default":
		return DefaultTuning(), nil
	case "stress":
		return StressTuning(), nil
	case "low":
		return LowResourceTuning(), nil
	default:
		return Tuning{}, fmt.Errorf("%w: %q", ErrUnknownProfile, profile)
	}
}

// Config is everything a hospital binary reads from its environment.
type Config struct {
	Profile   string
	LogLevel  string
	LogFormat string

	SQLitePath  string // empty disables the SQLite journal
	PostgresDSN string // takes precedence over SQLitePath when set
	RedisAddr   string // empty disables the report cache
	HTTPAddr    string

	DayInterval time.Duration
	MaxDays     int
	StallDays   int
	Seed        uint64

	Tuning Tuning
}

// Default returns the configuration used when no variable is set.
func Default() *Config {
	return &Config{
		Profile:     "default",
		LogLevel:    "info",
		LogFormat:   "console",
		HTTPAddr:    ":8080",
		DayInterval: 5 * time.Second,
		MaxDays:     365,
		StallDays:   30,
		Seed:        1,
		Tuning:      DefaultTuning(),
	}
}

// Load reads the given .env files (missing files are skipped) and then the
// process environment. Variables already set in the environment win over
// the files.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from HOSPITAL_* variables on top of Default.
func FromEnv() (*Config, error) {
	cfg := Default()
	var errs []error

	cfg.Profile = getEnv("HOSPITAL_PROFILE", cfg.Profile)
	tuning, err := TuningFor(cfg.Profile)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.Tuning = tuning
	}

	cfg.LogLevel = getEnv("HOSPITAL_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("HOSPITAL_LOG_FORMAT", cfg.LogFormat)
	cfg.SQLitePath = getEnv("HOSPITAL_SQLITE_PATH", cfg.SQLitePath)
	cfg.PostgresDSN = getEnv("HOSPITAL_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.RedisAddr = getEnv("HOSPITAL_REDIS_ADDR", cfg.RedisAddr)
	cfg.HTTPAddr = getEnv("HOSPITAL_HTTP_ADDR", cfg.HTTPAddr)

	if cfg.DayInterval, err = getDuration("HOSPITAL_DAY_INTERVAL", cfg.DayInterval); err != nil {
		errs = append(errs, err)
	}
	if cfg.MaxDays, err = getInt("HOSPITAL_MAX_DAYS", cfg.MaxDays); err != nil {
		errs = append(errs, err)
	}
	if cfg.StallDays, err = getInt("HOSPITAL_STALL_DAYS", cfg.StallDays); err != nil {
		errs = append(errs, err)
	}
	if raw, ok := os.LookupEnv("HOSPITAL_SEED"); ok && raw != "" {
		seed, perr := strconv.ParseUint(raw, 10, 64)
		if perr != nil {
			errs = append(errs, fmt.Errorf("HOSPITAL_SEED: %w", perr))
		} else {
			cfg.Seed = seed
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback, fmt.Errorf("%s: invalid count %q", key, raw)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// Recommendations provides suggestions based on observed metrics.
type Recommendations struct {
	IncreaseJournalBuffer   bool
	IncreaseBroadcastBuffer bool
	IncreaseDBConnections   bool
	Notes                   []string
}

// Analyze examines a metrics snapshot and returns tuning recommendations.
func Analyze(snapshot map[string]interface{}) *Recommendations {
	rec := &Recommendations{
		Notes: make([]string, 0),
	}

	if days, ok := snapshot["days"].(map[string]interface{}); ok {
		if maxLat, ok := days["max_latency_ms"].(float64); ok && maxLat > 100 {
			rec.IncreaseJournalBuffer = true
			rec.Notes = append(rec.Notes, "Day latency exceeds 100ms - increase journal buffer")
		}
	}

	if journal, ok := snapshot["journal"].(map[string]interface{}); ok {
		if maxLat, ok := journal["max_write_lat_ms"].(float64); ok && maxLat > 50 {
			rec.IncreaseDBConnections = true
			rec.Notes = append(rec.Notes, "Journal write latency exceeds 50ms - increase DB connections")
		}
		if errs, ok := journal["errors"].(int64); ok && errs > 0 {
			rec.IncreaseDBConnections = true
			rec.Notes = append(rec.Notes, "Journal write errors detected - check DB connection pool")
		}
	}

	if ws, ok := snapshot["websocket"].(map[string]interface{}); ok {
		if errs, ok := ws["errors"].(int64); ok && errs > 0 {
			rec.IncreaseBroadcastBuffer = true
			rec.Notes = append(rec.Notes, "WebSocket errors detected - increase client send buffer")
		}
	}

	return rec
}

// Apply returns t adjusted by the recommendations.
func (r *Recommendations) Apply(t Tuning) Tuning {
	if r.IncreaseJournalBuffer {
		t.JournalBuffer *= 2
	}
	if r.IncreaseBroadcastBuffer {
		t.BroadcastBuffer *= 2
		t.ClientSendBuffer *= 2
	}
	if r.IncreaseDBConnections {
		t.DBMaxOpenConns = int(float64(t.DBMaxOpenConns) * 1.5)
		t.DBMaxIdleConns = int(float64(t.DBMaxIdleConns) * 1.5)
	}
	return t
}
