// Package intake reads hospital configuration files into an engine.Setup.
//
// One record per line, "prefix:suffix":
//
//	hospital:<beds>,<theatres>
//	patient:<gender>,<age>,<illness>,<recovery or -1>
//	doctor:<gender>,<age>           (also surgeon, limbSurgeon, organSurgeon)
//	illness:<code>,<min>,<max>
//
// Blank lines and lines starting with '#' are skipped. A malformed line is
// reported as a LineError and loading carries on with the next one.
package intake

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/MRamiBalles/ecshospital/internal/domain/staff"
	"github.com/MRamiBalles/ecshospital/internal/engine"
)

var (
	// ErrMalformedLine is a line without a prefix or with the wrong field count.
	ErrMalformedLine = errors.New("malformed line")
	// ErrUnknownRecord is a line whose prefix is not a known record type.
	ErrUnknownRecord = errors.New("unknown record type")
)

// LineError describes one line that could not be parsed.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e LineError) Unwrap() error {
	return e.Err
}

// Parse reads a whole configuration. Capacities default to
// engine.DefaultCapacities when no hospital line is present; a later
// hospital line replaces an earlier one. Only read errors are returned as err.
func Parse(r io.Reader) (engine.Setup, []LineError, error) {
	setup := engine.Setup{Capacities: engine.DefaultCapacities()}
	var bad []LineError

	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		raw := sc.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := parseLine(line, &setup); err != nil {
			bad = append(bad, LineError{Line: n, Text: raw, Err: err})
		}
	}
	if err := sc.Err(); err != nil {
		return setup, bad, fmt.Errorf("read configuration: %w", err)
	}
	return setup, bad, nil
}

func parseLine(line string, setup *engine.Setup) error {
	prefix, suffix, ok := strings.Cut(line, ":")
	if !ok {
		return fmt.Errorf("missing ':': %w", ErrMalformedLine)
	}
	prefix = strings.TrimSpace(prefix)

	switch prefix {
	case "hospital":
		v, err := ints(suffix, 2)
		if err != nil {
			return err
		}
		if v[0] < 0 || v[1] < 0 {
			return fmt.Errorf("negative capacity: %w", ErrMalformedLine)
		}
		setup.Capacities = engine.Capacities{Beds: v[0], Theatres: v[1]}

	case "patient":
		f, err := fields(suffix, 4)
		if err != nil {
			return err
		}
		v, err := atoi(f[1:])
		if err != nil {
			return err
		}
		setup.Patients = append(setup.Patients, engine.PatientRecord{
			Gender: f[0], Age: v[0], Illness: v[1], Recovery: v[2],
		})

	case string(staff.Doctor), string(staff.Surgeon), string(staff.LimbSurgeon), string(staff.OrganSurgeon):
		f, err := fields(suffix, 2)
		if err != nil {
			return err
		}
		age, err := atoi(f[1:])
		if err != nil {
			return err
		}
		setup.Providers = append(setup.Providers, engine.ProviderRecord{
			Gender: f[0], Age: age[0], Specialism: prefix,
		})

	case "illness":
		v, err := ints(suffix, 3)
		if err != nil {
			return err
		}
		setup.Illnesses = append(setup.Illnesses, engine.IllnessRecord{Illness: v[0], Min: v[1], Max: v[2]})

	default:
		return fmt.Errorf("%q: %w", prefix, ErrUnknownRecord)
	}
	return nil
}

func fields(s string, want int) ([]string, error) {
	f := strings.Split(s, ",")
	if len(f) != want {
		return nil, fmt.Errorf("want %d fields, got %d: %w", want, len(f), ErrMalformedLine)
	}
	for i := range f {
		f[i] = strings.TrimSpace(f[i])
	}
	return f, nil
}

func ints(s string, want int) ([]int, error) {
	f, err := fields(s, want)
	if err != nil {
		return nil, err
	}
	return atoi(f)
}

func atoi(f []string) ([]int, error) {
	out := make([]int, len(f))
	for i, s := range f {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", s, ErrMalformedLine)
		}
		out[i] = v
	}
	return out, nil
}

// LoadFile parses a configuration from disk.
func LoadFile(path string) (engine.Setup, []LineError, error) {
	f, err := os.Open(path)
	if err != nil {
		return engine.Setup{}, nil, fmt.Errorf("open configuration: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Load reads a configuration from a local path or an http(s) URL.
func Load(ctx context.Context, source string) (engine.Setup, []LineError, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return NewFetcher(DefaultRetries).Fetch(ctx, source)
	}
	return LoadFile(source)
}
