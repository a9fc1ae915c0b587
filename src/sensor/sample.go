// Package sensor talks to the ESP32 accelerometer over WebSocket: it decodes the
// device's JSON samples, runs the background listener and provides a simulator
// for running without hardware.
package sensor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrDecode is returned when a message is not a JSON object or a value is not numeric.
	ErrDecode = errors.New("error decoding JSON")
	// ErrMissingKey is returned when one of x, y or z is absent.
	ErrMissingKey = errors.New("missing key in data")
)

// Sample is one accelerometer reading in m/s². Index is the 1-based position in the
// receive sequence; it is zero until the sample is stored in a history buffer.
type Sample struct {
	Index int64   `json:"-"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
}

var axisKeys = [3]string{"x", "y", "z"}

// DecodeSample parses a device message such as {"x":0.12,"y":-0.4,"z":9.81}.
// Values may be JSON numbers or numeric strings; other keys are ignored.
func DecodeSample(msg []byte) (Sample, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(msg, &raw); err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if raw == nil {
		return Sample{}, fmt.Errorf("%w: message is null", ErrDecode)
	}
	var vals [3]float64
	for i, k := range axisKeys {
		v, ok := raw[k]
		if !ok {
			return Sample{}, fmt.Errorf("%w: '%s'", ErrMissingKey, k)
		}
		f, err := parseAxis(v)
		if err != nil {
			return Sample{}, fmt.Errorf("%w: key '%s': %v", ErrDecode, k, err)
		}
		vals[i] = f
	}
	return Sample{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

func parseAxis(v json.RawMessage) (float64, error) {
	v = bytes.TrimSpace(v)
	// json leaves the target untouched for null, which would read as 0.
	if bytes.Equal(v, []byte("null")) {
		return 0, errors.New("value is null")
	}
	if len(v) > 0 && v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", s)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("not finite: %q", s)
		}
		return f, nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return 0, fmt.Errorf("not a number: %s", string(v))
	}
	return f, nil
}

// FormatSample renders the console echo line for a sample.
func FormatSample(s Sample) string {
	return fmt.Sprintf("X: %6.2f, Y: %6.2f, Z: %6.2f", s.X, s.Y, s.Z)
}
