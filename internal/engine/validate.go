package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lazypower/sable/internal/affect"
)

// ErrNotFound is returned when an id-based operation names a missing record.
var ErrNotFound = errors.New("not found")

// ValidationError reports rejected input. Nothing is written when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func parseKind(field, name string) (affect.Kind, error) {
	k, ok := affect.ParseKind(strings.ToLower(strings.TrimSpace(name)))
	if !ok {
		return "", invalid(field, "unknown emotion type %q", name)
	}
	return k, nil
}

// finite rejects NaN and infinities, which clamping cannot interpret.
func finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(field, "must be a finite number")
	}
	return nil
}

// unit requires v in [0,1].
func unit(field string, v float64) error {
	if err := finite(field, v); err != nil {
		return err
	}
	if v < 0 || v > 1 {
		return invalid(field, "must be between 0 and 1, got %g", v)
	}
	return nil
}

// validateImpact checks every entry of an impact map before anything is written.
func validateImpact(raw map[string]float64) (affect.Impact, error) {
	im := make(affect.Impact, len(raw))
	for name, v := range raw {
		k, err := parseKind("emotional_impact", name)
		if err != nil {
			return nil, err
		}
		if err := finite("emotional_impact."+name, v); err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, invalid("emotional_impact."+name, "intensity cannot be negative")
		}
		im[k] = affect.ClampUnit(v)
	}
	return im, nil
}

// ParseTime accepts RFC 3339 timestamps or plain dates, read as UTC midnight.
// Empty input yields the zero time.
func ParseTime(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, invalid(field, "expected RFC 3339 time or YYYY-MM-DD, got %q", s)
}
