package supervisor

import "fmt"

// Health is the coarse-grained node status reported to diagnostics.
type Health int

// Health tags. Any state may transition to any other; the supervisor does
// not enforce a terminal state.
const (
	HealthUnknown Health = iota
	HealthStarting
	HealthHealthy
	HealthWarning
	HealthError
	HealthFatal
)

var healthNames = map[Health]string{
	HealthUnknown:  "UNKNOWN",
	HealthStarting: "STARTING",
	HealthHealthy:  "HEALTHY",
	HealthWarning:  "WARNING",
	HealthError:    "ERROR",
	HealthFatal:    "FATAL",
}

// String returns the uppercase tag name.
func (h Health) String() string {
	if name, ok := healthNames[h]; ok {
		return name
	}
	return "INVALID"
}

func (h Health) valid() bool {
	_, ok := healthNames[h]
	return ok
}

// Severity selects the logging sink used by Log. The warn, error, and
// fatal severities additionally drive the health state machine.
type Severity string

// Recognized severities. "warning" and "error" are accepted as aliases of
// SeverityWarn and SeverityErr.
const (
	SeverityDebug Severity = "debug"
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityErr   Severity = "err"
	SeverityFatal Severity = "fatal"
)

// ParseSeverity normalizes a severity string, resolving aliases. It
// returns ErrInvalidSeverity for anything outside the recognized set.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityDebug:
		return SeverityDebug, nil
	case SeverityInfo:
		return SeverityInfo, nil
	case SeverityWarn, "warning":
		return SeverityWarn, nil
	case SeverityErr, "error":
		return SeverityErr, nil
	case SeverityFatal:
		return SeverityFatal, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSeverity, s)
	}
}
