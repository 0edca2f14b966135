package forecaster

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable is matched by every forecaster failure. It is an expected outcome:
// callers fall back to the heuristic engine.
var ErrUnavailable = errors.New("forecaster unavailable")

// Kind classifies a forecaster failure.
type Kind string

const (
	KindDisabled   Kind = "disabled"
	KindStart      Kind = "start"
	KindTimeout    Kind = "timeout"
	KindExit       Kind = "exit"
	KindNoOutput   Kind = "no_output"
	KindUnparsable Kind = "unparsable"
	KindEmpty      Kind = "empty"
)

// Error describes why a forecast could not be produced.
type Error struct {
	Kind     Kind
	ExitCode int
	// Stderr is a truncated excerpt of the process's diagnostic output.
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "forecaster %s", e.Kind)
	if e.Kind == KindExit {
		fmt.Fprintf(&b, " (code %d)", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnavailable}
	}
	return []error{ErrUnavailable, e.Err}
}

// Status is a short, user-safe description of the failure.
func (e *Error) Status() string {
	switch e.Kind {
	case KindDisabled:
		return "Forecaster disabled"
	case KindStart:
		return "Failed to start"
	case KindTimeout:
		return "Timed out"
	case KindExit:
		return fmt.Sprintf("Failed with code %d", e.ExitCode)
	case KindNoOutput, KindEmpty:
		return "No predictions returned"
	case KindUnparsable:
		return "Failed to parse output"
	default:
		return "Forecaster unavailable"
	}
}

// Status describes any forecaster error for the ai_status response field.
func Status(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Status()
	}
	return "Forecaster unavailable"
}

// transientMarkers are environment problems a different interpreter may not have.
var transientMarkers = []string{
	"ImportError",
	"ModuleNotFoundError",
	"No module named",
	"Permission denied",
	"File not found",
	"executable file not found",
}

// IsTransient reports whether err is a known environment failure worth one retry.
func IsTransient(err error) bool {
	var fe *Error
	if !errors.As(err, &fe) {
		return false
	}
	if fe.Kind != KindExit && fe.Kind != KindStart {
		return false
	}
	text := fe.Stderr
	if fe.Err != nil {
		text += "\n" + fe.Err.Error()
	}
	for _, m := range transientMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
