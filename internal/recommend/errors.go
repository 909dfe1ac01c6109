package recommend

import (
	"fmt"
	"strings"

	"github.com/deusflow/albumfeed/internal/llm"
)

// MalformedError means the model reply could not be turned into a valid
// Recommendation.
type MalformedError struct {
	Reason  string
	Missing []string
	Err     error
}

func (e *MalformedError) Error() string {
	msg := "malformed recommendation: " + e.Reason
	if len(e.Missing) > 0 {
		msg += " (" + strings.Join(e.Missing, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedError) Unwrap() error { return e.Err }

// DuplicateError means the recommended album is already in recent history.
type DuplicateError struct {
	Title string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate recommendation %q", e.Title)
}

// TransportError is a failed model request.
type TransportError struct {
	Kind llm.ErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model request failed (%s: %s): %v", e.Kind, e.Kind.Hint(), e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Cause tells why the attempt budget ran out.
type Cause int

const (
	CauseMalformed Cause = iota + 1
	CauseDuplicate
)

func (c Cause) String() string {
	switch c {
	case CauseMalformed:
		return "malformed"
	case CauseDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// ExhaustedError is returned when every attempt was rejected. Cause reflects
// the last rejected attempt.
type ExhaustedError struct {
	Attempts int
	Cause    Cause
	Last     error
}

func (e *ExhaustedError) Error() string {
	switch e.Cause {
	case CauseDuplicate:
		return fmt.Sprintf("could not produce a non-duplicate recommendation after %d attempts: %v", e.Attempts, e.Last)
	default:
		return fmt.Sprintf("could not produce well-formed output after %d attempts: %v", e.Attempts, e.Last)
	}
}

func (e *ExhaustedError) Unwrap() error { return e.Last }
