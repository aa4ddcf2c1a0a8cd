package recording

import "fmt"

// Kind classifies recording access failures
type Kind string

const (
	KindNotFound    Kind = "not-found"
	KindMalformed   Kind = "malformed"
	KindAlreadyOpen Kind = "already-open"
	KindTooManyOpen Kind = "too-many-open"
	KindReadError   Kind = "read-error"
	KindOutOfMemory Kind = "out-of-memory"
)

// Error is returned by Opener and Recording operations
type Error struct {
	Kind    Kind
	Path    string
	Channel int // -1 when not channel specific
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Path, e.Kind)
	if e.Channel >= 0 {
		msg = fmt.Sprintf("%s (channel %d)", msg, e.Channel)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, path string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Channel: -1, Cause: cause}
}
