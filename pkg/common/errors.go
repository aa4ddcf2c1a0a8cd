package common

import "errors"

func (e *ConversionError) Error() string {
	msg := e.Message
	if e.Role != "" {
		msg = msg + " (" + e.Role + ")"
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// ConversionError represents a failure converting a single recording
type ConversionError struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *ConversionError) Unwrap() error {
	return e.Cause
}

// Conversion error codes
const (
	ErrCodeFileOpen           = "FILE_OPEN"
	ErrCodeChannelNotFound    = "CHANNEL_NOT_FOUND"
	ErrCodeSampleRateMismatch = "SAMPLE_RATE_MISMATCH"
	ErrCodeInvalidUnit        = "INVALID_UNIT"
	ErrCodeChannelRead        = "CHANNEL_READ"
	ErrCodeResample           = "RESAMPLE"
	ErrCodeCompression        = "COMPRESSION"
	ErrCodeDigest             = "DIGEST"
	ErrCodeWrite              = "WRITE"
	ErrCodeAlreadyConverted   = "ALREADY_CONVERTED"
	ErrCodeInternal           = "INTERNAL"
)

// NewConversionError creates a new conversion error
func NewConversionError(code, path, message string, cause error) *ConversionError {
	return &ConversionError{
		Code:    code,
		Path:    path,
		Message: message,
		Cause:   cause,
	}
}

// WithRole returns a copy of the error tagged with a channel role
func (e *ConversionError) WithRole(role string) *ConversionError {
	c := *e
	c.Role = role
	return &c
}

// CodeOf returns the code of the first ConversionError in err's chain, or ""
func CodeOf(err error) string {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsCode reports whether err carries the given conversion error code
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
