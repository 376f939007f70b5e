package loganalytics

import (
	"errors"
	"fmt"
)

// Error kinds returned by the client. Use errors.Is to match them.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidFormat   = errors.New("invalid format")
	ErrOutOfRange      = errors.New("argument out of range")
	ErrClientClosed    = errors.New("log analytics client is closed")
)

// ArgumentError describes a rejected argument. It is always raised before any request is sent.
type ArgumentError struct {
	Kind    error  // One of ErrInvalidArgument, ErrInvalidFormat or ErrOutOfRange
	Param   string // Name of the offending parameter
	Value   any    // Offending value, if it is safe to report
	Message string
}

func (e *ArgumentError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: parameter '%s' (%v): %s", e.Kind, e.Param, e.Value, e.Message)
	}
	return fmt.Sprintf("%s: parameter '%s': %s", e.Kind, e.Param, e.Message)
}

func (e *ArgumentError) Unwrap() error {
	return e.Kind
}

func invalidArgument(param, msg string) error {
	return &ArgumentError{Kind: ErrInvalidArgument, Param: param, Message: msg}
}

func outOfRange(param string, value any, msg string) error {
	return &ArgumentError{Kind: ErrOutOfRange, Param: param, Value: value, Message: msg}
}

// StatusError is returned when the Data Collector API answers with a non-success status code.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("log analytics request failed: %s", e.Status)
	}
	return fmt.Sprintf("log analytics request failed: %s: %s", e.Status, e.Body)
}
