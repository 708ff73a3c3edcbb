// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNoCredentials    = errors.New("no API credentials configured")
	ErrInvalidSignature = errors.New("request signature rejected")
	ErrRateLimited      = errors.New("rate limited")
	ErrConnectionFailed = errors.New("connection failed")
	ErrTimeout          = errors.New("operation timed out")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDataNotFound     = errors.New("data not found")
	ErrDatabaseError    = errors.New("database error")
	ErrCircuitOpen      = errors.New("circuit breaker is open")
)

// ExchangeError represents an error returned by the exchange API.
type ExchangeError struct {
	Segment  string
	Endpoint string
	Code     int
	Message  string
	Err      error
}

func (e *ExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exchange error [%s %s] code %d: %s: %v", e.Segment, e.Endpoint, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("exchange error [%s %s] code %d: %s", e.Segment, e.Endpoint, e.Code, e.Message)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// NewExchangeError creates a new ExchangeError.
func NewExchangeError(segment, endpoint string, code int, message string, err error) *ExchangeError {
	return &ExchangeError{
		Segment:  segment,
		Endpoint: endpoint,
		Code:     code,
		Message:  message,
		Err:      err,
	}
}

// Transient reports whether the exchange error is worth retrying.
// 429 and 5xx responses are transient; everything else is not.
func (e *ExchangeError) Transient() bool {
	return e.Code == 429 || e.Code >= 500
}

// RenderError represents a failure writing report artifacts.
type RenderError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render error [%s] %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// NewRenderError creates a new RenderError.
func NewRenderError(artifact, path string, err error) *RenderError {
	return &RenderError{
		Artifact: artifact,
		Path:     path,
		Err:      err,
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-quality problem recorded while normalizing.
// The pipeline never fails on these; they exist for logging only.
type DataError struct {
	TradeID string
	Field   string
	Message string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data error [trade %s] %s: %s", e.TradeID, e.Field, e.Message)
}

// NewDataError creates a new DataError.
func NewDataError(tradeID, field, message string) *DataError {
	return &DataError{
		TradeID: tradeID,
		Field:   field,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
