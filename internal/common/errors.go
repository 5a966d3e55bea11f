// Package common provides shared utilities used across the extraction pipeline.
package common

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline's failure taxonomy.
var (
	// Input errors: the document itself is unusable.
	ErrEmptyDocument     = errors.New("document is empty")
	ErrWrongPassword     = errors.New("wrong or missing document password")
	ErrUnsupportedIssuer = errors.New("unsupported issuer family")
	ErrMissingDueDate    = errors.New("due date could not be resolved")

	// Configuration errors: the operator must fix the deployment.
	ErrOCRUnavailable = errors.New("ocr engine unavailable")
	ErrOCRDisabled    = errors.New("ocr disabled by configuration")

	// Collaborator errors: non-fatal, the pipeline degrades.
	ErrExternalUnavailable = errors.New("external extraction service unavailable")
	ErrMaxRetries          = errors.New("max retries exceeded")
)

// InputError marks a terminal, user-visible problem with the uploaded document.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return "input error: " + e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// NewInputError wraps err as a terminal input error.
func NewInputError(err error) error {
	return &InputError{Err: err}
}

// ConfigError marks a deployment problem (e.g. OCR required but not installed).
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "configuration error: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError wraps err as a configuration error.
func NewConfigError(err error) error {
	return &ConfigError{Err: err}
}

// QualityError means the document was understood but the parsed result could
// not be trusted. Callers may prompt the user for a clearer scan.
type QualityError struct {
	Score  int
	Reason string
}

func (e *QualityError) Error() string {
	return fmt.Sprintf("parse rejected (score %d): %s", e.Score, e.Reason)
}

// NewQualityError builds a validation rejection carrying the failing score.
func NewQualityError(score int, reason string) error {
	return &QualityError{Score: score, Reason: reason}
}

// IsInputError reports whether err is terminal due to the document itself.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsConfigError reports whether err is a deployment problem.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsQualityError reports whether err is a validation rejection.
func IsQualityError(err error) bool {
	var qe *QualityError
	return errors.As(err, &qe)
}
