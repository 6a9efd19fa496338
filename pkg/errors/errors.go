// Package errors provides the unified error type and factory functions for
// BrandPulse-Analytics.  Every layer (pipeline stages, infrastructure,
// interfaces) uses AppError as the single carrier for structured error
// information so that callers can branch on failure category without string
// matching, and so that every reported failure carries enough context
// (record id, stage, offending parameter) for remediation.
package errors

import (
	"errors"
	"fmt"
)

// AppError is the single structured error type used throughout the module.
// It satisfies the standard error interface and supports Go 1.13+ wrapping so
// that errors.Is / errors.As / errors.Unwrap work across all layers.
//
// Usage:
//
//	return errors.NewConfigurationError("ngram_range", "minimum exceeds maximum")
//	return errors.Wrap(err, errors.ErrCodeStorage, "persisting predictions")
type AppError struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Message is the primary human-readable description.
	Message string

	// Stage names the pipeline stage that raised the error, when applicable.
	Stage string

	// RecordID names the offending review record, when applicable.
	RecordID string

	// Cause is the underlying error, enabling errors.Is / errors.As traversal.
	Cause error
}

// Error implements the standard error interface.
// Format: "[<code>] <message>" with optional " (stage=..., record=...)" context.
func (e *AppError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	switch {
	case e.Stage != "" && e.RecordID != "":
		msg += fmt.Sprintf(" (stage=%s, record=%s)", e.Stage, e.RecordID)
	case e.Stage != "":
		msg += fmt.Sprintf(" (stage=%s)", e.Stage)
	case e.RecordID != "":
		msg += fmt.Sprintf(" (record=%s)", e.RecordID)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithStage returns a shallow copy of the receiver with Stage set.
// Safe to call on a nil pointer.
func (e *AppError) WithStage(stage string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Stage = stage
	return &clone
}

// WithRecord returns a shallow copy of the receiver with RecordID set.
func (e *AppError) WithRecord(id string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.RecordID = id
	return &clone
}

// New constructs a fresh AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf constructs an AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an AppError that wraps an existing error.  If err is nil,
// Wrap returns nil so it can be used inline on the happy path.  When err is
// already an *AppError and code is CodeUnknown, the original code is
// preserved so the domain classification survives cross-layer propagation.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Is, As, and Unwrap re-export the standard helpers so callers need a single
// errors import.
func Is(err, target error) bool { return errors.Is(err, target) }

// As re-exports errors.As.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Unwrap re-exports errors.Unwrap.
func Unwrap(err error) error { return errors.Unwrap(err) }

// IsCode reports whether any error in err's chain is an *AppError with the
// given code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the ErrorCode from the first *AppError in err's chain,
// or CodeUnknown when none is present.  Useful for logging and metric labels.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// ─────────────────────────────────────────────────────────────────────────────
// Domain factory functions
// ─────────────────────────────────────────────────────────────────────────────

// NewConfigurationError reports an invalid value for the named option.
// Fatal: nothing runs after configuration validation fails.
func NewConfigurationError(option, message string) *AppError {
	return &AppError{Code: ErrCodeConfiguration, Message: option + ": " + message}
}

// NewEmptyCorpusError reports a fit invoked on zero documents.
func NewEmptyCorpusError(stage string) *AppError {
	return &AppError{Code: ErrCodeEmptyCorpus, Message: "fit invoked on an empty corpus", Stage: stage}
}

// NewInsufficientDataError reports fewer than two label classes at training
// time.  Fatal for the fit call; prior stages remain valid.
func NewInsufficientDataError(positive, negative int) *AppError {
	return &AppError{
		Code:    ErrCodeInsufficientData,
		Message: fmt.Sprintf("training requires two label classes, got %d satisfied and %d dissatisfied", positive, negative),
		Stage:   "classifier.fit",
	}
}

// NewMalformedRecordError reports a review record that failed schema
// validation at the ingestion boundary.  The record is skipped; the rest of
// the batch proceeds.
func NewMalformedRecordError(recordID, reason string) *AppError {
	return &AppError{Code: ErrCodeMalformedRecord, Message: reason, RecordID: recordID, Stage: "ingest"}
}

// NewInvalidInputError reports a caller contract violation inside the core.
func NewInvalidInputError(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// IsConfiguration reports whether err is a configuration failure.
func IsConfiguration(err error) bool {
	return IsCode(err, ErrCodeConfiguration) || IsCode(err, ErrCodeConfigCombination)
}

// IsEmptyCorpus reports whether err is an empty-corpus fit failure.
func IsEmptyCorpus(err error) bool { return IsCode(err, ErrCodeEmptyCorpus) }

// IsInsufficientData reports whether err is an insufficient-label failure.
func IsInsufficientData(err error) bool { return IsCode(err, ErrCodeInsufficientData) }

// IsMalformedRecord reports whether err is an ingestion validation failure.
func IsMalformedRecord(err error) bool { return IsCode(err, ErrCodeMalformedRecord) }
