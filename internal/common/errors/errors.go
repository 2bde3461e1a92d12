// Package errors provides the standardized error types shared by the sync stages
// and their mapping onto Zeebe job failures.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeSourceReadFailed     ErrorCode = "SOURCE_READ_FAILED"
	ErrCodeStoreWriteFailed     ErrorCode = "STORE_WRITE_FAILED"
	ErrCodeStoreReadFailed      ErrorCode = "STORE_READ_FAILED"
	ErrCodeDocumentStoreFailed  ErrorCode = "DOCUMENT_STORE_FAILED"
	ErrCodeUpstreamUpdateFailed ErrorCode = "UPSTREAM_UPDATE_FAILED"
	ErrCodeInvalidFrontMatter   ErrorCode = "INVALID_FRONT_MATTER"
	ErrCodeReportSendFailed     ErrorCode = "REPORT_SEND_FAILED"
	ErrCodeSearchIndexFailed    ErrorCode = "SEARCH_INDEX_FAILED"
	ErrCodeInvalidJobInput      ErrorCode = "INVALID_JOB_INPUT"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// New builds a StandardError wrapping err.
func New(code ErrorCode, message string, err error) *StandardError {
	stdErr := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: isRetryable(code),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
	if err != nil {
		stdErr.Details = err.Error()
	}
	return stdErr
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// NewSourceReadError reports an unreadable source export.
func NewSourceReadError(path string, err error) *StandardError {
	return New(ErrCodeSourceReadFailed, "Failed to read source export", err).WithMetadata("path", path)
}

// NewStoreWriteError reports a failed canonical store write for one key.
func NewStoreWriteError(table, key string, err error) *StandardError {
	return New(ErrCodeStoreWriteFailed, "Canonical store write failed", err).
		WithMetadata("table", table).
		WithMetadata("key", key)
}

// NewStoreReadError reports a failed canonical store read.
func NewStoreReadError(query string, err error) *StandardError {
	return New(ErrCodeStoreReadFailed, "Canonical store read failed", err).WithMetadata("query", query)
}

// NewDocumentStoreError reports a failed document store call.
func NewDocumentStoreError(action, title string, err error) *StandardError {
	return New(ErrCodeDocumentStoreFailed, "Document store call failed", err).
		WithMetadata("action", action).
		WithMetadata("title", title)
}

// NewUpstreamUpdateError reports a rejected inventory update.
func NewUpstreamUpdateError(shortCode string, err error) *StandardError {
	return New(ErrCodeUpstreamUpdateFailed, "Inventory update failed", err).WithMetadata("shortCode", shortCode)
}

// NewInvalidJobInputError reports undecodable job variables.
func NewInvalidJobInputError(err error) *StandardError {
	return New(ErrCodeInvalidJobInput, "Invalid job variables", err)
}

// isRetryable marks technical failures worth a later attempt. Nothing is retried
// within a run; the flag only travels with the error to the workflow engine.
func isRetryable(code ErrorCode) bool {
	switch code {
	case ErrCodeStoreWriteFailed, ErrCodeStoreReadFailed, ErrCodeDocumentStoreFailed,
		ErrCodeUpstreamUpdateFailed, ErrCodeReportSendFailed, ErrCodeSearchIndexFailed:
		return true
	default:
		return false
	}
}

// CodeOf returns the code of the first StandardError in err's chain.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// ==========================
// BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	vars := map[string]interface{}{
		"errorCategory": GetErrorCategory(stdErr.Code),
		"timestamp":     stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}
	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		ErrorVariables: vars,
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "SOURCE"):
		return "SOURCE"
	case strings.HasPrefix(codeStr, "STORE"):
		return "DATABASE"
	case strings.HasPrefix(codeStr, "DOCUMENT"), strings.HasPrefix(codeStr, "UPSTREAM"):
		return "EXTERNAL"
	case strings.HasPrefix(codeStr, "SEARCH"), strings.HasPrefix(codeStr, "REPORT"):
		return "AUXILIARY"
	case strings.HasPrefix(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
