package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes for typed lifecycle outcomes.
const (
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeAlreadyAssigned    = "ALREADY_ASSIGNED"
	CodeNoWorkerToReassign = "NO_WORKER_TO_REASSIGN"
	CodeSameWorker         = "SAME_WORKER"
	CodeWrongCategoryType  = "WRONG_CATEGORY_TYPE"
	CodeDuplicateIssue     = "DUPLICATE_ISSUE"
	CodeNoEligibleWorker   = "NO_ELIGIBLE_WORKER"
	CodeWorkerNotFound     = "WORKER_NOT_FOUND"
	CodeIssueNotFound      = "ISSUE_NOT_FOUND"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

func NewIssueNotFound(issueID string) error {
	return NewDomainError(CodeIssueNotFound, "issue not found", http.StatusNotFound, map[string]any{"issue_id": issueID})
}

func NewWorkerNotFound(workerID string) error {
	return NewDomainError(CodeWorkerNotFound, "worker not found", http.StatusNotFound, map[string]any{"worker_id": workerID})
}

func NewInvalidTransition(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidTransition, message, http.StatusConflict, details)
}

func NewAlreadyAssigned(issueID, workerID string) error {
	return NewDomainError(CodeAlreadyAssigned, "issue already has a worker assigned", http.StatusConflict,
		map[string]any{"issue_id": issueID, "worker_id": workerID})
}

func NewNoWorkerToReassign(issueID string) error {
	return NewDomainError(CodeNoWorkerToReassign, "issue has no worker to reassign", http.StatusConflict,
		map[string]any{"issue_id": issueID})
}

func NewSameWorker(workerID string) error {
	return NewDomainError(CodeSameWorker, "issue is already assigned to this worker", http.StatusConflict,
		map[string]any{"worker_id": workerID})
}

func NewWrongCategoryType(message string, details map[string]any) error {
	return NewDomainError(CodeWrongCategoryType, message, http.StatusConflict, details)
}

func NewDuplicateIssue(details map[string]any) error {
	return NewDomainError(CodeDuplicateIssue, "a matching open issue was reported recently", http.StatusConflict, details)
}

func NewNoEligibleWorker(details map[string]any) error {
	return NewDomainError(CodeNoEligibleWorker, "no eligible worker available", http.StatusConflict, details)
}

func NewStorageUnavailable(err error) error {
	return &DomainError{
		Code:       CodeStorageUnavailable,
		Message:    "storage unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
