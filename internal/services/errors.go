package services

import (
	"errors"
	"fmt"

	"github.com/VIIT-EP/exam-service/internal/models"
)

// Sentinel errors surfaced to handlers for status mapping.
var (
	ErrPaperNotFound    = errors.New("question paper not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrResultNotFound   = errors.New("result not found")

	ErrPaperInactive      = errors.New("question paper is not active")
	ErrAdmissionClosed    = errors.New("exam admission window has closed")
	ErrAttemptCompleted   = errors.New("attempt already submitted")
	ErrAttemptExpired     = errors.New("attempt time has elapsed")
	ErrAlreadyAttempted   = errors.New("paper already attempted")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError wraps field-level validation failures for the handler layer.
type ValidationError struct {
	Message string
	Fields  any
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(message string, fields any) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

// PermissionError signals the caller is authenticated but not allowed.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string { return e.Message }

func NewPermissionError(message string) *PermissionError {
	return &PermissionError{Message: message}
}

// DeficiencyError reports that the question bank cannot cover a sampling
// quota. It names the exact stratum so the uploader knows what to add.
type DeficiencyError struct {
	Subject    models.Subject
	Difficulty models.Difficulty
	Topic      string
	Needed     int
	Available  int
}

func (e *DeficiencyError) Error() string {
	scope := string(e.Subject)
	if e.Difficulty != "" {
		scope += "/" + string(e.Difficulty)
	}
	if e.Topic != "" {
		scope += " topic " + e.Topic
	}
	return fmt.Sprintf("not enough questions for %s: need %d, have %d", scope, e.Needed, e.Available)
}

// StateConflictError signals a request that is valid in shape but impossible
// in the entity's current state.
type StateConflictError struct {
	Message string
}

func (e *StateConflictError) Error() string { return e.Message }

func NewStateConflictError(message string) *StateConflictError {
	return &StateConflictError{Message: message}
}
