package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTeacherNotFound means the submitted teacher id resolved to no teacher or admin.
var ErrTeacherNotFound = errors.New("invalid teacher")

// FieldError is one user-facing validation message.
type FieldError struct {
	Msg string `json:"msg"`
}

// ValidationError aggregates every field-level problem in a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ConflictError means a record already exists for the submission key.
type ConflictError struct {
	StudentID string
}

func (e *ConflictError) Error() string {
	if e.StudentID == "" {
		return "attendance already recorded for this batch, subject, date and time"
	}
	return fmt.Sprintf("attendance already recorded for student %s at this batch, subject, date and time", e.StudentID)
}
