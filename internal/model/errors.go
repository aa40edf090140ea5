package model

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when an update, delete or toggle names an
// unknown id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %s not found", e.Kind, e.ID)
}

// ValidationError rejects user input before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MalformedImportError is returned for import files that are not JSON or
// carry no schedules array.
type MalformedImportError struct {
	Reason string
	Err    error
}

func (e *MalformedImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed import file: %s: %v", e.Reason, e.Err)
	}
	return "malformed import file: " + e.Reason
}

func (e *MalformedImportError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsMalformedImport(err error) bool {
	var me *MalformedImportError
	return errors.As(err, &me)
}
