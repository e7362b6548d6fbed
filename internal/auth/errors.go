// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"strings"

	"github.com/samber/oops"
)

// Error codes attached to errors returned by the services.
const (
	CodeValidationFailed   = "AUTH_VALIDATION_FAILED"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeTokenInvalid       = "AUTH_TOKEN_INVALID"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by repositories when a write violates a
// uniqueness constraint (email, token hash).
var ErrDuplicate = errors.New("duplicate")

// ErrUnauthenticated is returned when an email/password pair does not
// identify a user. It never says which half was wrong.
var ErrUnauthenticated = errors.New("invalid email or password")

// ErrTokenInvalid is returned when a remember or reset token does not
// resolve to a user, whether because it is unknown or has expired.
var ErrTokenInvalid = errors.New("token is invalid or has expired")

// Violation is a human-readable reason an input was rejected.
type Violation string

// Registration and password violations.
const (
	ViolationNameRequired     Violation = "Name is required"
	ViolationInvalidEmail     Violation = "Invalid email"
	ViolationEmailTaken       Violation = "email already taken"
	ViolationPasswordMismatch Violation = "Password must match confirmation"
	ViolationPasswordTooShort Violation = "Please enter at least 6 characters for the password"
	ViolationPasswordNoLetter Violation = "Password needs at least one letter"
	ViolationPasswordNoNumber Violation = "Password needs at least one number"
)

// ValidationError carries every violation found for one input.
type ValidationError struct {
	Violations []Violation
}

// Error joins the violations into a single message.
func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = string(v)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// newValidationError wraps violations with the validation error code.
func newValidationError(violations []Violation) error {
	return oops.Code(CodeValidationFailed).
		With("violations", len(violations)).
		Wrap(&ValidationError{Violations: violations})
}

// ViolationsOf returns the violations carried by err, or nil if err is not
// a validation failure.
func ViolationsOf(err error) []Violation {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Violations
	}
	return nil
}

func unauthenticated() error {
	return oops.Code(CodeInvalidCredentials).Wrap(ErrUnauthenticated)
}

func tokenInvalid() error {
	return oops.Code(CodeTokenInvalid).Wrap(ErrTokenInvalid)
}
