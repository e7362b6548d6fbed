// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"regexp"
	"unicode/utf8"
)

// DefaultMinPasswordLength is the minimum password length in characters.
const DefaultMinPasswordLength = 6

var (
	letterRegex = regexp.MustCompile(`(?i)[a-z]`)
	digitRegex  = regexp.MustCompile(`[0-9]`)
)

// PasswordPolicy holds the rules a new password must satisfy.
type PasswordPolicy struct {
	MinLength int
}

// DefaultPasswordPolicy returns the policy with a six character minimum.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: DefaultMinPasswordLength}
}

// Validate checks password against every rule and returns all violations.
// No rule short-circuits another. A nil result means the password is
// acceptable.
func (p PasswordPolicy) Validate(password, confirmation string) []Violation {
	minLen := p.MinLength
	if minLen <= 0 {
		minLen = DefaultMinPasswordLength
	}

	var violations []Violation
	if password != confirmation {
		violations = append(violations, ViolationPasswordMismatch)
	}
	if utf8.RuneCountInString(password) < minLen {
		violations = append(violations, ViolationPasswordTooShort)
	}
	if !letterRegex.MatchString(password) {
		violations = append(violations, ViolationPasswordNoLetter)
	}
	if !digitRegex.MatchString(password) {
		violations = append(violations, ViolationPasswordNoNumber)
	}
	return violations
}
