// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"net/mail"
	"time"
)

// Token lifetimes.
const (
	RememberTokenTTL = 30 * 24 * time.Hour
	ResetTokenTTL    = 2 * time.Hour
)

// User is a registered account.
type User struct {
	ID                  int64
	Name                string
	Email               string
	PasswordHash        string
	PasswordResetHash   *string
	PasswordResetExpiry *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasActiveReset reports whether a reset token is pending and unexpired at t.
func (u *User) HasActiveReset(t time.Time) bool {
	return u.PasswordResetHash != nil &&
		u.PasswordResetExpiry != nil &&
		u.PasswordResetExpiry.After(t)
}

// RememberedLogin is a long-lived login token record. A user may hold many.
type RememberedLogin struct {
	TokenHash string
	UserID    int64
	ExpiresAt time.Time
}

// IsExpiredAt returns true if the login is no longer valid at t.
func (r *RememberedLogin) IsExpiredAt(t time.Time) bool {
	return !r.ExpiresAt.After(t)
}

// Registration is the input to CredentialService.Register.
type Registration struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// validEmail accepts a single bare address such as "ann@example.com".
// Display names ("Ann <ann@example.com>") and groups are rejected.
func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == email
}
