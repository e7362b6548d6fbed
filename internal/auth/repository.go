// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"time"
)

// UserRepository manages user persistence.
type UserRepository interface {
	// FindByEmail retrieves a user by exact email.
	// Returns ErrNotFound if no user has the given email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID retrieves a user by ID.
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByResetHash retrieves the user holding the given reset token hash.
	FindByResetHash(ctx context.Context, hash string) (*User, error)

	// Insert stores a new user and returns it with ID and timestamps set.
	// Returns ErrDuplicate if the email is already registered.
	Insert(ctx context.Context, user *User) (*User, error)

	// UpdateResetToken records a pending reset token for a user.
	UpdateResetToken(ctx context.Context, id int64, hash string, expiry time.Time) error

	// ClearResetAndSetPassword replaces the password hash and clears the
	// reset token fields in a single write.
	ClearResetAndSetPassword(ctx context.Context, id int64, passwordHash string) error

	// UpdatePasswordHash replaces the password hash without touching
	// reset state. Used to upgrade legacy hashes.
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
}

// RememberedLoginRepository manages remember-me token persistence.
type RememberedLoginRepository interface {
	// InsertRememberedLogin stores a new remembered login.
	InsertRememberedLogin(ctx context.Context, login *RememberedLogin) error

	// FindRememberedLogin retrieves a remembered login by token hash.
	// Expired rows are returned; callers check ExpiresAt.
	FindRememberedLogin(ctx context.Context, tokenHash string) (*RememberedLogin, error)

	// DeleteRememberedLogin removes a remembered login by token hash.
	DeleteRememberedLogin(ctx context.Context, tokenHash string) error
}

// Repository is the full storage contract the services depend on.
type Repository interface {
	UserRepository
	RememberedLoginRepository
}

// Pruner removes stale token state. It is used by maintenance only.
type Pruner interface {
	// DeleteExpiredRememberedLogins removes logins with expires_at <= before.
	DeleteExpiredRememberedLogins(ctx context.Context, before time.Time) (int64, error)

	// ClearExpiredResetTokens clears reset fields whose expiry <= before.
	ClearExpiredResetTokens(ctx context.Context, before time.Time) (int64, error)
}
