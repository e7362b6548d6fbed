// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres provides the PostgreSQL implementation of the auth repositories.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/holomush/accounts/internal/auth"
)

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements auth.Repository and auth.Pruner using PostgreSQL.
type Repository struct {
	db DB
}

// NewRepository creates a new Repository.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, name, email, password_hash, password_reset_hash,
	       password_reset_expiry, created_at, updated_at`

// FindByEmail retrieves a user by exact email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID retrieves a user by ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("user_id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByResetHash retrieves the user holding a reset token hash.
// Expiry is not checked here.
func (r *Repository) FindByResetHash(ctx context.Context, hash string) (*auth.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE password_reset_hash = $1
	`, hash)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Insert stores a new user and returns it with the assigned ID.
func (r *Repository) Insert(ctx context.Context, user *auth.User) (*auth.User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)

	stored, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, oops.Code("USER_DUPLICATE_EMAIL").Wrap(auth.ErrDuplicate)
		}
		return nil, oops.Code("USER_INSERT_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}
	return stored, nil
}

// UpdateResetToken stores a reset token hash and expiry for a user,
// replacing any earlier token.
func (r *Repository) UpdateResetToken(ctx context.Context, id int64, hash string, expiry time.Time) error {
	result, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_reset_hash = $2, password_reset_expiry = $3, updated_at = NOW()
		WHERE id = $1
	`, id, hash, expiry)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update reset token").
			With("user_id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("user_id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// ClearResetAndSetPassword sets the password hash and clears the reset
// token in a single statement.
func (r *Repository) ClearResetAndSetPassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $2,
		    password_reset_hash = NULL,
		    password_reset_expiry = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "clear reset and set password").
			With("user_id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("user_id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdatePasswordHash replaces a user's password hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update password hash").
			With("user_id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("user_id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// InsertRememberedLogin stores a remembered login.
func (r *Repository) InsertRememberedLogin(ctx context.Context, login *auth.RememberedLogin) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO remembered_logins (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, login.TokenHash, login.UserID, login.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("REMEMBERED_LOGIN_DUPLICATE").Wrap(auth.ErrDuplicate)
		}
		return oops.Code("REMEMBERED_LOGIN_INSERT_FAILED").
			With("operation", "insert remembered login").
			With("user_id", login.UserID).
			Wrap(err)
	}
	return nil
}

// FindRememberedLogin retrieves a remembered login by token hash.
// Expiry is not checked here.
func (r *Repository) FindRememberedLogin(ctx context.Context, tokenHash string) (*auth.RememberedLogin, error) {
	var login auth.RememberedLogin
	err := r.db.QueryRow(ctx, `
		SELECT token_hash, user_id, expires_at
		FROM remembered_logins
		WHERE token_hash = $1
	`, tokenHash).Scan(&login.TokenHash, &login.UserID, &login.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("REMEMBERED_LOGIN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("REMEMBERED_LOGIN_QUERY_FAILED").
			With("operation", "find remembered login").
			Wrap(err)
	}
	return &login, nil
}

// DeleteRememberedLogin removes a remembered login.
func (r *Repository) DeleteRememberedLogin(ctx context.Context, tokenHash string) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM remembered_logins WHERE token_hash = $1
	`, tokenHash)
	if err != nil {
		return oops.Code("REMEMBERED_LOGIN_DELETE_FAILED").
			With("operation", "delete remembered login").
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("REMEMBERED_LOGIN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteExpiredRememberedLogins removes logins expiring at or before
// before and returns the count.
func (r *Repository) DeleteExpiredRememberedLogins(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM remembered_logins WHERE expires_at <= $1
	`, before)
	if err != nil {
		return 0, oops.Code("REMEMBERED_LOGIN_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired remembered logins").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// ClearExpiredResetTokens clears reset tokens expiring at or before
// before and returns the count.
func (r *Repository) ClearExpiredResetTokens(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_reset_hash = NULL, password_reset_expiry = NULL, updated_at = NOW()
		WHERE password_reset_expiry <= $1
	`, before)
	if err != nil {
		return 0, oops.Code("USER_CLEAR_EXPIRED_RESETS_FAILED").
			With("operation", "clear expired reset tokens").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanUser scans a single row into a User.
// Callers are responsible for handling pgx.ErrNoRows.
func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.PasswordResetHash,
		&u.PasswordResetExpiry,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		if isUniqueViolation(err) {
			return nil, err //nolint:wrapcheck // Insert maps this to auth.ErrDuplicate
		}
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Compile-time interface checks.
var (
	_ auth.Repository = (*Repository)(nil)
	_ auth.Pruner     = (*Repository)(nil)
)
