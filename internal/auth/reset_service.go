// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/holomush/accounts/pkg/errutil"
)

// ResetOutcome distinguishes what RequestReset did. Callers facing the
// public should not reveal it.
type ResetOutcome int

const (
	// ResetNoSuchUser means no account has the email; nothing was written.
	ResetNoSuchUser ResetOutcome = iota
	// ResetSent means a token was stored and handed to the notifier.
	ResetSent
)

// String implements fmt.Stringer.
func (o ResetOutcome) String() string {
	if o == ResetSent {
		return "sent"
	}
	return "no_such_user"
}

// PasswordResetService handles password reset operations.
type PasswordResetService struct {
	users    UserRepository
	hasher   PasswordHasher
	tokens   *TokenIssuer
	notifier Notifier
	serviceConfig
}

// NewPasswordResetService creates a new PasswordResetService.
func NewPasswordResetService(
	users UserRepository,
	hasher PasswordHasher,
	tokens *TokenIssuer,
	notifier Notifier,
	opts ...Option,
) (*PasswordResetService, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("token issuer is required")
	}
	if notifier == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("notifier is required")
	}
	return &PasswordResetService{
		users:         users,
		hasher:        hasher,
		tokens:        tokens,
		notifier:      notifier,
		serviceConfig: newServiceConfig(opts),
	}, nil
}

// RequestReset starts a password reset for the user with email. baseURL is
// the absolute site address the reset link is built on.
//
// An unknown email returns ResetNoSuchUser with a nil error and writes
// nothing. Notification failures are logged, never returned.
func (s *PasswordResetService) RequestReset(ctx context.Context, email, baseURL string) (ResetOutcome, error) {
	ctx, span := startSpan(ctx, OpResetRequest)
	defer span.End()

	// Checked up front so a bad base URL never leaves an unusable token behind.
	if _, err := ResetURL(baseURL, ""); err != nil {
		return ResetNoSuchUser, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.record(ctx, OpResetRequest, OutcomeNoSuchUser)
			return ResetNoSuchUser, nil
		}
		s.record(ctx, OpResetRequest, OutcomeError)
		return ResetNoSuchUser, oops.Code("RESET_REQUEST_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}

	token, err := s.tokens.NewToken()
	if err != nil {
		s.record(ctx, OpResetRequest, OutcomeError)
		return ResetNoSuchUser, oops.Code("RESET_REQUEST_FAILED").
			With("operation", "generate token").
			Wrap(err)
	}

	expiry := s.now().Add(ResetTokenTTL)
	if err := s.users.UpdateResetToken(ctx, user.ID, token.Hash, expiry); err != nil {
		s.record(ctx, OpResetRequest, OutcomeError)
		return ResetNoSuchUser, oops.Code("RESET_REQUEST_FAILED").
			With("operation", "update reset token").
			With("user_id", user.ID).
			Wrap(err)
	}

	link, err := ResetURL(baseURL, token.Value)
	if err != nil {
		s.record(ctx, OpResetRequest, OutcomeError)
		return ResetNoSuchUser, err
	}

	s.notify(ctx, user, link)

	s.logger.InfoContext(ctx, "password reset requested", "user_id", user.ID)
	s.record(ctx, OpResetRequest, OutcomeSuccess)
	return ResetSent, nil
}

// notify hands the reset link to the notifier. A stalled notifier is cut off
// after the notify timeout; the token is already stored either way.
func (s *PasswordResetService) notify(ctx context.Context, user *User, link string) {
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	if err := s.notifier.Send(ctx, resetMessage(user.Email, link)); err != nil {
		errutil.LogError(s.logger, "password reset notification failed",
			oops.With("user_id", user.ID).
				With("timeout", s.notifyTimeout.String()).
				Wrap(err))
	}
}

// ResolveResetToken returns the user holding an unexpired reset token.
// Unknown and expired tokens both return ErrTokenInvalid.
func (s *PasswordResetService) ResolveResetToken(ctx context.Context, value string) (*User, error) {
	ctx, span := startSpan(ctx, OpResetResolve)
	defer span.End()

	if value == "" {
		s.record(ctx, OpResetResolve, OutcomeInvalid)
		return nil, tokenInvalid()
	}

	user, err := s.users.FindByResetHash(ctx, s.tokens.HashOf(value))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.record(ctx, OpResetResolve, OutcomeInvalid)
			return nil, tokenInvalid()
		}
		s.record(ctx, OpResetResolve, OutcomeError)
		return nil, oops.Code("RESET_VALIDATE_FAILED").
			With("operation", "find user by reset hash").
			Wrap(err)
	}

	if !user.HasActiveReset(s.now()) {
		s.logger.DebugContext(ctx, "reset token expired", "user_id", user.ID)
		s.record(ctx, OpResetResolve, OutcomeInvalid)
		return nil, tokenInvalid()
	}

	s.record(ctx, OpResetResolve, OutcomeSuccess)
	return user, nil
}

// ApplyNewPassword sets a new password for user and clears the reset token
// in the same write. Only the password rules are checked.
func (s *PasswordResetService) ApplyNewPassword(ctx context.Context, user *User, password, confirmation string) error {
	ctx, span := startSpan(ctx, OpResetApply)
	defer span.End()

	if user == nil || user.ID == 0 {
		return oops.Code("RESET_INVALID_USER").Errorf("a stored user is required")
	}

	if violations := s.policy.Validate(password, confirmation); len(violations) > 0 {
		s.record(ctx, OpResetApply, OutcomeInvalid)
		return newValidationError(violations)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.record(ctx, OpResetApply, OutcomeError)
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.users.ClearResetAndSetPassword(ctx, user.ID, hash); err != nil {
		s.record(ctx, OpResetApply, OutcomeError)
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "clear reset and set password").
			With("user_id", user.ID).
			Wrap(err)
	}

	user.PasswordHash = hash
	user.PasswordResetHash = nil
	user.PasswordResetExpiry = nil

	s.logger.InfoContext(ctx, "password reset completed", "user_id", user.ID)
	s.record(ctx, OpResetApply, OutcomeSuccess)
	return nil
}

// ResetPassword resolves value and applies the new password in one call.
func (s *PasswordResetService) ResetPassword(ctx context.Context, value, password, confirmation string) error {
	user, err := s.ResolveResetToken(ctx, value)
	if err != nil {
		return err
	}
	return s.ApplyNewPassword(ctx, user, password, confirmation)
}
