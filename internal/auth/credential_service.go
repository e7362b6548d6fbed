// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/holomush/accounts/pkg/errutil"
)

// dummyPasswordHash is verified when no user matches an email, so a failed
// lookup costs the same as a wrong password.
//
//nolint:gosec // G101: intentionally fake hash, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// CredentialService registers and authenticates users.
type CredentialService struct {
	users  UserRepository
	hasher PasswordHasher
	serviceConfig
}

// NewCredentialService creates a new CredentialService.
func NewCredentialService(users UserRepository, hasher PasswordHasher, opts ...Option) (*CredentialService, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	return &CredentialService{
		users:         users,
		hasher:        hasher,
		serviceConfig: newServiceConfig(opts),
	}, nil
}

// Validate runs every registration rule and returns all violations.
// It reads the repository to check the email is free but never writes.
func (s *CredentialService) Validate(ctx context.Context, reg Registration) ([]Violation, error) {
	var violations []Violation

	if reg.Name == "" {
		violations = append(violations, ViolationNameRequired)
	}

	if !validEmail(reg.Email) {
		violations = append(violations, ViolationInvalidEmail)
	} else {
		taken, err := s.emailTaken(ctx, reg.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			violations = append(violations, ViolationEmailTaken)
		}
	}

	violations = append(violations, s.policy.Validate(reg.Password, reg.PasswordConfirmation)...)
	return violations, nil
}

func (s *CredentialService) emailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, oops.Code("AUTH_REGISTER_FAILED").
		With("operation", "find user by email").
		Wrap(err)
}

// Register validates reg and stores a new user. Validation failures return
// a *ValidationError and leave storage untouched.
func (s *CredentialService) Register(ctx context.Context, reg Registration) (*User, error) {
	ctx, span := startSpan(ctx, OpRegister)
	defer span.End()

	violations, err := s.Validate(ctx, reg)
	if err != nil {
		s.record(ctx, OpRegister, OutcomeError)
		return nil, err
	}
	if len(violations) > 0 {
		s.record(ctx, OpRegister, OutcomeInvalid)
		return nil, newValidationError(violations)
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		s.record(ctx, OpRegister, OutcomeError)
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	now := s.now()
	user, err := s.users.Insert(ctx, &User{
		Name:         reg.Name,
		Email:        reg.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Lost a race with a concurrent registration of the same email.
			s.record(ctx, OpRegister, OutcomeInvalid)
			return nil, newValidationError([]Violation{ViolationEmailTaken})
		}
		s.record(ctx, OpRegister, OutcomeError)
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	s.record(ctx, OpRegister, OutcomeSuccess)
	return user, nil
}

// Authenticate returns the user identified by email and password.
// An unknown email and a wrong password both return ErrUnauthenticated.
func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	ctx, span := startSpan(ctx, OpAuthenticate)
	defer span.End()

	user, lookupErr := s.users.FindByEmail(ctx, email)

	targetHash := dummyPasswordHash
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
	case errors.Is(lookupErr, ErrNotFound):
		user = nil
	default:
		s.record(ctx, OpAuthenticate, OutcomeError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "find user by email").
			Wrap(lookupErr)
	}

	// Always verify so unknown emails take as long as wrong passwords.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && user != nil {
		s.record(ctx, OpAuthenticate, OutcomeError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID).
			Wrap(verifyErr)
	}

	if user == nil || !valid {
		s.record(ctx, OpAuthenticate, OutcomeUnauthenticated)
		return nil, unauthenticated()
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.upgradeHash(ctx, user, password)
	}

	s.record(ctx, OpAuthenticate, OutcomeSuccess)
	return user, nil
}

// upgradeHash rehashes a legacy password hash. Failure leaves the old hash
// in place; login still succeeds.
func (s *CredentialService) upgradeHash(ctx context.Context, user *User, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		errutil.LogError(s.logger, "password hash upgrade failed", err)
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		errutil.LogError(s.logger, "password hash upgrade failed", err)
		return
	}
	user.PasswordHash = newHash
	s.logger.InfoContext(ctx, "password hash upgraded", "user_id", user.ID)
}
