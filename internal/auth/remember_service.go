// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// RememberTokenService issues and resolves long-lived "remember me" tokens.
type RememberTokenService struct {
	repo   Repository
	tokens *TokenIssuer
	serviceConfig
}

// NewRememberTokenService creates a new RememberTokenService.
func NewRememberTokenService(repo Repository, tokens *TokenIssuer, opts ...Option) (*RememberTokenService, error) {
	if repo == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("repository is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("token issuer is required")
	}
	return &RememberTokenService{
		repo:          repo,
		tokens:        tokens,
		serviceConfig: newServiceConfig(opts),
	}, nil
}

// IssueFor creates a remembered login for user and returns the token value
// for the client to hold along with its expiry. The value is not stored.
func (s *RememberTokenService) IssueFor(ctx context.Context, user *User) (string, time.Time, error) {
	ctx, span := startSpan(ctx, OpRememberIssue)
	defer span.End()

	if user == nil || user.ID == 0 {
		return "", time.Time{}, oops.Code("REMEMBER_INVALID_USER").Errorf("a stored user is required")
	}

	token, err := s.tokens.NewToken()
	if err != nil {
		s.record(ctx, OpRememberIssue, OutcomeError)
		return "", time.Time{}, oops.Code("REMEMBER_ISSUE_FAILED").
			With("operation", "generate token").
			Wrap(err)
	}

	login := &RememberedLogin{
		TokenHash: token.Hash,
		UserID:    user.ID,
		ExpiresAt: s.now().Add(RememberTokenTTL),
	}
	if err := s.repo.InsertRememberedLogin(ctx, login); err != nil {
		s.record(ctx, OpRememberIssue, OutcomeError)
		return "", time.Time{}, oops.Code("REMEMBER_ISSUE_FAILED").
			With("operation", "insert remembered login").
			With("user_id", user.ID).
			Wrap(err)
	}

	s.record(ctx, OpRememberIssue, OutcomeSuccess)
	return token.Value, login.ExpiresAt, nil
}

// Resolve returns the user owning an unexpired remembered login.
// Unknown, expired, and orphaned tokens all return ErrTokenInvalid.
func (s *RememberTokenService) Resolve(ctx context.Context, value string) (*User, error) {
	ctx, span := startSpan(ctx, OpRememberLookup)
	defer span.End()

	if value == "" {
		s.record(ctx, OpRememberLookup, OutcomeInvalid)
		return nil, tokenInvalid()
	}

	login, err := s.repo.FindRememberedLogin(ctx, s.tokens.HashOf(value))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.record(ctx, OpRememberLookup, OutcomeInvalid)
			return nil, tokenInvalid()
		}
		s.record(ctx, OpRememberLookup, OutcomeError)
		return nil, oops.Code("REMEMBER_RESOLVE_FAILED").
			With("operation", "find remembered login").
			Wrap(err)
	}

	if login.IsExpiredAt(s.now()) {
		s.logger.DebugContext(ctx, "remembered login expired", "user_id", login.UserID)
		s.record(ctx, OpRememberLookup, OutcomeInvalid)
		return nil, tokenInvalid()
	}

	user, err := s.repo.FindByID(ctx, login.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.record(ctx, OpRememberLookup, OutcomeInvalid)
			return nil, tokenInvalid()
		}
		s.record(ctx, OpRememberLookup, OutcomeError)
		return nil, oops.Code("REMEMBER_RESOLVE_FAILED").
			With("operation", "find user by id").
			With("user_id", login.UserID).
			Wrap(err)
	}

	s.record(ctx, OpRememberLookup, OutcomeSuccess)
	return user, nil
}

// Forget deletes the remembered login for value. Forgetting an unknown
// token is not an error.
func (s *RememberTokenService) Forget(ctx context.Context, value string) error {
	if value == "" {
		return nil
	}
	err := s.repo.DeleteRememberedLogin(ctx, s.tokens.HashOf(value))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("REMEMBER_FORGET_FAILED").
			With("operation", "delete remembered login").
			Wrap(err)
	}
	return nil
}
