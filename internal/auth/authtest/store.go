// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package authtest provides in-memory fakes for testing code built on auth.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/holomush/accounts/internal/auth"
)

// Store is an in-memory auth.Repository and auth.Pruner. It enforces the
// same uniqueness rules as the database schema. Setting one of the Err
// fields makes the matching method fail.
type Store struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*auth.User
	logins map[string]*auth.RememberedLogin
	writes int

	FindErr   error
	InsertErr error
	UpdateErr error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:  make(map[int64]*auth.User),
		logins: make(map[string]*auth.RememberedLogin),
	}
}

// Writes returns the number of successful mutating calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// User returns a copy of the stored user with id, or nil.
func (s *Store) User(id int64) *auth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return copyUser(u)
	}
	return nil
}

// RememberedLogins returns copies of every stored remembered login.
func (s *Store) RememberedLogins() []auth.RememberedLogin {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.RememberedLogin, 0, len(s.logins))
	for _, l := range s.logins {
		out = append(out, *l)
	}
	return out
}

// FindByEmail implements auth.UserRepository.
func (s *Store) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, auth.ErrNotFound
}

// FindByID implements auth.UserRepository.
func (s *Store) FindByID(_ context.Context, id int64) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	if u, ok := s.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, auth.ErrNotFound
}

// FindByResetHash implements auth.UserRepository.
func (s *Store) FindByResetHash(_ context.Context, hash string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	for _, u := range s.users {
		if u.PasswordResetHash != nil && *u.PasswordResetHash == hash {
			return copyUser(u), nil
		}
	}
	return nil, auth.ErrNotFound
}

// Insert implements auth.UserRepository.
func (s *Store) Insert(_ context.Context, user *auth.User) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertErr != nil {
		return nil, s.InsertErr
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, auth.ErrDuplicate
		}
	}
	s.nextID++
	stored := copyUser(user)
	stored.ID = s.nextID
	s.users[stored.ID] = stored
	s.writes++
	return copyUser(stored), nil
}

// UpdateResetToken implements auth.UserRepository.
func (s *Store) UpdateResetToken(_ context.Context, id int64, hash string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	u, ok := s.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.PasswordResetHash = &hash
	u.PasswordResetExpiry = &expiry
	s.writes++
	return nil
}

// ClearResetAndSetPassword implements auth.UserRepository.
func (s *Store) ClearResetAndSetPassword(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	u, ok := s.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordResetHash = nil
	u.PasswordResetExpiry = nil
	s.writes++
	return nil
}

// UpdatePasswordHash implements auth.UserRepository.
func (s *Store) UpdatePasswordHash(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	u, ok := s.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.PasswordHash = passwordHash
	s.writes++
	return nil
}

// InsertRememberedLogin implements auth.RememberedLoginRepository.
func (s *Store) InsertRememberedLogin(_ context.Context, login *auth.RememberedLogin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertErr != nil {
		return s.InsertErr
	}
	if _, ok := s.logins[login.TokenHash]; ok {
		return auth.ErrDuplicate
	}
	stored := *login
	s.logins[login.TokenHash] = &stored
	s.writes++
	return nil
}

// FindRememberedLogin implements auth.RememberedLoginRepository.
func (s *Store) FindRememberedLogin(_ context.Context, tokenHash string) (*auth.RememberedLogin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	l, ok := s.logins[tokenHash]
	if !ok {
		return nil, auth.ErrNotFound
	}
	found := *l
	return &found, nil
}

// DeleteRememberedLogin implements auth.RememberedLoginRepository.
func (s *Store) DeleteRememberedLogin(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.logins[tokenHash]; !ok {
		return auth.ErrNotFound
	}
	delete(s.logins, tokenHash)
	s.writes++
	return nil
}

// DeleteExpiredRememberedLogins implements auth.Pruner.
func (s *Store) DeleteExpiredRememberedLogins(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for hash, l := range s.logins {
		if l.IsExpiredAt(before) {
			delete(s.logins, hash)
			n++
		}
	}
	return n, nil
}

// ClearExpiredResetTokens implements auth.Pruner.
func (s *Store) ClearExpiredResetTokens(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if u.PasswordResetExpiry != nil && !u.PasswordResetExpiry.After(before) {
			u.PasswordResetHash = nil
			u.PasswordResetExpiry = nil
			n++
		}
	}
	return n, nil
}

func copyUser(u *auth.User) *auth.User {
	c := *u
	if u.PasswordResetHash != nil {
		h := *u.PasswordResetHash
		c.PasswordResetHash = &h
	}
	if u.PasswordResetExpiry != nil {
		e := *u.PasswordResetExpiry
		c.PasswordResetExpiry = &e
	}
	return &c
}

var (
	_ auth.Repository = (*Store)(nil)
	_ auth.Pruner     = (*Store)(nil)
)
