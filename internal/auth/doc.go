// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth implements the account credential and token lifecycle.
//
// # Domain Types
//
//   - User - a registered account; only the password hash is stored
//   - RememberedLogin - a long-lived "remember me" token record
//   - Token - a random value and the digest persisted in its place
//
// # Services
//
// Service types coordinate domain operations:
//   - CredentialService - registration and authentication
//   - RememberTokenService - issue, resolve, and forget remember tokens
//   - PasswordResetService - password reset flow
//   - Maintenance - pruning of expired token state
//
// Services are created with New* constructors that validate dependencies
// and reach storage only through Repository.
//
// # Errors
//
// Validation failures carry every violation in a *ValidationError.
// Authentication failures return ErrUnauthenticated whether the email or
// the password was wrong, and token lookups return ErrTokenInvalid whether
// the token was unknown or expired.
package auth
