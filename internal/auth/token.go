// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/samber/oops"
)

// TokenBytes is the amount of randomness in every token (64 hex chars).
const TokenBytes = 32

// Token is a freshly issued token. Value goes to the user; only Hash is
// persisted.
type Token struct {
	Value string
	Hash  string
}

// TokenIssuer generates random tokens and computes their lookup digests.
// It is safe for concurrent use.
type TokenIssuer struct {
	key []byte
}

// TokenIssuerOption configures a TokenIssuer.
type TokenIssuerOption func(*TokenIssuer)

// WithHMACKey keys token digests with HMAC-SHA256 instead of plain SHA-256,
// so a leaked table of digests cannot be checked without the key.
func WithHMACKey(key string) TokenIssuerOption {
	return func(i *TokenIssuer) {
		if key != "" {
			i.key = []byte(key)
		}
	}
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(opts ...TokenIssuerOption) *TokenIssuer {
	i := &TokenIssuer{}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// NewToken creates a secure random token and its digest.
func (i *TokenIssuer) NewToken() (Token, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return Token{}, oops.Code("TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}

	value := hex.EncodeToString(buf)
	return Token{Value: value, Hash: i.HashOf(value)}, nil
}

// HashOf recomputes the digest stored for value.
func (i *TokenIssuer) HashOf(value string) string {
	if len(i.key) == 0 {
		h := sha256.Sum256([]byte(value))
		return hex.EncodeToString(h[:])
	}
	mac := hmac.New(sha256.New, i.key)
	mac.Write([]byte(value)) //nolint:errcheck // hash.Hash writes never fail
	return hex.EncodeToString(mac.Sum(nil))
}
