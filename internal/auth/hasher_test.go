// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/holomush/accounts/internal/auth"
	"github.com/holomush/accounts/pkg/errutil"
)

func TestArgon2idHasher_Hash(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("produces argon2id PHC string", func(t *testing.T) {
		hash, err := hasher.Hash("abc123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))
		assert.NotEqual(t, "abc123", hash)
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword1")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword1")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrEmptyPassword)
		errutil.AssertErrorCode(t, err, "AUTH_EMPTY_PASSWORD")
	})
}

func TestArgon2idHasher_Verify(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("round trips for many passwords", func(t *testing.T) {
		for _, pw := range []string{"abc123", "correct horse 9", "ünïcødé1", strings.Repeat("x1", 64)} {
			hash, err := hasher.Hash(pw)
			require.NoError(t, err)

			ok, err := hasher.Verify(pw, hash)
			require.NoError(t, err)
			assert.True(t, ok, "password %q should verify", pw)
		}
	})

	t.Run("different password fails", func(t *testing.T) {
		hash, err := hasher.Hash("abc123")
		require.NoError(t, err)

		for _, other := range []string{"abc124", "ABC123", "abc123 ", ""} {
			ok, err := hasher.Verify(other, hash)
			require.NoError(t, err)
			assert.False(t, ok, "password %q should not verify", other)
		}
	})

	t.Run("invalid hash format returns error", func(t *testing.T) {
		_, err := hasher.Verify("password", "not-a-valid-hash")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
	})

	t.Run("unsupported algorithm returns error", func(t *testing.T) {
		_, err := hasher.Verify("password", "$argon2i$v=19$m=65536,t=1,p=4$AAAA$AAAA")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
	})

	t.Run("threads out of range returns error", func(t *testing.T) {
		for _, p := range []string{"0", "256"} {
			_, err := hasher.Verify("password", "$argon2id$v=19$m=65536,t=1,p="+p+"$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
			require.Error(t, err, "p=%s", p)
			errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
		}
	})

	t.Run("empty key returns error", func(t *testing.T) {
		_, err := hasher.Verify("password", "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
	})
}

func TestArgon2idHasher_VerifyLegacyBcrypt(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	legacy, err := bcrypt.GenerateFromPassword([]byte("abc123"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name string
		hash string
	}{
		{name: "2a prefix", hash: string(legacy)},
		{name: "2y prefix", hash: "$2y$" + strings.TrimPrefix(string(legacy), "$2a$")},
		{name: "2b prefix", hash: "$2b$" + strings.TrimPrefix(string(legacy), "$2a$")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := hasher.Verify("abc123", tt.hash)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = hasher.Verify("abc124", tt.hash)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}

	t.Run("truncated bcrypt hash returns error", func(t *testing.T) {
		_, err := hasher.Verify("abc123", "$2y$10$short")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
	})
}

func TestArgon2idHasher_NeedsUpgrade(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	hash, err := hasher.Hash("abc123")
	require.NoError(t, err)

	assert.False(t, hasher.NeedsUpgrade(hash))
	assert.True(t, hasher.NeedsUpgrade("$2y$10$abcdefghijklmnopqrstuu"))
	assert.True(t, hasher.NeedsUpgrade(""))
}
