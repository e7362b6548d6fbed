// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/accounts/internal/auth"
	"github.com/holomush/accounts/pkg/errutil"
)

func TestValidationError_Error(t *testing.T) {
	err := &auth.ValidationError{Violations: []auth.Violation{
		auth.ViolationNameRequired,
		auth.ViolationInvalidEmail,
	}}
	assert.Equal(t, "validation failed: Name is required; Invalid email", err.Error())
}

func TestViolationsOf(t *testing.T) {
	assert.Nil(t, auth.ViolationsOf(nil))
	assert.Nil(t, auth.ViolationsOf(errors.New("plain")))
}

func TestResetURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{name: "bare host", base: "https://example.com", want: "https://example.com/password/reset/tok"},
		{name: "trailing slash", base: "https://example.com/", want: "https://example.com/password/reset/tok"},
		{name: "with path prefix", base: "https://example.com/app", want: "https://example.com/app/password/reset/tok"},
		{name: "with port", base: "http://localhost:8080", want: "http://localhost:8080/password/reset/tok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.ResetURL(tt.base, "tok")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects relative base", func(t *testing.T) {
		_, err := auth.ResetURL("example.com", "tok")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "RESET_BASE_URL_INVALID")
	})
}

func TestUser_HasActiveReset(t *testing.T) {
	hash := "h"
	expiry := testStart.Add(time.Hour)

	assert.False(t, (&auth.User{}).HasActiveReset(testStart))
	assert.False(t, (&auth.User{PasswordResetHash: &hash}).HasActiveReset(testStart))

	user := &auth.User{PasswordResetHash: &hash, PasswordResetExpiry: &expiry}
	assert.True(t, user.HasActiveReset(testStart))
	assert.False(t, user.HasActiveReset(expiry))
	assert.False(t, user.HasActiveReset(expiry.Add(time.Nanosecond)))
}

func TestRememberedLogin_IsExpiredAt(t *testing.T) {
	login := &auth.RememberedLogin{ExpiresAt: testStart}

	assert.False(t, login.IsExpiredAt(testStart.Add(-time.Nanosecond)))
	assert.True(t, login.IsExpiredAt(testStart))
	assert.True(t, login.IsExpiredAt(testStart.Add(time.Hour)))
}
