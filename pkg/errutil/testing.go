// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err carries the oops code. When codes are
// nested the deepest one is compared.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	_, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	assert.Equal(t, code, Code(err), "error: %v", err)
}

// AssertErrorContext asserts that err carries key=value in its oops context.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertNoSecrets asserts that none of secrets appear in err's message or
// context values. Errors end up in logs, so token values and passwords must
// never be attached to them.
func AssertNoSecrets(t *testing.T, err error, secrets ...string) {
	t.Helper()
	require.Error(t, err)
	msg := err.Error()
	var ctx map[string]any
	if oopsErr, ok := oops.AsOops(err); ok {
		ctx = oopsErr.Context()
	}
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		assert.NotContains(t, msg, secret, "secret leaked into error message")
		for key, value := range ctx {
			if s, ok := value.(string); ok {
				assert.NotContains(t, s, secret, "secret leaked into error context %q", key)
			}
		}
	}
}
