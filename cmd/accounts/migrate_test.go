// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/accounts/pkg/errutil"
)

const latestVersion = 2

type fakeMigrator struct {
	version uint
	dirty   bool
	calls   []string
	closed  bool
}

func (m *fakeMigrator) Up() error {
	m.calls = append(m.calls, "up")
	m.version = latestVersion
	return nil
}

func (m *fakeMigrator) Down() error {
	m.calls = append(m.calls, "down")
	m.version = 0
	return nil
}

func (m *fakeMigrator) Steps(n int) error {
	m.calls = append(m.calls, "steps")
	m.version = uint(int(m.version) + n) //nolint:gosec // test values stay in range
	return nil
}

func (m *fakeMigrator) Version() (uint, bool, error) { return m.version, m.dirty, nil }

func (m *fakeMigrator) Force(v int) error {
	m.calls = append(m.calls, "force")
	m.version = uint(v) //nolint:gosec // test values stay in range
	m.dirty = false
	return nil
}

func (m *fakeMigrator) PendingMigrations() ([]uint, error) {
	var pending []uint
	for v := m.version + 1; v <= latestVersion; v++ {
		pending = append(pending, v)
	}
	return pending, nil
}

func (m *fakeMigrator) Close() error {
	m.closed = true
	return nil
}

func migrateHarness(t *testing.T, m *fakeMigrator) (*harness, *string) {
	t.Helper()
	h := newHarness(t)
	var gotURL string
	h.deps.NewMigrator = func(url string) (Migrator, error) {
		gotURL = url
		return m, nil
	}
	return h, &gotURL
}

func TestMigrate_Up(t *testing.T) {
	m := &fakeMigrator{}
	h, url := migrateHarness(t, m)

	res := h.run(t, "", "migrate", "up")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "Applied 000001_create_users\nApplied 000002_create_remembered_logins\n", res.stdout)
	assert.Equal(t, "postgres://test/accounts", *url)
	assert.True(t, m.closed)

	res = h.run(t, "", "migrate", "up")
	require.NoError(t, res.err)
	assert.Equal(t, "No pending migrations\n", res.stdout)
	assert.Equal(t, []string{"up"}, m.calls)
}

func TestMigrate_Down(t *testing.T) {
	m := &fakeMigrator{version: latestVersion}
	h, _ := migrateHarness(t, m)

	res := h.run(t, "", "migrate", "down")
	require.Error(t, res.err)
	errutil.AssertErrorCode(t, res.err, "CONFIRMATION_REQUIRED")
	assert.Empty(t, m.calls)

	res = h.run(t, "", "migrate", "down", "--yes")
	require.NoError(t, res.err)
	assert.Equal(t, []string{"down"}, m.calls)
	assert.Zero(t, m.version)
}

func TestMigrate_VersionStepsForce(t *testing.T) {
	tests := []struct {
		name    string
		start   fakeMigrator
		args    []string
		want    string
		wantErr string
	}{
		{name: "version", start: fakeMigrator{version: 1}, args: []string{"version"}, want: "Version: 1\nPending: 1\n"},
		{name: "dirty version", start: fakeMigrator{version: 2, dirty: true}, args: []string{"version"}, want: "Version: 2 (dirty)\nPending: 0\n"},
		{name: "steps forward", start: fakeMigrator{}, args: []string{"steps", "1"}, want: "Version: 1\n"},
		{name: "steps back with down", start: fakeMigrator{version: 2}, args: []string{"steps", "--down", "1"}, want: "Version: 1\n"},
		{name: "steps back after double dash", start: fakeMigrator{version: 2}, args: []string{"steps", "--", "-1"}, want: "Version: 1\n"},
		{name: "bare negative steps", start: fakeMigrator{version: 2}, args: []string{"steps", "-1"}, wantErr: "INVALID_ARGUMENT"},
		{name: "down with negative steps", start: fakeMigrator{version: 2}, args: []string{"steps", "--down", "--", "-1"}, wantErr: "INVALID_ARGUMENT"},
		{name: "zero steps", start: fakeMigrator{version: 2}, args: []string{"steps", "0"}, wantErr: "INVALID_ARGUMENT"},
		{name: "steps not a number", args: []string{"steps", "x"}, wantErr: "INVALID_ARGUMENT"},
		{name: "force clears dirty", start: fakeMigrator{version: 2, dirty: true}, args: []string{"force", "1"}, want: "Version: 1\n"},
		{name: "force not a number", args: []string{"force", "one"}, wantErr: "INVALID_ARGUMENT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.start
			h, _ := migrateHarness(t, &m)

			res := h.run(t, "", append([]string{"migrate"}, tt.args...)...)
			if tt.wantErr != "" {
				require.Error(t, res.err)
				errutil.AssertErrorCode(t, res.err, tt.wantErr)
				return
			}
			require.NoError(t, res.err, res.stderr)
			assert.Equal(t, tt.want, res.stdout)
		})
	}
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	called := false
	deps := &Deps{NewMigrator: func(string) (Migrator, error) {
		called = true
		return &fakeMigrator{}, nil
	}}

	res := execute(context.Background(), deps, "", "--env-file", t.TempDir()+"/missing.env", "migrate", "up")
	require.Error(t, res.err)
	errutil.AssertErrorCode(t, res.err, "CONFIG_INVALID")
	assert.False(t, called)
}
