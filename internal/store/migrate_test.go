// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/accounts/pkg/errutil"
)

func TestNewMigrator_InvalidURL(t *testing.T) {
	_, err := NewMigrator("invalid://url")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
}

func TestNewMigrator_PostgresqlSchemeIsRecognized(t *testing.T) {
	// Fails to connect, but must not fail on the driver name.
	_, err := NewMigrator("postgresql://127.0.0.1:1/accounts?connect_timeout=1")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
	assert.NotContains(t, err.Error(), "unknown driver")
}

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@db:5432/accounts", "pgx5://u:p@db:5432/accounts"},
		{"postgresql://u:p@db/accounts?sslmode=disable", "pgx5://u:p@db/accounts?sslmode=disable"},
		{"pgx5://db/accounts", "pgx5://db/accounts"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, migrateURL(tt.in))
		})
	}
}

// fakeMigrate implements migrator with canned results.
type fakeMigrate struct {
	upErr          error
	downErr        error
	stepsErr       error
	versionVal     uint
	versionErr     error
	dirty          bool
	forceErr       error
	forced         int
	closeSourceErr error
	closeDBErr     error
}

func (m *fakeMigrate) Up() error                    { return m.upErr }
func (m *fakeMigrate) Down() error                  { return m.downErr }
func (m *fakeMigrate) Steps(_ int) error            { return m.stepsErr }
func (m *fakeMigrate) Version() (uint, bool, error) { return m.versionVal, m.dirty, m.versionErr }
func (m *fakeMigrate) Close() (error, error)        { return m.closeSourceErr, m.closeDBErr }

func (m *fakeMigrate) Force(v int) error {
	m.forced = v
	return m.forceErr
}

func TestMigrator_Operations(t *testing.T) {
	tests := []struct {
		name     string
		fake     *fakeMigrate
		call     func(*Migrator) error
		wantCode string
	}{
		{name: "up", fake: &fakeMigrate{}, call: (*Migrator).Up},
		{name: "up no change", fake: &fakeMigrate{upErr: migrate.ErrNoChange}, call: (*Migrator).Up},
		{name: "up failure", fake: &fakeMigrate{upErr: errors.New("database locked")}, call: (*Migrator).Up, wantCode: "MIGRATION_UP_FAILED"},
		{name: "down", fake: &fakeMigrate{}, call: (*Migrator).Down},
		{name: "down no change", fake: &fakeMigrate{downErr: migrate.ErrNoChange}, call: (*Migrator).Down},
		{name: "down failure", fake: &fakeMigrate{downErr: errors.New("lock timeout")}, call: (*Migrator).Down, wantCode: "MIGRATION_DOWN_FAILED"},
		{
			name: "steps no change",
			fake: &fakeMigrate{stepsErr: migrate.ErrNoChange},
			call: func(m *Migrator) error { return m.Steps(0) },
		},
		{
			name:     "steps failure",
			fake:     &fakeMigrate{stepsErr: errors.New("file does not exist")},
			call:     func(m *Migrator) error { return m.Steps(5) },
			wantCode: "MIGRATION_STEPS_FAILED",
		},
		{
			name:     "force failure",
			fake:     &fakeMigrate{forceErr: errors.New("no such version")},
			call:     func(m *Migrator) error { return m.Force(2) },
			wantCode: "MIGRATION_FORCE_FAILED",
		},
		{
			name:     "force negative",
			fake:     &fakeMigrate{},
			call:     func(m *Migrator) error { return m.Force(-1) },
			wantCode: "INVALID_VERSION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call(&Migrator{m: tt.fake})
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestMigrator_Force(t *testing.T) {
	fake := &fakeMigrate{}
	require.NoError(t, (&Migrator{m: fake}).Force(1))
	assert.Equal(t, 1, fake.forced)
}

func TestMigrator_Version(t *testing.T) {
	t.Run("applied", func(t *testing.T) {
		version, dirty, err := (&Migrator{m: &fakeMigrate{versionVal: 2}}).Version()
		require.NoError(t, err)
		assert.Equal(t, uint(2), version)
		assert.False(t, dirty)
	})

	t.Run("dirty", func(t *testing.T) {
		_, dirty, err := (&Migrator{m: &fakeMigrate{versionVal: 1, dirty: true}}).Version()
		require.NoError(t, err)
		assert.True(t, dirty)
	})

	t.Run("fresh database", func(t *testing.T) {
		version, dirty, err := (&Migrator{m: &fakeMigrate{versionErr: migrate.ErrNilVersion}}).Version()
		require.NoError(t, err)
		assert.Zero(t, version)
		assert.False(t, dirty)
	})

	t.Run("failure", func(t *testing.T) {
		_, _, err := (&Migrator{m: &fakeMigrate{versionErr: errors.New("connection lost")}}).Version()
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
	})
}

func TestMigrator_Close(t *testing.T) {
	tests := []struct {
		name          string
		fake          *fakeMigrate
		wantComponent string
	}{
		{name: "source", fake: &fakeMigrate{closeSourceErr: errors.New("source close failed")}, wantComponent: "source"},
		{name: "database", fake: &fakeMigrate{closeDBErr: errors.New("db close failed")}, wantComponent: "database"},
		{
			name:          "both",
			fake:          &fakeMigrate{closeSourceErr: errors.New("source close failed"), closeDBErr: errors.New("db close failed")},
			wantComponent: "both",
		},
	}

	require.NoError(t, (&Migrator{m: &fakeMigrate{}}).Close())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Migrator{m: tt.fake}).Close()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
			errutil.AssertErrorContext(t, err, "component", tt.wantComponent)
		})
	}
}

func TestMigrator_PendingAndApplied(t *testing.T) {
	tests := []struct {
		name        string
		fake        *fakeMigrate
		wantPending []uint
		wantApplied []uint
	}{
		{name: "fresh", fake: &fakeMigrate{versionErr: migrate.ErrNilVersion}, wantPending: []uint{1, 2}},
		{name: "users only", fake: &fakeMigrate{versionVal: 1}, wantPending: []uint{2}, wantApplied: []uint{1}},
		{name: "latest", fake: &fakeMigrate{versionVal: 2}, wantApplied: []uint{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migrator{m: tt.fake}

			pending, err := m.PendingMigrations()
			require.NoError(t, err)
			assert.Equal(t, tt.wantPending, pending)

			applied, err := m.AppliedMigrations()
			require.NoError(t, err)
			assert.Equal(t, tt.wantApplied, applied)
		})
	}

	t.Run("version failure", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{versionErr: errors.New("connection lost")}}

		_, err := m.PendingMigrations()
		require.Error(t, err)
		errutil.AssertErrorContext(t, err, "operation", "get pending migrations")

		_, err = m.AppliedMigrations()
		require.Error(t, err)
		errutil.AssertErrorContext(t, err, "operation", "get applied migrations")
	})
}

func TestMigrationName(t *testing.T) {
	tests := []struct {
		version uint
		want    string
	}{
		{1, "000001_create_users"},
		{2, "000002_create_remembered_logins"},
		{999, ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("version_%d", tt.version), func(t *testing.T) {
			name, err := MigrationName(tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestMigrationVersions_ReturnsCopy(t *testing.T) {
	first, err := migrationVersions()
	require.NoError(t, err)
	require.NotEmpty(t, first)
	first[0] = 99999

	second, err := migrationVersions()
	require.NoError(t, err)
	assert.Equal(t, uint(1), second[0])
}
