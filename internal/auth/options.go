// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"log/slog"
	"time"
)

// Operation names reported to a Recorder.
const (
	OpRegister       = "register"
	OpAuthenticate   = "authenticate"
	OpRememberIssue  = "remember_issue"
	OpRememberLookup = "remember_resolve"
	OpResetRequest   = "reset_request"
	OpResetResolve   = "reset_resolve"
	OpResetApply     = "reset_apply"
)

// Outcomes reported to a Recorder.
const (
	OutcomeSuccess         = "success"
	OutcomeInvalid         = "invalid"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeNoSuchUser      = "no_such_user"
	OutcomeError           = "error"
)

// Recorder receives the outcome of every service operation.
// observability.Metrics implements it with Prometheus counters.
type Recorder interface {
	RecordOutcome(operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordOutcome(string, string) {}

// Clock returns the current time. Services evaluate expiry against it.
type Clock func() time.Time

// Option configures a service during construction.
type Option func(*serviceConfig)

type serviceConfig struct {
	logger   *slog.Logger
	now      Clock
	recorder Recorder
	policy   PasswordPolicy

	notifyTimeout time.Duration
}

func newServiceConfig(opts []Option) serviceConfig {
	cfg := serviceConfig{
		logger:   slog.Default(),
		now:      time.Now,
		recorder: nopRecorder{},
		policy:   DefaultPasswordPolicy(),

		notifyTimeout: DefaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithLogger sets the logger used for operational events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock replaces time.Now. Tests use it to move past expiry.
func WithClock(now Clock) Option {
	return func(c *serviceConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRecorder reports operation outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(c *serviceConfig) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithPasswordPolicy overrides the default password rules.
func WithPasswordPolicy(p PasswordPolicy) Option {
	return func(c *serviceConfig) {
		c.policy = p
	}
}

// DefaultNotifyTimeout bounds how long RequestReset waits on the notifier.
const DefaultNotifyTimeout = 10 * time.Second

// WithNotifyTimeout bounds each notifier call. Non-positive values are ignored.
func WithNotifyTimeout(d time.Duration) Option {
	return func(c *serviceConfig) {
		if d > 0 {
			c.notifyTimeout = d
		}
	}
}
