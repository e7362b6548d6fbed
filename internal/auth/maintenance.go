// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// PruneResult counts the rows removed by one Prune pass.
type PruneResult struct {
	RememberedLogins int64
	ResetTokens      int64
}

// Maintenance removes expired token state. Services never depend on it:
// expired rows are already ignored at read time.
type Maintenance struct {
	pruner Pruner
	now    Clock
	logger *slog.Logger
}

// NewMaintenance creates a Maintenance over pruner. Only WithClock and
// WithLogger apply.
func NewMaintenance(pruner Pruner, opts ...Option) (*Maintenance, error) {
	if pruner == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("pruner is required")
	}
	cfg := newServiceConfig(opts)
	return &Maintenance{pruner: pruner, now: cfg.now, logger: cfg.logger}, nil
}

// Prune deletes expired remembered logins and clears expired reset tokens.
func (m *Maintenance) Prune(ctx context.Context) (PruneResult, error) {
	now := m.now()

	logins, err := m.pruner.DeleteExpiredRememberedLogins(ctx, now)
	if err != nil {
		return PruneResult{}, oops.Code("PRUNE_FAILED").
			With("operation", "delete expired remembered logins").
			Wrap(err)
	}

	resets, err := m.pruner.ClearExpiredResetTokens(ctx, now)
	if err != nil {
		return PruneResult{RememberedLogins: logins}, oops.Code("PRUNE_FAILED").
			With("operation", "clear expired reset tokens").
			Wrap(err)
	}

	result := PruneResult{RememberedLogins: logins, ResetTokens: resets}
	m.logger.InfoContext(ctx, "pruned expired tokens",
		"remembered_logins", result.RememberedLogins,
		"reset_tokens", result.ResetTokens,
		"before", now.Format(time.RFC3339),
	)
	return result, nil
}
