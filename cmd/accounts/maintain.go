// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/accounts/internal/auth"
	"github.com/holomush/accounts/internal/observability"
	"github.com/holomush/accounts/pkg/errutil"
)

const shutdownTimeout = 5 * time.Second

func newPruneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired remembered logins and reset tokens once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(st Store) error {
				m, err := auth.NewMaintenance(st, a.serviceOptions(nil)...)
				if err != nil {
					return err
				}
				result, err := m.Prune(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d remembered logins and %d reset tokens\n",
					result.RememberedLogins, result.ResetTokens)
				return nil
			})
		},
	}
}

func newMaintainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Prune expired tokens periodically and serve metrics",
		Long: `Prune expired tokens every --interval until interrupted, serving
Prometheus metrics and health probes on --metrics-addr (empty disables them).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.withStore(ctx, func(st Store) error {
				return a.maintain(ctx, st)
			})
		},
	}

	cmd.Flags().String("interval", "1h", "time between prune runs")
	cmd.Flags().String("metrics-addr", "127.0.0.1:9100", "metrics/health HTTP address (empty = disabled)")
	return cmd
}

func (a *app) maintain(ctx context.Context, st Store) error {
	interval, err := a.cfg.MaintainInterval()
	if err != nil {
		return err
	}

	var metrics *observability.Metrics
	var serveErr <-chan error
	if addr := a.cfg.Metrics.Addr; addr != "" {
		server := a.deps.ObservabilityServerFactory(addr, st.Ping, a.logger)
		serveErr, err = server.Start()
		if err != nil {
			return oops.Code("METRICS_START_FAILED").With("addr", addr).Wrap(err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Stop(stopCtx); err != nil {
				errutil.LogError(a.logger, "stopping observability server failed", err)
			}
		}()
		metrics = server.Metrics()
		a.logger.InfoContext(ctx, "observability server started", "addr", server.Addr())
	}

	m, err := auth.NewMaintenance(st, a.serviceOptions(nil)...)
	if err != nil {
		return err
	}

	prune := func() {
		result, err := m.Prune(ctx)
		if metrics != nil {
			metrics.RecordPrune(result, err)
		}
		if err != nil && ctx.Err() == nil {
			errutil.LogError(a.logger, "prune failed", err)
		}
	}

	a.logger.InfoContext(ctx, "maintenance started", "interval", interval.String())
	prune()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("maintenance stopped")
			return nil
		case err, ok := <-serveErr:
			if ok && err != nil {
				return oops.Code("METRICS_SERVE_FAILED").Wrap(err)
			}
			serveErr = nil
		case <-ticker.C:
			prune()
		}
	}
}
