// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"io"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/accounts/internal/auth"
	"github.com/holomush/accounts/internal/notify"
	"github.com/holomush/accounts/pkg/errutil"
)

func newResetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Run the password reset flow",
	}
	cmd.AddCommand(newResetRequestCmd(a))
	cmd.AddCommand(newResetApplyCmd(a))
	return cmd
}

func newResetRequestCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Send a password reset link",
		Long: `Send a password reset link to email through the configured notifier.
The output is the same whether or not an account uses the address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			notifier, closeNotifier, err := a.deps.OpenNotifier(ctx, a.cfg, cmd.OutOrStdout(), a.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeNotifier(); err != nil {
					errutil.LogError(a.logger, "closing notifier failed", err)
				}
			}()

			return a.withStore(ctx, func(st Store) error {
				svc, err := auth.NewPasswordResetService(st, a.deps.Hasher, a.tokenIssuer(), notifier, a.serviceOptions(nil)...)
				if err != nil {
					return err
				}
				outcome, err := svc.RequestReset(ctx, email, a.cfg.Reset.BaseURL)
				if err != nil {
					return err
				}
				a.logger.DebugContext(ctx, "reset request handled", "outcome", outcome.String())
				fmt.Fprintf(cmd.OutOrStdout(), "If an account exists for %s, a reset link has been sent.\n", email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().String("reset-base-url", "", "absolute URL reset links are built on")
	return cmd
}

func newResetApplyCmd(a *app) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Set a new password with a reset token",
		Long: `Set a new password with a reset token. The token is taken from
--token or the first line of standard input, followed by the new password and
its confirmation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := a.tokenArg(cmd, token)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return a.withStore(ctx, func(st Store) error {
				// Applying a reset sends nothing.
				svc, err := auth.NewPasswordResetService(st, a.deps.Hasher, a.tokenIssuer(),
					notify.NewWriterNotifier(io.Discard, ""), a.serviceOptions(nil)...)
				if err != nil {
					return err
				}
				user, err := svc.ResolveResetToken(ctx, value)
				if err != nil {
					return err
				}

				password, err := a.readSecret(cmd, "New password: ")
				if err != nil {
					return err
				}
				confirmation, err := a.readSecret(cmd, "Confirm new password: ")
				if err != nil {
					return err
				}
				if err := svc.ApplyNewPassword(ctx, user, password, confirmation); err != nil {
					printViolations(cmd, err)
					return oops.With("user_id", user.ID).Wrap(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password updated for user %d <%s>\n", user.ID, user.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "password reset token (default: read from stdin)")
	return cmd
}
