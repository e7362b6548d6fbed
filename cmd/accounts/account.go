// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/accounts/internal/auth"
)

func newRegisterCmd(a *app) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user",
		Long: `Register a new user. The password and its confirmation are read
from the terminal, or one per line from standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := a.readSecret(cmd, "Password: ")
			if err != nil {
				return err
			}
			confirmation, err := a.readSecret(cmd, "Confirm password: ")
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(st Store) error {
				svc, err := auth.NewCredentialService(st, a.deps.Hasher, a.serviceOptions(nil)...)
				if err != nil {
					return err
				}
				user, err := svc.Register(cmd.Context(), auth.Registration{
					Name:                 name,
					Email:                email,
					Password:             password,
					PasswordConfirmation: confirmation,
				})
				if err != nil {
					printViolations(cmd, err)
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered user %d <%s>\n", user.ID, user.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email string
	var remember bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check a user's email and password",
		Long: `Check a user's email and password. With --remember a remembered
login token is issued and printed; it is shown only once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := a.readSecret(cmd, "Password: ")
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(st Store) error {
				creds, err := auth.NewCredentialService(st, a.deps.Hasher, a.serviceOptions(nil)...)
				if err != nil {
					return err
				}
				user, err := creds.Authenticate(cmd.Context(), email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Authenticated user %d <%s>\n", user.ID, user.Email)

				if !remember {
					return nil
				}
				svc, err := auth.NewRememberTokenService(st, a.tokenIssuer(), a.serviceOptions(nil)...)
				if err != nil {
					return err
				}
				token, expires, err := svc.IssueFor(cmd.Context(), user)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Remember token: %s\nExpires: %s\n", token, expires.UTC().Format(time.RFC3339))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().BoolVar(&remember, "remember", false, "issue a remembered login token")
	return cmd
}

// tokenArg returns --token, or the first line of stdin when it is empty.
func (a *app) tokenArg(cmd *cobra.Command, token string) (string, error) {
	if token != "" {
		return token, nil
	}
	token, err := a.readLine(cmd.InOrStdin(), "token")
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", oops.Code("INPUT_MISSING").Errorf("a token is required (--token or standard input)")
	}
	return token, nil
}

func newResumeCmd(a *app) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Resolve a remembered login token to its user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := a.tokenArg(cmd, token)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(st Store) error {
				svc, err := auth.NewRememberTokenService(st, a.tokenIssuer(), a.serviceOptions(nil)...)
				if err != nil {
					return err
				}
				user, err := svc.Resolve(cmd.Context(), value)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Resumed login for user %d <%s>\n", user.ID, user.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "remembered login token (default: read from stdin)")
	return cmd
}

func newForgetCmd(a *app) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "forget",
		Short: "Delete a remembered login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := a.tokenArg(cmd, token)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(st Store) error {
				svc, err := auth.NewRememberTokenService(st, a.tokenIssuer(), a.serviceOptions(nil)...)
				if err != nil {
					return err
				}
				if err := svc.Forget(cmd.Context(), value); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Remembered login forgotten")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "remembered login token (default: read from stdin)")
	return cmd
}
