// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/holomush/accounts/internal/auth"
	"github.com/holomush/accounts/internal/config"
	"github.com/holomush/accounts/internal/logging"
	"github.com/holomush/accounts/internal/xdg"
)

const serviceName = "accounts"

// app is the state shared by one command execution.
type app struct {
	deps       *Deps
	configFile string
	envFile    string
	cfg        *config.Config
	logger     *slog.Logger
	lines      *bufio.Reader
}

// NewRootCmd creates the root command for the accounts CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	a := &app{deps: deps.withDefaults()}

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage user credentials",
		Long: `accounts registers users, authenticates them, issues remembered
logins, and runs the password reset flow against a PostgreSQL database.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/accounts/config.yaml if present)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.String("log-format", "json", "log format (json or text)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newResumeCmd(a))
	cmd.AddCommand(newForgetCmd(a))
	cmd.AddCommand(newResetCmd(a))
	cmd.AddCommand(newPruneCmd(a))
	cmd.AddCommand(newMaintainCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

// load reads configuration and sets up logging before any subcommand runs.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	file := a.configFile
	if file == "" {
		file = xdg.ConfigFile()
	}
	cfg, err := config.Load(config.Options{
		File:    file,
		EnvFile: a.envFile,
		Flags:   cmd.Flags(),
	})
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.Setup(serviceName, version, cfg.Log.Format, level, cmd.ErrOrStderr())
	return nil
}

func (a *app) serviceOptions(recorder auth.Recorder) []auth.Option {
	opts := []auth.Option{
		auth.WithLogger(a.logger),
		auth.WithPasswordPolicy(auth.PasswordPolicy{MinLength: a.cfg.Password.MinLength}),
	}
	if a.deps.Now != nil {
		opts = append(opts, auth.WithClock(a.deps.Now))
	}
	if recorder != nil {
		opts = append(opts, auth.WithRecorder(recorder))
	}
	return opts
}

func (a *app) tokenIssuer() *auth.TokenIssuer {
	if a.cfg.Tokens.HMACKey == "" {
		return auth.NewTokenIssuer()
	}
	return auth.NewTokenIssuer(auth.WithHMACKey(a.cfg.Tokens.HMACKey))
}

// withStore opens storage for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(Store) error) error {
	st, err := a.deps.OpenStore(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// readSecret reads a password. A terminal is prompted without echo;
// anything else is read one line at a time.
func (a *app) readSecret(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), prompt)
		secret, err := term.ReadPassword(int(f.Fd())) //nolint:gosec // fd fits in int
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", oops.Code("INPUT_READ_FAILED").With("prompt", prompt).Wrap(err)
		}
		return string(secret), nil
	}
	return a.readLine(in, prompt)
}

func (a *app) readLine(in io.Reader, prompt string) (string, error) {
	if a.lines == nil {
		a.lines = bufio.NewReader(in)
	}
	line, err := a.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", oops.Code("INPUT_READ_FAILED").With("prompt", prompt).Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// printViolations lists validation failures on stderr.
func printViolations(cmd *cobra.Command, err error) {
	for _, v := range auth.ViolationsOf(err) {
		cmd.PrintErrln("  - " + string(v))
	}
}
