// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package main

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/bioauth/bioauth/internal/auth"
	"github.com/bioauth/bioauth/internal/logging"
)

const defaultSeedTimeout = 30 * time.Second

type seedOptions struct {
	username string
	email    string
	password string
	timeout  time.Duration
}

// newSeedCmd creates the seed subcommand.
func newSeedCmd(flags *globalFlags) *cobra.Command {
	return newSeedCmdWithStore(flags, openStore)
}

func newSeedCmdWithStore(flags *globalFlags, open storeOpener) *cobra.Command {
	opts := &seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin user",
		Long: `Create the admin user and print its one-time biometric token.
The command is idempotent: an existing user is reported and left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, flags, opts, open)
		},
	}

	cmd.Flags().StringVar(&opts.username, "username", "admin", "username of the seeded user")
	cmd.Flags().StringVar(&opts.email, "email", "admin@bioauth.com", "email of the seeded user")
	cmd.Flags().StringVar(&opts.password, "password", "", "password of the seeded user (required)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", defaultSeedTimeout, "timeout for database operations")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runSeed(cmd *cobra.Command, flags *globalFlags, opts *seedOptions, open storeOpener) error {
	cfg, err := flags.load(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := logging.Setup(serviceName, version, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	credStore, closeStore, err := open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := buildService(cfg.Auth, credStore, nil, logger)
	if err != nil {
		return err
	}

	taken, err := svc.UsernameTaken(ctx, opts.username)
	if err != nil {
		return err
	}
	if taken {
		cmd.Printf("user %s already exists, nothing to do\n", opts.username)
		return nil
	}

	res, err := svc.Register(ctx, auth.RegisterRequest{
		Username: opts.username,
		Password: opts.password,
		Email:    opts.email,
	})
	if err != nil {
		return oops.With("username", opts.username).Wrap(err)
	}

	cmd.Printf("created user %s (id %d)\n", res.Username, res.ID)
	cmd.Printf("biometric token: %s\n", res.BiometricToken)
	cmd.Println("the biometric token is shown once; store it now")
	return nil
}
