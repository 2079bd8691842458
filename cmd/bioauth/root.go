// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/bioauth/bioauth/internal/config"
	"github.com/bioauth/bioauth/internal/xdg"
)

// serviceName is reported in every log record.
const serviceName = "bioauth"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	envFile    string
}

// NewRootCmd creates the root command of the BioAuth CLI.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}
	cmd := newBaseCmd(flags)

	cmd.AddCommand(newServeCmd(flags, ServeDeps{}))
	cmd.AddCommand(newMigrateCmd(flags, nil))
	cmd.AddCommand(newSeedCmd(flags))
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newConfigCmd(flags))

	return cmd
}

// newBaseCmd creates the root command with the global flags bound to flags
// and no subcommands.
func newBaseCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bioauth",
		Short: "BioAuth - password and biometric token authentication server",
		Long: `BioAuth issues access and refresh tokens to users who authenticate with a
password, a biometric token or both.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file path (YAML, default $XDG_CONFIG_HOME/bioauth/config.yaml when present)")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded when present")
	config.BindFlags(pf)

	return cmd
}

// load reads the configuration for cmd. Validation is left to the caller so
// commands that need only part of it can proceed.
func (g *globalFlags) load(cmd *cobra.Command) (*config.Config, error) {
	file := g.configFile
	if file == "" {
		var err error
		if file, err = xdg.ConfigFile(); err != nil {
			return nil, err
		}
	}
	return config.Load(config.LoadOptions{
		File:    file,
		EnvFile: g.envFile,
		Flags:   cmd.Flags(),
	})
}
