// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/bioauth/bioauth/internal/config"
)

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}

	schema := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		},
	}

	validate := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a config file",
		Long: `Check FILE against the config JSON Schema, then merge it with the
environment and flags and run the semantic checks serve would run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Clean(args[0])
			data, err := os.ReadFile(path)
			if err != nil {
				return oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
			}
			if err := config.ValidateYAML(data); err != nil {
				return err
			}

			merged := *flags
			merged.configFile = path
			cfg, err := merged.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.Printf("%s: ok\n", path)
			return nil
		},
	}

	cmd.AddCommand(schema, validate)
	return cmd
}
