// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/bioauth/bioauth/internal/control"
)

// errNotServing makes `bioauth status` exit non-zero.
var errNotServing = oops.Code("NOT_SERVING").Errorf("server is not serving")

// ProcessStatus is the result of one status query.
type ProcessStatus struct {
	Addr    string `json:"addr"`
	Service string `json:"service,omitempty"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

type statusOptions struct {
	jsonOutput bool
	service    string
	timeout    time.Duration
}

func newStatusCmd(flags *globalFlags) *cobra.Command {
	opts := &statusOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a running server is serving",
		Long: `Query the gRPC health service at observability.control_addr and print
SERVING or NOT_SERVING. The command fails when the server is unreachable or
not serving.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return runStatus(cmd, cfg.Observability.ControlAddr, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().StringVar(&opts.service, "service", "", "health service name, empty for the whole process")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 3*time.Second, "query timeout")

	return cmd
}

func runStatus(cmd *cobra.Command, addr string, opts *statusOptions) error {
	st := ProcessStatus{Addr: addr, Service: opts.service}

	var err error
	if addr == "" {
		st.Status = "UNKNOWN"
		st.Error = "observability.control_addr is empty"
	} else {
		ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
		defer cancel()
		st.Status, err = control.Check(ctx, addr, opts.service)
		if err != nil {
			st.Status = "UNREACHABLE"
			st.Error = err.Error()
		}
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(st); encErr != nil {
			return encErr
		}
	} else {
		cmd.Printf("%s: %s\n", addr, st.Status)
		if st.Error != "" {
			cmd.Printf("  error: %s\n", st.Error)
		}
	}

	if st.Status != "SERVING" {
		return errNotServing
	}
	return nil
}
