// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command reqtrace builds and validates requirements traceability graphs.
//
// Usage:
//
//	# One-shot build against the corpus in ./requirements
//	reqtrace build --corpus ./requirements
//
//	# Rebuild automatically as documents change
//	reqtrace watch --corpus ./requirements
//
//	# Print the effective relationship schema
//	reqtrace schema
//
// Configuration is read from reqtrace.yaml in the working directory
// when present; flags override file values.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/reqtrace/pkg/logging"
)

var (
	config Config
	logger *logging.Logger

	configPath string

	rootCmd = &cobra.Command{
		Use:   "reqtrace",
		Short: "A CLI to build and validate requirements traceability graphs",
		Long: `reqtrace parses a corpus of requirement documents, links them to
code, tests, and test results, and reports coverage and structural
problems as diagnostics.`,
		SilenceUsage: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "reqtrace.yaml", "Path to the configuration file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		config = cfg

		logger = logging.New(logging.Config{
			Level:   config.Logging.level(),
			LogDir:  config.Logging.Dir,
			Service: "reqtrace",
			JSON:    config.Logging.JSON,
		})
		return nil
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Close()
		}
	}
}
