// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/reqtrace/services/reqtrace/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the effective relationship schema as YAML",
	Long: `Prints the schema the next build would use: the configured override
when one is set, otherwise the built-in default. The output is valid
input for the schema config field, so it doubles as a starting point
for customization.`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().StringVar(&buildSchemaPath, "schema", "", "Schema override YAML (overrides config)")
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	applyBuildFlags()

	s, err := loadSchema()
	if err != nil {
		return err
	}

	data, err := schema.Dump(s)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
