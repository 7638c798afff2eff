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
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/reqtrace/services/reqtrace/adapters/gotestjson"
	"github.com/AleutianAI/reqtrace/services/reqtrace/adapters/junitxml"
	"github.com/AleutianAI/reqtrace/services/reqtrace/adapters/marker"
	"github.com/AleutianAI/reqtrace/services/reqtrace/builder"
	"github.com/AleutianAI/reqtrace/services/reqtrace/corpus"
	"github.com/AleutianAI/reqtrace/services/reqtrace/diag"
	"github.com/AleutianAI/reqtrace/services/reqtrace/document"
	"github.com/AleutianAI/reqtrace/services/reqtrace/graph"
	"github.com/AleutianAI/reqtrace/services/reqtrace/rollup"
	"github.com/AleutianAI/reqtrace/services/reqtrace/schema"
)

var (
	buildCorpusRoot   string
	buildSchemaPath   string
	buildStrictHashes bool

	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build the traceability graph once and report diagnostics",
		Long: `Parses the requirement corpus, scans sources for traceability
markers, ingests test results, builds the graph, and prints every
diagnostic. Exits non-zero when any error-severity diagnostic exists.`,
		RunE: runBuild,
	}
)

func init() {
	buildCmd.Flags().StringVar(&buildCorpusRoot, "corpus", "", "Corpus root directory (overrides config)")
	buildCmd.Flags().StringVar(&buildSchemaPath, "schema", "", "Schema override YAML (overrides config)")
	buildCmd.Flags().BoolVar(&buildStrictHashes, "strict-hashes", false, "Treat content hash mismatches as errors")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	applyBuildFlags()

	result, parseDiags, err := buildOnce(ctx)
	if err != nil {
		return err
	}

	errors := printReport(result, parseDiags)
	if errors > 0 {
		return fmt.Errorf("validation failed with %d error(s)", errors)
	}
	return nil
}

func applyBuildFlags() {
	if buildCorpusRoot != "" {
		config.Corpus.Root = buildCorpusRoot
	}
	if buildSchemaPath != "" {
		config.Schema = buildSchemaPath
	}
	if buildStrictHashes {
		config.StrictHashes = true
	}
}

// buildOnce runs one full pipeline pass: discover, parse, scan,
// ingest, build. Parse diagnostics are returned separately because
// they precede graph construction.
func buildOnce(ctx context.Context) (*builder.BuildResult, []diag.Diagnostic, error) {
	s, err := loadSchema()
	if err != nil {
		return nil, nil, err
	}

	docs, err := corpus.Load(config.Corpus.Root, config.Corpus.Globs)
	if err != nil {
		return nil, nil, fmt.Errorf("loading corpus: %w", err)
	}
	logger.Info("corpus loaded", "root", config.Corpus.Root, "documents", len(docs))

	requirements, parseDiags := document.ParseCorpus(ctx, docs)

	inputs := builder.Inputs{Requirements: requirements}
	if err := loadSourceRefs(&inputs); err != nil {
		return nil, nil, err
	}
	if err := loadResults(&inputs); err != nil {
		return nil, nil, err
	}

	opts := []builder.Option{builder.WithLogger(logger.Slog())}
	if config.StrictHashes {
		opts = append(opts, builder.WithStrictHashes())
	}

	result, err := builder.New(opts...).Build(ctx, inputs, s)
	if err != nil {
		return nil, nil, err
	}
	return result, parseDiags, nil
}

func loadSchema() (*schema.Schema, error) {
	if config.Schema == "" {
		return schema.Default(), nil
	}
	data, err := os.ReadFile(config.Schema)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	s, err := schema.Load(data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", config.Schema, err)
	}
	return s, nil
}

// loadSourceRefs scans source files for traceability markers.
func loadSourceRefs(inputs *builder.Inputs) error {
	if config.Sources.Root == "" {
		return nil
	}

	files, err := corpus.Load(config.Sources.Root, config.Sources.Globs)
	if err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}
	for _, f := range files {
		refs := marker.Scan(f.Path, f.Text)
		inputs.CodeRefs = append(inputs.CodeRefs, refs.Code...)
		inputs.TestRefs = append(inputs.TestRefs, refs.Tests...)
	}
	logger.Info("sources scanned",
		"files", len(files),
		"code_refs", len(inputs.CodeRefs),
		"test_refs", len(inputs.TestRefs),
	)
	return nil
}

// loadResults ingests test result reports in their configured formats.
func loadResults(inputs *builder.Inputs) error {
	for _, path := range config.Results.JUnit {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		results, err := junitxml.Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		inputs.TestResults = append(inputs.TestResults, results...)
	}

	for _, path := range config.Results.GoTestJSON {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		results, err := gotestjson.Parse(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		inputs.TestResults = append(inputs.TestResults, results...)
	}

	if len(inputs.TestResults) > 0 {
		logger.Info("test results ingested", "results", len(inputs.TestResults))
	}
	return nil
}

// printReport writes diagnostics and root coverage to stdout and
// returns the total error-severity count.
func printReport(result *builder.BuildResult, parseDiags []diag.Diagnostic) int {
	errors := 0
	for _, d := range parseDiags {
		fmt.Println(d.String())
		if d.Severity == diag.SeverityError {
			errors++
		}
	}
	for _, d := range result.Result.Diagnostics {
		fmt.Println(d.String())
	}
	_, _, buildErrs := result.Result.Counts()
	errors += buildErrs

	fmt.Println()
	printRootMetrics(result.Graph)

	info, warn, _ := result.Result.Counts()
	fmt.Printf("\n%d node(s), %d edge(s); %d info, %d warning(s), %d error(s) in %s\n",
		result.Graph.NodeCount(), result.Graph.EdgeCount(),
		info+countSeverity(parseDiags, diag.SeverityInfo),
		warn+countSeverity(parseDiags, diag.SeverityWarning),
		errors,
		result.Duration.Round(time.Millisecond),
	)
	return errors
}

// printRootMetrics prints one coverage line per requirement root.
func printRootMetrics(g *graph.TraceGraph) {
	for _, root := range g.Roots() {
		if root.Kind != graph.KindRequirement {
			continue
		}
		var parts []string
		if total, ok := root.Metrics[rollup.MetricAssertions]; ok && total > 0 {
			parts = append(parts, fmt.Sprintf("coverage %.0f%% (%.0f/%.0f assertions)",
				root.Metrics[rollup.MetricCoverage],
				root.Metrics[rollup.MetricAssertionsCovered], total))
		}
		executed := root.Metrics[rollup.MetricResultsPassed] + root.Metrics[rollup.MetricResultsFailed]
		if executed > 0 {
			parts = append(parts, fmt.Sprintf("pass rate %.0f%%", root.Metrics[rollup.MetricPassRate]))
		}
		if len(parts) == 0 {
			parts = append(parts, "no assertions")
		}
		fmt.Printf("%s: %s\n", root.ID, strings.Join(parts, ", "))
	}
}

func countSeverity(ds []diag.Diagnostic, sev diag.Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
