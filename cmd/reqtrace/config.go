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
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/reqtrace/pkg/logging"
)

// Config is the reqtrace.yaml file shape. Every field has a working
// default so the tool runs without a config file at all.
type Config struct {
	// Corpus locates the requirement documents.
	Corpus CorpusConfig `yaml:"corpus"`

	// Sources locates code and test files to scan for traceability
	// markers. Empty root disables scanning.
	Sources SourcesConfig `yaml:"sources"`

	// Results lists test result reports to ingest.
	Results ResultsConfig `yaml:"results"`

	// Schema is an optional path to a YAML schema override. Empty
	// uses the built-in schema.
	Schema string `yaml:"schema"`

	// StrictHashes raises content-hash mismatches to error severity.
	StrictHashes bool `yaml:"strict_hashes"`

	// MetricsAddr serves Prometheus metrics in watch mode when set,
	// e.g. ":9090". Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// CorpusConfig locates requirement documents.
type CorpusConfig struct {
	Root  string   `yaml:"root"`
	Globs []string `yaml:"globs"`
}

// SourcesConfig locates files scanned for traceability markers.
type SourcesConfig struct {
	Root  string   `yaml:"root"`
	Globs []string `yaml:"globs"`
}

// ResultsConfig lists test result reports.
type ResultsConfig struct {
	// JUnit are paths to JUnit XML reports.
	JUnit []string `yaml:"junit"`

	// GoTestJSON are paths to `go test -json` output files.
	GoTestJSON []string `yaml:"go_test_json"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is debug, info, warn, or error. Default: info.
	Level string `yaml:"level"`

	// Dir enables file logging when set.
	Dir string `yaml:"dir"`

	// JSON switches stderr output to JSON.
	JSON bool `yaml:"json"`
}

func (c LoggingConfig) level() logging.Level {
	switch c.Level {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Corpus: CorpusConfig{
			Root:  "requirements",
			Globs: []string{"**/*.md"},
		},
		Sources: SourcesConfig{
			Globs: []string{"**/*.go", "**/*.py", "**/*.ts", "**/*.js"},
		},
	}
}

// LoadConfig reads the config file at path. A missing file is not an
// error; defaults apply. A present but malformed file is fatal, since
// silently ignoring it would validate against the wrong corpus.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}
