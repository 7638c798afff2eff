// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package corpus discovers and loads requirement documents from disk.
//
// # Description
//
// A corpus is a directory tree containing requirement markdown files.
// Load matches files against glob patterns (doublestar syntax, so
// "**/*.md" recurses) and returns them in deterministic path order.
// The Watcher re-discovers the corpus whenever files change, with
// debouncing so editor save storms produce a single reload.
package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/AleutianAI/reqtrace/services/reqtrace/document"
)

// DefaultGlobs matches the standard layout of a requirements corpus.
var DefaultGlobs = []string{"**/*.md"}

// DefaultIgnores are directory names skipped during discovery.
var DefaultIgnores = []string{".git", "node_modules", ".idea", "__pycache__"}

// Load reads every file under root matching one of the glob patterns.
//
// # Inputs
//
//   - root: Directory containing the corpus. Must exist.
//   - globs: doublestar patterns relative to root. Nil uses DefaultGlobs.
//
// # Outputs
//
//   - []document.Document: Matched files in sorted path order. Paths are
//     relative to root so diagnostics stay stable across machines.
//   - error: Non-nil if root is unreadable or a matched file cannot be read.
func Load(root string, globs []string) ([]document.Document, error) {
	if len(globs) == 0 {
		globs = DefaultGlobs
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root %s is not a directory", root)
	}

	matched := make(map[string]struct{})
	fsys := os.DirFS(root)
	for _, pattern := range globs {
		paths, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, p := range paths {
			if ignored(p) {
				continue
			}
			matched[p] = struct{}{}
		}
	}

	paths := make([]string, 0, len(matched))
	for p := range matched {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	docs := make([]document.Document, 0, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		docs = append(docs, document.Document{Path: filepath.ToSlash(p), Text: string(data)})
	}
	return docs, nil
}

// ignored reports whether any path segment is an ignored directory name.
func ignored(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		for _, ig := range DefaultIgnores {
			if seg == ig {
				return true
			}
		}
	}
	return false
}
