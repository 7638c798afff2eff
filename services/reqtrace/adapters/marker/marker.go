// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package marker scans source files for traceability markers.
//
// A marker is a comment line of the form
//
//	// Validates: REQ-p00001-A, REQ-o00002
//
// in any comment syntax. Markers in test files become test references;
// markers elsewhere become code references. Targets are carried as raw
// text, so a mistyped identifier surfaces as a broken-link diagnostic
// during graph construction rather than silently disappearing here.
package marker

import (
	"regexp"
	"strings"

	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

// References holds everything extracted from one file.
type References struct {
	Code  []spec.CodeReference
	Tests []spec.TestReference
}

var (
	markerPattern = regexp.MustCompile(`(?i)\bvalidates:\s*(.+?)\s*$`)

	// Test definition shapes we can attribute markers to. Go test
	// functions and Python/pytest functions cover the repos this tool
	// is pointed at; anything else falls back to a file-level name.
	goTestPattern = regexp.MustCompile(`^func\s+((?:Test|Benchmark|Fuzz)\w+)\s*\(`)
	pyTestPattern = regexp.MustCompile(`^\s*def\s+(test_\w+)\s*\(`)
)

// Scan extracts traceability markers from one source file. The path is
// used for locations, test-file detection, and the suite name of test
// references.
func Scan(path, text string) References {
	var refs References
	isTest := IsTestFile(path)

	currentTest := ""
	for i, line := range strings.Split(text, "\n") {
		if m := goTestPattern.FindStringSubmatch(line); m != nil {
			currentTest = m[1]
		} else if m := pyTestPattern.FindStringSubmatch(line); m != nil {
			currentTest = m[1]
		}

		m := markerPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		targets := splitTargets(m[1])
		if len(targets) == 0 {
			continue
		}

		if isTest {
			refs.Tests = append(refs.Tests, spec.TestReference{
				File:    path,
				Line:    i + 1,
				Name:    testName(path, currentTest),
				Suite:   suiteName(path),
				Targets: targets,
			})
		} else {
			refs.Code = append(refs.Code, spec.CodeReference{
				File:    path,
				Line:    i + 1,
				Targets: targets,
			})
		}
	}
	return refs
}

// ScanAll scans multiple files and merges their references in order.
func ScanAll(files map[string]string, order []string) References {
	var all References
	for _, path := range order {
		refs := Scan(path, files[path])
		all.Code = append(all.Code, refs.Code...)
		all.Tests = append(all.Tests, refs.Tests...)
	}
	return all
}

// IsTestFile reports whether the path follows a test-file naming
// convention for the languages marker understands.
func IsTestFile(path string) bool {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	switch {
	case strings.HasSuffix(base, "_test.go"),
		strings.HasPrefix(base, "test_"),
		strings.HasSuffix(base, "_test.py"),
		strings.Contains(base, ".test.") || strings.Contains(base, ".spec."):
		return true
	}
	return false
}

func splitTargets(raw string) []string {
	var targets []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			targets = append(targets, part)
		}
	}
	return targets
}

// testName names the test reference after the enclosing test function.
// A marker above the first test in a file has no enclosing function
// yet, so it is attributed to the file instead.
func testName(path, current string) string {
	if current != "" {
		return current
	}
	return strings.TrimSuffix(baseName(path), extension(path))
}

// suiteName is the directory portion of the path, mirroring how Go
// package paths and pytest module paths group tests.
func suiteName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return ""
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func extension(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}
	return ""
}
