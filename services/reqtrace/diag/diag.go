// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diag defines the diagnostic types shared by the document
// parser and the graph builder.
//
// Diagnostics are always data, never control flow: parse problems,
// structural problems, and hash mismatches are collected and returned
// alongside a best-effort result. Nothing in this package ever aborts
// a build.
package diag

import (
	"fmt"

	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity is the severity level of a diagnostic.
type Severity int

const (
	// SeverityInfo marks informational findings (e.g. hash mismatches
	// under the default policy).
	SeverityInfo Severity = iota

	// SeverityWarning marks findings that need attention but leave the
	// graph usable (orphans, coverage gaps).
	SeverityWarning

	// SeverityError marks structural problems (cycles, duplicates,
	// broken links).
	SeverityError
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// =============================================================================
// CHECK NAMES
// =============================================================================

// Check names identify which validation produced a diagnostic. The set
// is closed; report layers key styling and grouping off these strings.
const (
	CheckParse           = "parse"
	CheckDuplicate       = "duplicate-identifier"
	CheckCycle           = "cycle"
	CheckOrphan          = "orphan"
	CheckBrokenLink      = "broken-link"
	CheckLevelConstraint = "level-constraint"
	CheckCoverageGap     = "coverage-gap"
	CheckHashMismatch    = "hash-mismatch"
)

// =============================================================================
// DIAGNOSTIC
// =============================================================================

// Diagnostic is one finding from parsing or validation.
type Diagnostic struct {
	// Severity is the finding severity.
	Severity Severity

	// Check names the validation that produced the finding.
	Check string

	// ID is the identifier of the node the finding concerns, when one
	// applies. Empty for document-level parse findings.
	ID string

	// Message is the human-readable description.
	Message string

	// Location anchors the finding to a source line, when known.
	Location spec.Location
}

// String renders the diagnostic in a compact single-line form.
func (d Diagnostic) String() string {
	loc := ""
	if !d.Location.IsZero() {
		loc = fmt.Sprintf("%s:%d: ", d.Location.Path, d.Location.Line)
	}
	subject := ""
	if d.ID != "" {
		subject = d.ID + ": "
	}
	return fmt.Sprintf("%s%s [%s] %s%s", loc, d.Severity, d.Check, subject, d.Message)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult is the ordered collection of diagnostics for one
// build. Append-only during the build; read-only afterwards.
type ValidationResult struct {
	// Diagnostics in the order they were produced.
	Diagnostics []Diagnostic
}

// Add appends a diagnostic.
func (v *ValidationResult) Add(d Diagnostic) {
	v.Diagnostics = append(v.Diagnostics, d)
}

// AddAll appends a batch of diagnostics, preserving order.
func (v *ValidationResult) AddAll(ds []Diagnostic) {
	v.Diagnostics = append(v.Diagnostics, ds...)
}

// Len returns the number of diagnostics.
func (v *ValidationResult) Len() int {
	return len(v.Diagnostics)
}

// ByCheck returns the diagnostics produced by the named check, in order.
func (v *ValidationResult) ByCheck(check string) []Diagnostic {
	var out []Diagnostic
	for _, d := range v.Diagnostics {
		if d.Check == check {
			out = append(out, d)
		}
	}
	return out
}

// Errors returns only error-severity diagnostics, in order.
func (v *ValidationResult) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range v.Diagnostics {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Counts returns the number of diagnostics per severity.
func (v *ValidationResult) Counts() (info, warning, errs int) {
	for _, d := range v.Diagnostics {
		switch d.Severity {
		case SeverityInfo:
			info++
		case SeverityWarning:
			warning++
		case SeverityError:
			errs++
		}
	}
	return info, warning, errs
}
