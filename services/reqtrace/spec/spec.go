// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package spec defines the data model shared by the document parser, the
// graph builder, and the external record adapters.
//
// Everything in this package is plain data. Records are created once per
// build from their sources and are immutable afterwards; the builder
// reads them but never writes back.
package spec

import (
	"strings"
)

// Location identifies a position in a source document or source file.
// Lines are 1-based. EndLine is zero when only a single line is known.
type Location struct {
	// Path is the document or source file path as handed to the parser.
	Path string `yaml:"path" json:"path"`

	// Line is the 1-based starting line.
	Line int `yaml:"line" json:"line"`

	// EndLine is the 1-based inclusive end line, or zero.
	EndLine int `yaml:"end_line,omitempty" json:"end_line,omitempty"`
}

// IsZero reports whether the location carries no information.
func (l Location) IsZero() bool {
	return l.Path == "" && l.Line == 0
}

// Status is the lifecycle status of a requirement.
type Status int

const (
	// StatusDraft is the default for requirements without an explicit status.
	StatusDraft Status = iota

	// StatusActive marks a normative, current requirement.
	StatusActive

	// StatusDeprecated marks a requirement kept for history only.
	StatusDeprecated

	// StatusSuperseded marks a requirement replaced by a newer one.
	StatusSuperseded
)

// statusNames maps Status values to their document text form.
var statusNames = map[Status]string{
	StatusDraft:      "draft",
	StatusActive:     "active",
	StatusDeprecated: "deprecated",
	StatusSuperseded: "superseded",
}

// String returns the document text form of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "draft"
}

// StatusFromString parses a status keyword, case-insensitively.
// Unknown values return StatusDraft and false.
func StatusFromString(s string) (Status, bool) {
	lowered := strings.ToLower(strings.TrimSpace(s))
	for status, name := range statusNames {
		if name == lowered {
			return status, true
		}
	}
	return StatusDraft, false
}

// RelName is a schema relationship name. The closed set of names the
// default schema uses lives here so the parser and the builder agree on
// spelling without importing the schema package.
type RelName string

const (
	// RelAsserts links a requirement to the assertions it owns.
	RelAsserts RelName = "asserts"

	// RelImplements links a lower-level requirement to the requirement
	// or assertion it implements. Rollup-eligible.
	RelImplements RelName = "implements"

	// RelRefines links a requirement to one it makes more precise
	// without claiming implementation coverage.
	RelRefines RelName = "refines"

	// RelAddresses links a requirement or journey to a requirement it
	// speaks to without implementing it.
	RelAddresses RelName = "addresses"

	// RelValidates links a code or test reference to the requirement or
	// assertion it verifies.
	RelValidates RelName = "validates"

	// RelProducedBy links a test to the results it produced.
	RelProducedBy RelName = "produced-by"
)

// Reference is one outbound reference declared by a requirement.
type Reference struct {
	// Rel is the relationship name (implements, refines, addresses).
	Rel RelName

	// Target is the referenced identifier in canonical text form,
	// possibly assertion-scoped.
	Target string

	// Location is where the reference appears in the document.
	Location Location
}

// Assertion is a single testable obligation within a requirement.
// Assertions are not addressable outside their requirement except via
// the assertion-scoped identifier.
type Assertion struct {
	// Label is the single-letter label (A, B, ...).
	Label byte

	// Text is the obligation text.
	Text string

	// Requirement is the owning requirement identifier in canonical form.
	Requirement string

	// ExpectedGap suppresses the coverage-gap check when true. Set by
	// the "[manual]" marker in documents.
	ExpectedGap bool

	// Location is where the assertion appears in the document.
	Location Location
}

// Requirement is one parsed specification unit.
type Requirement struct {
	// ID is the identifier in canonical text form (never scoped).
	ID string

	// Title is the header title text.
	Title string

	// Status is the lifecycle status.
	Status Status

	// Body is the free-text requirement body.
	Body string

	// Rationale is optional non-normative motivation text.
	Rationale string

	// Assertions are the labeled obligations, in document order.
	Assertions []Assertion

	// References are the declared outbound references, in document order.
	References []Reference

	// StoredHash is the content hash found in the document, or empty.
	StoredHash string

	// ComputedHash is the hash recomputed from Title+Body+Assertions at
	// parse time, for the builder's mismatch check.
	ComputedHash string

	// Tags are free-form classification labels.
	Tags []string

	// Subdir is the first path component under the corpus root,
	// used as a coarse classification.
	Subdir string

	// Location spans the requirement block in its document.
	Location Location

	// Conflicting is set by the builder when this requirement claims an
	// identifier already claimed by an earlier-parsed requirement. A
	// conflicting requirement is excluded from normal indexing and
	// traversal but retained for diagnostics.
	Conflicting bool
}

// Assertion returns the assertion with the given label, or nil.
func (r *Requirement) Assertion(label byte) *Assertion {
	for i := range r.Assertions {
		if r.Assertions[i].Label == label {
			return &r.Assertions[i]
		}
	}
	return nil
}
