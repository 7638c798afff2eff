// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ident implements the requirement identifier grammar.
//
// An identifier names a requirement, optionally scoped to one or more of
// its assertions, and optionally qualified with a cross-repository
// namespace:
//
//	REQ-p00001        whole requirement, product level, sequence 1
//	REQ-d00042-A      assertion A of a development requirement
//	REQ-o00007-BD     assertions B and D
//	CAL:REQ-p00001    requirement in the CAL repository
//
// The grammar is: [namespace ":"] "REQ-" level sequence ["-" labels]
// where level is one of p/o/d, sequence is exactly five digits, and
// labels is a run of distinct uppercase letters.
//
// Parsing never panics and never returns a Go error; all failure is
// returned as a *ParseFailure carrying a human-actionable suggestion.
package ident

import (
	"fmt"
	"strings"
)

// Requirement identifier prefix. Fixed for all levels and namespaces.
const Prefix = "REQ"

// SequenceWidth is the fixed digit width of the sequence component.
const SequenceWidth = 5

// Level is the hierarchy level encoded in an identifier.
type Level int

const (
	// LevelUnknown indicates an unparsed or invalid level.
	LevelUnknown Level = iota

	// LevelProduct is the top of the hierarchy (letter 'p').
	LevelProduct

	// LevelOperational sits between product and development (letter 'o').
	LevelOperational

	// LevelDevelopment is the bottom of the hierarchy (letter 'd').
	LevelDevelopment
)

// levelNames maps Level values to their long-form names.
var levelNames = map[Level]string{
	LevelProduct:     "product",
	LevelOperational: "operational",
	LevelDevelopment: "development",
}

// levelLetters maps the compact identifier letter to a Level.
var levelLetters = map[byte]Level{
	'p': LevelProduct,
	'o': LevelOperational,
	'd': LevelDevelopment,
}

// String returns the long-form level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

// Letter returns the compact single-letter form used inside identifiers.
func (l Level) Letter() byte {
	switch l {
	case LevelProduct:
		return 'p'
	case LevelOperational:
		return 'o'
	case LevelDevelopment:
		return 'd'
	default:
		return '?'
	}
}

// LevelFromName parses a long-form level name ("product", "operational",
// "development"). Returns LevelUnknown for anything else.
func LevelFromName(s string) Level {
	for lvl, name := range levelNames {
		if name == s {
			return lvl
		}
	}
	return LevelUnknown
}

// Identifier is the parsed form of a requirement identifier.
//
// Two identifiers with the same Namespace, Level, and Sequence but
// different Labels refer to the same requirement at different
// granularity. A partial (assertion-scoped) reference must not be
// conflated with a whole-requirement reference; callers that need the
// owning requirement use RequirementID().
//
// Identifier is a value type; treat as immutable.
type Identifier struct {
	// Namespace is the optional cross-repository prefix (e.g. "CAL").
	// Empty for identifiers local to the current corpus.
	Namespace string

	// Level is the hierarchy level encoded by the level letter.
	Level Level

	// Sequence is the numeric component, rendered fixed-width.
	Sequence int

	// Labels holds the assertion scope as an ordered run of distinct
	// uppercase letters. Empty means the whole requirement.
	Labels string
}

// IsZero reports whether the identifier is the zero value.
func (id Identifier) IsZero() bool {
	return id.Level == LevelUnknown && id.Sequence == 0 && id.Namespace == "" && id.Labels == ""
}

// IsScoped reports whether the identifier targets specific assertions
// rather than the whole requirement.
func (id Identifier) IsScoped() bool {
	return id.Labels != ""
}

// RequirementID returns the identifier with any assertion scope removed.
func (id Identifier) RequirementID() Identifier {
	id.Labels = ""
	return id
}

// WithLabel returns the identifier scoped to a single assertion label.
func (id Identifier) WithLabel(label byte) Identifier {
	id.Labels = string(label)
	return id
}

// String renders the canonical text form. Parsing the result yields an
// identical Identifier (round-trip property).
func (id Identifier) String() string {
	var b strings.Builder
	if id.Namespace != "" {
		b.WriteString(id.Namespace)
		b.WriteByte(':')
	}
	b.WriteString(Prefix)
	b.WriteByte('-')
	b.WriteByte(id.Level.Letter())
	fmt.Fprintf(&b, "%0*d", SequenceWidth, id.Sequence)
	if id.Labels != "" {
		b.WriteByte('-')
		b.WriteString(id.Labels)
	}
	return b.String()
}

// Less orders identifiers for stable output: namespace, then level
// (product first), then sequence, then labels.
func (id Identifier) Less(other Identifier) bool {
	if id.Namespace != other.Namespace {
		return id.Namespace < other.Namespace
	}
	if id.Level != other.Level {
		return id.Level < other.Level
	}
	if id.Sequence != other.Sequence {
		return id.Sequence < other.Sequence
	}
	return id.Labels < other.Labels
}

// ParseFailure describes why a string is not a valid identifier.
//
// ParseFailure is data, not a panic: Parse returns it for every malformed
// input, with Suggestion populated whenever a known authoring mistake or
// a near-miss keyword is recognized.
type ParseFailure struct {
	// Input is the original text handed to Parse.
	Input string

	// Pos is the byte offset where parsing stopped making sense.
	Pos int

	// Reason is a short human-readable description of the problem.
	Reason string

	// Suggestion is the corrected identifier text, when one could be
	// computed. Empty when no plausible correction exists.
	Suggestion string
}

// Error implements the error interface for callers that want to treat a
// failure as an error value.
func (f *ParseFailure) Error() string {
	if f.Suggestion != "" {
		return fmt.Sprintf("invalid identifier %q: %s (did you mean %q?)", f.Input, f.Reason, f.Suggestion)
	}
	return fmt.Sprintf("invalid identifier %q: %s", f.Input, f.Reason)
}

// Parse parses text as a requirement identifier.
//
// Description:
//
//	Accepts the canonical grammar described in the package comment.
//	Common authoring mistakes (wrong separator, wrong case on the
//	prefix or level letter, long-form level words) are rejected with a
//	ParseFailure whose Suggestion holds the corrected form, computed
//	from a fixed mistake table with an edit-distance fallback over the
//	keyword table.
//
// Outputs:
//
//	Identifier - The parsed value. Zero value when failure is non-nil.
//	*ParseFailure - Nil on success.
//
// Parse is a pure function: no side effects, never panics.
func Parse(text string) (Identifier, *ParseFailure) {
	var id Identifier

	rest := text
	pos := 0

	// Optional namespace.
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		ns := rest[:i]
		if !isNamespace(ns) {
			return Identifier{}, failure(text, pos, fmt.Sprintf("namespace %q must be 2-8 uppercase letters", ns))
		}
		id.Namespace = ns
		rest = rest[i+1:]
		pos += i + 1
	}

	// Prefix.
	if !strings.HasPrefix(rest, Prefix+"-") {
		return Identifier{}, failure(text, pos, fmt.Sprintf("expected %q prefix", Prefix+"-"))
	}
	rest = rest[len(Prefix)+1:]
	pos += len(Prefix) + 1

	// Level letter.
	if len(rest) == 0 {
		return Identifier{}, failure(text, pos, "missing level letter")
	}
	lvl, ok := levelLetters[rest[0]]
	if !ok {
		return Identifier{}, failure(text, pos, fmt.Sprintf("unknown level letter %q (want p, o, or d)", string(rest[0])))
	}
	id.Level = lvl
	rest = rest[1:]
	pos++

	// Fixed-width sequence.
	if len(rest) < SequenceWidth {
		return Identifier{}, failure(text, pos, fmt.Sprintf("sequence must be exactly %d digits", SequenceWidth))
	}
	seq := 0
	for i := 0; i < SequenceWidth; i++ {
		c := rest[i]
		if c < '0' || c > '9' {
			return Identifier{}, failure(text, pos+i, fmt.Sprintf("sequence must be exactly %d digits", SequenceWidth))
		}
		seq = seq*10 + int(c-'0')
	}
	id.Sequence = seq
	rest = rest[SequenceWidth:]
	pos += SequenceWidth

	// Optional assertion labels.
	if rest != "" {
		if rest[0] != '-' {
			return Identifier{}, failure(text, pos, fmt.Sprintf("sequence must be exactly %d digits", SequenceWidth))
		}
		rest = rest[1:]
		pos++
		if rest == "" {
			return Identifier{}, failure(text, pos, "trailing separator without assertion labels")
		}
		seen := [26]bool{}
		var labels strings.Builder
		for i := 0; i < len(rest); i++ {
			c := rest[i]
			if c < 'A' || c > 'Z' {
				return Identifier{}, failure(text, pos+i, fmt.Sprintf("assertion label %q must be an uppercase letter", string(c)))
			}
			if seen[c-'A'] {
				continue // duplicate labels collapse silently
			}
			seen[c-'A'] = true
			labels.WriteByte(c)
		}
		id.Labels = labels.String()
	}

	return id, nil
}

// MustParse parses text and panics on failure. For tests and static
// tables only.
func MustParse(text string) Identifier {
	id, fail := Parse(text)
	if fail != nil {
		panic(fail.Error())
	}
	return id
}

// isNamespace reports whether s is a valid namespace component.
func isNamespace(s string) bool {
	if len(s) < 2 || len(s) > 8 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// failure builds a ParseFailure with a suggestion attached when one can
// be computed from the mistake table (see suggest.go).
func failure(input string, pos int, reason string) *ParseFailure {
	return &ParseFailure{
		Input:      input,
		Pos:        pos,
		Reason:     reason,
		Suggestion: suggest(input),
	}
}
