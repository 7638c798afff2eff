// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ident

import (
	"strings"
)

// maxSuggestDistance is the largest keyword edit distance that still
// produces a suggestion. Beyond this the input is too garbled to guess.
const maxSuggestDistance = 2

// separatorMistakes are separators authors reach for instead of '-'.
var separatorMistakes = []string{"_", ".", "/", " "}

// levelWordMistakes maps long-form or abbreviated level words that show
// up inside identifiers to the correct level letter.
var levelWordMistakes = map[string]byte{
	"product":     'p',
	"prod":        'p',
	"operational": 'o',
	"ops":         'o',
	"op":          'o',
	"development": 'd',
	"dev":         'd',
}

// suggest attempts to repair a malformed identifier string.
//
// The repair pipeline applies a fixed table of known authoring mistakes
// (wrong separator, wrong case on the prefix or level letter, long-form
// level words, '/'-separated namespace), re-parses, and returns the
// canonical form if the repaired text now parses. As a fallback the
// prefix token is matched against the keyword table by edit distance.
// This is deliberately not a general fuzzy search: the table covers the
// mistakes that actually occur in hand-authored documents.
//
// Returns "" when no plausible correction exists.
func suggest(input string) string {
	if input == "" {
		return ""
	}

	repaired := input

	// Namespace written with '/' instead of ':'.
	if i := strings.IndexByte(repaired, '/'); i > 0 && isNamespace(strings.ToUpper(repaired[:i])) {
		repaired = strings.ToUpper(repaired[:i]) + ":" + repaired[i+1:]
	}

	// Split off the namespace so the remaining fixes see the local part.
	ns := ""
	local := repaired
	if i := strings.IndexByte(repaired, ':'); i >= 0 {
		ns = strings.ToUpper(repaired[:i])
		local = repaired[i+1:]
	}

	// Wrong separators anywhere in the local part.
	for _, sep := range separatorMistakes {
		local = strings.ReplaceAll(local, sep, "-")
	}

	// Prefix case, or a near-miss prefix token ("RQE-", "REQS-").
	if tok, rest, ok := strings.Cut(local, "-"); ok {
		upper := strings.ToUpper(tok)
		if upper != Prefix && levenshtein(upper, Prefix) <= maxSuggestDistance {
			upper = Prefix
		}
		local = upper + "-" + rest
	}

	// Long-form level words directly after the prefix.
	if rest, ok := strings.CutPrefix(local, Prefix+"-"); ok {
		lowered := strings.ToLower(rest)
		for word, letter := range levelWordMistakes {
			if after, ok := strings.CutPrefix(lowered, word+"-"); ok {
				local = Prefix + "-" + string(letter) + after
				break
			}
			if after, ok := strings.CutPrefix(lowered, word); ok && after != "" && after[0] >= '0' && after[0] <= '9' {
				local = Prefix + "-" + string(letter) + after
				break
			}
		}
	}

	// Wrong case on the level letter, zero-padding on the sequence, and
	// lowercase assertion labels.
	local = normalizeTail(local)

	if ns != "" {
		repaired = ns + ":" + local
	} else {
		repaired = local
	}

	if repaired == input {
		return "" // nothing in the table applied
	}
	id, fail := Parse(repaired)
	if fail != nil {
		return ""
	}
	return id.String()
}

// normalizeTail fixes the level letter case, pads short sequences, and
// uppercases assertion labels in an otherwise well-shaped local part.
func normalizeTail(local string) string {
	rest, ok := strings.CutPrefix(local, Prefix+"-")
	if !ok || rest == "" {
		return local
	}

	// Level letter.
	letter := rest[0] | 0x20 // level letters are lowercase
	if _, known := levelLetters[letter]; !known {
		return local
	}
	rest = rest[1:]

	// Sequence digits, possibly under-padded.
	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits > SequenceWidth {
		return local
	}
	seq := strings.Repeat("0", SequenceWidth-digits) + rest[:digits]
	tail := rest[digits:]

	// Assertion labels written in lowercase.
	if after, ok := strings.CutPrefix(tail, "-"); ok && after != "" {
		tail = "-" + strings.ToUpper(after)
	}

	return Prefix + "-" + string(letter) + seq + tail
}

// levenshtein computes the edit distance between two short keyword
// strings. Inputs are expected to be tiny (identifier tokens), so the
// quadratic algorithm is fine.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
