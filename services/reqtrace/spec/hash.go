// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package spec

import (
	"encoding/hex"
	"strings"

	"lukechampine.com/blake3"
)

// HashLength is the hex length of a content hash as stored in documents.
const HashLength = 8

// ContentHash computes the short content digest over a requirement's
// normative content: title, body, and assertion texts.
//
// The normalization rule must match what authoring tools apply when
// writing the Hash: line, or every requirement reports a mismatch:
// each part is whitespace-trimmed, internal runs of whitespace collapse
// to a single space, and parts are joined with a newline. Rationale and
// references are excluded — editing them does not invalidate the hash.
func ContentHash(title, body string, assertions []Assertion) string {
	var b strings.Builder
	b.WriteString(normalizeHashPart(title))
	b.WriteByte('\n')
	b.WriteString(normalizeHashPart(body))
	for _, a := range assertions {
		b.WriteByte('\n')
		b.WriteByte(a.Label)
		b.WriteByte(' ')
		b.WriteString(normalizeHashPart(a.Text))
	}
	sum := blake3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:HashLength]
}

// normalizeHashPart trims and collapses whitespace so cosmetic edits
// (re-wrapping, trailing spaces) do not change the hash.
func normalizeHashPart(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
