// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package document

import (
	"strings"
	"testing"

	"github.com/AleutianAI/reqtrace/services/reqtrace/diag"
	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

const fullBlock = `# Authentication Spec

## Overview

This document covers authentication. Not a requirement block.

### REQ-p00001: Token Handling (active)

All access tokens are short-lived.

Rationale: Stolen tokens must age out quickly.

Assertions:
A. The system SHALL reject expired tokens.
B. Sessions SHALL time out after 15 minutes. [manual]

Implements: REQ-o00002
Tags: auth, security
Hash: 3f9a2c1b

### REQ-p00002 - Audit Log

Numbered style.

Assertions:
1. Every login SHALL be recorded.
2. Records SHALL be immutable.
`

func TestParse_FullBlock(t *testing.T) {
	reqs, diags := Parse(fullBlock, "product/auth.md")

	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(reqs) != 2 {
		t.Fatalf("got %d requirements, want 2", len(reqs))
	}

	req := reqs[0]
	if req.ID != "REQ-p00001" {
		t.Errorf("ID = %q, want REQ-p00001", req.ID)
	}
	if req.Title != "Token Handling" {
		t.Errorf("Title = %q", req.Title)
	}
	if req.Status != spec.StatusActive {
		t.Errorf("Status = %v, want active", req.Status)
	}
	if req.Body != "All access tokens are short-lived." {
		t.Errorf("Body = %q", req.Body)
	}
	if req.Rationale != "Stolen tokens must age out quickly." {
		t.Errorf("Rationale = %q", req.Rationale)
	}
	if req.Subdir != "product" {
		t.Errorf("Subdir = %q, want product", req.Subdir)
	}
	if req.StoredHash != "3f9a2c1b" {
		t.Errorf("StoredHash = %q", req.StoredHash)
	}
	if req.ComputedHash == "" || len(req.ComputedHash) != spec.HashLength {
		t.Errorf("ComputedHash = %q", req.ComputedHash)
	}
	if len(req.Tags) != 2 || req.Tags[0] != "auth" || req.Tags[1] != "security" {
		t.Errorf("Tags = %v", req.Tags)
	}

	if len(req.Assertions) != 2 {
		t.Fatalf("got %d assertions, want 2", len(req.Assertions))
	}
	if a := req.Assertions[0]; a.Label != 'A' || a.ExpectedGap {
		t.Errorf("assertion A = %+v", a)
	}
	if b := req.Assertions[1]; b.Label != 'B' || !b.ExpectedGap {
		t.Errorf("assertion B = %+v (want ExpectedGap)", b)
	}
	if strings.Contains(req.Assertions[1].Text, "[manual]") {
		t.Error("manual marker not stripped from assertion text")
	}

	if len(req.References) != 1 {
		t.Fatalf("got %d references, want 1", len(req.References))
	}
	if ref := req.References[0]; ref.Rel != spec.RelImplements || ref.Target != "REQ-o00002" {
		t.Errorf("reference = %+v", ref)
	}

	// EndLine spans to the line before the next header.
	if req.Location.Line != 7 {
		t.Errorf("Location.Line = %d, want 7", req.Location.Line)
	}
	if req.Location.EndLine >= reqs[1].Location.Line {
		t.Errorf("EndLine %d overlaps next block at %d", req.Location.EndLine, reqs[1].Location.Line)
	}

	// Numbered assertions get positional labels.
	second := reqs[1]
	if second.Title != "Audit Log" {
		t.Errorf("second Title = %q", second.Title)
	}
	if len(second.Assertions) != 2 ||
		second.Assertions[0].Label != 'A' || second.Assertions[1].Label != 'B' {
		t.Errorf("numbered assertions = %+v", second.Assertions)
	}
}

func TestParse_BulletedAssertions(t *testing.T) {
	text := "### REQ-d00010: Worker\n\nAssertions:\n- Jobs SHALL retry twice.\n- Failures SHALL be logged.\n"
	reqs, diags := Parse(text, "dev.md")

	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(reqs) != 1 || len(reqs[0].Assertions) != 2 {
		t.Fatalf("reqs = %+v", reqs)
	}
	if reqs[0].Assertions[0].Label != 'A' || reqs[0].Assertions[1].Label != 'B' {
		t.Errorf("bulleted labels = %c %c", reqs[0].Assertions[0].Label, reqs[0].Assertions[1].Label)
	}
}

func TestParse_IgnoresProseHeaders(t *testing.T) {
	text := "## Overview\n\nProse.\n\n#### Design Notes\n\nMore prose.\n"
	reqs, diags := Parse(text, "doc.md")

	if len(reqs) != 0 {
		t.Errorf("got %d requirements from prose", len(reqs))
	}
	if len(diags) != 0 {
		t.Errorf("prose headers produced diagnostics: %v", diags)
	}
}

func TestParse_RepairsMalformedHeader(t *testing.T) {
	text := "### REQ_p00001: Underscore Separator\n\nBody.\n"
	reqs, diags := Parse(text, "doc.md")

	if len(reqs) != 1 || reqs[0].ID != "REQ-p00001" {
		t.Fatalf("reqs = %+v", reqs)
	}
	if len(diags) != 1 || diags[0].Severity != diag.SeverityWarning || diags[0].Check != diag.CheckParse {
		t.Fatalf("diags = %+v", diags)
	}
	if !strings.Contains(diags[0].Message, "REQ-p00001") {
		t.Errorf("diagnostic does not carry the repaired form: %s", diags[0].Message)
	}
}

func TestParse_UnrepairableHeader(t *testing.T) {
	// Close enough to REQ to be recognized as an attempted identifier,
	// too broken to repair.
	text := "### REQ-x: Broken\n\nBody.\n"
	reqs, diags := Parse(text, "doc.md")

	if len(reqs) != 0 {
		t.Errorf("unusable block produced requirements: %+v", reqs)
	}
	if len(diags) == 0 || diags[0].Severity != diag.SeverityError {
		t.Errorf("expected error diagnostic, got %+v", diags)
	}
}

func TestParse_UnknownStatus(t *testing.T) {
	text := "### REQ-p00001: Title (finished)\n\nBody.\n"
	reqs, diags := Parse(text, "doc.md")

	if len(reqs) != 1 {
		t.Fatalf("reqs = %+v", reqs)
	}
	if reqs[0].Status != spec.StatusDraft {
		t.Errorf("Status = %v, want draft fallback", reqs[0].Status)
	}
	if len(diags) != 1 || !strings.Contains(diags[0].Message, "finished") {
		t.Errorf("diags = %+v", diags)
	}
}

func TestParse_MiscasedReferenceKeyword(t *testing.T) {
	text := "### REQ-d00001: Title\n\nimplements: REQ-o00001\n"
	reqs, diags := Parse(text, "doc.md")

	if len(reqs) != 1 || len(reqs[0].References) != 1 {
		t.Fatalf("reqs = %+v", reqs)
	}
	if len(diags) != 1 || diags[0].Severity != diag.SeverityWarning {
		t.Errorf("diags = %+v", diags)
	}
}

func TestParse_MisspelledReferenceKeyword(t *testing.T) {
	text := "### REQ-d00001: Title\n\nImplments: REQ-o00001\n"
	reqs, diags := Parse(text, "doc.md")

	if len(reqs) != 1 {
		t.Fatalf("reqs = %+v", reqs)
	}
	if len(reqs[0].References) != 1 || reqs[0].References[0].Rel != spec.RelImplements {
		t.Errorf("references = %+v", reqs[0].References)
	}
	if len(diags) != 1 || !strings.Contains(diags[0].Message, `"Implements"`) {
		t.Errorf("diags = %+v", diags)
	}
}

func TestParse_MalformedReference(t *testing.T) {
	text := "### REQ-d00001: Title\n\nImplements: totally-wrong, REQ-o00001\n"
	reqs, diags := Parse(text, "doc.md")

	if len(reqs) != 1 {
		t.Fatalf("reqs = %+v", reqs)
	}
	// The good reference survives, the bad one is dropped with an error.
	if len(reqs[0].References) != 1 || reqs[0].References[0].Target != "REQ-o00001" {
		t.Errorf("references = %+v", reqs[0].References)
	}
	errs := 0
	for _, d := range diags {
		if d.Severity == diag.SeverityError {
			errs++
		}
	}
	if errs != 1 {
		t.Errorf("got %d errors, want 1: %+v", errs, diags)
	}
}

func TestParse_DuplicateAssertionLabel(t *testing.T) {
	text := "### REQ-p00001: Title\n\nAssertions:\nA. First.\nA. Second.\n"
	reqs, diags := Parse(text, "doc.md")

	if len(reqs) != 1 || len(reqs[0].Assertions) != 1 {
		t.Fatalf("reqs = %+v", reqs)
	}
	if reqs[0].Assertions[0].Text != "First." {
		t.Errorf("kept %q, want the first claimant", reqs[0].Assertions[0].Text)
	}
	if len(diags) != 1 || diags[0].Severity != diag.SeverityError {
		t.Errorf("diags = %+v", diags)
	}
}

func TestParse_InvalidHashLine(t *testing.T) {
	text := "### REQ-p00001: Title\n\nHash: nothex\n"
	reqs, diags := Parse(text, "doc.md")

	if len(reqs) != 1 || reqs[0].StoredHash != "" {
		t.Fatalf("reqs = %+v", reqs)
	}
	if len(diags) != 1 || diags[0].Severity != diag.SeverityWarning {
		t.Errorf("diags = %+v", diags)
	}
}

func TestParse_ScopedHeaderIdentifier(t *testing.T) {
	text := "### REQ-p00001-A: Labeled Header\n\nBody.\n"
	reqs, diags := Parse(text, "doc.md")

	if len(reqs) != 1 || reqs[0].ID != "REQ-p00001" {
		t.Fatalf("reqs = %+v", reqs)
	}
	if len(diags) != 1 || diags[0].Severity != diag.SeverityWarning {
		t.Errorf("diags = %+v", diags)
	}
}

func TestParse_CRLF(t *testing.T) {
	text := "### REQ-p00001: Title\r\n\r\nBody.\r\n\r\nAssertions:\r\nA. One.\r\n"
	reqs, diags := Parse(text, "doc.md")

	if len(diags) != 0 {
		t.Fatalf("diags = %+v", diags)
	}
	if len(reqs) != 1 || reqs[0].Body != "Body." || len(reqs[0].Assertions) != 1 {
		t.Errorf("reqs = %+v", reqs)
	}
}

func TestParse_NamespacedIdentifier(t *testing.T) {
	text := "### CAL:REQ-p00001: External\n\nImplements: CAL:REQ-o00002\n"
	reqs, diags := Parse(text, "doc.md")

	if len(diags) != 0 {
		t.Fatalf("diags = %+v", diags)
	}
	if len(reqs) != 1 || reqs[0].ID != "CAL:REQ-p00001" {
		t.Fatalf("reqs = %+v", reqs)
	}
	if reqs[0].References[0].Target != "CAL:REQ-o00002" {
		t.Errorf("reference = %+v", reqs[0].References[0])
	}
}

func TestParse_AssertionContinuationLine(t *testing.T) {
	text := "### REQ-p00001: Title\n\nAssertions:\nA. The system SHALL\n   keep going.\n"
	reqs, diags := Parse(text, "doc.md")

	if len(diags) != 0 {
		t.Fatalf("diags = %+v", diags)
	}
	if got := reqs[0].Assertions[0].Text; got != "The system SHALL keep going." {
		t.Errorf("continuation text = %q", got)
	}
}
