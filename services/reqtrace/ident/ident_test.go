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
	"testing"
)

func TestParse_Canonical(t *testing.T) {
	tests := []struct {
		input string
		want  Identifier
	}{
		{"REQ-p00001", Identifier{Level: LevelProduct, Sequence: 1}},
		{"REQ-o00042", Identifier{Level: LevelOperational, Sequence: 42}},
		{"REQ-d99999", Identifier{Level: LevelDevelopment, Sequence: 99999}},
		{"REQ-p00001-A", Identifier{Level: LevelProduct, Sequence: 1, Labels: "A"}},
		{"REQ-d00007-BD", Identifier{Level: LevelDevelopment, Sequence: 7, Labels: "BD"}},
		{"CAL:REQ-p00001", Identifier{Namespace: "CAL", Level: LevelProduct, Sequence: 1}},
		{"CAL:REQ-o00003-C", Identifier{Namespace: "CAL", Level: LevelOperational, Sequence: 3, Labels: "C"}},
	}

	for _, tc := range tests {
		got, fail := Parse(tc.input)
		if fail != nil {
			t.Errorf("Parse(%q) failed: %v", tc.input, fail)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %+v, expected %+v", tc.input, got, tc.want)
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		"REQ-p00001",
		"REQ-o00042",
		"REQ-d00007-BD",
		"REQ-p12345-A",
		"CAL:REQ-p00001",
		"CAL:REQ-d00900-XYZ",
	}
	for _, input := range inputs {
		id, fail := Parse(input)
		if fail != nil {
			t.Fatalf("Parse(%q) failed: %v", input, fail)
		}
		if got := id.String(); got != input {
			t.Errorf("Parse(%q).String() = %q, expected round-trip", input, got)
		}
	}
}

func TestParse_DuplicateLabelsCollapse(t *testing.T) {
	id, fail := Parse("REQ-p00001-ABA")
	if fail != nil {
		t.Fatalf("Parse failed: %v", fail)
	}
	if id.Labels != "AB" {
		t.Errorf("Labels = %q, expected duplicates collapsed to %q", id.Labels, "AB")
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		input      string
		suggestion string
	}{
		{"", ""},
		{"REQ-x00001", ""},
		{"REQ-p1", "REQ-p00001"},
		{"REQ_p00001", "REQ-p00001"},
		{"req-p00001", "REQ-p00001"},
		{"REQ-P00001", "REQ-p00001"},
		{"REQ-product-00001", "REQ-p00001"},
		{"REQ-dev-00042", "REQ-d00042"},
		{"RQE-p00001", "REQ-p00001"},
		{"CAL/REQ-p00001", "CAL:REQ-p00001"},
		{"REQ-p00001-a", "REQ-p00001-A"},
		{"REQ-p00001-", ""},
		{"REQ-p000011234", ""},
		{"cal:REQ-p00001", "CAL:REQ-p00001"},
		{"REQ-p00001-рус", ""},
	}

	for _, tc := range tests {
		_, fail := Parse(tc.input)
		if fail == nil {
			t.Errorf("Parse(%q) succeeded, expected failure", tc.input)
			continue
		}
		if fail.Suggestion != tc.suggestion {
			t.Errorf("Parse(%q) suggestion = %q, expected %q", tc.input, fail.Suggestion, tc.suggestion)
		}
	}
}

func TestIdentifier_Scope(t *testing.T) {
	scoped := MustParse("REQ-p00001-AB")
	if !scoped.IsScoped() {
		t.Error("expected IsScoped() for labeled identifier")
	}
	whole := scoped.RequirementID()
	if whole.IsScoped() {
		t.Error("RequirementID() must drop assertion labels")
	}
	if whole.String() != "REQ-p00001" {
		t.Errorf("RequirementID() = %q, expected %q", whole.String(), "REQ-p00001")
	}
	if got := whole.WithLabel('C').String(); got != "REQ-p00001-C" {
		t.Errorf("WithLabel('C') = %q, expected %q", got, "REQ-p00001-C")
	}
}

func TestIdentifier_Less(t *testing.T) {
	ordered := []string{
		"REQ-p00001",
		"REQ-p00001-A",
		"REQ-p00002",
		"REQ-o00001",
		"REQ-d00001",
		"CAL:REQ-p00001",
	}
	for i := 0; i < len(ordered)-1; i++ {
		a, b := MustParse(ordered[i]), MustParse(ordered[i+1])
		if i < 4 && !a.Less(b) {
			t.Errorf("expected %s < %s", a, b)
		}
	}
	// Namespaced identifiers sort after local ones (empty namespace first).
	if MustParse("CAL:REQ-p00001").Less(MustParse("REQ-d00001")) {
		t.Error("namespaced identifier must not sort before local identifiers")
	}
}

func TestLevel_Names(t *testing.T) {
	tests := []struct {
		level  Level
		name   string
		letter byte
	}{
		{LevelProduct, "product", 'p'},
		{LevelOperational, "operational", 'o'},
		{LevelDevelopment, "development", 'd'},
		{LevelUnknown, "unknown", '?'},
	}
	for _, tc := range tests {
		if got := tc.level.String(); got != tc.name {
			t.Errorf("Level(%d).String() = %q, expected %q", tc.level, got, tc.name)
		}
		if got := tc.level.Letter(); got != tc.letter {
			t.Errorf("Level(%d).Letter() = %q, expected %q", tc.level, got, tc.letter)
		}
	}
	if LevelFromName("operational") != LevelOperational {
		t.Error("LevelFromName(operational) mismatch")
	}
	if LevelFromName("bogus") != LevelUnknown {
		t.Error("LevelFromName(bogus) must be LevelUnknown")
	}
}
