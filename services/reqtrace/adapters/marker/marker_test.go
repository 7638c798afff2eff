// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package marker

import (
	"testing"
)

func TestScan_CodeFile(t *testing.T) {
	src := `package auth

// Validates: REQ-p00001-A, REQ-o00002
func CheckToken() {}

// unrelated comment
func Other() {}
`
	refs := Scan("internal/auth/token.go", src)

	if len(refs.Tests) != 0 {
		t.Errorf("non-test file produced test references: %v", refs.Tests)
	}
	if len(refs.Code) != 1 {
		t.Fatalf("code refs = %v", refs.Code)
	}
	c := refs.Code[0]
	if c.File != "internal/auth/token.go" || c.Line != 3 {
		t.Errorf("location = %s:%d", c.File, c.Line)
	}
	if len(c.Targets) != 2 || c.Targets[0] != "REQ-p00001-A" || c.Targets[1] != "REQ-o00002" {
		t.Errorf("targets = %v", c.Targets)
	}
}

func TestScan_GoTestFile(t *testing.T) {
	src := `package auth

func TestCheckToken(t *testing.T) {
	// Validates: REQ-p00001-A
}

func TestOther(t *testing.T) {
	// validates: REQ-p00002
}
`
	refs := Scan("internal/auth/token_test.go", src)

	if len(refs.Code) != 0 {
		t.Errorf("test file produced code references: %v", refs.Code)
	}
	if len(refs.Tests) != 2 {
		t.Fatalf("test refs = %v", refs.Tests)
	}
	if refs.Tests[0].Name != "TestCheckToken" {
		t.Errorf("marker not attributed to enclosing test: %q", refs.Tests[0].Name)
	}
	if refs.Tests[0].Suite != "internal/auth" {
		t.Errorf("suite = %q", refs.Tests[0].Suite)
	}
	// The marker keyword matches case-insensitively.
	if refs.Tests[1].Name != "TestOther" || refs.Tests[1].Targets[0] != "REQ-p00002" {
		t.Errorf("second ref = %+v", refs.Tests[1])
	}
}

func TestScan_PythonTestFile(t *testing.T) {
	src := `import pytest

def test_token_expiry():
    # Validates: REQ-p00001-B
    assert True
`
	refs := Scan("tests/test_token.py", src)

	if len(refs.Tests) != 1 {
		t.Fatalf("test refs = %v", refs.Tests)
	}
	if refs.Tests[0].Name != "test_token_expiry" {
		t.Errorf("name = %q", refs.Tests[0].Name)
	}
}

func TestScan_MarkerBeforeFirstTest(t *testing.T) {
	src := `// Validates: REQ-p00001
package auth
`
	refs := Scan("auth_flow_test.go", src)

	if len(refs.Tests) != 1 {
		t.Fatalf("test refs = %v", refs.Tests)
	}
	// No enclosing function yet, so the file name stands in.
	if refs.Tests[0].Name != "auth_flow_test" {
		t.Errorf("fallback name = %q", refs.Tests[0].Name)
	}
	if refs.Tests[0].Suite != "" {
		t.Errorf("suite for top-level file = %q", refs.Tests[0].Suite)
	}
}

func TestScan_RawTargetsPreserved(t *testing.T) {
	// A mistyped identifier must survive to the graph build, where it
	// becomes a broken-link diagnostic with a suggestion.
	refs := Scan("gate.go", "// Validates: REQ_p00001\n")
	if len(refs.Code) != 1 || refs.Code[0].Targets[0] != "REQ_p00001" {
		t.Errorf("refs = %+v", refs.Code)
	}
}

func TestScan_EmptyTargetList(t *testing.T) {
	refs := Scan("gate.go", "// Validates:   \n// Validates: ,, ,\n")
	if len(refs.Code) != 0 {
		t.Errorf("empty marker produced refs: %v", refs.Code)
	}
}

func TestScanAll_Order(t *testing.T) {
	files := map[string]string{
		"b.go":      "// Validates: REQ-p00002\n",
		"a.go":      "// Validates: REQ-p00001\n",
		"a_test.go": "// Validates: REQ-p00001\n",
	}
	refs := ScanAll(files, []string{"a.go", "b.go", "a_test.go"})

	if len(refs.Code) != 2 || len(refs.Tests) != 1 {
		t.Fatalf("refs = %+v", refs)
	}
	if refs.Code[0].File != "a.go" || refs.Code[1].File != "b.go" {
		t.Errorf("order not preserved: %v, %v", refs.Code[0].File, refs.Code[1].File)
	}
}

func TestIsTestFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"internal/auth/token_test.go", true},
		{"tests/test_token.py", true},
		{"src/gate.test.ts", true},
		{"src/gate.spec.js", true},
		{"internal/auth/token.go", false},
		{"docs/testing.md", false},
		{"contest/entry.go", false},
	}
	for _, tt := range tests {
		if got := IsTestFile(tt.path); got != tt.want {
			t.Errorf("IsTestFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
