// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gotestjson

import (
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

const stream = `{"Action":"start","Package":"example.com/pkg"}
{"Action":"run","Package":"example.com/pkg","Test":"TestPass"}
{"Action":"output","Package":"example.com/pkg","Test":"TestPass","Output":"=== RUN   TestPass\n"}
{"Action":"pass","Package":"example.com/pkg","Test":"TestPass","Elapsed":0.5}
{"Action":"run","Package":"example.com/pkg","Test":"TestFail"}
{"Action":"output","Package":"example.com/pkg","Test":"TestFail","Output":"    gate_test.go:12: bad token\n"}
{"Action":"output","Package":"example.com/pkg","Test":"TestFail","Output":"--- FAIL: TestFail\n"}
{"Action":"fail","Package":"example.com/pkg","Test":"TestFail","Elapsed":0.01}
{"Action":"skip","Package":"example.com/pkg","Test":"TestSkip"}
{"Action":"pass","Package":"example.com/pkg","Elapsed":0.6}
`

func TestParse_Stream(t *testing.T) {
	results, err := Parse(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 (package event dropped)", len(results))
	}

	pass := results[0]
	if pass.Name != "TestPass" || pass.Status != spec.TestStatusPassed {
		t.Errorf("pass = %+v", pass)
	}
	if pass.Suite != "example.com/pkg" {
		t.Errorf("suite = %q, want package path", pass.Suite)
	}
	if pass.Duration != 500*time.Millisecond {
		t.Errorf("duration = %v", pass.Duration)
	}
	if pass.Message != "" {
		t.Errorf("passing output retained: %q", pass.Message)
	}

	fail := results[1]
	if fail.Status != spec.TestStatusFailed {
		t.Errorf("fail status = %v", fail.Status)
	}
	if !strings.Contains(fail.Message, "bad token") || !strings.Contains(fail.Message, "FAIL") {
		t.Errorf("failure output = %q", fail.Message)
	}

	if results[2].Status != spec.TestStatusSkipped {
		t.Errorf("skip status = %v", results[2].Status)
	}
}

func TestParse_SkipsBuildOutput(t *testing.T) {
	mixed := `# example.com/pkg [build failed]
./gate.go:10:2: undefined: frobnicate
{"Action":"pass","Package":"example.com/pkg","Test":"TestOK"}
{not json either
`
	results, err := Parse(strings.NewReader(mixed))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(results) != 1 || results[0].Name != "TestOK" {
		t.Errorf("results = %+v", results)
	}
}

func TestParse_Empty(t *testing.T) {
	results, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %+v", results)
	}
}

func TestParse_SubtestNames(t *testing.T) {
	sub := `{"Action":"pass","Package":"example.com/pkg","Test":"TestTable/case_one","Elapsed":0.1}
`
	results, err := Parse(strings.NewReader(sub))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(results) != 1 || results[0].Name != "TestTable/case_one" {
		t.Errorf("results = %+v", results)
	}
}
