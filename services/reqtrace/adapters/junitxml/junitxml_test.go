// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package junitxml

import (
	"testing"
	"time"

	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

func TestParse_Wrapper(t *testing.T) {
	data := []byte(`<?xml version="1.0"?>
<testsuites>
  <testsuite name="auth">
    <testcase name="TestLogin" classname="auth.session" time="0.25"/>
    <testcase name="TestLogout" time="0.1">
      <failure message="token not revoked">stack trace here</failure>
    </testcase>
    <testcase name="TestSSO">
      <skipped message="no IdP in CI"/>
    </testcase>
  </testsuite>
</testsuites>`)

	results, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	login := results[0]
	if login.Name != "TestLogin" || login.Status != spec.TestStatusPassed {
		t.Errorf("login = %+v", login)
	}
	if login.Suite != "auth.session" {
		t.Errorf("classname not used as suite: %q", login.Suite)
	}
	if login.Duration != 250*time.Millisecond {
		t.Errorf("duration = %v", login.Duration)
	}

	logout := results[1]
	if logout.Status != spec.TestStatusFailed {
		t.Errorf("logout status = %v", logout.Status)
	}
	if logout.Message != "token not revoked" {
		t.Errorf("failure message = %q", logout.Message)
	}
	if logout.Suite != "auth" {
		t.Errorf("suite fallback = %q, want testsuite name", logout.Suite)
	}

	sso := results[2]
	if sso.Status != spec.TestStatusSkipped || sso.Message != "no IdP in CI" {
		t.Errorf("sso = %+v", sso)
	}
}

func TestParse_BareSuite(t *testing.T) {
	data := []byte(`<testsuite name="core">
  <testcase name="TestOne" time="1.5"/>
</testsuite>`)

	results, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Suite != "core" || results[0].Duration != 1500*time.Millisecond {
		t.Errorf("result = %+v", results[0])
	}
}

func TestParse_NestedSuites(t *testing.T) {
	data := []byte(`<testsuites>
  <testsuite name="outer">
    <testsuite name="inner">
      <testcase name="TestNested"/>
    </testsuite>
    <testcase name="TestOuter"/>
  </testsuite>
</testsuites>`)

	results, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Name != "TestNested" || results[0].Suite != "inner" {
		t.Errorf("nested = %+v", results[0])
	}
	if results[1].Name != "TestOuter" || results[1].Suite != "outer" {
		t.Errorf("outer = %+v", results[1])
	}
}

func TestParse_ErrorElementIsFailure(t *testing.T) {
	data := []byte(`<testsuite name="s">
  <testcase name="TestBoom">
    <error>panic: nil deref</error>
  </testcase>
</testsuite>`)

	results, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if results[0].Status != spec.TestStatusFailed {
		t.Errorf("status = %v, want failed", results[0].Status)
	}
	if results[0].Message != "panic: nil deref" {
		t.Errorf("body not used when message attr empty: %q", results[0].Message)
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte("not xml at all <")); err == nil {
		t.Fatal("malformed input did not error")
	}
}
