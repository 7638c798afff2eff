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
	"fmt"
	"time"
)

// CodeReference records a place in source code that claims to validate
// one or more requirements or assertions. Produced by format adapters;
// the core only requires the plain record shape.
type CodeReference struct {
	// File is the source file path.
	File string

	// Line is the 1-based line of the marker.
	Line int

	// Symbol is the enclosing symbol name, when the adapter knows it.
	Symbol string

	// Targets are the validated identifiers in canonical text form.
	Targets []string
}

// ID returns a stable node identifier for the reference.
func (c CodeReference) ID() string {
	return fmt.Sprintf("code:%s:%d", c.File, c.Line)
}

// Location returns the source position of the reference.
func (c CodeReference) Location() Location {
	return Location{Path: c.File, Line: c.Line}
}

// TestReference records a test definition that claims to validate one
// or more requirements or assertions.
type TestReference struct {
	// File is the test source file path.
	File string

	// Line is the 1-based line of the test definition.
	Line int

	// Name is the test function or case name.
	Name string

	// Suite is the optional test class or suite name.
	Suite string

	// Targets are the validated identifiers in canonical text form.
	Targets []string
}

// ID returns a stable node identifier for the test.
func (t TestReference) ID() string {
	if t.Suite != "" {
		return fmt.Sprintf("test:%s/%s", t.Suite, t.Name)
	}
	return fmt.Sprintf("test:%s", t.Name)
}

// Location returns the source position of the test definition.
func (t TestReference) Location() Location {
	return Location{Path: t.File, Line: t.Line}
}

// TestStatus is the outcome of one test execution.
type TestStatus int

const (
	// TestStatusUnknown covers outcomes the adapter could not classify.
	TestStatusUnknown TestStatus = iota

	// TestStatusPassed indicates a passing execution.
	TestStatusPassed

	// TestStatusFailed indicates a failing execution.
	TestStatusFailed

	// TestStatusSkipped indicates the test was not executed.
	TestStatusSkipped
)

// String returns the lowercase status name.
func (s TestStatus) String() string {
	switch s {
	case TestStatusPassed:
		return "passed"
	case TestStatusFailed:
		return "failed"
	case TestStatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// TestStatusFromString parses common result-format status strings.
// Unknown values map to TestStatusUnknown.
func TestStatusFromString(s string) TestStatus {
	switch s {
	case "passed", "pass", "ok", "success":
		return TestStatusPassed
	case "failed", "fail", "failure", "error":
		return TestStatusFailed
	case "skipped", "skip", "disabled":
		return TestStatusSkipped
	default:
		return TestStatusUnknown
	}
}

// TestResult records one execution of a test, keyed to its TestReference.
type TestResult struct {
	// Name is the executed test name, matching its TestReference.
	Name string

	// Suite is the optional suite name, matching the TestReference.
	Suite string

	// Status is the execution outcome.
	Status TestStatus

	// Duration is the execution time, when the format reports one.
	Duration time.Duration

	// Message is the failure or skip message, when present.
	Message string
}

// TestID returns the identifier of the owning test.
func (r TestResult) TestID() string {
	return TestReference{Name: r.Name, Suite: r.Suite}.ID()
}

// ID returns a stable node identifier for the result.
func (r TestResult) ID() string {
	return fmt.Sprintf("result:%s/%s:%s", r.Suite, r.Name, r.Status)
}

// Journey is a non-normative narrative linking an actor and goal to the
// requirements it exercises. Journeys contribute no coverage.
type Journey struct {
	// Name is a short journey title.
	Name string

	// Actor is who performs the journey.
	Actor string

	// Goal is what the actor is trying to achieve.
	Goal string

	// Steps are the narrative steps, in order.
	Steps []string

	// Addresses are the requirement identifiers the journey exercises.
	Addresses []string
}

// ID returns a stable node identifier for the journey.
func (j Journey) ID() string {
	return fmt.Sprintf("journey:%s", j.Name)
}
