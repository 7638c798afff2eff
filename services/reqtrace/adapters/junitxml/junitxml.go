// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package junitxml converts JUnit XML reports into test result records.
//
// Both a bare <testsuite> root and the aggregated <testsuites> wrapper
// are accepted, since CI systems emit either.
package junitxml

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

// ===== WIRE TYPES =====

type testSuites struct {
	XMLName xml.Name    `xml:"testsuites"`
	Suites  []testSuite `xml:"testsuite"`
}

type testSuite struct {
	Name   string     `xml:"name,attr"`
	Suites []testSuite `xml:"testsuite"`
	Cases  []testCase `xml:"testcase"`
}

type testCase struct {
	Name      string    `xml:"name,attr"`
	ClassName string    `xml:"classname,attr"`
	TimeSec   string    `xml:"time,attr"`
	Failure   *xmlError `xml:"failure"`
	Error     *xmlError `xml:"error"`
	Skipped   *xmlError `xml:"skipped"`
}

type xmlError struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// ===== PARSING =====

// Parse decodes a JUnit XML report into test result records.
func Parse(data []byte) ([]spec.TestResult, error) {
	var wrapper testSuites
	if err := xml.Unmarshal(data, &wrapper); err == nil {
		var results []spec.TestResult
		for _, s := range wrapper.Suites {
			results = appendSuite(results, s)
		}
		return results, nil
	}

	var single testSuite
	if err := xml.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("junitxml: %w", err)
	}
	return appendSuite(nil, single), nil
}

func appendSuite(results []spec.TestResult, s testSuite) []spec.TestResult {
	for _, nested := range s.Suites {
		results = appendSuite(results, nested)
	}
	for _, c := range s.Cases {
		results = append(results, convertCase(s.Name, c))
	}
	return results
}

func convertCase(suiteName string, c testCase) spec.TestResult {
	r := spec.TestResult{
		Name:   c.Name,
		Suite:  c.ClassName,
		Status: spec.TestStatusPassed,
	}
	if r.Suite == "" {
		r.Suite = suiteName
	}

	switch {
	case c.Error != nil:
		r.Status = spec.TestStatusFailed
		r.Message = message(c.Error)
	case c.Failure != nil:
		r.Status = spec.TestStatusFailed
		r.Message = message(c.Failure)
	case c.Skipped != nil:
		r.Status = spec.TestStatusSkipped
		r.Message = message(c.Skipped)
	}

	if sec, err := strconv.ParseFloat(c.TimeSec, 64); err == nil {
		r.Duration = time.Duration(sec * float64(time.Second))
	}
	return r
}

func message(e *xmlError) string {
	if e.Message != "" {
		return e.Message
	}
	return e.Body
}
