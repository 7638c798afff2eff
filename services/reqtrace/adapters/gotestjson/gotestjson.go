// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gotestjson converts `go test -json` event streams into test
// result records. The package path of each event becomes the suite
// name, so results line up with test references that use the same
// convention.
package gotestjson

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

// event mirrors the test2json event shape. Fields we never read are
// omitted; unknown fields are ignored by encoding/json.
type event struct {
	Action  string  `json:"Action"`
	Package string  `json:"Package"`
	Test    string  `json:"Test"`
	Elapsed float64 `json:"Elapsed"`
	Output  string  `json:"Output"`
}

// Parse consumes a go test -json stream and returns one record per
// test with a terminal action (pass, fail, or skip). Package-level
// events (empty Test field) are dropped. Lines that are not valid
// JSON are skipped, since go test interleaves raw build output on
// compilation failure.
func Parse(r io.Reader) ([]spec.TestResult, error) {
	type key struct{ pkg, test string }
	output := make(map[key][]string)

	var results []spec.TestResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || line[0] != '{' {
			continue
		}

		var ev event
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		if ev.Test == "" {
			continue
		}

		k := key{ev.Package, ev.Test}
		switch ev.Action {
		case "output":
			output[k] = append(output[k], ev.Output)
		case "pass", "fail", "skip":
			results = append(results, spec.TestResult{
				Name:     ev.Test,
				Suite:    ev.Package,
				Status:   statusFor(ev.Action),
				Duration: time.Duration(ev.Elapsed * float64(time.Second)),
				Message:  failureMessage(ev.Action, output[k]),
			})
			delete(output, k)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("gotestjson: %w", err)
	}
	return results, nil
}

func statusFor(action string) spec.TestStatus {
	switch action {
	case "pass":
		return spec.TestStatusPassed
	case "fail":
		return spec.TestStatusFailed
	case "skip":
		return spec.TestStatusSkipped
	default:
		return spec.TestStatusUnknown
	}
}

// failureMessage joins buffered output for failed tests only. Passing
// output is discarded to keep records small.
func failureMessage(action string, lines []string) string {
	if action != "fail" || len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines, ""))
}
