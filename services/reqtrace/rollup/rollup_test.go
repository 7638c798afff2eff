// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rollup

import (
	"testing"

	"github.com/AleutianAI/reqtrace/services/reqtrace/graph"
	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

var rollupRels = []spec.RelName{
	spec.RelAsserts, spec.RelImplements, spec.RelValidates, spec.RelProducedBy,
}

func addNode(t *testing.T, g *graph.TraceGraph, id string, kind graph.Kind, payload graph.Payload) *graph.Node {
	t.Helper()
	n := &graph.Node{ID: id, Kind: kind, Payload: payload}
	if err := g.Add(n); err != nil {
		t.Fatalf("Add(%s): %v", id, err)
	}
	return n
}

func addReq(t *testing.T, g *graph.TraceGraph, id string) *graph.Node {
	return addNode(t, g, id, graph.KindRequirement,
		graph.RequirementPayload{Requirement: &spec.Requirement{ID: id}})
}

func addAssertion(t *testing.T, g *graph.TraceGraph, id string) *graph.Node {
	return addNode(t, g, id, graph.KindAssertion,
		graph.AssertionPayload{Assertion: &spec.Assertion{Label: 'A'}})
}

func addResult(t *testing.T, g *graph.TraceGraph, id string, status spec.TestStatus) *graph.Node {
	return addNode(t, g, id, graph.KindTestResult,
		graph.TestResultPayload{Result: &spec.TestResult{Name: id, Status: status}})
}

func link(t *testing.T, g *graph.TraceGraph, parent, child string, rel spec.RelName) {
	t.Helper()
	if err := g.Link(parent, child, rel, spec.Location{}); err != nil {
		t.Fatalf("Link(%s -> %s): %v", parent, child, err)
	}
}

func TestCompute_BasicCounts(t *testing.T) {
	g := graph.New()
	addReq(t, g, "root")
	addAssertion(t, g, "root-A")
	addAssertion(t, g, "root-B")
	addReq(t, g, "impl")
	addNode(t, g, "test:T", graph.KindTest,
		graph.TestPayload{Test: &spec.TestReference{Name: "T"}})
	addNode(t, g, "code:f.go:1", graph.KindCode,
		graph.CodePayload{Code: &spec.CodeReference{File: "f.go", Line: 1}})
	addResult(t, g, "r1", spec.TestStatusPassed)
	addResult(t, g, "r2", spec.TestStatusFailed)

	link(t, g, "root", "root-A", spec.RelAsserts)
	link(t, g, "root", "root-B", spec.RelAsserts)
	link(t, g, "root-A", "impl", spec.RelImplements)
	link(t, g, "root-A", "test:T", spec.RelValidates)
	link(t, g, "impl", "code:f.go:1", spec.RelValidates)
	link(t, g, "test:T", "r1", spec.RelProducedBy)
	link(t, g, "test:T", "r2", spec.RelProducedBy)

	Compute(g, rollupRels)

	root := g.FindByID("root")
	m := root.Metrics
	if m[MetricAssertions] != 2 {
		t.Errorf("assertions_total = %v, want 2", m[MetricAssertions])
	}
	// root-A has implementing and validating children; root-B has none.
	if m[MetricAssertionsCovered] != 1 {
		t.Errorf("assertions_covered = %v, want 1", m[MetricAssertionsCovered])
	}
	if m[MetricCoverage] != 50 {
		t.Errorf("coverage_pct = %v, want 50", m[MetricCoverage])
	}
	if m[MetricTests] != 1 {
		t.Errorf("tests_total = %v, want 1", m[MetricTests])
	}
	if m[MetricCodeRefs] != 1 {
		t.Errorf("code_refs = %v, want 1", m[MetricCodeRefs])
	}
	if m[MetricResultsPassed] != 1 || m[MetricResultsFailed] != 1 {
		t.Errorf("results = %v passed / %v failed", m[MetricResultsPassed], m[MetricResultsFailed])
	}
	if m[MetricPassRate] != 50 {
		t.Errorf("pass_rate_pct = %v, want 50", m[MetricPassRate])
	}
}

func TestCompute_DiamondCountsOnce(t *testing.T) {
	g := graph.New()
	addReq(t, g, "root")
	addReq(t, g, "left")
	addReq(t, g, "right")
	addAssertion(t, g, "shared-A")

	link(t, g, "root", "left", spec.RelImplements)
	link(t, g, "root", "right", spec.RelImplements)
	link(t, g, "left", "shared-A", spec.RelImplements)
	link(t, g, "right", "shared-A", spec.RelImplements)

	Compute(g, rollupRels)

	if got := g.FindByID("root").Metrics[MetricAssertions]; got != 1 {
		t.Errorf("assertions_total through two paths = %v, want 1", got)
	}
}

func TestCompute_NonRollupEdgesExcluded(t *testing.T) {
	g := graph.New()
	addReq(t, g, "root")
	addAssertion(t, g, "below-A")
	link(t, g, "root", "below-A", spec.RelRefines)

	Compute(g, rollupRels)

	if got := g.FindByID("root").Metrics[MetricAssertions]; got != 0 {
		t.Errorf("refines edge rolled up: assertions_total = %v", got)
	}
}

func TestCompute_PassRateExcludesSkipped(t *testing.T) {
	g := graph.New()
	addNode(t, g, "test:T", graph.KindTest,
		graph.TestPayload{Test: &spec.TestReference{Name: "T"}})
	addResult(t, g, "r1", spec.TestStatusPassed)
	addResult(t, g, "r2", spec.TestStatusSkipped)
	addResult(t, g, "r3", spec.TestStatusUnknown)

	link(t, g, "test:T", "r1", spec.RelProducedBy)
	link(t, g, "test:T", "r2", spec.RelProducedBy)
	link(t, g, "test:T", "r3", spec.RelProducedBy)

	Compute(g, rollupRels)

	m := g.FindByID("test:T").Metrics
	if m[MetricResultsSkipped] != 1 || m[MetricResultsUnknown] != 1 {
		t.Errorf("skipped = %v, unknown = %v", m[MetricResultsSkipped], m[MetricResultsUnknown])
	}
	// 1 passed, 0 failed: skipped and unknown do not dilute the rate.
	if m[MetricPassRate] != 100 {
		t.Errorf("pass_rate_pct = %v, want 100", m[MetricPassRate])
	}
}

func TestCompute_ZeroTotalsAreZero(t *testing.T) {
	g := graph.New()
	addReq(t, g, "root")

	Compute(g, rollupRels)

	m := g.FindByID("root").Metrics
	if m[MetricCoverage] != 0 {
		t.Errorf("coverage_pct with no assertions = %v", m[MetricCoverage])
	}
	if m[MetricPassRate] != 0 {
		t.Errorf("pass_rate_pct with no results = %v", m[MetricPassRate])
	}
}

func TestCompute_TerminatesOnCycle(t *testing.T) {
	g := graph.New()
	addReq(t, g, "x")
	addReq(t, g, "y")
	link(t, g, "x", "y", spec.RelImplements)
	link(t, g, "y", "x", spec.RelImplements)

	Compute(g, rollupRels)

	for _, id := range []string{"x", "y"} {
		if g.FindByID(id).Metrics == nil {
			t.Errorf("node %s has no metrics after cyclic compute", id)
		}
	}
}

func TestCompute_NodeCountsItself(t *testing.T) {
	g := graph.New()
	addAssertion(t, g, "lone-A")

	Compute(g, rollupRels)

	if got := g.FindByID("lone-A").Metrics[MetricAssertions]; got != 1 {
		t.Errorf("assertion does not count itself: %v", got)
	}
}
