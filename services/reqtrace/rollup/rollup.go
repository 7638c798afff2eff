// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rollup computes per-node aggregate metrics over the finished
// graph.
//
// The graph is a DAG: a descendant can be reachable from an ancestor
// through more than one path (a requirement implemented by B and C,
// both implemented by D). Summing child metrics into parents would
// count D's assertions twice. The engine therefore computes, for every
// node, the set of distinct descendants reachable through
// rollup-eligible edges — memoized in one post-order pass, each node's
// set the union of its children's sets plus the children — and derives
// every count from that deduplicated set. No metric is ever a running
// sum carried up multiple paths.
package rollup

import (
	"github.com/AleutianAI/reqtrace/services/reqtrace/graph"
	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

// Metric keys populated on every node's Metrics map.
const (
	// MetricAssertions is the count of distinct assertions at or below
	// the node.
	MetricAssertions = "assertions_total"

	// MetricAssertionsCovered is the count of those assertions with at
	// least one validating or implementing reference.
	MetricAssertionsCovered = "assertions_covered"

	// MetricCoverage is MetricAssertionsCovered over MetricAssertions
	// as a percentage, 0 when there are no assertions.
	MetricCoverage = "coverage_pct"

	// MetricTests is the count of distinct test nodes at or below the
	// node.
	MetricTests = "tests_total"

	// MetricResultsPassed counts passed test results.
	MetricResultsPassed = "results_passed"

	// MetricResultsFailed counts failed test results.
	MetricResultsFailed = "results_failed"

	// MetricResultsSkipped counts skipped test results.
	MetricResultsSkipped = "results_skipped"

	// MetricResultsUnknown counts unclassifiable test results.
	MetricResultsUnknown = "results_unknown"

	// MetricPassRate is passed over passed+failed as a percentage, 0
	// when no result has a definite outcome. Skipped and unknown
	// results do not count against the rate.
	MetricPassRate = "pass_rate_pct"

	// MetricCodeRefs is the count of distinct code reference nodes at
	// or below the node.
	MetricCodeRefs = "code_refs"
)

// nodeSet is a distinct-descendant set.
type nodeSet map[*graph.Node]struct{}

// Compute populates every node's Metrics map.
//
// Description:
//
//	Runs one memoized post-order pass computing distinct-descendant
//	sets over edges whose relationship is in rollupRels, then derives
//	each node's metrics from the cardinality and attributes of its
//	set plus itself. A node's set is fully computed before any
//	ancestor consumes it. Percentages are defined as covered/total
//	with value 0 when the total is zero; there is no division fault.
//
//	Cycles (already reported by the builder's cycle check) are broken
//	at the back edge: the in-progress node contributes an empty set,
//	so the pass terminates on any input.
//
// Compute must run before TraceGraph.Freeze(); it is the last
// mutation the graph sees.
func Compute(g *graph.TraceGraph, rollupRels []spec.RelName) {
	relSet := make(map[spec.RelName]bool, len(rollupRels))
	for _, r := range rollupRels {
		relSet[r] = true
	}

	memo := make(map[*graph.Node]nodeSet, g.NodeCount())
	inProgress := make(map[*graph.Node]bool)

	var descendants func(n *graph.Node) nodeSet
	descendants = func(n *graph.Node) nodeSet {
		if set, done := memo[n]; done {
			return set
		}
		if inProgress[n] {
			return nodeSet{} // back edge; cycle reported elsewhere
		}
		inProgress[n] = true

		set := nodeSet{}
		for _, e := range n.ChildEdges {
			if !relSet[e.Rel] {
				continue
			}
			set[e.Child] = struct{}{}
			for d := range descendants(e.Child) {
				set[d] = struct{}{}
			}
		}

		delete(inProgress, n)
		memo[n] = set
		return set
	}

	for _, n := range g.Nodes() {
		n.Metrics = deriveMetrics(n, descendants(n))
	}
}

// deriveMetrics computes the metric map from a node's deduplicated
// descendant set plus the node itself.
func deriveMetrics(n *graph.Node, set nodeSet) map[string]float64 {
	var (
		assertions, covered        float64
		tests, codeRefs            float64
		passed, failed, skip, unkn float64
	)

	consider := func(member *graph.Node) {
		switch member.Kind {
		case graph.KindAssertion:
			assertions++
			if isCovered(member) {
				covered++
			}
		case graph.KindTest:
			tests++
		case graph.KindCode:
			codeRefs++
		case graph.KindTestResult:
			switch member.TestResult().Status {
			case spec.TestStatusPassed:
				passed++
			case spec.TestStatusFailed:
				failed++
			case spec.TestStatusSkipped:
				skip++
			default:
				unkn++
			}
		}
	}

	consider(n)
	for member := range set {
		consider(member)
	}

	return map[string]float64{
		MetricAssertions:        assertions,
		MetricAssertionsCovered: covered,
		MetricCoverage:          percentage(covered, assertions),
		MetricTests:             tests,
		MetricResultsPassed:     passed,
		MetricResultsFailed:     failed,
		MetricResultsSkipped:    skip,
		MetricResultsUnknown:    unkn,
		MetricPassRate:          percentage(passed, passed+failed),
		MetricCodeRefs:          codeRefs,
	}
}

// isCovered reports whether an assertion node has at least one inbound
// validating or implementing edge.
func isCovered(n *graph.Node) bool {
	return len(n.Children(spec.RelValidates, spec.RelImplements)) > 0
}

// percentage returns covered/total as a percentage, defined as 0 when
// total is zero.
func percentage(covered, total float64) float64 {
	if total == 0 {
		return 0
	}
	return covered / total * 100
}
