// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

// Kind is the node kind discriminator.
type Kind int

const (
	// KindUnknown indicates an uninitialized node.
	KindUnknown Kind = iota

	// KindRequirement is a specification unit parsed from a document.
	KindRequirement

	// KindAssertion is a single obligation owned by a requirement.
	KindAssertion

	// KindCode is a code reference claiming to validate something.
	KindCode

	// KindTest is a test definition claiming to validate something.
	KindTest

	// KindTestResult is one recorded execution of a test.
	KindTestResult

	// KindJourney is a non-normative narrative. Contributes no coverage.
	KindJourney
)

// kindNames maps Kind values to their string representations.
var kindNames = map[Kind]string{
	KindRequirement: "requirement",
	KindAssertion:   "assertion",
	KindCode:        "code",
	KindTest:        "test",
	KindTestResult:  "test-result",
	KindJourney:     "journey",
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindFromString parses a kind name as it appears in schema
// configuration. Returns KindUnknown for unrecognized names.
func KindFromString(s string) Kind {
	for kind, name := range kindNames {
		if name == s {
			return kind
		}
	}
	return KindUnknown
}

// Payload is the per-kind node content. Exactly one concrete payload
// type matches each Kind; consumers type-switch exhaustively rather
// than reading loosely-typed fields, which removes the "wrong field for
// this kind" class of bugs.
type Payload interface {
	payloadKind() Kind
}

// RequirementPayload wraps a parsed requirement.
type RequirementPayload struct{ Requirement *spec.Requirement }

// AssertionPayload wraps one assertion of a requirement.
type AssertionPayload struct{ Assertion *spec.Assertion }

// CodePayload wraps a code reference record.
type CodePayload struct{ Code *spec.CodeReference }

// TestPayload wraps a test reference record.
type TestPayload struct{ Test *spec.TestReference }

// TestResultPayload wraps a test execution record.
type TestResultPayload struct{ Result *spec.TestResult }

// JourneyPayload wraps a journey record.
type JourneyPayload struct{ Journey *spec.Journey }

func (RequirementPayload) payloadKind() Kind { return KindRequirement }
func (AssertionPayload) payloadKind() Kind   { return KindAssertion }
func (CodePayload) payloadKind() Kind        { return KindCode }
func (TestPayload) payloadKind() Kind        { return KindTest }
func (TestResultPayload) payloadKind() Kind  { return KindTestResult }
func (JourneyPayload) payloadKind() Kind     { return KindJourney }

// Edge is one directed parent→child relationship instance.
//
// Edges are shared: the same *Edge appears in the parent's ChildEdges
// and the child's ParentEdges. Attaching an identical
// (parent, relationship, child) edge twice is a no-op, because
// assertion-scoped and whole-requirement references may independently
// resolve to the same target.
type Edge struct {
	// Parent is the ancestor-side node.
	Parent *Node

	// Child is the descendant-side node.
	Child *Node

	// Rel is the schema relationship name.
	Rel spec.RelName

	// Location is where the relationship was declared, when known.
	Location spec.Location
}

// Node is one graph node.
//
// A node is mutated only during the build phase (edge attachment) and
// the rollup pass (Metrics). After TraceGraph.Freeze() it is read-only.
type Node struct {
	// ID is the unique node identifier: the canonical identifier text
	// for requirements and assertions, the record ID for externals.
	ID string

	// Kind discriminates the payload.
	Kind Kind

	// Label is the human-readable display label.
	Label string

	// Location is the node's source position, when known.
	Location spec.Location

	// Payload is the one populated typed payload matching Kind.
	Payload Payload

	// ParentEdges are edges in which this node is the child.
	ParentEdges []*Edge

	// ChildEdges are edges in which this node is the parent.
	ChildEdges []*Edge

	// Metrics holds rolled-up statistics, keyed by the metric name
	// constants in the rollup package. Nil until the rollup pass runs.
	Metrics map[string]float64
}

// Requirement returns the requirement payload, or nil for other kinds.
func (n *Node) Requirement() *spec.Requirement {
	if p, ok := n.Payload.(RequirementPayload); ok {
		return p.Requirement
	}
	return nil
}

// Assertion returns the assertion payload, or nil for other kinds.
func (n *Node) Assertion() *spec.Assertion {
	if p, ok := n.Payload.(AssertionPayload); ok {
		return p.Assertion
	}
	return nil
}

// Code returns the code reference payload, or nil for other kinds.
func (n *Node) Code() *spec.CodeReference {
	if p, ok := n.Payload.(CodePayload); ok {
		return p.Code
	}
	return nil
}

// Test returns the test reference payload, or nil for other kinds.
func (n *Node) Test() *spec.TestReference {
	if p, ok := n.Payload.(TestPayload); ok {
		return p.Test
	}
	return nil
}

// TestResult returns the test result payload, or nil for other kinds.
func (n *Node) TestResult() *spec.TestResult {
	if p, ok := n.Payload.(TestResultPayload); ok {
		return p.Result
	}
	return nil
}

// Journey returns the journey payload, or nil for other kinds.
func (n *Node) Journey() *spec.Journey {
	if p, ok := n.Payload.(JourneyPayload); ok {
		return p.Journey
	}
	return nil
}

// Parents returns the distinct parent nodes, optionally restricted to
// the given relationship names. Order follows edge attachment order.
func (n *Node) Parents(rels ...spec.RelName) []*Node {
	return endpoints(n.ParentEdges, rels, func(e *Edge) *Node { return e.Parent })
}

// Children returns the distinct child nodes, optionally restricted to
// the given relationship names. Order follows edge attachment order.
func (n *Node) Children(rels ...spec.RelName) []*Node {
	return endpoints(n.ChildEdges, rels, func(e *Edge) *Node { return e.Child })
}

// endpoints collects distinct edge endpoints with an optional
// relationship filter.
func endpoints(edges []*Edge, rels []spec.RelName, pick func(*Edge) *Node) []*Node {
	var out []*Node
	seen := map[*Node]bool{}
	for _, e := range edges {
		if len(rels) > 0 && !containsRel(rels, e.Rel) {
			continue
		}
		node := pick(e)
		if !seen[node] {
			seen[node] = true
			out = append(out, node)
		}
	}
	return out
}

func containsRel(rels []spec.RelName, rel spec.RelName) bool {
	for _, r := range rels {
		if r == rel {
			return true
		}
	}
	return false
}
