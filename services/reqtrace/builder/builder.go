// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package builder assembles parsed requirements and external records
// into a traceability graph.
//
// The builder is a generic interpreter over the schema's relationship
// table: it reads each source node's declared target field, resolves
// identifiers through the graph index, and creates edges in the
// schema's direction. Validation checks run after linking; none of
// them aborts the build. A build always returns a graph paired with
// diagnostics — the only hard failure is a malformed schema, which is
// system misconfiguration rather than imperfect input.
//
// # Thread Safety
//
// Builder is safe for concurrent use. Each Build() call operates on
// its own state and produces a fresh graph; no state persists between
// builds.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/reqtrace/services/reqtrace/diag"
	"github.com/AleutianAI/reqtrace/services/reqtrace/graph"
	"github.com/AleutianAI/reqtrace/services/reqtrace/ident"
	"github.com/AleutianAI/reqtrace/services/reqtrace/rollup"
	"github.com/AleutianAI/reqtrace/services/reqtrace/schema"
	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

// Inputs are the fully-read records one build consumes. The builder
// never touches the filesystem; adapters produce these collections.
type Inputs struct {
	// Requirements from the parsed document corpus, in corpus order.
	Requirements []spec.Requirement

	// CodeRefs are code references from source scans.
	CodeRefs []spec.CodeReference

	// TestRefs are test definitions from source scans.
	TestRefs []spec.TestReference

	// TestResults are execution records keyed to test references.
	TestResults []spec.TestResult

	// Journeys are non-normative narratives.
	Journeys []spec.Journey
}

// BuildResult is the outcome of one build.
type BuildResult struct {
	// ID uniquely identifies this build run.
	ID uuid.UUID

	// Graph is the finished, frozen graph. Never nil, even when the
	// input was structurally imperfect.
	Graph *graph.TraceGraph

	// Result is the ordered diagnostic list. Identical to
	// Graph.Result().
	Result *diag.ValidationResult

	// Duration is the wall-clock build time.
	Duration time.Duration
}

// Options configure Builder behavior.
type Options struct {
	// StrictHashes raises hash-mismatch diagnostics from info to error
	// severity.
	StrictHashes bool

	// Logger receives build progress. Defaults to slog.Default().
	Logger *slog.Logger
}

// Option is a functional option for configuring Builder.
type Option func(*Options)

// WithStrictHashes raises hash mismatches to error severity.
func WithStrictHashes() Option {
	return func(o *Options) {
		o.StrictHashes = true
	}
}

// WithLogger sets the build logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Builder constructs traceability graphs. Stateless and reusable.
type Builder struct {
	options Options
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	options := Options{Logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	return &Builder{options: options}
}

// buildState holds mutable state for a single build.
type buildState struct {
	graph  *graph.TraceGraph
	result *diag.ValidationResult
	schema *schema.Schema

	// resultNodesByTest maps a test's node ID to its result node IDs,
	// built during record ingestion for the produced-by interpreter.
	resultNodesByTest map[string][]string
}

// Build assembles the graph.
//
// Description:
//
//	Runs the phases in order: schema validation, requirement and
//	assertion node creation with duplicate detection, external record
//	ingestion, schema-driven edge resolution, validation checks,
//	metrics rollup, freeze. Every phase appends to the shared
//	diagnostic list; no input problem aborts the build.
//
// Inputs:
//
//	ctx - Carries the tracing span. The build itself is synchronous
//	      and bounded; there is no mid-build cancellation.
//	inputs - The fully-read record collections.
//	s - The relationship schema. Treated as externally loaded
//	    configuration.
//
// Outputs:
//
//	*BuildResult - The frozen graph plus diagnostics.
//	error - Non-nil only for a malformed schema.
func (b *Builder) Build(ctx context.Context, inputs Inputs, s *schema.Schema) (*BuildResult, error) {
	ctx, span := startBuildSpan(ctx, len(inputs.Requirements))
	defer span.End()

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("schema contract violation: %w", err)
	}

	start := time.Now()
	st := &buildState{
		graph:             graph.New(),
		schema:            s,
		resultNodesByTest: make(map[string][]string),
	}
	st.result = st.graph.Result()

	b.addRequirements(st, inputs.Requirements)
	b.addRecords(st, inputs)
	b.resolveEdges(st)
	b.assignRoots(st)
	b.runChecks(st)

	rollup.Compute(st.graph, s.RollupRels())
	st.graph.Freeze()

	res := &BuildResult{
		ID:       uuid.New(),
		Graph:    st.graph,
		Result:   st.result,
		Duration: time.Since(start),
	}

	info, warn, errs := st.result.Counts()
	b.options.Logger.InfoContext(ctx, "build complete",
		"build_id", res.ID.String(),
		"nodes", st.graph.NodeCount(),
		"edges", st.graph.EdgeCount(),
		"info", info,
		"warnings", warn,
		"errors", errs,
		"duration_ms", res.Duration.Milliseconds(),
	)
	recordBuildMetrics(ctx, st.graph, res.Duration)
	finishBuildSpan(span, st.graph, st.result)

	return res, nil
}

// addRequirements creates requirement and assertion nodes, detecting
// duplicate identifiers. The first claimant of an identifier wins;
// later claimants are marked conflicting, kept for diagnostics, and
// excluded from the index and all traversal.
func (b *Builder) addRequirements(st *buildState, requirements []spec.Requirement) {
	for i := range requirements {
		req := &requirements[i]

		if existing := st.graph.FindByID(req.ID); existing != nil {
			req.Conflicting = true
			_ = st.graph.AddConflict(&graph.Node{
				ID:       req.ID,
				Kind:     graph.KindRequirement,
				Label:    req.Title,
				Location: req.Location,
				Payload:  graph.RequirementPayload{Requirement: req},
			})
			st.result.Add(diag.Diagnostic{
				Severity: diag.SeverityError,
				Check:    diag.CheckDuplicate,
				ID:       req.ID,
				Message: fmt.Sprintf("identifier already claimed at %s:%d",
					existing.Location.Path, existing.Location.Line),
				Location: req.Location,
			})
			continue
		}

		node := &graph.Node{
			ID:       req.ID,
			Kind:     graph.KindRequirement,
			Label:    req.Title,
			Location: req.Location,
			Payload:  graph.RequirementPayload{Requirement: req},
		}
		mustAdd(st.graph, node)

		for j := range req.Assertions {
			a := &req.Assertions[j]
			mustAdd(st.graph, &graph.Node{
				ID:       assertionNodeID(req.ID, a.Label),
				Kind:     graph.KindAssertion,
				Label:    fmt.Sprintf("%s-%c", req.ID, a.Label),
				Location: a.Location,
				Payload:  graph.AssertionPayload{Assertion: a},
			})
		}
	}
}

// addRecords creates nodes for the external record collections.
func (b *Builder) addRecords(st *buildState, inputs Inputs) {
	for i := range inputs.CodeRefs {
		c := &inputs.CodeRefs[i]
		label := c.Symbol
		if label == "" {
			label = fmt.Sprintf("%s:%d", c.File, c.Line)
		}
		b.addRecord(st, &graph.Node{
			ID:       c.ID(),
			Kind:     graph.KindCode,
			Label:    label,
			Location: c.Location(),
			Payload:  graph.CodePayload{Code: c},
		})
	}

	for i := range inputs.TestRefs {
		t := &inputs.TestRefs[i]
		b.addRecord(st, &graph.Node{
			ID:       t.ID(),
			Kind:     graph.KindTest,
			Label:    t.Name,
			Location: t.Location(),
			Payload:  graph.TestPayload{Test: t},
		})
	}

	for i := range inputs.TestResults {
		r := &inputs.TestResults[i]
		// Result IDs get an ordinal so repeated executions of the same
		// test coexist as separate nodes.
		id := fmt.Sprintf("%s#%d", r.ID(), i)
		node := &graph.Node{
			ID:      id,
			Kind:    graph.KindTestResult,
			Label:   fmt.Sprintf("%s: %s", r.Name, r.Status),
			Payload: graph.TestResultPayload{Result: r},
		}
		b.addRecord(st, node)
		st.resultNodesByTest[r.TestID()] = append(st.resultNodesByTest[r.TestID()], id)
	}

	for i := range inputs.Journeys {
		j := &inputs.Journeys[i]
		b.addRecord(st, &graph.Node{
			ID:      j.ID(),
			Kind:    graph.KindJourney,
			Label:   j.Name,
			Payload: graph.JourneyPayload{Journey: j},
		})
	}
}

// addRecord inserts an external record node, reporting (not failing on)
// duplicate record IDs.
func (b *Builder) addRecord(st *buildState, node *graph.Node) {
	if err := st.graph.Add(node); err != nil {
		st.result.Add(diag.Diagnostic{
			Severity: diag.SeverityWarning,
			Check:    diag.CheckDuplicate,
			ID:       node.ID,
			Message:  fmt.Sprintf("duplicate %s record, keeping the first", node.Kind),
			Location: node.Location,
		})
	}
}

// assignRoots computes the root set: nodes with no parent edges. The
// DAG's entry points for traversal include structurally orphaned
// nodes, so downstream tooling can always render a best-effort view;
// the orphan check separately reports those that should have had a
// parent.
func (b *Builder) assignRoots(st *buildState) {
	var roots []*graph.Node
	for _, n := range st.graph.Nodes() {
		if len(n.ParentEdges) == 0 {
			roots = append(roots, n)
		}
	}
	_ = st.graph.SetRoots(roots)
}

// mustAdd panics on Add failure for nodes the builder itself
// constructed with known-unique IDs. A failure here is a builder bug.
func mustAdd(g *graph.TraceGraph, n *graph.Node) {
	if err := g.Add(n); err != nil {
		panic(fmt.Sprintf("builder: %v", err))
	}
}

// assertionNodeID forms the assertion-scoped identifier used to index
// assertion nodes.
func assertionNodeID(reqID string, label byte) string {
	return fmt.Sprintf("%s-%c", reqID, label)
}

// requirementLevel extracts the level from a requirement node's
// identifier. Returns LevelUnknown when the ID does not parse, which
// cannot happen for nodes the builder created.
func requirementLevel(id string) ident.Level {
	parsed, fail := ident.Parse(id)
	if fail != nil {
		return ident.LevelUnknown
	}
	return parsed.Level
}
