// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package builder

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/reqtrace/services/reqtrace/diag"
	"github.com/AleutianAI/reqtrace/services/reqtrace/graph"
	"github.com/AleutianAI/reqtrace/services/reqtrace/ident"
	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

// runChecks runs the validation suite. Checks are independent of each
// other; each appends to the shared diagnostic list and none aborts
// the build. Duplicate-identifier and broken-link findings were
// already collected during node creation and edge resolution.
func (b *Builder) runChecks(st *buildState) {
	b.checkCycles(st)
	b.checkOrphans(st)
	b.checkLevels(st)
	b.checkCoverage(st)
	b.checkHashes(st)
}

// Three-color DFS marks for cycle detection.
const (
	colorWhite = iota // unvisited
	colorGray         // in progress on the current DFS path
	colorBlack        // done
)

// checkCycles detects cycles among rollup-eligible edges with a
// three-color depth-first traversal. A child edge reaching a gray
// (in-progress) node is a back edge; the full cycle path is reported.
func (b *Builder) checkCycles(st *buildState) {
	rollupRels := map[spec.RelName]bool{}
	for _, name := range st.schema.RollupRels() {
		rollupRels[name] = true
	}

	colors := make(map[*graph.Node]int, st.graph.NodeCount())
	var path []*graph.Node

	var visit func(n *graph.Node)
	visit = func(n *graph.Node) {
		colors[n] = colorGray
		path = append(path, n)

		for _, e := range n.ChildEdges {
			if !rollupRels[e.Rel] {
				continue
			}
			switch colors[e.Child] {
			case colorWhite:
				visit(e.Child)
			case colorGray:
				b.reportCycle(st, path, e.Child)
			}
		}

		path = path[:len(path)-1]
		colors[n] = colorBlack
	}

	for _, n := range st.graph.Nodes() {
		if colors[n] == colorWhite {
			visit(n)
		}
	}
}

// reportCycle emits one cycle diagnostic with the full path, starting
// and ending at the back edge's target.
func (b *Builder) reportCycle(st *buildState, path []*graph.Node, entry *graph.Node) {
	start := 0
	for i, n := range path {
		if n == entry {
			start = i
			break
		}
	}
	var ids []string
	for _, n := range path[start:] {
		ids = append(ids, n.ID)
	}
	ids = append(ids, entry.ID)

	st.result.Add(diag.Diagnostic{
		Severity: diag.SeverityError,
		Check:    diag.CheckCycle,
		ID:       entry.ID,
		Message:  fmt.Sprintf("cycle in rollup relationships: %s", strings.Join(ids, " -> ")),
		Location: entry.Location,
	})
}

// checkOrphans reports every node whose kind requires a parent, that
// has no parent through any mandatory relationship, and that is not a
// declared root. Reported, not fatal: orphans stay in the graph and
// in the root set so best-effort views still show them.
func (b *Builder) checkOrphans(st *buildState) {
	requiredKinds := st.schema.RequiredParentKinds()
	requiredRels := map[spec.RelName]bool{}
	for _, rel := range st.schema.Relationships {
		if rel.RequiredForNonRoot {
			requiredRels[rel.Name] = true
		}
	}

	for _, n := range st.graph.Nodes() {
		if !requiredKinds[n.Kind] {
			continue
		}
		if n.Kind == graph.KindRequirement && st.schema.IsRootLevel(requirementLevel(n.ID)) {
			continue
		}
		hasMandatoryParent := false
		for _, e := range n.ParentEdges {
			if requiredRels[e.Rel] {
				hasMandatoryParent = true
				break
			}
		}
		if hasMandatoryParent {
			continue
		}
		st.result.Add(diag.Diagnostic{
			Severity: diag.SeverityWarning,
			Check:    diag.CheckOrphan,
			ID:       n.ID,
			Message:  fmt.Sprintf("%s node has no mandatory parent relationship", n.Kind),
			Location: n.Location,
		})
	}
}

// checkLevels evaluates the schema's level rules on every implements
// edge between requirements (or assertions, through their owning
// requirement's level).
func (b *Builder) checkLevels(st *buildState) {
	for _, e := range st.graph.Edges() {
		if e.Rel != spec.RelImplements {
			continue
		}
		childLevel := requirementLevel(e.Child.ID)
		parentLevel := requirementLevel(e.Parent.ID)
		if childLevel == ident.LevelUnknown || parentLevel == ident.LevelUnknown {
			continue
		}
		if st.schema.LevelAllowed(childLevel, parentLevel) {
			continue
		}
		st.result.Add(diag.Diagnostic{
			Severity: diag.SeverityError,
			Check:    diag.CheckLevelConstraint,
			ID:       e.Child.ID,
			Message: fmt.Sprintf("%s-level requirement may not implement %s-level %s",
				childLevel, parentLevel, e.Parent.ID),
			Location: e.Location,
		})
	}
}

// checkCoverage reports assertions with no inbound validates or
// implements edge as coverage gaps, unless the assertion carries the
// expected-gap marker. Gaps are warnings, not errors.
func (b *Builder) checkCoverage(st *buildState) {
	for _, n := range st.graph.NodesByKind(graph.KindAssertion) {
		a := n.Assertion()
		if a == nil || a.ExpectedGap {
			continue
		}
		if len(n.Children(spec.RelValidates, spec.RelImplements)) > 0 {
			continue
		}
		st.result.Add(diag.Diagnostic{
			Severity: diag.SeverityWarning,
			Check:    diag.CheckCoverageGap,
			ID:       n.ID,
			Message:  "assertion has no validating or implementing reference",
			Location: n.Location,
		})
	}
}

// checkHashes compares each requirement's stored content hash with the
// hash recomputed at parse time. A mismatch signals a silent edit
// without hash regeneration: informational by default, an error under
// the strict-hash policy.
func (b *Builder) checkHashes(st *buildState) {
	severity := diag.SeverityInfo
	if b.options.StrictHashes {
		severity = diag.SeverityError
	}
	for _, n := range st.graph.NodesByKind(graph.KindRequirement) {
		req := n.Requirement()
		if req == nil || req.StoredHash == "" || req.StoredHash == req.ComputedHash {
			continue
		}
		st.result.Add(diag.Diagnostic{
			Severity: severity,
			Check:    diag.CheckHashMismatch,
			ID:       n.ID,
			Message: fmt.Sprintf("stored hash %s does not match content hash %s",
				req.StoredHash, req.ComputedHash),
			Location: n.Location,
		})
	}
}
