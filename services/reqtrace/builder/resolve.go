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

	"github.com/AleutianAI/reqtrace/services/reqtrace/diag"
	"github.com/AleutianAI/reqtrace/services/reqtrace/graph"
	"github.com/AleutianAI/reqtrace/services/reqtrace/ident"
	"github.com/AleutianAI/reqtrace/services/reqtrace/schema"
	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

// target is one unresolved target identifier read from a source node's
// content field.
type target struct {
	idText   string
	location spec.Location
}

// resolveEdges interprets the schema's relationship table: every row,
// every source node of a permitted kind, every declared target.
// Unresolvable targets become broken-link diagnostics, never fatal
// errors.
func (b *Builder) resolveEdges(st *buildState) {
	for _, rel := range st.schema.Relationships {
		for _, kind := range rel.Sources {
			for _, source := range st.graph.NodesByKind(kind) {
				b.resolveSource(st, rel, source)
			}
		}
	}
}

// resolveSource resolves one source node's targets for one relationship.
func (b *Builder) resolveSource(st *buildState, rel schema.Relationship, source *graph.Node) {
	// Results are matched by test identity, not by requirement
	// identifier, so they link directly.
	if rel.Field == schema.FieldResults {
		for _, resultID := range st.resultNodesByTest[source.ID] {
			b.link(st, rel, source, st.graph.FindByID(resultID), source.Location)
		}
		return
	}

	for _, tgt := range readField(rel, source) {
		b.resolveTarget(st, rel, source, tgt)
	}
}

// readField reads the relationship's declared content field from the
// source payload. The type switch is exhaustive over the payload kinds
// a field can legally appear on; a mismatch means the schema permitted
// a kind the field does not exist on, which Validate should have
// rejected.
func readField(rel schema.Relationship, source *graph.Node) []target {
	var out []target
	switch rel.Field {
	case schema.FieldReferences:
		req := source.Requirement()
		if req == nil {
			return nil
		}
		for _, ref := range req.References {
			if ref.Rel == rel.Name {
				out = append(out, target{idText: ref.Target, location: ref.Location})
			}
		}
	case schema.FieldAssertions:
		req := source.Requirement()
		if req == nil {
			return nil
		}
		for _, a := range req.Assertions {
			out = append(out, target{
				idText:   assertionNodeID(req.ID, a.Label),
				location: a.Location,
			})
		}
	case schema.FieldTargets:
		switch {
		case source.Code() != nil:
			for _, t := range source.Code().Targets {
				out = append(out, target{idText: t, location: source.Location})
			}
		case source.Test() != nil:
			for _, t := range source.Test().Targets {
				out = append(out, target{idText: t, location: source.Location})
			}
		}
	case schema.FieldAddresses:
		j := source.Journey()
		if j == nil {
			return nil
		}
		for _, t := range j.Addresses {
			out = append(out, target{idText: t, location: source.Location})
		}
	}
	return out
}

// resolveTarget resolves one target identifier to nodes and links them.
//
// Assertion-scoped identifiers resolve to the assertion nodes, one per
// label; whole-requirement identifiers resolve to the requirement
// node. A scoped reference whose label does not exist on the target
// requirement is a broken link even when the requirement itself
// exists — a partial reference must not silently widen to the whole
// requirement.
func (b *Builder) resolveTarget(st *buildState, rel schema.Relationship, source *graph.Node, tgt target) {
	parsed, fail := ident.Parse(tgt.idText)
	if fail != nil {
		b.brokenLink(st, source, tgt, fail.Error())
		return
	}

	if !parsed.IsScoped() {
		node := st.graph.FindByID(parsed.String())
		if node == nil {
			b.brokenLink(st, source, tgt, fmt.Sprintf("%s does not resolve to any node", parsed))
			return
		}
		b.checkKindAndLink(st, rel, source, node, tgt)
		return
	}

	reqID := parsed.RequirementID().String()
	owner := st.graph.FindByID(reqID)
	for i := 0; i < len(parsed.Labels); i++ {
		label := parsed.Labels[i]
		node := st.graph.FindByID(assertionNodeID(reqID, label))
		if node == nil {
			if owner != nil {
				b.brokenLink(st, source, tgt,
					fmt.Sprintf("%s has no assertion labeled %c", reqID, label))
			} else {
				b.brokenLink(st, source, tgt,
					fmt.Sprintf("%s does not resolve to any node", parsed))
			}
			continue
		}
		b.checkKindAndLink(st, rel, source, node, tgt)
	}
}

// checkKindAndLink enforces the schema's permitted target kinds, then
// creates the edge in the declared direction.
func (b *Builder) checkKindAndLink(st *buildState, rel schema.Relationship, source, node *graph.Node, tgt target) {
	permitted := false
	for _, k := range rel.Targets {
		if node.Kind == k {
			permitted = true
			break
		}
	}
	if !permitted {
		b.brokenLink(st, source, tgt,
			fmt.Sprintf("%s resolves to a %s node, not permitted for %s", tgt.idText, node.Kind, rel.Name))
		return
	}
	b.link(st, rel, source, node, tgt.location)
}

// link creates the edge with the schema's direction applied: up makes
// the resolved target the parent, down makes it the child.
func (b *Builder) link(st *buildState, rel schema.Relationship, source, node *graph.Node, loc spec.Location) {
	if node == nil {
		return
	}
	var err error
	if rel.Direction == schema.DirectionUp {
		err = st.graph.Link(node.ID, source.ID, rel.Name, loc)
	} else {
		err = st.graph.Link(source.ID, node.ID, rel.Name, loc)
	}
	if err != nil {
		// Both endpoints were just looked up; failure is a builder bug.
		panic(fmt.Sprintf("builder: linking %s -[%s]-> %s: %v", source.ID, rel.Name, node.ID, err))
	}
}

// brokenLink records a broken-link diagnostic naming the offending
// identifier and source location.
func (b *Builder) brokenLink(st *buildState, source *graph.Node, tgt target, msg string) {
	st.result.Add(diag.Diagnostic{
		Severity: diag.SeverityError,
		Check:    diag.CheckBrokenLink,
		ID:       source.ID,
		Message:  msg,
		Location: tgt.location,
	})
}
