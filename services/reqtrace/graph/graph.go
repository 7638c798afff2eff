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
	"fmt"
	"time"

	"github.com/AleutianAI/reqtrace/services/reqtrace/diag"
	"github.com/AleutianAI/reqtrace/services/reqtrace/spec"
)

// State is the lifecycle state of the graph.
type State int

const (
	// StateBuilding indicates the graph accepts Add/Link calls.
	StateBuilding State = iota

	// StateReadOnly indicates the graph is frozen.
	StateReadOnly
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateReadOnly:
		return "readonly"
	default:
		return "unknown"
	}
}

// edgeKey identifies an edge for idempotent linking.
type edgeKey struct {
	parent, child string
	rel           spec.RelName
}

// TraceGraph is the owning container for the traceability graph.
type TraceGraph struct {
	// nodes maps node ID to node. Conflicting requirements are kept
	// out of this index on purpose.
	nodes map[string]*Node

	// order preserves insertion order for deterministic iteration.
	order []*Node

	// byKind is a secondary index for O(1) kind-based lookup.
	byKind map[Kind][]*Node

	// edges holds every edge once, in creation order.
	edges []*Edge

	// edgeSet makes Link idempotent.
	edgeSet map[edgeKey]*Edge

	// conflicts holds nodes for requirements that lost a duplicate
	// identifier claim. Addressable only through Conflicts().
	conflicts []*Node

	// roots is the root set, assigned by the builder before Freeze().
	roots []*Node

	// result is the graph-wide validation result.
	result *diag.ValidationResult

	// state is the current lifecycle state.
	state State

	// BuiltAtMilli is the Unix timestamp in milliseconds when Freeze()
	// was called. Zero while building.
	BuiltAtMilli int64
}

// New creates an empty graph in the building state.
func New() *TraceGraph {
	return &TraceGraph{
		nodes:   make(map[string]*Node),
		byKind:  make(map[Kind][]*Node),
		edgeSet: make(map[edgeKey]*Edge),
		result:  &diag.ValidationResult{},
	}
}

// State returns the current lifecycle state.
func (g *TraceGraph) State() State {
	return g.state
}

// IsFrozen reports whether the graph is read-only.
func (g *TraceGraph) IsFrozen() bool {
	return g.state == StateReadOnly
}

// Add inserts a node into the graph and its indexes.
//
// The payload must match the node kind; a mismatch is a programming
// error, not input trouble, and returns ErrKindMismatch. Duplicate IDs
// return ErrDuplicateNode — requirement-identifier duplicates are a
// validation concern the builder routes through AddConflict instead.
func (g *TraceGraph) Add(n *Node) error {
	if g.state == StateReadOnly {
		return ErrGraphFrozen
	}
	if n.Payload == nil || n.Payload.payloadKind() != n.Kind {
		return fmt.Errorf("%w: node %s declared %s", ErrKindMismatch, n.ID, n.Kind)
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n)
	g.byKind[n.Kind] = append(g.byKind[n.Kind], n)
	return nil
}

// AddConflict retains a node that lost a duplicate-identifier claim.
// Conflict nodes are excluded from the ID index, kind index, and all
// traversals; they exist only for diagnostics.
func (g *TraceGraph) AddConflict(n *Node) error {
	if g.state == StateReadOnly {
		return ErrGraphFrozen
	}
	g.conflicts = append(g.conflicts, n)
	return nil
}

// Link attaches a parent→child edge for the given relationship.
//
// Linking is idempotent: an identical (parent, relationship, child)
// triple is a no-op, because assertion-scoped and whole-requirement
// references may independently resolve to the same node pair.
func (g *TraceGraph) Link(parentID, childID string, rel spec.RelName, loc spec.Location) error {
	if g.state == StateReadOnly {
		return ErrGraphFrozen
	}
	parent, ok := g.nodes[parentID]
	if !ok {
		return fmt.Errorf("%w: parent %s", ErrNodeNotFound, parentID)
	}
	child, ok := g.nodes[childID]
	if !ok {
		return fmt.Errorf("%w: child %s", ErrNodeNotFound, childID)
	}

	key := edgeKey{parent: parentID, child: childID, rel: rel}
	if _, exists := g.edgeSet[key]; exists {
		return nil
	}

	e := &Edge{Parent: parent, Child: child, Rel: rel, Location: loc}
	g.edgeSet[key] = e
	g.edges = append(g.edges, e)
	parent.ChildEdges = append(parent.ChildEdges, e)
	child.ParentEdges = append(child.ParentEdges, e)
	return nil
}

// FindByID returns the node with the given identifier, or nil.
// Conflicting nodes are not found here.
func (g *TraceGraph) FindByID(id string) *Node {
	return g.nodes[id]
}

// Nodes returns all non-conflicting nodes in insertion order.
// The returned slice is shared; callers must not modify it.
func (g *TraceGraph) Nodes() []*Node {
	return g.order
}

// NodesByKind returns all nodes of the given kind in insertion order.
// The returned slice is shared; callers must not modify it.
func (g *TraceGraph) NodesByKind(kind Kind) []*Node {
	return g.byKind[kind]
}

// Edges returns all edges in creation order.
// The returned slice is shared; callers must not modify it.
func (g *TraceGraph) Edges() []*Edge {
	return g.edges
}

// Conflicts returns the nodes excluded by duplicate-identifier
// resolution, in the order they were detected.
func (g *TraceGraph) Conflicts() []*Node {
	return g.conflicts
}

// SetRoots records the root set. Called once by the builder after edge
// resolution; roots are the nodes with no rollup-mandatory parent.
func (g *TraceGraph) SetRoots(roots []*Node) error {
	if g.state == StateReadOnly {
		return ErrGraphFrozen
	}
	g.roots = roots
	return nil
}

// Roots returns the root set.
func (g *TraceGraph) Roots() []*Node {
	return g.roots
}

// Result returns the graph-wide validation result.
func (g *TraceGraph) Result() *diag.ValidationResult {
	return g.result
}

// NodeCount returns the number of non-conflicting nodes.
func (g *TraceGraph) NodeCount() int {
	return len(g.order)
}

// EdgeCount returns the number of distinct edges.
func (g *TraceGraph) EdgeCount() int {
	return len(g.edges)
}

// Freeze transitions the graph to read-only.
//
// Freeze is irreversible and must happen after the metrics pass; from
// then on concurrent readers need no locking because no mutation
// occurs. A rebuild produces a fresh graph rather than thawing an old
// one.
func (g *TraceGraph) Freeze() {
	g.state = StateReadOnly
	g.BuiltAtMilli = time.Now().UnixMilli()
}
