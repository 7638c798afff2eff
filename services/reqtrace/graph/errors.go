// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the traceability graph container and traversal
// primitives.
//
// Nodes represent requirements, assertions, code references, tests,
// test results, and journeys; edges represent schema-defined
// relationships between them. The structure is a DAG, not a tree: a
// node may have multiple parents, and a descendant may be reachable
// from an ancestor through more than one path.
//
// # Ownership Model
//
// The graph stores pointers to payload records but does NOT own them:
// payloads MUST NOT be mutated after their node is added. The graph
// does not copy payloads.
//
// # Thread Safety
//
// TraceGraph is NOT safe for concurrent use while building. It is
// designed for single-writer access during the build phase, then
// read-only access after Freeze(). After Freeze() the graph can be
// read from any number of goroutines without locking, because nothing
// mutates it anymore.
//
// # Lifecycle
//
//  1. Create with New()
//  2. Populate with Add() and Link() calls (builder only)
//  3. Attach metrics (rollup pass), then Freeze()
//  4. Query with FindByID(), NodesByKind(), traversals
package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrGraphFrozen is returned when attempting to modify a frozen
	// graph. Freeze() is irreversible.
	ErrGraphFrozen = errors.New("graph is frozen and cannot be modified")

	// ErrNodeNotFound is returned when an edge names a node that does
	// not exist. Both endpoints must be added before linking.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateNode is returned when adding a node whose ID is
	// already claimed. Requirement-level duplicates are a validation
	// concern and go through AddConflict instead.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrKindMismatch is returned when a payload does not match the
	// declared node kind.
	ErrKindMismatch = errors.New("payload does not match node kind")
)
