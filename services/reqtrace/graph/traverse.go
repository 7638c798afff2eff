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
	"iter"
)

// Traversals return lazy, finite sequences over the graph starting at
// the root set. Every call produces an independent sequence with fresh
// state, so sequences are restartable and safe to run concurrently on
// a frozen graph. Each node is yielded exactly once even when the DAG
// reaches it through multiple paths.

// PreOrder yields parents before their children, depth-first, with
// roots and children in attachment order.
func (g *TraceGraph) PreOrder() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		visited := make(map[*Node]bool, len(g.order))
		var walk func(n *Node) bool
		walk = func(n *Node) bool {
			if visited[n] {
				return true
			}
			visited[n] = true
			if !yield(n) {
				return false
			}
			for _, e := range n.ChildEdges {
				if !walk(e.Child) {
					return false
				}
			}
			return true
		}
		for _, root := range g.roots {
			if !walk(root) {
				return
			}
		}
	}
}

// PostOrder yields children before their parents, depth-first. This is
// the order the metrics rollup consumes: a node appears only after
// every descendant reachable from it has appeared.
func (g *TraceGraph) PostOrder() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		visited := make(map[*Node]bool, len(g.order))
		var walk func(n *Node) bool
		walk = func(n *Node) bool {
			if visited[n] {
				return true
			}
			visited[n] = true
			for _, e := range n.ChildEdges {
				if !walk(e.Child) {
					return false
				}
			}
			return yield(n)
		}
		for _, root := range g.roots {
			if !walk(root) {
				return
			}
		}
	}
}

// LevelOrder yields nodes breadth-first: all roots, then everything one
// edge below them, and so on. Used by report generation for
// depth-grouped output.
//
// The queue keeps a head index into a growing slice instead of
// re-slicing the front off, so dequeue stays O(1) on deep hierarchies.
func (g *TraceGraph) LevelOrder() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		visited := make(map[*Node]bool, len(g.order))
		queue := make([]*Node, 0, len(g.roots))
		head := 0

		for _, root := range g.roots {
			if !visited[root] {
				visited[root] = true
				queue = append(queue, root)
			}
		}

		for head < len(queue) {
			n := queue[head]
			head++
			if !yield(n) {
				return
			}
			for _, e := range n.ChildEdges {
				if !visited[e.Child] {
					visited[e.Child] = true
					queue = append(queue, e.Child)
				}
			}
		}
	}
}

// Ancestors yields every node reachable from n by walking parent edges,
// breadth-first, each exactly once, excluding n itself.
func (g *TraceGraph) Ancestors(n *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		visited := map[*Node]bool{n: true}
		queue := []*Node{n}
		head := 0
		for head < len(queue) {
			current := queue[head]
			head++
			for _, e := range current.ParentEdges {
				if visited[e.Parent] {
					continue
				}
				visited[e.Parent] = true
				if !yield(e.Parent) {
					return
				}
				queue = append(queue, e.Parent)
			}
		}
	}
}

// FindAncestor returns the first ancestor of n satisfying pred, or nil.
func (g *TraceGraph) FindAncestor(n *Node, pred func(*Node) bool) *Node {
	for a := range g.Ancestors(n) {
		if pred(a) {
			return a
		}
	}
	return nil
}

// Find returns the first node in insertion order satisfying pred, or
// nil. Conflicting nodes are not searched.
func (g *TraceGraph) Find(pred func(*Node) bool) *Node {
	for _, n := range g.order {
		if pred(n) {
			return n
		}
	}
	return nil
}

// FindAll returns every node in insertion order satisfying pred.
func (g *TraceGraph) FindAll(pred func(*Node) bool) []*Node {
	var out []*Node
	for _, n := range g.order {
		if pred(n) {
			out = append(out, n)
		}
	}
	return out
}
