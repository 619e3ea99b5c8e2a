// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package provenance explains solver output in terms of pool members.
//
// # Overview
//
// The solver returns values that may be XOR combinations of pool members.
// Build walks the solver's combination records from the target down to pool
// values and produces a Graph; Reduce collapses that graph to pool values
// only; WriteMermaid renders it as a flowchart.
//
// # Shared Nodes
//
// Nodes are deduplicated by content. A value referenced from several parents
// is one node with an aggregated usage count, so the graph is a DAG rather
// than a tree. Nodes live in an arena and refer to each other by NodeID, which
// keeps the structure free of pointer cycles.
//
// # Lifecycle
//
// A Graph is built for one request and discarded after one Reduce or
// WriteMermaid pass. It is NOT safe for concurrent use.
package provenance

import (
	"github.com/AleutianAI/xorbreak/services/xorsum/xorhash"
)

// NodeID addresses a node in its Graph's arena.
type NodeID int

// Node is one value in the provenance graph.
type Node struct {
	// Value is the node's content. Unique within a Graph.
	Value xorhash.Value

	// Children are the nodes this value is explained by, in attachment order.
	// The root's children are the solver's computed values; an expanded
	// node's children are the two values that XOR to it.
	Children []NodeID

	// Uses counts every reference to the node, including the root's initial one.
	Uses int

	// expanded is set once the node's combination record has been attached.
	expanded bool

	// parents holds the combination record operands when expanded is set.
	// For every node but the root they are also its Children.
	parents [2]NodeID

	// scheduled is set once the node has been pushed for expansion.
	scheduled bool
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Graph is a content-deduplicated provenance DAG rooted at the target.
type Graph struct {
	nodes []Node
	index map[xorhash.Value]NodeID
	root  NodeID

	// seeds are the root's children contributed by the solver's output.
	seeds []NodeID
}

// newGraph creates a graph holding only the root, with one use.
func newGraph(root xorhash.Value) *Graph {
	g := &Graph{index: make(map[xorhash.Value]NodeID)}
	g.root = g.add(root)
	g.nodes[g.root].Uses = 1
	return g
}

// Root returns the target's node ID.
func (g *Graph) Root() NodeID {
	return g.root
}

// Node returns the node for id. The pointer is valid until the graph grows.
func (g *Graph) Node(id NodeID) *Node {
	return &g.nodes[id]
}

// Len returns the number of distinct nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Lookup finds the node holding v.
func (g *Graph) Lookup(v xorhash.Value) (NodeID, bool) {
	id, ok := g.index[v]
	return id, ok
}

// Edges returns the total number of child links.
func (g *Graph) Edges() int {
	total := 0
	for i := range g.nodes {
		total += len(g.nodes[i].Children)
	}
	return total
}

// getOrAdd returns the node for v, creating it if needed, and counts one use.
// added reports whether the node was created by this call.
func (g *Graph) getOrAdd(v xorhash.Value) (id NodeID, added bool) {
	if id, ok := g.index[v]; ok {
		g.nodes[id].Uses++
		return id, false
	}
	id = g.add(v)
	g.nodes[id].Uses = 1
	return id, true
}

// attach links child under parent and returns child.
func (g *Graph) attach(parent, child NodeID) NodeID {
	g.nodes[parent].Children = append(g.nodes[parent].Children, child)
	return child
}

func (g *Graph) add(v xorhash.Value) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{Value: v})
	g.index[v] = id
	return id
}
