// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package provenance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AleutianAI/xorbreak/services/xorsum/solver"
)

// MermaidHeader is the first line of every rendered flowchart.
const MermaidHeader = "flowchart TD"

// MermaidOptions configures WriteMermaid.
type MermaidOptions struct {
	// Footer appends a "%% <n> lines" comment counting the emitted node lines.
	Footer bool
}

// WriteMermaid renders g as a Mermaid flowchart.
//
// Description:
//
//	Writes the header, then walks the graph root first, depth first, over
//	children in attachment order. A node with children is written as
//	"HEX[HEX=C1^C2^...] --> PARENT" (no arrow for the root); a leaf as
//	"HEX --> PARENT". Each distinct line is written once. When the target is
//	itself derived from a record, its two operands follow as edges into it.
//
// Limitations:
//
//	Mermaid limits the number of edges it renders by default. Targets above
//	two bytes usually exceed it; raise maxEdges in the Mermaid configuration.
func WriteMermaid(ctx context.Context, g *Graph, w io.Writer, opts MermaidOptions) error {
	if g == nil {
		return errors.New("graph must not be nil")
	}

	bw := bufio.NewWriter(w)
	r := &mermaidRenderer{
		g:       g,
		w:       bw,
		seen:    make(map[string]struct{}),
		visited: make([]bool, g.Len()),
	}

	if _, err := fmt.Fprintln(bw, MermaidHeader); err != nil {
		return err
	}
	if err := r.visit(ctx, g.root, ""); err != nil {
		return err
	}
	if opts.Footer {
		if _, err := fmt.Fprintf(bw, "%%%% %d lines\n", len(r.seen)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

type mermaidRenderer struct {
	g       *Graph
	w       io.Writer
	seen    map[string]struct{}
	visited []bool
}

// visit writes the line for id under parent, then descends into its
// children the first time id is reached. Later visits from other parents
// only add id's own line; its subtree lines would all repeat.
func (r *mermaidRenderer) visit(ctx context.Context, id NodeID, parent string) error {
	if err := solver.CheckContext(ctx); err != nil {
		return err
	}

	n := &r.g.nodes[id]
	self := n.Value.Hex()

	var line string
	switch {
	case len(n.Children) > 0:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = r.g.nodes[c].Value.Hex()
		}
		line = fmt.Sprintf("%s[%s=%s]", self, self, strings.Join(parts, "^"))
		if parent != "" {
			line += " --> " + parent
		}
	case parent != "":
		line = self + " --> " + parent
	default:
		line = self
	}

	if err := r.emit(line); err != nil {
		return err
	}

	if r.visited[id] {
		return nil
	}
	r.visited[id] = true
	for _, c := range n.Children {
		if err := r.visit(ctx, c, self); err != nil {
			return err
		}
	}

	// An expanded root keeps the computed values as its label; its record
	// operands are drawn as plain edges into it.
	if id == r.g.root && n.expanded {
		for _, p := range n.parents {
			if err := r.visit(ctx, p, self); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *mermaidRenderer) emit(line string) error {
	if _, dup := r.seen[line]; dup {
		return nil
	}
	r.seen[line] = struct{}{}
	_, err := fmt.Fprintln(r.w, line)
	return err
}
