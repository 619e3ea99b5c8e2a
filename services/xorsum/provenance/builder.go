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
	"context"
	"errors"
	"time"

	"github.com/AleutianAI/xorbreak/services/xorsum/solver"
)

// Build constructs the provenance graph for a solver result.
//
// Description:
//
//	Links every computed value under the root, then walks depth-first:
//	nonzero pool values are leaves, every other value is explained by its
//	combination record and both operands are linked under it. Operands that
//	already exist are linked again (their usage count grows) but are not
//	walked a second time.
//
//	When the target itself is a record operand it is expanded like any
//	other value, but its children remain exactly the computed values so
//	that they XOR to it. The target's operands are reachable through its
//	record for Reduce and WriteMermaid.
//
// Inputs:
//
//	ctx - Checked once per seed and once per stack pop.
//	res - Solver output. Must not be nil.
//
// Outputs:
//
//	*Graph - Fresh graph owned by the caller.
//	error - ErrInvariantViolation for a zero value or a value without a
//	        record, ErrCancelled when ctx is done.
//
// Thread Safety: Safe; each call owns its graph.
func Build(ctx context.Context, res *solver.Result) (g *Graph, err error) {
	if res == nil {
		return nil, errors.New("solver result must not be nil")
	}

	ctx, span := startBuildSpan(ctx, len(res.Computed), len(res.Records))
	defer span.End()
	start := time.Now()
	defer func() {
		setBuildSpanResult(span, g, err)
		recordBuildMetrics(ctx, time.Since(start), g, err)
	}()

	pool := res.PoolSet()
	g = newGraph(res.Target)
	stack := make([]NodeID, 0, len(res.Computed))

	// The root counts as scheduled only once it is referenced as a summand.
	schedule := func(id NodeID, added bool) {
		n := &g.nodes[id]
		if added || (id == g.root && !n.scheduled) {
			n.scheduled = true
			stack = append(stack, id)
		}
	}

	for _, v := range res.Computed {
		if err := solver.CheckContext(ctx); err != nil {
			return nil, err
		}
		id, added := g.getOrAdd(v)
		g.attach(g.root, id)
		g.seeds = append(g.seeds, id)
		schedule(id, added)
	}

	for len(stack) > 0 {
		if err := solver.CheckContext(ctx); err != nil {
			return nil, err
		}
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		v := g.nodes[id].Value
		if v.IsZero() {
			return nil, solver.Invariantf("zero value reached in provenance walk")
		}
		if _, ok := pool[v]; ok {
			continue
		}

		rec, ok := res.Records[v]
		if !ok {
			return nil, solver.Invariantf("orphaned combination %s has no record", v)
		}

		left, addedLeft := g.getOrAdd(rec.Left)
		right, addedRight := g.getOrAdd(rec.Right)
		// The root's children stay the computed values; its own record
		// operands are kept in parents only.
		if id != g.root {
			g.attach(id, left)
			g.attach(id, right)
		}
		g.nodes[id].expanded = true
		g.nodes[id].parents = [2]NodeID{left, right}

		schedule(left, addedLeft)
		schedule(right, addedRight)
	}

	return g, nil
}
