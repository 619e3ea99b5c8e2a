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
	"slices"
	"time"

	"github.com/AleutianAI/xorbreak/services/xorsum/solver"
	"github.com/AleutianAI/xorbreak/services/xorsum/xorhash"
)

// Reduce collapses the graph to pool values whose XOR is the target.
//
// Description:
//
//	Every computed value contributes once. An expanded value passes its
//	contribution on to both of its operands; pool values keep theirs. A
//	value contributed an even number of times cancels. The surviving
//	nonzero pool values are returned sorted by hexadecimal text.
//
//	Contributions are propagated in topological order over the record
//	edges. A shared intermediate reached from k parents therefore passes
//	on k contributions, not one, which is what keeps the sum exact.
//
// Inputs:
//
//	ctx - Checked once per node visit.
//	g - Graph produced by Build for res.
//	res - The solver result g was built from.
//
// Outputs:
//
//	[]xorhash.Value - Pool values only, sorted, possibly empty.
//	error - ErrInvariantViolation if the records form a cycle or the
//	        reduced set does not XOR to the target; ErrCancelled.
func Reduce(ctx context.Context, g *Graph, res *solver.Result) (out []xorhash.Value, err error) {
	if g == nil || res == nil {
		return nil, errors.New("graph and solver result must not be nil")
	}

	ctx, span := startReduceSpan(ctx, g.Len())
	defer span.End()
	start := time.Now()
	defer func() {
		setReduceSpanResult(span, out, err)
		recordReduceMetrics(ctx, time.Since(start), out, err)
	}()

	parity := make([]bool, len(g.nodes))
	for _, id := range g.seeds {
		parity[id] = !parity[id]
	}

	order, err := g.expansionOrder(ctx)
	if err != nil {
		return nil, err
	}

	for _, id := range order {
		if err := solver.CheckContext(ctx); err != nil {
			return nil, err
		}
		n := &g.nodes[id]
		if !n.expanded || !parity[id] {
			continue
		}
		parity[id] = false
		parity[n.parents[0]] = !parity[n.parents[0]]
		parity[n.parents[1]] = !parity[n.parents[1]]
	}

	pool := res.PoolSet()
	out = make([]xorhash.Value, 0)
	for id, odd := range parity {
		if err := solver.CheckContext(ctx); err != nil {
			return nil, err
		}
		if !odd {
			continue
		}
		v := g.nodes[id].Value
		if _, ok := pool[v]; !ok {
			return nil, solver.Invariantf("value %s left unexplained after reduction", v)
		}
		out = append(out, v)
	}
	slices.SortFunc(out, xorhash.Compare)

	if err := xorhash.Verify(res.Target, out); err != nil {
		return nil, solver.Invariantf("reduced values: %v", err)
	}
	return out, nil
}

// expansionOrder returns node IDs so that every expanded node comes before
// both of its operands. Ties are broken by the smallest ID for determinism.
func (g *Graph) expansionOrder(ctx context.Context) ([]NodeID, error) {
	indeg := make([]int, len(g.nodes))
	for i := range g.nodes {
		n := &g.nodes[i]
		if n.expanded {
			indeg[n.parents[0]]++
			indeg[n.parents[1]]++
		}
	}

	ready := make([]NodeID, 0, len(g.nodes))
	for i := range g.nodes {
		if indeg[i] == 0 {
			ready = append(ready, NodeID(i))
		}
	}

	order := make([]NodeID, 0, len(g.nodes))
	for len(ready) > 0 {
		if err := solver.CheckContext(ctx); err != nil {
			return nil, err
		}
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		n := &g.nodes[id]
		if !n.expanded {
			continue
		}
		for _, p := range n.parents {
			indeg[p]--
			if indeg[p] == 0 {
				k, _ := slices.BinarySearch(ready, p)
				ready = slices.Insert(ready, k, p)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, solver.Invariantf("combination records form a cycle")
	}
	return order, nil
}
