// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import "github.com/go-prolog/wam/machine"

// HeapGraph adapts a term heap to the Graph interface: nodes are
// cell indexes and edges are references plus the inline children of
// structure headers, list pairs, and partial strings. Stack
// variables have no heap target and contribute no edge.
type HeapGraph struct {
	Heap machine.Heap
}

func (g HeapGraph) NumNodes() int {
	return g.Heap.Len()
}

func (g HeapGraph) Out(i int) []int {
	c := *g.Heap.At(i)
	switch c.Tag() {
	case machine.TagVar, machine.TagAttrVar, machine.TagStr,
		machine.TagPStrLoc, machine.TagPStrOffset:
		t := int(c.Value())
		if t == i {
			return nil
		}
		return []int{t}
	case machine.TagLis:
		t := int(c.Value())
		return []int{t, t + 1}
	case machine.TagPStr:
		if i+1 < g.Heap.Len() {
			return []int{i + 1}
		}
	case machine.TagAtom:
		if n := c.Arity(); n > 0 {
			out := make([]int, n)
			for k := range out {
				out[k] = i + 1 + k
			}
			return out
		}
	}
	return nil
}
