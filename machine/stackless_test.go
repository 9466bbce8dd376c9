// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-prolog/wam/atom"
)

func TestStacklessPreOrderStructure(t *testing.T) {
	tbl := atom.NewTable()
	f := tbl.Intern("f")
	a := tbl.Intern("a")
	b := tbl.Intern("b")

	var heap Heap
	heap.PushFunctor(f, AtomCell(a, 0), AtomCell(b, 0))
	before := snapshot(heap)

	it := NewStacklessPreOrderIter(&heap, StrCell(0))
	got := withoutBits(drain(it))
	it.Close()

	// Pointer reversal scans arguments right to left.
	assert.Equal(t, []Cell{AtomCell(f, 2), AtomCell(b, 0), AtomCell(a, 0)}, got)
	requireRestored(t, before, heap)
}

func TestStacklessPreOrderSelfReference(t *testing.T) {
	tbl := atom.NewTable()
	f := tbl.Intern("f")
	a := tbl.Intern("a")
	b := tbl.Intern("b")

	var heap Heap
	heap.PushFunctor(f, AtomCell(a, 0), AtomCell(b, 0), AtomCell(a, 0), StrCell(0))
	before := snapshot(heap)

	for i := 0; i < 20; i++ {
		it := NewStacklessPreOrderIter(&heap, StrCell(0))
		got := drain(it)
		it.Close()

		require.Len(t, got, 5, "run %d", i)
		assert.Equal(t, []Cell{
			AtomCell(f, 4), StrCell(0), AtomCell(a, 0), AtomCell(b, 0), AtomCell(a, 0),
		}, withoutBits(got))
		assert.True(t, got[1].Forwarding(), "cycle edge must carry the forwarding bit")
		requireRestored(t, before, heap)
	}
}

func TestStacklessPreOrderSelfVariable(t *testing.T) {
	var heap Heap
	heap.Push(VarCell(0))
	before := snapshot(heap)

	it := NewStacklessPreOrderIter(&heap, VarCell(0))
	got := drain(it)
	it.Close()

	require.Len(t, got, 1)
	assert.Equal(t, VarCell(0), got[0].WithoutBits())
	assert.True(t, got[0].Forwarding())
	requireRestored(t, before, heap)
}

func TestStacklessPreOrderMutualVariables(t *testing.T) {
	var heap Heap
	heap.Push(VarCell(1))
	heap.Push(VarCell(0))
	before := snapshot(heap)

	it := NewStacklessPreOrderIter(&heap, VarCell(0))
	got := drain(it)
	it.Close()

	require.Len(t, got, 1)
	assert.Equal(t, VarCell(0), got[0].WithoutBits())
	assert.True(t, got[0].Forwarding())
	requireRestored(t, before, heap)
}

func TestStacklessPreOrderList(t *testing.T) {
	tbl := atom.NewTable()
	heap := listAB(tbl)
	a := tbl.Intern("a")
	b := tbl.Intern("b")
	before := snapshot(heap)

	it := NewStacklessPreOrderIter(&heap, VarCell(0))
	got := withoutBits(drain(it))
	it.Close()

	// The pair tail is walked before the head.
	assert.Equal(t, []Cell{
		ListCell(1), ListCell(3), EmptyListCell(), AtomCell(b, 0), AtomCell(a, 0),
	}, got)
	requireRestored(t, before, heap)
}

func TestStacklessPreOrderCyclicList(t *testing.T) {
	tbl := atom.NewTable()
	heap := listAB(tbl)
	a := tbl.Intern("a")
	b := tbl.Intern("b")
	*heap.At(4) = VarCell(0)
	before := snapshot(heap)

	it := NewStacklessPreOrderIter(&heap, VarCell(0))
	got := drain(it)
	it.Close()

	require.Len(t, got, 5)
	assert.Equal(t, []Cell{
		ListCell(1), ListCell(3), VarCell(0), AtomCell(b, 0), AtomCell(a, 0),
	}, withoutBits(got))
	assert.True(t, got[2].Forwarding())
	requireRestored(t, before, heap)
}

func TestStacklessPreOrderDoublyCyclicList(t *testing.T) {
	var heap Heap
	heap.Push(ListCell(1))
	heap.Push(ListCell(1))
	heap.Push(ListCell(1))
	before := snapshot(heap)

	it := NewStacklessPreOrderIter(&heap, VarCell(0))
	got := drain(it)
	it.Close()

	require.Len(t, got, 3)
	for i, c := range got {
		assert.Equal(t, ListCell(1), c.WithoutBits(), "yield %d", i)
	}
	assert.False(t, got[0].Forwarding())
	assert.True(t, got[1].Forwarding())
	assert.True(t, got[2].Forwarding())
	requireRestored(t, before, heap)
}

func TestStacklessPreOrderPartialString(t *testing.T) {
	tbl := atom.NewTable()
	var heap Heap
	heap.PushPartialString(tbl, "abc ")
	before := snapshot(heap)

	it := NewStacklessPreOrderIter(&heap, PStrLocCell(0))
	got := drain(it)
	it.Close()

	require.Len(t, got, 2)
	assert.Equal(t, PStrCell(tbl.Intern("abc ")), got[0].WithoutBits())
	assert.Equal(t, VarCell(1), got[1].WithoutBits())
	assert.True(t, got[1].Forwarding())
	requireRestored(t, before, heap)
}

func TestStacklessPreOrderSharedSubterm(t *testing.T) {
	// f(X, h(X)) with X bound to p(a): the shared structure is
	// visited once per reference, the walk stays clean.
	tbl := atom.NewTable()
	f := tbl.Intern("f")
	h := tbl.Intern("h")
	p := tbl.Intern("p")
	a := tbl.Intern("a")

	var heap Heap
	heap.Push(AtomCell(f, 2))  // 0
	heap.Push(StrCell(5))      // 1: X
	heap.Push(StrCell(3))      // 2
	heap.Push(AtomCell(h, 1))  // 3
	heap.Push(VarCell(1))      // 4: chained back to X's cell
	heap.Push(AtomCell(p, 1))  // 5
	heap.Push(AtomCell(a, 0))  // 6
	before := snapshot(heap)

	it := NewStacklessPreOrderIter(&heap, StrCell(0))
	got := withoutBits(drain(it))
	it.Close()

	assert.Equal(t, []Cell{
		AtomCell(f, 2), AtomCell(h, 1), AtomCell(p, 1), AtomCell(a, 0),
		AtomCell(p, 1), AtomCell(a, 0),
	}, got)
	requireRestored(t, before, heap)
}

func TestStacklessPreOrderLeafRoot(t *testing.T) {
	var heap Heap

	it := NewStacklessPreOrderIter(&heap, EmptyListCell())
	got := withoutBits(drain(it))
	it.Close()

	assert.Equal(t, []Cell{EmptyListCell()}, got)
	assert.Equal(t, 0, heap.Len())
}

func TestStacklessPreOrderEarlyClose(t *testing.T) {
	tbl := atom.NewTable()
	heap := listAB(tbl)
	*heap.At(4) = VarCell(0)
	before := snapshot(heap)

	for steps := 0; steps <= 5; steps++ {
		it := NewStacklessPreOrderIter(&heap, VarCell(0))
		for i := 0; i < steps; i++ {
			it.Next()
		}
		it.Close()
		requireRestored(t, before, heap)
	}
}

func TestStacklessPreOrderFocus(t *testing.T) {
	tbl := atom.NewTable()
	f := tbl.Intern("f")
	a := tbl.Intern("a")
	b := tbl.Intern("b")

	var heap Heap
	heap.PushFunctor(f, AtomCell(a, 0), AtomCell(b, 0))

	it := NewStacklessPreOrderIter(&heap, StrCell(0))
	defer it.Close()

	_, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, 0, it.Focus().Index())

	_, ok = it.Next()
	require.True(t, ok)
	assert.Equal(t, 2, it.Focus().Index())

	_, ok = it.Next()
	require.True(t, ok)
	assert.Equal(t, 1, it.Focus().Index())
}
