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

func TestPostOrderStructure(t *testing.T) {
	tbl := atom.NewTable()
	f := tbl.Intern("f")
	a := tbl.Intern("a")
	b := tbl.Intern("b")

	var heap Heap
	var stack Stack
	heap.PushFunctor(f, AtomCell(a, 0), AtomCell(b, 0))
	before := snapshot(heap)

	it := StackfulPostOrderIter(&heap, &stack, StrCell(0))
	got := withoutBits(drain(it))
	it.Close()

	assert.Equal(t, []Cell{AtomCell(a, 0), AtomCell(b, 0), AtomCell(f, 2)}, got)
	requireRestored(t, before, heap)
}

func TestPostOrderList(t *testing.T) {
	tbl := atom.NewTable()
	heap := listAB(tbl)
	a := tbl.Intern("a")
	b := tbl.Intern("b")
	var stack Stack
	before := snapshot(heap)

	it := StackfulPostOrderIter(&heap, &stack, VarCell(0))
	got := withoutBits(drain(it))
	it.Close()

	assert.Equal(t, []Cell{
		AtomCell(a, 0), AtomCell(b, 0), EmptyListCell(), ListCell(3), ListCell(1),
	}, got)
	requireRestored(t, before, heap)
}

func TestPostOrderAtomRoot(t *testing.T) {
	tbl := atom.NewTable()
	a := tbl.Intern("a")

	var heap Heap
	var stack Stack

	it := StackfulPostOrderIter(&heap, &stack, AtomCell(a, 0))
	got := withoutBits(drain(it))
	it.Close()

	assert.Equal(t, []Cell{AtomCell(a, 0)}, got)
	assert.Equal(t, 0, heap.Len())
}

func TestPostOrderNested(t *testing.T) {
	tbl := atom.NewTable()
	f := tbl.Intern("f")
	g := tbl.Intern("g")
	a := tbl.Intern("a")
	b := tbl.Intern("b")

	// f(g(a), b)
	var heap Heap
	var stack Stack
	heap.Push(AtomCell(f, 2)) // 0
	heap.Push(StrCell(3))     // 1
	heap.Push(AtomCell(b, 0)) // 2
	heap.Push(AtomCell(g, 1)) // 3
	heap.Push(AtomCell(a, 0)) // 4
	before := snapshot(heap)

	it := StackfulPostOrderIter(&heap, &stack, StrCell(0))
	got := withoutBits(drain(it))
	it.Close()

	assert.Equal(t, []Cell{
		AtomCell(a, 0), AtomCell(g, 1), AtomCell(b, 0), AtomCell(f, 2),
	}, got)
	requireRestored(t, before, heap)
}

func TestPostOrderCycleSentinelIsLeaf(t *testing.T) {
	tbl := atom.NewTable()
	heap := listAB(tbl)
	a := tbl.Intern("a")
	b := tbl.Intern("b")
	*heap.At(4) = VarCell(0)
	var stack Stack
	before := snapshot(heap)

	it := StackfulPostOrderIter(&heap, &stack, VarCell(0))
	got := drain(it)
	it.Close()

	require.Len(t, got, 5)
	assert.Equal(t, []Cell{
		AtomCell(a, 0), AtomCell(b, 0), VarCell(0), ListCell(3), ListCell(1),
	}, withoutBits(got))
	assert.True(t, got[2].Forwarding())
	requireRestored(t, before, heap)
}

func TestPostOrderOverStackless(t *testing.T) {
	tbl := atom.NewTable()
	f := tbl.Intern("f")
	a := tbl.Intern("a")
	b := tbl.Intern("b")

	var heap Heap
	heap.PushFunctor(f, AtomCell(a, 0), AtomCell(b, 0))
	before := snapshot(heap)

	it := StacklessPostOrderIter(&heap, StrCell(0))
	got := withoutBits(drain(it))
	it.Close()

	assert.Equal(t, []Cell{AtomCell(b, 0), AtomCell(a, 0), AtomCell(f, 2)}, got)
	requireRestored(t, before, heap)
}

func TestPostOrderPartialString(t *testing.T) {
	tbl := atom.NewTable()
	var heap Heap
	var stack Stack
	heap.PushPartialString(tbl, "ab")
	*heap.At(1) = EmptyListCell()
	before := snapshot(heap)

	it := StackfulPostOrderIter(&heap, &stack, PStrLocCell(0))
	got := withoutBits(drain(it))
	it.Close()

	assert.Equal(t, []Cell{EmptyListCell(), PStrCell(tbl.Intern("ab"))}, got)
	requireRestored(t, before, heap)
}

func TestPostOrderDirectSubtermOfStr(t *testing.T) {
	tbl := atom.NewTable()
	f := tbl.Intern("f")
	a := tbl.Intern("a")
	b := tbl.Intern("b")

	var heap Heap
	var stack Stack
	heap.PushFunctor(f, AtomCell(a, 0), AtomCell(b, 0))

	it := StackfulPostOrderIter(&heap, &stack, StrCell(0))
	defer it.Close()

	c, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, AtomCell(a, 0), c.WithoutBits())

	// The open parent is f at heap index 0; its arguments span
	// cells 1 and 2.
	assert.True(t, it.DirectSubtermOfStr(1))
	assert.True(t, it.DirectSubtermOfStr(2))
	assert.False(t, it.DirectSubtermOfStr(0))
	assert.False(t, it.DirectSubtermOfStr(3))
	assert.Equal(t, 1, it.ParentStackLen())
}

func TestPostOrderPopStackSkipsSubtree(t *testing.T) {
	tbl := atom.NewTable()
	f := tbl.Intern("f")
	g := tbl.Intern("g")
	a := tbl.Intern("a")
	b := tbl.Intern("b")

	// f(g(a), b)
	var heap Heap
	var stack Stack
	heap.Push(AtomCell(f, 2))
	heap.Push(StrCell(3))
	heap.Push(AtomCell(b, 0))
	heap.Push(AtomCell(g, 1))
	heap.Push(AtomCell(a, 0))
	before := snapshot(heap)

	it := StackfulPostOrderIter(&heap, &stack, StrCell(0))

	c, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, AtomCell(a, 0), c.WithoutBits())

	// Discard the open g/1 parent: it is never yielded.
	it.PopStack()

	got := withoutBits(drain(it))
	it.Close()

	assert.Equal(t, []Cell{AtomCell(b, 0), AtomCell(f, 2)}, got)
	requireRestored(t, before, heap)
}

func TestPostOrderBaseAccessor(t *testing.T) {
	var heap Heap
	var stack Stack
	heap.Push(VarCell(0))

	it := StackfulPostOrderIter(&heap, &stack, VarCell(0))
	defer it.Close()

	_, ok := it.Base().(*StackfulPreOrderHeapIter)
	assert.True(t, ok)
}
