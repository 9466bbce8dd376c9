// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package machine

import "github.com/go-prolog/wam/atom"

// A Heap is the dynamic array of cells holding term graphs.
type Heap []Cell

// Len returns the number of cells on the heap.
func (h Heap) Len() int {
	return len(h)
}

// At returns a pointer to the cell at index i. Out-of-range indexes
// panic; a cell referring outside the heap is a bug in whatever
// built it.
func (h Heap) At(i int) *Cell {
	return &h[i]
}

// Push appends a cell and returns its index.
func (h *Heap) Push(c Cell) int {
	i := len(*h)
	*h = append(*h, c)
	return i
}

// Pop removes and returns the final cell.
func (h *Heap) Pop() Cell {
	c := (*h)[len(*h)-1]
	*h = (*h)[:len(*h)-1]
	return c
}

// PushFunctor appends a structure header for name with the given
// argument cells and returns the header index. With no arguments the
// pushed cell is a plain constant.
func (h *Heap) PushFunctor(name atom.Atom, args ...Cell) int {
	i := h.Push(AtomCell(name, len(args)))
	for _, a := range args {
		h.Push(a)
	}
	return i
}

// PushList appends a cons cell pair and returns the index of the
// head cell, suitable as the payload of a ListCell.
func (h *Heap) PushList(head, tail Cell) int {
	i := h.Push(head)
	h.Push(tail)
	return i
}

// PushPartialString appends a partial string segment holding s
// followed by an unbound variable continuation. It returns the index
// of the segment cell.
func (h *Heap) PushPartialString(tbl *atom.Table, s string) int {
	i := h.Push(PStrCell(tbl.Intern(s)))
	tail := len(*h)
	h.Push(VarCell(tail))
	return i
}

// AllCellsUnmarked reports whether every cell has its mark and
// forwarding bits clear. It holds for any heap or stack outside an
// active traversal.
func AllCellsUnmarked(cells []Cell) bool {
	for _, c := range cells {
		if c.Mark() || c.Forwarding() {
			return false
		}
	}
	return true
}

// A Stack is the machine stack, indexed by variable offset. Frame
// layout is owned by the control machinery; the traversal iterators
// only read and write cells through At.
type Stack []Cell

// Len returns the number of cells on the stack.
func (s Stack) Len() int {
	return len(s)
}

// At returns a pointer to the cell at offset i.
func (s Stack) At(i int) *Cell {
	return &s[i]
}

// Push appends a cell and returns its offset.
func (s *Stack) Push(c Cell) int {
	i := len(*s)
	*s = append(*s, c)
	return i
}
