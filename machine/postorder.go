// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package machine

// A parentFrame delays a compound cell until its children have been
// yielded.
type parentFrame struct {
	children int
	cell     Cell
	focus    IterStackLoc
}

// A PostOrderIterator reorders any pre-order iterator with a focus
// into post-order: each structure, list pair, or partial string
// parent is held on a frame stack and yielded once its declared
// number of children has passed through. Leaves pass straight
// through, and so do cycle sentinels, except that a sentinel whose
// tag opens a frame (a list pair or partial string view) is held
// like any other parent.
type PostOrderIterator struct {
	base      FocusedHeapIter
	baseValid bool
	focus     IterStackLoc
	parents   []parentFrame
}

var _ FocusedHeapIter = (*PostOrderIterator)(nil)

// NewPostOrderIter wraps base, taking ownership of it. Closing the
// adapter closes base.
func NewPostOrderIter(base FocusedHeapIter) *PostOrderIterator {
	return &PostOrderIterator{
		base:      base,
		baseValid: true,
		focus:     IterableLoc(OnHeap, 0),
	}
}

// StackfulPostOrderIter builds a post-order iterator over the
// stackful pre-order walk, so children come out left to right.
func StackfulPostOrderIter(heap *Heap, stack *Stack, root Cell) *PostOrderIterator {
	return NewPostOrderIter(NewStackfulPreOrderIter(heap, stack, root))
}

// StacklessPostOrderIter builds a post-order iterator over the
// pointer-reversal walk, so children come out right to left.
func StacklessPostOrderIter(heap *Heap, root Cell) *PostOrderIterator {
	return NewPostOrderIter(NewStacklessPreOrderIter(heap, root))
}

// Base exposes the wrapped iterator.
func (it *PostOrderIterator) Base() FocusedHeapIter {
	return it.base
}

// Close closes the wrapped iterator.
func (it *PostOrderIterator) Close() {
	it.base.Close()
}

// Focus returns the location of the most recently yielded cell.
func (it *PostOrderIterator) Focus() IterStackLoc {
	return it.focus
}

// Next returns the next cell in post-order.
func (it *PostOrderIterator) Next() (Cell, bool) {
	for {
		if n := len(it.parents); n > 0 {
			f := it.parents[n-1]
			if f.children == 0 {
				it.parents = it.parents[:n-1]
				it.focus = f.focus
				return f.cell, true
			}
			it.parents[n-1].children--
		}

		if it.baseValid {
			if c, ok := it.base.Next(); ok {
				focus := it.base.Focus()
				switch c.Tag() {
				case TagAtom:
					it.parents = append(it.parents, parentFrame{c.Arity(), c, focus})
				case TagLis:
					it.parents = append(it.parents, parentFrame{2, c, focus})
				case TagPStr, TagPStrOffset:
					it.parents = append(it.parents, parentFrame{1, c, focus})
				default:
					it.focus = focus
					return c, true
				}
				continue
			}
			it.baseValid = false
		}

		if len(it.parents) == 0 {
			return 0, false
		}
	}
}

// DirectSubtermOfStr reports whether heap index idx lies within the
// argument span of the currently open structure parent. Consumers
// use it to decide ownership of cells stored inline with a
// structure.
func (it *PostOrderIterator) DirectSubtermOfStr(idx int) bool {
	if n := len(it.parents); n > 0 {
		f := it.parents[n-1]
		if f.cell.Tag() == TagAtom {
			focus := f.focus.Index()
			return focus < idx && idx <= focus+f.cell.Arity()
		}
	}
	return false
}

// ParentStackLen returns the number of open parent frames.
func (it *PostOrderIterator) ParentStackLen() int {
	return len(it.parents)
}

// stackPopper is satisfied by pre-order iterators that can discard
// one live work list entry.
type stackPopper interface {
	PopStack() (Cell, bool)
}

// PopStack discards the currently open parent together with its
// remaining children, skipping that whole subtree. It is only
// meaningful over a base iterator with an explicit work list.
func (it *PostOrderIterator) PopStack() {
	n := len(it.parents)
	if n == 0 {
		return
	}
	if p, ok := it.base.(stackPopper); ok {
		for i := 0; i < it.parents[n-1].children; i++ {
			p.PopStack()
		}
	}
	it.parents = it.parents[:n-1]
}
