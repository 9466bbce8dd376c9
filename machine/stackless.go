// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package machine

// The stackless iterator walks the same graphs as the stackful one
// without a work list, in the Deutsch-Schorr-Waite manner: the
// reference cell it descends through is overwritten with a link back
// to the previous reversal, and restored on ascent. Structure
// arguments therefore come out right to left. The forwarding bit
// flags a reversed cell; the mark bit flags an open node (structure
// header, list pair, or partial string segment). Both discharge to
// zero on every exit path.
//
// Reversed payloads carry the previous reversal's index plus a role
// saying how to continue once the subtree below is finished.

const (
	roleStructMore = iota // structure slot with unscanned slots to its left
	roleStructLast        // slot directly after its node's first cell
	roleChain             // freestanding reference: the node is the cell itself
	rolePairTail          // tail slot of a list pair; the head is next
	rolePairHead          // head slot of a list pair; finishing it closes the pair
)

const (
	revIndexBits = 53
	revIndexMask = uint64(1)<<revIndexBits - 1
)

func revValue(prev, role int) uint64 {
	return uint64(prev)&revIndexMask | uint64(role)<<revIndexBits
}

func revUnpack(v uint64) (prev, role int) {
	return int(v & revIndexMask), int(v >> revIndexBits)
}

const (
	stDescend = iota
	stFinish
	stPStrNum
	stDone
)

// A StacklessPreOrderHeapIter walks a heap term graph in pre-order
// with structure arguments visited right to left, reversing pointers
// in place instead of keeping a work list. It only walks the heap;
// stack variable cells are yielded as leaves.
type StacklessPreOrderHeapIter struct {
	heap   *Heap
	root   int
	state  int
	cur    int // location descend or finish acts on
	role   int
	target int // partial string view target, while state is stPStrNum
	prev   int // most recent reversed location, -1 for none
	focus  int
	closed bool
}

var _ FocusedHeapIter = (*StacklessPreOrderHeapIter)(nil)

// NewStacklessPreOrderIter appends root to the heap and returns an
// iterator over it.
func NewStacklessPreOrderIter(heap *Heap, root Cell) *StacklessPreOrderHeapIter {
	r := heap.Len()
	heap.Push(root)
	return &StacklessPreOrderHeapIter{
		heap:  heap,
		root:  r,
		cur:   r,
		role:  roleChain,
		prev:  -1,
		focus: r,
	}
}

// Focus returns the location of the most recently yielded cell.
func (it *StacklessPreOrderHeapIter) Focus() IterStackLoc {
	return IterableLoc(OnHeap, it.focus)
}

// Close restores every reversed cell and open-node mark by running
// the remaining walk without yielding, then pops the root holder.
func (it *StacklessPreOrderHeapIter) Close() {
	if it.closed {
		return
	}
	for {
		if _, ok := it.Next(); !ok {
			break
		}
	}
	it.closed = true
	it.heap.Pop()
}

// Next returns the next cell of the walk.
func (it *StacklessPreOrderHeapIter) Next() (Cell, bool) {
	for {
		switch it.state {
		case stDone:
			return 0, false

		case stDescend:
			if c, ok := it.descend(); ok {
				return c, true
			}

		case stFinish:
			it.finish(it.cur, it.role)

		case stPStrNum:
			// The numeric offset of a partial string view is
			// inline in the next cell; yield it before the
			// segment chain.
			loc := it.cur
			it.focus = loc + 1
			c := *it.heap.At(loc + 1)
			it.state = stDescend
			it.cur = it.target
			it.role = roleChain
			return c, true
		}
	}
}

// reverse overwrites the reference cell at loc with a link to the
// previous reversal, keeping its tag so the cell can be rebuilt on
// ascent. The first reversal links to itself, standing for the
// bottom of the chain.
func (it *StacklessPreOrderHeapIter) reverse(loc, role int) {
	prev := it.prev
	if prev < 0 {
		prev = loc
	}
	rc := NewCell(it.heap.At(loc).Tag(), revValue(prev, role))
	rc.SetForwarding(true)
	*it.heap.At(loc) = rc
	it.prev = loc
}

// descend enters the cell at it.cur. It returns a cell to yield, or
// false after a silent step (a variable or structure reference moves
// the walk without emitting anything).
func (it *StacklessPreOrderHeapIter) descend() (Cell, bool) {
	cur, role := it.cur, it.role
	c := *it.heap.At(cur)

	switch c.Tag() {
	case TagVar, TagAttrVar, TagStr, TagLis, TagPStrLoc, TagPStrOffset:
		t := int(c.Value())
		if t == cur || it.heap.At(t).Mark() || it.heap.At(t).Forwarding() {
			// Back edge into the active path: yield the
			// reference itself as the cycle sentinel.
			s := c
			s.SetForwarding(true)
			it.focus = cur
			it.state = stFinish
			return s, true
		}
		it.reverse(cur, role)
		switch c.Tag() {
		case TagLis:
			it.heap.At(t).SetMark(true)
			it.focus = cur
			it.state = stDescend
			it.cur = t + 1
			it.role = rolePairTail
			return c, true
		case TagPStrOffset:
			it.focus = cur
			it.state = stPStrNum
			it.target = t
			return c, true
		default:
			it.cur = t
			it.role = roleChain
			return 0, false
		}

	case TagAtom:
		if n := c.Arity(); n > 0 {
			it.heap.At(cur).SetMark(true)
			it.focus = cur
			it.state = stDescend
			it.cur = cur + n
			if n == 1 {
				it.role = roleStructLast
			} else {
				it.role = roleStructMore
			}
			return c, true
		}

	case TagPStr:
		it.heap.At(cur).SetMark(true)
		it.focus = cur
		it.state = stDescend
		it.cur = cur + 1
		it.role = roleStructLast
		return c, true
	}

	it.focus = cur
	it.state = stFinish
	return c, true
}

// finish resumes after the subtree at slot j is complete, acting on
// the slot's role.
func (it *StacklessPreOrderHeapIter) finish(j, role int) {
	switch role {
	case roleChain:
		it.ascend(j)

	case roleStructLast:
		start := j - 1
		it.heap.At(start).SetMark(false)
		it.ascend(start)

	case roleStructMore:
		h := it.findHeader(j)
		it.state = stDescend
		it.cur = j - 1
		if j-1 == h+1 {
			it.role = roleStructLast
		} else {
			it.role = roleStructMore
		}

	case rolePairTail:
		it.state = stDescend
		it.cur = j - 1
		it.role = rolePairHead

	case rolePairHead:
		it.heap.At(j).SetMark(false)
		it.ascend(j)
	}
}

// findHeader locates the open structure header whose argument span
// contains slot j. Cells between the slot and its header are
// unvisited sibling slots and so carry no marks.
func (it *StacklessPreOrderHeapIter) findHeader(j int) int {
	for i := j - 1; ; i-- {
		c := *it.heap.At(i)
		if c.Tag() == TagAtom && c.Mark() && c.Arity() > 0 && i+c.Arity() >= j {
			return i
		}
	}
}

// ascend pops the most recent reversal, rebuilding the reference
// cell to point at the root of the subtree just finished, and keeps
// unwinding until a slot wants another descent or the chain runs
// out.
func (it *StacklessPreOrderHeapIter) ascend(childRoot int) {
	if it.prev < 0 {
		it.state = stDone
		return
	}
	j := it.prev
	rc := *it.heap.At(j)
	prev, role := revUnpack(rc.Value())
	if prev == j {
		it.prev = -1
	} else {
		it.prev = prev
	}
	*it.heap.At(j) = NewCell(rc.Tag(), uint64(childRoot))
	it.finish(j, role)
}
