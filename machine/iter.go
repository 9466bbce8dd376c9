// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package machine

// An Origin says whether a location lives on the heap or on the
// machine stack.
type Origin uint8

const (
	OnHeap Origin = iota
	OnStack
)

// An IterStackLoc is one entry of the pre-order iterator's work
// list: an origin, an index, and a traversal tag, packed into one
// word. The tags drive the mark discipline: an iterable entry visits
// and expands its cell, a marked entry is the housekeeping half of a
// visit, and a pending-mark entry defers expansion of a sibling
// argument so that arguments come out left to right.
type IterStackLoc uint64

const (
	locOriginBit = IterStackLoc(1) << 63
	locTagShift  = 61
	locTagMask   = IterStackLoc(3) << locTagShift
	locIndexMask = IterStackLoc(1)<<locTagShift - 1

	locTagIterable    = IterStackLoc(0) << locTagShift
	locTagMarked      = IterStackLoc(1) << locTagShift
	locTagPendingMark = IterStackLoc(2) << locTagShift
)

func newLoc(tag IterStackLoc, org Origin, i int) IterStackLoc {
	l := tag | IterStackLoc(i)&locIndexMask
	if org == OnStack {
		l |= locOriginBit
	}
	return l
}

// IterableLoc returns a visit-and-expand entry for the given
// location.
func IterableLoc(org Origin, i int) IterStackLoc {
	return newLoc(locTagIterable, org, i)
}

// MarkedLoc returns the housekeeping entry paired with an iterable
// push of the same location.
func MarkedLoc(org Origin, i int) IterStackLoc {
	return newLoc(locTagMarked, org, i)
}

// PendingMarkLoc returns a deferred-expansion entry for an argument
// location.
func PendingMarkLoc(org Origin, i int) IterStackLoc {
	return newLoc(locTagPendingMark, org, i)
}

// Index returns the heap or stack index of the location.
func (l IterStackLoc) Index() int {
	return int(l & locIndexMask)
}

// Origin returns where the location points.
func (l IterStackLoc) Origin() Origin {
	if l&locOriginBit != 0 {
		return OnStack
	}
	return OnHeap
}

// IsMarked reports whether this is a housekeeping entry.
func (l IterStackLoc) IsMarked() bool {
	return l&locTagMask == locTagMarked
}

// IsPendingMark reports whether this is a deferred-expansion entry.
func (l IterStackLoc) IsPendingMark() bool {
	return l&locTagMask == locTagPendingMark
}

// A Ref names a cell location for consumers outside the traversal
// machinery.
type Ref struct {
	Origin Origin
	Index  int
}

// AsRef strips the traversal tag from a location.
func (l IterStackLoc) AsRef() Ref {
	return Ref{l.Origin(), l.Index()}
}

// A FocusedHeapIter walks a term graph cell by cell. Next returns
// the next cell in traversal order, or false when the walk is done.
// Focus returns the location of the most recently yielded cell.
// Close restores every metadata bit the walk touched and removes the
// root holder cell; it is idempotent and must run on every exit
// path, normally via defer.
//
// A yielded cell with its forwarding bit set is a cycle sentinel:
// the location refers back into the active traversal path, and the
// consumer must treat the cell as a leaf.
type FocusedHeapIter interface {
	Next() (Cell, bool)
	Focus() IterStackLoc
	Close()
}

// A StackfulPreOrderHeapIter walks a term graph in pre-order, with
// structure arguments visited left to right, using an explicit work
// list of locations. Constructing one appends the root cell to the
// heap as a temporary holder; the iterator borrows the heap and the
// machine stack exclusively until Close.
type StackfulPreOrderHeapIter struct {
	heap   *Heap
	stack  *Stack
	work   []IterStackLoc
	h      IterStackLoc
	closed bool
}

var _ FocusedHeapIter = (*StackfulPreOrderHeapIter)(nil)

// NewStackfulPreOrderIter appends root to the heap and returns an
// iterator over it.
func NewStackfulPreOrderIter(heap *Heap, stack *Stack, root Cell) *StackfulPreOrderHeapIter {
	h := IterableLoc(OnHeap, heap.Len())
	heap.Push(root)
	return &StackfulPreOrderHeapIter{
		heap:  heap,
		stack: stack,
		work:  []IterStackLoc{h},
		h:     h,
	}
}

// Close clears the mark and forwarding bits of every location still
// on the work list and pops the root holder cell.
func (it *StackfulPreOrderHeapIter) Close() {
	if it.closed {
		return
	}
	it.closed = true
	for len(it.work) > 0 {
		c := it.cell(it.pop())
		c.SetForwarding(false)
		c.SetMark(false)
	}
	it.heap.Pop()
}

// Focus returns the location of the most recently yielded cell.
func (it *StackfulPreOrderHeapIter) Focus() IterStackLoc {
	return it.h
}

func (it *StackfulPreOrderHeapIter) pop() IterStackLoc {
	l := it.work[len(it.work)-1]
	it.work = it.work[:len(it.work)-1]
	return l
}

func (it *StackfulPreOrderHeapIter) push(l IterStackLoc) {
	it.work = append(it.work, l)
}

// PushStack pushes a raw entry onto the work list.
func (it *StackfulPreOrderHeapIter) PushStack(l IterStackLoc) {
	it.push(l)
}

// StackLen returns the current work list depth.
func (it *StackfulPreOrderHeapIter) StackLen() int {
	return len(it.work)
}

func (it *StackfulPreOrderHeapIter) cell(l IterStackLoc) *Cell {
	if l.Origin() == OnStack {
		return it.stack.At(l.Index())
	}
	return it.heap.At(l.Index())
}

// ReadCell returns the cell at l without disturbing it.
func (it *StackfulPreOrderHeapIter) ReadCell(l IterStackLoc) Cell {
	return *it.cell(l)
}

// forwardIfReferentMarked arms the cycle sentinel: if the cell at l
// refers to a location whose mark bit is already set, the referent
// is on the active path, and the cell's forwarding bit records that
// its next pop must yield it as a back edge.
func (it *StackfulPreOrderHeapIter) forwardIfReferentMarked(l IterStackLoc) {
	c := *it.cell(l)
	switch c.Tag() {
	case TagStr, TagLis, TagVar, TagAttrVar, TagPStrLoc:
		if it.heap.At(int(c.Value())).Mark() {
			it.cell(l).SetForwarding(true)
		}
	case TagStackVar:
		if it.stack.At(int(c.Value())).Mark() {
			it.cell(l).SetForwarding(true)
		}
	}
}

// pushIfUnmarked marks the cell at l and pushes an iterable entry
// for it, unless a visit to l is already live on the work list.
func (it *StackfulPreOrderHeapIter) pushIfUnmarked(l IterStackLoc) {
	c := it.cell(l)
	if !c.Mark() {
		c.SetMark(true)
		it.push(IterableLoc(l.Origin(), l.Index()))
	}
}

// Next returns the next cell of the pre-order walk.
func (it *StackfulPreOrderHeapIter) Next() (Cell, bool) {
	return it.follow()
}

func (it *StackfulPreOrderHeapIter) follow() (Cell, bool) {
	for len(it.work) > 0 {
		h := it.pop()

		if h.IsPendingMark() {
			it.pushIfUnmarked(h)
			it.push(MarkedLoc(h.Origin(), h.Index()))
			it.forwardIfReferentMarked(h)
			continue
		}

		it.h = h
		readableMarked := h.IsMarked()
		cp := it.cell(h)

		if cp.Forwarding() {
			c := *cp
			cp.SetForwarding(false)
			return c, true
		}
		if cp.Mark() && !readableMarked {
			cp.SetMark(false)
			continue
		}

		c := *cp
		switch c.Tag() {
		case TagStr, TagPStrLoc:
			vh := int(c.Value())
			it.pushIfUnmarked(IterableLoc(OnHeap, vh))
			it.push(MarkedLoc(OnHeap, vh))

		case TagLis:
			vh := int(c.Value())
			l := IterableLoc(OnHeap, vh)
			it.pushIfUnmarked(l)
			it.push(PendingMarkLoc(OnHeap, vh+1))
			it.push(MarkedLoc(OnHeap, vh))
			it.forwardIfReferentMarked(l)
			return it.ReadCell(h), true

		case TagVar, TagAttrVar:
			vh := int(c.Value())
			l := IterableLoc(OnHeap, vh)
			it.pushIfUnmarked(l)
			it.push(MarkedLoc(OnHeap, vh))
			it.forwardIfReferentMarked(l)

		case TagStackVar:
			vs := int(c.Value())
			l := IterableLoc(OnStack, vs)
			it.pushIfUnmarked(l)
			it.push(MarkedLoc(OnStack, vs))
			it.forwardIfReferentMarked(l)

		case TagPStrOffset:
			off := int(c.Value())
			it.pushIfUnmarked(IterableLoc(OnHeap, off))
			it.push(IterableLoc(OnHeap, h.Index()+1))
			return it.ReadCell(h), true

		case TagPStr:
			tail := IterableLoc(OnHeap, h.Index()+1)
			it.pushIfUnmarked(IterableLoc(OnHeap, h.Index()))
			it.push(tail)
			it.forwardIfReferentMarked(tail)
			return it.ReadCell(h), true

		case TagAtom:
			l, arity := h.Index(), c.Arity()
			for k := l + arity; k >= l+2; k-- {
				it.push(PendingMarkLoc(OnHeap, k))
			}
			if arity > 0 {
				first := IterableLoc(OnHeap, l+1)
				it.pushIfUnmarked(first)
				it.push(MarkedLoc(OnHeap, l+1))
				it.forwardIfReferentMarked(first)
			}
			return it.ReadCell(h), true

		default:
			return c, true
		}
	}
	return 0, false
}

// StackLast peeks the entry Next would act on, skipping entries that
// only clear marks, without popping anything.
func (it *StackfulPreOrderHeapIter) StackLast() (IterStackLoc, bool) {
	for i := len(it.work) - 1; i >= 0; i-- {
		h := it.work[i]
		readableMarked := h.IsMarked()
		c := it.ReadCell(h)
		if c.Forwarding() {
			return h, true
		}
		if c.Mark() && !readableMarked {
			continue
		}
		return h, true
	}
	return 0, false
}

// PopStack force-pops one live entry, clearing marks on the way, and
// returns its cell. It is the skip primitive used by the post-order
// adapter to discard a subtree.
func (it *StackfulPreOrderHeapIter) PopStack() (Cell, bool) {
	for len(it.work) > 0 {
		h := it.pop()
		readableMarked := h.IsMarked()
		it.h = h
		cp := it.cell(h)
		if cp.Forwarding() {
			cp.SetForwarding(false)
		} else if cp.Mark() && !readableMarked {
			cp.SetMark(false)
			continue
		}
		return *cp, true
	}
	return 0, false
}
