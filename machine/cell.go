// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package machine implements the term heap of a WAM-style logic
// engine and the traversal iterators over it. Terms are graphs of
// fixed-width tagged cells; the iterators walk them in pre-order or
// post-order while tolerating sharing and cycles, using two reserved
// bits per cell instead of a side table.
package machine

import (
	"fmt"

	"github.com/go-prolog/wam/atom"
)

// A Tag identifies the kind of a Cell.
type Tag uint8

const (
	// TagVar is an unbound or chained heap variable. A variable
	// whose payload is its own heap index is unbound.
	TagVar Tag = iota
	// TagAttrVar is an attributed variable; it chains like TagVar.
	TagAttrVar
	// TagStackVar is a variable living on the machine stack.
	TagStackVar
	// TagStr is a reference to a structure header.
	TagStr
	// TagLis is a cons cell: head at the payload index, tail one
	// past it.
	TagLis
	// TagPStrLoc is a reference to a partial string segment.
	TagPStrLoc
	// TagPStrOffset is a view into a partial string; the character
	// offset lives in the next heap cell as a fixnum.
	TagPStrOffset
	// TagPStr is an inline partial string segment whose
	// continuation is in the next heap cell.
	TagPStr
	// TagAtom packs an atom table index and an arity. Arity zero
	// is a constant; otherwise the cell is a structure header and
	// the arguments follow it on the heap.
	TagAtom
	// TagFixnum is a small signed integer.
	TagFixnum
	// TagChar is a single character constant.
	TagChar
	// TagEmptyList is the empty list constant.
	TagEmptyList
)

var tagNames = [...]string{
	TagVar:        "Var",
	TagAttrVar:    "AttrVar",
	TagStackVar:   "StackVar",
	TagStr:        "Str",
	TagLis:        "Lis",
	TagPStrLoc:    "PStrLoc",
	TagPStrOffset: "PStrOffset",
	TagPStr:       "PStr",
	TagAtom:       "Atom",
	TagFixnum:     "Fixnum",
	TagChar:       "Char",
	TagEmptyList:  "EmptyList",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// A Cell is one tagged word of the heap or machine stack.
//
// Layout, high to low: 6 tag bits, the forwarding bit, the mark bit,
// and 56 payload bits. The mark and forwarding bits belong to the
// traversal machinery; outside an active traversal they are zero on
// every cell.
type Cell uint64

const (
	cellTagShift      = 58
	cellFwdBit        = Cell(1) << 57
	cellMarkBit       = Cell(1) << 56
	cellValueMask     = Cell(1)<<56 - 1
	atomArityBits     = 12
	atomArityMask     = 1<<atomArityBits - 1
	fixnumPayloadBits = 56
)

// NewCell builds a cell from a tag and a raw payload with both
// metadata bits clear.
func NewCell(t Tag, value uint64) Cell {
	return Cell(t)<<cellTagShift | Cell(value)&cellValueMask
}

// Tag returns the cell's kind.
func (c Cell) Tag() Tag {
	return Tag(c >> cellTagShift)
}

// Value returns the cell's raw payload.
func (c Cell) Value() uint64 {
	return uint64(c & cellValueMask)
}

// Mark reports the cell's mark bit.
func (c Cell) Mark() bool {
	return c&cellMarkBit != 0
}

// SetMark sets or clears the mark bit, leaving tag and payload
// untouched.
func (c *Cell) SetMark(on bool) {
	if on {
		*c |= cellMarkBit
	} else {
		*c &^= cellMarkBit
	}
}

// Forwarding reports the cell's forwarding bit.
func (c Cell) Forwarding() bool {
	return c&cellFwdBit != 0
}

// SetForwarding sets or clears the forwarding bit, leaving tag and
// payload untouched.
func (c *Cell) SetForwarding(on bool) {
	if on {
		*c |= cellFwdBit
	} else {
		*c &^= cellFwdBit
	}
}

// WithoutBits returns a copy of c with mark and forwarding clear.
// Yielded cells may carry traversal bits; comparisons against built
// cells go through this.
func (c Cell) WithoutBits() Cell {
	return c &^ (cellMarkBit | cellFwdBit)
}

// VarCell returns an unbound or chained variable cell referring to
// heap index h.
func VarCell(h int) Cell {
	return NewCell(TagVar, uint64(h))
}

// AttrVarCell returns an attributed variable cell referring to heap
// index h.
func AttrVarCell(h int) Cell {
	return NewCell(TagAttrVar, uint64(h))
}

// StackVarCell returns a variable cell referring to machine stack
// index s.
func StackVarCell(s int) Cell {
	return NewCell(TagStackVar, uint64(s))
}

// StrCell returns a reference to the structure header at heap
// index h.
func StrCell(h int) Cell {
	return NewCell(TagStr, uint64(h))
}

// ListCell returns a cons cell whose head is at heap index h and
// whose tail is at h+1.
func ListCell(h int) Cell {
	return NewCell(TagLis, uint64(h))
}

// PStrLocCell returns a reference to the partial string segment at
// heap index h.
func PStrLocCell(h int) Cell {
	return NewCell(TagPStrLoc, uint64(h))
}

// PStrOffsetCell returns a partial string view of the segment chain
// at heap index h. The character offset is read from the following
// heap cell.
func PStrOffsetCell(h int) Cell {
	return NewCell(TagPStrOffset, uint64(h))
}

// PStrCell returns an inline partial string segment whose text is
// the interned atom a.
func PStrCell(a atom.Atom) Cell {
	return NewCell(TagPStr, uint64(a))
}

// AtomCell returns an atom or structure header cell.
func AtomCell(a atom.Atom, arity int) Cell {
	return NewCell(TagAtom, uint64(a)<<atomArityBits|uint64(arity)&atomArityMask)
}

// FixnumCell returns a small integer cell.
func FixnumCell(n int64) Cell {
	return NewCell(TagFixnum, uint64(n)&uint64(cellValueMask))
}

// CharCell returns a character constant cell.
func CharCell(r rune) Cell {
	return NewCell(TagChar, uint64(r))
}

// EmptyListCell returns the empty list constant.
func EmptyListCell() Cell {
	return NewCell(TagEmptyList, 0)
}

// Atom returns the atom table index of an atom or structure header
// cell.
func (c Cell) Atom() atom.Atom {
	return atom.Atom(c.Value() >> atomArityBits)
}

// Arity returns the arity of an atom or structure header cell.
func (c Cell) Arity() int {
	return int(c.Value() & atomArityMask)
}

// PStrAtom returns the atom holding the text of a partial string
// segment cell.
func (c Cell) PStrAtom() atom.Atom {
	return atom.Atom(c.Value())
}

// Fixnum returns the signed integer payload of a fixnum cell.
func (c Cell) Fixnum() int64 {
	return int64(c.Value()<<(64-fixnumPayloadBits)) >> (64 - fixnumPayloadBits)
}

// Char returns the rune payload of a character cell.
func (c Cell) Char() rune {
	return rune(c.Value())
}

func (c Cell) String() string {
	var s string
	switch c.Tag() {
	case TagAtom:
		s = fmt.Sprintf("Atom(%d/%d)", c.Atom(), c.Arity())
	case TagFixnum:
		s = fmt.Sprintf("Fixnum(%d)", c.Fixnum())
	case TagChar:
		s = fmt.Sprintf("Char(%q)", c.Char())
	case TagEmptyList:
		s = "EmptyList"
	default:
		s = fmt.Sprintf("%v(%d)", c.Tag(), c.Value())
	}
	if c.Mark() {
		s += "+m"
	}
	if c.Forwarding() {
		s += "+f"
	}
	return s
}

// FormatCell renders c using the atom names in tbl. Cells that do
// not mention atoms render as with String, minus the traversal bits.
func FormatCell(c Cell, tbl *atom.Table) string {
	switch c.Tag() {
	case TagAtom:
		if c.Arity() == 0 {
			return tbl.Name(c.Atom())
		}
		return fmt.Sprintf("%s/%d", tbl.Name(c.Atom()), c.Arity())
	case TagPStr:
		return fmt.Sprintf("PStr(%q)", tbl.Name(c.PStrAtom()))
	}
	return c.WithoutBits().String()
}
