// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package term reads Prolog terms from text into heap cells.
//
// The accepted syntax is the canonical subset: atoms (plain or
// quoted), integers, variables, compounds f(T1,...,Tn), proper and
// improper lists, and double-quoted strings, which become partial
// string segments. Operator notation is not handled; terms come in
// the functional form the rest of the system prints them in.
package term

import (
	"strconv"
	"unicode"

	"github.com/pkg/errors"

	"github.com/go-prolog/wam/atom"
	"github.com/go-prolog/wam/machine"
)

const maxArity = 1<<12 - 1

// Read parses src as a single term, optionally followed by a period,
// and returns the cell standing for it together with the heap it was
// built on. Occurrences of the same named variable share one heap
// cell; every variable starts out unbound.
func Read(tbl *atom.Table, src string) (machine.Cell, machine.Heap, error) {
	r := &reader{
		src:  []rune(src),
		tbl:  tbl,
		heap: new(machine.Heap),
		vars: make(map[string]machine.Cell),
	}
	c, err := r.term()
	if err != nil {
		return 0, nil, err
	}
	r.skipSpace()
	if r.pos < len(r.src) && r.src[r.pos] == '.' {
		r.pos++
		r.skipSpace()
	}
	if r.pos < len(r.src) {
		return 0, nil, errors.Errorf("trailing input at offset %d", r.pos)
	}
	return c, *r.heap, nil
}

type reader struct {
	src  []rune
	pos  int
	tbl  *atom.Table
	heap *machine.Heap
	vars map[string]machine.Cell
}

func (r *reader) skipSpace() {
	for r.pos < len(r.src) && unicode.IsSpace(r.src[r.pos]) {
		r.pos++
	}
}

func (r *reader) peek() (rune, bool) {
	if r.pos >= len(r.src) {
		return 0, false
	}
	return r.src[r.pos], true
}

// expect consumes ch or fails.
func (r *reader) expect(ch rune) error {
	got, ok := r.peek()
	if !ok {
		return errors.Errorf("unexpected end of input, want %q", ch)
	}
	if got != ch {
		return errors.Errorf("unexpected %q at offset %d, want %q", got, r.pos, ch)
	}
	r.pos++
	return nil
}

func identRune(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

func (r *reader) ident() string {
	start := r.pos
	for r.pos < len(r.src) && identRune(r.src[r.pos]) {
		r.pos++
	}
	return string(r.src[start:r.pos])
}

func (r *reader) term() (machine.Cell, error) {
	r.skipSpace()
	ch, ok := r.peek()
	if !ok {
		return 0, errors.New("unexpected end of input")
	}
	switch {
	case ch == '[':
		return r.list()
	case ch == '"':
		return r.partialString()
	case ch == '\'':
		name, err := r.quotedAtom()
		if err != nil {
			return 0, err
		}
		return r.atomOrCompound(name)
	case unicode.IsDigit(ch):
		return r.integer(false)
	case ch == '-':
		if r.pos+1 < len(r.src) && unicode.IsDigit(r.src[r.pos+1]) {
			r.pos++
			return r.integer(true)
		}
		return 0, errors.Errorf("unexpected %q at offset %d", ch, r.pos)
	case ch == '_' || unicode.IsUpper(ch):
		return r.variable(), nil
	case unicode.IsLower(ch):
		return r.atomOrCompound(r.ident())
	}
	return 0, errors.Errorf("unexpected %q at offset %d", ch, r.pos)
}

// variable returns the cell for a variable occurrence. A bare
// underscore is fresh every time; named variables share one cell per
// name.
func (r *reader) variable() machine.Cell {
	name := r.ident()
	if name != "_" {
		if c, ok := r.vars[name]; ok {
			return c
		}
	}
	p := r.heap.Len()
	r.heap.Push(machine.VarCell(p))
	c := machine.VarCell(p)
	if name != "_" {
		r.vars[name] = c
	}
	return c
}

func (r *reader) integer(neg bool) (machine.Cell, error) {
	start := r.pos
	for r.pos < len(r.src) && unicode.IsDigit(r.src[r.pos]) {
		r.pos++
	}
	n, err := strconv.ParseInt(string(r.src[start:r.pos]), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "integer at offset %d", start)
	}
	if neg {
		n = -n
	}
	if n >= 1<<55 || n < -(1<<55) {
		return 0, errors.Errorf("integer at offset %d does not fit a fixnum", start)
	}
	return machine.FixnumCell(n), nil
}

func (r *reader) atomOrCompound(name string) (machine.Cell, error) {
	if ch, ok := r.peek(); !ok || ch != '(' {
		return machine.AtomCell(r.tbl.Intern(name), 0), nil
	}
	r.pos++
	var args []machine.Cell
	for {
		c, err := r.term()
		if err != nil {
			return 0, err
		}
		args = append(args, c)
		r.skipSpace()
		ch, ok := r.peek()
		if !ok {
			return 0, errors.Errorf("unterminated argument list of %s", name)
		}
		if ch == ',' {
			r.pos++
			continue
		}
		break
	}
	if err := r.expect(')'); err != nil {
		return 0, err
	}
	if len(args) > maxArity {
		return 0, errors.Errorf("%s has %d arguments, more than a header can carry", name, len(args))
	}
	h := r.heap.PushFunctor(r.tbl.Intern(name), args...)
	return machine.StrCell(h), nil
}

func (r *reader) list() (machine.Cell, error) {
	r.pos++ // consume '['
	r.skipSpace()
	if ch, ok := r.peek(); ok && ch == ']' {
		r.pos++
		return machine.EmptyListCell(), nil
	}
	var elems []machine.Cell
	tail := machine.EmptyListCell()
	for {
		c, err := r.term()
		if err != nil {
			return 0, err
		}
		elems = append(elems, c)
		r.skipSpace()
		ch, ok := r.peek()
		if !ok {
			return 0, errors.New("unterminated list")
		}
		if ch == ',' {
			r.pos++
			continue
		}
		if ch == '|' {
			r.pos++
			tail, err = r.term()
			if err != nil {
				return 0, err
			}
			r.skipSpace()
		}
		break
	}
	if err := r.expect(']'); err != nil {
		return 0, err
	}
	for i := len(elems) - 1; i >= 0; i-- {
		l := r.heap.PushList(elems[i], tail)
		tail = machine.ListCell(l)
	}
	return tail, nil
}

func (r *reader) quotedAtom() (string, error) {
	start := r.pos
	r.pos++ // consume opening quote
	var out []rune
	for {
		ch, ok := r.peek()
		if !ok {
			return "", errors.Errorf("unterminated quoted atom at offset %d", start)
		}
		r.pos++
		switch ch {
		case '\'':
			// A doubled quote stands for itself.
			if next, ok := r.peek(); ok && next == '\'' {
				r.pos++
				out = append(out, '\'')
				continue
			}
			return string(out), nil
		case '\\':
			esc, err := r.escape(start)
			if err != nil {
				return "", err
			}
			out = append(out, esc)
		default:
			out = append(out, ch)
		}
	}
}

func (r *reader) partialString() (machine.Cell, error) {
	start := r.pos
	r.pos++ // consume opening quote
	var out []rune
	for {
		ch, ok := r.peek()
		if !ok {
			return 0, errors.Errorf("unterminated string at offset %d", start)
		}
		r.pos++
		switch ch {
		case '"':
			p := r.heap.Push(machine.PStrCell(r.tbl.Intern(string(out))))
			r.heap.Push(machine.EmptyListCell())
			return machine.PStrLocCell(p), nil
		case '\\':
			esc, err := r.escape(start)
			if err != nil {
				return 0, err
			}
			out = append(out, esc)
		default:
			out = append(out, ch)
		}
	}
}

func (r *reader) escape(start int) (rune, error) {
	ch, ok := r.peek()
	if !ok {
		return 0, errors.Errorf("unterminated escape in literal at offset %d", start)
	}
	r.pos++
	switch ch {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case '\\', '\'', '"':
		return ch, nil
	}
	return 0, errors.Errorf("unknown escape \\%c at offset %d", ch, r.pos-1)
}
