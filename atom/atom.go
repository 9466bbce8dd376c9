// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package atom implements the interning table for functor and
// constant names. Atoms are dense indexes into a table, so equality
// is integer equality and a name is stored once no matter how many
// cells mention it.
package atom

// An Atom is an index into a Table.
type Atom uint32

// A Table interns strings as Atoms.
type Table struct {
	names []string
	index map[string]Atom
}

// NewTable returns an empty interning table.
func NewTable() *Table {
	return &Table{index: make(map[string]Atom)}
}

// Intern returns the Atom for s, adding it to the table if necessary.
func (t *Table) Intern(s string) Atom {
	if a, ok := t.index[s]; ok {
		return a
	}
	a := Atom(len(t.names))
	t.names = append(t.names, s)
	t.index[s] = a
	return a
}

// Name returns the string interned as a. It panics if a was not
// returned by Intern on this table.
func (t *Table) Name(a Atom) string {
	return t.names[a]
}

// Len returns the number of interned atoms.
func (t *Table) Len() int {
	return len(t.names)
}
