// Package vartab keeps the per-program variable name table. Variables
// are tokenized as a base byte plus their table index, so the table
// order is part of the program's identity: re-tokenizing a line must
// see the same indexes the first pass handed out.
package vartab

import (
	"strings"

	"github.com/atticemu/atbasic/berrors"
)

// Kind matches the type byte the original stores in its variable value
// table.
type Kind byte

const (
	Numeric Kind = 0x00
	Array   Kind = 0x40
	Str     Kind = 0x80
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Array:
		return "array"
	case Str:
		return "string"
	}
	return "unknown"
}

// Max is the number of variables a program may name. Variable token
// bytes only have seven bits of index.
const Max = 128

// A Variable is one name table entry. Name is stored uppercase without
// the $ or ( suffix; Kind tells the two apart.
type Variable struct {
	Name string
	Kind Kind
}

// Display returns the name the way listings show it: string variables
// get their $ back and arrays their opening parenthesis.
func (v Variable) Display() string {
	switch v.Kind {
	case Str:
		return v.Name + "$"
	case Array:
		return v.Name + "("
	}
	return v.Name
}

// Table is an ordered variable name table with index lookup.
type Table struct {
	vars  []Variable
	index map[string]int
}

// New returns an empty table.
func New() *Table {
	return &Table{index: map[string]int{}}
}

// FromVariables rebuilds a table from stored entries, as when loading
// a tokenized file. Entries past the table limit are rejected.
func FromVariables(vars []Variable) (*Table, error) {
	t := New()
	for _, v := range vars {
		if _, err := t.Append(v); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.vars)
}

// At returns the entry at index i.
func (t *Table) At(i int) (Variable, bool) {
	if i < 0 || i >= len(t.vars) {
		return Variable{}, false
	}
	return t.vars[i], true
}

// Lookup finds the index of a variable with the same name and kind.
func (t *Table) Lookup(v Variable) (int, bool) {
	i, ok := t.index[key(v)]
	return i, ok
}

// Append adds a new entry and returns its index. The same name with
// the same kind is never stored twice; Append returns the existing
// index in that case.
func (t *Table) Append(v Variable) (int, error) {
	v.Name = strings.ToUpper(v.Name)
	if i, ok := t.index[key(v)]; ok {
		return i, nil
	}
	if len(t.vars) >= Max {
		return 0, berrors.Newf(berrors.TooManyVariables, "variable table is full, %s does not fit", v.Display())
	}
	t.vars = append(t.vars, v)
	i := len(t.vars) - 1
	t.index[key(v)] = i
	return i, nil
}

// Variables returns a copy of the entries in table order.
func (t *Table) Variables() []Variable {
	out := make([]Variable, len(t.vars))
	copy(out, t.vars)
	return out
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	c := New()
	for _, v := range t.vars {
		c.vars = append(c.vars, v)
		c.index[key(v)] = len(c.vars) - 1
	}
	return c
}

// Clear drops every entry.
func (t *Table) Clear() {
	t.vars = nil
	t.index = map[string]int{}
}

func key(v Variable) string {
	return strings.ToUpper(v.Display())
}
