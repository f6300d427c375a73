// Package symtab implements a table of interned symbols: byte strings
// for which the table hands out one canonical heap object per distinct
// content.
package symtab

import (
	"github.com/pkg/errors"

	"github.com/rogpeppe/heapcoll/hashers"
	"github.com/rogpeppe/heapcoll/hashmap"
	"github.com/rogpeppe/heapcoll/object"
	"github.com/rogpeppe/heapcoll/seq"
)

// Table maps symbol names to their canonical byte objects.
// Each entry has the canonical object as both key and value.
type Table struct {
	m hashmap.Map[hashers.Bytes]
}

// New allocates an empty table sized for about n symbols.
func New(ctx object.Context, n int) (*Table, error) {
	m, err := hashmap.Make(ctx, hashers.Bytes{}, n)
	if err != nil {
		return nil, errors.Wrap(err, "symtab: allocating table")
	}
	return &Table{m: m}, nil
}

// Open returns a Table for a map created by an earlier call to New.
func Open(m object.Handle) *Table {
	return &Table{m: hashmap.Of(m, hashers.Bytes{})}
}

// Handle returns the table's map object. The caller must keep it
// reachable for as long as the table is in use.
func (t *Table) Handle() object.Handle {
	return t.m.Handle()
}

// Len returns the number of interned symbols.
func (t *Table) Len(ctx object.Context) int {
	return t.m.Len(ctx)
}

// Intern returns the canonical symbol for name, adding one if there
// is none yet.
func (t *Table) Intern(ctx object.Context, name []byte) (object.Handle, error) {
	probe, err := ctx.AllocBytes(name)
	if err != nil {
		return object.Nil, errors.Wrapf(err, "symtab: interning %q", name)
	}
	if sym := t.m.Find(ctx, probe); sym != object.Nil {
		return sym, nil
	}
	if _, err := t.m.InsertMaybe(ctx, probe, probe); err != nil {
		return object.Nil, errors.Wrapf(err, "symtab: interning %q", name)
	}
	return probe, nil
}

// Lookup returns the canonical symbol for name, or Nil if name has
// not been interned.
func (t *Table) Lookup(ctx object.Context, name []byte) (object.Handle, error) {
	probe, err := ctx.AllocBytes(name)
	if err != nil {
		return object.Nil, errors.Wrapf(err, "symtab: looking up %q", name)
	}
	return t.m.Find(ctx, probe), nil
}

// Remove drops the symbol for name from the table and returns it,
// or returns Nil if there was none.
func (t *Table) Remove(ctx object.Context, name []byte) (object.Handle, error) {
	probe, err := ctx.AllocBytes(name)
	if err != nil {
		return object.Nil, errors.Wrapf(err, "symtab: removing %q", name)
	}
	return t.m.Remove(ctx, probe), nil
}

// Verify checks the invariants of the underlying map.
func (t *Table) Verify(ctx object.Context) error {
	return t.m.Verify(ctx)
}

// Symbols returns a new list holding the canonical symbols in table
// order.
func (t *Table) Symbols(ctx object.Context) (object.Handle, error) {
	l, err := seq.NewList(ctx)
	if err != nil {
		return object.Nil, errors.Wrap(err, "symtab: listing symbols")
	}
	defer ctx.Protect(l)()
	it, err := t.m.Iterator(ctx)
	if err != nil {
		return object.Nil, errors.Wrap(err, "symtab: listing symbols")
	}
	defer ctx.Protect(it)()
	for n := hashmap.Next(ctx, it); n != object.Nil; n = hashmap.Next(ctx, it) {
		if err := seq.ListAppend(ctx, l, hashmap.Value(ctx, n)); err != nil {
			return object.Nil, errors.Wrap(err, "symtab: listing symbols")
		}
	}
	return l, nil
}
