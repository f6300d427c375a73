package hashmap

import (
	"iter"

	"github.com/rogpeppe/heapcoll/object"
)

// A Hasher defines a hash function and an equivalence relation over
// keys. If Equal(a, b) is true then Hash must return the same value
// for a and b.
//
// Neither method may allocate, and neither may depend on where an
// object is stored: a collection can move objects between calls.
type Hasher interface {
	Hash(ctx object.Context, key object.Handle) uint32
	Equal(ctx object.Context, a, b object.Handle) bool
}

// Funcs adapts a pair of functions to the [Hasher] interface.
type Funcs struct {
	HashFn  HashFunc
	EqualFn EqualFunc
}

func (f Funcs) Hash(ctx object.Context, key object.Handle) uint32 {
	return f.HashFn(ctx, key)
}

func (f Funcs) Equal(ctx object.Context, a, b object.Handle) bool {
	return f.EqualFn(ctx, a, b)
}

// Map is a heap-resident hash map together with the strategy used
// for its keys. It is a small value; copies refer to the same table.
//
// The zero Map is not usable; obtain one from [Make] or [Of].
type Map[H Hasher] struct {
	handle object.Handle
	hasher H
}

// Make allocates a new map with the given number of buckets
// (see [New]).
func Make[H Hasher](ctx object.Context, hasher H, buckets int) (Map[H], error) {
	m, err := New(ctx, buckets)
	if err != nil {
		return Map[H]{}, err
	}
	return Map[H]{handle: m, hasher: hasher}, nil
}

// Of returns a Map for an existing map object.
func Of[H Hasher](m object.Handle, hasher H) Map[H] {
	return Map[H]{handle: m, hasher: hasher}
}

// Handle returns the map object. Callers that keep a Map across
// allocations must keep this handle reachable.
func (m Map[H]) Handle() object.Handle {
	return m.handle
}

// Len returns the number of entries.
func (m Map[H]) Len(ctx object.Context) int {
	return Size(ctx, m.handle)
}

// Buckets returns the length of the bucket array.
func (m Map[H]) Buckets(ctx object.Context) int {
	return Buckets(ctx, m.handle)
}

func (m Map[H]) FindNode(ctx object.Context, key object.Handle) object.Handle {
	return FindNode(ctx, m.handle, key, m.hasher.Hash, m.hasher.Equal)
}

func (m Map[H]) Find(ctx object.Context, key object.Handle) object.Handle {
	return Find(ctx, m.handle, key, m.hasher.Hash, m.hasher.Equal)
}

func (m Map[H]) Resize(ctx object.Context, size int) error {
	return Resize(ctx, m.handle, m.hasher.Hash, size)
}

func (m Map[H]) Insert(ctx object.Context, key, value object.Handle) error {
	return Insert(ctx, m.handle, key, value, m.hasher.Hash)
}

func (m Map[H]) InsertOrReplace(ctx object.Context, key, value object.Handle) (bool, error) {
	return InsertOrReplace(ctx, m.handle, key, value, m.hasher.Hash, m.hasher.Equal)
}

func (m Map[H]) InsertMaybe(ctx object.Context, key, value object.Handle) (bool, error) {
	return InsertMaybe(ctx, m.handle, key, value, m.hasher.Hash, m.hasher.Equal)
}

func (m Map[H]) Remove(ctx object.Context, key object.Handle) object.Handle {
	return Remove(ctx, m.handle, key, m.hasher.Hash, m.hasher.Equal)
}

// Iterator allocates a cursor over the map (see [NewIterator]).
func (m Map[H]) Iterator(ctx object.Context) (object.Handle, error) {
	return NewIterator(ctx, m.handle)
}

// Verify checks the map's invariants (see [Verify]).
func (m Map[H]) Verify(ctx object.Context) error {
	return Verify(ctx, m.handle, m.hasher.Hash)
}

// All returns an iterator over (key, value) pairs in bucket order.
// Unlike [NewIterator] it allocates nothing. The map is protected
// for the duration of the loop; the loop body must not change it.
func (m Map[H]) All(ctx object.Context) iter.Seq2[object.Handle, object.Handle] {
	return func(yield func(object.Handle, object.Handle) bool) {
		defer ctx.Protect(m.handle)()
		array := ctx.Load(m.handle, object.HashMapArray)
		if array == object.Nil {
			return
		}
		for i, n := 0, ctx.Len(array); i < n; i++ {
			for node := ctx.Load(array, object.Field(i)); node != object.Nil; node = ctx.Load(node, object.TripleThird) {
				if !yield(ctx.Load(node, object.TripleFirst), ctx.Load(node, object.TripleSecond)) {
					return
				}
			}
		}
	}
}
