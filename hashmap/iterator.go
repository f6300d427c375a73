package hashmap

import (
	"github.com/pkg/errors"

	"github.com/rogpeppe/heapcoll/object"
)

// NewIterator allocates a cursor over m, positioned at its first
// non-empty bucket. Use [Next] to step through the nodes.
//
// Iteration visits buckets in index order and each chain from its head.
// The result is undefined if the map is changed while the iterator is
// in use.
func NewIterator(ctx object.Context, m object.Handle) (object.Handle, error) {
	defer ctx.Protect(m)()
	it, err := ctx.Alloc(object.Iterator)
	if err != nil {
		return object.Nil, errors.Wrap(err, "hashmap: allocating iterator")
	}
	ctx.Store(it, object.IteratorMap, m)
	ctx.StoreWord(it, object.IteratorIndex, uint64(scan(ctx, m, 0)))
	return it, nil
}

// Next advances the iterator and returns the next node, or Nil when
// there are no more. Once Next has returned Nil it always returns Nil.
func Next(ctx object.Context, it object.Handle) object.Handle {
	if n := ctx.Load(it, object.IteratorNode); n != object.Nil {
		if next := ctx.Load(n, object.TripleThird); next != object.Nil {
			ctx.Store(it, object.IteratorNode, next)
			return next
		}
	}
	m := ctx.Load(it, object.IteratorMap)
	i := scan(ctx, m, int(ctx.LoadWord(it, object.IteratorIndex)))
	array := ctx.Load(m, object.HashMapArray)
	if array == object.Nil || i >= ctx.Len(array) {
		ctx.Store(it, object.IteratorNode, object.Nil)
		ctx.StoreWord(it, object.IteratorIndex, uint64(i))
		return object.Nil
	}
	n := ctx.Load(array, object.Field(i))
	ctx.Store(it, object.IteratorNode, n)
	ctx.StoreWord(it, object.IteratorIndex, uint64(i+1))
	return n
}

// scan returns the index of the first non-empty bucket of m at or
// after i, or the array length if there is none.
func scan(ctx object.Context, m object.Handle, i int) int {
	array := ctx.Load(m, object.HashMapArray)
	if array == object.Nil {
		return 0
	}
	n := ctx.Len(array)
	for ; i < n; i++ {
		if ctx.Load(array, object.Field(i)) != object.Nil {
			return i
		}
	}
	return n
}

// Key returns the key held by node n.
func Key(ctx object.Context, n object.Handle) object.Handle {
	return ctx.Load(n, object.TripleFirst)
}

// Value returns the value held by node n.
func Value(ctx object.Context, n object.Handle) object.Handle {
	return ctx.Load(n, object.TripleSecond)
}
