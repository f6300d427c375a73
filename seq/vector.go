// Package seq implements append-oriented sequences on a managed heap:
// vectors, which grow by reallocation, and singly linked lists.
//
// As with package hashmap, all reference writes go through the
// context's write barrier and every handle held across an allocation
// is protected.
package seq

import (
	"iter"

	"github.com/pkg/errors"

	"github.com/rogpeppe/heapcoll/object"
)

// MinVectorCapacity is the smallest capacity a vector grows to.
const MinVectorCapacity = 16

// NewVector allocates an empty vector with room for capacity elements.
func NewVector(ctx object.Context, capacity int) (object.Handle, error) {
	if capacity < 0 {
		panic("seq: negative vector capacity")
	}
	storage, err := ctx.Alloc(object.ArrayOf(capacity))
	if err != nil {
		return object.Nil, errors.Wrap(err, "seq: allocating vector storage")
	}
	defer ctx.Protect(storage)()
	v, err := ctx.Alloc(object.Vector)
	if err != nil {
		return object.Nil, errors.Wrap(err, "seq: allocating vector")
	}
	ctx.Store(v, object.VectorStorage, storage)
	return v, nil
}

// VectorLen returns the number of elements in v.
func VectorLen(ctx object.Context, v object.Handle) int {
	return int(ctx.LoadWord(v, object.VectorLength))
}

// VectorCap returns the number of elements v can hold before
// VectorAppend has to reallocate.
func VectorCap(ctx object.Context, v object.Handle) int {
	return ctx.Len(ctx.Load(v, object.VectorStorage))
}

// VectorAt returns the i'th element of v.
// It panics if i is out of range.
func VectorAt(ctx object.Context, v object.Handle, i int) object.Handle {
	if i < 0 || i >= VectorLen(ctx, v) {
		panic("seq.VectorAt called with index out of range")
	}
	return ctx.Load(ctx.Load(v, object.VectorStorage), object.Field(i))
}

// VectorAppend appends value to v and returns the vector holding the
// result. When v is full, the result is a new vector with larger
// storage and v is left as it was; callers must always continue with
// the returned handle.
func VectorAppend(ctx object.Context, v, value object.Handle) (object.Handle, error) {
	n := VectorLen(ctx, v)
	storage := ctx.Load(v, object.VectorStorage)
	if capacity := ctx.Len(storage); n < capacity {
		ctx.Store(storage, object.Field(n), value)
		ctx.StoreWord(v, object.VectorLength, uint64(n+1))
		return v, nil
	}

	defer ctx.Protect(v, value)()
	grown, err := NewVector(ctx, max(2*n, MinVectorCapacity))
	if err != nil {
		return object.Nil, err
	}
	storage = ctx.Load(v, object.VectorStorage)
	to := ctx.Load(grown, object.VectorStorage)
	for i := 0; i < n; i++ {
		ctx.Store(to, object.Field(i), ctx.Load(storage, object.Field(i)))
	}
	ctx.Store(to, object.Field(n), value)
	ctx.StoreWord(grown, object.VectorLength, uint64(n+1))
	return grown, nil
}

// VectorAll returns an iterator over the elements of v in order.
func VectorAll(ctx object.Context, v object.Handle) iter.Seq[object.Handle] {
	return func(yield func(object.Handle) bool) {
		defer ctx.Protect(v)()
		for i := 0; i < VectorLen(ctx, v); i++ {
			if !yield(VectorAt(ctx, v, i)) {
				return
			}
		}
	}
}
