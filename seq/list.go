package seq

import (
	"iter"

	"github.com/pkg/errors"

	"github.com/rogpeppe/heapcoll/object"
)

// NewList allocates an empty list.
func NewList(ctx object.Context) (object.Handle, error) {
	l, err := ctx.Alloc(object.List)
	if err != nil {
		return object.Nil, errors.Wrap(err, "seq: allocating list")
	}
	return l, nil
}

// ListLen returns the number of elements in l.
func ListLen(ctx object.Context, l object.Handle) int {
	return int(ctx.LoadWord(l, object.ListSize))
}

// ListAppend adds value to the end of l. The list keeps a pointer to
// its last cell, so appending takes constant time.
func ListAppend(ctx object.Context, l, value object.Handle) error {
	defer ctx.Protect(l, value)()
	cell, err := ctx.Alloc(object.Pair)
	if err != nil {
		return errors.Wrap(err, "seq: allocating list cell")
	}
	ctx.Store(cell, object.PairFirst, value)
	if rear := ctx.Load(l, object.ListRear); rear == object.Nil {
		ctx.Store(l, object.ListFront, cell)
	} else {
		ctx.Store(rear, object.PairSecond, cell)
	}
	ctx.Store(l, object.ListRear, cell)
	ctx.StoreWord(l, object.ListSize, ctx.LoadWord(l, object.ListSize)+1)
	return nil
}

// ListAll returns an iterator over the elements of l from front to rear.
func ListAll(ctx object.Context, l object.Handle) iter.Seq[object.Handle] {
	return func(yield func(object.Handle) bool) {
		defer ctx.Protect(l)()
		for c := ctx.Load(l, object.ListFront); c != object.Nil; c = ctx.Load(c, object.PairSecond) {
			if !yield(ctx.Load(c, object.PairFirst)) {
				return
			}
		}
	}
}
