// Package hashmap implements a chained hash table whose nodes and
// bucket array are objects on a managed heap.
//
// The functions in this package operate on heap handles and take the
// hash and equality functions at each call site, so a single table
// layout serves every key type. [Map] bundles a table handle with a
// [Hasher] for callers that always use the same strategy.
//
// Every reference write goes through [object.Context.Store]. Every
// handle held across an allocation is protected, and every node stays
// reachable from the map while hash or equality functions run, so a
// collection may happen at any allocation without losing entries.
//
// There is no internal locking: a map must only be used by one
// mutator at a time.
package hashmap

import (
	"github.com/pkg/errors"

	"github.com/rogpeppe/heapcoll/object"
)

// DefaultBuckets is the bucket array length allocated by the first
// insertion into a map created with no buckets.
const DefaultBuckets = 16

// HashFunc returns the hash of a key.
type HashFunc func(ctx object.Context, key object.Handle) uint32

// EqualFunc reports whether two keys are equivalent. Keys that are
// equivalent must have the same hash.
type EqualFunc func(ctx object.Context, a, b object.Handle) bool

// New allocates an empty map with the given number of buckets.
// With zero buckets, the bucket array is allocated by the first
// insertion.
func New(ctx object.Context, buckets int) (object.Handle, error) {
	if buckets < 0 {
		panic("hashmap: negative bucket count")
	}
	m, err := ctx.Alloc(object.HashMap)
	if err != nil {
		return object.Nil, errors.Wrap(err, "hashmap: allocating map")
	}
	if buckets == 0 {
		return m, nil
	}
	defer ctx.Protect(m)()
	array, err := ctx.Alloc(object.ArrayOf(buckets))
	if err != nil {
		return object.Nil, errors.Wrap(err, "hashmap: allocating bucket array")
	}
	ctx.Store(m, object.HashMapArray, array)
	return m, nil
}

// Size returns the number of entries in the map.
func Size(ctx object.Context, m object.Handle) int {
	return int(ctx.LoadWord(m, object.HashMapSize))
}

// Buckets returns the length of the map's bucket array,
// or zero if it has none yet.
func Buckets(ctx object.Context, m object.Handle) int {
	array := ctx.Load(m, object.HashMapArray)
	if array == object.Nil {
		return 0
	}
	return ctx.Len(array)
}

func bucket(h uint32, n int) object.Field {
	return object.Field(h % uint32(n))
}

// FindNode returns the node holding key, or Nil if there is none.
func FindNode(ctx object.Context, m, key object.Handle, hash HashFunc, equal EqualFunc) object.Handle {
	array := ctx.Load(m, object.HashMapArray)
	if array == object.Nil {
		return object.Nil
	}
	i := bucket(hash(ctx, key), ctx.Len(array))
	for n := ctx.Load(array, i); n != object.Nil; n = ctx.Load(n, object.TripleThird) {
		if equal(ctx, key, ctx.Load(n, object.TripleFirst)) {
			return n
		}
	}
	return object.Nil
}

// Find returns the value associated with key, or Nil if there is none.
func Find(ctx object.Context, m, key object.Handle, hash HashFunc, equal EqualFunc) object.Handle {
	if n := FindNode(ctx, m, key, hash, equal); n != object.Nil {
		return ctx.Load(n, object.TripleSecond)
	}
	return object.Nil
}

// Resize replaces the map's bucket array with one of length size and
// relinks every node into it. Nodes are moved, not copied. The hash of
// each key is recomputed.
func Resize(ctx object.Context, m object.Handle, hash HashFunc, size int) error {
	if size < 1 {
		panic("hashmap: resize to non-positive bucket count")
	}
	defer ctx.Protect(m)()
	array, err := ctx.Alloc(object.ArrayOf(size))
	if err != nil {
		return errors.Wrapf(err, "hashmap: allocating %d buckets", size)
	}
	defer ctx.Protect(array)()

	old := ctx.Load(m, object.HashMapArray)
	if old != object.Nil {
		for i, n := 0, ctx.Len(old); i < n; i++ {
			from := object.Field(i)
			for node := ctx.Load(old, from); node != object.Nil; node = ctx.Load(old, from) {
				// Hash while the node is still linked from the old array.
				to := bucket(hash(ctx, ctx.Load(node, object.TripleFirst)), size)
				ctx.Store(old, from, ctx.Load(node, object.TripleThird))
				ctx.Store(node, object.TripleThird, ctx.Load(array, to))
				ctx.Store(array, to, node)
			}
		}
	}
	ctx.Store(m, object.HashMapArray, array)
	return nil
}

// Insert adds a new entry for key at the head of its chain without
// looking for an existing one: inserting the same key twice yields two
// entries. When the number of entries exceeds the number of buckets,
// the bucket array is doubled.
//
// If the node is linked but the following resize fails, the entry is
// present and the error is returned.
func Insert(ctx object.Context, m, key, value object.Handle, hash HashFunc) error {
	defer ctx.Protect(m, key, value)()
	if ctx.Load(m, object.HashMapArray) == object.Nil {
		if err := Resize(ctx, m, hash, DefaultBuckets); err != nil {
			return err
		}
	}
	// The hash is taken before allocating so that no callback runs
	// while the new node is unreachable.
	h := hash(ctx, key)
	node, err := ctx.Alloc(object.Triple)
	if err != nil {
		return errors.Wrap(err, "hashmap: allocating node")
	}
	array := ctx.Load(m, object.HashMapArray)
	length := ctx.Len(array)
	i := bucket(h, length)
	ctx.Store(node, object.TripleFirst, key)
	ctx.Store(node, object.TripleSecond, value)
	ctx.Store(node, object.TripleThird, ctx.Load(array, i))
	ctx.Store(array, i, node)

	size := ctx.LoadWord(m, object.HashMapSize) + 1
	ctx.StoreWord(m, object.HashMapSize, size)
	if size > uint64(length) {
		return Resize(ctx, m, hash, 2*length)
	}
	return nil
}

// InsertOrReplace sets the value for key. If an entry exists, its
// value is overwritten and InsertOrReplace returns false; otherwise a
// new entry is inserted and it returns true.
func InsertOrReplace(ctx object.Context, m, key, value object.Handle, hash HashFunc, equal EqualFunc) (bool, error) {
	if n := FindNode(ctx, m, key, hash, equal); n != object.Nil {
		ctx.Store(n, object.TripleSecond, value)
		return false, nil
	}
	if err := Insert(ctx, m, key, value, hash); err != nil {
		return false, err
	}
	return true, nil
}

// InsertMaybe inserts an entry for key only if there is none,
// reporting whether it did. An existing entry is left untouched.
func InsertMaybe(ctx object.Context, m, key, value object.Handle, hash HashFunc, equal EqualFunc) (bool, error) {
	if FindNode(ctx, m, key, hash, equal) != object.Nil {
		return false, nil
	}
	if err := Insert(ctx, m, key, value, hash); err != nil {
		return false, err
	}
	return true, nil
}

// Remove unlinks the entry for key and returns its value, or returns
// Nil and leaves the map unchanged if there is no such entry.
// The bucket array never shrinks.
func Remove(ctx object.Context, m, key object.Handle, hash HashFunc, equal EqualFunc) object.Handle {
	array := ctx.Load(m, object.HashMapArray)
	if array == object.Nil {
		return object.Nil
	}
	i := bucket(hash(ctx, key), ctx.Len(array))
	prev := object.Nil
	for n := ctx.Load(array, i); n != object.Nil; n = ctx.Load(n, object.TripleThird) {
		if !equal(ctx, key, ctx.Load(n, object.TripleFirst)) {
			prev = n
			continue
		}
		next := ctx.Load(n, object.TripleThird)
		if prev == object.Nil {
			ctx.Store(array, i, next)
		} else {
			ctx.Store(prev, object.TripleThird, next)
		}
		ctx.StoreWord(m, object.HashMapSize, ctx.LoadWord(m, object.HashMapSize)-1)
		return ctx.Load(n, object.TripleSecond)
	}
	return object.Nil
}
