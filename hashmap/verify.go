package hashmap

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/rogpeppe/heapcoll/object"
)

// Verify checks that the recorded size of m matches the number of
// reachable nodes and that each node is linked from the bucket its
// key hashes to. It reports every violation it finds.
func Verify(ctx object.Context, m object.Handle, hash HashFunc) error {
	var err error
	size := Size(ctx, m)
	array := ctx.Load(m, object.HashMapArray)
	if array == object.Nil {
		if size != 0 {
			err = fmt.Errorf("map %v has size %d but no buckets", m, size)
		}
		return err
	}
	if k := ctx.Kind(array); k != object.KindArray {
		return fmt.Errorf("map %v has %v in place of its bucket array", m, k)
	}
	seen := make(map[object.Handle]bool)
	count := 0
	length := ctx.Len(array)
	for i := 0; i < length; i++ {
		for n := ctx.Load(array, object.Field(i)); n != object.Nil; n = ctx.Load(n, object.TripleThird) {
			if seen[n] {
				return multierr.Append(err, fmt.Errorf("map %v: node %v reached twice from bucket %d", m, n, i))
			}
			seen[n] = true
			count++
			if want := int(bucket(hash(ctx, ctx.Load(n, object.TripleFirst)), length)); want != i {
				err = multierr.Append(err, fmt.Errorf("map %v: node %v linked from bucket %d, hashes to %d", m, n, i, want))
			}
		}
	}
	if count != size {
		err = multierr.Append(err, fmt.Errorf("map %v: size is %d but %d nodes are reachable", m, size, count))
	}
	return err
}
