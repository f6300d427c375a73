package hashmap_test

import (
	"fmt"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/rogpeppe/heapcoll/hashmap"
	"github.com/rogpeppe/heapcoll/object"
)

func (e *env) iterate(m object.Handle) []object.Handle {
	e.t.Helper()
	it, err := hashmap.NewIterator(e.th, m)
	qt.Assert(e.t, qt.IsNil(err))
	defer e.th.Protect(it)()
	var nodes []object.Handle
	for n := hashmap.Next(e.th, it); n != object.Nil; n = hashmap.Next(e.th, it) {
		nodes = append(nodes, n)
	}
	// Terminal state is sticky.
	qt.Assert(e.t, qt.Equals(hashmap.Next(e.th, it), object.Nil))
	return nodes
}

func TestIteratorEmptyMap(t *testing.T) {
	e := newEnv(t)
	qt.Assert(t, qt.HasLen(e.iterate(e.newMap(0).Handle()), 0))
	qt.Assert(t, qt.HasLen(e.iterate(e.newMap(8).Handle()), 0))
}

func TestIteratorOrder(t *testing.T) {
	e := newEnv(t)
	m := e.newMap(8)
	for _, k := range []uint64{0x001, 0x101, 0x002, 0x003, 0x103} {
		qt.Assert(t, qt.IsNil(m.Insert(e.th, e.word(k), e.word(k))))
	}

	var keys []uint64
	for _, n := range e.iterate(m.Handle()) {
		keys = append(keys, e.value(hashmap.Key(e.th, n)))
	}
	// Bucket index order, each chain newest first.
	qt.Assert(t, qt.DeepEquals(keys, []uint64{0x101, 0x001, 0x002, 0x103, 0x003}))
}

func TestIteratorVisitsEachNodeOnce(t *testing.T) {
	for _, buckets := range []int{1, 2, 7, 64} {
		t.Run(fmt.Sprint(buckets), func(t *testing.T) {
			e := newEnv(t)
			m := e.newMap(buckets)
			want := make(map[object.Handle]bool)
			for i := uint64(0); i < 40; i++ {
				k := e.word(i * 3)
				qt.Assert(t, qt.IsNil(m.Insert(e.th, k, k)))
				want[m.FindNode(e.th, k)] = true
			}
			// Pin the bucket count so that it is the one under test.
			qt.Assert(t, qt.IsNil(m.Resize(e.th, buckets)))

			got := make(map[object.Handle]bool)
			nodes := e.iterate(m.Handle())
			for _, n := range nodes {
				got[n] = true
			}
			qt.Assert(t, qt.HasLen(nodes, m.Len(e.th)))
			qt.Assert(t, qt.DeepEquals(got, want))
		})
	}
}

func TestIteratorAfterRemovals(t *testing.T) {
	e := newEnv(t)
	m := e.newMap(4)
	for i := uint64(0); i < 12; i++ {
		qt.Assert(t, qt.IsNil(m.Insert(e.th, e.word(i), e.word(i))))
	}
	for i := uint64(0); i < 12; i += 3 {
		qt.Assert(t, qt.Not(qt.Equals(m.Remove(e.th, e.word(i)), object.Nil)))
	}
	seen := make(map[uint64]bool)
	for _, n := range e.iterate(m.Handle()) {
		seen[e.value(hashmap.Key(e.th, n))] = true
	}
	qt.Assert(t, qt.Equals(len(seen), 8))
	for i := uint64(0); i < 12; i++ {
		qt.Assert(t, qt.Equals(seen[i], i%3 != 0), qt.Commentf("key %d", i))
	}
}

func TestIteratorOutlivesCollections(t *testing.T) {
	e := newEnv(t)
	m := e.newMap(4)
	for i := uint64(0); i < 10; i++ {
		qt.Assert(t, qt.IsNil(m.Insert(e.th, e.word(i), e.word(i))))
	}
	it, err := m.Iterator(e.th)
	qt.Assert(t, qt.IsNil(err))
	e.heap.AddRoot(it)
	qt.Assert(t, qt.Equals(e.th.Kind(it), object.KindIterator))

	count := 0
	for n := hashmap.Next(e.th, it); n != object.Nil; n = hashmap.Next(e.th, it) {
		// Allocation between steps collects and compacts.
		_, err := e.th.Alloc(object.Word)
		qt.Assert(t, qt.IsNil(err))
		count++
	}
	qt.Assert(t, qt.Equals(count, 10))
}

func TestAll(t *testing.T) {
	e := newEnv(t)
	m := e.newMap(4)
	want := make(map[uint64]uint64)
	for i := uint64(0); i < 9; i++ {
		qt.Assert(t, qt.IsNil(m.Insert(e.th, e.word(i), e.word(i*i))))
		want[i] = i * i
	}
	got := make(map[uint64]uint64)
	for k, v := range m.All(e.th) {
		got[e.value(k)] = e.value(v)
	}
	qt.Assert(t, qt.DeepEquals(got, want))
}

func TestAllEarlyExit(t *testing.T) {
	e := newEnv(t)
	m := e.newMap(4)
	for i := uint64(0); i < 5; i++ {
		qt.Assert(t, qt.IsNil(m.Insert(e.th, e.word(i), e.word(i))))
	}
	count := 0
	for range m.All(e.th) {
		count++
		if count == 2 {
			break
		}
	}
	qt.Assert(t, qt.Equals(count, 2))
}

func TestAllNoBuckets(t *testing.T) {
	e := newEnv(t)
	m := e.newMap(0)
	for range m.All(e.th) {
		t.Fatalf("unexpected entry")
	}
}
