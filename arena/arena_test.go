package arena

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rogpeppe/heapcoll/object"
)

func TestAllocAndAccess(t *testing.T) {
	c := qt.New(t)
	th := New(Config{}).NewThread()

	a, err := th.Alloc(object.Triple)
	c.Assert(err, qt.IsNil)
	b, err := object.NewWord(th, 42)
	c.Assert(err, qt.IsNil)

	c.Assert(th.Kind(a), qt.Equals, object.KindTriple)
	c.Assert(th.Len(a), qt.Equals, 3)
	c.Assert(th.Load(a, object.TripleSecond), qt.Equals, object.Nil)

	th.Store(a, object.TripleSecond, b)
	c.Assert(th.Load(a, object.TripleSecond), qt.Equals, b)
	c.Assert(object.WordOf(th, b), qt.Equals, uint64(42))
	c.Assert(th.Len(b), qt.Equals, 0)
}

func TestAllocBytesCopies(t *testing.T) {
	c := qt.New(t)
	th := New(Config{}).NewThread()

	src := []byte("hello")
	x, err := th.AllocBytes(src)
	c.Assert(err, qt.IsNil)
	src[0] = 'j'
	c.Assert(string(th.Bytes(x)), qt.Equals, "hello")
	c.Assert(th.Kind(x), qt.Equals, object.KindBytes)
}

func TestInvalidAccessPanics(t *testing.T) {
	c := qt.New(t)
	th := New(Config{}).NewThread()
	x, err := th.Alloc(object.Word)
	c.Assert(err, qt.IsNil)

	c.Assert(func() { th.Load(object.Nil, 0) }, qt.PanicMatches, `arena: invalid handle nil`)
	c.Assert(func() { th.Load(x, 0) }, qt.PanicMatches, `arena: word #1 has no reference slot 0`)
	c.Assert(func() { th.LoadWord(x, 1) }, qt.PanicMatches, `arena: word #1 has no word slot 1`)
	c.Assert(func() { th.Bytes(x) }, qt.PanicMatches, `arena: Bytes called on word #1`)
	c.Assert(func() { th.Alloc(object.ArrayOf(-1)) }, qt.PanicMatches, `arena: invalid shape .*`)
}

func TestUnreachableObjectsAreReclaimed(t *testing.T) {
	c := qt.New(t)
	h := New(Config{})
	th := h.NewThread()

	kept, err := th.Alloc(object.Pair)
	c.Assert(err, qt.IsNil)
	h.AddRoot(kept)
	child, err := th.Alloc(object.Word)
	c.Assert(err, qt.IsNil)
	th.Store(kept, object.PairFirst, child)
	lost, err := th.Alloc(object.Pair)
	c.Assert(err, qt.IsNil)

	h.Collect()
	c.Assert(h.Valid(kept), qt.IsTrue)
	c.Assert(h.Valid(child), qt.IsTrue)
	c.Assert(h.Valid(lost), qt.IsFalse)
	c.Assert(h.Stats().Live, qt.Equals, 2)

	h.RemoveRoot(kept)
	h.Collect()
	c.Assert(h.Valid(kept), qt.IsFalse)
	c.Assert(h.Valid(child), qt.IsFalse)
	c.Assert(h.Stats().Live, qt.Equals, 0)
}

func TestRootsAreCounted(t *testing.T) {
	c := qt.New(t)
	h := New(Config{})
	th := h.NewThread()
	x, err := th.Alloc(object.Word)
	c.Assert(err, qt.IsNil)

	h.AddRoot(x)
	h.AddRoot(x)
	h.RemoveRoot(x)
	h.Collect()
	c.Assert(h.Valid(x), qt.IsTrue)
	h.RemoveRoot(x)
	h.Collect()
	c.Assert(h.Valid(x), qt.IsFalse)
}

func TestProtect(t *testing.T) {
	c := qt.New(t)
	h := New(Config{})
	th := h.NewThread()
	x, err := th.Alloc(object.Word)
	c.Assert(err, qt.IsNil)
	y, err := th.Alloc(object.Word)
	c.Assert(err, qt.IsNil)

	releaseX := th.Protect(x)
	releaseY := th.Protect(y)
	h.Collect()
	c.Assert(h.Valid(x), qt.IsTrue)
	c.Assert(h.Valid(y), qt.IsTrue)

	releaseY()
	h.Collect()
	c.Assert(h.Valid(x), qt.IsTrue)
	c.Assert(h.Valid(y), qt.IsFalse)
	releaseX()
	h.Collect()
	c.Assert(h.Valid(x), qt.IsFalse)
}

func TestProtectReleasedOutOfOrderPanics(t *testing.T) {
	c := qt.New(t)
	th := New(Config{}).NewThread()
	outer := th.Protect(object.Nil)
	inner := th.Protect(object.Nil, object.Nil)
	outer()
	c.Assert(inner, qt.PanicMatches, `arena: protections released out of order`)
}

func TestCompactionRelocates(t *testing.T) {
	c := qt.New(t)
	h := New(Config{})
	th := h.NewThread()

	_, err := th.Alloc(object.Word)
	c.Assert(err, qt.IsNil)
	x, err := object.NewWord(th, 7)
	c.Assert(err, qt.IsNil)
	h.AddRoot(x)
	before := h.Location(x)

	h.Collect()
	c.Assert(h.Location(x), qt.Not(qt.Equals), before)
	c.Assert(object.WordOf(th, x), qt.Equals, uint64(7))
	c.Assert(h.Stats().Relocations, qt.Equals, uint64(1))
}

func TestWriteBarrierRemembersOldToYoung(t *testing.T) {
	c := qt.New(t)
	h := New(Config{})
	th := h.NewThread()

	old, err := th.Alloc(object.Pair)
	c.Assert(err, qt.IsNil)
	h.AddRoot(old)
	h.collect(false) // promote
	c.Assert(h.cell(old).old, qt.IsTrue)

	young, err := object.NewWord(th, 1)
	c.Assert(err, qt.IsNil)
	th.Store(old, object.PairFirst, young)
	c.Assert(h.Stats().Remembered, qt.Equals, uint64(1))

	h.collect(false)
	c.Assert(h.Valid(young), qt.IsTrue)
	c.Assert(object.WordOf(th, th.Load(old, object.PairFirst)), qt.Equals, uint64(1))
}

func TestStoreWithoutBarrierLosesYoungObject(t *testing.T) {
	c := qt.New(t)
	h := New(Config{})
	th := h.NewThread()

	old, err := th.Alloc(object.Pair)
	c.Assert(err, qt.IsNil)
	h.AddRoot(old)
	h.collect(false)

	young, err := th.Alloc(object.Word)
	c.Assert(err, qt.IsNil)
	// Bypass the barrier.
	h.cell(old).refs[object.PairFirst] = young

	h.collect(false)
	c.Assert(h.Valid(young), qt.IsFalse)
}

func TestNurseryTriggersMinorCollection(t *testing.T) {
	c := qt.New(t)
	h := New(Config{NurserySize: 4, MajorInterval: 2})
	th := h.NewThread()
	for i := 0; i < 13; i++ {
		_, err := th.Alloc(object.Word)
		c.Assert(err, qt.IsNil)
	}
	s := h.Stats()
	c.Assert(s.MinorCollections+s.MajorCollections, qt.Equals, uint64(3))
	c.Assert(s.MajorCollections, qt.Equals, uint64(1))
	c.Assert(s.Live, qt.Equals, 1)
}

func TestOutOfMemory(t *testing.T) {
	c := qt.New(t)
	h := New(Config{MaxObjects: 2})
	th := h.NewThread()
	for i := 0; i < 2; i++ {
		x, err := th.Alloc(object.Word)
		c.Assert(err, qt.IsNil)
		h.AddRoot(x)
	}
	_, err := th.Alloc(object.Word)
	c.Assert(err, qt.ErrorIs, ErrOutOfMemory)
	c.Assert(err, qt.ErrorMatches, `allocating word\(refs=0, words=1\): arena: out of heap space`)
}

func TestOutOfMemoryCollectsFirst(t *testing.T) {
	c := qt.New(t)
	h := New(Config{MaxObjects: 2})
	th := h.NewThread()
	for i := 0; i < 10; i++ {
		_, err := th.Alloc(object.Word)
		c.Assert(err, qt.IsNil)
	}
	c.Assert(h.Stats().MajorCollections > 0, qt.IsTrue)
}

func TestFreedHandlesAreReused(t *testing.T) {
	c := qt.New(t)
	h := New(Config{})
	th := h.NewThread()
	x, err := th.Alloc(object.Word)
	c.Assert(err, qt.IsNil)
	h.Collect()
	y, err := th.Alloc(object.Word)
	c.Assert(err, qt.IsNil)
	c.Assert(y, qt.Equals, x)
}

func TestStressNeverReusesHandles(t *testing.T) {
	c := qt.New(t)
	h := New(Config{Stress: true})
	th := h.NewThread()
	x, err := th.Alloc(object.Word)
	c.Assert(err, qt.IsNil)
	y, err := th.Alloc(object.Word)
	c.Assert(err, qt.IsNil)
	c.Assert(y, qt.Not(qt.Equals), x)
	c.Assert(h.Valid(x), qt.IsFalse)
	c.Assert(func() { th.LoadWord(x, 0) }, qt.PanicMatches, `arena: invalid handle #1`)
}

func TestMetrics(t *testing.T) {
	c := qt.New(t)
	reg := prometheus.NewRegistry()
	h := New(Config{Registerer: reg})
	th := h.NewThread()

	a, err := th.Alloc(object.Pair)
	c.Assert(err, qt.IsNil)
	b, err := th.Alloc(object.Pair)
	c.Assert(err, qt.IsNil)
	th.Store(a, object.PairSecond, b)
	h.Collect()

	c.Assert(testutil.ToFloat64(h.metrics.allocations), qt.Equals, 2.0)
	c.Assert(testutil.ToFloat64(h.metrics.barrierStores), qt.Equals, 1.0)
	c.Assert(testutil.ToFloat64(h.metrics.major), qt.Equals, 1.0)
	c.Assert(testutil.ToFloat64(h.metrics.live), qt.Equals, 0.0)

	n, err := testutil.GatherAndCount(reg, "heapcoll_arena_allocations_total")
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 1)
}
