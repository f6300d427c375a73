// Package arena implements a small managed heap that satisfies
// [object.Context]. It exists so that the collections in this module
// can run, and be tested, against a real collector.
//
// Objects live in a dense cell slice indexed through a handle table.
// Handles stay fixed for the life of an object while the cells
// themselves are compacted, and so move, on every collection.
// The collector is generational: new objects are young until they
// survive a collection. Minor collections trace young objects from
// the roots, the protect stacks of every thread and the remembered
// set, which the write barrier maintains for old objects that have
// had a young reference stored into them.
//
// A Heap has a single mutator and is not safe for concurrent use.
package arena

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rogpeppe/heapcoll/internal/freelist"
	"github.com/rogpeppe/heapcoll/internal/ring"
	"github.com/rogpeppe/heapcoll/object"
)

// ErrOutOfMemory is returned (wrapped) by allocations that cannot be
// satisfied within Config.MaxObjects.
var ErrOutOfMemory = errors.New("arena: out of heap space")

type cell struct {
	handle object.Handle
	kind   object.Kind
	old    bool
	marked bool
	refs   []object.Handle
	words  []uint64
	bytes  []byte
}

// Heap is a garbage-collected object heap.
type Heap struct {
	cfg     Config
	log     zerolog.Logger
	metrics *metrics

	// table maps a handle to its index in cells, or -1
	// when the handle is not in use. table[0] is Nil.
	table []int32
	cells []cell
	free  freelist.List

	// young counts allocations since the last collection.
	young int
	// minors counts minor collections since the last major one.
	minors int

	remembered map[object.Handle]struct{}
	roots      map[object.Handle]int
	threads    []*Thread
	gray       ring.Queue[object.Handle]
	stats      Stats
}

// Stats holds heap counters.
type Stats struct {
	Live             int
	Allocations      uint64
	MinorCollections uint64
	MajorCollections uint64
	Freed            uint64
	Relocations      uint64
	BarrierStores    uint64
	Remembered       uint64
}

// New returns an empty heap.
func New(cfg Config) *Heap {
	cfg = cfg.withDefaults()
	return &Heap{
		cfg:        cfg,
		log:        cfg.Logger.With().Str("component", "arena").Logger(),
		metrics:    newMetrics(cfg.Registerer),
		table:      []int32{-1},
		remembered: make(map[object.Handle]struct{}),
		roots:      make(map[object.Handle]int),
	}
}

// NewThread returns a new mutator context on the heap.
// Its protect stack is a source of roots for every collection.
func (h *Heap) NewThread() *Thread {
	t := &Thread{heap: h}
	h.threads = append(h.threads, t)
	return t
}

// AddRoot makes x a root. Roots are counted: x stays a root
// until RemoveRoot has been called as many times as AddRoot.
func (h *Heap) AddRoot(x object.Handle) {
	if x == object.Nil {
		return
	}
	h.cell(x)
	h.roots[x]++
}

// RemoveRoot undoes one call to AddRoot.
func (h *Heap) RemoveRoot(x object.Handle) {
	n, ok := h.roots[x]
	if !ok {
		return
	}
	if n <= 1 {
		delete(h.roots, x)
	} else {
		h.roots[x] = n - 1
	}
}

// Valid reports whether x refers to an object that has not
// been reclaimed.
func (h *Heap) Valid(x object.Handle) bool {
	return x != object.Nil && int(x) < len(h.table) && h.table[x] >= 0
}

// Location returns the current storage index of x. It changes
// whenever a collection compacts the heap, which is why nothing
// may hash or compare objects by location.
func (h *Heap) Location(x object.Handle) int {
	h.cell(x)
	return int(h.table[x])
}

// Collect runs a full collection.
func (h *Heap) Collect() {
	h.collect(true)
}

// Stats returns a snapshot of the heap counters.
func (h *Heap) Stats() Stats {
	s := h.stats
	s.Live = len(h.cells)
	return s
}

func (h *Heap) alloc(s object.Shape, payload []byte) (object.Handle, error) {
	if s.Refs < 0 || s.Words < 0 {
		panic(fmt.Sprintf("arena: invalid shape %v", s))
	}
	if h.cfg.Stress || h.young >= h.cfg.NurserySize {
		h.collect(h.minors+1 >= h.cfg.MajorInterval)
	}
	if h.cfg.MaxObjects > 0 && len(h.cells) >= h.cfg.MaxObjects {
		h.collect(true)
		if len(h.cells) >= h.cfg.MaxObjects {
			h.log.Warn().
				Stringer("shape", s).
				Int("live", len(h.cells)).
				Int("max", h.cfg.MaxObjects).
				Msg("allocation failed")
			return object.Nil, errors.Wrapf(ErrOutOfMemory, "allocating %v", s)
		}
	}
	var x object.Handle
	if h.free.Len() > 0 {
		x = h.free.Pop()
	} else {
		x = object.Handle(len(h.table))
		h.table = append(h.table, -1)
	}
	c := cell{
		handle: x,
		kind:   s.Kind,
		bytes:  payload,
	}
	if s.Refs > 0 {
		c.refs = make([]object.Handle, s.Refs)
	}
	if s.Words > 0 {
		c.words = make([]uint64, s.Words)
	}
	h.table[x] = int32(len(h.cells))
	h.cells = append(h.cells, c)
	h.young++
	h.stats.Allocations++
	h.metrics.allocations.Inc()
	h.metrics.live.Set(float64(len(h.cells)))
	return x, nil
}

// cell returns the storage for x. The pointer is valid
// only until the next allocation.
func (h *Heap) cell(x object.Handle) *cell {
	if !h.Valid(x) {
		panic(fmt.Sprintf("arena: invalid handle %v", x))
	}
	return &h.cells[h.table[x]]
}

func (h *Heap) refSlot(x object.Handle, f object.Field) *cell {
	c := h.cell(x)
	if f < 0 || int(f) >= len(c.refs) {
		panic(fmt.Sprintf("arena: %v %v has no reference slot %d", c.kind, x, f))
	}
	return c
}

func (h *Heap) wordSlot(x object.Handle, f object.Field) *cell {
	c := h.cell(x)
	if f < 0 || int(f) >= len(c.words) {
		panic(fmt.Sprintf("arena: %v %v has no word slot %d", c.kind, x, f))
	}
	return c
}

// store is the write barrier.
func (h *Heap) store(x object.Handle, f object.Field, v object.Handle) {
	c := h.refSlot(x, f)
	if v != object.Nil {
		vc := h.cell(v)
		if c.old && !vc.old {
			if _, ok := h.remembered[x]; !ok {
				h.remembered[x] = struct{}{}
				h.stats.Remembered++
				h.metrics.remembered.Inc()
			}
		}
	}
	c.refs[f] = v
	h.stats.BarrierStores++
	h.metrics.barrierStores.Inc()
}
