package arena

import (
	"fmt"

	"github.com/rogpeppe/heapcoll/object"
)

// Thread is a mutator context on a Heap. It implements
// [object.Context].
type Thread struct {
	heap      *Heap
	protected []object.Handle
}

var _ object.Context = (*Thread)(nil)

// Heap returns the heap the thread allocates from.
func (t *Thread) Heap() *Heap {
	return t.heap
}

func (t *Thread) Alloc(s object.Shape) (object.Handle, error) {
	return t.heap.alloc(s, nil)
}

func (t *Thread) AllocBytes(b []byte) (object.Handle, error) {
	return t.heap.alloc(object.Shape{Kind: object.KindBytes}, append([]byte(nil), b...))
}

func (t *Thread) Kind(x object.Handle) object.Kind {
	return t.heap.cell(x).kind
}

func (t *Thread) Len(x object.Handle) int {
	return len(t.heap.cell(x).refs)
}

func (t *Thread) Load(x object.Handle, f object.Field) object.Handle {
	return t.heap.refSlot(x, f).refs[f]
}

func (t *Thread) Store(x object.Handle, f object.Field, v object.Handle) {
	t.heap.store(x, f, v)
}

func (t *Thread) LoadWord(x object.Handle, f object.Field) uint64 {
	return t.heap.wordSlot(x, f).words[f]
}

func (t *Thread) StoreWord(x object.Handle, f object.Field, w uint64) {
	t.heap.wordSlot(x, f).words[f] = w
}

func (t *Thread) Bytes(x object.Handle) []byte {
	c := t.heap.cell(x)
	if c.kind != object.KindBytes {
		panic(fmt.Sprintf("arena: Bytes called on %v %v", c.kind, x))
	}
	return c.bytes
}

func (t *Thread) Protect(hs ...object.Handle) (release func()) {
	n := len(t.protected)
	t.protected = append(t.protected, hs...)
	return func() {
		if len(t.protected) < n+len(hs) {
			panic("arena: protections released out of order")
		}
		clear(t.protected[n:])
		t.protected = t.protected[:n]
	}
}
