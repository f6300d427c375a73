// Package object defines the narrow view of a managed heap that the
// collections in this module are written against.
//
// Objects are named by a [Handle]. A handle is an opaque, comparable
// reference; it is never dereferenced directly. All reads go through
// [Context.Load] and [Context.LoadWord], and every write to a
// reference slot goes through [Context.Store], which is where the
// runtime applies its write barrier.
//
// Any call that allocates ([Context.Alloc], [Context.AllocBytes]) may
// run a collection. A collection reclaims objects that are not
// reachable from a root and may move the storage of the ones that
// are. Code that holds a handle across an allocating call must keep it
// reachable, either by linking it from a rooted object or by
// protecting it with [Context.Protect].
package object

import "fmt"

// Handle is an opaque reference to a heap object.
type Handle uint32

// Nil is the distinguished "no object" handle. It is also what lookups
// return when nothing is found.
const Nil Handle = 0

// IsNil reports whether h is [Nil].
func (h Handle) IsNil() bool {
	return h == Nil
}

func (h Handle) String() string {
	if h == Nil {
		return "nil"
	}
	return fmt.Sprintf("#%d", uint32(h))
}

// Field selects a slot within an object. Reference slots and word
// slots are numbered independently.
type Field int

// Shape describes the object to allocate: its kind, the number of
// reference slots and the number of raw word slots.
type Shape struct {
	Kind  Kind
	Refs  int
	Words int
}

func (s Shape) String() string {
	return fmt.Sprintf("%v(refs=%d, words=%d)", s.Kind, s.Refs, s.Words)
}

// Context is the execution context threaded through every operation.
// It carries allocation and barrier state for a single mutator; it is
// not safe for concurrent use.
type Context interface {
	// Alloc allocates a new object of the given shape with all
	// reference slots set to Nil and all word slots zero.
	// It may run a collection before allocating.
	Alloc(s Shape) (Handle, error)

	// AllocBytes allocates an immutable object holding a copy of b.
	// It may run a collection before allocating.
	AllocBytes(b []byte) (Handle, error)

	// Kind returns the kind of the object.
	Kind(h Handle) Kind

	// Len returns the number of reference slots in the object.
	Len(h Handle) int

	// Load returns the handle held in reference slot f of h.
	Load(h Handle, f Field) Handle

	// Store sets reference slot f of h to v, applying the
	// write barrier. It is the only way to mutate a reference slot.
	Store(h Handle, f Field, v Handle)

	// LoadWord returns word slot f of h.
	LoadWord(h Handle, f Field) uint64

	// StoreWord sets word slot f of h. Words are not traced,
	// so no barrier applies.
	StoreWord(h Handle, f Field, w uint64)

	// Bytes returns the payload of an object created by AllocBytes.
	// The returned slice must not be modified.
	Bytes(h Handle) []byte

	// Protect keeps the given handles alive until the returned
	// function is called. Protections must be released in the
	// reverse order to that in which they were made.
	Protect(hs ...Handle) (release func())
}
