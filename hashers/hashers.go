// Package hashers provides hash and equality strategies for the key
// kinds the runtime commonly puts in hash maps.
package hashers

import (
	"bytes"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"

	"github.com/rogpeppe/heapcoll/hashmap"
	"github.com/rogpeppe/heapcoll/object"
)

var (
	_ hashmap.Hasher = Identity{}
	_ hashmap.Hasher = Bytes{}
	_ hashmap.Hasher = Word{}
	_ hashmap.Hasher = SeededBytes{}
)

// Identity treats keys as equal only when they are the same object.
// It hashes the handle, never the object's storage location, so
// it is unaffected by compaction.
type Identity struct{}

func (Identity) Hash(_ object.Context, key object.Handle) uint32 {
	return fold(mix64(uint64(key)))
}

func (Identity) Equal(_ object.Context, a, b object.Handle) bool {
	return a == b
}

// Bytes compares byte objects (as made by AllocBytes) by content.
type Bytes struct{}

func (Bytes) Hash(ctx object.Context, key object.Handle) uint32 {
	return fold(xxhash.Sum64(ctx.Bytes(key)))
}

func (Bytes) Equal(ctx object.Context, a, b object.Handle) bool {
	return a == b || bytes.Equal(ctx.Bytes(a), ctx.Bytes(b))
}

// SeededBytes is like Bytes but mixes Seed into the hash, so that
// tables built with different seeds spread the same keys differently.
type SeededBytes struct {
	Seed uint32
}

func (s SeededBytes) Hash(ctx object.Context, key object.Handle) uint32 {
	return murmur3.Sum32WithSeed(ctx.Bytes(key), s.Seed)
}

func (SeededBytes) Equal(ctx object.Context, a, b object.Handle) bool {
	return Bytes{}.Equal(ctx, a, b)
}

// Word compares boxed words by value.
type Word struct{}

func (Word) Hash(ctx object.Context, key object.Handle) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], object.WordOf(ctx, key))
	return fold(xxhash.Sum64(buf[:]))
}

func (Word) Equal(ctx object.Context, a, b object.Handle) bool {
	return a == b || object.WordOf(ctx, a) == object.WordOf(ctx, b)
}

func fold(h uint64) uint32 {
	return uint32(h ^ h>>32)
}

// mix64 is the splitmix64 finaliser.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
