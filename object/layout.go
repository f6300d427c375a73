package object

import "fmt"

// Kind identifies the layout of an object.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindTriple
	KindArray
	KindHashMap
	KindIterator
	KindVector
	KindList
	KindPair
	KindWord
	KindBytes
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindTriple:   "triple",
	KindArray:    "array",
	KindHashMap:  "hashmap",
	KindIterator: "iterator",
	KindVector:   "vector",
	KindList:     "list",
	KindPair:     "pair",
	KindWord:     "word",
	KindBytes:    "bytes",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Triple is a hash map node: key, value and the next node in its chain.
var Triple = Shape{Kind: KindTriple, Refs: 3}

const (
	TripleFirst  Field = 0 // key
	TripleSecond Field = 1 // value
	TripleThird  Field = 2 // next
)

// ArrayOf returns the shape of an array with n reference slots.
func ArrayOf(n int) Shape {
	return Shape{Kind: KindArray, Refs: n}
}

// HashMap holds the bucket array and the live entry count.
var HashMap = Shape{Kind: KindHashMap, Refs: 1, Words: 1}

const (
	HashMapArray Field = 0 // ref
	HashMapSize  Field = 0 // word
)

// Iterator is a cursor over a hash map.
var Iterator = Shape{Kind: KindIterator, Refs: 2, Words: 1}

const (
	IteratorMap   Field = 0 // ref
	IteratorNode  Field = 1 // ref
	IteratorIndex Field = 0 // word: next bucket to scan
)

// Vector is a header over a storage array. Its capacity is the
// length of the storage array.
var Vector = Shape{Kind: KindVector, Refs: 1, Words: 1}

const (
	VectorStorage Field = 0 // ref
	VectorLength  Field = 0 // word
)

// List is a singly linked sequence of pairs with a rear pointer.
var List = Shape{Kind: KindList, Refs: 2, Words: 1}

const (
	ListFront Field = 0 // ref
	ListRear  Field = 1 // ref
	ListSize  Field = 0 // word
)

// Pair is a list cell.
var Pair = Shape{Kind: KindPair, Refs: 2}

const (
	PairFirst  Field = 0 // value
	PairSecond Field = 1 // next
)

// Word is a boxed unsigned integer.
var Word = Shape{Kind: KindWord, Words: 1}

const WordValue Field = 0

// NewWord allocates a boxed word holding v.
func NewWord(ctx Context, v uint64) (Handle, error) {
	h, err := ctx.Alloc(Word)
	if err != nil {
		return Nil, err
	}
	ctx.StoreWord(h, WordValue, v)
	return h, nil
}

// WordOf returns the value held by the boxed word h.
func WordOf(ctx Context, h Handle) uint64 {
	return ctx.LoadWord(h, WordValue)
}
