// Package freelist holds released object handles so that the lowest
// one is handed out first. Keeping handle numbers dense keeps the
// arena's handle table small.
package freelist

import "github.com/rogpeppe/heapcoll/object"

// List is a binary min-heap of handles. The zero value is empty.
type List struct {
	items []object.Handle
}

// Len returns the number of free handles.
func (l *List) Len() int {
	return len(l.items)
}

// Push adds h to the list.
// The complexity is O(log n) where n = l.Len().
func (l *List) Push(h object.Handle) {
	l.items = append(l.items, h)
	l.up(len(l.items) - 1)
}

// Pop removes and returns the lowest handle.
// It panics if the list is empty.
func (l *List) Pop() object.Handle {
	n := len(l.items) - 1
	if n < 0 {
		panic("freelist.List.Pop called on empty list")
	}
	l.items[0], l.items[n] = l.items[n], l.items[0]
	l.down(0, n)
	h := l.items[n]
	l.items = l.items[:n]
	return h
}

// Reset discards all handles.
func (l *List) Reset() {
	l.items = l.items[:0]
}

func (l *List) up(j int) {
	for {
		i := (j - 1) / 2 // parent
		if i == j || l.items[j] >= l.items[i] {
			break
		}
		l.items[i], l.items[j] = l.items[j], l.items[i]
		j = i
	}
}

func (l *List) down(i0, n int) {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 { // j1 < 0 after int overflow
			break
		}
		j := j1 // left child
		if j2 := j1 + 1; j2 < n && l.items[j2] < l.items[j1] {
			j = j2 // = 2*i + 2  // right child
		}
		if l.items[j] >= l.items[i] {
			break
		}
		l.items[i], l.items[j] = l.items[j], l.items[i]
		i = j
	}
}
