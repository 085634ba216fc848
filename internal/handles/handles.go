// Package handles maps opaque integer handles to Go values so they can cross
// the C boundary. Handle 0 is never issued and stands for null.
package handles

import (
	"sync"
	"sync/atomic"

	"github.com/kamstrup/intmap"
)

type Handle uint64

// handles are unique across tables, so a handle passed to the wrong table
// never resolves
var next atomic.Uint64

type Table[T any] struct {
	mu    sync.Mutex
	items *intmap.Map[Handle, T]
}

func New[T any]() *Table[T] {
	return &Table[T]{items: intmap.New[Handle, T](16)}
}

func (t *Table[T]) Insert(value T) Handle {
	h := Handle(next.Add(1))
	t.mu.Lock()
	t.items.Put(h, value)
	t.mu.Unlock()
	return h
}

func (t *Table[T]) Get(h Handle) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.items.Get(h)
}

// Remove takes the value out of the table. A second Remove of the same handle
// reports false.
func (t *Table[T]) Remove(h Handle) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	value, ok := t.items.Get(h)
	if ok {
		t.items.Del(h)
	}
	return value, ok
}

func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.items.Len()
}
