package store

import "sync"

// Draft is an in-memory editable record backing a multi-step form. It is
// never persisted and performs no validation.
type Draft[T any] struct {
	mu      sync.Mutex
	value   T
	initial func() T
	clone   func(T) T
}

// NewDraft returns a draft holding initial(). clone must deep-copy any
// slices or pointers so readers never alias the stored record.
func NewDraft[T any](initial func() T, clone func(T) T) *Draft[T] {
	return &Draft[T]{value: initial(), initial: initial, clone: clone}
}

// Get returns a copy of the current record.
func (d *Draft[T]) Get() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clone(d.value)
}

// Update mutates the record in place under the draft lock.
func (d *Draft[T]) Update(fn func(*T)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.value)
}

// Reset restores the initial record.
func (d *Draft[T]) Reset() {
	d.mu.Lock()
	d.value = d.initial()
	d.mu.Unlock()
}

func cloneSlice[E any](in []E, each func(E) E) []E {
	if in == nil {
		return nil
	}
	out := make([]E, len(in))
	for i, v := range in {
		out[i] = each(v)
	}
	return out
}

func clonePtr[E any](p *E) *E {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
