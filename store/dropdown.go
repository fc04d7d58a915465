package store

import (
	"sync"

	"github.com/google/uuid"
)

// Dropdowns keeps at most one dropdown open across the screen. Subscribers
// are told the id of the newly open dropdown, or "" when all are closed.
type Dropdowns struct {
	mu          sync.Mutex
	current     string
	subscribers map[uuid.UUID]func(openID string)
}

func NewDropdowns() *Dropdowns {
	return &Dropdowns{subscribers: make(map[uuid.UUID]func(string))}
}

// Subscribe registers fn until the returned func is called. Calling it more
// than once is harmless.
func (d *Dropdowns) Subscribe(fn func(openID string)) (unsubscribe func()) {
	id := uuid.New()
	d.mu.Lock()
	d.subscribers[id] = fn
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subscribers, id)
			d.mu.Unlock()
		})
	}
}

// Open marks id as the open dropdown and notifies subscribers.
func (d *Dropdowns) Open(id string) {
	d.mu.Lock()
	fns := d.setLocked(id)
	d.mu.Unlock()
	notify(fns, id)
}

// Close closes id if it is the open dropdown.
func (d *Dropdowns) Close(id string) {
	d.mu.Lock()
	if d.current != id {
		d.mu.Unlock()
		return
	}
	fns := d.setLocked("")
	d.mu.Unlock()
	notify(fns, "")
}

// Current returns the open dropdown id, or "".
func (d *Dropdowns) Current() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Subscribers returns the number of live subscriptions.
func (d *Dropdowns) Subscribers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subscribers)
}

// setLocked updates the open id and returns the callbacks to notify.
// d.mu must be held.
func (d *Dropdowns) setLocked(id string) []func(string) {
	d.current = id
	fns := make([]func(string), 0, len(d.subscribers))
	for _, fn := range d.subscribers {
		fns = append(fns, fn)
	}
	return fns
}

// notify runs outside the lock so subscribers may call back into Dropdowns.
func notify(fns []func(string), id string) {
	for _, fn := range fns {
		fn(id)
	}
}
