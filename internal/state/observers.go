package state

import "sync"

// Observers is a set of callbacks invoked with every new value.
// Callbacks run synchronously, in registration order, outside the owner's lock.
type Observers[T any] struct {
	mu     sync.Mutex
	nextID int
	fns    []observer[T]
}

type observer[T any] struct {
	id int
	fn func(T)
}

// Add registers fn and returns a function that unregisters it.
func (o *Observers[T]) Add(fn func(T)) (cancel func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextID
	o.nextID++
	o.fns = append(o.fns, observer[T]{id: id, fn: fn})

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, ob := range o.fns {
			if ob.id == id {
				o.fns = append(o.fns[:i:i], o.fns[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every registered callback with v.
func (o *Observers[T]) Emit(v T) {
	o.mu.Lock()
	fns := make([]func(T), len(o.fns))
	for i, ob := range o.fns {
		fns[i] = ob.fn
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of registered callbacks.
func (o *Observers[T]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.fns)
}
