// Package state holds the client-side entity cache: one EntityState per open
// entity, grouped per kind in a Provider.
//
// An EntityState keeps the current snapshot plus a fallback, the last value the
// backend confirmed. Updates run one at a time per entity in FIFO order. A
// failed update restores the fallback, logs the error and notifies the user
// once. Snapshots pushed by the backend replace both values directly.
package state

import (
	"context"
	"sync"

	"github.com/dyluth/canboard/internal/logging"
	"github.com/dyluth/canboard/internal/notify"
	"github.com/dyluth/canboard/pkg/canboard"
	"go.uber.org/zap"
)

// Call performs a mutating remote call and returns the resulting snapshot.
type Call[E any] func(ctx context.Context) (E, error)

// Option configures an EntityState or a Provider.
type Option func(*options)

type options struct {
	notifier notify.Notifier
	logger   *zap.Logger
}

// WithNotifier sets where failed updates are reported. Defaults to notify.Nop.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithLogger sets the logger for failed updates. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{notifier: notify.Nop{}}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrNop(o.logger)
	if o.notifier == nil {
		o.notifier = notify.Nop{}
	}
	return o
}

// EntityState is the cache slot of one entity.
type EntityState[E canboard.Entity] struct {
	id string

	mu       sync.Mutex
	current  E
	fallback E
	tail     chan struct{}
	pending  int

	// emitMu orders state changes with their notifications, so the last value
	// an observer sees is always the current one.
	emitMu    sync.Mutex
	observers Observers[E]

	notifier notify.Notifier
	logger   *zap.Logger
}

// New creates a state seeded with initial as both current and fallback.
func New[E canboard.Entity](initial E, opts ...Option) *EntityState[E] {
	o := buildOptions(opts)
	return &EntityState[E]{
		id:       initial.EntityID(),
		current:  initial,
		fallback: initial,
		notifier: o.notifier,
		logger:   o.logger,
	}
}

// ID returns the entity id this state tracks.
func (s *EntityState[E]) ID() string {
	return s.id
}

// Current returns the snapshot observers should display.
func (s *EntityState[E]) Current() E {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Fallback returns the last snapshot confirmed by the backend.
func (s *EntityState[E]) Fallback() E {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback
}

// Pending returns the number of queued or running updates.
func (s *EntityState[E]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Idle returns a channel closed once every update queued so far has settled.
func (s *EntityState[E]) Idle() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == 0 {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return s.tail
}

// OnChange registers fn to be called with every new current snapshot.
// fn must not call Modify on the same state.
func (s *EntityState[E]) OnChange(fn func(E)) (cancel func()) {
	return s.observers.Add(fn)
}

// Update queues call and returns at once. When call succeeds its result
// becomes both current and fallback. When it fails current is restored to
// fallback, the error is logged and one error notification is emitted.
//
// The returned channel is closed when this update has settled. Callers are
// free to ignore it.
func (s *EntityState[E]) Update(ctx context.Context, call Call[E]) <-chan struct{} {
	return s.enqueue(ctx, nil, call)
}

// UpdateOptimistic is Update, but guess becomes current as soon as the update
// starts, before call returns.
func (s *EntityState[E]) UpdateOptimistic(ctx context.Context, guess E, call Call[E]) <-chan struct{} {
	return s.enqueue(ctx, &guess, call)
}

// Modify replaces current and fallback with a snapshot pushed by the backend.
// An update still in flight commits over it when it settles.
func (s *EntityState[E]) Modify(e E) {
	s.commit(func() {
		s.current = e
		s.fallback = e
	})
}

func (s *EntityState[E]) enqueue(ctx context.Context, guess *E, call Call[E]) <-chan struct{} {
	done := make(chan struct{})

	s.mu.Lock()
	prev := s.tail
	s.tail = done
	s.pending++
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.pending--
			s.mu.Unlock()
			close(done)
		}()

		if prev != nil {
			<-prev
		}
		s.run(ctx, guess, call)
	}()

	return done
}

func (s *EntityState[E]) run(ctx context.Context, guess *E, call Call[E]) {
	if guess != nil {
		s.commit(func() { s.current = *guess })
	}

	result, err := call(ctx)
	if err != nil {
		s.commit(func() { s.current = s.fallback })
		s.logger.Error("update failed, rolled back to last confirmed state",
			zap.String("entity_id", s.id),
			zap.Error(err))
		notify.OperationFailed(s.notifier)
		return
	}

	s.commit(func() {
		s.fallback = result
		s.current = result
	})
}

func (s *EntityState[E]) commit(change func()) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	change()
	v := s.current
	s.mu.Unlock()

	s.observers.Emit(v)
}
