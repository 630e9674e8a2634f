package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dyluth/canboard/pkg/canboard"
	"go.uber.org/zap"
)

// ErrNotFound matches every *NotFoundError.
var ErrNotFound = errors.New("entity not tracked")

// NotFoundError is returned by Provider.Get for an id that was never added
// or has been removed.
type NotFoundError struct {
	Kind canboard.EntityKind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s is not tracked", e.Kind, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) true for every NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound reports whether err is a cache miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Fetcher loads the full snapshot of one entity.
type Fetcher[E any] func(ctx context.Context, id string) (E, error)

// Source is a stream of pushed snapshots, such as a *canboard.Subscription.
type Source[E any] interface {
	Events() <-chan E
	Errors() <-chan error
}

// Provider maps entity ids of one kind to their EntityState.
// It never holds two states for the same id.
type Provider[E canboard.Entity] struct {
	kind  canboard.EntityKind
	fetch Fetcher[E]
	opts  []Option

	mu     sync.RWMutex
	states map[string]*EntityState[E]
	pushed Observers[E]

	logger *zap.Logger
}

// NewProvider creates an empty registry for kind. fetch backs Load. opts are
// applied to every state the provider creates.
func NewProvider[E canboard.Entity](kind canboard.EntityKind, fetch Fetcher[E], opts ...Option) *Provider[E] {
	o := buildOptions(opts)
	logger := o.logger.With(zap.String("kind", string(kind)))

	return &Provider[E]{
		kind:   kind,
		fetch:  fetch,
		opts:   append(opts, WithLogger(logger)),
		states: make(map[string]*EntityState[E]),
		logger: logger,
	}
}

// Kind returns the entity kind this provider holds.
func (p *Provider[E]) Kind() canboard.EntityKind {
	return p.kind
}

// Get returns the state of id, or a *NotFoundError. It never creates one.
func (p *Provider[E]) Get(id string) (*EntityState[E], error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st, ok := p.states[id]
	if !ok {
		return nil, &NotFoundError{Kind: p.kind, ID: id}
	}
	return st, nil
}

// Add wraps e in a new state, replacing any state already tracked for its id.
func (p *Provider[E]) Add(e E) *EntityState[E] {
	st := New(e, p.opts...)

	p.mu.Lock()
	p.states[e.EntityID()] = st
	p.mu.Unlock()

	return st
}

// Remove evicts id. It reports whether the id was tracked.
func (p *Provider[E]) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.states[id]; !ok {
		return false
	}
	delete(p.states, id)
	return true
}

// Modify applies a pushed snapshot to the tracked state of its id.
// Untracked ids are ignored. It reports whether a state was updated.
func (p *Provider[E]) Modify(e E) bool {
	p.mu.RLock()
	st, ok := p.states[e.EntityID()]
	p.mu.RUnlock()

	if !ok {
		return false
	}
	st.Modify(e)
	return true
}

// Load fetches id and adds it, replacing any tracked state.
func (p *Provider[E]) Load(ctx context.Context, id string) (*EntityState[E], error) {
	if p.fetch == nil {
		return nil, fmt.Errorf("no fetcher configured for %s", p.kind)
	}

	e, err := p.fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %s: %w", p.kind, id, err)
	}
	return p.Add(e), nil
}

// GetOrLoad returns the tracked state of id, loading it on a miss.
func (p *Provider[E]) GetOrLoad(ctx context.Context, id string) (*EntityState[E], error) {
	if st, err := p.Get(id); err == nil {
		return st, nil
	}
	return p.Load(ctx, id)
}

// Len returns the number of tracked entities.
func (p *Provider[E]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.states)
}

// IDs returns the tracked ids in ascending order.
func (p *Provider[E]) IDs() []string {
	p.mu.RLock()
	ids := make([]string, 0, len(p.states))
	for id := range p.states {
		ids = append(ids, id)
	}
	p.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Listen applies every snapshot from src with Modify until ctx is done.
// Decode errors reported by src are logged and skipped. It returns an error
// if src closes while ctx is still live.
func (p *Provider[E]) Listen(ctx context.Context, src Source[E]) error {
	events, errs := src.Events(), src.Errors()

	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%s modify subscription closed", p.kind)
			}
			if p.Modify(e) {
				p.logger.Debug("applied pushed snapshot", zap.String("entity_id", e.EntityID()))
			}
			p.pushed.Emit(e)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.logger.Warn("modify subscription error", zap.Error(err))
		}
	}
}

// OnPush registers fn to run with every snapshot Listen receives, whether or
// not its id is tracked.
func (p *Provider[E]) OnPush(fn func(E)) (cancel func()) {
	return p.pushed.Add(fn)
}
