// Package devbackend is an in-memory editor backend answering every
// procedure of pkg/canboard. It keeps one network, pushes the same sidebar,
// modify and history events the real backend does, and records each mutation
// on an undo stack. It backs the serve-fake command and end-to-end tests.
package devbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNothingToUndo and ErrNothingToRedo are returned at the ends of the stack.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Publisher pushes backend events to clients. *canboard.Client implements it.
type Publisher interface {
	PublishSidebarEvent(ctx context.Context, ev canboard.SidebarEvent) error
	PublishHistory(ctx context.Context, h canboard.History) error
	PublishModify(ctx context.Context, kind canboard.EntityKind, entity canboard.Entity) error
}

// operation is one applied mutation. Undo and redo swap whole stores.
type operation struct {
	procedure string
	before    *store
	after     *store
}

// Backend holds the network and the undo stack.
type Backend struct {
	pub    Publisher
	logger *zap.Logger

	mu       sync.Mutex
	st       *store
	ops      []operation
	current  int
	failNext map[string]string
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithEmptyNetwork starts from a network without buses, nodes or definitions.
func WithEmptyNetwork() Option {
	return func(b *Backend) {
		st := newStore()
		st.Network = base("net", "Network", "", time.Now().UTC())
		b.st = st
	}
}

// New creates a backend holding the sample vehicle network.
func New(pub Publisher, opts ...Option) *Backend {
	b := &Backend{
		pub:      pub,
		logger:   zap.NewNop(),
		st:       sampleStore(time.Now().UTC()),
		current:  -1,
		failNext: make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.Named("devbackend")
	return b
}

// FailNext makes the next call of procedure fail with message.
func (b *Backend) FailNext(procedure, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext[procedure] = message
}

// History returns the state of the undo stack.
func (b *Backend) History() canboard.History {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history()
}

// The session starts saved; any applied operation makes it unsaved until
// every operation is undone again.
func (b *Backend) history() canboard.History {
	return canboard.History{
		OperationCount: len(b.ops),
		CurrentIndex:   b.current,
		Saved:          b.current == -1,
	}
}

// Snapshot returns the current client view of kind/id.
func (b *Backend) Snapshot(kind canboard.EntityKind, id string) (canboard.Entity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st.view(kind, id)
}

// Sidebar returns the current sidebar tree.
func (b *Backend) Sidebar() canboard.Sidebar {
	b.mu.Lock()
	defer b.mu.Unlock()
	return canboard.Sidebar{Root: b.st.sidebar()}
}

func (b *Backend) takeFailure(procedure string) error {
	msg, ok := b.failNext[procedure]
	if !ok {
		return nil
	}
	delete(b.failNext, procedure)
	return errors.New(msg)
}

// nextName returns prefix_N with the smallest N not in taken.
func nextName(prefix string, taken []string) string {
	used := make(map[string]bool, len(taken))
	for _, n := range taken {
		used[n] = true
	}
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s_%d", prefix, i)
		if !used[name] {
			return name
		}
	}
}

// newID returns a fresh entity id.
func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// change applies a mutation to a copy of the store.
type change func(st *store) ([]canboard.SidebarEvent, error)

// read answers a query against the current store.
func (b *Backend) read(procedure string, fn func(st *store) (any, error)) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFailure(procedure); err != nil {
		return nil, err
	}
	return fn(b.st)
}

// mutate applies fn, records it for undo, pushes the resulting events and
// returns the new snapshot of kind/id.
func (b *Backend) mutate(ctx context.Context, procedure string, kind canboard.EntityKind, id string, fn change) (canboard.Entity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFailure(procedure); err != nil {
		return nil, err
	}

	before := b.st
	after := before.clone()
	events, err := fn(after)
	if err != nil {
		return nil, err
	}

	b.st = after
	b.ops = append(b.ops[:b.current+1], operation{procedure: procedure, before: before, after: after})
	b.current++

	b.logger.Debug("Applied operation", zap.String("procedure", procedure), zap.Int("index", b.current))
	b.publish(ctx, before, after, events)

	return after.view(kind, id)
}

// Undo reverts the current operation.
func (b *Backend) Undo(ctx context.Context) (canboard.History, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFailure(canboard.ProcHistoryUndo); err != nil {
		return canboard.History{}, err
	}
	if b.current < 0 {
		return canboard.History{}, ErrNothingToUndo
	}

	op := b.ops[b.current]
	b.st = op.before
	b.current--
	b.publish(ctx, op.after, op.before, []canboard.SidebarEvent{canboard.LoadEvent()})
	return b.history(), nil
}

// Redo re-applies the next reverted operation.
func (b *Backend) Redo(ctx context.Context) (canboard.History, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFailure(canboard.ProcHistoryRedo); err != nil {
		return canboard.History{}, err
	}
	if b.current >= len(b.ops)-1 {
		return canboard.History{}, ErrNothingToRedo
	}

	b.current++
	op := b.ops[b.current]
	b.st = op.after
	b.publish(ctx, op.before, op.after, []canboard.SidebarEvent{canboard.LoadEvent()})
	return b.history(), nil
}

// publish pushes modify events for every snapshot that differs between
// before and after, then the sidebar events, then the history. Push failures
// are logged; the mutation already happened.
func (b *Backend) publish(ctx context.Context, before, after *store, events []canboard.SidebarEvent) {
	if b.pub == nil {
		return
	}

	for _, key := range after.ids() {
		next, err := after.view(key.kind, key.id)
		if err != nil {
			continue
		}
		if prev, err := before.view(key.kind, key.id); err == nil && sameJSON(prev, next) {
			continue
		}
		if err := b.pub.PublishModify(ctx, key.kind, next); err != nil {
			b.logger.Warn("Failed to publish modify event", zap.String("kind", string(key.kind)), zap.String("id", key.id), zap.Error(err))
		}
	}

	for _, ev := range events {
		if err := b.pub.PublishSidebarEvent(ctx, ev); err != nil {
			b.logger.Warn("Failed to publish sidebar event", zap.String("type", string(ev.Type)), zap.Error(err))
		}
	}

	if err := b.pub.PublishHistory(ctx, b.history()); err != nil {
		b.logger.Warn("Failed to publish history", zap.Error(err))
	}
}

func sameJSON(a, b any) bool {
	x, err := json.Marshal(a)
	if err != nil {
		return false
	}
	y, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(x, y)
}
