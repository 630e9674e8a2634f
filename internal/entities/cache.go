// Package entities provides one cache per entity kind on top of the generic
// state package. Each cache exposes the backend operations of its kind as
// fire-and-forget mutations: the call is queued on the entity's state and the
// returned channel closes once the result (or the rollback) is visible.
package entities

import (
	"context"

	"github.com/dyluth/canboard/internal/state"
	"github.com/dyluth/canboard/pkg/canboard"
)

// cache binds a Provider to the procedures of its kind.
type cache[E canboard.Entity] struct {
	*state.Provider[E]
	kind canboard.EntityKind
	inv  canboard.Invoker

	// scoped procedures take the entity id as their first argument.
	scoped bool
}

func newCache[E canboard.Entity](kind canboard.EntityKind, inv canboard.Invoker, scoped bool, opts []state.Option) *cache[E] {
	c := &cache[E]{kind: kind, inv: inv, scoped: scoped}
	c.Provider = state.NewProvider[E](kind, c.fetch, opts...)
	return c
}

func (c *cache[E]) fetch(ctx context.Context, id string) (E, error) {
	var out E
	err := c.inv.Invoke(ctx, canboard.Procedure(c.kind, "Get"), &out, c.args(id)...)
	return out, err
}

func (c *cache[E]) args(id string, rest ...any) []any {
	if !c.scoped {
		return rest
	}
	return append([]any{id}, rest...)
}

// call returns a Call invoking procedure on id.
func (c *cache[E]) call(id, procedure string, args ...any) state.Call[E] {
	return func(ctx context.Context) (E, error) {
		var out E
		err := c.inv.Invoke(ctx, procedure, &out, c.args(id, args...)...)
		return out, err
	}
}

// update queues procedure on the tracked state of id.
func (c *cache[E]) update(ctx context.Context, id, procedure string, args ...any) (<-chan struct{}, error) {
	return c.enqueue(ctx, id, nil, c.call(id, procedure, args...))
}

// updateOptimistic is update, showing guess applied to the current snapshot
// until the backend answers.
func (c *cache[E]) updateOptimistic(ctx context.Context, id, procedure string, guess func(*E), args ...any) (<-chan struct{}, error) {
	return c.enqueue(ctx, id, guess, c.call(id, procedure, args...))
}

func (c *cache[E]) enqueue(ctx context.Context, id string, guess func(*E), call state.Call[E]) (<-chan struct{}, error) {
	st, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	if guess == nil {
		return st.Update(ctx, call), nil
	}
	g := st.Current()
	guess(&g)
	return st.UpdateOptimistic(ctx, g, call), nil
}

// query calls a read-only procedure of this kind.
func (c *cache[E]) query(ctx context.Context, id, method string, out any, args ...any) error {
	return c.inv.Invoke(ctx, canboard.Procedure(c.kind, method), out, c.args(id, args...)...)
}

// GetInvalidNames returns the names id may not be renamed to.
func (c *cache[E]) GetInvalidNames(ctx context.Context, id string) ([]string, error) {
	var names []string
	if err := c.query(ctx, id, "GetInvalidNames", &names); err != nil {
		return nil, err
	}
	return names, nil
}

// andThen runs after on the result of call when call succeeds.
func andThen[E any](call state.Call[E], after func(E)) state.Call[E] {
	return func(ctx context.Context) (E, error) {
		res, err := call(ctx)
		if err == nil {
			after(res)
		}
		return res, err
	}
}
