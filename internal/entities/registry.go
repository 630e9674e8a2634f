package entities

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/canboard/internal/state"
	"github.com/dyluth/canboard/pkg/canboard"
	"golang.org/x/sync/errgroup"
)

// Registry holds one cache per entity kind.
type Registry struct {
	Network     *NetworkCache
	Buses       *BusCache
	Nodes       *NodeCache
	Messages    *MessageCache
	Signals     *SignalCache
	SignalTypes *SignalTypeCache
	SignalUnits *SignalUnitCache
	SignalEnums *SignalEnumCache
}

// NewRegistry creates empty caches that call inv. opts apply to every state.
func NewRegistry(inv canboard.Invoker, opts ...state.Option) *Registry {
	r := &Registry{
		Buses:       newBusCache(inv, opts),
		Signals:     newSignalCache(inv, opts),
		SignalTypes: newSignalTypeCache(inv, opts),
		SignalUnits: newSignalUnitCache(inv, opts),
		SignalEnums: newSignalEnumCache(inv, opts),
	}
	r.Messages = newMessageCache(inv, r.Signals, opts)
	r.Nodes = newNodeCache(inv, r.Messages, opts)
	r.Network = newNetworkCache(inv, r.Buses, opts)
	return r
}

// Load fetches id of kind into its cache and returns the fresh snapshot.
// The network ignores id.
func (r *Registry) Load(ctx context.Context, kind canboard.EntityKind, id string) (canboard.Entity, error) {
	switch kind {
	case canboard.KindNetwork:
		st, err := r.Network.Load(ctx)
		if err != nil {
			return nil, err
		}
		return st.Current(), nil
	case canboard.KindBus:
		return load(ctx, r.Buses.Provider, id)
	case canboard.KindNode:
		return load(ctx, r.Nodes.Provider, id)
	case canboard.KindMessage:
		return load(ctx, r.Messages.Provider, id)
	case canboard.KindSignal:
		return load(ctx, r.Signals.Provider, id)
	case canboard.KindSignalType:
		return load(ctx, r.SignalTypes.Provider, id)
	case canboard.KindSignalUnit:
		return load(ctx, r.SignalUnits.Provider, id)
	case canboard.KindSignalEnum:
		return load(ctx, r.SignalEnums.Provider, id)
	}
	return nil, kind.Validate()
}

// Current returns the current snapshot of a tracked entity.
func (r *Registry) Current(kind canboard.EntityKind, id string) (canboard.Entity, error) {
	switch kind {
	case canboard.KindNetwork:
		st, err := r.Network.State()
		if err != nil {
			return nil, err
		}
		return st.Current(), nil
	case canboard.KindBus:
		return current(r.Buses.Provider, id)
	case canboard.KindNode:
		return current(r.Nodes.Provider, id)
	case canboard.KindMessage:
		return current(r.Messages.Provider, id)
	case canboard.KindSignal:
		return current(r.Signals.Provider, id)
	case canboard.KindSignalType:
		return current(r.SignalTypes.Provider, id)
	case canboard.KindSignalUnit:
		return current(r.SignalUnits.Provider, id)
	case canboard.KindSignalEnum:
		return current(r.SignalEnums.Provider, id)
	}
	return nil, kind.Validate()
}

// Rename queues an optimistic rename of a tracked entity.
func (r *Registry) Rename(ctx context.Context, kind canboard.EntityKind, id, name string) (<-chan struct{}, error) {
	switch kind {
	case canboard.KindNetwork:
		return r.Network.UpdateName(ctx, name)
	case canboard.KindBus:
		return r.Buses.UpdateName(ctx, id, name)
	case canboard.KindNode:
		return r.Nodes.UpdateName(ctx, id, name)
	case canboard.KindMessage:
		return r.Messages.UpdateName(ctx, id, name)
	case canboard.KindSignal:
		return r.Signals.UpdateName(ctx, id, name)
	case canboard.KindSignalType:
		return r.SignalTypes.UpdateName(ctx, id, name)
	case canboard.KindSignalUnit:
		return r.SignalUnits.UpdateName(ctx, id, name)
	case canboard.KindSignalEnum:
		return r.SignalEnums.UpdateName(ctx, id, name)
	}
	return nil, kind.Validate()
}

// Modified is a snapshot pushed on the modify channel of Kind.
type Modified struct {
	Kind   canboard.EntityKind
	Entity canboard.Entity
}

// OnModify registers fn on the pushed snapshots of every kind. It returns a
// function that unregisters fn.
func (r *Registry) OnModify(fn func(Modified)) (cancel func()) {
	cancels := []func(){
		onPush(r.Network.Provider, fn),
		onPush(r.Buses.Provider, fn),
		onPush(r.Nodes.Provider, fn),
		onPush(r.Messages.Provider, fn),
		onPush(r.Signals.Provider, fn),
		onPush(r.SignalTypes.Provider, fn),
		onPush(r.SignalUnits.Provider, fn),
		onPush(r.SignalEnums.Provider, fn),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

func onPush[E canboard.Entity](p *state.Provider[E], fn func(Modified)) func() {
	return p.OnPush(func(e E) {
		fn(Modified{Kind: p.Kind(), Entity: e})
	})
}

// Subscribe opens the modify subscription of every kind. The returned
// function applies pushed snapshots until ctx is done or a subscription
// fails, and closes the subscriptions on return.
func (r *Registry) Subscribe(ctx context.Context, client *canboard.Client) (func(context.Context) error, error) {
	type opener func() (func(context.Context) error, io.Closer, error)

	openers := []opener{
		func() (func(context.Context) error, io.Closer, error) { return subscribe(ctx, client, r.Network.Provider) },
		func() (func(context.Context) error, io.Closer, error) { return subscribe(ctx, client, r.Buses.Provider) },
		func() (func(context.Context) error, io.Closer, error) { return subscribe(ctx, client, r.Nodes.Provider) },
		func() (func(context.Context) error, io.Closer, error) { return subscribe(ctx, client, r.Messages.Provider) },
		func() (func(context.Context) error, io.Closer, error) { return subscribe(ctx, client, r.Signals.Provider) },
		func() (func(context.Context) error, io.Closer, error) { return subscribe(ctx, client, r.SignalTypes.Provider) },
		func() (func(context.Context) error, io.Closer, error) { return subscribe(ctx, client, r.SignalUnits.Provider) },
		func() (func(context.Context) error, io.Closer, error) { return subscribe(ctx, client, r.SignalEnums.Provider) },
	}

	var (
		loops   []func(context.Context) error
		closers []io.Closer
	)
	for _, open := range openers {
		loop, closer, err := open()
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}
			return nil, err
		}
		loops = append(loops, loop)
		closers = append(closers, closer)
	}

	return func(ctx context.Context) error {
		defer func() {
			for _, c := range closers {
				_ = c.Close()
			}
		}()

		g, gctx := errgroup.WithContext(ctx)
		for _, loop := range loops {
			loop := loop
			g.Go(func() error { return loop(gctx) })
		}
		return g.Wait()
	}, nil
}

func subscribe[E canboard.Entity](ctx context.Context, client *canboard.Client, p *state.Provider[E]) (func(context.Context) error, io.Closer, error) {
	sub, err := canboard.SubscribeModify[E](ctx, client, p.Kind())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe to %s modify events: %w", p.Kind(), err)
	}
	return func(ctx context.Context) error { return p.Listen(ctx, sub) }, sub, nil
}

func load[E canboard.Entity](ctx context.Context, p *state.Provider[E], id string) (canboard.Entity, error) {
	st, err := p.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return st.Current(), nil
}

func current[E canboard.Entity](p *state.Provider[E], id string) (canboard.Entity, error) {
	st, err := p.Get(id)
	if err != nil {
		return nil, err
	}
	return st.Current(), nil
}
