package entities

import (
	"context"
	"errors"
	"sync"

	"github.com/dyluth/canboard/internal/state"
	"github.com/dyluth/canboard/pkg/canboard"
)

// ErrNetworkNotLoaded is returned by network mutations before Load.
var ErrNetworkNotLoaded = errors.New("network not loaded")

// NetworkCache holds the single network of the session. Network procedures
// take no entity id.
type NetworkCache struct {
	*cache[canboard.Network]
	buses *BusCache

	mu sync.RWMutex
	id string
}

func newNetworkCache(inv canboard.Invoker, buses *BusCache, opts []state.Option) *NetworkCache {
	return &NetworkCache{
		cache: newCache[canboard.Network](canboard.KindNetwork, inv, false, opts),
		buses: buses,
	}
}

// Load fetches the network and starts tracking it.
func (n *NetworkCache) Load(ctx context.Context) (*state.EntityState[canboard.Network], error) {
	st, err := n.cache.Load(ctx, "")
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.id = st.ID()
	n.mu.Unlock()
	return st, nil
}

// State returns the tracked network.
func (n *NetworkCache) State() (*state.EntityState[canboard.Network], error) {
	n.mu.RLock()
	id := n.id
	n.mu.RUnlock()

	if id == "" {
		return nil, ErrNetworkNotLoaded
	}
	return n.Get(id)
}

func (n *NetworkCache) mutate(ctx context.Context, guess func(*canboard.Network), call state.Call[canboard.Network]) (<-chan struct{}, error) {
	st, err := n.State()
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

// UpdateName renames the network.
func (n *NetworkCache) UpdateName(ctx context.Context, name string) (<-chan struct{}, error) {
	return n.mutate(ctx, func(e *canboard.Network) { e.Name = name },
		n.call("", canboard.ProcNetworkUpdateName, canboard.UpdateNameReq{Name: name}))
}

// UpdateDesc sets the network description.
func (n *NetworkCache) UpdateDesc(ctx context.Context, desc string) (<-chan struct{}, error) {
	return n.mutate(ctx, func(e *canboard.Network) { e.Desc = desc },
		n.call("", canboard.ProcNetworkUpdateDesc, canboard.UpdateDescReq{Desc: desc}))
}

// AddBus creates a bus with backend defaults.
func (n *NetworkCache) AddBus(ctx context.Context) (<-chan struct{}, error) {
	return n.mutate(ctx, nil, n.call("", canboard.ProcNetworkAddBus))
}

// DeleteBus deletes busID and evicts it from the bus cache once the backend
// confirms.
func (n *NetworkCache) DeleteBus(ctx context.Context, busID string) (<-chan struct{}, error) {
	call := n.call("", canboard.ProcNetworkDeleteBus, canboard.DeleteBusReq{BusEntityID: busID})
	return n.mutate(ctx, nil, andThen(call, func(canboard.Network) {
		n.buses.Remove(busID)
	}))
}
