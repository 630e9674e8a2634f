package entities

import (
	"context"

	"github.com/dyluth/canboard/internal/state"
	"github.com/dyluth/canboard/pkg/canboard"
)

// BusCache tracks buses.
type BusCache struct {
	*cache[canboard.Bus]
}

func newBusCache(inv canboard.Invoker, opts []state.Option) *BusCache {
	return &BusCache{newCache[canboard.Bus](canboard.KindBus, inv, true, opts)}
}

func (c *BusCache) UpdateName(ctx context.Context, id, name string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcBusUpdateName,
		func(b *canboard.Bus) { b.Name = name }, canboard.UpdateNameReq{Name: name})
}

func (c *BusCache) UpdateDesc(ctx context.Context, id, desc string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcBusUpdateDesc,
		func(b *canboard.Bus) { b.Desc = desc }, canboard.UpdateDescReq{Desc: desc})
}

func (c *BusCache) UpdateBusType(ctx context.Context, id string, busType canboard.BusType) (<-chan struct{}, error) {
	return c.update(ctx, id, canboard.ProcBusUpdateBusType, canboard.UpdateBusTypeReq{Type: busType})
}

func (c *BusCache) UpdateBaudrate(ctx context.Context, id string, baudrate int) (<-chan struct{}, error) {
	return c.update(ctx, id, canboard.ProcBusUpdateBaudrate, canboard.UpdateBaudrateReq{Baudrate: baudrate})
}

// ListBase returns a summary of every bus in the network.
func (c *BusCache) ListBase(ctx context.Context) ([]canboard.BusBase, error) {
	var buses []canboard.BusBase
	if err := c.inv.Invoke(ctx, canboard.ProcBusListBase, &buses); err != nil {
		return nil, err
	}
	return buses, nil
}

// GetLoad returns the bus load of id in percent.
func (c *BusCache) GetLoad(ctx context.Context, id string) (float64, error) {
	var load float64
	if err := c.query(ctx, id, "GetLoad", &load); err != nil {
		return 0, err
	}
	return load, nil
}
