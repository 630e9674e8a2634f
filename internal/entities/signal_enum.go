package entities

import (
	"context"

	"github.com/dyluth/canboard/internal/state"
	"github.com/dyluth/canboard/pkg/canboard"
)

// SignalEnumCache tracks signal enums and their values.
type SignalEnumCache struct {
	*cache[canboard.SignalEnum]
}

func newSignalEnumCache(inv canboard.Invoker, opts []state.Option) *SignalEnumCache {
	return &SignalEnumCache{newCache[canboard.SignalEnum](canboard.KindSignalEnum, inv, true, opts)}
}

func (c *SignalEnumCache) UpdateName(ctx context.Context, id, name string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalEnumUpdateName,
		func(e *canboard.SignalEnum) { e.Name = name }, canboard.UpdateNameReq{Name: name})
}

func (c *SignalEnumCache) UpdateDesc(ctx context.Context, id, desc string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalEnumUpdateDesc,
		func(e *canboard.SignalEnum) { e.Desc = desc }, canboard.UpdateDescReq{Desc: desc})
}

// ReorderValue moves valueID from position from to position to. A move onto
// the same position is not sent.
func (c *SignalEnumCache) ReorderValue(ctx context.Context, id, valueID string, from, to int) (<-chan struct{}, error) {
	if from == to {
		if _, err := c.Get(id); err != nil {
			return nil, err
		}
		return closedChan(), nil
	}
	return c.update(ctx, id, canboard.ProcSignalEnumReorderValue, canboard.ReorderValueReq{
		ValueEntityID: valueID,
		From:          from,
		To:            to,
	})
}

// AddValue appends a value with the next free index.
func (c *SignalEnumCache) AddValue(ctx context.Context, id string) (<-chan struct{}, error) {
	return c.update(ctx, id, canboard.ProcSignalEnumAddValue)
}

func (c *SignalEnumCache) RemoveValues(ctx context.Context, id string, valueIDs []string) (<-chan struct{}, error) {
	return c.update(ctx, id, canboard.ProcSignalEnumRemoveValues, canboard.RemoveValuesReq{ValueEntityIDs: valueIDs})
}

func (c *SignalEnumCache) UpdateValueName(ctx context.Context, id, valueID, name string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalEnumUpdateValueName,
		func(e *canboard.SignalEnum) { e.Values = withValue(e.Values, valueID, func(v *canboard.SignalEnumValue) { v.Name = name }) },
		canboard.UpdateValueNameReq{ValueEntityID: valueID, Name: name})
}

func (c *SignalEnumCache) UpdateValueIndex(ctx context.Context, id, valueID string, index int) (<-chan struct{}, error) {
	return c.update(ctx, id, canboard.ProcSignalEnumUpdateValueIndex,
		canboard.UpdateValueIndexReq{ValueEntityID: valueID, Index: index})
}

func (c *SignalEnumCache) UpdateValueDesc(ctx context.Context, id, valueID, desc string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalEnumUpdateValueDesc,
		func(e *canboard.SignalEnum) { e.Values = withValue(e.Values, valueID, func(v *canboard.SignalEnumValue) { v.Desc = desc }) },
		canboard.UpdateValueDescReq{ValueEntityID: valueID, Desc: desc})
}

// withValue returns a copy of values with fn applied to valueID. The input
// slice belongs to a committed snapshot and is never written.
func withValue(values []canboard.SignalEnumValue, valueID string, fn func(*canboard.SignalEnumValue)) []canboard.SignalEnumValue {
	out := make([]canboard.SignalEnumValue, len(values))
	copy(out, values)
	for i := range out {
		if out[i].ID == valueID {
			fn(&out[i])
		}
	}
	return out
}
