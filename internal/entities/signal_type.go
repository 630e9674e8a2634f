package entities

import (
	"context"

	"github.com/dyluth/canboard/internal/state"
	"github.com/dyluth/canboard/pkg/canboard"
)

// SignalTypeCache tracks signal types.
type SignalTypeCache struct {
	*cache[canboard.SignalType]
}

func newSignalTypeCache(inv canboard.Invoker, opts []state.Option) *SignalTypeCache {
	return &SignalTypeCache{newCache[canboard.SignalType](canboard.KindSignalType, inv, true, opts)}
}

func (c *SignalTypeCache) UpdateName(ctx context.Context, id, name string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalTypeUpdateName,
		func(t *canboard.SignalType) { t.Name = name }, canboard.UpdateNameReq{Name: name})
}

func (c *SignalTypeCache) UpdateDesc(ctx context.Context, id, desc string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalTypeUpdateDesc,
		func(t *canboard.SignalType) { t.Desc = desc }, canboard.UpdateDescReq{Desc: desc})
}

func (c *SignalTypeCache) UpdateMin(ctx context.Context, id string, value float64) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalTypeUpdateMin,
		func(t *canboard.SignalType) { t.Min = value }, canboard.UpdateMinReq{Min: value})
}

func (c *SignalTypeCache) UpdateMax(ctx context.Context, id string, value float64) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalTypeUpdateMax,
		func(t *canboard.SignalType) { t.Max = value }, canboard.UpdateMaxReq{Max: value})
}

func (c *SignalTypeCache) UpdateScale(ctx context.Context, id string, scale float64) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalTypeUpdateScale,
		func(t *canboard.SignalType) { t.Scale = scale }, canboard.UpdateScaleReq{Scale: scale})
}

func (c *SignalTypeCache) UpdateOffset(ctx context.Context, id string, offset float64) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalTypeUpdateOffset,
		func(t *canboard.SignalType) { t.Offset = offset }, canboard.UpdateOffsetReq{Offset: offset})
}
