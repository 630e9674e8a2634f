package entities

import (
	"context"

	"github.com/dyluth/canboard/internal/state"
	"github.com/dyluth/canboard/pkg/canboard"
)

// SignalCache tracks signals.
type SignalCache struct {
	*cache[canboard.Signal]
}

func newSignalCache(inv canboard.Invoker, opts []state.Option) *SignalCache {
	return &SignalCache{newCache[canboard.Signal](canboard.KindSignal, inv, true, opts)}
}

func (c *SignalCache) UpdateName(ctx context.Context, id, name string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalUpdateName,
		func(s *canboard.Signal) { s.Name = name }, canboard.UpdateNameReq{Name: name})
}

func (c *SignalCache) UpdateDesc(ctx context.Context, id, desc string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalUpdateDesc,
		func(s *canboard.Signal) { s.Desc = desc }, canboard.UpdateDescReq{Desc: desc})
}

func (c *SignalCache) UpdateSignalType(ctx context.Context, id, typeID string) (<-chan struct{}, error) {
	return c.update(ctx, id, canboard.ProcSignalUpdateSignalType, canboard.UpdateSignalTypeReq{SignalTypeEntityID: typeID})
}

func (c *SignalCache) UpdateSignalUnit(ctx context.Context, id, unitID string) (<-chan struct{}, error) {
	return c.update(ctx, id, canboard.ProcSignalUpdateSignalUnit, canboard.UpdateSignalUnitReq{SignalUnitEntityID: unitID})
}

func (c *SignalCache) UpdateSignalEnum(ctx context.Context, id, enumID string) (<-chan struct{}, error) {
	return c.update(ctx, id, canboard.ProcSignalUpdateSignalEnum, canboard.UpdateSignalEnumReq{SignalEnumEntityID: enumID})
}
