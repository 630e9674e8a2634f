package entities

import (
	"context"

	"github.com/dyluth/canboard/internal/state"
	"github.com/dyluth/canboard/pkg/canboard"
)

// SignalUnitCache tracks signal units.
type SignalUnitCache struct {
	*cache[canboard.SignalUnit]
}

func newSignalUnitCache(inv canboard.Invoker, opts []state.Option) *SignalUnitCache {
	return &SignalUnitCache{newCache[canboard.SignalUnit](canboard.KindSignalUnit, inv, true, opts)}
}

func (c *SignalUnitCache) UpdateName(ctx context.Context, id, name string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalUnitUpdateName,
		func(u *canboard.SignalUnit) { u.Name = name }, canboard.UpdateNameReq{Name: name})
}

func (c *SignalUnitCache) UpdateDesc(ctx context.Context, id, desc string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalUnitUpdateDesc,
		func(u *canboard.SignalUnit) { u.Desc = desc }, canboard.UpdateDescReq{Desc: desc})
}

func (c *SignalUnitCache) UpdateKind(ctx context.Context, id string, kind canboard.SignalUnitKind) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalUnitUpdateKind,
		func(u *canboard.SignalUnit) { u.Kind = kind }, canboard.UpdateSignalUnitKindReq{Kind: kind})
}

func (c *SignalUnitCache) UpdateSymbol(ctx context.Context, id, symbol string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcSignalUnitUpdateSymbol,
		func(u *canboard.SignalUnit) { u.Symbol = symbol }, canboard.UpdateSymbolReq{Symbol: symbol})
}
