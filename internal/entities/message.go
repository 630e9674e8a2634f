package entities

import (
	"context"

	"github.com/dyluth/canboard/internal/state"
	"github.com/dyluth/canboard/pkg/canboard"
)

// MessageCache tracks messages. Deleting signals also evicts them from the
// signal cache.
type MessageCache struct {
	*cache[canboard.Message]
	signals *SignalCache
}

func newMessageCache(inv canboard.Invoker, signals *SignalCache, opts []state.Option) *MessageCache {
	return &MessageCache{
		cache:   newCache[canboard.Message](canboard.KindMessage, inv, true, opts),
		signals: signals,
	}
}

func (c *MessageCache) UpdateName(ctx context.Context, id, name string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcMessageUpdateName,
		func(m *canboard.Message) { m.Name = name }, canboard.UpdateNameReq{Name: name})
}

func (c *MessageCache) UpdateDesc(ctx context.Context, id, desc string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcMessageUpdateDesc,
		func(m *canboard.Message) { m.Desc = desc }, canboard.UpdateDescReq{Desc: desc})
}

func (c *MessageCache) UpdateMessageID(ctx context.Context, id string, messageID uint) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcMessageUpdateMessageID,
		func(m *canboard.Message) { m.MessageID = messageID }, canboard.UpdateMessageIDReq{MessageID: messageID})
}

// UpdateStaticCANID pins the CAN id of the message.
func (c *MessageCache) UpdateStaticCANID(ctx context.Context, id string, canID uint) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcMessageUpdateStaticCANID,
		func(m *canboard.Message) { m.HasStaticCANID, m.CANID = true, canID }, canboard.UpdateStaticCANIDReq{StaticCANID: canID})
}

func (c *MessageCache) UpdateSizeByte(ctx context.Context, id string, size int) (<-chan struct{}, error) {
	return c.update(ctx, id, canboard.ProcMessageUpdateSizeByte, canboard.UpdateSizeByteReq{SizeByte: size})
}

func (c *MessageCache) UpdateByteOrder(ctx context.Context, id string, order canboard.MessageByteOrder) (<-chan struct{}, error) {
	return c.update(ctx, id, canboard.ProcMessageUpdateByteOrder, canboard.UpdateByteOrderReq{ByteOrder: order})
}

func (c *MessageCache) UpdateCycleTime(ctx context.Context, id string, ms int) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcMessageUpdateCycleTime,
		func(m *canboard.Message) { m.CycleTime = ms }, canboard.UpdateCycleTimeReq{CycleTime: ms})
}

func (c *MessageCache) UpdateSendType(ctx context.Context, id string, sendType canboard.MessageSendType) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcMessageUpdateSendType,
		func(m *canboard.Message) { m.SendType = sendType }, canboard.UpdateSendTypeReq{SendType: sendType})
}

func (c *MessageCache) UpdateDelayTime(ctx context.Context, id string, ms int) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcMessageUpdateDelayTime,
		func(m *canboard.Message) { m.DelayTime = ms }, canboard.UpdateDelayTimeReq{DelayTime: ms})
}

func (c *MessageCache) UpdateStartDelayTime(ctx context.Context, id string, ms int) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcMessageUpdateStartDelayTime,
		func(m *canboard.Message) { m.StartDelayTime = ms }, canboard.UpdateStartDelayTimeReq{StartDelayTime: ms})
}

// AddSignal appends a signal of kind to the message.
func (c *MessageCache) AddSignal(ctx context.Context, id string, kind canboard.SignalKind) (<-chan struct{}, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	return c.update(ctx, id, canboard.ProcMessageAddSignal, canboard.AddSignalReq{SignalKind: kind})
}

// DeleteSignals removes signalIDs from the message.
func (c *MessageCache) DeleteSignals(ctx context.Context, id string, signalIDs []string) (<-chan struct{}, error) {
	call := c.call(id, canboard.ProcMessageDeleteSignals, canboard.DeleteSignalsReq{SignalEntityIDs: signalIDs})
	return c.enqueue(ctx, id, nil, andThen(call, func(canboard.Message) {
		for _, sid := range signalIDs {
			c.signals.Remove(sid)
		}
	}))
}

// CompactSignals packs the signals of the message towards bit zero.
func (c *MessageCache) CompactSignals(ctx context.Context, id string) (<-chan struct{}, error) {
	return c.update(ctx, id, canboard.ProcMessageCompactSignals)
}

// ReorderSignal moves signalID from position from to position to. Moving a
// signal onto its own position does nothing and returns a closed channel.
func (c *MessageCache) ReorderSignal(ctx context.Context, id, signalID string, from, to int) (<-chan struct{}, error) {
	if from == to {
		if _, err := c.Get(id); err != nil {
			return nil, err
		}
		return closedChan(), nil
	}
	return c.update(ctx, id, canboard.ProcMessageReorderSignal, canboard.ReorderSignalReq{
		SignalEntityID: signalID,
		From:           from,
		To:             to,
	})
}

// GetInvalidMessageIDs returns the message ids taken by other messages.
func (c *MessageCache) GetInvalidMessageIDs(ctx context.Context, id string) ([]uint, error) {
	var ids []uint
	if err := c.query(ctx, id, "GetInvalidMessageIDs", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetInvalidCANIDs returns the CAN ids taken on busID.
func (c *MessageCache) GetInvalidCANIDs(ctx context.Context, id, busID string) ([]uint, error) {
	var ids []uint
	if err := c.query(ctx, id, "GetInvalidCANIDs", &ids, canboard.GetInvalidCANIDsReq{BusEntityID: busID}); err != nil {
		return nil, err
	}
	return ids, nil
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
