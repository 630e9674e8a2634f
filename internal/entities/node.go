package entities

import (
	"context"

	"github.com/dyluth/canboard/internal/state"
	"github.com/dyluth/canboard/pkg/canboard"
)

// NodeCache tracks nodes. Removing sent messages also evicts them from the
// message cache.
type NodeCache struct {
	*cache[canboard.Node]
	messages *MessageCache
}

func newNodeCache(inv canboard.Invoker, messages *MessageCache, opts []state.Option) *NodeCache {
	return &NodeCache{
		cache:    newCache[canboard.Node](canboard.KindNode, inv, true, opts),
		messages: messages,
	}
}

func (c *NodeCache) UpdateName(ctx context.Context, id, name string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcNodeUpdateName,
		func(n *canboard.Node) { n.Name = name }, canboard.UpdateNameReq{Name: name})
}

func (c *NodeCache) UpdateDesc(ctx context.Context, id, desc string) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcNodeUpdateDesc,
		func(n *canboard.Node) { n.Desc = desc }, canboard.UpdateDescReq{Desc: desc})
}

// UpdateID sets the numeric node id.
func (c *NodeCache) UpdateID(ctx context.Context, id string, nodeID uint) (<-chan struct{}, error) {
	return c.updateOptimistic(ctx, id, canboard.ProcNodeUpdateID,
		func(n *canboard.Node) { n.NodeID = nodeID }, canboard.UpdateNodeIDReq{NodeID: nodeID})
}

// AttachBus attaches interface number of id to busID.
func (c *NodeCache) AttachBus(ctx context.Context, id string, number int, busID string) (<-chan struct{}, error) {
	return c.update(ctx, id, canboard.ProcNodeAttachBus, canboard.AttachBusReq{InterfaceNumber: number, BusEntityID: busID})
}

// AddSentMessage creates a message sent by interface number of id.
func (c *NodeCache) AddSentMessage(ctx context.Context, id string, number int) (<-chan struct{}, error) {
	return c.update(ctx, id, canboard.ProcNodeAddSentMessage, canboard.AddSentMessageReq{InterfaceNumber: number})
}

// RemoveSentMessages deletes messageIDs sent by interface number of id.
func (c *NodeCache) RemoveSentMessages(ctx context.Context, id string, number int, messageIDs []string) (<-chan struct{}, error) {
	call := c.call(id, canboard.ProcNodeRemoveSentMessages, canboard.RemoveSentMessagesReq{
		InterfaceNumber:  number,
		MessageEntityIDs: messageIDs,
	})
	return c.enqueue(ctx, id, nil, andThen(call, func(canboard.Node) {
		for _, mid := range messageIDs {
			c.messages.Remove(mid)
		}
	}))
}

// GetInvalidIDs returns the node ids already taken by other nodes.
func (c *NodeCache) GetInvalidIDs(ctx context.Context, id string) ([]uint, error) {
	var ids []uint
	if err := c.query(ctx, id, "GetInvalidIDs", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
