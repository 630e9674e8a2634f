package devbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/dyluth/canboard/pkg/canboard"
)

// Procedures changing the bus topology: the network, its buses and the nodes
// attached to them.

const (
	defaultBaudrate = 500000
	maxBaudrate     = 1000000
	maxSizeByte     = 8
)

func (b *Backend) registerNetwork(srv *canboard.Server) {
	b.registerMutation(srv, canboard.KindNetwork, "AddBus", noReq(func(st *store, _ string) ([]canboard.SidebarEvent, error) {
		var taken []string
		for _, bus := range st.Buses {
			taken = append(taken, bus.Name)
		}

		id := newID("bus")
		st.Buses[id] = canboard.Bus{
			BaseEntity: base(id, nextName("bus", taken), "", time.Now().UTC()),
			Type:       canboard.BusTypeCAN2A,
			Baudrate:   defaultBaudrate,
		}
		st.BusOrder = append(st.BusOrder, id)
		return []canboard.SidebarEvent{canboard.AddEvent(st.busItem(id, st.Network.ID))}, nil
	}))

	b.registerMutation(srv, canboard.KindNetwork, "DeleteBus", withReq(func(st *store, _ string, req canboard.DeleteBusReq) ([]canboard.SidebarEvent, error) {
		if _, ok := st.Buses[req.BusEntityID]; !ok {
			return nil, notFound(canboard.KindBus, req.BusEntityID)
		}

		for nid, n := range st.Nodes {
			for i := range n.Interfaces {
				if n.Interfaces[i].AttachedBus != nil && n.Interfaces[i].AttachedBus.ID == req.BusEntityID {
					n.Interfaces[i].AttachedBus = nil
				}
			}
			st.Nodes[nid] = n
		}
		delete(st.Buses, req.BusEntityID)
		st.BusOrder = slices.DeleteFunc(st.BusOrder, func(id string) bool { return id == req.BusEntityID })
		return []canboard.SidebarEvent{canboard.DeleteEvent(req.BusEntityID)}, nil
	}))
}

func (b *Backend) registerBus(srv *canboard.Server) {
	srv.Handle(canboard.ProcBusListBase, func(_ context.Context, _ []json.RawMessage) (any, error) {
		return b.read(canboard.ProcBusListBase, func(st *store) (any, error) {
			return st.networkView().Buses, nil
		})
	})

	b.registerQuery(srv, canboard.KindBus, "GetLoad", func(st *store, id string, _ []json.RawMessage) (any, error) {
		if _, ok := st.Buses[id]; !ok {
			return nil, notFound(canboard.KindBus, id)
		}
		return st.busLoad(id), nil
	})

	b.registerMutation(srv, canboard.KindBus, "UpdateBusType", withReq(func(st *store, id string, req canboard.UpdateBusTypeReq) ([]canboard.SidebarEvent, error) {
		if req.Type != canboard.BusTypeCAN2A {
			return nil, fmt.Errorf("unsupported bus type %q", req.Type)
		}
		return nil, edit(st.Buses, canboard.KindBus, id, func(bus *canboard.Bus) error {
			bus.Type = req.Type
			return nil
		})
	}))

	b.registerMutation(srv, canboard.KindBus, "UpdateBaudrate", withReq(func(st *store, id string, req canboard.UpdateBaudrateReq) ([]canboard.SidebarEvent, error) {
		if req.Baudrate <= 0 || req.Baudrate > maxBaudrate {
			return nil, fmt.Errorf("baudrate %d out of range (1-%d)", req.Baudrate, maxBaudrate)
		}
		return nil, edit(st.Buses, canboard.KindBus, id, func(bus *canboard.Bus) error {
			bus.Baudrate = req.Baudrate
			return nil
		})
	}))
}

func (b *Backend) registerNode(srv *canboard.Server) {
	b.registerQuery(srv, canboard.KindNode, "GetInvalidIDs", func(st *store, id string, _ []json.RawMessage) (any, error) {
		if _, ok := st.Nodes[id]; !ok {
			return nil, notFound(canboard.KindNode, id)
		}
		return takenNodeIDs(st, id), nil
	})

	b.registerMutation(srv, canboard.KindNode, "UpdateID", withReq(func(st *store, id string, req canboard.UpdateNodeIDReq) ([]canboard.SidebarEvent, error) {
		if slices.Contains(takenNodeIDs(st, id), req.NodeID) {
			return nil, fmt.Errorf("node id %d is already taken", req.NodeID)
		}
		return nil, edit(st.Nodes, canboard.KindNode, id, func(n *canboard.Node) error {
			n.NodeID = req.NodeID
			return nil
		})
	}))

	b.registerMutation(srv, canboard.KindNode, "AttachBus", withReq(func(st *store, id string, req canboard.AttachBusReq) ([]canboard.SidebarEvent, error) {
		if req.BusEntityID != "" {
			if _, ok := st.Buses[req.BusEntityID]; !ok {
				return nil, notFound(canboard.KindBus, req.BusEntityID)
			}
		}
		ni, err := st.iface(id, req.InterfaceNumber)
		if err != nil {
			return nil, err
		}

		itemID := canboard.NodeInterfaceItemID(id, req.InterfaceNumber)
		var events []canboard.SidebarEvent
		if ni.AttachedBus != nil {
			if ni.AttachedBus.ID == req.BusEntityID {
				return nil, fmt.Errorf("interface %s is already attached to %s", itemID, req.BusEntityID)
			}
			events = append(events, canboard.DeleteEvent(itemID))
		}

		ni.AttachedBus = nil
		if req.BusEntityID != "" {
			ni.AttachedBus = &canboard.EntityStub{ID: req.BusEntityID}
			busPath := joinPath(st.Network.ID, req.BusEntityID)
			events = append(events, canboard.AddEvent(st.interfaceItem(id, *ni, busPath)))
		}
		return events, nil
	}))

	b.registerMutation(srv, canboard.KindNode, "AddSentMessage", withReq(func(st *store, id string, req canboard.AddSentMessageReq) ([]canboard.SidebarEvent, error) {
		ni, err := st.iface(id, req.InterfaceNumber)
		if err != nil {
			return nil, err
		}

		var names []string
		for _, m := range st.Messages {
			names = append(names, m.Name)
		}
		mid := newID("msg")
		st.Messages[mid] = canboard.Message{
			BaseEntity: base(mid, nextName("message", names), "", time.Now().UTC()),
			MessageID:  nextMessageID(st, id),
			SizeByte:   maxSizeByte,
			ByteOrder:  canboard.ByteOrderLittleEndian,
			SendType:   canboard.SendTypeUnset,
			Signals:    []canboard.Signal{},
		}
		ni.SentMessages = append(ni.SentMessages, canboard.EntityStub{ID: mid})

		if ni.AttachedBus == nil {
			return nil, nil
		}
		ifacePath := joinPath(st.Network.ID, ni.AttachedBus.ID, canboard.NodeInterfaceItemID(id, req.InterfaceNumber))
		return []canboard.SidebarEvent{canboard.AddEvent(st.messageItem(mid, ifacePath))}, nil
	}))

	b.registerMutation(srv, canboard.KindNode, "RemoveSentMessages", withReq(func(st *store, id string, req canboard.RemoveSentMessagesReq) ([]canboard.SidebarEvent, error) {
		ni, err := st.iface(id, req.InterfaceNumber)
		if err != nil {
			return nil, err
		}
		for _, mid := range req.MessageEntityIDs {
			if !slices.ContainsFunc(ni.SentMessages, func(m canboard.EntityStub) bool { return m.ID == mid }) {
				return nil, fmt.Errorf("message %s is not sent by %s", mid, canboard.NodeInterfaceItemID(id, req.InterfaceNumber))
			}
		}

		var events []canboard.SidebarEvent
		for _, mid := range req.MessageEntityIDs {
			if _, inTree := st.messagePath(mid); inTree {
				events = append(events, canboard.DeleteEvent(mid))
			}
		}
		ni.SentMessages = slices.DeleteFunc(ni.SentMessages, func(m canboard.EntityStub) bool {
			return slices.Contains(req.MessageEntityIDs, m.ID)
		})
		for _, mid := range req.MessageEntityIDs {
			delete(st.Messages, mid)
		}
		return events, nil
	}))
}

func takenNodeIDs(st *store, id string) []uint {
	var ids []uint
	for _, nid := range sortedKeys(st.Nodes) {
		if nid != id {
			ids = append(ids, st.Nodes[nid].NodeID)
		}
	}
	return ids
}

// messagesOf returns the ids of the messages sent by any interface of node.
func messagesOf(st *store, nodeID string) []string {
	var ids []string
	for _, ni := range st.Nodes[nodeID].Interfaces {
		for _, m := range ni.SentMessages {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func nextMessageID(st *store, nodeID string) uint {
	var next uint
	for _, mid := range messagesOf(st, nodeID) {
		if id := st.Messages[mid].MessageID; id >= next {
			next = id + 1
		}
	}
	return next
}
