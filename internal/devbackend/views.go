package devbackend

import (
	"math/bits"
	"sort"

	"github.com/dyluth/canboard/pkg/canboard"
)

// Views fill in the derived fields of stored entities. They never write to
// the store.

func (s *store) networkView() canboard.Network {
	n := canboard.Network{BaseEntity: s.Network, Buses: []canboard.BusBase{}}
	for _, id := range s.BusOrder {
		n.Buses = append(n.Buses, canboard.BusBase{BaseEntity: s.Buses[id].BaseEntity})
	}
	return n
}

func (s *store) busView(id string) (canboard.Bus, error) {
	b, ok := s.Buses[id]
	if !ok {
		return canboard.Bus{}, notFound(canboard.KindBus, id)
	}

	b.AttachedNodeInterfaces = []canboard.AttachedInterface{}
	for _, nid := range sortedKeys(s.Nodes) {
		n := s.Nodes[nid]
		for _, ni := range n.Interfaces {
			if ni.AttachedBus != nil && ni.AttachedBus.ID == id {
				b.AttachedNodeInterfaces = append(b.AttachedNodeInterfaces, canboard.AttachedInterface{
					Node:   canboard.EntityStub{ID: nid, Name: n.Name},
					Number: ni.Number,
				})
			}
		}
	}
	return b, nil
}

func (s *store) nodeView(id string) (canboard.Node, error) {
	n, ok := s.Nodes[id]
	if !ok {
		return canboard.Node{}, notFound(canboard.KindNode, id)
	}

	ifaces := make([]canboard.NodeInterface, 0, len(n.Interfaces))
	for _, ni := range n.Interfaces {
		out := canboard.NodeInterface{
			Number:           ni.Number,
			SentMessages:     []canboard.EntityStub{},
			ReceivedMessages: []canboard.EntityStub{},
		}
		if ni.AttachedBus != nil {
			out.AttachedBus = &canboard.EntityStub{ID: ni.AttachedBus.ID, Name: s.Buses[ni.AttachedBus.ID].Name}
		}
		for _, m := range ni.SentMessages {
			out.SentMessages = append(out.SentMessages, canboard.EntityStub{ID: m.ID, Name: s.Messages[m.ID].Name})
		}
		ifaces = append(ifaces, out)
	}
	n.Interfaces = ifaces
	return n, nil
}

func (s *store) messageView(id string) (canboard.Message, error) {
	m, ok := s.Messages[id]
	if !ok {
		return canboard.Message{}, notFound(canboard.KindMessage, id)
	}

	m.CANID = s.canID(m)
	m.Receivers = []canboard.EntityStub{}
	signals := make([]canboard.Signal, 0, len(m.Signals))
	for _, sig := range m.Signals {
		signals = append(signals, s.decorateSignal(sig, m))
	}
	m.Signals = signals
	return m, nil
}

func (s *store) signalView(id string) (canboard.Signal, error) {
	mid, i, ok := s.signalOwner(id)
	if !ok {
		return canboard.Signal{}, notFound(canboard.KindSignal, id)
	}
	m := s.Messages[mid]
	return s.decorateSignal(m.Signals[i], m), nil
}

func (s *store) decorateSignal(sig canboard.Signal, parent canboard.Message) canboard.Signal {
	sig.ParentMessage = &canboard.EntityStub{ID: parent.ID, Name: parent.Name}
	if sig.SignalType != nil {
		sig.SignalType = &canboard.EntityStub{ID: sig.SignalType.ID, Name: s.SignalTypes[sig.SignalType.ID].Name}
	}
	if sig.SignalUnit != nil {
		sig.SignalUnit = &canboard.EntityStub{ID: sig.SignalUnit.ID, Name: s.SignalUnits[sig.SignalUnit.ID].Name}
	}
	if sig.SignalEnum != nil {
		sig.SignalEnum = &canboard.EntityStub{ID: sig.SignalEnum.ID, Name: s.SignalEnums[sig.SignalEnum.ID].Name}
	}
	return sig
}

// references lists the signals for which pick returns targetID.
func (s *store) references(targetID string, pick func(canboard.Signal) *canboard.EntityStub) []canboard.SignalReference {
	refs := []canboard.SignalReference{}
	for _, mid := range sortedKeys(s.Messages) {
		m := s.Messages[mid]
		for _, sig := range m.Signals {
			stub := pick(sig)
			if stub == nil || stub.ID != targetID {
				continue
			}
			ref := canboard.SignalReference{
				Message: canboard.EntityStub{ID: m.ID, Name: m.Name},
				Signal:  canboard.EntityStub{ID: sig.ID, Name: sig.Name},
			}
			if loc, ok := s.senderOf(mid); ok {
				n := s.Nodes[loc.node]
				ref.Node = canboard.EntityStub{ID: n.ID, Name: n.Name}
				if ni, err := s.iface(loc.node, loc.number); err == nil && ni.AttachedBus != nil {
					ref.Bus = canboard.EntityStub{ID: ni.AttachedBus.ID, Name: s.Buses[ni.AttachedBus.ID].Name}
				}
			}
			refs = append(refs, ref)
		}
	}
	return refs
}

func (s *store) signalTypeView(id string) (canboard.SignalType, error) {
	t, ok := s.SignalTypes[id]
	if !ok {
		return canboard.SignalType{}, notFound(canboard.KindSignalType, id)
	}
	t.References = s.references(id, func(sig canboard.Signal) *canboard.EntityStub { return sig.SignalType })
	t.ReferenceCount = len(t.References)
	return t, nil
}

func (s *store) signalUnitView(id string) (canboard.SignalUnit, error) {
	u, ok := s.SignalUnits[id]
	if !ok {
		return canboard.SignalUnit{}, notFound(canboard.KindSignalUnit, id)
	}
	u.References = s.references(id, func(sig canboard.Signal) *canboard.EntityStub { return sig.SignalUnit })
	u.ReferenceCount = len(u.References)
	return u, nil
}

func (s *store) signalEnumView(id string) (canboard.SignalEnum, error) {
	e, ok := s.SignalEnums[id]
	if !ok {
		return canboard.SignalEnum{}, notFound(canboard.KindSignalEnum, id)
	}
	e.Values = append([]canboard.SignalEnumValue{}, e.Values...)
	e.MaxIndex = 0
	for _, v := range e.Values {
		if v.Index > e.MaxIndex {
			e.MaxIndex = v.Index
		}
	}
	e.MinSize = max(bits.Len(uint(e.MaxIndex)), 1)
	e.References = s.references(id, func(sig canboard.Signal) *canboard.EntityStub { return sig.SignalEnum })
	e.ReferenceCount = len(e.References)
	return e, nil
}

// view returns the snapshot of kind/id as clients see it.
func (s *store) view(kind canboard.EntityKind, id string) (canboard.Entity, error) {
	switch kind {
	case canboard.KindNetwork:
		return s.networkView(), nil
	case canboard.KindBus:
		return s.busView(id)
	case canboard.KindNode:
		return s.nodeView(id)
	case canboard.KindMessage:
		return s.messageView(id)
	case canboard.KindSignal:
		return s.signalView(id)
	case canboard.KindSignalType:
		return s.signalTypeView(id)
	case canboard.KindSignalUnit:
		return s.signalUnitView(id)
	case canboard.KindSignalEnum:
		return s.signalEnumView(id)
	}
	return nil, kind.Validate()
}

type entityKey struct {
	kind canboard.EntityKind
	id   string
}

// ids returns the key of every stored entity.
func (s *store) ids() []entityKey {
	keys := []entityKey{{canboard.KindNetwork, s.Network.ID}}
	for _, id := range s.BusOrder {
		keys = append(keys, entityKey{canboard.KindBus, id})
	}
	for _, id := range sortedKeys(s.Nodes) {
		keys = append(keys, entityKey{canboard.KindNode, id})
	}
	for _, id := range sortedKeys(s.Messages) {
		keys = append(keys, entityKey{canboard.KindMessage, id})
		for _, sig := range s.Messages[id].Signals {
			keys = append(keys, entityKey{canboard.KindSignal, sig.ID})
		}
	}
	for _, id := range sortedKeys(s.SignalTypes) {
		keys = append(keys, entityKey{canboard.KindSignalType, id})
	}
	for _, id := range sortedKeys(s.SignalUnits) {
		keys = append(keys, entityKey{canboard.KindSignalUnit, id})
	}
	for _, id := range sortedKeys(s.SignalEnums) {
		keys = append(keys, entityKey{canboard.KindSignalEnum, id})
	}
	return keys
}

// Sidebar tree. Item paths join the ids from the network down to the item.

func (s *store) sidebar() canboard.SidebarItem {
	root := sidebarItem(canboard.SidebarItemKindNetwork, s.Network.ID, s.Network.Name, "")

	nodes := group(canboard.SidebarNodeGroupID, "Nodes", root.Path)
	for _, id := range sortedKeys(s.Nodes) {
		nodes.Children = append(nodes.Children, sidebarItem(canboard.SidebarItemKindNode, id, s.Nodes[id].Name, nodes.Path))
	}
	types := group(canboard.SidebarSignalTypeGroupID, "Signal Types", root.Path)
	for _, id := range sortedKeys(s.SignalTypes) {
		types.Children = append(types.Children, sidebarItem(canboard.SidebarItemKindSignalType, id, s.SignalTypes[id].Name, types.Path))
	}
	units := group(canboard.SidebarSignalUnitGroupID, "Signal Units", root.Path)
	for _, id := range sortedKeys(s.SignalUnits) {
		units.Children = append(units.Children, sidebarItem(canboard.SidebarItemKindSignalUnit, id, s.SignalUnits[id].Name, units.Path))
	}
	enums := group(canboard.SidebarSignalEnumGroupID, "Signal Enums", root.Path)
	for _, id := range sortedKeys(s.SignalEnums) {
		enums.Children = append(enums.Children, sidebarItem(canboard.SidebarItemKindSignalEnum, id, s.SignalEnums[id].Name, enums.Path))
	}
	root.Children = append(root.Children, nodes, types, units, enums)

	for _, id := range s.BusOrder {
		root.Children = append(root.Children, s.busItem(id, root.Path))
	}
	return root
}

func (s *store) busItem(id, parentPath string) canboard.SidebarItem {
	item := sidebarItem(canboard.SidebarItemKindBus, id, s.Buses[id].Name, parentPath)
	for _, nid := range sortedKeys(s.Nodes) {
		for _, ni := range s.Nodes[nid].Interfaces {
			if ni.AttachedBus != nil && ni.AttachedBus.ID == id {
				item.Children = append(item.Children, s.interfaceItem(nid, ni, item.Path))
			}
		}
	}
	return item
}

func (s *store) interfaceItem(nodeID string, ni canboard.NodeInterface, parentPath string) canboard.SidebarItem {
	item := sidebarItem(canboard.SidebarItemKindNodeInterface,
		canboard.NodeInterfaceItemID(nodeID, ni.Number),
		canboard.NodeInterfaceItemName(s.Nodes[nodeID].Name, ni.Number),
		parentPath)
	for _, m := range ni.SentMessages {
		item.Children = append(item.Children, s.messageItem(m.ID, item.Path))
	}
	return item
}

func (s *store) messageItem(id, parentPath string) canboard.SidebarItem {
	m := s.Messages[id]
	item := sidebarItem(canboard.SidebarItemKindMessage, id, m.Name, parentPath)
	for _, sig := range m.Signals {
		item.Children = append(item.Children, sidebarItem(canboard.SidebarItemKindSignal, sig.ID, sig.Name, item.Path))
	}
	return item
}

// messagePath returns the sidebar path of a message, or false when its
// interface is not attached to a bus and the message is not in the tree.
func (s *store) messagePath(messageID string) (string, bool) {
	loc, ok := s.senderOf(messageID)
	if !ok {
		return "", false
	}
	ni, err := s.iface(loc.node, loc.number)
	if err != nil || ni.AttachedBus == nil {
		return "", false
	}
	return joinPath(s.Network.ID, ni.AttachedBus.ID, canboard.NodeInterfaceItemID(loc.node, loc.number), messageID), true
}

func sidebarItem(kind canboard.SidebarItemKind, id, name, parentPath string) canboard.SidebarItem {
	return canboard.SidebarItem{Kind: kind, ID: id, Path: joinPath(parentPath, id), Name: name, Children: []canboard.SidebarItem{}}
}

func group(id, name, parentPath string) canboard.SidebarItem {
	return sidebarItem(canboard.SidebarItemKindGroup, id, name, parentPath)
}

func joinPath(segments ...string) string {
	out := ""
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if out != "" {
			out += canboard.SidebarPathSeparator
		}
		out += seg
	}
	return out
}

// busLoad estimates the load of a bus in percent from the cyclic messages
// sent on it, counting a worst-case standard frame of 47 + 8*size bits.
func (s *store) busLoad(busID string) float64 {
	b := s.Buses[busID]
	if b.Baudrate <= 0 {
		return 0
	}

	var bitsPerSecond float64
	for _, nid := range sortedKeys(s.Nodes) {
		for _, ni := range s.Nodes[nid].Interfaces {
			if ni.AttachedBus == nil || ni.AttachedBus.ID != busID {
				continue
			}
			for _, stub := range ni.SentMessages {
				m := s.Messages[stub.ID]
				if m.CycleTime <= 0 || m.SendType == canboard.SendTypeUnset {
					continue
				}
				frameBits := float64(47 + 8*m.SizeByte)
				bitsPerSecond += frameBits * 1000 / float64(m.CycleTime)
			}
		}
	}
	return bitsPerSecond / float64(b.Baudrate) * 100
}

func sortedNames(names map[string]bool) []string {
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
