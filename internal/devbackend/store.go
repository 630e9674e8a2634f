package devbackend

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dyluth/canboard/pkg/canboard"
)

// store is the whole editable network. Signals live inside their message.
// Derived fields (bus attachments, references, stub names) are computed by
// the view functions and never stored.
type store struct {
	Network     canboard.BaseEntity            `json:"network"`
	BusOrder    []string                       `json:"busOrder"`
	Buses       map[string]canboard.Bus        `json:"buses"`
	Nodes       map[string]canboard.Node       `json:"nodes"`
	Messages    map[string]canboard.Message    `json:"messages"`
	SignalTypes map[string]canboard.SignalType `json:"signalTypes"`
	SignalUnits map[string]canboard.SignalUnit `json:"signalUnits"`
	SignalEnums map[string]canboard.SignalEnum `json:"signalEnums"`
}

func newStore() *store {
	return &store{
		Buses:       make(map[string]canboard.Bus),
		Nodes:       make(map[string]canboard.Node),
		Messages:    make(map[string]canboard.Message),
		SignalTypes: make(map[string]canboard.SignalType),
		SignalUnits: make(map[string]canboard.SignalUnit),
		SignalEnums: make(map[string]canboard.SignalEnum),
	}
}

// clone deep-copies the store through its JSON form.
func (s *store) clone() *store {
	data, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("devbackend: store is not serializable: %v", err))
	}
	out := newStore()
	if err := json.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("devbackend: store round trip failed: %v", err))
	}
	return out
}

func base(id, name, desc string, created time.Time) canboard.BaseEntity {
	return canboard.BaseEntity{ID: id, Name: name, Desc: desc, CreateTime: created}
}

// sampleStore returns a small two-bus vehicle network.
func sampleStore(now time.Time) *store {
	s := newStore()
	s.Network = base("net", "Vehicle", "sample network", now)

	s.Buses["bus-pt"] = canboard.Bus{BaseEntity: base("bus-pt", "Powertrain", "", now), Type: canboard.BusTypeCAN2A, Baudrate: 500000}
	s.Buses["bus-body"] = canboard.Bus{BaseEntity: base("bus-body", "Body", "", now), Type: canboard.BusTypeCAN2A, Baudrate: 125000}
	s.BusOrder = []string{"bus-pt", "bus-body"}

	s.SignalTypes["st-u8"] = canboard.SignalType{BaseEntity: base("st-u8", "uint8", "", now), Kind: canboard.SignalTypeKindInteger, Size: 8, Min: 0, Max: 255, Scale: 1}
	s.SignalTypes["st-flag"] = canboard.SignalType{BaseEntity: base("st-flag", "flag", "", now), Kind: canboard.SignalTypeKindFlag, Size: 1, Min: 0, Max: 1, Scale: 1}
	s.SignalUnits["su-kmh"] = canboard.SignalUnit{BaseEntity: base("su-kmh", "speed", "", now), Kind: canboard.SignalUnitKindCustom, Symbol: "km/h"}
	s.SignalUnits["su-degc"] = canboard.SignalUnit{BaseEntity: base("su-degc", "celsius", "", now), Kind: canboard.SignalUnitKindTemperature, Symbol: "°C"}
	s.SignalEnums["se-gear"] = canboard.SignalEnum{
		BaseEntity: base("se-gear", "gear", "", now),
		Size:       3,
		Values: []canboard.SignalEnumValue{
			{BaseEntity: base("sev-p", "park", "", now), Index: 0},
			{BaseEntity: base("sev-r", "reverse", "", now), Index: 1},
			{BaseEntity: base("sev-n", "neutral", "", now), Index: 2},
			{BaseEntity: base("sev-d", "drive", "", now), Index: 3},
		},
	}

	stub := func(id, name string) *canboard.EntityStub { return &canboard.EntityStub{ID: id, Name: name} }

	s.Messages["msg-speed"] = canboard.Message{
		BaseEntity: base("msg-speed", "vehicle_speed", "", now),
		MessageID:  1,
		SizeByte:   8,
		ByteOrder:  canboard.ByteOrderLittleEndian,
		CycleTime:  10,
		SendType:   canboard.SendTypeCyclic,
		Signals: []canboard.Signal{
			{BaseEntity: base("sig-speed", "speed", "", now), Kind: canboard.SignalKindStandard, Size: 8, SignalType: stub("st-u8", ""), SignalUnit: stub("su-kmh", "")},
			{BaseEntity: base("sig-gear", "gear", "", now), Kind: canboard.SignalKindEnum, StartPos: 8, Size: 3, SignalEnum: stub("se-gear", "")},
		},
	}
	s.Messages["msg-temp"] = canboard.Message{
		BaseEntity: base("msg-temp", "engine_temp", "", now),
		MessageID:  2,
		SizeByte:   2,
		ByteOrder:  canboard.ByteOrderLittleEndian,
		CycleTime:  100,
		SendType:   canboard.SendTypeCyclic,
		Signals: []canboard.Signal{
			{BaseEntity: base("sig-coolant", "coolant", "", now), Kind: canboard.SignalKindStandard, Size: 8, SignalType: stub("st-u8", ""), SignalUnit: stub("su-degc", "")},
		},
	}
	s.Messages["msg-doors"] = canboard.Message{
		BaseEntity: base("msg-doors", "door_status", "", now),
		MessageID:  1,
		SizeByte:   1,
		ByteOrder:  canboard.ByteOrderLittleEndian,
		SendType:   canboard.SendTypeUnset,
		Signals: []canboard.Signal{
			{BaseEntity: base("sig-door-fl", "front_left", "", now), Kind: canboard.SignalKindStandard, Size: 1, SignalType: stub("st-flag", "")},
		},
	}

	s.Nodes["node-ecu"] = canboard.Node{
		BaseEntity: base("node-ecu", "ECU", "engine control", now),
		NodeID:     1,
		Interfaces: []canboard.NodeInterface{
			{Number: 0, AttachedBus: stub("bus-pt", ""), SentMessages: []canboard.EntityStub{{ID: "msg-speed"}, {ID: "msg-temp"}}},
		},
	}
	s.Nodes["node-bcm"] = canboard.Node{
		BaseEntity: base("node-bcm", "BCM", "body control", now),
		NodeID:     2,
		Interfaces: []canboard.NodeInterface{
			{Number: 0, AttachedBus: stub("bus-body", ""), SentMessages: []canboard.EntityStub{{ID: "msg-doors"}}},
			{Number: 1},
		},
	}
	return s
}

// messageLocation is where a message is sent from.
type messageLocation struct {
	node   string
	number int
}

func (s *store) senderOf(messageID string) (messageLocation, bool) {
	for _, nid := range sortedKeys(s.Nodes) {
		for _, ni := range s.Nodes[nid].Interfaces {
			for _, m := range ni.SentMessages {
				if m.ID == messageID {
					return messageLocation{node: nid, number: ni.Number}, true
				}
			}
		}
	}
	return messageLocation{}, false
}

// signalOwner returns the id of the message holding signalID.
func (s *store) signalOwner(signalID string) (string, int, bool) {
	for _, mid := range sortedKeys(s.Messages) {
		for i, sig := range s.Messages[mid].Signals {
			if sig.ID == signalID {
				return mid, i, true
			}
		}
	}
	return "", 0, false
}

// iface points into the stored node's interface slice.
func (s *store) iface(nodeID string, number int) (*canboard.NodeInterface, error) {
	n, ok := s.Nodes[nodeID]
	if !ok {
		return nil, notFound(canboard.KindNode, nodeID)
	}
	for i := range n.Interfaces {
		if n.Interfaces[i].Number == number {
			return &n.Interfaces[i], nil
		}
	}
	return nil, fmt.Errorf("node %s has no interface %d", nodeID, number)
}

// canID returns the CAN id a message is sent with. Without a static id it is
// derived from the sending node id and the message id.
func (s *store) canID(m canboard.Message) uint {
	if m.HasStaticCANID {
		return m.CANID
	}
	loc, ok := s.senderOf(m.ID)
	if !ok {
		return m.MessageID
	}
	return s.Nodes[loc.node].NodeID<<7 | m.MessageID
}

func notFound(kind canboard.EntityKind, id string) error {
	return fmt.Errorf("%s %s not found", kind, id)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
