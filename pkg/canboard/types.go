package canboard

import (
	"fmt"
	"time"
)

// Entity is any backend object identified by an entity id.
// Snapshots are values: a change never edits a held snapshot, the backend
// returns a new one.
type Entity interface {
	EntityID() string
}

// BaseEntity holds the fields every entity carries.
type BaseEntity struct {
	ID         string    `json:"entityId"`
	Name       string    `json:"name"`
	Desc       string    `json:"desc"`
	CreateTime time.Time `json:"createTime"`
}

// EntityID implements Entity.
func (b BaseEntity) EntityID() string { return b.ID }

// EntityStub is a reference to another entity by id and display name.
type EntityStub struct {
	ID   string `json:"entityId"`
	Name string `json:"name"`
}

// EntityKind identifies one of the entity families the backend manages.
type EntityKind string

const (
	KindNetwork    EntityKind = "network"
	KindBus        EntityKind = "bus"
	KindNode       EntityKind = "node"
	KindMessage    EntityKind = "message"
	KindSignal     EntityKind = "signal"
	KindSignalType EntityKind = "signal-type"
	KindSignalUnit EntityKind = "signal-unit"
	KindSignalEnum EntityKind = "signal-enum"
)

// EntityKinds lists every kind in containment order.
var EntityKinds = []EntityKind{
	KindNetwork, KindBus, KindNode, KindMessage,
	KindSignal, KindSignalType, KindSignalUnit, KindSignalEnum,
}

// Validate checks that the kind is one of the defined constants.
func (k EntityKind) Validate() error {
	for _, known := range EntityKinds {
		if k == known {
			return nil
		}
	}
	return fmt.Errorf("invalid entity kind: %q", string(k))
}

// Service returns the name of the backend service owning this kind.
func (k EntityKind) Service() string {
	switch k {
	case KindNetwork:
		return "NetworkService"
	case KindBus:
		return "BusService"
	case KindNode:
		return "NodeService"
	case KindMessage:
		return "MessageService"
	case KindSignal:
		return "SignalService"
	case KindSignalType:
		return "SignalTypeService"
	case KindSignalUnit:
		return "SignalUnitService"
	case KindSignalEnum:
		return "SignalEnumService"
	}
	return ""
}

// ModifyEvent returns the name of the push event carrying snapshots of this kind.
func (k EntityKind) ModifyEvent() string {
	return fmt.Sprintf("history-%s-modify", k)
}

// Network is the root entity. There is exactly one per session.
type Network struct {
	BaseEntity
	Buses []BusBase `json:"buses"`
}

// BusBase is the summary of a bus used in listings.
type BusBase struct {
	BaseEntity
}

// BusType is the physical layer of a bus.
type BusType string

const (
	BusTypeCAN2A BusType = "CAN_2.0A"
)

// Bus is a CAN bus and the node interfaces attached to it.
type Bus struct {
	BaseEntity
	Type                   BusType             `json:"type"`
	Baudrate               int                 `json:"baudrate"`
	AttachedNodeInterfaces []AttachedInterface `json:"attachedNodeInterfaces"`
}

// AttachedInterface is a node interface as seen from the bus it is attached to.
type AttachedInterface struct {
	Node   EntityStub `json:"node"`
	Number int        `json:"number"`
}

// Node is an ECU. It owns one or more interfaces.
type Node struct {
	BaseEntity
	NodeID     uint            `json:"id"`
	Interfaces []NodeInterface `json:"interfaces"`
}

// NodeInterface is one CAN port of a node.
type NodeInterface struct {
	Number           int          `json:"number"`
	AttachedBus      *EntityStub  `json:"attachedBus,omitempty"`
	SentMessages     []EntityStub `json:"sentMessages"`
	ReceivedMessages []EntityStub `json:"receivedMessages"`
}

// MessageByteOrder is the byte order of the signals laid out in a message.
type MessageByteOrder string

const (
	ByteOrderLittleEndian MessageByteOrder = "little-endian"
	ByteOrderBigEndian    MessageByteOrder = "big-endian"
)

// MessageSendType describes when a message is transmitted.
type MessageSendType string

const (
	SendTypeUnset                      MessageSendType = "unset"
	SendTypeCyclic                     MessageSendType = "cyclic"
	SendTypeCyclicIfActive             MessageSendType = "cyclic-if-active"
	SendTypeCyclicAndTriggered         MessageSendType = "cyclic-and-triggered"
	SendTypeCyclicIfActiveAndTriggered MessageSendType = "cyclic-if-active-and-triggered"
)

// Message is a CAN frame sent by a node interface.
type Message struct {
	BaseEntity
	MessageID      uint             `json:"id"`
	HasStaticCANID bool             `json:"hasStaticCANID"`
	CANID          uint             `json:"canId"`
	SizeByte       int              `json:"sizeByte"`
	ByteOrder      MessageByteOrder `json:"byteOrder"`
	Signals        []Signal         `json:"signals"`
	Receivers      []EntityStub     `json:"receivers"`
	CycleTime      int              `json:"cycleTime"`
	SendType       MessageSendType  `json:"sendType"`
	DelayTime      int              `json:"delayTime"`
	StartDelayTime int              `json:"startDelayTime"`
}

// SignalKind distinguishes the signal variants.
type SignalKind string

const (
	SignalKindStandard    SignalKind = "standard"
	SignalKindEnum        SignalKind = "enum"
	SignalKindMultiplexer SignalKind = "multiplexer"
)

// Validate checks that the kind is one of the defined constants.
func (k SignalKind) Validate() error {
	switch k {
	case SignalKindStandard, SignalKindEnum, SignalKindMultiplexer:
		return nil
	}
	return fmt.Errorf("invalid signal kind: %q", string(k))
}

// Signal is a bit range inside a message.
type Signal struct {
	BaseEntity
	Kind          SignalKind  `json:"kind"`
	StartPos      int         `json:"startPos"`
	Size          int         `json:"size"`
	ParentMessage *EntityStub `json:"parentMessage,omitempty"`
	SignalType    *EntityStub `json:"signalType,omitempty"`
	SignalUnit    *EntityStub `json:"signalUnit,omitempty"`
	SignalEnum    *EntityStub `json:"signalEnum,omitempty"`
}

// SignalReference locates a signal that uses a type, unit or enum.
type SignalReference struct {
	Bus     EntityStub `json:"bus"`
	Node    EntityStub `json:"node"`
	Message EntityStub `json:"message"`
	Signal  EntityStub `json:"signal"`
}

// SignalTypeKind is the value domain of a signal type.
type SignalTypeKind string

const (
	SignalTypeKindCustom  SignalTypeKind = "custom"
	SignalTypeKindFlag    SignalTypeKind = "flag"
	SignalTypeKindInteger SignalTypeKind = "integer"
	SignalTypeKindDecimal SignalTypeKind = "decimal"
)

// SignalType describes how raw signal bits map to a physical value.
type SignalType struct {
	BaseEntity
	Kind           SignalTypeKind    `json:"kind"`
	Size           int               `json:"size"`
	Signed         bool              `json:"signed"`
	Min            float64           `json:"min"`
	Max            float64           `json:"max"`
	Scale          float64           `json:"scale"`
	Offset         float64           `json:"offset"`
	ReferenceCount int               `json:"referenceCount"`
	References     []SignalReference `json:"references"`
}

// SignalUnitKind groups units by physical quantity.
type SignalUnitKind string

const (
	SignalUnitKindCustom      SignalUnitKind = "custom"
	SignalUnitKindTemperature SignalUnitKind = "temperature"
	SignalUnitKindElectrical  SignalUnitKind = "electrical"
	SignalUnitKindPower       SignalUnitKind = "power"
)

// SignalUnit is the physical unit attached to standard signals.
type SignalUnit struct {
	BaseEntity
	Kind           SignalUnitKind    `json:"kind"`
	Symbol         string            `json:"symbol"`
	ReferenceCount int               `json:"referenceCount"`
	References     []SignalReference `json:"references"`
}

// SignalEnumValue is one named value of an enum.
type SignalEnumValue struct {
	BaseEntity
	Index int `json:"index"`
}

// SignalEnum is a set of named values used by enum signals.
type SignalEnum struct {
	BaseEntity
	Size           int               `json:"size"`
	MinSize        int               `json:"minSize"`
	MaxIndex       int               `json:"maxIndex"`
	Values         []SignalEnumValue `json:"values"`
	ReferenceCount int               `json:"referenceCount"`
	References     []SignalReference `json:"references"`
}

// History is the state of the backend undo stack. It is always sent whole.
type History struct {
	OperationCount int  `json:"operationCount"`
	CurrentIndex   int  `json:"currentIndex"`
	Saved          bool `json:"saved"`
}

// EmptyHistory is the history of a session with no operations.
var EmptyHistory = History{OperationCount: 0, CurrentIndex: -1, Saved: true}

// CanUndo reports whether there is an applied operation to revert.
func (h History) CanUndo() bool {
	return h.OperationCount > 0 && h.CurrentIndex > -1
}

// CanRedo reports whether there is a reverted operation to re-apply.
func (h History) CanRedo() bool {
	return h.CurrentIndex < h.OperationCount-1
}

// Validate checks the index is within the bounds of the operation count.
func (h History) Validate() error {
	if h.OperationCount < 0 {
		return fmt.Errorf("operation count cannot be negative: %d", h.OperationCount)
	}
	if h.CurrentIndex < -1 || h.CurrentIndex >= h.OperationCount {
		return fmt.Errorf("current index %d out of range for %d operations", h.CurrentIndex, h.OperationCount)
	}
	return nil
}
