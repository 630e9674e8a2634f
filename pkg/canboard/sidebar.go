package canboard

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SidebarItemKind is the variant tag of a sidebar item.
type SidebarItemKind string

const (
	SidebarItemKindGroup         SidebarItemKind = "group"
	SidebarItemKindNetwork       SidebarItemKind = "network"
	SidebarItemKindBus           SidebarItemKind = "bus"
	SidebarItemKindNode          SidebarItemKind = "node"
	SidebarItemKindNodeInterface SidebarItemKind = "node-interface"
	SidebarItemKindMessage       SidebarItemKind = "message"
	SidebarItemKindSignal        SidebarItemKind = "signal"
	SidebarItemKindSignalType    SidebarItemKind = "signal-type"
	SidebarItemKindSignalUnit    SidebarItemKind = "signal-unit"
	SidebarItemKindSignalEnum    SidebarItemKind = "signal-enum"
)

// Validate checks that the kind is one of the defined constants.
func (k SidebarItemKind) Validate() error {
	switch k {
	case SidebarItemKindGroup, SidebarItemKindNetwork, SidebarItemKindBus,
		SidebarItemKindNode, SidebarItemKindNodeInterface, SidebarItemKindMessage,
		SidebarItemKindSignal, SidebarItemKindSignalType, SidebarItemKindSignalUnit,
		SidebarItemKindSignalEnum:
		return nil
	}
	return fmt.Errorf("invalid sidebar item kind: %q", string(k))
}

// Ids of the fixed group items placed directly under the network root.
const (
	SidebarNodeGroupID       = "group-nodes"
	SidebarSignalTypeGroupID = "group-signal-types"
	SidebarSignalUnitGroupID = "group-signal-units"
	SidebarSignalEnumGroupID = "group-signal-enums"
)

// SidebarPathSeparator separates the ids of an item's ancestry path.
const SidebarPathSeparator = "/"

// SidebarItem is one node of the sidebar tree as sent by the backend.
// Path lists the ids from the root down to the item itself, joined by "/".
type SidebarItem struct {
	Kind     SidebarItemKind `json:"kind"`
	ID       string          `json:"id"`
	Path     string          `json:"path"`
	Name     string          `json:"name"`
	Children []SidebarItem   `json:"children"`
}

// Sidebar is the full tree returned by SidebarService.Get.
type Sidebar struct {
	Root SidebarItem `json:"root"`
}

// Validate checks the fields the synchronizer relies on.
func (i SidebarItem) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("sidebar item id cannot be empty")
	}
	if err := i.Kind.Validate(); err != nil {
		return err
	}
	if i.Path == "" {
		return fmt.Errorf("sidebar item %s has an empty path", i.ID)
	}
	segments := strings.Split(i.Path, SidebarPathSeparator)
	if segments[len(segments)-1] != i.ID {
		return fmt.Errorf("sidebar item %s path %q does not end with its id", i.ID, i.Path)
	}
	return nil
}

// NodeInterfaceItemID returns the sidebar id of a node interface.
// Format: {node_entity_id}:{interface_number}
func NodeInterfaceItemID(nodeEntityID string, number int) string {
	return fmt.Sprintf("%s:%d", nodeEntityID, number)
}

// NodeInterfaceItemName returns the display name of a node interface.
func NodeInterfaceItemName(nodeName string, number int) string {
	return fmt.Sprintf("%s:%d", nodeName, number)
}

// SidebarEventType is the tag of a SidebarEvent.
type SidebarEventType string

const (
	EventSidebarLoad       SidebarEventType = "sidebar-load"
	EventSidebarUpdateName SidebarEventType = "sidebar-update-name"
	EventSidebarAdd        SidebarEventType = "sidebar-add"
	EventSidebarDelete     SidebarEventType = "sidebar-delete"
)

// EventHistoryChange is the name of the push event carrying a full History.
const EventHistoryChange = "history-change"

// SidebarUpdateNameEvent reports that an item was renamed.
type SidebarUpdateNameEvent struct {
	UpdatedID string `json:"updatedId"`
	Name      string `json:"name"`
}

// SidebarAddEvent carries a new subtree. AddedItem.Path locates its parent.
type SidebarAddEvent struct {
	AddedItem SidebarItem `json:"addedItem"`
}

// SidebarDeleteEvent reports that an item and its subtree were removed.
type SidebarDeleteEvent struct {
	DeletedID string `json:"deletedId"`
}

// SidebarEvent is the tagged union delivered on the sidebar channel.
// Exactly one payload field is set, matching Type. Load has no payload.
type SidebarEvent struct {
	Type       SidebarEventType
	UpdateName *SidebarUpdateNameEvent
	Add        *SidebarAddEvent
	Delete     *SidebarDeleteEvent
}

// LoadEvent returns a sidebar-load event.
func LoadEvent() SidebarEvent {
	return SidebarEvent{Type: EventSidebarLoad}
}

// UpdateNameEvent returns a sidebar-update-name event.
func UpdateNameEvent(id, name string) SidebarEvent {
	return SidebarEvent{Type: EventSidebarUpdateName, UpdateName: &SidebarUpdateNameEvent{UpdatedID: id, Name: name}}
}

// AddEvent returns a sidebar-add event.
func AddEvent(item SidebarItem) SidebarEvent {
	return SidebarEvent{Type: EventSidebarAdd, Add: &SidebarAddEvent{AddedItem: item}}
}

// DeleteEvent returns a sidebar-delete event.
func DeleteEvent(id string) SidebarEvent {
	return SidebarEvent{Type: EventSidebarDelete, Delete: &SidebarDeleteEvent{DeletedID: id}}
}

// sidebarEnvelope is the wire form of a SidebarEvent.
type sidebarEnvelope struct {
	Type    SidebarEventType `json:"type"`
	Payload json.RawMessage  `json:"payload,omitempty"`
}

// MarshalJSON encodes the event as {"type": ..., "payload": ...}.
func (e SidebarEvent) MarshalJSON() ([]byte, error) {
	var payload any
	switch e.Type {
	case EventSidebarLoad:
	case EventSidebarUpdateName:
		payload = e.UpdateName
	case EventSidebarAdd:
		payload = e.Add
	case EventSidebarDelete:
		payload = e.Delete
	default:
		return nil, fmt.Errorf("unknown sidebar event type: %q", string(e.Type))
	}

	env := sidebarEnvelope{Type: e.Type}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", e.Type, err)
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// UnmarshalJSON decodes the envelope and the payload matching its type.
func (e *SidebarEvent) UnmarshalJSON(data []byte) error {
	var env sidebarEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	decoded := SidebarEvent{Type: env.Type}
	var target any
	switch env.Type {
	case EventSidebarLoad:
	case EventSidebarUpdateName:
		decoded.UpdateName = &SidebarUpdateNameEvent{}
		target = decoded.UpdateName
	case EventSidebarAdd:
		decoded.Add = &SidebarAddEvent{}
		target = decoded.Add
	case EventSidebarDelete:
		decoded.Delete = &SidebarDeleteEvent{}
		target = decoded.Delete
	default:
		return fmt.Errorf("unknown sidebar event type: %q", string(env.Type))
	}

	if target != nil {
		if len(env.Payload) == 0 {
			return fmt.Errorf("%s event has no payload", env.Type)
		}
		if err := json.Unmarshal(env.Payload, target); err != nil {
			return fmt.Errorf("failed to unmarshal %s payload: %w", env.Type, err)
		}
	}

	*e = decoded
	return nil
}
