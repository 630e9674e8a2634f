package sidebar

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dyluth/canboard/pkg/canboard"
)

var (
	// ErrNothingSelected is returned by actions that need a selected item.
	ErrNothingSelected = errors.New("no sidebar item selected")

	// ErrWrongSelection is returned when the selected item does not support
	// the requested action.
	ErrWrongSelection = errors.New("action not available for the selected item")
)

// Panel names the editor shown for a sidebar item.
type Panel string

const (
	PanelNone       Panel = ""
	PanelBus        Panel = "bus"
	PanelNode       Panel = "node"
	PanelMessage    Panel = "message"
	PanelSignal     Panel = "signal"
	PanelSignalType Panel = "signal_type"
	PanelSignalUnit Panel = "signal_unit"
	PanelSignalEnum Panel = "signal_enum"
)

// PanelFor returns the editor for items of kind. Node interfaces open their node.
func PanelFor(kind canboard.SidebarItemKind) Panel {
	switch kind {
	case canboard.SidebarItemKindBus:
		return PanelBus
	case canboard.SidebarItemKindNode, canboard.SidebarItemKindNodeInterface:
		return PanelNode
	case canboard.SidebarItemKindMessage:
		return PanelMessage
	case canboard.SidebarItemKindSignal:
		return PanelSignal
	case canboard.SidebarItemKindSignalType:
		return PanelSignalType
	case canboard.SidebarItemKindSignalUnit:
		return PanelSignalUnit
	case canboard.SidebarItemKindSignalEnum:
		return PanelSignalEnum
	}
	return PanelNone
}

// GroupKind returns the kind of the items grouped under groupID.
func GroupKind(groupID string) (canboard.SidebarItemKind, bool) {
	switch groupID {
	case canboard.SidebarNodeGroupID:
		return canboard.SidebarItemKindNode, true
	case canboard.SidebarSignalTypeGroupID:
		return canboard.SidebarItemKindSignalType, true
	case canboard.SidebarSignalUnitGroupID:
		return canboard.SidebarItemKindSignalUnit, true
	case canboard.SidebarSignalEnumGroupID:
		return canboard.SidebarItemKindSignalEnum, true
	}
	return "", false
}

// ParseNodeInterfaceID splits a node interface item id into the node entity
// id and the interface number.
func ParseNodeInterfaceID(id string) (nodeID string, number int, err error) {
	i := strings.LastIndex(id, ":")
	if i <= 0 {
		return "", 0, fmt.Errorf("invalid node interface id %q", id)
	}
	number, err = strconv.Atoi(id[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid node interface id %q: %w", id, err)
	}
	return id[:i], number, nil
}

// EntityRef returns the entity shown for item. Node interfaces resolve to
// their node. Groups have no entity.
func EntityRef(item canboard.SidebarItem) (canboard.EntityKind, string, bool) {
	switch item.Kind {
	case canboard.SidebarItemKindGroup:
		return "", "", false
	case canboard.SidebarItemKindNodeInterface:
		nodeID, _, err := ParseNodeInterfaceID(item.ID)
		if err != nil {
			return "", "", false
		}
		return canboard.KindNode, nodeID, true
	}
	kind := canboard.EntityKind(item.Kind)
	if kind.Validate() != nil {
		return "", "", false
	}
	return kind, item.ID, true
}

// Select marks id as the selected item.
func (s *Synchronizer) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return fmt.Errorf("sidebar item %s not found", id)
	}
	s.selected = id
	return nil
}

// ClearSelection unselects the selected item.
func (s *Synchronizer) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ""
}

// Selected returns the selected item without its children.
func (s *Synchronizer) Selected() (canboard.SidebarItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.index[s.selected]
	if !ok {
		return canboard.SidebarItem{}, false
	}
	return n.shallow(), true
}

// SelectedKind returns the kind of the selected item. A selected group
// reports the kind it groups.
func (s *Synchronizer) SelectedKind() (canboard.SidebarItemKind, bool) {
	item, ok := s.Selected()
	if !ok {
		return "", false
	}
	if item.Kind == canboard.SidebarItemKindGroup {
		return GroupKind(item.ID)
	}
	return item.Kind, true
}

// AddMessage adds a message sent by the selected node interface, or by the
// interface sending the selected message.
func (s *Synchronizer) AddMessage(ctx context.Context) (canboard.Node, error) {
	item, ok := s.Selected()
	if !ok {
		return canboard.Node{}, ErrNothingSelected
	}

	var ifaceID string
	switch item.Kind {
	case canboard.SidebarItemKindNodeInterface:
		ifaceID = item.ID
	case canboard.SidebarItemKindMessage:
		segments := splitPath(item.Path)
		if len(segments) < 2 {
			return canboard.Node{}, fmt.Errorf("message %s has no parent in path %q", item.ID, item.Path)
		}
		ifaceID = segments[len(segments)-2]
	default:
		return canboard.Node{}, fmt.Errorf("cannot add a message to a %s: %w", item.Kind, ErrWrongSelection)
	}

	nodeID, number, err := ParseNodeInterfaceID(ifaceID)
	if err != nil {
		return canboard.Node{}, err
	}

	var node canboard.Node
	if err := s.inv.Invoke(ctx, canboard.ProcNodeAddSentMessage, &node, nodeID, canboard.AddSentMessageReq{InterfaceNumber: number}); err != nil {
		return canboard.Node{}, err
	}
	return node, nil
}

// AddSignal adds a signal of kind to the message owning the selected signal.
func (s *Synchronizer) AddSignal(ctx context.Context, kind canboard.SignalKind) (canboard.Message, error) {
	if err := kind.Validate(); err != nil {
		return canboard.Message{}, err
	}

	item, ok := s.Selected()
	if !ok {
		return canboard.Message{}, ErrNothingSelected
	}
	if item.Kind != canboard.SidebarItemKindSignal {
		return canboard.Message{}, fmt.Errorf("cannot add a signal to a %s: %w", item.Kind, ErrWrongSelection)
	}

	segments := splitPath(item.Path)
	if len(segments) < 2 {
		return canboard.Message{}, fmt.Errorf("signal %s has no parent in path %q", item.ID, item.Path)
	}
	messageID := segments[len(segments)-2]

	var msg canboard.Message
	if err := s.inv.Invoke(ctx, canboard.ProcMessageAddSignal, &msg, messageID, canboard.AddSignalReq{SignalKind: kind}); err != nil {
		return canboard.Message{}, err
	}
	return msg, nil
}
