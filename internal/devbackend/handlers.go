package devbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/dyluth/canboard/pkg/canboard"
)

// applyFunc mutates st for the entity id using the request arguments that
// follow the id.
type applyFunc func(st *store, id string, args []json.RawMessage) ([]canboard.SidebarEvent, error)

// withReq decodes the single request payload of a procedure.
func withReq[R any](fn func(st *store, id string, req R) ([]canboard.SidebarEvent, error)) applyFunc {
	return func(st *store, id string, args []json.RawMessage) ([]canboard.SidebarEvent, error) {
		var req R
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return nil, err
		}
		return fn(st, id, req)
	}
}

// noReq adapts a procedure that takes nothing but the entity id.
func noReq(fn func(st *store, id string) ([]canboard.SidebarEvent, error)) applyFunc {
	return func(st *store, id string, _ []json.RawMessage) ([]canboard.SidebarEvent, error) {
		return fn(st, id)
	}
}

// splitID separates the entity id from the rest of the arguments. Network
// procedures carry no id.
func splitID(kind canboard.EntityKind, args []json.RawMessage) (string, []json.RawMessage, error) {
	if kind == canboard.KindNetwork {
		return "", args, nil
	}
	var id string
	if err := canboard.DecodeArgs(args, &id); err != nil {
		return "", nil, fmt.Errorf("missing %s id: %w", kind, err)
	}
	return id, args[1:], nil
}

// Register installs a handler for every procedure on srv.
func (b *Backend) Register(srv *canboard.Server) {
	for _, kind := range canboard.EntityKinds {
		b.registerGet(srv, kind)
		b.registerMutation(srv, kind, "UpdateName", withReq(func(st *store, id string, req canboard.UpdateNameReq) ([]canboard.SidebarEvent, error) {
			return rename(st, kind, id, req.Name)
		}))
		b.registerMutation(srv, kind, "UpdateDesc", withReq(func(st *store, id string, req canboard.UpdateDescReq) ([]canboard.SidebarEvent, error) {
			return nil, st.editBase(kind, id, func(e *canboard.BaseEntity) { e.Desc = req.Desc })
		}))
		if kind != canboard.KindNetwork {
			b.registerQuery(srv, kind, "GetInvalidNames", func(st *store, id string, _ []json.RawMessage) (any, error) {
				return invalidNames(st, kind, id)
			})
		}
	}

	b.registerNetwork(srv)
	b.registerBus(srv)
	b.registerNode(srv)
	b.registerMessage(srv)
	b.registerSignal(srv)
	b.registerSignalType(srv)
	b.registerSignalUnit(srv)
	b.registerSignalEnum(srv)

	srv.Handle(canboard.ProcSidebarGet, func(ctx context.Context, _ []json.RawMessage) (any, error) {
		return b.read(canboard.ProcSidebarGet, func(st *store) (any, error) {
			return canboard.Sidebar{Root: st.sidebar()}, nil
		})
	})

	srv.Handle(canboard.ProcHistoryGet, func(ctx context.Context, _ []json.RawMessage) (any, error) {
		return b.read(canboard.ProcHistoryGet, func(*store) (any, error) {
			return b.history(), nil
		})
	})
	srv.Handle(canboard.ProcHistoryUndo, func(ctx context.Context, _ []json.RawMessage) (any, error) {
		return b.Undo(ctx)
	})
	srv.Handle(canboard.ProcHistoryRedo, func(ctx context.Context, _ []json.RawMessage) (any, error) {
		return b.Redo(ctx)
	})
}

func (b *Backend) registerGet(srv *canboard.Server, kind canboard.EntityKind) {
	b.registerQuery(srv, kind, "Get", func(st *store, id string, _ []json.RawMessage) (any, error) {
		return st.view(kind, id)
	})
}

func (b *Backend) registerQuery(srv *canboard.Server, kind canboard.EntityKind, method string, fn func(st *store, id string, args []json.RawMessage) (any, error)) {
	procedure := canboard.Procedure(kind, method)
	srv.Handle(procedure, func(ctx context.Context, args []json.RawMessage) (any, error) {
		id, rest, err := splitID(kind, args)
		if err != nil {
			return nil, err
		}
		return b.read(procedure, func(st *store) (any, error) {
			return fn(st, id, rest)
		})
	})
}

func (b *Backend) registerMutation(srv *canboard.Server, kind canboard.EntityKind, method string, apply applyFunc) {
	procedure := canboard.Procedure(kind, method)
	srv.Handle(procedure, func(ctx context.Context, args []json.RawMessage) (any, error) {
		id, rest, err := splitID(kind, args)
		if err != nil {
			return nil, err
		}
		return b.mutate(ctx, procedure, kind, id, func(st *store) ([]canboard.SidebarEvent, error) {
			return apply(st, id, rest)
		})
	})
}

// editBase applies fn to the common fields of kind/id.
func (s *store) editBase(kind canboard.EntityKind, id string, fn func(*canboard.BaseEntity)) error {
	switch kind {
	case canboard.KindNetwork:
		fn(&s.Network)
		return nil
	case canboard.KindBus:
		return edit(s.Buses, kind, id, func(e *canboard.Bus) error { fn(&e.BaseEntity); return nil })
	case canboard.KindNode:
		return edit(s.Nodes, kind, id, func(e *canboard.Node) error { fn(&e.BaseEntity); return nil })
	case canboard.KindMessage:
		return edit(s.Messages, kind, id, func(e *canboard.Message) error { fn(&e.BaseEntity); return nil })
	case canboard.KindSignal:
		return s.editSignal(id, func(sig *canboard.Signal, _ *canboard.Message) error { fn(&sig.BaseEntity); return nil })
	case canboard.KindSignalType:
		return edit(s.SignalTypes, kind, id, func(e *canboard.SignalType) error { fn(&e.BaseEntity); return nil })
	case canboard.KindSignalUnit:
		return edit(s.SignalUnits, kind, id, func(e *canboard.SignalUnit) error { fn(&e.BaseEntity); return nil })
	case canboard.KindSignalEnum:
		return edit(s.SignalEnums, kind, id, func(e *canboard.SignalEnum) error { fn(&e.BaseEntity); return nil })
	}
	return kind.Validate()
}

// edit runs fn on a copy of m[id] and stores it back when fn succeeds.
func edit[E any](m map[string]E, kind canboard.EntityKind, id string, fn func(*E) error) error {
	e, ok := m[id]
	if !ok {
		return notFound(kind, id)
	}
	if err := fn(&e); err != nil {
		return err
	}
	m[id] = e
	return nil
}

// editSignal runs fn on a signal and its message. Both are stored back when
// fn succeeds.
func (s *store) editSignal(id string, fn func(sig *canboard.Signal, msg *canboard.Message) error) error {
	mid, i, ok := s.signalOwner(id)
	if !ok {
		return notFound(canboard.KindSignal, id)
	}
	m := s.Messages[mid]
	sig := m.Signals[i]
	if err := fn(&sig, &m); err != nil {
		return err
	}
	m.Signals[i] = sig
	s.Messages[mid] = m
	return nil
}

// invalidNames lists the names id may not take: the names of its siblings.
func invalidNames(st *store, kind canboard.EntityKind, id string) ([]string, error) {
	taken := make(map[string]bool)
	add := func(otherID, name string) {
		if otherID != id {
			taken[name] = true
		}
	}

	switch kind {
	case canboard.KindBus:
		if _, ok := st.Buses[id]; !ok {
			return nil, notFound(kind, id)
		}
		for oid, e := range st.Buses {
			add(oid, e.Name)
		}
	case canboard.KindNode:
		if _, ok := st.Nodes[id]; !ok {
			return nil, notFound(kind, id)
		}
		for oid, e := range st.Nodes {
			add(oid, e.Name)
		}
	case canboard.KindMessage:
		if _, ok := st.Messages[id]; !ok {
			return nil, notFound(kind, id)
		}
		for oid, e := range st.Messages {
			add(oid, e.Name)
		}
	case canboard.KindSignal:
		mid, _, ok := st.signalOwner(id)
		if !ok {
			return nil, notFound(kind, id)
		}
		for _, sig := range st.Messages[mid].Signals {
			add(sig.ID, sig.Name)
		}
	case canboard.KindSignalType:
		if _, ok := st.SignalTypes[id]; !ok {
			return nil, notFound(kind, id)
		}
		for oid, e := range st.SignalTypes {
			add(oid, e.Name)
		}
	case canboard.KindSignalUnit:
		if _, ok := st.SignalUnits[id]; !ok {
			return nil, notFound(kind, id)
		}
		for oid, e := range st.SignalUnits {
			add(oid, e.Name)
		}
	case canboard.KindSignalEnum:
		if _, ok := st.SignalEnums[id]; !ok {
			return nil, notFound(kind, id)
		}
		for oid, e := range st.SignalEnums {
			add(oid, e.Name)
		}
	default:
		return nil, fmt.Errorf("%s names are not restricted", kind)
	}
	return sortedNames(taken), nil
}

// rename validates and applies a new name, then reports every sidebar item
// showing it. Renaming a node also renames its attached interfaces.
func rename(st *store, kind canboard.EntityKind, id, name string) ([]canboard.SidebarEvent, error) {
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	if kind != canboard.KindNetwork {
		taken, err := invalidNames(st, kind, id)
		if err != nil {
			return nil, err
		}
		if slices.Contains(taken, name) {
			return nil, fmt.Errorf("name %q is already taken", name)
		}
	}

	if err := st.editBase(kind, id, func(e *canboard.BaseEntity) { e.Name = name }); err != nil {
		return nil, err
	}
	if kind == canboard.KindNetwork {
		id = st.Network.ID
	}

	inTree := st.sidebarIDs()
	var events []canboard.SidebarEvent
	if inTree[id] {
		events = append(events, canboard.UpdateNameEvent(id, name))
	}
	if kind == canboard.KindNode {
		for _, ni := range st.Nodes[id].Interfaces {
			itemID := canboard.NodeInterfaceItemID(id, ni.Number)
			if inTree[itemID] {
				events = append(events, canboard.UpdateNameEvent(itemID, canboard.NodeInterfaceItemName(name, ni.Number)))
			}
		}
	}
	return events, nil
}

// sidebarIDs returns the set of item ids in the sidebar tree.
func (s *store) sidebarIDs() map[string]bool {
	ids := make(map[string]bool)
	var walk func(canboard.SidebarItem)
	walk = func(item canboard.SidebarItem) {
		ids[item.ID] = true
		for _, c := range item.Children {
			walk(c)
		}
	}
	walk(s.sidebar())
	return ids
}

// move relocates the element at from to position to.
func move[T any](items []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, fmt.Errorf("cannot move position %d to %d in %d items", from, to, len(items))
	}
	out := slices.Clone(items)
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item), nil
}

// removeIDs deletes every element whose id is in ids. It fails if an id is
// not present.
func removeIDs[T canboard.Entity](items []T, ids []string, kind canboard.EntityKind) ([]T, error) {
	for _, id := range ids {
		if !slices.ContainsFunc(items, func(e T) bool { return e.EntityID() == id }) {
			return nil, notFound(kind, id)
		}
	}
	return slices.DeleteFunc(slices.Clone(items), func(e T) bool { return slices.Contains(ids, e.EntityID()) }), nil
}
