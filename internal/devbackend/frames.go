package devbackend

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/dyluth/canboard/pkg/canboard"
)

// Procedures of messages and the signals laid out in them.

func (b *Backend) registerMessage(srv *canboard.Server) {
	b.registerQuery(srv, canboard.KindMessage, "GetInvalidMessageIDs", func(st *store, id string, _ []json.RawMessage) (any, error) {
		if _, ok := st.Messages[id]; !ok {
			return nil, notFound(canboard.KindMessage, id)
		}
		return takenMessageIDs(st, id), nil
	})

	b.registerQuery(srv, canboard.KindMessage, "GetInvalidCANIDs", func(st *store, id string, args []json.RawMessage) (any, error) {
		var req canboard.GetInvalidCANIDsReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return nil, err
		}
		if _, ok := st.Messages[id]; !ok {
			return nil, notFound(canboard.KindMessage, id)
		}
		return takenCANIDs(st, id, req.BusEntityID), nil
	})

	b.registerMessageField(srv, "UpdateMessageID", func(st *store, m *canboard.Message, args []json.RawMessage) error {
		var req canboard.UpdateMessageIDReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		if slices.Contains(takenMessageIDs(st, m.ID), req.MessageID) {
			return fmt.Errorf("message id %d is already taken", req.MessageID)
		}
		m.MessageID = req.MessageID
		return nil
	})

	b.registerMessageField(srv, "UpdateStaticCANID", func(st *store, m *canboard.Message, args []json.RawMessage) error {
		var req canboard.UpdateStaticCANIDReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		if req.StaticCANID > 0x7FF {
			return fmt.Errorf("CAN id %#x does not fit 11 bits", req.StaticCANID)
		}
		m.HasStaticCANID = true
		m.CANID = req.StaticCANID
		return nil
	})

	b.registerMessageField(srv, "UpdateSizeByte", func(_ *store, m *canboard.Message, args []json.RawMessage) error {
		var req canboard.UpdateSizeByteReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		if req.SizeByte < 1 || req.SizeByte > maxSizeByte {
			return fmt.Errorf("size %d out of range (1-%d)", req.SizeByte, maxSizeByte)
		}
		if used := usedBits(m.Signals); used > req.SizeByte*8 {
			return fmt.Errorf("signals use %d bits, more than %d bytes", used, req.SizeByte)
		}
		m.SizeByte = req.SizeByte
		return nil
	})

	b.registerMessageField(srv, "UpdateByteOrder", func(_ *store, m *canboard.Message, args []json.RawMessage) error {
		var req canboard.UpdateByteOrderReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		switch req.ByteOrder {
		case canboard.ByteOrderLittleEndian, canboard.ByteOrderBigEndian:
		default:
			return fmt.Errorf("invalid byte order %q", req.ByteOrder)
		}
		m.ByteOrder = req.ByteOrder
		return nil
	})

	b.registerMessageField(srv, "UpdateSendType", func(_ *store, m *canboard.Message, args []json.RawMessage) error {
		var req canboard.UpdateSendTypeReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		switch req.SendType {
		case canboard.SendTypeUnset, canboard.SendTypeCyclic, canboard.SendTypeCyclicIfActive,
			canboard.SendTypeCyclicAndTriggered, canboard.SendTypeCyclicIfActiveAndTriggered:
		default:
			return fmt.Errorf("invalid send type %q", req.SendType)
		}
		m.SendType = req.SendType
		return nil
	})

	b.registerMessageField(srv, "UpdateCycleTime", timing(func(m *canboard.Message) *int { return &m.CycleTime }, func(r canboard.UpdateCycleTimeReq) int { return r.CycleTime }))
	b.registerMessageField(srv, "UpdateDelayTime", timing(func(m *canboard.Message) *int { return &m.DelayTime }, func(r canboard.UpdateDelayTimeReq) int { return r.DelayTime }))
	b.registerMessageField(srv, "UpdateStartDelayTime", timing(func(m *canboard.Message) *int { return &m.StartDelayTime }, func(r canboard.UpdateStartDelayTimeReq) int { return r.StartDelayTime }))

	b.registerMutation(srv, canboard.KindMessage, "AddSignal", withReq(func(st *store, id string, req canboard.AddSignalReq) ([]canboard.SidebarEvent, error) {
		if err := req.SignalKind.Validate(); err != nil {
			return nil, err
		}
		var sig canboard.Signal
		err := edit(st.Messages, canboard.KindMessage, id, func(m *canboard.Message) error {
			s, err := newSignal(st, *m, req.SignalKind)
			if err != nil {
				return err
			}
			sig = s
			m.Signals = append(m.Signals, s)
			return nil
		})
		if err != nil {
			return nil, err
		}

		path, inTree := st.messagePath(id)
		if !inTree {
			return nil, nil
		}
		return []canboard.SidebarEvent{canboard.AddEvent(sidebarItem(canboard.SidebarItemKindSignal, sig.ID, sig.Name, path))}, nil
	}))

	b.registerMutation(srv, canboard.KindMessage, "DeleteSignals", withReq(func(st *store, id string, req canboard.DeleteSignalsReq) ([]canboard.SidebarEvent, error) {
		err := edit(st.Messages, canboard.KindMessage, id, func(m *canboard.Message) error {
			signals, err := removeIDs(m.Signals, req.SignalEntityIDs, canboard.KindSignal)
			if err != nil {
				return err
			}
			m.Signals = signals
			return nil
		})
		if err != nil {
			return nil, err
		}

		if _, inTree := st.messagePath(id); !inTree {
			return nil, nil
		}
		events := make([]canboard.SidebarEvent, 0, len(req.SignalEntityIDs))
		for _, sid := range req.SignalEntityIDs {
			events = append(events, canboard.DeleteEvent(sid))
		}
		return events, nil
	}))

	b.registerMessageField(srv, "CompactSignals", func(_ *store, m *canboard.Message, _ []json.RawMessage) error {
		compact(m.Signals)
		return nil
	})

	b.registerMessageField(srv, "ReorderSignal", func(_ *store, m *canboard.Message, args []json.RawMessage) error {
		var req canboard.ReorderSignalReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		if req.From < 0 || req.From >= len(m.Signals) || m.Signals[req.From].ID != req.SignalEntityID {
			return fmt.Errorf("signal %s is not at position %d", req.SignalEntityID, req.From)
		}
		signals, err := move(m.Signals, req.From, req.To)
		if err != nil {
			return err
		}
		compact(signals)
		m.Signals = signals
		return nil
	})
}

// registerMessageField registers a message procedure that edits only the
// message itself and leaves the sidebar untouched.
func (b *Backend) registerMessageField(srv *canboard.Server, method string, fn func(st *store, m *canboard.Message, args []json.RawMessage) error) {
	b.registerMutation(srv, canboard.KindMessage, method, func(st *store, id string, args []json.RawMessage) ([]canboard.SidebarEvent, error) {
		return nil, edit(st.Messages, canboard.KindMessage, id, func(m *canboard.Message) error {
			return fn(st, m, args)
		})
	})
}

// timing builds the handler of a non-negative millisecond field.
func timing[R any](field func(*canboard.Message) *int, value func(R) int) func(*store, *canboard.Message, []json.RawMessage) error {
	return func(_ *store, m *canboard.Message, args []json.RawMessage) error {
		var req R
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		ms := value(req)
		if ms < 0 {
			return fmt.Errorf("time cannot be negative: %d ms", ms)
		}
		*field(m) = ms
		return nil
	}
}

// newSignal builds a signal of kind placed after the last signal of m.
// Standard signals take the first signal type and enum signals the first
// enum.
func newSignal(st *store, m canboard.Message, kind canboard.SignalKind) (canboard.Signal, error) {
	names := make([]string, 0, len(m.Signals))
	for _, s := range m.Signals {
		names = append(names, s.Name)
	}
	id := newID("sig")
	sig := canboard.Signal{
		BaseEntity: base(id, nextName("signal", names), "", time.Now().UTC()),
		Kind:       kind,
		StartPos:   usedBits(m.Signals),
	}

	switch kind {
	case canboard.SignalKindStandard:
		types := sortedKeys(st.SignalTypes)
		if len(types) == 0 {
			return canboard.Signal{}, fmt.Errorf("no signal type defined")
		}
		sig.SignalType = &canboard.EntityStub{ID: types[0]}
		sig.Size = st.SignalTypes[types[0]].Size
	case canboard.SignalKindEnum:
		enums := sortedKeys(st.SignalEnums)
		if len(enums) == 0 {
			return canboard.Signal{}, fmt.Errorf("no signal enum defined")
		}
		sig.SignalEnum = &canboard.EntityStub{ID: enums[0]}
		sig.Size = st.SignalEnums[enums[0]].Size
	case canboard.SignalKindMultiplexer:
		sig.Size = 1
	}

	if sig.StartPos+sig.Size > m.SizeByte*8 {
		return canboard.Signal{}, fmt.Errorf("no space left in message %s for a %d bit signal", m.ID, sig.Size)
	}
	return sig, nil
}

// usedBits returns the first bit after the last signal.
func usedBits(signals []canboard.Signal) int {
	end := 0
	for _, s := range signals {
		end = max(end, s.StartPos+s.Size)
	}
	return end
}

// compact lays signals out back to back in slice order.
func compact(signals []canboard.Signal) {
	pos := 0
	for i := range signals {
		signals[i].StartPos = pos
		pos += signals[i].Size
	}
}

func takenMessageIDs(st *store, id string) []uint {
	loc, ok := st.senderOf(id)
	if !ok {
		return nil
	}
	var ids []uint
	for _, mid := range messagesOf(st, loc.node) {
		if mid != id {
			ids = append(ids, st.Messages[mid].MessageID)
		}
	}
	return ids
}

// takenCANIDs returns the CAN ids of the other messages sent on busID.
func takenCANIDs(st *store, id, busID string) []uint {
	var ids []uint
	for _, nid := range sortedKeys(st.Nodes) {
		for _, ni := range st.Nodes[nid].Interfaces {
			if ni.AttachedBus == nil || ni.AttachedBus.ID != busID {
				continue
			}
			for _, m := range ni.SentMessages {
				if m.ID != id {
					ids = append(ids, st.canID(st.Messages[m.ID]))
				}
			}
		}
	}
	return ids
}

func (b *Backend) registerSignal(srv *canboard.Server) {
	b.registerSignalField(srv, "UpdateSignalType", func(st *store, sig *canboard.Signal, m *canboard.Message, args []json.RawMessage) error {
		var req canboard.UpdateSignalTypeReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		if sig.Kind != canboard.SignalKindStandard {
			return fmt.Errorf("%s signals have no signal type", sig.Kind)
		}
		t, ok := st.SignalTypes[req.SignalTypeEntityID]
		if !ok {
			return notFound(canboard.KindSignalType, req.SignalTypeEntityID)
		}
		if err := fits(*m, sig.ID, sig.StartPos, t.Size); err != nil {
			return err
		}
		sig.SignalType = &canboard.EntityStub{ID: t.ID}
		sig.Size = t.Size
		return nil
	})

	b.registerSignalField(srv, "UpdateSignalUnit", func(st *store, sig *canboard.Signal, _ *canboard.Message, args []json.RawMessage) error {
		var req canboard.UpdateSignalUnitReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		if sig.Kind != canboard.SignalKindStandard {
			return fmt.Errorf("%s signals have no unit", sig.Kind)
		}
		if req.SignalUnitEntityID == "" {
			sig.SignalUnit = nil
			return nil
		}
		if _, ok := st.SignalUnits[req.SignalUnitEntityID]; !ok {
			return notFound(canboard.KindSignalUnit, req.SignalUnitEntityID)
		}
		sig.SignalUnit = &canboard.EntityStub{ID: req.SignalUnitEntityID}
		return nil
	})

	b.registerSignalField(srv, "UpdateSignalEnum", func(st *store, sig *canboard.Signal, m *canboard.Message, args []json.RawMessage) error {
		var req canboard.UpdateSignalEnumReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		if sig.Kind != canboard.SignalKindEnum {
			return fmt.Errorf("%s signals have no enum", sig.Kind)
		}
		e, ok := st.SignalEnums[req.SignalEnumEntityID]
		if !ok {
			return notFound(canboard.KindSignalEnum, req.SignalEnumEntityID)
		}
		if err := fits(*m, sig.ID, sig.StartPos, e.Size); err != nil {
			return err
		}
		sig.SignalEnum = &canboard.EntityStub{ID: e.ID}
		sig.Size = e.Size
		return nil
	})
}

func (b *Backend) registerSignalField(srv *canboard.Server, method string, fn func(st *store, sig *canboard.Signal, m *canboard.Message, args []json.RawMessage) error) {
	b.registerMutation(srv, canboard.KindSignal, method, func(st *store, id string, args []json.RawMessage) ([]canboard.SidebarEvent, error) {
		return nil, st.editSignal(id, func(sig *canboard.Signal, m *canboard.Message) error {
			return fn(st, sig, m, args)
		})
	})
}

// fits checks that a signal resized to size still fits m without
// overlapping the other signals.
func fits(m canboard.Message, signalID string, start, size int) error {
	end := start + size
	if end > m.SizeByte*8 {
		return fmt.Errorf("a %d bit signal at bit %d does not fit %d bytes", size, start, m.SizeByte)
	}
	for _, other := range m.Signals {
		if other.ID == signalID {
			continue
		}
		if start < other.StartPos+other.Size && other.StartPos < end {
			return fmt.Errorf("signal would overlap %s", other.Name)
		}
	}
	return nil
}
