package devbackend

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"slices"
	"time"

	"github.com/dyluth/canboard/pkg/canboard"
)

// Procedures of the shared signal definitions: types, units and enums.

func (b *Backend) registerSignalType(srv *canboard.Server) {
	field := func(method string, fn func(t *canboard.SignalType, args []json.RawMessage) error) {
		b.registerMutation(srv, canboard.KindSignalType, method, func(st *store, id string, args []json.RawMessage) ([]canboard.SidebarEvent, error) {
			return nil, edit(st.SignalTypes, canboard.KindSignalType, id, func(t *canboard.SignalType) error {
				return fn(t, args)
			})
		})
	}

	field("UpdateMin", func(t *canboard.SignalType, args []json.RawMessage) error {
		var req canboard.UpdateMinReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		if req.Min > t.Max {
			return fmt.Errorf("min %g is greater than max %g", req.Min, t.Max)
		}
		t.Min = req.Min
		return nil
	})
	field("UpdateMax", func(t *canboard.SignalType, args []json.RawMessage) error {
		var req canboard.UpdateMaxReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		if req.Max < t.Min {
			return fmt.Errorf("max %g is less than min %g", req.Max, t.Min)
		}
		t.Max = req.Max
		return nil
	})
	field("UpdateScale", func(t *canboard.SignalType, args []json.RawMessage) error {
		var req canboard.UpdateScaleReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		if req.Scale == 0 {
			return fmt.Errorf("scale cannot be zero")
		}
		t.Scale = req.Scale
		return nil
	})
	field("UpdateOffset", func(t *canboard.SignalType, args []json.RawMessage) error {
		var req canboard.UpdateOffsetReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		t.Offset = req.Offset
		return nil
	})
}

func (b *Backend) registerSignalUnit(srv *canboard.Server) {
	b.registerMutation(srv, canboard.KindSignalUnit, "UpdateKind", withReq(func(st *store, id string, req canboard.UpdateSignalUnitKindReq) ([]canboard.SidebarEvent, error) {
		switch req.Kind {
		case canboard.SignalUnitKindCustom, canboard.SignalUnitKindTemperature,
			canboard.SignalUnitKindElectrical, canboard.SignalUnitKindPower:
		default:
			return nil, fmt.Errorf("invalid signal unit kind %q", req.Kind)
		}
		return nil, edit(st.SignalUnits, canboard.KindSignalUnit, id, func(u *canboard.SignalUnit) error {
			u.Kind = req.Kind
			return nil
		})
	}))

	b.registerMutation(srv, canboard.KindSignalUnit, "UpdateSymbol", withReq(func(st *store, id string, req canboard.UpdateSymbolReq) ([]canboard.SidebarEvent, error) {
		return nil, edit(st.SignalUnits, canboard.KindSignalUnit, id, func(u *canboard.SignalUnit) error {
			u.Symbol = req.Symbol
			return nil
		})
	}))
}

func (b *Backend) registerSignalEnum(srv *canboard.Server) {
	field := func(method string, fn func(st *store, e *canboard.SignalEnum, args []json.RawMessage) error) {
		b.registerMutation(srv, canboard.KindSignalEnum, method, func(st *store, id string, args []json.RawMessage) ([]canboard.SidebarEvent, error) {
			return nil, edit(st.SignalEnums, canboard.KindSignalEnum, id, func(e *canboard.SignalEnum) error {
				return fn(st, e, args)
			})
		})
	}

	field("AddValue", func(_ *store, e *canboard.SignalEnum, _ []json.RawMessage) error {
		index := 0
		names := make([]string, 0, len(e.Values))
		for _, v := range e.Values {
			index = max(index, v.Index+1)
			names = append(names, v.Name)
		}
		id := newID("sev")
		e.Values = append(e.Values, canboard.SignalEnumValue{
			BaseEntity: base(id, nextName("value", names), "", time.Now().UTC()),
			Index:      index,
		})
		growEnum(e, index)
		return nil
	})

	field("RemoveValues", func(_ *store, e *canboard.SignalEnum, args []json.RawMessage) error {
		var req canboard.RemoveValuesReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		values, err := removeIDs(e.Values, req.ValueEntityIDs, canboard.KindSignalEnum)
		if err != nil {
			return err
		}
		e.Values = values
		return nil
	})

	field("ReorderValue", func(_ *store, e *canboard.SignalEnum, args []json.RawMessage) error {
		var req canboard.ReorderValueReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		if req.From < 0 || req.From >= len(e.Values) || e.Values[req.From].ID != req.ValueEntityID {
			return fmt.Errorf("value %s is not at position %d", req.ValueEntityID, req.From)
		}
		values, err := move(e.Values, req.From, req.To)
		if err != nil {
			return err
		}
		e.Values = values
		return nil
	})

	field("UpdateValueName", func(_ *store, e *canboard.SignalEnum, args []json.RawMessage) error {
		var req canboard.UpdateValueNameReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		if req.Name == "" {
			return fmt.Errorf("name cannot be empty")
		}
		if slices.ContainsFunc(e.Values, func(v canboard.SignalEnumValue) bool { return v.ID != req.ValueEntityID && v.Name == req.Name }) {
			return fmt.Errorf("name %q is already taken", req.Name)
		}
		return editValue(e, req.ValueEntityID, func(v *canboard.SignalEnumValue) { v.Name = req.Name })
	})

	field("UpdateValueDesc", func(_ *store, e *canboard.SignalEnum, args []json.RawMessage) error {
		var req canboard.UpdateValueDescReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		return editValue(e, req.ValueEntityID, func(v *canboard.SignalEnumValue) { v.Desc = req.Desc })
	})

	field("UpdateValueIndex", func(st *store, e *canboard.SignalEnum, args []json.RawMessage) error {
		var req canboard.UpdateValueIndexReq
		if err := canboard.DecodeArgs(args, &req); err != nil {
			return err
		}
		if req.Index < 0 {
			return fmt.Errorf("index cannot be negative: %d", req.Index)
		}
		if slices.ContainsFunc(e.Values, func(v canboard.SignalEnumValue) bool { return v.ID != req.ValueEntityID && v.Index == req.Index }) {
			return fmt.Errorf("index %d is already taken", req.Index)
		}
		if err := editValue(e, req.ValueEntityID, func(v *canboard.SignalEnumValue) { v.Index = req.Index }); err != nil {
			return err
		}
		growEnum(e, req.Index)
		return resizeEnumSignals(st, e.ID, e.Size)
	})
}

func editValue(e *canboard.SignalEnum, valueID string, fn func(*canboard.SignalEnumValue)) error {
	for i := range e.Values {
		if e.Values[i].ID == valueID {
			fn(&e.Values[i])
			return nil
		}
	}
	return fmt.Errorf("value %s not found in enum %s", valueID, e.ID)
}

// growEnum widens the enum so that index fits its size.
func growEnum(e *canboard.SignalEnum, index int) {
	if need := bits.Len(uint(index)); need > e.Size {
		e.Size = need
	}
}

// resizeEnumSignals gives every signal using enumID the new size. It fails if
// one of them would no longer fit its message.
func resizeEnumSignals(st *store, enumID string, size int) error {
	for _, mid := range sortedKeys(st.Messages) {
		m := st.Messages[mid]
		for i, sig := range m.Signals {
			if sig.SignalEnum == nil || sig.SignalEnum.ID != enumID || sig.Size == size {
				continue
			}
			if err := fits(m, sig.ID, sig.StartPos, size); err != nil {
				return fmt.Errorf("signal %s: %w", sig.Name, err)
			}
			m.Signals[i].Size = size
		}
		st.Messages[mid] = m
	}
	return nil
}
