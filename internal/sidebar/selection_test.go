package sidebar

import (
	"context"
	"testing"

	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanelFor(t *testing.T) {
	tests := []struct {
		kind canboard.SidebarItemKind
		want Panel
	}{
		{canboard.SidebarItemKindNetwork, PanelNone},
		{canboard.SidebarItemKindGroup, PanelNone},
		{canboard.SidebarItemKindBus, PanelBus},
		{canboard.SidebarItemKindNode, PanelNode},
		{canboard.SidebarItemKindNodeInterface, PanelNode},
		{canboard.SidebarItemKindMessage, PanelMessage},
		{canboard.SidebarItemKindSignal, PanelSignal},
		{canboard.SidebarItemKindSignalType, PanelSignalType},
		{canboard.SidebarItemKindSignalUnit, PanelSignalUnit},
		{canboard.SidebarItemKindSignalEnum, PanelSignalEnum},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, PanelFor(tt.kind))
		})
	}
}

func TestEntityRef(t *testing.T) {
	kind, id, ok := EntityRef(canboard.SidebarItem{Kind: canboard.SidebarItemKindNodeInterface, ID: "n1:2"})
	require.True(t, ok)
	assert.Equal(t, canboard.KindNode, kind)
	assert.Equal(t, "n1", id)

	kind, id, ok = EntityRef(canboard.SidebarItem{Kind: canboard.SidebarItemKindSignalEnum, ID: "e1"})
	require.True(t, ok)
	assert.Equal(t, canboard.KindSignalEnum, kind)
	assert.Equal(t, "e1", id)

	_, _, ok = EntityRef(canboard.SidebarItem{Kind: canboard.SidebarItemKindGroup, ID: canboard.SidebarNodeGroupID})
	assert.False(t, ok)

	_, _, ok = EntityRef(canboard.SidebarItem{Kind: canboard.SidebarItemKindNodeInterface, ID: "broken"})
	assert.False(t, ok)
}

func TestParseNodeInterfaceID(t *testing.T) {
	nodeID, number, err := ParseNodeInterfaceID("ab:cd:3")
	require.NoError(t, err)
	assert.Equal(t, "ab:cd", nodeID)
	assert.Equal(t, 3, number)

	for _, bad := range []string{"", "n1", ":1", "n1:x"} {
		_, _, err := ParseNodeInterfaceID(bad)
		assert.Error(t, err, bad)
	}
}

func TestSelection(t *testing.T) {
	s, _ := loaded(t)

	_, ok := s.Selected()
	assert.False(t, ok)

	assert.Error(t, s.Select("ghost"))

	require.NoError(t, s.Select(canboard.SidebarNodeGroupID))
	kind, ok := s.SelectedKind()
	require.True(t, ok)
	assert.Equal(t, canboard.SidebarItemKindNode, kind)

	require.NoError(t, s.Select("m1"))
	kind, ok = s.SelectedKind()
	require.True(t, ok)
	assert.Equal(t, canboard.SidebarItemKindMessage, kind)

	t.Run("deleting the selected item clears the selection", func(t *testing.T) {
		require.NoError(t, s.Handle(context.Background(), canboard.DeleteEvent("n1:0")))
		_, ok := s.Selected()
		assert.False(t, ok)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, s.Select("zeta"))
		s.ClearSelection()
		_, ok := s.Selected()
		assert.False(t, ok)
	})
}

func TestAddMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("from a node interface", func(t *testing.T) {
		s, backend := loaded(t)
		require.NoError(t, s.Select("n1:0"))

		_, err := s.AddMessage(ctx)
		require.NoError(t, err)

		calls := backend.callsTo(canboard.ProcNodeAddSentMessage)
		require.Len(t, calls, 1)
		assert.Equal(t, []string{`"n1"`, `{"interfaceNumber":0}`}, calls[0].args)
	})

	t.Run("from a message", func(t *testing.T) {
		s, backend := loaded(t)
		require.NoError(t, s.Select("m1"))

		_, err := s.AddMessage(ctx)
		require.NoError(t, err)
		require.Len(t, backend.callsTo(canboard.ProcNodeAddSentMessage), 1)
	})

	t.Run("nothing selected", func(t *testing.T) {
		s, _ := loaded(t)
		_, err := s.AddMessage(ctx)
		assert.ErrorIs(t, err, ErrNothingSelected)
	})

	t.Run("wrong selection", func(t *testing.T) {
		s, backend := loaded(t)
		require.NoError(t, s.Select("alpha"))

		_, err := s.AddMessage(ctx)
		assert.ErrorIs(t, err, ErrWrongSelection)
		assert.Empty(t, backend.callsTo(canboard.ProcNodeAddSentMessage))
	})
}

func TestAddSignal(t *testing.T) {
	ctx := context.Background()

	t.Run("from a signal", func(t *testing.T) {
		s, backend := loaded(t)
		require.NoError(t, s.Select("s1"))

		_, err := s.AddSignal(ctx, canboard.SignalKindEnum)
		require.NoError(t, err)

		calls := backend.callsTo(canboard.ProcMessageAddSignal)
		require.Len(t, calls, 1)
		assert.Equal(t, []string{`"m1"`, `{"signalKind":"enum"}`}, calls[0].args)
	})

	t.Run("wrong selection", func(t *testing.T) {
		s, _ := loaded(t)
		require.NoError(t, s.Select("m1"))

		_, err := s.AddSignal(ctx, canboard.SignalKindStandard)
		assert.ErrorIs(t, err, ErrWrongSelection)
	})

	t.Run("invalid kind", func(t *testing.T) {
		s, backend := loaded(t)
		require.NoError(t, s.Select("s1"))

		_, err := s.AddSignal(ctx, canboard.SignalKind("bogus"))
		assert.Error(t, err)
		assert.Empty(t, backend.callsTo(canboard.ProcMessageAddSignal))
	})
}

func TestFind(t *testing.T) {
	s, _ := loaded(t)

	assert.Nil(t, s.Find(""))

	found := s.Find("alp")
	require.NotEmpty(t, found)
	assert.Equal(t, "alpha", found[0].ID)

	found = s.Find("SPD")
	require.Len(t, found, 1)
	assert.Equal(t, "s1", found[0].ID)

	assert.Empty(t, s.Find("qqq"))
}
