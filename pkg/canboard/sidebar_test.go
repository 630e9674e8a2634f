package canboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidebarEventWireFormat(t *testing.T) {
	t.Run("load has no payload", func(t *testing.T) {
		data, err := json.Marshal(LoadEvent())
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"sidebar-load"}`, string(data))
	})

	t.Run("update name payload uses backend field names", func(t *testing.T) {
		data, err := json.Marshal(UpdateNameEvent("b1", "Beta"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"sidebar-update-name","payload":{"updatedId":"b1","name":"Beta"}}`, string(data))
	})

	t.Run("decodes add into the matching variant only", func(t *testing.T) {
		raw := `{"type":"sidebar-add","payload":{"addedItem":{"kind":"bus","id":"b1","path":"net/b1","name":"Alpha","children":[]}}}`

		var ev SidebarEvent
		require.NoError(t, json.Unmarshal([]byte(raw), &ev))
		assert.Equal(t, EventSidebarAdd, ev.Type)
		require.NotNil(t, ev.Add)
		assert.Nil(t, ev.UpdateName)
		assert.Nil(t, ev.Delete)
		assert.Equal(t, "net/b1", ev.Add.AddedItem.Path)
	})

	t.Run("rejects missing payload", func(t *testing.T) {
		var ev SidebarEvent
		err := json.Unmarshal([]byte(`{"type":"sidebar-delete"}`), &ev)
		assert.ErrorContains(t, err, "no payload")
	})

	t.Run("rejects unknown type on encode", func(t *testing.T) {
		_, err := json.Marshal(SidebarEvent{Type: "sidebar-move"})
		assert.Error(t, err)
	})
}

func TestSidebarItemValidate(t *testing.T) {
	valid := SidebarItem{Kind: SidebarItemKindBus, ID: "b1", Path: "net/b1", Name: "Alpha"}
	assert.NoError(t, valid.Validate())

	noID := valid
	noID.ID = ""
	assert.Error(t, noID.Validate())

	badKind := valid
	badKind.Kind = "gateway"
	assert.Error(t, badKind.Validate())

	wrongTail := valid
	wrongTail.Path = "net/b2"
	assert.ErrorContains(t, wrongTail.Validate(), "does not end with its id")
}

func TestNodeInterfaceItem(t *testing.T) {
	assert.Equal(t, "n1:2", NodeInterfaceItemID("n1", 2))
	assert.Equal(t, "ECU:0", NodeInterfaceItemName("ECU", 0))
}
