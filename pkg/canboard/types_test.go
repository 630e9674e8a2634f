package canboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryDerivedFlags(t *testing.T) {
	tests := []struct {
		name    string
		history History
		undo    bool
		redo    bool
	}{
		{"empty", EmptyHistory, false, false},
		{"one applied", History{OperationCount: 1, CurrentIndex: 0}, true, false},
		{"all undone", History{OperationCount: 2, CurrentIndex: -1}, false, true},
		{"middle", History{OperationCount: 3, CurrentIndex: 1}, true, true},
		{"at head", History{OperationCount: 3, CurrentIndex: 2}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.undo, tt.history.CanUndo())
			assert.Equal(t, tt.redo, tt.history.CanRedo())
		})
	}
}

func TestHistoryValidate(t *testing.T) {
	assert.NoError(t, EmptyHistory.Validate())
	assert.NoError(t, History{OperationCount: 2, CurrentIndex: 1}.Validate())
	assert.Error(t, History{OperationCount: -1, CurrentIndex: -1}.Validate())
	assert.Error(t, History{OperationCount: 0, CurrentIndex: 0}.Validate())
	assert.Error(t, History{OperationCount: 2, CurrentIndex: -2}.Validate())
}

func TestEntityKind(t *testing.T) {
	for _, kind := range EntityKinds {
		t.Run(string(kind), func(t *testing.T) {
			assert.NoError(t, kind.Validate())
			assert.NotEmpty(t, kind.Service())
		})
	}

	assert.Error(t, EntityKind("gateway").Validate())
	assert.Equal(t, "history-signal-enum-modify", KindSignalEnum.ModifyEvent())
	assert.Equal(t, "SignalEnumService.AddValue", Procedure(KindSignalEnum, "AddValue"))
	assert.Equal(t, ProcBusUpdateName, Procedure(KindBus, "UpdateName"))
}

func TestEntityJSONUsesEntityID(t *testing.T) {
	bus := Bus{BaseEntity: BaseEntity{ID: "b1", Name: "Alpha"}, Baudrate: 500000}

	data, err := json.Marshal(bus)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "b1", fields["entityId"])
	assert.Equal(t, "Alpha", fields["name"])
	assert.EqualValues(t, 500000, fields["baudrate"])
}

func TestSchemaKeys(t *testing.T) {
	assert.Equal(t, "canboard:dev:rpc:requests", RequestQueueKey("dev"))
	assert.Equal(t, "canboard:dev:rpc:reply:abc", ReplyKey("dev", "abc"))
	assert.Equal(t, "canboard:dev:history", HistoryKey("dev"))
	assert.Equal(t, "canboard:dev:events:sidebar", SidebarEventsChannel("dev"))
	assert.Equal(t, "canboard:dev:events:history-change", HistoryChangeChannel("dev"))
	assert.Equal(t, "canboard:dev:events:history-bus-modify", ModifyChannel("dev", KindBus))
}

func TestHashToHistoryRejectsBadFields(t *testing.T) {
	_, err := HashToHistory(map[string]string{"operation_count": "x", "current_index": "0", "saved": "true"})
	assert.ErrorContains(t, err, "operation_count")

	_, err = HashToHistory(map[string]string{"operation_count": "1", "current_index": "0", "saved": "maybe"})
	assert.ErrorContains(t, err, "saved")
}
