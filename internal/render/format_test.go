package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dyluth/canboard/internal/instance"
	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticTree walks a fixed list of items.
type staticTree []struct {
	item  canboard.SidebarItem
	depth int
}

func (s staticTree) Walk(fn func(canboard.SidebarItem, int)) {
	for _, v := range s {
		fn(v.item, v.depth)
	}
}

func TestTree(t *testing.T) {
	tree := staticTree{
		{canboard.SidebarItem{Kind: canboard.SidebarItemKindNetwork, ID: "net", Name: "Vehicle"}, 0},
		{canboard.SidebarItem{Kind: canboard.SidebarItemKindGroup, ID: "group-nodes", Name: "Nodes"}, 1},
		{canboard.SidebarItem{Kind: canboard.SidebarItemKindBus, ID: "bus-pt", Name: "Powertrain"}, 1},
		{canboard.SidebarItem{Kind: canboard.SidebarItemKindNodeInterface, ID: "node-ecu:0", Name: "ECU:0"}, 2},
		{canboard.SidebarItem{Kind: canboard.SidebarItemKindMessage, ID: "msg-speed", Name: "msg-speed"}, 3},
	}

	var buf bytes.Buffer
	n := Tree(&buf, tree)

	assert.Equal(t, 5, n)
	assert.Equal(t, strings.Join([]string{
		"◆ Vehicle (net)",
		"  ▸ Nodes (group-nodes)",
		"  ═ Powertrain (bus-pt)",
		"    ● ECU:0 (node-ecu:0)",
		"      ✉ msg-speed",
		"",
	}, "\n"), buf.String())
}

func TestTreeEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, 0, Tree(&buf, staticTree{}))
	assert.Equal(t, "Sidebar is empty\n", buf.String())
}

func TestItems(t *testing.T) {
	t.Run("no match", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Equal(t, 0, Items(&buf, nil, "xyz"))
		assert.Equal(t, "No items match 'xyz'\n", buf.String())
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		items := []canboard.SidebarItem{
			{Kind: canboard.SidebarItemKindBus, ID: "bus-pt", Name: "Powertrain", Path: "net/bus-pt"},
		}
		assert.Equal(t, 1, Items(&buf, items, "power"))
		out := buf.String()
		assert.Contains(t, out, "KIND")
		assert.Contains(t, out, "Powertrain")
		assert.Contains(t, out, "net/bus-pt")
		assert.Contains(t, out, "1 item found")
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		max      int
		expected string
	}{
		{name: "short", in: "Powertrain", max: 24, expected: "Powertrain"},
		{name: "exact", in: strings.Repeat("a", 24), max: 24, expected: strings.Repeat("a", 24)},
		{name: "long", in: strings.Repeat("a", 25), max: 24, expected: strings.Repeat("a", 21) + "..."},
		{name: "multibyte", in: "Geschwindigkeitsüberwachung", max: 10, expected: "Geschwi..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncate(tt.in, tt.max))
		})
	}
}

func TestTruncatePathKeepsTail(t *testing.T) {
	path := "net/bus-pt/node-ecu:0/msg-speed/sig-speed"
	assert.Equal(t, path, truncatePath(path, 60))
	assert.Equal(t, "...msg-speed/sig-speed", truncatePath(path, 22))
}

func TestJSONL(t *testing.T) {
	var buf bytes.Buffer
	items := []canboard.SidebarItem{
		{Kind: canboard.SidebarItemKindBus, ID: "bus-pt", Name: "Powertrain"},
		{Kind: canboard.SidebarItemKindBus, ID: "bus-body", Name: "Body"},
	}
	require.NoError(t, JSONL(&buf, items))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var decoded canboard.SidebarItem
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &decoded))
	assert.Equal(t, "bus-body", decoded.ID)
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	bus := canboard.Bus{BaseEntity: canboard.BaseEntity{ID: "bus-pt", Name: "Powertrain"}, Baudrate: 500000}
	require.NoError(t, JSON(&buf, bus))

	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))
	assert.Contains(t, buf.String(), `  "entityId": "bus-pt"`)
}

func TestHistory(t *testing.T) {
	var buf bytes.Buffer
	History(&buf, canboard.History{OperationCount: 3, CurrentIndex: 1})
	assert.Equal(t, "operations: 3  position: 1  unsaved changes  (undo: yes, redo: yes)\n", buf.String())

	buf.Reset()
	History(&buf, canboard.EmptyHistory)
	assert.Equal(t, "operations: 0  position: -1  saved  (undo: no, redo: no)\n", buf.String())
}

func TestInstances(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, 0, Instances(&buf, nil))
	assert.Equal(t, "No canboard instances found\n", buf.String())

	buf.Reset()
	n := Instances(&buf, []instance.InstanceInfo{
		{Name: "bench", Status: instance.StatusRunning, RedisURL: "redis://localhost:6380"},
		{Name: "lab", Status: instance.StatusStopped},
	})
	assert.Equal(t, 2, n)
	out := buf.String()
	assert.Contains(t, out, "redis://localhost:6380")
	assert.Regexp(t, `lab\s+Stopped\s+-`, out)
}
