package filter

import (
	"testing"

	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/stretchr/testify/assert"
)

var items = []canboard.SidebarItem{
	{Kind: canboard.SidebarItemKindBus, ID: "bus-pt", Name: "Powertrain"},
	{Kind: canboard.SidebarItemKindBus, ID: "bus-body", Name: "Body"},
	{Kind: canboard.SidebarItemKindNode, ID: "node-ecu", Name: "ECU"},
	{Kind: canboard.SidebarItemKindSignal, ID: "sig-speed", Name: "speed"},
}

func TestCriteria_Matches(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{name: "empty matches all", criteria: Criteria{}, want: []string{"bus-pt", "bus-body", "node-ecu", "sig-speed"}},
		{name: "single kind", criteria: Criteria{Kinds: []canboard.SidebarItemKind{canboard.SidebarItemKindBus}}, want: []string{"bus-pt", "bus-body"}},
		{name: "several kinds", criteria: Criteria{Kinds: []canboard.SidebarItemKind{canboard.SidebarItemKindNode, canboard.SidebarItemKindSignal}}, want: []string{"node-ecu", "sig-speed"}},
		{name: "glob", criteria: Criteria{NameGlob: "*o*"}, want: []string{"bus-pt", "bus-body"}},
		{name: "kind and glob", criteria: Criteria{Kinds: []canboard.SidebarItemKind{canboard.SidebarItemKindBus}, NameGlob: "B*"}, want: []string{"bus-body"}},
		{name: "glob is case sensitive", criteria: Criteria{NameGlob: "ecu"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, item := range tt.criteria.Apply(items) {
				got = append(got, item.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCriteria_HasFilters(t *testing.T) {
	assert.False(t, (&Criteria{}).HasFilters())
	assert.True(t, (&Criteria{NameGlob: "x"}).HasFilters())
	assert.True(t, (&Criteria{Kinds: []canboard.SidebarItemKind{canboard.SidebarItemKindBus}}).HasFilters())
}

func TestCriteria_Validate(t *testing.T) {
	assert.NoError(t, (&Criteria{NameGlob: "sig-*", Kinds: []canboard.SidebarItemKind{canboard.SidebarItemKindSignal}}).Validate())
	assert.Error(t, (&Criteria{Kinds: []canboard.SidebarItemKind{"gateway"}}).Validate())
	assert.Error(t, (&Criteria{NameGlob: "[a-"}).Validate())
}

func TestCriteria_MalformedGlobMatchesNothing(t *testing.T) {
	c := Criteria{NameGlob: "[a-"}
	assert.False(t, c.Matches(items[0]))
}
