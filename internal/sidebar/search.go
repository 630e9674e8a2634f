package sidebar

import (
	"sort"

	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Find returns the items whose name fuzzily matches query, best match first.
// Items are returned without children. An empty query matches nothing.
func (s *Synchronizer) Find(query string) []canboard.SidebarItem {
	if query == "" {
		return nil
	}

	var items []canboard.SidebarItem
	s.Walk(func(item canboard.SidebarItem, _ int) {
		items = append(items, item)
	})

	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	out := make([]canboard.SidebarItem, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, items[r.OriginalIndex])
	}
	return out
}
