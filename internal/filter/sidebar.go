// Package filter selects sidebar items by kind and name.
package filter

import (
	"path/filepath"
	"slices"

	"github.com/dyluth/canboard/pkg/canboard"
)

// Criteria defines filtering criteria for sidebar items.
// All filters are ANDed together - an item must match ALL criteria to pass.
type Criteria struct {
	Kinds    []canboard.SidebarItemKind // Any of these kinds, empty = no filter
	NameGlob string                     // Glob pattern for the item name, empty = no filter
}

// Matches returns true if the item matches all filter criteria.
// Empty criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(item canboard.SidebarItem) bool {
	if len(c.Kinds) > 0 && !slices.Contains(c.Kinds, item.Kind) {
		return false
	}

	if c.NameGlob != "" {
		matched, err := filepath.Match(c.NameGlob, item.Name)
		if err != nil || !matched {
			return false
		}
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return len(c.Kinds) > 0 || c.NameGlob != ""
}

// Validate checks the kinds and the glob pattern.
func (c *Criteria) Validate() error {
	for _, k := range c.Kinds {
		if err := k.Validate(); err != nil {
			return err
		}
	}
	if c.NameGlob != "" {
		if _, err := filepath.Match(c.NameGlob, ""); err != nil {
			return err
		}
	}
	return nil
}

// Apply returns the items that match, in order.
func (c *Criteria) Apply(items []canboard.SidebarItem) []canboard.SidebarItem {
	out := make([]canboard.SidebarItem, 0, len(items))
	for _, item := range items {
		if c.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}
