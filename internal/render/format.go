// Package render formats sidebar trees, entities and instance listings for
// the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/canboard/internal/instance"
	"github.com/dyluth/canboard/pkg/canboard"
)

// OutputFormat specifies how listings are written.
type OutputFormat string

const (
	// OutputFormatDefault is an indented tree or a table
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL writes one JSON object per line
	OutputFormatJSONL OutputFormat = "jsonl"
)

// Walker visits sidebar items parents first, like sidebar.Synchronizer.
type Walker interface {
	Walk(fn func(item canboard.SidebarItem, depth int))
}

// Tree writes the sidebar as an indented tree, two spaces per level.
// Returns the number of items written.
func Tree(w io.Writer, tree Walker) int {
	count := 0
	tree.Walk(func(item canboard.SidebarItem, depth int) {
		fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", depth), kindIcon(item.Kind), formatName(item))
		count++
	})
	if count == 0 {
		fmt.Fprintln(w, "Sidebar is empty")
	}
	return count
}

// Items writes items as a table with KIND, NAME and PATH columns.
// Returns the number of items formatted.
func Items(w io.Writer, items []canboard.SidebarItem, query string) int {
	if len(items) == 0 {
		fmt.Fprintf(w, "No items match '%s'\n", query)
		return 0
	}

	fmt.Fprintf(w, "%-14s %-24s %s\n", "KIND", "NAME", "PATH")
	fmt.Fprintf(w, "%-14s %-24s %s\n", "--------------", "------------------------", "----------------------------------------")
	for _, item := range items {
		fmt.Fprintf(w, "%-14s %-24s %s\n", item.Kind, truncate(item.Name, 24), truncatePath(item.Path, 40))
	}

	countMsg := "item"
	if len(items) != 1 {
		countMsg = "items"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(items), countMsg)
	return len(items)
}

// JSONL writes each value as a single JSON object on its own line.
func JSONL[T any](w io.Writer, values []T) error {
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// JSON writes v as pretty-printed JSON followed by a newline.
func JSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// History writes a one-line summary of h.
func History(w io.Writer, h canboard.History) {
	state := "unsaved changes"
	if h.Saved {
		state = "saved"
	}
	fmt.Fprintf(w, "operations: %d  position: %d  %s  (undo: %s, redo: %s)\n",
		h.OperationCount, h.CurrentIndex, state, yesNo(h.CanUndo()), yesNo(h.CanRedo()))
}

// Instances writes discovered backend instances as a table.
func Instances(w io.Writer, infos []instance.InstanceInfo) int {
	if len(infos) == 0 {
		fmt.Fprintln(w, "No canboard instances found")
		return 0
	}

	fmt.Fprintf(w, "%-20s %-10s %s\n", "INSTANCE", "STATUS", "REDIS")
	fmt.Fprintf(w, "%-20s %-10s %s\n", "--------------------", "----------", "------------------------------")
	for _, info := range infos {
		url := info.RedisURL
		if url == "" {
			url = "-"
		}
		fmt.Fprintf(w, "%-20s %-10s %s\n", truncate(info.Name, 20), info.Status, url)
	}
	return len(infos)
}

func kindIcon(kind canboard.SidebarItemKind) string {
	switch kind {
	case canboard.SidebarItemKindGroup:
		return "▸"
	case canboard.SidebarItemKindNetwork:
		return "◆"
	case canboard.SidebarItemKindBus:
		return "═"
	case canboard.SidebarItemKindNode, canboard.SidebarItemKindNodeInterface:
		return "●"
	case canboard.SidebarItemKindMessage:
		return "✉"
	}
	return "·"
}

// formatName shows the id next to the name unless they are equal.
func formatName(item canboard.SidebarItem) string {
	if item.Name == "" {
		return item.ID
	}
	if item.Name == item.ID {
		return item.Name
	}
	return fmt.Sprintf("%s (%s)", item.Name, item.ID)
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// truncatePath keeps the tail of a path, which names the item itself.
func truncatePath(path string, max int) string {
	r := []rune(path)
	if len(r) <= max {
		return path
	}
	return "..." + string(r[len(r)-(max-3):])
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
