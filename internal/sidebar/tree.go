package sidebar

import (
	"sort"
	"strings"

	"github.com/dyluth/canboard/pkg/canboard"
	"golang.org/x/text/collate"
)

// node is the mutable form of a SidebarItem held by the synchronizer.
type node struct {
	kind     canboard.SidebarItemKind
	id       string
	path     string
	name     string
	children []*node
}

func newNode(item canboard.SidebarItem) *node {
	n := &node{
		kind: item.Kind,
		id:   item.ID,
		path: item.Path,
		name: item.Name,
	}
	for _, child := range item.Children {
		n.children = append(n.children, newNode(child))
	}
	return n
}

// item returns a deep copy of the subtree rooted at n.
func (n *node) item() canboard.SidebarItem {
	it := n.shallow()
	if len(n.children) > 0 {
		it.Children = make([]canboard.SidebarItem, len(n.children))
		for i, c := range n.children {
			it.Children[i] = c.item()
		}
	}
	return it
}

// shallow returns n without its children.
func (n *node) shallow() canboard.SidebarItem {
	return canboard.SidebarItem{Kind: n.kind, ID: n.id, Path: n.path, Name: n.name}
}

func (n *node) child(id string) *node {
	for _, c := range n.children {
		if c.id == id {
			return c
		}
	}
	return nil
}

// removeChild detaches id from n and reports whether it was a child.
func (n *node) removeChild(id string) bool {
	for i, c := range n.children {
		if c.id == id {
			n.children = append(n.children[:i:i], n.children[i+1:]...)
			return true
		}
	}
	return false
}

// walk visits n and its descendants depth first, parents before children.
func (n *node) walk(fn func(n *node, depth int)) {
	var visit func(n *node, depth int)
	visit = func(n *node, depth int) {
		fn(n, depth)
		for _, c := range n.children {
			visit(c, depth+1)
		}
	}
	visit(n, 0)
}

func splitPath(path string) []string {
	return strings.Split(path, canboard.SidebarPathSeparator)
}

// sortChildren orders the children of n: groups first, then by name with
// the collator, then by id.
func sortChildren(n *node, col *collate.Collator) {
	sort.SliceStable(n.children, func(i, j int) bool {
		a, b := n.children[i], n.children[j]
		ag, bg := a.kind == canboard.SidebarItemKindGroup, b.kind == canboard.SidebarItemKindGroup
		if ag != bg {
			return ag
		}
		if c := col.CompareString(a.name, b.name); c != 0 {
			return c < 0
		}
		return a.id < b.id
	})
}

func sortTree(root *node, col *collate.Collator) {
	root.walk(func(n *node, _ int) {
		sortChildren(n, col)
	})
}
