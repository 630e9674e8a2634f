// Package sidebar mirrors the backend sidebar tree on the client.
//
// The tree is fetched whole on Load and then kept current by incremental
// events (rename, add subtree, delete subtree). Every node is also held in a
// flat index by id. Events locate their parent by walking the item's ancestry
// path from the root; an event whose path no longer resolves is dropped and the
// next full Load repairs the tree.
package sidebar

import (
	"context"
	"fmt"
	"sync"

	"github.com/dyluth/canboard/internal/logging"
	"github.com/dyluth/canboard/internal/state"
	"github.com/dyluth/canboard/pkg/canboard"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger. Dropped events are logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

// WithLanguage sets the language used to order names. Defaults to und.
func WithLanguage(tag language.Tag) Option {
	return func(s *Synchronizer) { s.collator = collate.New(tag) }
}

// Synchronizer holds the sidebar tree and its id index.
type Synchronizer struct {
	inv    canboard.Invoker
	logger *zap.Logger

	mu       sync.RWMutex
	root     *node
	index    map[string]*node
	loaded   bool
	selected string
	// collate.Collator is not safe for concurrent use; guarded by mu.
	collator *collate.Collator

	observers state.Observers[canboard.SidebarEvent]
}

// New creates an unloaded synchronizer fetching the tree through inv.
func New(inv canboard.Invoker, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		inv:   inv,
		index: make(map[string]*node),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger)
	if s.collator == nil {
		s.collator = collate.New(language.Und)
	}
	return s
}

// Loaded reports whether a Load has completed.
func (s *Synchronizer) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Load discards the current tree and fetches it again. If the fetch fails the
// synchronizer stays unloaded.
func (s *Synchronizer) Load(ctx context.Context) error {
	s.discard()

	var sb canboard.Sidebar
	if err := s.inv.Invoke(ctx, canboard.ProcSidebarGet, &sb); err != nil {
		return fmt.Errorf("failed to load sidebar: %w", err)
	}
	s.replace(sb.Root)
	s.observers.Emit(canboard.LoadEvent())
	return nil
}

func (s *Synchronizer) discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.root = nil
	s.index = make(map[string]*node)
	s.loaded = false
}

func (s *Synchronizer) replace(rootItem canboard.SidebarItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root := newNode(rootItem)
	sortTree(root, s.collator)

	s.root = root
	s.index = make(map[string]*node)
	root.walk(func(n *node, _ int) {
		s.index[n.id] = n
	})
	s.loaded = true

	if _, ok := s.index[s.selected]; !ok {
		s.selected = ""
	}
}

// Handle applies one event. A load event refetches the tree; the others are
// applied in place.
func (s *Synchronizer) Handle(ctx context.Context, ev canboard.SidebarEvent) error {
	switch ev.Type {
	case canboard.EventSidebarLoad:
		return s.Load(ctx)
	case canboard.EventSidebarUpdateName:
		if ev.UpdateName == nil {
			return fmt.Errorf("%s event without payload", ev.Type)
		}
		if s.updateName(ev.UpdateName.UpdatedID, ev.UpdateName.Name) {
			s.observers.Emit(ev)
		}
	case canboard.EventSidebarAdd:
		if ev.Add == nil {
			return fmt.Errorf("%s event without payload", ev.Type)
		}
		if s.add(ev.Add.AddedItem) {
			s.observers.Emit(ev)
		}
	case canboard.EventSidebarDelete:
		if ev.Delete == nil {
			return fmt.Errorf("%s event without payload", ev.Type)
		}
		if s.delete(ev.Delete.DeletedID) {
			s.observers.Emit(ev)
		}
	default:
		return fmt.Errorf("unknown sidebar event type %q", ev.Type)
	}
	return nil
}

// Run loads the tree, then applies events from src until ctx is done. A
// failed load or event is logged and the loop continues. It returns an error
// if src closes while ctx is still live.
func (s *Synchronizer) Run(ctx context.Context, src state.Source[canboard.SidebarEvent]) error {
	if err := s.Load(ctx); err != nil {
		s.logger.Warn("initial sidebar load failed", zap.Error(err))
	}

	events, errs := src.Events(), src.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("sidebar subscription closed")
			}
			if err := s.Handle(ctx, ev); err != nil {
				s.logger.Warn("failed to apply sidebar event",
					zap.String("type", string(ev.Type)),
					zap.Error(err))
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("sidebar subscription error", zap.Error(err))
		}
	}
}

// OnChange registers fn to run after every applied event. It returns a
// function that unregisters fn.
func (s *Synchronizer) OnChange(fn func(canboard.SidebarEvent)) (cancel func()) {
	return s.observers.Add(fn)
}

// parentOf resolves the parent of the item at path. Must hold mu.
func (s *Synchronizer) parentOf(path string) *node {
	segments := splitPath(path)
	if s.root == nil || len(segments) < 2 || segments[0] != s.root.id {
		return nil
	}

	cur := s.root
	for _, id := range segments[1 : len(segments)-1] {
		if cur = cur.child(id); cur == nil {
			return nil
		}
	}
	return cur
}

func (s *Synchronizer) updateName(id, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.index[id]
	if !ok {
		s.logger.Debug("dropping rename of unknown sidebar item", zap.String("id", id))
		return false
	}
	n.name = name

	if parent := s.parentOf(n.path); parent != nil {
		sortChildren(parent, s.collator)
	}
	return true
}

func (s *Synchronizer) add(item canboard.SidebarItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := item.Validate(); err != nil {
		s.logger.Debug("dropping invalid sidebar item", zap.Error(err))
		return false
	}

	parent := s.parentOf(item.Path)
	if parent == nil {
		s.logger.Debug("dropping sidebar item with unresolvable path",
			zap.String("id", item.ID),
			zap.String("path", item.Path))
		return false
	}

	n := newNode(item)

	// An id appears at most once in the tree, so any indexed node sharing an
	// id with the new subtree is moved out first.
	var stale []*node
	n.walk(func(d *node, _ int) {
		if old, ok := s.index[d.id]; ok {
			stale = append(stale, old)
		}
	})
	if len(stale) > 0 {
		for _, old := range stale {
			if s.index[old.id] == old {
				s.detach(old)
			}
		}
		if parent = s.parentOf(item.Path); parent == nil {
			s.logger.Debug("dropping sidebar item whose parent it displaced",
				zap.String("id", item.ID),
				zap.String("path", item.Path))
			return true
		}
	}

	sortTree(n, s.collator)
	parent.children = append([]*node{n}, parent.children...)
	n.walk(func(d *node, _ int) {
		s.index[d.id] = d
	})
	sortChildren(parent, s.collator)
	return true
}

func (s *Synchronizer) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.index[id]
	if !ok {
		s.logger.Debug("dropping delete of unknown sidebar item", zap.String("id", id))
		return false
	}
	if !s.detach(n) {
		s.logger.Debug("dropping delete with unresolvable path",
			zap.String("id", id),
			zap.String("path", n.path))
		return false
	}
	return true
}

// detach removes n from its parent and unindexes its subtree. Nothing changes
// if the parent cannot be resolved. Must hold mu.
func (s *Synchronizer) detach(n *node) bool {
	parent := s.parentOf(n.path)
	if parent == nil || !parent.removeChild(n.id) {
		return false
	}
	n.walk(func(d *node, _ int) {
		if s.index[d.id] == d {
			delete(s.index, d.id)
		}
		if s.selected == d.id {
			s.selected = ""
		}
	})
	return true
}

// Item returns a copy of the subtree rooted at id.
func (s *Synchronizer) Item(id string) (canboard.SidebarItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.index[id]
	if !ok {
		return canboard.SidebarItem{}, false
	}
	return n.item(), true
}

// Root returns a copy of the whole tree.
func (s *Synchronizer) Root() (canboard.SidebarItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.root == nil {
		return canboard.SidebarItem{}, false
	}
	return s.root.item(), true
}

// Len returns the number of indexed items.
func (s *Synchronizer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

// Walk calls fn for every item, parents before children, with the depth
// below the root. Items are passed without their children. fn runs after the
// tree lock is released and may call back into s.
func (s *Synchronizer) Walk(fn func(item canboard.SidebarItem, depth int)) {
	type visit struct {
		item  canboard.SidebarItem
		depth int
	}

	s.mu.RLock()
	var visits []visit
	if s.root != nil {
		s.root.walk(func(n *node, depth int) {
			visits = append(visits, visit{item: n.shallow(), depth: depth})
		})
	}
	s.mu.RUnlock()

	for _, v := range visits {
		fn(v.item, v.depth)
	}
}
