// Package explorer holds the client-side state of the file explorer: the
// cached tree, tabs with their navigation history, selection, clipboard,
// rename buffer, context menu and properties modal.
//
// All state lives in one Explorer value. Every mutation goes through its
// methods, which take the lock for local changes only; network calls to the
// Backend are always made with the lock released.
package explorer

import (
	"context"
	"fmt"
	"sync"

	"github.com/samsirama/windows-explorer-clone/pkg/models"
	"github.com/samsirama/windows-explorer-clone/pkg/protocol"
	"github.com/samsirama/windows-explorer-clone/pkg/tree"
)

// RootName labels the pseudo-folder above all roots.
const RootName = "This PC"

// Backend is the REST surface the explorer drives.
type Backend interface {
	FetchTree(ctx context.Context) ([]*models.Node, error)
	Search(ctx context.Context, query string) ([]*models.Node, error)
	CreateNode(ctx context.Context, req protocol.CreateNodeRequest) (*models.Node, error)
	UpdateNode(ctx context.Context, id string, patch models.NodePatch) (*models.Node, error)
	DeleteNode(ctx context.Context, id string) error
}

// Tab is a snapshot of one tab's navigation state. A nil entry in History
// or a nil CurrentFolder stands for the root.
type Tab struct {
	ID            string
	History       []*models.Node
	HistoryIndex  int
	CurrentFolder *models.Node
	CurrentFiles  []*models.Node
	SelectedItem  *models.Node
	// SearchQuery is set while CurrentFiles holds search results.
	SearchQuery string
}

type tab struct {
	id       string
	history  []*models.Node
	index    int
	current  *models.Node
	files    []*models.Node
	selected *models.Node
	query    string
	// gen changes on every navigation so late search results can be discarded.
	gen uint64
}

// Explorer is the explorer state manager.
type Explorer struct {
	mu sync.Mutex

	backend  Backend
	notifier Notifier

	roots     []*models.Node
	tabs      []*tab
	active    string
	nextTab   int
	clipboard *Clipboard
	menu      ContextMenu
	rename    renameState
	props     Properties
}

// Option configures an Explorer.
type Option func(*Explorer)

// WithNotifier sets the sink for user-facing failure messages.
func WithNotifier(n Notifier) Option {
	return func(e *Explorer) {
		e.notifier = n
	}
}

// New creates an explorer with one tab at the root. The tree is empty
// until Refresh is called.
func New(backend Backend, opts ...Option) *Explorer {
	e := &Explorer{
		backend:  backend,
		notifier: LogNotifier{},
		roots:    []*models.Node{},
	}
	for _, opt := range opts {
		opt(e)
	}
	t := e.newTab()
	e.active = t.id
	return e
}

// Tabs returns snapshots of all tabs in order.
func (e *Explorer) Tabs() []Tab {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Tab, 0, len(e.tabs))
	for _, t := range e.tabs {
		out = append(out, t.snapshot())
	}
	return out
}

// ActiveTab returns a snapshot of the active tab.
func (e *Explorer) ActiveTab() Tab {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeTab().snapshot()
}

// NewTab opens a tab at the root and makes it active.
func (e *Explorer) NewTab() Tab {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.newTab()
	e.active = t.id
	return t.snapshot()
}

// CloseTab closes a tab. Closing the last tab is a no-op. When the active
// tab closes, the tab that takes its index (or the new last tab) becomes
// active.
func (e *Explorer) CloseTab(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.tabs) <= 1 {
		return
	}
	i := e.tabIndex(id)
	if i < 0 {
		return
	}
	e.tabs = append(e.tabs[:i], e.tabs[i+1:]...)
	if e.active == id {
		if i >= len(e.tabs) {
			i = len(e.tabs) - 1
		}
		e.active = e.tabs[i].id
	}
}

// SwitchTab makes id the active tab. It reports whether the tab exists.
func (e *Explorer) SwitchTab(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tabIndex(id) < 0 {
		return false
	}
	e.active = id
	return true
}

// Roots returns a deep copy of the cached forest.
func (e *Explorer) Roots() []*models.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneForest(e.roots)
}

// Clipboard returns the clipboard contents, or nil when empty.
func (e *Explorer) Clipboard() *Clipboard {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.clipboard == nil {
		return nil
	}
	return &Clipboard{Action: e.clipboard.Action, Nodes: cloneNodes(e.clipboard.Nodes)}
}

// Refresh reloads the whole tree and re-resolves every tab against it.
func (e *Explorer) Refresh(ctx context.Context) error {
	err := e.refresh(ctx)
	if err != nil {
		e.notify(fmt.Sprintf("Could not load folders: %v", err))
	}
	return err
}

func (e *Explorer) refresh(ctx context.Context) error {
	roots, err := e.backend.FetchTree(ctx)
	if err != nil {
		return err
	}
	if roots == nil {
		roots = []*models.Node{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.roots = roots
	for _, t := range e.tabs {
		for i, h := range t.history {
			t.history[i] = e.resolve(h)
		}
		t.current = e.resolve(t.current)
		if t.query != "" {
			t.files = e.resolveAll(t.files)
		} else {
			t.files = e.listing(t.current)
		}
		t.selected = e.findIn(t.files, t.selected)
	}
	return nil
}

func (e *Explorer) newTab() *tab {
	e.nextTab++
	t := &tab{
		id:      fmt.Sprintf("tab-%d", e.nextTab),
		history: []*models.Node{nil},
		files:   e.listing(nil),
	}
	e.tabs = append(e.tabs, t)
	return t
}

func (e *Explorer) activeTab() *tab {
	if i := e.tabIndex(e.active); i >= 0 {
		return e.tabs[i]
	}
	return e.tabs[0]
}

func (e *Explorer) tabByID(id string) *tab {
	if i := e.tabIndex(id); i >= 0 {
		return e.tabs[i]
	}
	return nil
}

func (e *Explorer) tabIndex(id string) int {
	for i, t := range e.tabs {
		if t.id == id {
			return i
		}
	}
	return -1
}

// find looks a node up in the cached tree by depth-first search.
func (e *Explorer) find(id string) *models.Node {
	if id == "" {
		return nil
	}
	return tree.FindByID(e.roots, id)
}

// resolve maps a possibly stale node onto its cached counterpart. Nodes
// no longer in the cache are returned unchanged.
func (e *Explorer) resolve(n *models.Node) *models.Node {
	if n == nil {
		return nil
	}
	if c := e.find(n.ID); c != nil {
		return c
	}
	return n
}

// resolveAll re-resolves a listing, dropping nodes that have disappeared.
func (e *Explorer) resolveAll(nodes []*models.Node) []*models.Node {
	out := make([]*models.Node, 0, len(nodes))
	for _, n := range nodes {
		if c := e.find(n.ID); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// listing returns the children of folder, or the roots for nil. A folder
// missing from the cache lists as empty.
func (e *Explorer) listing(folder *models.Node) []*models.Node {
	var src []*models.Node
	if folder == nil {
		src = e.roots
	} else if c := e.find(folder.ID); c != nil {
		src = c.Children
	}
	return append([]*models.Node{}, src...)
}

func (e *Explorer) findIn(nodes []*models.Node, n *models.Node) *models.Node {
	if n == nil {
		return nil
	}
	for _, c := range nodes {
		if c.ID == n.ID {
			return c
		}
	}
	return nil
}

// forEachRef calls fn once for every distinct node value carrying id: the
// cached node plus any snapshot held by tabs or the clipboard.
func (e *Explorer) forEachRef(id string, fn func(*models.Node)) {
	seen := make(map[*models.Node]bool)
	visit := func(n *models.Node) {
		if n != nil && n.ID == id && !seen[n] {
			seen[n] = true
			fn(n)
		}
	}
	visit(e.find(id))
	for _, t := range e.tabs {
		visit(t.current)
		visit(t.selected)
		for _, h := range t.history {
			visit(h)
		}
		for _, f := range t.files {
			visit(f)
		}
	}
	if e.clipboard != nil {
		for _, n := range e.clipboard.Nodes {
			visit(n)
		}
	}
}

func (e *Explorer) notify(msg string) {
	if e.notifier != nil {
		e.notifier.Notify(msg)
	}
}

func (t *tab) snapshot() Tab {
	history := make([]*models.Node, len(t.history))
	for i, h := range t.history {
		history[i] = h.Clone()
	}
	return Tab{
		ID:            t.id,
		History:       history,
		HistoryIndex:  t.index,
		CurrentFolder: t.current.Clone(),
		CurrentFiles:  cloneNodes(t.files),
		SelectedItem:  t.selected.Clone(),
		SearchQuery:   t.query,
	}
}

func cloneNodes(nodes []*models.Node) []*models.Node {
	out := make([]*models.Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Clone())
	}
	return out
}

func cloneForest(roots []*models.Node) []*models.Node {
	seen := make(map[*models.Node]bool)
	var clone func(n *models.Node, depth int) *models.Node
	clone = func(n *models.Node, depth int) *models.Node {
		c := n.Clone()
		c.Children = []*models.Node{}
		if depth >= tree.MaxDepth || seen[n] {
			return c
		}
		seen[n] = true
		for _, child := range n.Children {
			c.Children = append(c.Children, clone(child, depth+1))
		}
		return c
	}
	out := make([]*models.Node, 0, len(roots))
	for _, r := range roots {
		out = append(out, clone(r, 0))
	}
	return out
}
