package explorer

import (
	"context"
	"fmt"
	"strings"

	"github.com/samsirama/windows-explorer-clone/pkg/models"
	"github.com/samsirama/windows-explorer-clone/pkg/tree"
)

// Crumb is one breadcrumb entry. The root crumb has an empty ID.
type Crumb struct {
	ID   string
	Name string
}

// NavigateTo opens folder in the active tab; nil opens the root. Forward
// history beyond the cursor is discarded. Navigating to the folder that is
// already open, or to a file, does nothing.
func (e *Explorer) NavigateTo(folder *models.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.navigate(e.activeTab(), folder)
}

// Back moves the active tab one step back in its history.
func (e *Explorer) Back() {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.activeTab()
	if t.index == 0 {
		return
	}
	t.index--
	e.show(t, e.resolve(t.history[t.index]))
}

// Forward moves the active tab one step forward in its history.
func (e *Explorer) Forward() {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.activeTab()
	if t.index >= len(t.history)-1 {
		return
	}
	t.index++
	e.show(t, e.resolve(t.history[t.index]))
}

// Up navigates to the parent of the current folder. A parent that cannot
// be found in the cache is treated as the root.
func (e *Explorer) Up() {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.activeTab()
	if t.current == nil {
		return
	}
	e.navigate(t, e.find(t.current.Parent()))
}

// CanBack reports whether Back would move.
func (e *Explorer) CanBack() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeTab().index > 0
}

// CanForward reports whether Forward would move.
func (e *Explorer) CanForward() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.activeTab()
	return t.index < len(t.history)-1
}

// OpenItem navigates into folders and shows the properties of files.
func (e *Explorer) OpenItem(n *models.Node) {
	if n == nil {
		return
	}
	if n.IsFolder() {
		e.NavigateTo(n)
		return
	}
	e.ShowProperties(n)
}

// Select marks n as the selected item of the active tab. nil clears the
// selection.
func (e *Explorer) Select(n *models.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.activeTab()
	t.selected = e.findIn(t.files, n)
}

// FindFolder returns a copy of the cached folder with the given id.
func (e *Explorer) FindFolder(id string) *models.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.find(id)
	if !n.IsFolder() {
		return nil
	}
	return n.Clone()
}

// Breadcrumbs returns the path to the active tab's folder, root first.
func (e *Explorer) Breadcrumbs() []Crumb {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.crumbs(e.activeTab().current)
}

// Search replaces the active tab's listing with the nodes whose names
// contain query. An empty query restores the folder listing. Results that
// arrive after the tab has navigated elsewhere, or after a newer search,
// are discarded.
func (e *Explorer) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)

	e.mu.Lock()
	t := e.activeTab()
	if query == "" {
		e.show(t, t.current)
		e.mu.Unlock()
		return nil
	}
	t.gen++
	gen, tabID := t.gen, t.id
	e.mu.Unlock()

	results, err := e.backend.Search(ctx, query)

	e.mu.Lock()
	t = e.tabByID(tabID)
	if t == nil || t.gen != gen {
		e.mu.Unlock()
		return nil
	}
	if err != nil {
		e.mu.Unlock()
		e.notify(fmt.Sprintf("Search failed: %v", err))
		return err
	}
	files := make([]*models.Node, 0, len(results))
	for _, r := range results {
		files = append(files, e.resolve(r))
	}
	t.files = files
	t.query = query
	t.selected = nil
	e.mu.Unlock()
	return nil
}

// navigate pushes folder onto t's history. Caller holds the lock.
func (e *Explorer) navigate(t *tab, folder *models.Node) {
	var target *models.Node
	if folder != nil {
		target = e.find(folder.ID)
		if !target.IsFolder() {
			return
		}
	}
	if sameNode(t.current, target) {
		if t.query != "" {
			e.show(t, target)
		}
		return
	}
	t.history = append(t.history[:t.index+1:t.index+1], target)
	t.index = len(t.history) - 1
	e.show(t, target)
}

// show makes folder the tab's current folder without touching history.
func (e *Explorer) show(t *tab, folder *models.Node) {
	t.current = folder
	t.files = e.listing(folder)
	t.selected = nil
	t.query = ""
	t.gen++
}

func (e *Explorer) crumbs(n *models.Node) []Crumb {
	out := []Crumb{{Name: RootName}}
	for _, a := range tree.Ancestors(e.roots, n) {
		out = append(out, Crumb{ID: a.ID, Name: a.Name})
	}
	return out
}

// pathOf renders the breadcrumb trail of n as a path.
func (e *Explorer) pathOf(n *models.Node) string {
	crumbs := e.crumbs(n)
	names := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		names = append(names, c.Name)
	}
	return strings.Join(names, `\`)
}

func sameNode(a, b *models.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
