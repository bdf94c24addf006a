package explorer

import (
	"context"
	"fmt"
	"time"

	"github.com/samsirama/windows-explorer-clone/pkg/models"
	"github.com/samsirama/windows-explorer-clone/pkg/tree"
)

// Action is a context menu entry.
type Action string

const (
	ActionOpen       Action = "open"
	ActionRename     Action = "rename"
	ActionCut        Action = "cut"
	ActionCopy       Action = "copy"
	ActionPaste      Action = "paste"
	ActionDelete     Action = "delete"
	ActionNewFolder  Action = "new-folder"
	ActionNewFile    Action = "new-file"
	ActionProperties Action = "properties"
	ActionRefresh    Action = "refresh"
)

// ContextMenu is the open context menu. Node is nil when the menu was
// opened on empty space.
type ContextMenu struct {
	Visible bool
	X, Y    int
	Node    *models.Node
}

// Properties is the properties modal.
type Properties struct {
	Visible bool
	Node    *models.Node
	// Path is the breadcrumb trail of the node joined with backslashes.
	Path string
	// Files and Folders count the cached descendants of a folder.
	Files   int
	Folders int
	// TotalSize sums the sizes of a folder's descendant files, or is the
	// file's own size.
	TotalSize int64
}

// OpenContextMenu shows the menu at (x, y) for n, selecting n.
func (e *Explorer) OpenContextMenu(x, y int, n *models.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var target *models.Node
	if n != nil {
		t := e.activeTab()
		target = e.findIn(t.files, n)
		if target == nil {
			target = e.find(n.ID)
		}
		t.selected = target
	}
	e.menu = ContextMenu{Visible: true, X: x, Y: y, Node: target}
}

// CloseContextMenu hides the menu.
func (e *Explorer) CloseContextMenu() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.menu = ContextMenu{}
}

// ContextMenu returns the menu state.
func (e *Explorer) ContextMenu() ContextMenu {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := e.menu
	m.Node = m.Node.Clone()
	return m
}

// MenuActions lists the actions offered for the current menu target.
func (e *Explorer) MenuActions() []Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.menu.Node == nil {
		actions := []Action{ActionNewFolder, ActionNewFile}
		if e.clipboard != nil {
			actions = append(actions, ActionPaste)
		}
		return append(actions, ActionRefresh, ActionProperties)
	}
	return []Action{ActionOpen, ActionCut, ActionCopy, ActionRename, ActionDelete, ActionProperties}
}

// Dispatch closes the menu and runs action against the node it was opened
// for.
func (e *Explorer) Dispatch(ctx context.Context, action Action) error {
	e.mu.Lock()
	target := e.menu.Node.Clone()
	e.menu = ContextMenu{}
	e.mu.Unlock()

	switch action {
	case ActionOpen:
		e.OpenItem(target)
	case ActionRename:
		e.StartRename(target)
	case ActionCut:
		if target != nil {
			e.Cut(target)
		}
	case ActionCopy:
		if target != nil {
			e.Copy(target)
		}
	case ActionPaste:
		return e.Paste(ctx)
	case ActionDelete:
		if target != nil {
			return e.Delete(ctx, target)
		}
	case ActionNewFolder:
		_, err := e.CreateFolder(ctx, DefaultFolderName)
		return err
	case ActionNewFile:
		_, err := e.CreateFile(ctx, DefaultFileName)
		return err
	case ActionProperties:
		if target == nil {
			target = e.ActiveTab().CurrentFolder
		}
		e.ShowProperties(target)
	case ActionRefresh:
		return e.Refresh(ctx)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	return nil
}

// ShowProperties opens the properties modal for n. nil shows the root.
func (e *Explorer) ShowProperties(n *models.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := Properties{Visible: true}
	var subtree []*models.Node
	if n == nil {
		p.Node = &models.Node{Name: RootName, Type: models.TypeFolder}
		p.Path = RootName
		subtree = tree.Flatten(e.roots)
	} else {
		c := e.resolve(n)
		p.Node = c.Clone()
		p.Path = e.pathOf(c)
		if c.IsFolder() {
			subtree = tree.Flatten(c.Children)
		} else if c.Size != nil {
			p.TotalSize = *c.Size
		}
	}
	for _, d := range subtree {
		if d.IsFolder() {
			p.Folders++
			continue
		}
		p.Files++
		if d.Size != nil {
			p.TotalSize += *d.Size
		}
	}
	e.props = p
}

// HideProperties closes the properties modal.
func (e *Explorer) HideProperties() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.props = Properties{}
}

// Properties returns the properties modal state.
func (e *Explorer) Properties() Properties {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.props
	p.Node = p.Node.Clone()
	return p
}

// CreatedAt formats a node timestamp for display.
func CreatedAt(n *models.Node) string {
	if n == nil || n.CreatedAt.IsZero() {
		return "-"
	}
	return n.CreatedAt.Local().Format(time.DateTime)
}
