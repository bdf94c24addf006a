package explorer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samsirama/windows-explorer-clone/pkg/models"
	"github.com/samsirama/windows-explorer-clone/pkg/protocol"
	"github.com/samsirama/windows-explorer-clone/pkg/tree"
)

// TempIDPrefix marks placeholder nodes that the server has not confirmed.
const TempIDPrefix = "tmp-"

// Default names for nodes created without one.
const (
	DefaultFolderName = "New folder"
	DefaultFileName   = "New file.txt"
)

// recovery selects how a failed optimistic mutation is reconciled.
type recovery int

const (
	// recoverUndo runs the undo returned by apply.
	recoverUndo recovery = iota
	// recoverResync reloads the whole tree from the server.
	recoverResync
)

// mutate applies a local change under the lock, issues the request without
// it, and on failure notifies once and reconciles according to rec.
// apply may return a nil undo.
func (e *Explorer) mutate(ctx context.Context, op string, apply func() (undo func()), request func(context.Context) error, rec recovery) error {
	var undo func()
	if apply != nil {
		e.mu.Lock()
		undo = apply()
		e.mu.Unlock()
	}

	err := request(ctx)
	if err == nil {
		return nil
	}

	e.notify(fmt.Sprintf("%s failed: %v", op, err))
	switch rec {
	case recoverUndo:
		if undo != nil {
			e.mu.Lock()
			undo()
			e.mu.Unlock()
		}
	case recoverResync:
		// The action already reported its failure; a failed reload only
		// leaves the optimistic state in place.
		e.refresh(ctx)
	}
	return err
}

type renameState struct {
	nodeID string
	text   string
}

// RenameState is the inline rename buffer.
type RenameState struct {
	Editing bool
	NodeID  string
	Text    string
}

// Rename returns the rename buffer.
func (e *Explorer) Rename() RenameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return RenameState{
		Editing: e.rename.nodeID != "",
		NodeID:  e.rename.nodeID,
		Text:    e.rename.text,
	}
}

// StartRename puts n into editing mode with its current name staged. Only
// one node is edited at a time; starting another replaces the first.
func (e *Explorer) StartRename(n *models.Node) {
	if n == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.find(n.ID)
	if c == nil {
		return
	}
	e.rename = renameState{nodeID: c.ID, text: c.Name}
}

// SetRenameText replaces the staged name.
func (e *Explorer) SetRenameText(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rename.nodeID != "" {
		e.rename.text = s
	}
}

// CancelRename leaves editing mode without changes.
func (e *Explorer) CancelRename() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rename = renameState{}
}

// CommitRename leaves editing mode and, if the trimmed name is non-empty
// and differs from the current one, renames the node immediately and
// sends the update. The old name is restored if the update fails.
func (e *Explorer) CommitRename(ctx context.Context) error {
	e.mu.Lock()
	st := e.rename
	e.rename = renameState{}
	name := strings.TrimSpace(st.text)
	n := e.find(st.nodeID)
	if st.nodeID == "" || name == "" || n == nil || name == n.Name {
		e.mu.Unlock()
		return nil
	}
	id, old := n.ID, n.Name
	e.mu.Unlock()

	return e.mutate(ctx, "Rename",
		func() func() {
			e.setName(id, name)
			return func() { e.setName(id, old) }
		},
		func(ctx context.Context) error {
			_, err := e.backend.UpdateNode(ctx, id, models.NodePatch{Name: &name})
			return err
		},
		recoverUndo)
}

func (e *Explorer) setName(id, name string) {
	e.forEachRef(id, func(n *models.Node) { n.Name = name })
}

// CreateFolder creates a folder in the active tab's folder.
func (e *Explorer) CreateFolder(ctx context.Context, name string) (*models.Node, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultFolderName
	}
	return e.create(ctx, name, models.TypeFolder)
}

// CreateFile creates an empty file in the active tab's folder.
func (e *Explorer) CreateFile(ctx context.Context, name string) (*models.Node, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultFileName
	}
	return e.create(ctx, name, models.TypeFile)
}

// create inserts a placeholder into the listing, then swaps in the server's
// node. A failure reloads the tree, which drops the placeholder.
func (e *Explorer) create(ctx context.Context, name string, typ models.NodeType) (*models.Node, error) {
	name = strings.TrimSpace(name)
	req := protocol.CreateNodeRequest{Name: name, Type: typ}
	placeholder := &models.Node{
		ID:        TempIDPrefix + uuid.NewString(),
		Name:      name,
		Type:      typ,
		Children:  []*models.Node{},
		CreatedAt: time.Now(),
	}
	if typ == models.TypeFile {
		req.Size = models.Int64Ptr(0)
		placeholder.Size = models.Int64Ptr(0)
	}

	var created *models.Node
	err := e.mutate(ctx, "Create",
		func() func() {
			t := e.activeTab()
			if t.current != nil {
				req.ParentID = models.StringPtr(t.current.ID)
				placeholder.ParentID = models.StringPtr(t.current.ID)
			}
			e.insert(placeholder)
			t.selected = placeholder
			return nil
		},
		func(ctx context.Context) error {
			var err error
			created, err = e.backend.CreateNode(ctx, req)
			return err
		},
		recoverResync)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	children := placeholder.Children
	*placeholder = *created.Clone()
	placeholder.Children = children
	if placeholder.Children == nil {
		placeholder.Children = []*models.Node{}
	}
	return placeholder.Clone(), nil
}

// insert adds n to the cached tree under its parent and to every tab
// currently listing that parent.
func (e *Explorer) insert(n *models.Node) {
	parentID := n.Parent()
	if parent := e.find(parentID); parent != nil {
		parent.Children = append(parent.Children, n)
	} else {
		e.roots = append(e.roots, n)
	}
	for _, t := range e.tabs {
		if t.query == "" && currentID(t) == parentID {
			t.files = append(t.files, n)
		}
	}
}

// Delete removes nodes from the view at once and deletes them on the
// server one by one. The first failure stops the batch and reloads the
// tree.
func (e *Explorer) Delete(ctx context.Context, nodes ...*models.Node) error {
	var ids []string
	for _, n := range nodes {
		if n != nil && !strings.HasPrefix(n.ID, TempIDPrefix) {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	return e.mutate(ctx, "Delete",
		func() func() {
			for _, id := range ids {
				e.remove(id)
			}
			return nil
		},
		func(ctx context.Context) error {
			for _, id := range ids {
				if err := e.backend.DeleteNode(ctx, id); err != nil {
					return err
				}
			}
			return nil
		},
		recoverResync)
}

// remove detaches id from the cached tree and drops it from every listing.
// It returns the detached node, or nil if it was not cached.
func (e *Explorer) remove(id string) *models.Node {
	var removed *models.Node
	e.roots, removed = tree.RemoveByID(e.roots, id)
	for _, t := range e.tabs {
		files := t.files[:0:0]
		for _, f := range t.files {
			if f.ID != id {
				files = append(files, f)
			}
		}
		t.files = files
		if t.selected != nil && t.selected.ID == id {
			t.selected = nil
		}
	}
	return removed
}

func currentID(t *tab) string {
	if t.current == nil {
		return ""
	}
	return t.current.ID
}
