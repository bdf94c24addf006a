package explorer

import (
	"context"
	"fmt"
	"strings"

	"github.com/samsirama/windows-explorer-clone/pkg/models"
	"github.com/samsirama/windows-explorer-clone/pkg/protocol"
	"github.com/samsirama/windows-explorer-clone/pkg/tree"
)

// ClipboardAction is the pending paste operation.
type ClipboardAction string

const (
	ClipboardCopy ClipboardAction = "COPY"
	ClipboardCut  ClipboardAction = "CUT"
)

// CopySuffix is appended to the names of pasted copies.
const CopySuffix = " (Copy)"

// Clipboard holds nodes staged for a move or a copy.
type Clipboard struct {
	Action ClipboardAction
	Nodes  []*models.Node
}

// Cut stages nodes for a move. With no arguments the active tab's
// selection is used.
func (e *Explorer) Cut(nodes ...*models.Node) {
	e.stage(ClipboardCut, nodes)
}

// Copy stages nodes for duplication. With no arguments the active tab's
// selection is used.
func (e *Explorer) Copy(nodes ...*models.Node) {
	e.stage(ClipboardCopy, nodes)
}

// ClearClipboard empties the clipboard.
func (e *Explorer) ClearClipboard() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clipboard = nil
}

func (e *Explorer) stage(action ClipboardAction, nodes []*models.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(nodes) == 0 {
		if sel := e.activeTab().selected; sel != nil {
			nodes = []*models.Node{sel}
		}
	}
	var staged []*models.Node
	for _, n := range nodes {
		if n == nil || strings.HasPrefix(n.ID, TempIDPrefix) {
			continue
		}
		staged = append(staged, e.resolve(n).Clone())
	}
	if len(staged) == 0 {
		return
	}
	e.clipboard = &Clipboard{Action: action, Nodes: staged}
}

// Paste applies the clipboard to the active tab's folder.
//
// CUT sends one parent update per node, moving it into the folder; nodes
// that would land inside themselves are skipped with a notice, and nodes
// already in the folder are left alone. The clipboard is cleared once every
// move succeeded; a paste where every node was skipped keeps it. COPY sends one create
// per node with CopySuffix appended to the name and keeps the clipboard
// for further pastes. Both reload the tree afterwards.
func (e *Explorer) Paste(ctx context.Context) error {
	e.mu.Lock()
	cb := e.clipboard
	if cb == nil {
		e.mu.Unlock()
		return nil
	}
	target := e.activeTab().current
	var targetID *string
	if target != nil {
		targetID = models.StringPtr(target.ID)
	}
	nodes := cloneNodes(cb.Nodes)
	action := cb.Action

	var moves []*models.Node
	var skipped []string
	if action == ClipboardCut {
		for _, n := range nodes {
			if e.resolve(n).Parent() == currentID(e.activeTab()) {
				continue
			}
			if targetID != nil && n.IsFolder() && tree.IsDescendant(e.roots, n.ID, *targetID) {
				skipped = append(skipped, n.Name)
				continue
			}
			moves = append(moves, n)
		}
	}
	e.mu.Unlock()

	if len(skipped) > 0 {
		e.notify(fmt.Sprintf("Cannot move %s into itself", strings.Join(skipped, ", ")))
		if len(moves) == 0 {
			return nil
		}
	}

	var err error
	if action == ClipboardCut {
		err = e.pasteCut(ctx, moves, targetID)
	} else {
		err = e.pasteCopy(ctx, nodes, targetID)
	}
	if err != nil {
		return err
	}
	return e.Refresh(ctx)
}

func (e *Explorer) pasteCut(ctx context.Context, moves []*models.Node, targetID *string) error {
	err := e.mutate(ctx, "Move",
		func() func() {
			for _, n := range moves {
				e.move(n.ID, targetID)
			}
			return nil
		},
		func(ctx context.Context) error {
			for _, n := range moves {
				patch := models.NodePatch{ParentID: targetID, ParentSet: true}
				if _, err := e.backend.UpdateNode(ctx, n.ID, patch); err != nil {
					return err
				}
			}
			return nil
		},
		recoverResync)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.clipboard = nil
	e.mu.Unlock()
	return nil
}

func (e *Explorer) pasteCopy(ctx context.Context, nodes []*models.Node, targetID *string) error {
	return e.mutate(ctx, "Paste", nil,
		func(ctx context.Context) error {
			for _, n := range nodes {
				req := protocol.CreateNodeRequest{
					Name:     n.Name + CopySuffix,
					Type:     n.Type,
					ParentID: targetID,
					Size:     n.Size,
				}
				if _, err := e.backend.CreateNode(ctx, req); err != nil {
					return err
				}
			}
			return nil
		},
		recoverResync)
}

// move re-parents a cached node, keeping its subtree, and refreshes the
// affected listings.
func (e *Explorer) move(id string, parentID *string) {
	n := e.remove(id)
	if n == nil {
		return
	}
	if parentID == nil {
		n.ParentID = nil
	} else {
		n.ParentID = models.StringPtr(*parentID)
	}
	e.insert(n)
}
