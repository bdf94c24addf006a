// Package models contains the data types shared by the server, the client and the explorer.
package models

import "time"

// NodeType distinguishes folders from files.
type NodeType string

const (
	TypeFolder NodeType = "FOLDER"
	TypeFile   NodeType = "FILE"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	return t == TypeFolder || t == TypeFile
}

// Node represents a file or folder in the explorer hierarchy.
// A nil ParentID marks a root node.
type Node struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      NodeType  `json:"type"`
	ParentID  *string   `json:"parentId"`
	Children  []*Node   `json:"children"`
	Size      *int64    `json:"size,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsFolder reports whether the node is a folder.
func (n *Node) IsFolder() bool {
	return n != nil && n.Type == TypeFolder
}

// Parent returns the parent id, or "" for roots.
func (n *Node) Parent() string {
	if n == nil || n.ParentID == nil {
		return ""
	}
	return *n.ParentID
}

// Clone returns a shallow copy of the node without children.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Children = nil
	if n.ParentID != nil {
		pid := *n.ParentID
		c.ParentID = &pid
	}
	if n.Size != nil {
		size := *n.Size
		c.Size = &size
	}
	return &c
}

// NodePatch is a partial update. ParentSet distinguishes "move to root"
// (ParentSet with a nil ParentID) from "parent unchanged".
type NodePatch struct {
	Name      *string
	Type      *NodeType
	Size      *int64
	ParentID  *string
	ParentSet bool
}

// Empty reports whether the patch changes nothing.
func (p NodePatch) Empty() bool {
	return p.Name == nil && p.Type == nil && p.Size == nil && !p.ParentSet
}

// Apply writes the patch fields onto n. Turning a node into a folder
// drops its size unless the patch sets one.
func (p NodePatch) Apply(n *Node) {
	if p.Name != nil {
		n.Name = *p.Name
	}
	if p.Type != nil {
		n.Type = *p.Type
		if p.ClearsSize() {
			n.Size = nil
		}
	}
	if p.Size != nil {
		size := *p.Size
		n.Size = &size
	}
	if p.ParentSet {
		if p.ParentID == nil {
			n.ParentID = nil
		} else {
			pid := *p.ParentID
			n.ParentID = &pid
		}
	}
}

// ClearsSize reports whether applying the patch nulls the size column.
func (p NodePatch) ClearsSize() bool {
	return p.Type != nil && *p.Type == TypeFolder && p.Size == nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}
