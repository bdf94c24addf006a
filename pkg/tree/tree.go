// Package tree provides shared utilities for building and walking node forests.
package tree

import (
	"github.com/samsirama/windows-explorer-clone/pkg/models"
)

// MaxDepth bounds every recursive walk so that a corrupted parent chain
// cannot recurse forever.
const MaxDepth = 256

// Build converts a flat list of nodes into a forest. Nodes whose parent is
// nil, unknown, or themselves become roots. Sibling order follows input order.
// The input nodes are not modified.
func Build(nodes []*models.Node) []*models.Node {
	index := make(map[string]*models.Node, len(nodes))
	copies := make([]*models.Node, 0, len(nodes))

	for _, n := range nodes {
		if n == nil {
			continue
		}
		c := n.Clone()
		c.Children = []*models.Node{}
		index[c.ID] = c
		copies = append(copies, c)
	}

	roots := []*models.Node{}
	for _, c := range copies {
		pid := c.Parent()
		if parent, ok := index[pid]; ok && pid != c.ID {
			parent.Children = append(parent.Children, c)
			continue
		}
		roots = append(roots, c)
	}
	return roots
}

// FindByID finds a node by its ID in a forest (depth-first).
func FindByID(roots []*models.Node, id string) *models.Node {
	seen := make(map[*models.Node]bool)
	for _, r := range roots {
		if found := findByID(r, id, 0, seen); found != nil {
			return found
		}
	}
	return nil
}

func findByID(n *models.Node, id string, depth int, seen map[*models.Node]bool) *models.Node {
	if n == nil || depth > MaxDepth || seen[n] {
		return nil
	}
	seen[n] = true
	if n.ID == id {
		return n
	}
	for _, child := range n.Children {
		if found := findByID(child, id, depth+1, seen); found != nil {
			return found
		}
	}
	return nil
}

// Ancestors returns the chain from the top-most resolvable ancestor down to
// n itself. The walk stops at a root, at a parent that cannot be resolved in
// the forest, or when a parent repeats.
func Ancestors(roots []*models.Node, n *models.Node) []*models.Node {
	if n == nil {
		return nil
	}
	chain := []*models.Node{n}
	seen := map[string]bool{n.ID: true}
	cur := n
	for cur.ParentID != nil && len(chain) <= MaxDepth {
		parent := FindByID(roots, *cur.ParentID)
		if parent == nil || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		chain = append(chain, parent)
		cur = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// IsDescendant reports whether candidate is ancestor itself or lies below it.
func IsDescendant(roots []*models.Node, ancestorID, candidateID string) bool {
	if ancestorID == candidateID {
		return true
	}
	node := FindByID(roots, candidateID)
	for _, a := range Ancestors(roots, node) {
		if a.ID == ancestorID {
			return true
		}
	}
	return false
}

// CountNodes counts all nodes in a forest.
func CountNodes(roots []*models.Node) int {
	return len(Flatten(roots))
}

// RemoveByID detaches the node with the given id from the forest and
// returns the new root slice and the removed node.
func RemoveByID(roots []*models.Node, id string) ([]*models.Node, *models.Node) {
	for i, r := range roots {
		if r.ID == id {
			out := make([]*models.Node, 0, len(roots)-1)
			out = append(out, roots[:i]...)
			return append(out, roots[i+1:]...), r
		}
	}
	if parent := findParent(roots, id); parent != nil {
		for i, child := range parent.Children {
			if child.ID == id {
				parent.Children = append(parent.Children[:i:i], parent.Children[i+1:]...)
				return roots, child
			}
		}
	}
	return roots, nil
}

func findParent(roots []*models.Node, id string) *models.Node {
	for _, n := range Flatten(roots) {
		for _, child := range n.Children {
			if child.ID == id {
				return n
			}
		}
	}
	return nil
}

// Flatten returns all nodes of a forest in depth-first order.
func Flatten(roots []*models.Node) []*models.Node {
	var result []*models.Node
	seen := make(map[*models.Node]bool)
	for _, r := range roots {
		flattenRecursive(r, 0, seen, &result)
	}
	return result
}

func flattenRecursive(n *models.Node, depth int, seen map[*models.Node]bool, result *[]*models.Node) {
	if n == nil || depth > MaxDepth || seen[n] {
		return
	}
	seen[n] = true
	*result = append(*result, n)
	for _, child := range n.Children {
		flattenRecursive(child, depth+1, seen, result)
	}
}
