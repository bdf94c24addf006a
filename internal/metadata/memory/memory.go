// Package memory provides an in-process node store for development and tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samsirama/windows-explorer-clone/internal/metadata"
	"github.com/samsirama/windows-explorer-clone/pkg/models"
)

// Store keeps nodes in insertion order.
type Store struct {
	mu    sync.RWMutex
	order []string
	nodes map[string]*models.Node

	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		nodes: make(map[string]*models.Node),
		now:   time.Now,
	}
}

var _ metadata.Store = (*Store)(nil)

// ListNodes returns copies of all nodes in insertion order.
func (s *Store) ListNodes(ctx context.Context) ([]*models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id].Clone())
	}
	return out, nil
}

// GetNode returns a copy of the node.
func (s *Store) GetNode(ctx context.Context, id string) (*models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	return n.Clone(), nil
}

// ListChildren returns the direct children of parentID.
func (s *Store) ListChildren(ctx context.Context, parentID string) ([]*models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Node
	for _, id := range s.order {
		if n := s.nodes[id]; n.Parent() == parentID && parentID != "" {
			out = append(out, n.Clone())
		}
	}
	return out, nil
}

// SearchNodes matches names case-insensitively. limit <= 0 means no limit.
func (s *Store) SearchNodes(ctx context.Context, query string, limit int) ([]*models.Node, error) {
	q := strings.ToLower(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Node{}
	for _, id := range s.order {
		n := s.nodes[id]
		if strings.Contains(strings.ToLower(n.Name), q) {
			out = append(out, n.Clone())
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// CreateNode stores a copy of n with a fresh id.
func (s *Store) CreateNode(ctx context.Context, n *models.Node) (*models.Node, error) {
	c := n.Clone()
	c.ID = uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[c.ID] = c
	s.order = append(s.order, c.ID)
	return c.Clone(), nil
}

// UpdateNode applies patch to the node.
func (s *Store) UpdateNode(ctx context.Context, id string, patch models.NodePatch) (*models.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	patch.Apply(n)
	return n.Clone(), nil
}

// DeleteNode removes exactly one node; its children keep their parent id.
func (s *Store) DeleteNode(ctx context.Context, id string) (*models.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	s.remove(id)
	return n, nil
}

// DeleteSubtree removes id and its descendants.
func (s *Store) DeleteSubtree(ctx context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id]; !ok {
		return 0, metadata.ErrNotFound
	}

	doomed := map[string]bool{id: true}
	for changed := true; changed; {
		changed = false
		for _, nid := range s.order {
			if !doomed[nid] && doomed[s.nodes[nid].Parent()] {
				doomed[nid] = true
				changed = true
			}
		}
	}
	for nid := range doomed {
		s.remove(nid)
	}
	return int64(len(doomed)), nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) remove(id string) {
	delete(s.nodes, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
