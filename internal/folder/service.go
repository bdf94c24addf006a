// Package folder implements the folder operations behind the REST API.
package folder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samsirama/windows-explorer-clone/internal/events"
	"github.com/samsirama/windows-explorer-clone/internal/logging"
	"github.com/samsirama/windows-explorer-clone/internal/metadata"
	"github.com/samsirama/windows-explorer-clone/internal/metrics"
	"github.com/samsirama/windows-explorer-clone/pkg/models"
	"github.com/samsirama/windows-explorer-clone/pkg/protocol"
	"github.com/samsirama/windows-explorer-clone/pkg/tree"
)

// MaxNameLength matches the width of the name column.
const MaxNameLength = 255

var (
	// ErrNotFound is returned when the referenced node does not exist.
	ErrNotFound = metadata.ErrNotFound
	// ErrInvalid is returned for malformed create or update payloads.
	ErrInvalid = errors.New("invalid node")
)

// Service orchestrates the tree builder and the node store.
type Service struct {
	store       metadata.Store
	events      *events.Broadcaster
	searchLimit int
}

// NewService creates a folder service. broadcaster may be nil.
func NewService(store metadata.Store, broadcaster *events.Broadcaster, searchLimit int) *Service {
	return &Service{
		store:       store,
		events:      broadcaster,
		searchLimit: searchLimit,
	}
}

// Tree loads every node and returns the reconstructed forest.
func (s *Service) Tree(ctx context.Context) ([]*models.Node, error) {
	start := time.Now()
	nodes, err := s.store.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	roots := tree.Build(nodes)
	metrics.RecordTreeBuild(len(nodes), len(roots), time.Since(start))
	return roots, nil
}

// Contents returns a node with its direct children populated.
func (s *Service) Contents(ctx context.Context, id string) (*models.Node, error) {
	n, err := s.store.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	children, err := s.store.ListChildren(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	n.Children = []*models.Node{}
	for _, c := range children {
		c.Children = []*models.Node{}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

// Search returns every node whose name contains query, ignoring case.
// The result is flat. A search limit of 0 returns every match.
func (s *Service) Search(ctx context.Context, query string) ([]*models.Node, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrInvalid)
	}
	nodes, err := s.store.SearchNodes(ctx, query, s.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search nodes: %w", err)
	}
	for _, n := range nodes {
		n.Children = []*models.Node{}
	}
	metrics.RecordSearch(len(nodes))
	return nodes, nil
}

// Create validates req and stores a new node.
func (s *Service) Create(ctx context.Context, req protocol.CreateNodeRequest) (*models.Node, error) {
	n := &models.Node{
		Name:     strings.TrimSpace(req.Name),
		Type:     req.Type,
		ParentID: req.ParentID,
		Size:     req.Size,
	}
	if err := validate(n); err != nil {
		metrics.RecordMutation("create", false)
		return nil, err
	}
	if n.ParentID != nil {
		if err := s.checkParent(ctx, "", *n.ParentID); err != nil {
			metrics.RecordMutation("create", false)
			return nil, err
		}
	}

	created, err := s.store.CreateNode(ctx, n)
	metrics.RecordMutation("create", err == nil)
	if err != nil {
		return nil, fmt.Errorf("create node: %w", err)
	}
	created.Children = []*models.Node{}

	logging.Debug("node created", logging.Node(created))
	s.publish(events.EventCreate, created)
	return created, nil
}

// Update applies a partial update. A patch with ParentSet and a nil
// ParentID moves the node to the root.
func (s *Service) Update(ctx context.Context, id string, patch models.NodePatch) (*models.Node, error) {
	existing, err := s.store.GetNode(ctx, id)
	if err != nil {
		metrics.RecordMutation("update", false)
		return nil, err
	}

	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		patch.Name = &trimmed
	}
	result := existing.Clone()
	patch.Apply(result)
	if err := validate(result); err != nil {
		metrics.RecordMutation("update", false)
		return nil, err
	}
	if existing.IsFolder() && !result.IsFolder() {
		children, err := s.store.ListChildren(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list children: %w", err)
		}
		if len(children) > 0 {
			metrics.RecordMutation("update", false)
			return nil, fmt.Errorf("%w: folder with children cannot become a file", ErrInvalid)
		}
	}
	if patch.ParentSet && patch.ParentID != nil {
		if err := s.checkParent(ctx, id, *patch.ParentID); err != nil {
			metrics.RecordMutation("update", false)
			return nil, err
		}
	}

	updated, err := s.store.UpdateNode(ctx, id, patch)
	metrics.RecordMutation("update", err == nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update node: %w", err)
	}
	updated.Children = []*models.Node{}
	logging.Debug("node updated", logging.Node(updated))
	s.publish(events.EventUpdate, updated)
	return updated, nil
}

// Delete removes a node. Without recursive exactly one node is removed and
// its children become orphans, which the tree builder surfaces as roots.
func (s *Service) Delete(ctx context.Context, id string, recursive bool) (int64, error) {
	var (
		deleted int64
		node    *models.Node
		err     error
	)
	if recursive {
		node, err = s.store.GetNode(ctx, id)
		if err == nil {
			deleted, err = s.store.DeleteSubtree(ctx, id)
		}
	} else {
		node, err = s.store.DeleteNode(ctx, id)
		deleted = 1
	}
	metrics.RecordMutation("delete", err == nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("delete node: %w", err)
	}

	logging.Debug("node deleted",
		logging.NodeID(id),
		logging.Int64("count", deleted))
	s.publish(events.EventDelete, node)
	return deleted, nil
}

// checkParent verifies parentID names an existing folder and, when id is
// set, that parentID is neither id nor one of its descendants.
func (s *Service) checkParent(ctx context.Context, id, parentID string) error {
	parent, err := s.store.GetNode(ctx, parentID)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: parent %s does not exist", ErrInvalid, parentID)
	}
	if err != nil {
		return fmt.Errorf("get parent: %w", err)
	}
	if !parent.IsFolder() {
		return fmt.Errorf("%w: parent %s is not a folder", ErrInvalid, parentID)
	}
	if id == "" {
		return nil
	}

	cur := parent
	for depth := 0; cur != nil && depth <= tree.MaxDepth; depth++ {
		if cur.ID == id {
			return fmt.Errorf("%w: cannot move a node into itself or a descendant", ErrInvalid)
		}
		if cur.ParentID == nil {
			return nil
		}
		cur, err = s.store.GetNode(ctx, *cur.ParentID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get ancestor: %w", err)
		}
	}
	return nil
}

func (s *Service) publish(eventType string, n *models.Node) {
	if s.events == nil {
		return
	}
	s.events.Publish(events.FromNode(eventType, n))
}

func validate(n *models.Node) error {
	if n.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if utf8.RuneCountInString(n.Name) > MaxNameLength {
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalid, MaxNameLength)
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: type must be FOLDER or FILE", ErrInvalid)
	}
	if n.Size != nil {
		if n.Type != models.TypeFile {
			return fmt.Errorf("%w: size is only allowed on files", ErrInvalid)
		}
		if *n.Size < 0 {
			return fmt.Errorf("%w: size must not be negative", ErrInvalid)
		}
	}
	return nil
}
