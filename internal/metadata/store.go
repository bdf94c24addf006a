// Package metadata defines the node store contract shared by the storage backends.
package metadata

import (
	"context"
	"errors"

	"github.com/samsirama/windows-explorer-clone/pkg/models"
)

// ErrNotFound is returned when a referenced node does not exist.
var ErrNotFound = errors.New("node not found")

// Store persists nodes in a flat table with a self-referencing parent link.
// Stores own identifier generation; CreateNode fills ID and CreatedAt.
type Store interface {
	ListNodes(ctx context.Context) ([]*models.Node, error)
	GetNode(ctx context.Context, id string) (*models.Node, error)
	ListChildren(ctx context.Context, parentID string) ([]*models.Node, error)
	SearchNodes(ctx context.Context, query string, limit int) ([]*models.Node, error)
	CreateNode(ctx context.Context, n *models.Node) (*models.Node, error)
	UpdateNode(ctx context.Context, id string, patch models.NodePatch) (*models.Node, error)
	DeleteNode(ctx context.Context, id string) (*models.Node, error)
	// DeleteSubtree removes id and every node below it, returning the count.
	DeleteSubtree(ctx context.Context, id string) (int64, error)
	Close() error
}
