package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samsirama/windows-explorer-clone/pkg/client"
	"github.com/samsirama/windows-explorer-clone/pkg/models"
	"github.com/samsirama/windows-explorer-clone/pkg/tree"
)

var (
	errNoSuchNode = errors.New("no such node")
	errAmbiguous  = errors.New("ambiguous path")
	errNotFolder  = errors.New("not a folder")
)

// resolve finds ref in the forest, first as an id and then as a path of
// names separated by '/' or '\'. An empty ref or "/" is the root and
// resolves to nil.
func resolve(roots []*models.Node, ref string) (*models.Node, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "/" || ref == `\` {
		return nil, nil
	}
	if n := tree.FindByID(roots, ref); n != nil {
		return n, nil
	}

	parts := strings.FieldsFunc(ref, func(r rune) bool { return r == '/' || r == '\\' })
	level := roots
	var cur *models.Node
	for i, part := range parts {
		var matches []*models.Node
		for _, n := range level {
			if n.Name == part {
				matches = append(matches, n)
			}
		}
		switch len(matches) {
		case 0:
			return nil, fmt.Errorf("%w: %s", errNoSuchNode, strings.Join(parts[:i+1], "/"))
		case 1:
			cur = matches[0]
			level = cur.Children
		default:
			return nil, fmt.Errorf("%w: %d nodes named %q, use an id", errAmbiguous, len(matches), strings.Join(parts[:i+1], "/"))
		}
	}
	return cur, nil
}

// resolveFolder is resolve restricted to folders.
func resolveFolder(roots []*models.Node, ref string) (*models.Node, error) {
	n, err := resolve(roots, ref)
	if err != nil {
		return nil, err
	}
	if n != nil && !n.IsFolder() {
		return nil, fmt.Errorf("%w: %s", errNotFolder, ref)
	}
	return n, nil
}

// pathOf joins the names from the root down to n.
func pathOf(roots []*models.Node, n *models.Node) string {
	var names []string
	for _, a := range tree.Ancestors(roots, n) {
		names = append(names, a.Name)
	}
	return "/" + strings.Join(names, "/")
}

func fetch(ctx context.Context, c *client.Client) ([]*models.Node, error) {
	roots, err := c.FetchTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tree from %s: %w", c.BaseURL(), err)
	}
	return roots, nil
}

func parentRef(n *models.Node) *string {
	if n == nil {
		return nil
	}
	return models.StringPtr(n.ID)
}
