package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/samsirama/windows-explorer-clone/internal/metadata"
	"github.com/samsirama/windows-explorer-clone/pkg/models"
)

func mustCreate(t *testing.T, s *Store, name string, typ models.NodeType, parent *models.Node) *models.Node {
	t.Helper()
	n := &models.Node{Name: name, Type: typ}
	if parent != nil {
		n.ParentID = models.StringPtr(parent.ID)
	}
	created, err := s.CreateNode(context.Background(), n)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return created
}

func TestCreateAssignsIDAndTimestamp(t *testing.T) {
	s := New()
	a := mustCreate(t, s, "A", models.TypeFolder, nil)
	b := mustCreate(t, s, "B", models.TypeFolder, nil)

	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids not unique: %q %q", a.ID, b.ID)
	}
	if a.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	s := New()
	names := []string{"c", "a", "b"}
	for _, n := range names {
		mustCreate(t, s, n, models.TypeFile, nil)
	}
	nodes, _ := s.ListNodes(context.Background())
	for i, n := range nodes {
		if n.Name != names[i] {
			t.Errorf("nodes[%d] = %s, want %s", i, n.Name, names[i])
		}
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	s := New()
	mustCreate(t, s, "Desktop", models.TypeFolder, nil)
	mustCreate(t, s, "desk notes.txt", models.TypeFile, nil)
	mustCreate(t, s, "Music", models.TypeFolder, nil)

	got, _ := s.SearchNodes(context.Background(), "DESK", 0)
	if len(got) != 2 {
		t.Fatalf("search found %d, want 2", len(got))
	}
	got, _ = s.SearchNodes(context.Background(), "desk", 1)
	if len(got) != 1 {
		t.Errorf("limit not applied: %d", len(got))
	}
}

func TestDeleteNodeLeavesChildrenOrphaned(t *testing.T) {
	s := New()
	ctx := context.Background()
	root := mustCreate(t, s, "root", models.TypeFolder, nil)
	child := mustCreate(t, s, "child", models.TypeFile, root)

	if _, err := s.DeleteNode(ctx, root.ID); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetNode(ctx, child.ID)
	if err != nil {
		t.Fatalf("child should survive: %v", err)
	}
	if got.Parent() != root.ID {
		t.Error("child parent id should be unchanged")
	}
	if _, err := s.DeleteNode(ctx, root.ID); !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestDeleteSubtree(t *testing.T) {
	s := New()
	ctx := context.Background()
	root := mustCreate(t, s, "root", models.TypeFolder, nil)
	sub := mustCreate(t, s, "sub", models.TypeFolder, root)
	mustCreate(t, s, "leaf", models.TypeFile, sub)
	other := mustCreate(t, s, "other", models.TypeFolder, nil)

	n, err := s.DeleteSubtree(ctx, root.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("deleted %d, want 3", n)
	}
	if s.Len() != 1 {
		t.Errorf("remaining %d, want 1", s.Len())
	}
	if _, err := s.GetNode(ctx, other.ID); err != nil {
		t.Errorf("unrelated node removed: %v", err)
	}
}

func TestUpdateMovesToRoot(t *testing.T) {
	s := New()
	ctx := context.Background()
	root := mustCreate(t, s, "root", models.TypeFolder, nil)
	child := mustCreate(t, s, "child", models.TypeFile, root)

	updated, err := s.UpdateNode(ctx, child.ID, models.NodePatch{ParentSet: true})
	if err != nil {
		t.Fatal(err)
	}
	if updated.ParentID != nil {
		t.Error("expected nil parent after move to root")
	}
	if _, err := s.UpdateNode(ctx, "missing", models.NodePatch{}); !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReturnedNodesAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mustCreate(t, s, "A", models.TypeFolder, nil)
	a.Name = "mutated"
	got, _ := s.GetNode(ctx, a.ID)
	if got.Name != "A" {
		t.Error("store state leaked through returned node")
	}
}
