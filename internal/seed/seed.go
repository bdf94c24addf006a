// Package seed fills a node store with generated sample trees.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/samsirama/windows-explorer-clone/internal/logging"
	"github.com/samsirama/windows-explorer-clone/internal/metadata"
	"github.com/samsirama/windows-explorer-clone/pkg/models"
)

// Modes accepted by Run.
const (
	ModeStandard = "standard"
	ModeMassive  = "massive"
)

// StandardRoots are the top-level folders of the standard tree.
var StandardRoots = []string{"Desktop", "Downloads", "Documents", "Pictures", "Music", "Videos"}

// MassiveRoots are the top-level folders of the massive tree.
var MassiveRoots = []string{"System", "Users", "Program Files", "Projects", "Media"}

const (
	massiveTarget     = 2500
	massiveMaxDepth   = 20
	massiveMaxFolders = 5
	massiveMaxFiles   = 10
)

// Seeder writes generated nodes into a store.
type Seeder struct {
	store metadata.Store
	rng   *rand.Rand
	count int
}

// New returns a seeder over store. A nil rng uses a randomly seeded source.
func New(store metadata.Store, rng *rand.Rand) *Seeder {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Seeder{store: store, rng: rng}
}

// Run seeds the tree named by mode and returns the number of nodes created.
func (s *Seeder) Run(ctx context.Context, mode string) (int, error) {
	switch mode {
	case ModeStandard:
		return s.Standard(ctx)
	case ModeMassive:
		return s.Massive(ctx)
	default:
		return 0, fmt.Errorf("unknown seed mode %q", mode)
	}
}

// Standard creates each standard root with three files and three
// subfolders. Every subfolder holds five files and one nested folder.
func (s *Seeder) Standard(ctx context.Context) (int, error) {
	s.count = 0
	for _, name := range StandardRoots {
		root, err := s.folder(ctx, name, nil)
		if err != nil {
			return s.count, err
		}
		for k := 1; k <= 3; k++ {
			if _, err := s.file(ctx, fmt.Sprintf("%s File %d.txt", name, k), root, s.rng.Int64N(5000)); err != nil {
				return s.count, err
			}
		}
		for i := 1; i <= 3; i++ {
			sub, err := s.folder(ctx, fmt.Sprintf("%s Sub %d", name, i), root)
			if err != nil {
				return s.count, err
			}
			for j := 1; j <= 5; j++ {
				if _, err := s.file(ctx, fmt.Sprintf("File %d.txt", j), sub, s.rng.Int64N(10000)); err != nil {
					return s.count, err
				}
			}
			if _, err := s.folder(ctx, fmt.Sprintf("%s Deep %d", name, i), sub); err != nil {
				return s.count, err
			}
		}
	}
	logging.Info("standard seed complete", logging.Int("nodes", s.count))
	return s.count, nil
}

type queued struct {
	node  *models.Node
	depth int
}

// Massive grows the massive roots breadth-first until about 2500 nodes
// exist. Folders below depth 20 get one to five subfolders; every folder
// gets one to ten files.
func (s *Seeder) Massive(ctx context.Context) (int, error) {
	s.count = 0
	var queue []queued
	for _, name := range MassiveRoots {
		root, err := s.folder(ctx, name, nil)
		if err != nil {
			return s.count, err
		}
		queue = append(queue, queued{node: root})
	}

	for len(queue) > 0 && s.count < massiveTarget {
		cur := queue[0]
		queue = queue[1:]

		folders := 0
		if cur.depth < massiveMaxDepth {
			folders = s.rng.IntN(massiveMaxFolders) + 1
		}
		files := s.rng.IntN(massiveMaxFiles) + 1

		for i := 0; i < folders && s.count < massiveTarget; i++ {
			name := fmt.Sprintf("Folder_%d_D%d", s.count, cur.depth+1)
			sub, err := s.folder(ctx, name, cur.node)
			if err != nil {
				return s.count, err
			}
			queue = append(queue, queued{node: sub, depth: cur.depth + 1})
		}
		for i := 0; i < files && s.count < massiveTarget; i++ {
			name := fmt.Sprintf("File_%d.dat", s.count)
			if _, err := s.file(ctx, name, cur.node, s.rng.Int64N(1<<20)); err != nil {
				return s.count, err
			}
		}

		if s.count%500 == 0 {
			logging.Debug("seeding", logging.Int("nodes", s.count))
		}
	}
	logging.Info("massive seed complete", logging.Int("nodes", s.count))
	return s.count, nil
}

func (s *Seeder) folder(ctx context.Context, name string, parent *models.Node) (*models.Node, error) {
	return s.create(ctx, &models.Node{Name: name, Type: models.TypeFolder, ParentID: parentID(parent)})
}

func (s *Seeder) file(ctx context.Context, name string, parent *models.Node, size int64) (*models.Node, error) {
	return s.create(ctx, &models.Node{
		Name:     name,
		Type:     models.TypeFile,
		ParentID: parentID(parent),
		Size:     models.Int64Ptr(size),
	})
}

func (s *Seeder) create(ctx context.Context, n *models.Node) (*models.Node, error) {
	created, err := s.store.CreateNode(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", n.Name, err)
	}
	s.count++
	return created, nil
}

func parentID(parent *models.Node) *string {
	if parent == nil {
		return nil
	}
	return models.StringPtr(parent.ID)
}
