package seed

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samsirama/windows-explorer-clone/internal/metadata/memory"
	"github.com/samsirama/windows-explorer-clone/pkg/models"
	"github.com/samsirama/windows-explorer-clone/pkg/tree"
)

func fixedRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestStandard(t *testing.T) {
	store := memory.New()
	n, err := New(store, fixedRand()).Standard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 150, n)
	assert.Equal(t, 150, store.Len())

	nodes, err := store.ListNodes(context.Background())
	require.NoError(t, err)
	roots := tree.Build(nodes)
	require.Len(t, roots, len(StandardRoots))

	desktop := roots[0]
	assert.Equal(t, "Desktop", desktop.Name)
	require.Len(t, desktop.Children, 6)
	assert.Equal(t, "Desktop File 1.txt", desktop.Children[0].Name)
	assert.Equal(t, "Desktop Sub 1", desktop.Children[3].Name)

	sub := desktop.Children[3]
	require.Len(t, sub.Children, 6)
	assert.Equal(t, "File 1.txt", sub.Children[0].Name)
	assert.Equal(t, "Desktop Deep 1", sub.Children[5].Name)
	assert.True(t, sub.Children[5].IsFolder())

	for _, f := range tree.Flatten(roots) {
		if f.IsFolder() {
			assert.Nil(t, f.Size, f.Name)
			continue
		}
		require.NotNil(t, f.Size, f.Name)
		assert.GreaterOrEqual(t, *f.Size, int64(0))
		assert.Less(t, *f.Size, int64(10000))
	}
}

func TestMassive(t *testing.T) {
	store := memory.New()
	n, err := New(store, fixedRand()).Massive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, massiveTarget, n)
	assert.Equal(t, massiveTarget, store.Len())

	nodes, err := store.ListNodes(context.Background())
	require.NoError(t, err)
	roots := tree.Build(nodes)
	require.Len(t, roots, len(MassiveRoots))
	for i, r := range roots {
		assert.Equal(t, MassiveRoots[i], r.Name)
		assert.NotEmpty(t, r.Children)
	}
	for _, f := range tree.Flatten(roots) {
		if f.Type == models.TypeFile {
			assert.Less(t, *f.Size, int64(1<<20))
		}
	}
}

func TestRunUnknownMode(t *testing.T) {
	_, err := New(memory.New(), nil).Run(context.Background(), "huge")
	assert.Error(t, err)
}

func TestRunDispatches(t *testing.T) {
	n, err := New(memory.New(), nil).Run(context.Background(), ModeStandard)
	require.NoError(t, err)
	assert.Equal(t, 150, n)
}
