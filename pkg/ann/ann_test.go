package ann

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlatIndex_SearchOrdersByDistanceThenID(t *testing.T) {
	idx := NewFlatIndex()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, 1, []float32{1, 0}))
	require.NoError(t, idx.Add(ctx, 2, []float32{0, 1}))
	require.NoError(t, idx.Add(ctx, 3, []float32{1, 0}))

	matches, err := idx.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	require.Equal(t, int64(1), matches[0].VectorID)
	require.Equal(t, int64(3), matches[1].VectorID)
	require.Equal(t, int64(2), matches[2].VectorID)
}

func TestFlatIndex_SearchTruncatesToK(t *testing.T) {
	idx := NewFlatIndex()
	ctx := context.Background()
	for i := int64(0); i < 5; i++ {
		require.NoError(t, idx.Add(ctx, i, []float32{float32(i)}))
	}

	matches, err := idx.Search(ctx, []float32{0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func TestFlatIndex_Remove(t *testing.T) {
	idx := NewFlatIndex()
	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, 1, []float32{1}))
	require.Equal(t, 1, idx.Len())

	require.NoError(t, idx.Remove(ctx, 1))
	require.Equal(t, 0, idx.Len())
}
