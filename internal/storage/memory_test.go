package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.Get(ctx, MapPlans, "basic")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, MapPlans, "basic", []byte(`{"id":"basic"}`)))

	v, ok, err := s.Get(ctx, MapPlans, "basic")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"id":"basic"}`), v)

	// same key in a different map is a different entry
	_, ok, err = s.Get(ctx, MapSubscriptions, "basic")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Delete(ctx, MapPlans, "basic"))
	_, ok, err = s.Get(ctx, MapPlans, "basic")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_IndexPreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, id := range []string{"basic", "standard", "premium"} {
		require.NoError(t, s.AppendIndex(ctx, MapPlanIndex, id))
	}

	ids, err := s.ReadIndex(ctx, MapPlanIndex)
	require.NoError(t, err)
	assert.Equal(t, []string{"basic", "standard", "premium"}, ids)
}

func TestMemoryStore_Footprint(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, MapPlans, "basic", []byte("abcd")))
	require.NoError(t, s.AppendIndex(ctx, MapPlanIndex, "basic"))

	fp, err := s.Footprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fp.Keys)
	assert.Equal(t, int64(len("basic")+len("abcd")+len("basic")), fp.Bytes)
}
