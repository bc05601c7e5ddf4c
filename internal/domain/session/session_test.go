package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsNewAndUnmodified(t *testing.T) {
	s := New()
	assert.NotEmpty(t, s.ID)
	assert.True(t, s.IsNew())
	assert.False(t, s.Modified())
	assert.Empty(t, s.Keys())
}

func TestSetGet_RoundTripMarksModified(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("coupon_id", 7))
	assert.True(t, s.Modified())

	var id uint
	found, err := s.Get("coupon_id", &id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint(7), id)
}

func TestGet_MissingKey(t *testing.T) {
	s := New()
	var v string
	found, err := s.Get("nope", &v)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestGet_DecodeError(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("cart", "not-a-map"))

	var m map[string]int
	found, err := s.Get("cart", &m)
	assert.True(t, found)
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	s := Restore("abc", nil)
	assert.False(t, s.Delete("cart"))
	assert.False(t, s.Modified(), "deleting an absent key leaves the session clean")

	require.NoError(t, s.Set("cart", map[string]int{}))
	s.MarkSaved()
	assert.True(t, s.Delete("cart"))
	assert.True(t, s.Modified())
	assert.False(t, s.Has("cart"))
}

func TestMemoryStore_SaveLoadDestroy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s, err := store.Load(ctx, "")
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, store.Save(ctx, s))
	assert.False(t, s.Modified())
	assert.False(t, s.IsNew())

	loaded, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, loaded.ID)
	assert.False(t, loaded.IsNew())

	var v string
	found, err := loaded.Get("k", &v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)

	require.NoError(t, store.Destroy(ctx, s.ID))
	assert.ErrorIs(t, store.Destroy(ctx, s.ID), ErrSessionNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_LoadUnknownIDStartsFresh(t *testing.T) {
	s, err := NewMemoryStore().Load(context.Background(), "expired-id")
	require.NoError(t, err)
	assert.True(t, s.IsNew())
	assert.NotEqual(t, "expired-id", s.ID)
}
