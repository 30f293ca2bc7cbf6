package cart

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemA() Item {
	return Item{ProjectID: "p-a", Title: "Library System", PriceCents: 15000}
}

func itemB() Item {
	return Item{ProjectID: "p-b", Title: "Chat App", PriceCents: 20000}
}

func TestCart_AddIsSetOnProjectID(t *testing.T) {
	c := &Cart{UserID: "u1"}

	require.NoError(t, c.Add(itemA()))
	err := c.Add(itemA())
	assert.ErrorIs(t, err, ErrAlreadyInCart)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestCart_RemoveAbsentIsNoop(t *testing.T) {
	c := &Cart{UserID: "u1"}
	require.NoError(t, c.Add(itemA()))

	c.Remove("missing")
	assert.Len(t, c.Items, 1)

	c.Remove("p-a")
	assert.Empty(t, c.Items)
}

func TestCart_Total(t *testing.T) {
	c := &Cart{UserID: "u1"}
	require.NoError(t, c.Add(itemA()))
	require.NoError(t, c.Add(itemB()))

	assert.Equal(t, 35000, c.TotalCents())

	c.Clear()
	assert.Zero(t, c.TotalCents())
	assert.Empty(t, c.Items)
}

func setupStore(t *testing.T) *RedisStore {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	c, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	require.NoError(t, c.Add(itemA()))
	require.NoError(t, store.Save(ctx, c))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "p-a", got.Items[0].ProjectID)
	assert.Equal(t, 15000, got.TotalCents())
}

func TestRedisStore_Clear(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	c := &Cart{UserID: "u1"}
	require.NoError(t, c.Add(itemA()))
	require.NoError(t, store.Save(ctx, c))

	require.NoError(t, store.Clear(ctx, "u1"))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}
