package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client)
}

func TestStore_GetIdleChat(t *testing.T) {
	store := newTestStore(t)
	state, err := store.Get(context.Background(), 12345)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	productID := uuid.New()

	err := store.Set(context.Background(), 12345, &AwaitingQuantity{
		ProductID: productID, MaxAllowed: 7, Stock: 20,
	})
	require.NoError(t, err)

	state, err := store.Get(context.Background(), 12345)
	require.NoError(t, err)
	st, ok := state.(*AwaitingQuantity)
	require.True(t, ok, "got %T", state)
	assert.Equal(t, productID, st.ProductID)
	assert.Equal(t, 7, st.MaxAllowed)
	assert.Equal(t, 20, st.Stock)
}

func TestStore_StatesAreIsolatedPerChat(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set(context.Background(), 1, &AwaitingModelName{}))
	require.NoError(t, store.Set(context.Background(), 2, &AwaitingWelcomeText{}))

	first, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.IsType(t, &AwaitingModelName{}, first)

	second, err := store.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.IsType(t, &AwaitingWelcomeText{}, second)
}

func TestStore_Clear(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set(context.Background(), 12345, &AwaitingModelName{}))
	require.NoError(t, store.Clear(context.Background(), 12345))

	state, err := store.Get(context.Background(), 12345)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestStore_SetOverwrites(t *testing.T) {
	store := newTestStore(t)
	modelID := uuid.New()

	require.NoError(t, store.Set(context.Background(), 12345, &AwaitingModelName{}))
	require.NoError(t, store.Set(context.Background(), 12345, &AwaitingVariantStock{
		ModelID: modelID, Flavor: "Mango Ice", Price: decimal.NewFromFloat(19.90),
	}))

	state, err := store.Get(context.Background(), 12345)
	require.NoError(t, err)
	st, ok := state.(*AwaitingVariantStock)
	require.True(t, ok, "got %T", state)
	assert.Equal(t, modelID, st.ModelID)
	assert.Equal(t, "Mango Ice", st.Flavor)
	assert.True(t, st.Price.Equal(decimal.NewFromFloat(19.90)))
}

func TestDecode_UnknownKind(t *testing.T) {
	_, err := decode([]byte(`{"kind":"awaiting_teleport","data":{}}`))
	assert.Error(t, err)
}
