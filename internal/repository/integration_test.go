package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsupply/storebot/internal/model"
)

func TestUserRepo_GetOrCreate(t *testing.T) {
	cleanupAll(t)

	repo := NewUserRepository(testPool)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, &model.User{TelegramID: 111, Username: "alice", FirstName: "Alice"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, first.ID)

	// Same telegram id with new names updates in place.
	second, err := repo.GetOrCreate(ctx, &model.User{TelegramID: 111, Username: "alice_new", FirstName: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "alice_new", second.Username)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	byUsername, err := repo.GetByUsername(ctx, "alice_new")
	require.NoError(t, err)
	require.NotNil(t, byUsername)
	assert.Equal(t, first.ID, byUsername.ID)
}

func TestUserRepo_SetBanned(t *testing.T) {
	cleanupAll(t)

	repo := NewUserRepository(testPool)
	ctx := context.Background()
	user := seedUser(t, 222)

	require.NoError(t, repo.SetBanned(ctx, user.ID, true))
	found, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, found.Banned)
}

func TestCatalogRepo_CRUD(t *testing.T) {
	cleanupAll(t)

	repo := NewCatalogRepository(testPool)
	ctx := context.Background()

	pm := &model.ProductModel{Name: "Orbit 5000", Description: "Compact", CostBasis: decimal.NewFromInt(8), Available: true}
	require.NoError(t, repo.CreateModel(ctx, pm))
	assert.NotEqual(t, uuid.Nil, pm.ID)

	p := &model.Product{ModelID: pm.ID, Flavor: "Mango Ice", Price: decimal.NewFromFloat(19.90), Stock: 25, Available: true}
	require.NoError(t, repo.CreateProduct(ctx, p))

	found, err := repo.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mango Ice", found.Flavor)
	assert.True(t, found.Price.Equal(decimal.NewFromFloat(19.90)))

	p.Flavor = "Mango Blast"
	require.NoError(t, repo.UpdateProduct(ctx, p))
	found, _ = repo.GetProductByID(ctx, p.ID)
	assert.Equal(t, "Mango Blast", found.Flavor)

	// Model delete cascades to its variants.
	require.NoError(t, repo.DeleteModel(ctx, pm.ID))
	found, err = repo.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCatalogRepo_ListProductsByModel_AvailableOnly(t *testing.T) {
	cleanupAll(t)

	repo := NewCatalogRepository(testPool)
	ctx := context.Background()

	pm := &model.ProductModel{Name: "Orbit 5000", CostBasis: decimal.NewFromInt(8), Available: true}
	require.NoError(t, repo.CreateModel(ctx, pm))

	inStock := &model.Product{ModelID: pm.ID, Flavor: "A", Price: decimal.NewFromInt(10), Stock: 5, Available: true}
	soldOut := &model.Product{ModelID: pm.ID, Flavor: "B", Price: decimal.NewFromInt(10), Stock: 0, Available: true}
	hidden := &model.Product{ModelID: pm.ID, Flavor: "C", Price: decimal.NewFromInt(10), Stock: 5, Available: false}
	for _, p := range []*model.Product{inStock, soldOut, hidden} {
		require.NoError(t, repo.CreateProduct(ctx, p))
	}

	visible, err := repo.ListProductsByModel(ctx, pm.ID, true)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, inStock.ID, visible[0].ID)

	all, err := repo.ListProductsByModel(ctx, pm.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCatalogRepo_AdjustStock_ClampsAtZero(t *testing.T) {
	cleanupAll(t)

	repo := NewCatalogRepository(testPool)
	ctx := context.Background()
	p := seedProduct(t, decimal.NewFromInt(10), 3)

	level, err := repo.AdjustStock(ctx, p.ID, -10)
	require.NoError(t, err)
	assert.Zero(t, level)

	level, err = repo.AdjustStock(ctx, p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, level)
}

func TestCartRepo_AddEntry_MergesSameProduct(t *testing.T) {
	cleanupAll(t)

	repo := NewCartRepository(testPool)
	ctx := context.Background()
	user := seedUser(t, 333)
	p := seedProduct(t, decimal.NewFromInt(10), 50)

	_, err := repo.AddEntry(ctx, user.ID, p.ID, 2)
	require.NoError(t, err)
	_, err = repo.AddEntry(ctx, user.ID, p.ID, 3)
	require.NoError(t, err)

	entries, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 5, entries[0].Quantity)
}

func TestCartRepo_Coalesce(t *testing.T) {
	cleanupAll(t)

	repo := NewCartRepository(testPool)
	ctx := context.Background()
	user := seedUser(t, 444)
	p := seedProduct(t, decimal.NewFromInt(10), 50)

	// Plant raw duplicate rows around the merge logic.
	for _, q := range []int{1, 2, 4} {
		_, err := testPool.Exec(ctx,
			`INSERT INTO cart_entries (id, user_id, product_id, quantity) VALUES ($1, $2, $3, $4)`,
			uuid.New(), user.ID, p.ID, q)
		require.NoError(t, err)
	}

	removed, err := repo.Coalesce(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 7, entries[0].Quantity)

	removed, err = repo.Coalesce(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestOrderRepo_LifeCycle(t *testing.T) {
	cleanupAll(t)

	repo := NewOrderRepository(testPool)
	ctx := context.Background()
	user := seedUser(t, 555)
	p := seedProduct(t, decimal.NewFromInt(20), 50)

	order := &model.Order{
		UserID:         user.ID,
		Status:         model.OrderStatusProcessing,
		TotalPrice:     decimal.NewFromInt(45),
		DeliveryMethod: model.DeliveryCourier,
		DeliveryFee:    decimal.NewFromInt(5),
		ContactInfo:    "@buyer",
	}
	require.NoError(t, repo.Create(ctx, order))

	item := &model.OrderLineItem{OrderID: order.ID, ProductID: p.ID, Quantity: 2, PriceAtOrder: decimal.NewFromInt(20)}
	require.NoError(t, repo.InsertItem(ctx, item))

	active, err := repo.GetActiveByUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, order.ID, active.ID)
	require.Len(t, active.Items, 1)
	assert.Equal(t, 2, active.Items[0].Quantity)

	require.NoError(t, repo.AddToTotal(ctx, order.ID, decimal.NewFromInt(20)))
	found, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, found.TotalPrice.Equal(decimal.NewFromInt(65)))

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, model.OrderStatusCompleted))
	active, err = repo.GetActiveByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, active)

	require.NoError(t, repo.Delete(ctx, order.ID))
	found, err = repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestOrderRepo_LineItemsSurviveCatalogDelete(t *testing.T) {
	cleanupAll(t)

	orderRepo := NewOrderRepository(testPool)
	catalogRepo := NewCatalogRepository(testPool)
	ctx := context.Background()
	user := seedUser(t, 777)
	p := seedProduct(t, decimal.NewFromInt(30), 50)

	order := &model.Order{
		UserID:         user.ID,
		Status:         model.OrderStatusProcessing,
		TotalPrice:     decimal.NewFromInt(60),
		DeliveryMethod: model.DeliveryPickup,
	}
	require.NoError(t, orderRepo.Create(ctx, order))
	item := &model.OrderLineItem{OrderID: order.ID, ProductID: p.ID, Quantity: 2, PriceAtOrder: decimal.NewFromInt(30)}
	require.NoError(t, orderRepo.InsertItem(ctx, item))

	// Deleting the whole family must not rewrite order history.
	require.NoError(t, catalogRepo.DeleteModel(ctx, p.ModelID))

	gone, err := catalogRepo.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	items, err := orderRepo.ListItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, p.ID, items[0].ProductID)
	assert.True(t, items[0].PriceAtOrder.Equal(decimal.NewFromInt(30)))

	found, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, found.TotalPrice.Equal(decimal.NewFromInt(60)))
}

func TestOrderRepo_ItemsByKey_OldestFirst(t *testing.T) {
	cleanupAll(t)

	repo := NewOrderRepository(testPool)
	ctx := context.Background()
	user := seedUser(t, 666)
	p := seedProduct(t, decimal.NewFromInt(20), 50)

	order := &model.Order{UserID: user.ID, Status: model.OrderStatusProcessing, DeliveryMethod: model.DeliveryPickup}
	require.NoError(t, repo.Create(ctx, order))

	price := decimal.NewFromInt(20)
	first := &model.OrderLineItem{OrderID: order.ID, ProductID: p.ID, Quantity: 1, PriceAtOrder: price}
	require.NoError(t, repo.InsertItem(ctx, first))
	require.NoError(t, repo.InsertItem(ctx, &model.OrderLineItem{OrderID: order.ID, ProductID: p.ID, Quantity: 2, PriceAtOrder: price}))
	require.NoError(t, repo.InsertItem(ctx, &model.OrderLineItem{OrderID: order.ID, ProductID: p.ID, Quantity: 3, PriceAtOrder: decimal.NewFromInt(25)}))

	rows, err := repo.ItemsByKey(ctx, order.ID, p.ID, price)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)
}

func TestSettingRepo_Upsert(t *testing.T) {
	cleanupAll(t)

	repo := NewSettingRepository(testPool)
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "maintenance_mode")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, "maintenance_mode", "true"))
	value, ok, err := repo.Get(ctx, "maintenance_mode")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", value)

	require.NoError(t, repo.Set(ctx, "maintenance_mode", "false"))
	value, _, err = repo.Get(ctx, "maintenance_mode")
	require.NoError(t, err)
	assert.Equal(t, "false", value)
}

func TestStatsRepo_Aggregates(t *testing.T) {
	cleanupAll(t)

	ctx := context.Background()
	user := seedUser(t, 777)
	p := seedProduct(t, decimal.NewFromInt(20), 50)

	orderRepo := NewOrderRepository(testPool)
	order := &model.Order{
		UserID:         user.ID,
		Status:         model.OrderStatusCompleted,
		TotalPrice:     decimal.NewFromInt(45),
		DeliveryMethod: model.DeliveryCourier,
		DeliveryFee:    decimal.NewFromInt(5),
	}
	require.NoError(t, orderRepo.Create(ctx, order))
	require.NoError(t, orderRepo.InsertItem(ctx, &model.OrderLineItem{
		OrderID: order.ID, ProductID: p.ID, Quantity: 2, PriceAtOrder: decimal.NewFromInt(20),
	}))

	statsRepo := NewStatsRepository(testPool)

	revenue, err := statsRepo.TotalRevenue(ctx)
	require.NoError(t, err)
	assert.True(t, revenue.Equal(decimal.NewFromInt(45)), "revenue = %s", revenue)

	count, err := statsRepo.OrderCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// cost basis 8 x 2 = 16; profit (20-8) x 2 + 5 fee = 29.
	cost, profit, err := statsRepo.CostAndProfit(ctx)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.NewFromInt(16)), "cost = %s", cost)
	assert.True(t, profit.Equal(decimal.NewFromInt(29)), "profit = %s", profit)

	top, err := statsRepo.TopProducts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, p.ID, top[0].Product.ID)
	assert.Equal(t, 2, top[0].UnitsSold)
}

func TestSnapshotRepo_Dump(t *testing.T) {
	cleanupAll(t)

	ctx := context.Background()
	seedUser(t, 888)
	seedProduct(t, decimal.NewFromInt(10), 5)
	require.NoError(t, NewSettingRepository(testPool).Set(ctx, "maintenance_mode", "false"))

	snap, err := NewSnapshotRepository(testPool).Dump(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Users, 1)
	assert.Len(t, snap.Models, 1)
	assert.Len(t, snap.Products, 1)
	assert.Len(t, snap.Settings, 1)
	assert.Empty(t, snap.Orders)
}
