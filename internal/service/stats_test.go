package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsupply/storebot/internal/repository"
)

type mockStatsRepo struct {
	revenue decimal.Decimal
	orders  int
	cost    decimal.Decimal
	profit  decimal.Decimal
	top     []repository.ProductSales
}

func (m *mockStatsRepo) TotalRevenue(_ context.Context) (decimal.Decimal, error) {
	return m.revenue, nil
}

func (m *mockStatsRepo) OrderCount(_ context.Context) (int, error) {
	return m.orders, nil
}

func (m *mockStatsRepo) CostAndProfit(_ context.Context) (decimal.Decimal, decimal.Decimal, error) {
	return m.cost, m.profit, nil
}

func (m *mockStatsRepo) TopProducts(_ context.Context, limit int) ([]repository.ProductSales, error) {
	if len(m.top) > limit {
		return m.top[:limit], nil
	}
	return m.top, nil
}

func TestStatsService_Collect(t *testing.T) {
	userRepo := newMockUserRepo()
	_, err := NewUserService(userRepo).Identify(context.Background(), 12345, "alice", "Alice", "")
	require.NoError(t, err)

	statsRepo := &mockStatsRepo{
		revenue: decimal.NewFromInt(250),
		orders:  4,
		cost:    decimal.NewFromInt(100),
		profit:  decimal.NewFromInt(150),
	}
	svc := NewStatsService(statsRepo, userRepo)

	stats, err := svc.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.OrderCount)
	assert.Equal(t, 1, stats.UserCount)
	assert.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(250)))
	assert.True(t, stats.Profit.Equal(decimal.NewFromInt(150)))
	assert.Empty(t, stats.TopProducts)
}
