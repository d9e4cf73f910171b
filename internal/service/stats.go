package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cloudsupply/storebot/internal/repository"
)

// ShopStats is the aggregate view shown in the admin panel.
type ShopStats struct {
	OrderCount   int
	UserCount    int
	TotalRevenue decimal.Decimal
	TotalCost    decimal.Decimal
	Profit       decimal.Decimal
	TopProducts  []repository.ProductSales
}

type StatsService struct {
	statsRepo repository.StatsRepository
	userRepo  repository.UserRepository
}

func NewStatsService(statsRepo repository.StatsRepository, userRepo repository.UserRepository) *StatsService {
	return &StatsService{statsRepo: statsRepo, userRepo: userRepo}
}

func (s *StatsService) Collect(ctx context.Context) (*ShopStats, error) {
	stats := &ShopStats{}

	var err error
	if stats.OrderCount, err = s.statsRepo.OrderCount(ctx); err != nil {
		return nil, fmt.Errorf("order count: %w", err)
	}
	if stats.UserCount, err = s.userRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("user count: %w", err)
	}
	if stats.TotalRevenue, err = s.statsRepo.TotalRevenue(ctx); err != nil {
		return nil, fmt.Errorf("total revenue: %w", err)
	}
	if stats.TotalCost, stats.Profit, err = s.statsRepo.CostAndProfit(ctx); err != nil {
		return nil, fmt.Errorf("cost and profit: %w", err)
	}
	if stats.TopProducts, err = s.statsRepo.TopProducts(ctx, 5); err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	return stats, nil
}
