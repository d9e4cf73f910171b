package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cloudsupply/storebot/internal/model"
	"github.com/cloudsupply/storebot/internal/repository"
)

var (
	ErrModelNotFound = errors.New("product model not found")
	ErrInvalidPrice  = errors.New("price must not be negative")
)

// CatalogService exposes the storefront catalog to buyers and its full
// management surface to admins.
type CatalogService struct {
	catalogRepo repository.CatalogRepository
}

func NewCatalogService(catalogRepo repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalogRepo: catalogRepo}
}

// ListModels returns product families; buyers only see available ones.
func (s *CatalogService) ListModels(ctx context.Context, availableOnly bool) ([]model.ProductModel, error) {
	return s.catalogRepo.ListModels(ctx, availableOnly)
}

func (s *CatalogService) GetModel(ctx context.Context, id uuid.UUID) (*model.ProductModel, error) {
	m, err := s.catalogRepo.GetModelByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get model: %w", err)
	}
	if m == nil {
		return nil, ErrModelNotFound
	}
	return m, nil
}

func (s *CatalogService) CreateModel(ctx context.Context, name, description string, costBasis decimal.Decimal) (*model.ProductModel, error) {
	m := &model.ProductModel{
		Name:        name,
		Description: description,
		CostBasis:   costBasis,
		Available:   true,
	}
	if err := s.catalogRepo.CreateModel(ctx, m); err != nil {
		return nil, fmt.Errorf("create model: %w", err)
	}
	return m, nil
}

func (s *CatalogService) UpdateModel(ctx context.Context, m *model.ProductModel) error {
	if err := s.catalogRepo.UpdateModel(ctx, m); err != nil {
		return fmt.Errorf("update model: %w", err)
	}
	return nil
}

func (s *CatalogService) SetModelDescription(ctx context.Context, id uuid.UUID, description string) error {
	m, err := s.GetModel(ctx, id)
	if err != nil {
		return err
	}
	m.Description = description
	return s.UpdateModel(ctx, m)
}

func (s *CatalogService) SetModelImage(ctx context.Context, id uuid.UUID, imagePath string) error {
	m, err := s.GetModel(ctx, id)
	if err != nil {
		return err
	}
	m.ImagePath = imagePath
	return s.UpdateModel(ctx, m)
}

// DeleteModel removes the family and, via cascade, every variant under it.
func (s *CatalogService) DeleteModel(ctx context.Context, id uuid.UUID) error {
	m, err := s.catalogRepo.GetModelByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get model: %w", err)
	}
	if m == nil {
		return ErrModelNotFound
	}
	if err := s.catalogRepo.DeleteModel(ctx, id); err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	return nil
}

// ListVariants returns a model's products; for buyers only available ones
// with stock on hand.
func (s *CatalogService) ListVariants(ctx context.Context, modelID uuid.UUID, availableOnly bool) ([]model.Product, error) {
	return s.catalogRepo.ListProductsByModel(ctx, modelID, availableOnly)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.catalogRepo.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *CatalogService) CreateVariant(ctx context.Context, modelID uuid.UUID, flavor string, price decimal.Decimal, stock int) (*model.Product, error) {
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if _, err := s.GetModel(ctx, modelID); err != nil {
		return nil, err
	}
	if stock < 0 {
		stock = 0
	}
	p := &model.Product{
		ModelID:   modelID,
		Flavor:    flavor,
		Price:     price,
		Stock:     stock,
		Available: true,
	}
	if err := s.catalogRepo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (s *CatalogService) SetPrice(ctx context.Context, productID uuid.UUID, price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrInvalidPrice
	}
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	p.Price = price
	if err := s.catalogRepo.UpdateProduct(ctx, p); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// SetStock overwrites the stock level, clamping negatives to zero.
func (s *CatalogService) SetStock(ctx context.Context, productID uuid.UUID, stock int) error {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if stock < 0 {
		stock = 0
	}
	p.Stock = stock
	if err := s.catalogRepo.UpdateProduct(ctx, p); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// AdjustStock applies a relative stock change; the repository clamps the
// result at zero. Returns the new level.
func (s *CatalogService) AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (int, error) {
	p, err := s.catalogRepo.GetProductByID(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return 0, ErrProductNotFound
	}
	level, err := s.catalogRepo.AdjustStock(ctx, productID, delta)
	if err != nil {
		return 0, fmt.Errorf("adjust stock: %w", err)
	}
	return level, nil
}

func (s *CatalogService) SetAvailability(ctx context.Context, productID uuid.UUID, available bool) error {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	p.Available = available
	if err := s.catalogRepo.UpdateProduct(ctx, p); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (s *CatalogService) DeleteVariant(ctx context.Context, productID uuid.UUID) error {
	p, err := s.catalogRepo.GetProductByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return ErrProductNotFound
	}
	if err := s.catalogRepo.DeleteProduct(ctx, productID); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
