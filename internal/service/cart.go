package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cloudsupply/storebot/internal/model"
	"github.com/cloudsupply/storebot/internal/repository"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCartEntryNotFound = errors.New("cart entry not found")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// CartService maintains per-user pending selections prior to order
// creation. No stock check happens here; stock is validated at checkout.
type CartService struct {
	cartRepo    repository.CartRepository
	catalogRepo repository.CatalogRepository
}

func NewCartService(cartRepo repository.CartRepository, catalogRepo repository.CatalogRepository) *CartService {
	return &CartService{cartRepo: cartRepo, catalogRepo: catalogRepo}
}

// Add coalesces any duplicate rows first, then increments or inserts the
// (user, product) entry under a row lock.
func (s *CartService) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*model.CartEntry, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.catalogRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if _, err := s.cartRepo.Coalesce(ctx, userID); err != nil {
		return nil, fmt.Errorf("coalesce cart: %w", err)
	}

	entry, err := s.cartRepo.AddEntry(ctx, userID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("add cart entry: %w", err)
	}
	return entry, nil
}

// Get returns the cart in insertion order. Reads are side-effect free;
// repair happens before mutations and via Repair.
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) ([]model.CartEntry, error) {
	return s.cartRepo.ListByUser(ctx, userID)
}

// UpdateQuantity sets the entry's quantity; non-positive deletes the row.
func (s *CartService) UpdateQuantity(ctx context.Context, entryID uuid.UUID, quantity int) error {
	entry, err := s.cartRepo.GetEntry(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get cart entry: %w", err)
	}
	if entry == nil {
		return ErrCartEntryNotFound
	}
	if err := s.cartRepo.UpdateQuantity(ctx, entryID, quantity); err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	return nil
}

func (s *CartService) Remove(ctx context.Context, entryID uuid.UUID) error {
	entry, err := s.cartRepo.GetEntry(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get cart entry: %w", err)
	}
	if entry == nil {
		return ErrCartEntryNotFound
	}
	return s.cartRepo.RemoveEntry(ctx, entryID)
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.cartRepo.ClearByUser(ctx, userID)
}

// Repair is the standalone duplicate-merge maintenance operation. It is
// also run inline before every mutating access.
func (s *CartService) Repair(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.cartRepo.Coalesce(ctx, userID)
}

// TotalUnits sums the cart's quantities, used by the transport layer for
// quota headroom.
func (s *CartService) TotalUnits(ctx context.Context, userID uuid.UUID) (int, error) {
	entries, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, e := range entries {
		total += e.Quantity
	}
	return total, nil
}
