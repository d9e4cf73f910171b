package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_Add_MergesSameProduct(t *testing.T) {
	cartRepo := newMockCartRepo()
	catalogRepo := newMockCatalogRepo()
	product := catalogRepo.addProduct(decimal.NewFromInt(20), 50)
	svc := NewCartService(cartRepo, catalogRepo)
	userID := uuid.New()

	_, err := svc.Add(context.Background(), userID, product.ID, 2)
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), userID, product.ID, 3)
	require.NoError(t, err)

	entries, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 5, entries[0].Quantity)
}

func TestCartService_Add_UnknownProduct(t *testing.T) {
	svc := NewCartService(newMockCartRepo(), newMockCatalogRepo())
	_, err := svc.Add(context.Background(), uuid.New(), uuid.New(), 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartService_Add_RejectsNonPositive(t *testing.T) {
	svc := NewCartService(newMockCartRepo(), newMockCatalogRepo())
	_, err := svc.Add(context.Background(), uuid.New(), uuid.New(), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCartService_Add_RepairsDuplicatesFirst(t *testing.T) {
	cartRepo := newMockCartRepo()
	catalogRepo := newMockCatalogRepo()
	product := catalogRepo.addProduct(decimal.NewFromInt(15), 50)
	svc := NewCartService(cartRepo, catalogRepo)
	userID := uuid.New()

	// Two raw rows for the same product, the defect state repair removes.
	cartRepo.insert(userID, product.ID, 2)
	cartRepo.insert(userID, product.ID, 3)

	_, err := svc.Add(context.Background(), userID, product.ID, 1)
	require.NoError(t, err)

	entries, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 6, entries[0].Quantity)
}

func TestCartService_Repair_Idempotent(t *testing.T) {
	cartRepo := newMockCartRepo()
	catalogRepo := newMockCatalogRepo()
	product := catalogRepo.addProduct(decimal.NewFromInt(10), 50)
	svc := NewCartService(cartRepo, catalogRepo)
	userID := uuid.New()

	first := cartRepo.insert(userID, product.ID, 1)
	cartRepo.insert(userID, product.ID, 4)
	cartRepo.insert(userID, product.ID, 2)

	removed, err := svc.Repair(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = svc.Repair(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, removed)

	entries, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	// The oldest row survives and carries the summed quantity.
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, 7, entries[0].Quantity)
}

func TestCartService_Repair_LeavesDistinctProducts(t *testing.T) {
	cartRepo := newMockCartRepo()
	catalogRepo := newMockCatalogRepo()
	a := catalogRepo.addProduct(decimal.NewFromInt(10), 50)
	b := catalogRepo.addProduct(decimal.NewFromInt(12), 50)
	svc := NewCartService(cartRepo, catalogRepo)
	userID := uuid.New()

	cartRepo.insert(userID, a.ID, 1)
	cartRepo.insert(userID, b.ID, 2)

	removed, err := svc.Repair(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, removed)

	entries, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCartService_UpdateQuantity_ZeroDeletes(t *testing.T) {
	cartRepo := newMockCartRepo()
	catalogRepo := newMockCatalogRepo()
	product := catalogRepo.addProduct(decimal.NewFromInt(10), 50)
	svc := NewCartService(cartRepo, catalogRepo)
	userID := uuid.New()

	entry, err := svc.Add(context.Background(), userID, product.ID, 2)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateQuantity(context.Background(), entry.ID, 0))

	entries, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCartService_UpdateQuantity_UnknownEntry(t *testing.T) {
	svc := NewCartService(newMockCartRepo(), newMockCatalogRepo())
	err := svc.UpdateQuantity(context.Background(), uuid.New(), 3)
	assert.ErrorIs(t, err, ErrCartEntryNotFound)
}

func TestCartService_Remove_UnknownEntry(t *testing.T) {
	svc := NewCartService(newMockCartRepo(), newMockCatalogRepo())
	err := svc.Remove(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCartEntryNotFound)
}

func TestCartService_Remove(t *testing.T) {
	cartRepo := newMockCartRepo()
	catalogRepo := newMockCatalogRepo()
	product := catalogRepo.addProduct(decimal.NewFromInt(10), 50)
	svc := NewCartService(cartRepo, catalogRepo)
	userID := uuid.New()

	entry, err := svc.Add(context.Background(), userID, product.ID, 2)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), entry.ID))

	entries, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCartService_TotalUnits(t *testing.T) {
	cartRepo := newMockCartRepo()
	catalogRepo := newMockCatalogRepo()
	a := catalogRepo.addProduct(decimal.NewFromInt(10), 50)
	b := catalogRepo.addProduct(decimal.NewFromInt(12), 50)
	svc := NewCartService(cartRepo, catalogRepo)
	userID := uuid.New()

	_, err := svc.Add(context.Background(), userID, a.ID, 3)
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), userID, b.ID, 4)
	require.NoError(t, err)

	total, err := svc.TotalUnits(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 7, total)
}
