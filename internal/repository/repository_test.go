package repository

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cloudsupply/storebot/internal/model"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		fmt.Println("TEST_DATABASE_URL not set, skipping integration tests")
		os.Exit(0)
	}

	var err error
	testPool, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to test database: %v\n", err)
		os.Exit(1)
	}
	defer testPool.Close()

	code := m.Run()
	os.Exit(code)
}

func cleanupTable(t *testing.T, tables ...string) {
	t.Helper()
	for _, table := range tables {
		_, err := testPool.Exec(context.Background(), fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Fatalf("failed to cleanup table %s: %v", table, err)
		}
	}
}

func cleanupAll(t *testing.T) {
	t.Helper()
	cleanupTable(t, "order_line_items", "orders", "cart_entries", "products", "product_models", "settings", "users")
}

// seedProduct creates a model with one variant and returns the variant.
func seedProduct(t *testing.T, price decimal.Decimal, stock int) *model.Product {
	t.Helper()
	ctx := context.Background()
	catalogRepo := NewCatalogRepository(testPool)

	pm := &model.ProductModel{Name: "Orbit 5000", CostBasis: decimal.NewFromInt(8), Available: true}
	if err := catalogRepo.CreateModel(ctx, pm); err != nil {
		t.Fatalf("seed model: %v", err)
	}
	p := &model.Product{ModelID: pm.ID, Flavor: "Mango Ice", Price: price, Stock: stock, Available: true}
	if err := catalogRepo.CreateProduct(ctx, p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func seedUser(t *testing.T, telegramID int64) *model.User {
	t.Helper()
	user, err := NewUserRepository(testPool).GetOrCreate(context.Background(), &model.User{
		TelegramID: telegramID, Username: fmt.Sprintf("user%d", telegramID), FirstName: "Test",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if user.ID == uuid.Nil {
		t.Fatal("seed user: nil id")
	}
	return user
}
