package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloudsupply/storebot/internal/model"
)

// CatalogRepository holds product families (models) and their purchasable
// variants (products), including the stock ledger.
type CatalogRepository interface {
	CreateModel(ctx context.Context, m *model.ProductModel) error
	GetModelByID(ctx context.Context, id uuid.UUID) (*model.ProductModel, error)
	ListModels(ctx context.Context, availableOnly bool) ([]model.ProductModel, error)
	UpdateModel(ctx context.Context, m *model.ProductModel) error
	DeleteModel(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, p *model.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProductsByModel(ctx context.Context, modelID uuid.UUID, availableOnly bool) ([]model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	// AdjustStock adds delta to the product's stock, clamping the result
	// at zero, and returns the new stock level.
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (int, error)
}

type pgCatalogRepo struct{ pool *pgxpool.Pool }

func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &pgCatalogRepo{pool: pool}
}

const modelColumns = `id, name, description, image_path, cost_basis, available, created_at`

func (r *pgCatalogRepo) CreateModel(ctx context.Context, m *model.ProductModel) error {
	m.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO product_models (id, name, description, image_path, cost_basis, available, created_at)
		 VALUES ($1, $2, $3, $4, $5, TRUE, NOW()) RETURNING available, created_at`,
		m.ID, m.Name, m.Description, m.ImagePath, m.CostBasis,
	).Scan(&m.Available, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create model: %w", err)
	}
	return nil
}

func (r *pgCatalogRepo) GetModelByID(ctx context.Context, id uuid.UUID) (*model.ProductModel, error) {
	m := &model.ProductModel{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+modelColumns+` FROM product_models WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Description, &m.ImagePath, &m.CostBasis, &m.Available, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get model: %w", err)
	}
	return m, nil
}

func (r *pgCatalogRepo) ListModels(ctx context.Context, availableOnly bool) ([]model.ProductModel, error) {
	query := `SELECT ` + modelColumns + ` FROM product_models`
	if availableOnly {
		query += ` WHERE available`
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var models []model.ProductModel
	for rows.Next() {
		var m model.ProductModel
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.ImagePath, &m.CostBasis, &m.Available, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

func (r *pgCatalogRepo) UpdateModel(ctx context.Context, m *model.ProductModel) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE product_models SET name = $2, description = $3, image_path = $4, cost_basis = $5, available = $6
		 WHERE id = $1`,
		m.ID, m.Name, m.Description, m.ImagePath, m.CostBasis, m.Available,
	)
	if err != nil {
		return fmt.Errorf("update model: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteModel removes the family; products cascade-delete with it.
func (r *pgCatalogRepo) DeleteModel(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM product_models WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const productColumns = `id, model_id, flavor, price, stock, available, created_at`

func (r *pgCatalogRepo) CreateProduct(ctx context.Context, p *model.Product) error {
	p.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (id, model_id, flavor, price, stock, available, created_at)
		 VALUES ($1, $2, $3, $4, $5, TRUE, NOW()) RETURNING available, created_at`,
		p.ID, p.ModelID, p.Flavor, p.Price, p.Stock,
	).Scan(&p.Available, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgCatalogRepo) GetProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p := &model.Product{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.ModelID, &p.Flavor, &p.Price, &p.Stock, &p.Available, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *pgCatalogRepo) ListProductsByModel(ctx context.Context, modelID uuid.UUID, availableOnly bool) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE model_id = $1`
	if availableOnly {
		query += ` AND available AND stock > 0`
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, modelID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.ModelID, &p.Flavor, &p.Price, &p.Stock, &p.Available, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *pgCatalogRepo) UpdateProduct(ctx context.Context, p *model.Product) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE products SET flavor = $2, price = $3, stock = $4, available = $5 WHERE id = $1`,
		p.ID, p.Flavor, p.Price, p.Stock, p.Available,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCatalogRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AdjustStock clamps at zero so a mismatched restoration can never drive
// stock negative. Accounting errors are masked rather than surfaced; the
// order engine relies on this when it floors decrements.
func (r *pgCatalogRepo) AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (int, error) {
	var stock int
	err := r.pool.QueryRow(ctx,
		`UPDATE products SET stock = GREATEST(0, stock + $2) WHERE id = $1 RETURNING stock`,
		productID, delta,
	).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, pgx.ErrNoRows
		}
		return 0, fmt.Errorf("adjust stock: %w", err)
	}
	return stock, nil
}
