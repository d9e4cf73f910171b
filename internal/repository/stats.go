package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cloudsupply/storebot/internal/model"
)

type ProductSales struct {
	Product   model.Product
	UnitsSold int
}

// StatsRepository aggregates over orders and line items for the admin
// statistics view. Revenue counts processing and completed orders alike.
type StatsRepository interface {
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	OrderCount(ctx context.Context) (int, error)
	// CostAndProfit computes total cost basis and profit:
	// sum((price_at_order - cost_basis) * quantity) plus delivery fees.
	CostAndProfit(ctx context.Context) (cost, profit decimal.Decimal, err error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
}

type pgStatsRepo struct{ pool *pgxpool.Pool }

func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &pgStatsRepo{pool: pool}
}

func (r *pgStatsRepo) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_price), 0) FROM orders WHERE status IN ($1, $2)`,
		model.OrderStatusProcessing, model.OrderStatusCompleted,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total revenue: %w", err)
	}
	return total, nil
}

func (r *pgStatsRepo) OrderCount(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("order count: %w", err)
	}
	return n, nil
}

func (r *pgStatsRepo) CostAndProfit(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	var cost, margin decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT
		   COALESCE(SUM(pm.cost_basis * li.quantity), 0),
		   COALESCE(SUM((li.price_at_order - pm.cost_basis) * li.quantity), 0)
		 FROM order_line_items li
		 JOIN orders o ON o.id = li.order_id
		 JOIN products p ON p.id = li.product_id
		 JOIN product_models pm ON pm.id = p.model_id
		 WHERE o.status IN ($1, $2)`,
		model.OrderStatusProcessing, model.OrderStatusCompleted,
	).Scan(&cost, &margin)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("cost and margin: %w", err)
	}

	var fees decimal.Decimal
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(delivery_fee), 0) FROM orders WHERE status IN ($1, $2)`,
		model.OrderStatusProcessing, model.OrderStatusCompleted,
	).Scan(&fees)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("delivery fees: %w", err)
	}
	return cost, margin.Add(fees), nil
}

func (r *pgStatsRepo) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.model_id, p.flavor, p.price, p.stock, p.available, p.created_at,
		        SUM(li.quantity) AS units
		 FROM order_line_items li
		 JOIN products p ON p.id = li.product_id
		 GROUP BY p.id, p.model_id, p.flavor, p.price, p.stock, p.available, p.created_at
		 ORDER BY units DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	var top []ProductSales
	for rows.Next() {
		var s ProductSales
		if err := rows.Scan(&s.Product.ID, &s.Product.ModelID, &s.Product.Flavor, &s.Product.Price,
			&s.Product.Stock, &s.Product.Available, &s.Product.CreatedAt, &s.UnitsSold); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		top = append(top, s)
	}
	return top, rows.Err()
}

// Snapshot is a point-in-time JSON-serializable dump of every table, used
// for backups before destructive maintenance.
type Snapshot struct {
	Users     []model.User          `json:"users"`
	Models    []model.ProductModel  `json:"models"`
	Products  []model.Product       `json:"products"`
	Cart      []model.CartEntry     `json:"cart_entries"`
	Orders    []model.Order         `json:"orders"`
	LineItems []model.OrderLineItem `json:"order_line_items"`
	Settings  []model.Setting       `json:"settings"`
}

// SnapshotRepository reads whole tables for backup export.
type SnapshotRepository interface {
	Dump(ctx context.Context) (*Snapshot, error)
}

type pgSnapshotRepo struct{ pool *pgxpool.Pool }

func NewSnapshotRepository(pool *pgxpool.Pool) SnapshotRepository {
	return &pgSnapshotRepo{pool: pool}
}

func (r *pgSnapshotRepo) Dump(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("dump users: %w", err)
	}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName, &u.Banned, &u.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Users = append(snap.Users, u)
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `SELECT `+modelColumns+` FROM product_models ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("dump models: %w", err)
	}
	for rows.Next() {
		var m model.ProductModel
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.ImagePath, &m.CostBasis, &m.Available, &m.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Models = append(snap.Models, m)
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("dump products: %w", err)
	}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.ModelID, &p.Flavor, &p.Price, &p.Stock, &p.Available, &p.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Products = append(snap.Products, p)
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `SELECT `+cartColumns+` FROM cart_entries ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("dump cart: %w", err)
	}
	for rows.Next() {
		var e model.CartEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProductID, &e.Quantity, &e.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Cart = append(snap.Cart, e)
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("dump orders: %w", err)
	}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.DeliveryMethod,
			&o.DeliveryFee, &o.ContactInfo, &o.CreatedAt, &o.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Orders = append(snap.Orders, o)
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `SELECT `+itemColumns+` FROM order_line_items ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("dump line items: %w", err)
	}
	for rows.Next() {
		var it model.OrderLineItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.PriceAtOrder); err != nil {
			rows.Close()
			return nil, err
		}
		snap.LineItems = append(snap.LineItems, it)
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("dump settings: %w", err)
	}
	for rows.Next() {
		var s model.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Settings = append(snap.Settings, s)
	}
	rows.Close()

	return snap, nil
}
