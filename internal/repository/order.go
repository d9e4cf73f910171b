package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cloudsupply/storebot/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// GetActiveByUser returns the user's most recent order still in
	// processing status, or nil.
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*model.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error
	AddToTotal(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	SetTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error
	Delete(ctx context.Context, id uuid.UUID) error
	WipeAll(ctx context.Context) error

	InsertItem(ctx context.Context, item *model.OrderLineItem) error
	ListItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderLineItem, error)
	// ItemsByKey returns all line items of the order sharing the
	// (product, price_at_order) key, oldest first. More than one row is
	// a defect state the caller collapses.
	ItemsByKey(ctx context.Context, orderID, productID uuid.UUID, price decimal.Decimal) ([]model.OrderLineItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

const orderColumns = `id, user_id, status, total_price, delivery_method, delivery_fee, contact_info, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.DeliveryMethod,
		&o.DeliveryFee, &o.ContactInfo, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

func (r *pgOrderRepo) Create(ctx context.Context, order *model.Order) error {
	order.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, status, total_price, delivery_method, delivery_fee, contact_info, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.Status, order.TotalPrice,
		order.DeliveryMethod, order.DeliveryFee, order.ContactInfo,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, nil
	}

	order.Items, err = r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *pgOrderRepo) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE user_id = $1 AND status = $2
		 ORDER BY created_at DESC LIMIT 1`,
		userID, model.OrderStatusProcessing))
	if err != nil {
		return nil, fmt.Errorf("get active order: %w", err)
	}
	if order == nil {
		return nil, nil
	}

	order.Items, err = r.ListItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *pgOrderRepo) listOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.DeliveryMethod,
			&o.DeliveryFee, &o.ContactInfo, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *pgOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return r.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *pgOrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepo) AddToTotal(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET total_price = total_price + $2, updated_at = NOW() WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("add to order total: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepo) SetTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET total_price = $2, updated_at = NOW() WHERE id = $1`, id, total)
	if err != nil {
		return fmt.Errorf("set order total: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes the order; line items cascade-delete. Stock restoration
// is the order engine's job, not the repository's.
func (r *pgOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepo) WipeAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM orders`)
	if err != nil {
		return fmt.Errorf("wipe orders: %w", err)
	}
	return nil
}

const itemColumns = `id, order_id, product_id, quantity, price_at_order`

func (r *pgOrderRepo) InsertItem(ctx context.Context, item *model.OrderLineItem) error {
	item.ID = uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO order_line_items (id, order_id, product_id, quantity, price_at_order, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())`,
		item.ID, item.OrderID, item.ProductID, item.Quantity, item.PriceAtOrder,
	)
	if err != nil {
		return fmt.Errorf("insert line item: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) listItems(ctx context.Context, query string, args ...any) ([]model.OrderLineItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderLineItem
	for rows.Next() {
		var it model.OrderLineItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.PriceAtOrder); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *pgOrderRepo) ListItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderLineItem, error) {
	return r.listItems(ctx,
		`SELECT `+itemColumns+` FROM order_line_items WHERE order_id = $1 ORDER BY created_at, id`, orderID)
}

func (r *pgOrderRepo) ItemsByKey(ctx context.Context, orderID, productID uuid.UUID, price decimal.Decimal) ([]model.OrderLineItem, error) {
	return r.listItems(ctx,
		`SELECT `+itemColumns+` FROM order_line_items
		 WHERE order_id = $1 AND product_id = $2 AND price_at_order = $3 ORDER BY created_at, id`,
		orderID, productID, price)
}

func (r *pgOrderRepo) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE order_line_items SET quantity = $2 WHERE id = $1`, itemID, quantity)
	if err != nil {
		return fmt.Errorf("update line item quantity: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM order_line_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete line item: %w", err)
	}
	return nil
}
