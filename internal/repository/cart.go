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

// CartRepository is the per-user holding area of pending selections.
// Entries are unique per (user, product); AddEntry guards the
// check-then-act sequence with a row lock and Coalesce repairs any
// duplicates that slipped in regardless.
type CartRepository interface {
	AddEntry(ctx context.Context, userID, productID uuid.UUID, quantity int) (*model.CartEntry, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartEntry, error)
	GetEntry(ctx context.Context, entryID uuid.UUID) (*model.CartEntry, error)
	UpdateQuantity(ctx context.Context, entryID uuid.UUID, quantity int) error
	RemoveEntry(ctx context.Context, entryID uuid.UUID) error
	ClearByUser(ctx context.Context, userID uuid.UUID) error
	ClearAll(ctx context.Context) error

	// Coalesce merges duplicate rows per product into the oldest row,
	// summing quantities. Idempotent; returns the number of rows removed.
	Coalesce(ctx context.Context, userID uuid.UUID) (int, error)
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

const cartColumns = `id, user_id, product_id, quantity, created_at`

// AddEntry increments the existing row for (user, product) or inserts a
// new one. The SELECT ... FOR UPDATE pins the row for the duration of the
// check-then-act so two concurrent adds cannot both observe "no row" and
// insert twice.
func (r *pgCartRepo) AddEntry(ctx context.Context, userID, productID uuid.UUID, quantity int) (*model.CartEntry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	entry := &model.CartEntry{}
	err = tx.QueryRow(ctx,
		`SELECT `+cartColumns+` FROM cart_entries
		 WHERE user_id = $1 AND product_id = $2
		 ORDER BY created_at, id LIMIT 1 FOR UPDATE`,
		userID, productID,
	).Scan(&entry.ID, &entry.UserID, &entry.ProductID, &entry.Quantity, &entry.CreatedAt)

	switch {
	case err == nil:
		err = tx.QueryRow(ctx,
			`UPDATE cart_entries SET quantity = quantity + $2 WHERE id = $1 RETURNING quantity`,
			entry.ID, quantity,
		).Scan(&entry.Quantity)
		if err != nil {
			return nil, fmt.Errorf("increment cart entry: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		entry = &model.CartEntry{ID: uuid.New(), UserID: userID, ProductID: productID, Quantity: quantity}
		err = tx.QueryRow(ctx,
			`INSERT INTO cart_entries (id, user_id, product_id, quantity, created_at)
			 VALUES ($1, $2, $3, $4, NOW()) RETURNING created_at`,
			entry.ID, entry.UserID, entry.ProductID, entry.Quantity,
		).Scan(&entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert cart entry: %w", err)
		}
	default:
		return nil, fmt.Errorf("lock cart entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return entry, nil
}

// ListByUser preserves insertion order for line-item display
// reproducibility.
func (r *pgCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+cartColumns+` FROM cart_entries WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	var entries []model.CartEntry
	for rows.Next() {
		var e model.CartEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProductID, &e.Quantity, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cart entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *pgCartRepo) GetEntry(ctx context.Context, entryID uuid.UUID) (*model.CartEntry, error) {
	e := &model.CartEntry{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+cartColumns+` FROM cart_entries WHERE id = $1`, entryID,
	).Scan(&e.ID, &e.UserID, &e.ProductID, &e.Quantity, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart entry: %w", err)
	}
	return e, nil
}

// UpdateQuantity deletes the row when quantity drops to zero or below.
func (r *pgCartRepo) UpdateQuantity(ctx context.Context, entryID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return r.RemoveEntry(ctx, entryID)
	}
	ct, err := r.pool.Exec(ctx,
		`UPDATE cart_entries SET quantity = $2 WHERE id = $1`, entryID, quantity)
	if err != nil {
		return fmt.Errorf("update cart quantity: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) RemoveEntry(ctx context.Context, entryID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_entries WHERE id = $1`, entryID)
	if err != nil {
		return fmt.Errorf("remove cart entry: %w", err)
	}
	return nil
}

func (r *pgCartRepo) ClearByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_entries WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *pgCartRepo) ClearAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_entries`)
	if err != nil {
		return fmt.Errorf("clear all carts: %w", err)
	}
	return nil
}

// Coalesce keeps the earliest-created row per product and folds the
// quantities of the rest into it. Concurrent or retried adds can leave
// duplicates behind; this is the in-band repair for them.
func (r *pgCartRepo) Coalesce(ctx context.Context, userID uuid.UUID) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT `+cartColumns+` FROM cart_entries
		 WHERE user_id = $1 ORDER BY created_at, id FOR UPDATE`, userID)
	if err != nil {
		return 0, fmt.Errorf("lock cart: %w", err)
	}

	var entries []model.CartEntry
	for rows.Next() {
		var e model.CartEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProductID, &e.Quantity, &e.CreatedAt); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan cart entry: %w", err)
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	keeper := make(map[uuid.UUID]*model.CartEntry)
	var removed []uuid.UUID
	for i := range entries {
		e := &entries[i]
		first, ok := keeper[e.ProductID]
		if !ok {
			keeper[e.ProductID] = e
			continue
		}
		first.Quantity += e.Quantity
		removed = append(removed, e.ID)
	}
	if len(removed) == 0 {
		return 0, tx.Commit(ctx)
	}

	for _, first := range keeper {
		_, err := tx.Exec(ctx,
			`UPDATE cart_entries SET quantity = $2 WHERE id = $1`, first.ID, first.Quantity)
		if err != nil {
			return 0, fmt.Errorf("merge cart entry: %w", err)
		}
	}
	for _, id := range removed {
		if _, err := tx.Exec(ctx, `DELETE FROM cart_entries WHERE id = $1`, id); err != nil {
			return 0, fmt.Errorf("delete duplicate cart entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(removed), nil
}
