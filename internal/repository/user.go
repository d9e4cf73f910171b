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

type UserRepository interface {
	GetOrCreate(ctx context.Context, user *model.User) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	SetBanned(ctx context.Context, id uuid.UUID, banned bool) error
	List(ctx context.Context) ([]model.User, error)
	Count(ctx context.Context) (int, error)
}

type pgUserRepo struct{ pool *pgxpool.Pool }

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepo{pool: pool}
}

const userColumns = `id, telegram_id, username, first_name, last_name, banned, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName, &u.Banned, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// GetOrCreate returns the user with the given telegram id, creating it on
// first contact. Name fields are refreshed on every call so a renamed
// account stays current.
func (r *pgUserRepo) GetOrCreate(ctx context.Context, user *model.User) (*model.User, error) {
	existing, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users SET username = $2, first_name = $3, last_name = $4
		 WHERE telegram_id = $1 RETURNING `+userColumns,
		user.TelegramID, user.Username, user.FirstName, user.LastName,
	))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	user.ID = uuid.New()
	created, err := scanUser(r.pool.QueryRow(ctx,
		`INSERT INTO users (id, telegram_id, username, first_name, last_name, banned, created_at)
		 VALUES ($1, $2, $3, $4, $5, FALSE, NOW()) RETURNING `+userColumns,
		user.ID, user.TelegramID, user.Username, user.FirstName, user.LastName,
	))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (r *pgUserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID))
	if err != nil {
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	return u, nil
}

func (r *pgUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (r *pgUserRepo) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	ct, err := r.pool.Exec(ctx, `UPDATE users SET banned = $2 WHERE id = $1`, id, banned)
	if err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgUserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName, &u.Banned, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *pgUserRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
