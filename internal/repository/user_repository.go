package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/user-service/internal/domain"
)

// ErrEmailTaken is returned when a write violates the unique email constraint.
var ErrEmailTaken = errors.New("email already registered")

const uniqueViolation = "23505"

// UserRepository defines persistence access for users keyed by email.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	DeleteByEmail(ctx context.Context, email string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

// Create inserts the user together with its addresses and phones.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query,
			user.Name,
			user.Email,
			user.PasswordHash,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return err
		}

		for i := range user.Addresses {
			user.Addresses[i].UserID = user.ID
			if err := insertAddress(ctx, tx, &user.Addresses[i]); err != nil {
				return fmt.Errorf("insert address: %w", err)
			}
		}
		for i := range user.Phones {
			user.Phones[i].UserID = user.ID
			if err := insertPhone(ctx, tx, &user.Phones[i]); err != nil {
				return fmt.Errorf("insert phone: %w", err)
			}
		}
		return nil
	})
	return mapUniqueViolation(err)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, password_hash=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.ID,
	).Scan(&user.UpdatedAt)
	return mapUniqueViolation(err)
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email=$1)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, email).Scan(&exists)
	return exists, err
}

// GetByEmail loads the user with its addresses and phones.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, password_hash, created_at, updated_at
        FROM users WHERE email=$1`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	addresses, err := r.listAddresses(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	phones, err := r.listPhones(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Addresses = addresses
	user.Phones = phones
	return &user, nil
}

func (r *userRepository) DeleteByEmail(ctx context.Context, email string) error {
	const query = `DELETE FROM users WHERE email=$1`

	cmd, err := r.pool.Exec(ctx, query, email)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) listAddresses(ctx context.Context, userID int64) ([]domain.Address, error) {
	const query = `
        SELECT id, user_id, street, number, complement, city, state, zip_code
        FROM addresses WHERE user_id=$1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Address, error) {
		var a domain.Address
		err := row.Scan(&a.ID, &a.UserID, &a.Street, &a.Number, &a.Complement, &a.City, &a.State, &a.ZipCode)
		return a, err
	})
}

func (r *userRepository) listPhones(ctx context.Context, userID int64) ([]domain.Phone, error) {
	const query = `
        SELECT id, user_id, area_code, number
        FROM phones WHERE user_id=$1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Phone, error) {
		var p domain.Phone
		err := row.Scan(&p.ID, &p.UserID, &p.AreaCode, &p.Number)
		return p, err
	})
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	return err
}
