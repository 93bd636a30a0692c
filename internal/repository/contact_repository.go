package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/user-service/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AddressRepository persists user addresses.
type AddressRepository interface {
	Create(ctx context.Context, address *domain.Address) error
	Update(ctx context.Context, address *domain.Address) error
	GetByID(ctx context.Context, id int64) (*domain.Address, error)
}

// PhoneRepository persists user phone numbers.
type PhoneRepository interface {
	Create(ctx context.Context, phone *domain.Phone) error
	Update(ctx context.Context, phone *domain.Phone) error
	GetByID(ctx context.Context, id int64) (*domain.Phone, error)
}

type addressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns a Postgres-backed implementation.
func NewAddressRepository(pool *pgxpool.Pool) AddressRepository {
	return &addressRepository{pool: pool}
}

func (r *addressRepository) Create(ctx context.Context, address *domain.Address) error {
	return insertAddress(ctx, r.pool, address)
}

func (r *addressRepository) Update(ctx context.Context, address *domain.Address) error {
	const query = `
        UPDATE addresses SET street=$1, number=$2, complement=$3, city=$4, state=$5, zip_code=$6
        WHERE id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		address.Street,
		address.Number,
		address.Complement,
		address.City,
		address.State,
		address.ZipCode,
		address.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *addressRepository) GetByID(ctx context.Context, id int64) (*domain.Address, error) {
	const query = `
        SELECT id, user_id, street, number, complement, city, state, zip_code
        FROM addresses WHERE id=$1`

	var a domain.Address
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.UserID, &a.Street, &a.Number, &a.Complement, &a.City, &a.State, &a.ZipCode,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

type phoneRepository struct {
	pool *pgxpool.Pool
}

// NewPhoneRepository returns a Postgres-backed implementation.
func NewPhoneRepository(pool *pgxpool.Pool) PhoneRepository {
	return &phoneRepository{pool: pool}
}

func (r *phoneRepository) Create(ctx context.Context, phone *domain.Phone) error {
	return insertPhone(ctx, r.pool, phone)
}

func (r *phoneRepository) Update(ctx context.Context, phone *domain.Phone) error {
	const query = `UPDATE phones SET area_code=$1, number=$2 WHERE id=$3`

	cmd, err := r.pool.Exec(ctx, query, phone.AreaCode, phone.Number, phone.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *phoneRepository) GetByID(ctx context.Context, id int64) (*domain.Phone, error) {
	const query = `SELECT id, user_id, area_code, number FROM phones WHERE id=$1`

	var p domain.Phone
	if err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.UserID, &p.AreaCode, &p.Number); err != nil {
		return nil, err
	}
	return &p, nil
}

func insertAddress(ctx context.Context, q querier, address *domain.Address) error {
	const query = `
        INSERT INTO addresses (user_id, street, number, complement, city, state, zip_code)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return q.QueryRow(ctx, query,
		address.UserID,
		address.Street,
		address.Number,
		address.Complement,
		address.City,
		address.State,
		address.ZipCode,
	).Scan(&address.ID)
}

func insertPhone(ctx context.Context, q querier, phone *domain.Phone) error {
	const query = `
        INSERT INTO phones (user_id, area_code, number)
        VALUES ($1,$2,$3)
        RETURNING id`
	return q.QueryRow(ctx, query, phone.UserID, phone.AreaCode, phone.Number).Scan(&phone.ID)
}
