package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapUniqueViolation(t *testing.T) {
	assert.NoError(t, mapUniqueViolation(nil))
	assert.ErrorIs(t, mapUniqueViolation(&pgconn.PgError{Code: "23505"}), ErrEmailTaken)
	assert.ErrorIs(t, mapUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})), ErrEmailTaken)

	fk := &pgconn.PgError{Code: "23503"}
	assert.Same(t, error(fk), mapUniqueViolation(fk))
	assert.True(t, errors.Is(mapUniqueViolation(pgx.ErrNoRows), pgx.ErrNoRows))
}
