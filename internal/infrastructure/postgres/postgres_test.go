package postgres

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "invoices_uuid_key"}
	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23514"}))
	assert.False(t, isUniqueViolation(errors.New("23505 en el texto no cuenta")))
}

func TestNullIfEmpty(t *testing.T) {
	empty, value := "", "CPX"
	assert.Nil(t, nullIfEmpty(nil))
	assert.Nil(t, nullIfEmpty(&empty))
	assert.Equal(t, &value, nullIfEmpty(&value))
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(embeddedMigrations, "migrations/*.up.sql")
	require.NoError(t, err)
	require.Len(t, names, 2)

	first, err := fs.ReadFile(embeddedMigrations, names[0])
	require.NoError(t, err)
	assert.Contains(t, string(first), "CONSTRAINT invoices_uuid_key UNIQUE (uuid)")
	assert.Contains(t, string(first), "CHECK (total > 0)")

	second, err := fs.ReadFile(embeddedMigrations, names[1])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(second), "payment_complement_generated BOOLEAN NOT NULL DEFAULT FALSE"))

	downs, err := fs.Glob(embeddedMigrations, "migrations/*.down.sql")
	require.NoError(t, err)
	assert.Len(t, downs, len(names), "cada migración up necesita su down")
}
