package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorPassthrough(t *testing.T) {
	original := NewForbidden("nope")
	mapped := ToDomainError(original)
	require.Equal(t, "FORBIDDEN", mapped.Code)
	require.Equal(t, http.StatusForbidden, mapped.HTTPStatus)
}

func TestToDomainErrorNoRows(t *testing.T) {
	mapped := ToDomainError(pgx.ErrNoRows)
	require.Equal(t, "NOT_FOUND", mapped.Code)
	require.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
}

func TestToDomainErrorUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505"}
	mapped := ToDomainError(pgErr)
	require.Equal(t, "CONFLICT", mapped.Code)
	require.Equal(t, http.StatusConflict, mapped.HTTPStatus)
}

func TestToDomainErrorWrappedUniqueViolation(t *testing.T) {
	wrapped := errors.Join(errors.New("insert work_logs"), &pgconn.PgError{Code: "23505"})
	require.True(t, IsUniqueViolation(wrapped))
}

func TestToDomainErrorUnknownBecomesInternal(t *testing.T) {
	mapped := ToDomainError(errors.New("boom"))
	require.Equal(t, "INTERNAL_ERROR", mapped.Code)
	require.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
	require.ErrorContains(t, mapped, "boom")
}

func TestPredicates(t *testing.T) {
	require.True(t, IsNotFound(NewNotFound("thing", nil)))
	require.False(t, IsNotFound(NewForbidden("x")))
	require.True(t, IsForbidden(NewForbidden("x")))
}
