package warehouse

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kbukum/starschema/errors"
)

// SQLStateUndefinedTable is the SQLSTATE a server reports for a missing relation.
const SQLStateUndefinedTable = "42P01"

// DetailSQLState is the AppError detail key carrying the server's SQLSTATE.
const DetailSQLState = "sqlstate"

// Row is the first row of a query result; empty when the result set was empty.
type Row []any

// Client is one warehouse connection.
// Every statement runs in its own transaction and commits on success.
type Client interface {
	Execute(ctx context.Context, statement string) error
	QueryFirstRow(ctx context.Context, statement string) (Row, error)
}

// IsUndefinedTable reports whether err was caused by a missing table.
func IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == SQLStateUndefinedTable
	}
	for err != nil {
		appErr, ok := errors.AsAppError(err)
		if !ok {
			return false
		}
		if appErr.Details[DetailSQLState] == SQLStateUndefinedTable {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// executionError wraps a driver failure, keeping the SQLSTATE when there is one.
func executionError(connection string, cause error) *errors.AppError {
	appErr := errors.ExecutionFailed(connection, cause)
	var pgErr *pgconn.PgError
	if stderrors.As(cause, &pgErr) {
		appErr.WithDetail(DetailSQLState, pgErr.Code)
	}
	return appErr
}
