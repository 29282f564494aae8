// Package repository implements sqlx persistence for the catalog entities.
// Every table carries a surrogate internal key plus a stable public_id exposed
// to callers, and a soft-delete flag excluded from default reads.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Querier is the transactional data-access handle shared by all repositories.
// Both *sqlx.DB and *sqlx.Tx satisfy it, so a repository can be rebound to a
// transaction with WithTx and reused unchanged inside composite operations.
type Querier interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// findByPublicID fetches a single row by its public identifier. This is the
// one place the soft-delete convention is enforced for point reads: deleted
// rows are excluded unless includeDeleted is set. Absence is (nil, nil), not
// an error. table and columns are package-level constants, never user input.
func findByPublicID[T any](ctx context.Context, q Querier, table, columns, publicID string, includeDeleted bool) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE public_id = $1", columns, table)
	if !includeDeleted {
		query += " AND is_deleted = FALSE"
	}

	var row T
	if err := sqlx.GetContext(ctx, q, &row, query, publicID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s by public id: %w", table, err)
	}
	return &row, nil
}

// findByInternalID fetches a single row by its surrogate key.
func findByInternalID[T any](ctx context.Context, q Querier, table, columns string, pk int64) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", columns, table)

	var row T
	if err := sqlx.GetContext(ctx, q, &row, query, pk); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s by id: %w", table, err)
	}
	return &row, nil
}

// countRows counts non-deleted rows of a table.
func countRows(ctx context.Context, q Querier, table string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE is_deleted = FALSE", table)

	var total int
	if err := sqlx.GetContext(ctx, q, &total, query); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return total, nil
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// rejection. Services treat this exactly like a proactive duplicate pre-check.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// setBuilder accumulates SET assignments for partial updates. Column names
// are compile-time literals at every call site; values are always bound.
type setBuilder struct {
	assignments []string
	args        []interface{}
}

func (b *setBuilder) add(column string, value interface{}) {
	b.args = append(b.args, value)
	b.assignments = append(b.assignments, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

func (b *setBuilder) empty() bool {
	return len(b.assignments) == 0
}
