// package repositories provides the persistence layer over the SQLite
// backing store.
//
// Provider catalog rows are written through idempotent upserts keyed by the
// provider-native id, so concurrent duplicate writes converge to one row.
// Linkage operations accept a [Querier] so the arbitrator can run its
// read-then-decide-then-write sequence inside a single *sql.Tx.
package repositories

import (
	"context"
	"database/sql"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
