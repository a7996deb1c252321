// Package storage defines the storage interfaces used by the vault service.
package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// QueryBatch represents a batch of queries to be executed atomically.
// Statements are staged with Queue and committed together; a failure of any
// statement aborts the whole batch.
type QueryBatch struct {
	queries []*Query
}

// Query is a single staged SQL statement.
type Query struct {
	Cmd  string
	Args []interface{}
}

// Queue adds a query to the batch.
func (b *QueryBatch) Queue(cmd string, args ...interface{}) {
	b.queries = append(b.queries, &Query{Cmd: cmd, Args: args})
}

// Extend adds all queries from another batch to this batch.
func (b *QueryBatch) Extend(qb *QueryBatch) {
	b.queries = append(b.queries, qb.queries...)
}

// Length returns the number of queries in the batch.
func (b *QueryBatch) Length() int {
	return len(b.queries)
}

// Queries returns the queries in the batch.
func (b *QueryBatch) Queries() []*Query {
	return b.queries
}

// AsPgxBatch converts the batch into a pgx batch for single-roundtrip submission.
func (b *QueryBatch) AsPgxBatch() pgx.Batch {
	pgxBatch := pgx.Batch{}
	for _, q := range b.queries {
		pgxBatch.Queue(q.Cmd, q.Args...)
	}
	return pgxBatch
}

// QueryResults represents the results from a read query.
type QueryResults = pgx.Rows

// QueryResult represents the result from a read query.
type QueryResult = pgx.Row

// ErrNoRows is returned by QueryRow when no row matches.
var ErrNoRows = pgx.ErrNoRows

// TargetStorage defines an interface for reading and writing service state.
type TargetStorage interface {
	// SendBatch sends a batch of queries to be applied atomically to target storage.
	SendBatch(ctx context.Context, batch *QueryBatch) error

	// Query submits a query to fetch data from target storage.
	Query(ctx context.Context, sql string, args ...interface{}) (QueryResults, error)

	// QueryRow submits a query to fetch a single row of data from target storage.
	QueryRow(ctx context.Context, sql string, args ...interface{}) QueryResult

	// Shutdown shuts down the target storage client.
	Shutdown()

	// Name returns the name of the target storage.
	Name() string
}
