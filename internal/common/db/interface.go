package db

import (
	"context"
	"database/sql"
)

// Querier is shared by the pool and an open transaction.
type Querier interface {
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) Row
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
}

// Database is a pooled relational store.
type Database interface {
	Querier

	// Transaction runs fn inside a transaction, committing when fn returns nil
	// and rolling back otherwise.
	Transaction(ctx context.Context, fn func(tx Transaction) error) error

	Ping(ctx context.Context) error
	Close() error
}

// Transaction is a Querier bound to an open transaction.
type Transaction interface {
	Querier
}

// Rows is satisfied by *sql.Rows.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Row is satisfied by *sql.Row.
type Row interface {
	Scan(dest ...interface{}) error
}

// Result is satisfied by sql.Result.
type Result = sql.Result
