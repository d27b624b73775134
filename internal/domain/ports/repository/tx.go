package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via the Tx argument.
//
// Use cases stay free of storage types: repositories accept `tx Tx` and
// detect the concrete handle (pgx.Tx for Postgres) implementation-side.
// Repositories MUST gracefully accept nil for the non-transactional path.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
