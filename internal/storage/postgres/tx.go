package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txKey struct{}

// withTx runs fn inside a transaction carried through the context. A call
// made while a transaction is already in flight joins it, so repositories
// compose into one commit/rollback scope.
func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// withSavepoint runs fn inside a savepoint on the enclosing transaction.
// An error from fn rolls back only the savepoint; the outer transaction
// stays usable. Must be called inside withTx.
func withSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return errors.New("withSavepoint: no enclosing transaction")
	}

	// pgx nests via SAVEPOINT when Begin is called on an open transaction.
	sp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}

	spCtx := context.WithValue(ctx, txKey{}, sp)
	if err := fn(spCtx); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
