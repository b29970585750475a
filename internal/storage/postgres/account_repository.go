package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *AccountRepository) GetAccount(ctx context.Context, accountID uuid.UUID) (domain.Account, error) {
	const query = `SELECT id, email, COALESCE(company, '') FROM accounts WHERE id = $1`

	var a domain.Account
	err := r.queryRow(ctx, query, accountID).Scan(&a.ID, &a.Email, &a.Company)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) AttendeeExists(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM attendees WHERE account_id = $1)`, accountID)
}

func (r *AccountRepository) OrganizerExists(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM organizers WHERE account_id = $1)`, accountID)
}

func (r *AccountRepository) exists(ctx context.Context, query string, accountID uuid.UUID) (bool, error) {
	var ok bool
	if err := r.queryRow(ctx, query, accountID).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists query: %w", err)
	}
	return ok, nil
}

// InsertAttendee is idempotent: creating a role that already exists is a
// no-op.
func (r *AccountRepository) InsertAttendee(ctx context.Context, accountID uuid.UUID) error {
	return r.insertRole(ctx, `INSERT INTO attendees (account_id) VALUES ($1) ON CONFLICT DO NOTHING`, accountID)
}

// InsertOrganizer is idempotent, like InsertAttendee.
func (r *AccountRepository) InsertOrganizer(ctx context.Context, accountID uuid.UUID) error {
	return r.insertRole(ctx, `INSERT INTO organizers (account_id) VALUES ($1) ON CONFLICT DO NOTHING`, accountID)
}

func (r *AccountRepository) insertRole(ctx context.Context, stmt string, accountID uuid.UUID) error {
	_, err := r.exec(ctx, stmt, accountID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

func (r *AccountRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *AccountRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
