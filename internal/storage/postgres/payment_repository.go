package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const paymentColumns = `
SELECT id, account_id, type, display_name, balance,
	card_number, card_expiry, card_name, card_cvv
FROM payment_methods`

func (r *PaymentRepository) ListPaymentMethods(ctx context.Context, accountID uuid.UUID) ([]domain.PaymentMethod, error) {
	rows, err := r.query(ctx, paymentColumns+` WHERE account_id = $1 ORDER BY created_at, id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()

	var methods []domain.PaymentMethod
	for rows.Next() {
		m, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// GetPaymentMethodForUpdate locks the row for a pending balance change.
func (r *PaymentRepository) GetPaymentMethodForUpdate(ctx context.Context, id uuid.UUID) (domain.PaymentMethod, error) {
	m, err := scanPaymentMethod(r.queryRow(ctx, paymentColumns+` WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.PaymentMethod{}, domain.ErrPaymentMethodNotFound
		}
		return domain.PaymentMethod{}, fmt.Errorf("get payment method for update: %w", err)
	}
	return m, nil
}

func scanPaymentMethod(row pgx.Row) (domain.PaymentMethod, error) {
	var m domain.PaymentMethod
	var kind string
	var number, expiry, name, cvv *string
	err := row.Scan(&m.ID, &m.AccountID, &kind, &m.DisplayName, &m.Balance, &number, &expiry, &name, &cvv)
	if err != nil {
		return domain.PaymentMethod{}, err
	}
	m.Kind = domain.PaymentMethodKind(kind)
	if m.Kind == domain.PaymentMethodCard {
		m.Card = &domain.CardDetails{}
		if number != nil {
			m.Card.Number = *number
		}
		if expiry != nil {
			m.Card.Expiry = *expiry
		}
		if name != nil {
			m.Card.Name = *name
		}
		if cvv != nil {
			m.Card.CVV = *cvv
		}
	}
	return m, nil
}

func (r *PaymentRepository) AccountExists(ctx context.Context, accountID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`
	var exists bool
	if err := r.queryRow(ctx, query, accountID).Scan(&exists); err != nil {
		return false, fmt.Errorf("account exists: %w", err)
	}
	return exists, nil
}

func (r *PaymentRepository) InsertPaymentMethod(ctx context.Context, m domain.PaymentMethod) error {
	const stmt = `
INSERT INTO payment_methods (id, account_id, type, display_name, balance,
	card_number, card_expiry, card_name, card_cvv)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var number, expiry, name, cvv *string
	if m.Card != nil {
		number, expiry, name, cvv = &m.Card.Number, &m.Card.Expiry, &m.Card.Name, &m.Card.CVV
	}

	_, err := r.exec(ctx, stmt,
		m.ID, m.AccountID, string(m.Kind), m.DisplayName, m.Balance,
		number, expiry, name, cvv,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("insert payment method: %w", err)
	}
	return nil
}

// AddBalance applies a signed delta to the method's running balance.
func (r *PaymentRepository) AddBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	const stmt = `UPDATE payment_methods SET balance = balance + $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id, delta)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentMethodNotFound
	}
	return nil
}

func (r *PaymentRepository) IsOwnedBy(ctx context.Context, paymentMethodID, accountID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM payment_methods WHERE id = $1 AND account_id = $2)`
	var owned bool
	if err := r.queryRow(ctx, query, paymentMethodID, accountID).Scan(&owned); err != nil {
		return false, fmt.Errorf("is payment method owned: %w", err)
	}
	return owned, nil
}

func (r *PaymentRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *PaymentRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *PaymentRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
