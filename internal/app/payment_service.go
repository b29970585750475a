package app

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

type PaymentRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	ListPaymentMethods(ctx context.Context, accountID uuid.UUID) ([]domain.PaymentMethod, error)
	GetPaymentMethodForUpdate(ctx context.Context, id uuid.UUID) (domain.PaymentMethod, error)
	AccountExists(ctx context.Context, accountID uuid.UUID) (bool, error)
	InsertPaymentMethod(ctx context.Context, m domain.PaymentMethod) error
	AddBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	IsOwnedBy(ctx context.Context, paymentMethodID, accountID uuid.UUID) (bool, error)
}

// PaymentService is the internal ledger. There is no real gateway behind
// it; a transfer is a balance-neutral debit/credit between two payment
// method rows.
type PaymentService struct {
	repo PaymentRepository
}

func NewPaymentService(repo PaymentRepository) *PaymentService {
	return &PaymentService{repo: repo}
}

// GetPaymentMethods lists the account's methods. Card methods expose the
// card number only; expiry, holder name and cvv never leave the store.
func (s *PaymentService) GetPaymentMethods(ctx context.Context, accountID uuid.UUID) ([]domain.PaymentMethod, error) {
	methods, err := s.repo.ListPaymentMethods(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for i := range methods {
		if methods[i].Card != nil {
			methods[i].Card = &domain.CardDetails{Number: methods[i].Card.Number}
		}
	}
	return methods, nil
}

// PerformTransaction moves amount from one payment method to another inside
// one transaction. Both rows are locked in id order so two concurrent
// transfers over the same pair cannot deadlock. Unresolved ids fail with
// ErrPaymentMethodNotFound; negative amounts with ErrInvalidAmount.
func (s *PaymentService) PerformTransaction(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return domain.ErrInvalidAmount
	}
	if fromID == toID {
		return domain.ErrInvalidAmount
	}

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		first, second := fromID, toID
		if second.String() < first.String() {
			first, second = second, first
		}
		if _, err := s.repo.GetPaymentMethodForUpdate(txCtx, first); err != nil {
			return err
		}
		if _, err := s.repo.GetPaymentMethodForUpdate(txCtx, second); err != nil {
			return err
		}

		if err := s.repo.AddBalance(txCtx, fromID, amount.Neg()); err != nil {
			return err
		}
		return s.repo.AddBalance(txCtx, toID, amount)
	})
}

var (
	cardNumberPattern = regexp.MustCompile(`^[0-9]{13,19}$`)
	cardExpiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	cardCVVPattern    = regexp.MustCompile(`^[0-9]{3,4}$`)
)

// AddCard validates card-shaped input and persists a new card payment
// method with a zero balance.
func (s *PaymentService) AddCard(ctx context.Context, accountID uuid.UUID, displayName, number, expiry, cvv, name string) (domain.PaymentMethod, error) {
	if !cardNumberPattern.MatchString(number) || !luhnValid(number) {
		return domain.PaymentMethod{}, domain.ErrInvalidCard
	}
	if !cardExpiryPattern.MatchString(expiry) || !cardCVVPattern.MatchString(cvv) || name == "" {
		return domain.PaymentMethod{}, domain.ErrInvalidCard
	}

	method := domain.PaymentMethod{
		ID:          uuid.New(),
		AccountID:   accountID,
		Kind:        domain.PaymentMethodCard,
		DisplayName: displayName,
		Balance:     decimal.Zero,
		Card: &domain.CardDetails{
			Number: number,
			Expiry: expiry,
			Name:   name,
			CVV:    cvv,
		},
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		exists, err := s.repo.AccountExists(txCtx, accountID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrAccountNotFound
		}
		return s.repo.InsertPaymentMethod(txCtx, method)
	})
	if err != nil {
		return domain.PaymentMethod{}, err
	}

	method.Card = &domain.CardDetails{Number: number}
	return method, nil
}

// IsValidPaymentMethod reports whether the method exists and belongs to the
// account. False, not an error, for unknown ids.
func (s *PaymentService) IsValidPaymentMethod(ctx context.Context, paymentMethodID, accountID uuid.UUID) (bool, error) {
	return s.repo.IsOwnedBy(ctx, paymentMethodID, accountID)
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
