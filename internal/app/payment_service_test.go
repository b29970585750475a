package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

type fakePaymentRepo struct {
	methods  map[uuid.UUID]domain.PaymentMethod
	order    []uuid.UUID
	accounts map[uuid.UUID]bool
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		methods:  make(map[uuid.UUID]domain.PaymentMethod),
		accounts: make(map[uuid.UUID]bool),
	}
}

func (r *fakePaymentRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	state := make(map[uuid.UUID]domain.PaymentMethod, len(r.methods))
	for id, m := range r.methods {
		state[id] = m
	}
	if err := fn(ctx); err != nil {
		r.methods = state
		return err
	}
	return nil
}

func (r *fakePaymentRepo) ListPaymentMethods(_ context.Context, accountID uuid.UUID) ([]domain.PaymentMethod, error) {
	var out []domain.PaymentMethod
	for _, id := range r.order {
		if m := r.methods[id]; m.AccountID == accountID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) GetPaymentMethodForUpdate(_ context.Context, id uuid.UUID) (domain.PaymentMethod, error) {
	if m, found := r.methods[id]; found {
		return m, nil
	}
	return domain.PaymentMethod{}, domain.ErrPaymentMethodNotFound
}

func (r *fakePaymentRepo) AccountExists(_ context.Context, accountID uuid.UUID) (bool, error) {
	return r.accounts[accountID], nil
}

func (r *fakePaymentRepo) InsertPaymentMethod(_ context.Context, m domain.PaymentMethod) error {
	r.methods[m.ID] = m
	r.order = append(r.order, m.ID)
	return nil
}

func (r *fakePaymentRepo) AddBalance(_ context.Context, id uuid.UUID, delta decimal.Decimal) error {
	m, found := r.methods[id]
	if !found {
		return domain.ErrPaymentMethodNotFound
	}
	m.Balance = m.Balance.Add(delta)
	r.methods[id] = m
	return nil
}

func (r *fakePaymentRepo) IsOwnedBy(_ context.Context, paymentMethodID, accountID uuid.UUID) (bool, error) {
	m, found := r.methods[paymentMethodID]
	return found && m.AccountID == accountID, nil
}

func seedWallet(repo *fakePaymentRepo, balance int64) domain.PaymentMethod {
	accountID := uuid.New()
	repo.accounts[accountID] = true
	method := domain.PaymentMethod{
		ID:          uuid.New(),
		AccountID:   accountID,
		Kind:        domain.PaymentMethodGeneric,
		DisplayName: "Wallet",
		Balance:     decimal.NewFromInt(balance),
	}
	repo.methods[method.ID] = method
	repo.order = append(repo.order, method.ID)
	return method
}

func TestPerformTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the amount between the methods", func(t *testing.T) {
		repo := newFakePaymentRepo()
		from := seedWallet(repo, 100)
		to := seedWallet(repo, 5)
		svc := NewPaymentService(repo)

		require.NoError(t, svc.PerformTransaction(ctx, from.ID, to.ID, decimal.NewFromInt(30)))
		assert.True(t, repo.methods[from.ID].Balance.Equal(decimal.NewFromInt(70)))
		assert.True(t, repo.methods[to.ID].Balance.Equal(decimal.NewFromInt(35)))
	})

	t.Run("the source may go negative", func(t *testing.T) {
		repo := newFakePaymentRepo()
		from := seedWallet(repo, 10)
		to := seedWallet(repo, 0)
		svc := NewPaymentService(repo)

		require.NoError(t, svc.PerformTransaction(ctx, from.ID, to.ID, decimal.NewFromInt(25)))
		assert.True(t, repo.methods[from.ID].Balance.Equal(decimal.NewFromInt(-15)))
	})

	t.Run("invalid input", func(t *testing.T) {
		repo := newFakePaymentRepo()
		from := seedWallet(repo, 10)
		to := seedWallet(repo, 0)
		svc := NewPaymentService(repo)

		err := svc.PerformTransaction(ctx, from.ID, to.ID, decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)

		err = svc.PerformTransaction(ctx, from.ID, from.ID, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)

		err = svc.PerformTransaction(ctx, from.ID, uuid.New(), decimal.NewFromInt(1))
		assert.ErrorIs(t, err, domain.ErrPaymentMethodNotFound)
		assert.True(t, repo.methods[from.ID].Balance.Equal(decimal.NewFromInt(10)))
	})
}

func TestAddCard(t *testing.T) {
	ctx := context.Background()

	const validNumber = "4539578763621486" // passes the Luhn check

	t.Run("stores the card with a zero balance", func(t *testing.T) {
		repo := newFakePaymentRepo()
		accountID := uuid.New()
		repo.accounts[accountID] = true
		svc := NewPaymentService(repo)

		method, err := svc.AddCard(ctx, accountID, "My Visa", validNumber, "12/27", "123", "Ana Gomez")
		require.NoError(t, err)

		assert.Equal(t, domain.PaymentMethodCard, method.Kind)
		assert.True(t, method.Balance.IsZero())
		require.NotNil(t, method.Card)
		assert.Equal(t, validNumber, method.Card.Number)
		assert.Empty(t, method.Card.CVV)

		stored := repo.methods[method.ID]
		require.NotNil(t, stored.Card)
		assert.Equal(t, "123", stored.Card.CVV)
	})

	t.Run("rejects malformed card details", func(t *testing.T) {
		repo := newFakePaymentRepo()
		accountID := uuid.New()
		repo.accounts[accountID] = true
		svc := NewPaymentService(repo)

		cases := []struct {
			name                       string
			number, expiry, cvv, owner string
		}{
			{"short number", "1234", "12/27", "123", "Ana"},
			{"luhn failure", "4539578763621487", "12/27", "123", "Ana"},
			{"bad expiry month", validNumber, "13/27", "123", "Ana"},
			{"bad cvv", validNumber, "12/27", "12", "Ana"},
			{"empty name", validNumber, "12/27", "123", ""},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.AddCard(ctx, accountID, "Card", tc.number, tc.expiry, tc.cvv, tc.owner)
				assert.ErrorIs(t, err, domain.ErrInvalidCard)
			})
		}
		assert.Empty(t, repo.methods)
	})

	t.Run("rejects unknown accounts", func(t *testing.T) {
		repo := newFakePaymentRepo()
		svc := NewPaymentService(repo)

		_, err := svc.AddCard(ctx, uuid.New(), "Card", validNumber, "12/27", "123", "Ana")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestGetPaymentMethods_HidesCardSecrets(t *testing.T) {
	ctx := context.Background()

	repo := newFakePaymentRepo()
	accountID := uuid.New()
	repo.accounts[accountID] = true
	svc := NewPaymentService(repo)

	_, err := svc.AddCard(ctx, accountID, "My Visa", "4539578763621486", "12/27", "123", "Ana Gomez")
	require.NoError(t, err)

	methods, err := svc.GetPaymentMethods(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, methods, 1)
	require.NotNil(t, methods[0].Card)
	assert.Equal(t, "4539578763621486", methods[0].Card.Number)
	assert.Empty(t, methods[0].Card.Expiry)
	assert.Empty(t, methods[0].Card.CVV)
	assert.Empty(t, methods[0].Card.Name)
}
