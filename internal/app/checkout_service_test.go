package app

import (
	"context"
	"errors"
	"log"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow-backend/internal/clock"
	"github.com/eventflow/eventflow-backend/internal/domain"
)

type fakeAccountRepo struct {
	accounts   map[uuid.UUID]domain.Account
	attendees  map[uuid.UUID]bool
	organizers map[uuid.UUID]bool
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		accounts:   make(map[uuid.UUID]domain.Account),
		attendees:  make(map[uuid.UUID]bool),
		organizers: make(map[uuid.UUID]bool),
	}
}

func (r *fakeAccountRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *fakeAccountRepo) GetAccount(_ context.Context, accountID uuid.UUID) (domain.Account, error) {
	if a, found := r.accounts[accountID]; found {
		return a, nil
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (r *fakeAccountRepo) AttendeeExists(_ context.Context, accountID uuid.UUID) (bool, error) {
	return r.attendees[accountID], nil
}

func (r *fakeAccountRepo) OrganizerExists(_ context.Context, accountID uuid.UUID) (bool, error) {
	return r.organizers[accountID], nil
}

func (r *fakeAccountRepo) InsertAttendee(_ context.Context, accountID uuid.UUID) error {
	r.attendees[accountID] = true
	return nil
}

func (r *fakeAccountRepo) InsertOrganizer(_ context.Context, accountID uuid.UUID) error {
	r.organizers[accountID] = true
	return nil
}

type fakeNotificationRepo struct {
	notifications []domain.Notification
}

func (r *fakeNotificationRepo) ListNotifications(_ context.Context, accountID uuid.UUID) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range r.notifications {
		if n.AccountID == accountID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) InsertNotification(_ context.Context, n domain.Notification) error {
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, notificationID, accountID uuid.UUID) error {
	for i, n := range r.notifications {
		if n.ID == notificationID && n.AccountID == accountID {
			r.notifications[i].IsRead = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, accountID uuid.UUID) error {
	for i, n := range r.notifications {
		if n.AccountID == accountID {
			r.notifications[i].IsRead = true
		}
	}
	return nil
}

// failingPaymentRepo makes every balance movement fail once armed.
type failingPaymentRepo struct {
	*fakePaymentRepo
	failTransfers bool
}

func (r *failingPaymentRepo) AddBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	if r.failTransfers {
		return errors.New("ledger unavailable")
	}
	return r.fakePaymentRepo.AddBalance(ctx, id, delta)
}

type checkoutHarness struct {
	tickets       *fakeTicketRepo
	events        *fakeEventRepo
	payments      *failingPaymentRepo
	accounts      *fakeAccountRepo
	notifications *fakeNotificationRepo

	svc *CheckoutService

	attendeeID       uuid.UUID
	organizerID      uuid.UUID
	eventID          uuid.UUID
	option           domain.TicketOption
	attendeeMethodID uuid.UUID
	organizerMethod  uuid.UUID
}

// newCheckoutHarness builds the full service graph over fakes: one event
// with a single option priced at 50, an attendee holding 200 and an
// organizer wallet at 0.
func newCheckoutHarness(t *testing.T, capacity int) *checkoutHarness {
	t.Helper()

	h := &checkoutHarness{
		tickets:       newFakeTicketRepo(),
		events:        newFakeEventRepo(),
		payments:      &failingPaymentRepo{fakePaymentRepo: newFakePaymentRepo()},
		accounts:      newFakeAccountRepo(),
		notifications: &fakeNotificationRepo{},
	}

	h.attendeeID = uuid.New()
	h.organizerID = uuid.New()
	h.accounts.accounts[h.attendeeID] = domain.Account{ID: h.attendeeID, Email: "ana@example.com"}
	h.accounts.accounts[h.organizerID] = domain.Account{ID: h.organizerID, Email: "org@example.com"}
	h.accounts.attendees[h.attendeeID] = true
	h.accounts.organizers[h.organizerID] = true
	h.tickets.attendees[h.attendeeID] = true

	h.eventID = uuid.New()
	h.option = seedOption(h.tickets, h.eventID, capacity)
	h.tickets.organizers[h.eventID] = h.organizerID
	h.events.events[h.eventID] = domain.Event{
		ID:        h.eventID,
		Organizer: domain.Organizer{ID: h.organizerID, Name: "Org"},
		Name:      "Go Conference",
		Price:     decimal.NewFromInt(50),
	}
	h.events.options[h.option.ID] = h.option

	attendeeMethod := domain.PaymentMethod{
		ID: uuid.New(), AccountID: h.attendeeID, Kind: domain.PaymentMethodGeneric,
		DisplayName: "Wallet", Balance: decimal.NewFromInt(200),
	}
	organizerMethod := domain.PaymentMethod{
		ID: uuid.New(), AccountID: h.organizerID, Kind: domain.PaymentMethodGeneric,
		DisplayName: "Wallet", Balance: decimal.Zero,
	}
	require.NoError(t, h.payments.InsertPaymentMethod(context.Background(), attendeeMethod))
	require.NoError(t, h.payments.InsertPaymentMethod(context.Background(), organizerMethod))
	h.attendeeMethodID = attendeeMethod.ID
	h.organizerMethod = organizerMethod.ID

	logger := log.New(testWriter{t}, "", 0)
	clk := clock.NewFixed(fixedNow())
	notificationSvc := NewNotificationService(h.notifications)
	h.svc = NewCheckoutService(
		NewTicketService(h.tickets, clk),
		NewEventService(h.events, clk),
		NewPaymentService(h.payments),
		NewAccountService(h.accounts),
		notificationSvc,
		&LogEmailSender{Logger: logger},
		clk,
		logger,
	)
	return h
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func (h *checkoutHarness) balance(id uuid.UUID) decimal.Decimal {
	return h.payments.methods[id].Balance
}

func TestCheckoutPurchase(t *testing.T) {
	ctx := context.Background()

	t.Run("captures payment and notifies both sides", func(t *testing.T) {
		h := newCheckoutHarness(t, 10)

		ok, err := h.svc.Purchase(ctx, PurchaseInput{
			AttendeeID:      h.attendeeID,
			OptionIDs:       []uuid.UUID{h.option.ID, h.option.ID},
			PaymentMethodID: h.attendeeMethodID,
			HolderFullName:  "Ana Gomez",
			HolderEmail:     "ana@example.com",
		})
		require.NoError(t, err)
		assert.True(t, ok)

		assert.Len(t, h.tickets.tickets, 2)
		assert.Equal(t, 2, h.tickets.sold[h.eventID])
		assert.True(t, h.balance(h.attendeeMethodID).Equal(decimal.NewFromInt(100)))
		assert.True(t, h.balance(h.organizerMethod).Equal(decimal.NewFromInt(100)))
		assert.Len(t, h.notifications.notifications, 2)
	})

	t.Run("failed capture unwinds the tickets", func(t *testing.T) {
		h := newCheckoutHarness(t, 10)
		h.payments.failTransfers = true

		ok, err := h.svc.Purchase(ctx, PurchaseInput{
			AttendeeID:      h.attendeeID,
			OptionIDs:       []uuid.UUID{h.option.ID},
			PaymentMethodID: h.attendeeMethodID,
		})
		require.NoError(t, err)
		assert.False(t, ok)

		assert.Empty(t, h.tickets.tickets)
		assert.Equal(t, 0, h.tickets.sold[h.eventID])
		assert.True(t, h.balance(h.attendeeMethodID).Equal(decimal.NewFromInt(200)))
		assert.Empty(t, h.notifications.notifications)
	})

	t.Run("free events skip the ledger", func(t *testing.T) {
		h := newCheckoutHarness(t, 10)
		event := h.events.events[h.eventID]
		event.Price = decimal.Zero
		h.events.events[h.eventID] = event

		ok, err := h.svc.Purchase(ctx, PurchaseInput{
			AttendeeID: h.attendeeID,
			OptionIDs:  []uuid.UUID{h.option.ID},
			// No payment method at all.
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Len(t, h.tickets.tickets, 1)
		assert.True(t, h.balance(h.attendeeMethodID).Equal(decimal.NewFromInt(200)))
	})

	t.Run("preconditions", func(t *testing.T) {
		h := newCheckoutHarness(t, 1)

		// Not an attendee.
		ok, err := h.svc.Purchase(ctx, PurchaseInput{
			AttendeeID: uuid.New(), OptionIDs: []uuid.UUID{h.option.ID},
			PaymentMethodID: h.attendeeMethodID,
		})
		require.NoError(t, err)
		assert.False(t, ok)

		// Someone else's payment method.
		ok, err = h.svc.Purchase(ctx, PurchaseInput{
			AttendeeID: h.attendeeID, OptionIDs: []uuid.UUID{h.option.ID},
			PaymentMethodID: h.organizerMethod,
		})
		require.NoError(t, err)
		assert.False(t, ok)

		// More tickets than capacity.
		ok, err = h.svc.Purchase(ctx, PurchaseInput{
			AttendeeID: h.attendeeID, OptionIDs: []uuid.UUID{h.option.ID, h.option.ID},
			PaymentMethodID: h.attendeeMethodID,
		})
		require.NoError(t, err)
		assert.False(t, ok)

		assert.Empty(t, h.tickets.tickets)
	})
}

func TestCheckoutCancel(t *testing.T) {
	ctx := context.Background()

	purchase := func(t *testing.T, h *checkoutHarness) uuid.UUID {
		t.Helper()
		ok, err := h.svc.Purchase(ctx, PurchaseInput{
			AttendeeID:      h.attendeeID,
			OptionIDs:       []uuid.UUID{h.option.ID},
			PaymentMethodID: h.attendeeMethodID,
		})
		require.NoError(t, err)
		require.True(t, ok)

		for id := range h.tickets.tickets {
			return id
		}
		t.Fatal("no ticket created")
		return uuid.Nil
	}

	t.Run("owner cancels with a refund", func(t *testing.T) {
		h := newCheckoutHarness(t, 10)
		ticketID := purchase(t, h)

		ok, err := h.svc.Cancel(ctx, h.attendeeID, ticketID)
		require.NoError(t, err)
		assert.True(t, ok)

		assert.Empty(t, h.tickets.tickets)
		assert.Equal(t, 0, h.tickets.sold[h.eventID])
		assert.True(t, h.balance(h.attendeeMethodID).Equal(decimal.NewFromInt(200)))
		assert.True(t, h.balance(h.organizerMethod).IsZero())
	})

	t.Run("strangers cannot cancel", func(t *testing.T) {
		h := newCheckoutHarness(t, 10)
		ticketID := purchase(t, h)

		ok, err := h.svc.Cancel(ctx, uuid.New(), ticketID)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Len(t, h.tickets.tickets, 1)
	})

	t.Run("failed refund keeps the ticket", func(t *testing.T) {
		h := newCheckoutHarness(t, 10)
		ticketID := purchase(t, h)
		h.payments.failTransfers = true

		ok, err := h.svc.Cancel(ctx, h.attendeeID, ticketID)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Len(t, h.tickets.tickets, 1)
		assert.Equal(t, 1, h.tickets.sold[h.eventID])
	})
}

func TestCheckoutCancelEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds every ticket and deletes the event", func(t *testing.T) {
		h := newCheckoutHarness(t, 10)
		ok, err := h.svc.Purchase(ctx, PurchaseInput{
			AttendeeID:      h.attendeeID,
			OptionIDs:       []uuid.UUID{h.option.ID, h.option.ID},
			PaymentMethodID: h.attendeeMethodID,
		})
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = h.svc.CancelEvent(ctx, h.organizerID, h.eventID)
		require.NoError(t, err)
		assert.True(t, ok)

		assert.Empty(t, h.tickets.tickets)
		assert.NotContains(t, h.events.events, h.eventID)
		assert.True(t, h.balance(h.attendeeMethodID).Equal(decimal.NewFromInt(200)))
		assert.True(t, h.balance(h.organizerMethod).IsZero())
	})

	t.Run("only the organizer may cancel", func(t *testing.T) {
		h := newCheckoutHarness(t, 10)

		ok, err := h.svc.CancelEvent(ctx, h.attendeeID, h.eventID)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Contains(t, h.events.events, h.eventID)
	})
}
