package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow-backend/internal/clock"
	"github.com/eventflow/eventflow-backend/internal/domain"
)

// fakeTicketRepo keeps everything in maps and emulates transactional
// rollback by snapshotting state on WithTx/WithSavepoint entry and
// restoring it when the closure errors.
type fakeTicketRepo struct {
	options    map[uuid.UUID]domain.TicketOption
	tickets    map[uuid.UUID]domain.Ticket
	sold       map[uuid.UUID]int
	attendees  map[uuid.UUID]bool
	organizers map[uuid.UUID]uuid.UUID // event id -> organizer account id

	eventsInMonth int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		options:    make(map[uuid.UUID]domain.TicketOption),
		tickets:    make(map[uuid.UUID]domain.Ticket),
		sold:       make(map[uuid.UUID]int),
		attendees:  make(map[uuid.UUID]bool),
		organizers: make(map[uuid.UUID]uuid.UUID),
	}
}

// joined mimics the organizer join the real store performs on reads.
func (r *fakeTicketRepo) joined(t domain.Ticket) domain.Ticket {
	if org, found := r.organizers[t.EventID]; found {
		t.OrganizerID = org
	}
	return t
}

type ticketRepoState struct {
	tickets map[uuid.UUID]domain.Ticket
	sold    map[uuid.UUID]int
}

func (r *fakeTicketRepo) snapshot() ticketRepoState {
	state := ticketRepoState{
		tickets: make(map[uuid.UUID]domain.Ticket, len(r.tickets)),
		sold:    make(map[uuid.UUID]int, len(r.sold)),
	}
	for id, t := range r.tickets {
		state.tickets[id] = t
	}
	for id, n := range r.sold {
		state.sold[id] = n
	}
	return state
}

func (r *fakeTicketRepo) restore(state ticketRepoState) {
	r.tickets = state.tickets
	r.sold = state.sold
}

func (r *fakeTicketRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	state := r.snapshot()
	if err := fn(ctx); err != nil {
		r.restore(state)
		return err
	}
	return nil
}

func (r *fakeTicketRepo) WithSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.WithTx(ctx, fn)
}

func (r *fakeTicketRepo) GetTicketOptions(_ context.Context, ids []uuid.UUID) ([]domain.TicketOption, error) {
	out := make([]domain.TicketOption, 0, len(ids))
	for _, id := range ids {
		if o, found := r.options[id]; found {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) GetTicketOptionsForUpdate(ctx context.Context, ids []uuid.UUID) ([]domain.TicketOption, error) {
	return r.GetTicketOptions(ctx, ids)
}

func (r *fakeTicketRepo) CountTicketsByOption(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(ids))
	for _, t := range r.tickets {
		counts[t.Option.ID]++
	}
	return counts, nil
}

func (r *fakeTicketRepo) AttendeeExists(_ context.Context, accountID uuid.UUID) (bool, error) {
	return r.attendees[accountID], nil
}

func (r *fakeTicketRepo) InsertTicket(_ context.Context, t domain.Ticket) error {
	r.tickets[t.ID] = t
	return nil
}

func (r *fakeTicketRepo) AddEventSold(_ context.Context, eventID uuid.UUID, delta int) error {
	if _, found := r.sold[eventID]; !found {
		return domain.ErrEventNotFound
	}
	next := r.sold[eventID] + delta
	if next < 0 {
		next = 0
	}
	r.sold[eventID] = next
	return nil
}

func (r *fakeTicketRepo) GetTicket(_ context.Context, ticketID uuid.UUID) (*domain.Ticket, error) {
	if t, found := r.tickets[ticketID]; found {
		t = r.joined(t)
		return &t, nil
	}
	return nil, nil
}

func (r *fakeTicketRepo) GetTicketForUpdate(_ context.Context, ticketID uuid.UUID) (domain.Ticket, error) {
	if t, found := r.tickets[ticketID]; found {
		return r.joined(t), nil
	}
	return domain.Ticket{}, domain.ErrTicketNotFound
}

func (r *fakeTicketRepo) DeleteTicketRow(_ context.Context, ticketID uuid.UUID) error {
	if _, found := r.tickets[ticketID]; !found {
		return domain.ErrTicketNotFound
	}
	delete(r.tickets, ticketID)
	return nil
}

func (r *fakeTicketRepo) ListTicketsByAttendee(_ context.Context, accountID uuid.UUID) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range r.tickets {
		if t.AttendeeID == accountID {
			out = append(out, r.joined(t))
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ListTicketsByEvent(_ context.Context, eventID uuid.UUID) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range r.tickets {
		if t.EventID == eventID {
			out = append(out, r.joined(t))
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ListAttendance(_ context.Context, organizerID uuid.UUID, eventID *uuid.UUID) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range r.tickets {
		t = r.joined(t)
		if t.OrganizerID != organizerID {
			continue
		}
		if eventID != nil && t.EventID != *eventID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTicketRepo) UpdateHolder(_ context.Context, ticketID uuid.UUID, fullName, email, phone string) error {
	t, found := r.tickets[ticketID]
	if !found {
		return domain.ErrTicketNotFound
	}
	t.HolderFullName = fullName
	t.HolderEmail = email
	t.HolderPhoneNumber = phone
	t.IsReviewed = false
	r.tickets[ticketID] = t
	return nil
}

func (r *fakeTicketRepo) SetReviewed(_ context.Context, ticketID uuid.UUID) error {
	t, found := r.tickets[ticketID]
	if !found {
		return domain.ErrTicketNotFound
	}
	t.IsReviewed = true
	r.tickets[ticketID] = t
	return nil
}

func (r *fakeTicketRepo) IsTicketOwner(_ context.Context, ticketID, accountID uuid.UUID) (bool, error) {
	t, found := r.tickets[ticketID]
	return found && t.AttendeeID == accountID, nil
}

func (r *fakeTicketRepo) IsTicketOrganizer(_ context.Context, ticketID, accountID uuid.UUID) (bool, error) {
	t, found := r.tickets[ticketID]
	return found && r.joined(t).OrganizerID == accountID, nil
}

func (r *fakeTicketRepo) CountEventsOverlapping(_ context.Context, _ uuid.UUID, _, _ time.Time) (int, error) {
	return r.eventsInMonth, nil
}

func (r *fakeTicketRepo) TicketAggregates(_ context.Context, _ uuid.UUID, from, to time.Time) (int, decimal.Decimal, int, error) {
	count := 0
	reviewed := 0
	sum := decimal.Zero
	for _, t := range r.tickets {
		if t.PurchasedAt.Before(from) || !t.PurchasedAt.Before(to) {
			continue
		}
		count++
		sum = sum.Add(t.Price)
		if t.IsReviewed {
			reviewed++
		}
	}
	return count, sum, reviewed, nil
}

func (r *fakeTicketRepo) DailySales(_ context.Context, _ uuid.UUID, from, to time.Time) (map[int]decimal.Decimal, error) {
	daily := make(map[int]decimal.Decimal)
	for _, t := range r.tickets {
		if t.PurchasedAt.Before(from) || !t.PurchasedAt.Before(to) {
			continue
		}
		day := t.PurchasedAt.UTC().Day()
		daily[day] = daily[day].Add(t.Price)
	}
	return daily, nil
}

func seedOption(repo *fakeTicketRepo, eventID uuid.UUID, capacity int) domain.TicketOption {
	option := domain.TicketOption{
		ID:              uuid.New(),
		EventID:         eventID,
		Name:            "Standard",
		AdditionalPrice: decimal.Zero,
		AmountAvailable: capacity,
	}
	repo.options[option.ID] = option
	if _, found := repo.sold[eventID]; !found {
		repo.sold[eventID] = 0
	}
	return option
}

func seedAttendee(repo *fakeTicketRepo) uuid.UUID {
	id := uuid.New()
	repo.attendees[id] = true
	return id
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
}

func newTicketService(repo *fakeTicketRepo) *TicketService {
	return NewTicketService(repo, clock.NewFixed(fixedNow()))
}

func TestIsTicketOptionAvailable(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()

	t.Run("empty basket", func(t *testing.T) {
		svc := newTicketService(newFakeTicketRepo())
		available, err := svc.IsTicketOptionAvailable(ctx, nil)
		require.NoError(t, err)
		assert.False(t, available)
	})

	t.Run("unknown option", func(t *testing.T) {
		repo := newFakeTicketRepo()
		seedOption(repo, eventID, 10)
		svc := newTicketService(repo)

		available, err := svc.IsTicketOptionAvailable(ctx, []uuid.UUID{uuid.New()})
		require.NoError(t, err)
		assert.False(t, available)
	})

	t.Run("options from different events", func(t *testing.T) {
		repo := newFakeTicketRepo()
		a := seedOption(repo, eventID, 10)
		b := seedOption(repo, uuid.New(), 10)
		svc := newTicketService(repo)

		available, err := svc.IsTicketOptionAvailable(ctx, []uuid.UUID{a.ID, b.ID})
		require.NoError(t, err)
		assert.False(t, available)
	})

	t.Run("capacity exhausted", func(t *testing.T) {
		repo := newFakeTicketRepo()
		option := seedOption(repo, eventID, 1)
		attendee := seedAttendee(repo)
		repo.tickets[uuid.New()] = domain.Ticket{
			ID: uuid.New(), AttendeeID: attendee, Option: option, EventID: eventID,
		}
		svc := newTicketService(repo)

		available, err := svc.IsTicketOptionAvailable(ctx, []uuid.UUID{option.ID})
		require.NoError(t, err)
		assert.False(t, available)
	})

	t.Run("duplicates in the basket count against capacity", func(t *testing.T) {
		repo := newFakeTicketRepo()
		option := seedOption(repo, eventID, 2)
		svc := newTicketService(repo)

		available, err := svc.IsTicketOptionAvailable(ctx, []uuid.UUID{option.ID, option.ID, option.ID})
		require.NoError(t, err)
		assert.False(t, available)

		available, err = svc.IsTicketOptionAvailable(ctx, []uuid.UUID{option.ID, option.ID})
		require.NoError(t, err)
		assert.True(t, available)
	})
}

func TestCreateTickets(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()

	t.Run("inserts tickets and bumps the sold counter", func(t *testing.T) {
		repo := newFakeTicketRepo()
		option := seedOption(repo, eventID, 5)
		attendee := seedAttendee(repo)
		svc := newTicketService(repo)

		drafts := []domain.TicketDraft{
			{OptionID: option.ID, AttendeeID: attendee, Price: decimal.NewFromInt(10), HolderFullName: "Ana"},
			{OptionID: option.ID, AttendeeID: attendee, Price: decimal.NewFromInt(10), HolderFullName: "Ben"},
		}
		ok, err := svc.CreateTickets(ctx, drafts, nil)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Len(t, repo.tickets, 2)
		assert.Equal(t, 2, repo.sold[eventID])
		for _, ticket := range repo.tickets {
			assert.Equal(t, fixedNow(), ticket.PurchasedAt)
			assert.Equal(t, eventID, ticket.EventID)
		}
	})

	t.Run("rejects when capacity is gone", func(t *testing.T) {
		repo := newFakeTicketRepo()
		option := seedOption(repo, eventID, 1)
		attendee := seedAttendee(repo)
		svc := newTicketService(repo)

		drafts := []domain.TicketDraft{
			{OptionID: option.ID, AttendeeID: attendee},
			{OptionID: option.ID, AttendeeID: attendee},
		}
		ok, err := svc.CreateTickets(ctx, drafts, nil)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, repo.tickets)
		assert.Equal(t, 0, repo.sold[eventID])
	})

	t.Run("rejects unknown attendee", func(t *testing.T) {
		repo := newFakeTicketRepo()
		option := seedOption(repo, eventID, 5)
		svc := newTicketService(repo)

		ok, err := svc.CreateTickets(ctx, []domain.TicketDraft{
			{OptionID: option.ID, AttendeeID: uuid.New()},
		}, nil)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, repo.tickets)
	})

	t.Run("callback rejection rolls the whole batch back", func(t *testing.T) {
		repo := newFakeTicketRepo()
		option := seedOption(repo, eventID, 5)
		attendee := seedAttendee(repo)
		svc := newTicketService(repo)

		var seen int
		ok, err := svc.CreateTickets(ctx, []domain.TicketDraft{
			{OptionID: option.ID, AttendeeID: attendee},
			{OptionID: option.ID, AttendeeID: attendee},
		}, func(_ context.Context, created []domain.Ticket) bool {
			seen = len(created)
			return false
		})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 2, seen)
		assert.Empty(t, repo.tickets)
		assert.Equal(t, 0, repo.sold[eventID])
	})
}

func TestDeleteTicket(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()

	setup := func(t *testing.T) (*fakeTicketRepo, *TicketService, uuid.UUID) {
		t.Helper()
		repo := newFakeTicketRepo()
		option := seedOption(repo, eventID, 5)
		attendee := seedAttendee(repo)
		svc := newTicketService(repo)

		ok, err := svc.CreateTickets(ctx, []domain.TicketDraft{
			{OptionID: option.ID, AttendeeID: attendee, Price: decimal.NewFromInt(25)},
		}, nil)
		require.NoError(t, err)
		require.True(t, ok)

		var ticketID uuid.UUID
		for id := range repo.tickets {
			ticketID = id
		}
		return repo, svc, ticketID
	}

	t.Run("deletes and decrements the sold counter", func(t *testing.T) {
		repo, svc, ticketID := setup(t)

		ok, err := svc.DeleteTicket(ctx, ticketID, nil)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, repo.tickets)
		assert.Equal(t, 0, repo.sold[eventID])
	})

	t.Run("missing ticket is a hard error", func(t *testing.T) {
		_, svc, _ := setup(t)

		_, err := svc.DeleteTicket(ctx, uuid.New(), nil)
		assert.ErrorIs(t, err, domain.ErrTicketNotFound)
	})

	t.Run("callback rejection keeps the ticket", func(t *testing.T) {
		repo, svc, ticketID := setup(t)

		ok, err := svc.DeleteTicket(ctx, ticketID, func(context.Context, []domain.Ticket) bool {
			return false
		})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Len(t, repo.tickets, 1)
		assert.Equal(t, 1, repo.sold[eventID])
	})
}

func TestDeleteTickets_PartialProgress(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()

	repo := newFakeTicketRepo()
	option := seedOption(repo, eventID, 5)
	attendee := seedAttendee(repo)
	svc := newTicketService(repo)

	ok, err := svc.CreateTickets(ctx, []domain.TicketDraft{
		{OptionID: option.ID, AttendeeID: attendee},
		{OptionID: option.ID, AttendeeID: attendee},
		{OptionID: option.ID, AttendeeID: attendee},
	}, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, repo.sold[eventID])

	calls := 0
	ok, err = svc.DeleteTickets(ctx, eventID, func(context.Context, []domain.Ticket) bool {
		calls++
		return calls < 3 // reject the third ticket
	})
	require.NoError(t, err)
	assert.False(t, ok)

	// Two deletions stay committed; the rejected one rolls back alone.
	assert.Len(t, repo.tickets, 1)
	assert.Equal(t, 1, repo.sold[eventID])
}

func TestReviewTicket(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()

	repo := newFakeTicketRepo()
	option := seedOption(repo, eventID, 5)
	attendee := seedAttendee(repo)
	svc := newTicketService(repo)

	ticket := domain.Ticket{
		ID:             uuid.New(),
		AttendeeID:     attendee,
		Option:         option,
		EventID:        eventID,
		HolderFullName: "Ana",
		HolderEmail:    "ana@example.com",
	}
	repo.tickets[ticket.ID] = ticket

	t.Run("marks reviewed", func(t *testing.T) {
		require.NoError(t, svc.ReviewTicket(ctx, ticket.ID))
		assert.True(t, repo.tickets[ticket.ID].IsReviewed)
	})

	t.Run("stale snapshot is silently skipped", func(t *testing.T) {
		stored := repo.tickets[ticket.ID]
		stored.IsReviewed = false
		repo.tickets[ticket.ID] = stored

		stale := stored
		stale.HolderFullName = "Someone Else"
		require.NoError(t, svc.ReviewTicketSnapshot(ctx, stale))
		assert.False(t, repo.tickets[ticket.ID].IsReviewed)
	})

	t.Run("matching snapshot lands", func(t *testing.T) {
		require.NoError(t, svc.ReviewTicketSnapshot(ctx, repo.tickets[ticket.ID]))
		assert.True(t, repo.tickets[ticket.ID].IsReviewed)
	})

	t.Run("unknown ticket is a hard error", func(t *testing.T) {
		assert.ErrorIs(t, svc.ReviewTicket(ctx, uuid.New()), domain.ErrTicketNotFound)
	})
}

func TestUpdateTicket(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()

	repo := newFakeTicketRepo()
	option := seedOption(repo, eventID, 5)
	attendee := seedAttendee(repo)
	svc := newTicketService(repo)

	ticket := domain.Ticket{
		ID:             uuid.New(),
		AttendeeID:     attendee,
		Option:         option,
		EventID:        eventID,
		HolderFullName: "Ana",
		IsReviewed:     true,
	}
	repo.tickets[ticket.ID] = ticket

	t.Run("zero id", func(t *testing.T) {
		assert.ErrorIs(t, svc.UpdateTicket(ctx, domain.Ticket{}), domain.ErrInvalidID)
	})

	t.Run("unchanged holder keeps the review", func(t *testing.T) {
		require.NoError(t, svc.UpdateTicket(ctx, ticket))
		assert.True(t, repo.tickets[ticket.ID].IsReviewed)
	})

	t.Run("holder edit resets the review", func(t *testing.T) {
		edited := ticket
		edited.HolderFullName = "Anna"
		require.NoError(t, svc.UpdateTicket(ctx, edited))

		stored := repo.tickets[ticket.ID]
		assert.Equal(t, "Anna", stored.HolderFullName)
		assert.False(t, stored.IsReviewed)
	})
}

func TestGetStatistics(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()
	organizerID := uuid.New()

	repo := newFakeTicketRepo()
	repo.eventsInMonth = 2
	option := seedOption(repo, eventID, 10)
	attendee := seedAttendee(repo)
	svc := newTicketService(repo)

	sale := func(day int, price int64, reviewed bool) {
		id := uuid.New()
		repo.tickets[id] = domain.Ticket{
			ID:          id,
			AttendeeID:  attendee,
			Option:      option,
			EventID:     eventID,
			OrganizerID: organizerID,
			Price:       decimal.NewFromInt(price),
			PurchasedAt: time.Date(2026, 8, day, 9, 0, 0, 0, time.UTC),
			IsReviewed:  reviewed,
		}
	}
	sale(2, 10, true)
	sale(2, 15, false)
	sale(5, 30, true)

	stats, err := svc.GetStatistics(ctx, organizerID, fixedNow())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalEvents)
	assert.Equal(t, 3, stats.TotalTickets)
	assert.Equal(t, 2, stats.TotalReviewed)
	assert.True(t, stats.TotalSales.Equal(decimal.NewFromInt(55)), "got %s", stats.TotalSales)

	// Runs up to the last day with a sale, gaps zero-filled.
	require.Len(t, stats.DailySales, 5)
	assert.True(t, stats.DailySales[1].Equal(decimal.NewFromInt(25)))
	assert.True(t, stats.DailySales[2].IsZero())
	assert.True(t, stats.DailySales[4].Equal(decimal.NewFromInt(30)))
}
