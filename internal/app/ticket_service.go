package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eventflow/eventflow-backend/internal/clock"
	"github.com/eventflow/eventflow-backend/internal/domain"
)

// errCallbackRejected aborts the enclosing transaction (or savepoint) when a
// caller-supplied callback vetoes the mutation. It never escapes the
// service: callers see a false result, not an error.
var errCallbackRejected = errors.New("callback rejected")

// TicketCallback lets a caller chain side effects (payment capture, refunds)
// into the ticket transaction. Returning false rolls the mutation back.
type TicketCallback func(ctx context.Context, tickets []domain.Ticket) bool

type TicketRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	WithSavepoint(ctx context.Context, fn func(ctx context.Context) error) error

	GetTicketOptions(ctx context.Context, ids []uuid.UUID) ([]domain.TicketOption, error)
	GetTicketOptionsForUpdate(ctx context.Context, ids []uuid.UUID) ([]domain.TicketOption, error)
	CountTicketsByOption(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error)
	AttendeeExists(ctx context.Context, accountID uuid.UUID) (bool, error)

	InsertTicket(ctx context.Context, t domain.Ticket) error
	AddEventSold(ctx context.Context, eventID uuid.UUID, delta int) error
	GetTicket(ctx context.Context, ticketID uuid.UUID) (*domain.Ticket, error)
	GetTicketForUpdate(ctx context.Context, ticketID uuid.UUID) (domain.Ticket, error)
	DeleteTicketRow(ctx context.Context, ticketID uuid.UUID) error
	ListTicketsByAttendee(ctx context.Context, accountID uuid.UUID) ([]domain.Ticket, error)
	ListTicketsByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Ticket, error)
	ListAttendance(ctx context.Context, organizerID uuid.UUID, eventID *uuid.UUID) ([]domain.Ticket, error)
	UpdateHolder(ctx context.Context, ticketID uuid.UUID, fullName, email, phone string) error
	SetReviewed(ctx context.Context, ticketID uuid.UUID) error
	IsTicketOwner(ctx context.Context, ticketID, accountID uuid.UUID) (bool, error)
	IsTicketOrganizer(ctx context.Context, ticketID, accountID uuid.UUID) (bool, error)

	CountEventsOverlapping(ctx context.Context, organizerID uuid.UUID, from, to time.Time) (int, error)
	TicketAggregates(ctx context.Context, organizerID uuid.UUID, from, to time.Time) (int, decimal.Decimal, int, error)
	DailySales(ctx context.Context, organizerID uuid.UUID, from, to time.Time) (map[int]decimal.Decimal, error)
}

// TicketService owns the ticket lifecycle and the availability check. All
// counter updates happen in the same transaction as the row mutation that
// motivates them.
type TicketService struct {
	repo  TicketRepository
	clock clock.Clock
}

func NewTicketService(repo TicketRepository, clk clock.Clock) *TicketService {
	return &TicketService{
		repo:  repo,
		clock: clk,
	}
}

// IsTicketOptionAvailable reports whether the requested multiset of options
// can still be fulfilled. False for an empty basket, an unknown option, a
// basket spanning multiple events, or insufficient remaining capacity.
//
// This read is advisory: the authoritative check reruns inside CreateTickets
// under row locks, so a positive answer here can still lose the race.
func (s *TicketService) IsTicketOptionAvailable(ctx context.Context, optionIDs []uuid.UUID) (bool, error) {
	if len(optionIDs) == 0 {
		return false, nil
	}

	requested := countByID(optionIDs)
	distinct := distinctIDs(requested)

	options, err := s.repo.GetTicketOptions(ctx, distinct)
	if err != nil {
		return false, err
	}

	return checkCapacity(ctx, s.repo.CountTicketsByOption, requested, distinct, options)
}

// checkCapacity verifies that every requested option exists, that all
// options share one event, and that sold + requested stays within capacity.
func checkCapacity(
	ctx context.Context,
	countSold func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error),
	requested map[uuid.UUID]int,
	distinct []uuid.UUID,
	options []domain.TicketOption,
) (bool, error) {
	if len(options) != len(distinct) {
		return false, nil
	}
	eventID := options[0].EventID
	for _, o := range options {
		if o.EventID != eventID {
			return false, nil
		}
	}

	sold, err := countSold(ctx, distinct)
	if err != nil {
		return false, err
	}
	for _, o := range options {
		if sold[o.ID]+requested[o.ID] > o.AmountAvailable {
			return false, nil
		}
	}
	return true, nil
}

// CreateTickets inserts the batch, bumps the owning event's sold counter by
// the batch size and invokes onCreated inside the same transaction. It
// returns false without error when a precondition fails (empty batch,
// unknown option or attendee, mixed-event basket, capacity exhausted) or
// when the callback rejects; the transaction is then rolled back.
//
// The option rows are locked before the capacity re-check, so two
// overlapping purchases serialize and the option can never oversell.
func (s *TicketService) CreateTickets(ctx context.Context, drafts []domain.TicketDraft, onCreated TicketCallback) (bool, error) {
	if len(drafts) == 0 {
		return false, nil
	}

	optionIDs := make([]uuid.UUID, len(drafts))
	for i, d := range drafts {
		optionIDs[i] = d.OptionID
	}
	requested := countByID(optionIDs)
	distinct := distinctIDs(requested)

	ok := false
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		options, err := s.repo.GetTicketOptionsForUpdate(txCtx, distinct)
		if err != nil {
			return err
		}

		fits, err := checkCapacity(txCtx, s.repo.CountTicketsByOption, requested, distinct, options)
		if err != nil {
			return err
		}
		if !fits {
			return nil
		}

		byID := make(map[uuid.UUID]domain.TicketOption, len(options))
		for _, o := range options {
			byID[o.ID] = o
		}
		eventID := options[0].EventID

		for _, d := range drafts {
			exists, err := s.repo.AttendeeExists(txCtx, d.AttendeeID)
			if err != nil {
				return err
			}
			if !exists {
				return nil
			}
		}

		now := s.clock.Now()
		created := make([]domain.Ticket, 0, len(drafts))
		for _, d := range drafts {
			t := domain.Ticket{
				ID:                uuid.New(),
				AttendeeID:        d.AttendeeID,
				Option:            byID[d.OptionID],
				EventID:           eventID,
				Price:             d.Price,
				PurchasedAt:       now,
				HolderFullName:    d.HolderFullName,
				HolderEmail:       d.HolderEmail,
				HolderPhoneNumber: d.HolderPhoneNumber,
			}
			if err := s.repo.InsertTicket(txCtx, t); err != nil {
				return err
			}
			created = append(created, t)
		}

		if err := s.repo.AddEventSold(txCtx, eventID, len(created)); err != nil {
			return err
		}

		if onCreated != nil && !onCreated(txCtx, created) {
			return errCallbackRejected
		}

		ok = true
		return nil
	})
	if errors.Is(err, errCallbackRejected) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

// DeleteTicket removes one ticket and decrements the event's sold counter in
// the same transaction. A missing ticket is a hard error. A false return
// from onDeleted rolls everything back and yields (false, nil).
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID uuid.UUID, onDeleted TicketCallback) (bool, error) {
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		ticket, err := s.repo.GetTicketForUpdate(txCtx, ticketID)
		if err != nil {
			return err
		}
		return s.deleteOne(txCtx, ticket, onDeleted)
	})
	if errors.Is(err, errCallbackRejected) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteTickets cancels every ticket of an event, one savepoint per ticket.
// When the callback rejects a ticket, only that ticket's savepoint rolls
// back, processing stops, and the deletions already performed in this call
// stay committed. This lets a bulk refund stop at the first failure without
// undoing refunds already issued.
func (s *TicketService) DeleteTickets(ctx context.Context, eventID uuid.UUID, onDeleted TicketCallback) (bool, error) {
	ok := true
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		tickets, err := s.repo.ListTicketsByEvent(txCtx, eventID)
		if err != nil {
			return err
		}

		for _, ticket := range tickets {
			spErr := s.repo.WithSavepoint(txCtx, func(spCtx context.Context) error {
				return s.deleteOne(spCtx, ticket, onDeleted)
			})
			if errors.Is(spErr, errCallbackRejected) {
				ok = false
				return nil
			}
			if spErr != nil {
				return spErr
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (s *TicketService) deleteOne(ctx context.Context, ticket domain.Ticket, onDeleted TicketCallback) error {
	if err := s.repo.AddEventSold(ctx, ticket.EventID, -1); err != nil {
		return err
	}
	if err := s.repo.DeleteTicketRow(ctx, ticket.ID); err != nil {
		return err
	}
	if onDeleted != nil && !onDeleted(ctx, []domain.Ticket{ticket}) {
		return errCallbackRejected
	}
	return nil
}

// ReviewTicket marks the ticket reviewed. Already-reviewed tickets are left
// alone; a missing ticket is a hard error.
func (s *TicketService) ReviewTicket(ctx context.Context, ticketID uuid.UUID) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		ticket, err := s.repo.GetTicketForUpdate(txCtx, ticketID)
		if err != nil {
			return err
		}
		if ticket.IsReviewed {
			return nil
		}
		return s.repo.SetReviewed(txCtx, ticket.ID)
	})
}

// ReviewTicketSnapshot approves a ticket only if the holder details in the
// snapshot still match the stored row. A mismatch means the holder edited
// the ticket after the snapshot was taken; the stale approval is silently
// skipped.
func (s *TicketService) ReviewTicketSnapshot(ctx context.Context, snapshot domain.Ticket) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		ticket, err := s.repo.GetTicketForUpdate(txCtx, snapshot.ID)
		if err != nil {
			return err
		}
		if !ticket.HolderMatches(snapshot) {
			return nil
		}
		if ticket.IsReviewed {
			return nil
		}
		return s.repo.SetReviewed(txCtx, ticket.ID)
	})
}

// UpdateTicket persists holder-detail edits. Any change forces the review
// flag back to false. The zero id and unknown ids are hard errors.
func (s *TicketService) UpdateTicket(ctx context.Context, snapshot domain.Ticket) error {
	if snapshot.ID == uuid.Nil {
		return domain.ErrInvalidID
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		ticket, err := s.repo.GetTicketForUpdate(txCtx, snapshot.ID)
		if err != nil {
			return err
		}
		if ticket.HolderMatches(snapshot) {
			return nil
		}
		return s.repo.UpdateHolder(txCtx, ticket.ID,
			snapshot.HolderFullName, snapshot.HolderEmail, snapshot.HolderPhoneNumber)
	})
}

// GetTicket returns nil when the ticket does not exist; the read path never
// treats absence as an error.
func (s *TicketService) GetTicket(ctx context.Context, ticketID uuid.UUID) (*domain.Ticket, error) {
	return s.repo.GetTicket(ctx, ticketID)
}

func (s *TicketService) GetTickets(ctx context.Context, accountID uuid.UUID) ([]domain.Ticket, error) {
	return s.repo.ListTicketsByAttendee(ctx, accountID)
}

// GetAttendance lists tickets across the organizer's events, newest first,
// optionally narrowed to one event.
func (s *TicketService) GetAttendance(ctx context.Context, organizerID uuid.UUID, eventID *uuid.UUID) ([]domain.Ticket, error) {
	return s.repo.ListAttendance(ctx, organizerID, eventID)
}

// IsTicketOwner reports whether the account's attendee holds the ticket.
// False, not an error, for unknown ids.
func (s *TicketService) IsTicketOwner(ctx context.Context, ticketID, accountID uuid.UUID) (bool, error) {
	return s.repo.IsTicketOwner(ctx, ticketID, accountID)
}

// IsTicketOrganizer reports whether the account organizes the ticket's
// event. False, not an error, for unknown ids.
func (s *TicketService) IsTicketOrganizer(ctx context.Context, ticketID, accountID uuid.UUID) (bool, error) {
	return s.repo.IsTicketOrganizer(ctx, ticketID, accountID)
}

// GetStatistics aggregates the organizer's activity for the calendar month
// containing the given instant. DailySales runs up to the last day with a
// sale; gaps are zero-filled.
func (s *TicketService) GetStatistics(ctx context.Context, organizerID uuid.UUID, month time.Time) (domain.Statistics, error) {
	month = month.UTC()
	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	events, err := s.repo.CountEventsOverlapping(ctx, organizerID, from, to)
	if err != nil {
		return domain.Statistics{}, err
	}
	tickets, sales, reviewed, err := s.repo.TicketAggregates(ctx, organizerID, from, to)
	if err != nil {
		return domain.Statistics{}, err
	}
	daily, err := s.repo.DailySales(ctx, organizerID, from, to)
	if err != nil {
		return domain.Statistics{}, err
	}

	lastDay := 0
	for day := range daily {
		if day > lastDay {
			lastDay = day
		}
	}
	dailySales := make([]decimal.Decimal, lastDay)
	for i := range dailySales {
		dailySales[i] = decimal.Zero
	}
	for day, sum := range daily {
		dailySales[day-1] = sum
	}

	return domain.Statistics{
		TotalEvents:   events,
		TotalTickets:  tickets,
		TotalSales:    sales,
		TotalReviewed: reviewed,
		DailySales:    dailySales,
	}, nil
}

func countByID(ids []uuid.UUID) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int, len(ids))
	for _, id := range ids {
		counts[id]++
	}
	return counts
}

func distinctIDs(counts map[uuid.UUID]int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	return ids
}
