package app

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eventflow/eventflow-backend/internal/clock"
	"github.com/eventflow/eventflow-backend/internal/domain"
	"github.com/eventflow/eventflow-backend/internal/monitoring"
)

// CheckoutService orchestrates a purchase or cancellation across the
// ticket, event and payment services. The ledger transfer runs inside the
// ticket transaction's callback, so a failed capture unwinds the inserted
// tickets; notifications and email run only after commit and are
// best-effort.
type CheckoutService struct {
	tickets  *TicketService
	events   *EventService
	payments *PaymentService
	accounts *AccountService

	notifier NotificationSender
	email    EmailSender
	clock    clock.Clock
	logger   *log.Logger
}

func NewCheckoutService(
	tickets *TicketService,
	events *EventService,
	payments *PaymentService,
	accounts *AccountService,
	notifier NotificationSender,
	email EmailSender,
	clk clock.Clock,
	logger *log.Logger,
) *CheckoutService {
	if logger == nil {
		logger = log.Default()
	}
	return &CheckoutService{
		tickets:  tickets,
		events:   events,
		payments: payments,
		accounts: accounts,
		notifier: notifier,
		email:    email,
		clock:    clk,
		logger:   logger,
	}
}

type PurchaseInput struct {
	AttendeeID      uuid.UUID
	OptionIDs       []uuid.UUID
	PaymentMethodID uuid.UUID

	HolderFullName    string
	HolderEmail       string
	HolderPhoneNumber string
}

// Purchase buys one ticket per entry in OptionIDs. Prices are frozen at the
// values resolved here. Free baskets skip the ledger entirely;
// PaymentMethodID may then be zero. Precondition failures return (false,
// nil).
func (s *CheckoutService) Purchase(ctx context.Context, in PurchaseInput) (bool, error) {
	if len(in.OptionIDs) == 0 {
		return false, nil
	}

	isAttendee, err := s.accounts.IsValidAttendee(ctx, in.AttendeeID)
	if err != nil {
		return false, err
	}
	if !isAttendee {
		return false, nil
	}

	available, err := s.tickets.IsTicketOptionAvailable(ctx, in.OptionIDs)
	if err != nil {
		return false, err
	}
	if !available {
		return false, nil
	}

	prices, err := s.events.GetPrice(ctx, in.OptionIDs)
	if err != nil {
		return false, err
	}
	total := decimal.Zero
	for _, id := range in.OptionIDs {
		price, found := prices[id]
		if !found {
			return false, nil
		}
		total = total.Add(price)
	}

	event, err := s.events.GetEventFromTicketOption(ctx, in.OptionIDs)
	if err != nil {
		if err == domain.ErrTicketOptionNotFound || err == domain.ErrEventNotFound {
			return false, nil
		}
		return false, err
	}

	var organizerMethodID uuid.UUID
	if total.IsPositive() {
		valid, err := s.payments.IsValidPaymentMethod(ctx, in.PaymentMethodID, in.AttendeeID)
		if err != nil {
			return false, err
		}
		if !valid {
			return false, nil
		}

		organizerMethodID, err = s.firstPaymentMethod(ctx, event.Organizer.ID)
		if err != nil {
			return false, err
		}
		if organizerMethodID == uuid.Nil {
			return false, nil
		}
	}

	drafts := make([]domain.TicketDraft, len(in.OptionIDs))
	for i, id := range in.OptionIDs {
		drafts[i] = domain.TicketDraft{
			OptionID:          id,
			AttendeeID:        in.AttendeeID,
			Price:             prices[id],
			HolderFullName:    in.HolderFullName,
			HolderEmail:       in.HolderEmail,
			HolderPhoneNumber: in.HolderPhoneNumber,
		}
	}

	ok, err := s.tickets.CreateTickets(ctx, drafts, func(txCtx context.Context, created []domain.Ticket) bool {
		if !total.IsPositive() {
			return true
		}
		if err := s.payments.PerformTransaction(txCtx, in.PaymentMethodID, organizerMethodID, total); err != nil {
			s.logger.Printf("purchase payment failed, rolling back tickets: %v", err)
			monitoring.RecordTransfer("failed")
			return false
		}
		monitoring.RecordTransfer("ok")
		return true
	})
	if err != nil || !ok {
		return false, err
	}

	monitoring.RecordTicketsSold(len(drafts))
	s.notifyBestEffort(ctx, in.AttendeeID, "Tickets purchased",
		fmt.Sprintf("You bought %d ticket(s) for %s.", len(drafts), event.Name))
	s.notifyBestEffort(ctx, event.Organizer.ID, "Tickets sold",
		fmt.Sprintf("%d ticket(s) sold for %s.", len(drafts), event.Name))
	s.emailBestEffort(ctx, in.HolderEmail, "Your tickets for "+event.Name,
		fmt.Sprintf("Your purchase of %d ticket(s) for %s is confirmed.", len(drafts), event.Name))

	return true, nil
}

// Cancel removes one ticket, refunding the frozen price from the
// organizer's payment method to the attendee's inside the delete
// transaction. Either the ticket owner or the event organizer may cancel.
func (s *CheckoutService) Cancel(ctx context.Context, accountID, ticketID uuid.UUID) (bool, error) {
	allowed, err := s.mayCancel(ctx, accountID, ticketID)
	if err != nil || !allowed {
		return false, err
	}

	ticket, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return false, err
	}
	if ticket == nil {
		return false, nil
	}

	var attendeeMethodID, organizerMethodID uuid.UUID
	if ticket.Price.IsPositive() {
		if attendeeMethodID, err = s.firstPaymentMethod(ctx, ticket.AttendeeID); err != nil {
			return false, err
		}
		if organizerMethodID, err = s.firstPaymentMethod(ctx, ticket.OrganizerID); err != nil {
			return false, err
		}
		if attendeeMethodID == uuid.Nil || organizerMethodID == uuid.Nil {
			return false, nil
		}
	}

	ok, err := s.tickets.DeleteTicket(ctx, ticketID, func(txCtx context.Context, deleted []domain.Ticket) bool {
		if !ticket.Price.IsPositive() {
			return true
		}
		if err := s.payments.PerformTransaction(txCtx, organizerMethodID, attendeeMethodID, ticket.Price); err != nil {
			s.logger.Printf("refund failed, keeping ticket: %v", err)
			monitoring.RecordTransfer("failed")
			return false
		}
		monitoring.RecordTransfer("ok")
		return true
	})
	if err != nil || !ok {
		return false, err
	}

	monitoring.RecordTicketsCancelled(1)
	s.notifyBestEffort(ctx, ticket.AttendeeID, "Ticket cancelled",
		fmt.Sprintf("Your ticket %s was cancelled and refunded.", ticket.Option.Name))
	return true, nil
}

// CancelEvent refunds and deletes every ticket of the event, then deletes
// the event itself. A refund failure stops the bulk cancellation at that
// ticket; refunds already issued in the call stay committed and the event
// survives.
func (s *CheckoutService) CancelEvent(ctx context.Context, organizerAccountID, eventID uuid.UUID) (bool, error) {
	event, err := s.events.GetEvent(ctx, eventID, false)
	if err != nil {
		return false, err
	}
	if event == nil || event.Organizer.ID != organizerAccountID {
		return false, nil
	}

	organizerMethodID, err := s.firstPaymentMethod(ctx, organizerAccountID)
	if err != nil {
		return false, err
	}

	cancelled := 0
	ok, err := s.tickets.DeleteTickets(ctx, eventID, func(txCtx context.Context, deleted []domain.Ticket) bool {
		for _, ticket := range deleted {
			if !ticket.Price.IsPositive() {
				continue
			}
			attendeeMethodID, err := s.firstPaymentMethod(txCtx, ticket.AttendeeID)
			if err != nil || attendeeMethodID == uuid.Nil || organizerMethodID == uuid.Nil {
				return false
			}
			if err := s.payments.PerformTransaction(txCtx, organizerMethodID, attendeeMethodID, ticket.Price); err != nil {
				s.logger.Printf("bulk refund failed, stopping cancellation: %v", err)
				monitoring.RecordTransfer("failed")
				return false
			}
			monitoring.RecordTransfer("ok")
		}
		cancelled += len(deleted)
		return true
	})
	if cancelled > 0 {
		monitoring.RecordTicketsCancelled(cancelled)
	}
	if err != nil || !ok {
		return false, err
	}

	deleted, err := s.events.DeleteEvent(ctx, eventID, nil)
	if err != nil || !deleted {
		return false, err
	}

	s.notifyBestEffort(ctx, organizerAccountID, "Event cancelled",
		fmt.Sprintf("Event %s was cancelled; all tickets were refunded.", event.Name))
	return true, nil
}

func (s *CheckoutService) mayCancel(ctx context.Context, accountID, ticketID uuid.UUID) (bool, error) {
	isAttendee, err := s.accounts.IsValidAttendee(ctx, accountID)
	if err != nil {
		return false, err
	}
	if isAttendee {
		owner, err := s.tickets.IsTicketOwner(ctx, ticketID, accountID)
		if err != nil {
			return false, err
		}
		if owner {
			return true, nil
		}
	}

	isOrganizer, err := s.accounts.IsValidOrganizer(ctx, accountID)
	if err != nil {
		return false, err
	}
	if !isOrganizer {
		return false, nil
	}
	return s.tickets.IsTicketOrganizer(ctx, ticketID, accountID)
}

// firstPaymentMethod picks the account's oldest payment method, the default
// destination for transfers. uuid.Nil when the account has none.
func (s *CheckoutService) firstPaymentMethod(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	methods, err := s.payments.GetPaymentMethods(ctx, accountID)
	if err != nil {
		return uuid.Nil, err
	}
	if len(methods) == 0 {
		return uuid.Nil, nil
	}
	return methods[0].ID, nil
}

func (s *CheckoutService) notifyBestEffort(ctx context.Context, accountID uuid.UUID, topic, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, accountID, topic, message, s.clock.Now()); err != nil {
		s.logger.Printf("notification send failed (ignored): %v", err)
	}
}

func (s *CheckoutService) emailBestEffort(ctx context.Context, to, subject, body string) {
	if s.email == nil || to == "" {
		return
	}
	if err := s.email.Send(ctx, to, subject, body, ""); err != nil {
		s.logger.Printf("email send failed (ignored): %v", err)
	}
}
