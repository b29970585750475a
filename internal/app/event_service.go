package app

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eventflow/eventflow-backend/internal/clock"
	"github.com/eventflow/eventflow-backend/internal/domain"
)

// EventCallback chains side effects into an event deletion; returning false
// rolls the deletion back.
type EventCallback func(ctx context.Context, event domain.Event) bool

type EventRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	OrganizerExists(ctx context.Context, accountID uuid.UUID) (bool, error)
	AttendeeExists(ctx context.Context, accountID uuid.UUID) (bool, error)
	EventExists(ctx context.Context, eventID uuid.UUID) (bool, error)

	InsertEvent(ctx context.Context, e domain.Event) error
	UpdateEvent(ctx context.Context, e domain.Event) error
	UpsertTicketOption(ctx context.Context, eventID uuid.UUID, o domain.TicketOption) error
	ReplaceEventCategories(ctx context.Context, eventID uuid.UUID, categoryIDs []uuid.UUID) error
	GetEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error)
	GetEventForUpdate(ctx context.Context, eventID uuid.UUID) (domain.Event, error)
	ListEventOptions(ctx context.Context, eventID uuid.UUID) ([]domain.TicketOption, error)
	ListEventCategories(ctx context.Context, eventID uuid.UUID) ([]domain.Category, error)
	DeleteEventRow(ctx context.Context, eventID uuid.UUID) error
	ListEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.Event, error)
	FindEvents(ctx context.Context, f domain.EventFilter) ([]domain.Event, error)

	InsertSavedEvent(ctx context.Context, se domain.SavedEvent) error
	GetSavedEvent(ctx context.Context, savedEventID uuid.UUID) (domain.SavedEvent, error)
	DeleteSavedEventRow(ctx context.Context, savedEventID uuid.UUID) error
	AddEventInterested(ctx context.Context, eventID uuid.UUID, delta int) error
	ListSavedEvents(ctx context.Context, attendeeID uuid.UUID) ([]domain.Event, error)
	CheckSavedEvents(ctx context.Context, attendeeID uuid.UUID, eventIDs []uuid.UUID) ([]domain.SavedEvent, error)

	GetPrices(ctx context.Context, optionIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	GetEventByOptions(ctx context.Context, optionIDs []uuid.UUID) (domain.Event, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CountCategories(ctx context.Context, ids []uuid.UUID) (int, error)
}

// EventService owns event CRUD and the saved-event (interest) bookkeeping.
type EventService struct {
	repo  EventRepository
	clock clock.Clock
}

func NewEventService(repo EventRepository, clk clock.Clock) *EventService {
	return &EventService{
		repo:  repo,
		clock: clk,
	}
}

// AddOrUpdateEvent creates the event when its id is zero, otherwise updates
// it. Ticket options can be added or changed but never removed, and the
// interested/sold counters are never taken from the input: only the
// saved-event and ticket paths move them.
func (s *EventService) AddOrUpdateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	if event.Name == "" {
		return domain.Event{}, domain.ErrEventNameRequired
	}
	if !event.StartDate.Before(event.EndDate) {
		return domain.Event{}, domain.ErrEventDatesInvalid
	}
	if event.Price.IsNegative() {
		return domain.Event{}, domain.ErrInvalidAmount
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		isOrganizer, err := s.repo.OrganizerExists(txCtx, event.Organizer.ID)
		if err != nil {
			return err
		}
		if !isOrganizer {
			return domain.ErrOrganizerNotFound
		}

		if event.ID == uuid.Nil {
			event.ID = uuid.New()
			if err := s.repo.InsertEvent(txCtx, event); err != nil {
				return err
			}
		} else if err := s.repo.UpdateEvent(txCtx, event); err != nil {
			return err
		}

		for i, o := range event.TicketOptions {
			if o.ID == uuid.Nil {
				o.ID = uuid.New()
				event.TicketOptions[i].ID = o.ID
			}
			if o.AmountAvailable < 0 || o.AdditionalPrice.IsNegative() {
				return domain.ErrInvalidAmount
			}
			if err := s.repo.UpsertTicketOption(txCtx, event.ID, o); err != nil {
				return err
			}
		}

		if event.Categories != nil {
			ids := make([]uuid.UUID, len(event.Categories))
			for i, c := range event.Categories {
				ids[i] = c.ID
			}
			if err := s.repo.ReplaceEventCategories(txCtx, event.ID, ids); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

// DeleteEvent removes the event inside one transaction and hands the
// detached snapshot to the callback; false rolls the deletion back. Events
// with live tickets cannot be deleted; cancel the tickets first.
func (s *EventService) DeleteEvent(ctx context.Context, eventID uuid.UUID, callback EventCallback) (bool, error) {
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteEventRow(txCtx, eventID); err != nil {
			return err
		}
		if callback != nil && !callback(txCtx, event) {
			return errCallbackRejected
		}
		return nil
	})
	if errors.Is(err, errCallbackRejected) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetEvent returns nil for an unknown id. With collections, the ticket
// options and categories are filled in as well.
func (s *EventService) GetEvent(ctx context.Context, eventID uuid.UUID, includeCollections bool) (*domain.Event, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil || event == nil {
		return event, err
	}

	if includeCollections {
		if event.TicketOptions, err = s.repo.ListEventOptions(ctx, eventID); err != nil {
			return nil, err
		}
		if event.Categories, err = s.repo.ListEventCategories(ctx, eventID); err != nil {
			return nil, err
		}
	}
	return event, nil
}

func (s *EventService) GetEvents(ctx context.Context, organizerID uuid.UUID) ([]domain.Event, error) {
	return s.repo.ListEventsByOrganizer(ctx, organizerID)
}

func (s *EventService) FindEvents(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	return s.repo.FindEvents(ctx, f)
}

// SaveEvent records the attendee's interest and bumps the event's
// interested counter in the same transaction. Saving an already-saved event
// fails with ErrEventAlreadySaved; callers treat the duplicate as expected,
// not retryable.
func (s *EventService) SaveEvent(ctx context.Context, attendeeID, eventID uuid.UUID) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		isAttendee, err := s.repo.AttendeeExists(txCtx, attendeeID)
		if err != nil {
			return err
		}
		if !isAttendee {
			return domain.ErrAttendeeNotFound
		}

		exists, err := s.repo.EventExists(txCtx, eventID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrEventNotFound
		}

		if err := s.repo.InsertSavedEvent(txCtx, domain.SavedEvent{
			ID:         uuid.New(),
			AttendeeID: attendeeID,
			EventID:    eventID,
		}); err != nil {
			return err
		}
		return s.repo.AddEventInterested(txCtx, eventID, 1)
	})
}

// UnsaveEvent removes the saved-event row and decrements the counter. A
// saved event belonging to a different attendee is silently left alone.
func (s *EventService) UnsaveEvent(ctx context.Context, attendeeID, savedEventID uuid.UUID) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		saved, err := s.repo.GetSavedEvent(txCtx, savedEventID)
		if err != nil {
			return err
		}
		if saved.AttendeeID != attendeeID {
			return nil
		}

		if err := s.repo.AddEventInterested(txCtx, saved.EventID, -1); err != nil {
			return err
		}
		return s.repo.DeleteSavedEventRow(txCtx, savedEventID)
	})
}

func (s *EventService) GetSavedEvents(ctx context.Context, attendeeID uuid.UUID) ([]domain.Event, error) {
	return s.repo.ListSavedEvents(ctx, attendeeID)
}

// CheckSavedEvents annotates a listing in one query: for each given event
// the attendee has saved, the pair (event id, saved-event id) is returned.
func (s *EventService) CheckSavedEvents(ctx context.Context, attendeeID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	saved, err := s.repo.CheckSavedEvents(ctx, attendeeID, eventIDs)
	if err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]uuid.UUID, len(saved))
	for _, se := range saved {
		result[se.EventID] = se.ID
	}
	return result, nil
}

// GetPrice resolves the effective price per option id (event base price plus
// the option's additional price).
func (s *EventService) GetPrice(ctx context.Context, optionIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	return s.repo.GetPrices(ctx, optionIDs)
}

// GetEventFromTicketOption resolves the single event the options belong to.
func (s *EventService) GetEventFromTicketOption(ctx context.Context, optionIDs []uuid.UUID) (domain.Event, error) {
	return s.repo.GetEventByOptions(ctx, optionIDs)
}

// GetOrganizerFromTicketOption resolves the organizer account behind the
// options' single event.
func (s *EventService) GetOrganizerFromTicketOption(ctx context.Context, optionIDs []uuid.UUID) (uuid.UUID, error) {
	event, err := s.repo.GetEventByOptions(ctx, optionIDs)
	if err != nil {
		return uuid.Nil, err
	}
	return event.Organizer.ID, nil
}

func (s *EventService) GetCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

// IsValidCategory reports whether every given id resolves to a category.
func (s *EventService) IsValidCategory(ctx context.Context, ids []uuid.UUID) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	n, err := s.repo.CountCategories(ctx, ids)
	if err != nil {
		return false, err
	}
	return n == len(ids), nil
}
