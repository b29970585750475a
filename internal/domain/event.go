package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Organizer identifies the account behind an event. Name falls back to the
// account email when no company name is set.
type Organizer struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// Event is a ticketed event. Interested and Sold are cached aggregates:
// Interested counts saved-event rows, Sold counts tickets across the event's
// options. Both are mutated only in the same transaction as the row
// insert/delete they count, and never drop below zero.
type Event struct {
	ID          uuid.UUID
	Organizer   Organizer
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Location    string
	Price       decimal.Decimal
	Interested  int
	Sold        int
	BannerURI   string

	// Filled only when the caller asked for collections.
	TicketOptions []TicketOption
	Categories    []Category
}

// TicketOption is one purchasable tier of an event. AmountAvailable is the
// absolute capacity; remaining capacity is AmountAvailable minus the number
// of live tickets referencing the option.
type TicketOption struct {
	ID              uuid.UUID
	EventID         uuid.UUID
	Name            string
	Description     string
	AdditionalPrice decimal.Decimal
	AmountAvailable int
}

// Price returns the effective ticket price: event base price plus the
// option's additional price.
func (o TicketOption) Price(base decimal.Decimal) decimal.Decimal {
	return base.Add(o.AdditionalPrice)
}

type Category struct {
	ID       uuid.UUID
	Name     string
	ImageURI string
}

// SavedEvent marks an attendee's interest in an event. At most one row may
// exist per (attendee, event) pair.
type SavedEvent struct {
	ID         uuid.UUID
	AttendeeID uuid.UUID
	EventID    uuid.UUID
}

// EventFilter narrows FindEvents. Zero-valued fields are ignored.
type EventFilter struct {
	CategoryIDs []uuid.UUID
	MinDate     *time.Time
	MaxDate     *time.Time
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Locations   []string
	Keywords    string
}
