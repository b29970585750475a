package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ticket is a purchased ticket. Price is frozen at purchase time and never
// tracks later option price changes. Holder fields are a snapshot the
// attendee may edit; any edit resets IsReviewed.
type Ticket struct {
	ID          uuid.UUID
	AttendeeID  uuid.UUID
	Option      TicketOption
	EventID     uuid.UUID
	OrganizerID uuid.UUID
	Price       decimal.Decimal
	PurchasedAt time.Time

	HolderFullName    string
	HolderEmail       string
	HolderPhoneNumber string

	IsReviewed bool
}

// HolderMatches reports whether the ticket's holder snapshot equals the
// other's. Used to detect stale review requests and holder edits.
func (t Ticket) HolderMatches(other Ticket) bool {
	return t.HolderFullName == other.HolderFullName &&
		t.HolderEmail == other.HolderEmail &&
		t.HolderPhoneNumber == other.HolderPhoneNumber
}

// TicketDraft is the input to ticket creation: the option being bought, the
// buying attendee, the price locked in at checkout and the holder snapshot.
type TicketDraft struct {
	OptionID   uuid.UUID
	AttendeeID uuid.UUID
	Price      decimal.Decimal

	HolderFullName    string
	HolderEmail       string
	HolderPhoneNumber string
}
