package domain

import "errors"

var (
	ErrInvalidID             = errors.New("invalid id")
	ErrAccountNotFound       = errors.New("account not found")
	ErrAttendeeNotFound      = errors.New("attendee not found")
	ErrOrganizerNotFound     = errors.New("organizer not found")
	ErrEventNotFound         = errors.New("event not found")
	ErrEventHasTickets       = errors.New("event still has live tickets")
	ErrEventNameRequired     = errors.New("event name is required")
	ErrEventDatesInvalid     = errors.New("event end date must be after start date")
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrTicketOptionNotFound  = errors.New("ticket option not found")
	ErrSavedEventNotFound    = errors.New("saved event not found")
	ErrEventAlreadySaved     = errors.New("event already saved")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrInvalidAmount         = errors.New("invalid transfer amount")
	ErrInvalidCard           = errors.New("invalid card details")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrNotificationNotFound  = errors.New("notification not found")
)
