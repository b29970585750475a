package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidID          = "invalid_id"
	codeForbidden          = "forbidden"
	codePreconditionFailed = "precondition_failed"
	codeInternalError      = "internal_error"

	codeAccountNotFound       = "account_not_found"
	codeAttendeeNotFound      = "attendee_not_found"
	codeOrganizerNotFound     = "organizer_not_found"
	codeEventNotFound         = "event_not_found"
	codeEventHasTickets       = "event_has_tickets"
	codeEventNameRequired     = "event_name_required"
	codeEventDatesInvalid     = "event_dates_invalid"
	codeTicketNotFound        = "ticket_not_found"
	codeTicketOptionNotFound  = "ticket_option_not_found"
	codeSavedEventNotFound    = "saved_event_not_found"
	codeEventAlreadySaved     = "event_already_saved"
	codePaymentMethodNotFound = "payment_method_not_found"
	codeInvalidAmount         = "invalid_amount"
	codeInvalidCard           = "invalid_card"
	codeCategoryNotFound      = "category_not_found"
	codeNotificationNotFound  = "notification_not_found"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps a service error to an HTTP response. Unknown errors
// become an opaque 500.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := domainStatus(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, code, "internal error")
		return
	}
	writeError(w, status, code, err.Error())
}

func domainStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, codeInvalidID
	case errors.Is(err, domain.ErrEventNameRequired):
		return http.StatusBadRequest, codeEventNameRequired
	case errors.Is(err, domain.ErrEventDatesInvalid):
		return http.StatusBadRequest, codeEventDatesInvalid
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, codeInvalidAmount
	case errors.Is(err, domain.ErrInvalidCard):
		return http.StatusBadRequest, codeInvalidCard
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, codeAccountNotFound
	case errors.Is(err, domain.ErrAttendeeNotFound):
		return http.StatusNotFound, codeAttendeeNotFound
	case errors.Is(err, domain.ErrOrganizerNotFound):
		return http.StatusNotFound, codeOrganizerNotFound
	case errors.Is(err, domain.ErrEventNotFound):
		return http.StatusNotFound, codeEventNotFound
	case errors.Is(err, domain.ErrTicketNotFound):
		return http.StatusNotFound, codeTicketNotFound
	case errors.Is(err, domain.ErrTicketOptionNotFound):
		return http.StatusNotFound, codeTicketOptionNotFound
	case errors.Is(err, domain.ErrSavedEventNotFound):
		return http.StatusNotFound, codeSavedEventNotFound
	case errors.Is(err, domain.ErrPaymentMethodNotFound):
		return http.StatusNotFound, codePaymentMethodNotFound
	case errors.Is(err, domain.ErrCategoryNotFound):
		return http.StatusNotFound, codeCategoryNotFound
	case errors.Is(err, domain.ErrNotificationNotFound):
		return http.StatusNotFound, codeNotificationNotFound
	case errors.Is(err, domain.ErrEventAlreadySaved):
		return http.StatusConflict, codeEventAlreadySaved
	case errors.Is(err, domain.ErrEventHasTickets):
		return http.StatusConflict, codeEventHasTickets
	default:
		return http.StatusInternalServerError, codeInternalError
	}
}
