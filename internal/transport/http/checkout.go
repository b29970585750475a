package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/eventflow/eventflow-backend/internal/app"
)

// Purchaser is the minimal interface needed for checkout endpoints.
type Purchaser interface {
	Purchase(ctx context.Context, in app.PurchaseInput) (bool, error)
	Cancel(ctx context.Context, accountID, ticketID uuid.UUID) (bool, error)
	CancelEvent(ctx context.Context, organizerAccountID, eventID uuid.UUID) (bool, error)
}

type purchaseRequest struct {
	AttendeeID      uuid.UUID   `json:"attendee_id"`
	OptionIDs       []uuid.UUID `json:"ticket_option_ids"`
	PaymentMethodID uuid.UUID   `json:"payment_method_id"`

	HolderFullName    string `json:"holder_full_name"`
	HolderEmail       string `json:"holder_email"`
	HolderPhoneNumber string `json:"holder_phone_number"`
}

// HandlePurchase buys one ticket per requested option, capturing payment in
// the same transaction. A failed precondition (sold out, bad payment
// method, unknown attendee) returns 409 without partial effects.
func HandlePurchase(svc Purchaser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req purchaseRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if len(req.OptionIDs) == 0 {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "ticket_option_ids is required")
			return
		}

		ok, err := svc.Purchase(r.Context(), app.PurchaseInput{
			AttendeeID:        req.AttendeeID,
			OptionIDs:         req.OptionIDs,
			PaymentMethodID:   req.PaymentMethodID,
			HolderFullName:    req.HolderFullName,
			HolderEmail:       req.HolderEmail,
			HolderPhoneNumber: req.HolderPhoneNumber,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !ok {
			writeError(w, http.StatusConflict, codePreconditionFailed, "purchase rejected")
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

// HandleCancelTicket cancels one ticket with a refund. Allowed for the
// ticket owner and the event organizer.
func HandleCancelTicket(svc Purchaser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID, ok := pathID(w, r, "ticketID")
		if !ok {
			return
		}
		accountID, ok := queryID(w, r, "account_id")
		if !ok {
			return
		}
		cancelled, err := svc.Cancel(r.Context(), accountID, ticketID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !cancelled {
			writeError(w, http.StatusConflict, codePreconditionFailed, "cancellation rejected")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleCancelEvent refunds and deletes every ticket of the event, then the
// event itself. Refunds already issued stay committed if a later one fails.
func HandleCancelEvent(svc Purchaser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, ok := pathID(w, r, "eventID")
		if !ok {
			return
		}
		organizerID, ok := queryID(w, r, "organizer_id")
		if !ok {
			return
		}
		cancelled, err := svc.CancelEvent(r.Context(), organizerID, eventID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !cancelled {
			writeError(w, http.StatusConflict, codePreconditionFailed, "event cancellation rejected")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
