package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

// PaymentMethodService is the minimal interface needed for payment-method
// endpoints.
type PaymentMethodService interface {
	GetPaymentMethods(ctx context.Context, accountID uuid.UUID) ([]domain.PaymentMethod, error)
	AddCard(ctx context.Context, accountID uuid.UUID, displayName, number, expiry, cvv, name string) (domain.PaymentMethod, error)
	PerformTransaction(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) error
}

// HandleListPaymentMethods lists an account's payment methods, oldest
// first. Card details beyond the number are never exposed.
func HandleListPaymentMethods(svc PaymentMethodService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := queryID(w, r, "account_id")
		if !ok {
			return
		}
		methods, err := svc.GetPaymentMethods(r.Context(), accountID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]paymentMethodResponse, 0, len(methods))
		for _, method := range methods {
			resp = append(resp, toPaymentMethodResponse(method))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type addCardRequest struct {
	AccountID   uuid.UUID `json:"account_id"`
	DisplayName string    `json:"display_name"`
	Number      string    `json:"number"`
	Expiry      string    `json:"expiry"`
	CVV         string    `json:"cvv"`
	Name        string    `json:"name"`
}

// HandleAddCard registers a card payment method after validating the card
// details.
func HandleAddCard(svc PaymentMethodService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addCardRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		method, err := svc.AddCard(r.Context(), req.AccountID, req.DisplayName, req.Number, req.Expiry, req.CVV, req.Name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPaymentMethodResponse(method))
	}
}

type transferRequest struct {
	FromID uuid.UUID       `json:"from_id"`
	ToID   uuid.UUID       `json:"to_id"`
	Amount decimal.Decimal `json:"amount"`
}

// HandleTransfer moves a positive amount between two payment methods
// atomically.
func HandleTransfer(svc PaymentMethodService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transferRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.PerformTransaction(r.Context(), req.FromID, req.ToID, req.Amount); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
