package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

// AccountManager is the minimal interface needed for account endpoints.
type AccountManager interface {
	GetAccount(ctx context.Context, accountID uuid.UUID) (domain.Account, error)
	CreateAttendee(ctx context.Context, accountID uuid.UUID) error
	CreateOrganizer(ctx context.Context, accountID uuid.UUID) error
}

type accountRoleRequest struct {
	AccountID uuid.UUID `json:"account_id"`
}

// HandleGetAccount returns one account.
func HandleGetAccount(svc AccountManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := pathID(w, r, "accountID")
		if !ok {
			return
		}
		account, err := svc.GetAccount(r.Context(), accountID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"id":           account.ID.String(),
			"email":        account.Email,
			"company":      account.Company,
			"display_name": account.DisplayName(),
		})
	}
}

// HandleCreateAttendee grants the attendee role to an account. Granting a
// role the account already has is a no-op.
func HandleCreateAttendee(svc AccountManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req accountRoleRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.CreateAttendee(r.Context(), req.AccountID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

// HandleCreateOrganizer grants the organizer role to an account.
func HandleCreateOrganizer(svc AccountManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req accountRoleRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.CreateOrganizer(r.Context(), req.AccountID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}
