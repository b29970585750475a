package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

// NotificationReader is the minimal interface needed for notification
// endpoints.
type NotificationReader interface {
	GetNotifications(ctx context.Context, accountID uuid.UUID) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID, accountID uuid.UUID) error
	MarkAllRead(ctx context.Context, accountID uuid.UUID) error
}

// HandleListNotifications lists an account's notifications, newest first.
func HandleListNotifications(svc NotificationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := queryID(w, r, "account_id")
		if !ok {
			return
		}
		notifications, err := svc.GetNotifications(r.Context(), accountID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]notificationResponse, 0, len(notifications))
		for _, n := range notifications {
			resp = append(resp, toNotificationResponse(n))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type markReadRequest struct {
	AccountID uuid.UUID `json:"account_id"`
}

// HandleMarkNotificationRead marks one of the account's notifications read.
func HandleMarkNotificationRead(svc NotificationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notificationID, ok := pathID(w, r, "notificationID")
		if !ok {
			return
		}
		var req markReadRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.MarkRead(r.Context(), notificationID, req.AccountID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleMarkAllNotificationsRead marks every notification of the account
// read.
func HandleMarkAllNotificationsRead(svc NotificationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req markReadRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.MarkAllRead(r.Context(), req.AccountID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
