package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

// SavedEventService is the minimal interface needed for saved-event
// endpoints.
type SavedEventService interface {
	SaveEvent(ctx context.Context, attendeeID, eventID uuid.UUID) error
	UnsaveEvent(ctx context.Context, attendeeID, savedEventID uuid.UUID) error
	GetSavedEvents(ctx context.Context, attendeeID uuid.UUID) ([]domain.Event, error)
	CheckSavedEvents(ctx context.Context, attendeeID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
}

type saveEventRequest struct {
	AttendeeID uuid.UUID `json:"attendee_id"`
	EventID    uuid.UUID `json:"event_id"`
}

// HandleSaveEvent marks an event as saved for an attendee, bumping the
// event's interested counter. Saving the same event twice is a conflict.
func HandleSaveEvent(svc SavedEventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveEventRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.SaveEvent(r.Context(), req.AttendeeID, req.EventID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

// HandleUnsaveEvent removes a saved event. Only the attendee who saved it
// may remove it; anyone else's request is a no-op.
func HandleUnsaveEvent(svc SavedEventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		savedEventID, ok := pathID(w, r, "savedEventID")
		if !ok {
			return
		}
		attendeeID, ok := queryID(w, r, "attendee_id")
		if !ok {
			return
		}
		if err := svc.UnsaveEvent(r.Context(), attendeeID, savedEventID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleListSavedEvents lists the events an attendee has saved.
func HandleListSavedEvents(svc SavedEventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attendeeID, ok := queryID(w, r, "attendee_id")
		if !ok {
			return
		}
		events, err := svc.GetSavedEvents(r.Context(), attendeeID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponses(events))
	}
}

type checkSavedEventsRequest struct {
	AttendeeID uuid.UUID   `json:"attendee_id"`
	EventIDs   []uuid.UUID `json:"event_ids"`
}

// HandleCheckSavedEvents reports which of the given events the attendee has
// saved, keyed by event id with the saved-event id as value.
func HandleCheckSavedEvents(svc SavedEventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkSavedEventsRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		saved, err := svc.CheckSavedEvents(r.Context(), req.AttendeeID, req.EventIDs)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make(map[string]uuid.UUID, len(saved))
		for eventID, savedEventID := range saved {
			resp[eventID.String()] = savedEventID
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
