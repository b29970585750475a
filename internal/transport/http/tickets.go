package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

// TicketReader is the minimal interface needed for ticket read endpoints.
type TicketReader interface {
	GetTicket(ctx context.Context, ticketID uuid.UUID) (*domain.Ticket, error)
	GetTickets(ctx context.Context, accountID uuid.UUID) ([]domain.Ticket, error)
	GetAttendance(ctx context.Context, organizerID uuid.UUID, eventID *uuid.UUID) ([]domain.Ticket, error)
	GetStatistics(ctx context.Context, organizerID uuid.UUID, month time.Time) (domain.Statistics, error)
	IsTicketOptionAvailable(ctx context.Context, optionIDs []uuid.UUID) (bool, error)
}

// TicketEditor is the minimal interface needed for ticket mutation endpoints.
type TicketEditor interface {
	UpdateTicket(ctx context.Context, snapshot domain.Ticket) error
	ReviewTicket(ctx context.Context, ticketID uuid.UUID) error
	ReviewTicketSnapshot(ctx context.Context, snapshot domain.Ticket) error
	IsTicketOwner(ctx context.Context, ticketID, accountID uuid.UUID) (bool, error)
}

// HandleListTickets lists an attendee's tickets, newest first.
func HandleListTickets(svc TicketReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attendeeID, ok := queryID(w, r, "attendee_id")
		if !ok {
			return
		}
		tickets, err := svc.GetTickets(r.Context(), attendeeID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTicketResponses(tickets))
	}
}

// HandleGetTicket returns a single ticket by id.
func HandleGetTicket(svc TicketReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID, ok := pathID(w, r, "ticketID")
		if !ok {
			return
		}
		ticket, err := svc.GetTicket(r.Context(), ticketID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if ticket == nil {
			writeError(w, http.StatusNotFound, codeTicketNotFound, domain.ErrTicketNotFound.Error())
			return
		}
		writeJSON(w, http.StatusOK, toTicketResponse(*ticket))
	}
}

// HandleCheckAvailability reports whether every requested option still has
// capacity for one more ticket. The answer is advisory; purchase re-checks
// under lock.
func HandleCheckAvailability(svc TicketReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		optionIDs, err := parseIDs(r.URL.Query()["option_id"])
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidID, "invalid option_id")
			return
		}
		available, err := svc.IsTicketOptionAvailable(r.Context(), optionIDs)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"available": available})
	}
}

type updateTicketRequest struct {
	AttendeeID        uuid.UUID `json:"attendee_id"`
	HolderFullName    string    `json:"holder_full_name"`
	HolderEmail       string    `json:"holder_email"`
	HolderPhoneNumber string    `json:"holder_phone_number"`
}

// HandleUpdateTicket updates the holder snapshot of a ticket the attendee
// owns. A holder change invalidates any existing review.
func HandleUpdateTicket(svc TicketEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID, ok := pathID(w, r, "ticketID")
		if !ok {
			return
		}
		var req updateTicketRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		owner, err := svc.IsTicketOwner(r.Context(), ticketID, req.AttendeeID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !owner {
			writeError(w, http.StatusForbidden, codeForbidden, "forbidden")
			return
		}

		err = svc.UpdateTicket(r.Context(), domain.Ticket{
			ID:                ticketID,
			HolderFullName:    req.HolderFullName,
			HolderEmail:       req.HolderEmail,
			HolderPhoneNumber: req.HolderPhoneNumber,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type reviewTicketRequest struct {
	HolderFullName    string `json:"holder_full_name"`
	HolderEmail       string `json:"holder_email"`
	HolderPhoneNumber string `json:"holder_phone_number"`
}

// HandleReviewTicket marks a ticket as reviewed. When the request carries a
// holder snapshot, the review only lands if the snapshot still matches the
// stored holder; a stale snapshot is silently skipped.
func HandleReviewTicket(svc TicketEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID, ok := pathID(w, r, "ticketID")
		if !ok {
			return
		}
		var req reviewTicketRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		var err error
		if req.HolderFullName == "" && req.HolderEmail == "" && req.HolderPhoneNumber == "" {
			err = svc.ReviewTicket(r.Context(), ticketID)
		} else {
			err = svc.ReviewTicketSnapshot(r.Context(), domain.Ticket{
				ID:                ticketID,
				HolderFullName:    req.HolderFullName,
				HolderEmail:       req.HolderEmail,
				HolderPhoneNumber: req.HolderPhoneNumber,
			})
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleAttendance lists tickets sold across an organizer's events,
// optionally narrowed to one event.
func HandleAttendance(svc TicketReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, ok := queryID(w, r, "organizer_id")
		if !ok {
			return
		}
		var eventID *uuid.UUID
		if raw := r.URL.Query().Get("event_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidID, "invalid event_id")
				return
			}
			eventID = &id
		}
		tickets, err := svc.GetAttendance(r.Context(), organizerID, eventID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTicketResponses(tickets))
	}
}

// HandleStatistics returns an organizer's monthly sales aggregates. The
// month query parameter uses the form 2026-08 and defaults to the current
// month when absent.
func HandleStatistics(svc TicketReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, ok := queryID(w, r, "organizer_id")
		if !ok {
			return
		}
		month := time.Now().UTC()
		if raw := r.URL.Query().Get("month"); raw != "" {
			parsed, err := time.Parse("2006-01", raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid month, want YYYY-MM")
				return
			}
			month = parsed
		}
		stats, err := svc.GetStatistics(r.Context(), organizerID, month)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statisticsResponse{
			TotalEvents:   stats.TotalEvents,
			TotalTickets:  stats.TotalTickets,
			TotalSales:    stats.TotalSales,
			TotalReviewed: stats.TotalReviewed,
			DailySales:    stats.DailySales,
		})
	}
}
