package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

// EventWriter is the minimal interface needed for event mutation endpoints.
type EventWriter interface {
	AddOrUpdateEvent(ctx context.Context, event domain.Event) (domain.Event, error)
	IsValidCategory(ctx context.Context, ids []uuid.UUID) (bool, error)
}

// EventReader is the minimal interface needed for event read endpoints.
type EventReader interface {
	GetEvent(ctx context.Context, eventID uuid.UUID, includeCollections bool) (*domain.Event, error)
	GetEvents(ctx context.Context, organizerID uuid.UUID) ([]domain.Event, error)
	FindEvents(ctx context.Context, f domain.EventFilter) ([]domain.Event, error)
	GetPrice(ctx context.Context, optionIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	GetCategories(ctx context.Context) ([]domain.Category, error)
}

type ticketOptionRequest struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
	AmountAvailable int             `json:"amount_available"`
}

type eventRequest struct {
	ID          uuid.UUID `json:"id"`
	OrganizerID uuid.UUID `json:"organizer_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Location    string    `json:"location"`

	Price     decimal.Decimal `json:"price"`
	BannerURI string          `json:"banner_uri"`

	TicketOptions []ticketOptionRequest `json:"ticket_options"`
	CategoryIDs   []uuid.UUID           `json:"category_ids"`
}

func (req eventRequest) toDomain() domain.Event {
	event := domain.Event{
		ID:          req.ID,
		Organizer:   domain.Organizer{ID: req.OrganizerID},
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Location:    req.Location,
		Price:       req.Price,
		BannerURI:   req.BannerURI,
	}
	for _, o := range req.TicketOptions {
		event.TicketOptions = append(event.TicketOptions, domain.TicketOption{
			ID:              o.ID,
			Name:            o.Name,
			Description:     o.Description,
			AdditionalPrice: o.AdditionalPrice,
			AmountAvailable: o.AmountAvailable,
		})
	}
	if req.CategoryIDs != nil {
		event.Categories = make([]domain.Category, len(req.CategoryIDs))
		for i, id := range req.CategoryIDs {
			event.Categories[i] = domain.Category{ID: id}
		}
	}
	return event
}

// HandleSaveEventDetails creates or updates an event with its ticket
// options and categories. A zero event id means create.
func HandleSaveEventDetails(svc EventWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req eventRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if len(req.CategoryIDs) > 0 {
			valid, err := svc.IsValidCategory(r.Context(), req.CategoryIDs)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			if !valid {
				writeError(w, http.StatusBadRequest, codeCategoryNotFound, domain.ErrCategoryNotFound.Error())
				return
			}
		}

		created := req.ID == uuid.Nil
		event, err := svc.AddOrUpdateEvent(r.Context(), req.toDomain())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, toEventResponse(event))
	}
}

// HandleGetEvent returns one event; include=collections pulls the ticket
// options and categories too.
func HandleGetEvent(svc EventReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, ok := pathID(w, r, "eventID")
		if !ok {
			return
		}
		include := r.URL.Query().Get("include") == "collections"
		event, err := svc.GetEvent(r.Context(), eventID, include)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if event == nil {
			writeError(w, http.StatusNotFound, codeEventNotFound, domain.ErrEventNotFound.Error())
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(*event))
	}
}

// HandleListEvents lists an organizer's events.
func HandleListEvents(svc EventReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organizerID, ok := queryID(w, r, "organizer_id")
		if !ok {
			return
		}
		events, err := svc.GetEvents(r.Context(), organizerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponses(events))
	}
}

type findEventsRequest struct {
	CategoryIDs []uuid.UUID      `json:"category_ids"`
	MinDate     *time.Time       `json:"min_date"`
	MaxDate     *time.Time       `json:"max_date"`
	MinPrice    *decimal.Decimal `json:"min_price"`
	MaxPrice    *decimal.Decimal `json:"max_price"`
	Locations   []string         `json:"locations"`
	Keywords    string           `json:"keywords"`
}

// HandleFindEvents searches events by category, date and price range,
// location and free-text keywords. Empty filters match everything.
func HandleFindEvents(svc EventReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req findEventsRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		events, err := svc.FindEvents(r.Context(), domain.EventFilter{
			CategoryIDs: req.CategoryIDs,
			MinDate:     req.MinDate,
			MaxDate:     req.MaxDate,
			MinPrice:    req.MinPrice,
			MaxPrice:    req.MaxPrice,
			Locations:   req.Locations,
			Keywords:    req.Keywords,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponses(events))
	}
}

// HandleGetPrices resolves the effective price (base plus option surcharge)
// for each requested ticket option.
func HandleGetPrices(svc EventReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		optionIDs, err := parseIDs(r.URL.Query()["option_id"])
		if err != nil || len(optionIDs) == 0 {
			writeError(w, http.StatusBadRequest, codeInvalidID, "invalid option_id")
			return
		}
		prices, err := svc.GetPrice(r.Context(), optionIDs)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make(map[string]decimal.Decimal, len(prices))
		for id, price := range prices {
			resp[id.String()] = price
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleListCategories lists all event categories.
func HandleListCategories(svc EventReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.GetCategories(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]categoryResponse, 0, len(categories))
		for _, category := range categories {
			resp = append(resp, toCategoryResponse(category))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
