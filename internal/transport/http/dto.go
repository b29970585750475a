package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eventflow/eventflow-backend/internal/domain"
)

type eventResponse struct {
	ID          uuid.UUID `json:"id"`
	OrganizerID uuid.UUID `json:"organizer_id"`
	Organizer   string    `json:"organizer"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Location    string    `json:"location,omitempty"`

	Price      decimal.Decimal `json:"price"`
	Interested int             `json:"interested"`
	Sold       int             `json:"sold"`
	BannerURI  string          `json:"banner_uri,omitempty"`

	TicketOptions []ticketOptionResponse `json:"ticket_options,omitempty"`
	Categories    []categoryResponse     `json:"categories,omitempty"`
}

type ticketOptionResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
	AmountAvailable int             `json:"amount_available"`
}

type categoryResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	ImageURI string    `json:"image_uri,omitempty"`
}

func toEventResponse(event domain.Event) eventResponse {
	resp := eventResponse{
		ID:          event.ID,
		OrganizerID: event.Organizer.ID,
		Organizer:   event.Organizer.Name,
		Name:        event.Name,
		Description: event.Description,
		StartDate:   event.StartDate,
		EndDate:     event.EndDate,
		Location:    event.Location,
		Price:       event.Price,
		Interested:  event.Interested,
		Sold:        event.Sold,
		BannerURI:   event.BannerURI,
	}
	for _, option := range event.TicketOptions {
		resp.TicketOptions = append(resp.TicketOptions, ticketOptionResponse{
			ID:              option.ID,
			Name:            option.Name,
			Description:     option.Description,
			AdditionalPrice: option.AdditionalPrice,
			AmountAvailable: option.AmountAvailable,
		})
	}
	for _, category := range event.Categories {
		resp.Categories = append(resp.Categories, toCategoryResponse(category))
	}
	return resp
}

func toEventResponses(events []domain.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, toEventResponse(event))
	}
	return out
}

func toCategoryResponse(category domain.Category) categoryResponse {
	return categoryResponse{
		ID:       category.ID,
		Name:     category.Name,
		ImageURI: category.ImageURI,
	}
}

type ticketResponse struct {
	ID          uuid.UUID       `json:"id"`
	AttendeeID  uuid.UUID       `json:"attendee_id"`
	EventID     uuid.UUID       `json:"event_id"`
	OrganizerID uuid.UUID       `json:"organizer_id"`
	OptionID    uuid.UUID       `json:"ticket_option_id"`
	OptionName  string          `json:"ticket_option"`
	Price       decimal.Decimal `json:"price"`
	PurchasedAt time.Time       `json:"purchased_at"`

	HolderFullName    string `json:"holder_full_name"`
	HolderEmail       string `json:"holder_email,omitempty"`
	HolderPhoneNumber string `json:"holder_phone_number,omitempty"`

	IsReviewed bool `json:"is_reviewed"`
}

func toTicketResponse(ticket domain.Ticket) ticketResponse {
	return ticketResponse{
		ID:                ticket.ID,
		AttendeeID:        ticket.AttendeeID,
		EventID:           ticket.EventID,
		OrganizerID:       ticket.OrganizerID,
		OptionID:          ticket.Option.ID,
		OptionName:        ticket.Option.Name,
		Price:             ticket.Price,
		PurchasedAt:       ticket.PurchasedAt,
		HolderFullName:    ticket.HolderFullName,
		HolderEmail:       ticket.HolderEmail,
		HolderPhoneNumber: ticket.HolderPhoneNumber,
		IsReviewed:        ticket.IsReviewed,
	}
}

func toTicketResponses(tickets []domain.Ticket) []ticketResponse {
	out := make([]ticketResponse, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, toTicketResponse(ticket))
	}
	return out
}

type paymentMethodResponse struct {
	ID          uuid.UUID       `json:"id"`
	Kind        string          `json:"kind"`
	DisplayName string          `json:"display_name"`
	Balance     decimal.Decimal `json:"balance"`
	CardNumber  string          `json:"card_number,omitempty"`
}

func toPaymentMethodResponse(method domain.PaymentMethod) paymentMethodResponse {
	resp := paymentMethodResponse{
		ID:          method.ID,
		Kind:        string(method.Kind),
		DisplayName: method.DisplayName,
		Balance:     method.Balance,
	}
	if method.Card != nil {
		resp.CardNumber = method.Card.Number
	}
	return resp
}

type notificationResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Topic     string    `json:"topic"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
}

func toNotificationResponse(n domain.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		CreatedAt: n.CreatedAt,
		Topic:     n.Topic,
		Message:   n.Message,
		IsRead:    n.IsRead,
	}
}

type statisticsResponse struct {
	TotalEvents   int               `json:"total_events"`
	TotalTickets  int               `json:"total_tickets"`
	TotalSales    decimal.Decimal   `json:"total_sales"`
	TotalReviewed int               `json:"total_reviewed"`
	DailySales    []decimal.Decimal `json:"daily_sales"`
}
