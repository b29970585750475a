package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles the application services the router exposes.
type Services struct {
	Tickets       interface{ TicketReader; TicketEditor }
	Events        interface{ EventReader; EventWriter }
	SavedEvents   SavedEventService
	Payments      PaymentMethodService
	Accounts      AccountManager
	Notifications NotificationReader
	Checkout      Purchaser
}

// NewRouter assembles the full HTTP API.
func NewRouter(svcs Services, logger *log.Logger, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Use(CORS(corsOrigins))
	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", HealthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/events", func(r chi.Router) {
		r.Post("/", HandleSaveEventDetails(svcs.Events))
		r.Get("/", HandleListEvents(svcs.Events))
		r.Post("/search", HandleFindEvents(svcs.Events))
		r.Get("/{eventID}", HandleGetEvent(svcs.Events))
		r.Delete("/{eventID}", HandleCancelEvent(svcs.Checkout))
	})
	r.Get("/categories", HandleListCategories(svcs.Events))

	r.Route("/saved-events", func(r chi.Router) {
		r.Post("/", HandleSaveEvent(svcs.SavedEvents))
		r.Get("/", HandleListSavedEvents(svcs.SavedEvents))
		r.Post("/check", HandleCheckSavedEvents(svcs.SavedEvents))
		r.Delete("/{savedEventID}", HandleUnsaveEvent(svcs.SavedEvents))
	})

	r.Route("/tickets", func(r chi.Router) {
		r.Get("/", HandleListTickets(svcs.Tickets))
		r.Get("/{ticketID}", HandleGetTicket(svcs.Tickets))
		r.Put("/{ticketID}", HandleUpdateTicket(svcs.Tickets))
		r.Post("/{ticketID}/review", HandleReviewTicket(svcs.Tickets))
		r.Delete("/{ticketID}", HandleCancelTicket(svcs.Checkout))
	})
	r.Get("/ticket-options/availability", HandleCheckAvailability(svcs.Tickets))
	r.Get("/ticket-options/prices", HandleGetPrices(svcs.Events))

	r.Post("/checkout", HandlePurchase(svcs.Checkout))
	r.Get("/attendance", HandleAttendance(svcs.Tickets))
	r.Get("/statistics", HandleStatistics(svcs.Tickets))

	r.Route("/payment-methods", func(r chi.Router) {
		r.Get("/", HandleListPaymentMethods(svcs.Payments))
		r.Post("/cards", HandleAddCard(svcs.Payments))
		r.Post("/transfers", HandleTransfer(svcs.Payments))
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/{accountID}", HandleGetAccount(svcs.Accounts))
		r.Post("/attendees", HandleCreateAttendee(svcs.Accounts))
		r.Post("/organizers", HandleCreateOrganizer(svcs.Accounts))
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", HandleListNotifications(svcs.Notifications))
		r.Post("/read-all", HandleMarkAllNotificationsRead(svcs.Notifications))
		r.Post("/{notificationID}/read", HandleMarkNotificationRead(svcs.Notifications))
	})

	return r
}
