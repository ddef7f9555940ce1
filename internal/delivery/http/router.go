package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventticketing/internal/delivery/http/controllers"
	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Events   *controllers.EventController
	Tickets  *controllers.TicketController
	Calendar *controllers.CalendarController
}

// NewRouter initializes the HTTP router with all application routes.
// Routes other than the catalog reads, the event download, health and swagger require a bearer token.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Catalog
	mux.HandleFunc("GET /events", c.Events.ListEvents)
	mux.HandleFunc("POST /events", auth(c.Events.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", c.Events.GetEvent)
	mux.HandleFunc("GET /events/{eventID}/calendar.ics", c.Events.ExportEventCalendar)
	mux.HandleFunc("GET /events/{eventID}/ticket-types", c.Events.ListTicketTypes)
	mux.HandleFunc("POST /events/{eventID}/ticket-types", auth(c.Events.CreateTicketType))

	// Tickets
	mux.HandleFunc("POST /events/{eventID}/purchases", auth(c.Tickets.Purchase))
	mux.HandleFunc("GET /me/tickets", auth(c.Tickets.ListMyTickets))
	mux.HandleFunc("GET /tickets/{ticketID}", auth(c.Tickets.GetTicket))
	mux.HandleFunc("GET /tickets/{ticketID}/credential", auth(c.Tickets.GetCredential))
	mux.HandleFunc("POST /tickets/{ticketID}/check-in", auth(c.Tickets.CheckIn))
	mux.HandleFunc("POST /tickets/{ticketID}/cancel", auth(c.Tickets.Cancel))
	mux.HandleFunc("POST /check-ins", auth(c.Tickets.VerifyCredential))

	// Calendar
	mux.HandleFunc("GET /me/calendar", auth(c.Calendar.ListEntries))
	mux.HandleFunc("GET /me/calendar.ics", auth(c.Calendar.ExportCalendar))
	mux.HandleFunc("POST /me/calendar/events/{eventID}", auth(c.Calendar.AddEvent))
	mux.HandleFunc("DELETE /me/calendar/events/{eventID}", auth(c.Calendar.RemoveEvent))
	mux.HandleFunc("POST /me/calendar/events/{eventID}/reminders", auth(c.Calendar.AddReminder))
	mux.HandleFunc("GET /me/calendar/reminders/upcoming", auth(c.Calendar.ListUpcoming))
	mux.HandleFunc("POST /me/calendar/reminders/{reminderID}/sent", auth(c.Calendar.MarkSent))
	mux.HandleFunc("DELETE /me/calendar/reminders/{reminderID}", auth(c.Calendar.RemoveReminder))

	mux.HandleFunc("GET /health", Health)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse
// @Router /health [get]
func Health(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
