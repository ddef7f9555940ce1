package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Location    string     `json:"location"`
	Capacity    int        `json:"capacity"`
	BasePrice   *float64   `json:"base_price"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.StartsAt.IsZero() {
		errs = append(errs, "starts_at is required")
	}
	if c.EndsAt != nil && c.EndsAt.Before(c.StartsAt) {
		errs = append(errs, "ends_at must not be before starts_at")
	}
	if c.Capacity < 0 {
		errs = append(errs, "capacity must be >= 0")
	}
	if c.BasePrice != nil && *c.BasePrice < 0 {
		errs = append(errs, "base_price must be >= 0")
	}
	return errs
}

// EventSuccessResponse is the success envelope for endpoints returning one event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListEventsResponse is the data of GET /events.
type ListEventsResponse struct {
	Items      []*domain.Event        `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListEventsSuccessResponse is the success envelope for GET /events (200).
type ListEventsSuccessResponse struct {
	Data  ListEventsResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// CreateTicketTypeRequest is the request body for POST /events/{eventID}/ticket-types.
type CreateTicketTypeRequest struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Available int     `json:"available"`
}

// Validate implements Validator.
func (c CreateTicketTypeRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if c.Price < 0 {
		errs = append(errs, "price must be >= 0")
	}
	if c.Available < 0 {
		errs = append(errs, "available must be >= 0")
	}
	return errs
}

// TicketTypeSuccessResponse is the success envelope for POST /events/{eventID}/ticket-types (201).
type TicketTypeSuccessResponse struct {
	Data  *domain.TicketType `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// TicketTypesSuccessResponse is the success envelope for GET /events/{eventID}/ticket-types (200).
type TicketTypesSuccessResponse struct {
	Data  []*domain.TicketType `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type EventController struct {
	Logger    *slog.Logger
	Events    domain.EventService
	Inventory domain.InventoryService
	Calendar  domain.CalendarService
}

func NewEventController(logger *slog.Logger, events domain.EventService, inventory domain.InventoryService, calendar domain.CalendarService) *EventController {
	return &EventController{
		Logger:    logger,
		Events:    events,
		Inventory: inventory,
		Calendar:  calendar,
	}
}

// CreateEvent godoc
// @Summary Create an event
// @Description Adds an event to the catalog. Without explicit ticket types the event sells a single "Standard Admission" type sized by capacity.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event := &domain.Event{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Location:    req.Location,
		Capacity:    req.Capacity,
		BasePrice:   req.BasePrice,
	}
	if err := c.Events.CreateEvent(r.Context(), event); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListEvents godoc
// @Summary List events
// @Description Returns catalog events ordered by start time. Public.
// @Tags events
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	events, total, err := c.Events.ListEvents(r.Context(), params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsResponse{
		Items:      events,
		Pagination: helpers.NewPaginationMeta(params, total),
	})
}

// GetEvent godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Events.GetEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ExportEventCalendar godoc
// @Summary Download an event as iCalendar
// @Description Returns a single-event VCALENDAR document. Public.
// @Tags events
// @Produce text/calendar
// @Param eventID path string true "Event ID"
// @Success 200 {string} string "iCalendar document"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/calendar.ics [get]
func (c *EventController) ExportEventCalendar(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	doc, err := c.Calendar.ExportEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteCalendar(w, "event-"+eventID+".ics", doc)
}

// ListTicketTypes godoc
// @Summary List an event's ticket types
// @Description Returns the event's ticket types with remaining inventory. An event without types gets its default type on first read. Public.
// @Tags ticket-types
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.TicketTypesSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/ticket-types [get]
func (c *EventController) ListTicketTypes(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	types, err := c.Inventory.GetOrDefaultTicketTypes(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, types)
}

// CreateTicketType godoc
// @Summary Add a ticket type to an event
// @Tags ticket-types
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body CreateTicketTypeRequest true "Ticket type"
// @Success 201 {object} controllers.TicketTypeSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/ticket-types [post]
func (c *EventController) CreateTicketType(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	var req CreateTicketTypeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	tt, err := c.Inventory.CreateTicketType(r.Context(), eventID, req.Name, req.Price, req.Available)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, tt)
}
