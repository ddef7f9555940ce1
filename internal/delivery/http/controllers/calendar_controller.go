package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"eventticketing/internal/clock"
	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"
)

// AddReminderRequest is the request body for POST /me/calendar/events/{eventID}/reminders.
type AddReminderRequest struct {
	MinutesBefore int    `json:"minutes_before"`
	Message       string `json:"message"`
}

// Validate implements Validator.
func (a AddReminderRequest) Validate() []string {
	if a.MinutesBefore < 1 {
		return []string{"minutes_before must be >= 1"}
	}
	return nil
}

// CalendarEntrySuccessResponse is the success envelope for POST /me/calendar/events/{eventID} (201).
type CalendarEntrySuccessResponse struct {
	Data  *domain.CalendarEntry `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// CalendarEntriesSuccessResponse is the success envelope for GET /me/calendar (200).
type CalendarEntriesSuccessResponse struct {
	Data  []*domain.CalendarEntry `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// ReminderSuccessResponse is the success envelope for endpoints returning one reminder.
type ReminderSuccessResponse struct {
	Data  *domain.Reminder  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// RemindersSuccessResponse is the success envelope for GET /me/calendar/reminders/upcoming (200).
type RemindersSuccessResponse struct {
	Data  []*domain.Reminder `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

type CalendarController struct {
	Logger   *slog.Logger
	Calendar domain.CalendarService
	Clock    clock.Clock
}

func NewCalendarController(logger *slog.Logger, calendar domain.CalendarService, clk clock.Clock) *CalendarController {
	return &CalendarController{
		Logger:   logger,
		Calendar: calendar,
		Clock:    clk,
	}
}

// ListEntries godoc
// @Summary List the caller's calendar
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.CalendarEntriesSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /me/calendar [get]
func (c *CalendarController) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	entries, err := c.Calendar.ListEntries(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, entries)
}

// AddEvent godoc
// @Summary Add an event to the caller's calendar
// @Description Snapshots the event and schedules the default reminders (1 day and 2 hours before) that are still in the future.
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 201 {object} controllers.CalendarEntrySuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already in calendar)"
// @Router /me/calendar/events/{eventID} [post]
func (c *CalendarController) AddEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	entry, err := c.Calendar.Add(r.Context(), userID, eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, entry)
}

// RemoveEvent godoc
// @Summary Remove an event from the caller's calendar
// @Description Deletes the entry and all of its reminders.
// @Tags calendar
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 204 "No Content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /me/calendar/events/{eventID} [delete]
func (c *CalendarController) RemoveEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	if err := c.Calendar.Remove(r.Context(), userID, eventID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddReminder godoc
// @Summary Schedule a reminder
// @Description Adds a reminder minutes_before the event start. The event is added to the calendar if needed.
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body AddReminderRequest true "Reminder"
// @Success 201 {object} controllers.ReminderSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: unprocessable (fire time already passed)"
// @Router /me/calendar/events/{eventID}/reminders [post]
func (c *CalendarController) AddReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	var req AddReminderRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	rem, err := c.Calendar.AddReminder(r.Context(), userID, eventID, req.MinutesBefore, req.Message)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, rem)
}

// ListUpcoming godoc
// @Summary List the caller's upcoming reminders
// @Description Pending reminders that have not fired yet, earliest first.
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum number of reminders (default all)"
// @Success 200 {object} controllers.RemindersSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /me/calendar/reminders/upcoming [get]
func (c *CalendarController) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "limit must be a positive integer")
			return
		}
		limit = v
	}
	seq, err := c.Calendar.ListUpcoming(r.Context(), userID, c.Clock.Now())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	reminders := make([]*domain.Reminder, 0)
	for rem := range seq {
		reminders = append(reminders, rem)
		if limit > 0 && len(reminders) == limit {
			break
		}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reminders)
}

// MarkSent godoc
// @Summary Mark a reminder as delivered
// @Description Idempotent: marking a sent reminder again returns it unchanged.
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param reminderID path string true "Reminder ID"
// @Success 200 {object} controllers.ReminderSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /me/calendar/reminders/{reminderID}/sent [post]
func (c *CalendarController) MarkSent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	reminderID, ok := pathParam(w, r, "reminderID")
	if !ok {
		return
	}
	rem, err := c.Calendar.GetReminder(r.Context(), reminderID)
	if err == nil && rem.OwnerID != userID {
		err = domain.ErrReminderNotFound
	}
	if err == nil {
		rem, err = c.Calendar.MarkSent(r.Context(), reminderID)
	}
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rem)
}

// RemoveReminder godoc
// @Summary Delete a reminder
// @Tags calendar
// @Security BearerAuth
// @Param reminderID path string true "Reminder ID"
// @Success 204 "No Content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /me/calendar/reminders/{reminderID} [delete]
func (c *CalendarController) RemoveReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	reminderID, ok := pathParam(w, r, "reminderID")
	if !ok {
		return
	}
	if err := c.Calendar.RemoveReminder(r.Context(), userID, reminderID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportCalendar godoc
// @Summary Download the caller's calendar as iCalendar
// @Tags calendar
// @Produce text/calendar
// @Security BearerAuth
// @Success 200 {string} string "iCalendar document"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /me/calendar.ics [get]
func (c *CalendarController) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	doc, err := c.Calendar.ExportCalendar(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteCalendar(w, "calendar.ics", doc)
}
