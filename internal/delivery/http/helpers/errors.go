package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventticketing/internal/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domain.ErrEventNotFound, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrTicketNotFound, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrUnknownTicketType, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrNotInCalendar, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrReminderNotFound, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrInsufficientInventory, http.StatusConflict, ErrCodeConflict},
	{domain.ErrAlreadyUsed, http.StatusConflict, ErrCodeConflict},
	{domain.ErrTicketCanceled, http.StatusConflict, ErrCodeConflict},
	{domain.ErrCannotCancelUsedTicket, http.StatusConflict, ErrCodeConflict},
	{domain.ErrAlreadyInCalendar, http.StatusConflict, ErrCodeConflict},
	{domain.ErrConflict, http.StatusConflict, ErrCodeConflict},
	{domain.ErrPaymentDeclined, http.StatusPaymentRequired, ErrCodePaymentRequired},
	{domain.ErrMalformedCredential, http.StatusUnprocessableEntity, ErrCodeUnprocessable},
	{domain.ErrReminderInPast, http.StatusUnprocessableEntity, ErrCodeUnprocessable},
	{domain.ErrInvalidReminderOffset, http.StatusBadRequest, ErrCodeBadRequest},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, ErrCodeBadRequest},
	{domain.ErrInvalidInput, http.StatusBadRequest, ErrCodeBadRequest},
}

// StatusForError returns the HTTP status and API error code for a service error.
// Unrecognized errors map to 500.
func StatusForError(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// WriteServiceError writes the API error for err. Unrecognized errors are logged
// and reported without their internal message.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := StatusForError(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, status, code, "internal server error")
		return
	}
	WriteJSONError(w, status, code, err.Error())
}
