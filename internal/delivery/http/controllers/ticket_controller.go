package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"
)

// PurchaseRequest is the request body for POST /events/{eventID}/purchases.
// An empty ticket_type_id buys the event's first ticket type.
type PurchaseRequest struct {
	TicketTypeID  string `json:"ticket_type_id"`
	Quantity      int    `json:"quantity"`
	AddToCalendar bool   `json:"add_to_calendar"`
}

// Validate implements Validator.
func (p PurchaseRequest) Validate() []string {
	if p.Quantity < 1 {
		return []string{"quantity must be >= 1"}
	}
	return nil
}

// PurchaseSuccessResponse is the success envelope for POST /events/{eventID}/purchases (201).
type PurchaseSuccessResponse struct {
	Data  *domain.PurchaseResult `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// TicketSuccessResponse is the success envelope for endpoints returning one ticket.
type TicketSuccessResponse struct {
	Data  *domain.Ticket    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// TicketsSuccessResponse is the success envelope for GET /me/tickets (200).
type TicketsSuccessResponse struct {
	Data  []*domain.Ticket  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CredentialResponse is the data of GET /tickets/{ticketID}/credential.
type CredentialResponse struct {
	TicketID string `json:"ticket_id"`
	Code     string `json:"code"`
	ScanURI  string `json:"scan_uri"`
}

// CredentialSuccessResponse is the success envelope for GET /tickets/{ticketID}/credential (200).
type CredentialSuccessResponse struct {
	Data  CredentialResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// VerifyCredentialRequest is the request body for POST /check-ins.
type VerifyCredentialRequest struct {
	Code string `json:"code"`
}

// Validate implements Validator.
func (v VerifyCredentialRequest) Validate() []string {
	if strings.TrimSpace(v.Code) == "" {
		return []string{"code is required"}
	}
	return nil
}

type TicketController struct {
	Logger *slog.Logger
	Ledger domain.TicketLedgerService
	Issuer domain.CredentialIssuer
}

func NewTicketController(logger *slog.Logger, ledger domain.TicketLedgerService, issuer domain.CredentialIssuer) *TicketController {
	return &TicketController{
		Logger: logger,
		Ledger: ledger,
		Issuer: issuer,
	}
}

// Purchase godoc
// @Summary Buy tickets
// @Description Authorizes payment, reserves inventory and issues quantity tickets to the caller. All or nothing.
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body PurchaseRequest true "Purchase"
// @Success 201 {object} controllers.PurchaseSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 402 {object} helpers.APIResponse "error.code: payment_required"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (sold out)"
// @Router /events/{eventID}/purchases [post]
func (c *TicketController) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathParam(w, r, "eventID")
	if !ok {
		return
	}
	var req PurchaseRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Ledger.Purchase(r.Context(), domain.PurchaseRequest{
		EventID:       eventID,
		TicketTypeID:  req.TicketTypeID,
		OwnerID:       userID,
		Quantity:      req.Quantity,
		AddToCalendar: req.AddToCalendar,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, result)
}

// ListMyTickets godoc
// @Summary List the caller's tickets
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.TicketsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /me/tickets [get]
func (c *TicketController) ListMyTickets(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tickets, err := c.Ledger.ListTicketsByOwner(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tickets)
}

// GetTicket godoc
// @Summary Get one of the caller's tickets
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param ticketID path string true "Ticket ID"
// @Success 200 {object} controllers.TicketSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /tickets/{ticketID} [get]
func (c *TicketController) GetTicket(w http.ResponseWriter, r *http.Request) {
	t, ok := c.ownedTicket(w, r)
	if !ok {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, t)
}

// GetCredential godoc
// @Summary Get a ticket's scannable credential
// @Description Returns the credential code and the URI to encode in a QR code.
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param ticketID path string true "Ticket ID"
// @Success 200 {object} controllers.CredentialSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /tickets/{ticketID}/credential [get]
func (c *TicketController) GetCredential(w http.ResponseWriter, r *http.Request) {
	t, ok := c.ownedTicket(w, r)
	if !ok {
		return
	}
	code, err := c.Ledger.RegenerateCredential(r.Context(), t.ID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CredentialResponse{
		TicketID: t.ID,
		Code:     code,
		ScanURI:  c.Issuer.RenderAsScannable(code),
	})
}

// Cancel godoc
// @Summary Cancel one of the caller's tickets
// @Description Cancels a confirmed ticket and returns its seat to inventory.
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param ticketID path string true "Ticket ID"
// @Success 200 {object} controllers.TicketSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (used or canceled)"
// @Router /tickets/{ticketID}/cancel [post]
func (c *TicketController) Cancel(w http.ResponseWriter, r *http.Request) {
	t, ok := c.ownedTicket(w, r)
	if !ok {
		return
	}
	canceled, err := c.Ledger.Cancel(r.Context(), t.ID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, canceled)
}

// CheckIn godoc
// @Summary Check a ticket in by id
// @Description Marks a confirmed ticket as used. The caller is recorded as the checker.
// @Tags check-in
// @Produce json
// @Security BearerAuth
// @Param ticketID path string true "Ticket ID"
// @Success 200 {object} controllers.TicketSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already used or canceled)"
// @Router /tickets/{ticketID}/check-in [post]
func (c *TicketController) CheckIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ticketID, ok := pathParam(w, r, "ticketID")
	if !ok {
		return
	}
	t, err := c.Ledger.CheckIn(r.Context(), ticketID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, t)
}

// VerifyCredential godoc
// @Summary Check a ticket in by scanned credential
// @Tags check-in
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body VerifyCredentialRequest true "Scanned credential"
// @Success 200 {object} controllers.TicketSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already used or canceled)"
// @Failure 422 {object} helpers.APIResponse "error.code: unprocessable (malformed credential)"
// @Router /check-ins [post]
func (c *TicketController) VerifyCredential(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req VerifyCredentialRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	t, err := c.Ledger.VerifyCredential(r.Context(), strings.TrimSpace(req.Code), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, t)
}

// ownedTicket loads the path ticket and answers 404 unless the caller owns it.
func (c *TicketController) ownedTicket(w http.ResponseWriter, r *http.Request) (*domain.Ticket, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}
	ticketID, ok := pathParam(w, r, "ticketID")
	if !ok {
		return nil, false
	}
	t, err := c.Ledger.GetTicket(r.Context(), ticketID)
	if err == nil && t.OwnerID != userID {
		err = domain.ErrTicketNotFound
	}
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return nil, false
	}
	return t, true
}
