// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/knobo/simple-queue-management-sub000/app/dto"
	"github.com/knobo/simple-queue-management-sub000/app/middleware"
	businessflow "github.com/knobo/simple-queue-management-sub000/business_flow"
	"github.com/knobo/simple-queue-management-sub000/utils"
)

// PublicHandlerInterface defines the contract for unauthenticated customer endpoints
type PublicHandlerInterface interface {
	Join(c fiber.Ctx) error
	TicketStatus(c fiber.Ctx) error
	PublicStatus(c fiber.Ctx) error
	CancelTicket(c fiber.Ctx) error
}

// PublicHandler handles unauthenticated customer HTTP requests
type PublicHandler struct {
	tokenFlow  businessflow.AccessTokenFlow
	statusFlow businessflow.QueueStatusFlow
	ticketFlow businessflow.TicketFlow
	validator  *validator.Validate
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(tokenFlow businessflow.AccessTokenFlow, statusFlow businessflow.QueueStatusFlow, ticketFlow businessflow.TicketFlow) *PublicHandler {
	return &PublicHandler{
		tokenFlow:  tokenFlow,
		statusFlow: statusFlow,
		ticketFlow: ticketFlow,
		validator:  validator.New(),
	}
}

// Join admits a customer into a queue with a join token
func (h *PublicHandler) Join(c fiber.Ctx) error {
	var req dto.JoinRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.tokenFlow.Join(createRequestContext(c, "/api/v1/join"), &req, metadata)
	if err != nil {
		switch {
		case businessflow.IsTokenInvalid(err):
			// One generic answer for unknown, expired, exhausted and retired codes
			return errorResponse(c, fiber.StatusUnprocessableEntity, "Token is invalid", "TOKEN_INVALID", nil)
		case businessflow.IsQueueClosed(err):
			return errorResponse(c, fiber.StatusConflict, "Queue is closed", "QUEUE_CLOSED", nil)
		default:
			log.Println("Join failed", err)
			return errorResponse(c, fiber.StatusInternalServerError, "Join failed", "JOIN_FAILED", nil)
		}
	}

	middleware.JoinsTotal.Inc()

	return successResponse(c, fiber.StatusCreated, "Joined queue", result)
}

// TicketStatus reports a ticket's live position by its UUID
func (h *PublicHandler) TicketStatus(c fiber.Ctx) error {
	ticketUUID, err := utils.ParseUUID(c.Params("ticketUUID"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid ticket UUID", "INVALID_REQUEST", nil)
	}

	result, err := h.statusFlow.TicketStatus(createRequestContext(c, "/api/v1/tickets/:ticketUUID"), ticketUUID)
	if err != nil {
		if businessflow.IsTicketNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Ticket not found", "TICKET_NOT_FOUND", nil)
		}
		log.Println("Ticket status failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Ticket status failed", "STATUS_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Ticket status retrieved", result)
}

// PublicStatus reports an approximate position from a display token and a
// printed ticket number
func (h *PublicHandler) PublicStatus(c fiber.Ctx) error {
	displayToken := c.Query("display_token")
	if displayToken == "" {
		return errorResponse(c, fiber.StatusBadRequest, "display_token is required", "INVALID_REQUEST", nil)
	}

	number, err := strconv.ParseInt(c.Query("number"), 10, 64)
	if err != nil || number < 1 {
		return errorResponse(c, fiber.StatusBadRequest, "number must be a positive integer", "INVALID_REQUEST", nil)
	}

	result, err := h.statusFlow.PublicStatus(createRequestContext(c, "/api/v1/status"), displayToken, number)
	if err != nil {
		if businessflow.IsQueueNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Queue not found", "QUEUE_NOT_FOUND", nil)
		}
		log.Println("Public status failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Public status failed", "STATUS_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Queue status retrieved", result)
}

// CancelTicket lets a customer abandon their ticket by UUID
func (h *PublicHandler) CancelTicket(c fiber.Ctx) error {
	ticketUUID, err := utils.ParseUUID(c.Params("ticketUUID"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid ticket UUID", "INVALID_REQUEST", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.ticketFlow.Cancel(createRequestContext(c, "/api/v1/tickets/:ticketUUID/cancel"), ticketUUID, metadata)
	if err != nil {
		switch {
		case businessflow.IsTicketNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Ticket not found", "TICKET_NOT_FOUND", nil)
		case businessflow.IsInvalidTicketTransition(err):
			return errorResponse(c, fiber.StatusConflict, "Ticket cannot be cancelled from its current status", "INVALID_TRANSITION", nil)
		default:
			log.Println("Cancel failed", err)
			return errorResponse(c, fiber.StatusInternalServerError, "Cancel failed", "TICKET_CANCEL_FAILED", nil)
		}
	}

	return successResponse(c, fiber.StatusOK, "Ticket cancelled", result)
}
