// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/knobo/simple-queue-management-sub000/app/dto"
	"github.com/knobo/simple-queue-management-sub000/app/middleware"
	businessflow "github.com/knobo/simple-queue-management-sub000/business_flow"
	"github.com/knobo/simple-queue-management-sub000/utils"
)

// TicketHandlerInterface defines the contract for ticket lifecycle handlers
type TicketHandlerInterface interface {
	IssueTicket(c fiber.Ctx) error
	CallNext(c fiber.Ctx) error
	Serve(c fiber.Ctx) error
	Complete(c fiber.Ctx) error
	Cancel(c fiber.Ctx) error
}

// TicketHandler handles ticket lifecycle HTTP requests
type TicketHandler struct {
	ticketFlow businessflow.TicketFlow
	validator  *validator.Validate
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(ticketFlow businessflow.TicketFlow) *TicketHandler {
	return &TicketHandler{
		ticketFlow: ticketFlow,
		validator:  validator.New(),
	}
}

// IssueTicket issues a ticket into an owned queue
func (h *TicketHandler) IssueTicket(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	queueUUID, err := utils.ParseUUID(c.Params("uuid"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid queue UUID", "INVALID_REQUEST", nil)
	}

	var req dto.IssueTicketRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.ticketFlow.IssueTicket(createRequestContext(c, "/api/v1/queues/:uuid/tickets"), operatorID, queueUUID, &req, metadata)
	if err != nil {
		switch {
		case businessflow.IsQueueNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Queue not found", "QUEUE_NOT_FOUND", nil)
		case businessflow.IsQueueClosed(err):
			return errorResponse(c, fiber.StatusConflict, "Queue is closed", "QUEUE_CLOSED", nil)
		case businessflow.IsMissingStageMapping(err):
			return errorResponse(c, fiber.StatusUnprocessableEntity, "Queue has no waiting stage", "MISSING_STAGE_MAPPING", nil)
		default:
			log.Println("Ticket issue failed", err)
			return errorResponse(c, fiber.StatusInternalServerError, "Ticket issue failed", "TICKET_ISSUE_FAILED", nil)
		}
	}

	middleware.TicketsIssuedTotal.WithLabelValues(queueUUID.String()).Inc()

	return successResponse(c, fiber.StatusCreated, "Ticket issued", result)
}

// CallNext calls the next waiting ticket in a queue
func (h *TicketHandler) CallNext(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	queueUUID, err := utils.ParseUUID(c.Params("uuid"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid queue UUID", "INVALID_REQUEST", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.ticketFlow.CallNext(createRequestContext(c, "/api/v1/queues/:uuid/call-next"), operatorID, queueUUID, metadata)
	if err != nil {
		switch {
		case businessflow.IsQueueNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Queue not found", "QUEUE_NOT_FOUND", nil)
		case businessflow.IsMissingStageMapping(err):
			return errorResponse(c, fiber.StatusUnprocessableEntity, "Queue has no called stage", "MISSING_STAGE_MAPPING", nil)
		default:
			log.Println("Call next failed", err)
			return errorResponse(c, fiber.StatusInternalServerError, "Call next failed", "TICKET_CALL_FAILED", nil)
		}
	}

	if result.Called {
		middleware.TicketsCalledTotal.WithLabelValues(queueUUID.String()).Inc()
	}

	return successResponse(c, fiber.StatusOK, "Call next processed", result)
}

// Serve calls a specific ticket out of order
func (h *TicketHandler) Serve(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	queueUUID, err := utils.ParseUUID(c.Params("uuid"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid queue UUID", "INVALID_REQUEST", nil)
	}

	ticketUUID, err := utils.ParseUUID(c.Params("ticketUUID"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid ticket UUID", "INVALID_REQUEST", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.ticketFlow.Serve(createRequestContext(c, "/api/v1/queues/:uuid/tickets/:ticketUUID/serve"), operatorID, queueUUID, ticketUUID, metadata)
	if err != nil {
		switch {
		case businessflow.IsQueueNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Queue not found", "QUEUE_NOT_FOUND", nil)
		case businessflow.IsTicketNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Ticket not found", "TICKET_NOT_FOUND", nil)
		case businessflow.IsTicketNotInQueue(err):
			return errorResponse(c, fiber.StatusConflict, "Ticket belongs to another queue", "CROSS_QUEUE_TICKET", nil)
		case businessflow.IsInvalidTicketTransition(err):
			return errorResponse(c, fiber.StatusConflict, "Ticket cannot be called from its current status", "INVALID_TRANSITION", nil)
		case businessflow.IsMissingStageMapping(err):
			return errorResponse(c, fiber.StatusUnprocessableEntity, "Queue has no called stage", "MISSING_STAGE_MAPPING", nil)
		default:
			log.Println("Serve failed", err)
			return errorResponse(c, fiber.StatusInternalServerError, "Serve failed", "TICKET_SERVE_FAILED", nil)
		}
	}

	return successResponse(c, fiber.StatusOK, "Ticket called", result)
}

// Complete finishes a called ticket
func (h *TicketHandler) Complete(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	ticketUUID, err := utils.ParseUUID(c.Params("ticketUUID"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid ticket UUID", "INVALID_REQUEST", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.ticketFlow.Complete(createRequestContext(c, "/api/v1/tickets/:ticketUUID/complete"), operatorID, ticketUUID, metadata)
	if err != nil {
		switch {
		case businessflow.IsTicketNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Ticket not found", "TICKET_NOT_FOUND", nil)
		case businessflow.IsInvalidTicketTransition(err):
			return errorResponse(c, fiber.StatusConflict, "Ticket cannot be completed from its current status", "INVALID_TRANSITION", nil)
		case businessflow.IsMissingStageMapping(err):
			return errorResponse(c, fiber.StatusUnprocessableEntity, "Queue has no completed stage", "MISSING_STAGE_MAPPING", nil)
		default:
			log.Println("Complete failed", err)
			return errorResponse(c, fiber.StatusInternalServerError, "Complete failed", "TICKET_COMPLETE_FAILED", nil)
		}
	}

	return successResponse(c, fiber.StatusOK, "Ticket completed", result)
}

// Cancel abandons a waiting or called ticket
func (h *TicketHandler) Cancel(c fiber.Ctx) error {
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
