// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/knobo/simple-queue-management-sub000/app/dto"
	businessflow "github.com/knobo/simple-queue-management-sub000/business_flow"
	"github.com/knobo/simple-queue-management-sub000/utils"
)

// SessionHandlerInterface defines the contract for counter session handlers
type SessionHandlerInterface interface {
	StartSession(c fiber.Ctx) error
	EndSession(c fiber.Ctx) error
	EndSessionByID(c fiber.Ctx) error
	CurrentSession(c fiber.Ctx) error
}

// SessionHandler handles counter session HTTP requests
type SessionHandler struct {
	sessionFlow businessflow.SessionFlow
	validator   *validator.Validate
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionFlow businessflow.SessionFlow) *SessionHandler {
	return &SessionHandler{
		sessionFlow: sessionFlow,
		validator:   validator.New(),
	}
}

// StartSession signs the operator in at a counter
func (h *SessionHandler) StartSession(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	queueUUID, err := utils.ParseUUID(c.Params("uuid"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid queue UUID", "INVALID_REQUEST", nil)
	}

	var req dto.StartSessionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.sessionFlow.StartSession(createRequestContext(c, "/api/v1/queues/:uuid/sessions"), operatorID, queueUUID, req.CounterID, metadata)
	if err != nil {
		switch {
		case businessflow.IsQueueNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Queue not found", "QUEUE_NOT_FOUND", nil)
		case businessflow.IsCounterNotFound(err) || businessflow.IsCounterNotInQueue(err):
			return errorResponse(c, fiber.StatusNotFound, "Counter not found", "COUNTER_NOT_FOUND", nil)
		case businessflow.IsCounterInUse(err):
			return errorResponse(c, fiber.StatusConflict, "Counter is occupied by another operator", "COUNTER_IN_USE", nil)
		default:
			log.Println("Session start failed", err)
			return errorResponse(c, fiber.StatusInternalServerError, "Session start failed", "SESSION_START_FAILED", nil)
		}
	}

	return successResponse(c, fiber.StatusCreated, "Session started", result)
}

// EndSession signs the operator out of their counter
func (h *SessionHandler) EndSession(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if err := h.sessionFlow.EndSession(createRequestContext(c, "/api/v1/sessions/current"), operatorID, metadata); err != nil {
		log.Println("Session end failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Session end failed", "SESSION_END_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Session ended", nil)
}

// EndSessionByID lets the queue owner close a specific session
func (h *SessionHandler) EndSessionByID(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	sessionID, err := strconv.ParseUint(c.Params("sessionID"), 10, 32)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid session ID", "INVALID_REQUEST", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if err := h.sessionFlow.EndSessionByID(createRequestContext(c, "/api/v1/sessions/:sessionID"), operatorID, uint(sessionID), metadata); err != nil {
		if businessflow.IsSessionNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", nil)
		}
		log.Println("Session end failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Session end failed", "SESSION_END_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Session ended", nil)
}

// CurrentSession returns the operator's open session, if any
func (h *SessionHandler) CurrentSession(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	result, err := h.sessionFlow.CurrentSession(createRequestContext(c, "/api/v1/sessions/current"), operatorID)
	if err != nil {
		log.Println("Session lookup failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Session lookup failed", "SESSION_LOOKUP_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Session retrieved", result)
}
