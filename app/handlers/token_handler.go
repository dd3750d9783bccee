// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/knobo/simple-queue-management-sub000/app/middleware"
	businessflow "github.com/knobo/simple-queue-management-sub000/business_flow"
	"github.com/knobo/simple-queue-management-sub000/utils"
)

// TokenHandlerInterface defines the contract for join-token handlers
type TokenHandlerInterface interface {
	RotateToken(c fiber.Ctx) error
	CurrentTokens(c fiber.Ctx) error
}

// TokenHandler handles join-token HTTP requests for queue owners
type TokenHandler struct {
	tokenFlow businessflow.AccessTokenFlow
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(tokenFlow businessflow.AccessTokenFlow) *TokenHandler {
	return &TokenHandler{
		tokenFlow: tokenFlow,
	}
}

// RotateToken mints a fresh join credential for a queue
func (h *TokenHandler) RotateToken(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	queueUUID, err := utils.ParseUUID(c.Params("uuid"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid queue UUID", "INVALID_REQUEST", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.tokenFlow.RotateToken(createRequestContext(c, "/api/v1/queues/:uuid/tokens/rotate"), operatorID, queueUUID, metadata)
	if err != nil {
		if businessflow.IsQueueNotFound(err) || businessflow.IsNotQueueOwner(err) {
			return errorResponse(c, fiber.StatusNotFound, "Queue not found", "QUEUE_NOT_FOUND", nil)
		}
		log.Println("Token rotation failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Token rotation failed", "TOKEN_ROTATE_FAILED", nil)
	}

	middleware.TokensRotatedTotal.WithLabelValues(queueUUID.String()).Inc()

	return successResponse(c, fiber.StatusOK, "Token rotated", result)
}

// CurrentTokens lists the queue's live join tokens
func (h *TokenHandler) CurrentTokens(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	queueUUID, err := utils.ParseUUID(c.Params("uuid"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid queue UUID", "INVALID_REQUEST", nil)
	}

	result, err := h.tokenFlow.CurrentTokens(createRequestContext(c, "/api/v1/queues/:uuid/tokens"), operatorID, queueUUID)
	if err != nil {
		if businessflow.IsQueueNotFound(err) || businessflow.IsNotQueueOwner(err) {
			return errorResponse(c, fiber.StatusNotFound, "Queue not found", "QUEUE_NOT_FOUND", nil)
		}
		log.Println("Token listing failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Token listing failed", "TOKEN_LIST_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Tokens retrieved", result)
}
