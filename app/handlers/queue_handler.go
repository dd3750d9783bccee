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

// QueueHandlerInterface defines the contract for queue management handlers
type QueueHandlerInterface interface {
	CreateQueue(c fiber.Ctx) error
	ListQueues(c fiber.Ctx) error
	SetQueueOpen(c fiber.Ctx) error
	AddStage(c fiber.Ctx) error
	ListStages(c fiber.Ctx) error
	RemoveStage(c fiber.Ctx) error
	CreateCounter(c fiber.Ctx) error
	ListCounters(c fiber.Ctx) error
	RemoveCounter(c fiber.Ctx) error
}

// QueueHandler handles queue management HTTP requests
type QueueHandler struct {
	queueFlow businessflow.QueueFlow
	validator *validator.Validate
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(queueFlow businessflow.QueueFlow) *QueueHandler {
	return &QueueHandler{
		queueFlow: queueFlow,
		validator: validator.New(),
	}
}

// CreateQueue creates a queue for the authenticated owner
func (h *QueueHandler) CreateQueue(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	var req dto.CreateQueueRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.queueFlow.CreateQueue(createRequestContext(c, "/api/v1/queues"), operatorID, &req, metadata)
	if err != nil {
		if businessflow.IsQuotaExceeded(err) {
			return errorResponse(c, fiber.StatusUnprocessableEntity, "Queue quota reached", "QUOTA_EXCEEDED", nil)
		}
		log.Println("Queue creation failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Queue creation failed", "QUEUE_CREATE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Queue created", result)
}

// ListQueues lists the authenticated owner's queues
func (h *QueueHandler) ListQueues(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	result, err := h.queueFlow.ListQueues(createRequestContext(c, "/api/v1/queues"), operatorID)
	if err != nil {
		log.Println("Queue listing failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Queue listing failed", "QUEUE_LIST_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Queues retrieved", result)
}

// SetQueueOpen opens or closes a queue
func (h *QueueHandler) SetQueueOpen(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	queueUUID, err := utils.ParseUUID(c.Params("uuid"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid queue UUID", "INVALID_REQUEST", nil)
	}

	var req dto.SetQueueOpenRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.queueFlow.SetQueueOpen(createRequestContext(c, "/api/v1/queues/:uuid/open"), operatorID, queueUUID, req.Open, metadata)
	if err != nil {
		if businessflow.IsQueueNotFound(err) || businessflow.IsNotQueueOwner(err) {
			return errorResponse(c, fiber.StatusNotFound, "Queue not found", "QUEUE_NOT_FOUND", nil)
		}
		log.Println("Queue update failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Queue update failed", "QUEUE_UPDATE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Queue updated", result)
}

// AddStage adds a display stage to a queue
func (h *QueueHandler) AddStage(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	queueUUID, err := utils.ParseUUID(c.Params("uuid"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid queue UUID", "INVALID_REQUEST", nil)
	}

	var req dto.AddStageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.queueFlow.AddStage(createRequestContext(c, "/api/v1/queues/:uuid/stages"), operatorID, queueUUID, &req)
	if err != nil {
		if businessflow.IsQueueNotFound(err) || businessflow.IsNotQueueOwner(err) {
			return errorResponse(c, fiber.StatusNotFound, "Queue not found", "QUEUE_NOT_FOUND", nil)
		}
		log.Println("Stage creation failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Stage creation failed", "STAGE_CREATE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Stage created", result)
}

// ListStages lists a queue's display stages
func (h *QueueHandler) ListStages(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	queueUUID, err := utils.ParseUUID(c.Params("uuid"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid queue UUID", "INVALID_REQUEST", nil)
	}

	result, err := h.queueFlow.ListStages(createRequestContext(c, "/api/v1/queues/:uuid/stages"), operatorID, queueUUID)
	if err != nil {
		if businessflow.IsQueueNotFound(err) || businessflow.IsNotQueueOwner(err) {
			return errorResponse(c, fiber.StatusNotFound, "Queue not found", "QUEUE_NOT_FOUND", nil)
		}
		log.Println("Stage listing failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Stage listing failed", "STAGE_LIST_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Stages retrieved", result)
}

// RemoveStage deletes a display stage
func (h *QueueHandler) RemoveStage(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	queueUUID, err := utils.ParseUUID(c.Params("uuid"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid queue UUID", "INVALID_REQUEST", nil)
	}

	stageID, err := strconv.ParseUint(c.Params("stageID"), 10, 32)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid stage ID", "INVALID_REQUEST", nil)
	}

	err = h.queueFlow.RemoveStage(createRequestContext(c, "/api/v1/queues/:uuid/stages/:stageID"), operatorID, queueUUID, uint(stageID))
	if err != nil {
		switch {
		case businessflow.IsQueueNotFound(err) || businessflow.IsNotQueueOwner(err):
			return errorResponse(c, fiber.StatusNotFound, "Queue not found", "QUEUE_NOT_FOUND", nil)
		case businessflow.IsStageNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Stage not found", "STAGE_NOT_FOUND", nil)
		case businessflow.IsLastStageForStatus(err):
			return errorResponse(c, fiber.StatusConflict, "Every status needs at least one stage", "LAST_STAGE", nil)
		default:
			log.Println("Stage removal failed", err)
			return errorResponse(c, fiber.StatusInternalServerError, "Stage removal failed", "STAGE_REMOVE_FAILED", nil)
		}
	}

	return successResponse(c, fiber.StatusOK, "Stage removed", nil)
}

// CreateCounter adds a counter to a queue
func (h *QueueHandler) CreateCounter(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	queueUUID, err := utils.ParseUUID(c.Params("uuid"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid queue UUID", "INVALID_REQUEST", nil)
	}

	var req dto.CreateCounterRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.queueFlow.CreateCounter(createRequestContext(c, "/api/v1/queues/:uuid/counters"), operatorID, queueUUID, &req)
	if err != nil {
		switch {
		case businessflow.IsQueueNotFound(err) || businessflow.IsNotQueueOwner(err):
			return errorResponse(c, fiber.StatusNotFound, "Queue not found", "QUEUE_NOT_FOUND", nil)
		case businessflow.IsQuotaExceeded(err):
			return errorResponse(c, fiber.StatusUnprocessableEntity, "Counter quota reached", "QUOTA_EXCEEDED", nil)
		default:
			log.Println("Counter creation failed", err)
			return errorResponse(c, fiber.StatusInternalServerError, "Counter creation failed", "COUNTER_CREATE_FAILED", nil)
		}
	}

	return successResponse(c, fiber.StatusCreated, "Counter created", result)
}

// ListCounters lists a queue's counters
func (h *QueueHandler) ListCounters(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	queueUUID, err := utils.ParseUUID(c.Params("uuid"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid queue UUID", "INVALID_REQUEST", nil)
	}

	result, err := h.queueFlow.ListCounters(createRequestContext(c, "/api/v1/queues/:uuid/counters"), operatorID, queueUUID)
	if err != nil {
		if businessflow.IsQueueNotFound(err) || businessflow.IsNotQueueOwner(err) {
			return errorResponse(c, fiber.StatusNotFound, "Queue not found", "QUEUE_NOT_FOUND", nil)
		}
		log.Println("Counter listing failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Counter listing failed", "COUNTER_LIST_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Counters retrieved", result)
}

// RemoveCounter deletes a counter
func (h *QueueHandler) RemoveCounter(c fiber.Ctx) error {
	operatorID, ok := operatorIDFromCtx(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	queueUUID, err := utils.ParseUUID(c.Params("uuid"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid queue UUID", "INVALID_REQUEST", nil)
	}

	counterID, err := strconv.ParseUint(c.Params("counterID"), 10, 32)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid counter ID", "INVALID_REQUEST", nil)
	}

	err = h.queueFlow.RemoveCounter(createRequestContext(c, "/api/v1/queues/:uuid/counters/:counterID"), operatorID, queueUUID, uint(counterID))
	if err != nil {
		switch {
		case businessflow.IsQueueNotFound(err) || businessflow.IsNotQueueOwner(err):
			return errorResponse(c, fiber.StatusNotFound, "Queue not found", "QUEUE_NOT_FOUND", nil)
		case businessflow.IsCounterNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Counter not found", "COUNTER_NOT_FOUND", nil)
		case businessflow.IsCounterInUse(err):
			return errorResponse(c, fiber.StatusConflict, "Counter is occupied", "COUNTER_IN_USE", nil)
		case businessflow.IsLastCounter(err):
			return errorResponse(c, fiber.StatusConflict, "A queue needs at least one counter", "LAST_COUNTER", nil)
		default:
			log.Println("Counter removal failed", err)
			return errorResponse(c, fiber.StatusInternalServerError, "Counter removal failed", "COUNTER_REMOVE_FAILED", nil)
		}
	}

	return successResponse(c, fiber.StatusOK, "Counter removed", nil)
}
