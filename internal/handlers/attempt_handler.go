package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/services"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// StartAttempt starts a new attempt at a quiz
// @Router /quiz-attempts/start [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req services.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	h.LogRequest(c, "Starting quiz attempt", "quiz_id", req.QuizID)

	resp, err := h.attemptService.Start(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// SubmitAttempt submits the answers of an open attempt
// @Router /quiz-attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	attemptID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	h.LogRequest(c, "Submitting quiz attempt", "attempt_id", attemptID, "answers", len(req.Answers))

	resp, err := h.attemptService.Submit(c.Request.Context(), actor, attemptID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetAttempt returns one attempt, filtered by what the caller may see
// @Router /quiz-attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	attemptID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.attemptService.Get(c.Request.Context(), actor, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListMyAttempts lists the caller's own attempts
// @Router /quiz-attempts/my-attempts [get]
func (h *AttemptHandler) ListMyAttempts(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var filters services.MyAttemptFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		h.badRequest(c, "Invalid query parameters", err)
		return
	}

	resp, err := h.attemptService.ListMine(c.Request.Context(), actor, &filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListAttempts lists attempts across students for staff
// @Router /quiz-attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var filters services.AttemptListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		h.badRequest(c, "Invalid query parameters", err)
		return
	}

	resp, err := h.attemptService.List(c.Request.Context(), actor, &filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
