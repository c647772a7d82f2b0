package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VIIT-EP/exam-service/internal/services"
	"github.com/VIIT-EP/exam-service/internal/utils"
	"github.com/VIIT-EP/exam-service/internal/validator"
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

// Start opens or resumes the student's attempt on a paper
// @Summary Start or resume exam attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Success 201 {object} services.ExamSession
// @Failure 409 {object} ErrorResponse
// @Router /api/exam/start [post]
func (h *AttemptHandler) Start(c *gin.Context) {
	studentID, ok := studentIDFromContext(c)
	if !ok {
		return
	}

	var req validator.StartExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request payload", Details: err.Error()})
		return
	}

	h.LogRequest(c, "starting exam attempt", "student_id", studentID, "paper_id", req.PaperID)

	session, err := h.attemptService.Start(c.Request.Context(), studentID, req.PaperID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if session.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, session)
}

// Submit finalizes the attempt with the student's answers
// @Summary Submit exam attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Success 200 {object} services.AttemptResult
// @Failure 409 {object} ErrorResponse
// @Router /api/exam/submit [post]
func (h *AttemptHandler) Submit(c *gin.Context) {
	studentID, ok := studentIDFromContext(c)
	if !ok {
		return
	}

	var req validator.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request payload", Details: err.Error()})
		return
	}

	h.LogRequest(c, "submitting exam attempt", "student_id", studentID, "attempt_id", req.AttemptID)

	result, err := h.attemptService.Submit(c.Request.Context(), studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Result returns the scored outcome of one attempt
// @Summary Get attempt result
// @Tags attempts
// @Router /api/exam/attempts/{id}/result [get]
func (h *AttemptHandler) Result(c *gin.Context) {
	studentID, ok := studentIDFromContext(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	result, err := h.attemptService.GetResult(c.Request.Context(), studentID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// History lists the student's scored attempts
// @Summary Get results history
// @Tags attempts
// @Router /api/exam/history [get]
func (h *AttemptHandler) History(c *gin.Context) {
	studentID, ok := studentIDFromContext(c)
	if !ok {
		return
	}

	history, err := h.attemptService.History(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": history})
}
