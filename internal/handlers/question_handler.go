package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/VIIT-EP/exam-service/internal/models"
	"github.com/VIIT-EP/exam-service/internal/repositories"
	"github.com/VIIT-EP/exam-service/internal/services"
	"github.com/VIIT-EP/exam-service/internal/utils"
	"github.com/VIIT-EP/exam-service/internal/validator"
)

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
	importService   services.ImportExportService
}

func NewQuestionHandler(questionService services.QuestionService, importService services.ImportExportService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
		importService:   importService,
	}
}

// Create adds a single question to the bank
// @Summary Create question
// @Tags questions
// @Accept json
// @Produce json
// @Success 201 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Router /api/questions [post]
func (h *QuestionHandler) Create(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req validator.QuestionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request payload", Details: err.Error()})
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// CreateBulk adds a batch of questions in one request
// @Summary Bulk create questions
// @Tags questions
// @Router /api/questions/bulk [post]
func (h *QuestionHandler) CreateBulk(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req validator.BulkQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request payload", Details: err.Error()})
		return
	}

	report, err := h.questionService.CreateBulk(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// Import ingests an xlsx workbook of questions
// @Summary Import questions from spreadsheet
// @Tags questions
// @Router /api/questions/import [post]
func (h *QuestionHandler) Import(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "file field missing", Details: err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "failed to read upload", Details: err.Error()})
		return
	}

	report, err := h.importService.ImportQuestions(c.Request.Context(), userID, data)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// List pages through the question bank with optional filters
// @Summary List questions
// @Tags questions
// @Router /api/questions [get]
func (h *QuestionHandler) List(c *gin.Context) {
	filters := repositories.QuestionFilters{
		Topic:  c.Query("topic"),
		Search: c.Query("search"),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	if raw := c.Query("subject"); raw != "" {
		subject, err := models.ParseSubject(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
			return
		}
		filters.Subject = subject
	}
	if raw := c.Query("difficulty"); raw != "" {
		difficulty, err := models.ParseDifficulty(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
			return
		}
		filters.Difficulty = difficulty
	}

	questions, total, err := h.questionService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions, "total": total})
}

// Inventory reports the per-stratum question counts
// @Summary Question bank inventory
// @Tags questions
// @Router /api/questions/inventory [get]
func (h *QuestionHandler) Inventory(c *gin.Context) {
	counts, err := h.questionService.Inventory(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory": counts})
}

// Delete removes a question
// @Summary Delete question
// @Tags questions
// @Router /api/questions/{id} [delete]
func (h *QuestionHandler) Delete(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	if err := h.questionService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "question deleted"})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
