package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VIIT-EP/exam-service/internal/repositories"
	"github.com/VIIT-EP/exam-service/internal/services"
	"github.com/VIIT-EP/exam-service/internal/utils"
	"github.com/VIIT-EP/exam-service/internal/validator"
)

type PaperHandler struct {
	BaseHandler
	paperService services.PaperService
}

func NewPaperHandler(paperService services.PaperService, logger utils.Logger) *PaperHandler {
	return &PaperHandler{
		BaseHandler:  NewBaseHandler(logger),
		paperService: paperService,
	}
}

// GenerateBalanced assembles the standard balanced paper
// @Summary Generate balanced paper
// @Tags papers
// @Router /api/papers/balanced [post]
func (h *PaperHandler) GenerateBalanced(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req validator.BalancedPaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request payload", Details: err.Error()})
		return
	}

	paper, err := h.paperService.GenerateBalanced(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, paper)
}

// GenerateCustom assembles a paper from explicit quotas
// @Summary Generate custom paper
// @Tags papers
// @Router /api/papers/custom [post]
func (h *PaperHandler) GenerateCustom(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req validator.CustomPaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request payload", Details: err.Error()})
		return
	}

	paper, err := h.paperService.GenerateCustom(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, paper)
}

// Preview returns the full paper with answer keys to its creator
// @Summary Preview paper
// @Tags papers
// @Router /api/papers/{id}/preview [get]
func (h *PaperHandler) Preview(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	preview, err := h.paperService.Preview(c.Request.Context(), userID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// Activate opens a paper for admission
// @Summary Activate paper
// @Tags papers
// @Router /api/papers/{id}/activate [post]
func (h *PaperHandler) Activate(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	if err := h.paperService.SetActive(c.Request.Context(), id, true); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "paper activated"})
}

// Deactivate closes a paper for admission
// @Summary Deactivate paper
// @Tags papers
// @Router /api/papers/{id}/deactivate [post]
func (h *PaperHandler) Deactivate(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	if err := h.paperService.SetActive(c.Request.Context(), id, false); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "paper deactivated"})
}

// List pages through papers
// @Summary List papers
// @Tags papers
// @Router /api/papers [get]
func (h *PaperHandler) List(c *gin.Context) {
	filters := repositories.PaperFilters{
		ActiveOnly: c.Query("active") == "true",
		Limit:      queryInt(c, "limit", 50),
		Offset:     queryInt(c, "offset", 0),
	}

	papers, total, err := h.paperService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"papers": papers, "total": total})
}

// Delete removes an unattempted paper
// @Summary Delete paper
// @Tags papers
// @Router /api/papers/{id} [delete]
func (h *PaperHandler) Delete(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	if err := h.paperService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "paper deleted"})
}
