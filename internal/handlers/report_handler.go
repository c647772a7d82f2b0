package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VIIT-EP/exam-service/internal/services"
	"github.com/VIIT-EP/exam-service/internal/utils"
)

type ReportHandler struct {
	BaseHandler
	reportService services.ReportService
	exportService services.ImportExportService
}

func NewReportHandler(reportService services.ReportService, exportService services.ImportExportService, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   NewBaseHandler(logger),
		reportService: reportService,
		exportService: exportService,
	}
}

// TopStudents returns the leaderboard for a paper
// @Summary Top students on a paper
// @Tags reports
// @Router /api/reports/papers/{id}/top [get]
func (h *ReportHandler) TopStudents(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	ranked, err := h.reportService.TopStudents(c.Request.Context(), id, queryInt(c, "limit", 10))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"top_students": ranked})
}

// PaperReport aggregates one paper's outcomes
// @Summary Paper report
// @Tags reports
// @Router /api/reports/papers/{id} [get]
func (h *ReportHandler) PaperReport(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	report, err := h.reportService.PaperReport(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// AdminStats returns the dashboard headline numbers
// @Summary Admin dashboard stats
// @Tags reports
// @Router /api/reports/stats [get]
func (h *ReportHandler) AdminStats(c *gin.Context) {
	stats, err := h.reportService.AdminStats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportResults downloads a paper's results as a spreadsheet
// @Summary Export paper results
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /api/reports/papers/{id}/export [get]
func (h *ReportHandler) ExportResults(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	data, err := h.exportService.ExportResults(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="paper-%d-results.xlsx"`, id))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// Standing returns the student's rank and percentile for one attempt
// @Summary Student standing
// @Tags reports
// @Router /api/exam/attempts/{id}/standing [get]
func (h *ReportHandler) Standing(c *gin.Context) {
	studentID, ok := studentIDFromContext(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	standing, err := h.reportService.StudentStanding(c.Request.Context(), studentID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, standing)
}
