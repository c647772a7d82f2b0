package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VIIT-EP/exam-service/internal/services"
	"github.com/VIIT-EP/exam-service/internal/utils"
	"github.com/VIIT-EP/exam-service/internal/validator"
)

type StudentHandler struct {
	BaseHandler
	studentService services.StudentService
	auth           *AuthMiddleware
}

func NewStudentHandler(studentService services.StudentService, auth *AuthMiddleware, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler:    NewBaseHandler(logger),
		studentService: studentService,
		auth:           auth,
	}
}

// Register creates a student account and issues the login code
// @Summary Register student
// @Tags students
// @Accept json
// @Produce json
// @Success 201 {object} services.StudentCredentials
// @Router /api/students/register [post]
func (h *StudentHandler) Register(c *gin.Context) {
	var req validator.StudentRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request payload", Details: err.Error()})
		return
	}

	credentials, err := h.studentService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, credentials)
}

// Login authenticates with the issued login code and returns a session token
// @Summary Student login
// @Tags students
// @Router /api/students/login [post]
func (h *StudentHandler) Login(c *gin.Context) {
	var req validator.StudentLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request payload", Details: err.Error()})
		return
	}

	student, err := h.studentService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	token, err := h.auth.IssueStudentToken(student)
	if err != nil {
		h.logger.Error("failed to issue student token", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"student": student,
	})
}

// Me returns the authenticated student's profile
// @Summary Get own profile
// @Tags students
// @Router /api/exam/me [get]
func (h *StudentHandler) Me(c *gin.Context) {
	studentID, ok := studentIDFromContext(c)
	if !ok {
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// List pages through registered students (staff only)
// @Summary List students
// @Tags students
// @Router /api/students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, total, err := h.studentService.List(c.Request.Context(), queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students, "total": total})
}
