package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/VIIT-EP/exam-service/internal/services"
	"github.com/VIIT-EP/exam-service/internal/utils"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	args = append(args, "request_id", c.GetString("request_id"))
	h.logger.Debug(msg, args...)
}

// parseIDParam reads a uint path parameter; on failure it writes the 400 and
// returns 0, so callers just check for zero.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "invalid " + name + " parameter",
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// handleServiceError maps service-layer errors onto HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var permissionErr *services.PermissionError
	var deficiencyErr *services.DeficiencyError
	var conflictErr *services.StateConflictError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: validationErr.Message,
			Details: validationErr.Fields,
		})
	case errors.As(err, &permissionErr):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: permissionErr.Message})
	case errors.As(err, &deficiencyErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "question bank cannot cover the request",
			Details: gin.H{
				"subject":    deficiencyErr.Subject,
				"difficulty": deficiencyErr.Difficulty,
				"topic":      deficiencyErr.Topic,
				"needed":     deficiencyErr.Needed,
				"available":  deficiencyErr.Available,
			},
		})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, ErrorResponse{Message: conflictErr.Message})
	case errors.Is(err, services.ErrPaperNotFound),
		errors.Is(err, services.ErrQuestionNotFound),
		errors.Is(err, services.ErrAttemptNotFound),
		errors.Is(err, services.ErrStudentNotFound),
		errors.Is(err, services.ErrResultNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrPaperInactive),
		errors.Is(err, services.ErrAdmissionClosed),
		errors.Is(err, services.ErrAlreadyAttempted),
		errors.Is(err, services.ErrAttemptCompleted),
		errors.Is(err, services.ErrAttemptExpired):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})
	default:
		h.logger.Error("unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal server error"})
	}
}
