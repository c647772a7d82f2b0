package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/VIIT-EP/exam-service/internal/config"
	"github.com/VIIT-EP/exam-service/internal/models"
	"github.com/VIIT-EP/exam-service/internal/repositories"
	"github.com/VIIT-EP/exam-service/internal/services"
	"github.com/VIIT-EP/exam-service/internal/utils"
)

// HandlerManager owns all route handlers and the auth middleware.
type HandlerManager struct {
	auth *AuthMiddleware

	question *QuestionHandler
	paper    *PaperHandler
	attempt  *AttemptHandler
	student  *StudentHandler
	report   *ReportHandler

	serviceManager services.ServiceManager
}

func NewHandlerManager(sm services.ServiceManager, logger utils.Logger, casdoorCfg config.CasdoorConfig, jwtSecret string, userRepo repositories.UserRepository) *HandlerManager {
	auth := NewAuthMiddleware(casdoorCfg, jwtSecret, userRepo)

	return &HandlerManager{
		auth:           auth,
		question:       NewQuestionHandler(sm.Question(), sm.ImportExport(), logger),
		paper:          NewPaperHandler(sm.Paper(), logger),
		attempt:        NewAttemptHandler(sm.Attempt(), logger),
		student:        NewStudentHandler(sm.Student(), auth, logger),
		report:         NewReportHandler(sm.Report(), sm.ImportExport(), logger),
		serviceManager: sm,
	}
}

// SetupRoutes registers every route group. Staff routes sit behind Casdoor
// auth with role gates; exam routes behind the student session token.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)

	api := router.Group("/api")

	// Public student onboarding.
	students := api.Group("/students")
	{
		students.POST("/register", hm.student.Register)
		students.POST("/login", hm.student.Login)
	}

	// Student exam surface.
	exam := api.Group("/exam")
	exam.Use(hm.auth.StudentAuth())
	{
		exam.GET("/me", hm.student.Me)
		exam.POST("/start", hm.attempt.Start)
		exam.POST("/submit", hm.attempt.Submit)
		exam.GET("/history", hm.attempt.History)
		exam.GET("/attempts/:id/result", hm.attempt.Result)
		exam.GET("/attempts/:id/standing", hm.report.Standing)
	}

	// Staff surfaces.
	staff := api.Group("")
	staff.Use(hm.auth.StaffAuth())

	questions := staff.Group("/questions")
	questions.Use(hm.auth.RequireRole(models.RoleTeacher))
	{
		questions.POST("", hm.question.Create)
		questions.POST("/bulk", hm.question.CreateBulk)
		questions.POST("/import", hm.question.Import)
		questions.GET("", hm.question.List)
		questions.GET("/inventory", hm.question.Inventory)
		questions.DELETE("/:id", hm.question.Delete)
	}

	papers := staff.Group("/papers")
	papers.Use(hm.auth.RequireRole(models.RoleTeacher))
	{
		papers.POST("/balanced", hm.paper.GenerateBalanced)
		papers.POST("/custom", hm.paper.GenerateCustom)
		papers.GET("", hm.paper.List)
		papers.GET("/:id/preview", hm.paper.Preview)
		papers.POST("/:id/activate", hm.paper.Activate)
		papers.POST("/:id/deactivate", hm.paper.Deactivate)
		papers.DELETE("/:id", hm.paper.Delete)
	}

	reports := staff.Group("/reports")
	reports.Use(hm.auth.RequireRole(models.RoleTeacher))
	{
		reports.GET("/stats", hm.report.AdminStats)
		reports.GET("/papers/:id", hm.report.PaperReport)
		reports.GET("/papers/:id/top", hm.report.TopStudents)
		reports.GET("/papers/:id/export", hm.report.ExportResults)
	}

	staffStudents := staff.Group("/students")
	staffStudents.Use(hm.auth.RequireRole(models.RoleTeacher))
	{
		staffStudents.GET("", hm.student.List)
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	if err := hm.serviceManager.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "exam-service",
	})
}
