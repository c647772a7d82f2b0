package services

import (
	"context"
	"time"

	"github.com/VIIT-EP/exam-service/internal/models"
	"github.com/VIIT-EP/exam-service/internal/repositories"
	"github.com/VIIT-EP/exam-service/internal/validator"
)

// ===== Response DTOs =====

// QuestionView is a question as shown to an examinee: no answer key.
type QuestionView struct {
	ID               uint     `json:"id"`
	Text             string   `json:"text"`
	Options          []string `json:"options"`
	Subject          string   `json:"subject"`
	QuestionImageURL *string  `json:"question_image_url,omitempty"`
	OptionImageURLs  []string `json:"option_image_urls,omitempty"`
}

// PaperSummary lists a paper without its questions. Breakdown is only set on
// creation responses.
type PaperSummary struct {
	ID            uint                   `json:"id"`
	Title         string                 `json:"title"`
	DurationHours int                    `json:"duration_hours"`
	StartTime     *time.Time             `json:"start_time"`
	TotalMarks    int                    `json:"total_marks"`
	IsActive      bool                   `json:"is_active"`
	CreatedAt     time.Time              `json:"created_at"`
	Breakdown     map[models.Subject]int `json:"breakdown,omitempty"`
}

// PaperPreview is the creator's view: full questions with answer keys.
type PaperPreview struct {
	Paper     PaperSummary       `json:"paper"`
	Questions []*models.Question `json:"questions"`
}

// ExamSession is what a student receives on start or resume.
type ExamSession struct {
	AttemptID     uint           `json:"attempt_id"`
	PaperID       uint           `json:"paper_id"`
	Title         string         `json:"title"`
	Questions     []QuestionView `json:"questions"`
	StartedAt     time.Time      `json:"started_at"`
	TimeRemaining time.Duration  `json:"time_remaining"`
	SavedAnswers  map[uint]int   `json:"saved_answers,omitempty"`
	Resumed       bool           `json:"resumed"`
}

// AttemptResult is a scored attempt with its per-subject analysis.
type AttemptResult struct {
	AttemptID   uint                                  `json:"attempt_id"`
	PaperID     uint                                  `json:"paper_id"`
	PaperTitle  string                                `json:"paper_title"`
	TotalScore  int                                   `json:"total_score"`
	TotalMarks  int                                   `json:"total_marks"`
	Analysis    map[models.Subject]models.SubjectScore `json:"analysis"`
	// Accuracy is the score as a percentage of the paper's marks.
	Accuracy         float64    `json:"accuracy"`
	TimeTakenSeconds int        `json:"time_taken_seconds"`
	SubmittedAt      *time.Time `json:"submitted_at"`
}

// RankedResult extends a result with standing among peers on the same paper.
type RankedResult struct {
	AttemptResult
	StudentName string `json:"student_name"`
	StudentCode string `json:"student_code"`
	Rank        int    `json:"rank"`
	Percentile  int    `json:"percentile"`
}

// PaperReport aggregates one paper's outcomes against the whole student body.
type PaperReport struct {
	Paper              PaperSummary                   `json:"paper"`
	AttemptCount       int64                          `json:"attempt_count"`
	CompletedCount     int64                          `json:"completed_count"`
	RegisteredStudents int64                          `json:"registered_students"`
	PercentAttempted   float64                        `json:"percent_attempted"`
	AverageScore       float64                        `json:"average_score"`
	SubjectStats       map[models.Subject]SubjectStat `json:"subject_stats"`
	Leaderboard        []RankedResult                 `json:"leaderboard"`
}

// SubjectStat is a per-subject mean over all scored attempts of a paper.
type SubjectStat struct {
	AverageScore float64 `json:"average_score"`
	Total        int     `json:"total"`
}

// AdminStats is the dashboard headline view.
type AdminStats struct {
	TotalStudents     int64 `json:"total_students"`
	TotalQuestions    int64 `json:"total_questions"`
	ActivePapers      int64 `json:"active_papers"`
	StudentsInExam    int64 `json:"students_in_exam"`
	CompletedToday    int64 `json:"completed_today"`
}

// StudentCredentials is returned on registration: the issued login code.
type StudentCredentials struct {
	StudentID string `json:"student_id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
}

// ImportReport summarizes a spreadsheet ingest.
type ImportReport struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ===== Service interfaces =====

type QuestionService interface {
	Create(ctx context.Context, userID uint, req *validator.QuestionCreateRequest) (*models.Question, error)
	CreateBulk(ctx context.Context, userID uint, req *validator.BulkQuestionRequest) (*ImportReport, error)
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error)
	Inventory(ctx context.Context) ([]repositories.InventoryCount, error)
	Delete(ctx context.Context, id uint) error
}

type PaperService interface {
	GenerateBalanced(ctx context.Context, userID uint, req *validator.BalancedPaperRequest) (*PaperSummary, error)
	GenerateCustom(ctx context.Context, userID uint, req *validator.CustomPaperRequest) (*PaperSummary, error)
	Preview(ctx context.Context, userID uint, paperID uint) (*PaperPreview, error)
	SetActive(ctx context.Context, paperID uint, active bool) error
	List(ctx context.Context, filters repositories.PaperFilters) ([]PaperSummary, int64, error)
	Delete(ctx context.Context, paperID uint) error
}

type AttemptService interface {
	Start(ctx context.Context, studentID uint, paperID uint) (*ExamSession, error)
	Submit(ctx context.Context, studentID uint, req *validator.SubmitAttemptRequest) (*AttemptResult, error)
	GetResult(ctx context.Context, studentID uint, attemptID uint) (*AttemptResult, error)
	History(ctx context.Context, studentID uint) ([]AttemptResult, error)
	// ReconcileAttemptingFlags clears the live-exam flag of students whose
	// open attempts have run out of time.
	ReconcileAttemptingFlags(ctx context.Context) (int, error)
}

type ReportService interface {
	TopStudents(ctx context.Context, paperID uint, limit int) ([]RankedResult, error)
	PaperReport(ctx context.Context, paperID uint) (*PaperReport, error)
	AdminStats(ctx context.Context) (*AdminStats, error)
	StudentStanding(ctx context.Context, studentID, attemptID uint) (*RankedResult, error)
}

type StudentService interface {
	Register(ctx context.Context, req *validator.StudentRegisterRequest) (*StudentCredentials, error)
	Login(ctx context.Context, req *validator.StudentLoginRequest) (*models.Student, error)
	GetByID(ctx context.Context, id uint) (*models.Student, error)
	List(ctx context.Context, limit, offset int) ([]*models.Student, int64, error)
}

type ImportExportService interface {
	ImportQuestions(ctx context.Context, userID uint, data []byte) (*ImportReport, error)
	ExportResults(ctx context.Context, paperID uint) ([]byte, error)
}

// ServiceManager exposes the wired service set to the handler layer.
type ServiceManager interface {
	Question() QuestionService
	Paper() PaperService
	Attempt() AttemptService
	Report() ReportService
	Student() StudentService
	ImportExport() ImportExportService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	Health(ctx context.Context) error
}
