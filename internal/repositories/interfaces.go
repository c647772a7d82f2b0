package repositories

import (
	"context"
	"time"

	"github.com/VIIT-EP/exam-service/internal/models"
)

// QuestionFilters narrows question listings. Zero values mean "any".
type QuestionFilters struct {
	Subject    models.Subject
	Difficulty models.Difficulty
	Topic      string
	Search     string

	Limit  int
	Offset int
}

// PaperFilters narrows paper listings.
type PaperFilters struct {
	ActiveOnly  bool
	CreatedByID uint

	Limit  int
	Offset int
}

// InventoryCount is one (subject, difficulty, topic) cell of the question bank.
type InventoryCount struct {
	Subject    models.Subject    `json:"subject"`
	Difficulty models.Difficulty `json:"difficulty"`
	Topic      string            `json:"topic"`
	Count      int64             `json:"count"`
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id uint) (*models.Student, error)
	GetByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	SetAttemptingFlag(ctx context.Context, id uint, attempting bool) error
	List(ctx context.Context, limit, offset int) ([]*models.Student, int64, error)
	Count(ctx context.Context) (int64, error)
	// LastStudentID returns the highest issued login code for id generation,
	// or "" when no students exist yet.
	LastStudentID(ctx context.Context) (string, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error)
	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)
	// ListForAssembly loads the candidate pool for the given subjects with only
	// the fields sampling needs populated.
	ListForAssembly(ctx context.Context, subjects []models.Subject) ([]*models.Question, error)
	Inventory(ctx context.Context) ([]InventoryCount, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type PaperRepository interface {
	// Create persists the paper and all its question links in one transaction.
	Create(ctx context.Context, paper *models.QuestionPaper, questionIDs []uint) error
	GetByID(ctx context.Context, id uint) (*models.QuestionPaper, error)
	// GetWithQuestions preloads the full question set in paper order.
	GetWithQuestions(ctx context.Context, id uint) (*models.QuestionPaper, error)
	List(ctx context.Context, filters PaperFilters) ([]*models.QuestionPaper, int64, error)
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.ExamAttempt) error
	GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error)
	// GetOpen returns the student's incomplete attempt on a paper, ErrNotFound
	// when none exists.
	GetOpen(ctx context.Context, studentID, paperID uint) (*models.ExamAttempt, error)
	GetCompleted(ctx context.Context, studentID, paperID uint) (*models.ExamAttempt, error)
	Update(ctx context.Context, attempt *models.ExamAttempt) error
	ListByStudent(ctx context.Context, studentID uint) ([]*models.ExamAttempt, error)
	ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]*models.ExamAttempt, error)
	CountByPaper(ctx context.Context, paperID uint) (int64, error)
	CountCompletedSince(ctx context.Context, since time.Time) (int64, error)
}

type ResultRepository interface {
	// Upsert writes the result keyed on attempt id, replacing any prior row.
	Upsert(ctx context.Context, result *models.Result) error
	GetByAttemptID(ctx context.Context, attemptID uint) (*models.Result, error)
	// ListByPaper returns results for completed attempts on a paper ordered by
	// total score descending, with attempt and student preloaded.
	ListByPaper(ctx context.Context, paperID uint) ([]*models.Result, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*models.Result, error)
	// TopByPaper is ListByPaper truncated in SQL to the highest-scoring rows.
	TopByPaper(ctx context.Context, paperID uint, limit int) ([]*models.Result, error)
	CountByPaper(ctx context.Context, paperID uint) (int64, error)
	AverageByPaper(ctx context.Context, paperID uint) (float64, error)
}

// Repository aggregates all entity repositories behind one handle.
type Repository interface {
	Users() UserRepository
	Students() StudentRepository
	Questions() QuestionRepository
	Papers() PaperRepository
	Attempts() AttemptRepository
	Results() ResultRepository

	// WithTransaction runs fn against a Repository bound to a single
	// transaction, committing when fn returns nil and rolling back otherwise.
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}
