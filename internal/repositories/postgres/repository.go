package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/VIIT-EP/exam-service/internal/cache"
	"github.com/VIIT-EP/exam-service/internal/repositories"
)

// Manager binds all entity repositories to one gorm handle. Inside
// WithTransaction a derived Manager shares the transaction handle, so
// services never pass *gorm.DB around.
type Manager struct {
	db     *gorm.DB
	cache  *cache.Helper
	logger *slog.Logger

	users     repositories.UserRepository
	students  repositories.StudentRepository
	questions repositories.QuestionRepository
	papers    repositories.PaperRepository
	attempts  repositories.AttemptRepository
	results   repositories.ResultRepository
}

func NewManager(db *gorm.DB, cacheHelper *cache.Helper, logger *slog.Logger) *Manager {
	m := &Manager{
		db:     db,
		cache:  cacheHelper,
		logger: logger,
	}
	m.users = newUserRepository(db)
	m.students = newStudentRepository(db)
	m.questions = newQuestionRepository(db, cacheHelper)
	m.papers = newPaperRepository(db, cacheHelper)
	m.attempts = newAttemptRepository(db)
	m.results = newResultRepository(db)
	return m
}

func (m *Manager) Users() repositories.UserRepository         { return m.users }
func (m *Manager) Students() repositories.StudentRepository   { return m.students }
func (m *Manager) Questions() repositories.QuestionRepository { return m.questions }
func (m *Manager) Papers() repositories.PaperRepository       { return m.papers }
func (m *Manager) Attempts() repositories.AttemptRepository   { return m.attempts }
func (m *Manager) Results() repositories.ResultRepository     { return m.results }

func (m *Manager) WithTransaction(ctx context.Context, fn func(repo repositories.Repository) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewManager(tx, m.cache, m.logger))
	})
}

func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

var _ repositories.Repository = (*Manager)(nil)
