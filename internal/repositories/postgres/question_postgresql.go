package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/VIIT-EP/exam-service/internal/cache"
	"github.com/VIIT-EP/exam-service/internal/models"
	"github.com/VIIT-EP/exam-service/internal/repositories"
)

type questionRepository struct {
	db    *gorm.DB
	cache *cache.Helper
}

func newQuestionRepository(db *gorm.DB, cacheHelper *cache.Helper) repositories.QuestionRepository {
	return &questionRepository{db: db, cache: cacheHelper}
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

func (r *questionRepository) CreateBatch(ctx context.Context, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(questions, 200).Error; err != nil {
		return fmt.Errorf("failed to create %d questions: %w", len(questions), err)
	}
	r.invalidate(ctx)
	return nil
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get question %d: %w", id, err)
	}
	return &question, nil
}

func (r *questionRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var questions []*models.Question
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get questions by ids: %w", err)
	}
	return questions, nil
}

func (r *questionRepository) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Question{})

	if filters.Subject != "" {
		query = query.Where("subject = ?", filters.Subject)
	}
	if filters.Difficulty != "" {
		query = query.Where("difficulty = ?", filters.Difficulty)
	}
	if filters.Topic != "" {
		query = query.Where("topic = ?", filters.Topic)
	}
	if filters.Search != "" {
		query = query.Where("text ILIKE ?", "%"+filters.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit).Offset(filters.Offset)
	}

	var questions []*models.Question
	if err := query.Order("id DESC").Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, total, nil
}

func (r *questionRepository) ListForAssembly(ctx context.Context, subjects []models.Subject) ([]*models.Question, error) {
	var questions []*models.Question
	query := r.db.WithContext(ctx).
		Select("id", "subject", "difficulty", "topic")
	if len(subjects) > 0 {
		query = query.Where("subject IN ?", subjects)
	}
	if err := query.Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to load assembly pool: %w", err)
	}
	return questions, nil
}

func (r *questionRepository) Inventory(ctx context.Context) ([]repositories.InventoryCount, error) {
	var counts []repositories.InventoryCount
	if r.cache.Get(ctx, &counts, "inventory") {
		return counts, nil
	}

	err := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Select("subject, difficulty, topic, COUNT(*) as count").
		Group("subject, difficulty, topic").
		Order("subject, difficulty, topic").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate inventory: %w", err)
	}

	r.cache.Set(ctx, counts, cache.InventoryTTL, "inventory")
	return counts, nil
}

func (r *questionRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Question{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete question %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	r.invalidate(ctx)
	return nil
}

func (r *questionRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Question{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return total, nil
}

func (r *questionRepository) invalidate(ctx context.Context) {
	r.cache.Delete(ctx, "inventory")
}
