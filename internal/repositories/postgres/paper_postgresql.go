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

type paperRepository struct {
	db    *gorm.DB
	cache *cache.Helper
}

func newPaperRepository(db *gorm.DB, cacheHelper *cache.Helper) repositories.PaperRepository {
	return &paperRepository{db: db, cache: cacheHelper}
}

// Create writes the paper and its question links atomically. The link rows
// carry a unique (paper, question) index so a duplicate id in questionIDs
// fails the whole transaction rather than producing a paper with repeats.
func (r *paperRepository) Create(ctx context.Context, paper *models.QuestionPaper, questionIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(paper).Error; err != nil {
			return fmt.Errorf("failed to create paper: %w", err)
		}
		links := make([]models.PaperQuestion, 0, len(questionIDs))
		for _, qid := range questionIDs {
			links = append(links, models.PaperQuestion{PaperID: paper.ID, QuestionID: qid})
		}
		if err := tx.CreateInBatches(links, 200).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("duplicate question in paper: %w", repositories.ErrDuplicate)
			}
			return fmt.Errorf("failed to link %d questions: %w", len(questionIDs), err)
		}
		return nil
	})
}

func (r *paperRepository) GetByID(ctx context.Context, id uint) (*models.QuestionPaper, error) {
	var paper models.QuestionPaper
	if err := r.db.WithContext(ctx).First(&paper, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get paper %d: %w", id, err)
	}
	return &paper, nil
}

func (r *paperRepository) GetWithQuestions(ctx context.Context, id uint) (*models.QuestionPaper, error) {
	var paper models.QuestionPaper
	if r.cache.Get(ctx, &paper, "paper", id) {
		return &paper, nil
	}

	err := r.db.WithContext(ctx).
		Preload("PaperQuestions", func(db *gorm.DB) *gorm.DB {
			return db.Order("paper_questions.id ASC")
		}).
		Preload("PaperQuestions.Question").
		First(&paper, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get paper %d with questions: %w", id, err)
	}

	r.cache.Set(ctx, &paper, cache.PaperTTL, "paper", id)
	return &paper, nil
}

func (r *paperRepository) List(ctx context.Context, filters repositories.PaperFilters) ([]*models.QuestionPaper, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.QuestionPaper{})

	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filters.CreatedByID != 0 {
		query = query.Where("created_by_id = ?", filters.CreatedByID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count papers: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit).Offset(filters.Offset)
	}

	var papers []*models.QuestionPaper
	if err := query.Order("created_at DESC").Find(&papers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list papers: %w", err)
	}
	return papers, total, nil
}

func (r *paperRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.QuestionPaper{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to set paper %d active=%t: %w", id, active, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	r.cache.Delete(ctx, "paper", id)
	return nil
}

func (r *paperRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("paper_id = ?", id).Delete(&models.PaperQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to delete paper links: %w", err)
		}
		result := tx.Delete(&models.QuestionPaper{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete paper %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return repositories.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.cache.Delete(ctx, "paper", id)
	return nil
}
