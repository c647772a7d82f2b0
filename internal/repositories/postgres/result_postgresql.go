package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/VIIT-EP/exam-service/internal/models"
	"github.com/VIIT-EP/exam-service/internal/repositories"
)

type resultRepository struct {
	db *gorm.DB
}

func newResultRepository(db *gorm.DB) repositories.ResultRepository {
	return &resultRepository{db: db}
}

// Upsert inserts the result or overwrites the existing row for the attempt.
// Keyed on attempt_id so rescoring is idempotent.
func (r *resultRepository) Upsert(ctx context.Context, result *models.Result) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_score", "analysis_json", "updated_at"}),
		}).
		Create(result).Error
	if err != nil {
		return fmt.Errorf("failed to upsert result for attempt %d: %w", result.AttemptID, err)
	}
	return nil
}

func (r *resultRepository) GetByAttemptID(ctx context.Context, attemptID uint) (*models.Result, error) {
	var result models.Result
	err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get result for attempt %d: %w", attemptID, err)
	}
	return &result, nil
}

func (r *resultRepository) ListByPaper(ctx context.Context, paperID uint) ([]*models.Result, error) {
	var results []*models.Result
	err := r.db.WithContext(ctx).
		Joins("JOIN exam_attempts ON exam_attempts.id = results.attempt_id").
		Where("exam_attempts.paper_id = ? AND exam_attempts.is_completed = ?", paperID, true).
		Preload("Attempt").
		Preload("Attempt.Student").
		Preload("Attempt.Paper").
		Order("results.total_score DESC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list results for paper %d: %w", paperID, err)
	}
	return results, nil
}

func (r *resultRepository) ListByStudent(ctx context.Context, studentID uint) ([]*models.Result, error) {
	var results []*models.Result
	err := r.db.WithContext(ctx).
		Joins("JOIN exam_attempts ON exam_attempts.id = results.attempt_id").
		Where("exam_attempts.student_id = ?", studentID).
		Preload("Attempt").
		Preload("Attempt.Paper").
		Order("results.created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list results for student %d: %w", studentID, err)
	}
	return results, nil
}

func (r *resultRepository) TopByPaper(ctx context.Context, paperID uint, limit int) ([]*models.Result, error) {
	var results []*models.Result
	err := r.db.WithContext(ctx).
		Joins("JOIN exam_attempts ON exam_attempts.id = results.attempt_id").
		Where("exam_attempts.paper_id = ? AND exam_attempts.is_completed = ?", paperID, true).
		Preload("Attempt").
		Preload("Attempt.Student").
		Preload("Attempt.Paper").
		Order("results.total_score DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top results for paper %d: %w", paperID, err)
	}
	return results, nil
}

func (r *resultRepository) CountByPaper(ctx context.Context, paperID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Result{}).
		Joins("JOIN exam_attempts ON exam_attempts.id = results.attempt_id").
		Where("exam_attempts.paper_id = ?", paperID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count results for paper %d: %w", paperID, err)
	}
	return count, nil
}

func (r *resultRepository) AverageByPaper(ctx context.Context, paperID uint) (float64, error) {
	var avg *float64
	err := r.db.WithContext(ctx).
		Model(&models.Result{}).
		Joins("JOIN exam_attempts ON exam_attempts.id = results.attempt_id").
		Where("exam_attempts.paper_id = ?", paperID).
		Select("AVG(results.total_score)").
		Scan(&avg).Error
	if err != nil {
		return 0, fmt.Errorf("failed to average results for paper %d: %w", paperID, err)
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
