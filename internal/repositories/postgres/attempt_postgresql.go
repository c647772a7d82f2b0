package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/VIIT-EP/exam-service/internal/models"
	"github.com/VIIT-EP/exam-service/internal/repositories"
)

type attemptRepository struct {
	db *gorm.DB
}

func newAttemptRepository(db *gorm.DB) repositories.AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(ctx context.Context, attempt *models.ExamAttempt) error {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("open attempt already exists: %w", repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

func (r *attemptRepository) GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	err := r.db.WithContext(ctx).
		Preload("Paper").
		First(&attempt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get attempt %d: %w", id, err)
	}
	return &attempt, nil
}

func (r *attemptRepository) GetOpen(ctx context.Context, studentID, paperID uint) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND paper_id = ? AND is_completed = ?", studentID, paperID, false).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get open attempt: %w", err)
	}
	return &attempt, nil
}

func (r *attemptRepository) GetCompleted(ctx context.Context, studentID, paperID uint) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND paper_id = ? AND is_completed = ?", studentID, paperID, true).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get completed attempt: %w", err)
	}
	return &attempt, nil
}

func (r *attemptRepository) Update(ctx context.Context, attempt *models.ExamAttempt) error {
	if err := r.db.WithContext(ctx).Save(attempt).Error; err != nil {
		return fmt.Errorf("failed to update attempt %d: %w", attempt.ID, err)
	}
	return nil
}

func (r *attemptRepository) ListByStudent(ctx context.Context, studentID uint) ([]*models.ExamAttempt, error) {
	var attempts []*models.ExamAttempt
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Preload("Paper").
		Order("start_time DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts for student %d: %w", studentID, err)
	}
	return attempts, nil
}

// ListOpenOlderThan finds incomplete attempts started before the cutoff, for
// the reconciliation sweep that clears stale attempting flags.
func (r *attemptRepository) ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]*models.ExamAttempt, error) {
	var attempts []*models.ExamAttempt
	err := r.db.WithContext(ctx).
		Where("is_completed = ? AND start_time < ?", false, cutoff).
		Preload("Paper").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale open attempts: %w", err)
	}
	return attempts, nil
}

func (r *attemptRepository) CountByPaper(ctx context.Context, paperID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("paper_id = ?", paperID).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts for paper %d: %w", paperID, err)
	}
	return total, nil
}

func (r *attemptRepository) CountCompletedSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("is_completed = ? AND end_time >= ?", true, since).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count recent completions: %w", err)
	}
	return total, nil
}
