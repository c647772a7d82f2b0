package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/VIIT-EP/exam-service/internal/models"
	"github.com/VIIT-EP/exam-service/internal/repositories"
)

type studentRepository struct {
	db *gorm.DB
}

func newStudentRepository(db *gorm.DB) repositories.StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	if err := r.db.WithContext(ctx).Create(student).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("student %s: %w", student.Email, repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get student %d: %w", id, err)
	}
	return &student, nil
}

func (r *studentRepository) GetByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("student_id = ?", studentID).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get student by login code: %w", err)
	}
	return &student, nil
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get student by email: %w", err)
	}
	return &student, nil
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	if err := r.db.WithContext(ctx).Save(student).Error; err != nil {
		return fmt.Errorf("failed to update student %d: %w", student.ID, err)
	}
	return nil
}

func (r *studentRepository) SetAttemptingFlag(ctx context.Context, id uint, attempting bool) error {
	result := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ?", id).
		Update("is_attempting_exam", attempting)
	if result.Error != nil {
		return fmt.Errorf("failed to set attempting flag for student %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *studentRepository) List(ctx context.Context, limit, offset int) ([]*models.Student, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Student{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count students: %w", err)
	}

	query := r.db.WithContext(ctx).Order("student_id ASC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var students []*models.Student
	if err := query.Find(&students).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list students: %w", err)
	}
	return students, total, nil
}

func (r *studentRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Student{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return total, nil
}

func (r *studentRepository) LastStudentID(ctx context.Context) (string, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Order("student_id DESC").
		Select("student_id").
		First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get last student id: %w", err)
	}
	return student.StudentID, nil
}
