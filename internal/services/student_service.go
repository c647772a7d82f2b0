package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/VIIT-EP/exam-service/internal/events"
	"github.com/VIIT-EP/exam-service/internal/models"
	"github.com/VIIT-EP/exam-service/internal/repositories"
	"github.com/VIIT-EP/exam-service/internal/validator"
)

// studentIDPrefix starts every issued login code; the numeric suffix is a
// monotonically increasing sequence.
const studentIDPrefix = "VIIT"

type studentService struct {
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	eventTopic     string
}

func NewStudentService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, eventTopic string) StudentService {
	return &studentService{
		repo:           repo,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
		eventTopic:     eventTopic,
	}
}

// Register creates the student and issues their login code inside one
// transaction, so two concurrent registrations cannot share a code.
func (s *studentService) Register(ctx context.Context, req *validator.StudentRegisterRequest) (*StudentCredentials, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError("invalid registration", errs)
	}

	if _, err := s.repo.Students().GetByEmail(ctx, req.Email); err == nil {
		return nil, NewStateConflictError("email already registered")
	} else if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	student := &models.Student{
		FullName:    strings.TrimSpace(req.FullName),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Password:    string(hash),
		DateOfBirth: req.DateOfBirth,
	}

	err = s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		last, err := repo.Students().LastStudentID(ctx)
		if err != nil {
			return err
		}
		student.StudentID = NextStudentID(last)
		return repo.Students().Create(ctx, student)
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewStateConflictError("email already registered")
		}
		return nil, fmt.Errorf("failed to register student: %w", err)
	}

	s.logger.Info("student registered", "student_id", student.StudentID, "email", student.Email)

	if s.eventPublisher != nil {
		event := events.NewEvent(events.TypeStudentRegistered, map[string]any{
			"student_id": student.StudentID,
			"email":      student.Email,
			"full_name":  student.FullName,
		})
		if err := s.eventPublisher.Publish(ctx, s.eventTopic, event); err != nil {
			s.logger.Warn("failed to publish registration event", "student_id", student.StudentID, "error", err)
		}
	}

	return &StudentCredentials{
		StudentID: student.StudentID,
		FullName:  student.FullName,
		Email:     student.Email,
	}, nil
}

func (s *studentService) Login(ctx context.Context, req *validator.StudentLoginRequest) (*models.Student, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError("invalid login", errs)
	}

	student, err := s.repo.Students().GetByStudentID(ctx, strings.ToUpper(strings.TrimSpace(req.StudentID)))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(student.Password), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return student, nil
}

func (s *studentService) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	student, err := s.repo.Students().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func (s *studentService) List(ctx context.Context, limit, offset int) ([]*models.Student, int64, error) {
	return s.repo.Students().List(ctx, limit, offset)
}

// NextStudentID derives the next login code from the highest issued one.
// Codes look like VIIT000001; an empty or unparseable predecessor restarts
// the sequence.
func NextStudentID(last string) string {
	seq := 0
	if suffix, ok := strings.CutPrefix(last, studentIDPrefix); ok {
		if n, err := strconv.Atoi(suffix); err == nil {
			seq = n
		}
	}
	return fmt.Sprintf("%s%06d", studentIDPrefix, seq+1)
}
