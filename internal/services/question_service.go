package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gorm.io/datatypes"

	"github.com/VIIT-EP/exam-service/internal/models"
	"github.com/VIIT-EP/exam-service/internal/repositories"
	"github.com/VIIT-EP/exam-service/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) QuestionService {
	return &questionService{repo: repo, logger: logger, validator: v}
}

func (s *questionService) Create(ctx context.Context, userID uint, req *validator.QuestionCreateRequest) (*models.Question, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError("invalid question", errs)
	}

	question, err := buildQuestion(userID, req)
	if err != nil {
		return nil, NewValidationError(err.Error(), nil)
	}

	if err := s.repo.Questions().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to store question: %w", err)
	}

	s.logger.Info("question created",
		"question_id", question.ID,
		"subject", question.Subject,
		"difficulty", question.Difficulty,
		"uploaded_by", userID)
	return question, nil
}

// CreateBulk validates and normalizes every row before writing any. A single
// bad row rejects the whole upload so the bank never takes a partial batch.
func (s *questionService) CreateBulk(ctx context.Context, userID uint, req *validator.BulkQuestionRequest) (*ImportReport, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError("invalid question batch", errs)
	}

	questions := make([]*models.Question, 0, len(req.Questions))
	for i := range req.Questions {
		question, err := buildQuestion(userID, &req.Questions[i])
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("row %d: %v", i+1, err), nil)
		}
		questions = append(questions, question)
	}

	if err := s.repo.Questions().CreateBatch(ctx, questions); err != nil {
		return nil, fmt.Errorf("failed to store question batch: %w", err)
	}

	s.logger.Info("question batch created", "count", len(questions), "uploaded_by", userID)
	return &ImportReport{Imported: len(questions)}, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Questions().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return question, nil
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	return s.repo.Questions().List(ctx, filters)
}

func (s *questionService) Inventory(ctx context.Context) ([]repositories.InventoryCount, error) {
	return s.repo.Questions().Inventory(ctx)
}

func (s *questionService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Questions().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return err
	}
	s.logger.Info("question deleted", "question_id", id)
	return nil
}

// buildQuestion normalizes one upload row into the storage shape: canonical
// subject, canonical difficulty, and the answer key as a 0-based index.
func buildQuestion(userID uint, req *validator.QuestionCreateRequest) (*models.Question, error) {
	subject, err := models.ParseSubject(req.Subject)
	if err != nil {
		return nil, err
	}
	difficulty, err := models.ParseDifficulty(req.Difficulty)
	if err != nil {
		return nil, err
	}

	correctIndex, err := ResolveAnswerKey(req.AnswerKey, req.Options)
	if err != nil {
		return nil, err
	}

	options, err := json.Marshal(req.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}

	question := &models.Question{
		Text:             strings.TrimSpace(req.Text),
		Options:          datatypes.JSON(options),
		CorrectIndex:     correctIndex,
		Subject:          subject,
		Difficulty:       difficulty,
		Topic:            strings.TrimSpace(req.Topic),
		QuestionImageURL: req.QuestionImageURL,
		UploadedByID:     userID,
	}

	if len(req.OptionImageURLs) > 0 {
		urls, err := json.Marshal(req.OptionImageURLs)
		if err != nil {
			return nil, fmt.Errorf("failed to encode option images: %w", err)
		}
		question.OptionImageURLs = datatypes.JSON(urls)
	}

	return question, nil
}

// ResolveAnswerKey converts any accepted answer-key form to a 0-based option
// index. Accepted forms: a bare index ("2"), an option letter ("C", "Option C"),
// or the literal text of the correct option.
func ResolveAnswerKey(key string, options []string) (int, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, fmt.Errorf("answer key is empty")
	}

	if idx, err := strconv.Atoi(key); err == nil {
		if idx < 0 || idx >= len(options) {
			return 0, fmt.Errorf("answer index %d out of range for %d options", idx, len(options))
		}
		return idx, nil
	}

	label := strings.ToUpper(key)
	label = strings.TrimSpace(strings.TrimPrefix(label, "OPTION"))
	if len(label) == 1 && label[0] >= 'A' && label[0] <= 'Z' {
		idx := int(label[0] - 'A')
		if idx < len(options) {
			return idx, nil
		}
	}

	for i, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), key) {
			return i, nil
		}
	}

	return 0, fmt.Errorf("answer key %q matches no option", key)
}
