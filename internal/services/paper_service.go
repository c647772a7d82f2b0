package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/VIIT-EP/exam-service/internal/events"
	"github.com/VIIT-EP/exam-service/internal/models"
	"github.com/VIIT-EP/exam-service/internal/repositories"
	"github.com/VIIT-EP/exam-service/internal/validator"
)

const defaultDurationHours = 3

type paperService struct {
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	eventTopic     string

	// newRand builds the source for one assembly run; injectable for
	// deterministic tests.
	newRand func() *rand.Rand
}

func NewPaperService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, eventTopic string) PaperService {
	return &paperService{
		repo:           repo,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
		eventTopic:     eventTopic,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

func (s *paperService) GenerateBalanced(ctx context.Context, userID uint, req *validator.BalancedPaperRequest) (*PaperSummary, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError("invalid paper request", errs)
	}

	pool, err := s.repo.Questions().ListForAssembly(ctx, models.AllSubjects())
	if err != nil {
		return nil, fmt.Errorf("failed to load question pool: %w", err)
	}

	questionIDs, err := PlanBalancedPaper(BuildInventory(pool), s.newRand())
	if err != nil {
		return nil, err
	}

	return s.persistPaper(ctx, userID, req.Title, req.DurationHours, req.StartTime, questionIDs)
}

func (s *paperService) GenerateCustom(ctx context.Context, userID uint, req *validator.CustomPaperRequest) (*PaperSummary, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError("invalid paper request", errs)
	}

	type cellKey struct {
		subject    models.Subject
		difficulty models.Difficulty
		topic      string
	}

	cells := make([]QuotaCell, 0, len(req.Quotas))
	subjects := make([]models.Subject, 0, len(req.Quotas))
	seenSubject := make(map[models.Subject]bool)
	seenCell := make(map[cellKey]bool)
	for _, q := range req.Quotas {
		subject, err := models.ParseSubject(q.Subject)
		if err != nil {
			return nil, NewValidationError(err.Error(), nil)
		}
		difficulty, err := models.ParseDifficulty(q.Difficulty)
		if err != nil {
			return nil, NewValidationError(err.Error(), nil)
		}
		key := cellKey{subject, difficulty, q.Topic}
		if seenCell[key] {
			return nil, NewValidationError(fmt.Sprintf("distribution cell %s/%s listed twice", subject, difficulty), nil)
		}
		seenCell[key] = true
		if !seenSubject[subject] {
			seenSubject[subject] = true
			subjects = append(subjects, subject)
		}
		cells = append(cells, QuotaCell{Subject: subject, Difficulty: difficulty, Count: q.Count, Topic: q.Topic})
	}

	pool, err := s.repo.Questions().ListForAssembly(ctx, subjects)
	if err != nil {
		return nil, fmt.Errorf("failed to load question pool: %w", err)
	}

	questionIDs, err := PlanCustomPaper(BuildInventory(pool), cells, s.newRand())
	if err != nil {
		return nil, err
	}

	return s.persistPaper(ctx, userID, req.Title, req.DurationHours, req.StartTime, questionIDs)
}

func (s *paperService) persistPaper(ctx context.Context, userID uint, title string, durationHours int, startTime *time.Time, questionIDs []uint) (*PaperSummary, error) {
	if durationHours == 0 {
		durationHours = defaultDurationHours
	}

	breakdown, err := s.subjectBreakdown(ctx, questionIDs)
	if err != nil {
		return nil, err
	}

	paper := &models.QuestionPaper{
		Title:         title,
		CreatedByID:   userID,
		DurationHours: durationHours,
		StartTime:     startTime,
		TotalMarks:    len(questionIDs),
	}

	if err := s.repo.Papers().Create(ctx, paper, questionIDs); err != nil {
		return nil, fmt.Errorf("failed to persist paper: %w", err)
	}

	s.logger.Info("paper generated",
		"paper_id", paper.ID,
		"title", paper.Title,
		"questions", len(questionIDs),
		"created_by", userID)

	summary := toPaperSummary(paper)
	summary.Breakdown = breakdown
	return &summary, nil
}

// subjectBreakdown counts the selected questions per subject for the creation
// response.
func (s *paperService) subjectBreakdown(ctx context.Context, questionIDs []uint) (map[models.Subject]int, error) {
	questions, err := s.repo.Questions().GetByIDs(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load selected questions: %w", err)
	}
	breakdown := make(map[models.Subject]int, len(questions))
	for _, q := range questions {
		breakdown[q.Subject]++
	}
	return breakdown, nil
}

func (s *paperService) Preview(ctx context.Context, userID uint, paperID uint) (*PaperPreview, error) {
	paper, err := s.repo.Papers().GetWithQuestions(ctx, paperID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaperNotFound
		}
		return nil, err
	}

	if paper.CreatedByID != userID {
		return nil, NewPermissionError("only the paper's creator can preview it")
	}

	questions := make([]*models.Question, 0, len(paper.PaperQuestions))
	for i := range paper.PaperQuestions {
		q := paper.PaperQuestions[i].Question
		questions = append(questions, &q)
	}

	return &PaperPreview{Paper: toPaperSummary(paper), Questions: questions}, nil
}

func (s *paperService) SetActive(ctx context.Context, paperID uint, active bool) error {
	if err := s.repo.Papers().SetActive(ctx, paperID, active); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrPaperNotFound
		}
		return err
	}

	s.logger.Info("paper activation changed", "paper_id", paperID, "active", active)

	if active && s.eventPublisher != nil {
		event := events.NewEvent(events.TypePaperActivated, map[string]any{"paper_id": paperID})
		if err := s.eventPublisher.Publish(ctx, s.eventTopic, event); err != nil {
			s.logger.Warn("failed to publish paper activation event", "paper_id", paperID, "error", err)
		}
	}
	return nil
}

func (s *paperService) List(ctx context.Context, filters repositories.PaperFilters) ([]PaperSummary, int64, error) {
	papers, total, err := s.repo.Papers().List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	summaries := make([]PaperSummary, 0, len(papers))
	for _, p := range papers {
		summaries = append(summaries, toPaperSummary(p))
	}
	return summaries, total, nil
}

func (s *paperService) Delete(ctx context.Context, paperID uint) error {
	count, err := s.repo.Attempts().CountByPaper(ctx, paperID)
	if err != nil {
		return err
	}
	if count > 0 {
		return NewStateConflictError("paper has attempts and cannot be deleted")
	}

	if err := s.repo.Papers().Delete(ctx, paperID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrPaperNotFound
		}
		return err
	}
	s.logger.Info("paper deleted", "paper_id", paperID)
	return nil
}

func toPaperSummary(paper *models.QuestionPaper) PaperSummary {
	return PaperSummary{
		ID:            paper.ID,
		Title:         paper.Title,
		DurationHours: paper.DurationHours,
		StartTime:     paper.StartTime,
		TotalMarks:    paper.TotalMarks,
		IsActive:      paper.IsActive,
		CreatedAt:     paper.CreatedAt,
	}
}
