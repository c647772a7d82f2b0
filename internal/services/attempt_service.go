package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/VIIT-EP/exam-service/internal/events"
	"github.com/VIIT-EP/exam-service/internal/models"
	"github.com/VIIT-EP/exam-service/internal/repositories"
	"github.com/VIIT-EP/exam-service/internal/validator"
)

// GraceWindow is how long after a paper's scheduled start a student may still
// be admitted. Resuming an already-open attempt is never gated by it.
const GraceWindow = 15 * time.Minute

type attemptService struct {
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	eventTopic     string

	now func() time.Time
}

func NewAttemptService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, eventTopic string) AttemptService {
	return &attemptService{
		repo:           repo,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
		eventTopic:     eventTopic,
		now:            time.Now,
	}
}

// Start admits a student into an exam or resumes their open attempt.
//
// Admission rules for a new attempt: the paper must be active, the clock must
// be past the scheduled start, and no later than start plus the grace window.
// A completed attempt on the paper blocks re-entry permanently.
func (s *attemptService) Start(ctx context.Context, studentID uint, paperID uint) (*ExamSession, error) {
	paper, err := s.repo.Papers().GetWithQuestions(ctx, paperID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaperNotFound
		}
		return nil, err
	}
	if !paper.IsActive {
		return nil, ErrPaperInactive
	}

	now := s.now()

	if _, err := s.repo.Attempts().GetCompleted(ctx, studentID, paperID); err == nil {
		return nil, ErrAlreadyAttempted
	} else if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	// Resume path: an open attempt keeps its original deadline.
	open, err := s.repo.Attempts().GetOpen(ctx, studentID, paperID)
	if err == nil {
		remaining := open.StartTime.Add(paper.Duration()).Sub(now)
		if remaining <= 0 {
			if err := s.finalize(ctx, open, paper, now); err != nil {
				return nil, err
			}
			return nil, ErrAttemptExpired
		}
		saved, err := decodeAnswers(open.Answers)
		if err != nil {
			return nil, err
		}
		s.logger.Info("attempt resumed", "attempt_id", open.ID, "student_id", studentID, "remaining", remaining)
		return s.buildSession(paper, open, saved, remaining, true), nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	// Fresh admission: the window is [start, start+GraceWindow), closed at
	// the boundary.
	if paper.StartTime != nil {
		if now.Before(*paper.StartTime) {
			return nil, NewStateConflictError(fmt.Sprintf(
				"exam has not started yet, scheduled for %s", paper.StartTime.Format(time.RFC3339)))
		}
		if !now.Before(paper.StartTime.Add(GraceWindow)) {
			return nil, ErrAdmissionClosed
		}
	}

	attempt := &models.ExamAttempt{
		StudentID: studentID,
		PaperID:   paperID,
		StartTime: now,
	}

	err = s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		if err := repo.Attempts().Create(ctx, attempt); err != nil {
			return err
		}
		return repo.Students().SetAttemptingFlag(ctx, studentID, true)
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			// Lost a race with a concurrent start; the open attempt wins.
			return nil, NewStateConflictError("attempt already in progress")
		}
		return nil, fmt.Errorf("failed to start attempt: %w", err)
	}

	s.logger.Info("attempt started", "attempt_id", attempt.ID, "student_id", studentID, "paper_id", paperID)
	s.publish(ctx, events.TypeExamStarted, map[string]any{
		"attempt_id": attempt.ID,
		"student_id": studentID,
		"paper_id":   paperID,
	})

	return s.buildSession(paper, attempt, nil, paper.Duration(), false), nil
}

// Submit finalizes an open attempt with the supplied answers. Completed
// attempts reject resubmission; the stored result never changes after this.
func (s *attemptService) Submit(ctx context.Context, studentID uint, req *validator.SubmitAttemptRequest) (*AttemptResult, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError("invalid submission", errs)
	}

	attempt, err := s.repo.Attempts().GetByID(ctx, req.AttemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, NewPermissionError("attempt belongs to another student")
	}
	if attempt.IsCompleted {
		return nil, ErrAttemptCompleted
	}

	paper, err := s.repo.Papers().GetWithQuestions(ctx, attempt.PaperID)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	attempt.Answers = datatypes.JSON(raw)

	if err := s.finalize(ctx, attempt, paper, s.now()); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeExamSubmitted, map[string]any{
		"attempt_id": attempt.ID,
		"student_id": studentID,
		"paper_id":   attempt.PaperID,
		"score":      *attempt.Score,
	})

	return s.GetResult(ctx, studentID, attempt.ID)
}

// finalize scores the attempt's stored answers, writes the result, and clears
// the student's live-exam flag, all in one transaction.
func (s *attemptService) finalize(ctx context.Context, attempt *models.ExamAttempt, paper *models.QuestionPaper, at time.Time) error {
	answers, err := decodeAnswers(attempt.Answers)
	if err != nil {
		return err
	}

	sheet := ScoreAttempt(paperQuestions(paper), answers)

	analysis, err := json.Marshal(sheet.Analysis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	attempt.IsCompleted = true
	attempt.EndTime = &at
	attempt.Score = &sheet.TotalScore

	err = s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		if err := repo.Attempts().Update(ctx, attempt); err != nil {
			return err
		}
		result := &models.Result{
			AttemptID:    attempt.ID,
			TotalScore:   sheet.TotalScore,
			AnalysisJSON: datatypes.JSON(analysis),
		}
		if err := repo.Results().Upsert(ctx, result); err != nil {
			return err
		}
		return repo.Students().SetAttemptingFlag(ctx, attempt.StudentID, false)
	})
	if err != nil {
		return fmt.Errorf("failed to finalize attempt %d: %w", attempt.ID, err)
	}

	s.logger.Info("attempt finalized",
		"attempt_id", attempt.ID,
		"student_id", attempt.StudentID,
		"score", sheet.TotalScore,
		"total_marks", sheet.TotalMarks)
	return nil
}

func (s *attemptService) GetResult(ctx context.Context, studentID uint, attemptID uint) (*AttemptResult, error) {
	attempt, err := s.repo.Attempts().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, NewPermissionError("attempt belongs to another student")
	}

	result, err := s.repo.Results().GetByAttemptID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}

	return buildAttemptResult(attempt, result)
}

func (s *attemptService) History(ctx context.Context, studentID uint) ([]AttemptResult, error) {
	results, err := s.repo.Results().ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	out := make([]AttemptResult, 0, len(results))
	for _, r := range results {
		item, err := buildAttemptResult(&r.Attempt, r)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, nil
}

// ReconcileAttemptingFlags sweeps open attempts whose time has run out,
// finalizes them with whatever answers were saved, and clears the students'
// live-exam flags. Returns how many attempts were closed.
func (s *attemptService) ReconcileAttemptingFlags(ctx context.Context) (int, error) {
	now := s.now()

	// Attempts younger than the shortest possible duration cannot have
	// expired, so a one hour cutoff bounds the scan.
	stale, err := s.repo.Attempts().ListOpenOlderThan(ctx, now.Add(-time.Hour))
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, attempt := range stale {
		deadline := attempt.StartTime.Add(attempt.Paper.Duration())
		if now.Before(deadline) {
			continue
		}
		paper, err := s.repo.Papers().GetWithQuestions(ctx, attempt.PaperID)
		if err != nil {
			s.logger.Error("reconcile: failed to load paper", "attempt_id", attempt.ID, "error", err)
			continue
		}
		if err := s.finalize(ctx, attempt, paper, deadline); err != nil {
			s.logger.Error("reconcile: failed to finalize attempt", "attempt_id", attempt.ID, "error", err)
			continue
		}
		closed++
	}

	if closed > 0 {
		s.logger.Info("stale attempts reconciled", "closed", closed)
	}
	return closed, nil
}

func (s *attemptService) buildSession(paper *models.QuestionPaper, attempt *models.ExamAttempt, saved map[uint]int, remaining time.Duration, resumed bool) *ExamSession {
	questions := make([]QuestionView, 0, len(paper.PaperQuestions))
	for i := range paper.PaperQuestions {
		questions = append(questions, sanitizeQuestion(&paper.PaperQuestions[i].Question))
	}
	return &ExamSession{
		AttemptID:     attempt.ID,
		PaperID:       paper.ID,
		Title:         paper.Title,
		Questions:     questions,
		StartedAt:     attempt.StartTime,
		TimeRemaining: remaining,
		SavedAnswers:  saved,
		Resumed:       resumed,
	}
}

func (s *attemptService) publish(ctx context.Context, eventType string, data map[string]any) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, s.eventTopic, events.NewEvent(eventType, data)); err != nil {
		s.logger.Warn("failed to publish event", "type", eventType, "error", err)
	}
}

// sanitizeQuestion strips everything an examinee must not see, above all the
// answer key.
func sanitizeQuestion(q *models.Question) QuestionView {
	view := QuestionView{
		ID:               q.ID,
		Text:             q.Text,
		Subject:          string(q.Subject),
		QuestionImageURL: q.QuestionImageURL,
	}
	if len(q.Options) > 0 {
		_ = json.Unmarshal(q.Options, &view.Options)
	}
	if len(q.OptionImageURLs) > 0 {
		_ = json.Unmarshal(q.OptionImageURLs, &view.OptionImageURLs)
	}
	return view
}

func paperQuestions(paper *models.QuestionPaper) []*models.Question {
	questions := make([]*models.Question, 0, len(paper.PaperQuestions))
	for i := range paper.PaperQuestions {
		questions = append(questions, &paper.PaperQuestions[i].Question)
	}
	return questions
}

func decodeAnswers(raw datatypes.JSON) (map[uint]int, error) {
	if len(raw) == 0 {
		return map[uint]int{}, nil
	}
	var answers map[uint]int
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}
	return answers, nil
}

func buildAttemptResult(attempt *models.ExamAttempt, result *models.Result) (*AttemptResult, error) {
	var analysis map[models.Subject]models.SubjectScore
	if len(result.AnalysisJSON) > 0 {
		if err := json.Unmarshal(result.AnalysisJSON, &analysis); err != nil {
			return nil, fmt.Errorf("failed to decode analysis: %w", err)
		}
	}

	var accuracy float64
	if attempt.Paper.TotalMarks > 0 {
		accuracy = 100 * float64(result.TotalScore) / float64(attempt.Paper.TotalMarks)
	}
	var taken int
	if attempt.EndTime != nil {
		taken = int(attempt.EndTime.Sub(attempt.StartTime).Seconds())
	}

	return &AttemptResult{
		AttemptID:        attempt.ID,
		PaperID:          attempt.PaperID,
		PaperTitle:       attempt.Paper.Title,
		TotalScore:       result.TotalScore,
		TotalMarks:       attempt.Paper.TotalMarks,
		Analysis:         analysis,
		Accuracy:         accuracy,
		TimeTakenSeconds: taken,
		SubmittedAt:      attempt.EndTime,
	}, nil
}
