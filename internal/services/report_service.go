package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/VIIT-EP/exam-service/internal/models"
	"github.com/VIIT-EP/exam-service/internal/repositories"
)

type reportService struct {
	repo   repositories.Repository
	logger *slog.Logger

	now func() time.Time
}

func NewReportService(repo repositories.Repository, logger *slog.Logger) ReportService {
	return &reportService{repo: repo, logger: logger, now: time.Now}
}

func (s *reportService) TopStudents(ctx context.Context, paperID uint, limit int) ([]RankedResult, error) {
	// limit <= 0 means the full board.
	if limit <= 0 {
		results, err := s.repo.Results().ListByPaper(ctx, paperID)
		if err != nil {
			return nil, err
		}
		return rankResults(results, len(results))
	}

	// Every score strictly above a top row is itself a top row, so ranks are
	// computable from the window alone; percentiles need the board size.
	results, err := s.repo.Results().TopByPaper(ctx, paperID, limit)
	if err != nil {
		return nil, err
	}
	population, err := s.repo.Results().CountByPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	return rankResults(results, int(population))
}

func (s *reportService) PaperReport(ctx context.Context, paperID uint) (*PaperReport, error) {
	paper, err := s.repo.Papers().GetByID(ctx, paperID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaperNotFound
		}
		return nil, err
	}

	results, err := s.repo.Results().ListByPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}

	attemptCount, err := s.repo.Attempts().CountByPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}

	average, err := s.repo.Results().AverageByPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}

	registered, err := s.repo.Students().Count(ctx)
	if err != nil {
		return nil, err
	}

	subjectStats, err := aggregateSubjects(results)
	if err != nil {
		return nil, err
	}

	leaderboard, err := rankResults(results, len(results))
	if err != nil {
		return nil, err
	}
	if len(leaderboard) > 10 {
		leaderboard = leaderboard[:10]
	}

	var percentAttempted float64
	if registered > 0 {
		percentAttempted = 100 * float64(attemptCount) / float64(registered)
	}

	return &PaperReport{
		Paper:              toPaperSummary(paper),
		AttemptCount:       attemptCount,
		CompletedCount:     int64(len(results)),
		RegisteredStudents: registered,
		PercentAttempted:   percentAttempted,
		AverageScore:       average,
		SubjectStats:       subjectStats,
		Leaderboard:        leaderboard,
	}, nil
}

func (s *reportService) AdminStats(ctx context.Context) (*AdminStats, error) {
	students, err := s.repo.Students().Count(ctx)
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.Questions().Count(ctx)
	if err != nil {
		return nil, err
	}

	_, activePapers, err := s.repo.Papers().List(ctx, repositories.PaperFilters{ActiveOnly: true, Limit: 1})
	if err != nil {
		return nil, err
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	completedToday, err := s.repo.Attempts().CountCompletedSince(ctx, midnight)
	if err != nil {
		return nil, err
	}

	inExam, err := s.countAttemptingStudents(ctx)
	if err != nil {
		return nil, err
	}

	return &AdminStats{
		TotalStudents:  students,
		TotalQuestions: questions,
		ActivePapers:   activePapers,
		StudentsInExam: inExam,
		CompletedToday: completedToday,
	}, nil
}

func (s *reportService) StudentStanding(ctx context.Context, studentID, attemptID uint) (*RankedResult, error) {
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

	results, err := s.repo.Results().ListByPaper(ctx, attempt.PaperID)
	if err != nil {
		return nil, err
	}

	ranked, err := rankResults(results, len(results))
	if err != nil {
		return nil, err
	}
	for i := range ranked {
		if ranked[i].AttemptID == attemptID {
			return &ranked[i], nil
		}
	}
	return nil, ErrResultNotFound
}

func (s *reportService) countAttemptingStudents(ctx context.Context) (int64, error) {
	// Open attempts that still have time on the clock; their owners are the
	// students currently in an exam.
	open, err := s.repo.Attempts().ListOpenOlderThan(ctx, s.now().Add(24*time.Hour))
	if err != nil {
		return 0, err
	}
	now := s.now()
	var count int64
	for _, attempt := range open {
		if now.Before(attempt.StartTime.Add(attempt.Paper.Duration())) {
			count++
		}
	}
	return count, nil
}

// rankResults converts score-ordered results into ranked rows. Ties share a
// rank; percentile counts strictly lower peers. population is the full board
// size; results may be a score-descending prefix of it.
func rankResults(results []*models.Result, population int) ([]RankedResult, error) {
	scores := make([]int, 0, len(results))
	for _, r := range results {
		scores = append(scores, r.TotalScore)
	}

	ranked := make([]RankedResult, 0, len(results))
	for _, r := range results {
		item, err := buildAttemptResult(&r.Attempt, r)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, RankedResult{
			AttemptResult: *item,
			StudentName:   r.Attempt.Student.FullName,
			StudentCode:   r.Attempt.Student.StudentID,
			Rank:          Rank(r.TotalScore, scores),
			Percentile:    Percentile(r.TotalScore, scores, population),
		})
	}
	return ranked, nil
}

// aggregateSubjects averages per-subject scores across all results.
func aggregateSubjects(results []*models.Result) (map[models.Subject]SubjectStat, error) {
	sums := make(map[models.Subject]int)
	totals := make(map[models.Subject]int)
	counts := make(map[models.Subject]int)

	for _, r := range results {
		if len(r.AnalysisJSON) == 0 {
			continue
		}
		var analysis map[models.Subject]models.SubjectScore
		if err := json.Unmarshal(r.AnalysisJSON, &analysis); err != nil {
			return nil, fmt.Errorf("failed to decode analysis for attempt %d: %w", r.AttemptID, err)
		}
		for subject, cell := range analysis {
			sums[subject] += cell.Score
			totals[subject] = cell.Total
			counts[subject]++
		}
	}

	stats := make(map[models.Subject]SubjectStat, len(sums))
	for subject, sum := range sums {
		stats[subject] = SubjectStat{
			AverageScore: float64(sum) / float64(counts[subject]),
			Total:        totals[subject],
		}
	}
	return stats, nil
}
