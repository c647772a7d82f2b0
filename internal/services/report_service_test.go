package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/VIIT-EP/exam-service/internal/models"
)

func resultRow(t *testing.T, attemptID uint, score int, name, code string, analysis map[models.Subject]models.SubjectScore) *models.Result {
	t.Helper()
	raw, err := json.Marshal(analysis)
	if err != nil {
		t.Fatalf("marshal analysis: %v", err)
	}
	return &models.Result{
		AttemptID:    attemptID,
		TotalScore:   score,
		AnalysisJSON: datatypes.JSON(raw),
		Attempt: models.ExamAttempt{
			ID: attemptID,
			Student: models.Student{
				FullName:  name,
				StudentID: code,
			},
			Paper: models.QuestionPaper{Title: "Mock", TotalMarks: 100},
		},
	}
}

func TestRankResults(t *testing.T) {
	results := []*models.Result{
		resultRow(t, 1, 90, "A", "VIIT000001", nil),
		resultRow(t, 2, 80, "B", "VIIT000002", nil),
		resultRow(t, 3, 80, "C", "VIIT000003", nil),
		resultRow(t, 4, 50, "D", "VIIT000004", nil),
	}

	ranked, err := rankResults(results, len(results))
	if err != nil {
		t.Fatalf("rankResults failed: %v", err)
	}

	wantRanks := []int{1, 2, 2, 4}
	wantPercentiles := []int{100, 67, 67, 0}
	for i, r := range ranked {
		if r.Rank != wantRanks[i] {
			t.Errorf("row %d rank = %d, want %d", i, r.Rank, wantRanks[i])
		}
		if r.Percentile != wantPercentiles[i] {
			t.Errorf("row %d percentile = %d, want %d", i, r.Percentile, wantPercentiles[i])
		}
	}

	if ranked[0].StudentName != "A" || ranked[0].StudentCode != "VIIT000001" {
		t.Errorf("top row student = %s/%s", ranked[0].StudentName, ranked[0].StudentCode)
	}
}

// seedCompleted registers a student and gives them a scored attempt on paper 1.
func seedCompleted(repo *fakeRepo, studentID uint, score int, at time.Time) uint {
	repo.students[studentID] = &models.Student{
		ID:        studentID,
		StudentID: fmt.Sprintf("VIIT%06d", studentID),
		FullName:  fmt.Sprintf("Student %d", studentID),
	}
	repo.nextAttemptID++
	attemptID := repo.nextAttemptID
	end := at.Add(time.Hour)
	repo.attempts[attemptID] = &models.ExamAttempt{
		ID:          attemptID,
		StudentID:   studentID,
		PaperID:     1,
		StartTime:   at,
		EndTime:     &end,
		IsCompleted: true,
	}
	repo.results[attemptID] = &models.Result{AttemptID: attemptID, TotalScore: score}
	return attemptID
}

func newTestReportService(repo *fakeRepo) ReportService {
	return NewReportService(repo, slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func TestPaperReport(t *testing.T) {
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	fixturePaper(t, repo, at)

	seedCompleted(repo, 1, 3, at)
	seedCompleted(repo, 2, 2, at)
	seedCompleted(repo, 3, 1, at)
	// A fourth student registered but never sat the paper.
	repo.students[4] = &models.Student{ID: 4, StudentID: "VIIT000004"}

	svc := newTestReportService(repo)
	report, err := svc.PaperReport(context.Background(), 1)
	if err != nil {
		t.Fatalf("PaperReport failed: %v", err)
	}

	if report.AttemptCount != 3 {
		t.Errorf("AttemptCount = %d, want 3", report.AttemptCount)
	}
	if report.CompletedCount != 3 {
		t.Errorf("CompletedCount = %d, want 3", report.CompletedCount)
	}
	if report.RegisteredStudents != 4 {
		t.Errorf("RegisteredStudents = %d, want 4", report.RegisteredStudents)
	}
	if report.PercentAttempted != 75 {
		t.Errorf("PercentAttempted = %v, want 75", report.PercentAttempted)
	}
	if report.AverageScore != 2 {
		t.Errorf("AverageScore = %v, want 2", report.AverageScore)
	}
	if len(report.Leaderboard) != 3 || report.Leaderboard[0].TotalScore != 3 {
		t.Errorf("leaderboard = %+v", report.Leaderboard)
	}
}

func TestTopStudents_WindowedBoard(t *testing.T) {
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	fixturePaper(t, repo, at)

	seedCompleted(repo, 1, 90, at)
	seedCompleted(repo, 2, 80, at)
	seedCompleted(repo, 3, 80, at)
	seedCompleted(repo, 4, 50, at)

	svc := newTestReportService(repo)
	top, err := svc.TopStudents(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("TopStudents failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("top board has %d rows, want 2", len(top))
	}

	// Ranks and percentiles must place the window against the full board of 4.
	if top[0].Rank != 1 || top[0].Percentile != 100 {
		t.Errorf("row 0 rank/percentile = %d/%d, want 1/100", top[0].Rank, top[0].Percentile)
	}
	if top[1].Rank != 2 || top[1].Percentile != 67 {
		t.Errorf("row 1 rank/percentile = %d/%d, want 2/67", top[1].Rank, top[1].Percentile)
	}
}

func TestAggregateSubjects(t *testing.T) {
	results := []*models.Result{
		resultRow(t, 1, 50, "A", "VIIT000001", map[models.Subject]models.SubjectScore{
			models.SubjectPhysics:   {Score: 30, Total: 40},
			models.SubjectChemistry: {Score: 20, Total: 40},
		}),
		resultRow(t, 2, 40, "B", "VIIT000002", map[models.Subject]models.SubjectScore{
			models.SubjectPhysics:   {Score: 10, Total: 40},
			models.SubjectChemistry: {Score: 30, Total: 40},
		}),
	}

	stats, err := aggregateSubjects(results)
	if err != nil {
		t.Fatalf("aggregateSubjects failed: %v", err)
	}

	phys := stats[models.SubjectPhysics]
	if phys.AverageScore != 20 || phys.Total != 40 {
		t.Errorf("physics stat = %+v, want avg 20 total 40", phys)
	}
	chem := stats[models.SubjectChemistry]
	if chem.AverageScore != 25 || chem.Total != 40 {
		t.Errorf("chemistry stat = %+v, want avg 25 total 40", chem)
	}
}
