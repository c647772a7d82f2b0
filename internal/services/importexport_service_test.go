package services

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/VIIT-EP/exam-service/internal/models"
	"github.com/VIIT-EP/exam-service/internal/validator"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	workbook := excelize.NewFile()
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	header := []any{"Text", "Option A", "Option B", "Option C", "Option D", "Answer", "Subject", "Difficulty", "Topic"}
	if err := workbook.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := workbook.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("write row %d: %v", i, err)
		}
	}

	var buf bytes.Buffer
	if err := workbook.Write(&buf); err != nil {
		t.Fatalf("serialize workbook: %v", err)
	}
	return buf.Bytes()
}

func newTestImportService(repo *fakeRepo) ImportExportService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	v := validator.New()
	question := NewQuestionService(repo, logger, v)
	report := NewReportService(repo, logger)
	return NewImportExportService(logger, question, report)
}

func TestImportQuestions(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestImportService(repo)

	data := buildWorkbook(t, [][]any{
		{"What is g on Earth?", "4.9", "9.8", "19.6", "39.2", "Option B", "Physics", "easy", "mechanics"},
		{"Integrate x dx", "x", "x^2/2", "2x", "1", "1", "MATHS", "MEDIUM", "calculus"},
	})

	report, err := svc.ImportQuestions(context.Background(), 1, data)
	if err != nil {
		t.Fatalf("ImportQuestions failed: %v", err)
	}
	if report.Imported != 2 {
		t.Errorf("Imported = %d, want 2", report.Imported)
	}

	// Both alias and label forms must be normalized on the way in.
	var sawMaths, sawPhysics bool
	for _, q := range repo.questions {
		switch q.Subject {
		case models.SubjectMathematics:
			sawMaths = true
			if q.CorrectIndex != 1 {
				t.Errorf("maths answer index = %d, want 1", q.CorrectIndex)
			}
		case models.SubjectPhysics:
			sawPhysics = true
			if q.CorrectIndex != 1 {
				t.Errorf("physics answer index = %d, want 1", q.CorrectIndex)
			}
			if q.Difficulty != models.DifficultyEasy {
				t.Errorf("physics difficulty = %s, want EASY", q.Difficulty)
			}
		}
	}
	if !sawMaths || !sawPhysics {
		t.Error("imported questions missing from the bank")
	}
}

func TestImportQuestions_BadRowRejectsBatch(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestImportService(repo)

	// A row with a single option fails at parse time.
	data := buildWorkbook(t, [][]any{
		{"Valid question", "a", "b", "c", "d", "0", "PHYSICS", "EASY", ""},
		{"Only one option", "a", "", "", "", "0", "PHYSICS", "EASY", ""},
	})

	report, err := svc.ImportQuestions(context.Background(), 1, data)
	if err == nil {
		t.Fatal("batch with bad row accepted")
	}
	if report == nil || len(report.Errors) != 1 {
		t.Fatalf("expected 1 row error, got %+v", report)
	}
	if len(repo.questions) != 0 {
		t.Error("partial batch written to the bank")
	}

	// An unknown subject passes parsing but fails validation, and still
	// writes nothing.
	data = buildWorkbook(t, [][]any{
		{"Valid question", "a", "b", "c", "d", "0", "PHYSICS", "EASY", ""},
		{"Bad subject", "a", "b", "c", "d", "0", "HISTORY", "EASY", ""},
	})
	if _, err := svc.ImportQuestions(context.Background(), 1, data); err == nil {
		t.Fatal("batch with unknown subject accepted")
	}
	if len(repo.questions) != 0 {
		t.Error("partial batch written to the bank")
	}
}

func TestImportQuestions_NotAWorkbook(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestImportService(repo)

	if _, err := svc.ImportQuestions(context.Background(), 1, []byte("not an xlsx")); err == nil {
		t.Fatal("garbage bytes accepted as workbook")
	}
}
