package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/VIIT-EP/exam-service/internal/validator"
)

// Expected upload columns, first row is the header.
var importHeader = []string{"Text", "Option A", "Option B", "Option C", "Option D", "Answer", "Subject", "Difficulty", "Topic"}

type importExportService struct {
	logger   *slog.Logger
	question QuestionService
	report   ReportService
}

func NewImportExportService(logger *slog.Logger, question QuestionService, report ReportService) ImportExportService {
	return &importExportService{logger: logger, question: question, report: report}
}

// ImportQuestions ingests an xlsx workbook of questions. Rows that fail to
// normalize are reported back with their row numbers; valid rows are only
// written when every row passes, matching the all-or-nothing bulk upload.
func (s *importExportService) ImportQuestions(ctx context.Context, userID uint, data []byte) (*ImportReport, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("cannot read workbook: %v", err), nil)
	}
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	rows, err := workbook.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, NewValidationError("workbook has no question rows", nil)
	}
	if err := checkImportHeader(rows[0]); err != nil {
		return nil, NewValidationError(err.Error(), nil)
	}

	report := &ImportReport{}
	var items []validator.QuestionCreateRequest

	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlankRow(row) {
			report.Skipped++
			continue
		}
		item, err := parseQuestionRow(row)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		items = append(items, item)
	}

	if len(report.Errors) > 0 {
		return report, NewValidationError(fmt.Sprintf("%d rows failed to parse", len(report.Errors)), report.Errors)
	}

	bulk, err := s.question.CreateBulk(ctx, userID, &validator.BulkQuestionRequest{Questions: items})
	if err != nil {
		return nil, err
	}
	report.Imported = bulk.Imported

	s.logger.Info("questions imported from workbook", "imported", report.Imported, "skipped", report.Skipped)
	return report, nil
}

// ExportResults writes a paper's ranked results to an xlsx workbook.
func (s *importExportService) ExportResults(ctx context.Context, paperID uint) ([]byte, error) {
	ranked, err := s.report.TopStudents(ctx, paperID, 0)
	if err != nil {
		return nil, err
	}

	workbook := excelize.NewFile()
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	header := []any{"Rank", "Student ID", "Name", "Score", "Total", "Percentile"}
	if err := workbook.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range ranked {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{row.Rank, row.StudentCode, row.StudentName, row.TotalScore, row.TotalMarks, row.Percentile}
		if err := workbook.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := workbook.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func checkImportHeader(row []string) error {
	if len(row) < len(importHeader) {
		return fmt.Errorf("header has %d columns, want %d", len(row), len(importHeader))
	}
	for i, want := range importHeader {
		if !strings.EqualFold(strings.TrimSpace(row[i]), want) {
			return fmt.Errorf("header column %d is %q, want %q", i+1, row[i], want)
		}
	}
	return nil
}

func parseQuestionRow(row []string) (validator.QuestionCreateRequest, error) {
	get := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	if get(0) == "" {
		return validator.QuestionCreateRequest{}, fmt.Errorf("question text is empty")
	}

	var options []string
	for i := 1; i <= 4; i++ {
		if opt := get(i); opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) < 2 {
		return validator.QuestionCreateRequest{}, fmt.Errorf("need at least 2 options, have %d", len(options))
	}

	return validator.QuestionCreateRequest{
		Text:       get(0),
		Options:    options,
		AnswerKey:  get(5),
		Subject:    get(6),
		Difficulty: get(7),
		Topic:      get(8),
	}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
