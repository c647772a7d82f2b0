package services

import (
	"github.com/VIIT-EP/exam-service/internal/models"
)

// ScoreSheet is the outcome of marking one answer map against a paper.
type ScoreSheet struct {
	TotalScore int
	TotalMarks int
	Analysis   map[models.Subject]models.SubjectScore
}

// ScoreAttempt marks answers against the paper's questions. One mark per
// correct answer, no negative marking. Unanswered or out-of-range selections
// score zero. Every subject present on the paper appears in the analysis even
// when the student scored nothing in it, so report shapes stay stable.
func ScoreAttempt(questions []*models.Question, answers map[uint]int) ScoreSheet {
	sheet := ScoreSheet{
		TotalMarks: len(questions),
		Analysis:   make(map[models.Subject]models.SubjectScore),
	}

	for _, q := range questions {
		cell := sheet.Analysis[q.Subject]
		cell.Total++

		if selected, ok := answers[q.ID]; ok && selected == q.CorrectIndex {
			cell.Score++
			sheet.TotalScore++
		}

		sheet.Analysis[q.Subject] = cell
	}

	return sheet
}

// Rank returns the 1-based standing of a score within all scores on the same
// paper: one plus the number of strictly better scores. Ties share a rank.
func Rank(score int, allScores []int) int {
	better := 0
	for _, s := range allScores {
		if s > score {
			better++
		}
	}
	return better + 1
}

// Percentile is the share of peers scoring strictly below, rounded to the
// nearest integer. A lone result is the 100th percentile. scores may be a
// score-descending prefix of the board as long as it holds every score
// strictly above this one; population is the full board size.
func Percentile(score int, scores []int, population int) int {
	if population <= 1 {
		return 100
	}
	better := 0
	for _, s := range scores {
		if s > score {
			better++
		}
	}
	// round(100 * (n - better - 1) / (n - 1))
	p := float64(100*(population-better-1)) / float64(population-1)
	return int(p + 0.5)
}
