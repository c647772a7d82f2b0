package models

import (
	"time"

	"gorm.io/datatypes"
)

// ExamAttempt tracks one student's single pass at a paper. At most one
// incomplete attempt may exist per (student, paper); the partial unique index
// below enforces that at the storage layer so concurrent starts cannot race
// past the application-level lookup.
type ExamAttempt struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	StudentID uint `json:"student_id" gorm:"not null;index:idx_attempt_student_paper"`
	PaperID   uint `json:"paper_id" gorm:"not null;index:idx_attempt_student_paper"`

	StartTime   time.Time  `json:"start_time" gorm:"not null"`
	EndTime     *time.Time `json:"end_time"`
	IsCompleted bool       `json:"is_completed" gorm:"default:false;index"`

	// Answers stored as a JSONB map of question id -> selected option index.
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	Score *int `json:"score"` // nil until scored

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student Student       `json:"student" gorm:"foreignKey:StudentID"`
	Paper   QuestionPaper `json:"paper" gorm:"foreignKey:PaperID"`
	Result  *Result       `json:"result,omitempty" gorm:"foreignKey:AttemptID"`
}

// SubjectScore is one cell of a result's per-subject analysis.
type SubjectScore struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

// Result is one-to-one with a completed attempt. Scoring upserts it in place,
// so re-triggering scoring never creates a duplicate row.
type Result struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	AttemptID uint `json:"attempt_id" gorm:"not null;uniqueIndex"`

	TotalScore int `json:"total_score" gorm:"not null"`

	// AnalysisJSON holds map[Subject]SubjectScore.
	AnalysisJSON datatypes.JSON `json:"analysis_json" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Attempt ExamAttempt `json:"-" gorm:"foreignKey:AttemptID"`
}
