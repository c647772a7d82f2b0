package models

import (
	"time"
)

// QuestionPaper is created atomically with its full question set and its
// question set is immutable thereafter. A nil StartTime means the paper is
// unscheduled and always open for admission.
type QuestionPaper struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Title         string     `json:"title" gorm:"not null;size:255" validate:"required"`
	CreatedByID   uint       `json:"created_by_id" gorm:"not null;index"`
	DurationHours int        `json:"duration_hours" gorm:"not null;default:3"`
	StartTime     *time.Time `json:"start_time" gorm:"index"`
	TotalMarks    int        `json:"total_marks" gorm:"not null"` // = question count, 1 mark/question
	IsActive      bool       `json:"is_active" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	CreatedBy      User            `json:"-" gorm:"foreignKey:CreatedByID"`
	PaperQuestions []PaperQuestion `json:"paper_questions,omitempty" gorm:"foreignKey:PaperID"`
	ExamAttempts   []ExamAttempt   `json:"-" gorm:"foreignKey:PaperID"`
}

// Duration returns the exam length as a time.Duration.
func (p *QuestionPaper) Duration() time.Duration {
	return time.Duration(p.DurationHours) * time.Hour
}
