package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type Subject string

const (
	SubjectPhysics     Subject = "PHYSICS"
	SubjectChemistry   Subject = "CHEMISTRY"
	SubjectMathematics Subject = "MATHEMATICS"
)

// subjectAliases maps legacy spellings onto the canonical enumeration.
// "MATHS" appears in old exports and must never reach storage.
var subjectAliases = map[string]Subject{
	"PHYSICS":     SubjectPhysics,
	"CHEMISTRY":   SubjectChemistry,
	"MATHEMATICS": SubjectMathematics,
	"MATHS":       SubjectMathematics,
	"MATH":        SubjectMathematics,
}

// ParseSubject normalizes a raw subject string (any case, legacy aliases
// included) to the canonical enumeration.
func ParseSubject(raw string) (Subject, error) {
	s, ok := subjectAliases[strings.ToUpper(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("unknown subject %q", raw)
	}
	return s, nil
}

func AllSubjects() []Subject {
	return []Subject{SubjectPhysics, SubjectChemistry, SubjectMathematics}
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

func ParseDifficulty(raw string) (Difficulty, error) {
	switch Difficulty(strings.ToUpper(strings.TrimSpace(raw))) {
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", raw)
}

func AllDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// MaxOptions is the option-list ceiling; the answer key is a 0-based index
// into the options array and must stay below this.
const MaxOptions = 4

// Question is immutable after creation except for corrective edits.
// CorrectIndex is the single canonical answer-key representation; label
// strings ("Option A") and literal option text are converted at the boundary.
type Question struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Text string `json:"text" gorm:"type:text;not null" validate:"required"`

	// Options stored as a JSONB array of strings, order significant.
	Options      datatypes.JSON `json:"options" gorm:"type:jsonb;not null"`
	CorrectIndex int            `json:"correct_index" gorm:"not null"`

	Subject    Subject    `json:"subject" gorm:"not null;index;size:20"`
	Difficulty Difficulty `json:"difficulty" gorm:"not null;index;size:10"`
	Topic      string     `json:"topic" gorm:"index;size:120"` // optional free text

	// Optional image paths, served by the file store and referenced by URL only.
	QuestionImageURL *string `json:"question_image_url" gorm:"size:500"`
	OptionImageURLs  datatypes.JSON `json:"option_image_urls" gorm:"type:jsonb"` // []string aligned with Options

	UploadedByID uint      `json:"uploaded_by_id" gorm:"not null;index"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	UploadedBy User `json:"-" gorm:"foreignKey:UploadedByID"`
}

// PaperQuestion links a paper to a question; a paper references a question at
// most once.
type PaperQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	PaperID    uint `json:"paper_id" gorm:"not null;index;uniqueIndex:idx_paper_question"`
	QuestionID uint `json:"question_id" gorm:"not null;index;uniqueIndex:idx_paper_question"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Paper    QuestionPaper `json:"-" gorm:"foreignKey:PaperID"`
	Question Question      `json:"question" gorm:"foreignKey:QuestionID"`
}
