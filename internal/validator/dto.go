package validator

import "time"

// QuestionCreateRequest is one question as uploaded by a teacher. Subject
// accepts legacy aliases; AnswerKey accepts an index, an option label like
// "Option A", or the literal text of the correct option.
type QuestionCreateRequest struct {
	Text            string   `json:"text" validate:"required,min=1,max=4000"`
	Options         []string `json:"options" validate:"required,min=2,max=4,dive,required"`
	AnswerKey       string   `json:"answer_key" validate:"required"`
	Subject         string   `json:"subject" validate:"required,subject"`
	Difficulty      string   `json:"difficulty" validate:"required,difficulty"`
	Topic           string   `json:"topic" validate:"omitempty,max=120"`
	QuestionImageURL *string `json:"question_image_url" validate:"omitempty,max=500"`
	OptionImageURLs []string `json:"option_image_urls" validate:"omitempty,max=4"`
}

// BulkQuestionRequest uploads many questions at once. All rows validate and
// normalize before any row is written.
type BulkQuestionRequest struct {
	Questions []QuestionCreateRequest `json:"questions" validate:"required,min=1,dive"`
}

// QuotaCellRequest is one (subject, difficulty) cell of a custom paper
// distribution, optionally pinned to a single topic.
type QuotaCellRequest struct {
	Subject    string `json:"subject" validate:"required,subject"`
	Difficulty string `json:"difficulty" validate:"required,difficulty"`
	Count      int    `json:"count" validate:"required,gt=0"`
	Topic      string `json:"topic" validate:"omitempty,max=120"`
}

// CustomPaperRequest assembles a paper from explicit per-subject,
// per-difficulty quotas.
type CustomPaperRequest struct {
	Title         string             `json:"title" validate:"required,min=1,max=255"`
	DurationHours int                `json:"duration_hours" validate:"omitempty,min=1,max=6"`
	StartTime     *time.Time         `json:"start_time"`
	Quotas        []QuotaCellRequest `json:"quotas" validate:"required,min=1,dive"`
}

// BalancedPaperRequest assembles the standard 160-question balanced paper.
type BalancedPaperRequest struct {
	Title         string     `json:"title" validate:"required,min=1,max=255"`
	DurationHours int        `json:"duration_hours" validate:"omitempty,min=1,max=6"`
	StartTime     *time.Time `json:"start_time"`
}

// StudentRegisterRequest creates a student account; the login code is issued
// by the service.
type StudentRegisterRequest struct {
	FullName    string     `json:"full_name" validate:"required,min=1,max=255"`
	Email       string     `json:"email" validate:"required,email"`
	Password    string     `json:"password" validate:"required,min=8,max=72"`
	DateOfBirth *time.Time `json:"date_of_birth"`
}

// StudentLoginRequest authenticates with the issued login code.
type StudentLoginRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

// StartExamRequest opens or resumes an attempt on a paper.
type StartExamRequest struct {
	PaperID uint `json:"paper_id" validate:"required"`
}

// SubmitAttemptRequest finalizes an attempt. Answers maps question id to the
// selected option index; unanswered questions are simply absent.
type SubmitAttemptRequest struct {
	AttemptID uint         `json:"attempt_id" validate:"required"`
	Answers   map[uint]int `json:"answers" validate:"required"`
}
