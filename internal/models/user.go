package models

import (
	"time"
)

type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// User covers admins and teachers. Students live in their own table because
// they log in with a generated login code and carry live exam-session state.
type User struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	FullName string   `json:"full_name" gorm:"not null;size:255" validate:"required"`
	Email    string   `json:"email" gorm:"not null;uniqueIndex;size:255" validate:"required,email"`
	Password string   `json:"-" gorm:"not null;size:255"`
	Role     UserRole `json:"role" gorm:"not null;index;default:TEACHER"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Student struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	StudentID string `json:"student_id" gorm:"not null;uniqueIndex;size:50"` // login code
	FullName  string `json:"full_name" gorm:"not null;size:255" validate:"required"`
	Email     string `json:"email" gorm:"not null;uniqueIndex;size:255" validate:"required,email"`
	Password  string `json:"-" gorm:"not null;size:255"`

	DateOfBirth *time.Time `json:"date_of_birth"`

	// Set while the student has an exam open; drives the live dashboard.
	IsAttemptingExam bool `json:"is_attempting_exam" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Attempts []ExamAttempt `json:"attempts,omitempty" gorm:"foreignKey:StudentID"`
}
