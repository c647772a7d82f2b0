package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/VIIT-EP/exam-service/internal/models"
)

// ValidationError describes a single failed rule on a request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
	Rule    string `json:"rule"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ve))
	for _, e := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

func (ve ValidationErrors) HasErrors() bool { return len(ve) > 0 }

// Validator wraps go-playground/validator with the exam domain's custom tags.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// subject accepts canonical names and legacy aliases; normalization to the
	// canonical enum happens at the service boundary.
	_ = v.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		_, err := models.ParseSubject(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		_, err := models.ParseDifficulty(fl.Field().String())
		return err == nil
	})

	return &Validator{validate: v}
}

// Validate runs struct tag validation and converts failures to ValidationErrors.
func (v *Validator) Validate(s any) ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	invalid, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
	}

	out := make(ValidationErrors, 0, len(invalid))
	for _, fe := range invalid {
		out = append(out, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: messageFor(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "subject":
		return "must be one of PHYSICS, CHEMISTRY, MATHEMATICS"
	case "difficulty":
		return "must be one of EASY, MEDIUM, HARD"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed rule %s", fe.Tag())
	}
}
