package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/benvon/calendar-todo/internal/models"
	"github.com/go-playground/validator/v10"
)

const (
	// MaxTitleLength is the maximum length for a task title
	MaxTitleLength = 500
	// MaxDescriptionLength is the maximum length for a task description
	MaxDescriptionLength = 10000
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("isodate", validateISODate); err != nil {
		panic(fmt.Sprintf("failed to register isodate validator: %v", err))
	}
}

// validateISODate accepts empty strings so it can be combined with omitempty
func validateISODate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return ValidateDate(value) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateDate checks that value is a real calendar date in YYYY-MM-DD form
func ValidateDate(value string) error {
	if _, err := time.Parse(models.DateLayout, value); err != nil {
		return fmt.Errorf("invalid date: %q (must be YYYY-MM-DD)", value)
	}
	return nil
}

// ValidateTitle sanitizes a title and checks it is present and within bounds
func ValidateTitle(title string) (string, error) {
	sanitized := SanitizeText(title)
	if sanitized == "" {
		return "", fmt.Errorf("title is required and cannot be empty")
	}
	if err := Validate.Var(sanitized, fmt.Sprintf("max=%d", MaxTitleLength)); err != nil {
		return "", fmt.Errorf("title exceeds maximum length of %d characters", MaxTitleLength)
	}
	return sanitized, nil
}

// ValidateDescription sanitizes a description; empty is allowed
func ValidateDescription(description string) (string, error) {
	sanitized := SanitizeText(description)
	if err := Validate.Var(sanitized, fmt.Sprintf("max=%d", MaxDescriptionLength)); err != nil {
		return "", fmt.Errorf("description exceeds maximum length of %d characters", MaxDescriptionLength)
	}
	return sanitized, nil
}
