// Package validator centralizes the go-playground/validator/v10 instance
// shared by every DTO's struct tags, grounded on the teacher's
// internal/validator package (a single lazily-initialized *validator.Validate
// reused across all handlers rather than one per request).
package validator

import (
	"errors"
	"sync"

	goValidator "github.com/go-playground/validator/v10"

	ierr "github.com/sugu-inc/modern-billing/internal/errors"
)

var (
	validate *goValidator.Validate
	once     sync.Once
)

func instance() *goValidator.Validate {
	once.Do(func() {
		validate = goValidator.New()
	})
	return validate
}

// New returns the shared validator instance, for fx.Provide wiring.
func New() *goValidator.Validate {
	return instance()
}

// ValidateRequest runs struct-tag validation and translates failures into
// a domain ErrValidation error with one reportable detail per field.
func ValidateRequest(req any) error {
	if err := instance().Struct(req); err != nil {
		details := make(map[string]any)
		var fieldErrs goValidator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				details[fe.Field()] = fe.Error()
			}
		}
		return ierr.WithError(err).
			WithHint("request validation failed").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}
