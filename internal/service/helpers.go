package service

import (
	"errors"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	appErrors "github.com/noah-isme/learnhub-api/pkg/errors"
)

// validationError turns validator failures into the typed validation error, leaving other errors untouched.
func validationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return appErrors.WithCause(appErrors.Clone(appErrors.ErrValidation, validationErrors.Error()), err)
	}
	return err
}

// sanitizeText strips markup and stores the plain text unescaped; escaping happens at render time.
func sanitizeText(policy *bluemonday.Policy, value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || policy == nil {
		return trimmed
	}
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(trimmed)))
}
