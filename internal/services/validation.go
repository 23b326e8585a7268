package services

import (
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/models"
)

func validateRequired(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", NewValidationError(field, "%s is required", field)
	}
	if utf8.RuneCountInString(value) > max {
		return "", NewValidationError(field, "%s must be at most %d characters", field, max)
	}
	return value, nil
}

func validateOptional(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) > max {
		return "", NewValidationError(field, "%s must be at most %d characters", field, max)
	}
	return value, nil
}

func validateStatus(field string, status models.TaskStatus) error {
	if !status.Valid() {
		return NewValidationError(field, "invalid status %q", status)
	}
	return nil
}

func validatePriority(priority models.TaskPriority) error {
	if !priority.Valid() {
		return NewValidationError("priority", "invalid priority %q", priority)
	}
	return nil
}

func validateVisibility(visibility models.Visibility) error {
	if !visibility.Valid() {
		return NewValidationError("visibility", "invalid visibility %q", visibility)
	}
	return nil
}

// normalizeCategoryInput trims, lower-cases and length-checks a category.
func normalizeCategoryInput(category string) (string, error) {
	normalized := models.NormalizeCategory(category)
	if utf8.RuneCountInString(normalized) > constants.MaxCategoryLength {
		return "", NewValidationError("category", "category must be at most %d characters", constants.MaxCategoryLength)
	}
	return normalized, nil
}

// normalizeTags trims tags, drops blanks and keeps the first of each duplicate.
func normalizeTags(tags []string) ([]string, error) {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, exists := seen[tag]; exists {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}

	if len(result) > constants.MaxTagsPerTask {
		return nil, NewValidationError("tags", "at most %d tags are allowed", constants.MaxTagsPerTask)
	}
	return result, nil
}

func validateCommentContent(content string) (string, error) {
	return validateRequired("content", content, constants.MaxCommentLength)
}
