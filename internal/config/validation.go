package config

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports a problem with one configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FormatValidationErrors renders errs grouped by their top-level section.
func FormatValidationErrors(errs []ValidationError) string {
	if len(errs) == 0 {
		return ""
	}

	categories := map[string][]ValidationError{}
	for _, err := range errs {
		category := strings.Split(err.Field, ".")[0]
		categories[category] = append(categories[category], err)
	}
	keys := make([]string, 0, len(categories))
	for k := range categories {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, category := range keys {
		fmt.Fprintf(&b, "%s:\n", strings.ToUpper(category))
		for _, err := range categories[category] {
			field := strings.TrimPrefix(err.Field, category+".")
			if field == category {
				field = "general"
			}
			fmt.Fprintf(&b, "  - %s: %s\n", field, err.Message)
		}
	}
	return b.String()
}

func validatePositive(field string, value int) []ValidationError {
	if value <= 0 {
		return []ValidationError{{Field: field, Message: "must be positive"}}
	}
	return nil
}

func validateRequired(field, value string) []ValidationError {
	if strings.TrimSpace(value) == "" {
		return []ValidationError{{Field: field, Message: "is required"}}
	}
	return nil
}
