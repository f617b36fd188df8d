package settings

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalid = errors.New("invalid settings")

// Problem is one broken rule.
type Problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rule the settings break.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Field+" "+p.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

var (
	validThemes  = []string{"dark", "light"}
	validFormats = []string{"excel", "pdf", "json"}
)

// Validate checks s, returning a *ValidationError when any rule fails.
func Validate(s Settings) error {
	var problems []Problem
	add := func(field, msg string) {
		problems = append(problems, Problem{Field: field, Message: msg})
	}

	if !oneOf(s.General.Theme, validThemes) {
		add("general.theme", "must be one of "+strings.Join(validThemes, ", "))
	}
	if s.General.RefreshInterval < 5 || s.General.RefreshInterval > 300 {
		add("general.refreshInterval", "must be between 5 and 300 seconds")
	}
	if s.Dashboard.CardsPerRow < 1 || s.Dashboard.CardsPerRow > 4 {
		add("dashboard.cardsPerRow", "must be between 1 and 4")
	}
	if !oneOf(s.Export.DefaultFormat, validFormats) {
		add("export.defaultFormat", "must be one of "+strings.Join(validFormats, ", "))
	}
	if s.Analysis.CacheDuration < 0 {
		add("analysis.cacheDuration", "must not be negative")
	}
	if len(nonBlank(s.Workshop.Technicians)) == 0 {
		add("workshop.technicians", "must list at least one technician")
	}
	if len(nonBlank(s.Workshop.StatusTypes)) == 0 {
		add("workshop.statusTypes", "must list at least one status")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func nonBlank(list []string) []string {
	var out []string
	for _, s := range list {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
