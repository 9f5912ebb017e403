package config

import (
	"fmt"
	"strings"

	"deckhand/internal/template"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the configuration and reports every problem found.
func (c DeckhandConfig) Validate() error {
	var errs ValidationErrors

	if c.Manager.SlowLoadThreshold < 0 {
		errs.Add("manager.slowLoadThreshold", "must not be negative", c.Manager.SlowLoadThreshold)
	}
	if c.Manager.UpdateBuffer < 1 {
		errs.Add("manager.updateBuffer", "must be at least 1", c.Manager.UpdateBuffer)
	}
	if strings.TrimSpace(c.Sources.CardsDir) == "" {
		errs.Add("sources.cardsDir", "is required")
	}
	if c.Sources.Debounce < 0 {
		errs.Add("sources.debounce", "must not be negative", c.Sources.Debounce)
	}
	if c.Sources.LoadTimeout < 0 {
		errs.Add("sources.loadTimeout", "must not be negative", c.Sources.LoadTimeout)
	}
	if c.Conditional.PollInterval < 0 {
		errs.Add("conditional.pollInterval", "must not be negative", c.Conditional.PollInterval)
	}
	if c.Conditional.CollapseThreshold < 0 {
		errs.Add("conditional.collapseThreshold", "must not be negative", c.Conditional.CollapseThreshold)
	}

	engine := template.New()
	seen := make(map[string]string)

	for i, cond := range c.Conditional.Conditions {
		field := fmt.Sprintf("conditional.conditions[%d]", i)
		validateName(&errs, field, cond.Name, "condition", seen)
		if strings.TrimSpace(cond.Path) == "" {
			errs.Add(field+".path", "is required", cond.Path)
		}
		validateTemplate(&errs, engine, field+".title", cond.Title)
		validateTemplate(&errs, engine, field+".summary", cond.Summary)
	}

	for i, s := range c.Suggestions {
		field := fmt.Sprintf("suggestions[%d]", i)
		validateName(&errs, field, s.Name, "suggestion", seen)
		if strings.TrimSpace(s.Title) == "" {
			errs.Add(field+".title", "is required")
		}
		validateTemplate(&errs, engine, field+".title", s.Title)
		validateTemplate(&errs, engine, field+".summary", s.Summary)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// validateName checks that card names are present and unique across
// conditions and suggestions.
func validateName(errs *ValidationErrors, field, name, kind string, seen map[string]string) {
	if strings.TrimSpace(name) == "" {
		errs.Add(field+".name", fmt.Sprintf("is required for %s", kind))
		return
	}
	if strings.Contains(name, " ") {
		errs.Add(field+".name", "cannot contain spaces", name)
	}
	if other, ok := seen[name]; ok {
		errs.Add(field+".name", fmt.Sprintf("duplicates %s", other), name)
		return
	}
	seen[name] = field
}

func validateTemplate(errs *ValidationErrors, engine *template.Engine, field, text string) {
	if err := engine.Validate(text); err != nil {
		errs.Add(field, err.Error(), text)
	}
}
