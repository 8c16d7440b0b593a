package validation

import (
	"sort"
	"strings"
)

// Error collects field-level validation messages.
type Error struct {
	Fields map[string][]string
}

func New() *Error {
	return &Error{Fields: map[string][]string{}}
}

func (e *Error) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *Error) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns e when it holds at least one message, nil otherwise.
func (e *Error) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e.Fields[field], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
