package assessment

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrSessionNotFound = errors.New("assessment: session not found")
	ErrCompleted       = errors.New("assessment: session already completed")
	ErrSubmitting      = errors.New("assessment: submission in progress")
	ErrWrongQuestion   = errors.New("assessment: not the current question")
	ErrInvalidOption   = errors.New("assessment: answer is not a listed option")
)

// ValidationError carries per-field messages for the contact and phone steps.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "assessment: invalid " + strings.Join(keys, ", ")
}
