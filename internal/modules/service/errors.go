package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Service layer errors for better error handling
var (
	// Project access errors. ErrNotFound deliberately covers both a
	// missing project and a private project read by a non-owner, so
	// callers cannot distinguish the two.
	ErrNotFound  = errors.New("project not found")
	ErrForbidden = errors.New("you do not have permission to perform this action")

	// ErrSlugTaken is returned when an explicitly requested slug is
	// already used by another project of the same owner. Derived slugs
	// never produce it; they are suffixed until free.
	ErrSlugTaken = errors.New("slug already in use for this owner")

	ErrOwnerNotFound = errors.New("owner not found")
)

// Validation messages mirroring the field-level errors clients expect.
const (
	MsgFieldRequired = "This field is required."
	MsgFieldNotNull  = "This field may not be null."
	MsgFieldNotBlank = "This field may not be blank."
)

// ValidationError maps field names to one or more human-readable
// messages. It satisfies error so services can return it through the
// usual error path.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field string, msgs ...string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: msgs}}
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
