package tools

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownTool is returned by Call for a name outside the catalog.
	// It is the only dispatch error that is not folded into an envelope.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrUnknownResource is returned by ReadResource for an unlisted URI.
	ErrUnknownResource = errors.New("unknown resource")
)

// FieldError represents a single argument's validation error.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"message"`
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

// ValidationError reports every argument of a call that failed its schema.
type ValidationError struct {
	Tool   string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(parts, "; "))
}
