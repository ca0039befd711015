// Package errors provides centralized error handling with categorization
// for the camera director. Errors carry a component, a category and free-form
// context so that log output and metrics can group failures consistently.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"runtime"
	"strings"
	"time"
)

// ErrorCategory represents the type of error for better categorization
type ErrorCategory string

// CategorizedError is an interface for errors that can specify their own category
type CategorizedError interface {
	error
	ErrorCategory() ErrorCategory
}

const (
	CategoryValidation      ErrorCategory = "validation"
	CategorySessionState    ErrorCategory = "session-state"
	CategoryNotFound        ErrorCategory = "not-found"
	CategoryRuleStore       ErrorCategory = "rule-store"
	CategorySwitchExecution ErrorCategory = "switch-execution"
	CategorySignalIngest    ErrorCategory = "signal-ingest"
	CategoryDatabase        ErrorCategory = "database"
	CategoryMQTTConnection  ErrorCategory = "mqtt-connection"
	CategoryMQTTPublish     ErrorCategory = "mqtt-publish"
	CategoryConfiguration   ErrorCategory = "configuration"
	CategoryEventBus        ErrorCategory = "event-bus"
	CategoryGeneric         ErrorCategory = "generic"
)

// ComponentUnknown is used when the component cannot be determined.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with additional context and metadata
type EnhancedError struct {
	Err       error          // Original error
	Component string         // Component where error occurred
	Category  ErrorCategory  // Error category for better grouping
	Context   map[string]any // Additional context data
	Timestamp time.Time      // When the error occurred
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap implements the error unwrapping interface
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is implements error type checking. Two enhanced errors match when their
// categories match; otherwise matching is delegated to the wrapped error.
func (ee *EnhancedError) Is(target error) bool {
	if ee2, ok := target.(*EnhancedError); ok {
		return ee.Category == ee2.Category
	}
	return Is(ee.Err, target)
}

// GetCategory returns the error category
func (ee *EnhancedError) GetCategory() string {
	return string(ee.Category)
}

// GetContext returns a copy of the context map
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	ctx := make(map[string]any, len(ee.Context))
	maps.Copy(ctx, ee.Context)
	return ctx
}

// ErrorBuilder provides a fluent interface for building enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates an ErrorBuilder wrapping the given error
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf creates an ErrorBuilder from a formatted message
func Newf(format string, args ...any) *ErrorBuilder {
	return &ErrorBuilder{err: fmt.Errorf(format, args...)}
}

// Component sets the component where the error occurred
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds a key-value pair to the error context
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// SessionID adds session identification context
func (eb *ErrorBuilder) SessionID(sessionID string) *ErrorBuilder {
	return eb.Context("session_id", sessionID)
}

// Timing adds performance timing context
func (eb *ErrorBuilder) Timing(operation string, duration time.Duration) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context["operation"] = operation
	eb.context["duration_ms"] = duration.Milliseconds()
	return eb
}

// Build creates the EnhancedError
func (eb *ErrorBuilder) Build() *EnhancedError {
	component := eb.component
	if component == "" {
		component = detectComponent()
	}
	category := eb.category
	if category == "" {
		category = CategoryGeneric
	}
	return &EnhancedError{
		Err:       eb.err,
		Component: component,
		Category:  category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}
}

// Component registry for call-stack based component detection
var componentRegistry = map[string]string{
	"director":      "director",
	"datastore":     "datastore",
	"mqtt":          "mqtt",
	"conf":          "configuration",
	"events":        "events",
	"observability": "observability",
}

// detectComponent walks the call stack to find the first recognizable component
func detectComponent() string {
	for depth := 3; depth < 10; depth++ {
		pc, _, _, ok := runtime.Caller(depth)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		name := fn.Name()
		if strings.Contains(name, "/internal/errors") {
			continue
		}
		for pattern, component := range componentRegistry {
			if strings.Contains(name, "/internal/"+pattern) {
				return component
			}
		}
	}
	return ComponentUnknown
}

// Standard library error function pass-throughs so callers need a single
// errors import.

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Join returns an error wrapping the given errors
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// NewStd creates a plain standard library error without enhancement
func NewStd(text string) error {
	return stderrors.New(text)
}
