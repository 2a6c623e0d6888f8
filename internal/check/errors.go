package check

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks malformed check configuration.
	ErrConfiguration = errors.New("check: invalid configuration")
	// ErrUnknownCheck marks a check name missing from the registry.
	ErrUnknownCheck = errors.New("check: unknown check")
	// ErrDependencyCycle marks circular prerequisite declarations.
	ErrDependencyCycle = errors.New("check: dependency cycle")
)

// ConfigurationError reports a check configuration that failed to
// normalize. Field is empty when the error is raised outside a schema.
type ConfigurationError struct {
	Field  string
	Check  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("check: ")
	if e.Field != "" {
		fmt.Fprintf(&b, "field %s: ", e.Field)
	}
	if e.Check != "" {
		fmt.Fprintf(&b, "%s: ", e.Check)
	}
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Configf builds a ConfigurationError without field or check context; the
// caller that knows them fills them in via WithContext.
func Configf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// WithContext attaches field and check names to err when it is a
// ConfigurationError, otherwise wraps it into one.
func WithContext(err error, field, name string) error {
	if err == nil {
		return nil
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		clone := *cfgErr
		if clone.Field == "" {
			clone.Field = field
		}
		if clone.Check == "" {
			clone.Check = name
		}
		return &clone
	}
	return &ConfigurationError{Field: field, Check: name, Reason: "build failed", Err: err}
}

// UnknownCheckError names a check that is not registered.
type UnknownCheckError struct {
	Name string
	// RequiredBy is set when Name was reached as a prerequisite.
	RequiredBy string
}

func (e *UnknownCheckError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("check: %s (required by %s) is not registered", e.Name, e.RequiredBy)
	}
	return fmt.Sprintf("check: %s is not registered", e.Name)
}

func (e *UnknownCheckError) Is(target error) bool { return target == ErrUnknownCheck }

// DependencyCycleError lists the prerequisite chain that loops back on
// itself; the first and last entries are the same name.
type DependencyCycleError struct {
	Path []string
}

func (e *DependencyCycleError) Error() string {
	return fmt.Sprintf("check: dependency cycle %s", strings.Join(e.Path, " -> "))
}

func (e *DependencyCycleError) Is(target error) bool { return target == ErrDependencyCycle }
