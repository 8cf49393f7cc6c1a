package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for configuration failure categories
var (
	// ErrMissingConfig - a mandatory variable is unset or blank (fatal, operator must set it)
	ErrMissingConfig = errors.New("missing configuration")

	// ErrMalformedConfig - a structured override could not be parsed (fatal, never degraded)
	ErrMalformedConfig = errors.New("malformed configuration")

	// ErrInvalidConfig - a value is present but has the wrong shape, e.g. a bad URL or transport (fatal)
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInternal - anything else surfaced by the CLI
	ErrInternal = errors.New("internal error")
)

// ConfigError is a fatal configuration error. Variable names the environment
// variable the operator has to fix.
type ConfigError struct {
	Variable string
	Kind     error
	Detail   string
	Cause    error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	if e.Detail != "" {
		b.WriteString(e.Detail)
	} else if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("configuration error")
	}
	if e.Variable != "" {
		switch e.Kind {
		case ErrMissingConfig:
			fmt.Fprintf(&b, ". Set %s.", e.Variable)
		default:
			fmt.Fprintf(&b, " (env %s)", e.Variable)
		}
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes both the category and the underlying cause to errors.Is and errors.As.
func (e *ConfigError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Missing reports an unset mandatory variable.
func Missing(variable, detail string) error {
	return &ConfigError{Variable: variable, Kind: ErrMissingConfig, Detail: detail}
}

// Malformed reports a structured override that failed to parse.
func Malformed(variable, detail string, cause error) error {
	return &ConfigError{Variable: variable, Kind: ErrMalformedConfig, Detail: detail, Cause: cause}
}

// Invalid reports a value with the wrong shape.
func Invalid(variable, detail string) error {
	return &ConfigError{Variable: variable, Kind: ErrInvalidConfig, Detail: detail}
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", message, err)
}

// Internal wraps error as internal
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}

// AsConfigError returns the first ConfigError in the chain.
func AsConfigError(err error) (*ConfigError, bool) {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr, true
	}
	return nil, false
}
