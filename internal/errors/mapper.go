package errors

import (
	"errors"
)

// Process exit codes used by the CLI.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitConfig = 2
)

// IsFatal reports whether err is a configuration error that must halt startup.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrMissingConfig) ||
		errors.Is(err, ErrMalformedConfig) ||
		errors.Is(err, ErrInvalidConfig)
}

// Category returns the error category name for an error
func Category(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrMissingConfig):
		return "ErrMissingConfig"
	case errors.Is(err, ErrMalformedConfig):
		return "ErrMalformedConfig"
	case errors.Is(err, ErrInvalidConfig):
		return "ErrInvalidConfig"
	case errors.Is(err, ErrInternal):
		return "ErrInternal"
	default:
		return "Unknown"
	}
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsFatal(err):
		return ExitConfig
	default:
		return ExitFailed
	}
}
