package core

import (
	"errors"
	"fmt"
)

// Resolution errors
var (
	ErrMissingLocator      = errors.New("invoker: function locator is not set")
	ErrInvalidLocator      = errors.New("invoker: function locator is not a valid URI")
	ErrUnsupportedScheme   = errors.New("invoker: unsupported locator scheme")
	ErrArtifactNotFound    = errors.New("invoker: artifact does not exist")
	ErrUnsupportedArtifact = errors.New("invoker: unsupported artifact type")
	ErrMissingHandler      = errors.New("invoker: locator has no handler parameter")
	ErrInvalidHandler      = errors.New("invoker: malformed handler parameter")
	ErrUnsafeArchiveEntry  = errors.New("invoker: archive entry escapes the working directory")
	ErrModuleNotStaged     = errors.New("invoker: module is not provided by the staged artifact")
	ErrModuleNotFound      = errors.New("invoker: module not found")
	ErrFunctionNotFound    = errors.New("invoker: function not found")
)

// Registration errors
var (
	ErrInvalidModuleName   = errors.New("invoker: invalid module name (dotted identifiers only)")
	ErrInvalidFunctionName = errors.New("invoker: invalid function name (must be an identifier)")
	ErrNameTooLong         = errors.New("invoker: name too long")
	ErrDuplicateFunction   = errors.New("invoker: function already registered")
)

// Invocation errors
var (
	ErrLineTooLong = errors.New("invoker: input line exceeds size limit")
)

// ExitConfig is the process status used for configuration and resolution failures.
const ExitConfig = 1

// ConfigError marks an unrecoverable misconfiguration. The process reports
// it on the error stream and exits with ExitCode.
type ConfigError struct {
	Err      error
	ExitCode int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Fatal wraps an error into the fatal configuration tier.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return err
	}
	return &ConfigError{Err: err, ExitCode: ExitConfig}
}

// ExitCodeOf returns the process status for err: 0 for nil, the embedded
// status for a ConfigError, and 1 for anything else.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) && cfgErr.ExitCode != 0 {
		return cfgErr.ExitCode
	}
	return 1
}
