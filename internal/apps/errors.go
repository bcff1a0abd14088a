package apps

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that no record exists for a release name.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a record with the same release name
	// already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument indicates that a caller-provided value violates
	// a precondition, such as restoring a deleted release.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ConfigurationError reports a desired-state field that cannot be turned into
// a deployment: a malformed values document or an unusable chart reference.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
