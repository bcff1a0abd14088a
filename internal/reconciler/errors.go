package reconciler

import (
	"errors"
	"fmt"
)

// StoreUnavailableError reports that the desired-state records could not be
// listed, so no record was reconciled.
type StoreUnavailableError struct {
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("desired-state store unavailable: %v", e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// IsStoreUnavailable reports whether err is a *StoreUnavailableError.
func IsStoreUnavailable(err error) bool {
	var storeErr *StoreUnavailableError
	return errors.As(err, &storeErr)
}
