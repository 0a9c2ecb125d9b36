// Package fleet implements the vehicle registry, the append-only maintenance
// and fuel ledger, the derived-metrics engine and the reminder scheduler.
// All state is in memory; persistence and transport are collaborators that
// sit outside this package.
package fleet

import "errors"

var (
	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when an identifier does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrRegression is returned when an odometer reading moves backward.
	ErrRegression = errors.New("odometer regression")
)
