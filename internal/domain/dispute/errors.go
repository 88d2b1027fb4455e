package dispute

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrCaseNotFound      = errors.New("case not found")
	ErrImmutableField    = errors.New("field cannot be updated")
	ErrPersistence       = errors.New("case persistence failed")
	ErrInvalidOutcome    = errors.New("invalid acquirer outcome")
	ErrInvalidTransition = errors.New("invalid case transition")

	// ErrGuardHeld is returned by CaseRepo.ClaimTransaction when another case
	// holds the transaction guard.
	ErrGuardHeld = errors.New("transaction guard held by another case")

	// ErrDisputeInProgress is returned when a concurrent dispute holds the
	// transaction but its case has not become visible yet.
	ErrDisputeInProgress = errors.New("dispute for transaction is in progress")
)

// PersistenceError carries a case that was decided but not stored. The case
// can be handed to Service.RetryCreate as is.
type PersistenceError struct {
	Case Case
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist case %s for transaction %s: %v", e.Case.ID, e.Case.TransactionID, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
