package card

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrCardNotFound        = errors.New("card not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrOwnershipMismatch   = errors.New("transaction does not belong to customer or card")
)
