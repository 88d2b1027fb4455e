package dispute

import (
	"context"
)

//go:generate mockgen -source repo.go -destination mock_repo.go -package dispute

// CaseRepo stores cases and the per-transaction guard records. Absence is
// reported through the bool result.
type CaseRepo interface {
	Create(ctx context.Context, c Case) error
	Get(ctx context.Context, caseID string) (*Case, bool, error)
	GetByTransaction(ctx context.Context, transactionID string) (*Case, bool, error)
	GetOpenCaseForTransaction(ctx context.Context, transactionID string) (*Case, bool, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]Case, error)

	// Update applies updates to a case still in status from. A case whose
	// status moved on in the meantime is left untouched and
	// ErrInvalidTransition returned.
	Update(ctx context.Context, caseID string, from Status, updates map[string]any) (*Case, error)

	// ClaimTransaction makes holderCaseID the guard holder of the
	// transaction. It succeeds when no guard exists or the current holder is
	// holderCaseID or takeoverFrom, and fails with ErrGuardHeld otherwise.
	ClaimTransaction(ctx context.Context, transactionID, holderCaseID, takeoverFrom string) error
	GetGuard(ctx context.Context, transactionID string) (*Guard, bool, error)
}
