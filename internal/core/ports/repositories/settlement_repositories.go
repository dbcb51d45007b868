package repositories

import (
	"context"

	"github.com/petroledger/settlement_app/internal/core/domain"
)

// SettlementReader defines read operations for settlement data. Settlements
// are always returned hydrated with their charge ledger.
type SettlementReader interface {
	// FindSettlementByID retrieves a settlement and its charges by ID.
	FindSettlementByID(ctx context.Context, settlementID string) (*domain.Settlement, error)

	// ListSettlements retrieves a page of settlements for one side of the
	// book, newest first, with token pagination.
	ListSettlements(ctx context.Context, kind domain.ContractKind, limit int, nextToken *string) ([]domain.Settlement, *string, error)
}

// SettlementWriter defines write operations for settlement data.
type SettlementWriter interface {
	// SaveSettlement persists a new settlement and its charges atomically.
	SaveSettlement(ctx context.Context, settlement domain.Settlement) error

	// UpdateSettlement rewrites the settlement row and its charge ledger in
	// one transaction, guarded by the optimistic version token: the write
	// only succeeds when the stored version equals expectedVersion, and the
	// persisted version is incremented. A stale token yields
	// apperrors.ErrConflict; a missing settlement yields apperrors.ErrNotFound.
	UpdateSettlement(ctx context.Context, settlement domain.Settlement, expectedVersion int64) error
}

// SettlementRepositoryFacade combines all settlement repository interfaces.
type SettlementRepositoryFacade interface {
	SettlementReader
	SettlementWriter
}
