package services

import (
	"context"

	"github.com/petroledger/settlement_app/internal/core/domain"
	"github.com/petroledger/settlement_app/internal/dto"
)

// SettlementLifecycleSvc is the subset of settlement operations the bulk
// coordinator fans out over.
type SettlementLifecycleSvc interface {
	// ApproveSettlement moves a reviewed settlement to Approved.
	ApproveSettlement(ctx context.Context, settlementID string, approvedBy string) (*domain.Settlement, error)

	// FinalizeSettlement locks an approved settlement and publishes
	// SettlementFinalizedEvent after the write is persisted.
	FinalizeSettlement(ctx context.Context, settlementID string, finalizedBy string) (*domain.Settlement, error)
}

// SettlementSvcFacade is the full behavioral contract of a settlement
// service. The purchase-side and sales-side services expose the identical
// contract; they differ only in which contracts they resolve.
type SettlementSvcFacade interface {
	SettlementLifecycleSvc

	// CreateSettlement creates a Draft settlement for a contract and returns
	// the hydrated record.
	CreateSettlement(ctx context.Context, req dto.CreateSettlementRequest) (*domain.Settlement, error)

	// GetSettlementByID retrieves one settlement with its charge ledger.
	GetSettlementByID(ctx context.Context, settlementID string) (*domain.Settlement, error)

	// ListSettlements retrieves a page of settlements for this side of the book.
	ListSettlements(ctx context.Context, params dto.ListSettlementsParams) (*dto.ListSettlementsResponse, error)

	// UpdateQuantities records the actual quantities from the source document
	// and advances Draft settlements to DataEntered.
	UpdateQuantities(ctx context.Context, settlementID string, req dto.UpdateQuantitiesRequest) (*domain.Settlement, error)

	// CalculateSettlement re-derives calculation quantities server-side,
	// computes cargo value and total, and moves the settlement to Calculated.
	CalculateSettlement(ctx context.Context, settlementID string, req dto.CalculateSettlementRequest) (*domain.Settlement, error)

	// AddCharge appends a charge line and recomputes the settlement totals.
	AddCharge(ctx context.Context, settlementID string, req dto.CreateChargeRequest) (*domain.Settlement, error)

	// UpdateCharge patches a charge line and recomputes the settlement totals.
	UpdateCharge(ctx context.Context, settlementID, chargeID string, req dto.UpdateChargeRequest) (*domain.Settlement, error)

	// RemoveCharge deletes a charge line and recomputes the settlement totals.
	RemoveCharge(ctx context.Context, settlementID, chargeID string, actor string) (*domain.Settlement, error)

	// ReviewSettlement marks a calculated settlement as reviewed (human
	// review checkpoint).
	ReviewSettlement(ctx context.Context, settlementID string, actor string) (*domain.Settlement, error)

	// CancelSettlement cancels a non-finalized settlement, recording the
	// reason. Cancelled is terminal for mutation, symmetric with Finalized.
	CancelSettlement(ctx context.Context, settlementID string, req dto.CancelSettlementRequest) (*domain.Settlement, error)

	// AdvanceToStatus chains forward transitions until targetStatus is
	// reached. The chain stops at the first failing guard: the settlement is
	// returned at the last state that passed together with the failure.
	AdvanceToStatus(ctx context.Context, settlementID string, target domain.SettlementStatus, actor string) (*domain.Settlement, error)
}

// BulkSvcFacade applies a lifecycle operation across many settlements with
// per-item failure isolation. Apply never returns an error for individual
// item failures; those are surfaced in the BulkResult.
type BulkSvcFacade interface {
	Apply(ctx context.Context, operation dto.BulkOperation, settlementIDs []string, actor string) dto.BulkResult
}

// SettlementExportSvc renders settlement statements for download.
type SettlementExportSvc interface {
	// BuildSettlementWorkbook renders an XLSX statement covering the given
	// settlements and their charge ledgers.
	BuildSettlementWorkbook(ctx context.Context, settlementIDs []string) ([]byte, error)
}

// SettlementEventPublisher is the outbound port for settlement lifecycle
// events. Publish is called exactly once per finalization, after the
// finalize write has been persisted.
type SettlementEventPublisher interface {
	PublishSettlementFinalized(ctx context.Context, event domain.SettlementFinalizedEvent) error
}
