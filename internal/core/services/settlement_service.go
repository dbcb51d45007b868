package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petroledger/settlement_app/internal/apperrors"
	"github.com/petroledger/settlement_app/internal/core/domain"
	portsrepo "github.com/petroledger/settlement_app/internal/core/ports/repositories"
	portssvc "github.com/petroledger/settlement_app/internal/core/ports/services"
	"github.com/petroledger/settlement_app/internal/dto"
	"github.com/petroledger/settlement_app/internal/utils/accounting"
	"github.com/petroledger/settlement_app/internal/utils/quantity"
)

var (
	ErrBenchmarkRequired = errors.New("benchmark amount or benchmark price is required for calculation")
	ErrContractKind      = errors.New("contract does not belong to this side of the book")
)

// settlementService is the single settlement engine implementation. The
// purchase-side and sales-side services share it; kind selects which
// contracts the instance resolves.
type settlementService struct {
	BaseService
	kind           domain.ContractKind
	settlementRepo portsrepo.SettlementRepositoryFacade
	contractRepo   portsrepo.ContractRepository
	publisher      portssvc.SettlementEventPublisher
	defaultRatio   decimal.Decimal
}

// NewPurchaseSettlementService creates the purchase-side settlement service.
func NewPurchaseSettlementService(repo portsrepo.SettlementRepositoryFacade, contracts portsrepo.ContractRepository, publisher portssvc.SettlementEventPublisher, defaultRatio decimal.Decimal) portssvc.SettlementSvcFacade {
	return newSettlementService(domain.Purchase, repo, contracts, publisher, defaultRatio)
}

// NewSalesSettlementService creates the sales-side settlement service.
func NewSalesSettlementService(repo portsrepo.SettlementRepositoryFacade, contracts portsrepo.ContractRepository, publisher portssvc.SettlementEventPublisher, defaultRatio decimal.Decimal) portssvc.SettlementSvcFacade {
	return newSettlementService(domain.Sales, repo, contracts, publisher, defaultRatio)
}

func newSettlementService(kind domain.ContractKind, repo portsrepo.SettlementRepositoryFacade, contracts portsrepo.ContractRepository, publisher portssvc.SettlementEventPublisher, defaultRatio decimal.Decimal) *settlementService {
	if !defaultRatio.IsPositive() {
		defaultRatio = domain.DefaultTonBarrelRatio
	}
	return &settlementService{
		kind:           kind,
		settlementRepo: repo,
		contractRepo:   contracts,
		publisher:      publisher,
		defaultRatio:   defaultRatio,
	}
}

// Ensure settlementService implements the facade.
var _ portssvc.SettlementSvcFacade = (*settlementService)(nil)

// loadOwned fetches a settlement and verifies it belongs to this side of the
// book. Settlements of the other kind are reported as not found to avoid
// leaking their existence across services.
func (s *settlementService) loadOwned(ctx context.Context, settlementID string) (*domain.Settlement, error) {
	stl, err := s.settlementRepo.FindSettlementByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if stl.ContractKind != s.kind {
		s.LogWarn(ctx, "Settlement belongs to the other contract kind",
			slog.String("settlement_id", settlementID),
			slog.String("settlement_kind", string(stl.ContractKind)),
			slog.String("service_kind", string(s.kind)))
		return nil, fmt.Errorf("settlement %s: %w", settlementID, apperrors.ErrNotFound)
	}
	return stl, nil
}

// persist writes the settlement back under the optimistic version check and
// bumps the in-memory version on success.
func (s *settlementService) persist(ctx context.Context, stl *domain.Settlement) error {
	expected := stl.Version
	stl.Version++
	if err := s.settlementRepo.UpdateSettlement(ctx, *stl, expected); err != nil {
		stl.Version = expected
		return err
	}
	return nil
}

// CreateSettlement creates a Draft settlement for a resolvable contract of
// this service's kind and returns the full hydrated record.
func (s *settlementService) CreateSettlement(ctx context.Context, req dto.CreateSettlementRequest) (*domain.Settlement, error) {
	if strings.TrimSpace(req.DocumentNumber) == "" {
		return nil, fmt.Errorf("%w: document number must not be blank", apperrors.ErrValidation)
	}

	contract, err := s.contractRepo.FindContractByID(ctx, req.ContractID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to resolve contract for settlement creation", slog.String("contract_id", req.ContractID))
		}
		return nil, fmt.Errorf("contract %s: %w", req.ContractID, err)
	}
	if contract.Kind != s.kind {
		return nil, fmt.Errorf("%w: contract %s is %s, service handles %s: %w",
			apperrors.ErrValidation, contract.ContractID, contract.Kind, s.kind, ErrContractKind)
	}

	ratio := s.defaultRatio
	switch {
	case req.TonBarrelRatio.IsPositive():
		ratio = req.TonBarrelRatio
	case req.ProductDensity.IsPositive():
		derived, derr := quantity.DeriveTonBarrelRatio(req.ProductDensity)
		if derr != nil {
			return nil, derr
		}
		ratio = derived
	}

	mode := domain.CalculationMode(req.CalculationMode)
	if mode == "" {
		mode = domain.UseActualQuantities
	}

	currency := req.SettlementCurrency
	if currency == "" {
		currency = contract.Currency
	}

	now := time.Now().UTC()
	stl := domain.Settlement{
		SettlementID:           uuid.NewString(),
		ContractID:             contract.ContractID,
		ContractKind:           s.kind,
		ExternalContractNumber: req.ExternalContractNumber,
		DocumentNumber:         strings.TrimSpace(req.DocumentNumber),
		DocumentType:           domain.DocumentType(req.DocumentType),
		DocumentDate:           req.DocumentDate,
		TonBarrelRatio:         ratio,
		CalculationMode:        mode,
		SettlementCurrency:     currency,
		Status:                 domain.Draft,
		Charges:                domain.ChargeLedger{},
		Version:                1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     req.CreatedBy,
			LastUpdatedAt: now,
			LastUpdatedBy: req.CreatedBy,
		},
	}

	if err := s.settlementRepo.SaveSettlement(ctx, stl); err != nil {
		s.LogError(ctx, err, "Failed to save new settlement", slog.String("contract_id", contract.ContractID))
		return nil, fmt.Errorf("failed to save settlement: %w", err)
	}

	s.LogInfo(ctx, "Settlement created",
		slog.String("settlement_id", stl.SettlementID),
		slog.String("contract_id", contract.ContractID),
		slog.String("kind", string(s.kind)))
	return &stl, nil
}

// GetSettlementByID retrieves one settlement with its charge ledger.
func (s *settlementService) GetSettlementByID(ctx context.Context, settlementID string) (*domain.Settlement, error) {
	return s.loadOwned(ctx, settlementID)
}

// ListSettlements retrieves a page of this side's settlements, newest first.
func (s *settlementService) ListSettlements(ctx context.Context, params dto.ListSettlementsParams) (*dto.ListSettlementsResponse, error) {
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	settlements, nextToken, err := s.settlementRepo.ListSettlements(ctx, s.kind, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list settlements", slog.String("kind", string(s.kind)))
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}

	responses := make([]dto.SettlementResponse, len(settlements))
	for i := range settlements {
		responses[i] = dto.ToSettlementResponse(&settlements[i])
	}
	return &dto.ListSettlementsResponse{Settlements: responses, NextToken: nextToken}, nil
}

// UpdateQuantities records the actual quantities entered off the source
// document and advances Draft settlements to DataEntered.
func (s *settlementService) UpdateQuantities(ctx context.Context, settlementID string, req dto.UpdateQuantitiesRequest) (*domain.Settlement, error) {
	stl, err := s.loadOwned(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if err := stl.EnsureModifiable(); err != nil {
		return nil, err
	}
	if !req.ActualQuantityMT.IsPositive() && !req.ActualQuantityBBL.IsPositive() {
		return nil, fmt.Errorf("%w: at least one actual quantity (MT or BBL) must be positive", apperrors.ErrValidation)
	}

	stl.ActualQuantityMT = req.ActualQuantityMT
	stl.ActualQuantityBBL = req.ActualQuantityBBL
	if req.TonBarrelRatio.IsPositive() {
		stl.TonBarrelRatio = req.TonBarrelRatio
	}
	if req.CalculationMode != "" {
		stl.CalculationMode = domain.CalculationMode(req.CalculationMode)
	}

	if stl.Status == domain.Draft {
		if err := stl.TransitionTo(domain.DataEntered); err != nil {
			return nil, err
		}
	}

	stl.Touch(req.Actor, time.Now().UTC())
	if err := s.persist(ctx, stl); err != nil {
		s.LogError(ctx, err, "Failed to persist quantity update", slog.String("settlement_id", settlementID))
		return nil, err
	}

	s.LogInfo(ctx, "Settlement quantities updated",
		slog.String("settlement_id", settlementID),
		slog.String("status", string(stl.Status)))
	return stl, nil
}

// deriveCalculationQuantities re-derives the calculation quantities from the
// stored actuals, mode and ratio. Client-submitted calculation quantities are
// never trusted; re-deriving server-side prevents forged totals.
func (s *settlementService) deriveCalculationQuantities(ctx context.Context, stl *domain.Settlement) (quantity.ConversionResult, error) {
	var contractQty *decimal.Decimal
	var contractUnit domain.QuantityUnit
	if stl.CalculationMode == domain.UseContractSpecified {
		contract, err := s.contractRepo.FindContractByID(ctx, stl.ContractID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return quantity.ConversionResult{}, fmt.Errorf("failed to resolve contract %s: %w", stl.ContractID, err)
		}
		if err == nil && contract.Quantity.IsPositive() {
			contractQty = &contract.Quantity
			contractUnit = contract.QuantityUnit
		}
	}
	return quantity.Convert(stl.ActualQuantityMT, stl.ActualQuantityBBL, stl.TonBarrelRatio, stl.CalculationMode, contractQty, contractUnit)
}

// CalculateSettlement derives calculation quantities, computes cargo value
// and total settlement amount, and moves the settlement to Calculated.
// Recalculating an already Calculated settlement is permitted while it is
// still modifiable.
func (s *settlementService) CalculateSettlement(ctx context.Context, settlementID string, req dto.CalculateSettlementRequest) (*domain.Settlement, error) {
	stl, err := s.loadOwned(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if err := stl.EnsureModifiable(); err != nil {
		return nil, err
	}
	if stl.Status != domain.Calculated && !domain.CanTransition(stl.Status, domain.Calculated) {
		return nil, apperrors.NewInvalidTransitionError(string(stl.Status), string(domain.Calculated))
	}

	conv, err := s.deriveCalculationQuantities(ctx, stl)
	if err != nil {
		return nil, err
	}

	var benchmarkAmount decimal.Decimal
	switch {
	case req.BenchmarkAmount != nil:
		benchmarkAmount = *req.BenchmarkAmount
	case req.BenchmarkPrice != nil:
		// Per-unit price entry point: scaling by calculation quantity happens
		// here, before the calculator sees the amounts as pre-scaled totals.
		benchmarkAmount = req.BenchmarkPrice.Mul(conv.CalculationQuantityMT).Round(2)
	default:
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrBenchmarkRequired)
	}
	if !benchmarkAmount.IsPositive() {
		return nil, fmt.Errorf("%w: benchmark amount must be positive, got %s", apperrors.ErrValidation, benchmarkAmount)
	}

	cargoValue, total, err := accounting.SettlementTotals(
		conv.CalculationQuantityMT, conv.CalculationQuantityBBL,
		benchmarkAmount, req.AdjustmentAmount, stl.Charges.Total())
	if err != nil {
		return nil, err
	}

	stl.CalculationQuantityMT = conv.CalculationQuantityMT
	stl.CalculationQuantityBBL = conv.CalculationQuantityBBL
	stl.BenchmarkAmount = benchmarkAmount
	stl.AdjustmentAmount = req.AdjustmentAmount
	stl.CargoValue = cargoValue
	stl.TotalCharges = stl.Charges.Total()
	stl.TotalSettlementAmount = total
	stl.CalculationNote = conv.Note
	if req.Note != "" {
		stl.CalculationNote = req.Note
	}

	if stl.Status != domain.Calculated {
		if err := stl.TransitionTo(domain.Calculated); err != nil {
			return nil, err
		}
	}

	stl.Touch(req.Actor, time.Now().UTC())
	if err := s.persist(ctx, stl); err != nil {
		s.LogError(ctx, err, "Failed to persist calculation", slog.String("settlement_id", settlementID))
		return nil, err
	}

	s.LogInfo(ctx, "Settlement calculated",
		slog.String("settlement_id", settlementID),
		slog.String("total", stl.TotalSettlementAmount.String()))
	return stl, nil
}

// AddCharge appends a charge line and recomputes the settlement totals.
func (s *settlementService) AddCharge(ctx context.Context, settlementID string, req dto.CreateChargeRequest) (*domain.Settlement, error) {
	stl, err := s.loadOwned(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if err := stl.EnsureModifiable(); err != nil {
		return nil, err
	}
	if err := domain.ValidateChargeInput(req.Description, req.Amount); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = stl.SettlementCurrency
	}

	charge := domain.Charge{
		ChargeID:          uuid.NewString(),
		SettlementID:      stl.SettlementID,
		ChargeType:        domain.ChargeType(req.ChargeType),
		Description:       strings.TrimSpace(req.Description),
		Amount:            req.Amount,
		Currency:          currency,
		IncurredDate:      req.IncurredDate,
		ReferenceDocument: req.ReferenceDocument,
		Notes:             req.Notes,
		CreatedAt:         time.Now().UTC(),
		CreatedBy:         req.Actor,
	}
	stl.Charges = append(stl.Charges, charge)
	stl.RecalculateTotals()

	stl.Touch(req.Actor, time.Now().UTC())
	if err := s.persist(ctx, stl); err != nil {
		s.LogError(ctx, err, "Failed to persist charge addition", slog.String("settlement_id", settlementID))
		return nil, err
	}

	s.LogInfo(ctx, "Charge added",
		slog.String("settlement_id", settlementID),
		slog.String("charge_id", charge.ChargeID),
		slog.String("amount", charge.Amount.String()))
	return stl, nil
}

// UpdateCharge patches a charge line; only supplied fields change.
func (s *settlementService) UpdateCharge(ctx context.Context, settlementID, chargeID string, req dto.UpdateChargeRequest) (*domain.Settlement, error) {
	stl, err := s.loadOwned(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if err := stl.EnsureModifiable(); err != nil {
		return nil, err
	}

	idx := stl.Charges.IndexOf(chargeID)
	if idx < 0 {
		return nil, fmt.Errorf("charge %s on settlement %s: %w", chargeID, settlementID, apperrors.ErrNotFound)
	}

	charge := &stl.Charges[idx]
	description := charge.Description
	amount := charge.Amount
	if req.Description != nil {
		description = *req.Description
	}
	if req.Amount != nil {
		amount = *req.Amount
	}
	if err := domain.ValidateChargeInput(description, amount); err != nil {
		return nil, err
	}
	charge.Description = strings.TrimSpace(description)
	charge.Amount = amount

	stl.RecalculateTotals()
	stl.Touch(req.Actor, time.Now().UTC())
	if err := s.persist(ctx, stl); err != nil {
		s.LogError(ctx, err, "Failed to persist charge update", slog.String("settlement_id", settlementID), slog.String("charge_id", chargeID))
		return nil, err
	}

	s.LogInfo(ctx, "Charge updated", slog.String("settlement_id", settlementID), slog.String("charge_id", chargeID))
	return stl, nil
}

// RemoveCharge deletes a charge line and recomputes the settlement totals.
func (s *settlementService) RemoveCharge(ctx context.Context, settlementID, chargeID string, actor string) (*domain.Settlement, error) {
	stl, err := s.loadOwned(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if err := stl.EnsureModifiable(); err != nil {
		return nil, err
	}

	idx := stl.Charges.IndexOf(chargeID)
	if idx < 0 {
		return nil, fmt.Errorf("charge %s on settlement %s: %w", chargeID, settlementID, apperrors.ErrNotFound)
	}

	stl.Charges = append(stl.Charges[:idx], stl.Charges[idx+1:]...)
	stl.RecalculateTotals()
	stl.Touch(actor, time.Now().UTC())
	if err := s.persist(ctx, stl); err != nil {
		s.LogError(ctx, err, "Failed to persist charge removal", slog.String("settlement_id", settlementID), slog.String("charge_id", chargeID))
		return nil, err
	}

	s.LogInfo(ctx, "Charge removed", slog.String("settlement_id", settlementID), slog.String("charge_id", chargeID))
	return stl, nil
}

// ReviewSettlement marks a calculated settlement as reviewed.
func (s *settlementService) ReviewSettlement(ctx context.Context, settlementID string, actor string) (*domain.Settlement, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, fmt.Errorf("%w: reviewer identity is required", apperrors.ErrValidation)
	}
	return s.transition(ctx, settlementID, domain.Reviewed, actor, nil)
}

// ApproveSettlement moves a reviewed settlement to Approved.
func (s *settlementService) ApproveSettlement(ctx context.Context, settlementID string, approvedBy string) (*domain.Settlement, error) {
	if strings.TrimSpace(approvedBy) == "" {
		return nil, fmt.Errorf("%w: approver identity is required", apperrors.ErrValidation)
	}
	return s.transition(ctx, settlementID, domain.Approved, approvedBy, nil)
}

// FinalizeSettlement locks an approved settlement. The finalized event is
// published exactly once, only after the write has been persisted.
func (s *settlementService) FinalizeSettlement(ctx context.Context, settlementID string, finalizedBy string) (*domain.Settlement, error) {
	if strings.TrimSpace(finalizedBy) == "" {
		return nil, fmt.Errorf("%w: finalizer identity is required", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	stl, err := s.transition(ctx, settlementID, domain.Finalized, finalizedBy, func(stl *domain.Settlement) {
		stl.FinalizedBy = &finalizedBy
		stl.FinalizedAt = &now
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		event := domain.SettlementFinalizedEvent{
			SettlementID: stl.SettlementID,
			TotalAmount:  stl.TotalSettlementAmount,
			FinalizedAt:  now,
		}
		if perr := s.publisher.PublishSettlementFinalized(ctx, event); perr != nil {
			// The settlement is already locked; publication failure must not
			// unwind it. Surface in logs for the operator.
			s.LogError(ctx, perr, "Failed to publish settlement finalized event", slog.String("settlement_id", stl.SettlementID))
		}
	}
	return stl, nil
}

// CancelSettlement cancels a non-finalized settlement, recording the reason.
func (s *settlementService) CancelSettlement(ctx context.Context, settlementID string, req dto.CancelSettlementRequest) (*domain.Settlement, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("%w: cancellation reason is required", apperrors.ErrValidation)
	}
	return s.transition(ctx, settlementID, domain.Cancelled, req.Actor, func(stl *domain.Settlement) {
		stl.CancelReason = req.Reason
	})
}

// transition loads, transitions and persists a settlement in one step.
// mutate, when non-nil, runs after the state machine accepts the transition
// and before the write.
func (s *settlementService) transition(ctx context.Context, settlementID string, to domain.SettlementStatus, actor string, mutate func(*domain.Settlement)) (*domain.Settlement, error) {
	stl, err := s.loadOwned(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if err := stl.TransitionTo(to); err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(stl)
	}

	stl.Touch(actor, time.Now().UTC())
	if err := s.persist(ctx, stl); err != nil {
		s.LogError(ctx, err, "Failed to persist status transition",
			slog.String("settlement_id", settlementID),
			slog.String("target_status", string(to)))
		return nil, err
	}

	s.LogInfo(ctx, "Settlement status advanced",
		slog.String("settlement_id", settlementID),
		slog.String("status", string(to)))
	return stl, nil
}

// AdvanceToStatus chains forward transitions until the target status is
// reached. Each step is an explicit, individually-guarded transition; the
// chain stops at the first failure and reports it, returning the settlement
// at the last state that passed. Guards are never silently skipped.
func (s *settlementService) AdvanceToStatus(ctx context.Context, settlementID string, target domain.SettlementStatus, actor string) (*domain.Settlement, error) {
	switch target {
	case domain.Reviewed, domain.Approved, domain.Finalized:
	default:
		return nil, fmt.Errorf("%w: cannot chain transitions to status %s", apperrors.ErrValidation, target)
	}

	stl, err := s.loadOwned(ctx, settlementID)
	if err != nil {
		return nil, err
	}

	for stl.Status != target {
		var next *domain.Settlement
		switch stl.Status {
		case domain.Calculated:
			next, err = s.ReviewSettlement(ctx, settlementID, actor)
		case domain.Reviewed:
			next, err = s.ApproveSettlement(ctx, settlementID, actor)
		case domain.Approved:
			next, err = s.FinalizeSettlement(ctx, settlementID, actor)
		default:
			return stl, apperrors.NewInvalidTransitionError(string(stl.Status), string(target))
		}
		if err != nil {
			// Stop at the last state that passed; report, never swallow.
			return stl, err
		}
		stl = next
	}
	return stl, nil
}
