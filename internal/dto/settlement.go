package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/petroledger/settlement_app/internal/core/domain"
)

// CreateSettlementRequest creates a Draft settlement against a contract.
type CreateSettlementRequest struct {
	ContractID             string          `json:"contractID" binding:"required"`
	ExternalContractNumber string          `json:"externalContractNumber"`
	DocumentNumber         string          `json:"documentNumber" binding:"required"`
	DocumentType           string          `json:"documentType" binding:"required,oneof=BILL_OF_LADING INVOICE CERTIFICATE_OF_QUANTITY SPECIFICATION OTHER"`
	DocumentDate           time.Time       `json:"documentDate" binding:"required"`
	SettlementCurrency     string          `json:"settlementCurrency"`
	TonBarrelRatio         decimal.Decimal `json:"tonBarrelRatio"`
	ProductDensity         decimal.Decimal `json:"productDensity"` // kg/m3; seeds the ratio when no explicit ratio is given
	CalculationMode        string          `json:"calculationMode" binding:"omitempty,oneof=USE_ACTUAL USE_MT_FOR_ALL USE_BBL_FOR_ALL USE_CONTRACT_SPECIFIED"`
	CreatedBy              string          `json:"createdBy" binding:"required"`
}

// UpdateQuantitiesRequest records the actual quantities off the source
// document. At least one of the two quantities must be positive.
type UpdateQuantitiesRequest struct {
	ActualQuantityMT  decimal.Decimal `json:"actualQuantityMT"`
	ActualQuantityBBL decimal.Decimal `json:"actualQuantityBBL"`
	TonBarrelRatio    decimal.Decimal `json:"tonBarrelRatio"`
	CalculationMode   string          `json:"calculationMode" binding:"omitempty,oneof=USE_ACTUAL USE_MT_FOR_ALL USE_BBL_FOR_ALL USE_CONTRACT_SPECIFIED"`
	Actor             string          `json:"actor" binding:"required"`
}

// CalculateSettlementRequest prices a settlement. Either benchmarkAmount (a
// pre-scaled total) or benchmarkPrice (per MT, scaled server-side by the
// re-derived calculation quantity) must be supplied. Client-submitted
// calculation quantities are never accepted; the service re-derives them from
// the stored actuals, mode and ratio.
type CalculateSettlementRequest struct {
	BenchmarkAmount  *decimal.Decimal `json:"benchmarkAmount"`
	BenchmarkPrice   *decimal.Decimal `json:"benchmarkPrice"`
	AdjustmentAmount decimal.Decimal  `json:"adjustmentAmount"`
	Note             string           `json:"note"`
	Actor            string           `json:"actor" binding:"required"`
}

// ReviewSettlementRequest marks a calculated settlement as reviewed.
type ReviewSettlementRequest struct {
	Actor string `json:"actor" binding:"required"`
}

// ApproveSettlementRequest approves a reviewed settlement.
type ApproveSettlementRequest struct {
	ApprovedBy string `json:"approvedBy" binding:"required"`
}

// FinalizeSettlementRequest finalizes an approved settlement.
type FinalizeSettlementRequest struct {
	FinalizedBy string `json:"finalizedBy" binding:"required"`
}

// CancelSettlementRequest cancels a non-finalized settlement.
type CancelSettlementRequest struct {
	Reason string `json:"reason" binding:"required"`
	Actor  string `json:"actor" binding:"required"`
}

// AdvanceStatusRequest chains forward transitions up to targetStatus. The
// chain stops and reports at the first failing guard; nothing is skipped.
type AdvanceStatusRequest struct {
	TargetStatus string `json:"targetStatus" binding:"required,oneof=REVIEWED APPROVED FINALIZED"`
	Actor        string `json:"actor" binding:"required"`
}

// ListSettlementsParams holds the pagination parameters for listing.
type ListSettlementsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// SettlementResponse is the hydrated settlement representation returned after
// every call.
type SettlementResponse struct {
	SettlementID           string    `json:"settlementID"`
	ContractID             string    `json:"contractID"`
	ContractKind           string    `json:"contractKind"`
	ExternalContractNumber string    `json:"externalContractNumber"`
	DocumentNumber         string    `json:"documentNumber"`
	DocumentType           string    `json:"documentType"`
	DocumentDate           time.Time `json:"documentDate"`

	ActualQuantityMT       decimal.Decimal `json:"actualQuantityMT"`
	ActualQuantityBBL      decimal.Decimal `json:"actualQuantityBBL"`
	CalculationQuantityMT  decimal.Decimal `json:"calculationQuantityMT"`
	CalculationQuantityBBL decimal.Decimal `json:"calculationQuantityBBL"`
	TonBarrelRatio         decimal.Decimal `json:"tonBarrelRatio"`
	CalculationMode        string          `json:"calculationMode"`

	BenchmarkAmount       decimal.Decimal `json:"benchmarkAmount"`
	AdjustmentAmount      decimal.Decimal `json:"adjustmentAmount"`
	CargoValue            decimal.Decimal `json:"cargoValue"`
	TotalCharges          decimal.Decimal `json:"totalCharges"`
	TotalSettlementAmount decimal.Decimal `json:"totalSettlementAmount"`
	SettlementCurrency    string          `json:"settlementCurrency"`
	CalculationNote       string          `json:"calculationNote"`

	Status        string `json:"status"`
	StatusOrdinal int    `json:"statusOrdinal"`
	IsFinalized   bool   `json:"isFinalized"`
	CanBeModified bool   `json:"canBeModified"`
	CancelReason  string `json:"cancelReason,omitempty"`

	Charges []ChargeResponse `json:"charges"`

	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"createdAt"`
	CreatedBy     string     `json:"createdBy"`
	LastUpdatedAt time.Time  `json:"lastUpdatedAt"`
	LastUpdatedBy string     `json:"lastUpdatedBy"`
	FinalizedBy   *string    `json:"finalizedBy,omitempty"`
	FinalizedAt   *time.Time `json:"finalizedAt,omitempty"`
}

// ListSettlementsResponse is the paginated list payload.
type ListSettlementsResponse struct {
	Settlements []SettlementResponse `json:"settlements"`
	NextToken   *string              `json:"nextToken,omitempty"`
}

// ToSettlementResponse converts a domain.Settlement to its response DTO.
func ToSettlementResponse(s *domain.Settlement) SettlementResponse {
	return SettlementResponse{
		SettlementID:           s.SettlementID,
		ContractID:             s.ContractID,
		ContractKind:           string(s.ContractKind),
		ExternalContractNumber: s.ExternalContractNumber,
		DocumentNumber:         s.DocumentNumber,
		DocumentType:           string(s.DocumentType),
		DocumentDate:           s.DocumentDate,
		ActualQuantityMT:       s.ActualQuantityMT,
		ActualQuantityBBL:      s.ActualQuantityBBL,
		CalculationQuantityMT:  s.CalculationQuantityMT,
		CalculationQuantityBBL: s.CalculationQuantityBBL,
		TonBarrelRatio:         s.TonBarrelRatio,
		CalculationMode:        string(s.CalculationMode),
		BenchmarkAmount:        s.BenchmarkAmount,
		AdjustmentAmount:       s.AdjustmentAmount,
		CargoValue:             s.CargoValue,
		TotalCharges:           s.TotalCharges,
		TotalSettlementAmount:  s.TotalSettlementAmount,
		SettlementCurrency:     s.SettlementCurrency,
		CalculationNote:        s.CalculationNote,
		Status:                 string(s.Status),
		StatusOrdinal:          s.Status.Ordinal(),
		IsFinalized:            s.IsFinalized(),
		CanBeModified:          s.CanBeModified(),
		CancelReason:           s.CancelReason,
		Charges:                ToChargeResponses(s.Charges),
		Version:                s.Version,
		CreatedAt:              s.CreatedAt,
		CreatedBy:              s.CreatedBy,
		LastUpdatedAt:          s.LastUpdatedAt,
		LastUpdatedBy:          s.LastUpdatedBy,
		FinalizedBy:            s.FinalizedBy,
		FinalizedAt:            s.FinalizedAt,
	}
}
