package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/petroledger/settlement_app/internal/core/domain"
)

// CreateChargeRequest appends a charge line to a settlement's ledger.
// A negative amount is a credit/discount; zero amounts are rejected.
type CreateChargeRequest struct {
	ChargeType        string          `json:"chargeType" binding:"required"`
	Description       string          `json:"description" binding:"required"`
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	Currency          string          `json:"currency"`
	IncurredDate      *time.Time      `json:"incurredDate"`
	ReferenceDocument string          `json:"referenceDocument"`
	Notes             string          `json:"notes"`
	Actor             string          `json:"actor" binding:"required"`
}

// UpdateChargeRequest patches a charge line; only supplied fields change.
type UpdateChargeRequest struct {
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Actor       string           `json:"actor" binding:"required"`
}

// RemoveChargeRequest removes a charge line from the ledger.
type RemoveChargeRequest struct {
	Actor string `json:"actor" binding:"required"`
}

// ChargeResponse is the outbound representation of one charge line.
type ChargeResponse struct {
	ChargeID          string          `json:"chargeID"`
	SettlementID      string          `json:"settlementID"`
	ChargeType        string          `json:"chargeType"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	IncurredDate      *time.Time      `json:"incurredDate,omitempty"`
	ReferenceDocument string          `json:"referenceDocument,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	CreatedBy         string          `json:"createdBy"`
}

// ToChargeResponse converts a domain.Charge to its response DTO.
func ToChargeResponse(c *domain.Charge) ChargeResponse {
	return ChargeResponse{
		ChargeID:          c.ChargeID,
		SettlementID:      c.SettlementID,
		ChargeType:        string(c.ChargeType),
		Description:       c.Description,
		Amount:            c.Amount,
		Currency:          c.Currency,
		IncurredDate:      c.IncurredDate,
		ReferenceDocument: c.ReferenceDocument,
		Notes:             c.Notes,
		CreatedAt:         c.CreatedAt,
		CreatedBy:         c.CreatedBy,
	}
}

// ToChargeResponses converts a charge ledger to response DTOs.
func ToChargeResponses(ledger domain.ChargeLedger) []ChargeResponse {
	responses := make([]ChargeResponse, len(ledger))
	for i := range ledger {
		responses[i] = ToChargeResponse(&ledger[i])
	}
	return responses
}
