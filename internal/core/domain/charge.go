package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/petroledger/settlement_app/internal/apperrors"
)

// ChargeType categorizes a charge line. The set is extensible; unknown types
// are stored as-is.
type ChargeType string

const (
	Demurrage  ChargeType = "DEMURRAGE"
	PortFees   ChargeType = "PORT_FEES"
	Freight    ChargeType = "FREIGHT"
	Inspection ChargeType = "INSPECTION"
	Insurance  ChargeType = "INSURANCE"
	OtherFee   ChargeType = "OTHER"
)

// Charge is one fee or credit line against a settlement. A negative amount is
// a credit/discount; a zero amount is rejected at creation.
type Charge struct {
	ChargeID     string     `json:"chargeID"`
	SettlementID string     `json:"settlementID"`
	ChargeType   ChargeType `json:"chargeType"`
	Description  string     `json:"description"`

	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`

	IncurredDate      *time.Time `json:"incurredDate"`
	ReferenceDocument string     `json:"referenceDocument"`
	Notes             string     `json:"notes"`

	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// ValidateChargeInput checks the fields every charge mutation must satisfy.
func ValidateChargeInput(description string, amount decimal.Decimal) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: charge description must not be blank", apperrors.ErrValidation)
	}
	if amount.IsZero() {
		return fmt.Errorf("%w: charge amount must not be zero", apperrors.ErrValidation)
	}
	return nil
}

// ChargeLedger is the ordered list of charges owned by one settlement.
// Insertion order is preserved; duplicates are permitted.
type ChargeLedger []Charge

// Total sums all charge amounts. Positive and negative amounts net against
// each other.
func (l ChargeLedger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range l {
		total = total.Add(c.Amount)
	}
	return total
}

// PositiveTotal sums the amounts greater than zero.
func (l ChargeLedger) PositiveTotal() decimal.Decimal {
	total := decimal.Zero
	for _, c := range l {
		if c.Amount.IsPositive() {
			total = total.Add(c.Amount)
		}
	}
	return total
}

// NegativeTotal sums the amounts less than zero.
func (l ChargeLedger) NegativeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, c := range l {
		if c.Amount.IsNegative() {
			total = total.Add(c.Amount)
		}
	}
	return total
}

// IndexOf returns the position of the charge with the given ID, or -1.
func (l ChargeLedger) IndexOf(chargeID string) int {
	for i, c := range l {
		if c.ChargeID == chargeID {
			return i
		}
	}
	return -1
}
