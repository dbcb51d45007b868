package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractKind distinguishes the two sides of the trading book.
type ContractKind string

const (
	Purchase ContractKind = "PURCHASE"
	Sales    ContractKind = "SALES"
)

// DocumentType identifies the source document a settlement was entered from.
type DocumentType string

const (
	BillOfLading          DocumentType = "BILL_OF_LADING"
	Invoice               DocumentType = "INVOICE"
	CertificateOfQuantity DocumentType = "CERTIFICATE_OF_QUANTITY"
	Specification         DocumentType = "SPECIFICATION"
	OtherDocument         DocumentType = "OTHER"
)

// CalculationMode selects how calculation quantities are derived from the
// actual quantities entered off the source document.
type CalculationMode string

const (
	UseActualQuantities  CalculationMode = "USE_ACTUAL"
	UseMTForAll          CalculationMode = "USE_MT_FOR_ALL"
	UseBBLForAll         CalculationMode = "USE_BBL_FOR_ALL"
	UseContractSpecified CalculationMode = "USE_CONTRACT_SPECIFIED"
)

// DefaultTonBarrelRatio is the fallback MT->BBL conversion factor when the
// product density is unknown. Roughly the factor for a medium crude.
var DefaultTonBarrelRatio = decimal.NewFromFloat(7.33)

// Settlement represents one settlement record for exactly one contract.
// Charges are owned by the settlement and never outlive it.
type Settlement struct {
	SettlementID           string       `json:"settlementID"`
	ContractID             string       `json:"contractID"`
	ContractKind           ContractKind `json:"contractKind"`
	ExternalContractNumber string       `json:"externalContractNumber"`
	DocumentNumber         string       `json:"documentNumber"`
	DocumentType           DocumentType `json:"documentType"`
	DocumentDate           time.Time    `json:"documentDate"`

	ActualQuantityMT       decimal.Decimal `json:"actualQuantityMT"`
	ActualQuantityBBL      decimal.Decimal `json:"actualQuantityBBL"`
	CalculationQuantityMT  decimal.Decimal `json:"calculationQuantityMT"`
	CalculationQuantityBBL decimal.Decimal `json:"calculationQuantityBBL"`
	TonBarrelRatio         decimal.Decimal `json:"tonBarrelRatio"`
	CalculationMode        CalculationMode `json:"calculationMode"`

	BenchmarkAmount       decimal.Decimal `json:"benchmarkAmount"`
	AdjustmentAmount      decimal.Decimal `json:"adjustmentAmount"`
	CargoValue            decimal.Decimal `json:"cargoValue"`
	TotalCharges          decimal.Decimal `json:"totalCharges"`
	TotalSettlementAmount decimal.Decimal `json:"totalSettlementAmount"`
	SettlementCurrency    string          `json:"settlementCurrency"`
	CalculationNote       string          `json:"calculationNote"`

	Status       SettlementStatus `json:"status"`
	CancelReason string           `json:"cancelReason"`

	Charges ChargeLedger `json:"charges"`

	// Version is the optimistic concurrency token; every persisted mutation
	// increments it.
	Version int64 `json:"version"`

	AuditFields
	FinalizedBy *string    `json:"finalizedBy"`
	FinalizedAt *time.Time `json:"finalizedAt"`
}

// IsFinalized reports whether the settlement reached its terminal locked state.
func (s *Settlement) IsFinalized() bool {
	return s.Status == Finalized
}

// CanBeModified reports whether mutating operations are still permitted.
// Finalized and Cancelled settlements are immutable.
func (s *Settlement) CanBeModified() bool {
	return s.Status != Finalized && s.Status != Cancelled
}

// RecalculateTotals re-derives totalCharges and totalSettlementAmount from the
// current charge ledger and cargo value. Totals are never allowed to drift
// from sum(charges) + cargoValue.
func (s *Settlement) RecalculateTotals() {
	s.TotalCharges = s.Charges.Total()
	s.TotalSettlementAmount = s.CargoValue.Add(s.TotalCharges)
}
