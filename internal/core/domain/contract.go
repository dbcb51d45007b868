package domain

import "github.com/shopspring/decimal"

// Contract is the engine's view of a trading contract. Contract management
// itself lives outside this service; settlements only need the lookup fields.
type Contract struct {
	ContractID     string          `json:"contractID"`
	ContractNumber string          `json:"contractNumber"`
	Kind           ContractKind    `json:"kind"`
	Counterparty   string          `json:"counterparty"`
	Product        string          `json:"product"`
	Quantity       decimal.Decimal `json:"quantity"`
	QuantityUnit   QuantityUnit    `json:"quantityUnit"`
	Currency       string          `json:"currency"`
}
