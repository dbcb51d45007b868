package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementFinalizedEvent is raised exactly once when a settlement is
// finalized, after the finalize write has been persisted. External consumers
// (e.g. contract payment tracking) subscribe to it.
type SettlementFinalizedEvent struct {
	SettlementID string          `json:"settlementID"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	FinalizedAt  time.Time       `json:"finalizedAt"`
}
