package dto

// BulkOperation names a lifecycle operation the bulk coordinator can apply.
type BulkOperation string

const (
	BulkApprove  BulkOperation = "APPROVE"
	BulkFinalize BulkOperation = "FINALIZE"
)

// BulkApplyRequest applies one lifecycle operation across many settlements.
type BulkApplyRequest struct {
	SettlementIDs []string `json:"settlementIDs" binding:"required,min=1"`
	Actor         string   `json:"actor" binding:"required"`
}

// BulkItemStatus marks a per-item outcome.
const (
	BulkItemSuccess = "success"
	BulkItemFailure = "failure"
)

// BulkOperationDetail is the per-settlement outcome within a bulk result.
type BulkOperationDetail struct {
	SettlementID string `json:"id"`
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
}

// BulkResult aggregates per-item outcomes of a bulk operation. The batch is
// not atomic across settlements: partial success is the designed outcome.
type BulkResult struct {
	SuccessCount int                   `json:"successCount"`
	FailureCount int                   `json:"failureCount"`
	Details      []BulkOperationDetail `json:"details"`
}

// ExportSettlementsRequest selects the settlements included in an XLSX
// statement export.
type ExportSettlementsRequest struct {
	SettlementIDs []string `json:"settlementIDs" binding:"required,min=1"`
	Actor         string   `json:"actor" binding:"required"`
}
