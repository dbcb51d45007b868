package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	portssvc "github.com/petroledger/settlement_app/internal/core/ports/services"
	"github.com/petroledger/settlement_app/internal/dto"
)

const defaultBulkWorkers = 4

// bulkService fans one lifecycle operation out over many settlements.
// Items are independent, so they are dispatched to a bounded worker pool;
// each item's failure is isolated and recorded, never propagated out of the
// batch. The batch is explicitly not atomic across settlements.
type bulkService struct {
	BaseService
	settlements portssvc.SettlementLifecycleSvc
	workers     int
}

// NewBulkService creates a bulk coordinator over one settlement service.
func NewBulkService(settlements portssvc.SettlementLifecycleSvc, workers int) portssvc.BulkSvcFacade {
	if workers <= 0 {
		workers = defaultBulkWorkers
	}
	return &bulkService{settlements: settlements, workers: workers}
}

var _ portssvc.BulkSvcFacade = (*bulkService)(nil)

// Apply runs the operation against every ID and aggregates per-item results.
// Context cancellation stops dispatching new items; items already dispatched
// run to completion and items never dispatched are recorded as failures.
func (s *bulkService) Apply(ctx context.Context, operation dto.BulkOperation, settlementIDs []string, actor string) dto.BulkResult {
	details := make([]dto.BulkOperationDetail, len(settlementIDs))

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.workers)
		mu  sync.Mutex

		successCount int
		failureCount int
	)

	record := func(i int, detail dto.BulkOperationDetail) {
		details[i] = detail
		mu.Lock()
		if detail.Status == dto.BulkItemSuccess {
			successCount++
		} else {
			failureCount++
		}
		mu.Unlock()
	}

	abort := func(from int) {
		// Stop dispatching; mark every undispatched item as failed.
		for j := from; j < len(settlementIDs); j++ {
			record(j, dto.BulkOperationDetail{
				SettlementID: settlementIDs[j],
				Status:       dto.BulkItemFailure,
				Message:      "batch cancelled before item was dispatched",
			})
		}
	}

dispatch:
	for i, id := range settlementIDs {
		// Cancellation wins over a free worker slot.
		if ctx.Err() != nil {
			abort(i)
			break dispatch
		}
		select {
		case <-ctx.Done():
			abort(i)
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()
			record(i, s.applyOne(ctx, operation, id, actor))
		}(i, id)
	}

	wg.Wait()

	s.LogInfo(ctx, "Bulk operation completed",
		slog.String("operation", string(operation)),
		slog.Int("success_count", successCount),
		slog.Int("failure_count", failureCount))

	return dto.BulkResult{
		SuccessCount: successCount,
		FailureCount: failureCount,
		Details:      details,
	}
}

// applyOne validates the identifier, runs the single-item operation and maps
// any error into a per-item failure record.
func (s *bulkService) applyOne(ctx context.Context, operation dto.BulkOperation, settlementID string, actor string) dto.BulkOperationDetail {
	if _, err := uuid.Parse(settlementID); err != nil {
		return dto.BulkOperationDetail{
			SettlementID: settlementID,
			Status:       dto.BulkItemFailure,
			Message:      "invalid identifier",
		}
	}

	var err error
	switch operation {
	case dto.BulkApprove:
		_, err = s.settlements.ApproveSettlement(ctx, settlementID, actor)
	case dto.BulkFinalize:
		_, err = s.settlements.FinalizeSettlement(ctx, settlementID, actor)
	default:
		err = fmt.Errorf("unsupported bulk operation %q", operation)
	}
	if err != nil {
		return dto.BulkOperationDetail{
			SettlementID: settlementID,
			Status:       dto.BulkItemFailure,
			Message:      err.Error(),
		}
	}
	return dto.BulkOperationDetail{SettlementID: settlementID, Status: dto.BulkItemSuccess}
}
