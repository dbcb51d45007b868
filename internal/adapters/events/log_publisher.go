package events

import (
	"context"
	"log/slog"

	"github.com/petroledger/settlement_app/internal/core/domain"
	portssvc "github.com/petroledger/settlement_app/internal/core/ports/services"
)

// LogPublisher emits settlement lifecycle events to the structured log.
// Downstream consumers (contract payment tracking, reporting) tail these
// records; swapping in a broker-backed publisher only requires implementing
// the same port.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher that writes events to the given logger.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

var _ portssvc.SettlementEventPublisher = (*LogPublisher)(nil)

// PublishSettlementFinalized records the finalization event.
func (p *LogPublisher) PublishSettlementFinalized(_ context.Context, event domain.SettlementFinalizedEvent) error {
	p.logger.Info("settlement.finalized",
		slog.String("settlement_id", event.SettlementID),
		slog.String("total_amount", event.TotalAmount.String()),
		slog.Time("finalized_at", event.FinalizedAt),
	)
	return nil
}
