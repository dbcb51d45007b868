package repositories

import (
	"context"

	"github.com/petroledger/settlement_app/internal/core/domain"
)

// ContractRepository is the lookup contract management exposes to the
// settlement engine. Contracts are read-only collaborators here.
type ContractRepository interface {
	// FindContractByID retrieves a contract by its unique identifier.
	FindContractByID(ctx context.Context, contractID string) (*domain.Contract, error)
}
