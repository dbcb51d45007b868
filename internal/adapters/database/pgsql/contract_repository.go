package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/petroledger/settlement_app/internal/apperrors"
	"github.com/petroledger/settlement_app/internal/core/domain"
	portsrepo "github.com/petroledger/settlement_app/internal/core/ports/repositories"
)

// PgxContractRepository reads contracts maintained by the contract
// management system. The settlement engine never writes this table.
type PgxContractRepository struct {
	pool *pgxpool.Pool
}

// NewPgxContractRepository creates a new contract lookup repository.
func NewPgxContractRepository(pool *pgxpool.Pool) portsrepo.ContractRepository {
	return &PgxContractRepository{pool: pool}
}

var _ portsrepo.ContractRepository = (*PgxContractRepository)(nil)

// FindContractByID retrieves a contract by its ID.
func (r *PgxContractRepository) FindContractByID(ctx context.Context, contractID string) (*domain.Contract, error) {
	query := `
		SELECT contract_id, contract_number, kind, counterparty, product, quantity, quantity_unit, currency
		FROM contracts
		WHERE contract_id = $1;
	`
	var c domain.Contract
	err := r.pool.QueryRow(ctx, query, contractID).Scan(
		&c.ContractID, &c.ContractNumber, &c.Kind, &c.Counterparty,
		&c.Product, &c.Quantity, &c.QuantityUnit, &c.Currency,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find contract by ID %s: %w", contractID, err)
	}
	return &c, nil
}
