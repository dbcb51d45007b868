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
	"github.com/petroledger/settlement_app/internal/utils/pagination"
)

// PgxSettlementRepository persists settlements and their charge ledgers.
type PgxSettlementRepository struct {
	pool *pgxpool.Pool
}

// NewPgxSettlementRepository creates a new settlement repository.
func NewPgxSettlementRepository(pool *pgxpool.Pool) portsrepo.SettlementRepositoryFacade {
	return &PgxSettlementRepository{pool: pool}
}

var _ portsrepo.SettlementRepositoryFacade = (*PgxSettlementRepository)(nil)

const settlementColumns = `
	settlement_id, contract_id, contract_kind, external_contract_number,
	document_number, document_type, document_date,
	actual_quantity_mt, actual_quantity_bbl, calculation_quantity_mt, calculation_quantity_bbl,
	ton_barrel_ratio, calculation_mode,
	benchmark_amount, adjustment_amount, cargo_value, total_charges, total_settlement_amount,
	settlement_currency, calculation_note, status, cancel_reason, version,
	created_at, created_by, last_updated_at, last_updated_by, finalized_by, finalized_at`

func scanSettlement(row pgx.Row) (*domain.Settlement, error) {
	var s domain.Settlement
	err := row.Scan(
		&s.SettlementID, &s.ContractID, &s.ContractKind, &s.ExternalContractNumber,
		&s.DocumentNumber, &s.DocumentType, &s.DocumentDate,
		&s.ActualQuantityMT, &s.ActualQuantityBBL, &s.CalculationQuantityMT, &s.CalculationQuantityBBL,
		&s.TonBarrelRatio, &s.CalculationMode,
		&s.BenchmarkAmount, &s.AdjustmentAmount, &s.CargoValue, &s.TotalCharges, &s.TotalSettlementAmount,
		&s.SettlementCurrency, &s.CalculationNote, &s.Status, &s.CancelReason, &s.Version,
		&s.CreatedAt, &s.CreatedBy, &s.LastUpdatedAt, &s.LastUpdatedBy, &s.FinalizedBy, &s.FinalizedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindSettlementByID retrieves a settlement hydrated with its charge ledger.
func (r *PgxSettlementRepository) FindSettlementByID(ctx context.Context, settlementID string) (*domain.Settlement, error) {
	query := fmt.Sprintf(`SELECT %s FROM settlements WHERE settlement_id = $1;`, settlementColumns)

	settlement, err := scanSettlement(r.pool.QueryRow(ctx, query, settlementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find settlement by ID %s: %w", settlementID, err)
	}

	charges, err := r.findCharges(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	settlement.Charges = charges
	return settlement, nil
}

func (r *PgxSettlementRepository) findCharges(ctx context.Context, settlementID string) (domain.ChargeLedger, error) {
	query := `
		SELECT charge_id, settlement_id, charge_type, description, amount, currency,
		       incurred_date, reference_document, notes, created_at, created_by
		FROM settlement_charges
		WHERE settlement_id = $1
		ORDER BY position;
	`
	rows, err := r.pool.Query(ctx, query, settlementID)
	if err != nil {
		return nil, fmt.Errorf("failed to query charges for settlement %s: %w", settlementID, err)
	}
	defer rows.Close()

	ledger := domain.ChargeLedger{}
	for rows.Next() {
		var c domain.Charge
		if err := rows.Scan(
			&c.ChargeID, &c.SettlementID, &c.ChargeType, &c.Description, &c.Amount, &c.Currency,
			&c.IncurredDate, &c.ReferenceDocument, &c.Notes, &c.CreatedAt, &c.CreatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan charge for settlement %s: %w", settlementID, err)
		}
		ledger = append(ledger, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating charges for settlement %s: %w", settlementID, err)
	}
	return ledger, nil
}

// ListSettlements retrieves a page of one side's settlements, newest first,
// using (created_at, settlement_id) token pagination.
func (r *PgxSettlementRepository) ListSettlements(ctx context.Context, kind domain.ContractKind, limit int, nextToken *string) ([]domain.Settlement, *string, error) {
	query := fmt.Sprintf(`SELECT %s FROM settlements WHERE contract_kind = $1`, settlementColumns)
	args := []any{string(kind)}

	if nextToken != nil && *nextToken != "" {
		createdAt, settlementID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		query += ` AND (created_at, settlement_id) < ($2, $3)`
		args = append(args, createdAt, settlementID)
	}
	// Fetch one extra row to detect whether another page exists.
	query += fmt.Sprintf(` ORDER BY created_at DESC, settlement_id DESC LIMIT %d;`, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	settlements := []domain.Settlement{}
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan settlement row: %w", err)
		}
		settlements = append(settlements, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating settlements: %w", err)
	}

	var token *string
	if len(settlements) > limit {
		settlements = settlements[:limit]
		last := settlements[len(settlements)-1]
		encoded := pagination.EncodeToken(last.CreatedAt, last.SettlementID)
		token = &encoded
	}

	for i := range settlements {
		charges, err := r.findCharges(ctx, settlements[i].SettlementID)
		if err != nil {
			return nil, nil, err
		}
		settlements[i].Charges = charges
	}
	return settlements, token, nil
}

// SaveSettlement inserts a new settlement and its charges in one transaction.
func (r *PgxSettlementRepository) SaveSettlement(ctx context.Context, settlement domain.Settlement) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	insertQuery := fmt.Sprintf(`
		INSERT INTO settlements (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29);
	`, settlementColumns)
	_, err = tx.Exec(ctx, insertQuery, settlementArgs(settlement)...)
	if err != nil {
		return fmt.Errorf("failed to insert settlement %s: %w", settlement.SettlementID, err)
	}

	if err := insertCharges(ctx, tx, settlement); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit settlement %s: %w", settlement.SettlementID, err)
	}
	return nil
}

// UpdateSettlement rewrites the settlement row and its charges atomically,
// guarded by the optimistic version token. The caller passes the version it
// read; the stored row must still carry it or ErrConflict is returned.
func (r *PgxSettlementRepository) UpdateSettlement(ctx context.Context, settlement domain.Settlement, expectedVersion int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	updateQuery := `
		UPDATE settlements SET
			external_contract_number = $2, document_number = $3, document_type = $4, document_date = $5,
			actual_quantity_mt = $6, actual_quantity_bbl = $7,
			calculation_quantity_mt = $8, calculation_quantity_bbl = $9,
			ton_barrel_ratio = $10, calculation_mode = $11,
			benchmark_amount = $12, adjustment_amount = $13, cargo_value = $14,
			total_charges = $15, total_settlement_amount = $16,
			settlement_currency = $17, calculation_note = $18, status = $19, cancel_reason = $20,
			version = $21, last_updated_at = $22, last_updated_by = $23,
			finalized_by = $24, finalized_at = $25
		WHERE settlement_id = $1 AND version = $26;
	`
	tag, err := tx.Exec(ctx, updateQuery,
		settlement.SettlementID,
		settlement.ExternalContractNumber, settlement.DocumentNumber, settlement.DocumentType, settlement.DocumentDate,
		settlement.ActualQuantityMT, settlement.ActualQuantityBBL,
		settlement.CalculationQuantityMT, settlement.CalculationQuantityBBL,
		settlement.TonBarrelRatio, settlement.CalculationMode,
		settlement.BenchmarkAmount, settlement.AdjustmentAmount, settlement.CargoValue,
		settlement.TotalCharges, settlement.TotalSettlementAmount,
		settlement.SettlementCurrency, settlement.CalculationNote, settlement.Status, settlement.CancelReason,
		settlement.Version, settlement.LastUpdatedAt, settlement.LastUpdatedBy,
		settlement.FinalizedBy, settlement.FinalizedAt,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update settlement %s: %w", settlement.SettlementID, err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a stale version from a missing row.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM settlements WHERE settlement_id = $1);`, settlement.SettlementID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check settlement existence %s: %w", settlement.SettlementID, err)
		}
		if !exists {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("settlement %s version %d: %w", settlement.SettlementID, expectedVersion, apperrors.ErrConflict)
	}

	// The charge ledger is rewritten wholesale; it is small and owned by the
	// settlement, so replacement keeps ordering authoritative.
	if _, err := tx.Exec(ctx, `DELETE FROM settlement_charges WHERE settlement_id = $1;`, settlement.SettlementID); err != nil {
		return fmt.Errorf("failed to clear charges for settlement %s: %w", settlement.SettlementID, err)
	}
	if err := insertCharges(ctx, tx, settlement); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit settlement update %s: %w", settlement.SettlementID, err)
	}
	return nil
}

func settlementArgs(s domain.Settlement) []any {
	return []any{
		s.SettlementID, s.ContractID, s.ContractKind, s.ExternalContractNumber,
		s.DocumentNumber, s.DocumentType, s.DocumentDate,
		s.ActualQuantityMT, s.ActualQuantityBBL, s.CalculationQuantityMT, s.CalculationQuantityBBL,
		s.TonBarrelRatio, s.CalculationMode,
		s.BenchmarkAmount, s.AdjustmentAmount, s.CargoValue, s.TotalCharges, s.TotalSettlementAmount,
		s.SettlementCurrency, s.CalculationNote, s.Status, s.CancelReason, s.Version,
		s.CreatedAt, s.CreatedBy, s.LastUpdatedAt, s.LastUpdatedBy, s.FinalizedBy, s.FinalizedAt,
	}
}

func insertCharges(ctx context.Context, tx pgx.Tx, settlement domain.Settlement) error {
	if len(settlement.Charges) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	chargeQuery := `
		INSERT INTO settlement_charges (charge_id, settlement_id, position, charge_type, description,
		                                amount, currency, incurred_date, reference_document, notes,
		                                created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	for i, c := range settlement.Charges {
		batch.Queue(chargeQuery,
			c.ChargeID, settlement.SettlementID, i, c.ChargeType, c.Description,
			c.Amount, c.Currency, c.IncurredDate, c.ReferenceDocument, c.Notes,
			c.CreatedAt, c.CreatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute charge batch for settlement %s: %w", settlement.SettlementID, err)
	}
	return nil
}
