package accounting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/petroledger/settlement_app/internal/apperrors"
)

// CargoValue is the priced value of the cargo before charges. Benchmark and
// adjustment are pre-scaled monetary totals in the settlement currency; any
// per-unit price scaling happens upstream, before this function is called.
func CargoValue(benchmarkAmount, adjustmentAmount decimal.Decimal) decimal.Decimal {
	return benchmarkAmount.Add(adjustmentAmount)
}

// SettlementTotals combines the calculation quantities, pricing totals and
// the charge ledger total into the cargo value and the total settlement
// amount. It is pure: the caller persists the returned values.
//
// Calculation requires a positive calculation quantity in at least one unit.
// A zero benchmark amount is not rejected here; the orchestration layer
// enforces benchmarkAmount > 0 before a calculation may complete.
func SettlementTotals(
	calcQtyMT, calcQtyBBL decimal.Decimal,
	benchmarkAmount, adjustmentAmount, chargesTotal decimal.Decimal,
) (cargoValue, totalSettlementAmount decimal.Decimal, err error) {
	if !calcQtyMT.IsPositive() && !calcQtyBBL.IsPositive() {
		return decimal.Zero, decimal.Zero,
			fmt.Errorf("%w: calculation requires a positive calculation quantity in MT or BBL", apperrors.ErrValidation)
	}

	cargoValue = CargoValue(benchmarkAmount, adjustmentAmount)
	totalSettlementAmount = cargoValue.Add(chargesTotal)
	return cargoValue, totalSettlementAmount, nil
}
