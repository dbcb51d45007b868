package quantity

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/petroledger/settlement_app/internal/apperrors"
	"github.com/petroledger/settlement_app/internal/core/domain"
)

// BarrelsPerCubicMeter is the volume conversion constant used to derive the
// ton-barrel ratio from a product density.
var BarrelsPerCubicMeter = decimal.NewFromFloat(6.2898)

// quantityPlaces is the rounding applied to derived calculation quantities.
const quantityPlaces = 3

// ConversionResult carries the derived calculation quantities together with a
// human-readable note explaining how they were obtained.
type ConversionResult struct {
	CalculationQuantityMT  decimal.Decimal
	CalculationQuantityBBL decimal.Decimal
	Note                   string
}

// DeriveTonBarrelRatio computes the MT->BBL conversion factor for a product
// density in kg/m3: (1000 / density) * 6.2898, rounded to 2 decimal places.
// The result seeds the settlement's ratio field; callers may override it.
func DeriveTonBarrelRatio(density decimal.Decimal) (decimal.Decimal, error) {
	if !density.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: product density must be positive, got %s", apperrors.ErrValidation, density)
	}
	ratio := decimal.NewFromInt(1000).Div(density).Mul(BarrelsPerCubicMeter)
	return ratio.Round(2), nil
}

// Convert derives calculation quantities from actual quantities under the
// selected calculation mode. It is pure and deterministic; repeated calls
// with identical inputs yield identical results.
//
// contractQty and contractUnit are only consulted for UseContractSpecified;
// pass nil/"" otherwise.
func Convert(
	actualMT, actualBBL, ratio decimal.Decimal,
	mode domain.CalculationMode,
	contractQty *decimal.Decimal,
	contractUnit domain.QuantityUnit,
) (ConversionResult, error) {
	if !ratio.IsPositive() {
		return ConversionResult{}, fmt.Errorf("%w: ton-barrel ratio must be positive, got %s", apperrors.ErrValidation, ratio)
	}

	switch mode {
	case domain.UseActualQuantities, "":
		return ConversionResult{
			CalculationQuantityMT:  actualMT,
			CalculationQuantityBBL: actualBBL,
			Note:                   "calculation quantities taken from actual quantities as entered (mixed units, no re-derivation)",
		}, nil

	case domain.UseMTForAll:
		return ConversionResult{
			CalculationQuantityMT:  actualMT,
			CalculationQuantityBBL: actualMT.Mul(ratio).Round(quantityPlaces),
			Note:                   fmt.Sprintf("BBL quantity derived from actual MT using ratio %s; actual BBL ignored", ratio),
		}, nil

	case domain.UseBBLForAll:
		return ConversionResult{
			CalculationQuantityMT:  actualBBL.Div(ratio).Round(quantityPlaces),
			CalculationQuantityBBL: actualBBL,
			Note:                   fmt.Sprintf("MT quantity derived from actual BBL using ratio %s; actual MT ignored", ratio),
		}, nil

	case domain.UseContractSpecified:
		if contractQty == nil {
			// Fall back to actuals when no contract quantity was supplied.
			return ConversionResult{
				CalculationQuantityMT:  actualMT,
				CalculationQuantityBBL: actualBBL,
				Note:                   "contract quantity unavailable; fell back to actual quantities as entered",
			}, nil
		}
		switch contractUnit {
		case domain.UnitBBL:
			return ConversionResult{
				CalculationQuantityMT:  contractQty.Div(ratio).Round(quantityPlaces),
				CalculationQuantityBBL: *contractQty,
				Note:                   fmt.Sprintf("quantities derived from contract quantity %s BBL using ratio %s", contractQty, ratio),
			}, nil
		default:
			return ConversionResult{
				CalculationQuantityMT:  *contractQty,
				CalculationQuantityBBL: contractQty.Mul(ratio).Round(quantityPlaces),
				Note:                   fmt.Sprintf("quantities derived from contract quantity %s MT using ratio %s", contractQty, ratio),
			}, nil
		}

	default:
		return ConversionResult{}, fmt.Errorf("%w: unknown calculation mode %q", apperrors.ErrValidation, mode)
	}
}
