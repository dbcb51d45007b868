package quantity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/petroledger/settlement_app/internal/apperrors"
	"github.com/petroledger/settlement_app/internal/core/domain"
)

func TestDeriveTonBarrelRatio(t *testing.T) {
	tests := []struct {
		name    string
		density decimal.Decimal
		want    decimal.Decimal
		wantErr bool
	}{
		{
			name:    "typical medium crude density",
			density: decimal.NewFromInt(858),
			// (1000 / 858) * 6.2898 = 7.3308..., rounded to 2 places
			want: decimal.NewFromFloat(7.33),
		},
		{
			name:    "light condensate density",
			density: decimal.NewFromInt(780),
			// (1000 / 780) * 6.2898 = 8.0638..., rounded to 2 places
			want: decimal.NewFromFloat(8.06),
		},
		{
			name:    "heavy fuel oil density",
			density: decimal.NewFromInt(991),
			// (1000 / 991) * 6.2898 = 6.3469..., rounded to 2 places
			want: decimal.NewFromFloat(6.35),
		},
		{
			name:    "zero density rejected",
			density: decimal.Zero,
			wantErr: true,
		},
		{
			name:    "negative density rejected",
			density: decimal.NewFromInt(-858),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveTonBarrelRatio(tt.density)
			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}
			assert.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "expected %s, got %s", tt.want, got)
		})
	}
}

func TestConvert_UseActual(t *testing.T) {
	actualMT := decimal.NewFromFloat(999.5)
	actualBBL := decimal.NewFromFloat(7321.8)

	result, err := Convert(actualMT, actualBBL, decimal.NewFromFloat(7.33), domain.UseActualQuantities, nil, "")
	assert.NoError(t, err)
	assert.True(t, actualMT.Equal(result.CalculationQuantityMT))
	assert.True(t, actualBBL.Equal(result.CalculationQuantityBBL))
	assert.NotEmpty(t, result.Note)
}

func TestConvert_EmptyModeBehavesLikeUseActual(t *testing.T) {
	actualMT := decimal.NewFromInt(1000)
	actualBBL := decimal.NewFromInt(7325)

	result, err := Convert(actualMT, actualBBL, decimal.NewFromFloat(7.33), "", nil, "")
	assert.NoError(t, err)
	assert.True(t, actualMT.Equal(result.CalculationQuantityMT))
	assert.True(t, actualBBL.Equal(result.CalculationQuantityBBL))
}

func TestConvert_UseMTForAll(t *testing.T) {
	result, err := Convert(
		decimal.NewFromInt(1000), decimal.NewFromInt(7325),
		decimal.NewFromFloat(7.33), domain.UseMTForAll, nil, "")
	assert.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(result.CalculationQuantityMT))
	// 1000 * 7.33 = 7330; the entered actual BBL is ignored
	assert.True(t, decimal.NewFromInt(7330).Equal(result.CalculationQuantityBBL),
		"expected 7330, got %s", result.CalculationQuantityBBL)
}

func TestConvert_UseBBLForAll(t *testing.T) {
	result, err := Convert(
		decimal.NewFromInt(1000), decimal.NewFromInt(7330),
		decimal.NewFromFloat(7.33), domain.UseBBLForAll, nil, "")
	assert.NoError(t, err)
	assert.True(t, decimal.NewFromInt(7330).Equal(result.CalculationQuantityBBL))
	// 7330 / 7.33 = 1000; the entered actual MT is ignored
	assert.True(t, decimal.NewFromInt(1000).Equal(result.CalculationQuantityMT),
		"expected 1000, got %s", result.CalculationQuantityMT)
}

func TestConvert_MTAndBBLRoundTrip(t *testing.T) {
	// Converting MT to BBL and back again lands on the original value (within
	// the 3 decimal place rounding applied at each derivation).
	ratio := decimal.NewFromFloat(7.33)
	actualMT := decimal.NewFromInt(1000)

	forward, err := Convert(actualMT, decimal.Zero, ratio, domain.UseMTForAll, nil, "")
	assert.NoError(t, err)

	back, err := Convert(decimal.Zero, forward.CalculationQuantityBBL, ratio, domain.UseBBLForAll, nil, "")
	assert.NoError(t, err)
	assert.True(t, actualMT.Equal(back.CalculationQuantityMT),
		"round trip should return the original MT quantity, got %s", back.CalculationQuantityMT)
}

func TestConvert_UseContractSpecified(t *testing.T) {
	ratio := decimal.NewFromFloat(7.33)

	t.Run("contract quantity in MT", func(t *testing.T) {
		contractQty := decimal.NewFromInt(950)
		result, err := Convert(
			decimal.NewFromInt(1000), decimal.NewFromInt(7325),
			ratio, domain.UseContractSpecified, &contractQty, domain.UnitMT)
		assert.NoError(t, err)
		assert.True(t, contractQty.Equal(result.CalculationQuantityMT))
		// 950 * 7.33 = 6963.5
		assert.True(t, decimal.NewFromFloat(6963.5).Equal(result.CalculationQuantityBBL),
			"expected 6963.5, got %s", result.CalculationQuantityBBL)
	})

	t.Run("contract quantity in BBL", func(t *testing.T) {
		contractQty := decimal.NewFromInt(7330)
		result, err := Convert(
			decimal.NewFromInt(1000), decimal.NewFromInt(7325),
			ratio, domain.UseContractSpecified, &contractQty, domain.UnitBBL)
		assert.NoError(t, err)
		assert.True(t, contractQty.Equal(result.CalculationQuantityBBL))
		assert.True(t, decimal.NewFromInt(1000).Equal(result.CalculationQuantityMT))
	})

	t.Run("missing contract quantity falls back to actuals with a note", func(t *testing.T) {
		actualMT := decimal.NewFromInt(1000)
		actualBBL := decimal.NewFromInt(7325)
		result, err := Convert(actualMT, actualBBL, ratio, domain.UseContractSpecified, nil, "")
		assert.NoError(t, err)
		assert.True(t, actualMT.Equal(result.CalculationQuantityMT))
		assert.True(t, actualBBL.Equal(result.CalculationQuantityBBL))
		assert.Contains(t, result.Note, "fell back to actual quantities")
	})
}

func TestConvert_InvalidInputs(t *testing.T) {
	_, err := Convert(decimal.NewFromInt(1000), decimal.Zero, decimal.Zero, domain.UseMTForAll, nil, "")
	assert.Error(t, err, "non-positive ratio must be rejected")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = Convert(decimal.NewFromInt(1000), decimal.Zero, decimal.NewFromFloat(7.33), domain.CalculationMode("USE_MAGIC"), nil, "")
	assert.Error(t, err, "unknown mode must be rejected")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestConvert_Deterministic(t *testing.T) {
	ratio := decimal.NewFromFloat(7.33)
	first, err := Convert(decimal.NewFromFloat(987.654), decimal.Zero, ratio, domain.UseMTForAll, nil, "")
	assert.NoError(t, err)
	second, err := Convert(decimal.NewFromFloat(987.654), decimal.Zero, ratio, domain.UseMTForAll, nil, "")
	assert.NoError(t, err)
	assert.True(t, first.CalculationQuantityBBL.Equal(second.CalculationQuantityBBL))
	assert.Equal(t, first.Note, second.Note)
}
