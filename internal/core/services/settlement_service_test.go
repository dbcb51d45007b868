package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/petroledger/settlement_app/internal/apperrors"
	"github.com/petroledger/settlement_app/internal/core/domain"
	portsrepo "github.com/petroledger/settlement_app/internal/core/ports/repositories"
	portssvc "github.com/petroledger/settlement_app/internal/core/ports/services"
	"github.com/petroledger/settlement_app/internal/core/services"
	"github.com/petroledger/settlement_app/internal/dto"
)

// --- Mock SettlementRepository ---
type MockSettlementRepository struct {
	mock.Mock
}

var _ portsrepo.SettlementRepositoryFacade = (*MockSettlementRepository)(nil)

func (m *MockSettlementRepository) FindSettlementByID(ctx context.Context, settlementID string) (*domain.Settlement, error) {
	args := m.Called(ctx, settlementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) ListSettlements(ctx context.Context, kind domain.ContractKind, limit int, nextToken *string) ([]domain.Settlement, *string, error) {
	args := m.Called(ctx, kind, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.Settlement), returnedNextToken, args.Error(2)
}

func (m *MockSettlementRepository) SaveSettlement(ctx context.Context, settlement domain.Settlement) error {
	args := m.Called(ctx, settlement)
	return args.Error(0)
}

func (m *MockSettlementRepository) UpdateSettlement(ctx context.Context, settlement domain.Settlement, expectedVersion int64) error {
	args := m.Called(ctx, settlement, expectedVersion)
	return args.Error(0)
}

// --- Mock ContractRepository ---
type MockContractRepository struct {
	mock.Mock
}

var _ portsrepo.ContractRepository = (*MockContractRepository)(nil)

func (m *MockContractRepository) FindContractByID(ctx context.Context, contractID string) (*domain.Contract, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contract), args.Error(1)
}

// --- Mock EventPublisher ---
type MockEventPublisher struct {
	mock.Mock
}

var _ portssvc.SettlementEventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) PublishSettlementFinalized(ctx context.Context, event domain.SettlementFinalizedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// --- Test Suite Setup ---
type SettlementServiceTestSuite struct {
	suite.Suite
	mockRepo      *MockSettlementRepository
	mockContracts *MockContractRepository
	mockPublisher *MockEventPublisher
	service       portssvc.SettlementSvcFacade
	contract      domain.Contract
	actor         string
}

func (suite *SettlementServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockSettlementRepository)
	suite.mockContracts = new(MockContractRepository)
	suite.mockPublisher = new(MockEventPublisher)
	suite.service = services.NewPurchaseSettlementService(
		suite.mockRepo, suite.mockContracts, suite.mockPublisher, decimal.NewFromFloat(7.33))

	suite.actor = uuid.NewString()
	suite.contract = domain.Contract{
		ContractID:     uuid.NewString(),
		ContractNumber: "CN-2026-001",
		Kind:           domain.Purchase,
		Counterparty:   "Seaborne Crude Ltd",
		Product:        "Murban",
		Quantity:       decimal.NewFromInt(1000),
		QuantityUnit:   domain.UnitMT,
		Currency:       "USD",
	}
}

// newSettlement builds a stored settlement the mocks can serve back.
func (suite *SettlementServiceTestSuite) newSettlement(status domain.SettlementStatus) *domain.Settlement {
	now := time.Now().UTC()
	return &domain.Settlement{
		SettlementID:       uuid.NewString(),
		ContractID:         suite.contract.ContractID,
		ContractKind:       domain.Purchase,
		DocumentNumber:     "BL-1001",
		DocumentType:       domain.BillOfLading,
		DocumentDate:       now.AddDate(0, 0, -3),
		ActualQuantityMT:   decimal.NewFromInt(1000),
		ActualQuantityBBL:  decimal.NewFromInt(7325),
		TonBarrelRatio:     decimal.NewFromFloat(7.33),
		CalculationMode:    domain.UseMTForAll,
		SettlementCurrency: "USD",
		Status:             status,
		Charges:            domain.ChargeLedger{},
		Version:            1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     suite.actor,
			LastUpdatedAt: now,
			LastUpdatedBy: suite.actor,
		},
	}
}

// --- CreateSettlement ---

func (suite *SettlementServiceTestSuite) TestCreateSettlement_Success() {
	ctx := context.Background()
	req := dto.CreateSettlementRequest{
		ContractID:     suite.contract.ContractID,
		DocumentNumber: "BL-1001",
		DocumentType:   string(domain.BillOfLading),
		DocumentDate:   time.Now().UTC(),
		CreatedBy:      suite.actor,
	}

	suite.mockContracts.On("FindContractByID", ctx, suite.contract.ContractID).Return(&suite.contract, nil).Once()
	suite.mockRepo.On("SaveSettlement", ctx, mock.AnythingOfType("domain.Settlement")).Return(nil).Once()

	created, err := suite.service.CreateSettlement(ctx, req)

	suite.Require().NoError(err)
	suite.Require().NotNil(created)
	suite.NotEmpty(created.SettlementID)
	suite.Equal(domain.Draft, created.Status)
	suite.Equal(domain.Purchase, created.ContractKind)
	suite.Equal(int64(1), created.Version)
	suite.Equal("USD", created.SettlementCurrency)
	suite.True(created.TonBarrelRatio.Equal(decimal.NewFromFloat(7.33)))
	suite.Equal(domain.UseActualQuantities, created.CalculationMode)

	suite.mockContracts.AssertExpectations(suite.T())
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestCreateSettlement_DerivesRatioFromDensity() {
	ctx := context.Background()
	req := dto.CreateSettlementRequest{
		ContractID:     suite.contract.ContractID,
		DocumentNumber: "BL-1002",
		DocumentType:   string(domain.Invoice),
		DocumentDate:   time.Now().UTC(),
		ProductDensity: decimal.NewFromInt(858), // kg/m3
		CreatedBy:      suite.actor,
	}

	suite.mockContracts.On("FindContractByID", ctx, suite.contract.ContractID).Return(&suite.contract, nil).Once()
	suite.mockRepo.On("SaveSettlement", ctx, mock.AnythingOfType("domain.Settlement")).Return(nil).Once()

	created, err := suite.service.CreateSettlement(ctx, req)

	suite.Require().NoError(err)
	// (1000 / 858) * 6.2898 = 7.3308..., rounded to 7.33
	suite.True(created.TonBarrelRatio.Equal(decimal.NewFromFloat(7.33)),
		"expected 7.33, got %s", created.TonBarrelRatio)
}

func (suite *SettlementServiceTestSuite) TestCreateSettlement_ContractNotFound() {
	ctx := context.Background()
	req := dto.CreateSettlementRequest{
		ContractID:     uuid.NewString(),
		DocumentNumber: "BL-1003",
		DocumentType:   string(domain.BillOfLading),
		DocumentDate:   time.Now().UTC(),
		CreatedBy:      suite.actor,
	}

	suite.mockContracts.On("FindContractByID", ctx, req.ContractID).Return(nil, apperrors.ErrNotFound).Once()

	created, err := suite.service.CreateSettlement(ctx, req)

	suite.Require().Error(err)
	suite.Nil(created)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveSettlement", mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestCreateSettlement_WrongContractKind() {
	ctx := context.Background()
	salesContract := suite.contract
	salesContract.Kind = domain.Sales
	req := dto.CreateSettlementRequest{
		ContractID:     salesContract.ContractID,
		DocumentNumber: "BL-1004",
		DocumentType:   string(domain.BillOfLading),
		DocumentDate:   time.Now().UTC(),
		CreatedBy:      suite.actor,
	}

	suite.mockContracts.On("FindContractByID", ctx, salesContract.ContractID).Return(&salesContract, nil).Once()

	created, err := suite.service.CreateSettlement(ctx, req)

	suite.Require().Error(err)
	suite.Nil(created)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.ErrorIs(err, services.ErrContractKind)
}

func (suite *SettlementServiceTestSuite) TestCreateSettlement_BlankDocumentNumber() {
	ctx := context.Background()
	req := dto.CreateSettlementRequest{
		ContractID:     suite.contract.ContractID,
		DocumentNumber: "   ",
		DocumentType:   string(domain.BillOfLading),
		DocumentDate:   time.Now().UTC(),
		CreatedBy:      suite.actor,
	}

	created, err := suite.service.CreateSettlement(ctx, req)

	suite.Require().Error(err)
	suite.Nil(created)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockContracts.AssertNotCalled(suite.T(), "FindContractByID", mock.Anything, mock.Anything)
}

// --- GetSettlementByID / kind isolation ---

func (suite *SettlementServiceTestSuite) TestGetSettlement_OtherKindReportedNotFound() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Draft)
	stl.ContractKind = domain.Sales

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()

	found, err := suite.service.GetSettlementByID(ctx, stl.SettlementID)

	suite.Require().Error(err)
	suite.Nil(found)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- UpdateQuantities ---

func (suite *SettlementServiceTestSuite) TestUpdateQuantities_AdvancesDraftToDataEntered() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Draft)
	stl.ActualQuantityMT = decimal.Zero
	stl.ActualQuantityBBL = decimal.Zero

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()
	suite.mockRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("domain.Settlement"), int64(1)).Return(nil).Once()

	updated, err := suite.service.UpdateQuantities(ctx, stl.SettlementID, dto.UpdateQuantitiesRequest{
		ActualQuantityMT:  decimal.NewFromInt(1000),
		ActualQuantityBBL: decimal.NewFromInt(7325),
		Actor:             suite.actor,
	})

	suite.Require().NoError(err)
	suite.Equal(domain.DataEntered, updated.Status)
	suite.Equal(int64(2), updated.Version)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestUpdateQuantities_BothQuantitiesZeroRejected() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Draft)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()

	updated, err := suite.service.UpdateQuantities(ctx, stl.SettlementID, dto.UpdateQuantitiesRequest{
		ActualQuantityMT:  decimal.Zero,
		ActualQuantityBBL: decimal.Zero,
		Actor:             suite.actor,
	})

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateSettlement", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestUpdateQuantities_FinalizedRejected() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Finalized)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()

	_, err := suite.service.UpdateQuantities(ctx, stl.SettlementID, dto.UpdateQuantitiesRequest{
		ActualQuantityMT: decimal.NewFromInt(1000),
		Actor:            suite.actor,
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrState)
}

// --- CalculateSettlement ---

func (suite *SettlementServiceTestSuite) TestCalculateSettlement_MTForAllScenario() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.DataEntered)
	benchmark := decimal.NewFromInt(500000)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()
	suite.mockRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("domain.Settlement"), int64(1)).Return(nil).Once()

	calculated, err := suite.service.CalculateSettlement(ctx, stl.SettlementID, dto.CalculateSettlementRequest{
		BenchmarkAmount:  &benchmark,
		AdjustmentAmount: decimal.NewFromInt(-2000),
		Actor:            suite.actor,
	})

	suite.Require().NoError(err)
	suite.Equal(domain.Calculated, calculated.Status)
	suite.True(calculated.CalculationQuantityMT.Equal(decimal.NewFromInt(1000)))
	// 1000 MT * 7.33 = 7330 BBL; the entered actual BBL is ignored under USE_MT_FOR_ALL
	suite.True(calculated.CalculationQuantityBBL.Equal(decimal.NewFromInt(7330)),
		"expected 7330, got %s", calculated.CalculationQuantityBBL)
	suite.True(calculated.CargoValue.Equal(decimal.NewFromInt(498000)))
	suite.True(calculated.TotalSettlementAmount.Equal(decimal.NewFromInt(498000)))
	suite.NotEmpty(calculated.CalculationNote)
}

func (suite *SettlementServiceTestSuite) TestCalculateSettlement_PerUnitPriceScaledServerSide() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.DataEntered)
	price := decimal.NewFromFloat(68.25)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()
	suite.mockRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("domain.Settlement"), int64(1)).Return(nil).Once()

	calculated, err := suite.service.CalculateSettlement(ctx, stl.SettlementID, dto.CalculateSettlementRequest{
		BenchmarkPrice: &price,
		Actor:          suite.actor,
	})

	suite.Require().NoError(err)
	// 68.25 per MT * 1000 MT = 68250
	suite.True(calculated.BenchmarkAmount.Equal(decimal.NewFromInt(68250)),
		"expected 68250, got %s", calculated.BenchmarkAmount)
}

func (suite *SettlementServiceTestSuite) TestCalculateSettlement_MissingBenchmarkRejected() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.DataEntered)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()

	_, err := suite.service.CalculateSettlement(ctx, stl.SettlementID, dto.CalculateSettlementRequest{
		Actor: suite.actor,
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *SettlementServiceTestSuite) TestCalculateSettlement_NegativeBenchmarkRejected() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.DataEntered)
	benchmark := decimal.NewFromInt(-100)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()

	_, err := suite.service.CalculateSettlement(ctx, stl.SettlementID, dto.CalculateSettlementRequest{
		BenchmarkAmount: &benchmark,
		Actor:           suite.actor,
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *SettlementServiceTestSuite) TestCalculateSettlement_RecalculationAllowedWhileCalculated() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Calculated)
	stl.BenchmarkAmount = decimal.NewFromInt(500000)
	benchmark := decimal.NewFromInt(510000)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()
	suite.mockRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("domain.Settlement"), int64(1)).Return(nil).Once()

	calculated, err := suite.service.CalculateSettlement(ctx, stl.SettlementID, dto.CalculateSettlementRequest{
		BenchmarkAmount: &benchmark,
		Actor:           suite.actor,
	})

	suite.Require().NoError(err)
	suite.Equal(domain.Calculated, calculated.Status)
	suite.True(calculated.BenchmarkAmount.Equal(benchmark))
}

func (suite *SettlementServiceTestSuite) TestCalculateSettlement_FromDraftRejected() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Draft)
	benchmark := decimal.NewFromInt(500000)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()

	_, err := suite.service.CalculateSettlement(ctx, stl.SettlementID, dto.CalculateSettlementRequest{
		BenchmarkAmount: &benchmark,
		Actor:           suite.actor,
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrState)
}

// --- Charges ---

func (suite *SettlementServiceTestSuite) TestAddCharge_NegativeChargeNetsAgainstTotal() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Calculated)
	stl.BenchmarkAmount = decimal.NewFromInt(500000)
	stl.AdjustmentAmount = decimal.NewFromInt(-2000)
	stl.CargoValue = decimal.NewFromInt(498000)
	stl.TotalSettlementAmount = decimal.NewFromInt(498000)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()
	suite.mockRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("domain.Settlement"), int64(1)).Return(nil).Once()

	updated, err := suite.service.AddCharge(ctx, stl.SettlementID, dto.CreateChargeRequest{
		ChargeType:  string(domain.Demurrage),
		Description: "Demurrage rebate agreed with counterparty",
		Amount:      decimal.NewFromInt(-1500),
		Actor:       suite.actor,
	})

	suite.Require().NoError(err)
	suite.Len(updated.Charges, 1)
	suite.True(updated.TotalCharges.Equal(decimal.NewFromInt(-1500)))
	suite.True(updated.TotalSettlementAmount.Equal(decimal.NewFromInt(496500)),
		"expected 496500, got %s", updated.TotalSettlementAmount)
	suite.Equal("USD", updated.Charges[0].Currency)
}

func (suite *SettlementServiceTestSuite) TestAddCharge_ZeroAmountRejected() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Calculated)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()

	_, err := suite.service.AddCharge(ctx, stl.SettlementID, dto.CreateChargeRequest{
		ChargeType:  string(domain.PortFees),
		Description: "Port dues",
		Amount:      decimal.Zero,
		Actor:       suite.actor,
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *SettlementServiceTestSuite) TestAddCharge_FinalizedRejected() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Finalized)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()

	_, err := suite.service.AddCharge(ctx, stl.SettlementID, dto.CreateChargeRequest{
		ChargeType:  string(domain.Freight),
		Description: "Late freight invoice",
		Amount:      decimal.NewFromInt(2500),
		Actor:       suite.actor,
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrState)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateSettlement", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestUpdateCharge_UnknownChargeNotFound() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Calculated)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()

	desc := "corrected description"
	_, err := suite.service.UpdateCharge(ctx, stl.SettlementID, uuid.NewString(), dto.UpdateChargeRequest{
		Description: &desc,
		Actor:       suite.actor,
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *SettlementServiceTestSuite) TestRemoveCharge_RecomputesTotals() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Calculated)
	stl.CargoValue = decimal.NewFromInt(498000)
	charge := domain.Charge{
		ChargeID:     uuid.NewString(),
		SettlementID: stl.SettlementID,
		ChargeType:   domain.Inspection,
		Description:  "Independent inspector fee",
		Amount:       decimal.NewFromInt(3000),
		Currency:     "USD",
		CreatedAt:    time.Now().UTC(),
		CreatedBy:    suite.actor,
	}
	stl.Charges = domain.ChargeLedger{charge}
	stl.RecalculateTotals()

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()
	suite.mockRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("domain.Settlement"), int64(1)).Return(nil).Once()

	updated, err := suite.service.RemoveCharge(ctx, stl.SettlementID, charge.ChargeID, suite.actor)

	suite.Require().NoError(err)
	suite.Empty(updated.Charges)
	suite.True(updated.TotalCharges.IsZero())
	suite.True(updated.TotalSettlementAmount.Equal(decimal.NewFromInt(498000)))
}

// --- Lifecycle transitions ---

func (suite *SettlementServiceTestSuite) TestFinalize_PublishesEventOnceAfterPersist() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Approved)
	stl.BenchmarkAmount = decimal.NewFromInt(500000)
	stl.TotalSettlementAmount = decimal.NewFromInt(496500)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()
	suite.mockRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("domain.Settlement"), int64(1)).Return(nil).Once()
	suite.mockPublisher.On("PublishSettlementFinalized", ctx, mock.MatchedBy(func(e domain.SettlementFinalizedEvent) bool {
		return e.SettlementID == stl.SettlementID && e.TotalAmount.Equal(decimal.NewFromInt(496500))
	})).Return(nil).Once()

	finalized, err := suite.service.FinalizeSettlement(ctx, stl.SettlementID, suite.actor)

	suite.Require().NoError(err)
	suite.Equal(domain.Finalized, finalized.Status)
	suite.Require().NotNil(finalized.FinalizedBy)
	suite.Equal(suite.actor, *finalized.FinalizedBy)
	suite.NotNil(finalized.FinalizedAt)
	suite.mockPublisher.AssertExpectations(suite.T())
	suite.mockPublisher.AssertNumberOfCalls(suite.T(), "PublishSettlementFinalized", 1)
}

func (suite *SettlementServiceTestSuite) TestFinalize_NoEventWhenPersistFails() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Approved)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()
	suite.mockRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("domain.Settlement"), int64(1)).Return(apperrors.ErrConflict).Once()

	_, err := suite.service.FinalizeSettlement(ctx, stl.SettlementID, suite.actor)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockPublisher.AssertNotCalled(suite.T(), "PublishSettlementFinalized", mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestApprove_FromCalculatedRejected() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Calculated)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()

	_, err := suite.service.ApproveSettlement(ctx, stl.SettlementID, suite.actor)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrState)
	var transitionErr *apperrors.InvalidTransitionError
	suite.ErrorAs(err, &transitionErr)
}

func (suite *SettlementServiceTestSuite) TestApprove_BlankApproverRejected() {
	ctx := context.Background()

	_, err := suite.service.ApproveSettlement(ctx, uuid.NewString(), "  ")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindSettlementByID", mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestCancel_RequiresReason() {
	ctx := context.Background()

	_, err := suite.service.CancelSettlement(ctx, uuid.NewString(), dto.CancelSettlementRequest{
		Reason: "  ",
		Actor:  suite.actor,
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *SettlementServiceTestSuite) TestCancel_FinalizedRejected() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Finalized)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()

	_, err := suite.service.CancelSettlement(ctx, stl.SettlementID, dto.CancelSettlementRequest{
		Reason: "duplicate entry",
		Actor:  suite.actor,
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrState)
}

func (suite *SettlementServiceTestSuite) TestCancel_RecordsReason() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.DataEntered)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()
	suite.mockRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("domain.Settlement"), int64(1)).Return(nil).Once()

	cancelled, err := suite.service.CancelSettlement(ctx, stl.SettlementID, dto.CancelSettlementRequest{
		Reason: "duplicate entry",
		Actor:  suite.actor,
	})

	suite.Require().NoError(err)
	suite.Equal(domain.Cancelled, cancelled.Status)
	suite.Equal("duplicate entry", cancelled.CancelReason)
}

// --- AdvanceToStatus ---

func (suite *SettlementServiceTestSuite) TestAdvanceToStatus_ChainsToFinalized() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Calculated)
	stl.BenchmarkAmount = decimal.NewFromInt(500000)
	stl.TotalSettlementAmount = decimal.NewFromInt(500000)

	// The mock serves the same pointer throughout, so each persisted
	// transition is visible to the next load in the chain.
	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil)
	suite.mockRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("domain.Settlement"), mock.AnythingOfType("int64")).Return(nil)
	suite.mockPublisher.On("PublishSettlementFinalized", ctx, mock.AnythingOfType("domain.SettlementFinalizedEvent")).Return(nil).Once()

	finalized, err := suite.service.AdvanceToStatus(ctx, stl.SettlementID, domain.Finalized, suite.actor)

	suite.Require().NoError(err)
	suite.Equal(domain.Finalized, finalized.Status)
	suite.Equal(int64(4), finalized.Version, "three persisted transitions from version 1")
	suite.mockRepo.AssertNumberOfCalls(suite.T(), "UpdateSettlement", 3)
	suite.mockPublisher.AssertNumberOfCalls(suite.T(), "PublishSettlementFinalized", 1)
}

func (suite *SettlementServiceTestSuite) TestAdvanceToStatus_StopsAtFirstFailingGuard() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.Draft)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil)

	reached, err := suite.service.AdvanceToStatus(ctx, stl.SettlementID, domain.Finalized, suite.actor)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrState)
	suite.Require().NotNil(reached)
	suite.Equal(domain.Draft, reached.Status)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateSettlement", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestAdvanceToStatus_InvalidTargetRejected() {
	ctx := context.Background()

	_, err := suite.service.AdvanceToStatus(ctx, uuid.NewString(), domain.Cancelled, suite.actor)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

// --- Optimistic concurrency ---

func (suite *SettlementServiceTestSuite) TestConflict_SurfacedAndVersionRolledBack() {
	ctx := context.Background()
	stl := suite.newSettlement(domain.DataEntered)

	suite.mockRepo.On("FindSettlementByID", ctx, stl.SettlementID).Return(stl, nil).Once()
	suite.mockRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("domain.Settlement"), int64(1)).Return(apperrors.ErrConflict).Once()

	_, err := suite.service.UpdateQuantities(ctx, stl.SettlementID, dto.UpdateQuantitiesRequest{
		ActualQuantityMT: decimal.NewFromInt(1000),
		Actor:            suite.actor,
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.Equal(int64(1), stl.Version, "in-memory version must roll back on write failure")
}

func TestSettlementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementServiceTestSuite))
}
