package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/petroledger/settlement_app/internal/apperrors"
	"github.com/petroledger/settlement_app/internal/core/domain"
	portssvc "github.com/petroledger/settlement_app/internal/core/ports/services"
	"github.com/petroledger/settlement_app/internal/core/services"
	"github.com/petroledger/settlement_app/internal/dto"
)

// --- Mock SettlementLifecycleSvc ---
type MockLifecycleSvc struct {
	mock.Mock
}

var _ portssvc.SettlementLifecycleSvc = (*MockLifecycleSvc)(nil)

func (m *MockLifecycleSvc) ApproveSettlement(ctx context.Context, settlementID string, approvedBy string) (*domain.Settlement, error) {
	args := m.Called(ctx, settlementID, approvedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}

func (m *MockLifecycleSvc) FinalizeSettlement(ctx context.Context, settlementID string, finalizedBy string) (*domain.Settlement, error) {
	args := m.Called(ctx, settlementID, finalizedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}

type BulkServiceTestSuite struct {
	suite.Suite
	mockLifecycle *MockLifecycleSvc
	service       portssvc.BulkSvcFacade
	actor         string
}

func (suite *BulkServiceTestSuite) SetupTest() {
	suite.mockLifecycle = new(MockLifecycleSvc)
	suite.service = services.NewBulkService(suite.mockLifecycle, 2)
	suite.actor = uuid.NewString()
}

func detailFor(result dto.BulkResult, settlementID string) *dto.BulkOperationDetail {
	for i := range result.Details {
		if result.Details[i].SettlementID == settlementID {
			return &result.Details[i]
		}
	}
	return nil
}

func (suite *BulkServiceTestSuite) TestApply_AllSucceed() {
	ctx := context.Background()
	ids := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	for _, id := range ids {
		suite.mockLifecycle.On("ApproveSettlement", mock.Anything, id, suite.actor).
			Return(&domain.Settlement{SettlementID: id, Status: domain.Approved}, nil).Once()
	}

	result := suite.service.Apply(ctx, dto.BulkApprove, ids, suite.actor)

	suite.Equal(3, result.SuccessCount)
	suite.Equal(0, result.FailureCount)
	suite.Len(result.Details, 3)
	// Details keep the request ordering regardless of worker scheduling.
	for i, id := range ids {
		suite.Equal(id, result.Details[i].SettlementID)
		suite.Equal(dto.BulkItemSuccess, result.Details[i].Status)
	}
	suite.mockLifecycle.AssertExpectations(suite.T())
}

func (suite *BulkServiceTestSuite) TestApply_PartialFailureIsolated() {
	ctx := context.Background()
	good := uuid.NewString()
	locked := uuid.NewString()
	missing := uuid.NewString()

	suite.mockLifecycle.On("FinalizeSettlement", mock.Anything, good, suite.actor).
		Return(&domain.Settlement{SettlementID: good, Status: domain.Finalized}, nil).Once()
	suite.mockLifecycle.On("FinalizeSettlement", mock.Anything, locked, suite.actor).
		Return(nil, apperrors.NewInvalidTransitionError(string(domain.Calculated), string(domain.Finalized))).Once()
	suite.mockLifecycle.On("FinalizeSettlement", mock.Anything, missing, suite.actor).
		Return(nil, apperrors.ErrNotFound).Once()

	result := suite.service.Apply(ctx, dto.BulkFinalize, []string{good, locked, missing}, suite.actor)

	suite.Equal(1, result.SuccessCount)
	suite.Equal(2, result.FailureCount)

	suite.Require().NotNil(detailFor(result, good))
	suite.Equal(dto.BulkItemSuccess, detailFor(result, good).Status)
	suite.Equal(dto.BulkItemFailure, detailFor(result, locked).Status)
	suite.NotEmpty(detailFor(result, locked).Message)
	suite.Equal(dto.BulkItemFailure, detailFor(result, missing).Status)
}

func (suite *BulkServiceTestSuite) TestApply_MalformedIDNeverReachesService() {
	ctx := context.Background()
	good := uuid.NewString()

	suite.mockLifecycle.On("ApproveSettlement", mock.Anything, good, suite.actor).
		Return(&domain.Settlement{SettlementID: good, Status: domain.Approved}, nil).Once()

	result := suite.service.Apply(ctx, dto.BulkApprove, []string{"not-a-uuid", good}, suite.actor)

	suite.Equal(1, result.SuccessCount)
	suite.Equal(1, result.FailureCount)
	suite.Equal("invalid identifier", detailFor(result, "not-a-uuid").Message)
	suite.mockLifecycle.AssertNumberOfCalls(suite.T(), "ApproveSettlement", 1)
}

func (suite *BulkServiceTestSuite) TestApply_UnsupportedOperation() {
	ctx := context.Background()
	id := uuid.NewString()

	result := suite.service.Apply(ctx, dto.BulkOperation("REOPEN"), []string{id}, suite.actor)

	suite.Equal(0, result.SuccessCount)
	suite.Equal(1, result.FailureCount)
	suite.Contains(result.Details[0].Message, "unsupported bulk operation")
}

func (suite *BulkServiceTestSuite) TestApply_CancelledContextStopsDispatch() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ids := []string{uuid.NewString(), uuid.NewString(), uuid.NewString(), uuid.NewString()}

	result := suite.service.Apply(ctx, dto.BulkApprove, ids, suite.actor)

	// With the context already cancelled nothing should be dispatched; every
	// item is recorded as a failure and the batch still returns a result.
	suite.Equal(0, result.SuccessCount)
	suite.Equal(4, result.FailureCount)
	suite.Len(result.Details, 4)
	suite.mockLifecycle.AssertNotCalled(suite.T(), "ApproveSettlement", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BulkServiceTestSuite) TestApply_EmptyBatch() {
	result := suite.service.Apply(context.Background(), dto.BulkApprove, nil, suite.actor)

	suite.Equal(0, result.SuccessCount)
	suite.Equal(0, result.FailureCount)
	suite.Empty(result.Details)
}

func TestBulkServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BulkServiceTestSuite))
}
