package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/petroledger/settlement_app/internal/apperrors"
	"github.com/petroledger/settlement_app/internal/core/domain"
	portssvc "github.com/petroledger/settlement_app/internal/core/ports/services"
	"github.com/petroledger/settlement_app/internal/dto"
	"github.com/petroledger/settlement_app/internal/middleware"
)

// settlementHandler handles HTTP requests for one side of the trading book.
type settlementHandler struct {
	side       string
	settlement portssvc.SettlementSvcFacade
	bulk       portssvc.BulkSvcFacade
}

func newSettlementHandler(side string, settlement portssvc.SettlementSvcFacade, bulk portssvc.BulkSvcFacade) *settlementHandler {
	return &settlementHandler{side: side, settlement: settlement, bulk: bulk}
}

// registerSettlementRoutes mounts one side's settlement routes on the group.
func registerSettlementRoutes(group *gin.RouterGroup, side string, settlement portssvc.SettlementSvcFacade, bulk portssvc.BulkSvcFacade) {
	h := newSettlementHandler(side, settlement, bulk)

	settlements := group.Group(fmt.Sprintf("/%s/settlements", side))
	settlements.POST("", h.createSettlement)
	settlements.GET("", h.listSettlements)
	settlements.GET("/:settlementID", h.getSettlement)
	settlements.PUT("/:settlementID/quantities", h.updateQuantities)
	settlements.POST("/:settlementID/calculate", h.calculateSettlement)
	settlements.POST("/:settlementID/charges", h.addCharge)
	settlements.PUT("/:settlementID/charges/:chargeID", h.updateCharge)
	settlements.DELETE("/:settlementID/charges/:chargeID", h.removeCharge)
	settlements.POST("/:settlementID/review", h.reviewSettlement)
	settlements.POST("/:settlementID/approve", h.approveSettlement)
	settlements.POST("/:settlementID/finalize", h.finalizeSettlement)
	settlements.POST("/:settlementID/cancel", h.cancelSettlement)
	settlements.POST("/:settlementID/advance", h.advanceStatus)
	settlements.POST("/bulk/approve", h.bulkApprove)
	settlements.POST("/bulk/finalize", h.bulkFinalize)
}

// respondServiceError maps engine errors onto HTTP statuses. Every error
// reaches the caller with a human-readable message; nothing is swallowed.
func respondServiceError(c *gin.Context, err error, logMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn(logMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn(logMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrState), errors.Is(err, apperrors.ErrConflict):
		logger.Warn(logMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(logMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// createSettlement godoc
// @Summary Create a settlement
// @Description Creates a Draft settlement against a contract and returns the hydrated record
// @Tags settlements
// @Accept json
// @Produce json
// @Param settlement body dto.CreateSettlementRequest true "Settlement"
// @Success 201 {object} dto.SettlementResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /{side}/settlements [post]
func (h *settlementHandler) createSettlement(c *gin.Context) {
	var req dto.CreateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	settlement, err := h.settlement.CreateSettlement(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Failed to create settlement")
		return
	}
	c.JSON(http.StatusCreated, dto.ToSettlementResponse(settlement))
}

// getSettlement godoc
// @Summary Get a settlement
// @Description Retrieves a settlement with its charge ledger
// @Tags settlements
// @Produce json
// @Param settlementID path string true "Settlement ID"
// @Success 200 {object} dto.SettlementResponse
// @Failure 404 {object} map[string]string
// @Router /{side}/settlements/{settlementID} [get]
func (h *settlementHandler) getSettlement(c *gin.Context) {
	settlement, err := h.settlement.GetSettlementByID(c.Request.Context(), c.Param("settlementID"))
	if err != nil {
		respondServiceError(c, err, "Failed to get settlement")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

// listSettlements godoc
// @Summary List settlements
// @Description Retrieves a page of settlements for this side of the book, newest first
// @Tags settlements
// @Produce json
// @Param limit query int false "Page size"
// @Param nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListSettlementsResponse
// @Router /{side}/settlements [get]
func (h *settlementHandler) listSettlements(c *gin.Context) {
	var params dto.ListSettlementsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.settlement.ListSettlements(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err, "Failed to list settlements")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// updateQuantities godoc
// @Summary Update actual quantities
// @Description Records the actual quantities from the source document; Draft settlements advance to DataEntered
// @Tags settlements
// @Accept json
// @Produce json
// @Param settlementID path string true "Settlement ID"
// @Param quantities body dto.UpdateQuantitiesRequest true "Quantities"
// @Success 200 {object} dto.SettlementResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /{side}/settlements/{settlementID}/quantities [put]
func (h *settlementHandler) updateQuantities(c *gin.Context) {
	var req dto.UpdateQuantitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	settlement, err := h.settlement.UpdateQuantities(c.Request.Context(), c.Param("settlementID"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to update settlement quantities")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

// calculateSettlement godoc
// @Summary Calculate settlement amounts
// @Description Re-derives calculation quantities server-side and computes cargo value and total settlement amount
// @Tags settlements
// @Accept json
// @Produce json
// @Param settlementID path string true "Settlement ID"
// @Param calculation body dto.CalculateSettlementRequest true "Calculation inputs"
// @Success 200 {object} dto.SettlementResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /{side}/settlements/{settlementID}/calculate [post]
func (h *settlementHandler) calculateSettlement(c *gin.Context) {
	var req dto.CalculateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	settlement, err := h.settlement.CalculateSettlement(c.Request.Context(), c.Param("settlementID"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to calculate settlement")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

// addCharge godoc
// @Summary Add a charge
// @Description Appends a charge line to the settlement's ledger and recomputes totals
// @Tags charges
// @Accept json
// @Produce json
// @Param settlementID path string true "Settlement ID"
// @Param charge body dto.CreateChargeRequest true "Charge"
// @Success 200 {object} dto.SettlementResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /{side}/settlements/{settlementID}/charges [post]
func (h *settlementHandler) addCharge(c *gin.Context) {
	var req dto.CreateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	settlement, err := h.settlement.AddCharge(c.Request.Context(), c.Param("settlementID"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to add charge")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

// updateCharge godoc
// @Summary Update a charge
// @Description Patches a charge line; only supplied fields change
// @Tags charges
// @Accept json
// @Produce json
// @Param settlementID path string true "Settlement ID"
// @Param chargeID path string true "Charge ID"
// @Param charge body dto.UpdateChargeRequest true "Charge patch"
// @Success 200 {object} dto.SettlementResponse
// @Failure 404 {object} map[string]string
// @Router /{side}/settlements/{settlementID}/charges/{chargeID} [put]
func (h *settlementHandler) updateCharge(c *gin.Context) {
	var req dto.UpdateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	settlement, err := h.settlement.UpdateCharge(c.Request.Context(), c.Param("settlementID"), c.Param("chargeID"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to update charge")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

// removeCharge godoc
// @Summary Remove a charge
// @Description Deletes a charge line and recomputes totals
// @Tags charges
// @Accept json
// @Produce json
// @Param settlementID path string true "Settlement ID"
// @Param chargeID path string true "Charge ID"
// @Success 200 {object} dto.SettlementResponse
// @Failure 404 {object} map[string]string
// @Router /{side}/settlements/{settlementID}/charges/{chargeID} [delete]
func (h *settlementHandler) removeCharge(c *gin.Context) {
	var req dto.RemoveChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	settlement, err := h.settlement.RemoveCharge(c.Request.Context(), c.Param("settlementID"), c.Param("chargeID"), req.Actor)
	if err != nil {
		respondServiceError(c, err, "Failed to remove charge")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

// reviewSettlement godoc
// @Summary Review a settlement
// @Description Marks a calculated settlement as reviewed
// @Tags lifecycle
// @Accept json
// @Produce json
// @Param settlementID path string true "Settlement ID"
// @Param review body dto.ReviewSettlementRequest true "Reviewer"
// @Success 200 {object} dto.SettlementResponse
// @Failure 409 {object} map[string]string
// @Router /{side}/settlements/{settlementID}/review [post]
func (h *settlementHandler) reviewSettlement(c *gin.Context) {
	var req dto.ReviewSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	settlement, err := h.settlement.ReviewSettlement(c.Request.Context(), c.Param("settlementID"), req.Actor)
	if err != nil {
		respondServiceError(c, err, "Failed to review settlement")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

// approveSettlement godoc
// @Summary Approve a settlement
// @Description Moves a reviewed settlement to Approved
// @Tags lifecycle
// @Accept json
// @Produce json
// @Param settlementID path string true "Settlement ID"
// @Param approval body dto.ApproveSettlementRequest true "Approver"
// @Success 200 {object} dto.SettlementResponse
// @Failure 409 {object} map[string]string
// @Router /{side}/settlements/{settlementID}/approve [post]
func (h *settlementHandler) approveSettlement(c *gin.Context) {
	var req dto.ApproveSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	settlement, err := h.settlement.ApproveSettlement(c.Request.Context(), c.Param("settlementID"), req.ApprovedBy)
	if err != nil {
		respondServiceError(c, err, "Failed to approve settlement")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

// finalizeSettlement godoc
// @Summary Finalize a settlement
// @Description Locks an approved settlement; all subsequent mutation fails
// @Tags lifecycle
// @Accept json
// @Produce json
// @Param settlementID path string true "Settlement ID"
// @Param finalization body dto.FinalizeSettlementRequest true "Finalizer"
// @Success 200 {object} dto.SettlementResponse
// @Failure 409 {object} map[string]string
// @Router /{side}/settlements/{settlementID}/finalize [post]
func (h *settlementHandler) finalizeSettlement(c *gin.Context) {
	var req dto.FinalizeSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	settlement, err := h.settlement.FinalizeSettlement(c.Request.Context(), c.Param("settlementID"), req.FinalizedBy)
	if err != nil {
		respondServiceError(c, err, "Failed to finalize settlement")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

// cancelSettlement godoc
// @Summary Cancel a settlement
// @Description Cancels a non-finalized settlement, recording the reason
// @Tags lifecycle
// @Accept json
// @Produce json
// @Param settlementID path string true "Settlement ID"
// @Param cancellation body dto.CancelSettlementRequest true "Cancellation"
// @Success 200 {object} dto.SettlementResponse
// @Failure 409 {object} map[string]string
// @Router /{side}/settlements/{settlementID}/cancel [post]
func (h *settlementHandler) cancelSettlement(c *gin.Context) {
	var req dto.CancelSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	settlement, err := h.settlement.CancelSettlement(c.Request.Context(), c.Param("settlementID"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to cancel settlement")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

// advanceStatus godoc
// @Summary Chain status transitions
// @Description Applies successive guarded transitions until the target status; stops and reports at the first failing guard
// @Tags lifecycle
// @Accept json
// @Produce json
// @Param settlementID path string true "Settlement ID"
// @Param advance body dto.AdvanceStatusRequest true "Target status"
// @Success 200 {object} dto.SettlementResponse
// @Failure 409 {object} map[string]string
// @Router /{side}/settlements/{settlementID}/advance [post]
func (h *settlementHandler) advanceStatus(c *gin.Context) {
	var req dto.AdvanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	settlement, err := h.settlement.AdvanceToStatus(c.Request.Context(), c.Param("settlementID"), domain.SettlementStatus(req.TargetStatus), req.Actor)
	if err != nil {
		// The settlement may have advanced partway; return what was reached
		// alongside the failure so the caller sees where the chain stopped.
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Warn("Status chain stopped", slog.String("error", err.Error()))
		status := http.StatusConflict
		if errors.Is(err, apperrors.ErrValidation) {
			status = http.StatusBadRequest
		} else if errors.Is(err, apperrors.ErrNotFound) {
			status = http.StatusNotFound
		}
		body := gin.H{"error": err.Error()}
		if settlement != nil {
			body["settlement"] = dto.ToSettlementResponse(settlement)
		}
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

// bulkApprove godoc
// @Summary Bulk approve settlements
// @Description Applies Approve across many settlements; per-item failures are isolated and reported
// @Tags bulk
// @Accept json
// @Produce json
// @Param batch body dto.BulkApplyRequest true "Settlement IDs"
// @Success 200 {object} dto.BulkResult
// @Router /{side}/settlements/bulk/approve [post]
func (h *settlementHandler) bulkApprove(c *gin.Context) {
	h.bulkApply(c, dto.BulkApprove)
}

// bulkFinalize godoc
// @Summary Bulk finalize settlements
// @Description Applies Finalize across many settlements; per-item failures are isolated and reported
// @Tags bulk
// @Accept json
// @Produce json
// @Param batch body dto.BulkApplyRequest true "Settlement IDs"
// @Success 200 {object} dto.BulkResult
// @Router /{side}/settlements/bulk/finalize [post]
func (h *settlementHandler) bulkFinalize(c *gin.Context) {
	h.bulkApply(c, dto.BulkFinalize)
}

func (h *settlementHandler) bulkApply(c *gin.Context, op dto.BulkOperation) {
	var req dto.BulkApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	// Bound the whole batch; the coordinator stops dispatching on expiry.
	ctx, cancel := context.WithTimeout(c.Request.Context(), bulkDeadline)
	defer cancel()

	result := h.bulk.Apply(ctx, op, req.SettlementIDs, req.Actor)
	c.JSON(http.StatusOK, result)
}

const bulkDeadline = 2 * time.Minute
