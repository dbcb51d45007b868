package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/petroledger/settlement_app/internal/core/ports/services"
	"github.com/petroledger/settlement_app/internal/dto"
)

type exportHandler struct {
	export portssvc.SettlementExportSvc
}

// registerExportRoutes mounts the statement export route on the group.
func registerExportRoutes(group *gin.RouterGroup, export portssvc.SettlementExportSvc) {
	h := &exportHandler{export: export}
	group.POST("/settlements/export", h.exportSettlements)
}

// exportSettlements godoc
// @Summary Export settlement statements
// @Description Builds an XLSX workbook covering the requested settlements and their charge ledgers
// @Tags export
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param export body dto.ExportSettlementsRequest true "Settlement IDs"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Router /settlements/export [post]
func (h *exportHandler) exportSettlements(c *gin.Context) {
	var req dto.ExportSettlementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	workbook, err := h.export.BuildSettlementWorkbook(c.Request.Context(), req.SettlementIDs)
	if err != nil {
		respondServiceError(c, err, "Failed to build settlement workbook")
		return
	}

	filename := fmt.Sprintf("settlements_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
}
