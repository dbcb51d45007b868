package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/petroledger/settlement_app/internal/core/domain"
	portsrepo "github.com/petroledger/settlement_app/internal/core/ports/repositories"
	portssvc "github.com/petroledger/settlement_app/internal/core/ports/services"
)

// exportService renders settlement statements as XLSX workbooks.
type exportService struct {
	BaseService
	settlementRepo portsrepo.SettlementReader
}

// NewExportService creates the settlement statement export service.
func NewExportService(repo portsrepo.SettlementReader) portssvc.SettlementExportSvc {
	return &exportService{settlementRepo: repo}
}

var _ portssvc.SettlementExportSvc = (*exportService)(nil)

const (
	summarySheet = "settlements"
	chargesSheet = "charges"
)

// BuildSettlementWorkbook renders one workbook with a settlement summary
// sheet and a charges sheet covering the given settlements. Any missing
// settlement fails the export.
func (s *exportService) BuildSettlementWorkbook(ctx context.Context, settlementIDs []string) ([]byte, error) {
	settlements := make([]*domain.Settlement, 0, len(settlementIDs))
	for _, id := range settlementIDs {
		stl, err := s.settlementRepo.FindSettlementByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("settlement %s: %w", id, err)
		}
		settlements = append(settlements, stl)
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(chargesSheet); err != nil {
		return nil, fmt.Errorf("failed to create charges sheet: %w", err)
	}

	summaryHeader := []any{
		"Settlement ID", "Contract", "Kind", "Document No", "Document Date", "Status",
		"Qty MT", "Qty BBL", "Benchmark", "Adjustment", "Cargo Value", "Charges", "Total", "Currency",
	}
	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeader); err != nil {
		return nil, fmt.Errorf("failed to write summary header: %w", err)
	}
	for i, stl := range settlements {
		row := []any{
			stl.SettlementID,
			stl.ExternalContractNumber,
			string(stl.ContractKind),
			stl.DocumentNumber,
			stl.DocumentDate.Format("2006-01-02"),
			string(stl.Status),
			stl.CalculationQuantityMT.InexactFloat64(),
			stl.CalculationQuantityBBL.InexactFloat64(),
			stl.BenchmarkAmount.InexactFloat64(),
			stl.AdjustmentAmount.InexactFloat64(),
			stl.CargoValue.InexactFloat64(),
			stl.TotalCharges.InexactFloat64(),
			stl.TotalSettlementAmount.InexactFloat64(),
			stl.SettlementCurrency,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write summary row for %s: %w", stl.SettlementID, err)
		}
	}

	chargesHeader := []any{"Settlement ID", "Charge ID", "Type", "Description", "Amount", "Currency", "Incurred", "Reference"}
	if err := f.SetSheetRow(chargesSheet, "A1", &chargesHeader); err != nil {
		return nil, fmt.Errorf("failed to write charges header: %w", err)
	}
	chargeRow := 2
	for _, stl := range settlements {
		for _, c := range stl.Charges {
			incurred := ""
			if c.IncurredDate != nil {
				incurred = c.IncurredDate.Format("2006-01-02")
			}
			row := []any{
				stl.SettlementID, c.ChargeID, string(c.ChargeType), c.Description,
				c.Amount.InexactFloat64(), c.Currency, incurred, c.ReferenceDocument,
			}
			cell := fmt.Sprintf("A%d", chargeRow)
			if err := f.SetSheetRow(chargesSheet, cell, &row); err != nil {
				return nil, fmt.Errorf("failed to write charge row for %s: %w", c.ChargeID, err)
			}
			chargeRow++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.LogInfo(ctx, "Settlement workbook built",
		slog.Int("settlement_count", len(settlements)),
		slog.Int("byte_size", buf.Len()))
	return buf.Bytes(), nil
}
