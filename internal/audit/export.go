package audit

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportUsageXLSX renders audit entries into an XLSX workbook and returns it
// as bytes.
func ExportUsageXLSX(entries []Entry) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Usage"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet so Usage is the only one.
	if idx, _ := f.GetSheetIndex("Sheet1"); idx != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Timestamp (UTC)",
		"Caller",
		"Requested Intent",
		"Effective Intent",
		"Admitted",
		"Outcome",
		"HTTP Status",
		"Model",
		"Elapsed (ms)",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for r, e := range entries {
		values := []any{
			e.At.UTC().Format(time.RFC3339),
			e.Caller,
			e.Intent,
			e.EffectiveIntent,
			e.Admitted,
			e.Outcome,
			e.HTTPStatus,
			e.Model,
			e.ElapsedMS,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	// Summary row below the data.
	summaryCell, _ := excelize.CoordinatesToCellName(1, len(entries)+3)
	if err := f.SetCellValue(sheet, summaryCell, fmt.Sprintf("Total requests: %d", len(entries))); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
