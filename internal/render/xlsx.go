package render

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"paydesk/internal/payroll"
)

const payrollSheet = "Payroll"

// WriteXLSX writes the export as a single-sheet workbook with the same
// header and row layout as the CSV form.
func WriteXLSX(w io.Writer, e payroll.Export) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", payrollSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeXLSXRow(f, 1, payroll.Header()); err != nil {
		return err
	}
	for i, row := range e.Rows {
		if err := writeXLSXRow(f, i+2, row.Fields()); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeXLSXRow(f *excelize.File, rowNum int, cells []string) error {
	for col, value := range cells {
		name, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(payrollSheet, name, value); err != nil {
			return fmt.Errorf("set cell %s: %w", name, err)
		}
	}
	return nil
}
