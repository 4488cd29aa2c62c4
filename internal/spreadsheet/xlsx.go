package spreadsheet

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetview/internal/core"
)

// ExportSheetName is the single sheet written to xlsx exports.
const ExportSheetName = "Filtered Data"

// decodeXLSX reads every sheet in workbook order. Cells are read twice: the
// formatted text is what users see, the raw value keeps full numeric
// precision for number cells.
func decodeXLSX(data []byte) (*core.Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var sheets []*core.Sheet
	for _, name := range f.GetSheetList() {
		shown, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}

		sheets = append(sheets, buildSheet(name, shown, func(r, c int, text string) core.Value {
			return xlsxValue(f, name, r, c, text, rawAt(raw, r, c))
		}))
	}
	return core.NewWorkbook(sheets...), nil
}

func rawAt(rows [][]string, r, c int) string {
	if r >= len(rows) || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}

// xlsxValue classifies the cell at zero-based (r, c). A cell is a number
// only when it is stored as one and its displayed text is numeric, so dates,
// currency and digits typed as text keep their formatted text.
func xlsxValue(f *excelize.File, sheet string, r, c int, text, raw string) core.Value {
	if text == "" {
		return core.Missing()
	}
	if _, ok := core.ParseValue(text).Number(); !ok {
		return core.StringValue(text)
	}

	axis, err := excelize.CoordinatesToCellName(c+1, r+1)
	if err != nil {
		return core.StringValue(text)
	}
	switch typ, err := f.GetCellType(sheet, axis); {
	case err != nil:
		return core.StringValue(text)
	case typ != excelize.CellTypeUnset && typ != excelize.CellTypeNumber:
		return core.StringValue(text)
	}

	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return core.NumberValue(n, text)
	}
	return core.ParseValue(text)
}

// encodeXLSX writes sheet as a one-sheet workbook with a bold header row.
// Missing cells are written as NULL. Numbers stay numeric unless that would
// change how they read.
func encodeXLSX(w io.Writer, sheet *core.Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]interface{}, len(sheet.Columns))
	for i, col := range sheet.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(ExportSheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, row := range sheet.Rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ExportSheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cellValue picks what excelize writes for v. Numbers are written as numbers
// only when the cell would show the same text; "007", "1.50" or "1e3" keep
// their spelling as strings.
func cellValue(v core.Value) interface{} {
	if n, ok := v.Number(); ok && v.Display() == strconv.FormatFloat(n, 'f', -1, 64) {
		return n
	}
	return v.Display()
}
