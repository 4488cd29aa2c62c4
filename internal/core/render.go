package core

// Render converts a sheet to its display form. A sheet without rows yields
// the NoData sentinel instead of an empty table.
func Render(sheet *Sheet) DisplayTable {
	if sheet.Len() == 0 {
		return DisplayTable{NoData: true}
	}

	headers := make([]string, len(sheet.Columns))
	copy(headers, sheet.Columns)

	rows := make([][]string, len(sheet.Rows))
	for i, row := range sheet.Rows {
		cells := make([]string, len(headers))
		for j := range headers {
			cells[j] = cellAt(row, j).Display()
		}
		rows[i] = cells
	}

	return DisplayTable{Headers: headers, Rows: rows}
}

// Summarize lists the sheets of a workbook in display order.
func Summarize(wb *Workbook) []SheetSummary {
	out := make([]SheetSummary, 0, wb.Len())
	for _, name := range wb.names {
		s := wb.sheets[name]
		out = append(out, SheetSummary{
			Name:     name,
			RowCount: s.Len(),
			Columns:  len(s.Columns),
		})
	}
	return out
}
