package core

// filter.go implements the null/not-null row filter and its projection.
//
// A row survives when its primary column is present and the per-column
// checks over the operation columns combine to true:
//
//	AND: every check is true (no operation columns: always true)
//	OR:  at least one check is true (no operation columns: always false)
//
// Surviving rows are projected onto FilterSpec.ProjectedColumns. Missing
// cells stay missing in the result; Render turns them into NullDisplay.

// Filter returns a new sheet holding the rows of sheet that match spec,
// projected onto the primary and operation columns. sheet is not modified.
func Filter(sheet *Sheet, spec FilterSpec) *Sheet {
	cols := spec.ProjectedColumns()
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = sheet.ColumnIndex(c)
	}

	opIdx := make([]int, len(spec.OperationColumns))
	for i, c := range spec.OperationColumns {
		opIdx[i] = sheet.ColumnIndex(c)
	}
	primary := sheet.ColumnIndex(spec.PrimaryColumn)

	var rows []Row
	for _, row := range sheet.Rows {
		if cellAt(row, primary).IsMissing() {
			continue
		}
		if !matches(row, opIdx, spec) {
			continue
		}

		projected := make(Row, len(cols))
		for i, j := range idx {
			projected[i] = cellAt(row, j)
		}
		rows = append(rows, projected)
	}

	return NewSheet(sheet.Name, cols, rows)
}

// matches combines the per-column checks for one row.
func matches(row Row, opIdx []int, spec FilterSpec) bool {
	wantMissing := spec.Operation == OpIsNull

	if spec.Type == OpTypeOr {
		for _, j := range opIdx {
			if cellAt(row, j).IsMissing() == wantMissing {
				return true
			}
		}
		return false
	}

	for _, j := range opIdx {
		if cellAt(row, j).IsMissing() != wantMissing {
			return false
		}
	}
	return true
}

// cellAt returns row[i], treating out-of-range positions as missing.
func cellAt(row Row, i int) Value {
	if i < 0 || i >= len(row) {
		return Missing()
	}
	return row[i]
}
