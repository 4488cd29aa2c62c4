package spreadsheet

import (
	"strconv"
	"strings"

	"github.com/JonMunkholm/sheetview/internal/core"
)

// emptyHeader names a column whose header cell is blank.
const emptyHeader = "__EMPTY"

// normalizeHeaders turns the first row into unique column names for a sheet
// width columns wide. Blank headers become __EMPTY and repeats get a numeric
// suffix: "A", "A" -> "A", "A_1".
func normalizeHeaders(raw []string, width int) []string {
	cols := make([]string, width)
	used := make(map[string]bool, width)
	next := make(map[string]int, width)

	for i := range cols {
		base := ""
		if i < len(raw) {
			base = strings.TrimSpace(raw[i])
		}
		if base == "" {
			base = emptyHeader
		}

		name := base
		for used[name] {
			next[base]++
			name = base + "_" + strconv.Itoa(next[base])
		}
		used[name] = true
		cols[i] = name
	}
	return cols
}

// buildSheet splits raw rows into a header and data rows. The used range
// starts at the first non-blank row and the leftmost non-empty column, so a
// table placed at C3 reads the same as one at A1. Rows with no non-empty
// cell are skipped. cell converts one raw cell at (row, col), where row and
// col index records before trimming.
func buildSheet(name string, records [][]string, cell func(row, col int, text string) core.Value) *core.Sheet {
	top, left, right := usedRange(records)
	if top < 0 {
		return core.NewSheet(name, []string{}, nil)
	}
	width := right - left

	cols := normalizeHeaders(trimRecord(records[top], left), width)

	rows := make([]core.Row, 0, len(records)-top-1)
	for r := top + 1; r < len(records); r++ {
		rec := records[r]
		if isBlank(rec) {
			continue
		}
		row := make(core.Row, width)
		for c := left; c < len(rec); c++ {
			row[c-left] = cell(r, c, rec[c])
		}
		rows = append(rows, row)
	}
	return core.NewSheet(name, cols, rows)
}

// usedRange finds the first non-blank row and the column span [left, right)
// of the non-blank rows from there on. top is -1 when every row is blank.
func usedRange(records [][]string) (top, left, right int) {
	top = -1
	for r, rec := range records {
		for c, s := range rec {
			if s == "" {
				continue
			}
			if top < 0 {
				top, left = r, c
			}
			if c < left {
				left = c
			}
			break
		}
	}
	if top < 0 {
		return -1, 0, 0
	}
	for _, rec := range records[top:] {
		if len(rec) > right {
			right = len(rec)
		}
	}
	return top, left, right
}

func trimRecord(rec []string, left int) []string {
	if left >= len(rec) {
		return nil
	}
	return rec[left:]
}

func isBlank(rec []string) bool {
	for _, s := range rec {
		if s != "" {
			return false
		}
	}
	return true
}
