package core

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// NullDisplay is the literal shown for missing cells in tables and exports.
const NullDisplay = "NULL"

// ValueKind identifies what a cell holds.
type ValueKind int

const (
	KindMissing ValueKind = iota
	KindString
	KindNumber
)

// Value is a single cell. The zero Value is missing.
type Value struct {
	kind ValueKind
	text string
	num  float64
}

// Missing returns the missing marker.
func Missing() Value {
	return Value{}
}

// StringValue returns a string cell. Empty strings are missing.
func StringValue(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: KindString, text: s}
}

// NumberValue returns a numeric cell. text is how the number is shown to
// users; when empty it is derived from n.
func NumberValue(n float64, text string) Value {
	if text == "" {
		text = strconv.FormatFloat(n, 'f', -1, 64)
	}
	return Value{kind: KindNumber, text: text, num: n}
}

// ParseValue classifies raw cell text. Numeric text becomes a number that
// keeps its original spelling; only the empty string is missing. NaN and
// infinities stay strings since no spreadsheet cell can hold them.
func ParseValue(s string) Value {
	if s == "" {
		return Value{}
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return StringValue(s)
	}
	return NumberValue(n, s)
}

// Kind reports the kind of the value.
func (v Value) Kind() ValueKind { return v.kind }

// IsMissing reports whether the cell is absent or blank.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Number returns the numeric value and whether the cell is a number.
func (v Value) Number() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// String returns the cell text, or "" for a missing cell.
func (v Value) String() string { return v.text }

// Display returns the cell as shown to users.
func (v Value) Display() string {
	if v.IsMissing() {
		return NullDisplay
	}
	return v.text
}

// Row is one data row. Cells are aligned with the owning sheet's columns.
type Row []Value

// Sheet is an ordered sequence of rows sharing one column list.
type Sheet struct {
	Name    string
	Columns []string
	Rows    []Row

	index map[string]int
}

// NewSheet builds a sheet. Rows shorter than columns are padded with missing
// cells and longer rows are truncated so every row matches the column list.
func NewSheet(name string, columns []string, rows []Row) *Sheet {
	s := &Sheet{
		Name:    name,
		Columns: columns,
		Rows:    make([]Row, len(rows)),
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			fixed := make(Row, len(columns))
			copy(fixed, row)
			row = fixed
		}
		s.Rows[i] = row
	}
	s.buildIndex()
	return s
}

func (s *Sheet) buildIndex() {
	s.index = make(map[string]int, len(s.Columns))
	for i, col := range s.Columns {
		if _, dup := s.index[col]; !dup {
			s.index[col] = i
		}
	}
}

// ColumnIndex returns the position of a column, or -1 if the sheet has no
// such column.
func (s *Sheet) ColumnIndex(col string) int {
	if s.index == nil {
		s.buildIndex()
	}
	if i, ok := s.index[col]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether the sheet has the named column.
func (s *Sheet) HasColumn(col string) bool {
	return s.ColumnIndex(col) >= 0
}

// Value returns the cell of row at col. Unknown columns read as missing.
func (s *Sheet) Value(row Row, col string) Value {
	i := s.ColumnIndex(col)
	if i < 0 || i >= len(row) {
		return Missing()
	}
	return row[i]
}

// Len returns the number of rows.
func (s *Sheet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Workbook is the set of named sheets parsed from one file. Sheet order is
// the order of the source file.
type Workbook struct {
	names  []string
	sheets map[string]*Sheet
}

// NewWorkbook builds a workbook from sheets in display order. A later sheet
// with a duplicate name is ignored.
func NewWorkbook(sheets ...*Sheet) *Workbook {
	wb := &Workbook{sheets: make(map[string]*Sheet, len(sheets))}
	for _, s := range sheets {
		if _, dup := wb.sheets[s.Name]; dup {
			continue
		}
		wb.names = append(wb.names, s.Name)
		wb.sheets[s.Name] = s
	}
	return wb
}

// SheetNames returns sheet names in display order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.names))
	copy(names, w.names)
	return names
}

// Len returns the number of sheets.
func (w *Workbook) Len() int { return len(w.names) }

// Sheet returns the named sheet or a *SheetNotFoundError.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	s, ok := w.sheets[name]
	if !ok {
		return nil, &SheetNotFoundError{Name: name}
	}
	return s, nil
}

// First returns the first sheet, or nil for an empty workbook.
func (w *Workbook) First() *Sheet {
	if len(w.names) == 0 {
		return nil
	}
	return w.sheets[w.names[0]]
}

// OperationType combines per-column checks.
type OperationType string

const (
	OpTypeAnd OperationType = "and"
	OpTypeOr  OperationType = "or"
)

// Operation is the per-column check.
type Operation string

const (
	OpIsNull    Operation = "null"
	OpIsNotNull Operation = "notnull"
)

// FilterSpec describes one filter action.
type FilterSpec struct {
	PrimaryColumn    string        `json:"primaryColumn"`
	OperationColumns []string      `json:"operationColumns"`
	Type             OperationType `json:"operationType"`
	Operation        Operation     `json:"operation"`
}

// ProjectedColumns returns the output columns: the primary column followed
// by the operation columns, without duplicates.
func (f FilterSpec) ProjectedColumns() []string {
	seen := make(map[string]bool, len(f.OperationColumns)+1)
	cols := make([]string, 0, len(f.OperationColumns)+1)
	for _, c := range append([]string{f.PrimaryColumn}, f.OperationColumns...) {
		if seen[c] {
			continue
		}
		seen[c] = true
		cols = append(cols, c)
	}
	return cols
}

// String renders the spec the way users typed it.
func (f FilterSpec) String() string {
	return f.PrimaryColumn + " | " + strings.Join(f.OperationColumns, ", ") +
		" | " + string(f.Type) + " | " + string(f.Operation)
}

// DisplayTable is a rendered sheet.
type DisplayTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	NoData  bool       `json:"noData"`
}

// SheetSummary describes one sheet for selection lists.
type SheetSummary struct {
	Name     string `json:"name"`
	RowCount int    `json:"rowCount"`
	Columns  int    `json:"columns"`
}

// Source identifies where a workbook came from.
type Source struct {
	Location string    // URL, path or uploaded file name
	Size     int64     // Bytes read
	LoadedAt time.Time // When parsing finished
}
