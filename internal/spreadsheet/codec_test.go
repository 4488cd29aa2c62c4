package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/JonMunkholm/sheetview/internal/core"
)

// buildXLSX writes a workbook with one sheet per entry, in order.
func buildXLSX(t *testing.T, sheets []string, rows map[string][][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range rows[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestDecode_XLSX(t *testing.T) {
	data := buildXLSX(t, []string{"People", "Empty"}, map[string][][]interface{}{
		"People": {
			{"id", "name", "score"},
			{1, "ann", 9.5},
			{2, nil, nil},
			{nil, nil, nil},
			{3, "NULL", "07"},
		},
	})

	wb, err := NewCodec(false).Decode("book.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"People", "Empty"}, wb.SheetNames())

	people, err := wb.Sheet("People")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "score"}, people.Columns)
	require.Equal(t, 3, people.Len(), "blank rows are skipped")

	n, ok := people.Rows[0][0].Number()
	assert.True(t, ok)
	assert.Equal(t, 1.0, n)
	assert.Equal(t, "9.5", people.Rows[0][2].String())

	assert.True(t, people.Rows[1][1].IsMissing())
	assert.True(t, people.Rows[1][2].IsMissing())

	assert.Equal(t, core.KindString, people.Rows[2][1].Kind(), "literal NULL text is a value")
	assert.Equal(t, core.KindString, people.Rows[2][2].Kind(), "shared-string digits stay text")
	assert.Equal(t, "07", people.Rows[2][2].String())

	empty, err := wb.Sheet("Empty")
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
	assert.True(t, core.Render(empty).NoData)
}

func TestDecode_XLSXHeaders(t *testing.T) {
	data := buildXLSX(t, []string{"S"}, map[string][][]interface{}{
		"S": {
			{"a", nil, "a", "b", nil},
			{1, 2, 3, 4, 5, 6},
		},
	})

	wb, err := NewCodec(false).Decode("upload", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "__EMPTY", "a_1", "b", "__EMPTY_1", "__EMPTY_2"}, wb.First().Columns)
}

func TestDecode_XLSXOffsetTable(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	header := []interface{}{"id", "name"}
	require.NoError(t, f.SetSheetRow("Sheet1", "C3", &header))
	first := []interface{}{1, "ann"}
	require.NoError(t, f.SetSheetRow("Sheet1", "C4", &first))
	second := []interface{}{2, nil}
	require.NoError(t, f.SetSheetRow("Sheet1", "C6", &second))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	wb, err := NewCodec(false).Decode("offset.xlsx", buf.Bytes())
	require.NoError(t, err)

	sheet := wb.First()
	assert.Equal(t, []string{"id", "name"}, sheet.Columns)
	assert.Equal(t, [][]string{{"1", "ann"}, {"2", "NULL"}}, core.Render(sheet).Rows)

	n, ok := sheet.Rows[0][0].Number()
	assert.True(t, ok, "cell types are read at their original position")
	assert.Equal(t, 1.0, n)
}

func TestBuildSheet_UsedRange(t *testing.T) {
	tests := []struct {
		name    string
		records [][]string
		columns []string
		rows    [][]string
	}{
		{"starts at A1", [][]string{{"a", "b"}, {"1", "2"}}, []string{"a", "b"}, [][]string{{"1", "2"}}},
		{"leading blank rows", [][]string{{}, {"", ""}, {"a"}, {"1"}}, []string{"a"}, [][]string{{"1"}}},
		{"leading blank columns", [][]string{{"", "", "a", "b"}, {"", "", "1", ""}}, []string{"a", "b"}, [][]string{{"1", "NULL"}}},
		{"data left of header", [][]string{{"", "h"}, {"x", "1"}}, []string{"__EMPTY", "h"}, [][]string{{"x", "1"}}},
		{"all blank", [][]string{{""}, {}}, []string{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := buildSheet("S", tt.records, func(_, _ int, text string) core.Value {
				return core.ParseValue(text)
			})
			assert.Equal(t, tt.columns, sheet.Columns)
			assert.Equal(t, tt.rows, core.Render(sheet).Rows)
		})
	}
}

func TestDecode_CSV(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"plain", []byte("id,name,city\n1,ann,\n2,,Oslo\n")},
		{"utf-8 bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,name,city\n1,ann,\n2,,Oslo\n")...)},
		{"semicolon", []byte("id;name;city\r\n1;ann;\r\n2;;Oslo\r\n")},
		{"crlf blank lines", []byte("id,name,city\r\n\r\n1,ann,\r\n,,\r\n2,,Oslo\r\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb, err := NewCodec(false).Decode("data.csv", tt.data)
			require.NoError(t, err)
			require.Equal(t, []string{CSVSheetName}, wb.SheetNames())

			sheet := wb.First()
			assert.Equal(t, []string{"id", "name", "city"}, sheet.Columns)
			assert.Equal(t, [][]string{
				{"1", "ann", "NULL"},
				{"2", "NULL", "Oslo"},
			}, core.Render(sheet).Rows)
		})
	}
}

func TestDecode_CSVEncodings(t *testing.T) {
	const text = "name,city\nJosé,Zürich\n"

	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)
	latin, err := charmap.Windows1252.NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)

	for name, data := range map[string][]byte{"utf-16le": utf16, "windows-1252": latin} {
		t.Run(name, func(t *testing.T) {
			wb, err := NewCodec(false).Decode("x.csv", data)
			require.NoError(t, err)
			assert.Equal(t, []string{"name", "city"}, wb.First().Columns)
			assert.Equal(t, [][]string{{"José", "Zürich"}}, core.Render(wb.First()).Rows)
		})
	}
}

func TestDecode_Unsupported(t *testing.T) {
	_, err := NewCodec(false).Decode("old.xls", []byte{0xD0, 0xCF, 0x11, 0xE0})
	assert.ErrorIs(t, err, core.ErrUnsupportedFile)

	_, err = NewCodec(false).Decode("broken.xlsx", []byte("not a zip"))
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    []byte
		want    Format
		wantErr bool
	}{
		{name: "xlsx ext", file: "a.XLSX", want: FormatXLSX},
		{name: "xlsm ext", file: "a.xlsm", want: FormatXLSX},
		{name: "csv ext", file: "a.csv", want: FormatCSV},
		{name: "url with query", file: "https://host/files/report.csv?token=abc", want: FormatCSV},
		{name: "zip magic", file: "https://host/download?id=7", data: []byte("PK\x03\x04rest"), want: FormatXLSX},
		{name: "text fallback", file: "export", data: []byte("a,b\n1,2\n"), want: FormatCSV},
		{name: "legacy xls ext", file: "a.xls", wantErr: true},
		{name: "legacy ole magic", file: "blob", data: []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, wantErr: true},
		{name: "binary", file: "blob", data: []byte{0x01, 0x00, 0x02}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.file, tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrUnsupportedFile)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeHeaders(t *testing.T) {
	tests := []struct {
		raw   []string
		width int
		want  []string
	}{
		{[]string{"a", "b"}, 2, []string{"a", "b"}},
		{[]string{" a ", "a", "a"}, 3, []string{"a", "a_1", "a_2"}},
		{[]string{"a", "a", "a_1"}, 3, []string{"a", "a_1", "a_1_1"}},
		{[]string{"", "x"}, 4, []string{"__EMPTY", "x", "__EMPTY_1", "__EMPTY_2"}},
		{nil, 0, []string{}},
	}

	for _, tt := range tests {
		got := normalizeHeaders(tt.raw, tt.width)
		assert.Equal(t, tt.want, got, "normalizeHeaders(%q, %d)", tt.raw, tt.width)
	}
}

func filteredSheet() *core.Sheet {
	src := core.NewSheet("Data", []string{"A", "B", "C"}, []core.Row{
		{core.NumberValue(1, "1"), core.Missing(), core.NumberValue(3, "3")},
		{core.NumberValue(2, "2"), core.StringValue("five"), core.Missing()},
		{core.Missing(), core.NumberValue(7, "7"), core.NumberValue(8, "8")},
	})
	return core.Filter(src, core.FilterSpec{
		PrimaryColumn:    "A",
		OperationColumns: []string{"B", "C"},
		Type:             core.OpTypeOr,
		Operation:        core.OpIsNotNull,
	})
}

func TestEncode_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCodec(false).Encode(&buf, filteredSheet(), core.FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ExportSheetName}, f.GetSheetList())

	rows, err := f.GetRows(ExportSheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"A", "B", "C"},
		{"1", "NULL", "3"},
		{"2", "five", "NULL"},
	}, rows)

	styleID, err := f.GetCellStyle(ExportSheetName, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	typ, err := f.GetCellType(ExportSheetName, "A2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ, "numbers stay numeric")
}

func TestEncode_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCodec(false).Encode(&buf, filteredSheet(), core.FormatCSV))
	assert.Equal(t, "A,B,C\n1,NULL,3\n2,five,NULL\n", buf.String())

	buf.Reset()
	require.NoError(t, NewCodec(true).Encode(&buf, filteredSheet(), core.FormatCSV))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
}

func TestEncode_EmptyViewKeepsHeader(t *testing.T) {
	empty := core.NewSheet("S", []string{"A", "B"}, nil)

	var buf bytes.Buffer
	require.NoError(t, NewCodec(false).Encode(&buf, empty, core.FormatCSV))
	assert.Equal(t, "A,B\n", buf.String())
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := NewCodec(false).Encode(&buf, filteredSheet(), core.ExportFormat("pdf"))
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
	assert.Zero(t, buf.Len())
}

func TestExportRoundTrip(t *testing.T) {
	codec := NewCodec(true)
	want := core.Render(filteredSheet())

	for _, format := range []core.ExportFormat{core.FormatXLSX, core.FormatCSV} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, codec.Encode(&buf, filteredSheet(), format))

			wb, err := codec.Decode(format.FileName("download"), buf.Bytes())
			require.NoError(t, err)

			back := wb.First()
			got := core.Render(back)
			assert.Equal(t, want.Headers, got.Headers)
			assert.Equal(t, want.Rows, got.Rows)

			// NULL comes back as text, not as a gap.
			assert.Equal(t, core.KindString, back.Value(back.Rows[0], "B").Kind())
		})
	}
}

func TestExportRoundTrip_KeepsNumberText(t *testing.T) {
	codec := NewCodec(false)
	src, err := codec.Decode("prices.csv", []byte("id,zip,price,x\n1,007,1.50,NaN\n2,02134,2.00,1e3\n"))
	require.NoError(t, err)
	sheet := src.First()
	want := core.Render(sheet)

	_, ok := sheet.Rows[0][3].Number()
	assert.False(t, ok, "NaN is text")

	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, sheet, core.FormatXLSX))

	back, err := codec.Decode("download.xlsx", buf.Bytes())
	require.NoError(t, err)
	got := core.Render(back.First())
	assert.Equal(t, want.Headers, got.Headers)
	assert.Equal(t, [][]string{{"1", "007", "1.50", "NaN"}, {"2", "02134", "2.00", "1e3"}}, got.Rows)

	n, ok := back.First().Rows[0][0].Number()
	assert.True(t, ok, "canonical numbers stay numeric")
	assert.Equal(t, 1.0, n)
}
