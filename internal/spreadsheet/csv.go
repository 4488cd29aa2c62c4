package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/JonMunkholm/sheetview/internal/core"
)

// CSVSheetName is the name given to the only sheet of a CSV file.
const CSVSheetName = "Sheet1"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func hasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF})
}

// decodeText returns data as UTF-8. A UTF-8 BOM is dropped, UTF-16 is
// detected by its BOM, and anything else that is not valid UTF-8 is read as
// Windows-1252.
func decodeText(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		return data[len(utf8BOM):], nil
	case hasUTF16BOM(data):
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode utf-16: %w", err)
		}
		return out, nil
	case utf8.Valid(data):
		return data, nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode windows-1252: %w", err)
	}
	return out, nil
}

// sniffDelimiter picks the most frequent of comma, semicolon and tab in the
// first line. Ties go to the comma.
func sniffDelimiter(text []byte) rune {
	line := text
	if i := bytes.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte{byte(d)}); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// decodeCSV parses a delimited text file as a one-sheet workbook.
func decodeCSV(data []byte) (*core.Workbook, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	sheet := buildSheet(CSVSheetName, records, func(_, _ int, text string) core.Value {
		return core.ParseValue(text)
	})
	return core.NewWorkbook(sheet), nil
}

// encodeCSV writes sheet with a header line. Missing cells are written as
// NULL. withBOM prefixes a UTF-8 byte order mark for Excel.
func encodeCSV(w io.Writer, sheet *core.Sheet, withBOM bool) error {
	bw := bufio.NewWriter(w)
	if withBOM {
		if _, err := bw.Write(utf8BOM); err != nil {
			return err
		}
	}

	cw := csv.NewWriter(bw)
	if err := cw.Write(sheet.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(sheet.Columns))
	for i, row := range sheet.Rows {
		for j, v := range row {
			record[j] = v.Display()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}
