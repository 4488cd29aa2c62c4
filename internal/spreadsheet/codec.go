package spreadsheet

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/sheetview/internal/core"
)

// Codec implements core.Codec for xlsx and csv.
type Codec struct {
	// CSVBOM prefixes CSV exports with a UTF-8 byte order mark so Excel
	// opens them with the right encoding.
	CSVBOM bool
}

// NewCodec returns a Codec.
func NewCodec(csvBOM bool) *Codec {
	return &Codec{CSVBOM: csvBOM}
}

// Decode parses data as a workbook. name is used for format detection.
func (c *Codec) Decode(name string, data []byte) (*core.Workbook, error) {
	format, err := DetectFormat(name, data)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return decodeXLSX(data)
	case FormatCSV:
		return decodeCSV(data)
	}
	return nil, core.ErrUnsupportedFile
}

// Encode writes sheet to w in the requested export format.
func (c *Codec) Encode(w io.Writer, sheet *core.Sheet, format core.ExportFormat) error {
	switch format {
	case core.FormatXLSX:
		return encodeXLSX(w, sheet)
	case core.FormatCSV:
		return encodeCSV(w, sheet, c.CSVBOM)
	}
	return fmt.Errorf("%q: %w", format, core.ErrUnsupportedFormat)
}
