// Package spreadsheet reads and writes the file formats the viewer accepts.
//
// Workbooks are decoded into core.Workbook values: .xlsx through excelize and
// .csv through encoding/csv, with legacy text encodings handled by
// golang.org/x/text. Exports go the other way for a single filtered sheet.
package spreadsheet

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/JonMunkholm/sheetview/internal/core"
)

// Format is an input file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatXLSX
	FormatCSV
)

func (f Format) String() string {
	switch f {
	case FormatXLSX:
		return "xlsx"
	case FormatCSV:
		return "csv"
	}
	return "unknown"
}

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFormat picks a decoder from the file name, falling back to the
// leading bytes when the extension is missing or unknown. name may be a URL;
// its query string is ignored.
func DetectFormat(name string, data []byte) (Format, error) {
	switch ext := extension(name); ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FormatXLSX, nil
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".xls", ".xlsb", ".ods", ".numbers":
		return FormatUnknown, fmt.Errorf("%s: %w", ext, core.ErrUnsupportedFile)
	}

	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(data, oleMagic):
		return FormatUnknown, fmt.Errorf("legacy binary workbook: %w", core.ErrUnsupportedFile)
	case looksLikeText(data):
		return FormatCSV, nil
	}
	return FormatUnknown, core.ErrUnsupportedFile
}

func extension(name string) string {
	if u, err := url.Parse(name); err == nil && u.Scheme != "" && u.Path != "" {
		name = u.Path
	}
	return strings.ToLower(path.Ext(strings.ReplaceAll(name, `\`, "/")))
}

// looksLikeText reports whether the first block of data has no NUL bytes.
// UTF-16 input is recognised by its byte order mark.
func looksLikeText(data []byte) bool {
	if hasUTF16BOM(data) {
		return true
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.IndexByte(head, 0) < 0
}
