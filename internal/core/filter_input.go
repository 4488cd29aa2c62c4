package core

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FilterInput is the raw filter form as typed by a user.
type FilterInput struct {
	PrimaryColumn    string `json:"primaryColumn" validate:"required"`
	OperationColumns string `json:"operationColumns" validate:"required"`
	OperationType    string `json:"operationType" validate:"omitempty,oneof=and or"`
	Operation        string `json:"operation" validate:"omitempty,oneof=null notnull"`
}

// ExportInput is the raw export form.
type ExportInput struct {
	Filename string `json:"filename" validate:"omitempty,max=200"`
	Format   string `json:"format" validate:"required,oneof=xlsx csv"`
}

// DefaultExportName is used when the user leaves the file name blank.
const DefaultExportName = "download"

// MaxExportNameLength caps export file names, in characters. Longer names
// are cut rather than rejected.
const MaxExportNameLength = 200

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseFilterInput normalizes and validates user input into a FilterSpec.
// Operation columns are split on commas and trimmed; blank entries are
// dropped. Operation type defaults to AND and operation to not-null.
func ParseFilterInput(in FilterInput) (FilterSpec, error) {
	in.PrimaryColumn = strings.TrimSpace(in.PrimaryColumn)
	in.OperationColumns = strings.TrimSpace(in.OperationColumns)
	in.OperationType = normalizeToken(in.OperationType)
	in.Operation = normalizeToken(in.Operation)

	cols := SplitColumns(in.OperationColumns)
	if len(cols) == 0 {
		// "," alone passes the required check but names no column
		in.OperationColumns = ""
	}

	if err := validate.Struct(in); err != nil {
		return FilterSpec{}, filterValidationError(err)
	}

	spec := FilterSpec{
		PrimaryColumn:    in.PrimaryColumn,
		OperationColumns: cols,
		Type:             OpTypeAnd,
		Operation:        OpIsNotNull,
	}
	if in.OperationType != "" {
		spec.Type = OperationType(in.OperationType)
	}
	if in.Operation != "" {
		spec.Operation = Operation(in.Operation)
	}
	return spec, nil
}

// SplitColumns splits a comma-separated column list, trimming each entry
// and dropping blanks.
func SplitColumns(s string) []string {
	var cols []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			cols = append(cols, part)
		}
	}
	return cols
}

// normalizeToken lowercases and accepts the long spellings of the enums.
func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "is_null", "isnull":
		return string(OpIsNull)
	case "not_null", "is_not_null", "isnotnull", "not-null":
		return string(OpIsNotNull)
	}
	return s
}

func filterValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	switch verrs[0].Field() {
	case "primaryColumn":
		return ErrMissingPrimaryColumn
	case "operationColumns":
		return ErrMissingOperationColumns
	case "operationType":
		return ErrInvalidOperationType
	default:
		return ErrInvalidOperation
	}
}

// ParseExportInput validates the export form and returns the format and
// the bare file name (without extension).
func ParseExportInput(in ExportInput) (ExportFormat, string, error) {
	in.Format = strings.ToLower(strings.TrimSpace(in.Format))
	in.Filename = SanitizeFilename(in.Filename)

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() == "format" {
			return "", "", ErrUnsupportedFormat
		}
		return "", "", err
	}
	if in.Filename == "" {
		in.Filename = DefaultExportName
	}
	return ExportFormat(in.Format), in.Filename, nil
}

// SanitizeFilename trims a requested file name and strips characters that
// would escape the download directory or break Content-Disposition. A
// trailing extension matching an export format is removed and the result is
// cut to MaxExportNameLength characters.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', '\'', ':', '*', '?', '<', '>', '|':
			return -1
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	lower := strings.ToLower(name)
	for _, f := range []ExportFormat{FormatXLSX, FormatCSV} {
		if strings.HasSuffix(lower, "."+string(f)) {
			name = name[:len(name)-len(f)-1]
			break
		}
	}
	name = strings.Trim(name, ". ")
	if runes := []rune(name); len(runes) > MaxExportNameLength {
		name = strings.TrimRight(string(runes[:MaxExportNameLength]), ". ")
	}
	return name
}

// ExportFormat is an output file type.
type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
)

// ParseExportFormat returns ErrUnsupportedFormat for anything but xlsx/csv.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatCSV:
		return f, nil
	}
	return "", ErrUnsupportedFormat
}

// FileName returns "<name>.<format>".
func (f ExportFormat) FileName(name string) string {
	return name + "." + string(f)
}

// ContentType returns the MIME type for downloads.
func (f ExportFormat) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
