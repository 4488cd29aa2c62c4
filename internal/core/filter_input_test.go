package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilterInput(t *testing.T) {
	tests := []struct {
		name    string
		in      FilterInput
		want    FilterSpec
		wantErr error
	}{
		{
			name: "trims and splits columns",
			in:   FilterInput{PrimaryColumn: " id ", OperationColumns: " a , b,c ", OperationType: "OR", Operation: "null"},
			want: FilterSpec{PrimaryColumn: "id", OperationColumns: []string{"a", "b", "c"}, Type: OpTypeOr, Operation: OpIsNull},
		},
		{
			name: "defaults to and not-null",
			in:   FilterInput{PrimaryColumn: "id", OperationColumns: "a"},
			want: FilterSpec{PrimaryColumn: "id", OperationColumns: []string{"a"}, Type: OpTypeAnd, Operation: OpIsNotNull},
		},
		{
			name: "long operation spelling",
			in:   FilterInput{PrimaryColumn: "id", OperationColumns: "a", Operation: "IS_NOT_NULL"},
			want: FilterSpec{PrimaryColumn: "id", OperationColumns: []string{"a"}, Type: OpTypeAnd, Operation: OpIsNotNull},
		},
		{
			name: "blank entries dropped",
			in:   FilterInput{PrimaryColumn: "id", OperationColumns: "a,, ,b"},
			want: FilterSpec{PrimaryColumn: "id", OperationColumns: []string{"a", "b"}, Type: OpTypeAnd, Operation: OpIsNotNull},
		},
		{
			name:    "blank primary",
			in:      FilterInput{PrimaryColumn: "   ", OperationColumns: "a"},
			wantErr: ErrMissingPrimaryColumn,
		},
		{
			name:    "blank columns",
			in:      FilterInput{PrimaryColumn: "id", OperationColumns: "  "},
			wantErr: ErrMissingOperationColumns,
		},
		{
			name:    "only commas",
			in:      FilterInput{PrimaryColumn: "id", OperationColumns: " , ,"},
			wantErr: ErrMissingOperationColumns,
		},
		{
			name:    "both blank reports primary first",
			in:      FilterInput{},
			wantErr: ErrMissingPrimaryColumn,
		},
		{
			name:    "bad type",
			in:      FilterInput{PrimaryColumn: "id", OperationColumns: "a", OperationType: "xor"},
			wantErr: ErrInvalidOperationType,
		},
		{
			name:    "bad operation",
			in:      FilterInput{PrimaryColumn: "id", OperationColumns: "a", Operation: "empty"},
			wantErr: ErrInvalidOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilterInput(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseExportInput(t *testing.T) {
	tests := []struct {
		name       string
		in         ExportInput
		wantFormat ExportFormat
		wantName   string
		wantErr    error
	}{
		{name: "blank name defaults", in: ExportInput{Format: "xlsx"}, wantFormat: FormatXLSX, wantName: "download"},
		{name: "csv upper case", in: ExportInput{Filename: "report", Format: "CSV"}, wantFormat: FormatCSV, wantName: "report"},
		{name: "extension stripped", in: ExportInput{Filename: "q3.xlsx", Format: "xlsx"}, wantFormat: FormatXLSX, wantName: "q3"},
		{name: "path stripped", in: ExportInput{Filename: "../../etc/passwd", Format: "csv"}, wantFormat: FormatCSV, wantName: "etcpasswd"},
		{name: "only junk defaults", in: ExportInput{Filename: " /\\ ", Format: "csv"}, wantFormat: FormatCSV, wantName: "download"},
		{name: "unsupported format", in: ExportInput{Filename: "x", Format: "pdf"}, wantErr: ErrUnsupportedFormat},
		{name: "missing format", in: ExportInput{Filename: "x"}, wantErr: ErrUnsupportedFormat},
		{name: "long name cut", in: ExportInput{Filename: strings.Repeat("a", 250), Format: "csv"}, wantFormat: FormatCSV, wantName: strings.Repeat("a", 200)},
		{name: "long multibyte name cut", in: ExportInput{Filename: strings.Repeat("é", 201) + ".xlsx", Format: "xlsx"}, wantFormat: FormatXLSX, wantName: strings.Repeat("é", 200)},
		{name: "cut lands on a dot", in: ExportInput{Filename: strings.Repeat("b", 199) + ".." + "tail", Format: "csv"}, wantFormat: FormatCSV, wantName: strings.Repeat("b", 199)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, name, err := ParseExportInput(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, format)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantName+"."+string(tt.wantFormat), format.FileName(name))
		})
	}
}

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseExportFormat("ods")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
