package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "missing primary column",
			err:         ErrMissingPrimaryColumn,
			wantCode:    "FLT001",
			wantMessage: "Please enter the primary column",
		},
		{
			name:        "missing operation columns",
			err:         ErrMissingOperationColumns,
			wantCode:    "FLT002",
			wantMessage: "Please enter the columns to operate on",
		},
		{
			name:        "typed sheet error matches sentinel",
			err:         &SheetNotFoundError{Name: "Q3"},
			wantCode:    "SHT001",
			wantMessage: "That sheet does not exist in this workbook",
		},
		{
			name:        "wrapped sentinel",
			err:         fmt.Errorf("export: %w", ErrUnsupportedFormat),
			wantCode:    "EXP001",
			wantMessage: "Export format must be XLSX or CSV",
		},
		{
			name:        "malformed request body",
			err:         errors.New("invalid JSON request body"),
			wantCode:    "REQ001",
			wantMessage: "The request body is not valid JSON",
		},
		{
			name:        "load error during fetch",
			err:         &LoadError{Source: "http://x/a.xlsx", Stage: "fetch", Err: errors.New("connection refused")},
			wantCode:    "SRC002",
			wantMessage: "The file could not be downloaded or read",
		},
		{
			name:        "blocked private address",
			err:         &LoadError{Source: "http://169.254.169.254/", Stage: "fetch", Err: fmt.Errorf("dial: %w", ErrPrivateSourceDenied)},
			wantCode:    "SRC005",
			wantMessage: "Links to private or internal addresses are blocked",
		},
		{
			name:        "load error during parse",
			err:         &LoadError{Source: "a.xlsx", Stage: "parse", Err: errors.New("bad xml")},
			wantCode:    "FILE002",
			wantMessage: "The file is not a valid spreadsheet",
		},
		{
			name:        "load error wrapping sentinel prefers sentinel",
			err:         &LoadError{Source: "a.pdf", Stage: "parse", Err: ErrUnsupportedFile},
			wantCode:    "FILE001",
			wantMessage: "Only Excel (.xlsx) and CSV files can be opened",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("RATE LIMIT hit"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrSessionNotFound)

	expected := "This viewer session has expired (Code: SES001). Open the file again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: ErrNoSheets, want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
