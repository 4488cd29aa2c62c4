package core

import (
	"errors"
	"fmt"
)

var (
	// ErrSheetNotFound matches any *SheetNotFoundError via errors.Is.
	ErrSheetNotFound = errors.New("sheet not found")

	ErrSessionNotFound   = errors.New("session not found")
	ErrTooManySessions   = errors.New("too many open sessions")
	ErrNoSheets          = errors.New("workbook has no sheets")
	ErrEmptySource       = errors.New("no file reference provided")
	ErrSourceTooLarge    = errors.New("file too large")
	ErrUnsupportedFile   = errors.New("unsupported file type")
	ErrLocalSourceDenied = errors.New("local file access is disabled")

	ErrPrivateSourceDenied = errors.New("source address is not public")

	ErrMissingPrimaryColumn    = errors.New("primary column is required")
	ErrMissingOperationColumns = errors.New("operation columns are required")
	ErrInvalidOperationType    = errors.New("invalid operation type")
	ErrInvalidOperation        = errors.New("invalid operation")

	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// SheetNotFoundError is returned when a sheet name is not in the workbook.
type SheetNotFoundError struct {
	Name string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet not found: %q", e.Name)
}

// Is lets errors.Is(err, ErrSheetNotFound) match.
func (e *SheetNotFoundError) Is(target error) bool {
	return target == ErrSheetNotFound
}

// LoadError wraps a failure to fetch or parse a workbook.
type LoadError struct {
	Source string
	Stage  string // "fetch" or "parse"
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s (%s): %v", e.Source, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
