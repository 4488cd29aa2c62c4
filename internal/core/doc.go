// Package core provides the business logic for viewing and filtering
// spreadsheet data.
//
// This package is independent of any UI or transport layer. It can be used by
// web handlers, the CLI, or tests without modification.
//
// # Data Model
//
// A [Workbook] is an ordered set of named [Sheet] values. Each sheet has an
// ordered column list and rows whose cells are [Value]s. A value is a string,
// a number, or missing. Empty strings are missing.
//
// # Filtering
//
// [Filter] keeps rows whose primary column is present and whose operation
// columns pass a null or not-null check, combined with AND or OR:
//
//	spec := core.FilterSpec{
//	    PrimaryColumn:    "ID",
//	    OperationColumns: []string{"Email", "Phone"},
//	    Type:             core.OpTypeOr,
//	    Operation:        core.OpIsNotNull,
//	}
//	view := core.Filter(sheet, spec)
//
// Kept rows are projected to the primary column followed by the operation
// columns. The input sheet is never modified.
//
// # Rendering
//
// [Render] turns a sheet into a [DisplayTable]. Missing values render as the
// literal string [NullDisplay]. The missing marker itself never leaves this
// package as a string; it is converted only in [Render] and [Value.Display].
//
// # Sessions
//
// A [Session] holds the state of one viewer: the loaded workbook, the
// selected sheet and the current filtered view. [Service] owns sessions and
// evicts idle ones via [Service.StartSessionSweeper].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code prefix for support reference:
//
//   - SRC001-SRC005: Source fetch errors
//   - FILE001-FILE004: File format errors
//   - FLT001-FLT004: Filter input errors
//   - SHT001: Sheet selection errors
//   - EXP001: Export errors
//   - SES001-SES002: Session errors
//   - REQ001, RATE001: Request errors
package core
