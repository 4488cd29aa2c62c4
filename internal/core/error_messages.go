package core

// # Error Codes Reference
//
// User-facing messages with codes for support reference. Users can quote the
// code when reporting a problem.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - No source: No file reference was given
//	         Action: Pass ?fileUrl=... or upload a file
//	SRC002 - Fetch failed: The file could not be downloaded or read
//	         Action: Check the URL or path and try again
//	SRC003 - Local denied: Local file paths are disabled on this server
//	         Action: Use an http(s) URL or upload the file
//	SRC004 - Too large: File exceeds the configured size limit
//	         Action: Filter the file down before loading it
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Unsupported type: Only .xlsx and .csv files can be opened
//	FILE002 - Invalid spreadsheet: The file could not be parsed
//	FILE003 - No sheets: The workbook contains no sheets
//	FILE004 - Busy: Too many files are being loaded at once
//
// # Filter Errors (FLT001-FLT099)
//
//	FLT001 - Missing primary column
//	FLT002 - Missing operation columns
//	FLT003 - Invalid operation type (must be and/or)
//	FLT004 - Invalid operation (must be null/notnull)
//
// # Sheet, Export and Session Errors
//
//	SHT001 - Sheet not found
//	EXP001 - Unsupported export format (must be xlsx/csv)
//	SES001 - Session not found or expired
//	SES002 - Too many sessions open
//	RATE001 - Too many requests
//	REQ001 - API request body is not valid JSON
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check application logs for the technical
// error.
//
// # Matching
//
// Sentinel errors are matched with errors.Is first. Remaining errors are
// matched case-insensitively on message patterns; the first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

// sentinelMessages is checked in order with errors.Is.
var sentinelMessages = []sentinelMessage{
	{ErrEmptySource, UserMessage{
		Message: "No spreadsheet was specified",
		Action:  "Open the page with ?fileUrl=<link to file> or upload a file",
		Code:    "SRC001",
	}},
	{ErrLocalSourceDenied, UserMessage{
		Message: "Local file paths are disabled on this server",
		Action:  "Use an http(s) link or upload the file instead",
		Code:    "SRC003",
	}},
	{ErrPrivateSourceDenied, UserMessage{
		Message: "Links to private or internal addresses are blocked",
		Action:  "Use a publicly reachable link or upload the file instead",
		Code:    "SRC005",
	}},
	{ErrSourceTooLarge, UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Reduce the file size and try again",
		Code:    "SRC004",
	}},
	{ErrUnsupportedFile, UserMessage{
		Message: "Only Excel (.xlsx) and CSV files can be opened",
		Action:  "Save the file as .xlsx or .csv and try again",
		Code:    "FILE001",
	}},
	{ErrNoSheets, UserMessage{
		Message: "The workbook contains no sheets",
		Action:  "Check that the file is not empty",
		Code:    "FILE003",
	}},
	{ErrTooManyLoads, UserMessage{
		Message: "Too many files are being opened right now",
		Action:  "Please wait a moment and try again",
		Code:    "FILE004",
	}},
	{ErrMissingPrimaryColumn, UserMessage{
		Message: "Please enter the primary column",
		Action:  "Type the name of the column every kept row must have",
		Code:    "FLT001",
	}},
	{ErrMissingOperationColumns, UserMessage{
		Message: "Please enter the columns to operate on",
		Action:  "Type one or more column names separated by commas",
		Code:    "FLT002",
	}},
	{ErrInvalidOperationType, UserMessage{
		Message: "Operation type must be AND or OR",
		Action:  "Choose AND or OR",
		Code:    "FLT003",
	}},
	{ErrInvalidOperation, UserMessage{
		Message: "Operation must be Null or Not Null",
		Action:  "Choose Null or Not Null",
		Code:    "FLT004",
	}},
	{ErrSheetNotFound, UserMessage{
		Message: "That sheet does not exist in this workbook",
		Action:  "Pick a sheet from the list",
		Code:    "SHT001",
	}},
	{ErrUnsupportedFormat, UserMessage{
		Message: "Export format must be XLSX or CSV",
		Action:  "Choose XLSX or CSV",
		Code:    "EXP001",
	}},
	{ErrSessionNotFound, UserMessage{
		Message: "This viewer session has expired",
		Action:  "Open the file again",
		Code:    "SES001",
	}},
	{ErrTooManySessions, UserMessage{
		Message: "Too many files are open on this server",
		Action:  "Please try again later",
		Code:    "SES002",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. More specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "(fetch)",
		msg: UserMessage{
			Message: "The file could not be downloaded or read",
			Action:  "Check the link or path and try again",
			Code:    "SRC002",
		},
	},
	{
		pattern: "(parse)",
		msg: UserMessage{
			Message: "The file is not a valid spreadsheet",
			Action:  "Open it in Excel, save as .xlsx or .csv and try again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "zip: not a valid zip file",
		msg: UserMessage{
			Message: "The file is not a valid spreadsheet",
			Action:  "Open it in Excel, save as .xlsx or .csv and try again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid json",
		msg: UserMessage{
			Message: "The request body is not valid JSON",
			Action:  "Send a JSON object with the documented fields",
			Code:    "REQ001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error into a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
