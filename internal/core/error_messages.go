package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date: a date cell could not be read
//	         Action: Use YYYY-MM-DD or DD/MM/YYYY
//	VAL002 - Invalid number: a numeric cell could not be read
//	         Action: Remove units and use a plain decimal number
//	VAL003 - Required field: a required field is empty
//	         Action: Fill in the highlighted fields and save again
//	VAL004 - Invalid choice: a value is not in the allowed list
//	         Action: Pick one of the listed values
//	VAL005 - Validation failed: the register has invalid rows
//	         Action: Correct the listed rows and save again
//
// # Remote Errors (REM001-REM099)
//
//	REM001 - Service unreachable: the persistence service did not answer
//	REM002 - Timeout: the persistence service took too long
//	REM003 - Rejected: the persistence service refused the save
//	REM004 - Upload failed: an attachment could not be stored
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - No recognized headers: no column matches the register
//	IMP002 - Empty file: the file has no data rows
//	IMP003 - Too many rows: the file exceeds the import limit
//	IMP004 - Unreadable file: the upload is not a spreadsheet
//
// # Register Errors (REG001-REG099)
//
//	REG001 - Unknown register: the register kind is not configured
//	REG002 - Register not open: the register must be opened first
//	REG003 - Row not found: the row was deleted or never existed
//	REG004 - Unknown field: the field is not part of the register
//
// # Save Errors (SAV001-SAV099)
//
//	SAV001 - Save in progress: another save of this register is running
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Support staff should check application logs
// for the original technical error when users report ERR000.
//
// # Matching
//
// Sentinel errors are matched first with errors.Is. Remaining errors are
// matched by pattern, case-insensitively using strings.Contains; the first
// matching pattern wins, so specific patterns come before general ones.

import (
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// sentinelMessages maps package sentinels to user messages.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrSaveInProgress, UserMessage{
		Message: "This register is already being saved",
		Action:  "Wait for the current save to finish and try again",
		Code:    "SAV001",
	}},
	{ErrUnknownRegister, UserMessage{
		Message: "Unknown register",
		Action:  "This register type is not configured",
		Code:    "REG001",
	}},
	{ErrRegisterNotOpen, UserMessage{
		Message: "Register is not open",
		Action:  "Open the register for this client first",
		Code:    "REG002",
	}},
	{ErrRowNotFound, UserMessage{
		Message: "Row not found",
		Action:  "Reload the register; the row may have been deleted",
		Code:    "REG003",
	}},
	{ErrUnknownField, UserMessage{
		Message: "Unknown field",
		Action:  "This field is not part of the register",
		Code:    "REG004",
	}},
	{ErrNoRecognizedHeaders, UserMessage{
		Message: "No column in the file matches this register",
		Action:  "Download the template and use its column headers",
		Code:    "IMP001",
	}},
	{ErrEmptyImport, UserMessage{
		Message: "The file has no data rows",
		Action:  "Add rows below the header row and import again",
		Code:    "IMP002",
	}},
	{ErrTooManyRows, UserMessage{
		Message: "The file has too many rows",
		Action:  "Split the file and import it in parts",
		Code:    "IMP003",
	}},
	{ErrNoUploader, UserMessage{
		Message: "Attachments cannot be stored right now",
		Action:  "Remove the new attachment or contact support",
		Code:    "REM004",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	// Validation
	{"invalid date", UserMessage{"Invalid date format detected", "Use YYYY-MM-DD or DD/MM/YYYY", "VAL001"}},
	{"invalid number", UserMessage{"Invalid number format detected", "Remove units and use a plain decimal number", "VAL002"}},
	{"required field", UserMessage{"Required field is empty", "Fill in the highlighted fields and save again", "VAL003"}},
	{"value must be one of", UserMessage{"Value is not in the allowed list", "Pick one of the listed values", "VAL004"}},
	{"validation failed", UserMessage{"Some rows are not valid", "Correct the listed rows and save again", "VAL005"}},

	// Remote
	{"connection refused", UserMessage{"Unable to reach the register service", "Please try again in a few moments", "REM001"}},
	{"no such host", UserMessage{"Unable to reach the register service", "Please try again in a few moments", "REM001"}},
	{"deadline exceeded", UserMessage{"The register service took too long to respond", "Please try again", "REM002"}},
	{"timeout", UserMessage{"The register service took too long to respond", "Please try again", "REM002"}},
	{"upload", UserMessage{"An attachment could not be stored", "Check the file and try again", "REM004"}},
	{"remote service", UserMessage{"The register service refused the change", "Review the message and try again", "REM003"}},

	// Import
	{"not a spreadsheet", UserMessage{"The file could not be read", "Upload an .xlsx file", "IMP004"}},
	{"no header row", UserMessage{"The file has no data rows", "Add a header row and data rows, then import again", "IMP002"}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If nothing matches, a generic fallback message with code ERR000 is returned.
//
// Example:
//
//	msg := MapError(fmt.Errorf("edit: %w", ErrRowNotFound))
//	// msg.Code == "REG003"
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
