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
			name:        "wrapped save in progress",
			err:         fmt.Errorf("save categories: %w", ErrSaveInProgress),
			wantCode:    "SAV001",
			wantMessage: "This register is already being saved",
		},
		{
			name:        "row not found",
			err:         fmt.Errorf("%w: new-123", ErrRowNotFound),
			wantCode:    "REG003",
			wantMessage: "Row not found",
		},
		{
			name:        "unknown register",
			err:         fmt.Errorf("%w: widgets", ErrUnknownRegister),
			wantCode:    "REG001",
			wantMessage: "Unknown register",
		},
		{
			name:        "no recognized headers",
			err:         ErrNoRecognizedHeaders,
			wantCode:    "IMP001",
			wantMessage: "No column in the file matches this register",
		},
		{
			name:        "validation errors map by their first problem",
			err:         ValidationErrors{{Index: 0, Field: "category", Message: "required field is empty"}},
			wantCode:    "VAL003",
			wantMessage: "Required field is empty",
		},
		{
			name:        "import error with bad date",
			err:         &ImportError{Line: 2, Header: "Date of Placing", Value: "31/31/2024", Reason: "invalid date"},
			wantCode:    "VAL001",
			wantMessage: "Invalid date format detected",
		},
		{
			name:        "connection refused",
			err:         errors.New("Post \"http://x/registers\": dial tcp: connection refused"),
			wantCode:    "REM001",
			wantMessage: "Unable to reach the register service",
		},
		{
			name:        "deadline exceeded",
			err:         errors.New("context deadline exceeded"),
			wantCode:    "REM002",
			wantMessage: "The register service took too long to respond",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("INVALID NUMBER in column"),
			wantCode:    "VAL002",
			wantMessage: "Invalid number format detected",
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
