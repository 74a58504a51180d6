// Package core provides the business logic for pasting, sorting and sharing tabular data.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code when reporting a problem.
//
// Error codes are grouped by category:
//
// # Parse Errors (PARSE001-PARSE099)
//
//	PARSE001 - Empty input: Nothing to sort yet
//	           Action: Paste at least one value, or a header line plus data lines
//	           Patterns: "empty input"
//
//	PARSE002 - Input too large: The pasted data exceeds the size limit
//	           Action: Split the data and sort it in parts
//	           Patterns: "input too large"
//
// # Rule Errors (RULE001-RULE099)
//
//	RULE001 - Unknown column: A sort rule references a column that does not exist
//	          Action: Pick one of the dataset's columns
//	          Patterns: "column not found"
//
//	RULE002 - Invalid rule: Direction or type is not supported
//	          Action: Use asc/desc and one of alpha, numeric, date, length
//	          Patterns: "invalid sort rule"
//
//	RULE003 - No dataset: There is no data to apply rules to
//	          Action: Paste data first
//	          Patterns: "no dataset loaded"
//
// # Share Errors (SHARE001-SHARE099)
//
//	SHARE001 - Invalid link: The link is invalid or the data could not be decoded
//	           Action: Ask the sender for a fresh link
//	           Patterns: "could not be decoded"
//
//	SHARE002 - Payload too large: The dataset is too large to fit in a link
//	           Action: Remove rows or columns before sharing
//	           Patterns: "payload too large"
//
//	SHARE003 - Busy: Too many links are being generated right now
//	           Action: Please wait a moment and try again
//	           Patterns: "share requests in progress"
//
// # History Errors (HIST001-HIST099)
//
//	HIST001 - Not found: The history entry does not exist
//	          Action: Refresh the history list
//	          Patterns: "history entry not found"
//
//	HIST002 - Storage unavailable: History could not be read or written
//	          Action: Please try again in a few moments
//	          Patterns: "history store", "connection refused", "connection reset"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled: Request was cancelled
//	         Patterns: "context canceled"
//
//	REQ002 - Request timeout: Request timed out
//	         Patterns: "context deadline exceeded", "timeout"
//
//	REQ003 - Bad request: The request body could not be read
//	         Patterns: "invalid request body"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns come first.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Share Errors (SHARE001-SHARE003)
	// Checked first: decode errors wrap lower-level messages.
	// =========================================================================
	{
		pattern: "could not be decoded",
		msg: UserMessage{
			Message: "This link is invalid or the data could not be decoded",
			Action:  "Ask the sender for a fresh link",
			Code:    "SHARE001",
		},
	},
	{
		pattern: "payload too large",
		msg: UserMessage{
			Message: "The dataset is too large to fit in a link",
			Action:  "Remove rows or columns before sharing",
			Code:    "SHARE002",
		},
	},
	{
		pattern: "share requests in progress",
		msg: UserMessage{
			Message: "Too many links are being generated right now",
			Action:  "Please wait a moment and try again",
			Code:    "SHARE003",
		},
	},

	// =========================================================================
	// Parse Errors (PARSE001-PARSE002)
	// =========================================================================
	{
		pattern: "empty input",
		msg: UserMessage{
			Message: "Nothing to sort yet",
			Action:  "Paste at least one value, or a header line plus data lines",
			Code:    "PARSE001",
		},
	},
	{
		pattern: "input too large",
		msg: UserMessage{
			Message: "The pasted data exceeds the size limit",
			Action:  "Split the data and sort it in parts",
			Code:    "PARSE002",
		},
	},

	// =========================================================================
	// Rule Errors (RULE001-RULE003)
	// =========================================================================
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "A sort rule references a column that does not exist",
			Action:  "Pick one of the dataset's columns",
			Code:    "RULE001",
		},
	},
	{
		pattern: "invalid sort rule",
		msg: UserMessage{
			Message: "Sort rule is not valid",
			Action:  "Use asc/desc and one of alpha, numeric, date, length",
			Code:    "RULE002",
		},
	},
	{
		pattern: "no dataset loaded",
		msg: UserMessage{
			Message: "There is no data to apply rules to",
			Action:  "Paste data first",
			Code:    "RULE003",
		},
	},

	// =========================================================================
	// History Errors (HIST001-HIST002)
	// =========================================================================
	{
		pattern: "history entry not found",
		msg: UserMessage{
			Message: "History entry not found",
			Action:  "Refresh the history list",
			Code:    "HIST001",
		},
	},
	{
		pattern: "history store",
		msg: UserMessage{
			Message: "History could not be read or written",
			Action:  "Please try again in a few moments",
			Code:    "HIST002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "History storage is unavailable",
			Action:  "Please try again in a few moments",
			Code:    "HIST002",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "History storage connection was interrupted",
			Action:  "Please try again",
			Code:    "HIST002",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ003)
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try again with less data",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try again with less data",
			Code:    "REQ002",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Check that the request body is valid JSON",
			Code:    "REQ003",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first matching pattern, or ERR000 when none match.
//
// Example:
//
//	msg := MapError(core.ErrEmptyInput)
//	// msg.Code == "PARSE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
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

// IsUserFacing reports whether err matches a known pattern rather than the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
