package core

import (
	"context"
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
			name:        "empty input maps correctly",
			err:         ErrEmptyInput,
			wantCode:    "PARSE001",
			wantMessage: "Nothing to sort yet",
		},
		{
			name:        "wrapped input too large maps correctly",
			err:         fmt.Errorf("%w: exceeds 10 bytes", ErrInputTooLarge),
			wantCode:    "PARSE002",
			wantMessage: "The pasted data exceeds the size limit",
		},
		{
			name:        "unknown column maps correctly",
			err:         fmt.Errorf("rule 1: %w: %q", ErrUnknownColumn, "Height"),
			wantCode:    "RULE001",
			wantMessage: "A sort rule references a column that does not exist",
		},
		{
			name:        "invalid rule maps correctly",
			err:         ErrInvalidRule,
			wantCode:    "RULE002",
			wantMessage: "Sort rule is not valid",
		},
		{
			name:        "no dataset maps correctly",
			err:         ErrNoDataset,
			wantCode:    "RULE003",
			wantMessage: "There is no data to apply rules to",
		},
		{
			name:        "decode failure maps correctly",
			err:         errors.New("share link could not be decoded: inflate: unexpected EOF"),
			wantCode:    "SHARE001",
			wantMessage: "This link is invalid or the data could not be decoded",
		},
		{
			name:        "payload too large maps correctly",
			err:         errors.New("payload too large: 9 bytes exceeds 8"),
			wantCode:    "SHARE002",
			wantMessage: "The dataset is too large to fit in a link",
		},
		{
			name:        "busy maps correctly",
			err:         errors.New("too many share requests in progress, please try again"),
			wantCode:    "SHARE003",
			wantMessage: "Too many links are being generated right now",
		},
		{
			name:        "history not found maps correctly",
			err:         errors.New("history entry not found: abc"),
			wantCode:    "HIST001",
			wantMessage: "History entry not found",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "HIST002",
			wantMessage: "History storage is unavailable",
		},
		{
			name:        "canceled maps correctly",
			err:         context.Canceled,
			wantCode:    "REQ001",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "deadline maps correctly",
			err:         context.DeadlineExceeded,
			wantCode:    "REQ002",
			wantMessage: "Request timed out",
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
			err:         errors.New("EMPTY INPUT"),
			wantCode:    "PARSE001",
			wantMessage: "Nothing to sort yet",
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
	result := FormatUserError(ErrEmptyInput)

	expected := "Nothing to sort yet (Code: PARSE001). Paste at least one value, or a header line plus data lines"
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
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  ErrUnknownColumn,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("paste: %w", ErrEmptyInput)
		userErr := NewUserError(techErr)

		if userErr.Error() != "Nothing to sort yet" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, ErrEmptyInput) {
			t.Error("Unwrap() should return original error")
		}
	})
}
