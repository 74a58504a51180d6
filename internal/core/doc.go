// Package core provides the business logic for pasting, sorting and sharing tabular data.
//
// This package is the heart of the application, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// the CLI, or tests without modification.
//
// # Architecture
//
// The package is organized around three pure operations:
//
//   - Parse: Turns pasted text into columns and rows, detecting the
//     delimiter (tab, comma, pipe, semicolon) from the first line.
//   - DetectType: Samples a column and picks a comparison strategy
//     (alpha, numeric, date, length).
//   - SortRows: Applies prioritized SortRules and returns a new, stably
//     sorted slice.
//
// None of them share state, so they are safe to call from any goroutine.
// Share tokens are produced by package share; history lives in package history.
//
// # Workspace
//
// [Workspace] wraps the operations in an explicit state machine for frontends:
//
//	ws := core.NewWorkspace()
//	if _, err := ws.Paste(text); err != nil {
//	    // core.ErrEmptyInput: ask for more data
//	}
//	ws.ToggleColumn("Age")
//	payload, _ := ws.SharePayload()
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - PARSE001-PARSE002: Paste errors (empty, too large)
//   - RULE001-RULE003: Sort rule errors
//   - SHARE001-SHARE003: Share link errors
//   - HIST001-HIST002: History errors
//
// Values a comparator cannot read (e.g. "n/a" in a numeric column) are not
// errors: they sort after every readable value.
package core
