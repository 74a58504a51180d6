package core

// workspace.go models the paste → edit → share flow as an explicit state
// machine. Frontends drive it with events instead of juggling loose fields:
//
//	StateEmpty   --dataParsed--> StateEditing
//	StateEditing --dataParsed--> StateEditing (new dataset, new ID)
//	StateEditing --cleared-----> StateEmpty
//
// A Workspace is not safe for concurrent use.

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// WorkspaceState is the state of a Workspace.
type WorkspaceState string

const (
	StateEmpty   WorkspaceState = "empty"
	StateEditing WorkspaceState = "editing"
)

// WorkspaceEvent is an input to the Workspace state machine.
type WorkspaceEvent string

const (
	EventDataParsed WorkspaceEvent = "dataParsed"
	EventCleared    WorkspaceEvent = "cleared"
)

// ErrNoDataset is returned by operations that need a dataset in StateEmpty.
var ErrNoDataset = errors.New("no dataset loaded")

// Workspace holds the dataset a user is currently working on.
type Workspace struct {
	state   WorkspaceState
	id      string
	dataset Dataset
	now     func() time.Time
}

// NewWorkspace returns an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{state: StateEmpty, now: time.Now}
}

// State returns the current state.
func (w *Workspace) State() WorkspaceState {
	return w.state
}

// ID returns the identifier of the current dataset, or "" when empty.
func (w *Workspace) ID() string {
	return w.id
}

// Dataset returns the current dataset with rows in their original order.
func (w *Workspace) Dataset() Dataset {
	return w.dataset
}

// transition applies an event and returns the next state.
func transition(s WorkspaceState, e WorkspaceEvent) WorkspaceState {
	switch e {
	case EventDataParsed:
		return StateEditing
	case EventCleared:
		return StateEmpty
	}
	return s
}

// Paste parses raw text and replaces the dataset with a fresh one carrying a
// new identity and the default rules. On ErrEmptyInput the workspace is unchanged.
func (w *Workspace) Paste(raw string) (*ParseResult, error) {
	res, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	w.id = uuid.NewString()
	w.dataset = Dataset{
		Columns:   res.Columns,
		Rows:      res.Rows,
		SortRules: DefaultRules(res.Columns, res.Rows),
		CreatedAt: w.now().UnixMilli(),
	}
	w.state = transition(w.state, EventDataParsed)
	return res, nil
}

// Restore loads a history entry, keeping its identity.
func (w *Workspace) Restore(e HistoryEntry) {
	w.id = e.ID
	w.dataset = e.Dataset()
	w.state = transition(w.state, EventDataParsed)
}

// Import loads a decoded share payload as a new dataset.
func (w *Workspace) Import(p SharePayload) {
	w.id = uuid.NewString()
	w.dataset = Dataset{
		Columns:   p.Columns,
		Rows:      p.Rows,
		SortRules: p.SortRules,
		Label:     p.Label,
		CreatedAt: w.now().UnixMilli(),
	}
	w.state = transition(w.state, EventDataParsed)
}

// Clear drops the dataset.
func (w *Workspace) Clear() {
	w.id = ""
	w.dataset = Dataset{}
	w.state = transition(w.state, EventCleared)
}

// SetLabel sets the dataset label.
func (w *Workspace) SetLabel(label string) error {
	if w.state != StateEditing {
		return ErrNoDataset
	}
	w.dataset.Label = label
	return nil
}

// SetRules replaces the sort rules after validating them against the columns.
func (w *Workspace) SetRules(rules []SortRule) error {
	if w.state != StateEditing {
		return ErrNoDataset
	}
	if err := ValidateRules(rules, w.dataset.Columns); err != nil {
		return err
	}
	w.dataset.SortRules = append([]SortRule(nil), rules...)
	return nil
}

// ToggleColumn advances the header-click cycle for column.
func (w *Workspace) ToggleColumn(column string) error {
	if w.state != StateEditing {
		return ErrNoDataset
	}
	if err := ValidateRules([]SortRule{{Column: column, Direction: Asc, Type: SortAlpha}}, w.dataset.Columns); err != nil {
		return err
	}
	w.dataset.SortRules = ToggleColumn(w.dataset.SortRules, column, w.dataset.Rows)
	return nil
}

// Sorted returns the dataset with rows ordered by its rules.
func (w *Workspace) Sorted() Dataset {
	ds := w.dataset
	ds.Rows = SortRows(ds.Rows, ds.SortRules)
	return ds
}

// Snapshot returns a history entry for the current dataset. An empty label is
// replaced by a dated default.
func (w *Workspace) Snapshot() (HistoryEntry, error) {
	if w.state != StateEditing {
		return HistoryEntry{}, ErrNoDataset
	}
	now := w.now()
	label := w.dataset.Label
	if label == "" {
		label = DefaultLabel(now)
	}
	return HistoryEntry{
		ID:        w.id,
		Label:     label,
		Columns:   w.dataset.Columns,
		Rows:      w.dataset.Rows,
		SortRules: w.dataset.SortRules,
		CreatedAt: now.UnixMilli(),
	}, nil
}

// SharePayload returns the payload for a share link: sorted rows plus rules.
func (w *Workspace) SharePayload() (SharePayload, error) {
	if w.state != StateEditing {
		return SharePayload{}, ErrNoDataset
	}
	return NewSharePayload(w.Sorted()), nil
}

// DefaultLabel is the label given to history entries saved without one.
func DefaultLabel(t time.Time) string {
	return "Sort — " + t.Format("Jan 2, 2006")
}
