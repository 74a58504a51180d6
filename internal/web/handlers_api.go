package web

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/JonMunkholm/sortly/internal/core"
	"github.com/JonMunkholm/sortly/internal/logging"
)

// jsonOverhead allows for JSON framing around the pasted text.
const jsonOverhead = 64 * 1024

type parseRequest struct {
	Text string `json:"text"`
}

type parseResponse struct {
	Columns   []string                 `json:"columns"`
	Rows      []core.Row               `json:"rows"`
	Delimiter string                   `json:"delimiter"`
	Types     map[string]core.SortType `json:"types"`
	SortRules []core.SortRule          `json:"sortRules"`
}

// handleParse accepts {"text": "..."} or a text/plain body.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	text, err := s.readPaste(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}

	res, err := core.Parse(text)
	if err != nil {
		fail(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "columns", len(res.Columns), "rows", len(res.Rows)).
		Debug("parsed paste", "delimiter", fmt.Sprintf("%q", res.Delimiter))

	writeJSON(w, http.StatusOK, parseResponse{
		Columns:   res.Columns,
		Rows:      res.Rows,
		Delimiter: res.Delimiter,
		Types:     core.DetectTypes(res.Rows, res.Columns),
		SortRules: core.DefaultRules(res.Columns, res.Rows),
	})
}

// readPaste returns the pasted text from a JSON or plain-text body.
func (s *Server) readPaste(w http.ResponseWriter, r *http.Request) (string, error) {
	limit := s.cfg.Input.MaxBytes
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/json" {
		var req parseRequest
		if err := decodeJSON(w, r, &req, limit+jsonOverhead); err != nil {
			return "", err
		}
		if int64(len(req.Text)) > limit {
			return "", fmt.Errorf("%w: exceeds %d bytes", core.ErrInputTooLarge, limit)
		}
		return req.Text, nil
	}

	return core.ReadInput(r.Body, limit)
}

type detectRequest struct {
	Rows   []core.Row `json:"rows"`
	Column string     `json:"column"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := decodeJSON(w, r, &req, s.bodyLimit()); err != nil {
		fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Column) == "" {
		fail(w, r, fmt.Errorf("%w: column is required", errBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, map[string]core.SortType{"type": core.DetectType(req.Rows, req.Column)})
}

type sortRequest struct {
	Columns   []string        `json:"columns"`
	Rows      []core.Row      `json:"rows"`
	SortRules []core.SortRule `json:"sortRules"`
}

// handleSort sorts rows by the given rules. When columns are supplied the
// rules are validated against them first.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if err := decodeJSON(w, r, &req, s.bodyLimit()); err != nil {
		fail(w, r, err)
		return
	}
	if req.Columns != nil {
		if err := core.ValidateRules(req.SortRules, req.Columns); err != nil {
			fail(w, r, err)
			return
		}
	}
	rows := core.SortRows(req.Rows, req.SortRules)
	if rows == nil {
		rows = []core.Row{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

type toggleRequest struct {
	SortRules []core.SortRule `json:"sortRules"`
	Column    string          `json:"column"`
	Rows      []core.Row      `json:"rows"`
}

func (s *Server) handleToggleRule(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(w, r, &req, s.bodyLimit()); err != nil {
		fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Column) == "" {
		fail(w, r, fmt.Errorf("%w: column is required", errBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sortRules": core.ToggleColumn(req.SortRules, req.Column, req.Rows),
	})
}

// bodyLimit caps JSON bodies carrying a dataset.
func (s *Server) bodyLimit() int64 {
	return s.cfg.Input.MaxBytes*2 + jsonOverhead
}
