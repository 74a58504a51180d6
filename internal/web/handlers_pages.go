package web

// handlers_pages.go serves the browser flow. Every edit is a form POST that
// restores the dataset from the client's history into a core.Workspace,
// applies one event, saves the snapshot and redirects back (POST/redirect/GET).

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sortly/internal/core"
	"github.com/JonMunkholm/sortly/internal/logging"
	"github.com/JonMunkholm/sortly/internal/web/templates"
)

// render writes an HTML component with the given status.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "error", err)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.renderHome(w, r, http.StatusOK, templates.HomeParams{})
}

func (s *Server) renderHome(w http.ResponseWriter, r *http.Request, status int, p templates.HomeParams) {
	list, err := s.historyFor(r).Load(r.Context())
	if err != nil {
		// The paste form still works without history.
		logging.FromContext(r.Context()).Warn("history unavailable", "error", err)
	}
	p.History = list
	render(w, r, status, templates.Home(p))
}

// handlePaste parses the form text into a new dataset.
func (s *Server) handlePaste(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Input.MaxBytes+jsonOverhead)
	if err := r.ParseForm(); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			err = core.ErrInputTooLarge
		}
		s.pasteError(w, r, "", "", err)
		return
	}
	text := r.PostFormValue("text")
	label := strings.TrimSpace(r.PostFormValue("label"))

	ws := core.NewWorkspace()
	res, err := ws.Paste(text)
	if err != nil {
		s.pasteError(w, r, text, label, err)
		return
	}
	if label != "" {
		if err := ws.SetLabel(label); err != nil {
			fail(w, r, err)
			return
		}
	}
	if err := s.saveWorkspace(r, ws); err != nil {
		fail(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "dataset_id", ws.ID()).
		Info("dataset created", "columns", len(res.Columns), "rows", len(res.Rows))
	http.Redirect(w, r, datasetPath(ws.ID()), http.StatusSeeOther)
}

func (s *Server) pasteError(w http.ResponseWriter, r *http.Request, text, label string, err error) {
	msg := core.MapError(err)
	s.renderHome(w, r, statusFor(err), templates.HomeParams{Text: text, Label: label, Error: &msg})
}

func (s *Server) handleDatasetPage(w http.ResponseWriter, r *http.Request) {
	ws, err := s.loadWorkspace(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	ds := ws.Sorted()
	render(w, r, http.StatusOK, templates.DatasetView(templates.DatasetParams{
		ID:      ws.ID(),
		Label:   ds.Label,
		Columns: ds.Columns,
		Rows:    ds.Rows,
		Rules:   ds.SortRules,
	}))
}

func (s *Server) handleTogglePage(w http.ResponseWriter, r *http.Request) {
	s.editDataset(w, r, func(ws *core.Workspace) error {
		return ws.ToggleColumn(r.PostFormValue("column"))
	})
}

func (s *Server) handleLabelPage(w http.ResponseWriter, r *http.Request) {
	s.editDataset(w, r, func(ws *core.Workspace) error {
		return ws.SetLabel(strings.TrimSpace(r.PostFormValue("label")))
	})
}

func (s *Server) handleAddRulePage(w http.ResponseWriter, r *http.Request) {
	s.editDataset(w, r, func(ws *core.Workspace) error {
		ds := ws.Dataset()
		return ws.SetRules(core.AddRule(ds.SortRules, ds.Columns, ds.Rows))
	})
}

func (s *Server) handleUpdateRulePage(w http.ResponseWriter, r *http.Request) {
	s.editDataset(w, r, func(ws *core.Workspace) error {
		idx, err := ruleIndex(r)
		if err != nil {
			return err
		}
		rule := core.SortRule{
			Column:    r.PostFormValue("column"),
			Direction: core.Direction(r.PostFormValue("direction")),
			Type:      core.SortType(r.PostFormValue("type")),
		}
		rules, err := core.UpdateRule(ws.Dataset().SortRules, idx, rule)
		if err != nil {
			return err
		}
		return ws.SetRules(rules)
	})
}

func (s *Server) handleRemoveRulePage(w http.ResponseWriter, r *http.Request) {
	s.editDataset(w, r, func(ws *core.Workspace) error {
		idx, err := ruleIndex(r)
		if err != nil {
			return err
		}
		rules, err := core.RemoveRule(ws.Dataset().SortRules, idx)
		if err != nil {
			return err
		}
		return ws.SetRules(rules)
	})
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	if err := s.historyFor(r).Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleClearHistoryPage(w http.ResponseWriter, r *http.Request) {
	if err := s.historyFor(r).Clear(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSharePage encodes the dataset and redirects to its share link.
func (s *Server) handleSharePage(w http.ResponseWriter, r *http.Request) {
	ws, err := s.loadWorkspace(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	payload, err := ws.SharePayload()
	if err != nil {
		fail(w, r, err)
		return
	}
	token, err := s.encodeShare(r.Context(), payload)
	if err != nil {
		fail(w, r, err)
		return
	}
	http.Redirect(w, r, sharePath(token), http.StatusSeeOther)
}

// editDataset loads the dataset named in the URL, applies fn and saves.
func (s *Server) editDataset(w http.ResponseWriter, r *http.Request, fn func(*core.Workspace) error) {
	if err := r.ParseForm(); err != nil {
		fail(w, r, errors.Join(errBadRequest, err))
		return
	}
	ws, err := s.loadWorkspace(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := fn(ws); err != nil {
		fail(w, r, err)
		return
	}
	if err := s.saveWorkspace(r, ws); err != nil {
		fail(w, r, err)
		return
	}
	http.Redirect(w, r, datasetPath(ws.ID()), http.StatusSeeOther)
}

func (s *Server) loadWorkspace(r *http.Request) (*core.Workspace, error) {
	entry, err := s.historyFor(r).Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	ws := core.NewWorkspace()
	ws.Restore(entry)
	return ws, nil
}

func (s *Server) saveWorkspace(r *http.Request, ws *core.Workspace) error {
	entry, err := ws.Snapshot()
	if err != nil {
		return err
	}
	return s.historyFor(r).Save(r.Context(), entry)
}

func ruleIndex(r *http.Request) (int, error) {
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		return 0, fmt.Errorf("%w: rule index %q", core.ErrInvalidRule, chi.URLParam(r, "idx"))
	}
	return idx, nil
}

func datasetPath(id string) string {
	return "/h/" + id
}
