package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sortly/internal/core"
)

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	list, err := s.historyFor(r).Load(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": list})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	entry, err := s.historyFor(r).Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleSaveHistory upserts an entry. Missing id, label or timestamp are
// filled in the same way a fresh paste would.
func (s *Server) handleSaveHistory(w http.ResponseWriter, r *http.Request) {
	var entry core.HistoryEntry
	if err := decodeJSON(w, r, &entry, s.bodyLimit()); err != nil {
		fail(w, r, err)
		return
	}
	if entry.Columns == nil || entry.Rows == nil {
		fail(w, r, errBadRequest)
		return
	}
	if entry.SortRules == nil {
		entry.SortRules = []core.SortRule{}
	}
	if err := core.ValidateRules(entry.SortRules, entry.Columns); err != nil {
		fail(w, r, err)
		return
	}

	ws := core.NewWorkspace()
	if strings.TrimSpace(entry.ID) == "" {
		ws.Import(core.SharePayload{
			Columns:   entry.Columns,
			Rows:      entry.Rows,
			SortRules: entry.SortRules,
			Label:     entry.Label,
		})
	} else {
		ws.Restore(entry)
	}

	saved, err := ws.Snapshot()
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.historyFor(r).Save(r.Context(), saved); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.historyFor(r).Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.historyFor(r).Clear(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
