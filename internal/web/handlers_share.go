package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sortly/internal/core"
	"github.com/JonMunkholm/sortly/internal/logging"
	"github.com/JonMunkholm/sortly/internal/web/templates"
)

type shareResponse struct {
	Token string `json:"token"`
	Path  string `json:"path"`
	URL   string `json:"url"`
}

// handleCreateShare encodes a dataset into a link. Rows are sorted by the
// dataset's rules before encoding, so the link shows what the sender saw.
func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	var p core.SharePayload
	if err := decodeJSON(w, r, &p, s.bodyLimit()); err != nil {
		fail(w, r, err)
		return
	}
	if p.Columns == nil || p.Rows == nil {
		fail(w, r, errBadRequest)
		return
	}
	if err := core.ValidateRules(p.SortRules, p.Columns); err != nil {
		fail(w, r, err)
		return
	}

	ws := core.NewWorkspace()
	ws.Import(p)
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
	writeJSON(w, http.StatusCreated, shareResponse{
		Token: token,
		Path:  sharePath(token),
		URL:   s.shareURL(r, token),
	})
}

type decodedShare struct {
	Label     string          `json:"label,omitempty"`
	Columns   []string        `json:"columns"`
	Rows      []core.Row      `json:"rows"`
	SortRules []core.SortRule `json:"sortRules"`
}

// handleDecodeShare returns the dataset inside a token with rows sorted.
func (s *Server) handleDecodeShare(w http.ResponseWriter, r *http.Request) {
	p, err := s.decodeShare(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decodedShare{
		Label:     p.Label,
		Columns:   p.Columns,
		Rows:      core.SortRows(p.Rows, p.SortRules),
		SortRules: p.SortRules,
	})
}

// handleShareView renders a share link read-only.
func (s *Server) handleShareView(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	p, err := s.decodeShare(r.Context(), token)
	if err != nil {
		msg := core.MapError(err)
		logging.FromContext(r.Context()).Warn("share link rejected", "error", err, "code", msg.Code)
		render(w, r, statusFor(err), templates.ShareError(msg))
		return
	}

	render(w, r, http.StatusOK, templates.ShareView(templates.ShareParams{
		Token:   token,
		URL:     s.shareURL(r, token),
		Label:   p.Label,
		Columns: p.Columns,
		Rows:    core.SortRows(p.Rows, p.SortRules),
		Rules:   p.SortRules,
	}))
}

// handleImport copies a shared dataset into the caller's history and opens it.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		fail(w, r, errBadRequest)
		return
	}
	p, err := s.decodeShare(r.Context(), r.PostFormValue("token"))
	if err != nil {
		fail(w, r, err)
		return
	}

	ws := core.NewWorkspace()
	ws.Import(*p)
	if err := s.saveWorkspace(r, ws); err != nil {
		fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/h/"+ws.ID(), http.StatusSeeOther)
}

func (s *Server) encodeShare(ctx context.Context, p core.SharePayload) (string, error) {
	var token string
	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		token, err = s.codec.Encode(ctx, p)
		return err
	})
	if err != nil {
		return "", err
	}

	logging.WithFields(ctx, "columns", len(p.Columns), "rows", len(p.Rows)).
		Info("share link created", "token_len", len(token))
	return token, nil
}

func (s *Server) decodeShare(ctx context.Context, token string) (*core.SharePayload, error) {
	var p *core.SharePayload
	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.codec.DecodeDataset(ctx, token)
		return err
	})
	return p, err
}

func sharePath(token string) string {
	return "/s/" + token
}

// shareURL builds an absolute link from SHARE_BASE_URL or the request host.
func (s *Server) shareURL(r *http.Request, token string) string {
	base := strings.TrimRight(s.cfg.Share.BaseURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + sharePath(token)
}
