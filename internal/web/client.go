package web

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sortly/internal/history"
)

// clientCookie identifies a browser so its history stays separate from
// everyone else's. It is not an account: there is no authentication.
const clientCookie = "sortly_client"

const clientCookieMaxAge = 365 * 24 * 60 * 60

type clientKey struct{}

// clientID makes sure every request carries a client id, issuing a cookie on
// first contact. API callers may send X-Sortly-Client instead.
func (s *Server) clientID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Sortly-Client")
		if _, err := uuid.Parse(id); err != nil {
			id = ""
			if c, err := r.Cookie(clientCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					id = c.Value
				}
			}
		}

		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     clientCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   clientCookieMaxAge,
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientKey{}, id)))
	})
}

// historyFor returns the calling client's history.
func (s *Server) historyFor(r *http.Request) *history.Store {
	id, _ := r.Context().Value(clientKey{}).(string)
	if id == "" {
		id = "anonymous"
	}
	return s.history.Namespace(id)
}
