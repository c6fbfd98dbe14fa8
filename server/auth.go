package server

import (
	"net/http"
	"strings"

	"github.com/byte4ever/repo_editor/session"
)

type loginRequest struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, sess, err := s.cfg.Sessions.Login(req.Token, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, s.cookie(token, int(s.cfg.Sessions.TTL().Seconds())))
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, s.cookie("", -1))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	sess, err := s.cfg.Sessions.Verify(credential(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// authed verifies the request credential and stores the
// session in the request context.
func (s *Server) authed(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.cfg.Sessions.Verify(credential(r))
		if err != nil {
			writeError(w, err)
			return
		}

		next(w, r.WithContext(session.NewContext(r.Context(), sess)))
	})
}

// cookie builds the credential cookie. maxAge < 0
// deletes it.
func (s *Server) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

// credential reads the cookie, falling back to a bearer
// token.
func credential(r *http.Request) string {
	if c, err := r.Cookie(session.CookieName); err == nil && c.Value != "" {
		return c.Value
	}

	if token, ok := strings.CutPrefix(
		r.Header.Get("Authorization"), "Bearer ",
	); ok {
		return strings.TrimSpace(token)
	}

	return ""
}

func author(r *http.Request) string {
	if sess, ok := session.FromContext(r.Context()); ok {
		return sess.Name
	}

	return ""
}
