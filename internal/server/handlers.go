package server

import (
	"html/template"
	"net/http"
	"time"

	"github.com/oshokin/authkeeper/internal/logger"
	"github.com/oshokin/authkeeper/internal/token"
)

// tokenFormField is the login form field holding the token.
const tokenFormField = "token"

// pageData is rendered by pageTemplate.
type pageData struct {
	Title     string
	Message   string
	Error     string
	LoginPath string
	Dashboard string
	ShowForm  bool
	SignedIn  bool
}

//nolint:gochecknoglobals,lll // Parsed once at startup and used as a constant.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{if .Message}}<p>{{.Message}}</p>{{end}}
{{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
{{if .ShowForm}}<form method="post" action="{{.LoginPath}}">
<label>Token <input type="password" name="token" autocomplete="off"></label>
<button type="submit">Sign in</button>
</form>{{end}}
{{if .SignedIn}}<form method="post" action="/logout"><button type="submit">Sign out</button></form>{{end}}
<nav><a href="/">Home</a> <a href="/public">Public</a> <a href="{{.Dashboard}}">Dashboard</a></nav>
</body>
</html>
`))

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	data.LoginPath = s.cfg.LoginPath
	data.Dashboard = s.cfg.ProtectedPrefix

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := pageTemplate.Execute(w, data); err != nil {
		logger.Errorf(r.Context(), "Failed to render page: %v", err)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageData{
		Title:   "Home",
		Message: "Open the dashboard to check the route guard.",
	})
}

func (s *Server) handlePublic(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageData{
		Title:   "Public",
		Message: "This page needs no session.",
	})
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageData{
		Title:    "Sign in",
		ShowForm: true,
	})
}

// handleLoginSubmit stores a sanitized token in the session cookie.
// Rejected input never reaches the cookie, so a present cookie always held a usable token when it was set.
func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, pageData{
			Title:    "Sign in",
			Error:    "The form could not be read.",
			ShowForm: true,
		})

		return
	}

	value, ok := token.SanitizeString(r.PostForm.Get(tokenFormField))
	if !ok {
		s.render(w, r, http.StatusUnprocessableEntity, pageData{
			Title:    "Sign in",
			Error:    "Enter a token.",
			ShowForm: true,
		})

		return
	}

	http.SetCookie(w, s.sessionCookie(r, value, 0))

	logger.DebugKV(r.Context(), "Session cookie set", "token", token.Mask(value))

	http.Redirect(w, r, s.cfg.ProtectedPrefix, http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.sessionCookie(r, "", -1))

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var masked string

	if cookie, err := r.Cookie(s.cfg.CookieName); err == nil {
		masked = token.Mask(cookie.Value)
	}

	s.render(w, r, http.StatusOK, pageData{
		Title:    "Dashboard",
		Message:  "Session cookie: " + masked,
		SignedIn: true,
	})
}

// sessionCookie builds the session cookie, a negative maxAge expires it.
func (s *Server) sessionCookie(r *http.Request, value string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}

	if maxAge < 0 {
		cookie.Expires = time.Unix(0, 0)
	}

	return cookie
}
