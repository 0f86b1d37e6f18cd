package main

import (
	"embed"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/nikolalohinski/gonja/v2"
	"github.com/nikolalohinski/gonja/v2/exec"
	"github.com/pkg/errors"

	"twitterclone/internal/store"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

const flashCookieName = "twitter_flash"

// --- Flash helpers ---

func newFlashStore(secure bool, keyPairs ...[]byte) *sessions.CookieStore {
	s := sessions.NewCookieStore(keyPairs...)
	s.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return s
}

func (a *app) addFlash(w http.ResponseWriter, r *http.Request, message string) {
	session, _ := a.flashes.Get(r, flashCookieName)
	session.AddFlash(message)
	if err := session.Save(r, w); err != nil {
		a.log.WithError(err).Warn("saving flash failed")
	}
}

func (a *app) getFlashes(w http.ResponseWriter, r *http.Request) []string {
	session, _ := a.flashes.Get(r, flashCookieName)
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		a.log.WithError(err).Warn("clearing flashes failed")
	}
	messages := make([]string, 0, len(flashes))
	for _, f := range flashes {
		if s, ok := f.(string); ok {
			messages = append(messages, s)
		}
	}
	return messages
}

// --- Template helpers ---

func datetimeformat(t time.Time) string {
	return t.UTC().Format("2006-01-02 @ 15:04")
}

type pages map[string]*exec.Template

func loadPages() (pages, error) {
	p := make(pages)
	for _, name := range []string{"layout.html", "login.html", "tweets.html", "error.html"} {
		src, err := templateFiles.ReadFile("templates/" + name)
		if err != nil {
			return nil, errors.Wrapf(err, "reading template %s failed", name)
		}
		tpl, err := gonja.FromString(string(src))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing template %s failed", name)
		}
		p[name] = tpl
	}
	return p, nil
}

// render executes templateFile inside the layout. data["user"] is resolved
// from the session cookie when the caller has not set it.
func (a *app) render(w http.ResponseWriter, r *http.Request, status int, templateFile string, data map[string]interface{}) {
	if _, ok := data["user"]; !ok {
		user, err := a.auth.CurrentUserFromRequest(r)
		if err != nil {
			a.serverError(w, r, err)
			return
		}
		data["user"] = userView(user)
	}
	if _, ok := data["title"]; !ok {
		data["title"] = "Twitter Clone"
	}
	data["flashes"] = a.getFlashes(w, r)

	body, err := a.pages[templateFile].ExecuteToString(exec.NewContext(data))
	if err != nil {
		a.log.WithError(err).WithField("template", templateFile).Error("rendering page failed")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	data["content"] = body
	html, err := a.pages["layout.html"].ExecuteToString(exec.NewContext(data))
	if err != nil {
		a.log.WithError(err).Error("rendering layout failed")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(html))
}

// serverError renders the error page for failures the user cannot fix,
// such as a lost database connection.
func (a *app) serverError(w http.ResponseWriter, r *http.Request, err error) {
	a.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	a.render(w, r, http.StatusInternalServerError, "error.html", map[string]interface{}{
		"title":   "Error!",
		"user":    nil,
		"heading": "There was an error",
		"message": "Something went wrong while handling your request.",
	})
}

func userView(u *store.User) interface{} {
	if u == nil {
		return nil
	}
	return map[string]interface{}{"id": u.ID, "username": u.Username}
}
