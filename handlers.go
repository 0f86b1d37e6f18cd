package main

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"twitterclone/internal/auth"
	"twitterclone/internal/store"
)

type app struct {
	auth    *auth.Service
	store   *store.Store
	flashes *sessions.CookieStore
	pages   pages
	log     *logrus.Logger
}

func (a *app) setupRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(a.logRequests)

	static, _ := fs.Sub(staticFiles, "static")
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.HandleFunc("/", a.indexHandler).Methods(http.MethodGet)
	r.HandleFunc("/tweets", a.tweetsHandler).Methods(http.MethodGet)
	r.HandleFunc("/login", a.loginPageHandler).Methods(http.MethodGet)
	r.HandleFunc("/login", a.loginHandler).Methods(http.MethodPost)
	r.HandleFunc("/logout", a.logoutHandler).Methods(http.MethodPost)
	r.NotFoundHandler = a.logRequests(http.HandlerFunc(a.notFoundHandler))
	r.MethodNotAllowedHandler = a.logRequests(http.HandlerFunc(methodNotAllowedHandler))
	return r
}

// GET /: the tweet listing is the home page
func (a *app) indexHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/tweets", http.StatusFound)
}

// GET /tweets: every tweet, newest first
func (a *app) tweetsHandler(w http.ResponseWriter, r *http.Request) {
	user, err := a.auth.CurrentUserFromRequest(r)
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	tweets, err := a.store.ListTweets(r.Context())
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	a.render(w, r, http.StatusOK, "tweets.html", map[string]interface{}{
		"user":   userView(user),
		"tweets": tweetViews(tweets),
	})
}

// GET /login
func (a *app) loginPageHandler(w http.ResponseWriter, r *http.Request) {
	user, err := a.auth.CurrentUserFromRequest(r)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if user != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	data := loginForm(auth.Credentials{}, nil, nil)
	data["user"] = nil
	a.render(w, r, http.StatusOK, "login.html", data)
}

// POST /login: login or register, depending on the submitted type
func (a *app) loginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	creds, err := auth.ParseCredentials(r.PostForm)
	if err == nil {
		var user *store.User
		user, err = a.auth.Submit(r.Context(), creds)
		if err == nil {
			a.startSession(w, r, user)
			return
		}
	}

	var (
		verr *auth.ValidationError
		cerr *auth.CredentialError
		data map[string]interface{}
	)
	switch {
	case errors.As(err, &verr):
		data = loginForm(creds, verr.FormErrors, verr.FieldErrors)
	case errors.As(err, &cerr):
		data = loginForm(creds, []string{cerr.Message}, nil)
	default:
		a.serverError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "login.html", data)
}

func (a *app) startSession(w http.ResponseWriter, r *http.Request, user *store.User) {
	cookie, err := a.auth.IssueSession(user.ID)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	http.SetCookie(w, cookie)
	http.Redirect(w, r, "/tweets", http.StatusFound)
}

// POST /logout
func (a *app) logoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, a.auth.Logout())
	a.addFlash(w, r, "You were logged out")
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (a *app) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusNotFound, "error.html", map[string]interface{}{
		"title":   "404 Not Found",
		"heading": "404: Not Found",
		"message": "Oops! Looks like you tried to visit a page that does not exist.",
	})
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (a *app) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("request")
	})
}
