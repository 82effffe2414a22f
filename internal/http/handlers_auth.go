package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/auth"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/metrics"
	"github.com/jcaplliure/EntrenadorBasket/internal/validation"
)

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// startSession issues the session cookie. JSON clients also get the token in the body.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, id identity.Identity) {
	token, expires, err := s.Tokens.Issue(id)
	if err != nil {
		handleError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.Cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"token": token, "expires": expires, "user": id})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// authFailed reports a login or registration error the way the client expects.
func (s *Server) authFailed(w http.ResponseWriter, r *http.Request, err error) {
	if wantsJSON(r) {
		handleError(w, err)
		return
	}
	msg := err.Error()
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		msg = verrs.Error()
	case errors.Is(err, errBadRequest):
		msg = "Formulario incompleto"
	case !isUserAuthError(err):
		log.Error("Authentication failed", "error", err)
		msg = "Error interno, inténtalo de nuevo"
	}
	s.setFlash(w, r, flashError, msg)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func isUserAuthError(err error) bool {
	for _, known := range []error{
		auth.ErrInvalidCredentials, auth.ErrNotInvited, auth.ErrEmailTaken,
		auth.ErrOAuthDisabled, auth.ErrOAuthState, auth.ErrNoEmail,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}

// readAuthForm fills dst from a JSON body or a urlencoded form.
func (s *Server) readAuthForm(r *http.Request, dst any, fields func(get func(string) string)) error {
	if wantsJSON(r) {
		return s.decode(r, dst)
	}
	if err := r.ParseForm(); err != nil {
		return errBadRequest
	}
	fields(r.PostForm.Get)
	return s.Validator.Struct(dst)
}

func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !actorFrom(r).Anonymous() {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		renderPage(r.Context(), w, loginPage(s.popFlashes(w, r), s.Google != nil), "login")
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in auth.LoginInput
		err := s.readAuthForm(r, &in, func(get func(string) string) {
			in.Email = get("email")
			in.Password = get("password")
		})
		if err != nil {
			s.authFailed(w, r, err)
			return
		}

		id, err := s.Auth.Login(r.Context(), in)
		if err != nil {
			s.Metrics.IncLogins(metrics.LoginPassword, metrics.ResultFailure)
			log.Warn("Password login failed", "email", in.Email, "error", err)
			s.authFailed(w, r, err)
			return
		}
		s.Metrics.IncLogins(metrics.LoginPassword, metrics.ResultSuccess)
		s.startSession(w, r, id)
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in auth.RegisterInput
		err := s.readAuthForm(r, &in, func(get func(string) string) {
			in.Email = get("email")
			in.Name = get("name")
			in.Password = get("password")
		})
		if err != nil {
			s.authFailed(w, r, err)
			return
		}

		id, err := s.Auth.Register(r.Context(), in)
		if err != nil {
			log.Warn("Registration failed", "email", in.Email, "error", err)
			s.authFailed(w, r, err)
			return
		}
		s.startSession(w, r, id)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: auth.CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
		if wantsJSON(r) {
			writeOK(w)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// GoogleLoginHandler starts the OAuth flow with a state value kept in a short-lived cookie.
func (s *Server) GoogleLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Google == nil {
			s.setFlash(w, r, flashError, auth.ErrOAuthDisabled.Error())
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		state := auth.NewState()
		http.SetCookie(w, &http.Cookie{
			Name:     auth.StateCookie,
			Value:    state,
			Path:     "/",
			MaxAge:   int((10 * time.Minute).Seconds()),
			HttpOnly: true,
			Secure:   s.Cfg.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, s.Google.AuthCodeURL(state), http.StatusFound)
	}
}

func (s *Server) GoogleCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fail := func(err error) {
			s.Metrics.IncLogins(metrics.LoginGoogle, metrics.ResultFailure)
			log.Warn("Google login failed", "error", err)
			s.authFailed(w, r, err)
		}
		if s.Google == nil {
			fail(auth.ErrOAuthDisabled)
			return
		}

		c, err := r.Cookie(auth.StateCookie)
		state := r.URL.Query().Get("state")
		if err != nil || state == "" || c.Value != state {
			fail(auth.ErrOAuthState)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: auth.StateCookie, Value: "", Path: "/", MaxAge: -1})

		email, name, err := s.Google.Exchange(r.Context(), r.URL.Query().Get("code"))
		if err != nil {
			fail(err)
			return
		}
		id, err := s.Auth.LoginOAuth(r.Context(), email, name)
		if err != nil {
			fail(err)
			return
		}
		s.Metrics.IncLogins(metrics.LoginGoogle, metrics.ResultSuccess)
		s.startSession(w, r, id)
	}
}

// MeHandler returns the caller as stored, so promotions show up without a new login.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := s.Auth.Refresh(r.Context(), actorFrom(r))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, id)
	}
}
