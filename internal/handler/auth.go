package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chetan-code/taskdesk/internal/repository"
	"github.com/chetan-code/taskdesk/internal/service"
	"github.com/chetan-code/taskdesk/internal/session"
	"github.com/markbates/goth/gothic"
)

const flashName = "flash"

// SessionMiddleware puts the session of the request, if any, into its context.
func (h *TodoHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := h.sessions.Load(r)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				slog.Error("session_load_failed", "path", r.URL.Path, "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), s)))
	})
}

// AuthMiddleware only lets requests with a session of an existing user through.
// Everyone else is sent to /login.
func (h *TodoHandler) AuthMiddleware(next http.Handler) http.Handler {
	return h.requireUser(LoginRedirect)(next)
}

// AjaxAuthMiddleware is AuthMiddleware for script calls: instead of a redirect,
// which fetch would silently follow, it answers 401 with a JSON error.
func (h *TodoHandler) AjaxAuthMiddleware(next http.Handler) http.Handler {
	return h.requireUser(loginRequired)(next)
}

func loginRequired(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "login required"})
}

func (h *TodoHandler) requireUser(deny http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := session.FromContext(r.Context())
			if !ok {
				deny(w, r)
				return
			}
			if !h.userExists(w, r, s, deny) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// userExists clears sessions whose user row is gone and hands the request to deny.
func (h *TodoHandler) userExists(w http.ResponseWriter, r *http.Request, s *session.Session, deny http.HandlerFunc) bool {
	_, err := h.svc.User(r.Context(), s.UserID)
	if err == nil {
		return true
	}
	if errors.Is(err, repository.ErrNotFound) {
		slog.Info("stale_session_cleared", "user_id", s.UserID)
		h.clearSession(w, r)
		deny(w, r)
		return false
	}
	slog.Error("user_lookup_failed", "user_id", s.UserID, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	return false
}

func (h *TodoHandler) clearSession(w http.ResponseWriter, r *http.Request) *http.Request {
	if err := h.sessions.Clear(w, r); err != nil {
		slog.Error("session_clear_failed", "error", err)
	}
	//later rendering in this request must not see the old session
	return r.WithContext(session.NewContext(r.Context(), nil))
}

func (h *TodoHandler) addFlash(w http.ResponseWriter, r *http.Request, msg string) {
	fs, err := h.flash.Get(r, flashName)
	if err != nil {
		slog.Warn("flash_decode_failed", "error", err)
	}
	fs.AddFlash(msg)
	if err := fs.Save(r, w); err != nil {
		slog.Error("flash_save_failed", "error", err)
	}
}

func (h *TodoHandler) popFlash(w http.ResponseWriter, r *http.Request) string {
	fs, err := h.flash.Get(r, flashName)
	if err != nil {
		return ""
	}
	flashes := fs.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	if err := fs.Save(r, w); err != nil {
		slog.Error("flash_save_failed", "error", err)
	}
	msg, _ := flashes[0].(string)
	return msg
}

func (h *TodoHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	//a new login always replaces the previous session
	r = h.clearSession(w, r)

	switch r.Method {
	case http.MethodGet:
		h.render(w, r, "login", http.StatusOK, page{Success: h.popFlash(w, r)})

	case http.MethodPost:
		var form loginForm
		if err := h.decodeForm(r, &form); err != nil {
			h.renderError(w, r, "login", page{}, err)
			return
		}
		if err := form.validate(); err != nil {
			h.renderError(w, r, "login", page{Form: form}, err)
			return
		}

		user, err := h.svc.Login(r.Context(), strings.TrimSpace(form.Username), form.Password)
		if err != nil {
			h.renderError(w, r, "login", page{Form: form}, err)
			return
		}
		if _, err := h.sessions.Issue(r.Context(), w, user); err != nil {
			h.renderError(w, r, "login", page{Form: form}, err)
			return
		}

		slog.Info("user_logged_in", "user_id", user.ID)
		HomeRedirect(w, r)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TodoHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.clearSession(w, r)

	//clear gothic session
	if h.oauth {
		gothic.Logout(w, r)
	}
	HomeRedirect(w, r)
}

func (h *TodoHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	r = h.clearSession(w, r)

	switch r.Method {
	case http.MethodGet:
		h.render(w, r, "register", http.StatusOK, page{})

	case http.MethodPost:
		var form registerForm
		if err := h.decodeForm(r, &form); err != nil {
			h.renderError(w, r, "register", page{}, err)
			return
		}
		if err := form.validate(); err != nil {
			h.renderError(w, r, "register", page{Form: form}, err)
			return
		}

		if _, err := h.svc.Register(r.Context(), strings.TrimSpace(form.Username), form.Password, form.Confirmation); err != nil {
			h.renderError(w, r, "register", page{Form: form}, err)
			return
		}

		h.addFlash(w, r, "Registered! Please log in.")
		LoginRedirect(w, r)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ChangePasswordHandler works with a session or, without one, with the username in the form.
func (h *TodoHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.render(w, r, "change_password", http.StatusOK, page{})

	case http.MethodPost:
		s, loggedIn := session.FromContext(r.Context())

		var form changePasswordForm
		if err := h.decodeForm(r, &form); err != nil {
			h.renderError(w, r, "change_password", page{}, err)
			return
		}
		if err := form.validate(loggedIn); err != nil {
			h.renderError(w, r, "change_password", page{}, err)
			return
		}

		in := service.ChangePasswordInput{
			OldPassword:  form.OldPassword,
			NewPassword:  form.NewPassword,
			Confirmation: form.Confirmation,
		}
		if loggedIn {
			in.UserID = s.UserID
		} else {
			in.Username = strings.TrimSpace(form.Username)
		}

		if err := h.svc.ChangePassword(r.Context(), in); err != nil {
			h.renderError(w, r, "change_password", page{}, err)
			return
		}

		//force a fresh login with the new password
		r = h.clearSession(w, r)
		h.render(w, r, "login", http.StatusOK, page{Success: "Password was changed! Please log in with your new password"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func BeginAuth(w http.ResponseWriter, r *http.Request) {
	//gothic look for provider query by default
	//forcing to use google
	q := r.URL.Query()
	q.Set("provider", "google")
	r.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(w, r)
}

func (h *TodoHandler) AuthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("provider", "google")
	r.URL.RawQuery = q.Encode()

	gUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		slog.Error("oauth_callback_failed", "error", err)
		h.render(w, r, "login", http.StatusUnauthorized, page{Apology: "Google sign-in failed, please try again"})
		return
	}

	user, err := h.svc.ExternalLogin(r.Context(), gUser.Email)
	if err != nil {
		h.renderError(w, r, "login", page{}, err)
		return
	}

	r = h.clearSession(w, r)
	if _, err := h.sessions.Issue(r.Context(), w, user); err != nil {
		h.renderError(w, r, "login", page{}, err)
		return
	}

	slog.Info("user_logged_in", "user_id", user.ID, "provider", "google")
	HomeRedirect(w, r)
}
