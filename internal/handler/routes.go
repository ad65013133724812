package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes maps every url path to its handler.
func (h *TodoHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.SessionMiddleware)

	r.Get("/", h.IndexHandler)
	r.HandleFunc("/login", h.LoginHandler)
	r.Get("/logout", h.LogoutHandler)
	r.HandleFunc("/register", h.RegisterHandler)
	r.HandleFunc("/change_password", h.ChangePasswordHandler)
	r.HandleFunc("/contact", h.ContactHandler)

	if h.oauth {
		r.Get("/auth/google", BeginAuth)
		r.Get("/auth/google/callback", h.AuthCallbackHandler)
	}

	//only users with a valid session can access these routes
	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.HandleFunc("/create_task", h.CreateTaskHandler)
		r.HandleFunc("/edit_task/{id}", h.EditTaskHandler)
		r.Post("/mark_done/{id}", h.MarkDoneHandler)
		r.Post("/delete_task/{id}", h.DeleteTaskHandler)
		r.HandleFunc("/create_project", h.CreateProjectHandler)
	})

	//script endpoints answer JSON, even when the session is gone
	r.Group(func(r chi.Router) {
		r.Use(h.AjaxAuthMiddleware)

		r.Post("/mark_done_ajax/{id}", h.MarkDoneAjaxHandler)
		r.Post("/mark_undone_ajax/{id}", h.MarkUndoneAjaxHandler)
	})

	return r
}
