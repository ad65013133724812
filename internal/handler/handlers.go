package handler

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/chetan-code/taskdesk/internal/models"
	"github.com/chetan-code/taskdesk/internal/repository"
	"github.com/chetan-code/taskdesk/internal/service"
	"github.com/chetan-code/taskdesk/internal/session"
	"github.com/gorilla/schema"
	"github.com/gorilla/sessions"
)

//go:embed templates/*.html
var templateFS embed.FS

type TodoHandler struct {
	svc      *service.Service
	sessions *session.Manager
	flash    sessions.Store
	tmpl     *template.Template
	decoder  *schema.Decoder
	//google sign-in routes are only mounted when configured
	oauth bool
}

// NewTodoHandler wires the handlers. flash keeps one-shot messages between redirects.
func NewTodoHandler(svc *service.Service, sm *session.Manager, flash sessions.Store, oauth bool) *TodoHandler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &TodoHandler{
		svc:      svc,
		sessions: sm,
		flash:    flash,
		tmpl:     template.Must(template.ParseFS(templateFS, "templates/*.html")),
		decoder:  decoder,
		oauth:    oauth,
	}
}

// page is the data every template receives.
type page struct {
	Session       *session.Session
	Apology       string
	Success       string
	Tasks         []models.Task
	Projects      []models.Project
	Task          *models.Task
	ActiveProject string
	Form          any
	GoogleLogin   bool
}

func HomeRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func LoginRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *TodoHandler) render(w http.ResponseWriter, r *http.Request, name string, status int, p page) {
	if s, ok := session.FromContext(r.Context()); ok {
		p.Session = s
	}
	p.GoogleLogin = h.oauth

	//render into a buffer so a template error does not leave half a page behind
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, p); err != nil {
		slog.Error("template_render_failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// renderError shows err inline on the template name.
func (h *TodoHandler) renderError(w http.ResponseWriter, r *http.Request, name string, p page, err error) {
	var verr *service.ValidationError
	var perr *service.PersistenceError
	var derr *service.DeliveryError

	status := http.StatusBadRequest
	switch {
	case errors.As(err, &verr):
		p.Apology = verr.Msg
	case errors.Is(err, service.ErrInvalidCredentials):
		p.Apology = "Invalid username and/or password"
	case errors.As(err, &derr):
		slog.Error("contact_delivery_failed", "error", derr.Err)
		p.Apology = "Error sending message, please try again later"
		status = http.StatusBadGateway
	case errors.As(err, &perr):
		slog.Error("persistence_failed", "op", perr.Op, "path", r.URL.Path, "error", perr.Err)
		p.Apology = "Sorry, we could not save your changes. Please try again."
		status = http.StatusInternalServerError
	default:
		slog.Error("request_failed", "method", r.Method, "path", r.URL.Path, "error", err)
		p.Apology = "Sorry, something went wrong. Please try again."
		status = http.StatusInternalServerError
	}
	h.render(w, r, name, status, p)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err)
	}
}

// IndexHandler lists the open tasks of one project (or of no project), or every
// completed task when ?completed is present.
func (h *TodoHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		h.render(w, r, "index", http.StatusOK, page{})
		return
	}
	if !h.userExists(w, r, s, LoginRedirect) {
		return
	}

	query := r.URL.Query()
	open, done := false, true
	filter := repository.TaskFilter{OwnerID: s.UserID, Completed: &open, Project: repository.NoProject}
	active := ""

	if _, ok := query["completed"]; ok {
		filter.Completed = &done
		filter.Project = repository.AnyProject
		active = "completed"
	} else if v := query.Get("project_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 0)
		if err != nil {
			http.Error(w, "invalid project_id", http.StatusBadRequest)
			return
		}
		filter.Project = repository.InProject(uint(id))
		active = v
	}

	tasks, err := h.svc.ListTasks(r.Context(), filter)
	if err != nil {
		h.renderError(w, r, "index", page{}, err)
		return
	}
	projects, err := h.svc.ListProjects(r.Context(), s.UserID)
	if err != nil {
		h.renderError(w, r, "index", page{}, err)
		return
	}

	h.render(w, r, "index", http.StatusOK, page{Tasks: tasks, Projects: projects, ActiveProject: active})
}
