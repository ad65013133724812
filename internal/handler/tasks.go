package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/chetan-code/taskdesk/internal/service"
	"github.com/chetan-code/taskdesk/internal/session"
	"github.com/go-chi/chi/v5"
)

// taskID reads the {id} path parameter.
func taskID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 0)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// mustSession returns the session put in place by AuthMiddleware.
func mustSession(r *http.Request) *session.Session {
	s, _ := session.FromContext(r.Context())
	return s
}

func (h *TodoHandler) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	s := mustSession(r)
	projects, err := h.svc.ListProjects(r.Context(), s.UserID)
	if err != nil {
		h.renderError(w, r, "create_task", page{}, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.render(w, r, "create_task", http.StatusOK, page{Projects: projects})

	case http.MethodPost:
		var form taskForm
		if err := h.decodeForm(r, &form); err != nil {
			h.renderError(w, r, "create_task", page{Projects: projects}, err)
			return
		}
		in, err := form.input()
		if err != nil {
			h.renderError(w, r, "create_task", page{Projects: projects, Form: form}, err)
			return
		}

		task, err := h.svc.CreateTask(r.Context(), s.UserID, in)
		if err != nil {
			h.renderError(w, r, "create_task", page{Projects: projects, Form: form}, err)
			return
		}

		slog.Info("task_created", "user_id", s.UserID, "task_id", task.ID)
		HomeRedirect(w, r)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// EditTaskHandler only shows and edits tasks of the caller. Any other id redirects home.
func (h *TodoHandler) EditTaskHandler(w http.ResponseWriter, r *http.Request) {
	s := mustSession(r)
	id, ok := taskID(r)
	if !ok {
		HomeRedirect(w, r)
		return
	}

	task, err := h.svc.OwnedTask(r.Context(), s.UserID, id)
	if errors.Is(err, service.ErrForbidden) {
		slog.Warn("task_access_denied", "user_id", s.UserID, "task_id", id)
		HomeRedirect(w, r)
		return
	}
	if err != nil {
		h.renderError(w, r, "apology", page{}, err)
		return
	}
	projects, err := h.svc.ListProjects(r.Context(), s.UserID)
	if err != nil {
		h.renderError(w, r, "apology", page{}, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.render(w, r, "edit_task", http.StatusOK, page{Task: task, Projects: projects})

	case http.MethodPost:
		var form taskForm
		if err := h.decodeForm(r, &form); err != nil {
			h.renderError(w, r, "edit_task", page{Task: task, Projects: projects}, err)
			return
		}
		in, err := form.input()
		if err != nil {
			h.renderError(w, r, "edit_task", page{Task: task, Projects: projects}, err)
			return
		}

		_, err = h.svc.EditTask(r.Context(), s.UserID, id, in)
		if errors.Is(err, service.ErrForbidden) {
			HomeRedirect(w, r)
			return
		}
		if err != nil {
			h.renderError(w, r, "edit_task", page{Task: task, Projects: projects}, err)
			return
		}

		slog.Info("task_edited", "user_id", s.UserID, "task_id", id)
		HomeRedirect(w, r)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// MarkDoneHandler completes a task and returns to the home page. Tasks of other
// users are ignored without an error.
func (h *TodoHandler) MarkDoneHandler(w http.ResponseWriter, r *http.Request) {
	s := mustSession(r)
	if id, ok := taskID(r); ok {
		err := h.svc.SetCompleted(r.Context(), s.UserID, id, true)
		if err != nil && !errors.Is(err, service.ErrForbidden) {
			h.renderError(w, r, "apology", page{}, err)
			return
		}
	}
	HomeRedirect(w, r)
}

func (h *TodoHandler) MarkDoneAjaxHandler(w http.ResponseWriter, r *http.Request) {
	h.setCompletedAjax(w, r, true, "Task marked as completed")
}

func (h *TodoHandler) MarkUndoneAjaxHandler(w http.ResponseWriter, r *http.Request) {
	h.setCompletedAjax(w, r, false, "Task marked as not completed")
}

func (h *TodoHandler) setCompletedAjax(w http.ResponseWriter, r *http.Request, completed bool, okMsg string) {
	s := mustSession(r)
	id, ok := taskID(r)
	if !ok {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": service.ErrForbidden.Error()})
		return
	}

	err := h.svc.SetCompleted(r.Context(), s.UserID, id, completed)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": okMsg})
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	default:
		slog.Error("task_update_failed", "user_id", s.UserID, "task_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not update task"})
	}
}

// DeleteTaskHandler removes a task of the caller. Tasks of other users are ignored without an error.
func (h *TodoHandler) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	s := mustSession(r)
	if id, ok := taskID(r); ok {
		err := h.svc.DeleteTask(r.Context(), s.UserID, id)
		if err != nil && !errors.Is(err, service.ErrForbidden) {
			h.renderError(w, r, "apology", page{}, err)
			return
		}
		if err == nil {
			slog.Info("task_deleted", "user_id", s.UserID, "task_id", id)
		}
	}
	HomeRedirect(w, r)
}

