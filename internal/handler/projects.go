package handler

import (
	"log/slog"
	"net/http"
	"strings"
)

func (h *TodoHandler) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	s := mustSession(r)

	switch r.Method {
	case http.MethodGet:
		h.render(w, r, "create_project", http.StatusOK, page{})

	case http.MethodPost:
		var form projectForm
		if err := h.decodeForm(r, &form); err != nil {
			h.renderError(w, r, "create_project", page{}, err)
			return
		}
		if err := form.validate(); err != nil {
			h.renderError(w, r, "create_project", page{Form: form}, err)
			return
		}

		p, err := h.svc.CreateProject(r.Context(), s.UserID, strings.TrimSpace(form.Name), form.Description)
		if err != nil {
			h.renderError(w, r, "create_project", page{Form: form}, err)
			return
		}

		slog.Info("project_created", "user_id", s.UserID, "project_id", p.ID)
		HomeRedirect(w, r)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
