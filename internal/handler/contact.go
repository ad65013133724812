package handler

import (
	"net/http"
)

// ContactHandler forwards the contact form to the operator mailbox. No session is needed.
func (h *TodoHandler) ContactHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.render(w, r, "contact", http.StatusOK, page{})

	case http.MethodPost:
		var form contactForm
		if err := h.decodeForm(r, &form); err != nil {
			h.renderError(w, r, "contact", page{}, err)
			return
		}

		if err := form.validate(); err != nil {
			h.renderError(w, r, "contact", page{Form: form}, err)
			return
		}

		if err := h.svc.SubmitContact(r.Context(), form.message()); err != nil {
			h.renderError(w, r, "contact", page{Form: form}, err)
			return
		}
		h.render(w, r, "contact", http.StatusOK, page{Success: "Your message has been sent! Thank you!"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
