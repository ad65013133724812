package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chetan-code/taskdesk/internal/mail"
	"github.com/chetan-code/taskdesk/internal/models"
	"github.com/chetan-code/taskdesk/internal/service"
)

// decodeForm fills dst from the url-encoded body of r.
func (h *TodoHandler) decodeForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return invalid("Malformed form submission")
	}
	if err := h.decoder.Decode(dst, r.PostForm); err != nil {
		return invalid("Malformed form submission")
	}
	return nil
}

func invalid(msg string) error {
	return &service.ValidationError{Msg: msg}
}

type loginForm struct {
	Username string `schema:"username"`
	Password string `schema:"password"`
}

func (f loginForm) validate() error {
	if f.Username == "" {
		return invalid("Please, write an username")
	}
	if f.Password == "" {
		return invalid("Please, write a password")
	}
	return nil
}

type registerForm struct {
	Username     string `schema:"username"`
	Password     string `schema:"password"`
	Confirmation string `schema:"confirmation"`
}

// validate checks presence only; taken names and mismatches are reported by the service.
func (f registerForm) validate() error {
	if strings.TrimSpace(f.Username) == "" {
		return invalid("Please, write an username")
	}
	if f.Password == "" || f.Confirmation == "" {
		return invalid("Please, write a password")
	}
	return nil
}

type changePasswordForm struct {
	Username     string `schema:"username"`
	OldPassword  string `schema:"old_password"`
	NewPassword  string `schema:"new_password"`
	Confirmation string `schema:"confirmation"`
}

func (f changePasswordForm) validate(loggedIn bool) error {
	if !loggedIn && f.Username == "" {
		return invalid("Please, write an username")
	}
	if f.OldPassword == "" {
		return invalid("must provide old password")
	}
	return nil
}

type taskForm struct {
	Title       string `schema:"title"`
	Description string `schema:"description"`
	DueDate     string `schema:"due_date"`
	ProjectID   string `schema:"project_id"`
}

// input converts the submitted strings to typed task fields.
func (f taskForm) input() (service.TaskInput, error) {
	in := service.TaskInput{
		Title:       strings.TrimSpace(f.Title),
		Description: f.Description,
	}
	if in.Title == "" {
		return in, invalid("Please, write a title")
	}

	if f.DueDate != "" {
		due, err := time.Parse(models.DateLayout, f.DueDate)
		if err != nil {
			return in, invalid("Please, write the due date as YYYY-MM-DD")
		}
		in.DueDate = &due
	}

	//"None" comes from the empty option of the project select
	if f.ProjectID != "" && f.ProjectID != "None" {
		id, err := strconv.ParseUint(f.ProjectID, 10, 0)
		if err != nil || id == 0 {
			return in, invalid("Please, choose one of your projects")
		}
		pid := uint(id)
		in.ProjectID = &pid
	}
	return in, nil
}

type projectForm struct {
	Name        string `schema:"name"`
	Description string `schema:"description"`
}

func (f projectForm) validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return invalid("Please, write a name")
	}
	return nil
}

type contactForm struct {
	Name    string `schema:"name"`
	Email   string `schema:"email"`
	Subject string `schema:"subject"`
	Message string `schema:"message"`
}

// validate checks presence only; the address format is checked by the service.
func (f contactForm) validate() error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return invalid("Please, write your name")
	case strings.TrimSpace(f.Email) == "":
		return invalid("Please, write your email")
	case strings.TrimSpace(f.Subject) == "":
		return invalid("Please, write a subject")
	case strings.TrimSpace(f.Message) == "":
		return invalid("Please, write a message")
	}
	return nil
}

func (f contactForm) message() mail.Message {
	return mail.Message{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Subject: strings.TrimSpace(f.Subject),
		Body:    f.Message,
	}
}
