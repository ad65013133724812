package service

import (
	"context"
	"log/slog"
	netmail "net/mail"

	"github.com/chetan-code/taskdesk/internal/mail"
)

// SubmitContact forwards a contact form to the operator mailbox. Nothing is retried or queued.
func (s *Service) SubmitContact(ctx context.Context, msg mail.Message) error {
	switch {
	case msg.Name == "":
		return invalid("Please, write your name")
	case msg.Email == "":
		return invalid("Please, write your email")
	case msg.Subject == "":
		return invalid("Please, write a subject")
	case msg.Body == "":
		return invalid("Please, write a message")
	}
	if _, err := netmail.ParseAddress(msg.Email); err != nil {
		return invalid("Please, write a valid email")
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		return &DeliveryError{Err: err}
	}
	slog.Info("contact_message_sent", "from", msg.Email)
	return nil
}
