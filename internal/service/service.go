package service

import (
	"context"

	"github.com/chetan-code/taskdesk/internal/mail"
	"github.com/chetan-code/taskdesk/internal/repository"
)

// Mailer delivers contact form submissions to the operator.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// Service holds the operations behind every page of the app.
type Service struct {
	repo   *repository.Repo
	mailer Mailer
}

func New(repo *repository.Repo, mailer Mailer) *Service {
	return &Service{repo: repo, mailer: mailer}
}
