package service

import (
	"context"

	"github.com/chetan-code/taskdesk/internal/models"
)

func (s *Service) CreateProject(ctx context.Context, userID uint, name, description string) (*models.Project, error) {
	if name == "" {
		return nil, invalid("Please, write a name")
	}

	p := &models.Project{Name: name, Description: description, UserID: userID}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, &PersistenceError{Op: "create project", Err: err}
	}
	return p, nil
}

// ListProjects returns the projects of userID, used for the sidebar and task forms.
func (s *Service) ListProjects(ctx context.Context, userID uint) ([]models.Project, error) {
	return s.repo.ListProjects(ctx, userID)
}
