package repository

import (
	"context"

	"github.com/chetan-code/taskdesk/internal/models"
)

func (r *Repo) CreateProject(ctx context.Context, p *models.Project) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *Repo) ProjectByID(ctx context.Context, id uint) (*models.Project, error) {
	var p models.Project
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ListProjects returns the projects owned by userID in creation order.
func (r *Repo) ListProjects(ctx context.Context, userID uint) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}
