package repository

import (
	"context"

	"github.com/chetan-code/taskdesk/internal/models"
	"gorm.io/gorm"
)

type scopeKind int

const (
	anyProject scopeKind = iota
	noProject
	inProject
)

// ProjectScope restricts a task listing by project membership.
type ProjectScope struct {
	kind scopeKind
	id   uint
}

var (
	AnyProject = ProjectScope{kind: anyProject}
	NoProject  = ProjectScope{kind: noProject}
)

func InProject(id uint) ProjectScope {
	return ProjectScope{kind: inProject, id: id}
}

// TaskFilter is a set of predicates combined with AND.
// A nil Completed matches both open and completed tasks.
type TaskFilter struct {
	OwnerID   uint
	Completed *bool
	Project   ProjectScope
}

func (f TaskFilter) apply(q *gorm.DB) *gorm.DB {
	q = q.Where("user_id = ?", f.OwnerID)
	if f.Completed != nil {
		q = q.Where("completed = ?", *f.Completed)
	}
	switch f.Project.kind {
	case noProject:
		q = q.Where("project_id IS NULL")
	case inProject:
		q = q.Where("project_id = ?", f.Project.id)
	}
	return q
}

func (r *Repo) ListTasks(ctx context.Context, f TaskFilter) ([]models.Task, error) {
	var tasks []models.Task
	err := f.apply(r.db.WithContext(ctx)).Order("id").Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *Repo) CreateTask(ctx context.Context, t *models.Task) error {
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

func (r *Repo) TaskByID(ctx context.Context, id uint) (*models.Task, error) {
	var t models.Task
	err := r.db.WithContext(ctx).First(&t, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// UpdateTask overwrites the editable fields of t. Nil due date and project are written as NULL.
func (r *Repo) UpdateTask(ctx context.Context, t *models.Task) error {
	res := r.db.WithContext(ctx).Model(t).
		Select("title", "description", "due_date", "project_id", "updated_at").
		Updates(t)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) SetTaskCompleted(ctx context.Context, id uint, completed bool) error {
	res := r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Update("completed", completed)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteTask(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
