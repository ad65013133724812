package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/chetan-code/taskdesk/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a looked up row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique column already holds the value.
var ErrDuplicate = errors.New("duplicate record")

type Repo struct {
	db *gorm.DB
}

// NewRepo migrates the users, projects and tasks tables and returns a repo over db.
func NewRepo(db *gorm.DB) (*Repo, error) {
	repo := &Repo{db: db}

	err := repo.CreateTables()
	if err != nil {
		return nil, fmt.Errorf("could not initialize tables: %w", err)
	}

	return repo, nil
}

func (r *Repo) CreateTables() error {
	return r.db.AutoMigrate(&models.User{}, &models.Project{}, &models.Task{})
}

// Transaction runs fn against a repo bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (r *Repo) Transaction(ctx context.Context, fn func(tx *Repo) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{db: tx})
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
