package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"

	"github.com/chetan-code/taskdesk/internal/models"
	"github.com/chetan-code/taskdesk/internal/repository"
)

// maxPasswordLen is the most bytes bcrypt hashes.
const maxPasswordLen = 72

// Login returns the user matching username and password.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" {
		return nil, invalid("Please, write an username")
	}
	if password == "" {
		return nil, invalid("Please, write a password")
	}

	user, err := s.repo.UserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Register creates a user. The caller still has to log in afterwards.
func (s *Service) Register(ctx context.Context, username, password, confirmation string) (*models.User, error) {
	if username == "" {
		return nil, invalid("Please, write an username")
	}
	if password == "" || confirmation == "" {
		return nil, invalid("Please, write a password")
	}

	user := &models.User{Username: username}
	err := s.repo.Transaction(ctx, func(tx *repository.Repo) error {
		_, err := tx.UserByUsername(ctx, username)
		if err == nil {
			return invalid("Username already taken")
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if password != confirmation {
			return invalid("Passwords do not match")
		}
		if len(password) > maxPasswordLen {
			return invalid("Password is too long")
		}
		if err := user.SetPassword(password); err != nil {
			return err
		}
		return tx.CreateUser(ctx, user)
	})

	var verr *ValidationError
	switch {
	case err == nil:
		slog.Info("user_registered", "user_id", user.ID)
		return user, nil
	case errors.As(err, &verr):
		return nil, err
	case errors.Is(err, repository.ErrDuplicate):
		//lost a race with a concurrent registration
		return nil, invalid("Username already taken")
	}
	return nil, &PersistenceError{Op: "register user", Err: err}
}

// ChangePasswordInput identifies the account either by the active session (UserID)
// or, without one, by Username.
type ChangePasswordInput struct {
	UserID       uint
	Username     string
	OldPassword  string
	NewPassword  string
	Confirmation string
}

// ChangePassword rehashes the password of the identified user. Callers must end
// the session afterwards so the user logs in again.
func (s *Service) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if in.UserID == 0 && in.Username == "" {
		return invalid("Please, write an username")
	}
	if in.OldPassword == "" {
		return invalid("must provide old password")
	}

	var user *models.User
	var err error
	if in.UserID != 0 {
		user, err = s.repo.UserByID(ctx, in.UserID)
	} else {
		user, err = s.repo.UserByUsername(ctx, in.Username)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}

	if !user.CheckPassword(in.OldPassword) {
		return ErrInvalidCredentials
	}
	if in.NewPassword == "" {
		return invalid("must provide new password")
	}
	if in.Confirmation == "" {
		return invalid("must provide confirmation of new password")
	}
	if in.NewPassword != in.Confirmation {
		return invalid("new password and new password confirmation don't match")
	}
	if len(in.NewPassword) > maxPasswordLen {
		return invalid("Password is too long")
	}

	if err := user.SetPassword(in.NewPassword); err != nil {
		return err
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repo) error {
		return tx.UpdatePassword(ctx, user.ID, user.PasswordHash)
	})
	if err != nil {
		return &PersistenceError{Op: "change password", Err: err}
	}
	slog.Info("password_changed", "user_id", user.ID)
	return nil
}

// User returns the user with id, or repository.ErrNotFound.
func (s *Service) User(ctx context.Context, id uint) (*models.User, error) {
	return s.repo.UserByID(ctx, id)
}

// ExternalLogin finds the user named username, creating it when missing. Users created
// here get a random password, so they can only sign in through the external provider
// until they change it.
func (s *Service) ExternalLogin(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, invalid("The provider did not return an email address")
	}

	var user *models.User
	err := s.repo.Transaction(ctx, func(tx *repository.Repo) error {
		existing, err := tx.UserByUsername(ctx, username)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return err
		}
		user = &models.User{Username: username}
		if err := user.SetPassword(hex.EncodeToString(secret)); err != nil {
			return err
		}
		return tx.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, &PersistenceError{Op: "external login", Err: err}
	}
	return user, nil
}
