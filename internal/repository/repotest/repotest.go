// Package repotest opens throwaway repositories for tests.
package repotest

import (
	"database/sql"
	"testing"

	"github.com/chetan-code/taskdesk/internal/repository"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated repository over a private in-memory SQLite database.
func New(t testing.TB) *repository.Repo {
	t.Helper()
	repo, _ := Open(t)
	return repo
}

// Open is New that also hands back the underlying connection, so tests can
// change or break the database behind the repository's back.
func Open(t testing.TB) (*repository.Repo, *sql.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	repo, err := repository.NewRepo(db)
	if err != nil {
		t.Fatalf("NewRepo: %v", err)
	}
	return repo, sqlDB
}
