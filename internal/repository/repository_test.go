package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pivotapp/pivot/internal/db"
	"github.com/pivotapp/pivot/internal/model"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

func createTestUser(t *testing.T, repo UserRepository, email string) *model.User {
	t.Helper()

	hash := "$2a$10$abcdefghijklmnopqrstuv"
	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: &hash,
		AuthProvider: model.AuthProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(user))
	return user
}

func createTestHabit(t *testing.T, repo HabitRepository, userID *string, name, habitType string) *model.Habit {
	t.Helper()

	habit, err := repo.FindOrCreate(&model.Habit{
		ID:        uuid.New().String(),
		Name:      name,
		Type:      habitType,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return habit
}
