package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pivotapp/pivot/internal/db"
	"github.com/pivotapp/pivot/internal/repository"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db    *sqlx.DB
	auth  *AuthService
	users *UserService
	habit *HabitService
	urge  *UrgeService
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = database.Close()
	})

	userRepo := repository.NewUserRepository(database)
	habitRepo := repository.NewHabitRepository(database)
	urgeRepo := repository.NewUrgeRepository(database, "sqlite")

	return &testEnv{
		db:    database,
		auth:  NewAuthService(userRepo, "test-secret-test-secret-test-secret", 168*time.Hour),
		users: NewUserService(userRepo),
		habit: NewHabitService(habitRepo),
		urge:  NewUrgeService(urgeRepo),
	}
}
