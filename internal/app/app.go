package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pivotapp/pivot/internal/config"
	"github.com/pivotapp/pivot/internal/db"
	"github.com/pivotapp/pivot/internal/repository"
	"github.com/pivotapp/pivot/internal/service"
)

type App struct {
	Cfg          *config.Config
	DB           *sqlx.DB
	AuthService  *service.AuthService
	UserService  *service.UserService
	HabitService *service.HabitService
	UrgeService  *service.UrgeService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	habitRepository := repository.NewHabitRepository(database)
	urgeRepository := repository.NewUrgeRepository(database, cfg.DBDriver)

	// Services
	authService := service.NewAuthService(userRepository, cfg.JWTSecret, cfg.JWTExpiry)
	userService := service.NewUserService(userRepository)
	habitService := service.NewHabitService(habitRepository)
	urgeService := service.NewUrgeService(urgeRepository)

	// Seed the shared habit catalog
	err = habitService.EnsureStandardHabits()
	if err != nil {
		return nil, fmt.Errorf("failed to seed standard habits: %v", err)
	}

	return &App{
		Cfg:          cfg,
		DB:           database,
		AuthService:  authService,
		UserService:  userService,
		HabitService: habitService,
		UrgeService:  urgeService,
	}, nil
}

func (a *App) Close() error {
	return db.Close(a.DB)
}
