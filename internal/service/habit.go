package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pivotapp/pivot/internal/model"
	"github.com/pivotapp/pivot/internal/repository"
)

var (
	ErrHabitNameRequired = errors.New("habit name is required")
	ErrInvalidHabitType  = errors.New("habit type must be standard or custom")
)

type HabitService struct {
	habitRepository repository.HabitRepository
}

func NewHabitService(habitRepository repository.HabitRepository) *HabitService {
	return &HabitService{habitRepository: habitRepository}
}

// FindOrCreate returns the habit named name in the given scope, creating
// it on first reference. Standard habits are global (no owner); custom
// habits belong to the given user. Calling twice with the same arguments
// returns the same habit id.
func (s *HabitService) FindOrCreate(userID *string, name, habitType string) (*model.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrHabitNameRequired
	}
	if !model.ValidHabitType(habitType) {
		return nil, ErrInvalidHabitType
	}

	habit := &model.Habit{
		ID:        uuid.New().String(),
		Name:      name,
		Type:      habitType,
		CreatedAt: time.Now().UTC(),
	}
	if habitType == model.HabitTypeCustom {
		habit.UserID = userID
	}

	created, err := s.habitRepository.FindOrCreate(habit)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create habit: %w", err)
	}

	if created.ID == habit.ID {
		slog.Info("habit created", "habit_id", created.ID, "name", created.Name, "type", created.Type)
	}

	return created, nil
}

// ListForUser returns all standard habits plus the user's custom habits,
// ordered by type then name.
func (s *HabitService) ListForUser(userID string) ([]*model.Habit, error) {
	habits, err := s.habitRepository.VisibleToUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	return habits, nil
}

func (s *HabitService) ByID(habitID string) (*model.Habit, error) {
	return s.habitRepository.ByID(habitID)
}

// EnsureStandardHabits seeds the shared habit catalog. Idempotent; runs
// at startup.
func (s *HabitService) EnsureStandardHabits() error {
	for _, name := range model.StandardHabits {
		_, err := s.FindOrCreate(nil, name, model.HabitTypeStandard)
		if err != nil {
			return fmt.Errorf("failed to seed standard habit %q: %w", name, err)
		}
	}
	return nil
}
