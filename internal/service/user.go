package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pivotapp/pivot/internal/model"
	"github.com/pivotapp/pivot/internal/repository"
	"github.com/pivotapp/pivot/internal/validation"
)

var ErrNameInvalid = errors.New("name must be between 1 and 100 characters")

type UserService struct {
	userRepository repository.UserRepository
}

func NewUserService(userRepository repository.UserRepository) *UserService {
	return &UserService{userRepository: userRepository}
}

func (s *UserService) ByID(id string) (*model.User, error) {
	return s.userRepository.ByID(id)
}

// UpdateName sets the display name on the user's profile.
func (s *UserService) UpdateName(userID, name string) (*model.User, error) {
	name = strings.TrimSpace(name)

	err := validation.ValidateName(name)
	if err != nil {
		return nil, ErrNameInvalid
	}

	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Name = &name
	user.UpdatedAt = time.Now().UTC()

	err = s.userRepository.Update(user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	slog.Info("user profile updated", "user_id", userID)
	return user, nil
}
