package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pivotapp/pivot/internal/model"
	"github.com/pivotapp/pivot/internal/repository"
	"github.com/pivotapp/pivot/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be between 8 and 72 characters")
)

// GoogleProfile is the external identity returned by Google's userinfo
// endpoint, reduced to the fields this service consumes.
type GoogleProfile struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

type AuthService struct {
	userRepository repository.UserRepository
	jwtSecret      string
	jwtExpiry      time.Duration
}

func NewAuthService(userRepository repository.UserRepository, jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		userRepository: userRepository,
		jwtSecret:      jwtSecret,
		jwtExpiry:      jwtExpiry,
	}
}

// Register creates a local account and returns it with a session token.
func (s *AuthService) Register(email, password string) (*model.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, "", ErrInvalidEmail
	}

	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, "", ErrWeakPassword
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: &hash,
		AuthProvider: model.AuthProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.userRepository.Create(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", ErrEmailAlreadyExists
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.GenerateJWT(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, token, nil
}

// Login verifies password credentials and returns the user with a session
// token. Unknown email, OAuth-only account, and wrong password all map to
// the same error so account existence is not leaked.
func (s *AuthService) Login(email, password string) (*model.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			slog.Warn("login attempt for unknown email", "email", email)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		slog.Warn("password login attempt for oauth-only account", "user_id", user.ID)
		return nil, "", ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password))
	if err != nil {
		slog.Warn("invalid password", "user_id", user.ID)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateJWT(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	return user, token, nil
}

// AuthenticateGoogle resolves an external Google identity to exactly one
// user record. Three-way branch: match on google id, else link onto an
// existing account with the same email, else create a fresh OAuth-only
// account. Repeated logins with the same profile converge to one user.
func (s *AuthService) AuthenticateGoogle(profile GoogleProfile) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(profile.Email))
	if email == "" {
		return nil, ErrInvalidEmail
	}

	user, err := s.userRepository.ByGoogleID(profile.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to lookup user: %w", err)
	}

	user, err = s.userRepository.ByEmail(email)
	if err == nil {
		// Existing local account with the same email: link the Google
		// identity onto it and refresh name/picture from the provider.
		user.GoogleID = &profile.ID
		user.AuthProvider = model.AuthProviderGoogle
		if profile.Name != "" {
			user.Name = &profile.Name
		}
		if profile.Picture != "" {
			user.ProfilePicture = &profile.Picture
		}
		user.UpdatedAt = time.Now().UTC()

		err = s.userRepository.Update(user)
		if err != nil {
			return nil, fmt.Errorf("failed to link google account: %w", err)
		}

		slog.Info("google account linked", "user_id", user.ID, "email", user.Email)
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to lookup user: %w", err)
	}

	now := time.Now().UTC()
	user = &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		GoogleID:     &profile.ID,
		AuthProvider: model.AuthProviderGoogle,
		CreatedAt:    now,
		UpdatedAt:    now,
		// password_hash stays NULL for OAuth-only accounts
	}
	if profile.Name != "" {
		user.Name = &profile.Name
	}
	if profile.Picture != "" {
		user.ProfilePicture = &profile.Picture
	}

	err = s.userRepository.Create(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new google user created", "user_id", user.ID, "email", user.Email)
	return user, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// ValidateSession verifies a bearer token and loads the referenced user.
// Runs on every authenticated request.
func (s *AuthService) ValidateSession(tokenString string) (*model.User, error) {
	claims, err := s.VerifyJWT(tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("invalid token subject")
	}

	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return nil, fmt.Errorf("token user not found: %w", err)
	}

	return user, nil
}
