package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cycleconnect/server/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles user registration, login, JWT token operations and
// profile media.
type AuthService struct {
	users      domain.UserRepository
	media      domain.MediaStore
	jwtSecret  []byte
	bcryptCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, media domain.MediaStore, jwtSecret string, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		media:      media,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
	}
}

// RegisterUserInput carries the fields of an account registration request.
type RegisterUserInput struct {
	Email           string
	FullName        string
	PhoneNumber     string
	UpiID           string
	Password        string
	ConfirmPassword string
}

// Register creates a new user account after validating inputs.
func (s *AuthService) Register(ctx context.Context, in RegisterUserInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	fullName := strings.TrimSpace(in.FullName)

	if email == "" || fullName == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email, full name, and password are required", domain.ErrInvalidInput)
	}

	if in.Password != in.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", domain.ErrInvalidInput)
	}

	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		FullName:     fullName,
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		UpiID:        strings.TrimSpace(in.UpiID),
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and returns a signed JWT token string.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrUnauthorized
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrUnauthorized
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return "", fmt.Errorf("generate jwt: %w", err)
	}

	return token, nil
}

// ValidateToken parses and validates a JWT token string.
// Returns the user ID from the sub claim.
func (s *AuthService) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, domain.ErrUnauthorized
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	return userID, nil
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// SetAvatar uploads avatar bytes to the media store and persists the
// resulting URL on the user. Returns the public avatar URL.
func (s *AuthService) SetAvatar(ctx context.Context, userID int64, contentType string, data []byte) (string, error) {
	if err := validateImage(contentType, data); err != nil {
		return "", err
	}

	key := storageKey("avatars")
	url, err := s.media.Upload(ctx, key, contentType, data)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	if err := s.users.UpdateAvatar(ctx, userID, url); err != nil {
		return "", fmt.Errorf("update avatar: %w", err)
	}

	return url, nil
}

func (s *AuthService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       strconv.FormatInt(user.ID, 10),
		"email":     user.Email,
		"full_name": user.FullName,
		"iat":       now.Unix(),
		"exp":       now.Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
