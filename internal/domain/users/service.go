package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("username or email already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Phone    string
	Role     string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" || len(in.Password) < 8 {
		return User{}, ErrInvalidInput
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return User{}, ErrDuplicate
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrDuplicate
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = RoleFarmer
	}

	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
		PasswordHash: string(hash),
		Notifications: NotificationPrefs{
			AnomalyAlerts:  true,
			MovementAlerts: true,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Authenticate valida username+password y devuelve el usuario.
// Devuelve siempre ErrInvalidCredentials, sin distinguir usuario
// inexistente de contraseña incorrecta.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	u, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

type UpdateProfileInput struct {
	FullName *string
	Phone    *string
	Email    *string
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (User, error) {
	u, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return User{}, ErrNotFound
	}

	if in.FullName != nil {
		u.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return User{}, ErrInvalidInput
		}
		if other, err := s.repo.GetByEmail(ctx, email); err == nil && other.ID != u.ID {
			return User{}, ErrDuplicate
		}
		u.Email = email
	}
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) UpdateNotifications(ctx context.Context, id string, prefs NotificationPrefs) (User, error) {
	u, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return User{}, ErrNotFound
	}

	u.Notifications = prefs
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// ChangePassword exige la contraseña actual antes de aceptar la nueva.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	u, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return ErrNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	if len(next) < 8 {
		return ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = s.now()

	return s.repo.Update(ctx, u)
}

// ResetPassword fija la contraseña sin pedir la actual. Lo usa el flujo
// de recuperación por token, no los handlers de settings.
func (s *Service) ResetPassword(ctx context.Context, id, next string) error {
	u, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return ErrNotFound
	}
	if len(next) < 8 {
		return ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = s.now()

	return s.repo.Update(ctx, u)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}
