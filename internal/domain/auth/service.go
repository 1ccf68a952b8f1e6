package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farm-traceability/internal/domain/users"
	portsauth "farm-traceability/internal/ports/auth"
	"farm-traceability/internal/ports/mail"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Service orquesta login, registro y recuperación de contraseña sobre el
// módulo de usuarios.
type Service struct {
	users  *users.Service
	issuer portsauth.TokenIssuer
	mailer mail.Sender
	resets *resetTokenStore
}

func NewService(us *users.Service, issuer portsauth.TokenIssuer, mailer mail.Sender, resetTTL time.Duration) *Service {
	return &Service{
		users:  us,
		issuer: issuer,
		mailer: mailer,
		resets: newResetTokenStore(resetTTL),
	}
}

type LoginResult struct {
	Token string
	User  users.User
}

func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	u, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(ctx, portsauth.Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	})
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Token: token, User: u}, nil
}

func (s *Service) Register(ctx context.Context, in users.RegisterInput) (LoginResult, error) {
	u, err := s.users.Register(ctx, in)
	if err != nil {
		return LoginResult{}, err
	}

	token, err := s.issuer.Issue(ctx, portsauth.Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	})
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Token: token, User: u}, nil
}

// ForgotPassword emite un token de recuperación y lo manda por correo.
// Si el email no existe no devuelve error: no se filtra qué correos
// están registrados.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil
	}

	token, err := s.resets.Issue(u.ID)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Hola %s,\n\nUsá este token para restablecer tu contraseña: %s\n", u.Username, token)
	return s.mailer.Send(ctx, u.Email, "Restablecer contraseña", body)
}

// ResetPassword consume el token (un solo uso) y fija la contraseña nueva.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, ok := s.resets.Consume(token)
	if !ok {
		return ErrInvalidCredentials
	}
	return s.users.ResetPassword(ctx, userID, newPassword)
}
