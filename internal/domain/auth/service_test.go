package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"farm-traceability/internal/domain/users"
	portsauth "farm-traceability/internal/ports/auth"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]users.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]users.User)}
}

func (r *memUserRepo) Create(_ context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) Update(_ context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (r *memUserRepo) List(_ context.Context) ([]users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]users.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

type stubIssuer struct{}

func (stubIssuer) Issue(_ context.Context, c portsauth.Claims) (string, error) {
	return "token-for-" + c.UserID, nil
}

type captureMailer struct {
	mu   sync.Mutex
	to   string
	body string
}

func (m *captureMailer) Send(_ context.Context, to, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = to
	m.body = body
	return nil
}

func newTestService(t *testing.T) (*Service, *users.Service, *captureMailer) {
	t.Helper()
	us := users.NewService(newMemUserRepo())
	mailer := &captureMailer{}
	return NewService(us, stubIssuer{}, mailer, time.Hour), us, mailer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, users.RegisterInput{
		Username: "ganadero1",
		Email:    "ganadero1@example.com",
		Password: "supersecreta",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Token == "" {
		t.Fatal("Register no devolvió token")
	}
	if res.User.Role != users.RoleFarmer {
		t.Fatalf("rol por defecto = %q, quería farmer", res.User.Role)
	}

	login, err := svc.Login(ctx, "ganadero1", "supersecreta")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != res.User.ID {
		t.Fatalf("Login devolvió usuario %q, quería %q", login.User.ID, res.User.ID)
	}

	if _, err := svc.Login(ctx, "ganadero1", "incorrecta"); err == nil {
		t.Fatal("Login con contraseña incorrecta no falló")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, mailer := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, users.RegisterInput{
		Username: "vet1",
		Email:    "vet1@example.com",
		Password: "contrasenia",
		Role:     users.RoleVeterinarian,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.ForgotPassword(ctx, "vet1@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if mailer.to != "vet1@example.com" {
		t.Fatalf("mail enviado a %q", mailer.to)
	}

	// El token viaja al final del cuerpo del correo.
	fields := strings.Fields(mailer.body)
	token := fields[len(fields)-1]

	if err := svc.ResetPassword(ctx, token, "contrasenianueva"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := svc.Login(ctx, "vet1", "contrasenianueva"); err != nil {
		t.Fatalf("Login con la contraseña nueva: %v", err)
	}

	// Un solo uso: el mismo token no vale dos veces.
	if err := svc.ResetPassword(ctx, token, "otraclavemas"); err == nil {
		t.Fatal("el token de reset se pudo usar dos veces")
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc, _, mailer := newTestService(t)

	if err := svc.ForgotPassword(context.Background(), "nadie@example.com"); err != nil {
		t.Fatalf("ForgotPassword con email desconocido: %v", err)
	}
	if mailer.to != "" {
		t.Fatalf("se mandó correo a %q para un email desconocido", mailer.to)
	}
}

func TestResetTokenExpiry(t *testing.T) {
	store := newResetTokenStore(time.Minute)
	base := time.Now()
	store.now = func() time.Time { return base }

	token, err := store.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := store.Consume(token); ok {
		t.Fatal("un token vencido fue aceptado")
	}
}
