package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"farm-traceability/internal/domain/users"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta los endpoints públicos de autenticación. Van fuera
// del grupo autenticado del router.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", registerHandler(svc))
		ar.Post("/login", loginHandler(svc))
		ar.Post("/forgot-password", forgotPasswordHandler(svc))
		ar.Post("/reset-password", resetPasswordHandler(svc))
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Role     string `json:"role" enums:"farmer,veterinarian,processor,regulator,admin"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// registerHandler godoc
// @Summary Registrar usuario
// @Description Da de alta un usuario y devuelve un token de sesión. Rol por defecto: farmer.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos del usuario; contraseña mínimo 8 caracteres"
// @Success 201 {object} authResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 409 {string} string "username o email en uso"
// @Router /auth/register [post]
func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		res, err := svc.Register(r.Context(), users.RegisterInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
			FullName: req.FullName,
			Phone:    req.Phone,
			Role:     req.Role,
		})
		if err != nil {
			switch {
			case errors.Is(err, users.ErrDuplicate):
				http.Error(w, "username or email already taken", http.StatusConflict)
			case errors.Is(err, users.ErrInvalidInput):
				http.Error(w, "username, email and a password of at least 8 characters are required", http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toAuthResponse(res))
	}
}

// loginHandler godoc
// @Summary Iniciar sesión
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} authResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "credenciales inválidas"
// @Router /auth/login [post]
func loginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		res, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		writeJSON(w, http.StatusOK, toAuthResponse(res))
	}
}

// forgotPasswordHandler godoc
// @Summary Pedir token de recuperación
// @Description Siempre responde 204, exista o no el correo: no se filtra qué emails están registrados.
// @Tags auth
// @Accept json
// @Param payload body forgotPasswordRequest true "Email de la cuenta"
// @Success 204 {string} string ""
// @Failure 400 {string} string "invalid json"
// @Router /auth/forgot-password [post]
func forgotPasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forgotPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := svc.ForgotPassword(r.Context(), req.Email); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// resetPasswordHandler godoc
// @Summary Restablecer contraseña con token
// @Description El token es de un solo uso y expira. Contraseña nueva mínimo 8 caracteres.
// @Tags auth
// @Accept json
// @Param payload body resetPasswordRequest true "Token y contraseña nueva"
// @Success 204 {string} string ""
// @Failure 400 {string} string "invalid json / contraseña inválida"
// @Failure 401 {string} string "token inválido o expirado"
// @Router /auth/reset-password [post]
func resetPasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		err := svc.ResetPassword(r.Context(), req.Token, req.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidCredentials):
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			case errors.Is(err, users.ErrInvalidInput):
				http.Error(w, "new password must be at least 8 characters", http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toAuthResponse(res LoginResult) authResponse {
	return authResponse{
		Token: res.Token,
		User: userResponse{
			ID:        res.User.ID,
			Username:  res.User.Username,
			Email:     res.User.Email,
			Role:      res.User.Role,
			CreatedAt: res.User.CreatedAt,
		},
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
