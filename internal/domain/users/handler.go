package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"farm-traceability/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta los endpoints de perfil y settings del usuario
// autenticado. El alta de usuarios vive en el módulo auth (registro +
// login), acá solo gestión de la cuenta propia.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/users/me", func(ur chi.Router) {
		ur.Get("/", meHandler(svc))
		ur.Patch("/profile", updateProfileHandler(svc))
		ur.Patch("/notifications", updateNotificationsHandler(svc))
		ur.Post("/password", changePasswordHandler(svc))
		ur.Delete("/", deleteAccountHandler(svc))
	})
}

type userResponse struct {
	ID            string            `json:"id"`
	Username      string            `json:"username"`
	Email         string            `json:"email"`
	FullName      string            `json:"full_name,omitempty"`
	Phone         string            `json:"phone,omitempty"`
	Role          string            `json:"role"`
	Notifications NotificationPrefs `json:"notifications"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type updateProfileRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// meHandler godoc
// @Summary Perfil del usuario autenticado
// @Tags users
// @Produce json
// @Success 200 {object} userResponse
// @Failure 401 {string} string "unauthorized"
// @Router /users/me [get]
func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := svc.GetByID(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// updateProfileHandler godoc
// @Summary Actualizar perfil
// @Tags users
// @Accept json
// @Produce json
// @Param payload body updateProfileRequest true "Campos a modificar (PATCH)"
// @Success 200 {object} userResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Failure 409 {string} string "email en uso"
// @Router /users/me/profile [patch]
func updateProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.UpdateProfile(r.Context(), claims.UserID, UpdateProfileInput{
			FullName: req.FullName,
			Phone:    req.Phone,
			Email:    req.Email,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrDuplicate):
				http.Error(w, "email already taken", http.StatusConflict)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "user not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// updateNotificationsHandler godoc
// @Summary Preferencias de notificación
// @Tags users
// @Accept json
// @Produce json
// @Param payload body NotificationPrefs true "Preferencias completas (reemplazo, no merge)"
// @Success 200 {object} userResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Router /users/me/notifications [patch]
func updateNotificationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var prefs NotificationPrefs
		if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.UpdateNotifications(r.Context(), claims.UserID, prefs)
		if err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// changePasswordHandler godoc
// @Summary Cambiar contraseña
// @Description Exige la contraseña actual. Mínimo 8 caracteres para la nueva.
// @Tags users
// @Accept json
// @Param payload body changePasswordRequest true "Contraseña actual y nueva"
// @Success 204 {string} string ""
// @Failure 400 {string} string "contraseña nueva inválida"
// @Failure 401 {string} string "unauthorized / contraseña actual incorrecta"
// @Router /users/me/password [post]
func changePasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req changePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		err := svc.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidCredentials):
				http.Error(w, "current password is incorrect", http.StatusUnauthorized)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, "new password must be at least 8 characters", http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "user not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// deleteAccountHandler godoc
// @Summary Borrar cuenta propia
// @Tags users
// @Success 204 {string} string ""
// @Failure 401 {string} string "unauthorized"
// @Router /users/me [delete]
func deleteAccountHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), claims.UserID); err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		Phone:         u.Phone,
		Role:          u.Role,
		Notifications: u.Notifications,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
