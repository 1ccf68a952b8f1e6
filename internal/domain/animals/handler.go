package animals

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"farm-traceability/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/animals", func(ar chi.Router) {
		ar.Post("/", createAnimalHandler(svc))
		ar.Get("/", listAnimalsHandler(svc))
		ar.Get("/{animalID}", getAnimalHandler(svc))
		ar.Patch("/{animalID}", updateAnimalHandler(svc))
		ar.Delete("/{animalID}", deleteAnimalHandler(svc))
	})
}

type createAnimalRequest struct {
	Name       string `json:"name"`
	Species    string `json:"species"`
	BreedID    string `json:"breed_id"`
	TagID      string `json:"tag_id"`
	FacilityID string `json:"facility_id"`
	OwnerID    string `json:"owner_id"`
	DateAdded  string `json:"date_added"` // YYYY-MM-DD opcional
}

type animalResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Species    string    `json:"species"`
	BreedID    string    `json:"breed_id,omitempty"`
	TagID      string    `json:"tag_id,omitempty"`
	FacilityID string    `json:"facility_id,omitempty"`
	OwnerID    string    `json:"owner_id,omitempty"`
	DateAdded  time.Time `json:"date_added"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type updateAnimalRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name    *string `json:"name"`
	Species *string `json:"species"`
	BreedID *string `json:"breed_id"`
	TagID   *string `json:"tag_id"`
	OwnerID *string `json:"owner_id"`
}

// createAnimalHandler godoc
// @Summary Registrar animal
// @Description Da de alta un animal en el sistema de trazabilidad. facility_id es la instalación inicial; después solo cambia vía eventos de movimiento aceptados.
// @Tags animals
// @Accept json
// @Produce json
// @Param payload body createAnimalRequest true "Datos del animal; date_added en formato YYYY-MM-DD"
// @Success 201 {object} animalResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Router /animals [post]
func createAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var da *time.Time
		if strings.TrimSpace(req.DateAdded) != "" {
			t, err := time.Parse("2006-01-02", req.DateAdded)
			if err != nil {
				http.Error(w, "date_added must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			da = &t
		}

		owner := strings.TrimSpace(req.OwnerID)
		if owner == "" {
			owner = claims.UserID
		}

		a, err := svc.Create(r.Context(), CreateInput{
			Name:       req.Name,
			Species:    req.Species,
			BreedID:    req.BreedID,
			TagID:      req.TagID,
			FacilityID: req.FacilityID,
			OwnerID:    owner,
			DateAdded:  da,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toAnimalResponse(a))
	}
}

// listAnimalsHandler godoc
// @Summary Listar animales
// @Tags animals
// @Produce json
// @Success 200 {array} animalResponse
// @Failure 401 {string} string "unauthorized"
// @Router /animals [get]
func listAnimalsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.List(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]animalResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAnimalResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getAnimalHandler godoc
// @Summary Perfil de un animal
// @Tags animals
// @Produce json
// @Param animalID path string true "ID del animal"
// @Success 200 {object} animalResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID} [get]
func getAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, "animal not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

// updateAnimalHandler godoc
// @Summary Actualizar animal
// @Description Actualiza el perfil. facility_id no es editable por acá: la custodia solo muta vía eventos de movimiento.
// @Tags animals
// @Accept json
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param payload body updateAnimalRequest true "Campos a modificar (PATCH)"
// @Success 200 {object} animalResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID} [patch]
func updateAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		updated, err := svc.Update(r.Context(), chi.URLParam(r, "animalID"), UpdateInput{
			Name:    req.Name,
			Species: req.Species,
			BreedID: req.BreedID,
			TagID:   req.TagID,
			OwnerID: req.OwnerID,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "animal not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toAnimalResponse(updated))
	}
}

// deleteAnimalHandler godoc
// @Summary Borrar animal
// @Description Borra el animal. Si tiene eventos asociados, requiere ?cascade=true: se borra la historia de trazabilidad completa.
// @Tags animals
// @Param animalID path string true "ID del animal"
// @Param cascade query bool false "Borrar también el log de eventos"
// @Success 204 {string} string ""
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Failure 409 {string} string "animal has events"
// @Router /animals/{animalID} [delete]
func deleteAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		cascade := r.URL.Query().Get("cascade") == "true"

		err := svc.Delete(r.Context(), chi.URLParam(r, "animalID"), cascade)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				http.Error(w, "animal not found", http.StatusNotFound)
			case errors.Is(err, ErrHasEvents):
				http.Error(w, "animal has events; use ?cascade=true to delete its history", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func toAnimalResponse(a Animal) animalResponse {
	return animalResponse{
		ID:         a.ID,
		Name:       a.Name,
		Species:    a.Species,
		BreedID:    a.BreedID,
		TagID:      a.TagID,
		FacilityID: a.FacilityID,
		OwnerID:    a.OwnerID,
		DateAdded:  a.DateAdded,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
