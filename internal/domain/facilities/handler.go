package facilities

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
	r.Route("/facilities", func(fr chi.Router) {
		fr.Post("/", createFacilityHandler(svc))
		fr.Get("/", listFacilitiesHandler(svc))
		fr.Get("/{facilityID}", getFacilityHandler(svc))
		fr.Patch("/{facilityID}", updateFacilityHandler(svc))
		fr.Delete("/{facilityID}", deleteFacilityHandler(svc))
	})
}

type createFacilityRequest struct {
	Name      string   `json:"name"`
	Location  string   `json:"location"`
	Type      string   `json:"facility_type" enums:"farm,processor,retailer"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type facilityResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	Type      string    `json:"facility_type,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type updateFacilityRequest struct {
	Name      *string  `json:"name"`
	Location  *string  `json:"location"`
	Type      *string  `json:"facility_type"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// createFacilityHandler godoc
// @Summary Crear instalación
// @Description Crea una instalación custodial. latitude/longitude son opcionales pero van juntas; sin coordenadas la regla de velocidad del motor se salta.
// @Tags facilities
// @Accept json
// @Produce json
// @Param payload body createFacilityRequest true "Datos de la instalación"
// @Success 201 {object} facilityResponse
// @Failure 400 {string} string "invalid json / coordenadas inválidas"
// @Failure 401 {string} string "unauthorized"
// @Router /facilities [post]
func createFacilityHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createFacilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		f, err := svc.Create(r.Context(), CreateInput{
			Name:      req.Name,
			Location:  req.Location,
			Type:      req.Type,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toFacilityResponse(f))
	}
}

// listFacilitiesHandler godoc
// @Summary Listar instalaciones
// @Tags facilities
// @Produce json
// @Success 200 {array} facilityResponse
// @Failure 401 {string} string "unauthorized"
// @Router /facilities [get]
func listFacilitiesHandler(svc *Service) http.HandlerFunc {
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

		out := make([]facilityResponse, 0, len(items))
		for _, f := range items {
			out = append(out, toFacilityResponse(f))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getFacilityHandler godoc
// @Summary Detalle de una instalación
// @Tags facilities
// @Produce json
// @Param facilityID path string true "ID de la instalación"
// @Success 200 {object} facilityResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "facility not found"
// @Router /facilities/{facilityID} [get]
func getFacilityHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		f, err := svc.GetByID(r.Context(), chi.URLParam(r, "facilityID"))
		if err != nil {
			http.Error(w, "facility not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toFacilityResponse(f))
	}
}

// updateFacilityHandler godoc
// @Summary Actualizar instalación
// @Tags facilities
// @Accept json
// @Produce json
// @Param facilityID path string true "ID de la instalación"
// @Param payload body updateFacilityRequest true "Campos a modificar (PATCH)"
// @Success 200 {object} facilityResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "facility not found"
// @Router /facilities/{facilityID} [patch]
func updateFacilityHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateFacilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		updated, err := svc.Update(r.Context(), chi.URLParam(r, "facilityID"), UpdateInput{
			Name:      req.Name,
			Location:  req.Location,
			Type:      req.Type,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "facility not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toFacilityResponse(updated))
	}
}

// deleteFacilityHandler godoc
// @Summary Borrar instalación
// @Description Rechaza el borrado mientras haya animales o eventos que la referencien (no se dejan eventos huérfanos).
// @Tags facilities
// @Param facilityID path string true "ID de la instalación"
// @Success 204 {string} string ""
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "facility not found"
// @Failure 409 {string} string "facility is referenced"
// @Router /facilities/{facilityID} [delete]
func deleteFacilityHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		err := svc.Delete(r.Context(), chi.URLParam(r, "facilityID"))
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				http.Error(w, "facility not found", http.StatusNotFound)
			case errors.Is(err, ErrReferenced):
				http.Error(w, "facility is referenced by animals or events", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func toFacilityResponse(f Facility) facilityResponse {
	return facilityResponse{
		ID:        f.ID,
		Name:      f.Name,
		Location:  f.Location,
		Type:      f.Type,
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
