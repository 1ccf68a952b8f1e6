package breeds

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/breeds", func(br chi.Router) {
		br.Get("/", listBreedsHandler(svc))
		br.Get("/species", listSpeciesHandler(svc))
		br.Get("/countries", listCountriesHandler(svc))
		br.Get("/{breedID}", getBreedHandler(svc))
	})
}

// listBreedsHandler godoc
// @Summary Catálogo de razas
// @Description Lista razas con filtros opcionales. search matchea nombre, nombre transfronterizo y otros nombres.
// @Tags breeds
// @Produce json
// @Param specie query string false "Filtrar por especie"
// @Param country query string false "Filtrar por país"
// @Param search query string false "Búsqueda por nombre"
// @Param limit query int false "Máximo de resultados (default 100, tope 500)"
// @Success 200 {array} Breed
// @Router /breeds [get]
func listBreedsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		limit := 0
		if raw := q.Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "limit must be an integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		items, err := svc.List(r.Context(), Filter{
			Specie:  q.Get("specie"),
			Country: q.Get("country"),
			Search:  q.Get("search"),
			Limit:   limit,
		})
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// getBreedHandler godoc
// @Summary Detalle de una raza
// @Tags breeds
// @Produce json
// @Param breedID path string true "ID de la raza"
// @Success 200 {object} Breed
// @Failure 404 {string} string "breed not found"
// @Router /breeds/{breedID} [get]
func getBreedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.GetByID(r.Context(), chi.URLParam(r, "breedID"))
		if err != nil {
			http.Error(w, "breed not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// listSpeciesHandler godoc
// @Summary Especies con razas en el catálogo
// @Tags breeds
// @Produce json
// @Success 200 {array} string
// @Router /breeds/species [get]
func listSpeciesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Species(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// listCountriesHandler godoc
// @Summary Países con razas en el catálogo
// @Tags breeds
// @Produce json
// @Success 200 {array} string
// @Router /breeds/countries [get]
func listCountriesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Countries(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
