package dashboard

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"farm-traceability/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/dashboard", func(dr chi.Router) {
		dr.Get("/overview", overviewHandler(svc))
		dr.Get("/recent-events", recentEventsHandler(svc))
		dr.Get("/timeline", timelineHandler(svc))
		dr.Get("/top-facilities", topFacilitiesHandler(svc))
		dr.Get("/species", speciesHandler(svc))
	})
}

// overviewHandler godoc
// @Summary Resumen general
// @Description Totales de animales, instalaciones y eventos, tasa de anomalías y actividad de la última semana.
// @Tags dashboard
// @Produce json
// @Success 200 {object} Overview
// @Failure 401 {string} string "unauthorized"
// @Router /dashboard/overview [get]
func overviewHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		o, err := svc.Overview(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

// recentEventsHandler godoc
// @Summary Últimos eventos registrados
// @Tags dashboard
// @Produce json
// @Param limit query int false "Máximo de eventos (default 20, tope 100)"
// @Success 200 {array} RecentEvent
// @Failure 401 {string} string "unauthorized"
// @Router /dashboard/recent-events [get]
func recentEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items, err := svc.RecentEvents(r.Context(), limit)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// timelineHandler godoc
// @Summary Eventos por día
// @Tags dashboard
// @Produce json
// @Param days query int false "Ventana en días (default 30, tope 365)"
// @Success 200 {array} events.DayCount
// @Failure 401 {string} string "unauthorized"
// @Router /dashboard/timeline [get]
func timelineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		days, _ := strconv.Atoi(r.URL.Query().Get("days"))
		items, err := svc.Timeline(r.Context(), days)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// topFacilitiesHandler godoc
// @Summary Instalaciones con más animales
// @Tags dashboard
// @Produce json
// @Param limit query int false "Máximo de instalaciones (default 5, tope 50)"
// @Success 200 {array} FacilityCount
// @Failure 401 {string} string "unauthorized"
// @Router /dashboard/top-facilities [get]
func topFacilitiesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items, err := svc.TopFacilities(r.Context(), limit)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// speciesHandler godoc
// @Summary Distribución por especie
// @Tags dashboard
// @Produce json
// @Success 200 {array} SpeciesCount
// @Failure 401 {string} string "unauthorized"
// @Router /dashboard/species [get]
func speciesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.SpeciesDistribution(r.Context())
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
