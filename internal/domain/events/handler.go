package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"farm-traceability/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// FacilityNameResolver resuelve nombres de instalaciones para el historial
// de movimientos. Lo implementa el módulo facilities.
type FacilityNameResolver interface {
	FacilityName(ctx context.Context, facilityID string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, facilities FacilityNameResolver) {
	r.Route("/animals/{animalID}/events", func(er chi.Router) {
		er.Post("/", submitEventHandler(svc))
		er.Get("/", listEventsHandler(svc))
	})

	r.Get("/animals/{animalID}/movements", movementHistoryHandler(svc, facilities))
	r.Get("/animals/{animalID}/state", currentStateHandler(svc))
}

// submitEventRequest es el cuerpo para registrar un evento de ciclo de vida.
type submitEventRequest struct {
	Type       EventType `json:"event_type" enums:"birth,vaccination,weighing,movement,health_check,feeding,medication,breeding,sale,slaughter"`
	OccurredAt string    `json:"timestamp"` // RFC3339; vacío => now
	FacilityID string    `json:"facility_id"`
	Metadata   string    `json:"metadata"`
}

// eventResponse representa un evento persistido con su veredicto.
type eventResponse struct {
	ID            string    `json:"id"`
	AnimalID      string    `json:"animal_id"`
	Type          EventType `json:"event_type"`
	ActorID       string    `json:"actor_id,omitempty"`
	FacilityID    string    `json:"facility_id,omitempty"`
	OccurredAt    time.Time `json:"timestamp"`
	RecordedAt    time.Time `json:"recorded_at"`
	Metadata      string    `json:"metadata,omitempty"`
	IsValid       bool      `json:"is_valid"`
	AnomalyReason *string   `json:"anomaly_reason"`
}

// submitResponse es la respuesta del intake: id + veredicto.
type submitResponse struct {
	EventID       string  `json:"event_id"`
	IsValid       bool    `json:"is_valid"`
	AnomalyReason *string `json:"anomaly_reason"`
}

// movementResponse es un movimiento aceptado con la instalación resuelta.
type movementResponse struct {
	EventID      string    `json:"event_id"`
	FacilityID   string    `json:"facility_id"`
	FacilityName string    `json:"facility_name"`
	OccurredAt   time.Time `json:"timestamp"`
}

// stateResponse es el estado custodial proyectado.
type stateResponse struct {
	AnimalID    string `json:"animal_id"`
	FacilityID  string `json:"facility_id"`
	OwnerID     string `json:"owner_id"`
	LastEventID string `json:"last_event_id,omitempty"`
}

// submitEventHandler godoc
// @Summary Registrar evento de ciclo de vida
// @Description Valida el evento contra el motor de plausibilidad y lo persiste SIEMPRE, con su veredicto. Un veredicto inválido no es error HTTP: el evento queda para auditoría con su anomaly_reason. Movimientos válidos actualizan la instalación custodial del animal.
// @Tags events
// @Accept json
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param payload body submitEventRequest true "Evento candidato; timestamp RFC3339 (vacío = ahora)"
// @Success 201 {object} submitResponse
// @Failure 400 {string} string "invalid json / timestamp inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID}/events [post]
func submitEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req submitEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		occurredAt := time.Now().UTC()
		if strings.TrimSpace(req.OccurredAt) != "" {
			t, err := time.Parse(time.RFC3339, req.OccurredAt)
			if err != nil {
				http.Error(w, "timestamp must be RFC3339", http.StatusBadRequest)
				return
			}
			occurredAt = t
		}

		e, err := svc.Submit(r.Context(), Candidate{
			AnimalID:   chi.URLParam(r, "animalID"),
			Type:       req.Type,
			ActorID:    claims.UserID,
			FacilityID: req.FacilityID,
			OccurredAt: occurredAt,
			Metadata:   req.Metadata,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				http.Error(w, "animal not found", http.StatusNotFound)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, submitResponse{
			EventID:       e.ID,
			IsValid:       e.IsValid,
			AnomalyReason: nullableReason(e),
		})
	}
}

// listEventsHandler godoc
// @Summary Listar eventos de un animal
// @Description Lista el log de eventos del animal, incluidas anomalías. Filtros: tipos (CSV), validity (all|valid|anomaly), rango de fechas, limit.
// @Tags events
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param types query string false "Lista CSV de tipos (ej: movement,vaccination)"
// @Param validity query string false "all | valid | anomaly"
// @Param from query string false "occurred_at mínimo (RFC3339)"
// @Param to query string false "occurred_at máximo (RFC3339)"
// @Param limit query int false "Máximo de eventos (1-200). Por defecto 50"
// @Success 200 {array} eventResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 401 {string} string "unauthorized"
// @Router /animals/{animalID}/events [get]
func listEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByAnimal(r.Context(), chi.URLParam(r, "animalID"), filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]eventResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEventResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// movementHistoryHandler godoc
// @Summary Historial de movimientos
// @Description Devuelve los movimientos ACEPTADOS del animal en orden cronológico, con el nombre de la instalación resuelto. Los movimientos inválidos no aparecen: la cadena de custodia se reconstruye solo con eventos válidos.
// @Tags events
// @Produce json
// @Param animalID path string true "ID del animal"
// @Success 200 {array} movementResponse
// @Failure 401 {string} string "unauthorized"
// @Router /animals/{animalID}/movements [get]
func movementHistoryHandler(svc *Service, facilities FacilityNameResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		moves, err := svc.MovementHistory(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]movementResponse, 0, len(moves))
		for _, m := range moves {
			name := ""
			if facilities != nil {
				if n, err := facilities.FacilityName(r.Context(), m.FacilityID); err == nil {
					name = n
				}
			}
			out = append(out, movementResponse{
				EventID:      m.ID,
				FacilityID:   m.FacilityID,
				FacilityName: name,
				OccurredAt:   m.OccurredAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// currentStateHandler godoc
// @Summary Estado custodial actual
// @Description Proyecta el estado actual del animal (instalación + dueño) desde el fold del log de eventos válidos.
// @Tags events
// @Produce json
// @Param animalID path string true "ID del animal"
// @Success 200 {object} stateResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID}/state [get]
func currentStateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		snap, err := svc.CurrentState(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput):
				http.Error(w, "animal not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, stateResponse{
			AnimalID:    snap.AnimalID,
			FacilityID:  snap.FacilityID,
			OwnerID:     snap.OwnerID,
			LastEventID: snap.LastEventID,
		})
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	filter := ListFilter{Limit: limit}

	if v := strings.TrimSpace(r.URL.Query().Get("types")); v != "" {
		parts := strings.Split(v, ",")
		out := make([]EventType, 0, len(parts))
		for _, p := range parts {
			t := EventType(strings.TrimSpace(p))
			if t == "" {
				continue
			}
			out = append(out, t)
		}
		if len(out) > 0 {
			filter.Types = out
		}
	}

	switch strings.TrimSpace(r.URL.Query().Get("validity")) {
	case "", string(ValidityAny):
		filter.Validity = ValidityAny
	case string(ValidityValid):
		filter.Validity = ValidityValid
	case string(ValidityInvalid):
		filter.Validity = ValidityInvalid
	default:
		return ListFilter{}, errors.New("validity must be all, valid or anomaly")
	}

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("to must be RFC3339")
		}
		filter.To = &t
	}

	return filter, nil
}

func toEventResponse(e TraceEvent) eventResponse {
	return eventResponse{
		ID:            e.ID,
		AnimalID:      e.AnimalID,
		Type:          e.Type,
		ActorID:       e.ActorID,
		FacilityID:    e.FacilityID,
		OccurredAt:    e.OccurredAt,
		RecordedAt:    e.RecordedAt,
		Metadata:      e.Metadata,
		IsValid:       e.IsValid,
		AnomalyReason: nullableReason(e),
	}
}

func nullableReason(e TraceEvent) *string {
	if e.IsValid {
		return nil
	}
	reason := e.AnomalyReason
	return &reason
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
