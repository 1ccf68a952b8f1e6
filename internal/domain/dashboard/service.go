package dashboard

import (
	"context"
	"sort"
	"time"

	"farm-traceability/internal/domain/events"
)

// AnimalStats es la porción del repositorio de animales que consume el
// dashboard.
type AnimalStats interface {
	Count(ctx context.Context) (int, error)
	CountByFacility(ctx context.Context) (map[string]int, error)
	CountBySpecies(ctx context.Context) (map[string]int, error)
}

// FacilityStats resuelve totales y nombres de instalaciones.
type FacilityStats interface {
	Count(ctx context.Context) (int, error)
	FacilityName(ctx context.Context, facilityID string) (string, error)
}

// EventStats es la porción del repositorio de eventos que consume el
// dashboard.
type EventStats interface {
	ListRecent(ctx context.Context, limit int) ([]events.TraceEvent, error)
	CountByValidity(ctx context.Context, since *time.Time) (total int, invalid int, err error)
	CountPerDay(ctx context.Context, since time.Time) ([]events.DayCount, error)
}

type Service struct {
	animals    AnimalStats
	facilities FacilityStats
	events     EventStats
	now        func() time.Time
}

func NewService(animals AnimalStats, facilities FacilityStats, ev EventStats) *Service {
	return &Service{
		animals:    animals,
		facilities: facilities,
		events:     ev,
		now:        time.Now,
	}
}

type Overview struct {
	TotalAnimals    int     `json:"total_animals"`
	TotalFacilities int     `json:"total_facilities"`
	TotalEvents     int     `json:"total_events"`
	TotalAnomalies  int     `json:"total_anomalies"`
	AnomalyRate     float64 `json:"anomaly_rate"`
	EventsLast7Days int     `json:"events_last_7_days"`
}

func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var o Overview
	var err error

	if o.TotalAnimals, err = s.animals.Count(ctx); err != nil {
		return Overview{}, err
	}
	if o.TotalFacilities, err = s.facilities.Count(ctx); err != nil {
		return Overview{}, err
	}
	if o.TotalEvents, o.TotalAnomalies, err = s.events.CountByValidity(ctx, nil); err != nil {
		return Overview{}, err
	}
	if o.TotalEvents > 0 {
		o.AnomalyRate = float64(o.TotalAnomalies) / float64(o.TotalEvents)
	}

	weekAgo := s.now().AddDate(0, 0, -7)
	if o.EventsLast7Days, _, err = s.events.CountByValidity(ctx, &weekAgo); err != nil {
		return Overview{}, err
	}

	return o, nil
}

type RecentEvent struct {
	ID            string    `json:"id"`
	AnimalID      string    `json:"animal_id"`
	EventType     string    `json:"event_type"`
	FacilityID    string    `json:"facility_id,omitempty"`
	FacilityName  string    `json:"facility_name,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
	IsValid       bool      `json:"is_valid"`
	AnomalyReason string    `json:"anomaly_reason,omitempty"`
}

// RecentEvents devuelve los últimos eventos registrados, con el nombre de
// la instalación resuelto cuando existe.
func (s *Service) RecentEvents(ctx context.Context, limit int) ([]RecentEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	items, err := s.events.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	out := make([]RecentEvent, 0, len(items))
	for _, e := range items {
		re := RecentEvent{
			ID:            e.ID,
			AnimalID:      e.AnimalID,
			EventType:     string(e.Type),
			FacilityID:    e.FacilityID,
			OccurredAt:    e.OccurredAt,
			IsValid:       e.IsValid,
			AnomalyReason: e.AnomalyReason,
		}
		if e.FacilityID != "" {
			name, ok := names[e.FacilityID]
			if !ok {
				// Una instalación borrada no rompe el dashboard.
				name, _ = s.facilities.FacilityName(ctx, e.FacilityID)
				names[e.FacilityID] = name
			}
			re.FacilityName = name
		}
		out = append(out, re)
	}
	return out, nil
}

// Timeline devuelve el conteo de eventos por día de los últimos `days` días.
func (s *Service) Timeline(ctx context.Context, days int) ([]events.DayCount, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	since := s.now().AddDate(0, 0, -days)
	return s.events.CountPerDay(ctx, since)
}

type FacilityCount struct {
	FacilityID   string `json:"facility_id"`
	FacilityName string `json:"facility_name,omitempty"`
	AnimalCount  int    `json:"animal_count"`
}

// TopFacilities devuelve las instalaciones con más animales en custodia.
func (s *Service) TopFacilities(ctx context.Context, limit int) ([]FacilityCount, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}

	counts, err := s.animals.CountByFacility(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]FacilityCount, 0, len(counts))
	for id, n := range counts {
		if id == "" {
			continue
		}
		name, _ := s.facilities.FacilityName(ctx, id)
		out = append(out, FacilityCount{FacilityID: id, FacilityName: name, AnimalCount: n})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AnimalCount != out[j].AnimalCount {
			return out[i].AnimalCount > out[j].AnimalCount
		}
		return out[i].FacilityID < out[j].FacilityID
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type SpeciesCount struct {
	Species string `json:"species"`
	Count   int    `json:"count"`
}

// SpeciesDistribution devuelve cuántos animales hay por especie.
func (s *Service) SpeciesDistribution(ctx context.Context) ([]SpeciesCount, error) {
	counts, err := s.animals.CountBySpecies(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]SpeciesCount, 0, len(counts))
	for sp, n := range counts {
		out = append(out, SpeciesCount{Species: sp, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Species < out[j].Species
	})
	return out, nil
}
