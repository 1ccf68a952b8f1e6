package dashboard

import (
	"context"
	"testing"
	"time"

	"farm-traceability/internal/domain/events"
)

type stubAnimals struct {
	total      int
	byFacility map[string]int
	bySpecies  map[string]int
}

func (s stubAnimals) Count(context.Context) (int, error) { return s.total, nil }

func (s stubAnimals) CountByFacility(context.Context) (map[string]int, error) {
	return s.byFacility, nil
}

func (s stubAnimals) CountBySpecies(context.Context) (map[string]int, error) {
	return s.bySpecies, nil
}

type stubFacilities struct {
	total int
	names map[string]string
}

func (s stubFacilities) Count(context.Context) (int, error) { return s.total, nil }
func (s stubFacilities) FacilityName(_ context.Context, id string) (string, error) {
	return s.names[id], nil
}

type stubEvents struct {
	recent  []events.TraceEvent
	total   int
	invalid int
	week    int
	perDay  []events.DayCount
}

func (s stubEvents) ListRecent(_ context.Context, limit int) ([]events.TraceEvent, error) {
	if limit < len(s.recent) {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}

func (s stubEvents) CountByValidity(_ context.Context, since *time.Time) (int, int, error) {
	if since != nil {
		return s.week, 0, nil
	}
	return s.total, s.invalid, nil
}

func (s stubEvents) CountPerDay(context.Context, time.Time) ([]events.DayCount, error) {
	return s.perDay, nil
}

func TestOverview(t *testing.T) {
	svc := NewService(
		stubAnimals{total: 40},
		stubFacilities{total: 3},
		stubEvents{total: 200, invalid: 10, week: 25},
	)

	o, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if o.TotalAnimals != 40 || o.TotalFacilities != 3 || o.TotalEvents != 200 {
		t.Fatalf("totales incorrectos: %+v", o)
	}
	if o.AnomalyRate != 0.05 {
		t.Fatalf("AnomalyRate = %v, quería 0.05", o.AnomalyRate)
	}
	if o.EventsLast7Days != 25 {
		t.Fatalf("EventsLast7Days = %d, quería 25", o.EventsLast7Days)
	}
}

func TestOverviewEmptySystem(t *testing.T) {
	svc := NewService(stubAnimals{}, stubFacilities{}, stubEvents{})

	o, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if o.AnomalyRate != 0 {
		t.Fatalf("AnomalyRate con cero eventos = %v", o.AnomalyRate)
	}
}

func TestTopFacilitiesOrdering(t *testing.T) {
	svc := NewService(
		stubAnimals{byFacility: map[string]int{
			"f1": 3,
			"f2": 10,
			"f3": 3,
			"":   7, // animales sin instalación no cuentan
		}},
		stubFacilities{names: map[string]string{"f1": "Campo Norte", "f2": "Campo Sur"}},
		stubEvents{},
	)

	items, err := svc.TopFacilities(context.Background(), 2)
	if err != nil {
		t.Fatalf("TopFacilities: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, quería 2", len(items))
	}
	if items[0].FacilityID != "f2" || items[0].AnimalCount != 10 {
		t.Fatalf("primero = %+v, quería f2 con 10", items[0])
	}
	// Empate en conteo: desempata por ID.
	if items[1].FacilityID != "f1" {
		t.Fatalf("segundo = %+v, quería f1", items[1])
	}
	if items[0].FacilityName != "Campo Sur" {
		t.Fatalf("FacilityName = %q", items[0].FacilityName)
	}
}

func TestRecentEventsResolvesNames(t *testing.T) {
	now := time.Now()
	svc := NewService(
		stubAnimals{},
		stubFacilities{names: map[string]string{"f1": "Campo Norte"}},
		stubEvents{recent: []events.TraceEvent{
			{ID: "e1", AnimalID: "a1", Type: "movement", FacilityID: "f1", OccurredAt: now, IsValid: true},
			{ID: "e2", AnimalID: "a1", Type: "weighing", OccurredAt: now, IsValid: true},
		}},
	)

	items, err := svc.RecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d", len(items))
	}
	if items[0].FacilityName != "Campo Norte" {
		t.Fatalf("FacilityName = %q", items[0].FacilityName)
	}
	if items[1].FacilityName != "" {
		t.Fatalf("evento sin instalación trajo nombre %q", items[1].FacilityName)
	}
}

func TestSpeciesDistribution(t *testing.T) {
	svc := NewService(
		stubAnimals{bySpecies: map[string]int{"cattle": 12, "sheep": 30, "goat": 12}},
		stubFacilities{},
		stubEvents{},
	)

	items, err := svc.SpeciesDistribution(context.Background())
	if err != nil {
		t.Fatalf("SpeciesDistribution: %v", err)
	}
	if len(items) != 3 || items[0].Species != "sheep" {
		t.Fatalf("orden inesperado: %+v", items)
	}
	if items[1].Species != "cattle" || items[2].Species != "goat" {
		t.Fatalf("desempate alfabético roto: %+v", items)
	}
}
