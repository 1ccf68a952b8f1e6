package events

import (
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		MaxSpeedKmh:        100,
		DuplicateTolerance: time.Second,
		LookbackDays:       90,
		LookbackLimit:      500,
	}
}

func mustRuleSet(t *testing.T) *RuleSet {
	t.Helper()
	rs, err := NewRuleSet(testConfig())
	if err != nil {
		t.Fatalf("NewRuleSet: %v", err)
	}
	return rs
}

func baseInput() Input {
	registered := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	occurred := registered.AddDate(0, 1, 0)
	return Input{
		Candidate: Candidate{
			AnimalID:   "a1",
			Type:       EventTypeVaccination,
			OccurredAt: occurred,
		},
		Snapshot: Snapshot{
			AnimalID:       "a1",
			FacilityID:     "f1",
			RegisteredAt:   registered,
			LastLocationAt: registered,
			AsOf:           occurred,
		},
	}
}

func TestRuleSetAcceptsCleanEvent(t *testing.T) {
	rs := mustRuleSet(t)

	v := rs.Evaluate(baseInput())
	if !v.IsValid {
		t.Fatalf("evento limpio rechazado: %q", v.Reason)
	}
	if v.Reason != "" {
		t.Fatalf("veredicto válido con razón: %q", v.Reason)
	}
}

func TestRuleSetBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSpeedKmh = 0
	if _, err := NewRuleSet(cfg); err == nil {
		t.Fatal("config con velocidad cero aceptada")
	}

	cfg = testConfig()
	cfg.LookbackDays = -1
	if _, err := NewRuleSet(cfg); err == nil {
		t.Fatal("config con lookback negativo aceptada")
	}
}

func TestDuplicateRule(t *testing.T) {
	rs := mustRuleSet(t)

	in := baseInput()
	in.Recent = []TraceEvent{{
		ID:         "e1",
		AnimalID:   "a1",
		Type:       EventTypeVaccination,
		OccurredAt: in.Candidate.OccurredAt.Add(500 * time.Millisecond),
		IsValid:    true,
	}}

	v := rs.Evaluate(in)
	if v.IsValid {
		t.Fatal("duplicado dentro de la tolerancia aceptado")
	}
	if v.Reason != "Duplicate event detected" {
		t.Fatalf("razón = %q", v.Reason)
	}
}

func TestDuplicateRuleOutsideTolerance(t *testing.T) {
	rs := mustRuleSet(t)

	in := baseInput()
	in.Recent = []TraceEvent{{
		ID:         "e1",
		Type:       EventTypeVaccination,
		OccurredAt: in.Candidate.OccurredAt.Add(5 * time.Second),
		IsValid:    true,
	}}

	if v := rs.Evaluate(in); !v.IsValid {
		t.Fatalf("evento fuera de la tolerancia rechazado: %q", v.Reason)
	}
}

func TestDuplicateRuleCountsInvalidEvents(t *testing.T) {
	rs := mustRuleSet(t)

	// Un duplicado de un evento inválido sigue siendo un duplicado.
	in := baseInput()
	in.Recent = []TraceEvent{{
		ID:         "e1",
		Type:       EventTypeVaccination,
		OccurredAt: in.Candidate.OccurredAt,
		IsValid:    false,
	}}

	if v := rs.Evaluate(in); v.IsValid {
		t.Fatal("duplicado de un evento inválido aceptado")
	}
}

func TestTravelRuleRejectsImplausibleSpeed(t *testing.T) {
	rs := mustRuleSet(t)

	in := baseInput()
	in.Candidate.Type = EventTypeMovement
	in.Candidate.FacilityID = "f2"
	// 500 km en una hora con tope de 100 km/h.
	in.Candidate.OccurredAt = in.Snapshot.LastLocationAt.Add(time.Hour)
	dist := 500.0
	in.DistanceKm = &dist

	v := rs.Evaluate(in)
	if v.IsValid {
		t.Fatal("velocidad implausible aceptada")
	}
	if v.Reason != "Unrealistic travel speed" {
		t.Fatalf("razón = %q", v.Reason)
	}
}

func TestTravelRuleAcceptsPlausibleSpeed(t *testing.T) {
	rs := mustRuleSet(t)

	in := baseInput()
	in.Candidate.Type = EventTypeMovement
	in.Candidate.FacilityID = "f2"
	in.Candidate.OccurredAt = in.Snapshot.LastLocationAt.Add(10 * time.Hour)
	dist := 500.0 // 50 km/h
	in.DistanceKm = &dist

	if v := rs.Evaluate(in); !v.IsValid {
		t.Fatalf("velocidad plausible rechazada: %q", v.Reason)
	}
}

func TestTravelRuleSkipsWithoutDistance(t *testing.T) {
	rs := mustRuleSet(t)

	// Sin coordenadas no hay distancia: la regla se salta, no falla.
	in := baseInput()
	in.Candidate.Type = EventTypeMovement
	in.Candidate.FacilityID = "f2"
	in.DistanceKm = nil

	if v := rs.Evaluate(in); !v.IsValid {
		t.Fatalf("movimiento sin distancia conocida rechazado: %q", v.Reason)
	}
}

func TestTravelRuleZeroElapsed(t *testing.T) {
	rs := mustRuleSet(t)

	in := baseInput()
	in.Candidate.Type = EventTypeMovement
	in.Candidate.FacilityID = "f2"
	in.Candidate.OccurredAt = in.Snapshot.LastLocationAt
	dist := 1.0
	in.DistanceKm = &dist

	if v := rs.Evaluate(in); v.IsValid {
		t.Fatal("distancia positiva sin tiempo transcurrido aceptada")
	}
}

func TestTemporalRulePredatesRegistration(t *testing.T) {
	rs := mustRuleSet(t)

	in := baseInput()
	in.Candidate.OccurredAt = in.Snapshot.RegisteredAt.Add(-time.Hour)

	v := rs.Evaluate(in)
	if v.IsValid {
		t.Fatal("evento anterior al alta aceptado")
	}
	if v.Reason != "Event predates animal registration" {
		t.Fatalf("razón = %q", v.Reason)
	}
}

func TestTemporalRuleTimestampCollision(t *testing.T) {
	rs := mustRuleSet(t)

	in := baseInput()
	in.Candidate.Type = EventTypeWeighing
	in.Recent = []TraceEvent{{
		ID:         "e1",
		Type:       EventTypeWeighing,
		FacilityID: "f9", // distinta instalación: no es duplicado, sí colisión
		OccurredAt: in.Candidate.OccurredAt,
		IsValid:    true,
	}}

	v := rs.Evaluate(in)
	if v.IsValid {
		t.Fatal("colisión (tipo, timestamp) con evento aceptado pasó")
	}
	if v.Reason != "Conflicts with an accepted event at the same timestamp" {
		t.Fatalf("razón = %q", v.Reason)
	}
}

func TestCompletenessRuleMovementNeedsFacility(t *testing.T) {
	rs := mustRuleSet(t)

	in := baseInput()
	in.Candidate.Type = EventTypeMovement
	in.Candidate.FacilityID = ""

	v := rs.Evaluate(in)
	if v.IsValid {
		t.Fatal("movimiento sin destino aceptado")
	}
	if v.Reason != "Movement requires a destination facility" {
		t.Fatalf("razón = %q", v.Reason)
	}
}

func TestRulePriorityShortCircuit(t *testing.T) {
	rs := mustRuleSet(t)

	// Candidato que viola duplicado Y orden temporal: gana la regla de mayor
	// prioridad (duplicate).
	in := baseInput()
	in.Candidate.OccurredAt = in.Snapshot.RegisteredAt.Add(-time.Hour)
	in.Recent = []TraceEvent{{
		ID:         "e1",
		Type:       in.Candidate.Type,
		OccurredAt: in.Candidate.OccurredAt,
		IsValid:    true,
	}}

	v := rs.Evaluate(in)
	if v.IsValid {
		t.Fatal("candidato con dos violaciones aceptado")
	}
	if v.Reason != "Duplicate event detected" {
		t.Fatalf("razón = %q, la prioridad del RuleSet no es determinista", v.Reason)
	}
}

func TestRulesOrder(t *testing.T) {
	rs := mustRuleSet(t)

	want := []string{"duplicate", "travel-plausibility", "temporal-ordering", "required-fields"}
	got := rs.Rules()
	if len(got) != len(want) {
		t.Fatalf("len(Rules()) = %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Rules()[%d] = %q, quería %q", i, got[i], want[i])
		}
	}
}
