package events

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBadConfig indica configuración inválida del motor: fatal al
	// arranque, nunca por-request.
	ErrBadConfig = errors.New("invalid engine config")
)

// Config son los umbrales del motor de plausibilidad.
type Config struct {
	// MaxSpeedKmh es la velocidad máxima plausible entre instalaciones.
	MaxSpeedKmh float64

	// DuplicateTolerance: dos eventos con mismo (tipo, instalación) y
	// timestamps dentro de esta ventana cuentan como duplicados.
	DuplicateTolerance time.Duration

	// Ventana de lookback para la evaluación de reglas.
	LookbackDays  int
	LookbackLimit int
}

func (c Config) Validate() error {
	if c.MaxSpeedKmh <= 0 {
		return fmt.Errorf("%w: max speed must be > 0", ErrBadConfig)
	}
	if c.DuplicateTolerance < 0 {
		return fmt.Errorf("%w: duplicate tolerance must be >= 0", ErrBadConfig)
	}
	if c.LookbackDays <= 0 || c.LookbackLimit <= 0 {
		return fmt.Errorf("%w: lookback window must be > 0", ErrBadConfig)
	}
	return nil
}

// Input es todo lo que una regla puede mirar. Las reglas son funciones puras
// de este struct: la resolución de distancia (I/O) ocurre antes, en el
// servicio, y llega aquí ya calculada.
type Input struct {
	Candidate Candidate
	Snapshot  Snapshot
	Recent    []TraceEvent

	// DistanceKm: distancia entre la última ubicación conocida y la
	// instalación candidata. nil cuando no hay coordenadas: la regla de
	// velocidad se salta, no falla.
	DistanceKm *float64
}

// Rule es un chequeo de plausibilidad individual.
type Rule interface {
	Name() string
	Evaluate(in Input) Verdict
}

// RuleSet evalúa reglas en orden fijo de prioridad: la primera que falla
// determina la razón reportada (short-circuit, determinista).
type RuleSet struct {
	rules []Rule
}

func NewRuleSet(cfg Config) (*RuleSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RuleSet{
		rules: []Rule{
			duplicateRule{tolerance: cfg.DuplicateTolerance},
			travelRule{maxSpeedKmh: cfg.MaxSpeedKmh},
			temporalRule{},
			completenessRule{},
		},
	}, nil
}

func (rs *RuleSet) Evaluate(in Input) Verdict {
	for _, r := range rs.rules {
		if v := r.Evaluate(in); !v.IsValid {
			return v
		}
	}
	return Verdict{IsValid: true}
}

// Rules devuelve los nombres en orden de prioridad.
func (rs *RuleSet) Rules() []string {
	out := make([]string, 0, len(rs.rules))
	for _, r := range rs.rules {
		out = append(out, r.Name())
	}
	return out
}

func reject(reason string) Verdict {
	return Verdict{IsValid: false, Reason: reason}
}

// -------------------------
// Catálogo de reglas
// -------------------------

// duplicateRule: mismo (tipo, instalación) y timestamp dentro de la
// tolerancia => re-envío duplicado.
type duplicateRule struct {
	tolerance time.Duration
}

func (duplicateRule) Name() string { return "duplicate" }

func (r duplicateRule) Evaluate(in Input) Verdict {
	for _, e := range in.Recent {
		if e.Type != in.Candidate.Type {
			continue
		}
		if e.FacilityID != in.Candidate.FacilityID {
			continue
		}
		d := e.OccurredAt.Sub(in.Candidate.OccurredAt)
		if d < 0 {
			d = -d
		}
		if d <= r.tolerance {
			return reject("Duplicate event detected")
		}
	}
	return Verdict{IsValid: true}
}

// travelRule: velocidad implícita = distancia desde la última ubicación
// válida / tiempo transcurrido. Sin distancia conocida se salta.
type travelRule struct {
	maxSpeedKmh float64
}

func (travelRule) Name() string { return "travel-plausibility" }

func (r travelRule) Evaluate(in Input) Verdict {
	if in.Candidate.FacilityID == "" || in.DistanceKm == nil {
		return Verdict{IsValid: true}
	}
	if *in.DistanceKm <= 0 {
		return Verdict{IsValid: true}
	}

	elapsed := in.Candidate.OccurredAt.Sub(in.Snapshot.LastLocationAt)
	if elapsed <= 0 {
		// Distancia positiva sin tiempo transcurrido: velocidad infinita.
		return reject("Unrealistic travel speed")
	}

	speed := *in.DistanceKm / elapsed.Hours()
	if speed > r.maxSpeedKmh {
		return reject("Unrealistic travel speed")
	}
	return Verdict{IsValid: true}
}

// temporalRule: nada puede ocurrir antes del alta del animal, y un candidato
// no puede colisionar en (tipo, timestamp) con un evento ya aceptado.
type temporalRule struct{}

func (temporalRule) Name() string { return "temporal-ordering" }

func (temporalRule) Evaluate(in Input) Verdict {
	if !in.Snapshot.RegisteredAt.IsZero() && in.Candidate.OccurredAt.Before(in.Snapshot.RegisteredAt) {
		return reject("Event predates animal registration")
	}
	for _, e := range in.Recent {
		if !e.IsValid {
			continue
		}
		if e.Type == in.Candidate.Type && e.OccurredAt.Equal(in.Candidate.OccurredAt) {
			return reject("Conflicts with an accepted event at the same timestamp")
		}
	}
	return Verdict{IsValid: true}
}

// completenessRule: campos obligatorios según el tipo.
type completenessRule struct{}

func (completenessRule) Name() string { return "required-fields" }

func (completenessRule) Evaluate(in Input) Verdict {
	if in.Candidate.Type == EventTypeMovement && in.Candidate.FacilityID == "" {
		return reject("Movement requires a destination facility")
	}
	return Verdict{IsValid: true}
}
