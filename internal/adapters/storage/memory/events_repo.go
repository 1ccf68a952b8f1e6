package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"farm-traceability/internal/domain/events"
)

type eventRepo struct {
	s *Store
}

func (r *eventRepo) Append(ctx context.Context, e events.TraceEvent, tr *events.Transfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if e.ID == "" {
		return errors.New("event id required")
	}
	if _, exists := r.s.events[e.ID]; exists {
		return errors.New("event already exists")
	}

	if tr != nil {
		a, ok := r.s.animals[tr.AnimalID]
		if !ok {
			return ErrNotFound
		}
		// Evento + cambio de custodia bajo el mismo lock: o entran los
		// dos, o ninguno.
		a.FacilityID = tr.ToFacilityID
		a.UpdatedAt = e.RecordedAt
		r.s.animals[tr.AnimalID] = a
	}

	r.s.events[e.ID] = e
	return nil
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (events.TraceEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return events.TraceEvent{}, ErrNotFound
	}
	return e, nil
}

func (r *eventRepo) ListByAnimal(ctx context.Context, animalID string, f events.ListFilter) ([]events.TraceEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]events.TraceEvent, 0)
	for _, e := range r.s.events {
		if e.AnimalID != animalID {
			continue
		}
		if !matchesTypes(e, f.Types) || !matchesValidity(e, f.Validity) {
			continue
		}
		if f.From != nil && e.OccurredAt.Before(*f.From) {
			continue
		}
		if f.To != nil && e.OccurredAt.After(*f.To) {
			continue
		}
		out = append(out, e)
	}

	sortStable(out, f.Ascending)

	// Limit corta después de ordenar, como el LIMIT del adapter de Postgres.
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *eventRepo) List(ctx context.Context, f events.AuditFilter) ([]events.TraceEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]events.TraceEvent, 0)
	for _, e := range r.s.events {
		if f.EventType != "" && e.Type != f.EventType {
			continue
		}
		if !matchesValidity(e, f.Validity) {
			continue
		}
		if f.FacilityID != "" && e.FacilityID != f.FacilityID {
			continue
		}
		out = append(out, e)
	}

	// Auditoría: más reciente primero.
	sortStable(out, false)

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *eventRepo) ListRecent(ctx context.Context, limit int) ([]events.TraceEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]events.TraceEvent, 0, len(r.s.events))
	for _, e := range r.s.events {
		out = append(out, e)
	}

	// "Reciente" por fecha de inserción, no por timestamp declarado.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.After(out[j].RecordedAt)
		}
		return out[i].ID > out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *eventRepo) CountByValidity(ctx context.Context, since *time.Time) (int, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	total, invalid := 0, 0
	for _, e := range r.s.events {
		if since != nil && e.OccurredAt.Before(*since) {
			continue
		}
		total++
		if !e.IsValid {
			invalid++
		}
	}
	return total, invalid, nil
}

func (r *eventRepo) CountPerDay(ctx context.Context, since time.Time) ([]events.DayCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	byDay := make(map[string]*events.DayCount)
	for _, e := range r.s.events {
		if e.OccurredAt.Before(since) {
			continue
		}
		day := e.OccurredAt.UTC().Format("2006-01-02")
		dc, ok := byDay[day]
		if !ok {
			dc = &events.DayCount{Date: day}
			byDay[day] = dc
		}
		dc.Total++
		if !e.IsValid {
			dc.Anomalies++
		}
	}

	out := make([]events.DayCount, 0, len(byDay))
	for _, dc := range byDay {
		out = append(out, *dc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func matchesTypes(e events.TraceEvent, types []events.EventType) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if e.Type == t {
			return true
		}
	}
	return false
}

func matchesValidity(e events.TraceEvent, v events.Validity) bool {
	switch v {
	case events.ValidityValid:
		return e.IsValid
	case events.ValidityInvalid:
		return !e.IsValid
	default:
		return true
	}
}

// sortStable ordena por OccurredAt con desempate por RecordedAt y luego ID,
// el orden canónico del log.
func sortStable(out []events.TraceEvent, ascending bool) {
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !ascending {
			a, b = b, a
		}
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.Before(b.OccurredAt)
		}
		if !a.RecordedAt.Equal(b.RecordedAt) {
			return a.RecordedAt.Before(b.RecordedAt)
		}
		return a.ID < b.ID
	})
}
