package events

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"farm-traceability/internal/ports/alerts"
)

// fakeRepo implementa Repository en memoria para los tests del motor.
type fakeRepo struct {
	mu        sync.Mutex
	events    []TraceEvent
	transfers []Transfer
	appendErr error
	listErr   error
}

func (r *fakeRepo) Append(_ context.Context, e TraceEvent, tr *Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.appendErr != nil {
		return r.appendErr
	}
	r.events = append(r.events, e)
	if tr != nil {
		r.transfers = append(r.transfers, *tr)
	}
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (TraceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			return e, nil
		}
	}
	return TraceEvent{}, ErrNotFound
}

func (r *fakeRepo) ListByAnimal(_ context.Context, animalID string, f ListFilter) ([]TraceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listErr != nil {
		return nil, r.listErr
	}

	out := make([]TraceEvent, 0)
	for _, e := range r.events {
		if e.AnimalID != animalID {
			continue
		}
		if len(f.Types) > 0 {
			found := false
			for _, t := range f.Types {
				if e.Type == t {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		switch f.Validity {
		case ValidityValid:
			if !e.IsValid {
				continue
			}
		case ValidityInvalid:
			if e.IsValid {
				continue
			}
		}
		if f.From != nil && e.OccurredAt.Before(*f.From) {
			continue
		}
		if f.To != nil && e.OccurredAt.After(*f.To) {
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !f.Ascending {
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

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *fakeRepo) List(_ context.Context, f AuditFilter) ([]TraceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TraceEvent, 0)
	for _, e := range r.events {
		if f.EventType != "" && e.Type != f.EventType {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeRepo) ListRecent(_ context.Context, limit int) ([]TraceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]TraceEvent(nil), r.events...)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *fakeRepo) CountByValidity(_ context.Context, _ *time.Time) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invalid := 0
	for _, e := range r.events {
		if !e.IsValid {
			invalid++
		}
	}
	return len(r.events), invalid, nil
}

func (r *fakeRepo) CountPerDay(_ context.Context, _ time.Time) ([]DayCount, error) {
	return nil, nil
}

// fakeDir es un AnimalDirectory estático.
type fakeDir map[string]AnimalRef

func (d fakeDir) Lookup(_ context.Context, animalID string) (AnimalRef, error) {
	ref, ok := d[animalID]
	if !ok {
		return AnimalRef{}, ErrNotFound
	}
	return ref, nil
}

// fakeGeo resuelve distancias fijas entre pares de instalaciones.
type fakeGeo map[string]float64

func (g fakeGeo) Distance(_ context.Context, from, to string) (float64, bool, error) {
	km, ok := g[from+"->"+to]
	return km, ok, nil
}

type captureNotifier struct {
	mu        sync.Mutex
	anomalies []alerts.Anomaly
}

func (n *captureNotifier) NotifyAnomaly(_ context.Context, a alerts.Anomaly) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.anomalies = append(n.anomalies, a)
	return nil
}

var registeredAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, repo *fakeRepo, geo GeoResolver, notifier alerts.Notifier) *Service {
	t.Helper()

	dir := fakeDir{
		"a1": {ID: "a1", OriginFacilityID: "f1", OwnerID: "u1", RegisteredAt: registeredAt},
	}
	svc, err := NewService(repo, dir, testConfig(), Options{Geo: geo, Alerts: notifier})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestSubmitCleanMovement(t *testing.T) {
	repo := &fakeRepo{}
	geo := fakeGeo{"f1->f2": 50} // 50 km
	svc := newTestEngine(t, repo, geo, nil)
	ctx := context.Background()

	e, err := svc.Submit(ctx, Candidate{
		AnimalID:   "a1",
		Type:       EventTypeMovement,
		FacilityID: "f2",
		OccurredAt: registeredAt.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !e.IsValid {
		t.Fatalf("movimiento limpio rechazado: %q", e.AnomalyReason)
	}

	// El transfer viajó junto al evento.
	if len(repo.transfers) != 1 || repo.transfers[0].ToFacilityID != "f2" {
		t.Fatalf("transfers = %+v", repo.transfers)
	}
	if repo.transfers[0].EventID != e.ID {
		t.Fatal("el transfer no referencia al evento que lo causó")
	}

	snap, err := svc.CurrentState(ctx, "a1")
	if err != nil {
		t.Fatalf("CurrentState: %v", err)
	}
	if snap.FacilityID != "f2" {
		t.Fatalf("FacilityID proyectado = %q, quería f2", snap.FacilityID)
	}
}

func TestSubmitDuplicateRetry(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestEngine(t, repo, nil, nil)
	ctx := context.Background()

	c := Candidate{
		AnimalID:   "a1",
		Type:       EventTypeVaccination,
		OccurredAt: registeredAt.Add(48 * time.Hour),
	}

	first, err := svc.Submit(ctx, c)
	if err != nil {
		t.Fatalf("Submit 1: %v", err)
	}
	if !first.IsValid {
		t.Fatalf("primer envío rechazado: %q", first.AnomalyReason)
	}

	// Re-envío idéntico (retry del cliente): se persiste como anomalía, no
	// como error HTTP.
	second, err := svc.Submit(ctx, c)
	if err != nil {
		t.Fatalf("Submit 2: %v", err)
	}
	if second.IsValid {
		t.Fatal("duplicado aceptado")
	}
	if second.AnomalyReason != "Duplicate event detected" {
		t.Fatalf("razón = %q", second.AnomalyReason)
	}
	if len(repo.events) != 2 {
		t.Fatalf("el log tiene %d eventos, quería 2 (el duplicado también se persiste)", len(repo.events))
	}
}

func TestSubmitImplausibleSpeedLeavesStateUntouched(t *testing.T) {
	repo := &fakeRepo{}
	geo := fakeGeo{"f1->f2": 500} // 500 km en una hora
	notifier := &captureNotifier{}
	svc := newTestEngine(t, repo, geo, notifier)
	ctx := context.Background()

	e, err := svc.Submit(ctx, Candidate{
		AnimalID:   "a1",
		Type:       EventTypeMovement,
		FacilityID: "f2",
		OccurredAt: registeredAt.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if e.IsValid {
		t.Fatal("velocidad implausible aceptada")
	}
	if e.AnomalyReason != "Unrealistic travel speed" {
		t.Fatalf("razón = %q", e.AnomalyReason)
	}

	// Sin transfer: el estado custodial no se movió.
	if len(repo.transfers) != 0 {
		t.Fatalf("transfers = %+v para un movimiento rechazado", repo.transfers)
	}
	snap, err := svc.CurrentState(ctx, "a1")
	if err != nil {
		t.Fatalf("CurrentState: %v", err)
	}
	if snap.FacilityID != "f1" {
		t.Fatalf("FacilityID = %q tras rechazo, quería f1", snap.FacilityID)
	}

	// La anomalía se notificó.
	if len(notifier.anomalies) != 1 || notifier.anomalies[0].EventID != e.ID {
		t.Fatalf("anomalies = %+v", notifier.anomalies)
	}
}

func TestSubmitPredatesRegistration(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestEngine(t, repo, nil, nil)

	e, err := svc.Submit(context.Background(), Candidate{
		AnimalID:   "a1",
		Type:       EventTypeWeighing,
		OccurredAt: registeredAt.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if e.IsValid {
		t.Fatal("evento anterior al alta aceptado")
	}
	if e.AnomalyReason != "Event predates animal registration" {
		t.Fatalf("razón = %q", e.AnomalyReason)
	}
}

func TestSubmitUnknownAnimal(t *testing.T) {
	svc := newTestEngine(t, &fakeRepo{}, nil, nil)

	_, err := svc.Submit(context.Background(), Candidate{
		AnimalID:   "ghost",
		Type:       EventTypeWeighing,
		OccurredAt: registeredAt.Add(time.Hour),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, quería ErrNotFound", err)
	}
}

func TestSubmitAppendFailureSurfaces(t *testing.T) {
	repo := &fakeRepo{appendErr: errors.New("disk on fire")}
	svc := newTestEngine(t, repo, nil, nil)

	_, err := svc.Submit(context.Background(), Candidate{
		AnimalID:   "a1",
		Type:       EventTypeWeighing,
		OccurredAt: registeredAt.Add(time.Hour),
	})
	if err == nil {
		t.Fatal("fallo de persistencia silenciado")
	}
	if len(repo.events) != 0 {
		t.Fatal("se persistió un evento pese al fallo")
	}
}

func TestSubmitSameFacilityMovement(t *testing.T) {
	// Movimiento a la misma instalación: distancia cero, la regla de
	// velocidad se salta y el evento es válido.
	repo := &fakeRepo{}
	geo := fakeGeo{}
	svc := newTestEngine(t, repo, geo, nil)

	e, err := svc.Submit(context.Background(), Candidate{
		AnimalID:   "a1",
		Type:       EventTypeMovement,
		FacilityID: "f1",
		OccurredAt: registeredAt.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !e.IsValid {
		t.Fatalf("movimiento a la misma instalación rechazado: %q", e.AnomalyReason)
	}
}

func TestSubmitConcurrentSameAnimal(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestEngine(t, repo, nil, nil)
	ctx := context.Background()

	c := Candidate{
		AnimalID:   "a1",
		Type:       EventTypeVaccination,
		OccurredAt: registeredAt.Add(72 * time.Hour),
	}

	var wg sync.WaitGroup
	results := make([]TraceEvent, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := svc.Submit(ctx, c)
			if err != nil {
				t.Errorf("Submit %d: %v", i, err)
				return
			}
			results[i] = e
		}(i)
	}
	wg.Wait()

	// El lock por animal serializa: exactamente uno gana, el otro queda como
	// duplicado.
	valid := 0
	for _, e := range results {
		if e.IsValid {
			valid++
		}
	}
	if valid != 1 {
		t.Fatalf("%d envíos válidos de 2 concurrentes idénticos, quería 1", valid)
	}
	if len(repo.events) != 2 {
		t.Fatalf("el log tiene %d eventos, quería 2", len(repo.events))
	}
}

func TestSubmitLateMovementDoesNotMoveCustody(t *testing.T) {
	// Un movimiento tardío (OccurredAt anterior al head) se acepta en el log
	// pero no pisa el cache custodial: la custodia es la del movimiento
	// válido más reciente.
	repo := &fakeRepo{}
	svc := newTestEngine(t, repo, nil, nil)
	ctx := context.Background()

	head, err := svc.Submit(ctx, Candidate{
		AnimalID:   "a1",
		Type:       EventTypeMovement,
		FacilityID: "f2",
		OccurredAt: registeredAt.Add(200 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Submit head: %v", err)
	}
	if !head.IsValid {
		t.Fatalf("movimiento head rechazado: %q", head.AnomalyReason)
	}

	late, err := svc.Submit(ctx, Candidate{
		AnimalID:   "a1",
		Type:       EventTypeMovement,
		FacilityID: "f3",
		OccurredAt: registeredAt.Add(100 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Submit tardío: %v", err)
	}
	if !late.IsValid {
		t.Fatalf("movimiento tardío plausible rechazado: %q", late.AnomalyReason)
	}

	// Solo el head generó transfer.
	if len(repo.transfers) != 1 || repo.transfers[0].ToFacilityID != "f2" {
		t.Fatalf("transfers = %+v, quería solo el movimiento a f2", repo.transfers)
	}

	// Y la proyección a "ahora" sigue en f2.
	snap, err := svc.CurrentState(ctx, "a1")
	if err != nil {
		t.Fatalf("CurrentState: %v", err)
	}
	if snap.FacilityID != "f2" {
		t.Fatalf("FacilityID = %q tras el movimiento tardío, quería f2", snap.FacilityID)
	}
}

func TestCurrentStateSurfacesStoreErrors(t *testing.T) {
	// Un fallo del store no es un 404: el error se propaga tal cual.
	repo := &fakeRepo{listErr: errors.New("connection reset")}
	svc := newTestEngine(t, repo, nil, nil)

	_, err := svc.CurrentState(context.Background(), "a1")
	if err == nil {
		t.Fatal("fallo de infraestructura silenciado")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("fallo de infraestructura disfrazado de ErrNotFound")
	}
}

func TestLockMapPruned(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestEngine(t, repo, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.Submit(ctx, Candidate{
				AnimalID:   "a1",
				Type:       EventTypeWeighing,
				OccurredAt: registeredAt.Add(time.Duration(i+1) * time.Hour),
			})
		}(i)
	}
	wg.Wait()

	svc.mu.Lock()
	n := len(svc.locks)
	svc.mu.Unlock()
	if n != 0 {
		t.Fatalf("quedaron %d locks en el mapa tras terminar los envíos", n)
	}
}

func TestMovementHistoryOnlyValidMovements(t *testing.T) {
	repo := &fakeRepo{}
	geo := fakeGeo{"f1->f2": 10, "f2->f3": 10}
	svc := newTestEngine(t, repo, geo, nil)
	ctx := context.Background()

	mustSubmit := func(c Candidate) TraceEvent {
		t.Helper()
		e, err := svc.Submit(ctx, c)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		return e
	}

	mustSubmit(Candidate{AnimalID: "a1", Type: EventTypeMovement, FacilityID: "f2", OccurredAt: registeredAt.Add(24 * time.Hour)})
	mustSubmit(Candidate{AnimalID: "a1", Type: EventTypeWeighing, OccurredAt: registeredAt.Add(36 * time.Hour)})
	rejected := mustSubmit(Candidate{AnimalID: "a1", Type: EventTypeMovement, FacilityID: "f3", OccurredAt: registeredAt.Add(24*time.Hour + time.Second)})
	if rejected.IsValid {
		t.Fatal("esperaba un movimiento rechazado para el test")
	}
	mustSubmit(Candidate{AnimalID: "a1", Type: EventTypeMovement, FacilityID: "f3", OccurredAt: registeredAt.Add(48 * time.Hour)})

	moves, err := svc.MovementHistory(ctx, "a1")
	if err != nil {
		t.Fatalf("MovementHistory: %v", err)
	}
	if len(moves) != 2 {
		t.Fatalf("MovementHistory devolvió %d, quería 2 (solo válidos)", len(moves))
	}
	if moves[0].FacilityID != "f2" || moves[1].FacilityID != "f3" {
		t.Fatalf("orden cronológico roto: %q -> %q", moves[0].FacilityID, moves[1].FacilityID)
	}
}
