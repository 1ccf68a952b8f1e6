package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	fsstore "farm-traceability/internal/adapters/files/fs"
	"farm-traceability/internal/adapters/mail/logmail"
	"farm-traceability/internal/config"
	"farm-traceability/internal/platform/logger"
	portsauth "farm-traceability/internal/ports/auth"
)

type stubIssuer struct{}

func (stubIssuer) Issue(_ context.Context, c portsauth.Claims) (string, error) {
	return "tok-" + c.UserID, nil
}

// newTestServer levanta el router completo con repos in-memory y auth en
// modo dev (headers X-Debug-*).
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := logger.New(logger.Options{})
	store, err := fsstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("fsstore.New: %v", err)
	}

	h, err := NewRouter(Options{
		Config: config.Config{
			MaxSpeedKmh:        100,
			DuplicateTolerance: time.Second,
			LookbackDays:       90,
			LookbackLimit:      500,
			ResetTokenTTL:      30 * time.Minute,
		},
		Log:         log,
		TokenIssuer: stubIssuer{},
		Mailer:      logmail.New(log),
		FileStore:   store,
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, role string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-Debug-User-ID", "u1")
		req.Header.Set("X-Debug-Role", role)
	}

	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { res.Body.Close() })

	var out map[string]any
	if strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		_ = json.NewDecoder(res.Body).Decode(&out)
	}
	return res, out
}

func createFacility(t *testing.T, srv *httptest.Server, name string, lat, lon float64) string {
	t.Helper()
	res, out := doJSON(t, srv, http.MethodPost, "/facilities", "farmer", map[string]any{
		"name":          name,
		"facility_type": "farm",
		"latitude":      lat,
		"longitude":     lon,
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create facility %q: status %d", name, res.StatusCode)
	}
	return out["id"].(string)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	res, err := srv.Client().Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
}

func TestTraceabilityFlow(t *testing.T) {
	srv := newTestServer(t)

	// Obelisco y La Plata: ~52 km, plausible en un mes.
	farm := createFacility(t, srv, "Campo Norte", -34.6037, -58.3816)
	plant := createFacility(t, srv, "Frigorífico La Plata", -34.9205, -57.9536)

	res, out := doJSON(t, srv, http.MethodPost, "/animals", "farmer", map[string]any{
		"name":        "Aurora",
		"species":     "cattle",
		"tag_id":      "AR-0001",
		"facility_id": farm,
		"date_added":  "2026-01-01",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create animal: status %d", res.StatusCode)
	}
	animalID := out["id"].(string)

	// Movimiento válido: un mes después del alta.
	res, out = doJSON(t, srv, http.MethodPost, "/animals/"+animalID+"/events", "farmer", map[string]any{
		"event_type":  "movement",
		"facility_id": plant,
		"timestamp":   "2026-02-01T12:00:00Z",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("submit movement: status %d", res.StatusCode)
	}
	if out["is_valid"] != true {
		t.Fatalf("movimiento limpio rechazado: %v", out["anomaly_reason"])
	}

	// El estado custodial refleja el movimiento.
	res, out = doJSON(t, srv, http.MethodGet, "/animals/"+animalID+"/state", "farmer", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get state: status %d", res.StatusCode)
	}
	if out["facility_id"] != plant {
		t.Fatalf("facility_id = %v, quería %s", out["facility_id"], plant)
	}

	// Retry idéntico: 201 igualmente, pero persiste como anomalía.
	res, out = doJSON(t, srv, http.MethodPost, "/animals/"+animalID+"/events", "farmer", map[string]any{
		"event_type":  "movement",
		"facility_id": plant,
		"timestamp":   "2026-02-01T12:00:00Z",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("submit duplicate: status %d", res.StatusCode)
	}
	if out["is_valid"] != false || out["anomaly_reason"] != "Duplicate event detected" {
		t.Fatalf("duplicado: %v", out)
	}

	// El historial de movimientos solo lista el aceptado, con nombre resuelto.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/animals/"+animalID+"/movements", nil)
	req.Header.Set("X-Debug-User-ID", "u1")
	req.Header.Set("X-Debug-Role", "farmer")
	mres, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("get movements: %v", err)
	}
	defer mres.Body.Close()

	var moves []map[string]any
	if err := json.NewDecoder(mres.Body).Decode(&moves); err != nil {
		t.Fatalf("decode movements: %v", err)
	}
	if len(moves) != 1 {
		t.Fatalf("movements = %d, quería 1", len(moves))
	}
	if moves[0]["facility_name"] != "Frigorífico La Plata" {
		t.Fatalf("facility_name = %v", moves[0]["facility_name"])
	}
}

func TestSpeedRuleOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	// Buenos Aires y Madrid: ~10.000 km, imposible en una hora.
	farm := createFacility(t, srv, "Campo BA", -34.6037, -58.3816)
	far := createFacility(t, srv, "Destino Madrid", 40.4168, -3.7038)

	_, out := doJSON(t, srv, http.MethodPost, "/animals", "farmer", map[string]any{
		"name":        "Pampa",
		"species":     "cattle",
		"facility_id": farm,
		"date_added":  "2026-01-01",
	})
	animalID := out["id"].(string)

	res, out := doJSON(t, srv, http.MethodPost, "/animals/"+animalID+"/events", "farmer", map[string]any{
		"event_type":  "movement",
		"facility_id": far,
		"timestamp":   "2026-01-01T01:00:00Z",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("submit: status %d", res.StatusCode)
	}
	if out["is_valid"] != false || out["anomaly_reason"] != "Unrealistic travel speed" {
		t.Fatalf("teleport aceptado: %v", out)
	}

	// El animal no se movió.
	_, state := doJSON(t, srv, http.MethodGet, "/animals/"+animalID+"/state", "farmer", nil)
	if state["facility_id"] != farm {
		t.Fatalf("facility_id = %v tras rechazo", state["facility_id"])
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	srv := newTestServer(t)

	res, _ := doJSON(t, srv, http.MethodGet, "/animals", "", nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d sin credenciales", res.StatusCode)
	}
}

func TestRegulatorGating(t *testing.T) {
	srv := newTestServer(t)

	res, _ := doJSON(t, srv, http.MethodGet, "/reports/compliance.pdf", "farmer", nil)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("farmer sobre compliance: status %d", res.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/reports/compliance.pdf", nil)
	req.Header.Set("X-Debug-User-ID", "reg1")
	req.Header.Set("X-Debug-Role", "regulator")
	res2, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("compliance: %v", err)
	}
	defer res2.Body.Close()
	if res2.StatusCode != http.StatusOK {
		t.Fatalf("regulator sobre compliance: status %d", res2.StatusCode)
	}

	head := make([]byte, 4)
	if _, err := io.ReadFull(res2.Body, head); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(head) != "%PDF" {
		t.Fatalf("el reporte no es un PDF: %q", head)
	}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)

	res, out := doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "jperez",
		"email":    "jperez@campo.ar",
		"password": "secretos1",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d", res.StatusCode)
	}
	if tok, _ := out["token"].(string); tok == "" {
		t.Fatal("register sin token")
	}

	res, out = doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]any{
		"username": "jperez",
		"password": "secretos1",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", res.StatusCode)
	}
	user := out["user"].(map[string]any)
	if user["role"] != "farmer" {
		t.Fatalf("rol = %v", user["role"])
	}

	res, _ = doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]any{
		"username": "jperez",
		"password": "incorrecta",
	})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("login con contraseña mala: status %d", res.StatusCode)
	}
}
