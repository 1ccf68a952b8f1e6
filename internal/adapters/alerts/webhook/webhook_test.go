package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"farm-traceability/internal/platform/httpclient"
	"farm-traceability/internal/ports/alerts"
)

func TestNotifyAnomaly_PostsPayload(t *testing.T) {
	var got alerts.Anomaly

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	n, err := New(httpclient.New(2*time.Second), ts.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := alerts.Anomaly{
		EventID:   "ev-1",
		AnimalID:  "an-1",
		EventType: "movement",
		Reason:    "Unrealistic travel speed",
	}
	if err := n.NotifyAnomaly(context.Background(), a); err != nil {
		t.Fatalf("NotifyAnomaly: %v", err)
	}

	if got.EventID != a.EventID || got.Reason != a.Reason {
		t.Fatalf("payload mismatch: got %+v", got)
	}
}

func TestNotifyAnomaly_Non2xxIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer ts.Close()

	n, _ := New(httpclient.New(2*time.Second), ts.URL)
	if err := n.NotifyAnomaly(context.Background(), alerts.Anomaly{EventID: "ev-1"}); err == nil {
		t.Fatal("expected error on 500 response")
	}
}
