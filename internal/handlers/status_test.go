package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"radiator_heating"
	"radiator_heating/internal/service"
)

func TestStatusHandler(t *testing.T) {
	at := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
	status := &mockStatus{status: radiator_heating.SystemStatus{
		CommandedStates: map[string]bool{"shelly-living": true, "shelly-hall": false},
		ActiveBoosts:    []radiator_heating.Boost{{RoomID: "living", Until: at.Add(30 * time.Minute)}},
		LastTick:        &radiator_heating.TickOutcome{At: at, Desired: map[string]bool{"shelly-living": true}},
		At:              at,
	}}
	r := newTestRouter(&service.Service{Status: status})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}

	var got radiator_heating.SystemStatus
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if !got.CommandedStates["shelly-living"] || got.CommandedStates["shelly-hall"] {
		t.Fatalf("commanded states mismatch: %+v", got.CommandedStates)
	}
	if len(got.ActiveBoosts) != 1 || got.ActiveBoosts[0].RoomID != "living" {
		t.Fatalf("active boosts mismatch: %+v", got.ActiveBoosts)
	}
	if got.LastTick == nil || !got.LastTick.Desired["shelly-living"] {
		t.Fatalf("last tick mismatch: %+v", got.LastTick)
	}
}

func TestHealthHandler(t *testing.T) {
	r := newTestRouter(&service.Service{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", body)
	}
}
