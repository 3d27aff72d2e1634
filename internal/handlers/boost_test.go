package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"radiator_heating"
	"radiator_heating/internal/service"
)

func TestBoostHandlers_StartCancelList(t *testing.T) {
	until := time.Date(2025, 1, 6, 12, 30, 0, 0, time.UTC)
	boost := &mockBoost{
		boost:  radiator_heating.Boost{RoomID: "living", Radiators: []string{"shelly-living"}, Until: until},
		active: []radiator_heating.Boost{{RoomID: "living", Radiators: []string{"shelly-living"}, Until: until}},
	}
	r := newTestRouter(&service.Service{Boost: boost})

	// POST start → 200 with the boost record
	body := bytes.NewBufferString(`{"duration_minutes":30,"radiators":["shelly-living"]}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/living/boost", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("start status=%d, body=%s", w.Code, w.Body.String())
	}
	if boost.lastRoomID != "living" || boost.lastDuration != 30 {
		t.Fatalf("wrong start params: room=%q duration=%d", boost.lastRoomID, boost.lastDuration)
	}
	if len(boost.lastRadiators) != 1 || boost.lastRadiators[0] != "shelly-living" {
		t.Fatalf("wrong radiators: %v", boost.lastRadiators)
	}
	var got radiator_heating.Boost
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal boost: %v", err)
	}
	if !got.Until.Equal(until) {
		t.Fatalf("unexpected boost: %+v", got)
	}

	// GET list
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/boosts", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d, body=%s", w.Code, w.Body.String())
	}
	var boosts []radiator_heating.Boost
	if err := json.Unmarshal(w.Body.Bytes(), &boosts); err != nil {
		t.Fatalf("unmarshal boosts: %v", err)
	}
	if len(boosts) != 1 || boosts[0].RoomID != "living" {
		t.Fatalf("unexpected boosts: %+v", boosts)
	}

	// DELETE cancel
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/rooms/living/boost", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status=%d, body=%s", w.Code, w.Body.String())
	}
	if boost.cancelCalls != 1 {
		t.Fatalf("expected one cancel call, got %d", boost.cancelCalls)
	}
}

func TestBoostHandlers_MissingDurationIs400(t *testing.T) {
	r := newTestRouter(&service.Service{Boost: &mockBoost{}})

	body := bytes.NewBufferString(`{"radiators":["shelly-living"]}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/living/boost", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400, body=%s", w.Code, w.Body.String())
	}
}

func TestBoostHandlers_UnknownRoomIs404(t *testing.T) {
	boost := &mockBoost{startErr: fmt.Errorf("%w: room %q", service.ErrNotFound, "ghost")}
	r := newTestRouter(&service.Service{Boost: boost})

	body := bytes.NewBufferString(`{"duration_minutes":30}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/ghost/boost", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404, body=%s", w.Code, w.Body.String())
	}
}

func TestBoostHandlers_EmptyListIsJSONArray(t *testing.T) {
	r := newTestRouter(&service.Service{Boost: &mockBoost{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/boosts", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if w.Body.String() != "[]" {
		t.Fatalf("empty boost list must serialize as [], got %s", w.Body.String())
	}
}
