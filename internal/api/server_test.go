package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roastlive/internal/models"
	"roastlive/internal/telemetry"
)

type stubSource struct {
	snapshot telemetry.Snapshot
	teamID   string
}

func (s *stubSource) Snapshot() telemetry.Snapshot { return s.snapshot }
func (s *stubSource) TeamID() string               { return s.teamID }

func TestGetTelemetry(t *testing.T) {
	source := &stubSource{
		teamID: "team1",
		snapshot: telemetry.Snapshot{
			TransportConnected: true,
			Machines: map[string]models.DeviceReading{
				"R1": {
					MachineID:       "R1",
					LatestValues:    json.RawMessage(`{"beanTemp":195.2}`),
					LastUpdatedAt:   time.Unix(1000, 0).UTC(),
					ConnectionState: models.StateConnected,
				},
			},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/telemetry", nil)
	rec := httptest.NewRecorder()
	getTelemetryHandler(source)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type: %s", ct)
	}

	var body struct {
		TeamID string `json:"team_id"`
		State  struct {
			TransportConnected bool                            `json:"transport_connected"`
			Machines           map[string]models.DeviceReading `json:"machines"`
		} `json:"state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.TeamID != "team1" {
		t.Errorf("unexpected team id: %s", body.TeamID)
	}
	if !body.State.TransportConnected {
		t.Error("expected transport connected")
	}
	reading, ok := body.State.Machines["R1"]
	if !ok {
		t.Fatal("expected R1 in response")
	}
	if reading.ConnectionState != models.StateConnected {
		t.Errorf("unexpected state: %s", reading.ConnectionState)
	}
	if string(reading.LatestValues) != `{"beanTemp":195.2}` {
		t.Errorf("payload not passed through: %s", reading.LatestValues)
	}
}

func TestHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	healthHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
