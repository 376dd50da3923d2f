package telemetry

import (
	"testing"
	"time"
)

func newManagerFixture(t *testing.T) (*Manager, *fakeTransport) {
	t.Helper()
	transport := newFakeTransport()
	ticks := make(chan time.Time)
	svc := NewService(transport, ServiceConfig{Ticks: ticks}, nil, nil)
	m := NewManager(svc)
	t.Cleanup(m.Close)
	return m, transport
}

func TestManagerActivatesOnTeam(t *testing.T) {
	m, transport := newManagerFixture(t)

	if err := m.SetTeam("team1"); err != nil {
		t.Fatal(err)
	}
	if m.TeamID() != "team1" {
		t.Errorf("expected active team team1, got %q", m.TeamID())
	}
	if len(transport.calls) != 1 || transport.calls[0] != "subscribe team.team1.live-telemetry" {
		t.Errorf("unexpected transport calls: %v", transport.calls)
	}
}

func TestManagerTeamSwitchOrdering(t *testing.T) {
	m, transport := newManagerFixture(t)

	if err := m.SetTeam("team1"); err != nil {
		t.Fatal(err)
	}
	if err := m.SetTeam("team2"); err != nil {
		t.Fatal(err)
	}

	// The old team must be fully torn down before the new subscription
	// opens.
	want := []string{
		"subscribe team.team1.live-telemetry",
		"unsubscribe team.team1.live-telemetry",
		"subscribe team.team2.live-telemetry",
	}
	if len(transport.calls) != len(want) {
		t.Fatalf("unexpected transport calls: %v", transport.calls)
	}
	for i, call := range want {
		if transport.calls[i] != call {
			t.Errorf("call %d: expected %q, got %q", i, call, transport.calls[i])
		}
	}
}

func TestManagerSameTeamIsNoop(t *testing.T) {
	m, transport := newManagerFixture(t)

	if err := m.SetTeam("team1"); err != nil {
		t.Fatal(err)
	}
	if err := m.SetTeam("team1"); err != nil {
		t.Fatal(err)
	}
	if len(transport.calls) != 1 {
		t.Errorf("expected no extra transport calls, got %v", transport.calls)
	}
}

func TestManagerEmptyTeamEndsSession(t *testing.T) {
	m, transport := newManagerFixture(t)

	if err := m.SetTeam("team1"); err != nil {
		t.Fatal(err)
	}
	if err := m.SetTeam(""); err != nil {
		t.Fatal(err)
	}
	if m.TeamID() != "" {
		t.Errorf("expected no active team, got %q", m.TeamID())
	}
	last := transport.calls[len(transport.calls)-1]
	if last != "unsubscribe team.team1.live-telemetry" {
		t.Errorf("expected teardown on empty team, got %v", transport.calls)
	}

	// Ending an already-ended session is a no-op.
	if err := m.SetTeam(""); err != nil {
		t.Fatal(err)
	}
}
