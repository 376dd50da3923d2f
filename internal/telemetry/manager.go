package telemetry

import "sync"

// Manager ties the telemetry service to the authenticated session: it
// activates the service when a team identifier is present and tears it down
// when the team changes or the session ends. Deactivation always completes
// (unsubscribe, stop monitor, clear store, in that order) before the next
// team's subscription opens.
type Manager struct {
	mu     sync.Mutex
	svc    *Service
	teamID string
}

func NewManager(svc *Service) *Manager {
	return &Manager{svc: svc}
}

// SetTeam switches the active team. An empty id ends the session. Setting
// the same team twice is a no-op.
func (m *Manager) SetTeam(teamID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if teamID == m.teamID {
		return nil
	}

	if m.teamID != "" {
		m.svc.Stop()
		m.teamID = ""
	}

	if teamID == "" {
		return nil
	}

	if err := m.svc.Start(teamID); err != nil {
		return err
	}
	m.teamID = teamID
	return nil
}

// TeamID returns the currently active team, or "".
func (m *Manager) TeamID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teamID
}

// Close ends the session.
func (m *Manager) Close() {
	_ = m.SetTeam("")
}
