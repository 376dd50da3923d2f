package telemetry

import (
	"encoding/json"
	"time"

	"roastlive/internal/models"
)

// Store is the authoritative machineId -> DeviceReading mapping plus the
// transport link flag. It is not safe for concurrent use: the aggregator
// loop is its only writer, and readers only ever see copies via Snapshot.
type Store struct {
	machines           map[string]models.DeviceReading
	transportConnected bool
}

// Snapshot is a read-only copy of the store at a point in time. The
// LatestValues byte slices are shared with the store; readings are replaced
// whole on update and never edited in place, so the shared bytes are
// immutable.
type Snapshot struct {
	TransportConnected bool                            `json:"transport_connected"`
	Machines           map[string]models.DeviceReading `json:"machines"`
}

func NewStore() *Store {
	return &Store{
		machines: make(map[string]models.DeviceReading),
	}
}

// Apply upserts the reading for one machine from a batch record: the
// payload is overwritten, the update time reset, and the machine promoted
// to connected. This is the only path that promotes a machine.
func (s *Store) Apply(machineID string, values json.RawMessage, now time.Time) {
	s.machines[machineID] = models.DeviceReading{
		MachineID:       machineID,
		LatestValues:    values,
		LastUpdatedAt:   now,
		ConnectionState: models.StateConnected,
	}
}

// MarkStale demotes every machine whose last update is at least threshold
// old. Already-disconnected machines are left untouched, as are payloads
// and update times. Returns the number of machines demoted on this pass.
func (s *Store) MarkStale(now time.Time, threshold time.Duration) int {
	demoted := 0
	for id, reading := range s.machines {
		if reading.ConnectionState == models.StateDisconnected {
			continue
		}
		if now.Sub(reading.LastUpdatedAt) >= threshold {
			reading.ConnectionState = models.StateDisconnected
			s.machines[id] = reading
			demoted++
		}
	}
	return demoted
}

func (s *Store) SetTransportConnected(connected bool) {
	s.transportConnected = connected
}

func (s *Store) TransportConnected() bool {
	return s.transportConnected
}

// Len returns the number of machines currently tracked.
func (s *Store) Len() int {
	return len(s.machines)
}

// ConnectedCount returns how many tracked machines are currently connected.
func (s *Store) ConnectedCount() int {
	n := 0
	for _, reading := range s.machines {
		if reading.ConnectionState == models.StateConnected {
			n++
		}
	}
	return n
}

// ClearAll empties the mapping and resets the transport flag. Clearing an
// already-empty store is a no-op.
func (s *Store) ClearAll() {
	s.machines = make(map[string]models.DeviceReading)
	s.transportConnected = false
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	machines := make(map[string]models.DeviceReading, len(s.machines))
	for id, reading := range s.machines {
		machines[id] = reading
	}
	return Snapshot{
		TransportConnected: s.transportConnected,
		Machines:           machines,
	}
}
