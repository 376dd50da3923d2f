package models

import (
	"encoding/json"
	"time"
)

// ConnectionState describes whether a machine is currently sending telemetry.
type ConnectionState string

const (
	StateConnected    ConnectionState = "connected"
	StateDisconnected ConnectionState = "disconnected"
)

// DeviceReading holds the latest telemetry for one roasting machine.
// LatestValues is the raw sensor payload (temperatures, rate-of-rise,
// event markers) and is passed through unmodified.
type DeviceReading struct {
	MachineID       string          `json:"machine_id"`
	LatestValues    json.RawMessage `json:"latest_values"`
	LastUpdatedAt   time.Time       `json:"last_updated_at"`
	ConnectionState ConnectionState `json:"connection_state"`
}

// Envelope is the wire format of every message on a team channel: a named
// event plus an event-specific payload.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// EventBatchReceived carries a list of per-machine reading records on the
// live-telemetry channel.
const EventBatchReceived = "batch.received"

// BatchRecord is the part of a reading record this subsystem interprets.
// Everything else in the record stays opaque.
type BatchRecord struct {
	MachineID string `json:"machineId"`
}

// DecodeBatch splits a batch.received payload into its raw records.
func DecodeBatch(payload json.RawMessage) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, err
	}
	return records, nil
}
