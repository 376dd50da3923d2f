package mqtt

import "fmt"

// Team channels follow the platform's dotted naming scheme.

// TelemetryTopic is the channel carrying live machine batches for a team.
func TelemetryTopic(teamID string) string {
	return fmt.Sprintf("team.%s.live-telemetry", teamID)
}

// UpdatesTopic is the channel carrying single-entity update broadcasts,
// e.g. UpdatesTopic("t1", "planning") -> "team.t1.planning-updates".
func UpdatesTopic(teamID, entity string) string {
	return fmt.Sprintf("team.%s.%s-updates", teamID, entity)
}

// UpdatedEvent names the envelope event for an entity's update broadcast.
func UpdatedEvent(entity string) string {
	return entity + ".updated"
}
