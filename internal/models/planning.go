package models

import "time"

// PlanningItem is one scheduled roast on a team's planning board. It is
// relayed verbatim to whoever registered for planning updates; nothing here
// is tracked for liveness.
type PlanningItem struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"team_id"`
	MachineID   string    `json:"machine_id"`
	BeanName    string    `json:"bean_name"`
	WeightGrams float64   `json:"weight_grams"`
	RoastDate   time.Time `json:"roast_date"`
	Notes       string    `json:"notes"`
	UpdatedAt   time.Time `json:"updated_at"`
}
