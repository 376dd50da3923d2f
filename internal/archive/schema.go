package archive

// SQL schema for the reading archive

const (
	// MachineReadingsTableSQL creates the machine_readings table. Payload
	// is the raw batch record, stored verbatim.
	MachineReadingsTableSQL = `
		CREATE TABLE IF NOT EXISTS machine_readings (
			timestamp DateTime64(3),
			team_id String,
			machine_id String,
			payload String
		) ENGINE = MergeTree()
		ORDER BY (team_id, machine_id, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`
)

// AllTables returns all table creation SQL statements
func AllTables() []string {
	return []string{
		MachineReadingsTableSQL,
	}
}
