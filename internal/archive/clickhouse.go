package archive

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Row is one archived reading record.
type Row struct {
	Timestamp time.Time
	TeamID    string
	MachineID string
	Payload   []byte
}

// Archive persists applied readings to ClickHouse from a background writer.
// Record never blocks the aggregator: when the queue is full the row is
// dropped and counted.
type Archive struct {
	conn driver.Conn

	rows    chan Row
	done    chan struct{}
	dropped int64
}

// New connects to ClickHouse, initializes the schema, and starts the
// writer.
func New(addr, database, username, password string, queueSize int) (*Archive, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Printf("Connected to ClickHouse at %s", addr)

	if queueSize <= 0 {
		queueSize = 500
	}

	a := &Archive{
		conn: conn,
		rows: make(chan Row, queueSize),
		done: make(chan struct{}),
	}

	if err := a.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	go a.writer()
	return a, nil
}

// initSchema creates the necessary tables if they don't exist
func (a *Archive) initSchema() error {
	ctx := context.Background()
	for _, tableSQL := range AllTables() {
		if err := a.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	log.Println("Archive schema initialized successfully")
	return nil
}

// Record enqueues one reading for persistence. Non-blocking.
func (a *Archive) Record(ts time.Time, teamID, machineID string, payload []byte) {
	select {
	case a.rows <- Row{Timestamp: ts, TeamID: teamID, MachineID: machineID, Payload: payload}:
	default:
		a.dropped++
		if a.dropped%100 == 1 {
			log.Printf("Archive queue full, dropped %d reading(s) so far", a.dropped)
		}
	}
}

func (a *Archive) writer() {
	for {
		select {
		case <-a.done:
			return
		case row := <-a.rows:
			if err := a.insert(row); err != nil {
				log.Printf("Error archiving reading for %s: %v", row.MachineID, err)
			}
		}
	}
}

func (a *Archive) insert(row Row) error {
	ctx := context.Background()

	query := `
		INSERT INTO machine_readings (timestamp, team_id, machine_id, payload)
		VALUES (?, ?, ?, ?)
	`

	err := a.conn.Exec(ctx, query,
		row.Timestamp,
		row.TeamID,
		row.MachineID,
		string(row.Payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

// Close stops the writer and closes the connection.
func (a *Archive) Close() error {
	close(a.done)
	return a.conn.Close()
}
