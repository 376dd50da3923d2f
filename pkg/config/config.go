package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// MQTT Configuration
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	// Team scope for channel subscriptions
	TeamID string

	// Liveness tracking
	LivenessThreshold time.Duration
	MonitorInterval   time.Duration

	// Size of the buffer between the subscription callback and the
	// aggregator loop
	BatchQueueSize int

	// HTTP snapshot API
	HTTPAddr string

	// Reading archive (ClickHouse). Disabled when ArchiveEnabled is false.
	ArchiveEnabled   bool
	ClickHouseAddr   string
	ClickHouseDB     string
	ClickHouseUser   string
	ClickHousePass   string
	ArchiveQueueSize int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		MQTTBroker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "roastlive"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),

		TeamID: getEnv("TEAM_ID", ""),

		LivenessThreshold: getEnvDuration("LIVENESS_THRESHOLD", 10*time.Second),
		MonitorInterval:   getEnvDuration("MONITOR_INTERVAL", 2*time.Second),

		BatchQueueSize: getEnvInt("BATCH_QUEUE_SIZE", 100),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		ArchiveEnabled:   getEnvBool("ARCHIVE_ENABLED", false),
		ClickHouseAddr:   getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:     getEnv("CLICKHOUSE_DB", "roastlive"),
		ClickHouseUser:   getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass:   getEnv("CLICKHOUSE_PASS", ""),
		ArchiveQueueSize: getEnvInt("ARCHIVE_QUEUE_SIZE", 500),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return boolValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as duration, using default: %v", key, err)
		return defaultValue
	}
	return d
}
