package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roastlive/internal/api"
	"roastlive/internal/archive"
	"roastlive/internal/metrics"
	"roastlive/internal/models"
	"roastlive/internal/mqtt"
	"roastlive/internal/telemetry"
	"roastlive/pkg/config"
)

func main() {
	log.Println("Starting roastlive telemetry service...")

	// Load configuration
	cfg := config.Load()

	if cfg.TeamID == "" {
		log.Fatal("TEAM_ID is required: the telemetry channel is team-scoped")
	}

	// Optional reading archive (ClickHouse)
	var archiver telemetry.Archiver
	if cfg.ArchiveEnabled {
		a, err := archive.New(
			cfg.ClickHouseAddr,
			cfg.ClickHouseDB,
			cfg.ClickHouseUser,
			cfg.ClickHousePass,
			cfg.ArchiveQueueSize,
		)
		if err != nil {
			log.Fatalf("Failed to initialize archive: %v", err)
		}
		defer a.Close()
		archiver = a
	}

	// MQTT transport
	mqttClient, err := mqtt.NewClient(mqtt.ClientConfig{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID,
		Username: cfg.MQTTUsername,
		Password: cfg.MQTTPassword,
	})
	if err != nil {
		log.Fatalf("Failed to initialize MQTT client: %v", err)
	}
	defer mqttClient.Close()

	// Aggregator: subscriber + batch processor + store + liveness monitor
	service := telemetry.NewService(mqttClient, telemetry.ServiceConfig{
		LivenessThreshold: cfg.LivenessThreshold,
		MonitorInterval:   cfg.MonitorInterval,
		QueueSize:         cfg.BatchQueueSize,
	}, metrics.NewPipeline(), archiver)

	manager := telemetry.NewManager(service)
	if err := manager.SetTeam(cfg.TeamID); err != nil {
		log.Fatalf("Failed to start telemetry for team %s: %v", cfg.TeamID, err)
	}
	defer manager.Close()

	// Planning board updates: relay-only, no local state
	planningListener, err := mqtt.NewUpdateListener(mqttClient, cfg.TeamID, "planning",
		func(item models.PlanningItem) {
			log.Printf("Planning update: %s (%s, %.0fg on %s)",
				item.ID, item.BeanName, item.WeightGrams, item.MachineID)
		})
	if err != nil {
		log.Fatalf("Failed to start planning listener: %v", err)
	}
	defer planningListener.Close()

	// Read-only snapshot API
	server := api.NewServer(cfg.HTTPAddr, service)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Printf("roastlive is running for team %s (threshold=%s, interval=%s). Press Ctrl+C to exit.",
		cfg.TeamID, cfg.LivenessThreshold, cfg.MonitorInterval)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}
}
