package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"roastlive/internal/models"
	"roastlive/internal/mqtt"
)

// Transport is the pub/sub client surface the aggregator consumes. It is
// satisfied by *mqtt.Client; tests use a fake.
type Transport interface {
	Subscribe(topic string, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	SetStateHandler(h mqtt.StateHandler)
}

// Metrics receives pipeline accounting. All methods must be cheap and
// non-blocking. A nil Metrics disables accounting.
type Metrics interface {
	BatchReceived()
	RecordApplied()
	RecordDropped()
	SetConnectedMachines(n int)
	SetTransportUp(up bool)
}

// Archiver persists applied readings out of band. Record must never block
// the caller. A nil Archiver disables archiving.
type Archiver interface {
	Record(ts time.Time, teamID, machineID string, payload []byte)
}

// ServiceConfig holds aggregator tuning. Zero values fall back to the
// defaults below.
type ServiceConfig struct {
	LivenessThreshold time.Duration
	MonitorInterval   time.Duration
	QueueSize         int

	// Now and Ticks are test hooks: Now replaces time.Now, Ticks replaces
	// the interval ticker feeding the liveness monitor.
	Now   func() time.Time
	Ticks <-chan time.Time
}

const (
	DefaultLivenessThreshold = 10 * time.Second
	DefaultMonitorInterval   = 2 * time.Second
	defaultQueueSize         = 100
)

// Service owns the live-telemetry pipeline for one team at a time: the
// channel subscription, the device state store, and the liveness monitor.
//
// All store mutations happen on a single goroutine that drains one channel
// set fed by the subscription callback, the transport state signal, and the
// monitor ticker, so batch processing and liveness demotion are totally
// ordered without locks on the store itself.
type Service struct {
	transport Transport
	cfg       ServiceConfig
	metrics   Metrics
	archiver  Archiver

	mu   sync.RWMutex
	sess *session
}

// session is the per-team state. Every Start creates a fresh one; its stop
// channel gates the transport callbacks so a late message bound to a stale
// subscription can never reach the store.
type session struct {
	teamID string
	topic  string
	store  *Store

	batchCh chan []byte
	linkCh  chan bool
	snapCh  chan chan Snapshot

	stop    chan struct{}
	stopped chan struct{}
}

func NewService(transport Transport, cfg ServiceConfig, metrics Metrics, archiver Archiver) *Service {
	if cfg.LivenessThreshold <= 0 {
		cfg.LivenessThreshold = DefaultLivenessThreshold
	}
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = DefaultMonitorInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		transport: transport,
		cfg:       cfg,
		metrics:   metrics,
		archiver:  archiver,
	}
}

// Start opens the team's live-telemetry subscription, binds the transport
// state signal, and starts the liveness monitor. It fails if the service is
// already running for a team; switch teams through Stop (or a Manager).
func (s *Service) Start(teamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess != nil {
		return fmt.Errorf("telemetry already running for team %s", s.sess.teamID)
	}
	if teamID == "" {
		return errors.New("team id is empty")
	}

	sess := &session{
		teamID:  teamID,
		topic:   mqtt.TelemetryTopic(teamID),
		store:   NewStore(),
		batchCh: make(chan []byte, s.cfg.QueueSize),
		linkCh:  make(chan bool, 16),
		snapCh:  make(chan chan Snapshot),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	s.transport.SetStateHandler(func(state mqtt.LinkState) {
		select {
		case sess.linkCh <- state == mqtt.LinkConnected:
		case <-sess.stop:
		}
	})

	err := s.transport.Subscribe(sess.topic, func(_ string, payload []byte) {
		// The broker client may reuse its buffer after the handler returns.
		p := make([]byte, len(payload))
		copy(p, payload)
		select {
		case sess.batchCh <- p:
		case <-sess.stop:
		}
	})
	if err != nil {
		s.transport.SetStateHandler(nil)
		return err
	}

	ticks := s.cfg.Ticks
	stopTicker := func() {}
	if ticks == nil {
		ticker := time.NewTicker(s.cfg.MonitorInterval)
		ticks = ticker.C
		stopTicker = ticker.Stop
	}

	go s.run(sess, ticks, stopTicker)

	s.sess = sess
	log.Printf("Live telemetry started for team %s", teamID)
	return nil
}

// Stop tears the pipeline down: unsubscribe and unbind first, then stop the
// monitor loop, then clear the store. That ordering guarantees no late
// message or tick can write into a store that is about to be reused for
// another team. Stopping an already-stopped service is a no-op.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sess
	if sess == nil {
		return
	}

	if err := s.transport.Unsubscribe(sess.topic); err != nil {
		log.Printf("Error unsubscribing from %s: %v", sess.topic, err)
	}
	s.transport.SetStateHandler(nil)

	close(sess.stop)
	<-sess.stopped

	sess.store.ClearAll()
	s.sess = nil

	if s.metrics != nil {
		s.metrics.SetConnectedMachines(0)
		s.metrics.SetTransportUp(false)
	}
	log.Printf("Live telemetry stopped for team %s", sess.teamID)
}

// TeamID returns the team the service is currently running for, or "".
func (s *Service) TeamID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return ""
	}
	return s.sess.teamID
}

// Snapshot returns a consistent copy of the device state store. When the
// service is stopped it returns an empty snapshot with the transport flag
// down.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	sess := s.sess
	s.mu.RUnlock()

	empty := Snapshot{Machines: map[string]models.DeviceReading{}}
	if sess == nil {
		return empty
	}

	reply := make(chan Snapshot, 1)
	select {
	case sess.snapCh <- reply:
		return <-reply
	case <-sess.stopped:
		return empty
	}
}

// run is the single-writer loop. Only this goroutine touches sess.store
// while the session is live.
func (s *Service) run(sess *session, ticks <-chan time.Time, stopTicker func()) {
	defer close(sess.stopped)
	defer stopTicker()

	for {
		select {
		case <-sess.stop:
			return
		case payload := <-sess.batchCh:
			s.applyBatch(sess, payload)
		case connected := <-sess.linkCh:
			sess.store.SetTransportConnected(connected)
			if s.metrics != nil {
				s.metrics.SetTransportUp(connected)
			}
		case <-ticks:
			if n := sess.store.MarkStale(s.cfg.Now(), s.cfg.LivenessThreshold); n > 0 {
				log.Printf("Liveness monitor: %d machine(s) went silent", n)
			}
			if s.metrics != nil {
				s.metrics.SetConnectedMachines(sess.store.ConnectedCount())
			}
		case reply := <-sess.snapCh:
			reply <- sess.store.Snapshot()
		}
	}
}

// applyBatch merges one batch.received message into the store. Records
// missing a usable machine id are skipped individually; the rest of the
// batch still applies.
func (s *Service) applyBatch(sess *session, payload []byte) {
	var envelope models.Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		log.Printf("Error unmarshaling telemetry envelope: %v", err)
		return
	}
	if envelope.Event != models.EventBatchReceived {
		return
	}

	records, err := models.DecodeBatch(envelope.Payload)
	if err != nil {
		log.Printf("Error decoding reading batch: %v", err)
		return
	}

	if s.metrics != nil {
		s.metrics.BatchReceived()
	}

	now := s.cfg.Now()
	for _, raw := range records {
		var rec models.BatchRecord
		if err := json.Unmarshal(raw, &rec); err != nil || rec.MachineID == "" {
			log.Printf("Skipping batch record without machine id (team %s)", sess.teamID)
			if s.metrics != nil {
				s.metrics.RecordDropped()
			}
			continue
		}

		sess.store.Apply(rec.MachineID, raw, now)
		if s.metrics != nil {
			s.metrics.RecordApplied()
		}
		if s.archiver != nil {
			s.archiver.Record(now, sess.teamID, rec.MachineID, raw)
		}
	}

	if s.metrics != nil {
		s.metrics.SetConnectedMachines(sess.store.ConnectedCount())
	}
}
