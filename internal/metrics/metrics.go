package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline holds the aggregator's prometheus instruments. It satisfies
// telemetry.Metrics.
type Pipeline struct {
	batches        prometheus.Counter
	recordsApplied prometheus.Counter
	recordsDropped prometheus.Counter
	connected      prometheus.Gauge
	transportUp    prometheus.Gauge
}

// NewPipeline creates and registers the instruments on the default
// registry.
func NewPipeline() *Pipeline {
	p := &Pipeline{
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roastlive_batches_received_total",
			Help: "Telemetry batches decoded from the live channel.",
		}),
		recordsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roastlive_records_applied_total",
			Help: "Per-machine reading records merged into the store.",
		}),
		recordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roastlive_records_dropped_total",
			Help: "Batch records skipped because they carried no usable machine id.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roastlive_machines_connected",
			Help: "Machines currently considered live.",
		}),
		transportUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roastlive_transport_connected",
			Help: "Whether the pub/sub link is up (1) or down (0).",
		}),
	}

	prometheus.MustRegister(p.batches, p.recordsApplied, p.recordsDropped, p.connected, p.transportUp)
	return p
}

func (p *Pipeline) BatchReceived() { p.batches.Inc() }

func (p *Pipeline) RecordApplied() { p.recordsApplied.Inc() }

func (p *Pipeline) RecordDropped() { p.recordsDropped.Inc() }

func (p *Pipeline) SetConnectedMachines(n int) { p.connected.Set(float64(n)) }

func (p *Pipeline) SetTransportUp(up bool) {
	if up {
		p.transportUp.Set(1)
	} else {
		p.transportUp.Set(0)
	}
}
