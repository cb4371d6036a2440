package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the relay. Counter values mirror
// the scheduler's internal monotonic counters; the owning loop publishes a
// snapshot every tick rather than instrumenting the hot path.
type Metrics struct {
	QueueDepth        *prometheus.GaugeVec
	DropsTotal        *prometheus.CounterVec
	TransportSent     *prometheus.CounterVec
	FilteredTotal     prometheus.Counter
	PeerReachable     prometheus.Gauge
	FECParityShards   prometheus.Gauge
	LongRangeLossRate prometheus.Gauge
	IngestedTotal     prometheus.Counter
	RejectedTotal     prometheus.Counter

	// Previous snapshot values so monotonic counters can be published
	// as deltas.
	prev snapshot
}

type snapshot struct {
	dropFull   [3]uint64
	dropStale  [3]uint64
	blacklist  uint64
	espnowSent uint64
	loraSent   uint64
	filtered   uint64
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		QueueDepth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aerolink_queue_depth",
				Help: "Current packets resident per tier",
			},
			[]string{"tier"},
		),
		DropsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aerolink_drops_total",
				Help: "Packets dropped, by tier and reason",
			},
			[]string{"tier", "reason"},
		),
		TransportSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aerolink_transport_sent_total",
				Help: "Packets accepted per transport",
			},
			[]string{"transport"},
		),
		FilteredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "aerolink_lora_filtered_total",
				Help: "Packets withheld from the long-range path",
			},
		),
		PeerReachable: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "aerolink_peer_reachable",
				Help: "Primary peer reachability on the short-range link (0/1)",
			},
		),
		FECParityShards: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "aerolink_fec_parity_shards",
				Help: "Current long-range FEC parity shard count",
			},
		),
		LongRangeLossRate: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "aerolink_longrange_loss_rate",
				Help: "Observed long-range shard loss rate (0.0-1.0)",
			},
		),
		IngestedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "aerolink_ingested_total",
				Help: "Packets read from the ingest socket",
			},
		),
		RejectedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "aerolink_rejected_total",
				Help: "Ingested packets rejected by every transport path",
			},
		),
	}
}

// QueueSnapshot carries the per-tier values the loop publishes each tick.
type QueueSnapshot struct {
	TierNames [3]string
	Depth     [3]int
	DropFull  [3]uint64
	DropStale [3]uint64
	Blacklist uint64
}

// delta returns cur-prev for a monotonic source counter. A source that moved
// backwards was reset between publications; its current value is then the
// count accumulated since the reset.
func delta(cur, prev uint64) float64 {
	if cur < prev {
		return float64(cur)
	}
	return float64(cur - prev)
}

// PublishQueue pushes a queue engine snapshot into the gauges and counters.
func (m *Metrics) PublishQueue(s QueueSnapshot) {
	for i, name := range s.TierNames {
		m.QueueDepth.WithLabelValues(name).Set(float64(s.Depth[i]))
		m.DropsTotal.WithLabelValues(name, "full").Add(delta(s.DropFull[i], m.prev.dropFull[i]))
		m.DropsTotal.WithLabelValues(name, "stale").Add(delta(s.DropStale[i], m.prev.dropStale[i]))
		m.prev.dropFull[i] = s.DropFull[i]
		m.prev.dropStale[i] = s.DropStale[i]
	}
	m.DropsTotal.WithLabelValues("none", "blacklist").Add(delta(s.Blacklist, m.prev.blacklist))
	m.prev.blacklist = s.Blacklist
}

// PublishRouter pushes router counters.
func (m *Metrics) PublishRouter(espnowSent, loraSent, filtered uint64) {
	m.TransportSent.WithLabelValues("espnow").Add(delta(espnowSent, m.prev.espnowSent))
	m.TransportSent.WithLabelValues("lora").Add(delta(loraSent, m.prev.loraSent))
	m.FilteredTotal.Add(delta(filtered, m.prev.filtered))
	m.prev.espnowSent = espnowSent
	m.prev.loraSent = loraSent
	m.prev.filtered = filtered
}

// SetPeerReachable publishes the primary peer state.
func (m *Metrics) SetPeerReachable(reachable bool) {
	if reachable {
		m.PeerReachable.Set(1)
	} else {
		m.PeerReachable.Set(0)
	}
}

// Handler exposes the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
