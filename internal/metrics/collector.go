package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exports engine counters to Prometheus. It registers on its
// own registry so several simulations can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	ticks        prometheus.Counter
	substeps     prometheus.Counter
	bodiesLive   prometheus.Gauge
	rejected     prometheus.Counter
	restored     prometheus.Counter
	tickDuration prometheus.Histogram
	clients      prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orrery",
			Name:      "ticks_total",
			Help:      "Total number of simulation ticks",
		}),
		substeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orrery",
			Name:      "substeps_total",
			Help:      "Total number of integrator sub-steps",
		}),
		bodiesLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "orrery",
			Name:      "bodies_live",
			Help:      "Bodies currently integrated",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orrery",
			Name:      "bodies_rejected_total",
			Help:      "Bodies rejected during resolution or addition",
		}),
		restored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orrery",
			Name:      "states_restored_total",
			Help:      "Body states restored after going non-finite",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "orrery",
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent integrating one tick",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "orrery",
			Name:      "stream_clients",
			Help:      "Connected websocket clients",
		}),
	}

	c.registry.MustRegister(c.ticks, c.substeps, c.bodiesLive, c.rejected, c.restored, c.tickDuration, c.clients)
	return c
}

func (c *Collector) TickObserved(substeps int, d time.Duration) {
	c.ticks.Inc()
	c.substeps.Add(float64(substeps))
	c.tickDuration.Observe(d.Seconds())
}

func (c *Collector) BodiesLive(n int)     { c.bodiesLive.Set(float64(n)) }
func (c *Collector) BodiesRejected(n int) { c.rejected.Add(float64(n)) }
func (c *Collector) StatesRestored(n int) { c.restored.Add(float64(n)) }

// ClientsConnected sets the websocket client gauge.
func (c *Collector) ClientsConnected(n int) { c.clients.Set(float64(n)) }

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
