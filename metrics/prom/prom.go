package prom

import (
	"time"

	"github.com/IvanBrykalov/searchlist/searchlist"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements searchlist.Metrics and exports Prometheus counters,
// gauges and a wait-time histogram. Safe for concurrent use; all Prometheus
// metric types are goroutine-safe and none of them block, so Waiting may be
// called with the list's controller lock held.
type Adapter struct {
	admissions *prometheus.CounterVec
	cancels    *prometheus.CounterVec
	outcomes   *prometheus.CounterVec
	wait       *prometheus.HistogramVec
	active     *prometheus.GaugeVec
	waiting    prometheus.Gauge
	size       prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		admissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "admissions_total",
				Help:        "Operations admitted, by role",
				ConstLabels: constLabels,
			},
			[]string{"role"},
		),
		cancels: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "cancellations_total",
				Help:        "Admission waits abandoned through the context, by role",
				ConstLabels: constLabels,
			},
			[]string{"role"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "outcomes_total",
				Help:        "Completed searches and removes, by role and result",
				ConstLabels: constLabels,
			},
			[]string{"role", "result"},
		),
		wait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "admission_wait_seconds",
				Help:        "Time spent waiting for admission, by role",
				ConstLabels: constLabels,
				Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 12), // 1µs .. ~4s
			},
			[]string{"role"},
		),
		active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "active",
				Help:        "Operations currently admitted, by role",
				ConstLabels: constLabels,
			},
			[]string{"role"},
		),
		waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "waiting_removers",
			Help:        "Removers that registered intent but are not admitted yet",
			ConstLabels: constLabels,
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_items",
			Help:        "Number of resident items",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.admissions, a.cancels, a.outcomes, a.wait, a.active, a.waiting, a.size)
	return a
}

// Admit counts an admission and observes how long it waited.
func (a *Adapter) Admit(r searchlist.Role, waited time.Duration) {
	role := r.String()
	a.admissions.WithLabelValues(role).Inc()
	a.wait.WithLabelValues(role).Observe(waited.Seconds())
	a.active.WithLabelValues(role).Inc()
}

// Release decrements the active gauge for the role.
func (a *Adapter) Release(r searchlist.Role) { a.active.WithLabelValues(r.String()).Dec() }

// Cancel counts an abandoned admission wait.
func (a *Adapter) Cancel(r searchlist.Role) { a.cancels.WithLabelValues(r.String()).Inc() }

// Outcome counts a completed search or remove by result.
func (a *Adapter) Outcome(r searchlist.Role, ok bool) {
	a.outcomes.WithLabelValues(r.String(), result(r, ok)).Inc()
}

// Waiting sets the queued remover gauge.
func (a *Adapter) Waiting(removers int) { a.waiting.Set(float64(removers)) }

// Size sets the resident item gauge.
func (a *Adapter) Size(items int) { a.size.Set(float64(items)) }

// result maps an outcome to a stable label value.
func result(r searchlist.Role, ok bool) string {
	switch {
	case r == searchlist.RoleRemove && ok:
		return "removed"
	case r == searchlist.RoleRemove:
		return "absent"
	case ok:
		return "found"
	default:
		return "miss"
	}
}

// Compile-time check: ensure Adapter implements searchlist.Metrics.
var _ searchlist.Metrics = (*Adapter)(nil)
