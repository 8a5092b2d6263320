package placement

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Reporter is the telemetry sink optionally passed to NewPolicy, per
// spec §6. It never affects placement decisions; it only observes
// them.
type Reporter interface {
	EnsembleCreated(regions int)
	EnsembleFailed()
	BookieReplaced()
	ReplaceFailed()
}

// NopReporter discards every event. It is the default when NewPolicy
// is called without a reporter.
type NopReporter struct{}

func (NopReporter) EnsembleCreated(int) {}
func (NopReporter) EnsembleFailed()     {}
func (NopReporter) BookieReplaced()     {}
func (NopReporter) ReplaceFailed()      {}

// PrometheusReporter records placement-core activity as Prometheus
// counters, grounding the influxdb example repo's
// prometheus/client_golang dependency. NewPrometheusReporter attaches
// the collectors to reg; callers typically pass prometheus.DefaultRegisterer.
type PrometheusReporter struct {
	ensemblesCreated *prometheus.CounterVec
	ensembleFailures prometheus.Counter
	replacements     prometheus.Counter
	replaceFailures  prometheus.Counter
}

// NewPrometheusReporter builds and registers a PrometheusReporter
// against reg.
func NewPrometheusReporter(reg prometheus.Registerer) *PrometheusReporter {
	r := &PrometheusReporter{
		ensemblesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "placement",
			Name:      "ensembles_created_total",
			Help:      "Ensembles successfully created, labeled by region count.",
		}, []string{"regions"}),
		ensembleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "placement",
			Name:      "ensemble_failures_total",
			Help:      "NewEnsemble calls that failed with not-enough-bookies.",
		}),
		replacements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "placement",
			Name:      "replacements_total",
			Help:      "Bookies successfully replaced.",
		}),
		replaceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "placement",
			Name:      "replace_failures_total",
			Help:      "ReplaceBookie calls that failed with not-enough-bookies.",
		}),
	}
	reg.MustRegister(r.ensemblesCreated, r.ensembleFailures, r.replacements, r.replaceFailures)
	return r
}

func (r *PrometheusReporter) EnsembleCreated(regions int) {
	r.ensemblesCreated.WithLabelValues(strconv.Itoa(regions)).Inc()
}
func (r *PrometheusReporter) EnsembleFailed() { r.ensembleFailures.Inc() }
func (r *PrometheusReporter) BookieReplaced() { r.replacements.Inc() }
func (r *PrometheusReporter) ReplaceFailed()  { r.replaceFailures.Inc() }
