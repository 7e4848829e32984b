package esidefer

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOk          = "ok"
	resultMalformed   = "malformed"
	resultRenderError = "render_error"
)

// Metrics exports rewriting and fragment-serving metrics to Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	rewrittenTotal prometheus.Counter
	blockTotal     *prometheus.CounterVec
	annotatedTotal prometheus.Counter
}

// NewMetrics registers the module's metrics on the registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		rewrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "esi_placeholders_rewritten_total",
			Help: "Placeholders replaced with ESI include directives.",
		}),
		blockTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esi_block_requests_total",
			Help: "Fragment endpoint requests by result.",
		}, []string{"result"}),
		annotatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "esi_responses_annotated_total",
			Help: "Responses annotated with the Surrogate-Control header.",
		}),
	}
	reg.MustRegister(
		m.rewrittenTotal,
		m.blockTotal,
		m.annotatedTotal,
	)
	return m
}

func (m *Metrics) placeholderRewritten() {
	if m == nil {
		return
	}
	m.rewrittenTotal.Inc()
}

func (m *Metrics) blockServed(result string) {
	if m == nil {
		return
	}
	m.blockTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) responseAnnotated() {
	if m == nil {
		return
	}
	m.annotatedTotal.Inc()
}
