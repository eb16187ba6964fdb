package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the run's scheduler counters. A nil *Collector is valid
// and every method degrades to a no-op, so callers that don't care about
// observability never need a nil check of their own.
type Collector struct {
	tokensCreated  prometheus.Counter
	tokensConsumed prometheus.Counter
	nodeExecutions *prometheus.CounterVec
	syncFirings    prometheus.Counter
}

// New registers a fresh set of counters against reg. Pass
// prometheus.DefaultRegisterer to expose them on the default /metrics
// handler, or a private registry in tests.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		tokensCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "sequenceengine_tokens_created_total",
			Help: "Tokens minted by the scheduler, including the initial Start tokens.",
		}),
		tokensConsumed: factory.NewCounter(prometheus.CounterOpts{
			Name: "sequenceengine_tokens_consumed_total",
			Help: "Tokens removed from circulation at a Stop node.",
		}),
		nodeExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sequenceengine_node_executions_total",
			Help: "Node executions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		syncFirings: factory.NewCounter(prometheus.CounterOpts{
			Name: "sequenceengine_sync_firings_total",
			Help: "ParallelSync nodes that reached a complete arrival set and fired.",
		}),
	}
}

func (c *Collector) TokenCreated() {
	if c == nil {
		return
	}
	c.tokensCreated.Inc()
}

func (c *Collector) TokenConsumed() {
	if c == nil {
		return
	}
	c.tokensConsumed.Inc()
}

func (c *Collector) NodeExecuted(kind, outcome string) {
	if c == nil {
		return
	}
	c.nodeExecutions.WithLabelValues(kind, outcome).Inc()
}

func (c *Collector) SyncFired() {
	if c == nil {
		return
	}
	c.syncFirings.Inc()
}
