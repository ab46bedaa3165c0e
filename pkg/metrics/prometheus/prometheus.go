// Package prometheus exports session-core metrics to Prometheus.
package prometheus

import (
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements metrics.Collector for Prometheus.
type PrometheusCollector struct {
	namespace string

	gatewayCalls   *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
	circuitState   prometheus.Gauge

	balanceResolves *prometheus.CounterVec
	resolveLatency  *prometheus.HistogramVec

	historyFetches *prometheus.CounterVec
	historyRecords prometheus.Counter
	historyLatency prometheus.Histogram

	accountSwitches prometheus.Counter
	staleDrops      *prometheus.CounterVec

	storeOps     *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec
}

// NewPrometheusCollector creates a new Prometheus metrics collector.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		namespace: namespace,
		gatewayCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_calls_total",
				Help:      "Total gateway calls by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		gatewayLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_call_duration_seconds",
				Help:      "Gateway call latency by endpoint",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		circuitState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "gateway_circuit_state",
				Help:      "Gateway circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
		),
		balanceResolves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "balance_resolves_total",
				Help:      "Balance resolutions by fallback-chain source",
			},
			[]string{"source"},
		),
		resolveLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "balance_resolve_duration_seconds",
				Help:      "Balance resolution latency by source",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		historyFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "history_fetches_total",
				Help:      "History fetches by result",
			},
			[]string{"result"},
		),
		historyRecords: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "history_records_total",
				Help:      "Total transaction records fetched",
			},
		),
		historyLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "history_fetch_duration_seconds",
				Help:      "History fetch latency",
				Buckets:   prometheus.DefBuckets,
			},
		),
		accountSwitches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_switches_total",
				Help:      "Explicit user account switches",
			},
		),
		staleDrops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_drops_total",
				Help:      "Completions discarded because a newer intent superseded them",
			},
			[]string{"component"},
		),
		storeOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_ops_total",
				Help:      "Persistence operations by store, op, and result",
			},
			[]string{"store", "op", "result"},
		),
		storeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_op_duration_seconds",
				Help:      "Persistence operation latency by store",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"store"},
		),
	}
}

// Register registers all collectors with the given registry.
func (pc *PrometheusCollector) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		pc.gatewayCalls,
		pc.gatewayLatency,
		pc.circuitState,
		pc.balanceResolves,
		pc.resolveLatency,
		pc.historyFetches,
		pc.historyRecords,
		pc.historyLatency,
		pc.accountSwitches,
		pc.staleDrops,
		pc.storeOps,
		pc.storeLatency,
	}

	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordGatewayCall implements metrics.Collector.
func (pc *PrometheusCollector) RecordGatewayCall(endpoint string, outcome string, duration time.Duration) {
	pc.gatewayCalls.WithLabelValues(endpoint, outcome).Inc()
	pc.gatewayLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordCircuitState implements metrics.Collector.
func (pc *PrometheusCollector) RecordCircuitState(state metrics.CircuitState) {
	pc.circuitState.Set(float64(state))
}

// RecordBalanceResolve implements metrics.Collector.
func (pc *PrometheusCollector) RecordBalanceResolve(source string, duration time.Duration) {
	pc.balanceResolves.WithLabelValues(source).Inc()
	pc.resolveLatency.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordHistoryFetch implements metrics.Collector.
func (pc *PrometheusCollector) RecordHistoryFetch(success bool, records int, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	pc.historyFetches.WithLabelValues(result).Inc()
	if success {
		pc.historyRecords.Add(float64(records))
	}
	pc.historyLatency.Observe(duration.Seconds())
}

// RecordAccountSwitch implements metrics.Collector.
func (pc *PrometheusCollector) RecordAccountSwitch() {
	pc.accountSwitches.Inc()
}

// RecordStaleDrop implements metrics.Collector.
func (pc *PrometheusCollector) RecordStaleDrop(component string) {
	pc.staleDrops.WithLabelValues(component).Inc()
}

// RecordStoreOp implements metrics.Collector.
func (pc *PrometheusCollector) RecordStoreOp(store string, op string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	pc.storeOps.WithLabelValues(store, op, result).Inc()
	pc.storeLatency.WithLabelValues(store).Observe(duration.Seconds())
}
