package metrics

import (
	"time"
)

// Collector defines the interface for session-core metrics.
// Implementations can export to various backends (Prometheus, in-memory).
type Collector interface {
	// Gateway
	RecordGatewayCall(endpoint string, outcome string, duration time.Duration)
	RecordCircuitState(state CircuitState)

	// Balance resolution. source is which step of the fallback chain
	// produced the value: "current_balance", "transaction_balance",
	// "fallback".
	RecordBalanceResolve(source string, duration time.Duration)

	// History
	RecordHistoryFetch(success bool, records int, duration time.Duration)

	// Session
	RecordAccountSwitch()
	RecordStaleDrop(component string)

	// Persistence
	RecordStoreOp(store string, op string, success bool, duration time.Duration)
}

// CircuitState represents the state of the gateway circuit breaker.
type CircuitState int

const (
	// CircuitClosed means requests are flowing normally.
	CircuitClosed CircuitState = iota
	// CircuitOpen means requests are being rejected.
	CircuitOpen
	// CircuitHalfOpen means the breaker is probing for recovery.
	CircuitHalfOpen
)

// String returns the string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Gateway call outcomes used as metric labels.
const (
	OutcomeSuccess     = "success"
	OutcomeTransport   = "transport_error"
	OutcomeApplication = "application_error"
	OutcomeDataShape   = "data_shape_error"
)

// NoOpCollector is the default collector when metrics are not needed.
type NoOpCollector struct{}

// RecordGatewayCall does nothing.
func (NoOpCollector) RecordGatewayCall(endpoint string, outcome string, duration time.Duration) {}

// RecordCircuitState does nothing.
func (NoOpCollector) RecordCircuitState(state CircuitState) {}

// RecordBalanceResolve does nothing.
func (NoOpCollector) RecordBalanceResolve(source string, duration time.Duration) {}

// RecordHistoryFetch does nothing.
func (NoOpCollector) RecordHistoryFetch(success bool, records int, duration time.Duration) {}

// RecordAccountSwitch does nothing.
func (NoOpCollector) RecordAccountSwitch() {}

// RecordStaleDrop does nothing.
func (NoOpCollector) RecordStaleDrop(component string) {}

// RecordStoreOp does nothing.
func (NoOpCollector) RecordStoreOp(store string, op string, success bool, duration time.Duration) {}
