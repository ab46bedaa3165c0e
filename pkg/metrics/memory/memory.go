package memory

import (
	"sync"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/metrics"
)

// MemoryCollector implements Collector for tests and the /status endpoint.
type MemoryCollector struct {
	mu sync.RWMutex

	gatewayCalls    map[string]map[string]int64 // endpoint -> outcome -> count
	circuitState    metrics.CircuitState
	resolvesBySrc   map[string]int64
	historyFetches  int64
	historyFailures int64
	historyRecords  int64
	accountSwitches int64
	staleDrops      map[string]int64
	storeOps        map[string]int64 // "store/op" -> count
	storeErrors     int64
}

// NewMemoryCollector creates a new in-memory metrics collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{
		gatewayCalls:  make(map[string]map[string]int64),
		resolvesBySrc: make(map[string]int64),
		staleDrops:    make(map[string]int64),
		storeOps:      make(map[string]int64),
	}
}

// RecordGatewayCall records a gateway call by endpoint and outcome.
func (mc *MemoryCollector) RecordGatewayCall(endpoint string, outcome string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.gatewayCalls[endpoint] == nil {
		mc.gatewayCalls[endpoint] = make(map[string]int64)
	}
	mc.gatewayCalls[endpoint][outcome]++
}

// RecordCircuitState records the latest circuit breaker state.
func (mc *MemoryCollector) RecordCircuitState(state metrics.CircuitState) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.circuitState = state
}

// RecordBalanceResolve records a balance resolution by source.
func (mc *MemoryCollector) RecordBalanceResolve(source string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.resolvesBySrc[source]++
}

// RecordHistoryFetch records a history fetch.
func (mc *MemoryCollector) RecordHistoryFetch(success bool, records int, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.historyFetches++
	if success {
		mc.historyRecords += int64(records)
	} else {
		mc.historyFailures++
	}
}

// RecordAccountSwitch records an explicit account switch.
func (mc *MemoryCollector) RecordAccountSwitch() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.accountSwitches++
}

// RecordStaleDrop records a discarded stale completion.
func (mc *MemoryCollector) RecordStaleDrop(component string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.staleDrops[component]++
}

// RecordStoreOp records a persistence operation.
func (mc *MemoryCollector) RecordStoreOp(store string, op string, success bool, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.storeOps[store+"/"+op]++
	if !success {
		mc.storeErrors++
	}
}

// GatewayCalls returns the call count for an endpoint/outcome pair.
func (mc *MemoryCollector) GatewayCalls(endpoint, outcome string) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.gatewayCalls[endpoint][outcome]
}

// CircuitState returns the last recorded circuit state.
func (mc *MemoryCollector) CircuitState() metrics.CircuitState {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.circuitState
}

// BalanceResolves returns the resolution count for a source.
func (mc *MemoryCollector) BalanceResolves(source string) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.resolvesBySrc[source]
}

// AccountSwitches returns the switch count.
func (mc *MemoryCollector) AccountSwitches() int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.accountSwitches
}

// StaleDrops returns the stale-drop count for a component.
func (mc *MemoryCollector) StaleDrops(component string) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.staleDrops[component]
}

// Snapshot returns a flat map of all counters for the /status endpoint.
func (mc *MemoryCollector) Snapshot() map[string]int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	out := make(map[string]int64)
	for endpoint, outcomes := range mc.gatewayCalls {
		for outcome, n := range outcomes {
			out["gateway."+endpoint+"."+outcome] = n
		}
	}
	for src, n := range mc.resolvesBySrc {
		out["balance.resolve."+src] = n
	}
	out["history.fetches"] = mc.historyFetches
	out["history.failures"] = mc.historyFailures
	out["history.records"] = mc.historyRecords
	out["session.switches"] = mc.accountSwitches
	for c, n := range mc.staleDrops {
		out["stale_drops."+c] = n
	}
	for op, n := range mc.storeOps {
		out["store."+op] = n
	}
	out["store.errors"] = mc.storeErrors
	return out
}
