package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/metrics"
)

func TestMemoryCollector_Counters(t *testing.T) {
	mc := NewMemoryCollector()

	mc.RecordGatewayCall("accounts", metrics.OutcomeSuccess, time.Millisecond)
	mc.RecordGatewayCall("accounts", metrics.OutcomeSuccess, time.Millisecond)
	mc.RecordGatewayCall("accounts", metrics.OutcomeTransport, time.Millisecond)
	mc.RecordBalanceResolve("current_balance", time.Millisecond)
	mc.RecordAccountSwitch()
	mc.RecordStaleDrop("balance")

	if got := mc.GatewayCalls("accounts", metrics.OutcomeSuccess); got != 2 {
		t.Errorf("GatewayCalls success = %d, want 2", got)
	}
	if got := mc.GatewayCalls("accounts", metrics.OutcomeTransport); got != 1 {
		t.Errorf("GatewayCalls transport = %d, want 1", got)
	}
	if got := mc.GatewayCalls("history", metrics.OutcomeSuccess); got != 0 {
		t.Errorf("unrecorded endpoint = %d, want 0", got)
	}
	if got := mc.BalanceResolves("current_balance"); got != 1 {
		t.Errorf("BalanceResolves = %d, want 1", got)
	}
	if got := mc.AccountSwitches(); got != 1 {
		t.Errorf("AccountSwitches = %d, want 1", got)
	}
	if got := mc.StaleDrops("balance"); got != 1 {
		t.Errorf("StaleDrops = %d, want 1", got)
	}
}

func TestMemoryCollector_CircuitState(t *testing.T) {
	mc := NewMemoryCollector()

	if mc.CircuitState() != metrics.CircuitClosed {
		t.Errorf("initial state = %v", mc.CircuitState())
	}

	mc.RecordCircuitState(metrics.CircuitOpen)
	if mc.CircuitState() != metrics.CircuitOpen {
		t.Errorf("state = %v, want open", mc.CircuitState())
	}
}

func TestMemoryCollector_Snapshot(t *testing.T) {
	mc := NewMemoryCollector()

	mc.RecordHistoryFetch(true, 7, time.Millisecond)
	mc.RecordHistoryFetch(false, 0, time.Millisecond)
	mc.RecordStoreOp("memory", "set", true, time.Millisecond)
	mc.RecordStoreOp("memory", "set", false, time.Millisecond)

	snap := mc.Snapshot()
	if snap["history.fetches"] != 2 {
		t.Errorf("fetches = %d", snap["history.fetches"])
	}
	if snap["history.failures"] != 1 {
		t.Errorf("failures = %d", snap["history.failures"])
	}
	if snap["history.records"] != 7 {
		t.Errorf("records = %d", snap["history.records"])
	}
	if snap["store.memory/set"] != 2 {
		t.Errorf("store ops = %d", snap["store.memory/set"])
	}
	if snap["store.errors"] != 1 {
		t.Errorf("store errors = %d", snap["store.errors"])
	}
}

func TestMemoryCollector_Concurrent(t *testing.T) {
	mc := NewMemoryCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				mc.RecordAccountSwitch()
			}
		}()
	}
	wg.Wait()

	if got := mc.AccountSwitches(); got != 1000 {
		t.Errorf("AccountSwitches = %d, want 1000", got)
	}
}
