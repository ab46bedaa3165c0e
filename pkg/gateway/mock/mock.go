// Package mock provides a gateway.Caller test double.
package mock

import (
	"context"
	"sync/atomic"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/gateway"
)

// MockCaller implements gateway.Caller for tests.
type MockCaller struct {
	// CallFunc customizes behavior. Nil means every call fails transport.
	CallFunc func(ctx context.Context, endpoint string, payload any) (*gateway.Response, error)

	calls int64
}

// Call implements gateway.Caller.
func (m *MockCaller) Call(ctx context.Context, endpoint string, payload any) (*gateway.Response, error) {
	atomic.AddInt64(&m.calls, 1)
	if m.CallFunc != nil {
		return m.CallFunc(ctx, endpoint, payload)
	}
	return nil, gateway.ErrTransport
}

// Calls returns the number of Call invocations (thread-safe).
func (m *MockCaller) Calls() int {
	return int(atomic.LoadInt64(&m.calls))
}
