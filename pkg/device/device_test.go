package device

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/gateway"
	gwmock "github.com/mbbsolutions/com.shovibam-sub001/pkg/gateway/mock"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store/mock"
)

func TestManager_GetOrCreate_Idempotent(t *testing.T) {
	s := mock.NewMockStore("device")
	m := NewManager(Config{Store: s})
	ctx := context.Background()

	first := m.GetOrCreate(ctx)
	if first == "" {
		t.Fatal("expected a fingerprint on first call")
	}

	second := m.GetOrCreate(ctx)
	if second != first {
		t.Errorf("fingerprint changed across calls: %q then %q", first, second)
	}

	// The persisted value is the source of truth.
	persisted, err := s.Get(ctx, store.KeyDeviceFingerprint)
	if err != nil {
		t.Fatalf("fingerprint not persisted: %v", err)
	}
	if string(persisted) != string(first) {
		t.Errorf("persisted = %q, returned = %q", persisted, first)
	}
}

func TestManager_GetOrCreate_PrefersPlatformID(t *testing.T) {
	m := NewManager(Config{
		Store:      mock.NewMockStore("device"),
		PlatformID: func() (string, error) { return "android-id-42", nil },
	})

	fp := m.GetOrCreate(context.Background())
	if string(fp) != "android-id-42" {
		t.Errorf("fingerprint = %q, want platform identifier", fp)
	}
}

func TestManager_GetOrCreate_PlatformFailureFallsBack(t *testing.T) {
	m := NewManager(Config{
		Store:      mock.NewMockStore("device"),
		PlatformID: func() (string, error) { return "", errors.New("no provider") },
	})

	fp := m.GetOrCreate(context.Background())
	if fp == "" {
		t.Fatal("fallback synthesis must still produce a fingerprint")
	}
}

func TestManager_GetOrCreate_StorageFailure(t *testing.T) {
	s := mock.NewMockStore("device")
	s.SetFunc = func(ctx context.Context, key string, value []byte, ttl time.Duration) error {
		return store.ErrUnavailable
	}
	m := NewManager(Config{Store: s})

	if fp := m.GetOrCreate(context.Background()); fp != "" {
		t.Errorf("expected empty fingerprint on persist failure, got %q", fp)
	}
}

func TestManager_MapToUser(t *testing.T) {
	caller := &gwmock.MockCaller{
		CallFunc: func(ctx context.Context, endpoint string, payload any) (*gateway.Response, error) {
			if endpoint != EndpointDeviceMap {
				t.Errorf("endpoint = %q", endpoint)
			}
			body, _ := json.Marshal(payload)
			var got map[string]string
			json.Unmarshal(body, &got)
			if got["action"] != "create" || got["user_id"] != "cust-7" || got["device_fingerprint"] == "" {
				t.Errorf("payload = %v", got)
			}
			return &gateway.Response{}, nil
		},
	}
	m := NewManager(Config{Store: mock.NewMockStore("device"), Gateway: caller})

	if err := m.MapToUser(context.Background(), "cust-7"); err != nil {
		t.Fatalf("MapToUser failed: %v", err)
	}
	if caller.Calls() != 1 {
		t.Errorf("gateway calls = %d, want 1", caller.Calls())
	}
}

func TestManager_MapToUser_NoFingerprintSkips(t *testing.T) {
	s := mock.NewMockStore("device")
	s.SetFunc = func(ctx context.Context, key string, value []byte, ttl time.Duration) error {
		return store.ErrUnavailable
	}
	caller := &gwmock.MockCaller{}
	m := NewManager(Config{Store: s, Gateway: caller})

	if err := m.MapToUser(context.Background(), "cust-7"); err != nil {
		t.Fatalf("expected silent skip, got %v", err)
	}
	if caller.Calls() != 0 {
		t.Errorf("gateway must not be called without a fingerprint, got %d calls", caller.Calls())
	}
}

func TestManager_MapToUser_GatewayError(t *testing.T) {
	caller := &gwmock.MockCaller{
		CallFunc: func(ctx context.Context, endpoint string, payload any) (*gateway.Response, error) {
			return nil, gateway.ErrTransport
		},
	}
	m := NewManager(Config{Store: mock.NewMockStore("device"), Gateway: caller})

	err := m.MapToUser(context.Background(), "cust-7")
	if !errors.Is(err, gateway.ErrTransport) {
		t.Errorf("expected wrapped transport error, got %v", err)
	}
}
