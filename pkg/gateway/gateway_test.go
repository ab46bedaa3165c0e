package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultConfig(server.URL)
	config.Timeout = 2 * time.Second
	client, err := NewClient(config)
	if err != nil {
		t.Fatal(err)
	}
	return client, server
}

func TestClient_Call_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}

		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["action"] != "query_account" {
			t.Errorf("payload action = %v", payload["action"])
		}

		w.Write([]byte(`{"status":"success","data":{"account_number":"001"}}`))
	})

	resp, err := client.Call(context.Background(), "accounts", map[string]string{"action": "query_account"})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	var data map[string]string
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data["account_number"] != "001" {
		t.Errorf("data = %v", data)
	}
}

func TestClient_Call_ApplicationError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"No matching account"}`))
	})

	_, err := client.Call(context.Background(), "accounts", nil)
	if !IsApplication(err) {
		t.Fatalf("expected application error, got %v", err)
	}
	if got := DisplayMessage(err); got != "No matching account" {
		t.Errorf("DisplayMessage = %q, want backend message passed through", got)
	}
}

func TestClient_Call_HTTPStatusError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Call(context.Background(), "accounts", nil)
	if !IsTransport(err) {
		t.Fatalf("expected transport error for non-2xx, got %v", err)
	}
}

func TestClient_Call_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	config := DefaultConfig(server.URL)
	client, err := NewClient(config)
	if err != nil {
		t.Fatal(err)
	}
	server.Close() // connection refused from here on

	_, err = client.Call(context.Background(), "accounts", nil)
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestClient_Call_MalformedJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": not-json`))
	})

	_, err := client.Call(context.Background(), "accounts", nil)
	if !IsDataShape(err) {
		t.Fatalf("expected data shape error, got %v", err)
	}
}

func TestClient_Call_MissingStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})

	_, err := client.Call(context.Background(), "accounts", nil)
	if !IsDataShape(err) {
		t.Fatalf("expected data shape error for missing status, got %v", err)
	}
}

func TestClient_Call_BodyCarriesSiblingFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":[],"current_balance":"4500.00"}`))
	})

	resp, err := client.Call(context.Background(), "history", nil)
	if err != nil {
		t.Fatal(err)
	}

	var sidecar struct {
		CurrentBalance string `json:"current_balance"`
	}
	if err := json.Unmarshal(resp.Body, &sidecar); err != nil {
		t.Fatal(err)
	}
	if sidecar.CurrentBalance != "4500.00" {
		t.Errorf("sibling field lost: %q", sidecar.CurrentBalance)
	}
}

func TestClient_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	config := DefaultConfig(server.URL)
	config.ConsecutiveFailures = 3
	client, err := NewClient(config)
	if err != nil {
		t.Fatal(err)
	}
	server.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		client.Call(ctx, "accounts", nil)
	}

	_, err = client.Call(ctx, "accounts", nil)
	if err != ErrCircuitOpen {
		t.Fatalf("expected ErrCircuitOpen after repeated failures, got %v", err)
	}
	// Circuit-open still reads as the transport axis for callers.
	if !IsTransport(err) {
		t.Error("circuit open must classify as transport")
	}
}

func TestClient_ApplicationErrorDoesNotTripBreaker(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"bad identifier"}`))
	})

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if _, err := client.Call(ctx, "accounts", nil); !IsApplication(err) {
			t.Fatalf("call %d: expected application error, got %v", i, err)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Error("expected error for missing base URL")
	}
	if _, err := NewClient(Config{}); err == nil {
		t.Error("NewClient should reject empty config")
	}
}
