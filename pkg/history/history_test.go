package history

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/fintech"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/gateway"
	gwmock "github.com/mbbsolutions/com.shovibam-sub001/pkg/gateway/mock"
)

func respondWith(body string) *gwmock.MockCaller {
	return &gwmock.MockCaller{
		CallFunc: func(ctx context.Context, endpoint string, payload any) (*gateway.Response, error) {
			var env struct {
				Data json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal([]byte(body), &env); err != nil {
				return nil, err
			}
			return &gateway.Response{Data: env.Data, Body: json.RawMessage(body)}, nil
		},
	}
}

func TestFetcher_Fetch_RequiresCustomerID(t *testing.T) {
	caller := &gwmock.MockCaller{}
	f := NewFetcher(caller)

	_, err := f.Fetch(context.Background(), Options{AccountNumber: "001"})
	if !errors.Is(err, ErrMissingCustomerID) {
		t.Fatalf("expected ErrMissingCustomerID, got %v", err)
	}
	if caller.Calls() != 0 {
		t.Error("no gateway call should be made without a customer id")
	}
}

func TestFetcher_Fetch_PayloadPassedVerbatim(t *testing.T) {
	var seen Options
	caller := &gwmock.MockCaller{
		CallFunc: func(ctx context.Context, endpoint string, payload any) (*gateway.Response, error) {
			if endpoint != EndpointHistory {
				t.Errorf("endpoint = %q", endpoint)
			}
			seen = payload.(Options)
			return &gateway.Response{Data: json.RawMessage(`[]`), Body: json.RawMessage(`{"status":"success","data":[]}`)}, nil
		},
	}
	f := NewFetcher(caller)

	opts := Options{CustomerID: "cust-1", AccountNumber: "001", Limit: 25, Offset: 50, Reference: "TX-9"}
	if _, err := f.Fetch(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	if seen != opts {
		t.Errorf("payload = %+v, want %+v", seen, opts)
	}
}

func TestFetcher_Fetch_BackendOrderPreserved(t *testing.T) {
	body := `{"status":"success","data":[
		{"history_id":"t1","amount":"100.00","date":"2024-03-03 10:00:00"},
		{"history_id":"t2","amount":"200.00","date":"2024-03-01 10:00:00"},
		{"history_id":"t3","amount":"300.00","date":"2024-03-02 10:00:00"}
	]}`
	f := NewFetcher(respondWith(body))

	first, err := f.Fetch(context.Background(), Options{CustomerID: "cust-1"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.Fetch(context.Background(), Options{CustomerID: "cust-1"})
	if err != nil {
		t.Fatal(err)
	}

	ids := func(r *Result) []string {
		out := make([]string, len(r.Transactions))
		for i, tx := range r.Transactions {
			out[i] = tx.HistoryID.String()
		}
		return out
	}

	want := []string{"t1", "t2", "t3"}
	if got := ids(first); !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want backend order %v", got, want)
	}
	// Same options twice yields equal content and order.
	if !reflect.DeepEqual(ids(first), ids(second)) {
		t.Errorf("repeat fetch diverged: %v vs %v", ids(first), ids(second))
	}
}

func TestFetcher_Fetch_CurrentBalanceSidecar(t *testing.T) {
	body := `{"status":"success","data":[],"current_balance":"4500.00"}`
	f := NewFetcher(respondWith(body))

	result, err := f.Fetch(context.Background(), Options{CustomerID: "cust-1"})
	if err != nil {
		t.Fatal(err)
	}
	if result.CurrentBalance != "4500.00" {
		t.Errorf("CurrentBalance = %q, want 4500.00", result.CurrentBalance)
	}
}

func TestFetcher_Fetch_NumericSidecarTolerated(t *testing.T) {
	body := `{"status":"success","data":[],"current_balance":4500}`
	f := NewFetcher(respondWith(body))

	result, err := f.Fetch(context.Background(), Options{CustomerID: "cust-1"})
	if err != nil {
		t.Fatal(err)
	}
	if result.CurrentBalance != "4500" {
		t.Errorf("CurrentBalance = %q, want 4500", result.CurrentBalance)
	}
}

func TestFetcher_Fetch_SingleObjectData(t *testing.T) {
	body := `{"status":"success","data":{"history_id":"only","amount":"50.00"}}`
	f := NewFetcher(respondWith(body))

	result, err := f.Fetch(context.Background(), Options{CustomerID: "cust-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Transactions) != 1 || result.Transactions[0].HistoryID.String() != "only" {
		t.Errorf("transactions = %+v", result.Transactions)
	}
}

func TestFetcher_Fetch_GatewayErrorPropagates(t *testing.T) {
	f := NewFetcher(&gwmock.MockCaller{}) // nil CallFunc fails transport

	_, err := f.Fetch(context.Background(), Options{CustomerID: "cust-1"})
	if !gateway.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func decodeRecords(t *testing.T, raw string) []fintech.TransactionRecord {
	t.Helper()
	var records []fintech.TransactionRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		t.Fatal(err)
	}
	return records
}

func TestFilterByNote(t *testing.T) {
	records := decodeRecords(t, `[
		{"history_id":"t1","note":"Airtime topup MTN"},
		{"history_id":"t2","note":"Transfer to savings"},
		{"history_id":"t3","note":"AIRTIME glo"},
		{"history_id":"t4"},
		{"history_id":"t5","note":"bulk airtime"}
	]`)

	got := FilterByNote(records, "airtime")
	want := []string{"t1", "t3", "t5"}
	if len(got) != len(want) {
		t.Fatalf("filtered %d records, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].HistoryID.String() != id {
			t.Errorf("position %d = %q, want %q (order must be preserved)", i, got[i].HistoryID.String(), id)
		}
	}

	// Input untouched.
	if len(records) != 5 {
		t.Errorf("input mutated: %d records", len(records))
	}

	if got := FilterByNote(records, "nomatch"); len(got) != 0 {
		t.Errorf("no-match filter returned %d records", len(got))
	}

	all := FilterByNote(records, "")
	if len(all) != 5 {
		t.Errorf("empty filter returned %d records, want all 5", len(all))
	}
	// Even a pass-through filter returns a copy.
	if &all[0] == &records[0] {
		t.Error("empty filter must not alias the input slice")
	}
}

func TestFilterAirtime(t *testing.T) {
	records := decodeRecords(t, `[
		{"history_id":"t1","note":"Airtime purchase"},
		{"history_id":"t2","note":"POS withdrawal"}
	]`)

	got := FilterAirtime(records)
	if len(got) != 1 || got[0].HistoryID.String() != "t1" {
		t.Errorf("FilterAirtime = %+v", got)
	}
}
