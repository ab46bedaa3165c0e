// Package history retrieves and filters transaction records. The record
// order is exactly what the backend returned: a client-side date-descending
// sort used to live here and was removed on purpose — the backend is the
// sole authority on ordering. Do not reintroduce sorting without first
// verifying it does not mask backend ordering defects.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/fintech"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/gateway"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/logging"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/metrics"

	"go.uber.org/zap"
)

// EndpointHistory is the backend transaction history endpoint.
const EndpointHistory = "transaction_history"

// ErrMissingCustomerID is returned when options carry no customer id; the
// backend cannot answer a history query without one.
var ErrMissingCustomerID = errors.New("history: customer id is required")

// Options are the history request parameters. Limit and Offset are passed
// through verbatim; the backend is not assumed to enforce them exactly, so
// callers must not rely on len(result) == Limit.
type Options struct {
	CustomerID    string `json:"customer_id"`
	AccountNumber string `json:"account_number,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
	FromDate      string `json:"from_date,omitempty"`
	ToDate        string `json:"to_date,omitempty"`
	Reference     string `json:"reference,omitempty"`
	Name          string `json:"name,omitempty"`
}

// Result is a fetched history page.
type Result struct {
	// Transactions in backend order.
	Transactions []fintech.TransactionRecord

	// CurrentBalance is the explicit balance field returned alongside the
	// query, raw as sent. Empty when the backend omitted it. Always
	// reflects the unfiltered result; note filters never change it.
	CurrentBalance string
}

// Fetcher retrieves history pages through the gateway.
type Fetcher struct {
	gw      gateway.Caller
	metrics metrics.Collector
	logger  *logging.Logger
}

// NewFetcher creates a history fetcher.
func NewFetcher(gw gateway.Caller) *Fetcher {
	return NewFetcherWithMetrics(gw, metrics.NoOpCollector{})
}

// NewFetcherWithMetrics creates a history fetcher with a custom collector.
func NewFetcherWithMetrics(gw gateway.Caller, collector metrics.Collector) *Fetcher {
	return &Fetcher{
		gw:      gw,
		metrics: collector,
		logger:  logging.L().Named("history"),
	}
}

// Fetch retrieves one page of history. Gateway failures surface as the
// typed gateway errors; the caller decides how to degrade.
func (f *Fetcher) Fetch(ctx context.Context, opts Options) (*Result, error) {
	if opts.CustomerID == "" {
		return nil, ErrMissingCustomerID
	}

	start := time.Now()

	resp, err := f.gw.Call(ctx, EndpointHistory, opts)
	if err != nil {
		f.metrics.RecordHistoryFetch(false, 0, time.Since(start))
		return nil, err
	}

	result, err := decodeResult(resp)
	if err != nil {
		f.metrics.RecordHistoryFetch(false, 0, time.Since(start))
		return nil, err
	}

	f.metrics.RecordHistoryFetch(true, len(result.Transactions), time.Since(start))

	f.logger.Debug("history fetched",
		zap.String("customer_id", opts.CustomerID),
		zap.Int("records", len(result.Transactions)),
		zap.Int("limit", opts.Limit),
		zap.Int("offset", opts.Offset),
	)

	if !isDateDescending(result.Transactions) {
		// Observability for the open backend-ordering question; behavior
		// stays pass-through either way.
		f.logger.Debug("backend returned non-descending page",
			zap.String("customer_id", opts.CustomerID),
		)
	}

	return result, nil
}

// decodeResult unwraps the history payload. The data field arrives as
// either an array of records or a single record object.
func decodeResult(resp *gateway.Response) (*Result, error) {
	result := &Result{}

	if len(resp.Data) > 0 {
		var records []fintech.TransactionRecord
		if err := json.Unmarshal(resp.Data, &records); err != nil {
			var single fintech.TransactionRecord
			if err := json.Unmarshal(resp.Data, &single); err != nil {
				return nil, fmt.Errorf("%w: history data: %v", gateway.ErrDataShape, err)
			}
			records = []fintech.TransactionRecord{single}
		}
		result.Transactions = records
	}

	var sidecar struct {
		CurrentBalance fintech.FlexString `json:"current_balance"`
	}
	if err := json.Unmarshal(resp.Body, &sidecar); err == nil {
		result.CurrentBalance = sidecar.CurrentBalance.String()
	}

	return result, nil
}

func isDateDescending(records []fintech.TransactionRecord) bool {
	var prev time.Time
	for i, r := range records {
		date, ok := r.Date()
		if !ok {
			continue
		}
		if i > 0 && !prev.IsZero() && date.After(prev) {
			return false
		}
		prev = date
	}
	return true
}

// FilterByNote returns the records whose note contains substr,
// case-insensitively. Pure: backend order is preserved, the input slice is
// never mutated, and no network call is made.
func FilterByNote(records []fintech.TransactionRecord, substr string) []fintech.TransactionRecord {
	if substr == "" {
		out := make([]fintech.TransactionRecord, len(records))
		copy(out, records)
		return out
	}

	out := make([]fintech.TransactionRecord, 0, len(records))
	for _, r := range records {
		if r.MatchesNote(substr) {
			out = append(out, r)
		}
	}
	return out
}

// FilterAirtime is the airtime category view used by the airtime screen.
func FilterAirtime(records []fintech.TransactionRecord) []fintech.TransactionRecord {
	return FilterByNote(records, "airtime")
}
