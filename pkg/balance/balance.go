// Package balance computes the displayed balance for an account via a
// deterministic fallback chain over the most recent history record. It
// never returns an error: every failure mode degrades to the "0.00"/Never
// result the UI can always render.
package balance

import (
	"context"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/fintech"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/history"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/logging"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Sources for the metrics label: which step of the fallback chain
// produced the value.
const (
	SourceCurrentBalance     = "current_balance"
	SourceTransactionBalance = "transaction_balance"
	SourceFallback           = "fallback"
)

// HistoryFetcher is the slice of the history contract the resolver needs.
type HistoryFetcher interface {
	Fetch(ctx context.Context, opts history.Options) (*history.Result, error)
}

// Resolver resolves display balances.
type Resolver struct {
	fetcher HistoryFetcher
	metrics metrics.Collector
	logger  *logging.Logger

	// sf collapses concurrent resolutions for the same account into one
	// backend query.
	sf singleflight.Group

	// now is swappable for tests.
	now func() time.Time
}

// NewResolver creates a balance resolver.
func NewResolver(fetcher HistoryFetcher) *Resolver {
	return NewResolverWithMetrics(fetcher, metrics.NoOpCollector{})
}

// NewResolverWithMetrics creates a balance resolver with a custom collector.
func NewResolverWithMetrics(fetcher HistoryFetcher, collector metrics.Collector) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		metrics: collector,
		logger:  logging.L().Named("balance"),
		now:     time.Now,
	}
}

// Resolve computes the display balance for the account. An account without
// a customer id resolves to {"0.00", Never} without any network call.
// AsOf is client-local time at the moment a value was obtained, not the
// backend's timestamp.
func (r *Resolver) Resolve(ctx context.Context, acct fintech.Account) fintech.ResolvedBalance {
	if !acct.Usable() {
		return fintech.NewZeroBalance()
	}

	// The closure may serve callers other than the one whose ctx this is;
	// detach it so one caller's cancellation cannot fail the shared flight.
	detached := context.WithoutCancel(ctx)

	key := acct.CustomerID + "|" + acct.AccountNumber
	result, _, _ := r.sf.Do(key, func() (interface{}, error) {
		return r.resolve(detached, acct), nil
	})
	return result.(fintech.ResolvedBalance)
}

func (r *Resolver) resolve(ctx context.Context, acct fintech.Account) fintech.ResolvedBalance {
	start := time.Now()

	page, err := r.fetcher.Fetch(ctx, history.Options{
		CustomerID:    acct.CustomerID,
		AccountNumber: acct.AccountNumber,
		Limit:         1,
	})
	if err != nil {
		// Identical to "no value found": the UI never sees an error
		// from balance resolution.
		r.metrics.RecordBalanceResolve(SourceFallback, time.Since(start))
		r.logger.Debug("resolution failed, using fallback",
			zap.String("account", acct.Key()),
			zap.Error(err),
		)
		return fintech.NewZeroBalance()
	}

	value, source := r.pick(page)
	r.metrics.RecordBalanceResolve(source, time.Since(start))

	if source == SourceFallback {
		return fintech.NewZeroBalance()
	}

	return fintech.ResolvedBalance{
		Value: value,
		AsOf:  r.now(),
	}
}

// pick applies the fallback chain: the query's explicit current-balance
// field, then the leading transaction's post-transaction balance (already
// alias-resolved at the decode boundary), then the zero sentinel.
func (r *Resolver) pick(page *history.Result) (string, string) {
	if formatted, ok := fintech.FormatMoney(page.CurrentBalance); ok {
		return formatted, SourceCurrentBalance
	}

	if len(page.Transactions) > 0 {
		if formatted, ok := fintech.FormatMoney(page.Transactions[0].Balance.String()); ok {
			return formatted, SourceTransactionBalance
		}
	}

	return fintech.ZeroBalance, SourceFallback
}
