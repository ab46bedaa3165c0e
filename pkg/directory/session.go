package directory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/balance"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/fintech"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/logging"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/metrics"

	"go.uber.org/zap"
)

// Snapshot is the read-only session state handed to observers and the
// diagnostic API.
type Snapshot struct {
	// Main is the account established at session start. Switching the
	// selected account never mutates it.
	Main fintech.Account `json:"main"`

	// Selected is the account the UI currently renders.
	Selected fintech.Account `json:"selected"`

	// Accounts is the resolved account list for the session identity.
	Accounts []fintech.Account `json:"accounts"`

	// Balance is the selected account's resolved balance.
	Balance fintech.ResolvedBalance `json:"balance"`

	// NoAccount is the explicit "no account available" state; the UI
	// must surface it rather than render stale defaults.
	NoAccount bool `json:"no_account"`
}

// Observer receives a snapshot after every committed state change.
type Observer func(Snapshot)

// ResolveOptions control session resolution.
type ResolveOptions struct {
	// KnownAccounts, when non-empty, skips network resolution entirely
	// (the caller already holds the list, e.g. from a parent session).
	KnownAccounts []fintech.Account
}

// Session owns the mutable session state: it is the single writer for the
// current account pair and the resolved balance. Completions carry the
// intent marker captured at issue time; a completion whose marker is no
// longer current is discarded, so the last-issued intent wins regardless
// of completion order.
type Session struct {
	cache    *Cache
	resolver *balance.Resolver
	metrics  metrics.Collector
	logger   *logging.Logger

	intent atomic.Uint64

	mu        sync.Mutex
	main      fintech.Account
	selected  fintech.Account
	accounts  []fintech.Account
	balance   fintech.ResolvedBalance
	noAccount bool
	observers map[int]Observer
	nextObsID int

	wg sync.WaitGroup
}

// NewSession creates a session coordinator.
func NewSession(cache *Cache, resolver *balance.Resolver, collector metrics.Collector) *Session {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	return &Session{
		cache:     cache,
		resolver:  resolver,
		metrics:   collector,
		logger:    logging.L().Named("session"),
		balance:   fintech.NewZeroBalance(),
		observers: make(map[int]Observer),
	}
}

// Subscribe registers an observer and returns its unsubscribe func.
// Observers are called after every committed change, outside the lock.
func (s *Session) Subscribe(obs Observer) func() {
	s.mu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = obs
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	accounts := make([]fintech.Account, len(s.accounts))
	copy(accounts, s.accounts)
	return Snapshot{
		Main:      s.main,
		Selected:  s.selected,
		Accounts:  accounts,
		Balance:   s.balance,
		NoAccount: s.noAccount,
	}
}

// Resolve runs the account-resolution algorithm: establish the account
// list (from caller-supplied accounts, the persisted last-chosen identity,
// or the first cached profile), pick the current account, and commit. It
// runs once at session start and again on explicit refresh. A user switch
// issued while Resolve is in flight wins: the stale commit only fills in
// what the switch did not touch.
func (s *Session) Resolve(ctx context.Context, opts ResolveOptions) {
	token := s.intent.Add(1)

	last, hasLast := s.cache.LastChosenAccount(ctx)

	accounts := opts.KnownAccounts
	if len(accounts) == 0 {
		accounts = s.fetchAccounts(ctx, last, hasLast)
	}

	current := pickCurrent(accounts, last, hasLast)

	s.commitResolution(token, accounts, current)

	if current != nil && current.Usable() {
		s.wg.Add(1)
		go func(acct fintech.Account, token uint64) {
			defer s.wg.Done()
			s.refreshBalance(ctx, acct, token)
		}(*current, token)
	}
}

// fetchAccounts determines the resolution target identity and refreshes
// its account list. Falls back to the cached list when the gateway fails.
func (s *Session) fetchAccounts(ctx context.Context, last fintech.Account, hasLast bool) []fintech.Account {
	techvibesID := ""
	fintechTag := ""

	if hasLast && last.TechvibesID != "" {
		techvibesID = last.TechvibesID
		fintechTag = last.Fintech
	} else {
		profiles := s.cache.MappedProfiles(ctx)
		if len(profiles) > 0 {
			techvibesID = profiles[0].TechvibesID
			if len(profiles[0].Accounts) > 0 {
				fintechTag = profiles[0].Accounts[0].Fintech
			}
		}
	}

	if techvibesID == "" {
		return nil
	}

	accounts := s.cache.FetchAndStoreAccountsByIdentity(ctx, techvibesID, fintechTag)
	if len(accounts) == 0 {
		accounts = s.cache.CachedAccounts(ctx, techvibesID)
	}
	return accounts
}

// pickCurrent matches the persisted selection against the list, defaulting
// to the first account when the selection is stale or absent.
func pickCurrent(accounts []fintech.Account, last fintech.Account, hasLast bool) *fintech.Account {
	if len(accounts) == 0 {
		return nil
	}

	if hasLast {
		for i := range accounts {
			if accounts[i].AccountNumber == last.AccountNumber {
				return &accounts[i]
			}
		}
	}
	return &accounts[0]
}

// commitResolution writes resolution results, deferring to any selection
// the user made while the resolution was in flight. The account list always
// lands, but selected and noAccount are only written while the intent
// marker is still current: an empty resolution completing after a user
// switch must not flag "no account" over a committed selection. The
// persisted last-chosen account is NOT updated here; only explicit user
// selection writes it.
func (s *Session) commitResolution(token uint64, accounts []fintech.Account, current *fintech.Account) {
	s.mu.Lock()

	s.accounts = accounts

	if s.intent.Load() == token {
		s.noAccount = current == nil
		if current != nil {
			if s.main.IsZero() {
				s.main = *current
			}
			s.selected = *current
		}
	} else {
		s.metrics.RecordStaleDrop("session")
		kept := s.selected.Key()
		resolved := "none"
		if current != nil {
			resolved = current.Key()
			if s.main.IsZero() {
				s.main = *current
			}
		}
		s.logger.Debug("resolution superseded by user selection",
			zap.String("resolved", resolved),
			zap.String("kept", kept),
		)
	}

	snap := s.snapshotLocked()
	observers := s.observersLocked()
	s.mu.Unlock()

	notify(observers, snap)
}

// SelectAccount sets the sub-account the UI renders, persists it as the
// last-chosen account, notifies observers, and re-resolves the balance.
// The main account is never mutated. Safe to call while a Resolve is in
// flight: the selection always wins.
func (s *Session) SelectAccount(ctx context.Context, acct fintech.Account) {
	token := s.intent.Add(1)

	s.mu.Lock()
	s.selected = acct
	s.noAccount = false
	snap := s.snapshotLocked()
	observers := s.observersLocked()
	s.mu.Unlock()

	s.metrics.RecordAccountSwitch()

	if err := s.cache.SetLastChosenAccount(ctx, acct); err != nil {
		// Persistence failure costs cold-start reselection, not the
		// session itself.
		s.logger.Warn("last-chosen persist failed", zap.Error(err))
	}

	notify(observers, snap)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refreshBalance(ctx, acct, token)
	}()
}

// RefreshBalance re-resolves the selected account's balance on demand
// (pull-to-refresh).
func (s *Session) RefreshBalance(ctx context.Context) {
	token := s.intent.Load()

	s.mu.Lock()
	acct := s.selected
	s.mu.Unlock()

	s.refreshBalance(ctx, acct, token)
}

// refreshBalance resolves and commits the balance for acct, provided the
// session has not moved on: the intent marker must still be current and
// the selected account must still be the one the call was issued for.
func (s *Session) refreshBalance(ctx context.Context, acct fintech.Account, token uint64) {
	resolved := s.resolver.Resolve(ctx, acct)

	s.mu.Lock()
	if s.intent.Load() != token || !s.selected.SameAs(acct) {
		s.mu.Unlock()
		s.metrics.RecordStaleDrop("balance")
		s.logger.Debug("stale balance discarded", zap.String("account", acct.Key()))
		return
	}
	s.balance = resolved
	snap := s.snapshotLocked()
	observers := s.observersLocked()
	s.mu.Unlock()

	notify(observers, snap)
}

// Wait blocks until in-flight balance refreshes complete. Used by tests
// and shutdown.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) observersLocked() []Observer {
	out := make([]Observer, 0, len(s.observers))
	for _, obs := range s.observers {
		out = append(out, obs)
	}
	return out
}

func notify(observers []Observer, snap Snapshot) {
	for _, obs := range observers {
		obs(snap)
	}
}
