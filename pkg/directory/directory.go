// Package directory maintains the device's locally known profiles and
// accounts, the persisted last-chosen account, and the session coordinator
// that decides which account is current. Reads come from the persisted
// cache; the gateway is only consulted for explicit refreshes and account
// lookups, and a gateway failure never destroys cached state.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/fintech"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/gateway"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/logging"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/metrics"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store"
	storeasync "github.com/mbbsolutions/com.shovibam-sub001/pkg/store/async"

	"github.com/bits-and-blooms/bloom/v3"
	"go.uber.org/zap"
)

// EndpointAccounts serves both identity-wide account listing and single
// account verification, selected by the action field.
const EndpointAccounts = "accounts"

// ErrAccountNotFound is returned by LookupAccount when neither the local
// directory nor the backend knows the identifier.
var ErrAccountNotFound = errors.New("directory: no matching account")

// Cache is the account directory: persisted profiles, the last-chosen
// account, and lookup helpers.
type Cache struct {
	store   store.Store
	writer  *storeasync.Writer
	gw      gateway.Caller
	metrics metrics.Collector
	logger  *logging.Logger

	mu sync.Mutex
	// known tracks identifiers of locally cached accounts so lookups can
	// skip the directory scan when the value is definitely not cached.
	// Advisory only: a filter miss still allows the gateway path.
	known *bloom.BloomFilter
	// negative caches identifier lookups the backend rejected, so
	// re-typed bad identifiers do not hammer the account query endpoint.
	negative    map[string]time.Time
	negativeTTL time.Duration
}

// Config holds directory dependencies.
type Config struct {
	// Store is the persisted device store (typically chained
	// memory-over-file).
	Store store.Store

	// Gateway performs remote account operations.
	Gateway gateway.Caller

	// Writer, when set, makes last-chosen persistence write-behind so an
	// account switch never blocks on storage.
	Writer *storeasync.Writer

	// Metrics is optional.
	Metrics metrics.Collector

	// NegativeTTL bounds how long a failed identifier lookup is
	// remembered (default: 1 minute).
	NegativeTTL time.Duration
}

// NewCache creates the directory cache and seeds the known-account filter
// from persisted profiles.
func NewCache(cfg Config) *Cache {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NoOpCollector{}
	}
	if cfg.NegativeTTL <= 0 {
		cfg.NegativeTTL = time.Minute
	}

	c := &Cache{
		store:       cfg.Store,
		writer:      cfg.Writer,
		gw:          cfg.Gateway,
		metrics:     cfg.Metrics,
		logger:      logging.L().Named("directory"),
		known:       bloom.NewWithEstimates(10000, 0.01),
		negative:    make(map[string]time.Time),
		negativeTTL: cfg.NegativeTTL,
	}

	for _, p := range c.MappedProfiles(context.Background()) {
		c.remember(p.TechvibesID, p.Accounts)
	}

	return c
}

// MappedProfiles returns all locally known profiles from the persisted
// cache, in discovery order. Never triggers network; any storage failure
// reads as an empty directory.
func (c *Cache) MappedProfiles(ctx context.Context) []fintech.Profile {
	start := time.Now()
	raw, err := c.store.Get(ctx, store.KeyProfiles)
	c.metrics.RecordStoreOp(c.store.Name(), "get", err == nil || store.IsNotFound(err), time.Since(start))

	if err != nil {
		if !store.IsNotFound(err) {
			c.logger.Warn("profile read failed", zap.Error(err))
		}
		return nil
	}

	var profiles []fintech.Profile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		c.logger.Warn("profile cache corrupt, treating as empty", zap.Error(err))
		return nil
	}
	return profiles
}

// LastChosenAccount returns the persisted selection, or false if none has
// been recorded.
func (c *Cache) LastChosenAccount(ctx context.Context) (fintech.Account, bool) {
	raw, err := c.store.Get(ctx, store.KeyLastAccount)
	if err != nil {
		if !store.IsNotFound(err) {
			c.logger.Warn("last-chosen read failed", zap.Error(err))
		}
		return fintech.Account{}, false
	}

	var acct fintech.Account
	if err := json.Unmarshal(raw, &acct); err != nil {
		c.logger.Warn("last-chosen cache corrupt", zap.Error(err))
		return fintech.Account{}, false
	}
	if acct.IsZero() {
		return fintech.Account{}, false
	}
	return acct, true
}

// SetLastChosenAccount persists the account as the new last-chosen value,
// overwriting any prior one. Safe with a partially-populated account; only
// account number and fintech are needed for later lookup.
func (c *Cache) SetLastChosenAccount(ctx context.Context, acct fintech.Account) error {
	raw, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("directory: encode last-chosen: %w", err)
	}

	if c.writer != nil {
		return c.writer.Write(ctx, store.KeyLastAccount, raw, 0)
	}

	start := time.Now()
	err = c.store.Set(ctx, store.KeyLastAccount, raw, 0)
	c.metrics.RecordStoreOp(c.store.Name(), "set", err == nil, time.Since(start))
	if err != nil {
		return store.WrapError(err, c.store.Name(), "set last-chosen")
	}
	return nil
}

// FetchAndStoreAccountsByIdentity refreshes the account list for one
// identity from the backend and merges it into the cached directory. On
// gateway failure it returns nil and leaves the cache untouched.
func (c *Cache) FetchAndStoreAccountsByIdentity(ctx context.Context, techvibesID, fintechTag string) []fintech.Account {
	if techvibesID == "" {
		return nil
	}

	payload := map[string]any{
		"action":       "get_accounts_by_techvibes_id",
		"techvibes_id": techvibesID,
	}
	if fintechTag != "" {
		payload["fintech"] = fintechTag
	}

	resp, err := c.gw.Call(ctx, EndpointAccounts, payload)
	if err != nil {
		c.logger.Warn("account fetch failed, keeping cached directory",
			zap.String("techvibes_id", techvibesID),
			zap.String("error", gateway.DisplayMessage(err)),
		)
		return nil
	}

	var accounts []fintech.Account
	if err := json.Unmarshal(resp.Data, &accounts); err != nil {
		c.logger.Warn("account payload malformed, keeping cached directory", zap.Error(err))
		return nil
	}

	for i := range accounts {
		if accounts[i].TechvibesID == "" {
			accounts[i].TechvibesID = techvibesID
		}
	}

	if err := c.storeAccounts(ctx, techvibesID, accounts); err != nil {
		c.logger.Warn("account persist failed", zap.Error(err))
	}
	c.remember(techvibesID, accounts)

	return accounts
}

// CachedAccounts returns the cached account list for one identity.
func (c *Cache) CachedAccounts(ctx context.Context, techvibesID string) []fintech.Account {
	for _, p := range c.MappedProfiles(ctx) {
		if p.TechvibesID == techvibesID {
			return p.Accounts
		}
	}
	return nil
}

// storeAccounts replaces the account list for the identity, preserving
// profile discovery order and other profiles.
func (c *Cache) storeAccounts(ctx context.Context, techvibesID string, accounts []fintech.Account) error {
	profiles := c.MappedProfiles(ctx)

	found := false
	for i := range profiles {
		if profiles[i].TechvibesID == techvibesID {
			profiles[i].Accounts = accounts
			found = true
			break
		}
	}
	if !found {
		profiles = append(profiles, fintech.Profile{
			TechvibesID: techvibesID,
			Accounts:    accounts,
		})
	}

	raw, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("directory: encode profiles: %w", err)
	}

	start := time.Now()
	err = c.store.Set(ctx, store.KeyProfiles, raw, 0)
	c.metrics.RecordStoreOp(c.store.Name(), "set", err == nil, time.Since(start))
	if err != nil {
		return store.WrapError(err, c.store.Name(), "set profiles")
	}
	return nil
}

// LookupAccount resolves a user-entered identifier (account number,
// username, techvibes id) to an account. The local directory is consulted
// first; the backend query runs only when the directory cannot answer.
func (c *Cache) LookupAccount(ctx context.Context, field, value string) (fintech.Account, error) {
	if value == "" {
		return fintech.Account{}, ErrAccountNotFound
	}

	negKey := field + "=" + value
	if c.isNegativeCached(negKey) {
		return fintech.Account{}, ErrAccountNotFound
	}

	if acct, ok := c.lookupLocal(ctx, value); ok {
		return acct, nil
	}

	payload := map[string]any{
		"action": "query_account",
		"checks": []map[string]string{{"field": field, "value": value}},
	}

	resp, err := c.gw.Call(ctx, EndpointAccounts, payload)
	if err != nil {
		if gateway.IsApplication(err) {
			c.rememberNegative(negKey)
		}
		return fintech.Account{}, err
	}

	var acct fintech.Account
	if err := json.Unmarshal(resp.Data, &acct); err != nil {
		return fintech.Account{}, fmt.Errorf("%w: account record: %v", gateway.ErrDataShape, err)
	}
	if acct.IsZero() {
		c.rememberNegative(negKey)
		return fintech.Account{}, ErrAccountNotFound
	}

	return acct, nil
}

// lookupLocal scans the cached directory, short-circuited by the known
// filter when the value was never cached.
func (c *Cache) lookupLocal(ctx context.Context, value string) (fintech.Account, bool) {
	c.mu.Lock()
	mayExist := c.known.TestString(value)
	c.mu.Unlock()
	if !mayExist {
		return fintech.Account{}, false
	}

	for _, p := range c.MappedProfiles(ctx) {
		for _, acct := range p.Accounts {
			if acct.AccountNumber == value || acct.Email == value || acct.TechvibesID == value {
				return acct, true
			}
		}
	}
	return fintech.Account{}, false
}

// remember seeds the known filter with every identifier of the accounts.
func (c *Cache) remember(techvibesID string, accounts []fintech.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if techvibesID != "" {
		c.known.AddString(techvibesID)
	}
	for _, acct := range accounts {
		if acct.AccountNumber != "" {
			c.known.AddString(acct.AccountNumber)
		}
		if acct.Email != "" {
			c.known.AddString(acct.Email)
		}
	}
}

func (c *Cache) isNegativeCached(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cachedAt, ok := c.negative[key]
	if !ok {
		return false
	}
	if time.Since(cachedAt) > c.negativeTTL {
		delete(c.negative, key)
		return false
	}
	return true
}

func (c *Cache) rememberNegative(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Inline sweep keeps the map bounded without a background goroutine.
	now := time.Now()
	for k, at := range c.negative {
		if now.Sub(at) > c.negativeTTL {
			delete(c.negative, k)
		}
	}
	c.negative[key] = now
}
