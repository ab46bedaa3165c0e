// Package device derives and persists the per-device fingerprint used to
// bind sessions and device mappings to a physical handset. Fingerprinting
// is best-effort: storage failures degrade to "unavailable", never block a
// user flow.
package device

import (
	"context"
	"fmt"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/fintech"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/gateway"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/logging"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EndpointDeviceMap is the backend device-mapping endpoint.
const EndpointDeviceMap = "device_account_map"

// PlatformIDFunc obtains a platform-stable device identifier. It returns
// an error when the platform offers none (emulator, stripped build).
type PlatformIDFunc func() (string, error)

// Manager owns the device fingerprint lifecycle.
type Manager struct {
	store      store.Store
	gw         gateway.Caller
	platformID PlatformIDFunc
	logger     *logging.Logger
}

// Config holds manager dependencies.
type Config struct {
	// Store is the device-scoped persistent store.
	Store store.Store

	// Gateway performs the device-mapping upsert. Optional; without it
	// MapToUser is a no-op.
	Gateway gateway.Caller

	// PlatformID obtains a platform-stable identifier. Optional; without
	// it the fallback identifier is synthesized directly.
	PlatformID PlatformIDFunc
}

// NewManager creates a device identity manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		store:      cfg.Store,
		gw:         cfg.Gateway,
		platformID: cfg.PlatformID,
		logger:     logging.L().Named("device"),
	}
}

// GetOrCreate returns the persisted fingerprint, creating one on first
// call. Idempotent: once a fingerprint exists it is returned unchanged for
// the device's lifetime. The empty value means fingerprinting is
// unavailable (storage failure); callers must proceed without device-bound
// behavior rather than fail the flow.
func (m *Manager) GetOrCreate(ctx context.Context) fintech.DeviceFingerprint {
	existing, err := m.store.Get(ctx, store.KeyDeviceFingerprint)
	if err == nil && len(existing) > 0 {
		return fintech.DeviceFingerprint(existing)
	}
	if err != nil && !store.IsNotFound(err) {
		m.logger.Warn("fingerprint read failed, fingerprinting unavailable", zap.Error(err))
		return ""
	}

	fp := m.derive()

	if err := m.store.Set(ctx, store.KeyDeviceFingerprint, []byte(fp), 0); err != nil {
		m.logger.Warn("fingerprint persist failed, fingerprinting unavailable", zap.Error(err))
		return ""
	}

	m.logger.Info("device fingerprint created")
	return fp
}

// derive prefers the platform-stable identifier and falls back to a
// synthesized one. The fallback is NOT stable across reinstalls; callers
// tolerate fingerprint churn.
func (m *Manager) derive() fintech.DeviceFingerprint {
	if m.platformID != nil {
		if id, err := m.platformID(); err == nil && id != "" {
			return fintech.DeviceFingerprint(id)
		} else if err != nil {
			m.logger.Debug("platform identifier unavailable", zap.Error(err))
		}
	}

	return fintech.DeviceFingerprint(
		fmt.Sprintf("fp-%d-%s", time.Now().UnixMilli(), uuid.NewString()),
	)
}

// MapToUser upserts the device→user mapping on the backend. When no
// fingerprint is available the mapping is skipped silently: device-bound
// behavior is omitted, the user flow continues.
func (m *Manager) MapToUser(ctx context.Context, userID string) error {
	if m.gw == nil {
		return nil
	}

	fp := m.GetOrCreate(ctx)
	if fp == "" {
		m.logger.Info("skipping device mapping, no fingerprint", zap.String("user_id", userID))
		return nil
	}

	payload := map[string]any{
		"action":             "create",
		"device_fingerprint": string(fp),
		"user_id":            userID,
	}

	if _, err := m.gw.Call(ctx, EndpointDeviceMap, payload); err != nil {
		return fmt.Errorf("device mapping: %w", err)
	}
	return nil
}
