// sessiond runs the session core standalone: it resolves the active
// account against the configured backend and serves the session, history,
// and metrics endpoints for the shell to consume.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/api"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/balance"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/device"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/directory"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/gateway"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/history"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/logging"
	promcollector "github.com/mbbsolutions/com.shovibam-sub001/pkg/metrics/prometheus"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store"
	storeasync "github.com/mbbsolutions/com.shovibam-sub001/pkg/store/async"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store/chained"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store/file"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store/memory"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store/postgres"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store/redis"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	logger, err := logging.NewLoggerFromEnv()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logging.SetGlobal(logger)

	logger.Info("starting sessiond")

	// Metrics
	registry := prometheus.NewRegistry()
	collector := promcollector.NewPrometheusCollector("sessiond")
	if err := collector.Register(registry); err != nil {
		logger.Fatal("metrics registration failed", zap.Error(err))
	}

	// Durable store, selected by env
	durable, err := buildStore()
	if err != nil {
		logger.Fatal("store initialization failed", zap.Error(err))
	}

	// Memory overlay so directory reads on the UI poll path stay off disk
	overlay := memory.NewMemoryStore(memory.MemoryStoreConfig{Name: "L1-memory"})
	sessionStore, err := chained.New(overlay, durable)
	if err != nil {
		logger.Fatal("store chain failed", zap.Error(err))
	}
	defer sessionStore.Close()
	logger.Info("store ready", zap.String("durable", durable.Name()))

	// Write-behind for selection persistence
	writer := storeasync.NewWriter(sessionStore, storeasync.Config{})
	defer writer.Close()

	// Gateway
	gwConfig := gateway.DefaultConfig(getEnv("BACKEND_URL", "http://localhost:9000"))
	gw, err := gateway.NewClientWithMetrics(gwConfig, collector)
	if err != nil {
		logger.Fatal("gateway initialization failed", zap.Error(err))
	}

	// Components
	devices := device.NewManager(device.Config{
		Store:   sessionStore,
		Gateway: gw,
	})

	cache := directory.NewCache(directory.Config{
		Store:   sessionStore,
		Writer:  writer,
		Gateway: gw,
		Metrics: collector,
	})

	fetcher := history.NewFetcherWithMetrics(gw, collector)
	resolver := balance.NewResolverWithMetrics(fetcher, collector)
	session := directory.NewSession(cache, resolver, collector)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if fp := devices.GetOrCreate(ctx); fp != "" {
		logger.Info("device fingerprint ready")
	} else {
		logger.Warn("fingerprinting unavailable, device-bound behavior disabled")
	}

	// Initial resolution; the API's /session/refresh re-runs it on demand.
	session.Resolve(ctx, directory.ResolveOptions{})

	// API
	apiConfig := api.DefaultServerConfig()
	apiConfig.Address = getEnv("LISTEN_ADDR", ":8080")
	apiConfig.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	server := api.NewServer(session, fetcher, apiConfig)
	server.Start()
	logger.Info("api listening", zap.String("addr", apiConfig.Address))

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	session.Wait()
	writer.Flush()
}

// buildStore selects the durable backend: the on-device file store by
// default, redis or postgres for hosted session mirrors.
func buildStore() (store.Store, error) {
	switch getEnv("STORE_BACKEND", "file") {
	case "redis":
		cfg := redis.DefaultConfig()
		cfg.Addr = getEnv("REDIS_ADDR", cfg.Addr)
		cfg.Password = getEnv("REDIS_PASSWORD", "")
		return redis.NewRedisStore(cfg)
	case "postgres":
		cfg := postgres.DefaultConfig()
		cfg.Host = getEnv("POSTGRES_HOST", cfg.Host)
		cfg.Port = getEnvInt("POSTGRES_PORT", cfg.Port)
		cfg.User = getEnv("POSTGRES_USER", cfg.User)
		cfg.Password = getEnv("POSTGRES_PASSWORD", cfg.Password)
		cfg.Database = getEnv("POSTGRES_DB", cfg.Database)
		return postgres.NewPostgresStore(cfg)
	default:
		path := getEnv("STORE_PATH", filepath.Join(defaultStateDir(), "session.json"))
		return file.NewFileStore(file.Config{Path: path})
	}
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "sessiond")
	}
	return "."
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
