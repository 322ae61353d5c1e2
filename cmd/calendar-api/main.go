package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/lakeviewcottage/lodgify-calendar/pkg/aggregator"
	"github.com/lakeviewcottage/lodgify-calendar/pkg/cache"
	"github.com/lakeviewcottage/lodgify-calendar/pkg/credentials"
	"github.com/lakeviewcottage/lodgify-calendar/pkg/lodgify"
	"github.com/lakeviewcottage/lodgify-calendar/pkg/logging"
)

func main() {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOGLEVEL", "warn")),
		Output: os.Stderr,
	})

	port := getEnv("PORT", "8080")
	corsWhitelist := getEnv("CORS_WHITELIST", "*")

	store, err := buildStore()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build result cache")
	}
	defer store.Close()

	resolver, err := credentials.NewResolver(credentials.Config{
		BaseURL:      getEnv("SECRET_SERVICE_BASE_URL", ""),
		SecretName:   getEnv("SECRET_NAME", ""),
		SessionToken: getEnv("AWS_SESSION_TOKEN", ""),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build credential resolver")
	}

	client, err := lodgify.New(lodgify.Config{
		BaseURL: getEnv("LODGIFY_API_BASE", lodgify.DefaultBaseURL),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build Lodgify client")
	}

	agg, err := aggregator.New(aggregator.Config{
		Store:        store,
		Credentials:  resolver,
		Client:       client,
		FetchTimeout: envSeconds("FETCH_TIMEOUT_SECONDS", aggregator.DefaultFetchTimeout),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build aggregator")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/v1/calendar", calendarHandler(agg, corsWhitelist))

	addr := ":" + port
	logger.Info().Str("addr", addr).Msg("Starting calendar API server")

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// buildStore selects the result cache backend from the environment.
func buildStore() (cache.Store, error) {
	ttl := envSeconds("CACHE_TTL_SECONDS", cache.DefaultTTL)

	if getEnv("CACHE_BACKEND", "memory") == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: getEnv("REDIS_URL", "localhost:6379"),
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			return nil, err
		}
		return cache.NewRedisStore(redisClient, ttl)
	}

	return cache.NewMemoryStore(cache.MemoryConfig{
		TTL:        ttl,
		MaxEntries: envInt("CACHE_MAX_ENTRIES", cache.DefaultMaxEntries),
	}), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func envSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return defaultValue
}
