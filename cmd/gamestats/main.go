package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fortuna/gamestats/internal/api/rest"
	"github.com/fortuna/gamestats/internal/backloggd"
	"github.com/fortuna/gamestats/internal/cache"
	"github.com/fortuna/gamestats/internal/fetch"
	"github.com/fortuna/gamestats/internal/igdb"
	"github.com/fortuna/gamestats/internal/service"
)

const (
	serviceName    = "gamestats"
	serviceVersion = "1.0.0"
)

func main() {
	log.Printf("Starting %s v%s - Game Collection Service", serviceName, serviceVersion)

	// Load configuration from environment
	config := loadConfig()

	// Initialize cache: Redis when configured, in-process otherwise
	var store cache.Store
	if config.RedisURL != "" {
		var err error
		maxRetries := 30
		retryDelay := 2 * time.Second

		log.Println("Connecting to Redis...")
		for i := 0; i < maxRetries; i++ {
			store, err = cache.NewRedis(config.RedisURL)
			if err == nil {
				break
			}

			if i < maxRetries-1 {
				log.Printf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
				time.Sleep(retryDelay)
			} else {
				log.Fatalf("Failed to connect to Redis after %d attempts: %v", maxRetries, err)
			}
		}
		log.Println("✓ Connected to Redis")
	} else {
		store = cache.NewMemory()
		log.Println("✓ Using in-process cache (no REDIS_URL configured)")
	}
	defer store.Close()

	// Initialize the shared fetcher with the adaptive retry policy
	fetcher := fetch.New(fetch.Options{})
	log.Println("✓ Fetcher initialized")

	// Initialize IGDB enrichment (optional; skipped without credentials)
	var enricher *igdb.Client
	if config.IGDBClientID != "" || config.IGDBAccessToken != "" {
		enricher = igdb.NewClient(igdb.Config{
			ClientID:     config.IGDBClientID,
			ClientSecret: config.IGDBClientSecret,
			AccessToken:  config.IGDBAccessToken,
		})
		log.Println("✓ IGDB enrichment enabled")
	} else {
		log.Println("⚠️  IGDB credentials not set, records will not be enriched")
	}

	// Initialize crawler and collection service
	crawler := backloggd.NewClient(fetcher, enricher, backloggd.Config{
		BaseURL: config.BaseURL,
	})
	collections := service.NewCollectionService(crawler, store, config.CacheTTL)
	log.Println("✓ Collection service initialized")

	// Initialize REST API server
	restServer := rest.NewServer(config.Port, collections)
	go func() {
		log.Printf("Starting REST API server on port %s", config.Port)
		if err := restServer.Start(); err != nil {
			log.Printf("REST server error: %v", err)
		}
	}()

	log.Printf("✓ %s v%s started successfully", serviceName, serviceVersion)
	log.Printf("  REST API: http://0.0.0.0:%s", config.Port)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST API server shutdown error: %v", err)
	}

	log.Printf("%s stopped", serviceName)
}

type Config struct {
	Port             string
	RedisURL         string
	CacheTTL         time.Duration
	BaseURL          string
	IGDBClientID     string
	IGDBClientSecret string
	IGDBAccessToken  string
}

func loadConfig() Config {
	ttl := time.Hour
	if raw := getEnv("CACHE_TTL_SECONDS", ""); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			ttl = time.Duration(seconds) * time.Second
		}
	}

	return Config{
		Port:             getEnv("PORT", "8080"),
		RedisURL:         getEnv("REDIS_URL", ""),
		CacheTTL:         ttl,
		BaseURL:          getEnv("BASE_URL", backloggd.BaseURL),
		IGDBClientID:     getEnv("IGDB_CLIENT_ID", ""),
		IGDBClientSecret: getEnv("IGDB_CLIENT_SECRET", ""),
		IGDBAccessToken:  getEnv("IGDB_ACCESS_TOKEN", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
