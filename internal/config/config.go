package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, loaded from the environment
type Config struct {
	Port   string
	DBPath string

	// Optional redis for the current-place cache; empty addr disables it
	RedisAddr     string
	RedisPassword string

	// User attribution for requests that do not carry X-User-ID
	DefaultUser string

	// Visit tracking
	MaxAccuracyM   float64 // fixes with worse accuracy are ignored
	DefaultRadiusM float64 // geofence radius when a place does not specify one
	HomeLocation   string  // optional "lat,lon" seed for a Home place

	// Discovery
	DiscoveryDays      int     // lookback window in days
	DiscoveryMinVisits int     // minimum distinct occurrences per cluster
	ClusterRadiusM     float64 // greedy clustering proximity threshold
	OccurrenceGapMin   int     // minutes separating two occurrences at one cluster

	// Routines
	RoutineDays          int     // lookback window in days
	RoutineMinOccurrence int     // minimum occurrences per (place, weekday, hour) slot
	RoutineMinConfidence float64 // confidence floor for reported routines

	// Batch result caching and scheduling
	CacheTTLMin         int // suggestion/routine cache freshness in minutes
	DiscoveryRefreshMin int // scheduler interval, 0 disables
	RoutineRefreshMin   int // scheduler interval, 0 disables
	RetentionSweepMin   int // scheduler interval, 0 disables
	FixRetentionDays    int // raw fixes older than this are swept
}

// Load reads configuration from the environment, applying defaults
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	return &Config{
		Port:          port,
		DBPath:        getEnv("DB_PATH", "./data/dwell/dwell.db"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		DefaultUser:   getEnv("DEFAULT_USER", "default_user"),

		MaxAccuracyM:   getEnvFloat("MAX_ACCURACY_M", 100),
		DefaultRadiusM: getEnvFloat("DEFAULT_RADIUS_M", 100),
		HomeLocation:   os.Getenv("HOME_LOCATION"),

		DiscoveryDays:      getEnvInt("DISCOVERY_DAYS", 30),
		DiscoveryMinVisits: getEnvInt("DISCOVERY_MIN_VISITS", 3),
		ClusterRadiusM:     getEnvFloat("CLUSTER_RADIUS_M", 100),
		OccurrenceGapMin:   getEnvInt("OCCURRENCE_GAP_MIN", 120),

		RoutineDays:          getEnvInt("ROUTINE_DAYS", 28),
		RoutineMinOccurrence: getEnvInt("ROUTINE_MIN_OCCURRENCE", 3),
		RoutineMinConfidence: getEnvFloat("ROUTINE_MIN_CONFIDENCE", 0.25),

		CacheTTLMin:         getEnvInt("CACHE_TTL_MIN", 60),
		DiscoveryRefreshMin: getEnvInt("DISCOVERY_REFRESH_MIN", 360),
		RoutineRefreshMin:   getEnvInt("ROUTINE_REFRESH_MIN", 60),
		RetentionSweepMin:   getEnvInt("RETENTION_SWEEP_MIN", 1440),
		FixRetentionDays:    getEnvInt("FIX_RETENTION_DAYS", 90),
	}
}

// ParseHomeLocation parses the HOME_LOCATION "lat,lon" pair
func (c *Config) ParseHomeLocation() (float64, float64, bool) {
	if c.HomeLocation == "" {
		return 0, 0, false
	}
	parts := strings.Split(c.HomeLocation, ",")
	if len(parts) != 2 {
		log.Printf("Invalid HOME_LOCATION %q, expected \"lat,lon\"", c.HomeLocation)
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		log.Printf("Invalid HOME_LOCATION %q, expected \"lat,lon\"", c.HomeLocation)
		return 0, 0, false
	}
	return lat, lon, true
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %g", key, v, fallback)
		return fallback
	}
	return f
}
