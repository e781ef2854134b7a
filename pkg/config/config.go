package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	Debug   bool
	Port    string

	// Logging
	LogLevel string
	LogJSON  bool

	// Database
	DatabaseType string
	DatabaseURL  string

	// InfluxDB (profile event time-series, optional)
	InfluxDBURL    string
	InfluxDBToken  string
	InfluxDBOrg    string
	InfluxDBBucket string

	// Profile editing
	ProfileSessionTTL time.Duration // Idle time after which an edit session expires
	ProfilesPathRoot  string        // Prefix of the path reported for saved profiles

	// Rate limiting (per client IP)
	RateLimitRPS   float64
	RateLimitBurst int
}

var AppConfig *Config

// Load loads configuration from environment
func Load() *Config {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		AppName:           getEnv("APP_NAME", "PayPerPlay Profiles"),
		Debug:             getEnvBool("DEBUG", false),
		Port:              getEnv("PORT", "8000"),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		LogJSON:           getEnvBool("LOG_JSON", false),
		DatabaseType:      getEnv("DATABASE_TYPE", "postgres"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		InfluxDBURL:       getEnv("INFLUXDB_URL", ""),
		InfluxDBToken:     getEnv("INFLUXDB_TOKEN", ""),
		InfluxDBOrg:       getEnv("INFLUXDB_ORG", "payperplay"),
		InfluxDBBucket:    getEnv("INFLUXDB_BUCKET", "profile_events"),
		ProfileSessionTTL: getEnvDuration("PROFILE_SESSION_TTL", 2*time.Hour),
		ProfilesPathRoot:  getEnv("PROFILES_PATH_ROOT", "profiles"),
		RateLimitRPS:      getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:    getEnvInt("RATE_LIMIT_BURST", 20),
	}

	AppConfig = config
	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("Invalid boolean for %s, using default: %v", key, defaultValue)
			return defaultValue
		}
		return boolVal
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("Invalid integer for %s, using default: %d", key, defaultValue)
			return defaultValue
		}
		return intVal
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			log.Printf("Invalid float for %s, using default: %.2f", key, defaultValue)
			return defaultValue
		}
		return floatVal
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			log.Printf("Invalid duration for %s, using default: %s", key, defaultValue)
			return defaultValue
		}
		return d
	}
	return defaultValue
}
