package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/superdrive/vehicle-ledger/internal/fleet"
)

// Config carries everything the server reads from the environment.
type Config struct {
	// HTTP
	HTTPPort string

	// Token signing
	JWTSecret string
	TokenTTL  time.Duration

	// MongoDB archive mirror; empty disables it
	MongoURI string
	MongoDB  string

	// MQTT odometer ingest; empty broker disables it
	MQTTBroker   string
	MQTTClientID string

	// Domain policy
	HealthWeights fleet.HealthWeights
	RiskPolicy    fleet.RiskPolicy
}

// Load reads the configuration from the environment. Missing keys fall back
// to defaults; risk thresholds can be tuned per usage category, e.g.
// RISK_URBAN_NEAR_KM or RISK_HIGHWAY_WARN_DAYS.
func Load() *Config {
	defaults := fleet.DefaultHealthWeights()
	return &Config{
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		JWTSecret:    getEnv("JWT_SECRET", "default-secret-key-change-in-production"),
		TokenTTL:     getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDB:      getEnv("MONGO_DB", "vehicleledger"),
		MQTTBroker:   os.Getenv("MQTT_BROKER"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "vehicle-ledger"),
		HealthWeights: fleet.HealthWeights{
			Engine:    getEnvFloat("HEALTH_WEIGHT_ENGINE", defaults.Engine),
			Brakes:    getEnvFloat("HEALTH_WEIGHT_BRAKES", defaults.Brakes),
			Tires:     getEnvFloat("HEALTH_WEIGHT_TIRES", defaults.Tires),
			Documents: getEnvFloat("HEALTH_WEIGHT_DOCUMENTS", defaults.Documents),
		},
		RiskPolicy: loadRiskPolicy(),
	}
}

func loadRiskPolicy() fleet.RiskPolicy {
	policy := fleet.DefaultRiskPolicy()
	for usage, window := range policy {
		prefix := "RISK_" + strings.ToUpper(string(usage)) + "_"
		window.NearKm = getEnvInt64(prefix+"NEAR_KM", window.NearKm)
		window.WarnKm = getEnvInt64(prefix+"WARN_KM", window.WarnKm)
		window.NearDays = getEnvInt(prefix+"NEAR_DAYS", window.NearDays)
		window.WarnDays = getEnvInt(prefix+"WARN_DAYS", window.WarnDays)
		policy[usage] = window
	}
	return policy
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
