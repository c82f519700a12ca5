package config

import (
	"os"
	"strconv"
	"strings"
)

// Configuration defines the structure for application settings.
type Configuration struct {
	ServerPort string
	Debug      bool
	LogLevel   string

	DBPath    string
	MediaRoot string

	MapDefaultLat  float64
	MapDefaultLng  float64
	MapDefaultZoom int

	SessionSecret string
	CORSOrigins   []string

	MaxUploadMB         int
	SubmitRatePerSecond float64
	SubmitRateBurst     int
}

const (
	defaultServerPort = "8080"        // Default server port.
	envServerPortKey  = "SERVER_PORT" // Environment variable name for the server port.
	envDebugKey       = "APP_DEBUG"
	defaultLogLevel   = "info"
	envLogLevelKey    = "LOG_LEVEL"

	defaultDBPath   = "complaints.db"
	envDBPathKey    = "SQLITE_DB_PATH"
	defaultMedia    = "."          // images/ is created below this directory
	envMediaRootKey = "MEDIA_ROOT" // Environment variable name for the media root.

	defaultMapLat     = 30.3165
	defaultMapLng     = 78.0322
	defaultMapZoom    = 13
	envMapLatKey      = "MAP_DEFAULT_LAT"
	envMapLngKey      = "MAP_DEFAULT_LNG"
	envMapZoomKey     = "MAP_DEFAULT_ZOOM"
	defaultCORSOrigin = "http://localhost:3000"
	envCORSOriginsKey = "CORS_ALLOWED_ORIGINS"

	// DefaultSessionSecret only signs flash-message cookies; set SESSION_SECRET in production.
	DefaultSessionSecret = "garbage-complaint-dev-secret"
	envSessionSecretKey  = "SESSION_SECRET"

	defaultMaxUploadMB     = 10
	envMaxUploadMBKey      = "MAX_UPLOAD_MB"
	defaultSubmitRate      = 5.0
	envSubmitRateKey       = "SUBMIT_RATE_PER_SECOND"
	defaultSubmitRateBurst = 10
	envSubmitRateBurstKey  = "SUBMIT_RATE_BURST"
)

// Load reads configuration from environment variables, falling back to defaults.
// Every setting has a default, so the server starts with an empty environment.
func Load() Configuration {
	return Configuration{
		ServerPort: envString(envServerPortKey, defaultServerPort),
		Debug:      envBool(envDebugKey, false),
		LogLevel:   envString(envLogLevelKey, defaultLogLevel),

		DBPath:    envString(envDBPathKey, defaultDBPath),
		MediaRoot: envString(envMediaRootKey, defaultMedia),

		MapDefaultLat:  envFloat(envMapLatKey, defaultMapLat),
		MapDefaultLng:  envFloat(envMapLngKey, defaultMapLng),
		MapDefaultZoom: envInt(envMapZoomKey, defaultMapZoom),

		SessionSecret: envString(envSessionSecretKey, DefaultSessionSecret),
		CORSOrigins:   envList(envCORSOriginsKey, []string{defaultCORSOrigin}),

		MaxUploadMB:         envInt(envMaxUploadMBKey, defaultMaxUploadMB),
		SubmitRatePerSecond: envFloat(envSubmitRateKey, defaultSubmitRate),
		SubmitRateBurst:     envInt(envSubmitRateBurstKey, defaultSubmitRateBurst),
	}
}

// UsingDefaultSessionSecret reports whether SESSION_SECRET was left unset.
func (c Configuration) UsingDefaultSessionSecret() bool {
	return c.SessionSecret == DefaultSessionSecret
}

func envString(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// envList splits a comma separated variable, dropping empty entries.
func envList(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
