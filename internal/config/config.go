package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"sensorpush"
)

const appName = "sensorpush"

type Config struct {
	Email    string
	Password string

	APIURL       string
	MinInterval  time.Duration
	AuthTimeout  time.Duration
	TokenTimeout time.Duration

	SessionFile string
	DBPath      string

	LogLevel  string
	LogFormat string

	Port           string
	PollInterval   time.Duration
	SampleLimit    int
	AllowedOrigins []string
}

// Load reads a .env file when present, then environment variables
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	return &Config{
		Email:    getEnv("SENSORPUSH_EMAIL", ""),
		Password: getEnv("SENSORPUSH_PASSWORD", ""),

		APIURL:       getEnv("SENSORPUSH_API_URL", sensorpush.DefaultAPIURL),
		MinInterval:  getEnvDuration("SENSORPUSH_MIN_INTERVAL", sensorpush.DefaultMinInterval),
		AuthTimeout:  getEnvDuration("SENSORPUSH_AUTH_TIMEOUT", sensorpush.DefaultAuthTimeout),
		TokenTimeout: getEnvDuration("SENSORPUSH_TOKEN_TIMEOUT", sensorpush.DefaultTokenTimeout),

		SessionFile: getEnvPath("SENSORPUSH_SESSION_FILE", xdg.StateFile, "session.json"),
		DBPath:      getEnvPath("SENSORPUSH_DB", xdg.DataFile, "samples.db"),

		LogLevel:  getEnv("LOG_LEVEL", "warn"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		Port:         getEnv("PORT", "8080"),
		PollInterval: getEnvDuration("POLL_INTERVAL", 5*time.Minute),
		SampleLimit:  getEnvInt("SAMPLE_LIMIT", 100),

		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
	}
}

// Get a path env variable, defaulting to a file under the XDG directories
// and falling back to the working directory
func getEnvPath(key string, resolve func(string) (string, error), name string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	p, err := resolve(filepath.Join(appName, name))
	if err != nil {
		return name
	}
	return p
}

// Get a string env variable
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Get a duration env variable, e.g. 90s or 5m
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// Get a comma separated env variable
func getEnvList(key string) []string {
	var list []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	return list
}

// Get an int env variable
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
