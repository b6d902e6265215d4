package config

import (
	"os"
	"strconv"
)

// DefaultMatchThreshold is the squared-euclidean distance below which a
// face match is accepted. Earlier revisions of the system shipped with
// both 0.4 and 0.6; 0.6 is the documented default, override with
// MATCH_THRESHOLD.
const DefaultMatchThreshold = 0.6

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Embedder EmbedderConfig
	Match    MatchConfig
}

type ServerConfig struct {
	Host string // defaults to 0.0.0.0
	Port int    // defaults to 8080
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type EmbedderConfig struct {
	URL string // face embedding sidecar, defaults to http://localhost:8000
	Dim int    // expected embedding dimensionality hint (0 = accept any)
}

type MatchConfig struct {
	Threshold float64 // squared distance acceptance threshold
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envString("WEB_HOST", "0.0.0.0"),
			Port: envInt("WEB_PORT", 8080),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Embedder: EmbedderConfig{
			URL: envString("EMBEDDER_URL", "http://localhost:8000"),
			Dim: envInt("EMBEDDER_DIM", 0),
		},
		Match: MatchConfig{
			Threshold: envFloat("MATCH_THRESHOLD", DefaultMatchThreshold),
		},
	}
}
