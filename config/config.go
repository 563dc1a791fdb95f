package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	// UpstreamBaseURL is the game backend serving seasons, leaderboard
	// snapshots and answers.
	UpstreamBaseURL string
	// JWTSecretKey verifies viewer tokens locally for selection
	// seeding. Empty is fine: tokens still pass through to the
	// backend, viewers just stay anonymous to this service.
	JWTSecretKey string
	// AvatarBaseURL resolves relative avatar paths to absolute URLs.
	AvatarBaseURL   string
	AllowedOrigins  []string
	ServerPort      int
	RefreshInterval time.Duration
}

// Load reads configuration from the environment, with an optional
// .env file for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	upstreamURL := os.Getenv("UPSTREAM_BASE_URL")
	if upstreamURL == "" {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	refreshInterval := 30 * time.Second
	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		refreshInterval, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REFRESH_INTERVAL environment variable: %w", err)
		}
		if refreshInterval < time.Second {
			return nil, fmt.Errorf("REFRESH_INTERVAL must be at least 1s, got %s", refreshInterval)
		}
	}

	origins := []string{"*"}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins = origins[:0]
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	cfg := &Config{
		UpstreamBaseURL: upstreamURL,
		JWTSecretKey:    os.Getenv("JWT_SECRET_KEY"),
		AvatarBaseURL:   os.Getenv("AVATAR_BASE_URL"),
		AllowedOrigins:  origins,
		ServerPort:      port,
		RefreshInterval: refreshInterval,
	}

	return cfg, nil
}
